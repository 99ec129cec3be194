package bse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"industrymap/internal/model"
	"industrymap/internal/retry"
)

const (
	// DefaultBaseURL is the BSE India API root.
	DefaultBaseURL = "https://api.bseindia.com/BseIndiaAPI/api"

	securitiesPath = "/ListofScripData/w"
	metaInfoPath   = "/ComHeadernew/w"
)

// Client fetches the BSE securities list and per-scrip classifications.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	policy     retry.Policy
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a BSE client using the given retry policy.
func NewClient(policy retry.Policy, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
		policy: policy,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithBaseURL overrides the API root.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// scripRow is one entry of the securities list payload.
type scripRow struct {
	ScripCode json.Number `json:"SCRIP_CD"`
	ScripID   string      `json:"scrip_id"`
}

// metaInfo is the relevant slice of the equity header payload.
type metaInfo struct {
	Sector      string `json:"Sector"`
	IndustryNew string `json:"IndustryNew"`
	IGroup      string `json:"IGroup"`
	ISubGroup   string `json:"ISubGroup"`
}

// Securities fetches the list of active equity securities.
func (c *Client) Securities(ctx context.Context) ([]model.Security, error) {
	c.logger.Info("fetching bse securities list")

	params := map[string]string{
		"segment": "Equity",
		"status":  "Active",
	}
	body, err := c.getWithRetry(ctx, "bse securities list", c.baseURL+securitiesPath, params)
	if err != nil {
		return nil, err
	}

	var rows []scripRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse securities list: %w", err)
	}

	securities := make([]model.Security, 0, len(rows))
	for _, row := range rows {
		code := row.ScripCode.String()
		if code == "" || row.ScripID == "" {
			continue
		}
		securities = append(securities, model.Security{
			ScripCode: code,
			Symbol:    row.ScripID,
		})
	}

	c.logger.Info("fetched bse securities list", "count", len(securities))
	return securities, nil
}

// Classification fetches the industry classification for a scrip code,
// remapped into the shared record order. A header with no classification
// fields at all means model.ErrNoData.
func (c *Client) Classification(ctx context.Context, scripCode string) (model.Record, error) {
	params := map[string]string{
		"quotetype": "EQ",
		"scripcode": scripCode,
	}
	body, err := c.getWithRetry(ctx, "bse scrip header", c.baseURL+metaInfoPath, params)
	if err != nil {
		return nil, err
	}

	var mi metaInfo
	if err := json.Unmarshal(body, &mi); err != nil {
		c.logger.Warn("bse scrip header unparseable", "scrip_code", scripCode, "error", err)
		return nil, model.ErrNoData
	}

	rec, ok := model.NewRecord(mi.Sector, mi.IndustryNew, mi.IGroup, mi.ISubGroup)
	if !ok {
		return nil, model.ErrNoData
	}
	return rec, nil
}

// getWithRetry performs a GET through the retry policy.
func (c *Client) getWithRetry(ctx context.Context, op, rawURL string, params map[string]string) ([]byte, error) {
	var body []byte
	err := retry.Do(ctx, c.policy, c.logger, op, func() error {
		var reqErr error
		body, reqErr = c.doRequest(ctx, rawURL, params)
		return reqErr
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// doRequest performs a single GET and classifies HTTP failures.
func (c *Client) doRequest(ctx context.Context, rawURL string, params map[string]string) ([]byte, error) {
	fullURL := rawURL
	if len(params) > 0 {
		query := url.Values{}
		for k, v := range params {
			query.Set(k, v)
		}
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("Referer", "https://www.bseindia.com/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &retry.StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	return body, nil
}
