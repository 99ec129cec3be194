package nse

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"industrymap/internal/model"
	"industrymap/internal/retry"
)

const (
	// DefaultBaseURL is the NSE quote API root.
	DefaultBaseURL = "https://www.nseindia.com/api"
	// DefaultArchivesURL hosts the symbol-list CSV downloads.
	DefaultArchivesURL = "https://nsearchives.nseindia.com"

	mainboardCSVPath = "/content/equities/EQUITY_L.csv"
	smeCSVPath       = "/emerge/corporates/content/SME_EQUITY_L.csv"
	quotePath        = "/quote-equity"

	// Rights entitlements carry no classification of their own and are
	// never queried.
	rightsSuffix = "-RE"
)

// Series fallback order per segment: the CSV-provided series is tried
// first, then these, stopping at the first variant with data.
var (
	mainboardSeries = []string{"EQ", "BE"}
	smeSeries       = []string{"SM", "ST"}

	// Normal market first, then the periodic call auction market.
	marketTypes = []string{"N", "G"}
)

// Client fetches NSE symbol lists and per-symbol classifications.
type Client struct {
	baseURL     string
	archivesURL string
	httpClient  *http.Client
	logger      *slog.Logger
	policy      retry.Policy
	serverMode  bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates an NSE client using the given retry policy.
func NewClient(policy retry.Policy, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		archivesURL: DefaultArchivesURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
		policy: policy,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.serverMode {
		// Hosted runners get blocked on the default transport settings;
		// force HTTP/2 and skip keep-alive reuse across symbols.
		c.httpClient.Transport = &http.Transport{
			ForceAttemptHTTP2: true,
			DisableKeepAlives: true,
		}
	}

	return c
}

// WithBaseURL overrides the quote API root.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithArchivesURL overrides the CSV download root.
func WithArchivesURL(u string) ClientOption {
	return func(c *Client) {
		c.archivesURL = strings.TrimRight(u, "/")
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

// WithServerMode switches the transport profile for hosted (CI) runners.
func WithServerMode(on bool) ClientOption {
	return func(c *Client) {
		c.serverMode = on
	}
}

// MainboardListings fetches the mainboard symbol list.
func (c *Client) MainboardListings(ctx context.Context) ([]model.Listing, error) {
	return c.listings(ctx, c.archivesURL+mainboardCSVPath, "mainboard")
}

// SMEListings fetches the SME board symbol list.
func (c *Client) SMEListings(ctx context.Context) ([]model.Listing, error) {
	return c.listings(ctx, c.archivesURL+smeCSVPath, "sme")
}

func (c *Client) listings(ctx context.Context, url, segment string) ([]model.Listing, error) {
	c.logger.Info("fetching nse symbol list", "segment", segment, "url", url)

	body, err := c.getWithRetry(ctx, "nse "+segment+" list", url, nil)
	if err != nil {
		return nil, err
	}

	listings, err := parseListingCSV(body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("fetched nse symbol list", "segment", segment, "count", len(listings))
	return listings, nil
}

// Classification fetches the industry classification for a symbol. It tries
// the CSV-provided series first and then the segment's fallback series, each
// against the normal and the periodic-call-auction market, stopping at the
// first variant with data. All variants exhausted means model.ErrNoData.
func (c *Client) Classification(ctx context.Context, symbol, series string, segment model.Segment) (model.Record, error) {
	if strings.HasSuffix(symbol, rightsSuffix) {
		return nil, model.ErrNoData
	}

	for _, ser := range seriesCandidates(series, segment) {
		for _, mkt := range marketTypes {
			rec, err := c.fetchScripInfo(ctx, symbol, ser, mkt)
			if err != nil {
				return nil, err
			}
			if rec != nil {
				return rec, nil
			}
		}
	}

	return nil, model.ErrNoData
}

// fetchScripInfo queries one (series, marketType) variant. A nil record
// with nil error means the call succeeded but carried no classification.
func (c *Client) fetchScripInfo(ctx context.Context, symbol, series, marketType string) (model.Record, error) {
	params := map[string]string{
		"symbol":     symbol,
		"series":     series,
		"marketType": marketType,
	}

	body, err := c.getWithRetry(ctx, "nse scrip detail", c.baseURL+quotePath, params)
	if err != nil {
		return nil, err
	}

	var resp quoteResponse
	if unmarshalErr := json.Unmarshal(body, &resp); unmarshalErr != nil {
		c.logger.Warn("nse scrip response unparseable",
			"symbol", symbol,
			"series", series,
			"market_type", marketType,
			"error", unmarshalErr,
		)
		return nil, nil
	}

	if len(resp.EquityResponse) == 0 {
		return nil, nil
	}
	si := resp.EquityResponse[0].SecInfo
	if si == nil {
		// marketType mismatch: the call succeeds but secInfo is null.
		return nil, nil
	}

	rec, ok := model.NewRecord(si.Macro, si.Sector, si.IndustryInfo, si.BasicIndustry)
	if !ok {
		return nil, nil
	}
	return rec, nil
}

// seriesCandidates returns the ordered, de-duplicated series list to try.
func seriesCandidates(series string, segment model.Segment) []string {
	fallback := mainboardSeries
	if segment == model.SegmentSME {
		fallback = smeSeries
	}

	out := make([]string, 0, len(fallback)+1)
	seen := make(map[string]bool, len(fallback)+1)
	for _, s := range append([]string{series}, fallback...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
