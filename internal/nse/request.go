package nse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"industrymap/internal/retry"
)

// Browser-ish headers keep the scraped endpoints from rejecting us outright.
var requestHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Accept":          "*/*",
	"Accept-Language": "en-US,en;q=0.9",
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
	for k, v := range requestHeaders {
		req.Header.Set(k, v)
	}
	req.Header.Set("Referer", c.baseURL)

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
