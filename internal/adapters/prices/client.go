package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"pulse/internal/adapters/config"
	"pulse/internal/domain/pricing"
	"pulse/internal/domain/rollup"
	"pulse/pkg/errors"
)

// Compile-time check
var _ pricing.Source = (*Client)(nil)

// Client resolves historical closing prices over HTTP. One point lookup per
// day; no caching and no retries, the reconciler treats failures as fatal
// for the day.
type Client struct {
	baseURL    string
	apiKey     string
	symbol     string
	httpClient *http.Client
}

// NewClient creates a new price lookup client
func NewClient(cfg config.PricesConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		symbol:     cfg.Symbol,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type closeAPIResponse struct {
	Symbol string      `json:"symbol"`
	Date   string      `json:"date"`
	Close  json.Number `json:"close"`
}

// ClosingPrice fetches the closing price for a UTC calendar day
func (c *Client) ClosingPrice(ctx context.Context, day time.Time) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("symbol", c.symbol)
	q.Set("date", rollup.DayKey(day))

	endpoint := fmt.Sprintf("%s/v1/close?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "create price request")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "price request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// The service has no close for this date yet
		return decimal.Zero, errors.Wrapf(errors.ErrPriceUnavailable, "no close for %s", rollup.DayKey(day))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return decimal.Zero, fmt.Errorf("price API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp closeAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return decimal.Zero, errors.Wrap(err, "decode price response")
	}

	if apiResp.Close == "" {
		return decimal.Zero, errors.Wrapf(errors.ErrPriceUnavailable, "empty close for %s", rollup.DayKey(day))
	}

	price, err := decimal.NewFromString(apiResp.Close.String())
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "malformed close %q", apiResp.Close)
	}

	return price, nil
}
