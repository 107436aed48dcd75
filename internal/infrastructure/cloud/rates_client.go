package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"vouchersync/internal/domain/rates"
)

// Compile-time check.
var _ rates.Provider = (*RatesClient)(nil)

// RatesClient queries the external rate provider. The provider is a
// black box: one GET, one decimal rate back.
type RatesClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewRatesClient creates a rate provider client.
func NewRatesClient(baseURL string, timeout time.Duration) *RatesClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RatesClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Rate implements rates.Provider.
func (c *RatesClient) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build rate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate provider returned HTTP %d", resp.StatusCode)
	}

	var body struct {
		Rate decimal.Decimal `json:"rate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decode rate response: %w", err)
	}
	if body.Rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("rate provider returned non-positive rate %s", body.Rate)
	}
	return body.Rate, nil
}
