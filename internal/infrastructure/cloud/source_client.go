package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"vouchersync/internal/domain/source"
)

// Compile-time check.
var _ source.Client = (*SourceClient)(nil)

// SourceClient fetches raw voucher records from the source accounting API.
type SourceClient struct {
	baseURL    string
	authHeader string
	authToken  string
	httpClient *http.Client
}

// NewSourceClient creates a source API client.
func NewSourceClient(baseURL, authHeader, authToken string, timeout time.Duration) *SourceClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SourceClient{
		baseURL:    baseURL,
		authHeader: authHeader,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// sourceEnvelope is the source API response: {"data": [record]}.
type sourceEnvelope struct {
	Data []source.VoucherRecord `json:"data"`
}

// FetchVouchers returns the raw records for a region and date range.
func (c *SourceClient) FetchVouchers(ctx context.Context, region string, from, to time.Time) ([]source.VoucherRecord, error) {
	q := url.Values{}
	q.Set("region", region)
	q.Set("from", from.Format("2006-01-02"))
	q.Set("to", to.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build source request: %w", err)
	}
	if c.authHeader != "" {
		req.Header.Set(c.authHeader, c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch vouchers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source API returned HTTP %d", resp.StatusCode)
	}

	var env sourceEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode source response: %w", err)
	}
	return env.Data, nil
}
