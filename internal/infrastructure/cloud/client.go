// Package cloud implements the outbound HTTP clients: destination
// submission, source voucher fetch, and currency rates.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vouchersync/internal/core/apperror"
	"vouchersync/internal/domain/destination"
	"vouchersync/internal/domain/submission"
	"vouchersync/pkg/logger"
)

var tracer = otel.Tracer("vouchersync/cloud")

// Compile-time check.
var _ submission.Submitter = (*Client)(nil)

// DefaultTimeout bounds one submission round-trip. Exceeding it counts
// as rejection (no commit); the external state is then unknown, which is
// why retries go through the idempotency ledger, never automatic resend.
const DefaultTimeout = 30 * time.Second

// Client posts formatted voucher documents to destination cloud APIs and
// normalizes every failure shape (transport error, non-2xx, malformed
// body, payload-level rejection) into one rejection outcome.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a submission client.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// submitEnvelope is the wire request: {"data": [voucher]}.
type submitEnvelope struct {
	Data []map[string]any `json:"data"`
}

// statusItem is one per-item status object in the response body.
type statusItem struct {
	StatusCode flexString `json:"statuscd"`
	Message    string     `json:"statusmsg"`
}

// responseEnvelope covers the nested {"data": [...]} response shape.
type responseEnvelope struct {
	Data []statusItem `json:"data"`
}

// Submit posts one voucher document. A nil return means the destination
// confirmed acceptance (its status code matched the configured sentinel).
func (c *Client) Submit(ctx context.Context, dest destination.Config, payload map[string]any) error {
	ctx, span := tracer.Start(ctx, "cloud.submit",
		trace.WithAttributes(attribute.String("destination", dest.Name)))
	defer span.End()

	body, err := json.Marshal(submitEnvelope{Data: []map[string]any{payload}})
	if err != nil {
		return apperror.NewExternalRejected("encode voucher payload").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dest.URL, bytes.NewReader(body))
	if err != nil {
		return apperror.NewExternalRejected("build request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if dest.AuthHeader != "" {
		req.Header.Set(dest.AuthHeader, dest.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failure: no commit. The destination may still have
		// processed the request; the ledger protects the retry.
		logger.Warn(ctx, "destination transport failure",
			"destination", dest.Name, "error", err)
		return apperror.NewExternalRejected("destination unreachable").WithCause(err).MarkTransient()
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperror.NewExternalRejected("read destination response").WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rej := apperror.NewExternalRejected(
			fmt.Sprintf("destination returned HTTP %d", resp.StatusCode)).
			WithDetail("body", string(raw))
		if resp.StatusCode >= 500 {
			rej = rej.MarkTransient()
		}
		return rej
	}

	status, err := parseStatus(raw)
	if err != nil {
		return apperror.NewExternalRejected("malformed destination response").WithCause(err)
	}

	if string(status.StatusCode) != dest.SuccessCode {
		msg := status.Message
		if msg == "" {
			msg = fmt.Sprintf("destination status %s", status.StatusCode)
		}
		return apperror.NewExternalRejected(msg).
			WithDetail("status_code", string(status.StatusCode))
	}

	return nil
}

// parseStatus interprets the response body: either a bare array of
// status objects or a nested {"data": [...]} envelope.
func parseStatus(raw []byte) (statusItem, error) {
	var items []statusItem
	if err := json.Unmarshal(raw, &items); err == nil && len(items) > 0 {
		return items[0], nil
	}

	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 {
		return env.Data[0], nil
	}

	return statusItem{}, fmt.Errorf("no status items in response: %s", raw)
}

// flexString accepts both string and numeric JSON values; destinations
// disagree on whether status codes are quoted.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
