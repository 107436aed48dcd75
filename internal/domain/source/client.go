// Package source defines the contract for the source accounting API the
// voucher records are pulled from.
package source

import (
	"context"
	"time"
)

// VoucherRecord is one raw record returned by the source system.
// The shape is owned by the source; it is passed through to the UI and
// into line items verbatim.
type VoucherRecord map[string]any

// InvoiceNo returns the source system's own invoice number, used by the
// purchase pathway instead of allocating from the counter.
func (r VoucherRecord) InvoiceNo() string {
	if v, ok := r["invoiceno"].(string); ok {
		return v
	}
	return ""
}

// Client fetches voucher records from the source accounting API.
type Client interface {
	// FetchVouchers returns raw records for a region and date range.
	FetchVouchers(ctx context.Context, region string, from, to time.Time) ([]VoucherRecord, error)
}
