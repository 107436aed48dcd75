// Package submission drives batches of voucher line items through
// numbering and delivery to a destination cloud API.
package submission

import (
	"encoding/json"
	"fmt"
)

// Routing fields carried by every line item. They are internal-only and
// never cross the wire to a destination.
const (
	fieldIdempotencyKey = "idempotencyKey"
	fieldRegion         = "region"
	fieldVoucherType    = "vouchertype"

	// fieldVoucherNo is the assigned number added to the wire payload.
	fieldVoucherNo = "voucherno"
)

// VoucherLineItem is one logical voucher to submit. The routing fields
// are typed and validated structurally; every other field is an open bag
// of business data (amounts, narration, ledger allocation lines) passed
// through verbatim.
type VoucherLineItem struct {
	IdempotencyKey string
	Region         string
	VoucherType    string
	Fields         map[string]any
}

// UnmarshalJSON splits the routing fields from the business fields.
func (v *VoucherLineItem) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("voucher line item: %w", err)
	}

	v.IdempotencyKey = popString(raw, fieldIdempotencyKey)
	v.Region = popString(raw, fieldRegion)
	v.VoucherType = popString(raw, fieldVoucherType)
	v.Fields = raw
	return nil
}

// MarshalJSON restores the inbound shape (routing fields + business bag).
func (v VoucherLineItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(v.Fields)+3)
	for k, val := range v.Fields {
		out[k] = val
	}
	out[fieldIdempotencyKey] = v.IdempotencyKey
	out[fieldRegion] = v.Region
	out[fieldVoucherType] = v.VoucherType
	return json.Marshal(out)
}

// WirePayload builds the document sent to the destination: business
// fields only, plus the assigned voucher number when one was allocated.
// Routing fields never leak to the wire.
func (v VoucherLineItem) WirePayload(voucherNo string) map[string]any {
	out := make(map[string]any, len(v.Fields)+1)
	for k, val := range v.Fields {
		out[k] = val
	}
	if voucherNo != "" {
		out[fieldVoucherNo] = voucherNo
	}
	return out
}

func popString(m map[string]any, key string) string {
	val, ok := m[key]
	if !ok {
		return ""
	}
	delete(m, key)
	s, _ := val.(string)
	return s
}

// SubmissionResult is the per-item outcome, returned in input order.
type SubmissionResult struct {
	IdempotencyKey string `json:"idempotencyKey"`
	OK             bool   `json:"ok"`
	VoucherNo      string `json:"voucherNo,omitempty"`
	Message        string `json:"message,omitempty"`
}
