package dispatch

import (
	"context"
	"testing"

	"vouchersync/internal/core/apperror"
	"vouchersync/internal/domain/destination"
	"vouchersync/internal/domain/submission"
)

// flakySubmitter fails the first failures calls, then accepts.
type flakySubmitter struct {
	failures int
	err      error
	calls    int
	payloads []map[string]any
}

func (f *flakySubmitter) Submit(_ context.Context, _ destination.Config, payload map[string]any) error {
	f.calls++
	f.payloads = append(f.payloads, payload)
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

var indiaSales = destination.Config{
	Name:        destination.IndiaSales,
	SuccessCode: "200",
}

func lineItem(key string, fields map[string]any) submission.VoucherLineItem {
	if fields == nil {
		fields = map[string]any{}
	}
	return submission.VoucherLineItem{
		IdempotencyKey: key,
		Region:         "india",
		VoucherType:    "sales",
		Fields:         fields,
	}
}

func TestSubmitOne_RetriesTransientFailure(t *testing.T) {
	client := &flakySubmitter{
		failures: 2,
		err:      apperror.NewExternalRejected("destination unreachable").MarkTransient(),
	}
	svc := NewService(client)

	results := svc.SubmitBatch(context.Background(), indiaSales,
		[]submission.VoucherLineItem{lineItem("k-1", nil)})

	if !results[0].OK {
		t.Fatalf("expected success after retries: %+v", results[0])
	}
	if client.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", client.calls)
	}
}

func TestSubmitOne_NoRetryOnBusinessRejection(t *testing.T) {
	client := &flakySubmitter{
		failures: 10,
		err:      apperror.NewExternalRejected("invalid GSTIN"),
	}
	svc := NewService(client)

	results := svc.SubmitBatch(context.Background(), indiaSales,
		[]submission.VoucherLineItem{lineItem("k-1", nil)})

	if results[0].OK {
		t.Fatalf("business rejection must fail: %+v", results[0])
	}
	if results[0].Message != "invalid GSTIN" {
		t.Errorf("message = %q", results[0].Message)
	}
	if client.calls != 1 {
		t.Errorf("business rejection must not be retried, got %d attempts", client.calls)
	}
}

func TestSubmitOne_TransientExhaustion(t *testing.T) {
	client := &flakySubmitter{
		failures: 100,
		err:      apperror.NewExternalRejected("destination unreachable").MarkTransient(),
	}
	svc := NewService(client)

	results := svc.SubmitBatch(context.Background(), indiaSales,
		[]submission.VoucherLineItem{lineItem("k-1", nil)})

	if results[0].OK {
		t.Fatal("expected failure after retry exhaustion")
	}
	if client.calls != 4 {
		t.Errorf("expected initial attempt + 3 retries, got %d", client.calls)
	}
}

func TestSubmitOne_ReusesSourceInvoiceNo(t *testing.T) {
	client := &flakySubmitter{}
	svc := NewService(client)

	dest := destination.Config{
		Name:                 destination.NepalPurchase,
		SuccessCode:          "101",
		ReuseSourceInvoiceNo: true,
	}

	results := svc.SubmitBatch(context.Background(), dest,
		[]submission.VoucherLineItem{lineItem("k-1", map[string]any{"invoiceno": "PB-771"})})

	if !results[0].OK || results[0].VoucherNo != "PB-771" {
		t.Fatalf("expected invoice number passthrough: %+v", results[0])
	}
	if client.payloads[0]["voucherno"] != "PB-771" {
		t.Errorf("wire payload voucherno = %v", client.payloads[0]["voucherno"])
	}
}

func TestSubmitBatch_MissingKeyFailsFast(t *testing.T) {
	client := &flakySubmitter{}
	svc := NewService(client)

	results := svc.SubmitBatch(context.Background(), indiaSales,
		[]submission.VoucherLineItem{lineItem("", nil), lineItem("k-2", nil)})

	if results[0].OK || results[0].Message != "idempotencyKey is required" {
		t.Errorf("first result: %+v", results[0])
	}
	if !results[1].OK {
		t.Errorf("second result: %+v", results[1])
	}
	if client.calls != 1 {
		t.Errorf("invalid item reached the client: %d calls", client.calls)
	}
}
