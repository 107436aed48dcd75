package submission

import (
	"context"
	"testing"
	"time"

	"vouchersync/internal/core/apperror"
	"vouchersync/internal/domain/destination"
	"vouchersync/internal/domain/numbering"
)

// In-memory numbering fakes shared by the service tests.

type memCounters struct {
	values map[numbering.Key]int64
}

func (m *memCounters) EnsureRow(_ context.Context, key numbering.Key) error {
	if _, ok := m.values[key]; !ok {
		m.values[key] = 0
	}
	return nil
}

func (m *memCounters) ReadCurrent(_ context.Context, key numbering.Key) (int64, error) {
	return m.values[key], nil
}

func (m *memCounters) CommitNext(_ context.Context, key numbering.Key, next int64) error {
	m.values[key] = next
	return nil
}

type memLedger struct {
	entries map[string]string
}

func (m *memLedger) Lookup(_ context.Context, key string) (string, bool, error) {
	no, ok := m.entries[key]
	return no, ok, nil
}

func (m *memLedger) Record(_ context.Context, key string, _ numbering.Key, voucherNo string) error {
	m.entries[key] = voucherNo
	return nil
}

type memLocker struct{}

func (memLocker) Acquire(_ context.Context, _ string, _ time.Duration) (func(), error) {
	return func() {}, nil
}

type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// stubSubmitter records delivered payloads and fails keys listed in reject.
type stubSubmitter struct {
	payloads []map[string]any
	reject   map[string]error
}

func (s *stubSubmitter) Submit(_ context.Context, _ destination.Config, payload map[string]any) error {
	s.payloads = append(s.payloads, payload)
	if err, ok := s.reject[payload["customer"].(string)]; ok {
		return err
	}
	return nil
}

func newTestService(client Submitter) *Service {
	alloc := numbering.NewAllocator(
		&memCounters{values: make(map[numbering.Key]int64)},
		&memLedger{entries: make(map[string]string)},
		memLocker{},
		passTx{},
		numbering.DefaultConfig("AQNS"),
	)
	return NewService(alloc, client)
}

func item(key, customer string) VoucherLineItem {
	return VoucherLineItem{
		IdempotencyKey: key,
		Region:         "nepal",
		VoucherType:    "sales",
		Fields:         map[string]any{"customer": customer, "amount": 1500.0},
	}
}

var nepalSales = destination.Config{
	Name:        destination.NepalSales,
	SuccessCode: "101",
	Numbered:    true,
}

func TestSubmitBatch_ResultsInInputOrder(t *testing.T) {
	client := &stubSubmitter{
		reject: map[string]error{
			"beta": apperror.NewExternalRejected("invalid PAN"),
		},
	}
	svc := newTestService(client)

	items := []VoucherLineItem{
		item("k-1", "alpha"),
		item("k-2", "beta"),
		item("k-3", "gamma"),
	}

	results := svc.SubmitBatch(context.Background(), nepalSales, items)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if !results[0].OK || results[0].VoucherNo != "AQNS/001" {
		t.Errorf("item 1: %+v", results[0])
	}
	if results[1].OK {
		t.Errorf("item 2 should have failed: %+v", results[1])
	}
	if results[1].Message != "invalid PAN" {
		t.Errorf("item 2 message: %q", results[1].Message)
	}
	// The rejected candidate AQNS/002 was never consumed, so gamma gets it.
	if !results[2].OK || results[2].VoucherNo != "AQNS/002" {
		t.Errorf("item 3: %+v", results[2])
	}

	for i, want := range []string{"k-1", "k-2", "k-3"} {
		if results[i].IdempotencyKey != want {
			t.Errorf("result %d key = %s, want %s", i, results[i].IdempotencyKey, want)
		}
	}
}

func TestSubmitBatch_MissingIdempotencyKey(t *testing.T) {
	client := &stubSubmitter{}
	svc := newTestService(client)

	items := []VoucherLineItem{
		item("", "alpha"),
		item("k-2", "beta"),
	}

	results := svc.SubmitBatch(context.Background(), nepalSales, items)

	if results[0].OK {
		t.Errorf("missing key must fail: %+v", results[0])
	}
	if results[0].Message != "idempotencyKey is required" {
		t.Errorf("message: %q", results[0].Message)
	}
	// The invalid item never reaches the destination.
	if len(client.payloads) != 1 {
		t.Fatalf("expected 1 delivered payload, got %d", len(client.payloads))
	}
	if !results[1].OK || results[1].VoucherNo != "AQNS/001" {
		t.Errorf("valid item after invalid one: %+v", results[1])
	}
}

func TestSubmitBatch_VerbatimResubmission(t *testing.T) {
	client := &stubSubmitter{}
	svc := newTestService(client)

	batch := []VoucherLineItem{
		item("k-1", "alpha"),
		item("k-2", "beta"),
		item("k-3", "gamma"),
	}

	first := svc.SubmitBatch(context.Background(), nepalSales, batch)
	second := svc.SubmitBatch(context.Background(), nepalSales, batch)

	for i := range batch {
		if !first[i].OK || !second[i].OK {
			t.Fatalf("item %d failed: %+v / %+v", i, first[i], second[i])
		}
		if first[i].VoucherNo != second[i].VoucherNo {
			t.Errorf("item %d: resubmission changed the number %s -> %s",
				i, first[i].VoucherNo, second[i].VoucherNo)
		}
	}
	if first[2].VoucherNo != "AQNS/003" {
		t.Errorf("last number = %s", first[2].VoucherNo)
	}
	if len(client.payloads) != 3 {
		t.Errorf("resubmission reached the destination: %d deliveries", len(client.payloads))
	}
}

func TestSubmitBatch_WirePayloadShape(t *testing.T) {
	client := &stubSubmitter{}
	svc := newTestService(client)

	svc.SubmitBatch(context.Background(), nepalSales, []VoucherLineItem{item("k-1", "alpha")})

	if len(client.payloads) != 1 {
		t.Fatal("no payload delivered")
	}
	p := client.payloads[0]
	if p["voucherno"] != "AQNS/001" {
		t.Errorf("voucherno = %v", p["voucherno"])
	}
	for _, routing := range []string{"idempotencyKey", "region", "vouchertype"} {
		if _, ok := p[routing]; ok {
			t.Errorf("routing field %q leaked to the wire", routing)
		}
	}
	if p["customer"] != "alpha" {
		t.Errorf("business field lost: %v", p["customer"])
	}
}
