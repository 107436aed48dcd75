package numbering

import (
	"context"
	"errors"
	"testing"
	"time"

	"vouchersync/internal/core/apperror"
)

// In-memory fakes.

type fakeCounters struct {
	values      map[Key]int64
	commitErr   error
	commitCalls int
}

func newFakeCounters() *fakeCounters {
	return &fakeCounters{values: make(map[Key]int64)}
}

func (f *fakeCounters) EnsureRow(_ context.Context, key Key) error {
	if _, ok := f.values[key]; !ok {
		f.values[key] = 0
	}
	return nil
}

func (f *fakeCounters) ReadCurrent(_ context.Context, key Key) (int64, error) {
	return f.values[key], nil
}

func (f *fakeCounters) CommitNext(_ context.Context, key Key, next int64) error {
	f.commitCalls++
	if f.commitErr != nil {
		return f.commitErr
	}
	if _, ok := f.values[key]; !ok {
		return ErrCounterRowMissing
	}
	f.values[key] = next
	return nil
}

type fakeLedger struct {
	entries map[string]string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: make(map[string]string)}
}

func (f *fakeLedger) Lookup(_ context.Context, idempotencyKey string) (string, bool, error) {
	no, ok := f.entries[idempotencyKey]
	return no, ok, nil
}

func (f *fakeLedger) Record(_ context.Context, idempotencyKey string, _ Key, voucherNo string) error {
	if _, ok := f.entries[idempotencyKey]; ok {
		return errors.New("duplicate idempotency key")
	}
	f.entries[idempotencyKey] = voucherNo
	return nil
}

type fakeLocker struct {
	acquired int
	released int
	fail     bool
}

func (f *fakeLocker) Acquire(_ context.Context, _ string, _ time.Duration) (func(), error) {
	if f.fail {
		return nil, ErrLockNotAcquired
	}
	f.acquired++
	return func() { f.released++ }, nil
}

// noopTx runs the callback directly. Commit failures are simulated at
// the store level, not here.
type noopTx struct{}

func (noopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestAllocator(counters *fakeCounters, ledger *fakeLedger, locks *fakeLocker) *Allocator {
	return NewAllocator(counters, ledger, locks, noopTx{}, DefaultConfig("AQNS")).
		WithLockWait(10 * time.Millisecond)
}

func acceptAll(_ context.Context, _ string) error { return nil }

func TestAllocate_SequentialNumbers(t *testing.T) {
	counters := newFakeCounters()
	ledger := newFakeLedger()
	locks := &fakeLocker{}
	alloc := newTestAllocator(counters, ledger, locks)

	ctx := context.Background()
	key := Key{Region: "nepal", VoucherType: "sales"}

	res, err := alloc.Allocate(ctx, key, "key-1", acceptAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.VoucherNo != "AQNS/001" || res.Reused {
		t.Errorf("expected fresh AQNS/001, got %+v", res)
	}

	res, err = alloc.Allocate(ctx, key, "key-2", acceptAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.VoucherNo != "AQNS/002" {
		t.Errorf("expected AQNS/002, got %s", res.VoucherNo)
	}

	if locks.acquired != 2 || locks.released != 2 {
		t.Errorf("lock acquire/release mismatch: %d/%d", locks.acquired, locks.released)
	}
}

func TestAllocate_IdempotentResubmission(t *testing.T) {
	counters := newFakeCounters()
	ledger := newFakeLedger()
	locks := &fakeLocker{}
	alloc := newTestAllocator(counters, ledger, locks)

	ctx := context.Background()
	key := Key{Region: "nepal", VoucherType: "sales"}

	first, err := alloc.Allocate(ctx, key, "retry-key", acceptAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	submitted := false
	second, err := alloc.Allocate(ctx, key, "retry-key", func(_ context.Context, _ string) error {
		submitted = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Reused {
		t.Error("expected resubmission to be marked reused")
	}
	if second.VoucherNo != first.VoucherNo {
		t.Errorf("resubmission returned %s, first returned %s", second.VoucherNo, first.VoucherNo)
	}
	if submitted {
		t.Error("resubmission must not reach the destination")
	}
	if counters.values[key] != 1 {
		t.Errorf("counter advanced on resubmission: %d", counters.values[key])
	}
}

func TestAllocate_RejectionLeavesNoTrace(t *testing.T) {
	counters := newFakeCounters()
	ledger := newFakeLedger()
	locks := &fakeLocker{}
	alloc := newTestAllocator(counters, ledger, locks)

	ctx := context.Background()
	key := Key{Region: "nepal", VoucherType: "sales"}

	rejected := apperror.NewExternalRejected("invalid customer PAN")
	_, err := alloc.Allocate(ctx, key, "bad-key", func(_ context.Context, no string) error {
		if no != "AQNS/001" {
			t.Errorf("expected candidate AQNS/001, got %s", no)
		}
		return rejected
	})
	if !errors.Is(err, rejected) {
		t.Fatalf("expected rejection to surface, got %v", err)
	}

	if counters.values[key] != 0 {
		t.Errorf("counter advanced on rejection: %d", counters.values[key])
	}
	if counters.commitCalls != 0 {
		t.Errorf("commit attempted on rejection: %d calls", counters.commitCalls)
	}
	if _, found, _ := ledger.Lookup(ctx, "bad-key"); found {
		t.Error("ledger recorded a rejected submission")
	}
	if locks.released != 1 {
		t.Errorf("lock not released after rejection: %d", locks.released)
	}

	// The same candidate is re-offered to the next attempt.
	res, err := alloc.Allocate(ctx, key, "good-key", acceptAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.VoucherNo != "AQNS/001" {
		t.Errorf("expected re-offered AQNS/001, got %s", res.VoucherNo)
	}
}

func TestAllocate_LockTimeout(t *testing.T) {
	alloc := newTestAllocator(newFakeCounters(), newFakeLedger(), &fakeLocker{fail: true})

	key := Key{Region: "nepal", VoucherType: "sales"}
	_, err := alloc.Allocate(context.Background(), key, "key-1", acceptAll)
	if !apperror.IsCode(err, apperror.CodeLockTimeout) {
		t.Fatalf("expected LOCK_TIMEOUT, got %v", err)
	}
}

func TestAllocate_EmptyIdempotencyKey(t *testing.T) {
	locks := &fakeLocker{}
	alloc := newTestAllocator(newFakeCounters(), newFakeLedger(), locks)

	_, err := alloc.Allocate(context.Background(), Key{Region: "nepal", VoucherType: "sales"}, "", acceptAll)
	if !apperror.IsCode(err, apperror.CodeValidation) {
		t.Fatalf("expected VALIDATION error, got %v", err)
	}
	if locks.acquired != 0 {
		t.Error("lock acquired for an invalid request")
	}
}

func TestAllocate_CommitInconsistency(t *testing.T) {
	counters := newFakeCounters()
	counters.commitErr = errors.New("connection reset")
	ledger := newFakeLedger()
	locks := &fakeLocker{}
	alloc := newTestAllocator(counters, ledger, locks)

	key := Key{Region: "nepal", VoucherType: "sales"}
	submitted := false
	_, err := alloc.Allocate(context.Background(), key, "key-1", func(_ context.Context, _ string) error {
		submitted = true
		return nil
	})
	if !submitted {
		t.Fatal("submission never happened")
	}
	if !apperror.IsCode(err, apperror.CodeCommitInconsistent) {
		t.Fatalf("expected COMMIT_INCONSISTENCY, got %v", err)
	}
	if locks.released != 1 {
		t.Error("lock not released after commit failure")
	}
}

func TestAllocate_IndependentScopes(t *testing.T) {
	counters := newFakeCounters()
	ledger := newFakeLedger()
	alloc := newTestAllocator(counters, ledger, &fakeLocker{})

	ctx := context.Background()
	sales := Key{Region: "nepal", VoucherType: "sales"}
	purchase := Key{Region: "nepal", VoucherType: "purchase"}

	res, err := alloc.Allocate(ctx, sales, "s-1", acceptAll)
	if err != nil {
		t.Fatal(err)
	}
	if res.VoucherNo != "AQNS/001" {
		t.Errorf("sales: got %s", res.VoucherNo)
	}

	res, err = alloc.Allocate(ctx, purchase, "p-1", acceptAll)
	if err != nil {
		t.Fatal(err)
	}
	if res.VoucherNo != "AQNS/001" {
		t.Errorf("purchase scope must start from its own counter, got %s", res.VoucherNo)
	}
}
