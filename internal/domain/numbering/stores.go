package numbering

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Key identifies one counter scope.
// FiscalYear may be empty, meaning "unscoped".
type Key struct {
	Region      string
	VoucherType string
	FiscalYear  string
}

// LockName builds the named-lock identifier for the key.
// FiscalYear is deliberately excluded: all allocations for a
// (region, voucher type) pair serialize on one lock.
func (k Key) LockName() string {
	return fmt.Sprintf("voucher_alloc:%s:%s", k.Region, k.VoucherType)
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Region, k.VoucherType, k.FiscalYear)
}

// ErrLockNotAcquired is returned by Locker implementations when the
// exclusive lock could not be obtained within the bounded wait.
var ErrLockNotAcquired = errors.New("allocation lock not acquired within wait")

// ErrCounterRowMissing is returned by CounterStore.CommitNext when the
// update matched no row. The counter was deleted or never ensured; the
// enclosing transaction must abort.
var ErrCounterRowMissing = errors.New("voucher counter row missing on commit")

// CounterStore is the durable monotonic counter.
// Reads used as commit basis must happen while the allocation lock is held.
type CounterStore interface {
	// EnsureRow inserts a zero-initialized counter row if absent. Idempotent.
	EnsureRow(ctx context.Context, key Key) error

	// ReadCurrent returns the last committed number for the key (0 if new).
	ReadCurrent(ctx context.Context, key Key) (int64, error)

	// CommitNext sets the counter to next. Returns ErrCounterRowMissing
	// when no row was updated.
	CommitNext(ctx context.Context, key Key, next int64) error
}

// Ledger is the append-only idempotency mapping. A key maps to exactly
// one voucher number for all time.
type Ledger interface {
	// Lookup returns the previously committed voucher number for the key.
	Lookup(ctx context.Context, idempotencyKey string) (voucherNo string, found bool, err error)

	// Record inserts the mapping. Must run inside the same transaction as
	// CounterStore.CommitNext, only after confirmed external acceptance.
	// Fails loudly on a duplicate key.
	Record(ctx context.Context, idempotencyKey string, key Key, voucherNo string) error
}

// Locker serializes allocation attempts per named lock.
type Locker interface {
	// Acquire blocks up to wait for the exclusive named lock.
	// Returns a release function that must always be called, or
	// ErrLockNotAcquired when the wait elapsed.
	Acquire(ctx context.Context, name string, wait time.Duration) (release func(), err error)
}
