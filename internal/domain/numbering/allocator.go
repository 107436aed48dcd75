package numbering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vouchersync/internal/core/apperror"
	"vouchersync/internal/core/tx"
	"vouchersync/pkg/logger"
)

// DefaultLockWait bounds how long an allocation waits for the
// per-(region, voucher type) lock before giving up.
const DefaultLockWait = 15 * time.Second

// SubmitFunc delivers one voucher carrying the candidate number to the
// destination cloud API. A nil return means confirmed acceptance; any
// error means rejection and the candidate is discarded.
type SubmitFunc func(ctx context.Context, voucherNo string) error

// Result is the outcome of one allocation.
type Result struct {
	// VoucherNo is the committed display number.
	VoucherNo string

	// Reused reports that the idempotency key had already been committed
	// and no new number was allocated (the external call was skipped).
	Reused bool
}

// Allocator produces collision-free sequential voucher numbers and
// guarantees a number is consumed only on confirmed external acceptance.
type Allocator struct {
	counters CounterStore
	ledger   Ledger
	locks    Locker
	txm      tx.Manager
	cfg      Config
	lockWait time.Duration
}

// NewAllocator creates a sequence allocator for one numbered pathway.
func NewAllocator(counters CounterStore, ledger Ledger, locks Locker, txm tx.Manager, cfg Config) *Allocator {
	return &Allocator{
		counters: counters,
		ledger:   ledger,
		locks:    locks,
		txm:      txm,
		cfg:      cfg,
		lockWait: DefaultLockWait,
	}
}

// WithLockWait overrides the bounded lock wait. Used in tests.
func (a *Allocator) WithLockWait(wait time.Duration) *Allocator {
	a.lockWait = wait
	return a
}

// Allocate runs the full allocation protocol for one logical voucher:
//
//  1. Ledger lookup: a retried key returns its committed number at once.
//  2. Exclusive named lock per (region, voucher type), bounded wait.
//  3. Under the lock: ensure row, read current, candidate = current + 1.
//  4. Submit the candidate to the destination (the only slow step).
//  5. On acceptance: commit counter bump + ledger insert in one transaction.
//     On rejection: nothing persists, the candidate is re-offered later.
//  6. Lock released in all paths.
func (a *Allocator) Allocate(ctx context.Context, key Key, idempotencyKey string, submit SubmitFunc) (Result, error) {
	if idempotencyKey == "" {
		return Result{}, apperror.NewValidation("idempotencyKey is required")
	}

	voucherNo, found, err := a.ledger.Lookup(ctx, idempotencyKey)
	if err != nil {
		return Result{}, fmt.Errorf("ledger lookup: %w", err)
	}
	if found {
		logger.Debug(ctx, "idempotency key already committed, reusing number",
			"idempotency_key", idempotencyKey,
			"voucher_no", voucherNo)
		return Result{VoucherNo: voucherNo, Reused: true}, nil
	}

	release, err := a.locks.Acquire(ctx, key.LockName(), a.lockWait)
	if err != nil {
		if errors.Is(err, ErrLockNotAcquired) {
			return Result{}, apperror.NewLockTimeout(key.Region, key.VoucherType)
		}
		return Result{}, fmt.Errorf("acquire allocation lock: %w", err)
	}
	defer release()

	if err := a.counters.EnsureRow(ctx, key); err != nil {
		return Result{}, fmt.Errorf("ensure counter row: %w", err)
	}
	current, err := a.counters.ReadCurrent(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("read counter: %w", err)
	}

	next := current + 1
	candidate := FormatNumber(a.cfg, next)

	// The only step crossing a process boundary. Any error here means
	// no acceptance: nothing is persisted and no number is consumed.
	if err := submit(ctx, candidate); err != nil {
		return Result{}, err
	}

	err = a.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := a.counters.CommitNext(ctx, key, next); err != nil {
			return err
		}
		return a.ledger.Record(ctx, idempotencyKey, key, candidate)
	})
	if err != nil {
		// The destination has accepted this number but our counter and
		// ledger do not reflect it. A retry with the same payload would
		// double-submit, so this is surfaced as its own error code.
		logger.Error(ctx, "CRITICAL: external system accepted voucher but local commit failed",
			"voucher_no", candidate,
			"idempotency_key", idempotencyKey,
			"region", key.Region,
			"voucher_type", key.VoucherType,
			"error", err)
		return Result{}, apperror.NewCommitInconsistent(candidate, err)
	}

	logger.Info(ctx, "voucher number committed",
		"voucher_no", candidate,
		"idempotency_key", idempotencyKey,
		"region", key.Region,
		"voucher_type", key.VoucherType)

	return Result{VoucherNo: candidate}, nil
}
