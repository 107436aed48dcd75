package postgres

import (
	"context"
	"fmt"

	"vouchersync/internal/domain/numbering"
)

// Compile-time check.
var _ numbering.CounterStore = (*CounterRepo)(nil)

// CounterRepo persists voucher counters in the voucher_counters table.
// One row per (region, voucher_type, fiscal_year); current_no is the last
// number successfully committed and only ever increases.
type CounterRepo struct {
	txManager *TxManager
}

// NewCounterRepo creates a counter repository.
func NewCounterRepo(txManager *TxManager) *CounterRepo {
	return &CounterRepo{txManager: txManager}
}

// EnsureRow lazily creates the zero-initialized counter row. Idempotent;
// safe to call before every read.
func (r *CounterRepo) EnsureRow(ctx context.Context, key numbering.Key) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO voucher_counters (region, voucher_type, fiscal_year, current_no)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (region, voucher_type, fiscal_year) DO NOTHING
	`, key.Region, key.VoucherType, key.FiscalYear)
	if err != nil {
		return fmt.Errorf("ensure counter row %s: %w", key, err)
	}
	return nil
}

// ReadCurrent returns the last committed number for the key.
func (r *CounterRepo) ReadCurrent(ctx context.Context, key numbering.Key) (int64, error) {
	var current int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		SELECT current_no FROM voucher_counters
		WHERE region = $1 AND voucher_type = $2 AND fiscal_year = $3
	`, key.Region, key.VoucherType, key.FiscalYear).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", key, err)
	}
	return current, nil
}

// CommitNext advances the counter to next. Zero rows affected means the
// row was deleted or never ensured; that is a consistency fault, not a
// no-op, so it aborts the enclosing transaction.
func (r *CounterRepo) CommitNext(ctx context.Context, key numbering.Key, next int64) error {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE voucher_counters
		SET current_no = $4, updated_at = NOW()
		WHERE region = $1 AND voucher_type = $2 AND fiscal_year = $3
	`, key.Region, key.VoucherType, key.FiscalYear, next)
	if err != nil {
		return fmt.Errorf("commit counter %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("commit counter %s: %w", key, numbering.ErrCounterRowMissing)
	}
	return nil
}
