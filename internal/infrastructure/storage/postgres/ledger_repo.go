package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"vouchersync/internal/core/apperror"
	"vouchersync/internal/domain/numbering"
)

// Compile-time check.
var _ numbering.Ledger = (*LedgerRepo)(nil)

// pgUniqueViolation is the Postgres error code for unique_violation.
const pgUniqueViolation = "23505"

// LedgerRepo persists the append-only idempotency ledger.
// Rows are created only inside the commit transaction, after confirmed
// external acceptance; they are never updated or deleted.
type LedgerRepo struct {
	txManager *TxManager
}

// NewLedgerRepo creates a ledger repository.
func NewLedgerRepo(txManager *TxManager) *LedgerRepo {
	return &LedgerRepo{txManager: txManager}
}

// Lookup returns the committed voucher number for the key, if any.
func (r *LedgerRepo) Lookup(ctx context.Context, idempotencyKey string) (string, bool, error) {
	var voucherNo string
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		SELECT voucher_no FROM voucher_ledger
		WHERE idempotency_key = $1
	`, idempotencyKey).Scan(&voucherNo)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("ledger lookup: %w", err)
	}
	return voucherNo, true, nil
}

// Record inserts the mapping. A duplicate key should never happen given
// the lookup-first protocol; the unique index is the correctness backstop.
func (r *LedgerRepo) Record(ctx context.Context, idempotencyKey string, key numbering.Key, voucherNo string) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO voucher_ledger (idempotency_key, region, voucher_type, voucher_no, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, idempotencyKey, key.Region, key.VoucherType, voucherNo)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewDuplicate("ledger record", "idempotency_key", idempotencyKey).WithCause(err)
		}
		return fmt.Errorf("ledger record: %w", err)
	}
	return nil
}
