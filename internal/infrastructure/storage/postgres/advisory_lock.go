package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"vouchersync/internal/domain/numbering"
	"vouchersync/pkg/logger"
)

// Compile-time check.
var _ numbering.Locker = (*AdvisoryLocker)(nil)

// pgLockNotAvailable is the Postgres error code raised when lock_timeout
// elapses while waiting for a lock (55P03).
const pgLockNotAvailable = "55P03"

// AdvisoryLocker implements the exclusive named lock with a session-level
// Postgres advisory lock. The lock is held on a dedicated pooled
// connection for the full allocation (read candidate, external submit,
// commit), so it survives across transactions, and it is visible to every
// server instance sharing the database.
type AdvisoryLocker struct {
	pool *pgxpool.Pool
}

// NewAdvisoryLocker creates a locker on the given pool.
func NewAdvisoryLocker(pool *Pool) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool.Pool}
}

// Acquire blocks up to wait for the named lock. The returned release
// function unlocks and returns the connection to the pool; it must be
// called exactly once and never panics.
func (l *AdvisoryLocker) Acquire(ctx context.Context, name string, wait time.Duration) (func(), error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock connection: %w", err)
	}

	// lock_timeout bounds the advisory lock wait on this session.
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET lock_timeout = '%dms'", wait.Milliseconds())); err != nil {
		conn.Release()
		return nil, fmt.Errorf("set lock_timeout: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock(hashtext($1))", name); err != nil {
		conn.Release()
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
			return nil, fmt.Errorf("lock %q: %w", name, numbering.ErrLockNotAcquired)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("lock %q: %w", name, numbering.ErrLockNotAcquired)
		}
		return nil, fmt.Errorf("advisory lock %q: %w", name, err)
	}

	release := func() {
		// Background context: the lock must be released even when the
		// request context is already cancelled.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := conn.Exec(unlockCtx, "SELECT pg_advisory_unlock(hashtext($1))", name); err != nil {
			logger.Error(unlockCtx, "advisory unlock failed", "lock", name, "error", err)
		}
		if _, err := conn.Exec(unlockCtx, "SET lock_timeout = DEFAULT"); err != nil {
			logger.Warn(unlockCtx, "reset lock_timeout failed", "error", err)
		}
		conn.Release()
	}

	return release, nil
}
