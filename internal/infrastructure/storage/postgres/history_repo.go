package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"vouchersync/internal/domain/history"
)

// Compile-time check.
var _ history.Repository = (*HistoryRepo)(nil)

// CompressionAlgo specifies how the stored payload was compressed.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// historyRow is the table shape of sync_history.
type historyRow struct {
	ID                string          `db:"id"`
	Region            string          `db:"region"`
	Destination       string          `db:"destination"`
	UserID            string          `db:"user_id"`
	ItemCount         int             `db:"item_count"`
	OKCount           int             `db:"ok_count"`
	FailCount         int             `db:"fail_count"`
	PayloadCompressed []byte          `db:"payload_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// HistoryRepo persists sync history. Request payloads beyond the
// threshold are stored zstd-compressed.
type HistoryRepo struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes
}

// NewHistoryRepo creates a history repository.
func NewHistoryRepo(txManager *TxManager) (*HistoryRepo, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &HistoryRepo{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

func (r *HistoryRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Insert stores one entry.
func (r *HistoryRepo) Insert(ctx context.Context, e *history.Entry) error {
	payload := e.Payload
	algo := CompressionNone
	if len(payload) > r.compressThreshold {
		payload = r.encoder.EncodeAll(payload, nil)
		algo = CompressionZstd
	}

	q := r.builder().
		Insert("sync_history").
		Columns("id", "region", "destination", "user_id",
			"item_count", "ok_count", "fail_count",
			"payload_compressed", "compression_algo", "created_at").
		Values(e.ID, e.Region, e.Destination, e.UserID,
			e.ItemCount, e.OKCount, e.FailCount,
			payload, algo, e.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build history insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// List returns entries matching the filter, newest first.
func (r *HistoryRepo) List(ctx context.Context, f history.Filter) ([]history.Entry, error) {
	q := r.builder().
		Select("id", "region", "destination", "user_id",
			"item_count", "ok_count", "fail_count",
			"payload_compressed", "compression_algo", "created_at").
		From("sync_history").
		OrderBy("created_at DESC").
		Limit(uint64(f.Limit))

	if f.Region != "" {
		q = q.Where(squirrel.Eq{"region": f.Region})
	}
	if f.Destination != "" {
		q = q.Where(squirrel.Eq{"destination": f.Destination})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history select: %w", err)
	}

	var rows []historyRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}

	entries := make([]history.Entry, 0, len(rows))
	for _, row := range rows {
		payload := row.PayloadCompressed
		if row.CompressionAlgo == CompressionZstd {
			payload, err = r.decoder.DecodeAll(row.PayloadCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress history payload %s: %w", row.ID, err)
			}
		}
		entries = append(entries, history.Entry{
			ID:          row.ID,
			Region:      row.Region,
			Destination: row.Destination,
			UserID:      row.UserID,
			ItemCount:   row.ItemCount,
			OKCount:     row.OKCount,
			FailCount:   row.FailCount,
			Payload:     payload,
			CreatedAt:   row.CreatedAt,
		})
	}
	return entries, nil
}
