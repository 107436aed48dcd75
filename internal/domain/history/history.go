// Package history records per-batch sync outcomes for display.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	appctx "vouchersync/internal/core/context"
	"vouchersync/internal/domain/submission"
	"vouchersync/pkg/logger"
)

// Entry is one recorded batch submission.
type Entry struct {
	ID          string    `json:"id"`
	Region      string    `json:"region"`
	Destination string    `json:"destination"`
	UserID      string    `json:"userId,omitempty"`
	ItemCount   int       `json:"itemCount"`
	OKCount     int       `json:"okCount"`
	FailCount   int       `json:"failCount"`
	Payload     []byte    `json:"-"` // request payload, raw JSON
	CreatedAt   time.Time `json:"createdAt"`
}

// Filter narrows a history listing.
type Filter struct {
	Region      string
	Destination string
	Limit       int
}

// Repository persists history entries.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	List(ctx context.Context, f Filter) ([]Entry, error)
}

// Service aggregates batch outcomes into history entries.
type Service struct {
	repo Repository
}

// NewService creates a history service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RecordBatch stores one entry summarizing a processed batch. History is
// display-only: a recording failure is logged, never surfaced to the
// caller.
func (s *Service) RecordBatch(ctx context.Context, region, dest string, items []submission.VoucherLineItem, results []submission.SubmissionResult) {
	ok := 0
	for _, r := range results {
		if r.OK {
			ok++
		}
	}

	payload, err := json.Marshal(items)
	if err != nil {
		logger.Warn(ctx, "history payload marshal failed", "error", err)
		payload = nil
	}

	entry := &Entry{
		ID:          uuid.New().String(),
		Region:      region,
		Destination: dest,
		UserID:      appctx.GetUserID(ctx),
		ItemCount:   len(items),
		OKCount:     ok,
		FailCount:   len(items) - ok,
		Payload:     payload,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		logger.Warn(ctx, "history insert failed", "error", err, "destination", dest)
	}
}

// List returns entries matching the filter, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Entry, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	entries, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}
