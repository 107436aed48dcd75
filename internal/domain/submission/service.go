package submission

import (
	"context"

	"vouchersync/internal/core/apperror"
	"vouchersync/internal/domain/destination"
	"vouchersync/internal/domain/numbering"
	"vouchersync/pkg/logger"
)

// Submitter delivers one formatted voucher document to a destination
// cloud API. A nil return means confirmed acceptance.
type Submitter interface {
	Submit(ctx context.Context, dest destination.Config, payload map[string]any) error
}

// Service is the batch submission orchestrator for the numbered pathway.
// It drives items strictly one after another: no intra-batch parallelism,
// so the per-(region, voucher type) lock is the only concurrency layer.
type Service struct {
	allocator *numbering.Allocator
	client    Submitter
}

// NewService creates a submission orchestrator.
func NewService(allocator *numbering.Allocator, client Submitter) *Service {
	return &Service{
		allocator: allocator,
		client:    client,
	}
}

// SubmitBatch processes the items in order and returns one result per
// item, in input order, regardless of individual outcomes. A failed item
// never aborts the batch.
func (s *Service) SubmitBatch(ctx context.Context, dest destination.Config, items []VoucherLineItem) []SubmissionResult {
	results := make([]SubmissionResult, 0, len(items))
	for _, item := range items {
		results = append(results, s.submitOne(ctx, dest, item))
	}
	return results
}

// submitOne runs one item through the allocator. Every error is caught
// and converted into a failed result so the loop always continues.
func (s *Service) submitOne(ctx context.Context, dest destination.Config, item VoucherLineItem) SubmissionResult {
	if item.IdempotencyKey == "" {
		// Fail fast: no allocation attempted, no external call made.
		return SubmissionResult{
			Message: "idempotencyKey is required",
		}
	}

	key := numbering.Key{
		Region:      item.Region,
		VoucherType: item.VoucherType,
	}

	res, err := s.allocator.Allocate(ctx, key, item.IdempotencyKey, func(ctx context.Context, voucherNo string) error {
		return s.client.Submit(ctx, dest, item.WirePayload(voucherNo))
	})
	if err != nil {
		logger.Warn(ctx, "voucher submission failed",
			"idempotency_key", item.IdempotencyKey,
			"destination", dest.Name,
			"error", err)
		return SubmissionResult{
			IdempotencyKey: item.IdempotencyKey,
			Message:        errorMessage(err),
		}
	}

	return SubmissionResult{
		IdempotencyKey: item.IdempotencyKey,
		OK:             true,
		VoucherNo:      res.VoucherNo,
	}
}

// errorMessage extracts the user-facing message from an error.
func errorMessage(err error) string {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
