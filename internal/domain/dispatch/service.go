// Package dispatch delivers batches to the non-numbered destinations.
// These pathways have no counter and no ledger: delivery is plain
// pass-through with bounded retry on transient failures.
package dispatch

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"vouchersync/internal/core/apperror"
	"vouchersync/internal/domain/destination"
	"vouchersync/internal/domain/submission"
	"vouchersync/pkg/logger"
)

// maxRetries bounds the retry loop per item. Business-level rejections
// are never retried; only transient transport failures are.
const maxRetries = 3

// Service is the pass-through dispatcher.
type Service struct {
	client submission.Submitter
}

// NewService creates a dispatcher.
func NewService(client submission.Submitter) *Service {
	return &Service{client: client}
}

// SubmitBatch processes items sequentially and returns one result per
// item in input order. Item failures never abort the batch.
func (s *Service) SubmitBatch(ctx context.Context, dest destination.Config, items []submission.VoucherLineItem) []submission.SubmissionResult {
	results := make([]submission.SubmissionResult, 0, len(items))
	for _, item := range items {
		results = append(results, s.submitOne(ctx, dest, item))
	}
	return results
}

func (s *Service) submitOne(ctx context.Context, dest destination.Config, item submission.VoucherLineItem) submission.SubmissionResult {
	if item.IdempotencyKey == "" {
		return submission.SubmissionResult{Message: "idempotencyKey is required"}
	}

	// The purchase pathway reuses the source system's own invoice number
	// instead of allocating; the India pathways send no number at all.
	voucherNo := ""
	if dest.ReuseSourceInvoiceNo {
		if v, ok := item.Fields["invoiceno"].(string); ok {
			voucherNo = v
		}
	}

	payload := item.WirePayload(voucherNo)

	operation := func() error {
		err := s.client.Submit(ctx, dest, payload)
		if err != nil && !apperror.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		logger.Warn(ctx, "dispatch failed",
			"idempotency_key", item.IdempotencyKey,
			"destination", dest.Name,
			"error", err)
		msg := err.Error()
		if appErr, ok := apperror.AsAppError(err); ok {
			msg = appErr.Message
		}
		return submission.SubmissionResult{
			IdempotencyKey: item.IdempotencyKey,
			Message:        msg,
		}
	}

	return submission.SubmissionResult{
		IdempotencyKey: item.IdempotencyKey,
		OK:             true,
		VoucherNo:      voucherNo,
	}
}
