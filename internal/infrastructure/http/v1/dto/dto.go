// Package dto defines request/response shapes for API v1.
package dto

import (
	"time"

	"vouchersync/internal/domain/history"
	"vouchersync/internal/domain/source"
	"vouchersync/internal/domain/submission"
)

// SyncRequest is the inbound batch: {"data": [lineItem]}.
type SyncRequest struct {
	Data []submission.VoucherLineItem `json:"data" binding:"required"`
}

// SyncResponse carries one result per input item, in input order.
// HTTP 200 even when individual items fail; batch-level failure is only
// used for catastrophic errors.
type SyncResponse struct {
	Results []submission.SubmissionResult `json:"results"`
}

// LoginRequest carries admin credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// VouchersResponse wraps raw source records.
type VouchersResponse struct {
	Data []source.VoucherRecord `json:"data"`
}

// HistoryResponse wraps sync history entries.
type HistoryResponse struct {
	Data []history.Entry `json:"data"`
}
