package handlers

import (
	"github.com/gin-gonic/gin"

	"vouchersync/internal/core/apperror"
	"vouchersync/internal/domain/destination"
	"vouchersync/internal/domain/dispatch"
	"vouchersync/internal/domain/history"
	"vouchersync/internal/domain/submission"
	"vouchersync/internal/infrastructure/http/v1/dto"
	"vouchersync/internal/infrastructure/http/v1/middleware"
)

// SyncHandler pushes voucher batches to destination cloud APIs.
type SyncHandler struct {
	BaseHandler
	registry     *destination.Registry
	orchestrator *submission.Service
	dispatcher   *dispatch.Service
	history      *history.Service
}

// NewSyncHandler creates a sync handler.
func NewSyncHandler(
	registry *destination.Registry,
	orchestrator *submission.Service,
	dispatcher *dispatch.Service,
	historyService *history.Service,
) *SyncHandler {
	return &SyncHandler{
		registry:     registry,
		orchestrator: orchestrator,
		dispatcher:   dispatcher,
		history:      historyService,
	}
}

// Submit handles POST /api/v1/sync/:destination.
//
// Always responds HTTP 200 with per-item results once the batch is
// accepted for processing; only malformed requests or unknown
// destinations produce a batch-level error.
func (h *SyncHandler) Submit(c *gin.Context) {
	dest, ok := h.registry.Get(c.Param("destination"))
	if !ok {
		h.Error(c, apperror.NewNotFound("destination", c.Param("destination")))
		return
	}

	var req dto.SyncRequest
	if !h.BindJSON(c, &req) {
		return
	}

	// Region access is enforced for the whole batch up front.
	for _, region := range distinctRegions(req.Data) {
		if !middleware.RequireRegion(region, c) {
			return
		}
	}

	ctx := c.Request.Context()

	var results []submission.SubmissionResult
	if dest.Numbered {
		results = h.orchestrator.SubmitBatch(ctx, dest, req.Data)
	} else {
		results = h.dispatcher.SubmitBatch(ctx, dest, req.Data)
	}

	h.history.RecordBatch(ctx, batchRegion(req.Data), dest.Name, req.Data, results)

	h.OK(c, dto.SyncResponse{Results: results})
}

func distinctRegions(items []submission.VoucherLineItem) []string {
	seen := make(map[string]struct{}, 2)
	var regions []string
	for _, item := range items {
		if item.Region == "" {
			continue
		}
		if _, ok := seen[item.Region]; ok {
			continue
		}
		seen[item.Region] = struct{}{}
		regions = append(regions, item.Region)
	}
	return regions
}

// batchRegion returns the batch's region for history purposes, or ""
// when the batch mixes regions.
func batchRegion(items []submission.VoucherLineItem) string {
	regions := distinctRegions(items)
	if len(regions) == 1 {
		return regions[0]
	}
	return ""
}
