// internal/handlers/batch.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/msparth89/gscwordpress/internal/services"
	"github.com/msparth89/gscwordpress/internal/utils"
)

type BatchHandler struct {
	batchService *services.BatchService
}

func NewBatchHandler(batchService *services.BatchService) *BatchHandler {
	return &BatchHandler{
		batchService: batchService,
	}
}

type createBatchRequest struct {
	ReferralIDs []uuid.UUID `json:"referral_ids" validate:"required,min=1"`
}

// POST /admin/batches
func (h *BatchHandler) CreateBatch(c *gin.Context) {
	var req createBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	batch, err := h.batchService.CreateBatch(req.ReferralIDs)
	if err != nil {
		if errors.Is(err, services.ErrNoReferrals) {
			utils.BadRequestResponse(c, err.Error(), nil)
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.CreatedResponse(c, gin.H{
		"batch": batch,
	})
}

// GET /admin/batches
func (h *BatchHandler) ListBatches(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	batches, total, err := h.batchService.ListBatches(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(batches, total, params))
}

// GET /admin/batches/:id
func (h *BatchHandler) GetBatch(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid batch ID", nil)
		return
	}

	batch, err := h.batchService.GetBatch(batchID)
	if err != nil {
		if errors.Is(err, services.ErrBatchNotFound) {
			utils.NotFoundResponse(c, "Payment batch")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"batch": batch,
	})
}

// POST /admin/batches/:id/process
func (h *BatchHandler) ProcessBatch(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid batch ID", nil)
		return
	}

	stats, err := h.batchService.ProcessBatch(c.Request.Context(), batchID)
	if err != nil {
		if errors.Is(err, services.ErrBatchNotFound) {
			utils.NotFoundResponse(c, "Payment batch")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// POST /admin/batches/process
func (h *BatchHandler) ProcessPending(c *gin.Context) {
	stats, err := h.batchService.ProcessPendingBatches(c.Request.Context())
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}
