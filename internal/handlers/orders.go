// internal/handlers/orders.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/msparth89/gscwordpress/internal/services"
	"github.com/msparth89/gscwordpress/internal/utils"
)

type OrderHandler struct {
	serialService *services.SerialService
}

func NewOrderHandler(serialService *services.SerialService) *OrderHandler {
	return &OrderHandler{
		serialService: serialService,
	}
}

// GET /orders/:id/serials
func (h *OrderHandler) GetOrderSerials(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	order, err := h.serialService.GetOrderSerials(orderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.NotFoundResponse(c, "Order")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"order": order,
	})
}

// PUT /orders/:id/serials
func (h *OrderHandler) SaveOrderSerials(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	var req services.SaveSerialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	validationErrors, err := h.serialService.SaveOrderSerials(orderID, &req)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.NotFoundResponse(c, "Order")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	if len(validationErrors) > 0 {
		utils.ErrorResponse(c, 400, "SERIAL_VALIDATION_ERROR", "Serial validation failed", validationErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Serial numbers saved",
	})
}
