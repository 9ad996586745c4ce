// internal/handlers/admin_settings.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/msparth89/gscwordpress/internal/gateway"
	"github.com/msparth89/gscwordpress/internal/services"
	"github.com/msparth89/gscwordpress/internal/utils"
)

type AdminSettingsHandler struct {
	settingsService *services.SettingsService
	gatewayManager  *gateway.Manager
}

func NewAdminSettingsHandler(settingsService *services.SettingsService, gatewayManager *gateway.Manager) *AdminSettingsHandler {
	return &AdminSettingsHandler{
		settingsService: settingsService,
		gatewayManager:  gatewayManager,
	}
}

// GET /admin/settings/payments
func (h *AdminSettingsHandler) GetPaymentSettings(c *gin.Context) {
	settings, err := h.settingsService.GetPaymentSettings()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"settings": settings,
	})
}

// PUT /admin/settings/payments
func (h *AdminSettingsHandler) UpdatePaymentSettings(c *gin.Context) {
	var req services.UpdatePaymentSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if err := h.settingsService.UpdatePaymentSettings(&req); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Payment settings updated",
	})
}

// GET /admin/payouts/:id/status
func (h *AdminSettingsHandler) CheckPayoutStatus(c *gin.Context) {
	payoutID := c.Param("id")
	if payoutID == "" {
		utils.BadRequestResponse(c, "Payout ID is required", nil)
		return
	}

	status, err := h.gatewayManager.CheckPayoutStatus(c.Request.Context(), payoutID)
	if err != nil {
		if errors.Is(err, gateway.ErrNoActiveGateway) {
			utils.BadRequestResponse(c, err.Error(), nil)
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"status": status,
	})
}
