// internal/handlers/affiliate.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/msparth89/gscwordpress/internal/models"
	"github.com/msparth89/gscwordpress/internal/services"
	"github.com/msparth89/gscwordpress/internal/utils"
)

type AffiliateHandler struct {
	affiliateService *services.AffiliateService
}

func NewAffiliateHandler(affiliateService *services.AffiliateService) *AffiliateHandler {
	return &AffiliateHandler{
		affiliateService: affiliateService,
	}
}

type verifyUPIRequest struct {
	UPIID string `json:"upi_id" validate:"required"`
}

// POST /affiliate/verify-upi
func (h *AffiliateHandler) VerifyUPI(c *gin.Context) {
	var req verifyUPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.affiliateService.VerifyUPI(c.Request.Context(), req.UPIID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"verification": result,
	})
}

// GET /affiliate/profile
func (h *AffiliateHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	affiliate, err := h.affiliateService.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, services.ErrAffiliateNotFound) {
			utils.NotFoundResponse(c, "Affiliate")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"affiliate":     affiliate,
		"referral_link": h.affiliateService.ReferralLink(affiliate),
	})
}

// PUT /affiliate/profile
func (h *AffiliateHandler) SaveProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.SaveProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.affiliateService.SaveProfile(userID, &req); err != nil {
		if errors.Is(err, services.ErrUPIConfirmationNeed) {
			utils.BadRequestResponse(c, err.Error(), nil)
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Profile saved",
	})
}

// GET /affiliate/link
func (h *AffiliateHandler) GetReferralLink(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	affiliate, err := h.affiliateService.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, services.ErrAffiliateNotFound) {
			utils.NotFoundResponse(c, "Affiliate")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"referral_link": h.affiliateService.ReferralLink(affiliate),
	})
}

// GET /affiliate/referrals
func (h *AffiliateHandler) ListReferrals(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	affiliate, err := h.affiliateService.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, services.ErrAffiliateNotFound) {
			utils.NotFoundResponse(c, "Affiliate")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	params := utils.GetPaginationParams(c)
	status := models.ReferralStatus(c.Query("status"))

	referrals, total, err := h.affiliateService.ListReferrals(affiliate.ID, status, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(referrals, total, params))
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return uuid.Nil, false
	}
	return userID, true
}
