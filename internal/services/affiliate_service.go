// internal/services/affiliate_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/msparth89/gscwordpress/internal/gateway"
	"github.com/msparth89/gscwordpress/internal/metrics"
	"github.com/msparth89/gscwordpress/internal/models"
	"github.com/msparth89/gscwordpress/internal/utils"
)

// AffiliateService covers the affiliate-facing surface: UPI verification
// through the active gateway, profile updates with their UPI confirmation
// rules, referral listing and the attribution link.
type AffiliateService struct {
	db      *gorm.DB
	manager *gateway.Manager
	siteURL string
}

var (
	ErrAffiliateNotFound   = errors.New("affiliate not found")
	ErrUPIConfirmationNeed = errors.New("please verify your UPI ID and confirm it is correct")
)

func NewAffiliateService(db *gorm.DB, manager *gateway.Manager, siteURL string) *AffiliateService {
	return &AffiliateService{db: db, manager: manager, siteURL: siteURL}
}

type SaveProfileRequest struct {
	FirstName           string `json:"first_name" validate:"required"`
	LastName            string `json:"last_name" validate:"required"`
	Email               string `json:"email" validate:"required,email"`
	UPIID               string `json:"upi_id" validate:"required"`
	ConfirmUPI          bool   `json:"confirm_upi"`
	VerifiedAccountName string `json:"verified_account_name"`
}

// VerifyUPI runs a verification through whichever gateway is active.
func (s *AffiliateService) VerifyUPI(ctx context.Context, upiID string) (*gateway.VerifyResult, error) {
	if upiID == "" {
		return nil, errors.New("UPI ID is required")
	}

	result, err := s.manager.VerifyUPI(ctx, upiID)
	if err != nil {
		return nil, err
	}

	outcome := "failed"
	if result.Success {
		outcome = "verified"
	}
	metrics.UPIVerifications.WithLabelValues(result.Gateway, outcome).Inc()

	return result, nil
}

// SaveProfile updates the user's identity and payout destination. A changed
// UPI id must arrive confirmed together with the account name produced by a
// verification; an unchanged id keeps its existing verification state.
func (s *AffiliateService) SaveProfile(userID uuid.UUID, req *SaveProfileRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	upiVerified := user.UPIVerified
	verifiedAccountName := user.VerifiedAccountName

	if user.UPIID != req.UPIID {
		if !req.ConfirmUPI || req.VerifiedAccountName == "" {
			return ErrUPIConfirmationNeed
		}
		upiVerified = true
		verifiedAccountName = req.VerifiedAccountName
	}

	err := s.db.Model(&user).Updates(map[string]interface{}{
		"first_name":            req.FirstName,
		"last_name":             req.LastName,
		"email":                 req.Email,
		"upi_id":                req.UPIID,
		"upi_verified":          upiVerified,
		"verified_account_name": verifiedAccountName,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	// Keep the affiliate record's display fields in line with the user.
	err = s.db.Model(&models.Affiliate{}).Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"name":  req.FirstName + " " + req.LastName,
			"email": req.Email,
		}).Error
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).
			Warn("Failed to sync affiliate record with profile")
	}

	return nil
}

// GetByUserID loads the affiliate attached to a user.
func (s *AffiliateService) GetByUserID(userID uuid.UUID) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	err := s.db.Preload("User").First(&affiliate, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAffiliateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &affiliate, nil
}

// ReferralLink builds the affiliate's shareable attribution URL using the
// configured parameter name.
func (s *AffiliateService) ReferralLink(affiliate *models.Affiliate) string {
	paramName := affiliateParamName(s.db)

	u, err := url.Parse(s.siteURL)
	if err != nil {
		return s.siteURL
	}
	q := u.Query()
	q.Set(paramName, affiliate.ID.String())
	u.RawQuery = q.Encode()
	return u.String()
}

// ListReferrals returns a page of an affiliate's referrals, newest-first by
// default and optionally filtered by status.
func (s *AffiliateService) ListReferrals(affiliateID uuid.UUID, status models.ReferralStatus, params utils.PaginationParams) ([]models.Referral, int64, error) {
	query := s.db.Model(&models.Referral{}).Where("affiliate_id = ?", affiliateID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var referrals []models.Referral
	query = utils.ApplySort(query, params, []string{"created_at", "status", "amount"})
	err := utils.ApplyPagination(query, params).Find(&referrals).Error
	return referrals, total, err
}
