// internal/services/batch_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/msparth89/gscwordpress/internal/database"
	"github.com/msparth89/gscwordpress/internal/gateway"
	"github.com/msparth89/gscwordpress/internal/metrics"
	"github.com/msparth89/gscwordpress/internal/models"
	"github.com/msparth89/gscwordpress/internal/utils"
)

// PayoutGateway is the slice of the gateway manager the batch processor
// needs. Active resolves the configured provider without calling it; batch
// processing checks it once per batch before touching any item. Tests
// substitute a deterministic implementation.
type PayoutGateway interface {
	Active() (gateway.Gateway, error)
	ProcessPayout(ctx context.Context, req *gateway.PayoutRequest) (*gateway.PayoutResult, error)
}

// BatchService drives payment batches from creation through processing to a
// terminal status. Processing is triggered by the background worker and by
// admin request; a conditional status flip keeps the two from picking up the
// same batch twice.
type BatchService struct {
	db      *gorm.DB
	gateway PayoutGateway
	limit   int
}

var (
	ErrNoReferrals   = errors.New("no valid referrals provided")
	ErrBatchNotFound = errors.New("payment batch not found")
)

func NewBatchService(db *gorm.DB, gw PayoutGateway, limit int) *BatchService {
	if limit <= 0 {
		limit = 5
	}
	return &BatchService{db: db, gateway: gw, limit: limit}
}

// ProcessStats summarizes one processing pass.
type ProcessStats struct {
	BatchesProcessed  int `json:"batches_processed"`
	SuccessfulPayouts int `json:"successful_payouts"`
	FailedPayouts     int `json:"failed_payouts"`
}

// CreateBatch opens a new pending batch holding one item per referral. The
// batch row and all item rows are written in one transaction; any insert
// failure rolls the whole batch back.
func (s *BatchService) CreateBatch(referralIDs []uuid.UUID) (*models.PaymentBatch, error) {
	if len(referralIDs) == 0 {
		return nil, ErrNoReferrals
	}

	batch := &models.PaymentBatch{
		Status:         models.BatchStatusPending,
		TotalReferrals: len(referralIDs),
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			return fmt.Errorf("failed to create payment batch: %w", err)
		}
		for _, referralID := range referralIDs {
			item := &models.PaymentBatchItem{
				BatchID:    batch.ID,
				ReferralID: referralID,
				Status:     models.BatchItemStatusPending,
			}
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("failed to add referrals to batch: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"batch_id":  batch.ID,
		"referrals": len(referralIDs),
	}).Info("Created payment batch")

	return batch, nil
}

// GetBatch loads one batch with its items.
func (s *BatchService) GetBatch(batchID uuid.UUID) (*models.PaymentBatch, error) {
	var batch models.PaymentBatch
	err := s.db.Preload("Items").First(&batch, "id = ?", batchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// ListBatches returns a page of batches, newest-first by default.
func (s *BatchService) ListBatches(params utils.PaginationParams) ([]models.PaymentBatch, int64, error) {
	var batches []models.PaymentBatch
	var total int64

	if err := s.db.Model(&models.PaymentBatch{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := utils.ApplySort(s.db.Model(&models.PaymentBatch{}), params, []string{"created_at", "status"})
	err := utils.ApplyPagination(query, params).Find(&batches).Error
	return batches, total, err
}

// ProcessPendingBatches claims up to the configured number of pending
// batches, oldest first, and processes each to a terminal status.
func (s *BatchService) ProcessPendingBatches(ctx context.Context) (*ProcessStats, error) {
	stats := &ProcessStats{}

	var pending []models.PaymentBatch
	err := s.db.Where("status = ?", models.BatchStatusPending).
		Order("created_at ASC").
		Limit(s.limit).
		Find(&pending).Error
	if err != nil {
		return nil, err
	}

	for i := range pending {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		batch := &pending[i]
		if !s.claimBatch(batch.ID) {
			// Another worker already has this batch.
			continue
		}
		ok, failed := s.processBatch(ctx, batch)
		stats.BatchesProcessed++
		stats.SuccessfulPayouts += ok
		stats.FailedPayouts += failed
	}

	return stats, nil
}

// ProcessBatch claims and processes one specific batch, for manual admin
// triggering. It only acts on batches still pending.
func (s *BatchService) ProcessBatch(ctx context.Context, batchID uuid.UUID) (*ProcessStats, error) {
	batch, err := s.GetBatch(batchID)
	if err != nil {
		return nil, err
	}
	if !s.claimBatch(batch.ID) {
		return nil, fmt.Errorf("batch %s is not pending", batch.ID)
	}
	ok, failed := s.processBatch(ctx, batch)
	return &ProcessStats{BatchesProcessed: 1, SuccessfulPayouts: ok, FailedPayouts: failed}, nil
}

// claimBatch flips a batch to processing only if it is still pending. The
// guarded update is the exclusivity lock between the cron worker and manual
// triggers; zero rows affected means someone else won.
func (s *BatchService) claimBatch(batchID uuid.UUID) bool {
	res := s.db.Model(&models.PaymentBatch{}).
		Where("id = ? AND status = ?", batchID, models.BatchStatusPending).
		Update("status", models.BatchStatusProcessing)
	return res.Error == nil && res.RowsAffected > 0
}

// processBatch walks a claimed batch's pending items and writes the terminal
// status once at the end. Returns successful and failed payout counts.
func (s *BatchService) processBatch(ctx context.Context, batch *models.PaymentBatch) (successful, failed int) {
	log := logrus.WithField("batch_id", batch.ID)

	// Gateway configuration is checked once per batch. A failure here fails
	// the batch without touching items, which all stay pending.
	if err := s.resolveGateway(); err != nil {
		log.WithError(err).Error("No payment gateway available for batch processing")
		s.finishBatch(batch.ID, models.BatchStatusFailed, 0, 0)
		return 0, 0
	}

	var items []models.PaymentBatchItem
	err := s.db.Where("batch_id = ? AND status = ?", batch.ID, models.BatchItemStatusPending).
		Find(&items).Error
	if err != nil {
		log.WithError(err).Error("Failed to load batch items")
		s.finishBatch(batch.ID, models.BatchStatusFailed, 0, 0)
		return 0, 0
	}

	if len(items) == 0 {
		s.finishBatch(batch.ID, models.BatchStatusCompleted, 0, 0)
		return 0, 0
	}

	for i := range items {
		if s.processItem(ctx, &items[i]) {
			successful++
		} else {
			failed++
		}
	}

	status := models.BatchStatusPartial
	switch {
	case failed == 0:
		status = models.BatchStatusCompleted
	case successful == 0:
		status = models.BatchStatusFailed
	}
	s.finishBatch(batch.ID, status, successful, failed)

	log.WithFields(logrus.Fields{
		"status":     status,
		"successful": successful,
		"failed":     failed,
	}).Info("Processed payment batch")
	metrics.BatchesProcessed.WithLabelValues(string(status)).Inc()

	return successful, failed
}

// resolveGateway surfaces a dead payout configuration, whether the gateway
// was never injected or the active_gateway setting names no known provider.
func (s *BatchService) resolveGateway() error {
	if s.gateway == nil {
		return gateway.ErrNoActiveGateway
	}
	_, err := s.gateway.Active()
	return err
}

// processItem pays out one referral. Failures are recorded on the item with
// a structured payload and never abort the sibling items.
func (s *BatchService) processItem(ctx context.Context, item *models.PaymentBatchItem) bool {
	details, err := s.referralDetails(item.ReferralID)
	if err != nil {
		s.failItem(item, models.JSONB{"error": err.Error()})
		return false
	}

	if details.UPIID == "" || details.AccountName == "" {
		s.failItem(item, models.JSONB{"error": "Missing UPI ID or account name for the affiliate."})
		return false
	}

	req := &gateway.PayoutRequest{
		UPIID:           details.UPIID,
		Amount:          details.Amount,
		Currency:        details.Currency,
		BeneficiaryName: details.AccountName,
		ReferenceID:     fmt.Sprintf("ref_%s_%d", item.ReferralID, time.Now().Unix()),
		Purpose:         "Affiliate Commission",
	}

	result, err := s.gateway.ProcessPayout(ctx, req)
	if err != nil {
		s.failItem(item, models.JSONB{"error": err.Error()})
		metrics.Payouts.WithLabelValues("failed").Inc()
		return false
	}

	if !result.Success {
		s.failItem(item, models.JSONB{
			"success": false,
			"error":   result.Error,
		})
		metrics.Payouts.WithLabelValues("failed").Inc()
		return false
	}

	err = s.db.Model(item).Updates(map[string]interface{}{
		"status":         models.BatchItemStatusCompleted,
		"transaction_id": result.PayoutID,
		"transaction_data": models.JSONB{
			"success":   true,
			"payout_id": result.PayoutID,
			"status":    result.Status,
			"message":   result.Message,
		},
	}).Error
	if err != nil {
		logrus.WithError(err).WithField("item_id", item.ID).Error("Failed to record payout success")
		return false
	}

	// Best-effort referral settlement. The payout already happened; a
	// failure here is logged and reconciled later, not rolled back.
	s.markReferralPaid(item.ReferralID, result.PayoutID)

	metrics.Payouts.WithLabelValues("successful").Inc()
	return true
}

type referralPayoutDetails struct {
	UPIID       string
	AccountName string
	Amount      decimal.Decimal
	Currency    string
}

func (s *BatchService) failItem(item *models.PaymentBatchItem, payload models.JSONB) {
	err := s.db.Model(item).Updates(map[string]interface{}{
		"status":           models.BatchItemStatusFailed,
		"transaction_data": payload,
	}).Error
	if err != nil {
		logrus.WithError(err).WithField("item_id", item.ID).Error("Failed to record payout failure")
	}
}

func (s *BatchService) finishBatch(batchID uuid.UUID, status models.BatchStatus, successful, failed int) {
	err := s.db.Model(&models.PaymentBatch{}).Where("id = ?", batchID).
		Updates(map[string]interface{}{
			"status":              status,
			"processed_referrals": successful + failed,
			"successful_payouts":  successful,
			"failed_payouts":      failed,
		}).Error
	if err != nil {
		logrus.WithError(err).WithField("batch_id", batchID).Error("Failed to finalize batch status")
	}
}

// referralDetails resolves referral -> affiliate -> user to the verified
// payout destination.
func (s *BatchService) referralDetails(referralID uuid.UUID) (*referralPayoutDetails, error) {
	var referral models.Referral
	if err := s.db.First(&referral, "id = ?", referralID).Error; err != nil {
		return nil, errors.New("Referral not found.")
	}

	var affiliate models.Affiliate
	if err := s.db.First(&affiliate, "id = ?", referral.AffiliateID).Error; err != nil {
		return nil, errors.New("Affiliate not found.")
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", affiliate.UserID).Error; err != nil {
		return nil, errors.New("User not found for this affiliate.")
	}

	return &referralPayoutDetails{
		UPIID:       user.UPIID,
		AccountName: user.VerifiedAccountName,
		Amount:      referral.Amount,
		Currency:    referral.Currency,
	}, nil
}

// markReferralPaid closes the referral and writes a payout log row.
func (s *BatchService) markReferralPaid(referralID uuid.UUID, transactionID string) {
	now := time.Now()
	err := s.db.Model(&models.Referral{}).Where("id = ?", referralID).
		Updates(map[string]interface{}{
			"status": models.ReferralStatusClosed,
			"data": models.JSONB{
				"payment_transaction_id": transactionID,
				"payment_date":           now.Format(time.RFC3339),
			},
		}).Error
	if err != nil {
		logrus.WithError(err).WithField("referral_id", referralID).
			Error("Failed to mark referral as paid")
		return
	}

	payout := &models.ReferralPayout{
		ReferralID:    referralID,
		TransactionID: transactionID,
		PaymentMethod: "upi",
		PayoutDate:    now,
	}
	if err := s.db.Create(payout).Error; err != nil {
		logrus.WithError(err).WithField("referral_id", referralID).
			Error("Failed to write referral payout log")
	}
}
