// internal/models/batch.go
package models

import (
	"github.com/google/uuid"
)

// PaymentBatch groups pending affiliate payouts that are dispatched together.
// Status moves pending -> processing -> completed | partial | failed; the
// terminal status and the counters are derived from item outcomes in a single
// write after the whole batch has been walked.
type PaymentBatch struct {
	BaseModel
	Status             BatchStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	TotalReferrals     int         `json:"total_referrals" gorm:"not null;default:0"`
	ProcessedReferrals int         `json:"processed_referrals" gorm:"not null;default:0"`
	SuccessfulPayouts  int         `json:"successful_payouts" gorm:"not null;default:0"`
	FailedPayouts      int         `json:"failed_payouts" gorm:"not null;default:0"`

	// Relationships
	Items []PaymentBatchItem `json:"items,omitempty" gorm:"foreignKey:BatchID"`
}

// PaymentBatchItem is one referral payout inside a batch. A referral appears
// at most once per batch. TransactionData snapshots the gateway response (or
// the structured error) verbatim.
type PaymentBatchItem struct {
	BaseModel
	BatchID         uuid.UUID       `json:"batch_id" gorm:"type:uuid;not null;index:idx_batch_items_referral_once,unique"`
	ReferralID      uuid.UUID       `json:"referral_id" gorm:"type:uuid;not null;index;index:idx_batch_items_referral_once,unique"`
	Status          BatchItemStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	TransactionID   string          `json:"transaction_id" gorm:"size:255"`
	TransactionData JSONB           `json:"transaction_data" gorm:"type:jsonb"`

	// Relationships
	Referral Referral `json:"referral,omitempty" gorm:"foreignKey:ReferralID"`
}
