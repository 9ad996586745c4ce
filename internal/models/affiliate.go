// internal/models/affiliate.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Affiliate links a user to the referral program. One affiliate per user.
type Affiliate struct {
	BaseModel
	UserID uuid.UUID       `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	Name   string          `json:"name" gorm:"size:255"`
	Email  string          `json:"email" gorm:"size:255"`
	Status AffiliateStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`

	// Relationships
	User      User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Referrals []Referral `json:"referrals,omitempty" gorm:"foreignKey:AffiliateID"`
}

// Referral is a commission owed to an affiliate for a tracked sale. Closed
// referrals have been paid out; Data holds the payment transaction snapshot.
type Referral struct {
	BaseModel
	AffiliateID uuid.UUID       `json:"affiliate_id" gorm:"type:uuid;not null;index"`
	OrderID     *uuid.UUID      `json:"order_id" gorm:"type:uuid;index"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	Currency    string          `json:"currency" gorm:"size:3;default:'INR'"`
	Status      ReferralStatus  `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Data        JSONB           `json:"data" gorm:"type:jsonb"`

	// Relationships
	Affiliate Affiliate `json:"affiliate,omitempty" gorm:"foreignKey:AffiliateID"`
}

// ReferralPayout is the payout log written when a referral is settled.
type ReferralPayout struct {
	BaseModel
	ReferralID    uuid.UUID `json:"referral_id" gorm:"type:uuid;not null;index"`
	TransactionID string    `json:"transaction_id" gorm:"size:255;not null"`
	PaymentMethod string    `json:"payment_method" gorm:"size:20;default:'upi'"`
	PayoutDate    time.Time `json:"payout_date" gorm:"not null"`
}
