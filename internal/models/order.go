// internal/models/order.go
package models

import (
	"github.com/google/uuid"
)

// Order carries the serial tracking state alongside its line items. The
// serial fields hold the operator's raw textarea input, one full serial URL
// per line, exactly as validated; ReturnedEnabled and ReplacementEnabled are
// mutually exclusive modes.
type Order struct {
	BaseModel
	Number uint        `json:"number" gorm:"uniqueIndex;autoIncrement:false"`
	UserID uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	Status OrderStatus `json:"status" gorm:"type:varchar(20);default:'processing';index"`

	SoldSerials        string     `json:"sold_serials" gorm:"type:text"`
	ReturnedSerials    string     `json:"returned_serials" gorm:"type:text"`
	ReturnedEnabled    bool       `json:"returned_enabled" gorm:"default:false"`
	ReplacementEnabled bool       `json:"replacement_enabled" gorm:"default:false"`
	ReplacementOrderID *uuid.UUID `json:"replacement_order_id" gorm:"type:uuid"`
	SkipValidation     bool       `json:"skip_validation" gorm:"default:false"`

	// Relationships
	User    User        `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items   []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Refunds []Refund    `json:"refunds,omitempty" gorm:"foreignKey:OrderID"`
}

type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Quantity  int       `json:"quantity" gorm:"not null"`

	// Relationships
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

type Refund struct {
	BaseModel
	OrderID uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	Reason  string    `json:"reason" gorm:"type:text"`

	// Relationships
	Items []RefundItem `json:"items,omitempty" gorm:"foreignKey:RefundID"`
}

type RefundItem struct {
	BaseModel
	RefundID  uuid.UUID `json:"refund_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Quantity  int       `json:"quantity" gorm:"not null"`

	// Relationships
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
