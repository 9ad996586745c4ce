// internal/models/product.go
package models

import "github.com/shopspring/decimal"

// Product mirrors the catalog entries that serials and QR scans resolve
// against. GTIN is the 10-digit barcode printed in the QR payload.
type Product struct {
	BaseModel
	Name      string          `json:"name" gorm:"size:255;not null"`
	GTIN      string          `json:"gtin" gorm:"column:gtin;size:10;uniqueIndex"`
	Permalink string          `json:"permalink" gorm:"size:500;not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
}
