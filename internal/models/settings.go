// internal/models/settings.go
package models

// Setting is a category/key addressed configuration row. Gateway credentials
// and the payout switches live here and are re-read on every operation rather
// than cached, so admin changes take effect immediately.
type Setting struct {
	BaseModel
	Category    string `json:"category" gorm:"size:50;not null;index:idx_settings_category_key,unique"`
	Key         string `json:"key" gorm:"size:100;not null;index:idx_settings_category_key,unique"`
	Value       JSONB  `json:"value" gorm:"type:jsonb;not null"`
	DataType    string `json:"data_type" gorm:"size:20;not null"`
	Description string `json:"description" gorm:"type:text"`
}

// Well-known setting addresses.
const (
	SettingCategoryPayments  = "payments"
	SettingCategoryGateways  = "gateways"
	SettingCategoryAffiliate = "affiliate"

	SettingKeyActiveGateway  = "active_gateway"
	SettingKeyMockMode       = "mock_mode"
	SettingKeyAffiliateParam = "param_name"
)
