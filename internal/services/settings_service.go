// internal/services/settings_service.go
package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/msparth89/gscwordpress/internal/models"
)

// SettingsService reads and writes the payment/affiliate configuration rows.
// Writes upsert by category+key; consumers always read fresh, so an update
// here is live on the next gateway operation.
type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// PaymentSettings is the admin view of the payout configuration. Secrets are
// write-only through UpdatePaymentSettings and never echoed back in full.
type PaymentSettings struct {
	ActiveGateway  string                     `json:"active_gateway"`
	MockMode       bool                       `json:"mock_mode"`
	AffiliateParam string                     `json:"affiliate_param"`
	Gateways       map[string]GatewaySettings `json:"gateways"`
}

type GatewaySettings struct {
	APIKey    string `json:"api_key,omitempty"`
	APISecret string `json:"api_secret,omitempty"`
	TestMode  bool   `json:"test_mode"`
}

var knownGateways = []string{"cashfree", "razorpay", "payu"}

func (s *SettingsService) GetPaymentSettings() (*PaymentSettings, error) {
	settings := &PaymentSettings{
		ActiveGateway: "cashfree",
		Gateways:      map[string]GatewaySettings{},
	}

	var rows []models.Setting
	if err := s.db.Where("category IN ?", []string{
		models.SettingCategoryPayments, models.SettingCategoryGateways,
	}).Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		switch {
		case row.Category == models.SettingCategoryPayments && row.Key == models.SettingKeyActiveGateway:
			if v, ok := row.Value["value"].(string); ok && v != "" {
				settings.ActiveGateway = v
			}
		case row.Category == models.SettingCategoryPayments && row.Key == models.SettingKeyMockMode:
			settings.MockMode, _ = row.Value["value"].(bool)
		case row.Category == models.SettingCategoryGateways:
			gw := GatewaySettings{}
			if v, ok := row.Value["api_key"].(string); ok {
				gw.APIKey = maskSecret(v)
			}
			if v, ok := row.Value["api_secret"].(string); ok {
				gw.APISecret = maskSecret(v)
			}
			gw.TestMode, _ = row.Value["test_mode"].(bool)
			settings.Gateways[row.Key] = gw
		}
	}

	settings.AffiliateParam = s.GetAffiliateParam()

	return settings, nil
}

type UpdatePaymentSettingsRequest struct {
	ActiveGateway  string                     `json:"active_gateway"`
	MockMode       *bool                      `json:"mock_mode"`
	AffiliateParam string                     `json:"affiliate_param"`
	Gateways       map[string]GatewaySettings `json:"gateways"`
}

func (s *SettingsService) UpdatePaymentSettings(req *UpdatePaymentSettingsRequest) error {
	if req.ActiveGateway != "" {
		if !isKnownGateway(req.ActiveGateway) {
			return fmt.Errorf("unknown gateway: %s", req.ActiveGateway)
		}
		err := s.upsert(models.SettingCategoryPayments, models.SettingKeyActiveGateway,
			models.JSONB{"value": req.ActiveGateway}, "string")
		if err != nil {
			return err
		}
	}

	if req.MockMode != nil {
		err := s.upsert(models.SettingCategoryPayments, models.SettingKeyMockMode,
			models.JSONB{"value": *req.MockMode}, "boolean")
		if err != nil {
			return err
		}
	}

	if req.AffiliateParam != "" {
		if err := s.SetAffiliateParam(req.AffiliateParam); err != nil {
			return err
		}
	}

	for id, gw := range req.Gateways {
		if !isKnownGateway(id) {
			return fmt.Errorf("unknown gateway: %s", id)
		}
		err := s.upsert(models.SettingCategoryGateways, id, models.JSONB{
			"api_key":    gw.APIKey,
			"api_secret": gw.APISecret,
			"test_mode":  gw.TestMode,
		}, "json")
		if err != nil {
			return err
		}
	}

	return nil
}

// GetAffiliateParam returns the attribution query parameter name.
func (s *SettingsService) GetAffiliateParam() string {
	return affiliateParamName(s.db)
}

// affiliateParamName reads the configured attribution parameter, falling back
// to "aff". The QR redirect and the referral link builder share this read.
func affiliateParamName(db *gorm.DB) string {
	var setting models.Setting
	err := db.Where("category = ? AND key = ?",
		models.SettingCategoryAffiliate, models.SettingKeyAffiliateParam).
		First(&setting).Error
	if err == nil {
		if v, ok := setting.Value["value"].(string); ok && v != "" {
			return v
		}
	}
	return "aff"
}

func (s *SettingsService) SetAffiliateParam(name string) error {
	if name == "" {
		return fmt.Errorf("affiliate parameter name cannot be empty")
	}
	return s.upsert(models.SettingCategoryAffiliate, models.SettingKeyAffiliateParam,
		models.JSONB{"value": name}, "string")
}

func (s *SettingsService) upsert(category, key string, value models.JSONB, dataType string) error {
	var existing models.Setting
	err := s.db.Where("category = ? AND key = ?", category, key).First(&existing).Error
	if err == nil {
		return s.db.Model(&existing).Updates(map[string]interface{}{
			"value":     value,
			"data_type": dataType,
		}).Error
	}
	return s.db.Create(&models.Setting{
		Category: category,
		Key:      key,
		Value:    value,
		DataType: dataType,
	}).Error
}

func isKnownGateway(id string) bool {
	for _, g := range knownGateways {
		if g == id {
			return true
		}
	}
	return false
}

func maskSecret(v string) string {
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}
