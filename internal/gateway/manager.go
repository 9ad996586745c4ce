// internal/gateway/manager.go
package gateway

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/msparth89/gscwordpress/internal/models"
)

// ErrNoActiveGateway is returned when the configured active gateway id does
// not resolve to a known provider.
var ErrNoActiveGateway = errors.New("no active payment gateway found")

// Manager resolves the active gateway from the settings table on every
// operation. Nothing is cached across calls, so credential or mode changes
// made by an admin apply to the next payout immediately.
type Manager struct {
	db *gorm.DB
}

func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// Active builds the currently selected gateway with its stored credentials.
// With global mock mode on it returns the Mock gateway instead, regardless
// of which provider is selected.
func (m *Manager) Active() (Gateway, error) {
	if m.mockMode() {
		return NewMock(), nil
	}

	id := m.activeGatewayID()
	creds := m.credentials(id)

	switch id {
	case "cashfree":
		return NewCashfree(creds), nil
	case "razorpay":
		return NewRazorpay(creds), nil
	case "payu":
		return NewPayU(creds), nil
	default:
		return nil, ErrNoActiveGateway
	}
}

func (m *Manager) VerifyUPI(ctx context.Context, upiID string) (*VerifyResult, error) {
	gw, err := m.Active()
	if err != nil {
		return nil, err
	}
	return gw.VerifyUPI(ctx, upiID)
}

func (m *Manager) ProcessPayout(ctx context.Context, req *PayoutRequest) (*PayoutResult, error) {
	gw, err := m.Active()
	if err != nil {
		return nil, err
	}
	return gw.ProcessPayout(ctx, req)
}

func (m *Manager) CheckPayoutStatus(ctx context.Context, payoutID string) (*StatusResult, error) {
	gw, err := m.Active()
	if err != nil {
		return nil, err
	}
	return gw.CheckPayoutStatus(ctx, payoutID)
}

func (m *Manager) activeGatewayID() string {
	value := m.settingValue(models.SettingCategoryPayments, models.SettingKeyActiveGateway)
	if id, ok := value["value"].(string); ok && id != "" {
		return id
	}
	return "cashfree"
}

func (m *Manager) mockMode() bool {
	value := m.settingValue(models.SettingCategoryPayments, models.SettingKeyMockMode)
	enabled, _ := value["value"].(bool)
	return enabled
}

// credentials loads the stored key pair for one gateway id. Missing rows
// yield empty credentials; the gateway itself reports them as unconfigured.
func (m *Manager) credentials(gatewayID string) Credentials {
	value := m.settingValue(models.SettingCategoryGateways, gatewayID)
	creds := Credentials{}
	if v, ok := value["api_key"].(string); ok {
		creds.APIKey = v
	}
	if v, ok := value["api_secret"].(string); ok {
		creds.APISecret = v
	}
	if v, ok := value["test_mode"].(bool); ok {
		creds.TestMode = v
	}
	return creds
}

func (m *Manager) settingValue(category, key string) models.JSONB {
	var setting models.Setting
	err := m.db.Where("category = ? AND key = ?", category, key).First(&setting).Error
	if err != nil {
		return models.JSONB{}
	}
	return setting.Value
}
