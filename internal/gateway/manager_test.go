// internal/gateway/manager_test.go
package gateway

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/msparth89/gscwordpress/internal/models"
)

type ManagerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	manager *Manager
}

func (suite *ManagerTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)
	suite.Require().NoError(db.AutoMigrate(&models.Setting{}))

	suite.db = db
	suite.manager = NewManager(db)
}

func (suite *ManagerTestSuite) setSetting(category, key string, value models.JSONB) {
	suite.Require().NoError(suite.db.Create(&models.Setting{
		Category: category,
		Key:      key,
		Value:    value,
		DataType: "json",
	}).Error)
}

func (suite *ManagerTestSuite) TestDefaultActiveGatewayIsCashfree() {
	gw, err := suite.manager.Active()
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "cashfree", gw.ID())
}

func (suite *ManagerTestSuite) TestActiveGatewaySelection() {
	suite.setSetting(models.SettingCategoryPayments, models.SettingKeyActiveGateway, models.JSONB{"value": "razorpay"})

	gw, err := suite.manager.Active()
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "razorpay", gw.ID())
}

func (suite *ManagerTestSuite) TestUnknownGatewayFails() {
	suite.setSetting(models.SettingCategoryPayments, models.SettingKeyActiveGateway, models.JSONB{"value": "stripe"})

	_, err := suite.manager.Active()
	assert.ErrorIs(suite.T(), err, ErrNoActiveGateway)
}

func (suite *ManagerTestSuite) TestMockModeOverridesSelection() {
	suite.setSetting(models.SettingCategoryPayments, models.SettingKeyActiveGateway, models.JSONB{"value": "payu"})
	suite.setSetting(models.SettingCategoryPayments, models.SettingKeyMockMode, models.JSONB{"value": true})

	gw, err := suite.manager.Active()
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "mock", gw.ID())
}

func (suite *ManagerTestSuite) TestVerifyThroughManagerInMockMode() {
	suite.setSetting(models.SettingCategoryPayments, models.SettingKeyMockMode, models.JSONB{"value": true})

	res, err := suite.manager.VerifyUPI(context.Background(), "eve@success.upi")
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), res.Success)
	assert.Equal(suite.T(), "Test Account eve", res.AccountName)
}

func (suite *ManagerTestSuite) TestSettingsAreReadFreshPerOperation() {
	gw, err := suite.manager.Active()
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "cashfree", gw.ID())

	suite.setSetting(models.SettingCategoryPayments, models.SettingKeyMockMode, models.JSONB{"value": true})

	gw, err = suite.manager.Active()
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "mock", gw.ID())
}

func (suite *ManagerTestSuite) TestCredentialInjection() {
	suite.setSetting(models.SettingCategoryGateways, "cashfree", models.JSONB{
		"api_key":    "cf_key",
		"api_secret": "cf_secret",
		"test_mode":  true,
	})

	creds := suite.manager.credentials("cashfree")
	assert.Equal(suite.T(), "cf_key", creds.APIKey)
	assert.Equal(suite.T(), "cf_secret", creds.APISecret)
	assert.True(suite.T(), creds.TestMode)
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}
