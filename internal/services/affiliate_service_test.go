// internal/services/affiliate_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/msparth89/gscwordpress/internal/gateway"
	"github.com/msparth89/gscwordpress/internal/models"
	"github.com/msparth89/gscwordpress/internal/utils"
)

type AffiliateServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *AffiliateService
}

func (suite *AffiliateServiceTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)
	suite.Require().NoError(db.AutoMigrate(
		&models.User{}, &models.Affiliate{}, &models.Referral{}, &models.Setting{},
	))

	// Mock mode keeps verification offline and deterministic.
	suite.Require().NoError(db.Create(&models.Setting{
		Category: models.SettingCategoryPayments,
		Key:      models.SettingKeyMockMode,
		Value:    models.JSONB{"value": true},
		DataType: "json",
	}).Error)

	suite.db = db
	suite.service = NewAffiliateService(db, gateway.NewManager(db), "https://shop.example.com")
}

func (suite *AffiliateServiceTestSuite) createAffiliateUser(upiID string, verified bool) *models.User {
	user := &models.User{
		Username:     "partner",
		Email:        "partner@example.com",
		PasswordHash: "x",
		UserType:     models.UserTypeAffiliate,
		UPIID:        upiID,
		UPIVerified:  verified,
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	suite.Require().NoError(suite.db.Create(&models.Affiliate{
		UserID: user.ID,
		Name:   "Partner",
		Email:  user.Email,
	}).Error)
	return user
}

func (suite *AffiliateServiceTestSuite) TestVerifyUPIThroughActiveGateway() {
	result, err := suite.service.VerifyUPI(context.Background(), "alice@success.upi")
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), result.Success)
	assert.Equal(suite.T(), "Test Account alice", result.AccountName)
}

func (suite *AffiliateServiceTestSuite) TestVerifyUPIRequiresID() {
	_, err := suite.service.VerifyUPI(context.Background(), "")
	assert.EqualError(suite.T(), err, "UPI ID is required")
}

func (suite *AffiliateServiceTestSuite) TestChangedUPIRequiresConfirmation() {
	user := suite.createAffiliateUser("old@bank", true)

	err := suite.service.SaveProfile(user.ID, &SaveProfileRequest{
		FirstName: "Alice",
		LastName:  "Partner",
		Email:     "partner@example.com",
		UPIID:     "new@bank",
	})
	assert.ErrorIs(suite.T(), err, ErrUPIConfirmationNeed)

	var stored models.User
	suite.db.First(&stored, "id = ?", user.ID)
	assert.Equal(suite.T(), "old@bank", stored.UPIID)
}

func (suite *AffiliateServiceTestSuite) TestConfirmedUPIChangeIsSaved() {
	user := suite.createAffiliateUser("old@bank", true)

	err := suite.service.SaveProfile(user.ID, &SaveProfileRequest{
		FirstName:           "Alice",
		LastName:            "Partner",
		Email:               "alice@example.com",
		UPIID:               "new@bank",
		ConfirmUPI:          true,
		VerifiedAccountName: "Alice Partner",
	})
	assert.NoError(suite.T(), err)

	var stored models.User
	suite.db.First(&stored, "id = ?", user.ID)
	assert.Equal(suite.T(), "new@bank", stored.UPIID)
	assert.True(suite.T(), stored.UPIVerified)
	assert.Equal(suite.T(), "Alice Partner", stored.VerifiedAccountName)

	var affiliate models.Affiliate
	suite.db.First(&affiliate, "user_id = ?", user.ID)
	assert.Equal(suite.T(), "Alice Partner", affiliate.Name)
	assert.Equal(suite.T(), "alice@example.com", affiliate.Email)
}

func (suite *AffiliateServiceTestSuite) TestUnchangedUPIKeepsVerification() {
	user := suite.createAffiliateUser("same@bank", true)
	suite.db.Model(user).Update("verified_account_name", "Partner")

	err := suite.service.SaveProfile(user.ID, &SaveProfileRequest{
		FirstName: "Alice",
		LastName:  "Partner",
		Email:     "partner@example.com",
		UPIID:     "same@bank",
	})
	assert.NoError(suite.T(), err)

	var stored models.User
	suite.db.First(&stored, "id = ?", user.ID)
	assert.True(suite.T(), stored.UPIVerified)
	assert.Equal(suite.T(), "Partner", stored.VerifiedAccountName)
}

func (suite *AffiliateServiceTestSuite) TestReferralLinkUsesConfiguredParam() {
	user := suite.createAffiliateUser("same@bank", true)
	affiliate, err := suite.service.GetByUserID(user.ID)
	suite.Require().NoError(err)

	assert.Equal(suite.T(),
		"https://shop.example.com?aff="+affiliate.ID.String(),
		suite.service.ReferralLink(affiliate))

	suite.Require().NoError(suite.db.Create(&models.Setting{
		Category: models.SettingCategoryAffiliate,
		Key:      models.SettingKeyAffiliateParam,
		Value:    models.JSONB{"value": "ref"},
		DataType: "string",
	}).Error)

	assert.Equal(suite.T(),
		"https://shop.example.com?ref="+affiliate.ID.String(),
		suite.service.ReferralLink(affiliate))
}

func (suite *AffiliateServiceTestSuite) TestListReferralsPaginatesAndFilters() {
	user := suite.createAffiliateUser("same@bank", true)
	affiliate, err := suite.service.GetByUserID(user.ID)
	suite.Require().NoError(err)

	statuses := []models.ReferralStatus{
		models.ReferralStatusAccepted,
		models.ReferralStatusAccepted,
		models.ReferralStatusPending,
	}
	for _, status := range statuses {
		suite.Require().NoError(suite.db.Create(&models.Referral{
			AffiliateID: affiliate.ID,
			Amount:      decimal.NewFromInt(100),
			Currency:    "INR",
			Status:      status,
		}).Error)
	}

	params := utils.PaginationParams{Page: 1, Limit: 2, Sort: "created_at", Order: "desc"}

	referrals, total, err := suite.service.ListReferrals(affiliate.ID, "", params)
	assert.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 3, total)
	assert.Len(suite.T(), referrals, 2)

	referrals, total, err = suite.service.ListReferrals(affiliate.ID, models.ReferralStatusAccepted, params)
	assert.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 2, total)
	assert.Len(suite.T(), referrals, 2)
	for _, r := range referrals {
		assert.Equal(suite.T(), models.ReferralStatusAccepted, r.Status)
	}
}

func TestAffiliateServiceSuite(t *testing.T) {
	suite.Run(t, new(AffiliateServiceTestSuite))
}
