// internal/services/batch_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/msparth89/gscwordpress/internal/gateway"
	"github.com/msparth89/gscwordpress/internal/models"
	"github.com/msparth89/gscwordpress/internal/utils"
)

type fakePayoutGateway struct {
	failUPIs map[string]string
	calls    int
}

func (f *fakePayoutGateway) Active() (gateway.Gateway, error) {
	return gateway.NewMock(), nil
}

func (f *fakePayoutGateway) ProcessPayout(ctx context.Context, req *gateway.PayoutRequest) (*gateway.PayoutResult, error) {
	f.calls++
	if msg, ok := f.failUPIs[req.UPIID]; ok {
		return &gateway.PayoutResult{Success: false, Error: msg}, nil
	}
	return &gateway.PayoutResult{Success: true, PayoutID: "pay_" + req.UPIID, Status: "success"}, nil
}

type BatchServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	gateway *fakePayoutGateway
	service *BatchService
}

func (suite *BatchServiceTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)
	suite.Require().NoError(db.AutoMigrate(
		&models.User{}, &models.Affiliate{}, &models.Referral{},
		&models.ReferralPayout{}, &models.PaymentBatch{}, &models.PaymentBatchItem{},
		&models.Setting{},
	))

	suite.db = db
	suite.gateway = &fakePayoutGateway{failUPIs: map[string]string{}}
	suite.service = NewBatchService(db, suite.gateway, 5)
}

func (suite *BatchServiceTestSuite) createReferral(upiID, accountName string) uuid.UUID {
	user := &models.User{
		Username:            "user-" + uuid.New().String()[:8],
		Email:               uuid.New().String()[:8] + "@example.com",
		PasswordHash:        "x",
		UserType:            models.UserTypeAffiliate,
		UPIID:               upiID,
		VerifiedAccountName: accountName,
	}
	suite.Require().NoError(suite.db.Create(user).Error)

	affiliate := &models.Affiliate{UserID: user.ID, Name: accountName, Email: user.Email}
	suite.Require().NoError(suite.db.Create(affiliate).Error)

	referral := &models.Referral{
		AffiliateID: affiliate.ID,
		Amount:      decimal.NewFromInt(250),
		Currency:    "INR",
		Status:      models.ReferralStatusAccepted,
	}
	suite.Require().NoError(suite.db.Create(referral).Error)
	return referral.ID
}

func (suite *BatchServiceTestSuite) TestCreateBatchRequiresReferrals() {
	_, err := suite.service.CreateBatch(nil)
	assert.ErrorIs(suite.T(), err, ErrNoReferrals)

	var count int64
	suite.db.Model(&models.PaymentBatch{}).Count(&count)
	assert.Zero(suite.T(), count)
}

func (suite *BatchServiceTestSuite) TestCreateBatchCreatesOneItemPerReferral() {
	ids := []uuid.UUID{
		suite.createReferral("a@bank", "A"),
		suite.createReferral("b@bank", "B"),
	}

	batch, err := suite.service.CreateBatch(ids)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.BatchStatusPending, batch.Status)
	assert.Equal(suite.T(), 2, batch.TotalReferrals)

	var items []models.PaymentBatchItem
	suite.db.Where("batch_id = ?", batch.ID).Find(&items)
	assert.Len(suite.T(), items, 2)
	for _, item := range items {
		assert.Equal(suite.T(), models.BatchItemStatusPending, item.Status)
	}
}

func (suite *BatchServiceTestSuite) TestCreateBatchRollsBackAllRowsOnItemFailure() {
	id := suite.createReferral("a@bank", "A")

	// The repeated referral trips the per-batch uniqueness index on the
	// second item insert, after the batch row is already written.
	_, err := suite.service.CreateBatch([]uuid.UUID{id, id})
	assert.Error(suite.T(), err)

	var batches, items int64
	suite.db.Model(&models.PaymentBatch{}).Count(&batches)
	suite.db.Model(&models.PaymentBatchItem{}).Count(&items)
	assert.Zero(suite.T(), batches)
	assert.Zero(suite.T(), items)
}

func (suite *BatchServiceTestSuite) TestProcessBatchAllSuccessful() {
	ids := []uuid.UUID{
		suite.createReferral("a@bank", "A"),
		suite.createReferral("b@bank", "B"),
	}
	batch, err := suite.service.CreateBatch(ids)
	suite.Require().NoError(err)

	stats, err := suite.service.ProcessBatch(context.Background(), batch.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, stats.SuccessfulPayouts)
	assert.Zero(suite.T(), stats.FailedPayouts)

	var stored models.PaymentBatch
	suite.db.First(&stored, "id = ?", batch.ID)
	assert.Equal(suite.T(), models.BatchStatusCompleted, stored.Status)
	assert.Equal(suite.T(), 2, stored.ProcessedReferrals)
	assert.Equal(suite.T(), 2, stored.SuccessfulPayouts)

	var items []models.PaymentBatchItem
	suite.db.Where("batch_id = ?", batch.ID).Find(&items)
	for _, item := range items {
		assert.Equal(suite.T(), models.BatchItemStatusCompleted, item.Status)
		assert.NotEmpty(suite.T(), item.TransactionID)
	}
}

func (suite *BatchServiceTestSuite) TestProcessBatchPartialOutcome() {
	okID := suite.createReferral("good@bank", "Good")
	badID := suite.createReferral("bad@bank", "Bad")
	suite.gateway.failUPIs["bad@bank"] = "Payout failed"

	batch, err := suite.service.CreateBatch([]uuid.UUID{okID, badID})
	suite.Require().NoError(err)

	stats, err := suite.service.ProcessBatch(context.Background(), batch.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, stats.SuccessfulPayouts)
	assert.Equal(suite.T(), 1, stats.FailedPayouts)

	var stored models.PaymentBatch
	suite.db.First(&stored, "id = ?", batch.ID)
	assert.Equal(suite.T(), models.BatchStatusPartial, stored.Status)

	var failedItem models.PaymentBatchItem
	suite.db.First(&failedItem, "batch_id = ? AND status = ?", batch.ID, models.BatchItemStatusFailed)
	assert.Equal(suite.T(), "Payout failed", failedItem.TransactionData["error"])
}

func (suite *BatchServiceTestSuite) TestMissingUPIFailsItemWithoutGatewayCall() {
	id := suite.createReferral("", "No UPI")

	batch, err := suite.service.CreateBatch([]uuid.UUID{id})
	suite.Require().NoError(err)

	stats, err := suite.service.ProcessBatch(context.Background(), batch.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, stats.FailedPayouts)
	assert.Zero(suite.T(), suite.gateway.calls)

	var item models.PaymentBatchItem
	suite.db.First(&item, "batch_id = ?", batch.ID)
	assert.Equal(suite.T(), models.BatchItemStatusFailed, item.Status)
	assert.Equal(suite.T(), "Missing UPI ID or account name for the affiliate.", item.TransactionData["error"])
}

func (suite *BatchServiceTestSuite) TestSuccessfulPayoutClosesReferral() {
	id := suite.createReferral("a@bank", "A")

	batch, err := suite.service.CreateBatch([]uuid.UUID{id})
	suite.Require().NoError(err)

	_, err = suite.service.ProcessBatch(context.Background(), batch.ID)
	assert.NoError(suite.T(), err)

	var referral models.Referral
	suite.db.First(&referral, "id = ?", id)
	assert.Equal(suite.T(), models.ReferralStatusClosed, referral.Status)
	assert.Equal(suite.T(), "pay_a@bank", referral.Data["payment_transaction_id"])
	assert.NotEmpty(suite.T(), referral.Data["payment_date"])

	var payout models.ReferralPayout
	err = suite.db.First(&payout, "referral_id = ?", id).Error
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "pay_a@bank", payout.TransactionID)
	assert.Equal(suite.T(), "upi", payout.PaymentMethod)
}

func (suite *BatchServiceTestSuite) TestBatchCannotBeProcessedTwice() {
	id := suite.createReferral("a@bank", "A")
	batch, err := suite.service.CreateBatch([]uuid.UUID{id})
	suite.Require().NoError(err)

	_, err = suite.service.ProcessBatch(context.Background(), batch.ID)
	assert.NoError(suite.T(), err)

	_, err = suite.service.ProcessBatch(context.Background(), batch.ID)
	assert.Error(suite.T(), err)
	assert.Equal(suite.T(), 1, suite.gateway.calls)
}

func (suite *BatchServiceTestSuite) TestProcessPendingBatchesHonorsLimit() {
	limited := NewBatchService(suite.db, suite.gateway, 1)

	first, err := suite.service.CreateBatch([]uuid.UUID{suite.createReferral("a@bank", "A")})
	suite.Require().NoError(err)
	suite.db.Model(&models.PaymentBatch{}).Where("id = ?", first.ID).
		Update("created_at", time.Now().Add(-time.Hour))
	second, err := suite.service.CreateBatch([]uuid.UUID{suite.createReferral("b@bank", "B")})
	suite.Require().NoError(err)

	stats, err := limited.ProcessPendingBatches(context.Background())
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, stats.BatchesProcessed)

	var stored models.PaymentBatch
	suite.db.First(&stored, "id = ?", first.ID)
	assert.Equal(suite.T(), models.BatchStatusCompleted, stored.Status)

	var storedSecond models.PaymentBatch
	suite.db.First(&storedSecond, "id = ?", second.ID)
	assert.Equal(suite.T(), models.BatchStatusPending, storedSecond.Status)
}

func (suite *BatchServiceTestSuite) TestNilGatewayFailsBatchWithoutTouchingItems() {
	broken := NewBatchService(suite.db, nil, 5)

	batch, err := broken.CreateBatch([]uuid.UUID{suite.createReferral("a@bank", "A")})
	suite.Require().NoError(err)

	stats, err := broken.ProcessBatch(context.Background(), batch.ID)
	assert.NoError(suite.T(), err)
	assert.Zero(suite.T(), stats.SuccessfulPayouts)

	var stored models.PaymentBatch
	suite.db.First(&stored, "id = ?", batch.ID)
	assert.Equal(suite.T(), models.BatchStatusFailed, stored.Status)

	var item models.PaymentBatchItem
	suite.db.First(&item, "batch_id = ?", batch.ID)
	assert.Equal(suite.T(), models.BatchItemStatusPending, item.Status)
}

func (suite *BatchServiceTestSuite) TestUnknownActiveGatewaySettingFailsBatchKeepingItemsPending() {
	suite.Require().NoError(suite.db.Create(&models.Setting{
		Category: models.SettingCategoryPayments,
		Key:      models.SettingKeyActiveGateway,
		Value:    models.JSONB{"value": "stripe"},
		DataType: "string",
	}).Error)
	misconfigured := NewBatchService(suite.db, gateway.NewManager(suite.db), 5)

	batch, err := misconfigured.CreateBatch([]uuid.UUID{suite.createReferral("a@bank", "A")})
	suite.Require().NoError(err)

	stats, err := misconfigured.ProcessBatch(context.Background(), batch.ID)
	assert.NoError(suite.T(), err)
	assert.Zero(suite.T(), stats.SuccessfulPayouts)
	assert.Zero(suite.T(), stats.FailedPayouts)

	var stored models.PaymentBatch
	suite.db.First(&stored, "id = ?", batch.ID)
	assert.Equal(suite.T(), models.BatchStatusFailed, stored.Status)

	var item models.PaymentBatchItem
	suite.db.First(&item, "batch_id = ?", batch.ID)
	assert.Equal(suite.T(), models.BatchItemStatusPending, item.Status)
	assert.Empty(suite.T(), item.TransactionData)
}

func (suite *BatchServiceTestSuite) TestListBatchesPaginates() {
	for i := 0; i < 3; i++ {
		_, err := suite.service.CreateBatch([]uuid.UUID{suite.createReferral("a@bank", "A")})
		suite.Require().NoError(err)
	}

	batches, total, err := suite.service.ListBatches(utils.PaginationParams{
		Page: 1, Limit: 2, Sort: "created_at", Order: "desc",
	})
	assert.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 3, total)
	assert.Len(suite.T(), batches, 2)

	batches, _, err = suite.service.ListBatches(utils.PaginationParams{
		Page: 2, Limit: 2, Sort: "created_at", Order: "desc",
	})
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), batches, 1)
}

func (suite *BatchServiceTestSuite) TestEmptyBatchCompletesImmediately() {
	batch := &models.PaymentBatch{Status: models.BatchStatusPending}
	suite.Require().NoError(suite.db.Create(batch).Error)

	stats, err := suite.service.ProcessBatch(context.Background(), batch.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, stats.BatchesProcessed)
	assert.Zero(suite.T(), stats.SuccessfulPayouts)
	assert.Zero(suite.T(), stats.FailedPayouts)

	var stored models.PaymentBatch
	suite.db.First(&stored, "id = ?", batch.ID)
	assert.Equal(suite.T(), models.BatchStatusCompleted, stored.Status)
}

func TestBatchServiceSuite(t *testing.T) {
	suite.Run(t, new(BatchServiceTestSuite))
}
