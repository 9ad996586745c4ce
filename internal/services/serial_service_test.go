// internal/services/serial_service_test.go
package services

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/msparth89/gscwordpress/internal/models"
	"github.com/msparth89/gscwordpress/internal/serial"
)

const testStoreURL = "https://shop.example.com"

type SerialServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *SerialService
}

func (suite *SerialServiceTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)
	suite.Require().NoError(db.AutoMigrate(
		&models.User{}, &models.Product{}, &models.Order{}, &models.OrderItem{},
		&models.Refund{}, &models.RefundItem{},
	))

	codec := serial.NewCodec(testStoreURL, false)
	suite.db = db
	suite.service = NewSerialService(db, serial.NewValidator(codec))
}

func (suite *SerialServiceTestSuite) token(gtin string, n int) string {
	return fmt.Sprintf("%s?p=%s%010d", testStoreURL, gtin, n)
}

func (suite *SerialServiceTestSuite) createUser() *models.User {
	user := &models.User{
		Username:     "buyer-" + uuid.New().String()[:8],
		Email:        uuid.New().String()[:8] + "@example.com",
		PasswordHash: "x",
		UserType:     models.UserTypeCustomer,
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *SerialServiceTestSuite) createProduct(name, gtin string) *models.Product {
	product := &models.Product{
		Name:      name,
		GTIN:      gtin,
		Permalink: testStoreURL + "/product/" + name,
	}
	suite.Require().NoError(suite.db.Create(product).Error)
	return product
}

func (suite *SerialServiceTestSuite) createOrder(number uint, lines map[*models.Product]int) *models.Order {
	order := &models.Order{Number: number, UserID: suite.createUser().ID}
	suite.Require().NoError(suite.db.Create(order).Error)
	for product, qty := range lines {
		item := &models.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: qty}
		suite.Require().NoError(suite.db.Create(item).Error)
	}
	return order
}

func (suite *SerialServiceTestSuite) createRefund(order *models.Order, product *models.Product, qty int) {
	refund := &models.Refund{OrderID: order.ID, Reason: "damaged"}
	suite.Require().NoError(suite.db.Create(refund).Error)
	item := &models.RefundItem{RefundID: refund.ID, ProductID: product.ID, Quantity: qty}
	suite.Require().NoError(suite.db.Create(item).Error)
}

func (suite *SerialServiceTestSuite) TestSaveValidSoldSerials() {
	product := suite.createProduct("widget", "1234567890")
	order := suite.createOrder(100, map[*models.Product]int{product: 2})

	raw := suite.token("1234567890", 1) + "\n" + suite.token("1234567890", 2)
	errs, err := suite.service.SaveOrderSerials(order.ID, &SaveSerialsRequest{SoldSerials: raw})
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), errs)

	var stored models.Order
	suite.db.First(&stored, "id = ?", order.ID)
	assert.Equal(suite.T(), raw, stored.SoldSerials)
	assert.False(suite.T(), stored.ReturnedEnabled)
	assert.False(suite.T(), stored.ReplacementEnabled)
}

func (suite *SerialServiceTestSuite) TestValidationFailureWritesNothing() {
	product := suite.createProduct("widget", "1234567890")
	order := suite.createOrder(101, map[*models.Product]int{product: 2})

	errs, err := suite.service.SaveOrderSerials(order.ID, &SaveSerialsRequest{
		SoldSerials: suite.token("1234567890", 1),
	})
	assert.NoError(suite.T(), err)
	suite.Require().Len(errs, 1)
	assert.Equal(suite.T(), serial.ErrCodeQuantity, errs[0].Code)

	var stored models.Order
	suite.db.First(&stored, "id = ?", order.ID)
	assert.Empty(suite.T(), stored.SoldSerials)
}

func (suite *SerialServiceTestSuite) TestSkipValidationPersistsAnyInput() {
	product := suite.createProduct("widget", "1234567890")
	order := suite.createOrder(102, map[*models.Product]int{product: 2})

	errs, err := suite.service.SaveOrderSerials(order.ID, &SaveSerialsRequest{
		SoldSerials:    "garbage input",
		SkipValidation: true,
	})
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), errs)

	var stored models.Order
	suite.db.First(&stored, "id = ?", order.ID)
	assert.Equal(suite.T(), "garbage input", stored.SoldSerials)
	assert.True(suite.T(), stored.SkipValidation)
}

func (suite *SerialServiceTestSuite) TestMissingBarcodeOnProduct() {
	product := suite.createProduct("nobarcode", "")
	order := suite.createOrder(103, map[*models.Product]int{product: 1})

	errs, err := suite.service.SaveOrderSerials(order.ID, &SaveSerialsRequest{
		SoldSerials: suite.token("1234567890", 1),
	})
	assert.NoError(suite.T(), err)
	suite.Require().NotEmpty(errs)
	assert.Equal(suite.T(), "Product 'nobarcode' is missing a barcode.", errs[0].Message)
}

func (suite *SerialServiceTestSuite) TestReturnedSerialsAgainstRefunds() {
	product := suite.createProduct("widget", "1234567890")
	order := suite.createOrder(104, map[*models.Product]int{product: 2})
	suite.createRefund(order, product, 1)

	sold := suite.token("1234567890", 1) + "\n" + suite.token("1234567890", 2)
	errs, err := suite.service.SaveOrderSerials(order.ID, &SaveSerialsRequest{
		SoldSerials:     sold,
		EnableReturned:  true,
		ReturnedSerials: suite.token("1234567890", 2),
	})
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), errs)

	var stored models.Order
	suite.db.First(&stored, "id = ?", order.ID)
	assert.True(suite.T(), stored.ReturnedEnabled)
	assert.Equal(suite.T(), suite.token("1234567890", 2), stored.ReturnedSerials)
}

func (suite *SerialServiceTestSuite) TestReturnedWithoutRefundFails() {
	product := suite.createProduct("widget", "1234567890")
	order := suite.createOrder(105, map[*models.Product]int{product: 2})

	sold := suite.token("1234567890", 1) + "\n" + suite.token("1234567890", 2)
	errs, err := suite.service.SaveOrderSerials(order.ID, &SaveSerialsRequest{
		SoldSerials:     sold,
		EnableReturned:  true,
		ReturnedSerials: suite.token("1234567890", 2),
	})
	assert.NoError(suite.T(), err)
	suite.Require().NotEmpty(errs)
	assert.Equal(suite.T(), serial.ErrCodeQuantity, errs[0].Code)

	var stored models.Order
	suite.db.First(&stored, "id = ?", order.ID)
	assert.False(suite.T(), stored.ReturnedEnabled)
}

func (suite *SerialServiceTestSuite) TestReturnedModeWinsOverReplacement() {
	product := suite.createProduct("widget", "1234567890")
	order := suite.createOrder(106, map[*models.Product]int{product: 1})
	suite.createRefund(order, product, 1)

	sold := suite.token("1234567890", 1)
	errs, err := suite.service.SaveOrderSerials(order.ID, &SaveSerialsRequest{
		SoldSerials:       sold,
		EnableReturned:    true,
		ReturnedSerials:   sold,
		EnableReplacement: true,
	})
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), errs)

	var stored models.Order
	suite.db.First(&stored, "id = ?", order.ID)
	assert.True(suite.T(), stored.ReturnedEnabled)
	assert.False(suite.T(), stored.ReplacementEnabled)
	assert.Nil(suite.T(), stored.ReplacementOrderID)
}

func (suite *SerialServiceTestSuite) TestReplacementReferencesReturnedOrder() {
	product := suite.createProduct("widget", "1234567890")

	original := suite.createOrder(200, map[*models.Product]int{product: 1})
	original.ReturnedEnabled = true
	original.ReturnedSerials = suite.token("1234567890", 1)
	suite.Require().NoError(suite.db.Save(original).Error)

	replacement := suite.createOrder(201, map[*models.Product]int{product: 1})
	errs, err := suite.service.SaveOrderSerials(replacement.ID, &SaveSerialsRequest{
		SoldSerials:        suite.token("1234567890", 9),
		EnableReplacement:  true,
		ReplacementOrderNo: "200",
	})
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), errs)

	var stored models.Order
	suite.db.First(&stored, "id = ?", replacement.ID)
	assert.True(suite.T(), stored.ReplacementEnabled)
	suite.Require().NotNil(stored.ReplacementOrderID)
	assert.Equal(suite.T(), original.ID, *stored.ReplacementOrderID)
}

func (suite *SerialServiceTestSuite) TestReplacementAgainstMissingOrder() {
	product := suite.createProduct("widget", "1234567890")
	order := suite.createOrder(300, map[*models.Product]int{product: 1})

	errs, err := suite.service.SaveOrderSerials(order.ID, &SaveSerialsRequest{
		SoldSerials:        suite.token("1234567890", 1),
		EnableReplacement:  true,
		ReplacementOrderNo: "9999",
	})
	assert.NoError(suite.T(), err)
	suite.Require().Len(errs, 1)
	assert.Equal(suite.T(), "Order #9999 does not exist", errs[0].Message)
}

func (suite *SerialServiceTestSuite) TestUnknownOrder() {
	_, err := suite.service.SaveOrderSerials(uuid.New(), &SaveSerialsRequest{})
	assert.ErrorIs(suite.T(), err, ErrOrderNotFound)
}

func TestSerialServiceSuite(t *testing.T) {
	suite.Run(t, new(SerialServiceTestSuite))
}
