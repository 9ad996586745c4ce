// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/msparth89/gscwordpress/internal/config"
	"github.com/msparth89/gscwordpress/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Refund{},
		&models.RefundItem{},
		&models.Affiliate{},
		&models.Referral{},
		&models.ReferralPayout{},
		&models.PaymentBatch{},
		&models.PaymentBatchItem{},
		&models.Setting{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Order indexes; sold_serials is LIKE-searched by the QR router.
		"CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",

		// Referral/payout indexes
		"CREATE INDEX IF NOT EXISTS idx_referrals_affiliate_status ON referrals(affiliate_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_referral_payouts_referral ON referral_payouts(referral_id)",

		// Batch processing pulls pending batches oldest-first.
		"CREATE INDEX IF NOT EXISTS idx_payment_batches_status_created ON payment_batches(status, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_payment_batch_items_batch_status ON payment_batch_items(batch_id, status)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	// Create default admin user
	var adminCount int64
	db.Model(&models.User{}).Where("user_type = ?", models.UserTypeAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Username:  "admin",
			Email:     "admin@gscwordpress.local",
			UserType:  models.UserTypeAdmin,
			FirstName: "System",
			LastName:  "Administrator",
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("Default admin user created successfully")
	}

	defaultSettings := []models.Setting{
		{
			Category:    models.SettingCategoryPayments,
			Key:         models.SettingKeyActiveGateway,
			Value:       models.JSONB{"value": "cashfree"},
			DataType:    "string",
			Description: "Gateway used for UPI verification and payouts",
		},
		{
			Category:    models.SettingCategoryPayments,
			Key:         models.SettingKeyMockMode,
			Value:       models.JSONB{"value": false},
			DataType:    "boolean",
			Description: "Serve deterministic mock gateway responses instead of live API calls",
		},
		{
			Category:    models.SettingCategoryAffiliate,
			Key:         models.SettingKeyAffiliateParam,
			Value:       models.JSONB{"value": "aff"},
			DataType:    "string",
			Description: "Query parameter appended to product URLs for affiliate attribution",
		},
	}

	for _, setting := range defaultSettings {
		var count int64
		db.Model(&models.Setting{}).Where("category = ? AND key = ?", setting.Category, setting.Key).Count(&count)

		if count == 0 {
			if err := db.Create(&setting).Error; err != nil {
				log.Printf("Warning: Failed to create setting %s.%s: %v", setting.Category, setting.Key, err)
			}
		}
	}

	log.Println("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
