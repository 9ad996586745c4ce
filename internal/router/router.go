// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/msparth89/gscwordpress/internal/config"
	"github.com/msparth89/gscwordpress/internal/gateway"
	"github.com/msparth89/gscwordpress/internal/handlers"
	"github.com/msparth89/gscwordpress/internal/middleware"
	"github.com/msparth89/gscwordpress/internal/serial"
	"github.com/msparth89/gscwordpress/internal/services"
	"github.com/msparth89/gscwordpress/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	codec := serial.NewCodec(cfg.Site.BaseURL, cfg.Serial.LenientHostMatch)
	validator := serial.NewValidator(codec)
	gatewayManager := gateway.NewManager(db)

	authService := services.NewAuthService(db, cfg)
	serialService := services.NewSerialService(db, validator)
	qrService := services.NewQRService(db, cfg.Site.HomeURL)
	batchService := services.NewBatchService(db, gatewayManager, cfg.Batch.Limit)
	affiliateService := services.NewAffiliateService(db, gatewayManager, cfg.Site.BaseURL)
	settingsService := services.NewSettingsService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	orderHandler := handlers.NewOrderHandler(serialService)
	qrHandler := handlers.NewQRHandler(qrService, cfg.Site.HomeURL)
	batchHandler := handlers.NewBatchHandler(batchService)
	affiliateHandler := handlers.NewAffiliateHandler(affiliateService)
	adminSettingsHandler := handlers.NewAdminSettingsHandler(settingsService, gatewayManager)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// QR scan entry point, matches the storefront root
	r.GET("/", qrHandler.Resolve)

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Order serial routes
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			orders.GET("/:id/serials", orderHandler.GetOrderSerials)
			orders.PUT("/:id/serials", orderHandler.SaveOrderSerials)
		}

		// Affiliate routes
		affiliate := v1.Group("/affiliate")
		affiliate.Use(middleware.AuthRequired())
		{
			affiliate.POST("/verify-upi", affiliateHandler.VerifyUPI)
			affiliate.GET("/profile", affiliateHandler.GetProfile)
			affiliate.PUT("/profile", affiliateHandler.SaveProfile)
			affiliate.GET("/link", affiliateHandler.GetReferralLink)
			affiliate.GET("/referrals", affiliateHandler.ListReferrals)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			batches := admin.Group("/payment-batches")
			{
				batches.POST("", batchHandler.CreateBatch)
				batches.GET("", batchHandler.ListBatches)
				batches.POST("/process", batchHandler.ProcessPending)
				batches.GET("/:id", batchHandler.GetBatch)
				batches.POST("/:id/process", batchHandler.ProcessBatch)
			}

			settings := admin.Group("/settings")
			{
				settings.GET("/payment", adminSettingsHandler.GetPaymentSettings)
				settings.PUT("/payment", adminSettingsHandler.UpdatePaymentSettings)
			}

			payouts := admin.Group("/payouts")
			{
				payouts.GET("/:id/status", adminSettingsHandler.CheckPayoutStatus)
			}
		}
	}

	return r
}
