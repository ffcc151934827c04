package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging

	"ganamos/internal/api"        // Custom package for API handlers
	"ganamos/internal/config"     // Custom package for configuration
	"ganamos/internal/dashcache"  // Dashboard listing cache
	"ganamos/internal/email"      // Transactional email
	"ganamos/internal/jobs"       // Background job scheduler
	"ganamos/internal/lightning"  // LND REST client
	"ganamos/internal/middleware" // Custom package for middleware
	"ganamos/internal/nostr"      // Nostr relay publisher
	"ganamos/internal/price"      // Bitcoin price service
	"ganamos/internal/summary"    // Daily digest service

	// For loading .env files
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Shared services
	ln := lightning.NewClient(cfg.LNDRestURL, cfg.LNDAdminMacaroon)          // LND REST client
	priceService := price.NewService(db, redisClient, cfg.CoinMarketCapKey)  // Bitcoin price service
	sender := email.NewSender(cfg.ResendAPIKey, cfg.EmailFrom)               // Transactional email
	publisher := nostr.NewPublisher(cfg.NostrPrivateKey, cfg.AppURL)         // Nostr relay publisher
	summaryService := summary.NewService(db, sender, cfg.AdminEmail)         // Daily digest
	listingCache := dashcache.NewStore(dashcache.RedisKV{Client: redisClient}) // Dashboard listing cache

	// Background jobs: recurring price refresh and daily summary
	scheduler := jobs.NewScheduler(priceService, summaryService)
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes
	r.POST("/api/auth/register", api.RegisterHandler(db))            // Registration endpoint
	r.POST("/api/auth/login", api.LoginHandler(db, cfg.JWTSecret))   // Login endpoint

	// Public routes
	r.GET("/api/invoice-status", middleware.OpenCORSMiddleware(), api.InvoiceStatusHandler(ln)) // Invoice polling endpoint
	r.OPTIONS("/api/invoice-status", middleware.OpenCORSMiddleware())
	r.GET("/api/bitcoin-price", api.BitcoinPriceHandler(priceService, !cfg.IsProd)) // Price endpoint
	r.GET("/api/travel-times", api.TravelTimesHandler(cfg.GoogleMapsKey))           // Travel times endpoint
	r.GET("/api/device/config", middleware.OpenCORSMiddleware(), api.DeviceConfigHandler(db, priceService)) // Device config endpoint
	r.OPTIONS("/api/device/config", middleware.OpenCORSMiddleware())

	// Session routes (protected by JWT)
	sessionGroup := r.Group("/api")
	sessionGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	sessionGroup.GET("/user/balance", api.GetBalanceHandler(db)) // Balance endpoint

	// Post routes
	sessionGroup.GET("/posts", api.ListPostsHandler(db, listingCache))   // Listing endpoint
	sessionGroup.POST("/posts", api.CreatePostHandler(db, publisher))    // Create post endpoint
	sessionGroup.POST("/posts/fix", api.SubmitFixHandler(db))            // Submit fix endpoint
	sessionGroup.POST("/posts/fix/verify", api.VerifyFixHandler(db))     // Verify fix endpoint

	// Wallet routes
	sessionGroup.POST("/wallet/deposit", api.DepositHandler(db, ln))                // Deposit endpoint
	sessionGroup.POST("/wallet/deposit/confirm", api.ConfirmDepositHandler(db, ln)) // Deposit confirmation endpoint
	sessionGroup.POST("/wallet/withdraw", api.WithdrawHandler(db, ln))              // Withdrawal endpoint
	sessionGroup.POST("/wallet/transfer", api.TransferHandler(db, sender))          // Transfer endpoint

	// Device routes
	sessionGroup.POST("/device/register", api.RegisterDeviceHandler(db)) // Pairing endpoint
	sessionGroup.GET("/device/list", api.ListDevicesHandler(db))         // Device listing endpoint
	sessionGroup.POST("/device/update", api.UpdateDeviceHandler(db))     // Device update endpoint
	sessionGroup.POST("/device/remove", api.RemoveDeviceHandler(db))     // Device removal endpoint

	// Connected account routes
	sessionGroup.POST("/child-account", api.CreateChildAccountHandler(db))        // Child creation endpoint
	sessionGroup.POST("/disconnect-account", api.DisconnectAccountHandler(db))     // Unlink endpoint
	sessionGroup.POST("/delete-child-account", api.DeleteChildAccountHandler(db)) // Child deletion endpoint

	// Internal routes (protected by shared secret)
	internalGroup := r.Group("/api")
	internalGroup.Use(middleware.InternalOnlyMiddleware(cfg.InternalSecret))
	internalGroup.POST("/email/transfer-notification", api.TransferNotificationHandler(db, sender)) // Email endpoint
	internalGroup.POST("/nostr/publish-post", api.PublishPostHandler(db, publisher))                // Nostr publish endpoint
	internalGroup.POST("/nostr/setup-profile", api.SetupProfileHandler(publisher))                  // Nostr profile endpoint
	internalGroup.POST("/admin/daily-summary", api.DailySummaryHandler(summaryService))             // Daily summary endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
