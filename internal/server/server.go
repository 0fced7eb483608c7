// Package server
//
// @title DairyChain API
// @version 1.0
// @description Dairy supply-chain management API
// @host localhost:8002
// @BasePath /
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dairychain-dev/dairychain/internal/auth"
	"github.com/dairychain-dev/dairychain/internal/config"
	"github.com/dairychain-dev/dairychain/internal/models"
	"github.com/dairychain-dev/dairychain/internal/seed"
)

// Server represents the HTTP server
type Server struct {
	router      *gin.Engine
	db          *gorm.DB
	config      *config.Config
	logger      zerolog.Logger
	validator   *validator.Validate
	asynqClient *asynq.Client
	devUsers    []seed.DevUser
	version     string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize database with production settings
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	// Load or generate the deployment config (carries the JWT secret)
	if err := initDeploymentConfig(db, zlog); err != nil {
		return nil, err
	}

	// Initialize validator
	validate := validator.New()

	// Register custom validators
	validate.RegisterValidation("periodmonth", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01", fl.Field().String())
		return err == nil
	})
	validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})

	// Initialize Asynq client for enqueueing tasks
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	// Load development credentials when dev login is enabled
	var devUsers []seed.DevUser
	if cfg.Dev.LoginEnabled {
		devUsers, err = seed.LoadCredentials(cfg.Dev.CredentialsFile)
		if err != nil {
			zlog.Warn().Err(err).Str("file", cfg.Dev.CredentialsFile).
				Msg("Dev login enabled but credentials file could not be loaded")
			devUsers = nil
		} else if err := seed.EnsureUsers(db, devUsers, zlog); err != nil {
			return nil, err
		}
	}

	// Create server
	server := &Server{
		db:          db,
		config:      cfg,
		logger:      zlog,
		validator:   validate,
		asynqClient: asynqClient,
		devUsers:    devUsers,
		version:     version,
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8    // Reduced for SQLite efficiency
		maxIdleConns    = 4    // Reduced proportionally
		connMaxLifetime = 300  // 5 minutes
		busyTimeout     = 5000 // 5 seconds
	)

	// Open database connection
	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool settings
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Apply SQLite pragmas directly (connection string pragmas may not work with all drivers)
	// WAL mode must be set first for optimal concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// initDeploymentConfig loads the singleton deployment config, creating it
// with a fresh JWT secret on first startup, and initializes JWT auth.
func initDeploymentConfig(db *gorm.DB, zlog zerolog.Logger) error {
	var depCfg models.DeploymentConfig
	err := db.First(&depCfg).Error
	if err == nil {
		auth.InitializeJWT(depCfg.JWTSecret)
		zlog.Debug().Msg("Loaded JWT secret from database")
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("failed to load deployment config: %w", err)
	}

	// First startup: generate JWT secret (64 hex characters = 32 bytes of randomness)
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	secret := hex.EncodeToString(secretBytes)

	depCfg = models.DeploymentConfig{
		JWTSecret:           secret,
		DefaultRatePerLiter: 0.45,
	}
	if err := db.Create(&depCfg).Error; err != nil {
		return fmt.Errorf("failed to create deployment config: %w", err)
	}

	auth.InitializeJWT(secret)
	zlog.Info().Msg("Generated deployment config with new JWT secret")
	return nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	// Set Gin mode based on environment
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware for the web dashboard origin
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8080"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	v1 := s.router.Group("/api/v1")

	// Health check endpoint (no auth required)
	v1.GET("/health", s.healthCheck)

	// Public auth endpoints (no auth required)
	v1.POST("/auth/login", s.login)
	v1.POST("/auth/register", s.register)
	v1.POST("/auth/refresh", s.refreshToken)
	if s.config.Dev.LoginEnabled {
		v1.POST("/auth/login/dummy", s.dummyLogin)
		v1.GET("/auth/dummy-credentials", s.dummyCredentials)
	}

	// Authenticated API routes (JWT required)
	api := v1.Group("")
	api.Use(JWTAuthMiddleware(s.db, s.logger))
	{
		// Auth endpoints
		api.GET("/auth/me", s.getCurrentUser)
		api.POST("/auth/logout", s.logout)

		// Farmers
		api.GET("/farmers", s.listFarmers)
		api.POST("/farmers", s.createFarmer)
		api.GET("/farmers/:id", s.getFarmer)
		api.PUT("/farmers/:id", s.updateFarmer)
		api.PATCH("/farmers/:id/kyc", s.updateKYCStatus)
		api.GET("/farmers/:id/collections", s.listFarmerCollections)
		api.GET("/farmers/:id/payments", s.listFarmerPayments)

		// Collections
		api.GET("/collections", s.listCollections)
		api.POST("/collections", s.createCollection)
		api.POST("/collections/mobile", s.createMobileCollection)
		api.POST("/collections/bulk", s.createBulkCollections)

		// Payments
		api.GET("/payments", s.listPayments)
		api.POST("/payments", s.createPayment)
		api.GET("/payments/:id", s.getPayment)
		api.PUT("/payments/:id", s.updatePayment)

		// Analytics
		api.GET("/analytics/dashboard", s.getDashboard)
		api.GET("/analytics/activity", s.listActivity)
		adminAnalytics := api.Group("/analytics/admin")
		adminAnalytics.Use(AdminOnlyMiddleware(s.logger))
		{
			adminAnalytics.GET("/dashboard", s.getAdminDashboard)
		}

		// Staff management (admin only)
		staffRoutes := api.Group("/staff")
		staffRoutes.Use(AdminOnlyMiddleware(s.logger))
		{
			staffRoutes.GET("", s.listStaff)
			staffRoutes.POST("", s.createStaff)
			staffRoutes.GET("/:id", s.getStaffMember)
			staffRoutes.PUT("/:id", s.updateStaff)
		}
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /api/v1/health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "dairychain-api",
		"version":   s.version,
	})
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Router returns the configured gin engine (used by handler tests)
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	port := ":" + s.config.HTTP.Port

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Create HTTP server with production timeouts
	srv := &http.Server{
		Addr:              port,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	// Start server in goroutine
	go func() {
		s.logger.Info().Str("port", port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Close Asynq client
	if err := s.asynqClient.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing Asynq client")
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	return nil
}
