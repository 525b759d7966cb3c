package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/trustportal/trust-api/docs" // Swagger docs
	"github.com/trustportal/trust-api/internal/broker"
	"github.com/trustportal/trust-api/internal/config"
	"github.com/trustportal/trust-api/internal/database"
	"github.com/trustportal/trust-api/internal/handlers"
	"github.com/trustportal/trust-api/internal/jobs"
	"github.com/trustportal/trust-api/internal/ledger"
	"github.com/trustportal/trust-api/internal/metrics"
	"github.com/trustportal/trust-api/internal/middleware"
	"github.com/trustportal/trust-api/internal/repository"
	"github.com/trustportal/trust-api/internal/services"
	"github.com/trustportal/trust-api/internal/storage"
	"github.com/trustportal/trust-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @title Trust Portal API
// @version 1.0
// @description Loan scoring, consent management and the tamper-evident audit ledger behind the Trust Portal

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment, cfg.LogLevel)

	// Initialize Sentry (GlitchTip) when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.Audit.ComplianceEmail != "" && (cfg.ResendAPIKey == "" || cfg.FromEmail == "") {
		logger.Warn("Integrity alert email disabled: RESEND_API_KEY or FROM_EMAIL not set")
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	digester, err := ledger.NewDigester(cfg.Audit.HashAlgorithm)
	if err != nil {
		logger.Error("Invalid hash algorithm", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	var repos *repository.Repositories
	var db *gorm.DB
	switch cfg.Audit.Store {
	case config.StoreMemory:
		logger.Warn("Using in-memory audit store: history is lost on restart")
		repos = repository.NewMemoryRepositories()
	default:
		if err := database.Migrate(cfg.DB.URL); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			os.Exit(1)
		}
		db, err = database.Connect(cfg.DB, cfg.IsProduction())
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		logger.Info("Connected to database")
		repos = repository.NewRepositories(db)
	}

	// Initialize storage
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized local storage")

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	worker.SetObserver(metrics.ObserveJob)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Audit mirror (optional)
	var publisher broker.EntryPublisher
	var mq *broker.RabbitMQ
	if cfg.Mirror.Enabled() {
		mq = broker.NewRabbitMQ(cfg.Mirror.AMQPURL)
		if err := mq.Connect(cfg.Mirror.Exchange); err != nil {
			logger.Error("Audit mirror disabled: broker unreachable", "error", err)
			mq = nil
		} else {
			publisher = broker.NewEntryPublisher(mq.Channel, cfg.Mirror.Exchange, cfg.Mirror.RoutingKey)
			logger.Info("Audit mirror enabled", "exchange", cfg.Mirror.Exchange)
		}
	}

	chain := ledger.New(repos.Audit, ledger.Config{
		Digester:         digester,
		MaxAppendRetries: cfg.Audit.MaxAppendRetries,
		ScanBatchSize:    cfg.Audit.ScanBatchSize,
	})

	// Initialize services
	svcs := services.NewServices(chain, repos, worker, store, cfg, publisher)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, cfg)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port, "audit_store", cfg.Audit.Store, "verify_strategy", cfg.Audit.VerifyStrategy)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker, then the broker it publishes to
	worker.Shutdown()
	logger.Info("Background worker stopped")
	if mq != nil {
		mq.Close()
	}
	if db != nil {
		if err := database.Close(db); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(metrics.Middleware())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// Redirect root to swagger
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus scrape endpoint
	router.GET("/metrics", metrics.Handler())

	// API v1 routes
	h.RegisterRoutes(router.Group("/api/v1"), cfg.JWTSecret)

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	// Full replay from genesis: startup check, and the safety net for the incremental strategy
	worker.ScheduleEveryImmediate(services.JobFullVerify, cfg.Audit.FullVerifyInterval, func(ctx context.Context) error {
		logger.Info("[Job] Verifying audit chain...")
		status, err := svcs.Integrity.FullVerify(ctx)
		if err != nil {
			return err
		}
		logger.Info("[Job] Audit chain verified", "verified", status.Verified, "checked", status.Checked, "state", status.State)
		return nil
	})

	// Snapshot the chain to local storage
	if cfg.Audit.ArchiveInterval > 0 {
		worker.ScheduleEvery(services.JobArchive, cfg.Audit.ArchiveInterval, func(ctx context.Context) error {
			logger.Info("[Job] Archiving audit chain...")
			_, err := svcs.Export.Archive(ctx)
			return err
		})
	}

	logger.Info("Scheduled recurring jobs")
}
