package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plic/server/internal/module/deal"
	"github.com/plic/server/internal/module/payment"
	"github.com/plic/server/internal/module/payment/gateway"
	sharedauth "github.com/plic/server/internal/shared/auth"
	sharedcache "github.com/plic/server/internal/shared/cache"
	"github.com/plic/server/internal/shared/config"
	"github.com/plic/server/internal/shared/database"
	"github.com/plic/server/internal/shared/events"
	"github.com/plic/server/internal/shared/logger"
	"github.com/plic/server/internal/utils/metrics"
	"github.com/plic/server/internal/utils/middleware"
)

// App wires the server together.
type App struct {
	config    *config.Config
	db        *gorm.DB
	redis     goredis.UniversalClient
	router    *gin.Engine
	logger    *logger.Logger
	zapLogger *zap.Logger
	metrics   *metrics.Metrics

	// Event infrastructure
	eventBus *events.Bus

	// Modules
	jwtManager     *sharedauth.JWTManager
	dealService    *deal.Service
	dealHandler    *deal.Handler
	paymentService *payment.Service
	paymentHandler *payment.Handler
	webhookHandler *payment.WebhookHandler
	retentionJob   *payment.RetentionJob
}

// LoadConfig loads the application configuration.
func LoadConfig() (*config.Config, error) {
	return config.Load()
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	zapLog, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init zap logger: %w", err)
	}

	app := &App{
		config:    cfg,
		logger:    log,
		zapLogger: zapLog,
		metrics:   metrics.New("plic"),
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	app.db = db

	if err := db.AutoMigrate(
		&payment.PaymentIntent{},
		&payment.ProcessedWebhookEvent{},
		&deal.Deal{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	// Redis is optional; rate limiting and request idempotency degrade
	// gracefully without it.
	if cfg.Redis.Address != "" {
		redisClient, err := sharedcache.NewRedisClient(&cfg.Redis)
		if err != nil {
			zapLog.Warn("redis connection failed, continuing without it", zap.Error(err))
		} else {
			app.redis = redisClient
		}
	}

	if err := app.initModules(); err != nil {
		return nil, fmt.Errorf("init modules: %w", err)
	}
	app.router = app.setupRouter()
	app.registerRoutes()

	return app, nil
}

// initModules initializes all application modules and subscribes the
// cross-module event handlers.
func (a *App) initModules() error {
	a.eventBus = events.NewBus(a.zapLogger)

	a.jwtManager = sharedauth.NewJWTManager(&sharedauth.JWTConfig{
		Secret:            a.config.Auth.JWTSecret,
		AccessTokenExpiry: a.config.Auth.AccessTokenExpiry,
	})

	// Deal module
	dealRepo := deal.NewRepository(a.db)
	a.dealService = deal.NewService(dealRepo, a.zapLogger)
	a.dealHandler = deal.NewHandler(a.dealService)

	// Payment module
	paymentRepo := payment.NewRepository(a.db)
	gatewayClient := gateway.NewClient(&gateway.Config{
		APIURL:         a.config.Gateway.APIURL,
		PayKey:         a.config.Gateway.PayKey,
		RequestTimeout: a.config.Gateway.RequestTimeout,
		CancelTimeout:  a.config.Gateway.CancelTimeout,
		StatusTimeout:  a.config.Gateway.StatusTimeout,
	}, a.zapLogger)

	// Dedupe lives in Postgres so webhook arbitration survives restarts
	// and works across instances without Redis.
	dedupeStore := payment.NewDBDedupeStore(paymentRepo)

	reconciler := payment.NewReconciler(paymentRepo, dedupeStore, a.eventBus, a.zapLogger)
	a.paymentService = payment.NewService(
		paymentRepo, gatewayClient, reconciler, a.eventBus,
		a.config.Server.BaseURL, a.metrics, a.zapLogger,
	)
	a.paymentHandler = payment.NewHandler(a.paymentService)
	a.webhookHandler = payment.NewWebhookHandler(reconciler, payment.WebhookConfig{
		Secret:        a.config.Gateway.WebhookSecret,
		AllowUnsigned: a.config.Gateway.AllowUnsignedWebhooks,
	}, a.metrics, a.zapLogger)

	a.retentionJob = payment.NewRetentionJob(paymentRepo, a.config.Gateway.DedupeRetention, a.zapLogger)
	a.retentionJob.Start()

	// Deal reacts to payment lifecycle events.
	a.eventBus.Subscribe(deal.NewEventHandler(
		dealRepo,
		deal.NewLogTransferTrigger(a.zapLogger),
		deal.NewLogFailureNotifier(a.zapLogger),
		a.zapLogger,
	))

	return nil
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics(a.metrics))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// registerRoutes mounts the module routes.
func (a *App) registerRoutes() {
	// Gateway webhooks authenticate by signature, not JWT.
	webhooks := a.router.Group("/webhooks")
	a.webhookHandler.RegisterRoutes(webhooks)

	v1 := a.router.Group("/api/v1")
	v1.Use(middleware.RequireAuth(a.jwtManager))
	if a.redis != nil {
		limiter := sharedcache.NewRateLimiter(a.redis)
		v1.Use(middleware.RateLimit(limiter, middleware.DefaultRateLimitConfig()))
		v1.Use(middleware.Idempotency(a.redis, middleware.DefaultIdempotencyConfig()))
	}

	a.dealHandler.RegisterRoutes(v1)
	a.paymentHandler.RegisterRoutes(v1)
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop releases application resources.
func (a *App) Stop() {
	if a.retentionJob != nil {
		a.retentionJob.Stop()
	}
	if a.redis != nil {
		if err := sharedcache.Close(a.redis); err != nil {
			a.zapLogger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.zapLogger.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = a.zapLogger.Sync()
}
