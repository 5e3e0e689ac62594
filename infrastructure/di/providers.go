package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"musicstore/application/ports"
	"musicstore/application/services"
	"musicstore/infrastructure/cache"
	"musicstore/infrastructure/config"
	"musicstore/infrastructure/messaging/eventbridge"
	"musicstore/infrastructure/persistence/dynamodb"
	"musicstore/infrastructure/persistence/memory"
	"musicstore/infrastructure/persistence/mysql"
	"musicstore/infrastructure/persistence/resilience"
	"musicstore/interfaces/http/controllers"
	"musicstore/interfaces/http/filters"
	"musicstore/interfaces/http/mvc"
	"musicstore/interfaces/http/rest"
	"musicstore/pkg/auth"
	"musicstore/pkg/container"
	apperrors "musicstore/pkg/errors"
	"musicstore/pkg/observability"
)

// Storage groups the repositories chosen by configuration.
type Storage struct {
	Catalog    ports.CatalogRepository
	ActionLogs ports.ActionLogRepository
	Health     []ports.HealthChecker
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.Environment == "production" {
		zcfg = zap.NewProductionConfig()
	}
	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zcfg.Build()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideMetrics returns nil when metrics are disabled.
func ProvideMetrics(cfg *config.Config) *observability.Metrics {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewMetrics("musicstore")
}

func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer("musicstore", cfg.EnableTracing)
}

// ProvideStorage opens the configured backend and, when enabled, puts each
// repository behind a circuit breaker.
func ProvideStorage(ctx context.Context, cfg *config.Config, client *awsdynamodb.Client, metrics *observability.Metrics, logger *zap.Logger) (*Storage, func(), error) {
	var (
		catalog interface {
			ports.CatalogRepository
			ports.HealthChecker
		}
		logs    ports.ActionLogRepository
		cleanup = func() {}
	)

	switch cfg.StoreBackend {
	case config.BackendMemory:
		catalog = memory.NewSeededCatalog()
		logs = memory.NewActionLogRepository()

	case config.BackendDynamoDB:
		repo := dynamodb.NewCatalogRepository(client, cfg.DynamoDBTable, logger)
		if cfg.SeedCatalog {
			if err := repo.Seed(ctx, memory.SeedGenres, memory.SeedArtists, memory.SeedAlbums); err != nil {
				return nil, nil, fmt.Errorf("seed catalog: %w", err)
			}
		}
		catalog = repo
		logs = dynamodb.NewActionLogRepository(client, cfg.DynamoDBTable, logger)

	case config.BackendMySQL:
		db, err := mysql.Open(mysql.Options{DSN: cfg.MySQLDSN}, logger)
		if err != nil {
			return nil, nil, err
		}
		catalog = mysql.NewCatalogRepository(db)
		logs = mysql.NewActionLogRepository(db)
		cleanup = func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	storage := &Storage{Catalog: catalog, ActionLogs: logs, Health: []ports.HealthChecker{catalog}}
	if cfg.EnableCircuitBreaker {
		var observe resilience.StateObserver
		if metrics != nil {
			observe = metrics.ObserveBreaker
		}
		breakerCfg := resilience.DefaultBreakerConfig()
		guarded := resilience.NewCatalogRepository(catalog, breakerCfg, logger, observe)
		storage.Catalog = guarded
		storage.ActionLogs = resilience.NewActionLogRepository(logs, breakerCfg, logger, observe)
		storage.Health = []ports.HealthChecker{guarded}
	}

	logger.Info("Storage ready",
		zap.String("backend", cfg.StoreBackend),
		zap.Bool("circuitBreaker", cfg.EnableCircuitBreaker))
	return storage, cleanup, nil
}

func ProvideCatalogRepository(s *Storage) ports.CatalogRepository {
	return s.Catalog
}

func ProvideActionLogRepository(s *Storage) ports.ActionLogRepository {
	return s.ActionLogs
}

// ProvideCache creates the read-through cache for the storefront.
func ProvideCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.Cache, func(), error) {
	if cfg.CacheBackend == config.BackendRedis {
		c, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: "musicstore:",
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("Using Redis cache", zap.String("addr", cfg.RedisAddr))
		return c, func() { _ = c.Close() }, nil
	}

	c := cache.NewMemoryCache(time.Minute)
	return c, func() { _ = c.Close() }, nil
}

// ProvideEventPublisher drops events when no bus is configured.
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return eventbridge.NopPublisher{}
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

func ProvideActionRecorder(logs ports.ActionLogRepository, publisher ports.EventPublisher, logger *zap.Logger) *services.ActionRecorder {
	return services.NewActionRecorder(logs, publisher, logger)
}

// ProvideLoggedHook counts logged actions when metrics are enabled.
func ProvideLoggedHook(metrics *observability.Metrics) filters.LoggedHook {
	if metrics == nil {
		return func(string, string) {}
	}
	return metrics.ObserveActionLogged
}

// ProvideJWTManager returns nil when no secret is configured, which leaves
// the store manager unguarded.
func ProvideJWTManager(cfg *config.Config, logger *zap.Logger) (*auth.JWTManager, error) {
	if cfg.JWTSecret == "" {
		logger.Warn("JWT secret not set, store manager is not protected")
		return nil, nil
	}
	return auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
}

func ProvideRateLimiter(cfg *config.Config) *auth.KeyedLimiter {
	return auth.NewKeyedLimiter(cfg.RateLimitRPS, cfg.RateBurst, 10*time.Minute)
}

func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(logger, cfg.Environment == "development")
}

// ProvideRegistry builds and freezes the application registry. The cleanup
// disposes every singleton it created.
func ProvideRegistry(
	cfg *config.Config,
	catalog ports.CatalogRepository,
	logs ports.ActionLogRepository,
	c ports.Cache,
	publisher ports.EventPublisher,
	recorder *services.ActionRecorder,
	hook filters.LoggedHook,
	logger *zap.Logger,
) (*container.Registry, func(), error) {
	reg := container.NewRegistry(container.WithLogger(logger))
	err := RegisterApplication(reg, AppDeps{
		Catalog:    catalog,
		ActionLogs: logs,
		Cache:      c,
		Publisher:  publisher,
		Recorder:   recorder,
		LoggedHook: hook,
		CacheTTL:   cfg.CacheTTL,
		Welcome:    services.WelcomeMessage{Text: cfg.WelcomeMessage, Image: cfg.WelcomeImageURL},
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := reg.Close(); err != nil {
			logger.Warn("Registry close failed", zap.Error(err))
		}
	}
	return reg, cleanup, nil
}

// ProvideMVCHandler wires the controller factory, the dependency resolver and
// the global filters in front of the registry.
func ProvideMVCHandler(
	reg *container.Registry,
	errs *apperrors.ErrorHandler,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *mvc.Handler {
	opts := []container.ChainOption{container.WithChainLogger(logger)}
	if metrics != nil {
		opts = append(opts, container.WithObserver(metrics.ObserveResolution))
	}

	defaults := mvc.NewDefaultControllerFactory().
		Add("Home", controllers.NewHomeController)
	factory := mvc.NewContainerControllerFactory(reg, defaults, logger, opts...)
	resolver := mvc.NewContainerDependencyResolver(reg, mvc.NewDefaultDependencyResolver(), logger, opts...)

	globals := mvc.NewGlobalFilterCollection()
	globals.Add(&mvc.HandleErrorFilter{})

	return mvc.NewHandler(mvc.NewControllerBuilder(factory), resolver, errs, logger,
		mvc.WithTracer(tracer),
		mvc.WithGlobalFilters(globals))
}

func ProvideStoreService(reg *container.Registry) (services.StoreService, error) {
	return container.Resolve[services.StoreService](reg, "")
}

func ProvideRouter(
	cfg *config.Config,
	handler *mvc.Handler,
	store services.StoreService,
	storage *Storage,
	errs *apperrors.ErrorHandler,
	tokens *auth.JWTManager,
	limiter *auth.KeyedLimiter,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) http.Handler {
	return rest.NewRouter(rest.RouterDeps{
		MVC:        handler,
		Store:      store,
		Health:     storage.Health,
		Errors:     errs,
		Tokens:     tokens,
		Limiter:    limiter,
		Metrics:    metrics,
		Tracer:     tracer,
		Logger:     logger,
		EnableCORS: cfg.EnableCORS,
	}).Setup()
}
