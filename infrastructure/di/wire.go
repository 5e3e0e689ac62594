//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"musicstore/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideMetrics,
	ProvideTracer,
	ProvideStorage,
	ProvideCatalogRepository,
	ProvideActionLogRepository,
	ProvideCache,
	ProvideEventPublisher,
	ProvideActionRecorder,
	ProvideLoggedHook,
	ProvideJWTManager,
	ProvideRateLimiter,
	ProvideErrorHandler,
	ProvideRegistry,
	ProvideMVCHandler,
	ProvideStoreService,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
