package di

import (
	"net/http"

	"go.uber.org/zap"

	"musicstore/application/ports"
	"musicstore/application/services"
	"musicstore/infrastructure/config"
	"musicstore/pkg/auth"
	"musicstore/pkg/container"
	"musicstore/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Storage  *Storage
	Catalog  ports.CatalogRepository
	Cache    ports.Cache
	Recorder *services.ActionRecorder
	Registry *container.Registry
	Tokens   *auth.JWTManager
	Metrics  *observability.Metrics
	Handler  http.Handler
}
