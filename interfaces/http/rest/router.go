package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"musicstore/application/ports"
	"musicstore/application/services"
	"musicstore/interfaces/http/mvc"
	"musicstore/interfaces/http/rest/middleware"
	"musicstore/pkg/auth"
	"musicstore/pkg/common"
	apperrors "musicstore/pkg/errors"
	"musicstore/pkg/observability"
)

// RouterDeps is everything the router needs.
type RouterDeps struct {
	MVC          *mvc.Handler
	Store        services.StoreService
	Health       []ports.HealthChecker
	Errors       *apperrors.ErrorHandler
	Tokens       *auth.JWTManager
	Limiter      *auth.KeyedLimiter
	Metrics      *observability.Metrics
	Tracer       *observability.Tracer
	Logger       *zap.Logger
	EnableCORS   bool
	AllowOrigins []string
}

// Router creates and configures the HTTP router
type Router struct {
	deps RouterDeps
}

func NewRouter(deps RouterDeps) *Router {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Errors == nil {
		deps.Errors = apperrors.NewErrorHandler(deps.Logger, false)
	}
	return &Router{deps: deps}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.deps.Errors.Middleware)
	router.Use(middleware.Logger(rt.deps.Logger))
	router.Use(rt.deps.Tracer.Middleware)
	if rt.deps.Metrics != nil {
		router.Use(middleware.Metrics(rt.deps.Metrics))
	}
	if rt.deps.EnableCORS {
		origins := rt.deps.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"http://localhost:3000"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.deps.Metrics.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		r.Get("/albums/{id}", rt.getAlbum)
	})

	pages := rt.pages()
	router.Handle("/", pages)
	router.Handle("/*", pages)

	return router
}

// ProtectedControllers require the administrator role.
var ProtectedControllers = []string{"StoreManager"}

// pages routes MVC requests, sending protected controllers through the
// rate limiter and the role check. Controller names are compared with the
// controller factory's own matching rules.
func (rt *Router) pages() http.Handler {
	var guards chi.Middlewares
	if rt.deps.Limiter != nil {
		guards = append(guards, middleware.RateLimit(rt.deps.Limiter, rt.deps.Errors))
	}
	if rt.deps.Tokens != nil {
		guards = append(guards, middleware.RequireRole(rt.deps.Tokens, rt.deps.Errors, rt.deps.Logger, auth.RoleManager))
	}
	guarded := guards.Handler(rt.deps.MVC)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		controller := mvc.ParseRoute(r.URL.Path).Controller
		for _, name := range ProtectedControllers {
			if mvc.SameController(controller, name) {
				guarded.ServeHTTP(w, r)
				return
			}
		}
		rt.deps.MVC.ServeHTTP(w, r)
	})
}

// getAlbum serves api/albums/{id}.
func (rt *Router) getAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		rt.deps.Errors.Handle(w, r, apperrors.NewValidationError("album id must be an integer"))
		return
	}
	album, err := rt.deps.Store.GetAlbum(r.Context(), id)
	if err != nil {
		rt.deps.Errors.Handle(w, r, err)
		return
	}
	if err := common.RespondJSON(w, r, http.StatusOK, album); err != nil {
		rt.deps.Logger.Error("Failed to encode album", zap.Error(err))
	}
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	_ = common.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck pings every storage adapter.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()

	for _, hc := range rt.deps.Health {
		if err := hc.Ping(ctx); err != nil {
			rt.deps.Logger.Warn("Readiness check failed", zap.Error(err))
			_ = common.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}
	_ = common.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
