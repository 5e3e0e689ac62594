// Package resilience wraps repositories in circuit breakers so a failing
// store is shed instead of hammered.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"musicstore/application/ports"
	"musicstore/domain/core/entities"
	pkgerrors "musicstore/pkg/errors"
)

// BreakerConfig holds the gobreaker settings shared by the decorators.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// StateObserver is told about breaker state changes, e.g. to export them.
type StateObserver func(name string, from, to gobreaker.State)

func newBreaker(name string, cfg BreakerConfig, logger *zap.Logger, observe StateObserver) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			if observe != nil {
				observe(name, from, to)
			}
		},
		IsSuccessful: isHealthy,
	})
}

// isHealthy treats caller mistakes as successes; only store faults count
// against the breaker.
func isHealthy(err error) bool {
	if err == nil {
		return true
	}
	if pkgerrors.IsNotFound(err) || pkgerrors.IsValidation(err) {
		return true
	}
	return errors.Is(err, context.Canceled)
}

func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	out, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, pkgerrors.NewUnavailableError(cb.Name()).WithCause(err)
	}
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

type none struct{}

func run(cb *gobreaker.CircuitBreaker, fn func() error) error {
	_, err := execute(cb, func() (none, error) { return none{}, fn() })
	return err
}

// CatalogRepository guards a ports.CatalogRepository.
type CatalogRepository struct {
	next ports.CatalogRepository
	cb   *gobreaker.CircuitBreaker
}

func NewCatalogRepository(next ports.CatalogRepository, cfg BreakerConfig, logger *zap.Logger, observe StateObserver) *CatalogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogRepository{next: next, cb: newBreaker("catalog", cfg, logger, observe)}
}

func (r *CatalogRepository) ListGenres(ctx context.Context) ([]entities.Genre, error) {
	return execute(r.cb, func() ([]entities.Genre, error) { return r.next.ListGenres(ctx) })
}

func (r *CatalogRepository) GetGenreByName(ctx context.Context, name string) (*entities.Genre, error) {
	return execute(r.cb, func() (*entities.Genre, error) { return r.next.GetGenreByName(ctx, name) })
}

func (r *CatalogRepository) ListArtists(ctx context.Context) ([]entities.Artist, error) {
	return execute(r.cb, func() ([]entities.Artist, error) { return r.next.ListArtists(ctx) })
}

func (r *CatalogRepository) ListAlbums(ctx context.Context) ([]entities.Album, error) {
	return execute(r.cb, func() ([]entities.Album, error) { return r.next.ListAlbums(ctx) })
}

func (r *CatalogRepository) GetAlbum(ctx context.Context, id int) (*entities.Album, error) {
	return execute(r.cb, func() (*entities.Album, error) { return r.next.GetAlbum(ctx, id) })
}

func (r *CatalogRepository) SaveAlbum(ctx context.Context, album *entities.Album) error {
	return run(r.cb, func() error { return r.next.SaveAlbum(ctx, album) })
}

func (r *CatalogRepository) DeleteAlbum(ctx context.Context, id int) error {
	return run(r.cb, func() error { return r.next.DeleteAlbum(ctx, id) })
}

// Ping bypasses the breaker so readiness reflects the store itself.
func (r *CatalogRepository) Ping(ctx context.Context) error {
	if hc, ok := r.next.(ports.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}

// State reports the breaker state.
func (r *CatalogRepository) State() gobreaker.State {
	return r.cb.State()
}

// ActionLogRepository guards a ports.ActionLogRepository.
type ActionLogRepository struct {
	next ports.ActionLogRepository
	cb   *gobreaker.CircuitBreaker
}

func NewActionLogRepository(next ports.ActionLogRepository, cfg BreakerConfig, logger *zap.Logger, observe StateObserver) *ActionLogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActionLogRepository{next: next, cb: newBreaker("action-log", cfg, logger, observe)}
}

func (r *ActionLogRepository) Append(ctx context.Context, entry *entities.ActionLog) error {
	return run(r.cb, func() error { return r.next.Append(ctx, entry) })
}

func (r *ActionLogRepository) List(ctx context.Context) ([]entities.ActionLog, error) {
	return execute(r.cb, func() ([]entities.ActionLog, error) { return r.next.List(ctx) })
}

func (r *ActionLogRepository) Truncate(ctx context.Context) error {
	return run(r.cb, func() error { return r.next.Truncate(ctx) })
}
