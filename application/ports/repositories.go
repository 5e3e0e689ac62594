package ports

import (
	"context"
	"time"

	"musicstore/domain/core/entities"
	"musicstore/domain/events"
)

// CatalogRepository reads and edits the album catalog. Lookups of missing
// items return a NOT_FOUND AppError.
type CatalogRepository interface {
	ListGenres(ctx context.Context) ([]entities.Genre, error)

	// GetGenreByName matches case-insensitively and fills Genre.Albums.
	GetGenreByName(ctx context.Context, name string) (*entities.Genre, error)

	ListArtists(ctx context.Context) ([]entities.Artist, error)

	// ListAlbums returns every album with Genre and Artist filled.
	ListAlbums(ctx context.Context) ([]entities.Album, error)

	GetAlbum(ctx context.Context, id int) (*entities.Album, error)

	// SaveAlbum inserts the album when AlbumID is zero, assigning a new ID,
	// and replaces it otherwise.
	SaveAlbum(ctx context.Context, album *entities.Album) error

	DeleteAlbum(ctx context.Context, id int) error
}

// ActionLogRepository stores the entries written by action filters.
type ActionLogRepository interface {
	Append(ctx context.Context, entry *entities.ActionLog) error

	// List returns entries newest first.
	List(ctx context.Context) ([]entities.ActionLog, error)

	// Truncate removes every entry.
	Truncate(ctx context.Context) error
}

// Cache stores serialized values.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// EventPublisher forwards domain events to the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, events ...events.DomainEvent) error
}

// HealthChecker is implemented by adapters that can report readiness.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
