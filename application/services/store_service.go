package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"musicstore/application/ports"
	"musicstore/domain/core/entities"
)

// StoreService is the read side of the catalog used by the storefront.
type StoreService interface {
	GetGenreNames(ctx context.Context) ([]string, error)
	GetGenres(ctx context.Context, max int) ([]entities.Genre, error)
	GetGenreByName(ctx context.Context, name string) (*entities.Genre, error)
	GetAlbum(ctx context.Context, id int) (*entities.Album, error)
}

const (
	keyGenreNames  = "store:genres"
	keyGenreList   = "store:genre-list"
	keyGenrePrefix = "store:genre:"
	keyAlbumPrefix = "store:album:"
)

// CatalogStoreService reads the catalog through a cache-aside layer.
// Concurrent misses for the same key share one repository call.
type CatalogStoreService struct {
	repo   ports.CatalogRepository
	cache  ports.Cache
	ttl    time.Duration
	loads  *LoadGroup
	logger *zap.Logger
}

// CacheTTL is the lifetime of cached catalog reads.
type CacheTTL time.Duration

// LoadGroup deduplicates concurrent repository loads. Services built per
// request share one group so the deduplication spans requests.
type LoadGroup struct {
	singleflight.Group
}

// NewCatalogStoreService builds the service. A nil loads gives the service
// a group of its own.
func NewCatalogStoreService(repo ports.CatalogRepository, cache ports.Cache, ttl CacheTTL, loads *LoadGroup, logger *zap.Logger) *CatalogStoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loads == nil {
		loads = &LoadGroup{}
	}
	return &CatalogStoreService{
		repo:   repo,
		cache:  cache,
		ttl:    time.Duration(ttl),
		loads:  loads,
		logger: logger,
	}
}

func (s *CatalogStoreService) GetGenreNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.cached(ctx, keyGenreNames, &names, func() (any, error) {
		genres, err := s.repo.ListGenres(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(genres))
		for _, g := range genres {
			out = append(out, g.Name)
		}
		return out, nil
	})
	return names, err
}

// GetGenres returns at most max genres in catalog order. A max of zero or
// less returns them all.
func (s *CatalogStoreService) GetGenres(ctx context.Context, max int) ([]entities.Genre, error) {
	var genres []entities.Genre
	err := s.cached(ctx, keyGenreList, &genres, func() (any, error) {
		return s.repo.ListGenres(ctx)
	})
	if err != nil {
		return nil, err
	}
	if max > 0 && len(genres) > max {
		genres = genres[:max]
	}
	return genres, nil
}

func (s *CatalogStoreService) GetGenreByName(ctx context.Context, name string) (*entities.Genre, error) {
	var genre entities.Genre
	key := keyGenrePrefix + strings.ToLower(name)
	err := s.cached(ctx, key, &genre, func() (any, error) {
		return s.repo.GetGenreByName(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return &genre, nil
}

func (s *CatalogStoreService) GetAlbum(ctx context.Context, id int) (*entities.Album, error) {
	var album entities.Album
	err := s.cached(ctx, keyAlbumPrefix+strconv.Itoa(id), &album, func() (any, error) {
		return s.repo.GetAlbum(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &album, nil
}

// cached decodes the value stored under key into dst, loading and storing it
// on a miss. Cache failures are logged and fall through to the repository.
func (s *CatalogStoreService) cached(ctx context.Context, key string, dst any, load func() (any, error)) error {
	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			if err := json.Unmarshal(data, dst); err == nil {
				return nil
			}
			s.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
		}
	}

	v, err, shared := s.loads.Do(key, func() (any, error) {
		value, err := load()
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	if shared {
		s.logger.Debug("catalog load shared", zap.String("key", key))
	}
	return json.Unmarshal(v.([]byte), dst)
}

// InvalidateAlbum drops the cached album and the cached pages of the genres
// that list it.
func InvalidateAlbum(ctx context.Context, cache ports.Cache, id int, genres ...string) error {
	if cache == nil {
		return nil
	}
	keys := []string{keyAlbumPrefix + strconv.Itoa(id)}
	for _, g := range genres {
		if g != "" {
			keys = append(keys, keyGenrePrefix+strings.ToLower(g))
		}
	}
	return cache.Delete(ctx, keys...)
}
