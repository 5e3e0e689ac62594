package services

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"musicstore/application/ports"
	"musicstore/domain/core/entities"
	"musicstore/domain/core/validators"
	"musicstore/domain/events"
)

// SelectOption is one entry of a drop-down list.
type SelectOption struct {
	Value    int    `json:"value"`
	Text     string `json:"text"`
	Selected bool   `json:"selected,omitempty"`
}

// CatalogManager is the write side used by the store manager pages.
type CatalogManager struct {
	repo      ports.CatalogRepository
	cache     ports.Cache
	publisher ports.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewCatalogManager(repo ports.CatalogRepository, cache ports.Cache, publisher ports.EventPublisher, logger *zap.Logger) *CatalogManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogManager{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Albums lists the catalog with genre and artist filled.
func (m *CatalogManager) Albums(ctx context.Context) ([]entities.Album, error) {
	return m.repo.ListAlbums(ctx)
}

func (m *CatalogManager) Album(ctx context.Context, id int) (*entities.Album, error) {
	return m.repo.GetAlbum(ctx, id)
}

// GenreOptions lists genres by name, marking selected.
func (m *CatalogManager) GenreOptions(ctx context.Context, selected int) ([]SelectOption, error) {
	genres, err := m.repo.ListGenres(ctx)
	if err != nil {
		return nil, err
	}
	opts := make([]SelectOption, 0, len(genres))
	for _, g := range genres {
		opts = append(opts, SelectOption{Value: g.GenreID, Text: g.Name, Selected: g.GenreID == selected})
	}
	sortOptions(opts)
	return opts, nil
}

// ArtistOptions lists artists by name, marking selected.
func (m *CatalogManager) ArtistOptions(ctx context.Context, selected int) ([]SelectOption, error) {
	artists, err := m.repo.ListArtists(ctx)
	if err != nil {
		return nil, err
	}
	opts := make([]SelectOption, 0, len(artists))
	for _, a := range artists {
		opts = append(opts, SelectOption{Value: a.ArtistID, Text: a.Name, Selected: a.ArtistID == selected})
	}
	sortOptions(opts)
	return opts, nil
}

func sortOptions(opts []SelectOption) {
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].Text < opts[j].Text })
}

// Create validates and stores a new album.
func (m *CatalogManager) Create(ctx context.Context, album *entities.Album) error {
	if err := validators.ValidateAlbum(album); err != nil {
		return err
	}
	album.AlbumID = 0
	album.UpdatedAt = m.now().UTC()
	if err := m.repo.SaveAlbum(ctx, album); err != nil {
		return err
	}
	m.afterChange(ctx, events.TypeAlbumCreated, album, "")
	return nil
}

// Update validates and replaces an existing album.
func (m *CatalogManager) Update(ctx context.Context, album *entities.Album) error {
	if err := validators.ValidateAlbum(album); err != nil {
		return err
	}
	existing, err := m.repo.GetAlbum(ctx, album.AlbumID)
	if err != nil {
		return err
	}
	album.UpdatedAt = m.now().UTC()
	if err := m.repo.SaveAlbum(ctx, album); err != nil {
		return err
	}
	m.afterChange(ctx, events.TypeAlbumUpdated, album, genreName(existing))
	return nil
}

// Delete removes an album and returns what was removed.
func (m *CatalogManager) Delete(ctx context.Context, id int) (*entities.Album, error) {
	existing, err := m.repo.GetAlbum(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.repo.DeleteAlbum(ctx, id); err != nil {
		return nil, err
	}
	m.afterChange(ctx, events.TypeAlbumDeleted, existing, "")
	return existing, nil
}

// afterChange invalidates cached reads and publishes the change. Neither
// failure undoes the write.
func (m *CatalogManager) afterChange(ctx context.Context, eventType string, album *entities.Album, previousGenre string) {
	genres := []string{previousGenre}
	if name := genreName(album); name != "" {
		genres = append(genres, name)
	} else if g, err := m.genreByID(ctx, album.GenreID); err == nil {
		genres = append(genres, g)
	}
	if err := InvalidateAlbum(ctx, m.cache, album.AlbumID, genres...); err != nil {
		m.logger.Warn("cache invalidation failed", zap.Int("album_id", album.AlbumID), zap.Error(err))
	}

	if m.publisher == nil {
		return
	}
	event := events.NewAlbumChanged(eventType, album.AlbumID, album.Title, m.now().UTC())
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.logger.Warn("album event not published",
			zap.String("event_type", eventType),
			zap.Int("album_id", album.AlbumID),
			zap.Error(err))
	}
}

func (m *CatalogManager) genreByID(ctx context.Context, id int) (string, error) {
	genres, err := m.repo.ListGenres(ctx)
	if err != nil {
		return "", err
	}
	for _, g := range genres {
		if g.GenreID == id {
			return g.Name, nil
		}
	}
	return "", nil
}

func genreName(a *entities.Album) string {
	if a == nil || a.Genre == nil {
		return ""
	}
	return a.Genre.Name
}
