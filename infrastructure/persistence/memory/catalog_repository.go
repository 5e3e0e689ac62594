package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"musicstore/domain/core/entities"
	"musicstore/pkg/errors"
)

// CatalogRepository keeps the catalog in process memory. It backs local
// development and tests.
type CatalogRepository struct {
	mu      sync.RWMutex
	genres  map[int]entities.Genre
	artists map[int]entities.Artist
	albums  map[int]entities.Album
	nextID  int
}

func NewCatalogRepository(genres []entities.Genre, artists []entities.Artist, albums []entities.Album) *CatalogRepository {
	r := &CatalogRepository{
		genres:  make(map[int]entities.Genre, len(genres)),
		artists: make(map[int]entities.Artist, len(artists)),
		albums:  make(map[int]entities.Album, len(albums)),
	}
	for _, g := range genres {
		g.Albums = nil
		r.genres[g.GenreID] = g
	}
	for _, a := range artists {
		r.artists[a.ArtistID] = a
	}
	for _, a := range albums {
		a.Genre, a.Artist = nil, nil
		r.albums[a.AlbumID] = a
		if a.AlbumID > r.nextID {
			r.nextID = a.AlbumID
		}
	}
	return r
}

// NewSeededCatalog returns a repository holding the starter catalog.
func NewSeededCatalog() *CatalogRepository {
	return NewCatalogRepository(SeedGenres, SeedArtists, SeedAlbums)
}

func (r *CatalogRepository) ListGenres(ctx context.Context) ([]entities.Genre, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.Genre, 0, len(r.genres))
	for _, g := range r.genres {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GenreID < out[j].GenreID })
	return out, nil
}

func (r *CatalogRepository) GetGenreByName(ctx context.Context, name string) (*entities.Genre, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, g := range r.genres {
		if !g.SameName(name) {
			continue
		}
		genre := g
		for _, a := range r.sortedAlbums() {
			if a.GenreID == g.GenreID {
				genre.Albums = append(genre.Albums, r.fill(a))
			}
		}
		return &genre, nil
	}
	return nil, errors.NewNotFoundError(fmt.Sprintf("genre %q", name))
}

func (r *CatalogRepository) ListArtists(ctx context.Context) ([]entities.Artist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.Artist, 0, len(r.artists))
	for _, a := range r.artists {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArtistID < out[j].ArtistID })
	return out, nil
}

func (r *CatalogRepository) ListAlbums(ctx context.Context) ([]entities.Album, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	albums := r.sortedAlbums()
	for i := range albums {
		albums[i] = r.fill(albums[i])
	}
	return albums, nil
}

func (r *CatalogRepository) GetAlbum(ctx context.Context, id int) (*entities.Album, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.albums[id]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("album %d", id))
	}
	album := r.fill(a)
	return &album, nil
}

func (r *CatalogRepository) SaveAlbum(ctx context.Context, album *entities.Album) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if album.AlbumID == 0 {
		r.nextID++
		album.AlbumID = r.nextID
	} else if _, ok := r.albums[album.AlbumID]; !ok {
		return errors.NewNotFoundError(fmt.Sprintf("album %d", album.AlbumID))
	}
	stored := *album
	stored.Genre, stored.Artist = nil, nil
	r.albums[album.AlbumID] = stored
	return nil
}

func (r *CatalogRepository) DeleteAlbum(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.albums[id]; !ok {
		return errors.NewNotFoundError(fmt.Sprintf("album %d", id))
	}
	delete(r.albums, id)
	return nil
}

func (r *CatalogRepository) Ping(ctx context.Context) error {
	return nil
}

// sortedAlbums must be called with r.mu held.
func (r *CatalogRepository) sortedAlbums() []entities.Album {
	out := make([]entities.Album, 0, len(r.albums))
	for _, a := range r.albums {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AlbumID < out[j].AlbumID })
	return out
}

// fill must be called with r.mu held.
func (r *CatalogRepository) fill(a entities.Album) entities.Album {
	if g, ok := r.genres[a.GenreID]; ok {
		g.Albums = nil
		a.Genre = &g
	}
	if ar, ok := r.artists[a.ArtistID]; ok {
		a.Artist = &ar
	}
	return a
}
