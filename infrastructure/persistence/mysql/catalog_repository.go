package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"musicstore/domain/core/entities"
	pkgerrors "musicstore/pkg/errors"
)

// CatalogRepository reads the catalog from the relational store schema
// (Genres, Artists, Albums).
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func dbError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return pkgerrors.NewDatabaseError(operation, err)
}

func (r *CatalogRepository) ListGenres(ctx context.Context) ([]entities.Genre, error) {
	var genres []entities.Genre
	err := r.db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "GenreId"}}).Find(&genres).Error
	return genres, dbError("list genres", err)
}

func (r *CatalogRepository) GetGenreByName(ctx context.Context, name string) (*entities.Genre, error) {
	var genre entities.Genre
	err := r.db.WithContext(ctx).
		Preload("Albums", func(tx *gorm.DB) *gorm.DB { return tx.Order("AlbumId") }).
		Preload("Albums.Artist").
		Where("LOWER(Name) = LOWER(?)", name).
		First(&genre).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("genre %q", name))
	}
	if err != nil {
		return nil, dbError("get genre", err)
	}
	for i := range genre.Albums {
		g := genre
		g.Albums = nil
		genre.Albums[i].Genre = &g
	}
	return &genre, nil
}

func (r *CatalogRepository) ListArtists(ctx context.Context) ([]entities.Artist, error) {
	var artists []entities.Artist
	err := r.db.WithContext(ctx).Order("ArtistId").Find(&artists).Error
	return artists, dbError("list artists", err)
}

func (r *CatalogRepository) ListAlbums(ctx context.Context) ([]entities.Album, error) {
	var albums []entities.Album
	err := r.db.WithContext(ctx).Preload("Genre").Preload("Artist").Order("AlbumId").Find(&albums).Error
	return albums, dbError("list albums", err)
}

func (r *CatalogRepository) GetAlbum(ctx context.Context, id int) (*entities.Album, error) {
	var album entities.Album
	err := r.db.WithContext(ctx).Preload("Genre").Preload("Artist").First(&album, "AlbumId = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("album %d", id))
	}
	if err != nil {
		return nil, dbError("get album", err)
	}
	return &album, nil
}

func (r *CatalogRepository) SaveAlbum(ctx context.Context, album *entities.Album) error {
	tx := r.db.WithContext(ctx).Omit(clause.Associations)
	if album.AlbumID == 0 {
		return dbError("create album", tx.Create(album).Error)
	}
	res := tx.Model(&entities.Album{}).Where("AlbumId = ?", album.AlbumID).Updates(map[string]interface{}{
		"GenreId":     album.GenreID,
		"ArtistId":    album.ArtistID,
		"Title":       album.Title,
		"Price":       album.Price,
		"AlbumArtUrl": album.AlbumArtURL,
	})
	if res.Error != nil {
		return dbError("update album", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetAlbum(ctx, album.AlbumID); err != nil {
			return err
		}
	}
	return nil
}

func (r *CatalogRepository) DeleteAlbum(ctx context.Context, id int) error {
	res := r.db.WithContext(ctx).Delete(&entities.Album{}, "AlbumId = ?", id)
	if res.Error != nil {
		return dbError("delete album", res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("album %d", id))
	}
	return nil
}

func (r *CatalogRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
