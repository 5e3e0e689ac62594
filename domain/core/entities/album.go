package entities

import (
	"strings"
	"time"
)

// Album is a catalog item. The validate tags carry the catalog's input rules.
type Album struct {
	AlbumID     int       `json:"albumId" dynamodbav:"album_id" gorm:"column:AlbumId;primaryKey"`
	GenreID     int       `json:"genreId" dynamodbav:"genre_id" gorm:"column:GenreId" validate:"required"`
	ArtistID    int       `json:"artistId" dynamodbav:"artist_id" gorm:"column:ArtistId" validate:"required"`
	Title       string    `json:"title" dynamodbav:"title" gorm:"column:Title" validate:"required,min=2,max=160"`
	Price       float64   `json:"price" dynamodbav:"price" gorm:"column:Price" validate:"gte=0.01,lte=100"`
	AlbumArtURL string    `json:"albumArtUrl,omitempty" dynamodbav:"album_art_url" gorm:"column:AlbumArtUrl" validate:"max=1024"`
	Genre       *Genre    `json:"genre,omitempty" dynamodbav:"-" gorm:"foreignKey:GenreID;references:GenreID"`
	Artist      *Artist   `json:"artist,omitempty" dynamodbav:"-" gorm:"foreignKey:ArtistID;references:ArtistID"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty" dynamodbav:"updated_at" gorm:"-"`
}

func (Album) TableName() string { return "Albums" }

// Genre groups albums.
type Genre struct {
	GenreID     int     `json:"genreId" dynamodbav:"genre_id" gorm:"column:GenreId;primaryKey"`
	Name        string  `json:"name" dynamodbav:"name" gorm:"column:Name"`
	Description string  `json:"description,omitempty" dynamodbav:"description" gorm:"column:Description"`
	Albums      []Album `json:"albums,omitempty" dynamodbav:"-" gorm:"foreignKey:GenreID;references:GenreID"`
}

func (Genre) TableName() string { return "Genres" }

// SameName reports whether the genre is called name, ignoring case.
func (g Genre) SameName(name string) bool {
	return strings.EqualFold(g.Name, name)
}

type Artist struct {
	ArtistID int    `json:"artistId" dynamodbav:"artist_id" gorm:"column:ArtistId;primaryKey"`
	Name     string `json:"name" dynamodbav:"name" gorm:"column:Name"`
}

func (Artist) TableName() string { return "Artists" }
