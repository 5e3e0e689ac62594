package controllers

import (
	"musicstore/application/services"
	"musicstore/domain/core/entities"
)

type StoreIndexViewModel struct {
	Genres         []string `json:"genres"`
	NumberOfGenres int      `json:"numberOfGenres"`
}

type StoreBrowseViewModel struct {
	Genre  *entities.Genre  `json:"genre"`
	Albums []entities.Album `json:"albums"`
}

// StoreManagerViewModel backs the create and edit forms.
type StoreManagerViewModel struct {
	Album   *entities.Album         `json:"album"`
	Genres  []services.SelectOption `json:"genres"`
	Artists []services.SelectOption `json:"artists"`
	Errors  map[string]interface{}  `json:"errors,omitempty"`
}

// AlbumRow is one line of the store manager list.
type AlbumRow struct {
	AlbumID    int     `json:"albumId"`
	Title      string  `json:"title"`
	ShortTitle string  `json:"shortTitle"`
	Genre      string  `json:"genre"`
	Artist     string  `json:"artist"`
	Price      float64 `json:"price"`
}

const listTitleLength = 25

func albumRows(albums []entities.Album) []AlbumRow {
	rows := make([]AlbumRow, 0, len(albums))
	for _, a := range albums {
		row := AlbumRow{
			AlbumID:    a.AlbumID,
			Title:      a.Title,
			ShortTitle: services.Truncate(a.Title, listTitleLength),
			Price:      a.Price,
		}
		if a.Genre != nil {
			row.Genre = a.Genre.Name
		}
		if a.Artist != nil {
			row.Artist = services.Truncate(a.Artist.Name, listTitleLength)
		}
		rows = append(rows, row)
	}
	return rows
}
