package memory

import "musicstore/domain/core/entities"

const placeholderArt = "/Content/Images/placeholder.gif"

// SeedGenres, SeedArtists and SeedAlbums are the starter catalog loaded by
// NewSeededCatalog and by storectl when priming a fresh table.
var SeedGenres = []entities.Genre{
	{GenreID: 1, Name: "Rock"},
	{GenreID: 2, Name: "Jazz"},
	{GenreID: 3, Name: "Metal"},
	{GenreID: 4, Name: "Alternative"},
	{GenreID: 5, Name: "Disco"},
	{GenreID: 6, Name: "Blues"},
	{GenreID: 7, Name: "Latin"},
	{GenreID: 8, Name: "Reggae"},
	{GenreID: 9, Name: "Pop"},
	{GenreID: 10, Name: "Classical"},
}

var SeedArtists = []entities.Artist{
	{ArtistID: 1, Name: "AC/DC"},
	{ArtistID: 2, Name: "Accept"},
	{ArtistID: 3, Name: "Aerosmith"},
	{ArtistID: 4, Name: "Miles Davis"},
	{ArtistID: 5, Name: "Metallica"},
	{ArtistID: 6, Name: "Audioslave"},
	{ArtistID: 7, Name: "Eric Clapton"},
	{ArtistID: 8, Name: "Bob Marley"},
	{ArtistID: 9, Name: "Berliner Philharmoniker & Herbert Von Karajan"},
}

var SeedAlbums = []entities.Album{
	{AlbumID: 1, GenreID: 1, ArtistID: 1, Title: "For Those About To Rock We Salute You", Price: 8.99, AlbumArtURL: placeholderArt},
	{AlbumID: 2, GenreID: 1, ArtistID: 2, Title: "Balls to the Wall", Price: 8.99, AlbumArtURL: placeholderArt},
	{AlbumID: 3, GenreID: 1, ArtistID: 3, Title: "Big Ones", Price: 8.99, AlbumArtURL: placeholderArt},
	{AlbumID: 4, GenreID: 1, ArtistID: 1, Title: "Let There Be Rock", Price: 8.99, AlbumArtURL: placeholderArt},
	{AlbumID: 5, GenreID: 2, ArtistID: 4, Title: "Kind of Blue", Price: 8.99, AlbumArtURL: placeholderArt},
	{AlbumID: 6, GenreID: 3, ArtistID: 5, Title: "Master Of Puppets", Price: 8.99, AlbumArtURL: placeholderArt},
	{AlbumID: 7, GenreID: 4, ArtistID: 6, Title: "Audioslave", Price: 8.99, AlbumArtURL: placeholderArt},
	{AlbumID: 8, GenreID: 6, ArtistID: 7, Title: "Unplugged", Price: 8.99, AlbumArtURL: placeholderArt},
	{AlbumID: 9, GenreID: 8, ArtistID: 8, Title: "Legend", Price: 8.99, AlbumArtURL: placeholderArt},
	{AlbumID: 10, GenreID: 10, ArtistID: 9, Title: "Mozart: Symphonies Nos. 40 & 41", Price: 8.99, AlbumArtURL: placeholderArt},
}
