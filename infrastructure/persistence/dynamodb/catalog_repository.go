package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"musicstore/domain/core/entities"
	pkgerrors "musicstore/pkg/errors"
)

const (
	pkGenre   = "GENRE"
	pkArtist  = "ARTIST"
	pkAlbum   = "ALBUM"
	pkCounter = "COUNTER"
)

// CatalogRepository stores genres, artists and albums in a single table
// keyed by PK (entity kind) and SK (kind#id).
type CatalogRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
}

func NewCatalogRepository(client API, tableName string, logger *zap.Logger) *CatalogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogRepository{client: client, tableName: tableName, logger: logger}
}

type genreItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	GenreID     int    `dynamodbav:"GenreID"`
	Name        string `dynamodbav:"Name"`
	NameLower   string `dynamodbav:"NameLower"`
	Description string `dynamodbav:"Description,omitempty"`
}

type artistItem struct {
	PK       string `dynamodbav:"PK"`
	SK       string `dynamodbav:"SK"`
	ArtistID int    `dynamodbav:"ArtistID"`
	Name     string `dynamodbav:"Name"`
}

type albumItem struct {
	PK          string  `dynamodbav:"PK"`
	SK          string  `dynamodbav:"SK"`
	AlbumID     int     `dynamodbav:"AlbumID"`
	GenreID     int     `dynamodbav:"GenreID"`
	ArtistID    int     `dynamodbav:"ArtistID"`
	Title       string  `dynamodbav:"Title"`
	Price       float64 `dynamodbav:"Price"`
	AlbumArtURL string  `dynamodbav:"AlbumArtURL,omitempty"`
	UpdatedAt   string  `dynamodbav:"UpdatedAt,omitempty"`
}

func sortKey(kind string, id int) string {
	return fmt.Sprintf("%s#%08d", kind, id)
}

func itemKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func toAlbumItem(a *entities.Album) albumItem {
	item := albumItem{
		PK:          pkAlbum,
		SK:          sortKey(pkAlbum, a.AlbumID),
		AlbumID:     a.AlbumID,
		GenreID:     a.GenreID,
		ArtistID:    a.ArtistID,
		Title:       a.Title,
		Price:       a.Price,
		AlbumArtURL: a.AlbumArtURL,
	}
	if !a.UpdatedAt.IsZero() {
		item.UpdatedAt = a.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return item
}

func (i albumItem) toEntity() entities.Album {
	a := entities.Album{
		AlbumID:     i.AlbumID,
		GenreID:     i.GenreID,
		ArtistID:    i.ArtistID,
		Title:       i.Title,
		Price:       i.Price,
		AlbumArtURL: i.AlbumArtURL,
	}
	if i.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339, i.UpdatedAt); err == nil {
			a.UpdatedAt = t
		}
	}
	return a
}

func (r *CatalogRepository) partition(ctx context.Context, pk string, filter *expression.ConditionBuilder) ([]map[string]types.AttributeValue, error) {
	builder := expression.NewBuilder().WithKeyCondition(expression.Key("PK").Equal(expression.Value(pk)))
	if filter != nil {
		builder = builder.WithFilter(*filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build query for %s: %w", pk, err)
	}
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, classify("query "+strings.ToLower(pk), err)
	}
	return items, nil
}

func (r *CatalogRepository) ListGenres(ctx context.Context) ([]entities.Genre, error) {
	raw, err := r.partition(ctx, pkGenre, nil)
	if err != nil {
		return nil, err
	}
	var items []genreItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal genres: %w", err)
	}
	out := make([]entities.Genre, 0, len(items))
	for _, i := range items {
		out = append(out, entities.Genre{GenreID: i.GenreID, Name: i.Name, Description: i.Description})
	}
	return out, nil
}

func (r *CatalogRepository) GetGenreByName(ctx context.Context, name string) (*entities.Genre, error) {
	byName := expression.Name("NameLower").Equal(expression.Value(strings.ToLower(name)))
	raw, err := r.partition(ctx, pkGenre, &byName)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("genre %q", name))
	}
	var item genreItem
	if err := attributevalue.UnmarshalMap(raw[0], &item); err != nil {
		return nil, fmt.Errorf("unmarshal genre: %w", err)
	}
	genre := &entities.Genre{GenreID: item.GenreID, Name: item.Name, Description: item.Description}

	byGenre := expression.Name("GenreID").Equal(expression.Value(item.GenreID))
	albums, err := r.albums(ctx, &byGenre)
	if err != nil {
		return nil, err
	}
	artists, err := r.artistIndex(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range albums {
		g := *genre
		a.Genre = &g
		if ar, ok := artists[a.ArtistID]; ok {
			a.Artist = &ar
		}
		genre.Albums = append(genre.Albums, a)
	}
	return genre, nil
}

func (r *CatalogRepository) ListArtists(ctx context.Context) ([]entities.Artist, error) {
	raw, err := r.partition(ctx, pkArtist, nil)
	if err != nil {
		return nil, err
	}
	var items []artistItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal artists: %w", err)
	}
	out := make([]entities.Artist, 0, len(items))
	for _, i := range items {
		out = append(out, entities.Artist{ArtistID: i.ArtistID, Name: i.Name})
	}
	return out, nil
}

func (r *CatalogRepository) artistIndex(ctx context.Context) (map[int]entities.Artist, error) {
	artists, err := r.ListArtists(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(map[int]entities.Artist, len(artists))
	for _, a := range artists {
		idx[a.ArtistID] = a
	}
	return idx, nil
}

func (r *CatalogRepository) albums(ctx context.Context, filter *expression.ConditionBuilder) ([]entities.Album, error) {
	raw, err := r.partition(ctx, pkAlbum, filter)
	if err != nil {
		return nil, err
	}
	var items []albumItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal albums: %w", err)
	}
	out := make([]entities.Album, 0, len(items))
	for _, i := range items {
		out = append(out, i.toEntity())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AlbumID < out[j].AlbumID })
	return out, nil
}

func (r *CatalogRepository) ListAlbums(ctx context.Context) ([]entities.Album, error) {
	albums, err := r.albums(ctx, nil)
	if err != nil {
		return nil, err
	}
	genres, err := r.ListGenres(ctx)
	if err != nil {
		return nil, err
	}
	artists, err := r.artistIndex(ctx)
	if err != nil {
		return nil, err
	}
	genreIdx := make(map[int]entities.Genre, len(genres))
	for _, g := range genres {
		genreIdx[g.GenreID] = g
	}
	for i := range albums {
		if g, ok := genreIdx[albums[i].GenreID]; ok {
			albums[i].Genre = &g
		}
		if a, ok := artists[albums[i].ArtistID]; ok {
			albums[i].Artist = &a
		}
	}
	return albums, nil
}

func (r *CatalogRepository) GetAlbum(ctx context.Context, id int) (*entities.Album, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       itemKey(pkAlbum, sortKey(pkAlbum, id)),
	})
	if err != nil {
		return nil, classify("get album", err)
	}
	if len(out.Item) == 0 {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("album %d", id))
	}
	var item albumItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal album: %w", err)
	}
	album := item.toEntity()

	if g, err := r.getGenre(ctx, album.GenreID); err == nil {
		album.Genre = g
	}
	if a, err := r.getArtist(ctx, album.ArtistID); err == nil {
		album.Artist = a
	}
	return &album, nil
}

func (r *CatalogRepository) getGenre(ctx context.Context, id int) (*entities.Genre, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       itemKey(pkGenre, sortKey(pkGenre, id)),
	})
	if err != nil || len(out.Item) == 0 {
		return nil, fmt.Errorf("genre %d unavailable: %v", id, err)
	}
	var item genreItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	return &entities.Genre{GenreID: item.GenreID, Name: item.Name, Description: item.Description}, nil
}

func (r *CatalogRepository) getArtist(ctx context.Context, id int) (*entities.Artist, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       itemKey(pkArtist, sortKey(pkArtist, id)),
	})
	if err != nil || len(out.Item) == 0 {
		return nil, fmt.Errorf("artist %d unavailable: %v", id, err)
	}
	var item artistItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	return &entities.Artist{ArtistID: item.ArtistID, Name: item.Name}, nil
}

// nextAlbumID atomically increments the album counter item.
func (r *CatalogRepository) nextAlbumID(ctx context.Context) (int, error) {
	update := expression.Add(expression.Name("Value"), expression.Value(1))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return 0, err
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       itemKey(pkCounter, pkAlbum),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, classify("allocate album id", err)
	}
	n, ok := out.Attributes["Value"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("album counter has no numeric value")
	}
	return strconv.Atoi(n.Value)
}

func (r *CatalogRepository) SaveAlbum(ctx context.Context, album *entities.Album) error {
	input := &dynamodb.PutItemInput{TableName: aws.String(r.tableName)}

	if album.AlbumID == 0 {
		id, err := r.nextAlbumID(ctx)
		if err != nil {
			return err
		}
		album.AlbumID = id
	} else {
		cond, err := expression.NewBuilder().
			WithCondition(expression.AttributeExists(expression.Name("PK"))).
			Build()
		if err != nil {
			return err
		}
		input.ConditionExpression = cond.Condition()
		input.ExpressionAttributeNames = cond.Names()
	}

	item, err := attributevalue.MarshalMap(toAlbumItem(album))
	if err != nil {
		return fmt.Errorf("marshal album: %w", err)
	}
	input.Item = item

	if _, err := r.client.PutItem(ctx, input); err != nil {
		if isConditionFailed(err) {
			return pkgerrors.NewNotFoundError(fmt.Sprintf("album %d", album.AlbumID))
		}
		return classify("save album", err)
	}
	r.logger.Debug("album saved", zap.Int("album_id", album.AlbumID))
	return nil
}

func (r *CatalogRepository) DeleteAlbum(ctx context.Context, id int) error {
	cond, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return err
	}
	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      itemKey(pkAlbum, sortKey(pkAlbum, id)),
		ConditionExpression:      cond.Condition(),
		ExpressionAttributeNames: cond.Names(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return pkgerrors.NewNotFoundError(fmt.Sprintf("album %d", id))
		}
		return classify("delete album", err)
	}
	return nil
}

// Seed writes genres, artists and albums and moves the album counter past
// the highest seeded ID.
func (r *CatalogRepository) Seed(ctx context.Context, genres []entities.Genre, artists []entities.Artist, albums []entities.Album) error {
	var items []any
	for _, g := range genres {
		items = append(items, genreItem{PK: pkGenre, SK: sortKey(pkGenre, g.GenreID), GenreID: g.GenreID,
			Name: g.Name, NameLower: strings.ToLower(g.Name), Description: g.Description})
	}
	for _, a := range artists {
		items = append(items, artistItem{PK: pkArtist, SK: sortKey(pkArtist, a.ArtistID), ArtistID: a.ArtistID, Name: a.Name})
	}
	maxID := 0
	for i := range albums {
		items = append(items, toAlbumItem(&albums[i]))
		if albums[i].AlbumID > maxID {
			maxID = albums[i].AlbumID
		}
	}
	items = append(items, map[string]any{"PK": pkCounter, "SK": pkAlbum, "Value": maxID})

	for _, item := range items {
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("marshal seed item: %w", err)
		}
		if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(r.tableName), Item: av}); err != nil {
			return classify("seed catalog", err)
		}
	}
	r.logger.Info("catalog seeded",
		zap.Int("genres", len(genres)),
		zap.Int("artists", len(artists)),
		zap.Int("albums", len(albums)))
	return nil
}

func (r *CatalogRepository) Ping(ctx context.Context) error {
	return Ping(ctx, r.client, r.tableName)
}
