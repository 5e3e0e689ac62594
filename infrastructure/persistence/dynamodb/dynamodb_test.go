package dynamodb

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"musicstore/domain/core/entities"
	pkgerrors "musicstore/pkg/errors"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.QueryOutput)
	return out, args.Error(1)
}

func (m *mockAPI) BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.BatchWriteItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DescribeTableOutput)
	return out, args.Error(1)
}

func marshal(t *testing.T, v any) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(v)
	require.NoError(t, err)
	return av
}

func TestCatalogRepository_GetAlbum(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		api := &mockAPI{}
		repo := NewCatalogRepository(api, "store", zap.NewNop())

		api.On("GetItem", ctx, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
			return in.Key["PK"].(*types.AttributeValueMemberS).Value == pkAlbum
		})).Return(&dynamodb.GetItemOutput{Item: marshal(t, toAlbumItem(&entities.Album{
			AlbumID: 4, GenreID: 1, ArtistID: 1, Title: "Let There Be Rock", Price: 8.99,
		}))}, nil).Once()
		api.On("GetItem", ctx, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
			return in.Key["PK"].(*types.AttributeValueMemberS).Value == pkGenre
		})).Return(&dynamodb.GetItemOutput{Item: marshal(t, genreItem{PK: pkGenre, SK: sortKey(pkGenre, 1), GenreID: 1, Name: "Rock"})}, nil).Once()
		api.On("GetItem", ctx, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
			return in.Key["PK"].(*types.AttributeValueMemberS).Value == pkArtist
		})).Return(&dynamodb.GetItemOutput{}, nil).Once()

		album, err := repo.GetAlbum(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "Let There Be Rock", album.Title)
		require.NotNil(t, album.Genre)
		assert.Equal(t, "Rock", album.Genre.Name)
		assert.Nil(t, album.Artist)
		api.AssertExpectations(t)
	})

	t.Run("missing", func(t *testing.T) {
		api := &mockAPI{}
		repo := NewCatalogRepository(api, "store", nil)
		api.On("GetItem", ctx, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

		_, err := repo.GetAlbum(ctx, 99)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("throttled", func(t *testing.T) {
		api := &mockAPI{}
		repo := NewCatalogRepository(api, "store", nil)
		api.On("GetItem", ctx, mock.Anything).Return(nil, &smithy.GenericAPIError{
			Code: "ProvisionedThroughputExceededException", Fault: smithy.FaultClient,
		})

		_, err := repo.GetAlbum(ctx, 1)
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
	})
}

func TestCatalogRepository_SaveAlbum(t *testing.T) {
	ctx := context.Background()

	t.Run("insert allocates id", func(t *testing.T) {
		api := &mockAPI{}
		repo := NewCatalogRepository(api, "store", nil)
		api.On("UpdateItem", ctx, mock.Anything).Return(&dynamodb.UpdateItemOutput{
			Attributes: map[string]types.AttributeValue{"Value": &types.AttributeValueMemberN{Value: "11"}},
		}, nil)
		api.On("PutItem", ctx, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			return in.ConditionExpression == nil &&
				in.Item["SK"].(*types.AttributeValueMemberS).Value == "ALBUM#00000011"
		})).Return(&dynamodb.PutItemOutput{}, nil)

		album := &entities.Album{GenreID: 1, ArtistID: 1, Title: "Powerage", Price: 8.99}
		require.NoError(t, repo.SaveAlbum(ctx, album))
		assert.Equal(t, 11, album.AlbumID)
		api.AssertExpectations(t)
	})

	t.Run("update of missing album", func(t *testing.T) {
		api := &mockAPI{}
		repo := NewCatalogRepository(api, "store", nil)
		api.On("PutItem", ctx, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			return in.ConditionExpression != nil
		})).Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("nope")})

		err := repo.SaveAlbum(ctx, &entities.Album{AlbumID: 77, Title: "Ghost"})
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestActionLogRepository(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	entry := &entities.ActionLog{ActionLogID: "abc", Controller: "Store", Action: "Index", IP: "127.0.0.1", DateTime: at}

	t.Run("append", func(t *testing.T) {
		api := &mockAPI{}
		repo := NewActionLogRepository(api, "store", nil)
		api.On("PutItem", ctx, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			var item actionLogItem
			if err := attributevalue.UnmarshalMap(in.Item, &item); err != nil {
				return false
			}
			return item.PK == pkActionLog && item.Controller == "Store" && item.SK == logSortKey(entry)
		})).Return(&dynamodb.PutItemOutput{}, nil)

		require.NoError(t, repo.Append(ctx, entry))
		api.AssertExpectations(t)
	})

	t.Run("list newest first", func(t *testing.T) {
		api := &mockAPI{}
		repo := NewActionLogRepository(api, "store", nil)
		item := actionLogItem{PK: pkActionLog, SK: logSortKey(entry), ActionLogID: "abc",
			Controller: "Store", Action: "Index", IP: "127.0.0.1", DateTime: at.Format(time.RFC3339Nano)}
		api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			return in.ScanIndexForward != nil && !*in.ScanIndexForward
		})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{marshal(t, item)}}, nil)

		entries, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, at.Equal(entries[0].DateTime))
	})

	t.Run("truncate deletes in batches", func(t *testing.T) {
		api := &mockAPI{}
		repo := NewActionLogRepository(api, "store", nil)
		var items []map[string]types.AttributeValue
		for i := 0; i < 30; i++ {
			e := &entities.ActionLog{ActionLogID: string(rune('a' + i)), DateTime: at.Add(time.Duration(i) * time.Second)}
			items = append(items, marshal(t, actionLogItem{PK: pkActionLog, SK: logSortKey(e), DateTime: at.Format(time.RFC3339Nano)}))
		}
		api.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{Items: items}, nil)
		api.On("BatchWriteItem", ctx, mock.Anything).Return(&dynamodb.BatchWriteItemOutput{}, nil).Twice()

		require.NoError(t, repo.Truncate(ctx))
		api.AssertExpectations(t)
	})
}
