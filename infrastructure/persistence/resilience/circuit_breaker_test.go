package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"musicstore/domain/core/entities"
	"musicstore/infrastructure/persistence/memory"
	pkgerrors "musicstore/pkg/errors"
)

type failingLog struct {
	*memory.ActionLogRepository
	err error
}

func (f *failingLog) Append(ctx context.Context, e *entities.ActionLog) error {
	if f.err != nil {
		return f.err
	}
	return f.ActionLogRepository.Append(ctx, e)
}

func testConfig() BreakerConfig {
	return BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Hour, FailureThreshold: 0.5, MinRequests: 2}
}

func TestActionLogRepository_TripsOnStoreFaults(t *testing.T) {
	ctx := context.Background()
	inner := &failingLog{ActionLogRepository: memory.NewActionLogRepository(), err: errors.New("connection reset")}

	var transitions []gobreaker.State
	repo := NewActionLogRepository(inner, testConfig(), zap.NewNop(), func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	})

	entry := entities.NewActionLog("Store", "Index", "::1", time.Now())
	assert.Error(t, repo.Append(ctx, entry))
	assert.Error(t, repo.Append(ctx, entry))

	err := repo.Append(ctx, entry)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)
}

func TestCatalogRepository_NotFoundDoesNotTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(memory.NewSeededCatalog(), testConfig(), nil, nil)

	for i := 0; i < 5; i++ {
		_, err := repo.GetAlbum(ctx, 404)
		require.True(t, pkgerrors.IsNotFound(err))
	}
	assert.Equal(t, gobreaker.StateClosed, repo.State())

	album, err := repo.GetAlbum(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, album.AlbumID)
	assert.NoError(t, repo.Ping(ctx))
}
