package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playverse/tictactoe-engine/internal/apperror"
	"github.com/playverse/tictactoe-engine/internal/entity"
	"github.com/playverse/tictactoe-engine/testing/suite"
)

func TestSnapshotCache_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	cache := NewSnapshotCache(st.Cache)

	// Given: an in-progress game snapshot
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	game := &entity.Game{
		ID:         "g1",
		CreatorID:  "alice",
		Status:     entity.StatusInProgress,
		BoardState: "----X----",
		NextTurn:   "bob",
		CreatedAt:  now,
		StartedAt:  &now,
		Participants: []*entity.Participant{
			{GameID: "g1", UserID: "alice", Mark: entity.PlayerX, JoinedAt: now},
			{GameID: "g1", UserID: "bob", Mark: entity.PlayerO, JoinedAt: now},
		},
	}

	// When: CreateOrUpdate is called
	err := cache.CreateOrUpdate(ctx, game)

	// Then: no error should be returned
	require.NoError(t, err)
}

func TestSnapshotCache_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		cache := NewSnapshotCache(st.Cache)

		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		game := &entity.Game{
			ID:         "g1",
			CreatorID:  "alice",
			Status:     entity.StatusWaiting,
			BoardState: "---------",
			CreatedAt:  now,
		}

		require.NoError(t, cache.CreateOrUpdate(ctx, game))

		// When: GetByID is called with existing ID
		retrieved, err := cache.GetByID(ctx, "g1")

		// Then: the retrieved snapshot matches the cached game
		require.NoError(t, err)
		assert.Equal(t, game.ID, retrieved.ID)
		assert.Equal(t, game.Status, retrieved.Status)
		assert.Equal(t, game.BoardState, retrieved.BoardState)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		cache := NewSnapshotCache(st.Cache)

		// When: GetByID is called with non-existent ID
		_, err := cache.GetByID(ctx, "9999999")

		// Then: an ErrGameNotFound error should be returned
		assert.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestSnapshotCache_DeleteByID(t *testing.T) {
	ctx, st := suite.New(t)

	cache := NewSnapshotCache(st.Cache)

	game := &entity.Game{ID: "g1", Status: entity.StatusCancelled, BoardState: "---------"}
	require.NoError(t, cache.CreateOrUpdate(ctx, game))

	// When: DeleteByID is called with existing ID
	require.NoError(t, cache.DeleteByID(ctx, "g1"))

	// Then: the snapshot is gone
	_, err := cache.GetByID(ctx, "g1")
	assert.ErrorIs(t, err, apperror.ErrGameNotFound)
}
