// internal/database/store_test.go
package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/impostor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startStore(t *testing.T) *Store {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("impostor"),
		postgres.WithUsername("impostor"),
		postgres.WithPassword("impostor"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.EnsureSchema(ctx))
	// Applying twice is harmless.
	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

func TestStore(t *testing.T) {
	store := startStore(t)
	ctx := context.Background()
	gameID := uuid.New()
	started := time.Now().Add(-5 * time.Minute).UTC().Truncate(time.Millisecond)

	t.Run("InsertActions", func(t *testing.T) {
		recs := []models.ActionRecord{
			{ID: uuid.New(), RoomCode: "AB12", ActionIndex: 1, Actor: "c1", ActionType: "create-room",
				Payload: map[string]interface{}{"name": "Ana"}, Timestamp: started.UnixMilli()},
			{ID: uuid.New(), RoomCode: "AB12", GameID: gameID, ActionIndex: 3, Actor: "c1", ActionType: "start-game",
				Payload: map[string]interface{}{"players": 3}, Timestamp: started.UnixMilli()},
			{ID: uuid.New(), RoomCode: "AB12", GameID: gameID, ActionIndex: 4, ActionType: "round_start",
				Payload: map[string]interface{}{"round": 1}, Timestamp: started.Add(time.Second).UnixMilli()},
		}
		require.NoError(t, store.InsertActions(ctx, recs))
		// Replaying the same batch does not duplicate rows.
		require.NoError(t, store.InsertActions(ctx, recs))

		got, err := store.GameActions(ctx, gameID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "start-game", got[0].ActionType)
		assert.Equal(t, "round_start", got[1].ActionType)
		assert.EqualValues(t, 1, got[1].Payload["round"])
		assert.Equal(t, started.Add(time.Second).UnixMilli(), got[1].Timestamp)

		g, err := store.GetGame(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, models.GameStatusInProgress, g.Status)
	})

	t.Run("MarkAbandoned", func(t *testing.T) {
		other := uuid.New()
		require.NoError(t, store.InsertActions(ctx, []models.ActionRecord{
			{ID: uuid.New(), RoomCode: "ZZ99", GameID: other, ActionIndex: 1, ActionType: "start-game",
				Payload: map[string]interface{}{}, Timestamp: time.Now().UnixMilli()},
		}))
		changed, err := store.MarkAbandoned(ctx, other)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = store.MarkAbandoned(ctx, other)
		require.NoError(t, err)
		assert.False(t, changed, "only in-progress games are abandoned")

		g, err := store.GetGame(ctx, other)
		require.NoError(t, err)
		assert.Equal(t, models.GameStatusAbandoned, g.Status)
		assert.False(t, g.FinishedAt.IsZero())
	})

	t.Run("RecordGame", func(t *testing.T) {
		rec := models.GameRecord{
			ID:          gameID,
			RoomCode:    "AB12",
			Word:        "Pizza",
			ImpostorID:  "c2",
			ImpostorWon: false,
			Rounds:      2,
			Status:      models.GameStatusCompleted,
			StartedAt:   started,
			FinishedAt:  started.Add(4 * time.Minute),
			Players: []models.PlayerRecord{
				{PlayerID: "c1", Name: "Ana"},
				{PlayerID: "c2", Name: "Bob", WasImpostor: true},
				{PlayerID: "c3", Name: "Cai", Eliminated: true},
			},
		}
		require.NoError(t, store.RecordGame(ctx, rec))
		require.NoError(t, store.RecordGame(ctx, rec))

		g, err := store.GetGame(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, "Pizza", g.Word)
		assert.Equal(t, "c2", g.ImpostorID)
		assert.Equal(t, models.GameStatusCompleted, g.Status)
		assert.Equal(t, 2, g.Rounds)
		assert.True(t, rec.FinishedAt.Equal(g.FinishedAt))
		require.Len(t, g.Players, 3)
		assert.True(t, g.Players[1].WasImpostor)
		assert.True(t, g.Players[2].Eliminated)

		changed, err := store.MarkAbandoned(ctx, gameID)
		require.NoError(t, err)
		assert.False(t, changed, "completed games stay completed")
	})

	t.Run("RecentGames", func(t *testing.T) {
		games, err := store.RecentGames(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, games, 2)
	})

	t.Run("GetGame_NotFound", func(t *testing.T) {
		_, err := store.GetGame(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
