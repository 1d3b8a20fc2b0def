// internal/handlers/admin_test.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/impostor/internal/models"
	"github.com/jason-s-yu/impostor/internal/room"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGames struct {
	mock.Mock
}

func (m *mockGames) RecentGames(ctx context.Context, limit int) ([]models.GameRecord, error) {
	args := m.Called(ctx, limit)
	games, _ := args.Get(0).([]models.GameRecord)
	return games, args.Error(1)
}

type staticRooms []room.Summary

func (s staticRooms) Rooms() []room.Summary { return s }

func TestAdminRoomsHandler(t *testing.T) {
	rooms := staticRooms{{Code: "AB12", Phase: room.PhaseLobby, Players: 3}}
	rr := httptest.NewRecorder()
	AdminRoomsHandler(rooms).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/rooms", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var got []room.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "AB12", got[0].Code)
	assert.Equal(t, 3, got[0].Players)

	rr = httptest.NewRecorder()
	AdminRoomsHandler(rooms).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/rooms", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestAdminGamesHandler(t *testing.T) {
	logger, _ := test.NewNullLogger()

	t.Run("no database", func(t *testing.T) {
		rr := httptest.NewRecorder()
		AdminGamesHandler(nil, logger).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/games", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("limit", func(t *testing.T) {
		games := new(mockGames)
		id := uuid.New()
		games.On("RecentGames", mock.Anything, 5).Return([]models.GameRecord{{ID: id, RoomCode: "AB12"}}, nil).Once()
		games.On("RecentGames", mock.Anything, defaultGamesLimit).Return(nil, nil).Once()
		games.On("RecentGames", mock.Anything, maxGamesLimit).Return(nil, nil).Once()

		rr := httptest.NewRecorder()
		AdminGamesHandler(games, logger).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/games?limit=5", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		var got []models.GameRecord
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, id, got[0].ID)

		rr = httptest.NewRecorder()
		AdminGamesHandler(games, logger).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/games", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())

		rr = httptest.NewRecorder()
		AdminGamesHandler(games, logger).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/games?limit=100000", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		games.AssertExpectations(t)
	})

	t.Run("bad limit", func(t *testing.T) {
		games := new(mockGames)
		rr := httptest.NewRecorder()
		AdminGamesHandler(games, logger).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/games?limit=-1", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		games.AssertNotCalled(t, "RecentGames", mock.Anything, mock.Anything)
	})

	t.Run("store error", func(t *testing.T) {
		games := new(mockGames)
		games.On("RecentGames", mock.Anything, defaultGamesLimit).Return(nil, errors.New("db down"))
		rr := httptest.NewRecorder()
		AdminGamesHandler(games, logger).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/games", nil))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	HealthHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
