// internal/handlers/admin.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jason-s-yu/impostor/internal/models"
	"github.com/jason-s-yu/impostor/internal/room"
	"github.com/sirupsen/logrus"
)

const (
	defaultGamesLimit = 20
	maxGamesLimit     = 200
)

// RoomLister is satisfied by room.Service.
type RoomLister interface {
	Rooms() []room.Summary
}

// GameLister is satisfied by database.Store.
type GameLister interface {
	RecentGames(ctx context.Context, limit int) ([]models.GameRecord, error)
}

// AdminRoomsHandler lists live rooms.
func AdminRoomsHandler(rooms RoomLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, rooms.Rooms())
	}
}

// AdminGamesHandler lists the latest persisted games. A nil store answers 404.
func AdminGamesHandler(games GameLister, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if games == nil {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		limit := defaultGamesLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = min(n, maxGamesLimit)
		}

		list, err := games.RecentGames(r.Context(), limit)
		if err != nil {
			logger.Errorf("recent games: %v", err)
			http.Error(w, "failed to load games", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []models.GameRecord{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// HealthHandler reports liveness.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
