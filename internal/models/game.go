// internal/models/game.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// GameRecord is the persisted summary of a finished game.
type GameRecord struct {
	ID          uuid.UUID      `json:"id"`
	RoomCode    string         `json:"room_code"`
	Word        string         `json:"word"`
	ImpostorID  string         `json:"impostor_id"`
	ImpostorWon bool           `json:"impostor_won"`
	Rounds      int            `json:"rounds"`
	Status      string         `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
	Players     []PlayerRecord `json:"players"`
}

// PlayerRecord is one seat of a finished game.
type PlayerRecord struct {
	PlayerID    string `json:"player_id"`
	Name        string `json:"name"`
	WasImpostor bool   `json:"was_impostor"`
	Eliminated  bool   `json:"eliminated"`
}

// Game statuses stored in games.status.
const (
	GameStatusInProgress = "in_progress"
	GameStatusCompleted  = "completed"
	GameStatusAbandoned  = "abandoned"
)
