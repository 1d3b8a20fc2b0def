// internal/models/game_action.go
package models

import "github.com/google/uuid"

// ActionRecord is one entry of a room's action history. The server pushes it onto the
// history queue and the historian persists it to game_actions.
type ActionRecord struct {
	ID          uuid.UUID              `json:"id"`
	RoomCode    string                 `json:"room_code"`
	GameID      uuid.UUID              `json:"game_id"` // uuid.Nil for lobby actions
	ActionIndex int                    `json:"action_index"`
	Actor       string                 `json:"actor"` // connection id, empty for timer-driven actions
	ActionType  string                 `json:"action_type"`
	Payload     map[string]interface{} `json:"action_payload"`
	Timestamp   int64                  `json:"timestamp"` // epoch millis
}
