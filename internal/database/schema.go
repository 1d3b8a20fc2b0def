// internal/database/schema.go
package database

import (
	"context"
	"fmt"
)

// schema is applied by EnsureSchema. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS games (
		id           UUID PRIMARY KEY,
		room_code    TEXT NOT NULL,
		word         TEXT NOT NULL DEFAULT '',
		impostor_id  TEXT NOT NULL DEFAULT '',
		impostor_won BOOLEAN NOT NULL DEFAULT FALSE,
		rounds       INT NOT NULL DEFAULT 0,
		status       TEXT NOT NULL DEFAULT 'in_progress',
		start_time   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		end_time     TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS game_players (
		game_id      UUID NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		player_id    TEXT NOT NULL,
		name         TEXT NOT NULL,
		was_impostor BOOLEAN NOT NULL DEFAULT FALSE,
		eliminated   BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (game_id, player_id)
	)`,
	`CREATE TABLE IF NOT EXISTS game_actions (
		id             UUID PRIMARY KEY,
		room_code      TEXT NOT NULL,
		game_id        UUID,
		action_index   INT NOT NULL,
		actor          TEXT NOT NULL DEFAULT '',
		action_type    TEXT NOT NULL,
		action_payload JSONB NOT NULL DEFAULT '{}',
		created_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS game_actions_game_idx ON game_actions (game_id, action_index)`,
	`CREATE INDEX IF NOT EXISTS game_actions_room_idx ON game_actions (room_code, created_at)`,
}

// EnsureSchema creates the tables the store uses if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
