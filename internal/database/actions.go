// internal/database/actions.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/impostor/internal/models"
)

// InsertActions writes a batch of history records in a single transaction. Records that carry
// a game id also make sure a games row exists so the history can be joined before the game ends.
// Re-inserting a record with a known id is a no-op.
func (s *Store) InsertActions(ctx context.Context, recs []models.ActionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range recs {
			payload, err := json.Marshal(rec.Payload)
			if err != nil {
				return fmt.Errorf("marshal payload of %s: %w", rec.ID, err)
			}
			at := time.UnixMilli(rec.Timestamp)

			gameID := uuid.NullUUID{UUID: rec.GameID, Valid: rec.GameID != uuid.Nil}
			if gameID.Valid {
				batch.Queue(`
					INSERT INTO games (id, room_code, status, start_time)
					VALUES ($1, $2, 'in_progress', $3)
					ON CONFLICT (id) DO NOTHING
				`, rec.GameID, rec.RoomCode, at)
			}
			batch.Queue(`
				INSERT INTO game_actions (id, room_code, game_id, action_index, actor, action_type, action_payload, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (id) DO NOTHING
			`, rec.ID, rec.RoomCode, gameID, rec.ActionIndex, rec.Actor, rec.ActionType, payload, at)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("insert %d actions: %w", len(recs), err)
	}
	return nil
}

// GameActions returns the history of one game in action order.
func (s *Store) GameActions(ctx context.Context, gameID uuid.UUID) ([]models.ActionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, room_code, game_id, action_index, actor, action_type, action_payload, created_at
		FROM game_actions
		WHERE game_id = $1
		ORDER BY action_index
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query actions of game %s: %w", gameID, err)
	}
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ActionRecord, error) {
		var rec models.ActionRecord
		var gid uuid.NullUUID
		var payload []byte
		var at time.Time
		if err := row.Scan(&rec.ID, &rec.RoomCode, &gid, &rec.ActionIndex, &rec.Actor, &rec.ActionType, &payload, &at); err != nil {
			return rec, err
		}
		rec.GameID = gid.UUID
		rec.Timestamp = at.UnixMilli()
		if err := json.Unmarshal(payload, &rec.Payload); err != nil {
			return rec, fmt.Errorf("decode payload of %s: %w", rec.ID, err)
		}
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan actions of game %s: %w", gameID, err)
	}
	return recs, nil
}
