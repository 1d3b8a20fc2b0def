// internal/database/game.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/impostor/internal/models"
)

// RecordGame persists the final outcome of a game and its seats in one transaction.
// Recording the same game twice overwrites the earlier row.
func (s *Store) RecordGame(ctx context.Context, g models.GameRecord) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, room_code, word, impostor_id, impostor_won, rounds, status, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				room_code = EXCLUDED.room_code,
				word = EXCLUDED.word,
				impostor_id = EXCLUDED.impostor_id,
				impostor_won = EXCLUDED.impostor_won,
				rounds = EXCLUDED.rounds,
				status = EXCLUDED.status,
				start_time = EXCLUDED.start_time,
				end_time = EXCLUDED.end_time
		`
		if _, e := tx.Exec(ctx, upsertGame,
			g.ID, g.RoomCode, g.Word, g.ImpostorID, g.ImpostorWon, g.Rounds, g.Status, g.StartedAt, g.FinishedAt,
		); e != nil {
			return e
		}

		for _, p := range g.Players {
			q := `
				INSERT INTO game_players (game_id, player_id, name, was_impostor, eliminated)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (game_id, player_id)
				DO UPDATE SET name = $3, was_impostor = $4, eliminated = $5
			`
			if _, e := tx.Exec(ctx, q, g.ID, p.PlayerID, p.Name, p.WasImpostor, p.Eliminated); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert game %s: %w", g.ID, err)
	}
	return nil
}

// MarkAbandoned flags a game that is still in progress as abandoned. It reports whether a row
// changed.
func (s *Store) MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	q := `
		UPDATE games
		SET status = 'abandoned', end_time = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`
	tag, err := s.pool.Exec(ctx, q, gameID)
	if err != nil {
		return false, fmt.Errorf("mark game %s abandoned: %w", gameID, err)
	}
	return tag.RowsAffected() > 0, nil
}

const gameColumns = `id, room_code, word, impostor_id, impostor_won, rounds, status, start_time, end_time`

func scanGame(row pgx.Row) (models.GameRecord, error) {
	var g models.GameRecord
	var end *time.Time
	err := row.Scan(&g.ID, &g.RoomCode, &g.Word, &g.ImpostorID, &g.ImpostorWon, &g.Rounds, &g.Status, &g.StartedAt, &end)
	if end != nil {
		g.FinishedAt = *end
	}
	return g, err
}

// GetGame loads one game with its seats.
func (s *Store) GetGame(ctx context.Context, id uuid.UUID) (*models.GameRecord, error) {
	g, err := scanGame(s.pool.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get game %s: %w", id, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT player_id, name, was_impostor, eliminated
		FROM game_players WHERE game_id = $1 ORDER BY player_id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get players of game %s: %w", id, err)
	}
	g.Players, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PlayerRecord, error) {
		var p models.PlayerRecord
		err := row.Scan(&p.PlayerID, &p.Name, &p.WasImpostor, &p.Eliminated)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan players of game %s: %w", id, err)
	}
	return &g, nil
}

// RecentGames lists the latest games by start time, without seats.
func (s *Store) RecentGames(ctx context.Context, limit int) ([]models.GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `SELECT `+gameColumns+` FROM games ORDER BY start_time DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	games, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.GameRecord, error) {
		return scanGame(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan games: %w", err)
	}
	return games, nil
}
