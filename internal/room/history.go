// internal/room/history.go
package room

import (
	"context"

	"github.com/jason-s-yu/impostor/internal/models"
)

// Recorder receives the action history of every room. cache.ActionQueue implements it.
type Recorder interface {
	Record(ctx context.Context, rec models.ActionRecord) error
}

// ResultStore persists finished games. database.Store implements it.
type ResultStore interface {
	RecordGame(ctx context.Context, game models.GameRecord) error
}

// NopRecorder discards history; used when no queue is configured.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, models.ActionRecord) error { return nil }

// NopResultStore discards results; used when no database is configured.
type NopResultStore struct{}

func (NopResultStore) RecordGame(context.Context, models.GameRecord) error { return nil }
