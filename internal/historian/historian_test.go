// internal/historian/historian_test.go
package historian

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/impostor/internal/models"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// chanSource pops from a channel, returning nil on timeout like BLPop.
type chanSource struct {
	ch chan models.ActionRecord
}

func (c *chanSource) Pop(ctx context.Context, timeout time.Duration) (*models.ActionRecord, error) {
	select {
	case rec := <-c.ch:
		return &rec, nil
	case <-time.After(timeout):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type mockSink struct {
	mock.Mock
	mu       sync.Mutex
	inserted []models.ActionRecord
}

func (m *mockSink) InsertActions(ctx context.Context, recs []models.ActionRecord) error {
	args := m.Called(ctx, recs)
	if err := args.Error(0); err != nil {
		return err
	}
	m.mu.Lock()
	m.inserted = append(m.inserted, recs...)
	m.mu.Unlock()
	return nil
}

func (m *mockSink) MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	args := m.Called(ctx, gameID)
	return args.Bool(0), args.Error(1)
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inserted)
}

func record(game uuid.UUID, idx int, typ string) models.ActionRecord {
	return models.ActionRecord{
		ID:          uuid.New(),
		RoomCode:    "AB12",
		GameID:      game,
		ActionIndex: idx,
		ActionType:  typ,
		Payload:     map[string]interface{}{},
		Timestamp:   time.Now().UnixMilli(),
	}
}

func TestIngestFlushesFullBatch(t *testing.T) {
	sink := new(mockSink)
	sink.On("InsertActions", mock.Anything, mock.Anything).Return(nil)
	logger, _ := test.NewNullLogger()
	h := New(Config{BatchSize: 3}, nil, sink, logger)

	game := uuid.New()
	h.Ingest(context.Background(), record(game, 1, "start-game"))
	h.Ingest(context.Background(), record(game, 2, "round_start"))
	assert.Equal(t, 2, h.Pending())
	sink.AssertNotCalled(t, "InsertActions", mock.Anything, mock.Anything)

	h.Ingest(context.Background(), record(game, 3, "submit-text"))
	assert.Zero(t, h.Pending())
	assert.Equal(t, 3, sink.count())
	sink.AssertNumberOfCalls(t, "InsertActions", 1)
}

func TestFlushFailureKeepsBatch(t *testing.T) {
	sink := new(mockSink)
	sink.On("InsertActions", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	sink.On("InsertActions", mock.Anything, mock.Anything).Return(nil)
	logger, hook := test.NewNullLogger()
	h := New(Config{BatchSize: 100}, nil, sink, logger)

	first := record(uuid.Nil, 1, "create-room")
	h.Ingest(context.Background(), first)
	h.Flush(context.Background())
	assert.Equal(t, 1, h.Pending())
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "db down")

	h.Ingest(context.Background(), record(uuid.Nil, 2, "join-room"))
	h.Flush(context.Background())
	assert.Zero(t, h.Pending())

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.inserted, 2)
	assert.Equal(t, first.ID, sink.inserted[0].ID, "retried records keep their order")
}

func TestSweepInactiveMarksStaleGames(t *testing.T) {
	sink := new(mockSink)
	sink.On("InsertActions", mock.Anything, mock.Anything).Return(nil)
	logger, _ := test.NewNullLogger()
	h := New(Config{Inactivity: 10 * time.Minute}, nil, sink, logger)

	now := time.Now()
	h.now = func() time.Time { return now }

	stale, live, finished := uuid.New(), uuid.New(), uuid.New()
	h.Ingest(context.Background(), record(stale, 1, "start-game"))
	h.Ingest(context.Background(), record(finished, 1, "start-game"))

	over := record(finished, 9, "vote_result")
	over.Payload["gameOver"] = true
	h.Ingest(context.Background(), over)

	now = now.Add(8 * time.Minute)
	h.Ingest(context.Background(), record(live, 1, "start-game"))

	now = now.Add(3 * time.Minute)
	sink.On("MarkAbandoned", mock.Anything, stale).Return(true, nil).Once()

	assert.Equal(t, 1, h.SweepInactive(context.Background()))
	sink.AssertCalled(t, "MarkAbandoned", mock.Anything, stale)
	sink.AssertNotCalled(t, "MarkAbandoned", mock.Anything, live)
	sink.AssertNotCalled(t, "MarkAbandoned", mock.Anything, finished)

	// A swept game is no longer tracked.
	assert.Zero(t, h.SweepInactive(context.Background()))
}

func TestRunDrainsSourceAndFlushesOnShutdown(t *testing.T) {
	sink := new(mockSink)
	sink.On("InsertActions", mock.Anything, mock.Anything).Return(nil)
	logger, _ := test.NewNullLogger()
	src := &chanSource{ch: make(chan models.ActionRecord, 10)}
	h := New(Config{BatchSize: 100, FlushDelay: time.Hour, PopTimeout: 20 * time.Millisecond}, src, sink, logger)

	game := uuid.New()
	for i := 1; i <= 5; i++ {
		src.ch <- record(game, i, "submit-text")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return h.Pending() == 5 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("historian did not stop")
	}
	assert.Equal(t, 5, sink.count())
	assert.Zero(t, h.Pending())
}
