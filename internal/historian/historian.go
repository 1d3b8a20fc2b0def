// internal/historian/historian.go is an asynchronous historian that pops room action records from
// a queue and persists them in batches.
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/impostor/internal/models"
	"github.com/sirupsen/logrus"
)

// Source yields queued action records. cache.ActionQueue implements it.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (*models.ActionRecord, error)
}

// Sink persists action records. database.Store implements it.
type Sink interface {
	InsertActions(ctx context.Context, recs []models.ActionRecord) error
	MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error)
}

// Config tunes batching and inactivity tracking.
type Config struct {
	BatchSize  int
	FlushDelay time.Duration
	// Inactivity is how long a game may go without actions before it is marked abandoned.
	Inactivity      time.Duration
	InactivityCheck time.Duration
	PopTimeout      time.Duration
}

func DefaultConfig() Config {
	return Config{
		BatchSize:       20,
		FlushDelay:      500 * time.Millisecond,
		Inactivity:      10 * time.Minute,
		InactivityCheck: time.Minute,
		PopTimeout:      3 * time.Second,
	}
}

// Service captures room actions and marks games abandoned once the inactivity threshold passes.
type Service struct {
	cfg  Config
	src  Source
	sink Sink
	log  logrus.FieldLogger
	now  func() time.Time

	batchMu sync.Mutex
	batch   []models.ActionRecord

	activityMu   sync.Mutex
	lastActivity map[uuid.UUID]time.Time
}

// New builds a historian. Zero config fields take their defaults.
func New(cfg Config, src Source, sink Sink, log logrus.FieldLogger) *Service {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushDelay <= 0 {
		cfg.FlushDelay = def.FlushDelay
	}
	if cfg.Inactivity <= 0 {
		cfg.Inactivity = def.Inactivity
	}
	if cfg.InactivityCheck <= 0 {
		cfg.InactivityCheck = def.InactivityCheck
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = def.PopTimeout
	}
	return &Service{
		cfg:          cfg,
		src:          src,
		sink:         sink,
		log:          log,
		now:          time.Now,
		batch:        make([]models.ActionRecord, 0, cfg.BatchSize),
		lastActivity: make(map[uuid.UUID]time.Time),
	}
}

// Run drains the source until ctx is cancelled, then flushes whatever is still batched.
func (s *Service) Run(ctx context.Context) {
	s.log.Info("historian started")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.flushLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.inactivityLoop(ctx)
	}()

	s.readLoop(ctx)
	wg.Wait()

	// ctx is already done; give the last flush its own deadline.
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.log.Info("historian shut down")
}

func (s *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		rec, err := s.src.Pop(ctx, s.cfg.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Errorf("pop action: %v", err)
			continue
		}
		if rec == nil {
			continue
		}
		s.Ingest(ctx, *rec)
	}
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.FlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.InactivityCheck)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepInactive(ctx)
		}
	}
}

// Ingest adds a record to the batch, tracks game activity and flushes once the batch is full.
func (s *Service) Ingest(ctx context.Context, rec models.ActionRecord) {
	if rec.GameID != uuid.Nil {
		s.activityMu.Lock()
		if gameOver(rec) {
			delete(s.lastActivity, rec.GameID)
		} else {
			s.lastActivity[rec.GameID] = s.now()
		}
		s.activityMu.Unlock()
	}

	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.cfg.BatchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// gameOver reports whether rec closes its game.
func gameOver(rec models.ActionRecord) bool {
	if rec.ActionType != "vote_result" {
		return false
	}
	over, _ := rec.Payload["gameOver"].(bool)
	return over
}

// Flush writes the current batch in a single call. A failed batch is put back in front of
// anything batched meanwhile.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	pending := make([]models.ActionRecord, len(s.batch))
	copy(pending, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	if err := s.sink.InsertActions(ctx, pending); err != nil {
		s.log.Errorf("flush %d actions: %v", len(pending), err)
		s.batchMu.Lock()
		s.batch = append(pending, s.batch...)
		s.batchMu.Unlock()
		return
	}
	s.log.Debugf("flushed %d actions", len(pending))
}

// Pending returns the number of batched records not yet written.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

// SweepInactive marks games without recent actions as abandoned and stops tracking them.
func (s *Service) SweepInactive(ctx context.Context) int {
	now := s.now()
	var stale []uuid.UUID
	s.activityMu.Lock()
	for id, last := range s.lastActivity {
		if now.Sub(last) > s.cfg.Inactivity {
			stale = append(stale, id)
			delete(s.lastActivity, id)
		}
	}
	s.activityMu.Unlock()

	marked := 0
	for _, id := range stale {
		changed, err := s.sink.MarkAbandoned(ctx, id)
		if err != nil {
			s.log.WithField("game", id).Errorf("failed to mark game abandoned: %v", err)
			continue
		}
		if changed {
			marked++
			s.log.WithField("game", id).Info("marked game abandoned due to inactivity")
		}
	}
	return marked
}
