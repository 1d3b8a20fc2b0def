// internal/room/service.go
package room

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/impostor/internal/models"
	"github.com/jason-s-yu/impostor/internal/protocol"
	"github.com/sirupsen/logrus"
)

// Broadcaster delivers events to connections. The websocket hub implements it.
// Implementations must not block: the Service calls it while holding a room lock.
type Broadcaster interface {
	Join(connID, code string)
	Leave(connID, code string)
	ToRoom(code string, ev protocol.Event)
	ToConn(connID string, ev protocol.Event)
}

// Service is the session lifecycle controller. It owns the registry and drives every room
// through LOBBY -> JUGANDO -> VOTANDO_DECISION -> VOTANDO -> FINALIZADO.
type Service struct {
	cfg      Config
	registry *Registry
	out      Broadcaster
	sched    Scheduler
	rng      *lockedRand
	words    []string
	history  Recorder
	results  ResultStore
	log      logrus.FieldLogger

	// conns maps a connection id to the code of the room it sits in.
	connMu sync.Mutex
	conns  map[string]string
}

// Option customises a Service.
type Option func(*Service)

func WithScheduler(s Scheduler) Option { return func(svc *Service) { svc.sched = s } }

// WithRandSource makes code generation, role and word draws, and shuffles deterministic.
func WithRandSource(src rand.Source) Option {
	return func(svc *Service) { svc.rng = newLockedRand(src) }
}

func WithWords(words []string) Option { return func(svc *Service) { svc.words = words } }

func WithRecorder(r Recorder) Option { return func(svc *Service) { svc.history = r } }

func WithResultStore(s ResultStore) Option { return func(svc *Service) { svc.results = s } }

func WithLogger(l logrus.FieldLogger) Option { return func(svc *Service) { svc.log = l } }

// NewService wires a controller that reports to out.
func NewService(cfg Config, out Broadcaster, opts ...Option) *Service {
	svc := &Service{
		cfg:     cfg,
		out:     out,
		sched:   SystemScheduler{},
		history: NopRecorder{},
		results: NopResultStore{},
		log:     logrus.StandardLogger(),
		conns:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.rng == nil {
		svc.rng = newLockedRand(nil)
	}
	if len(svc.words) == 0 {
		svc.words = []string{"impostor"}
	}
	svc.registry = newRegistry(svc.rng)
	return svc
}

// Registry exposes the room registry.
func (s *Service) Registry() *Registry { return s.registry }

// Handle dispatches one client action. Player-facing failures are reported to connID and
// also returned so the caller can log them.
func (s *Service) Handle(connID string, a protocol.Action) error {
	var err error
	switch act := a.(type) {
	case protocol.CreateRoom:
		_, err = s.CreateRoom(connID, act)
	case protocol.JoinRoom:
		err = s.JoinRoom(connID, act)
	case protocol.StartGame:
		err = s.StartGame(connID, act)
	case protocol.SubmitText:
		err = s.SubmitText(connID, act)
	case protocol.CastDecision:
		err = s.CastDecision(connID, act)
	case protocol.CastVote:
		err = s.CastVote(connID, act)
	case protocol.RestartGame:
		err = s.RestartGame(connID, act)
	default:
		err = fmt.Errorf("unhandled action %T", a)
	}
	if err != nil {
		s.reportError(connID, a, err)
	}
	return err
}

// reportError sends err to the offending connection only.
func (s *Service) reportError(connID string, a protocol.Action, err error) {
	switch {
	case a.ActionType() == protocol.TypeRestartGame && errors.Is(err, ErrNotLeader):
		// Non-leader restarts are ignored without a reply.
		s.log.WithFields(logrus.Fields{"conn": connID, "action": a.ActionType()}).Debug("ignoring restart from non-leader")
	case a.ActionType() == protocol.TypeJoinRoom:
		s.out.ToConn(connID, protocol.JoinError{Message: joinErrorMessage(err)})
	default:
		s.out.ToConn(connID, protocol.Error{
			Action:  a.ActionType(),
			Code:    ErrorCode(err),
			Message: err.Error(),
		})
	}
}

func joinErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "La sala no existe"
	case errors.Is(err, ErrRoomFull):
		return "La sala está llena"
	case errors.Is(err, ErrGameInProgress):
		return "La partida ya ha comenzado"
	default:
		return err.Error()
	}
}

// withRoom runs fn with the room locked. A room evicted while the caller waited is reported
// as not found.
func (s *Service) withRoom(code string, fn func(r *Room) error) error {
	r, ok := s.registry.Get(code)
	if !ok {
		return ErrRoomNotFound
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.evicted {
		return ErrRoomNotFound
	}
	r.LastActivity = s.sched.Now()
	return fn(r)
}

// schedule arms slot to run fn under the room lock after d, replacing whatever was pending.
// Assumes lock is held.
func (s *Service) schedule(r *Room, slot *timerSlot, d time.Duration, fn func(r *Room)) {
	slot.cancel()
	seq := slot.seq
	name := slot.name
	slot.timer = s.sched.AfterFunc(d, func() {
		r.Mu.Lock()
		defer r.Mu.Unlock()
		if r.evicted || slot.seq != seq {
			s.roomLog(r).WithField("timer", name).Debug("stale timer fired, ignoring")
			return
		}
		slot.timer = nil
		fn(r)
	})
}

func (s *Service) roomLog(r *Room) logrus.FieldLogger {
	return s.log.WithFields(logrus.Fields{"room": r.Code, "phase": r.Phase})
}

// logAction pushes an entry to the history recorder without blocking the room.
// Assumes lock is held.
func (s *Service) logAction(r *Room, actor, actionType string, payload map[string]interface{}) {
	r.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	rec := models.ActionRecord{
		ID:          uuid.New(),
		RoomCode:    r.Code,
		GameID:      r.gameID,
		ActionIndex: r.actionIndex,
		Actor:       actor,
		ActionType:  actionType,
		Payload:     payload,
		Timestamp:   s.sched.Now().UnixMilli(),
	}
	go func(rec models.ActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.history.Record(ctx, rec); err != nil {
			s.log.WithFields(logrus.Fields{"room": rec.RoomCode, "action": rec.ActionType}).
				Warnf("failed to record action: %v", err)
		}
	}(rec)
}

// attach remembers which room connID sits in, detaching it from a previous room first.
func (s *Service) attach(connID, code string) {
	prev := s.swapConn(connID, code)
	if prev != "" && prev != code {
		s.leaveRoom(connID, prev)
	}
}

func (s *Service) swapConn(connID, code string) string {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	prev := s.conns[connID]
	if code == "" {
		delete(s.conns, connID)
	} else {
		s.conns[connID] = code
	}
	return prev
}

// Rooms snapshots every live room.
func (s *Service) Rooms() []Summary {
	rooms := s.registry.List()
	out := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		r.Mu.Lock()
		if !r.evicted {
			out = append(out, r.summary())
		}
		r.Mu.Unlock()
	}
	return out
}
