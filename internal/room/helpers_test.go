// internal/room/helpers_test.go
package room

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/impostor/internal/models"
	"github.com/jason-s-yu/impostor/internal/protocol"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- fake clock ---

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeClock only fires callbacks inside Advance, on the calling goroutine, in due order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		if next.at.After(c.now) {
			c.now = next.at
		}
		c.mu.Unlock()
		next.fn()
	}
}

// --- recording broadcaster ---

type recordingBroadcaster struct {
	mu      sync.Mutex
	members map[string]map[string]bool // code -> conn ids
	inbox   map[string][]protocol.Event
	room    map[string][]protocol.Event
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{
		members: make(map[string]map[string]bool),
		inbox:   make(map[string][]protocol.Event),
		room:    make(map[string][]protocol.Event),
	}
}

func (b *recordingBroadcaster) Join(connID, code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.members[code] == nil {
		b.members[code] = make(map[string]bool)
	}
	b.members[code][connID] = true
}

func (b *recordingBroadcaster) Leave(connID, code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.members[code], connID)
}

func (b *recordingBroadcaster) ToRoom(code string, ev protocol.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.room[code] = append(b.room[code], ev)
	for id := range b.members[code] {
		b.inbox[id] = append(b.inbox[id], ev)
	}
}

func (b *recordingBroadcaster) ToConn(connID string, ev protocol.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inbox[connID] = append(b.inbox[connID], ev)
}

func (b *recordingBroadcaster) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inbox = make(map[string][]protocol.Event)
	b.room = make(map[string][]protocol.Event)
}

// eventsOf returns every event of type T received by connID, oldest first.
func eventsOf[T protocol.Event](b *recordingBroadcaster, connID string) []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []T
	for _, ev := range b.inbox[connID] {
		if typed, ok := ev.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

func lastOf[T protocol.Event](t *testing.T, b *recordingBroadcaster, connID string) T {
	t.Helper()
	evs := eventsOf[T](b, connID)
	require.NotEmpty(t, evs, "no %T received by %s", *new(T), connID)
	return evs[len(evs)-1]
}

// roomEventsOf returns every event of type T broadcast to the room.
func roomEventsOf[T protocol.Event](b *recordingBroadcaster, code string) []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []T
	for _, ev := range b.room[code] {
		if typed, ok := ev.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

// --- result store mock ---

type mockResultStore struct {
	mock.Mock
}

func (m *mockResultStore) RecordGame(ctx context.Context, game models.GameRecord) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

// recordingHistory keeps every action record pushed by the service.
type recordingHistory struct {
	mu      sync.Mutex
	records []models.ActionRecord
}

func (h *recordingHistory) Record(_ context.Context, rec models.ActionRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	return nil
}

func (h *recordingHistory) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.records))
	for _, r := range h.records {
		out = append(out, r.ActionType)
	}
	return out
}

// --- harness ---

type harness struct {
	t     *testing.T
	cfg   Config
	svc   *Service
	clock *fakeClock
	out   *recordingBroadcaster
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newHarness(t *testing.T, mutate func(*Config), opts ...Option) *harness {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	clock := newFakeClock()
	out := newRecordingBroadcaster()
	base := []Option{
		WithScheduler(clock),
		WithRandSource(rand.NewSource(7)),
		WithWords([]string{"Pizza", "Playa", "Guitarra"}),
		WithLogger(quietLogger()),
	}
	svc := NewService(cfg, out, append(base, opts...)...)
	return &harness{t: t, cfg: cfg, svc: svc, clock: clock, out: out}
}

func (h *harness) create(conn, name string) string {
	h.t.Helper()
	code, err := h.svc.CreateRoom(conn, protocol.CreateRoom{Name: name, Avatar: "avatar_default.png"})
	require.NoError(h.t, err)
	return code
}

func (h *harness) join(code, conn, name string) {
	h.t.Helper()
	require.NoError(h.t, h.svc.JoinRoom(conn, protocol.JoinRoom{Code: code, Name: name, Avatar: "avatar_default.png"}))
}

// lobby creates a room led by the first conn and seats the rest.
func (h *harness) lobby(conns ...string) string {
	h.t.Helper()
	code := h.create(conns[0], conns[0])
	for _, c := range conns[1:] {
		h.join(code, c, c)
	}
	return code
}

func (h *harness) start(code, conn string) {
	h.t.Helper()
	require.NoError(h.t, h.svc.StartGame(conn, protocol.StartGame{Code: code}))
}

// inspect runs fn with the room locked.
func (h *harness) inspect(code string, fn func(r *Room)) {
	h.t.Helper()
	r, ok := h.svc.Registry().Get(code)
	require.True(h.t, ok, "room %s not found", code)
	r.Mu.Lock()
	defer r.Mu.Unlock()
	fn(r)
}

func (h *harness) phase(code string) Phase {
	var p Phase
	h.inspect(code, func(r *Room) { p = r.Phase })
	return p
}

func (h *harness) currentTurn(code string) (id string, active bool) {
	h.inspect(code, func(r *Room) { id, active = r.currentTurn(), r.turnActive })
	return id, active
}

func (h *harness) impostor(code string) string {
	var id string
	h.inspect(code, func(r *Room) {
		if p := r.impostor(); p != nil {
			id = p.ID
		}
	})
	return id
}

// playRound waits for the round to open and has every player submit text in turn,
// leaving the room in the decision poll.
func (h *harness) playRound(code string) {
	h.t.Helper()
	h.clock.Advance(h.cfg.RoundStartDelay)
	for h.phase(code) == PhasePlaying {
		id, active := h.currentTurn(code)
		require.True(h.t, active, "expected an active turn")
		require.NoError(h.t, h.svc.SubmitText(id, protocol.SubmitText{Code: code, Text: "pista de " + id}))
		if h.phase(code) == PhasePlaying {
			h.clock.Advance(h.cfg.TurnGap)
		}
	}
	require.Equal(h.t, PhaseDecision, h.phase(code))
}

// decideVote has every living player choose vote-now and waits for the vote to open.
func (h *harness) decideVote(code string) {
	h.t.Helper()
	var living []string
	h.inspect(code, func(r *Room) {
		for _, p := range r.Living() {
			living = append(living, p.ID)
		}
	})
	for _, id := range living {
		require.NoError(h.t, h.svc.CastDecision(id, protocol.CastDecision{Code: code, Decision: protocol.DecisionVoteNow}))
	}
	h.clock.Advance(h.cfg.ResolveGrace + h.cfg.DecisionResultDelay)
	require.Equal(h.t, PhaseVoting, h.phase(code))
}

func (h *harness) vote(code, voter, target string) {
	h.t.Helper()
	require.NoError(h.t, h.svc.CastVote(voter, protocol.CastVote{Code: code, TargetID: target}))
}
