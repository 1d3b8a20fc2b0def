// internal/room/registry.go
package room

import (
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	codeAlphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeLength      = 4
	maxCodeAttempts = 32
)

// Registry maps room codes to rooms. It never holds its own lock while a room lock is taken.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	rng   *lockedRand
}

// newRegistry returns an empty registry drawing codes from rng.
func newRegistry(rng *lockedRand) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		rng:   rng,
	}
}

// Create allocates a fresh code and stores an empty lobby under it.
func (g *Registry) Create(now time.Time) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := 0; i < maxCodeAttempts; i++ {
		code := g.newCode()
		if _, taken := g.rooms[code]; taken {
			continue
		}
		r := newRoom(code, now)
		g.rooms[code] = r
		return r, nil
	}
	return nil, ErrCodeSpaceExhausted
}

func (g *Registry) newCode() string {
	var b strings.Builder
	b.Grow(codeLength)
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[g.rng.Intn(len(codeAlphabet))])
	}
	return b.String()
}

// Get looks a room up by code. Codes are matched case-insensitively.
func (g *Registry) Get(code string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[NormalizeCode(code)]
	return r, ok
}

// Remove drops the room if code still points at r.
func (g *Registry) Remove(r *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cur, ok := g.rooms[r.Code]; ok && cur == r {
		delete(g.rooms, r.Code)
	}
}

// List returns the rooms ordered by code.
func (g *Registry) List() []*Room {
	g.mu.RLock()
	out := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		out = append(out, r)
	}
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// NormalizeCode trims and upper-cases a user-typed room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
