// internal/room/room.go
package room

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/impostor/internal/protocol"
)

// Phase is a state of the room's session state machine.
type Phase string

const (
	PhaseLobby    Phase = "LOBBY"
	PhasePlaying  Phase = "JUGANDO"
	PhaseDecision Phase = "VOTANDO_DECISION"
	PhaseVoting   Phase = "VOTANDO"
	PhaseFinished Phase = "FINALIZADO"
)

// Room holds the entire state for one game session in memory.
// All fields below Mu are guarded by it.
type Room struct {
	Code      string
	CreatedAt time.Time

	Mu sync.Mutex

	Phase        Phase
	LastActivity time.Time

	players map[string]*Player
	order   []string // join order of players

	// Game state, reset on restart.
	gameID      uuid.UUID
	secretWord  string
	round       int
	startedAt   time.Time
	finishedAt  time.Time
	actionIndex int

	// Turn state. turnActive is set while the player at turnIndex may submit text.
	turnOrder  []string
	turnIndex  int
	turnActive bool

	decision *ballots
	votes    *ballots
	// closed is set once the current poll or vote has been resolved.
	closed bool

	turnTimer     timerSlot
	decisionTimer timerSlot
	voteTimer     timerSlot
	stepTimer     timerSlot // pending grace-delay transition

	evicted bool
}

func newRoom(code string, now time.Time) *Room {
	return &Room{
		Code:          code,
		CreatedAt:     now,
		LastActivity:  now,
		Phase:         PhaseLobby,
		players:       make(map[string]*Player),
		turnTimer:     timerSlot{name: "turn-timeout"},
		decisionTimer: timerSlot{name: "decision-timeout"},
		voteTimer:     timerSlot{name: "vote-timeout"},
		stepTimer:     timerSlot{name: "step"},
	}
}

// addPlayer inserts p at the end of the join order. Assumes lock is held.
func (r *Room) addPlayer(p *Player) {
	if _, exists := r.players[p.ID]; !exists {
		r.order = append(r.order, p.ID)
	}
	r.players[p.ID] = p
}

// removePlayer deletes a player. Only valid in the lobby, where no timer refers to players.
// Assumes lock is held.
func (r *Room) removePlayer(id string) {
	if _, ok := r.players[id]; !ok {
		return
	}
	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Player returns the player owned by connection id, or nil. Assumes lock is held.
func (r *Room) Player(id string) *Player {
	return r.players[id]
}

// Players returns players in join order. Assumes lock is held.
func (r *Room) Players() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

// Living returns non-eliminated players in join order. Assumes lock is held.
func (r *Room) Living() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		if p := r.players[id]; !p.IsEliminated {
			out = append(out, p)
		}
	}
	return out
}

func (r *Room) livingCount() int {
	n := 0
	for _, p := range r.players {
		if !p.IsEliminated {
			n++
		}
	}
	return n
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.Connected {
			n++
		}
	}
	return n
}

func (r *Room) impostor() *Player {
	for _, p := range r.players {
		if p.IsImpostor {
			return p
		}
	}
	return nil
}

// views returns the role-free roster in join order.
func (r *Room) views() []protocol.PlayerView {
	out := make([]protocol.PlayerView, 0, len(r.order))
	for _, p := range r.Players() {
		out = append(out, p.View())
	}
	return out
}

func (r *Room) livingViews() []protocol.PlayerView {
	living := r.Living()
	out := make([]protocol.PlayerView, 0, len(living))
	for _, p := range living {
		out = append(out, p.View())
	}
	return out
}

// currentTurn returns the id at the turn cursor, or "" past the end of the order.
func (r *Room) currentTurn() string {
	if r.turnIndex < 0 || r.turnIndex >= len(r.turnOrder) {
		return ""
	}
	return r.turnOrder[r.turnIndex]
}

// dropFromTurnOrder removes id from the turn order, keeping the cursor on the same next player.
func (r *Room) dropFromTurnOrder(id string) {
	for i, pid := range r.turnOrder {
		if pid == id {
			r.turnOrder = append(r.turnOrder[:i], r.turnOrder[i+1:]...)
			if i < r.turnIndex {
				r.turnIndex--
			}
			return
		}
	}
}

func (r *Room) cancelTimers() {
	r.turnTimer.cancel()
	r.decisionTimer.cancel()
	r.voteTimer.cancel()
	r.stepTimer.cancel()
}

// resetGame purges everything specific to one game and returns the room to the lobby.
// Names and membership are kept. Assumes lock is held.
func (r *Room) resetGame() {
	r.cancelTimers()
	r.Phase = PhaseLobby
	for _, p := range r.players {
		p.IsImpostor = false
		p.IsEliminated = false
	}
	r.gameID = uuid.Nil
	r.secretWord = ""
	r.round = 0
	r.startedAt = time.Time{}
	r.finishedAt = time.Time{}
	r.turnOrder = nil
	r.turnIndex = 0
	r.turnActive = false
	r.decision = nil
	r.votes = nil
	r.closed = false
}

// Summary is a read-only snapshot used by the admin endpoint.
type Summary struct {
	Code         string    `json:"code"`
	Phase        Phase     `json:"phase"`
	Players      int       `json:"players"`
	Connected    int       `json:"connected"`
	Living       int       `json:"living"`
	Round        int       `json:"round"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

func (r *Room) summary() Summary {
	return Summary{
		Code:         r.Code,
		Phase:        r.Phase,
		Players:      len(r.players),
		Connected:    r.connectedCount(),
		Living:       r.livingCount(),
		Round:        r.round,
		CreatedAt:    r.CreatedAt,
		LastActivity: r.LastActivity,
	}
}
