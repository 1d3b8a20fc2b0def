// internal/room/player.go
package room

import (
	"time"

	"github.com/jason-s-yu/impostor/internal/protocol"
)

// Player is one seat in a room, keyed by the id of the connection that owns it.
type Player struct {
	ID           string
	Name         string
	Avatar       string
	IsLeader     bool
	IsImpostor   bool
	IsEliminated bool
	Connected    bool
	JoinedAt     time.Time
}

// View returns the public, role-free projection of the player.
func (p *Player) View() protocol.PlayerView {
	return protocol.PlayerView{
		ID:           p.ID,
		Name:         p.Name,
		Avatar:       p.Avatar,
		IsLeader:     p.IsLeader,
		IsEliminated: p.IsEliminated,
		Connected:    p.Connected,
	}
}
