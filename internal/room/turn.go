// internal/room/turn.go
package room

import (
	"strings"

	"github.com/jason-s-yu/impostor/internal/protocol"
	"github.com/sirupsen/logrus"
)

// turnEnd says why a turn was consumed.
type turnEnd int

const (
	turnSubmitted turnEnd = iota
	skipTimeout
	skipDisconnected
)

func (e turnEnd) reason() string {
	switch e {
	case skipTimeout:
		return "timeout"
	case skipDisconnected:
		return "disconnected"
	default:
		return ""
	}
}

// startRound opens a round of turns over the living players. The order is shuffled when
// reshuffle is set; otherwise the previous order is reused minus eliminated players.
// Assumes lock is held.
func (s *Service) startRound(r *Room, reshuffle bool) {
	r.Phase = PhasePlaying
	r.round++
	r.decision = nil
	r.votes = nil
	r.closed = false

	if reshuffle || len(r.turnOrder) == 0 {
		living := r.Living()
		order := make([]string, len(living))
		for i, p := range living {
			order[i] = p.ID
		}
		s.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		r.turnOrder = order
	} else {
		kept := r.turnOrder[:0]
		for _, id := range r.turnOrder {
			if p := r.players[id]; p != nil && !p.IsEliminated {
				kept = append(kept, id)
			}
		}
		r.turnOrder = kept
	}
	r.turnIndex = 0
	r.turnActive = false

	s.logAction(r, "", "round_start", map[string]interface{}{
		"round":     r.round,
		"order":     append([]string(nil), r.turnOrder...),
		"reshuffle": reshuffle,
	})
	s.roomLog(r).WithField("round", r.round).Debug("round scheduled")
	s.schedule(r, &r.stepTimer, s.cfg.RoundStartDelay, s.advanceTurn)
}

// advanceTurn announces the player at the turn cursor and arms the turn timeout.
// Players who are gone are skipped on the spot. Assumes lock is held.
func (s *Service) advanceTurn(r *Room) {
	for r.Phase == PhasePlaying {
		id := r.currentTurn()
		if id == "" {
			s.beginDecision(r)
			return
		}
		p := r.players[id]
		if p == nil || p.IsEliminated {
			s.roomLog(r).WithField("conn", id).Warn("turn order refers to a missing or eliminated player, skipping")
			r.turnIndex++
			continue
		}
		if !p.Connected {
			s.out.ToRoom(r.Code, protocol.TurnSkipped{PlayerID: p.ID, Name: p.Name, Reason: skipDisconnected.reason()})
			r.turnIndex++
			continue
		}

		r.turnActive = true
		for _, member := range r.Players() {
			s.out.ToConn(member.ID, protocol.NewTurn{
				PlayerID:       p.ID,
				Name:           p.Name,
				IsYourTurn:     member.ID == p.ID,
				Round:          r.round,
				TurnIndex:      r.turnIndex,
				TurnCount:      len(r.turnOrder),
				TimeoutSeconds: int(s.cfg.TurnTimeout.Seconds()),
			})
		}
		s.schedule(r, &r.turnTimer, s.cfg.TurnTimeout, func(r *Room) {
			s.finishTurn(r, id, "", skipTimeout)
		})
		return
	}
}

// SubmitText consumes the sender's turn with text.
func (s *Service) SubmitText(connID string, a protocol.SubmitText) error {
	return s.withRoom(a.Code, func(r *Room) error {
		p := r.players[connID]
		if p == nil {
			return ErrUnknownPlayer
		}
		if p.IsEliminated {
			return ErrPlayerEliminated
		}
		if r.Phase != PhasePlaying {
			return ErrWrongPhase
		}
		if !r.turnActive || r.currentTurn() != connID {
			return ErrNotYourTurn
		}
		text := strings.TrimSpace(a.Text)
		if text == "" {
			return ErrEmptyText
		}
		if runes := []rune(text); s.cfg.MaxTextLength > 0 && len(runes) > s.cfg.MaxTextLength {
			text = string(runes[:s.cfg.MaxTextLength])
		}
		s.finishTurn(r, connID, text, turnSubmitted)
		return nil
	})
}

// finishTurn cancels the turn timeout, publishes the outcome of the turn and moves the cursor.
// The timeout is cancelled before anything else is scheduled, so a submission and a timeout
// can never both consume the same turn. Assumes lock is held.
func (s *Service) finishTurn(r *Room, playerID, text string, how turnEnd) {
	if !r.turnActive || r.currentTurn() != playerID {
		return
	}
	r.turnTimer.cancel()
	r.turnActive = false

	p := r.players[playerID]
	if how == turnSubmitted {
		s.out.ToRoom(r.Code, protocol.TextReceived{PlayerID: p.ID, Name: p.Name, Text: text})
		s.logAction(r, playerID, protocol.TypeSubmitText, map[string]interface{}{"text": text})
	} else {
		s.out.ToRoom(r.Code, protocol.TurnSkipped{PlayerID: p.ID, Name: p.Name, Reason: how.reason()})
		s.logAction(r, playerID, "turn_skipped", map[string]interface{}{"reason": how.reason()})
		s.roomLog(r).WithFields(logrus.Fields{"conn": playerID, "reason": how.reason()}).Debug("turn skipped")
	}

	r.turnIndex++
	if r.turnIndex >= len(r.turnOrder) {
		s.beginDecision(r)
		return
	}
	s.schedule(r, &r.stepTimer, s.cfg.TurnGap, s.advanceTurn)
}
