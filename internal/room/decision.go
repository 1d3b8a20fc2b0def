// internal/room/decision.go
package room

import "github.com/jason-s-yu/impostor/internal/protocol"

// beginDecision polls the living players on whether to play another round or vote now.
// Assumes lock is held.
func (s *Service) beginDecision(r *Room) {
	r.stepTimer.cancel()
	r.Phase = PhaseDecision
	r.turnActive = false
	r.decision = newBallots()
	r.closed = false

	s.out.ToRoom(r.Code, protocol.DecisionPhase{
		Round:          r.round,
		Voters:         r.livingCount(),
		TimeoutSeconds: int(s.cfg.DecisionTimeout.Seconds()),
	})
	s.logAction(r, "", "decision_start", map[string]interface{}{"round": r.round})
	s.schedule(r, &r.decisionTimer, s.cfg.DecisionTimeout, s.resolveDecision)
}

// CastDecision records or changes the sender's choice in the decision poll.
func (s *Service) CastDecision(connID string, a protocol.CastDecision) error {
	return s.withRoom(a.Code, func(r *Room) error {
		p := r.players[connID]
		if p == nil {
			return ErrUnknownPlayer
		}
		if p.IsEliminated {
			return ErrPlayerEliminated
		}
		if r.Phase != PhaseDecision || r.closed || r.decision == nil {
			return ErrWrongPhase
		}
		if !a.Decision.Valid() {
			return ErrInvalidDecision
		}

		if !r.decision.cast(connID, string(a.Decision)) {
			return nil
		}
		voters := r.livingCount()
		s.out.ToRoom(r.Code, protocol.DecisionCounts{
			AnotherRound: r.decision.tally.count(string(protocol.DecisionAnotherRound)),
			VoteNow:      r.decision.tally.count(string(protocol.DecisionVoteNow)),
			Voted:        r.decision.voted(),
			Voters:       voters,
		})
		s.logAction(r, connID, protocol.TypeCastDecision, map[string]interface{}{"decision": a.Decision})

		if r.decision.voted() >= voters {
			r.decisionTimer.cancel()
			s.schedule(r, &r.stepTimer, s.cfg.ResolveGrace, s.resolveDecision)
		}
		return nil
	})
}

// resolveDecision closes the poll. Ties favour another round. Assumes lock is held.
func (s *Service) resolveDecision(r *Room) {
	if r.Phase != PhaseDecision || r.closed {
		return
	}
	r.decisionTimer.cancel()
	r.stepTimer.cancel()
	r.closed = true

	another := r.decision.tally.count(string(protocol.DecisionAnotherRound))
	voteNow := r.decision.tally.count(string(protocol.DecisionVoteNow))
	decision := protocol.DecisionAnotherRound
	if voteNow > another {
		decision = protocol.DecisionVoteNow
	}

	s.out.ToRoom(r.Code, protocol.DecisionResult{Decision: decision, AnotherRound: another, VoteNow: voteNow})
	s.logAction(r, "", "decision_result", map[string]interface{}{
		"decision":     decision,
		"anotherRound": another,
		"voteNow":      voteNow,
	})

	s.schedule(r, &r.stepTimer, s.cfg.DecisionResultDelay, func(r *Room) {
		if decision == protocol.DecisionVoteNow {
			s.beginVote(r)
			return
		}
		s.startRound(r, true)
	})
}
