// internal/room/vote.go
package room

import "github.com/jason-s-yu/impostor/internal/protocol"

// beginVote opens the elimination vote among living players. Assumes lock is held.
func (s *Service) beginVote(r *Room) {
	r.Phase = PhaseVoting
	r.votes = newBallots()
	r.closed = false

	s.out.ToRoom(r.Code, protocol.VotePhase{
		Votable:        r.livingViews(),
		Players:        r.views(),
		TimeoutSeconds: int(s.cfg.VoteTimeout.Seconds()),
	})
	s.logAction(r, "", "vote_start", map[string]interface{}{"round": r.round})
	s.schedule(r, &r.voteTimer, s.cfg.VoteTimeout, s.resolveVote)
}

// CastVote records or moves the sender's vote. Once every living player has voted the
// timeout is cancelled and the vote resolves after a short grace delay.
func (s *Service) CastVote(connID string, a protocol.CastVote) error {
	return s.withRoom(a.Code, func(r *Room) error {
		p := r.players[connID]
		if p == nil {
			return ErrUnknownPlayer
		}
		if p.IsEliminated {
			return ErrPlayerEliminated
		}
		if r.Phase != PhaseVoting || r.closed || r.votes == nil {
			return ErrWrongPhase
		}
		if a.TargetID == connID {
			return ErrSelfVote
		}
		if target := r.players[a.TargetID]; target == nil || target.IsEliminated {
			return ErrInvalidTarget
		}

		if !r.votes.cast(connID, a.TargetID) {
			return nil
		}
		voters := r.livingCount()
		s.out.ToRoom(r.Code, protocol.VoteCounts{
			Tally:  r.votes.tally.entries(),
			Voted:  r.votes.voted(),
			Voters: voters,
		})
		s.logAction(r, connID, protocol.TypeCastVote, map[string]interface{}{"target": a.TargetID})

		if r.votes.voted() >= voters {
			r.voteTimer.cancel()
			s.schedule(r, &r.stepTimer, s.cfg.ResolveGrace, s.resolveVote)
		}
		return nil
	})
}

// resolveVote closes the vote and hands the plurality result to the outcome evaluator.
// Assumes lock is held.
func (s *Service) resolveVote(r *Room) {
	if r.Phase != PhaseVoting || r.closed {
		return
	}
	r.voteTimer.cancel()
	r.stepTimer.cancel()
	r.closed = true

	target, tie := r.votes.tally.plurality()
	out := evaluate(r, target, tie)
	s.applyOutcome(r, out)
}
