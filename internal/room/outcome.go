// internal/room/outcome.go
package room

import (
	"github.com/jason-s-yu/impostor/internal/models"
	"github.com/jason-s-yu/impostor/internal/protocol"
	"github.com/sirupsen/logrus"
)

// Outcome is the result of one elimination vote.
type Outcome struct {
	Tie                bool
	Eliminated         *Player
	ImpostorEliminated bool
	GameOver           bool
	ImpostorWon        bool
	Tally              []protocol.TallyEntry
}

// evaluate applies a vote result to the room and computes the win condition.
//   - no target or a tie: nobody leaves, the game goes on
//   - the impostor: civilians win
//   - a civilian: eliminated and dropped from the turn order; with two or fewer living
//     players left the impostor wins
//
// Assumes lock is held.
func evaluate(r *Room, target string, tie bool) Outcome {
	out := Outcome{Tally: r.votes.tally.entries()}
	if tie || target == "" {
		out.Tie = true
		return out
	}
	p := r.players[target]
	if p == nil {
		out.Tie = true
		return out
	}
	out.Eliminated = p

	if p.IsImpostor {
		out.ImpostorEliminated = true
		out.GameOver = true
		return out
	}

	p.IsEliminated = true
	r.dropFromTurnOrder(p.ID)
	if r.livingCount() <= 2 {
		out.GameOver = true
		out.ImpostorWon = true
	}
	return out
}

// applyOutcome broadcasts the vote result and either finishes the game or schedules the
// next round. Assumes lock is held.
func (s *Service) applyOutcome(r *Room, out Outcome) {
	ev := protocol.VoteResult{
		Tie:                out.Tie,
		ImpostorEliminated: out.ImpostorEliminated,
		GameOver:           out.GameOver,
		ImpostorWon:        out.ImpostorWon,
		Tally:              out.Tally,
	}
	if out.Eliminated != nil {
		v := out.Eliminated.View()
		ev.Eliminated = &v
	}
	if out.GameOver {
		if imp := r.impostor(); imp != nil {
			v := imp.View()
			ev.Impostor = &v
		}
		ev.SecretWord = r.secretWord
	}
	s.out.ToRoom(r.Code, ev)

	payload := map[string]interface{}{
		"tie":         out.Tie,
		"gameOver":    out.GameOver,
		"impostorWon": out.ImpostorWon,
	}
	if out.Eliminated != nil {
		payload["eliminated"] = out.Eliminated.ID
	}
	s.logAction(r, "", "vote_result", payload)

	if out.GameOver {
		s.finishGame(r, out.ImpostorWon)
		return
	}
	s.schedule(r, &r.stepTimer, s.cfg.VoteResultDelay, func(r *Room) {
		s.startRound(r, s.cfg.ReshuffleAfterVote)
	})
}

// finishGame moves the room to FINALIZADO and hands the result to the store.
// Assumes lock is held.
func (s *Service) finishGame(r *Room, impostorWon bool) {
	r.cancelTimers()
	r.Phase = PhaseFinished
	r.turnActive = false
	r.finishedAt = s.sched.Now()

	s.roomLog(r).WithFields(logrus.Fields{
		"game":        r.gameID,
		"impostorWon": impostorWon,
		"rounds":      r.round,
	}).Info("game finished")

	rec := s.gameRecord(r, models.GameStatusCompleted, impostorWon)
	go s.saveGame(rec)
}
