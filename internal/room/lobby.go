// internal/room/lobby.go
package room

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/impostor/internal/models"
	"github.com/jason-s-yu/impostor/internal/protocol"
	"github.com/sirupsen/logrus"
)

const maxNameLength = 24

// CreateRoom opens a new lobby with connID as its leader and returns the room code.
func (s *Service) CreateRoom(connID string, a protocol.CreateRoom) (string, error) {
	now := s.sched.Now()
	r, err := s.registry.Create(now)
	if err != nil {
		return "", err
	}

	r.Mu.Lock()
	r.addPlayer(&Player{
		ID:        connID,
		Name:      cleanName(a.Name),
		Avatar:    a.Avatar,
		IsLeader:  true,
		Connected: true,
		JoinedAt:  now,
	})
	s.out.Join(connID, r.Code)
	s.out.ToConn(connID, protocol.RoomCreated{Code: r.Code, Players: r.views()})
	s.logAction(r, connID, protocol.TypeCreateRoom, map[string]interface{}{"name": r.players[connID].Name})
	s.roomLog(r).WithField("conn", connID).Info("room created")
	code := r.Code
	r.Mu.Unlock()

	s.attach(connID, code)
	return code, nil
}

// JoinRoom seats connID in an existing lobby, or in a finished room waiting for a restart.
func (s *Service) JoinRoom(connID string, a protocol.JoinRoom) error {
	code := NormalizeCode(a.Code)
	err := s.withRoom(code, func(r *Room) error {
		if _, already := r.players[connID]; already {
			s.out.ToConn(connID, protocol.JoinSuccess{Code: r.Code})
			return nil
		}
		// A finished game no longer counts living players, so newcomers wait for back-to-room.
		if r.Phase != PhaseLobby && r.Phase != PhaseFinished {
			return ErrGameInProgress
		}
		if len(r.players) >= s.cfg.MaxPlayers {
			return ErrRoomFull
		}

		r.addPlayer(&Player{
			ID:        connID,
			Name:      cleanName(a.Name),
			Avatar:    a.Avatar,
			Connected: true,
			JoinedAt:  s.sched.Now(),
		})
		s.out.Join(connID, r.Code)
		s.out.ToRoom(r.Code, protocol.PlayersUpdated{Code: r.Code, Players: r.views()})
		s.out.ToConn(connID, protocol.JoinSuccess{Code: r.Code})
		s.logAction(r, connID, protocol.TypeJoinRoom, map[string]interface{}{"name": r.players[connID].Name})
		return nil
	})
	if err != nil {
		return err
	}
	s.attach(connID, code)
	return nil
}

// StartGame assigns roles and the secret word, then opens the first round.
func (s *Service) StartGame(connID string, a protocol.StartGame) error {
	return s.withRoom(a.Code, func(r *Room) error {
		p := r.players[connID]
		if p == nil {
			return ErrUnknownPlayer
		}
		if s.cfg.RequireLeaderToStart && !p.IsLeader {
			return ErrNotLeader
		}
		if r.Phase != PhaseLobby {
			return ErrWrongPhase
		}
		if len(r.players) < s.cfg.MinPlayers {
			return ErrNotEnoughPlayers
		}

		players := r.Players()
		impostor := players[s.rng.Intn(len(players))]
		for _, pl := range players {
			pl.IsImpostor = pl == impostor
			pl.IsEliminated = false
		}
		r.secretWord = s.words[s.rng.Intn(len(s.words))]
		r.gameID = uuid.New()
		r.startedAt = s.sched.Now()
		r.round = 0
		r.turnOrder = nil

		roster := r.views()
		for _, pl := range players {
			ev := protocol.GameStarted{Code: r.Code, Players: roster, Role: protocol.RoleCivilian, SecretWord: r.secretWord}
			if pl.IsImpostor {
				ev.Role = protocol.RoleImpostor
				ev.IsImpostor = true
				ev.SecretWord = ""
			}
			s.out.ToConn(pl.ID, ev)
		}

		s.logAction(r, connID, protocol.TypeStartGame, map[string]interface{}{
			"impostor": impostor.ID,
			"word":     r.secretWord,
			"players":  len(players),
		})
		s.roomLog(r).WithField("game", r.gameID).Infof("game started with %d players", len(players))

		s.startRound(r, true)
		return nil
	})
}

// RestartGame returns a finished room to the lobby. Only the leader may do this.
func (s *Service) RestartGame(connID string, a protocol.RestartGame) error {
	return s.withRoom(a.Code, func(r *Room) error {
		p := r.players[connID]
		if p == nil || !p.IsLeader {
			return ErrNotLeader
		}
		if r.Phase != PhaseFinished {
			return ErrWrongPhase
		}

		r.resetGame()
		// Connection ids never come back, so seats of disconnected players are released.
		for _, pl := range r.Players() {
			if !pl.Connected {
				r.removePlayer(pl.ID)
			}
		}
		s.out.ToRoom(r.Code, protocol.BackToRoom{Code: r.Code, Players: r.views()})
		s.logAction(r, connID, protocol.TypeRestartGame, nil)
		s.roomLog(r).Info("room back to lobby")
		return nil
	})
}

// Disconnect handles a closed connection. In the lobby the seat is freed; during a game the
// player stays (timers and turn order refer to it) but is marked disconnected. A room left
// without connected players is evicted.
func (s *Service) Disconnect(connID string) {
	code := s.swapConn(connID, "")
	if code == "" {
		return
	}
	s.leaveRoom(connID, code)
}

func (s *Service) leaveRoom(connID, code string) {
	r, ok := s.registry.Get(code)
	if !ok {
		return
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.evicted {
		return
	}
	p := r.players[connID]
	if p == nil {
		return
	}

	s.out.Leave(connID, r.Code)
	log := s.roomLog(r).WithField("conn", connID)
	if r.Phase == PhaseLobby {
		r.removePlayer(connID)
	} else {
		p.Connected = false
	}
	s.logAction(r, connID, "disconnect", nil)

	if r.connectedCount() == 0 {
		log.Info("last player left, evicting room")
		s.evict(r)
		return
	}
	s.out.ToRoom(r.Code, protocol.PlayersUpdated{Code: r.Code, Players: r.views()})
	if p.IsLeader && r.Phase == PhaseLobby {
		log.Warn("leader left the lobby; leadership is not reassigned")
		if s.cfg.RequireLeaderToStart {
			s.out.ToRoom(r.Code, protocol.Error{
				Code:    ErrorCode(ErrLeaderLeft),
				Message: "El líder abandonó la sala; la partida no puede comenzar",
			})
		}
	}

	if r.Phase == PhasePlaying && r.turnActive && r.currentTurn() == connID {
		s.finishTurn(r, connID, "", skipDisconnected)
	}
}

// evict cancels every timer and drops the room from the registry. Assumes lock is held.
func (s *Service) evict(r *Room) {
	r.evicted = true
	r.cancelTimers()
	s.registry.Remove(r)
	for _, p := range r.players {
		if p.Connected {
			s.out.Leave(p.ID, r.Code)
		}
	}
	s.connMu.Lock()
	for id, code := range s.conns {
		if code == r.Code {
			delete(s.conns, id)
		}
	}
	s.connMu.Unlock()
	if r.Phase != PhaseLobby && r.Phase != PhaseFinished {
		s.abandonGame(r)
	}
}

// abandonGame reports an unfinished game to the result store. Assumes lock is held.
func (s *Service) abandonGame(r *Room) {
	if r.gameID == uuid.Nil {
		return
	}
	rec := s.gameRecord(r, models.GameStatusAbandoned, false)
	go s.saveGame(rec)
}

// SweepIdle evicts rooms idle past RoomIdleTTL and finished rooms past FinishedRoomTTL.
// It returns the number of rooms evicted.
func (s *Service) SweepIdle() int {
	now := s.sched.Now()
	evicted := 0
	for _, r := range s.registry.List() {
		r.Mu.Lock()
		stale := !r.evicted && (now.Sub(r.LastActivity) > s.cfg.RoomIdleTTL ||
			(r.Phase == PhaseFinished && now.Sub(r.finishedAt) > s.cfg.FinishedRoomTTL))
		if stale {
			s.roomLog(r).WithField("idle", now.Sub(r.LastActivity).Round(time.Second)).Info("sweeping room")
			s.evict(r)
			evicted++
		}
		r.Mu.Unlock()
	}
	return evicted
}

// gameRecord snapshots the room for the result store. Assumes lock is held.
func (s *Service) gameRecord(r *Room, status string, impostorWon bool) models.GameRecord {
	rec := models.GameRecord{
		ID:          r.gameID,
		RoomCode:    r.Code,
		Word:        r.secretWord,
		ImpostorWon: impostorWon,
		Rounds:      r.round,
		Status:      status,
		StartedAt:   r.startedAt,
		FinishedAt:  s.sched.Now(),
	}
	for _, p := range r.Players() {
		if p.IsImpostor {
			rec.ImpostorID = p.ID
		}
		rec.Players = append(rec.Players, models.PlayerRecord{
			PlayerID:    p.ID,
			Name:        p.Name,
			WasImpostor: p.IsImpostor,
			Eliminated:  p.IsEliminated,
		})
	}
	return rec
}

func (s *Service) saveGame(rec models.GameRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.results.RecordGame(ctx, rec); err != nil {
		s.log.WithFields(logrus.Fields{"room": rec.RoomCode, "game": rec.ID}).Errorf("failed to record game: %v", err)
	}
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Jugador"
	}
	if r := []rune(name); len(r) > maxNameLength {
		name = string(r[:maxNameLength])
	}
	return name
}
