// internal/room/config.go
package room

import "time"

// Config holds the game rules and pacing for every room a Service manages.
type Config struct {
	MaxPlayers           int
	MinPlayers           int
	MaxTextLength        int
	RequireLeaderToStart bool
	// ReshuffleAfterVote draws a new turn order after a vote that lets the game continue.
	// When false the previous order is reused with eliminated players filtered out.
	ReshuffleAfterVote bool

	TurnTimeout     time.Duration
	DecisionTimeout time.Duration
	VoteTimeout     time.Duration

	RoundStartDelay     time.Duration // before the first turn of a round
	TurnGap             time.Duration // between two turns
	ResolveGrace        time.Duration // after the last ballot of a poll or vote
	DecisionResultDelay time.Duration
	VoteResultDelay     time.Duration

	RoomIdleTTL     time.Duration
	FinishedRoomTTL time.Duration
}

// DefaultConfig returns the standard rules: 8 seats, 60s turns, 30s decision poll, 60s vote.
func DefaultConfig() Config {
	return Config{
		MaxPlayers:           8,
		MinPlayers:           2,
		MaxTextLength:        120,
		RequireLeaderToStart: true,
		ReshuffleAfterVote:   false,

		TurnTimeout:     60 * time.Second,
		DecisionTimeout: 30 * time.Second,
		VoteTimeout:     60 * time.Second,

		RoundStartDelay:     3 * time.Second,
		TurnGap:             1500 * time.Millisecond,
		ResolveGrace:        1 * time.Second,
		DecisionResultDelay: 3 * time.Second,
		VoteResultDelay:     5 * time.Second,

		RoomIdleTTL:     30 * time.Minute,
		FinishedRoomTTL: 10 * time.Minute,
	}
}
