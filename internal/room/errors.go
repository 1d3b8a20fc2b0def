// internal/room/errors.go
package room

import "errors"

// Player-facing errors. They are reported only to the connection that caused them.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrGameInProgress     = errors.New("game already in progress")
	ErrCodeSpaceExhausted = errors.New("could not allocate a free room code")
	ErrUnknownPlayer      = errors.New("player is not in this room")
	ErrNotLeader          = errors.New("only the room leader can do that")
	ErrWrongPhase         = errors.New("action not allowed in the current phase")
	ErrNotEnoughPlayers   = errors.New("not enough players to start")
	ErrPlayerEliminated   = errors.New("eliminated players cannot act")
	ErrNotYourTurn        = errors.New("it is not your turn")
	ErrEmptyText          = errors.New("text must not be empty")
	ErrSelfVote           = errors.New("you cannot vote for yourself")
	ErrInvalidTarget      = errors.New("vote target is not a living player")
	ErrInvalidDecision    = errors.New("decision must be another-round or vote-now")
	ErrLeaderLeft         = errors.New("the room leader left; the game cannot be started")
)

// errorCodes maps sentinel errors to the stable codes sent on the wire.
var errorCodes = []struct {
	err  error
	code string
}{
	{ErrRoomNotFound, "room_not_found"},
	{ErrRoomFull, "room_full"},
	{ErrGameInProgress, "game_in_progress"},
	{ErrCodeSpaceExhausted, "code_space_exhausted"},
	{ErrUnknownPlayer, "unknown_player"},
	{ErrNotLeader, "not_leader"},
	{ErrWrongPhase, "wrong_phase"},
	{ErrNotEnoughPlayers, "not_enough_players"},
	{ErrPlayerEliminated, "player_eliminated"},
	{ErrNotYourTurn, "not_your_turn"},
	{ErrEmptyText, "empty_text"},
	{ErrSelfVote, "self_vote"},
	{ErrInvalidTarget, "invalid_target"},
	{ErrInvalidDecision, "invalid_decision"},
	{ErrLeaderLeft, "leader_left"},
}

// ErrorCode returns the wire code for err, or "internal" when err is not a known sentinel.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}
