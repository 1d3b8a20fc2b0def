// internal/protocol/actions.go
package protocol

// Action type names as they appear in the "type" field of an incoming frame.
const (
	TypeCreateRoom   = "create-room"
	TypeJoinRoom     = "join-room"
	TypeStartGame    = "start-game"
	TypeSubmitText   = "submit-text"
	TypeCastDecision = "cast-decision"
	TypeCastVote     = "cast-vote"
	TypeRestartGame  = "restart-game"
)

// Decision is a choice in the poll held after each full round of turns.
type Decision string

const (
	DecisionAnotherRound Decision = "another-round"
	DecisionVoteNow      Decision = "vote-now"
)

// Valid reports whether d is one of the two accepted choices.
func (d Decision) Valid() bool {
	return d == DecisionAnotherRound || d == DecisionVoteNow
}

// Action is a client request. The set of implementations is closed: only the
// types in this file satisfy it.
type Action interface {
	ActionType() string
	isAction()
}

type CreateRoom struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type JoinRoom struct {
	Name   string `json:"name"`
	Code   string `json:"code"`
	Avatar string `json:"avatar"`
}

type StartGame struct {
	Code string `json:"code"`
}

type SubmitText struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

type CastDecision struct {
	Code     string   `json:"code"`
	Decision Decision `json:"decision"`
}

type CastVote struct {
	Code     string `json:"code"`
	TargetID string `json:"targetId"`
}

type RestartGame struct {
	Code string `json:"code"`
}

func (CreateRoom) ActionType() string   { return TypeCreateRoom }
func (JoinRoom) ActionType() string     { return TypeJoinRoom }
func (StartGame) ActionType() string    { return TypeStartGame }
func (SubmitText) ActionType() string   { return TypeSubmitText }
func (CastDecision) ActionType() string { return TypeCastDecision }
func (CastVote) ActionType() string     { return TypeCastVote }
func (RestartGame) ActionType() string  { return TypeRestartGame }

func (CreateRoom) isAction()   {}
func (JoinRoom) isAction()     {}
func (StartGame) isAction()    {}
func (SubmitText) isAction()   {}
func (CastDecision) isAction() {}
func (CastVote) isAction()     {}
func (RestartGame) isAction()  {}
