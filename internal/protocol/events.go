// internal/protocol/events.go
package protocol

// Event type names sent from the server.
const (
	EventConnected      = "connected"
	EventRoomCreated    = "room-created"
	EventJoinSuccess    = "join-success"
	EventJoinError      = "join-error"
	EventPlayersUpdated = "players-updated"
	EventGameStarted    = "game-started"
	EventNewTurn        = "new-turn"
	EventTextReceived   = "text-received"
	EventTurnSkipped    = "turn-skipped"
	EventDecisionPhase  = "decision-phase"
	EventDecisionCounts = "decision-counts"
	EventDecisionResult = "decision-result"
	EventVotePhase      = "vote-phase"
	EventVoteCounts     = "vote-counts"
	EventVoteResult     = "vote-result"
	EventBackToRoom     = "back-to-room"
	EventError          = "error"
)

// Roles carried in GameStarted.
const (
	RoleImpostor = "impostor"
	RoleCivilian = "civilian"
)

// Event is a server message. Like Action, the set of implementations is closed.
type Event interface {
	EventType() string
	isEvent()
}

// PlayerView is the role-free public projection of a player.
type PlayerView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	IsLeader     bool   `json:"isLeader"`
	IsEliminated bool   `json:"isEliminated"`
	Connected    bool   `json:"connected"`
}

// TallyEntry is one bucket of a vote tally, kept in first-vote order.
type TallyEntry struct {
	PlayerID string `json:"playerId"`
	Votes    int    `json:"votes"`
}

// Connected is sent once per socket so the client learns its own id.
type Connected struct {
	ID string `json:"id"`
}

type RoomCreated struct {
	Code    string       `json:"code"`
	Players []PlayerView `json:"players"`
}

type JoinSuccess struct {
	Code string `json:"code"`
}

type JoinError struct {
	Message string `json:"message"`
}

type PlayersUpdated struct {
	Code    string       `json:"code"`
	Players []PlayerView `json:"players"`
}

// GameStarted is sent privately to each player. SecretWord is empty for the impostor.
type GameStarted struct {
	Code       string       `json:"code"`
	Role       string       `json:"role"`
	IsImpostor bool         `json:"isImpostor"`
	SecretWord string       `json:"secretWord,omitempty"`
	Players    []PlayerView `json:"players"`
}

// NewTurn is sent to every member with IsYourTurn set per recipient.
type NewTurn struct {
	PlayerID       string `json:"playerId"`
	Name           string `json:"name"`
	IsYourTurn     bool   `json:"isYourTurn"`
	Round          int    `json:"round"`
	TurnIndex      int    `json:"turnIndex"`
	TurnCount      int    `json:"turnCount"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type TextReceived struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Text     string `json:"text"`
}

type TurnSkipped struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Reason   string `json:"reason"`
}

type DecisionPhase struct {
	Round          int `json:"round"`
	Voters         int `json:"voters"`
	TimeoutSeconds int `json:"timeoutSeconds"`
}

type DecisionCounts struct {
	AnotherRound int `json:"anotherRound"`
	VoteNow      int `json:"voteNow"`
	Voted        int `json:"voted"`
	Voters       int `json:"voters"`
}

type DecisionResult struct {
	Decision     Decision `json:"decision"`
	AnotherRound int      `json:"anotherRound"`
	VoteNow      int      `json:"voteNow"`
}

type VotePhase struct {
	Votable        []PlayerView `json:"votable"`
	Players        []PlayerView `json:"players"`
	TimeoutSeconds int          `json:"timeoutSeconds"`
}

type VoteCounts struct {
	Tally  []TallyEntry `json:"tally"`
	Voted  int          `json:"voted"`
	Voters int          `json:"voters"`
}

// VoteResult closes a vote. Impostor and SecretWord are only revealed once the game is over.
type VoteResult struct {
	Tie                bool         `json:"tie"`
	Eliminated         *PlayerView  `json:"eliminated,omitempty"`
	ImpostorEliminated bool         `json:"impostorEliminated"`
	GameOver           bool         `json:"gameOver"`
	ImpostorWon        bool         `json:"impostorWon"`
	Impostor           *PlayerView  `json:"impostor,omitempty"`
	SecretWord         string       `json:"secretWord,omitempty"`
	Tally              []TallyEntry `json:"tally"`
}

type BackToRoom struct {
	Code    string       `json:"code"`
	Players []PlayerView `json:"players"`
}

// Error reports a rejected action to the connection that sent it.
type Error struct {
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (Connected) EventType() string      { return EventConnected }
func (RoomCreated) EventType() string    { return EventRoomCreated }
func (JoinSuccess) EventType() string    { return EventJoinSuccess }
func (JoinError) EventType() string      { return EventJoinError }
func (PlayersUpdated) EventType() string { return EventPlayersUpdated }
func (GameStarted) EventType() string    { return EventGameStarted }
func (NewTurn) EventType() string        { return EventNewTurn }
func (TextReceived) EventType() string   { return EventTextReceived }
func (TurnSkipped) EventType() string    { return EventTurnSkipped }
func (DecisionPhase) EventType() string  { return EventDecisionPhase }
func (DecisionCounts) EventType() string { return EventDecisionCounts }
func (DecisionResult) EventType() string { return EventDecisionResult }
func (VotePhase) EventType() string      { return EventVotePhase }
func (VoteCounts) EventType() string     { return EventVoteCounts }
func (VoteResult) EventType() string     { return EventVoteResult }
func (BackToRoom) EventType() string     { return EventBackToRoom }
func (Error) EventType() string          { return EventError }

func (Connected) isEvent()      {}
func (RoomCreated) isEvent()    {}
func (JoinSuccess) isEvent()    {}
func (JoinError) isEvent()      {}
func (PlayersUpdated) isEvent() {}
func (GameStarted) isEvent()    {}
func (NewTurn) isEvent()        {}
func (TextReceived) isEvent()   {}
func (TurnSkipped) isEvent()    {}
func (DecisionPhase) isEvent()  {}
func (DecisionCounts) isEvent() {}
func (DecisionResult) isEvent() {}
func (VotePhase) isEvent()      {}
func (VoteCounts) isEvent()     {}
func (VoteResult) isEvent()     {}
func (BackToRoom) isEvent()     {}
func (Error) isEvent()          {}
