// internal/protocol/codec.go
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType is returned when a frame names a type this codec does not know.
var ErrUnknownType = errors.New("unknown message type")

// Envelope is the JSON frame shared by both directions: {"type": ..., "payload": {...}}.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DecodeAction parses an incoming frame into its concrete Action.
func DecodeAction(data []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var a Action
	var err error
	switch env.Type {
	case TypeCreateRoom:
		a, err = decodePayload[CreateRoom](env.Payload)
	case TypeJoinRoom:
		a, err = decodePayload[JoinRoom](env.Payload)
	case TypeStartGame:
		a, err = decodePayload[StartGame](env.Payload)
	case TypeSubmitText:
		a, err = decodePayload[SubmitText](env.Payload)
	case TypeCastDecision:
		a, err = decodePayload[CastDecision](env.Payload)
	case TypeCastVote:
		a, err = decodePayload[CastVote](env.Payload)
	case TypeRestartGame:
		a, err = decodePayload[RestartGame](env.Payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return a, nil
}

// EncodeAction is the client-side counterpart of DecodeAction.
func EncodeAction(a Action) ([]byte, error) {
	return encode(a.ActionType(), a)
}

// EncodeEvent marshals an event into an envelope frame.
func EncodeEvent(ev Event) ([]byte, error) {
	return encode(ev.EventType(), ev)
}

// DecodeEvent parses a server frame. Used by clients and tests.
func DecodeEvent(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var ev Event
	var err error
	switch env.Type {
	case EventConnected:
		ev, err = decodePayload[Connected](env.Payload)
	case EventRoomCreated:
		ev, err = decodePayload[RoomCreated](env.Payload)
	case EventJoinSuccess:
		ev, err = decodePayload[JoinSuccess](env.Payload)
	case EventJoinError:
		ev, err = decodePayload[JoinError](env.Payload)
	case EventPlayersUpdated:
		ev, err = decodePayload[PlayersUpdated](env.Payload)
	case EventGameStarted:
		ev, err = decodePayload[GameStarted](env.Payload)
	case EventNewTurn:
		ev, err = decodePayload[NewTurn](env.Payload)
	case EventTextReceived:
		ev, err = decodePayload[TextReceived](env.Payload)
	case EventTurnSkipped:
		ev, err = decodePayload[TurnSkipped](env.Payload)
	case EventDecisionPhase:
		ev, err = decodePayload[DecisionPhase](env.Payload)
	case EventDecisionCounts:
		ev, err = decodePayload[DecisionCounts](env.Payload)
	case EventDecisionResult:
		ev, err = decodePayload[DecisionResult](env.Payload)
	case EventVotePhase:
		ev, err = decodePayload[VotePhase](env.Payload)
	case EventVoteCounts:
		ev, err = decodePayload[VoteCounts](env.Payload)
	case EventVoteResult:
		ev, err = decodePayload[VoteResult](env.Payload)
	case EventBackToRoom:
		ev, err = decodePayload[BackToRoom](env.Payload)
	case EventError:
		ev, err = decodePayload[Error](env.Payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return ev, nil
}

func encode(typ string, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return json.Marshal(Envelope{Type: typ, Payload: payload})
}

// decodePayload tolerates a missing payload, leaving the zero value.
func decodePayload[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, nil
	}
	err := json.Unmarshal(raw, &v)
	return v, err
}
