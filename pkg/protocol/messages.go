package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Client -> server message types.
const (
	TypeCreateRoom  = "create_room"
	TypeJoinRoom    = "join_room"
	TypeToggleReady = "toggle_ready"
	TypeStartGame   = "start_game"
	TypeVote        = "vote"
	TypeMove        = "move"
	TypeLeaveRoom   = "leave_room"
)

// Server -> client event types.
const (
	TypeSessionAck    = "session_ack"
	TypeRoomCreated   = "room_created"
	TypeRoomJoined    = "room_joined"
	TypeRoomClosed    = "room_closed"
	TypePlayerJoined  = "player_joined"
	TypePlayerLeft    = "player_left"
	TypeHostChanged   = "host_changed"
	TypePlayerOffline = "player_offline"
	TypePlayerOnline  = "player_online"
	TypeReadyChanged  = "ready_changed"
	TypeVoteUpdate    = "vote_update"
	TypeGameStarted   = "game_started"
	TypeGameUpdate    = "game_update"
	TypeGameEnded     = "game_ended"
	TypeError         = "error"
)

var ErrUnknownType = errors.New("unknown message type")

// Envelope is the transport framing for inbound messages. Data stays raw
// until Decode picks the payload struct for Type.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event is an outbound envelope. Data is marshalled as-is.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// ErrorData is the payload of a TypeError event.
type ErrorData struct {
	Message string `json:"message"`
}

type CreateRoom struct {
	Mode       string `json:"mode"`
	Name       string `json:"name"`
	MaxPlayers int    `json:"max_players,omitempty"`
	WithAI     bool   `json:"with_ai,omitempty"`
}

type JoinRoom struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type ToggleReady struct {
	Ready bool `json:"ready"`
}

type StartGame struct{}

type Vote struct {
	Direction string `json:"direction"`
}

// Move carries either a board placement (turn-based) or a steering intent
// (competitive). Exactly one of the two shapes is expected; the room decides
// by mode.
type Move struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Direction string `json:"direction,omitempty"`
}

type LeaveRoom struct{}

const maxNameLen = 24

// Decode validates the envelope at the boundary and returns the typed
// payload. Adding a message type means adding a case here; the dispatch in
// the transport layer switches on the returned concrete type.
func Decode(env Envelope) (any, error) {
	switch env.Type {
	case TypeCreateRoom:
		var p CreateRoom
		if err := unmarshal(env.Data, &p); err != nil {
			return nil, err
		}
		if p.Mode == "" {
			return nil, fmt.Errorf("%s: missing mode", env.Type)
		}
		if len(p.Name) > maxNameLen {
			p.Name = p.Name[:maxNameLen]
		}
		return p, nil
	case TypeJoinRoom:
		var p JoinRoom
		if err := unmarshal(env.Data, &p); err != nil {
			return nil, err
		}
		if p.Code == "" {
			return nil, fmt.Errorf("%s: missing code", env.Type)
		}
		if len(p.Name) > maxNameLen {
			p.Name = p.Name[:maxNameLen]
		}
		return p, nil
	case TypeToggleReady:
		var p ToggleReady
		if err := unmarshal(env.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeStartGame:
		return StartGame{}, nil
	case TypeVote:
		var p Vote
		if err := unmarshal(env.Data, &p); err != nil {
			return nil, err
		}
		if p.Direction == "" {
			return nil, fmt.Errorf("%s: missing direction", env.Type)
		}
		return p, nil
	case TypeMove:
		var p Move
		if err := unmarshal(env.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeLeaveRoom:
		return LeaveRoom{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func unmarshal(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
