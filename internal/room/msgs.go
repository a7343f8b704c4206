package room

import (
	"github.com/jopatk123/myweb-sub001/internal/game"
	"github.com/jopatk123/myweb-sub001/pkg/protocol"
)

// Msg is the tagged union of everything a room actor can receive. All room
// state lives behind the actor loop; there is no other way in.
type Msg interface{ isRoomMsg() }

// Join seats a session, or re-attaches an existing seat on reconnect or a
// duplicate join (idempotent: same seat either way).
type Join struct {
	SessionID string
	Name      string
	Outbox    chan protocol.Event
	Reply     chan JoinReply
}

type JoinReply struct {
	Seat     int
	Snapshot Snapshot
	Err      error
}

type Leave struct{ SessionID string }

type SetReady struct {
	SessionID string
	Ready     bool
}

type Start struct {
	SessionID string
	Reply     chan error
}

// CastVote is a shared-mode directional vote, latest-wins per session within
// a tick window.
type CastVote struct {
	SessionID string
	Dir       game.Direction
}

// Steer is a competitive-mode heading intent for the session's own actor.
type Steer struct {
	SessionID string
	Dir       game.Direction
}

// Place is a turn-based board placement.
type Place struct {
	SessionID string
	X, Y      int
}

// Offline marks a seat disconnected; the seat is retained for the reconnect
// window rather than removed.
type Offline struct{ SessionID string }

// GetView reflects internal state without data races (test support).
type GetView struct{ Reply chan View }

type Shutdown struct{}

// Internal timer messages. Each carries the generation it was armed under so
// stale fires are dropped.
type voteExpired struct{ gen uint64 }
type tickFired struct{ gen uint64 }
type graceExpired struct{ gen uint64 }

func (Join) isRoomMsg()         {}
func (Leave) isRoomMsg()        {}
func (SetReady) isRoomMsg()     {}
func (Start) isRoomMsg()        {}
func (CastVote) isRoomMsg()     {}
func (Steer) isRoomMsg()        {}
func (Place) isRoomMsg()        {}
func (Offline) isRoomMsg()      {}
func (GetView) isRoomMsg()      {}
func (Shutdown) isRoomMsg()     {}
func (voteExpired) isRoomMsg()  {}
func (tickFired) isRoomMsg()    {}
func (graceExpired) isRoomMsg() {}
