package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/jopatk123/myweb-sub001/internal/game"
	"github.com/jopatk123/myweb-sub001/internal/registry"
	"github.com/jopatk123/myweb-sub001/internal/room"
	"github.com/jopatk123/myweb-sub001/internal/session"
	"github.com/jopatk123/myweb-sub001/pkg/protocol"
)

const (
	readTimeout  = 5 * time.Minute
	writeTimeout = 3 * time.Second
	replyTimeout = 2 * time.Second
	outboxSize   = 16
)

// Handler upgrades the connection, resolves the session, and pumps messages
// between the socket and the actor side. One reader loop, one writer
// goroutine; the outbox channel preserves production order.
func Handler(reg *registry.Registry, tracker *session.Tracker, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		sid, resumed := tracker.Resolve(r.URL.Query().Get("session"))
		out := make(chan protocol.Event, outboxSize)

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go writer(writeCtx, conn, out)

		c := &client{
			sid:     sid,
			out:     out,
			reg:     reg,
			tracker: tracker,
			logger:  logger.With(zap.String("session_id", sid)),
		}
		c.send(protocol.TypeSessionAck, map[string]any{
			"session_id": sid,
			"resumed":    resumed,
		})
		reg.Inbox() <- registry.Watch{ID: sid, Outbox: out}
		defer c.teardown()

		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				return
			}

			var env protocol.Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				c.sendError("bad json")
				continue
			}
			payload, err := protocol.Decode(env)
			if err != nil {
				c.sendError(err.Error())
				continue
			}
			c.dispatch(payload)
		}
	}
}

func writer(ctx context.Context, conn *websocket.Conn, out <-chan protocol.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-out:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			_ = conn.Write(wctx, websocket.MessageText, payload)
			cancel()
		}
	}
}

// client is the per-connection routing state: the resolved session and, at
// most, one current room.
type client struct {
	sid     string
	out     chan protocol.Event
	reg     *registry.Registry
	tracker *session.Tracker
	room    *room.Room
	logger  *zap.Logger
}

func (c *client) dispatch(payload any) {
	switch p := payload.(type) {
	case protocol.CreateRoom:
		c.createRoom(p)
	case protocol.JoinRoom:
		c.joinByCode(p.Code, p.Name)
	case protocol.ToggleReady:
		if c.requireRoom() {
			c.room.Inbox() <- room.SetReady{SessionID: c.sid, Ready: p.Ready}
		}
	case protocol.StartGame:
		if c.requireRoom() {
			reply := make(chan error, 1)
			c.room.Inbox() <- room.Start{SessionID: c.sid, Reply: reply}
			select {
			case err := <-reply:
				if err != nil {
					c.sendError(err.Error())
				}
			case <-time.After(replyTimeout):
				c.sendError("room closed")
			}
		}
	case protocol.Vote:
		dir, ok := game.ParseDirection(p.Direction)
		if !ok {
			c.sendError("bad direction")
			return
		}
		if c.requireRoom() {
			c.room.Inbox() <- room.CastVote{SessionID: c.sid, Dir: dir}
		}
	case protocol.Move:
		c.move(p)
	case protocol.LeaveRoom:
		if c.room != nil {
			c.leaveCurrent()
			c.reg.Inbox() <- registry.Watch{ID: c.sid, Outbox: c.out}
		}
	}
}

func (c *client) createRoom(p protocol.CreateRoom) {
	mode, ok := game.ParseMode(p.Mode)
	if !ok {
		c.sendError("unsupported mode")
		return
	}
	reply := make(chan registry.CreateReply, 1)
	c.reg.Inbox() <- registry.Create{
		HostSessionID: c.sid,
		Mode:          mode,
		Settings:      room.Settings{MaxPlayers: p.MaxPlayers, WithAI: p.WithAI},
		Reply:         reply,
	}
	rep := <-reply
	if rep.Err != nil {
		c.sendError(rep.Err.Error())
		return
	}
	c.send(protocol.TypeRoomCreated, map[string]any{"code": rep.Code})
	c.join(rep.Room, p.Name)
}

func (c *client) joinByCode(code, name string) {
	reply := make(chan *room.Room, 1)
	c.reg.Inbox() <- registry.Get{Code: code, Reply: reply}
	rm := <-reply
	if rm == nil {
		c.sendError("room not found")
		return
	}
	c.join(rm, name)
}

func (c *client) join(rm *room.Room, name string) {
	if name == "" {
		name = "Player"
	}
	// A connection is in at most one room; switching leaves the old one
	// first so its presence counts stay correct.
	if c.room != nil && c.room != rm {
		c.leaveCurrent()
	}

	reply := make(chan room.JoinReply, 1)
	rm.Inbox() <- room.Join{SessionID: c.sid, Name: name, Outbox: c.out, Reply: reply}
	var rep room.JoinReply
	select {
	case rep = <-reply:
	case <-time.After(replyTimeout):
		// The room's loop already exited (expired but not yet removed
		// from the registry index).
		c.sendError("room closed")
		return
	}
	if rep.Err != nil {
		c.sendError(rep.Err.Error())
		return
	}
	c.room = rm
	c.reg.Inbox() <- registry.Unwatch{ID: c.sid}
	c.send(protocol.TypeRoomJoined, map[string]any{
		"you":  rep.Seat,
		"room": rep.Snapshot,
	})
}

func (c *client) leaveCurrent() {
	c.room.Inbox() <- room.Leave{SessionID: c.sid}
	c.room = nil
}

// move routes by room mode: a placement for turn-based boards, a steering
// intent for competitive arenas.
func (c *client) move(p protocol.Move) {
	if !c.requireRoom() {
		return
	}
	if c.room.Mode() == game.ModeCompetitive {
		dir, ok := game.ParseDirection(p.Direction)
		if !ok {
			c.sendError("bad direction")
			return
		}
		c.room.Inbox() <- room.Steer{SessionID: c.sid, Dir: dir}
		return
	}
	c.room.Inbox() <- room.Place{SessionID: c.sid, X: p.X, Y: p.Y}
}

func (c *client) requireRoom() bool {
	if c.room == nil {
		c.sendError("not in a room")
		return false
	}
	return true
}

// teardown runs on transport close: the seat goes offline (grace period
// starts), membership is not removed here.
func (c *client) teardown() {
	c.tracker.MarkOffline(c.sid)
	if c.room != nil {
		c.room.Inbox() <- room.Offline{SessionID: c.sid}
	}
	c.reg.Inbox() <- registry.Unwatch{ID: c.sid}
}

func (c *client) send(typ string, data any) {
	select {
	case c.out <- protocol.Event{Type: typ, Data: data}:
	default:
	}
}

func (c *client) sendError(message string) {
	c.send(protocol.TypeError, protocol.ErrorData{Message: message})
}
