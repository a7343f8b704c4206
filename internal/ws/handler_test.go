package ws

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jopatk123/myweb-sub001/internal/ai"
	"github.com/jopatk123/myweb-sub001/internal/game"
	"github.com/jopatk123/myweb-sub001/internal/registry"
	"github.com/jopatk123/myweb-sub001/internal/room"
	"github.com/jopatk123/myweb-sub001/internal/session"
	"github.com/jopatk123/myweb-sub001/pkg/protocol"
)

func newTestClient(t *testing.T, sid string) (*client, *registry.Registry, chan protocol.Event) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	timing := room.Timing{VoteWindow: time.Hour, TickInterval: time.Hour, EmptyTTL: time.Hour}
	reg := registry.New(ctx, timing, ai.Greedy{}, zap.NewNop())
	tracker := session.NewTracker(time.Minute, zap.NewNop())
	t.Cleanup(tracker.Close)

	out := make(chan protocol.Event, 32)
	c := &client{
		sid:     sid,
		out:     out,
		reg:     reg,
		tracker: tracker,
		logger:  zap.NewNop(),
	}
	return c, reg, out
}

func roomView(t *testing.T, rm *room.Room) room.View {
	t.Helper()
	reply := make(chan room.View, 1)
	rm.Inbox() <- room.GetView{Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for view")
		return room.View{} // unreachable
	}
}

func TestClient_SwitchingRoomsLeavesPrevious(t *testing.T) {
	c, _, _ := newTestClient(t, "s0")

	c.dispatch(protocol.CreateRoom{Mode: "shared", Name: "alice"})
	first := c.room
	if first == nil {
		t.Fatalf("first create did not seat the client")
	}

	c.dispatch(protocol.CreateRoom{Mode: "shared", Name: "alice"})
	second := c.room
	if second == nil || second == first {
		t.Fatalf("second create should move the client to a new room")
	}

	// The old room must not keep counting the session toward quorum or
	// presence once the connection has moved on.
	if v := roomView(t, first); len(v.Seats) != 0 || v.OnlineCount != 0 {
		t.Fatalf("old room still holds the session: %d seats, %d online", len(v.Seats), v.OnlineCount)
	}
	if v := roomView(t, second); len(v.Seats) != 1 {
		t.Fatalf("new room should hold the session, got %d seats", len(v.Seats))
	}
}

func TestClient_RejoiningSameRoomKeepsSeat(t *testing.T) {
	c, _, _ := newTestClient(t, "s0")

	c.dispatch(protocol.CreateRoom{Mode: "shared", Name: "alice"})
	rm := c.room
	if rm == nil {
		t.Fatalf("create did not seat the client")
	}

	c.dispatch(protocol.JoinRoom{Code: rm.Code(), Name: "alice"})
	if c.room != rm {
		t.Fatalf("rejoin moved the client off its room")
	}
	if v := roomView(t, rm); len(v.Seats) != 1 {
		t.Fatalf("rejoin should be idempotent, got %d seats", len(v.Seats))
	}
}

func TestClient_JoinDeadRoom_ReportsError(t *testing.T) {
	c, reg, out := newTestClient(t, "s0")

	reply := make(chan registry.CreateReply, 1)
	reg.Inbox() <- registry.Create{Mode: game.ModeShared, Reply: reply}
	rep := <-reply
	if rep.Err != nil {
		t.Fatalf("create: %v", rep.Err)
	}

	// Stop the room's loop directly; the registry index still points at it,
	// reproducing the window between expiry and removal.
	rep.Room.Inbox() <- room.Shutdown{}

	done := make(chan struct{})
	go func() {
		c.dispatch(protocol.JoinRoom{Code: rep.Code, Name: "alice"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(replyTimeout + 2*time.Second):
		t.Fatalf("join against a dead room never returned")
	}

	select {
	case ev := <-out:
		if ev.Type != protocol.TypeError {
			t.Fatalf("want error event, got %q", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatalf("no error event after dead-room join")
	}
	if c.room != nil {
		t.Fatalf("client must not be attached to a dead room")
	}
}
