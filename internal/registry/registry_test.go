package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jopatk123/myweb-sub001/internal/ai"
	"github.com/jopatk123/myweb-sub001/internal/game"
	"github.com/jopatk123/myweb-sub001/internal/room"
	"github.com/jopatk123/myweb-sub001/pkg/protocol"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	timing := room.Timing{
		VoteWindow:   time.Hour,
		TickInterval: time.Hour,
		EmptyTTL:     time.Hour,
	}
	return New(ctx, timing, ai.Greedy{}, zap.NewNop())
}

func create(t *testing.T, g *Registry, mode game.Mode, settings room.Settings) CreateReply {
	t.Helper()
	reply := make(chan CreateReply, 1)
	g.Inbox() <- Create{HostSessionID: "host", Mode: mode, Settings: settings, Reply: reply}
	select {
	case rep := <-reply:
		return rep
	case <-time.After(time.Second):
		t.Fatalf("timed out creating room")
		return CreateReply{} // unreachable
	}
}

func TestRegistry_CreateAndGet_SamePointer(t *testing.T) {
	g := newTestRegistry(t)

	rep := create(t, g, game.ModeShared, room.Settings{})
	require.NoError(t, rep.Err)
	require.NotNil(t, rep.Room)
	assert.Len(t, rep.Code, 6)

	reply := make(chan *room.Room, 1)
	g.Inbox() <- Get{Code: rep.Code, Reply: reply}
	assert.Same(t, rep.Room, <-reply)
}

func TestRegistry_Get_UnknownCodeIsNil(t *testing.T) {
	g := newTestRegistry(t)

	reply := make(chan *room.Room, 1)
	g.Inbox() <- Get{Code: "NOSUCH", Reply: reply}
	assert.Nil(t, <-reply)
}

func TestRegistry_Create_ValidatesSettings(t *testing.T) {
	g := newTestRegistry(t)

	cases := []struct {
		name     string
		mode     game.Mode
		settings room.Settings
		wantErr  error
	}{
		{"unknown mode", game.Mode("bogus"), room.Settings{}, ErrUnsupportedMode},
		{"ai outside turn-based", game.ModeShared, room.Settings{WithAI: true}, ErrBadSettings},
		{"too many players", game.ModeCompetitive, room.Settings{MaxPlayers: 9}, ErrBadSettings},
		{"negative players", game.ModeShared, room.Settings{MaxPlayers: -1}, ErrBadSettings},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rep := create(t, g, tc.mode, tc.settings)
			assert.ErrorIs(t, rep.Err, tc.wantErr)
			assert.Nil(t, rep.Room)
		})
	}
}

func TestRegistry_Create_TurnBasedForcesTwoSeats(t *testing.T) {
	g := newTestRegistry(t)

	rep := create(t, g, game.ModeTurnBased, room.Settings{MaxPlayers: 7, WithAI: true})
	require.NoError(t, rep.Err)

	reply := make(chan []Info, 1)
	g.Inbox() <- List{Reply: reply}
	infos := <-reply
	require.Len(t, infos, 1)
	assert.Equal(t, 2, infos[0].MaxPlayers)
	assert.Equal(t, game.ModeTurnBased, infos[0].Mode)
	assert.Equal(t, room.StatusWaiting, infos[0].Status)
}

func TestRegistry_Remove_DropsRoom(t *testing.T) {
	g := newTestRegistry(t)

	rep := create(t, g, game.ModeShared, room.Settings{})
	require.NoError(t, rep.Err)

	g.Inbox() <- Remove{Code: rep.Code}

	reply := make(chan *room.Room, 1)
	g.Inbox() <- Get{Code: rep.Code, Reply: reply}
	assert.Nil(t, <-reply)
}

func TestRegistry_Watchers_SeeLifecycle(t *testing.T) {
	g := newTestRegistry(t)

	out := make(chan protocol.Event, 4)
	g.Inbox() <- Watch{ID: "lurker", Outbox: out}

	rep := create(t, g, game.ModeShared, room.Settings{})
	require.NoError(t, rep.Err)

	select {
	case ev := <-out:
		assert.Equal(t, protocol.TypeRoomCreated, ev.Type)
	case <-time.After(time.Second):
		t.Fatalf("watcher never notified of creation")
	}

	g.Inbox() <- Remove{Code: rep.Code}
	select {
	case ev := <-out:
		assert.Equal(t, protocol.TypeRoomClosed, ev.Type)
	case <-time.After(time.Second):
		t.Fatalf("watcher never notified of close")
	}
}
