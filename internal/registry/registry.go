package registry

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/jopatk123/myweb-sub001/internal/ai"
	"github.com/jopatk123/myweb-sub001/internal/game"
	"github.com/jopatk123/myweb-sub001/internal/room"
	"github.com/jopatk123/myweb-sub001/pkg/protocol"
)

var (
	ErrUnsupportedMode = errors.New("unsupported game mode")
	ErrBadSettings     = errors.New("invalid room settings")
)

type Msg interface{ isRegistryMsg() }

type Create struct {
	HostSessionID string
	Mode          game.Mode
	Settings      room.Settings
	Reply         chan CreateReply
}

type CreateReply struct {
	Room *room.Room
	Code string
	Err  error
}

type Get struct {
	Code  string
	Reply chan *room.Room
}

type Remove struct{ Code string }

type List struct{ Reply chan []Info }

// Watch subscribes a not-yet-joined client to public room-list changes.
// Only create/close events flow here; in-room state never does.
type Watch struct {
	ID     string
	Outbox chan protocol.Event
}

type Unwatch struct{ ID string }

type ShutdownRegistry struct{}

func (Create) isRegistryMsg()           {}
func (Get) isRegistryMsg()              {}
func (Remove) isRegistryMsg()           {}
func (List) isRegistryMsg()             {}
func (Watch) isRegistryMsg()            {}
func (Unwatch) isRegistryMsg()          {}
func (ShutdownRegistry) isRegistryMsg() {}

// Info is one row of the public room list.
type Info struct {
	Code       string      `json:"code"`
	Mode       game.Mode   `json:"mode"`
	Status     room.Status `json:"status"`
	Players    int         `json:"players"`
	MaxPlayers int         `json:"max_players"`
}

// Registry owns the code->room index, nothing else. Room internals stay
// behind each room's own goroutine, so a busy room never blocks creation or
// destruction of others.
type Registry struct {
	inbox    chan Msg
	rooms    map[string]*room.Room
	watchers map[string]chan protocol.Event
	timing   room.Timing
	suggest  ai.Suggester
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.Logger
}

func New(parent context.Context, timing room.Timing, suggest ai.Suggester, logger *zap.Logger) *Registry {
	ctx, cancel := context.WithCancel(parent)
	g := &Registry{
		inbox:    make(chan Msg, 64),
		rooms:    make(map[string]*room.Room),
		watchers: make(map[string]chan protocol.Event),
		timing:   timing,
		suggest:  suggest,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
	}
	go g.loop()
	return g
}

func (g *Registry) Inbox() chan<- Msg { return g.inbox }

func (g *Registry) loop() {
	for {
		select {
		case <-g.ctx.Done():
			g.shutdown()
			return

		case m := <-g.inbox:
			switch msg := m.(type) {
			case Create:
				msg.Reply <- g.create(msg)
			case Get:
				msg.Reply <- g.rooms[msg.Code] // may be nil
			case Remove:
				g.remove(msg.Code)
			case List:
				msg.Reply <- g.list()
			case Watch:
				g.watchers[msg.ID] = msg.Outbox
			case Unwatch:
				delete(g.watchers, msg.ID)
			case ShutdownRegistry:
				g.shutdown()
				return
			}
		}
	}
}

func (g *Registry) create(msg Create) CreateReply {
	settings, err := normalizeSettings(msg.Mode, msg.Settings)
	if err != nil {
		return CreateReply{Err: err}
	}

	var code string
	for {
		c, err := generateCode()
		if err != nil {
			return CreateReply{Err: err}
		}
		if _, taken := g.rooms[c]; !taken {
			code = c
			break
		}
		g.logger.Debug("join code collision, regenerating")
	}

	onEmpty := func(code string) {
		select {
		case g.inbox <- Remove{Code: code}:
		case <-g.ctx.Done():
		}
	}
	rm := room.New(g.ctx, code, msg.Mode, msg.HostSessionID, settings, g.timing, g.suggest, onEmpty, g.logger)
	g.rooms[code] = rm

	g.notifyWatchers(protocol.TypeRoomCreated, map[string]any{
		"code": code,
		"mode": msg.Mode,
	})
	g.logger.Info("room created",
		zap.String("room", code), zap.String("mode", string(msg.Mode)))
	return CreateReply{Room: rm, Code: code}
}

func (g *Registry) remove(code string) {
	rm, ok := g.rooms[code]
	if !ok {
		return
	}
	delete(g.rooms, code)
	// Best effort: the room usually initiated its own removal and is
	// already winding down.
	select {
	case rm.Inbox() <- room.Shutdown{}:
	default:
	}
	g.notifyWatchers(protocol.TypeRoomClosed, map[string]any{"code": code})
	g.logger.Info("room removed", zap.String("room", code))
}

// list queries each room with a short deadline so one wedged room cannot
// stall the lobby view.
func (g *Registry) list() []Info {
	infos := make([]Info, 0, len(g.rooms))
	for code, rm := range g.rooms {
		reply := make(chan room.View, 1)
		select {
		case rm.Inbox() <- room.GetView{Reply: reply}:
		case <-time.After(100 * time.Millisecond):
			continue
		}
		select {
		case v := <-reply:
			infos = append(infos, Info{
				Code:       code,
				Mode:       v.Mode,
				Status:     v.Status,
				Players:    len(v.Seats),
				MaxPlayers: v.MaxPlayers,
			})
		case <-time.After(100 * time.Millisecond):
		}
	}
	return infos
}

func (g *Registry) notifyWatchers(typ string, data any) {
	ev := protocol.Event{Type: typ, Data: data}
	for id, ch := range g.watchers {
		select {
		case ch <- ev:
		default:
			delete(g.watchers, id)
		}
	}
}

func (g *Registry) shutdown() {
	for _, rm := range g.rooms {
		select {
		case rm.Inbox() <- room.Shutdown{}:
		default:
		}
	}
	clear(g.rooms)
	clear(g.watchers)
	g.cancel()
}

const (
	defaultMaxPlayers = 4
	maxMaxPlayers     = 8
)

func normalizeSettings(mode game.Mode, s room.Settings) (room.Settings, error) {
	if _, ok := game.ParseMode(string(mode)); !ok {
		return s, ErrUnsupportedMode
	}
	switch mode {
	case game.ModeTurnBased:
		s.MaxPlayers = 2
	default:
		if s.WithAI {
			return s, ErrBadSettings
		}
		if s.MaxPlayers == 0 {
			s.MaxPlayers = defaultMaxPlayers
		}
		if s.MaxPlayers < 1 || s.MaxPlayers > maxMaxPlayers {
			return s, ErrBadSettings
		}
	}
	return s, nil
}

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateCode() (string, error) {
	code := make([]byte, 6)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[num.Int64()]
	}
	return string(code), nil
}
