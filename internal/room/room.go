package room

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jopatk123/myweb-sub001/internal/ai"
	"github.com/jopatk123/myweb-sub001/internal/game"
	"github.com/jopatk123/myweb-sub001/pkg/protocol"
)

var (
	ErrRoomFull            = errors.New("room is full")
	ErrAlreadyStarted      = errors.New("game already started")
	ErrNotHost             = errors.New("only the host can start the game")
	ErrNotAllReady         = errors.New("not all players are ready")
	ErrInsufficientPlayers = errors.New("not enough players")
)

type Status string

// Status only advances forward; there is no path back from playing.
const (
	StatusWaiting  Status = "waiting"
	StatusStarting Status = "starting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Game-over reasons carried in the game_ended broadcast.
const (
	ReasonVictory       = "victory"
	ReasonDraw          = "draw"
	ReasonCollision     = "collision"
	ReasonForfeit       = "forfeit"
	ReasonRuleViolation = "rule_violation"
)

type Settings struct {
	MaxPlayers int
	WithAI     bool
	Seed       int64
}

// Timing groups the tunable windows. The vote window default (~80ms) is
// deliberately configurable; see VOTE_WINDOW_MS.
type Timing struct {
	VoteWindow   time.Duration
	TickInterval time.Duration
	EmptyTTL     time.Duration
}

var seatColors = []string{"green", "red", "blue", "purple", "orange", "teal", "pink", "yellow"}

// Seat is a player's stable slot. Index is assigned in join order and is the
// deterministic tie-break source for votes and host promotion.
type Seat struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Index     int    `json:"seat"`
	Color     string `json:"color"`
	Ready     bool   `json:"ready"`
	Online    bool   `json:"online"`
	IsAI      bool   `json:"is_ai,omitempty"`

	outbox chan protocol.Event
}

// Room owns one game session. A single goroutine runs the loop and is the
// only writer of any field; everything arrives through the inbox.
type Room struct {
	code      string
	mode      game.Mode
	status    Status
	seats     []*Seat
	hostID    string
	createdBy string
	settings  Settings
	timing    Timing

	shared  *game.SharedState
	arena   *game.Arena
	board   *game.Board
	suggest ai.Suggester
	aiSeat  int

	ballots   ballotBox
	voteGen   uint64
	voteTimer *time.Timer
	tickGen   uint64
	tickTimer *time.Timer
	graceGen  uint64
	graceTmr  *time.Timer

	inbox   chan Msg
	ctx     context.Context
	cancel  context.CancelFunc
	onEmpty func(code string)
	logger  *zap.Logger
}

// New starts the room's goroutine. onEmpty is called (from the room
// goroutine) when the room should be removed from the registry index.
func New(parent context.Context, code string, mode game.Mode, createdBy string,
	settings Settings, timing Timing, suggest ai.Suggester,
	onEmpty func(code string), logger *zap.Logger) *Room {

	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		code:      code,
		mode:      mode,
		status:    StatusWaiting,
		hostID:    createdBy,
		createdBy: createdBy,
		settings:  settings,
		timing:    timing,
		suggest:   suggest,
		aiSeat:    -1,
		ballots:   newBallotBox(),
		inbox:     make(chan Msg, 64),
		ctx:       ctx,
		cancel:    cancel,
		onEmpty:   onEmpty,
		logger:    logger.With(zap.String("room", code)),
	}
	// A room nobody ever claims expires like any other empty room; the
	// first join cancels this.
	r.armGrace()
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }
func (r *Room) Code() string      { return r.code }
func (r *Room) Mode() game.Mode   { return r.mode }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)
			case Leave:
				r.handleLeave(msg.SessionID)
			case SetReady:
				r.handleReady(msg)
			case Start:
				msg.Reply <- r.handleStart(msg.SessionID)
			case CastVote:
				r.handleVote(msg)
			case Steer:
				r.handleSteer(msg)
			case Place:
				r.handlePlace(msg)
			case Offline:
				r.handleOffline(msg.SessionID)
			case GetView:
				msg.Reply <- r.view()
			case voteExpired:
				if msg.gen == r.voteGen {
					r.resolveVotes()
				}
			case tickFired:
				if msg.gen == r.tickGen {
					r.tick()
				}
			case graceExpired:
				if msg.gen == r.graceGen {
					r.expire()
				}
			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	if seat := r.seatBySession(msg.SessionID); seat != nil {
		// Reconnect or duplicate join: re-attach, same seat.
		seat.outbox = msg.Outbox
		wasOffline := !seat.Online
		seat.Online = true
		if wasOffline {
			r.cancelGrace()
			r.broadcastExcept(seat, protocol.TypePlayerOnline, seatView(seat))
		}
		msg.Reply <- JoinReply{Seat: seat.Index, Snapshot: r.snapshot()}
		return
	}

	if r.status != StatusWaiting {
		msg.Reply <- JoinReply{Err: ErrAlreadyStarted}
		return
	}
	if len(r.seats) >= r.settings.MaxPlayers {
		msg.Reply <- JoinReply{Err: ErrRoomFull}
		return
	}

	seat := &Seat{
		SessionID: msg.SessionID,
		Name:      msg.Name,
		Index:     len(r.seats),
		Color:     seatColors[len(r.seats)%len(seatColors)],
		Online:    true,
		outbox:    msg.Outbox,
	}
	r.seats = append(r.seats, seat)
	if r.hostID == "" {
		r.hostID = msg.SessionID
	}
	r.cancelGrace()

	r.broadcastExcept(seat, protocol.TypePlayerJoined, seatView(seat))
	msg.Reply <- JoinReply{Seat: seat.Index, Snapshot: r.snapshot()}
}

func (r *Room) handleLeave(sessionID string) {
	seat := r.seatBySession(sessionID)
	if seat == nil {
		return
	}

	for i, s := range r.seats {
		if s.SessionID == sessionID {
			r.seats = append(r.seats[:i], r.seats[i+1:]...)
			break
		}
	}
	if r.status == StatusWaiting {
		// Before the game starts seats simply compact in join order.
		for i, s := range r.seats {
			s.Index = i
		}
	}
	r.ballots.discard(sessionID)

	r.broadcast(protocol.TypePlayerLeft, seatView(seat))
	if sessionID == r.hostID {
		r.hostID = ""
		for _, s := range r.seats {
			if !s.IsAI {
				r.hostID = s.SessionID
				r.broadcast(protocol.TypeHostChanged, map[string]any{"host_id": r.hostID})
				break
			}
		}
	}

	if r.status == StatusPlaying {
		r.applyDeparture(seat)
	}

	if r.humanSeats() == 0 || r.onlineCount() == 0 {
		r.armGrace()
	}
}

// applyDeparture handles a mid-game explicit leave. Turn-based: the game
// cannot continue, the remaining seat wins by forfeit. Competitive: the
// actor dies in place.
func (r *Room) applyDeparture(seat *Seat) {
	switch r.mode {
	case game.ModeTurnBased:
		winner := -1
		for _, s := range r.seats {
			winner = s.Index
			break
		}
		r.finish(ReasonForfeit, winner, seat.Index, false)
	case game.ModeCompetitive:
		if sn := r.arena.SnakeAt(seat.Index); sn != nil {
			sn.Alive = false
		}
	}
}

func (r *Room) handleReady(msg SetReady) {
	seat := r.seatBySession(msg.SessionID)
	if seat == nil {
		return
	}
	if r.status != StatusWaiting {
		r.sendError(seat, "game already started")
		return
	}
	seat.Ready = msg.Ready
	r.broadcast(protocol.TypeReadyChanged, map[string]any{
		"session_id": seat.SessionID,
		"seat":       seat.Index,
		"ready":      seat.Ready,
	})
}

func (r *Room) handleStart(sessionID string) error {
	if sessionID != r.hostID {
		return ErrNotHost
	}
	if r.status != StatusWaiting {
		return ErrAlreadyStarted
	}
	if err := r.checkStartable(); err != nil {
		return err
	}

	r.status = StatusStarting
	seed := r.settings.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	switch r.mode {
	case game.ModeShared:
		r.shared = game.NewShared(seed)
	case game.ModeCompetitive:
		r.arena = game.NewArena(len(r.seats), seed)
	case game.ModeTurnBased:
		r.board = game.NewBoard()
		if r.settings.WithAI && len(r.seats) == 1 {
			aiSeat := &Seat{
				SessionID: "ai:" + r.code,
				Name:      "AI",
				Index:     1,
				Color:     seatColors[1],
				IsAI:      true,
			}
			r.seats = append(r.seats, aiSeat)
			r.aiSeat = 1
		}
	}

	r.broadcast(protocol.TypeGameStarted, r.snapshot())
	r.status = StatusPlaying
	if r.mode != game.ModeTurnBased {
		r.armTick()
	}
	r.logger.Info("game started",
		zap.String("mode", string(r.mode)),
		zap.Int("players", len(r.seats)))
	return nil
}

func (r *Room) checkStartable() error {
	switch r.mode {
	case game.ModeTurnBased:
		if len(r.seats) < 2 && !(r.settings.WithAI && len(r.seats) == 1) {
			return ErrInsufficientPlayers
		}
	case game.ModeCompetitive:
		if len(r.seats) < 2 {
			return ErrInsufficientPlayers
		}
	case game.ModeShared:
		if len(r.seats) < 1 {
			return ErrInsufficientPlayers
		}
	}
	for _, s := range r.seats {
		if !s.Ready {
			return ErrNotAllReady
		}
	}
	return nil
}

func (r *Room) handleVote(msg CastVote) {
	seat := r.seatBySession(msg.SessionID)
	if seat == nil || !seat.Online {
		return
	}
	if r.mode != game.ModeShared || r.status != StatusPlaying {
		r.sendError(seat, "no vote in progress")
		return
	}

	first := r.ballots.empty()
	r.ballots.cast(msg.SessionID, msg.Dir)
	if first {
		r.armVoteTimer()
	}
	// Resolve early once every online seat has voted; a quorum of one means
	// no waiting at all.
	if r.ballots.count() >= r.onlineCount() {
		r.resolveVotes()
	}
}

func (r *Room) resolveVotes() {
	r.cancelVoteTimer()
	tally, winner, ok := r.ballots.resolve(r.seats)
	r.ballots.clear()
	if !ok {
		return // nobody eligible voted; keep the committed heading
	}
	// The tally broadcast is UI feedback, separate from the state broadcast
	// produced by the next tick.
	r.broadcast(protocol.TypeVoteUpdate, map[string]any{
		"tally":    tally,
		"resolved": winner,
	})
	r.shared.Snake.Steer(winner)
}

func (r *Room) handleSteer(msg Steer) {
	seat := r.seatBySession(msg.SessionID)
	if seat == nil || !seat.Online {
		return
	}
	if r.mode != game.ModeCompetitive || r.status != StatusPlaying {
		r.sendError(seat, "no game in progress")
		return
	}
	if sn := r.arena.SnakeAt(seat.Index); sn != nil {
		sn.Steer(msg.Dir)
	}
}

func (r *Room) handlePlace(msg Place) {
	seat := r.seatBySession(msg.SessionID)
	if seat == nil {
		return
	}
	if r.mode != game.ModeTurnBased || r.status != StatusPlaying {
		r.sendError(seat, "no game in progress")
		return
	}

	events, err := r.board.Place(seat.Index, msg.X, msg.Y)
	if err != nil {
		// Recoverable protocol error: the move was never applied.
		r.sendError(seat, err.Error())
		return
	}
	r.broadcast(protocol.TypeGameUpdate, r.gameState())
	if r.finishFromEvents(events) {
		return
	}

	if r.aiSeat >= 0 && r.board.CurrentTurn == r.aiSeat {
		r.runAISeat()
	}
}

// runAISeat asks the black-box suggester for a move and re-validates it. A
// rejected suggestion is a rule violation: the game ends with the opposing
// seat as winner, not with a retry.
func (r *Room) runAISeat() {
	x, y, err := r.suggest.Suggest(r.board, r.aiSeat)
	var events []game.Event
	if err == nil {
		events, err = r.board.Place(r.aiSeat, x, y)
	}
	if err != nil {
		winner := -1
		for _, s := range r.seats {
			if s.Index != r.aiSeat {
				winner = s.Index
				break
			}
		}
		r.logger.Warn("ai seat rule violation",
			zap.Int("seat", r.aiSeat), zap.Error(err))
		r.finish(ReasonRuleViolation, winner, r.aiSeat, false)
		return
	}
	r.broadcast(protocol.TypeGameUpdate, r.gameState())
	r.finishFromEvents(events)
}

func (r *Room) tick() {
	if r.status != StatusPlaying {
		// Invariant violation: fatal to this tick only, never the process.
		r.logger.Error("tick on non-playing room", zap.String("status", string(r.status)))
		return
	}

	var events []game.Event
	switch r.mode {
	case game.ModeShared:
		events = r.shared.Advance()
	case game.ModeCompetitive:
		events = r.arena.Advance()
	}

	r.broadcast(protocol.TypeGameUpdate, r.gameState())
	if r.finishFromEvents(events) {
		return
	}
	r.armTick()
}

func (r *Room) finishFromEvents(events []game.Event) bool {
	for _, ev := range events {
		if ev.Type != game.EvtGameOver {
			continue
		}
		switch {
		case ev.Draw:
			r.finish(ReasonDraw, -1, -1, true)
		case ev.Winner >= 0:
			r.finish(ReasonVictory, ev.Winner, -1, false)
		default:
			r.finish(ReasonCollision, -1, -1, false)
		}
		return true
	}
	return false
}

// finish moves the room to its terminal status and emits the structured
// outcome. Always a broadcast, never a silent drop.
func (r *Room) finish(reason string, winner, violating int, draw bool) {
	if r.status == StatusFinished {
		return
	}
	r.status = StatusFinished
	r.cancelTick()
	r.cancelVoteTimer()
	r.ballots.clear()

	data := map[string]any{
		"reason": reason,
		"winner": winner,
		"draw":   draw,
		"state":  r.gameState(),
	}
	if violating >= 0 {
		data["violating_seat"] = violating
	}
	r.broadcast(protocol.TypeGameEnded, data)
	r.logger.Info("game ended",
		zap.String("reason", reason), zap.Int("winner", winner))
}

func (r *Room) handleOffline(sessionID string) {
	seat := r.seatBySession(sessionID)
	if seat == nil || !seat.Online {
		return
	}
	seat.Online = false
	seat.outbox = nil
	r.ballots.discard(sessionID)
	r.broadcast(protocol.TypePlayerOffline, seatView(seat))

	// A disconnect mid-window is "did not vote"; the remaining quorum may
	// now be complete.
	if r.mode == game.ModeShared && r.status == StatusPlaying &&
		!r.ballots.empty() && r.onlineCount() > 0 && r.ballots.count() >= r.onlineCount() {
		r.resolveVotes()
	}

	if r.onlineCount() == 0 {
		r.armGrace()
	}
}

// expire fires after the grace window with nobody connected: destroy.
func (r *Room) expire() {
	if r.onlineCount() > 0 {
		return
	}
	r.logger.Info("room expired")
	if r.onEmpty != nil {
		r.onEmpty(r.code)
	}
	r.cancel()
}

func (r *Room) shutdown() {
	r.cancelVoteTimer()
	r.cancelTick()
	r.cancelGrace()
	for _, s := range r.seats {
		s.outbox = nil
		s.Online = false
	}
	r.seats = nil
	r.cancel()
}

// --- timers -----------------------------------------------------------

// Timer fires are posted back into the inbox under a generation number, so
// a fire racing a cancellation is dropped by the loop.

func (r *Room) post(m Msg) {
	select {
	case r.inbox <- m:
	case <-r.ctx.Done():
	}
}

func (r *Room) armVoteTimer() {
	r.voteGen++
	gen := r.voteGen
	r.voteTimer = time.AfterFunc(r.timing.VoteWindow, func() { r.post(voteExpired{gen: gen}) })
}

func (r *Room) cancelVoteTimer() {
	r.voteGen++
	if r.voteTimer != nil {
		r.voteTimer.Stop()
		r.voteTimer = nil
	}
}

func (r *Room) armTick() {
	r.tickGen++
	gen := r.tickGen
	r.tickTimer = time.AfterFunc(r.timing.TickInterval, func() { r.post(tickFired{gen: gen}) })
}

func (r *Room) cancelTick() {
	r.tickGen++
	if r.tickTimer != nil {
		r.tickTimer.Stop()
		r.tickTimer = nil
	}
}

func (r *Room) armGrace() {
	r.graceGen++
	gen := r.graceGen
	r.graceTmr = time.AfterFunc(r.timing.EmptyTTL, func() { r.post(graceExpired{gen: gen}) })
}

func (r *Room) cancelGrace() {
	r.graceGen++
	if r.graceTmr != nil {
		r.graceTmr.Stop()
		r.graceTmr = nil
	}
}

// --- broadcast --------------------------------------------------------

// broadcast fans out to every online seat in production order. Offline
// seats are skipped, not errored. A seat whose outbox is full is treated as
// gone; its session can rejoin.
func (r *Room) broadcast(typ string, data any) {
	ev := protocol.Event{Type: typ, Data: data}
	for _, s := range r.seats {
		r.deliver(s, ev)
	}
}

func (r *Room) broadcastExcept(skip *Seat, typ string, data any) {
	ev := protocol.Event{Type: typ, Data: data}
	for _, s := range r.seats {
		if s == skip {
			continue
		}
		r.deliver(s, ev)
	}
}

func (r *Room) deliver(s *Seat, ev protocol.Event) {
	if !s.Online || s.outbox == nil {
		return
	}
	select {
	case s.outbox <- ev:
	default:
		r.logger.Warn("dropping slow client", zap.String("session_id", s.SessionID))
		s.outbox = nil
		s.Online = false
	}
}

func (r *Room) sendError(s *Seat, message string) {
	r.deliver(s, protocol.Event{Type: protocol.TypeError, Data: protocol.ErrorData{Message: message}})
}

// --- snapshots --------------------------------------------------------

// SeatView is the wire form of a seat.
type SeatView struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Seat      int    `json:"seat"`
	Color     string `json:"color"`
	Ready     bool   `json:"ready"`
	Online    bool   `json:"online"`
	IsAI      bool   `json:"is_ai,omitempty"`
}

func seatView(s *Seat) SeatView {
	return SeatView{
		SessionID: s.SessionID,
		Name:      s.Name,
		Seat:      s.Index,
		Color:     s.Color,
		Ready:     s.Ready,
		Online:    s.Online,
		IsAI:      s.IsAI,
	}
}

// Snapshot is the full authoritative room state a client reconciles against.
type Snapshot struct {
	Code    string     `json:"code"`
	Mode    game.Mode  `json:"mode"`
	Status  Status     `json:"status"`
	HostID  string     `json:"host_id"`
	Players []SeatView `json:"players"`
	State   any        `json:"state,omitempty"`
}

func (r *Room) snapshot() Snapshot {
	views := make([]SeatView, 0, len(r.seats))
	for _, s := range r.seats {
		views = append(views, seatView(s))
	}
	return Snapshot{
		Code:    r.code,
		Mode:    r.mode,
		Status:  r.status,
		HostID:  r.hostID,
		Players: views,
		State:   r.gameState(),
	}
}

// gameState deep-copies the mode-specific payload so the marshalling
// goroutines never race the actor.
func (r *Room) gameState() any {
	switch {
	case r.shared != nil:
		return r.shared.Clone()
	case r.arena != nil:
		return r.arena.Clone()
	case r.board != nil:
		return r.board.Clone()
	default:
		return nil
	}
}

// View reflects internal state for tests.
type View struct {
	Code         string
	Mode         game.Mode
	Status       Status
	HostID       string
	Seats        []SeatView
	MaxPlayers   int
	OnlineCount  int
	PendingVotes int
	State        any
}

func (r *Room) view() View {
	views := make([]SeatView, 0, len(r.seats))
	for _, s := range r.seats {
		views = append(views, seatView(s))
	}
	return View{
		Code:         r.code,
		Mode:         r.mode,
		Status:       r.status,
		HostID:       r.hostID,
		Seats:        views,
		MaxPlayers:   r.settings.MaxPlayers,
		OnlineCount:  r.onlineCount(),
		PendingVotes: r.ballots.count(),
		State:        r.gameState(),
	}
}

// --- helpers ----------------------------------------------------------

func (r *Room) seatBySession(sessionID string) *Seat {
	for _, s := range r.seats {
		if s.SessionID == sessionID {
			return s
		}
	}
	return nil
}

func (r *Room) onlineCount() int {
	n := 0
	for _, s := range r.seats {
		if s.Online {
			n++
		}
	}
	return n
}

func (r *Room) humanSeats() int {
	n := 0
	for _, s := range r.seats {
		if !s.IsAI {
			n++
		}
	}
	return n
}
