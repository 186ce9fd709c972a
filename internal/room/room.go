// Package room implements the Room (C7): one instance per active game,
// owning all state for a single game behind a single-consumer event loop.
// This replaces the teacher's mutex-guarded Room with message passing,
// eliminating shared-memory contention between the websocket read pumps
// and the game state machine.
package room

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/brushline/doodleserver/internal/clock"
	"github.com/brushline/doodleserver/internal/logging"
	"github.com/brushline/doodleserver/internal/lobbychat"
	"github.com/brushline/doodleserver/internal/metrics"
	"github.com/brushline/doodleserver/internal/protocol"
	"github.com/brushline/doodleserver/internal/scoreboard"
	"github.com/brushline/doodleserver/internal/store"
	"github.com/brushline/doodleserver/internal/words"
	"go.uber.org/zap"
)

// Status is the room's lifecycle state.
type Status string

const (
	StatusWaiting       Status = "waiting"
	StatusStarting      Status = "starting"
	StatusWordSelection Status = "word_selection"
	StatusDrawing       Status = "drawing"
	StatusTurnEnd       Status = "turn_end"
	StatusRoundEnd      Status = "round_end"
	StatusGameEnd       Status = "game_end"
)

// inputQueueCapacity bounds the room's single input channel so a pathological
// burst of client events cannot grow memory unbounded; callers enqueueing
// past capacity should treat the room as backpressured.
const inputQueueCapacity = 512

// Outbound is how a Room delivers events to connections and reports player
// departures back to the ConnectionManager (C5), which owns the
// RoomRegistry's user binding.
type Outbound interface {
	SendTo(userID string, env protocol.Envelope)
	Broadcast(roomID string, env protocol.Envelope, exceptUserID string)
	// OnPlayerLeft is called once a player has been fully removed from the
	// room's player set (voluntary leave, grace-expiry, or kick), so the
	// ConnectionManager can unbind the RoomRegistry's user index.
	OnPlayerLeft(userID string)
}

// Room owns all state for one game instance.
type Room struct {
	RoomID      string
	InviteCode  string
	IsPrivate   bool
	HostID      string
	Settings    protocol.Settings

	players      map[string]*Player
	joinSeq      int
	status       Status
	turnOrder    []string
	turnIdx      int
	roundIndex   int
	turn         *turnState
	board        *scoreboard.Board
	lobby        *lobbychat.Chat
	lastActivity time.Time

	nextTurnID int

	disconnectGrace      time.Duration
	wordSelectionTimeout time.Duration

	clk    clock.Clock
	words  *words.Source
	store  *store.Store
	out    Outbound
	ctx    context.Context
	cancel context.CancelFunc

	input chan msg

	sessionID string
	startedAt time.Time
	rounds    []store.Round
}

// New builds a Room in status waiting, using the default disconnect grace
// (120s) and word-selection timeout (15s). Use NewWithGrace or NewFull to
// override them.
func New(roomID, inviteCode string, isPrivate bool, settings protocol.Settings, clk clock.Clock, wordSource *words.Source, sessionStore *store.Store, out Outbound, filter *lobbychat.Filter) *Room {
	return NewFull(roomID, inviteCode, isPrivate, settings, clk, wordSource, sessionStore, out, filter, defaultDisconnectGrace, defaultWordSelectionTimeout)
}

// NewWithGrace builds a Room whose disconnect grace window is grace
// (spec.md §4.1: configurable, default 120s).
func NewWithGrace(roomID, inviteCode string, isPrivate bool, settings protocol.Settings, clk clock.Clock, wordSource *words.Source, sessionStore *store.Store, out Outbound, filter *lobbychat.Filter, grace time.Duration) *Room {
	return NewFull(roomID, inviteCode, isPrivate, settings, clk, wordSource, sessionStore, out, filter, grace, defaultWordSelectionTimeout)
}

// NewFull builds a Room with both timing windows configurable, used by the
// ConnectionManager which threads them from environment configuration
// (spec.md §6 env vars).
func NewFull(roomID, inviteCode string, isPrivate bool, settings protocol.Settings, clk clock.Clock, wordSource *words.Source, sessionStore *store.Store, out Outbound, filter *lobbychat.Filter, grace, wordSelectTimeout time.Duration) *Room {
	if grace <= 0 {
		grace = defaultDisconnectGrace
	}
	if wordSelectTimeout <= 0 {
		wordSelectTimeout = defaultWordSelectionTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Room{
		RoomID:               roomID,
		InviteCode:           inviteCode,
		IsPrivate:            isPrivate,
		Settings:             settings,
		players:              make(map[string]*Player),
		status:               StatusWaiting,
		board:                scoreboard.New(),
		lobby:                lobbychat.New(filter),
		lastActivity:         clk.Now(),
		disconnectGrace:      grace,
		wordSelectionTimeout: wordSelectTimeout,
		clk:                  clk,
		words:                wordSource,
		store:                sessionStore,
		out:                  out,
		ctx:                  ctx,
		cancel:               cancel,
		input:                make(chan msg, inputQueueCapacity),
	}
}

// enqueue pushes a message onto the room's input channel, returning false
// if the queue is full (the caller should treat this as backpressure).
func (r *Room) enqueue(m msg) bool {
	select {
	case r.input <- m:
		return true
	default:
		return false
	}
}

// Run is the Room's single consumer; it must run in its own goroutine and
// is the only place room state is mutated.
func (r *Room) Run() {
	for {
		select {
		case <-r.ctx.Done():
			return
		case m := <-r.input:
			r.handle(m)
		}
	}
}

// Close stops the Room's consumer and cancels the current turn's timers
// (word selection, tick, hint reveals). Per-player disconnect-grace timers
// are not stopped.
func (r *Room) Close() {
	r.cancelTurnTimers()
	r.cancel()
}

func (r *Room) handle(m msg) {
	start := r.clk.Now()
	eventType := fmt.Sprintf("%T", m)
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error(logging.WithRoom(context.Background(), r.RoomID), "room consumer panic, force-ending turn",
				zap.Any("recovered", rec))
			r.forceEndTurn("cancelled")
		}
		metrics.EventProcessingDuration.WithLabelValues(eventType).Observe(r.clk.Now().Sub(start).Seconds())
	}()

	r.lastActivity = r.clk.Now()

	switch ev := m.(type) {
	case msgJoin:
		r.handleJoin(ev)
	case msgLeave:
		r.handleLeave(ev.userID)
	case msgDisconnect:
		r.handleDisconnect(ev.userID)
	case msgReconnect:
		r.handleReconnect(ev.userID)
	case msgGraceExpired:
		r.handleGraceExpired(ev.userID)
	case msgUpdateSettings:
		r.handleUpdateSettings(ev)
	case msgStartGame:
		r.handleStartGame(ev.userID)
	case msgPlayerReady:
		r.handlePlayerReady(ev)
	case msgSelectWord:
		r.handleSelectWord(ev)
	case msgDrawOp:
		r.handleDrawOp(ev)
	case msgCanvasClear:
		r.handleCanvasClear(ev.userID)
	case msgCanvasUndo:
		r.handleCanvasUndo(ev.userID)
	case msgChatMessage:
		r.handleChatMessage(ev)
	case msgRequestCanvasSync:
		r.handleRequestCanvasSync(ev.userID)
	case msgVoteSkip:
		r.handleVoteSkip(ev.userID)
	case msgVoteKick:
		r.handleVoteKick(ev)
	case msgWordSelectionTimeout:
		r.handleWordSelectionTimeout(ev.turnID)
	case msgTurnTick:
		r.handleTurnTick(ev.turnID)
	case msgHintRevealed:
		r.handleHintRevealed(ev)
	}
}

func (r *Room) emitError(userID string, code protocol.ErrorCode, msg string) {
	env, _ := protocol.Encode(protocol.EventError, protocol.ErrorPayload{Code: code, Message: msg})
	r.out.SendTo(userID, env)
}

func (r *Room) broadcast(eventType string, payload any, exceptUserID string) {
	env, err := protocol.Encode(eventType, payload)
	if err != nil {
		logging.Error(context.Background(), "encode outbound event failed", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	r.out.Broadcast(r.RoomID, env, exceptUserID)
}

func (r *Room) sendTo(userID, eventType string, payload any) {
	env, err := protocol.Encode(eventType, payload)
	if err != nil {
		return
	}
	r.out.SendTo(userID, env)
}

// PlayerCount returns the current number of players, used by the registry.
func (r *Room) PlayerCount() int { return len(r.players) }

// StatusString returns the current status as a string, used by the registry.
func (r *Room) StatusString() string { return string(r.status) }

// LastActivity returns the last activity timestamp, used by the idle sweeper.
func (r *Room) LastActivity() time.Time { return r.lastActivity }

func (r *Room) orderedUserIDs() []string {
	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	// stable by join order
	for i := 1; i < len(ids); i++ {
		j := i
		for j > 0 && r.players[ids[j-1]].JoinOrder > r.players[ids[j]].JoinOrder {
			ids[j-1], ids[j] = ids[j], ids[j-1]
			j--
		}
	}
	return ids
}

func (r *Room) snapshot() protocol.RoomSnapshot {
	players := make([]protocol.PlayerSnapshot, 0, len(r.players))
	for _, id := range r.orderedUserIDs() {
		p := r.players[id]
		players = append(players, p.snapshot(r.board.Score(id)))
	}

	snap := protocol.RoomSnapshot{
		RoomID:     r.RoomID,
		InviteCode: r.InviteCode,
		HostID:     r.HostID,
		Settings:   r.Settings,
		Status:     string(r.status),
		Players:    players,
		RoundIndex: r.roundIndex,
	}
	if r.IsPrivate {
		snap.Visibility = "private"
	} else {
		snap.Visibility = "public"
	}
	if r.turn != nil {
		snap.Turn = r.turnSnapshot(false)
	}
	return snap
}

func (r *Room) turnSnapshot(includeWord bool) *protocol.TurnSnapshot {
	t := r.turn
	if t == nil {
		return nil
	}
	ts := &protocol.TurnSnapshot{
		DrawerID:        t.drawerID,
		TimeTotalMs:     t.timeTotalMs,
		TimeRemainingMs: t.timeRemainingMs(r.clk.Now()),
		RoundIndex:      r.roundIndex,
	}
	if t.hintScheduler != nil {
		ts.WordPattern = t.hintScheduler.Pattern()
	}
	if includeWord {
		ts.Word = t.word
	}
	return ts
}

func (r *Room) turnOrderIDsAt(i int) (string, bool) {
	if i < 0 || i >= len(r.turnOrder) {
		return "", false
	}
	return r.turnOrder[i], true
}

func (r *Room) seedTurnOrder() {
	ids := r.orderedUserIDs()
	seed := seedFromRoomID(r.RoomID) + int64(r.startedAt.UnixNano())
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	r.turnOrder = ids
	r.turnIdx = 0
}

func seedFromRoomID(roomID string) int64 {
	var h int64
	for _, c := range roomID {
		h = h*31 + int64(c)
	}
	return h
}

func (r *Room) cancelTurnTimers() {
	if r.turn == nil {
		return
	}
	if r.turn.wordSelectTimer != nil {
		r.turn.wordSelectTimer.Stop()
	}
	if r.turn.tickTimer != nil {
		r.turn.tickTimer.Stop()
	}
	if r.turn.hintScheduler != nil {
		r.turn.hintScheduler.Cancel()
	}
}

func (r *Room) forceEndTurn(reason string) {
	if r.turn == nil {
		return
	}
	r.endTurn(reason)
}
