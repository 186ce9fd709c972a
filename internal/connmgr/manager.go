// Package connmgr implements the ConnectionManager (C5): it owns the
// bidirectional websocket channel per player, authenticates on handshake,
// routes inbound events to the player's room (or to room admission for
// join/create events), and fans outbound room events back out over bounded
// per-connection queues. This mirrors the teacher's transport.Hub, adapted
// from a binary-protobuf hub serving one video-conference room per id to a
// JSON-envelope hub serving many concurrent drawing-game rooms.
package connmgr

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/brushline/doodleserver/internal/clock"
	"github.com/brushline/doodleserver/internal/identity"
	"github.com/brushline/doodleserver/internal/lobbychat"
	"github.com/brushline/doodleserver/internal/logging"
	"github.com/brushline/doodleserver/internal/metrics"
	"github.com/brushline/doodleserver/internal/protocol"
	"github.com/brushline/doodleserver/internal/ratelimit"
	"github.com/brushline/doodleserver/internal/room"
	"github.com/brushline/doodleserver/internal/roomregistry"
	"github.com/brushline/doodleserver/internal/store"
	"github.com/brushline/doodleserver/internal/words"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Options configures a Manager.
type Options struct {
	HeartbeatInterval    time.Duration
	ConnectionTimeout    time.Duration
	DisconnectGrace      time.Duration
	WordSelectionTimeout time.Duration
	IdleRoomMax          time.Duration
	AllowedOrigins       []string
}

// Manager is the process-wide ConnectionManager: it owns every live
// connection and every live Room goroutine.
type Manager struct {
	opts     Options
	clk      clock.Clock
	gateway  *identity.Gateway
	registry *roomregistry.Registry
	limiter  *ratelimit.Limiter
	words    *words.Source
	filter   *lobbychat.Filter
	store    *store.Store

	upgrader websocket.Upgrader

	mu          sync.RWMutex
	rooms       map[string]*room.Room
	connsByUser map[string]*Connection
}

// New builds a Manager and starts the registry's idle sweeper.
func New(clk clock.Clock, gateway *identity.Gateway, limiter *ratelimit.Limiter, wordSource *words.Source, filter *lobbychat.Filter, sessionStore *store.Store, opts Options) *Manager {
	m := &Manager{
		opts:        opts,
		clk:         clk,
		gateway:     gateway,
		registry:    roomregistry.New(clk, opts.IdleRoomMax),
		limiter:     limiter,
		words:       wordSource,
		filter:      filter,
		store:       sessionStore,
		rooms:       make(map[string]*room.Room),
		connsByUser: make(map[string]*Connection),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // origin enforced earlier, at the gin CORS layer
		},
	}
	m.registry.StartSweeper(60*time.Second, m.onRoomEvicted)
	return m
}

// Shutdown stops the idle sweeper and every live room.
func (m *Manager) Shutdown() {
	m.registry.StopSweeper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		r.Close()
	}
}

func (m *Manager) onRoomEvicted(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[roomID]; ok {
		r.Close()
		delete(m.rooms, roomID)
		metrics.ActiveRooms.Dec()
	}
}

// ---- room.Outbound -----------------------------------------------------

// SendTo delivers env to the single connection owned by userID, if any.
func (m *Manager) SendTo(userID string, env protocol.Envelope) {
	m.mu.RLock()
	c := m.connsByUser[userID]
	m.mu.RUnlock()
	if c != nil {
		c.enqueue(env)
	}
}

// Broadcast delivers env to every connection subscribed to roomID except
// exceptUserID (pass "" to exclude nobody).
func (m *Manager) Broadcast(roomID string, env protocol.Envelope, exceptUserID string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for userID, c := range m.connsByUser {
		if userID == exceptUserID || c.roomID != roomID {
			continue
		}
		c.enqueue(env)
	}
}

// OnPlayerLeft unbinds userID from the RoomRegistry once their Room has
// fully removed them (voluntary leave, grace-expiry, or kick), keeping the
// registry's user index in sync with room membership so a later admission
// doesn't see a stale binding to a room the player is no longer in.
func (m *Manager) OnPlayerLeft(userID string) {
	m.registry.UnbindUser(userID)
}

// ---- HTTP handlers -------------------------------------------------------

// Health answers GET /health.
func (m *Manager) Health(startedAt time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.mu.RLock()
		conns := len(m.connsByUser)
		m.mu.RUnlock()
		var ms runtimeMemStats
		readMemStats(&ms)
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"uptime_seconds":  int64(time.Since(startedAt).Seconds()),
			"connections":     conns,
			"memory_bytes":    ms.heapAlloc,
		})
	}
}

// Info answers GET /info with static metadata.
func (m *Manager) Info() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    "doodleserver",
			"version": "1.0.0",
		})
	}
}

// ServeWS handles the websocket upgrade: authenticates the bearer token,
// admits the player to a room per the query parameters, and starts the
// connection's read/write pumps.
func (m *Manager) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = extractBearer(c.GetHeader("Authorization"))
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": string(protocol.ErrAuthFailed)})
		return
	}

	profile, err := m.gateway.Authenticate(c.Request.Context(), token)
	if err != nil {
		code := protocol.ErrAuthFailed
		if errors.Is(err, identity.ErrProfileIncomplete) {
			code = protocol.ErrProfileIncomplete
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": string(code)})
		return
	}

	if !m.limiter.Allow(c.Request.Context(), ratelimit.Connection, profile.UserID) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": string(protocol.ErrRateLimited)})
		return
	}

	wsConn, err := m.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}

	conn := newConnection(m, wsConn, profile, m.opts)
	m.register(conn)
	metrics.IncConnection()

	conn.sendMobileHints()
	m.admit(conn, c.Query("mode"), c.Query("invite_code"), c.Query("display_name"))

	go conn.writePump()
	go conn.readPump()
}

func extractBearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

func (m *Manager) register(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.connsByUser[c.userID]; ok {
		old.closeWithReason("superseded")
	}
	m.connsByUser[c.userID] = c
}

func (m *Manager) unregister(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.connsByUser[c.userID]; ok && cur == c {
		delete(m.connsByUser, c.userID)
	}
}

// admit resolves a fresh connection into a room: either this is a first
// admission (public/private join or create) driven by query parameters, or
// a reconnection of a player already indexed by the RoomRegistry.
func (m *Manager) admit(c *Connection, mode, inviteCode, displayName string) {
	if roomID, ok := m.registry.Lookup(c.userID); ok {
		c.roomID = roomID
		r := m.lookupRoom(roomID)
		if r == nil {
			return
		}
		r.Reconnect(c.userID)
		return
	}

	var r *room.Room
	var err error
	switch mode {
	case "private_create":
		r, err = m.createPrivateRoom()
	case "private_join":
		r, err = m.joinPrivateRoom(inviteCode)
	default:
		r, err = m.joinPublicRoom()
	}
	if err != nil {
		c.sendError(protocol.ErrRoomNotFound, err.Error())
		return
	}

	c.roomID = r.RoomID
	m.registry.BindUser(c.userID, r.RoomID)
	if displayName == "" {
		displayName = profileDisplayName(c)
	}
	r.Join(c.userID, displayName, c.avatarRef, r.StatusString() != "waiting")
}

func profileDisplayName(c *Connection) string {
	if c.displayName != "" {
		return c.displayName
	}
	return c.userID
}

func (m *Manager) lookupRoom(roomID string) *room.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[roomID]
}

func (m *Manager) joinPublicRoom() (*room.Room, error) {
	settings := protocol.DefaultSettings(false)
	settings.MaxPlayers = 8 // public cap per spec.md §6

	if roomID, ok := m.registry.FindOpenPublicRoom(settings.MaxPlayers); ok {
		if r := m.lookupRoom(roomID); r != nil {
			return r, nil
		}
	}
	roomID, err := m.registry.AllocateRoomID()
	if err != nil {
		return nil, err
	}
	r := m.newRoom(roomID, "", false, settings)
	return r, nil
}

func (m *Manager) createPrivateRoom() (*room.Room, error) {
	roomID, err := m.registry.AllocateRoomID()
	if err != nil {
		return nil, err
	}
	inviteCode, err := m.registry.AllocateInviteCode()
	if err != nil {
		return nil, err
	}
	settings := protocol.DefaultSettings(true)
	r := m.newRoom(roomID, inviteCode, true, settings)
	return r, nil
}

func (m *Manager) joinPrivateRoom(inviteCode string) (*room.Room, error) {
	roomID, ok := m.registry.ResolveInvite(inviteCode)
	if !ok {
		return nil, roomregistry.ErrRoomNotFound
	}
	r := m.lookupRoom(roomID)
	if r == nil {
		return nil, roomregistry.ErrRoomNotFound
	}
	if r.PlayerCount() >= r.Settings.MaxPlayers {
		return nil, roomregistry.ErrRoomFull
	}
	if r.StatusString() != "waiting" && !r.Settings.AllowMidGameJoin {
		return nil, roomregistry.ErrGameInProgress
	}
	return r, nil
}

func (m *Manager) newRoom(roomID, inviteCode string, isPrivate bool, settings protocol.Settings) *room.Room {
	r := room.NewFull(roomID, inviteCode, isPrivate, settings, m.clk, m.words, m.store, m, m.filter, m.opts.DisconnectGrace, m.opts.WordSelectionTimeout)

	m.mu.Lock()
	m.rooms[roomID] = r
	m.mu.Unlock()

	m.registry.Register(&roomregistry.Entry{
		RoomID:       roomID,
		InviteCode:   inviteCode,
		IsPrivate:    isPrivate,
		Status:       r.StatusString,
		PlayerCount:  r.PlayerCount,
		LastActivity: r.LastActivity,
		Leave:        func(userID string) { r.Leave(userID) },
	})

	metrics.ActiveRooms.Inc()
	go r.Run()
	return r
}

// dispatch routes one decoded inbound envelope from a connection to the
// appropriate room, applying rate limiting and malformed-frame rejection
// per spec.md §4.1/§4.9.
func (m *Manager) dispatch(c *Connection, env protocol.Envelope) {
	c.lastFrameAt = m.clk.Now()

	switch env.Type {
	case protocol.EventPing:
		var body struct {
			T int64 `json:"t"`
		}
		_ = env.Decode(&body)
		c.sendEvent(protocol.EventPong, body)
		return
	case protocol.EventMobileEvent, protocol.EventConnectionQuality:
		c.applyMobileTuning(env)
		return
	case protocol.EventLeaveRoom:
		if r := m.lookupRoom(c.roomID); r != nil {
			r.Leave(c.userID)
		}
		return
	}

	if isChatOrGuess(env.Type) {
		if !m.limiter.Allow(c.reqCtx, ratelimit.Chat, c.userID) {
			c.sendEvent(protocol.EventRateLimited, protocol.RateLimitedPayload{Kind: "chat", RetryAfterMs: 5000})
			return
		}
	}
	if env.Type == protocol.EventDrawOp {
		if !m.limiter.Allow(c.reqCtx, ratelimit.DrawOp, c.userID) {
			c.sendEvent(protocol.EventRateLimited, protocol.RateLimitedPayload{Kind: "draw_op", RetryAfterMs: 1000})
			return
		}
	}

	r := m.lookupRoom(c.roomID)
	if r == nil {
		c.sendError(protocol.ErrRoomNotFound, "not currently in a room")
		return
	}

	ok, queued := r.Dispatch(c.userID, env.Type, env)
	if !ok {
		c.sendError(protocol.ErrBadRequest, "malformed or unknown event")
		return
	}
	if !queued {
		c.sendError(protocol.ErrBackpressure, "room is overloaded")
	}
}

func isChatOrGuess(eventType string) bool {
	return eventType == protocol.EventChatMessage || eventType == protocol.EventLobbyChat
}

func (m *Manager) onDisconnect(c *Connection) {
	m.unregister(c)
	metrics.DecConnection()
	if r := m.lookupRoom(c.roomID); r != nil {
		r.Disconnect(c.userID)
	}
}

