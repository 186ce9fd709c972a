package connmgr

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/brushline/doodleserver/internal/identity"
	"github.com/brushline/doodleserver/internal/logging"
	"github.com/brushline/doodleserver/internal/protocol"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// outboundQueueCapacity bounds each connection's per-priority outbound
// queue (spec.md §4.1 suggests 256).
const outboundQueueCapacity = 256

// sustainedBackpressure is how long a connection's queue may stay full
// before the connection is closed with backpressure.
const sustainedBackpressure = 10 * time.Second

// lowPriorityEvents never block a connection; under overflow they are the
// first thing dropped. Control events (turn transitions, errors, round/game
// results) are always delivered.
var lowPriorityEvents = map[string]bool{
	protocol.EventDrawingStroke: true,
	protocol.EventTimerUpdate:   true,
}

// Connection owns one authenticated player's websocket and the two bounded
// outbound queues the ConnectionManager drains from, mirroring the
// teacher's split send/prioritySend client channels.
type Connection struct {
	mgr    *Manager
	ws     *websocket.Conn
	reqCtx context.Context

	userID      string
	displayName string
	avatarRef   string
	roomID      string

	send         chan protocol.Envelope
	prioritySend chan protocol.Envelope
	closeOnce    closeGuard

	tuningMu          sync.Mutex
	defaultHeartbeat  time.Duration
	heartbeatInterval time.Duration
	strokeBatchSize   int
	compression       string

	connectionTimeout time.Duration
	lastFrameAt       time.Time

	overflowSince time.Time
}

type closeGuard struct{ done bool }

func newConnection(m *Manager, ws *websocket.Conn, profile identity.Profile, opts Options) *Connection {
	return &Connection{
		mgr:               m,
		ws:                ws,
		reqCtx:            context.Background(),
		userID:            profile.UserID,
		displayName:       profile.DisplayName,
		avatarRef:         profile.AvatarRef,
		send:              make(chan protocol.Envelope, outboundQueueCapacity),
		prioritySend:      make(chan protocol.Envelope, outboundQueueCapacity),
		defaultHeartbeat:  opts.HeartbeatInterval,
		heartbeatInterval: opts.HeartbeatInterval,
		strokeBatchSize:   defaultStrokeBatchSize,
		compression:       defaultCompression,
		connectionTimeout: opts.ConnectionTimeout,
		lastFrameAt:       time.Now(),
	}
}

const (
	defaultStrokeBatchSize = 64
	defaultCompression     = "gzip"
)

func (c *Connection) tuning() (heartbeat time.Duration, strokeBatchSize int, compression string) {
	c.tuningMu.Lock()
	defer c.tuningMu.Unlock()
	return c.heartbeatInterval, c.strokeBatchSize, c.compression
}

func (c *Connection) sendMobileHints() {
	heartbeat, batchSize, compression := c.tuning()
	c.sendEvent(protocol.EventMobileHints, struct {
		HeartbeatIntervalMs int    `json:"heartbeat_interval_ms"`
		StrokeBatchSize     int    `json:"stroke_batch_size"`
		Compression         string `json:"compression"`
	}{int(heartbeat.Milliseconds()), batchSize, compression})
}

// applyMobileTuning retunes per-connection advisory settings only; per
// spec.md §4.1 these never influence authoritative game logic. mobile_event
// reports foreground/background app lifecycle and only widens the heartbeat
// interval while backgrounded; connection_quality reports a coarse
// signal-quality reading and, on a "fair" or "poor" link, widens the
// heartbeat interval and lowers the stroke batch size.
func (c *Connection) applyMobileTuning(env protocol.Envelope) {
	switch env.Type {
	case protocol.EventConnectionQuality:
		var body struct {
			D string `json:"d"`
		}
		if err := env.Decode(&body); err != nil {
			return
		}
		c.tuneForQuality(body.D)
	case protocol.EventMobileEvent:
		var body struct {
			Tag  string          `json:"tag"`
			Data json.RawMessage `json:"data"`
		}
		if err := env.Decode(&body); err != nil {
			return
		}
		c.tuneForTag(body.Tag)
	}
}

func (c *Connection) tuneForQuality(quality string) {
	c.tuningMu.Lock()
	defer c.tuningMu.Unlock()
	switch quality {
	case "poor":
		c.heartbeatInterval = 45 * time.Second
		c.strokeBatchSize = 16
		c.compression = "gzip"
	case "fair":
		c.heartbeatInterval = 30 * time.Second
		c.strokeBatchSize = 32
		c.compression = "gzip"
	default: // "good" or unrecognized: back off to the configured defaults
		c.heartbeatInterval = c.defaultHeartbeat
		c.strokeBatchSize = defaultStrokeBatchSize
		c.compression = defaultCompression
	}
}

func (c *Connection) tuneForTag(tag string) {
	c.tuningMu.Lock()
	defer c.tuningMu.Unlock()
	switch tag {
	case "background":
		c.heartbeatInterval = 45 * time.Second
	case "foreground":
		c.heartbeatInterval = c.defaultHeartbeat
	}
}

func (c *Connection) sendEvent(eventType string, payload any) {
	env, err := protocol.Encode(eventType, payload)
	if err != nil {
		return
	}
	c.enqueue(env)
}

func (c *Connection) sendError(code protocol.ErrorCode, msg string) {
	c.sendEvent(protocol.EventError, protocol.ErrorPayload{Code: code, Message: msg})
}

// enqueue applies the backpressure policy of spec.md §4.1: low-priority
// events are dropped on overflow, everything else gets one more attempt that
// waits up to 50ms for room in the queue, and sustained overflow past 10s
// closes the connection.
func (c *Connection) enqueue(env protocol.Envelope) {
	target := c.send
	if !lowPriorityEvents[env.Type] {
		target = c.prioritySend
	}

	select {
	case target <- env:
		c.overflowSince = time.Time{}
		return
	default:
	}

	if lowPriorityEvents[env.Type] {
		return // drop low-priority events first, per spec.md §4.1
	}

	if c.overflowSince.IsZero() {
		c.overflowSince = time.Now()
	} else if time.Since(c.overflowSince) > sustainedBackpressure {
		c.closeWithReason("backpressure")
		return
	}

	// One more attempt with a short grace so a momentary burst doesn't
	// immediately drop a control event.
	select {
	case target <- env:
	case <-time.After(50 * time.Millisecond):
	}
}

func (c *Connection) closeWithReason(reason string) {
	if c.closeOnce.done {
		return
	}
	c.closeOnce.done = true
	logging.Info(c.reqCtx, "closing connection", zap.String("user_id", c.userID), zap.String("reason", reason))
	_ = c.ws.Close()
}

// readPump decodes inbound frames and forwards them to the Manager's
// dispatcher. It never mutates room state directly (spec.md §5: the room's
// consumer is the only mutator).
func (c *Connection) readPump() {
	defer func() {
		c.mgr.onDisconnect(c)
		c.closeWithReason("read_closed")
	}()

	c.ws.SetReadDeadline(time.Now().Add(c.connectionTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.connectionTimeout))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(c.connectionTimeout))

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.sendError(protocol.ErrBadRequest, "malformed frame")
			continue
		}
		if env.Type == "" || len(data) > 1<<20 {
			c.sendError(protocol.ErrBadRequest, "missing type or frame too large")
			continue
		}
		c.mgr.dispatch(c, env)
	}
}

// writePump drains the priority queue ahead of the regular queue and sends
// a periodic ping, mirroring the teacher's two-channel select loop.
func (c *Connection) writePump() {
	currentInterval, _, _ := c.tuning()
	ticker := time.NewTicker(currentInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	const writeWait = 10 * time.Second
	for {
		select {
		case env, ok := <-c.prioritySend:
			if !ok {
				return
			}
			if !c.writeJSON(env, writeWait) {
				return
			}
		default:
			select {
			case env, ok := <-c.prioritySend:
				if !ok {
					return
				}
				if !c.writeJSON(env, writeWait) {
					return
				}
			case env, ok := <-c.send:
				if !ok {
					return
				}
				if !c.writeJSON(env, writeWait) {
					return
				}
			case <-ticker.C:
				c.ws.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
				if wanted, _, _ := c.tuning(); wanted != currentInterval {
					currentInterval = wanted
					ticker.Reset(currentInterval)
				}
			}
		}
	}
}

func (c *Connection) writeJSON(env protocol.Envelope, writeWait time.Duration) bool {
	data, err := json.Marshal(env)
	if err != nil {
		return true
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data) == nil
}
