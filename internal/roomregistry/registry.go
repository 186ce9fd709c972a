// Package roomregistry implements the RoomRegistry (C6): the process-wide
// map of rooms plus the inverted user_id -> room_id index, room id/invite
// code allocation, and the idle sweeper.
package roomregistry

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/brushline/doodleserver/internal/clock"
	"github.com/brushline/doodleserver/internal/logging"
	"go.uber.org/zap"
)

// ErrRoomNotFound reports that an invite code resolves to no live room
// (returned by the ConnectionManager's private-room join).
var ErrRoomNotFound = errors.New("roomregistry: room not found")

// ErrRoomFull reports that a private room has no free slot.
var ErrRoomFull = errors.New("roomregistry: room full")

// ErrGameInProgress reports that a private room has already started and does
// not allow mid-game joins.
var ErrGameInProgress = errors.New("roomregistry: game in progress")

// maxIDCollisions bounds rejection sampling before logging fatal-background
// saturation.
const maxIDCollisions = 1000

const (
	roomIDAlphabet   = "0123456789abcdefghijklmnopqrstuvwxyz"
	roomIDLength     = 6
	inviteCodeLength = 8
)

// Entry is the registry's view of one room: enough to route events and run
// the idle sweeper without reaching into Room internals.
type Entry struct {
	RoomID       string
	InviteCode   string
	IsPrivate    bool
	Status       func() string // "waiting", etc. — read from the live Room
	PlayerCount  func() int
	LastActivity func() time.Time
	Leave        func(userID string)
}

// Registry holds the process-wide room map and inverted index.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*Entry
	byInvite map[string]string // invite_code -> room_id
	byUser   map[string]string // user_id -> room_id
	publicOrder *list.List     // room_ids, newest-first
	clk      clock.Clock
	idleMax  time.Duration
	rng      *rand.Rand
	sweeper  clock.Timer
}

// New builds an empty Registry. idleMax is the age past which an empty
// room is evicted by the sweeper.
func New(clk clock.Clock, idleMax time.Duration) *Registry {
	return &Registry{
		rooms:       make(map[string]*Entry),
		byInvite:    make(map[string]string),
		byUser:      make(map[string]string),
		publicOrder: list.New(),
		clk:         clk,
		idleMax:     idleMax,
		rng:         rand.New(rand.NewSource(clk.Now().UnixNano())),
	}
}

// AllocateRoomID rejection-samples the 6-char base36 space until unique.
func (r *Registry) AllocateRoomID() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allocate(roomIDLength, func(candidate string) bool {
		_, exists := r.rooms[candidate]
		return exists
	})
}

// AllocateInviteCode rejection-samples the 8-char base36 space until unique.
func (r *Registry) AllocateInviteCode() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allocate(inviteCodeLength, func(candidate string) bool {
		_, exists := r.byInvite[candidate]
		return exists
	})
}

func (r *Registry) allocate(length int, collides func(string) bool) (string, error) {
	for i := 0; i < maxIDCollisions; i++ {
		candidate := randomBase36(r.rng, length)
		if !collides(candidate) {
			return candidate, nil
		}
	}
	logging.Error(context.Background(), "roomregistry: id space saturated",
		zap.Int("length", length), zap.Int("collisions", maxIDCollisions))
	return "", fmt.Errorf("roomregistry: id space saturated after %d collisions", maxIDCollisions)
}

func randomBase36(rng *rand.Rand, length int) string {
	out := make([]byte, length)
	for i := range out {
		out[i] = roomIDAlphabet[rng.Intn(len(roomIDAlphabet))]
	}
	return string(out)
}

// Register adds a newly created room's Entry to the registry.
func (r *Registry) Register(entry *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[entry.RoomID] = entry
	if entry.InviteCode != "" {
		r.byInvite[entry.InviteCode] = entry.RoomID
	}
	if !entry.IsPrivate {
		r.publicOrder.PushFront(entry.RoomID)
	}
}

// Unregister removes a room (called on teardown).
func (r *Registry) Unregister(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(r.rooms, roomID)
	if entry.InviteCode != "" {
		delete(r.byInvite, entry.InviteCode)
	}
	for e := r.publicOrder.Front(); e != nil; e = e.Next() {
		if e.Value.(string) == roomID {
			r.publicOrder.Remove(e)
			break
		}
	}
	for user, rid := range r.byUser {
		if rid == roomID {
			delete(r.byUser, user)
		}
	}
}

// BindUser records that userID now belongs to roomID.
func (r *Registry) BindUser(userID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[userID] = roomID
}

// UnbindUser removes userID from the inverted index.
func (r *Registry) UnbindUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byUser, userID)
}

// Lookup resolves user_id -> room_id in O(1).
func (r *Registry) Lookup(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.byUser[userID]
	return roomID, ok
}

// FindOpenPublicRoom scans public rooms newest-first for one in "waiting"
// with a free slot, returning its room id.
func (r *Registry) FindOpenPublicRoom(maxPlayers int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for e := r.publicOrder.Front(); e != nil; e = e.Next() {
		roomID := e.Value.(string)
		entry, ok := r.rooms[roomID]
		if !ok {
			continue
		}
		if entry.Status() == "waiting" && entry.PlayerCount() < maxPlayers {
			return roomID, true
		}
	}
	return "", false
}

// ResolveInvite maps an invite code to a room id.
func (r *Registry) ResolveInvite(inviteCode string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.byInvite[inviteCode]
	return roomID, ok
}

// StartSweeper begins periodically evicting idle, empty rooms. Stop it by
// calling StopSweeper.
func (r *Registry) StartSweeper(interval time.Duration, onEvict func(roomID string)) {
	var tick func()
	tick = func() {
		r.sweepOnce(onEvict)
		r.mu.Lock()
		r.sweeper = r.clk.AfterFunc(interval, tick)
		r.mu.Unlock()
	}
	r.mu.Lock()
	r.sweeper = r.clk.AfterFunc(interval, tick)
	r.mu.Unlock()
}

// StopSweeper cancels the idle sweeper.
func (r *Registry) StopSweeper() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sweeper != nil {
		r.sweeper.Stop()
	}
}

func (r *Registry) sweepOnce(onEvict func(roomID string)) {
	r.mu.RLock()
	now := r.clk.Now()
	var evict []string
	for id, entry := range r.rooms {
		if entry.PlayerCount() == 0 && now.Sub(entry.LastActivity()) > r.idleMax {
			evict = append(evict, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range evict {
		r.Unregister(id)
		if onEvict != nil {
			onEvict(id)
		}
	}
}
