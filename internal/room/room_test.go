package room

import (
	"sync"
	"testing"
	"time"

	"github.com/brushline/doodleserver/internal/clock"
	"github.com/brushline/doodleserver/internal/lobbychat"
	"github.com/brushline/doodleserver/internal/protocol"
	"github.com/brushline/doodleserver/internal/store"
	"github.com/brushline/doodleserver/internal/words"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	userID string
	env    protocol.Envelope
}

type fakeOutbound struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeOutbound) SendTo(userID string, env protocol.Envelope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{userID, env})
}

func (f *fakeOutbound) Broadcast(roomID string, env protocol.Envelope, exceptUserID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{"*", env})
}

func (f *fakeOutbound) OnPlayerLeft(userID string) {}

func (f *fakeOutbound) latestOfType(eventType string) *protocol.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].env.Type == eventType {
			return &f.events[i].env
		}
	}
	return nil
}

func newTestRoom(t *testing.T) (*Room, *clock.Fake, *fakeOutbound) {
	t.Helper()
	fake := clock.NewFake(time.Unix(0, 0))
	out := &fakeOutbound{}
	s, err := store.New("", "")
	require.NoError(t, err)
	r := New("abc123", "", false, protocol.DefaultSettings(false), fake, words.New(1), s, out, lobbychat.NewFilter(nil))
	go r.Run()
	t.Cleanup(r.Close)
	return r, fake, out
}

func drain(r *Room) {
	// Give the consumer goroutine a moment to process enqueued messages.
	for i := 0; i < 50 && len(r.input) > 0; i++ {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(5 * time.Millisecond)
}

func TestJoinAddsPlayerAndBroadcasts(t *testing.T) {
	r, _, out := newTestRoom(t)

	r.enqueue(msgJoin{userID: "u1", displayName: "Ada"})
	drain(r)

	assert.Len(t, r.players, 1)
	assert.NotNil(t, out.latestOfType(protocol.EventRoomJoined))
}

func TestJoinRejectsWhenRoomFull(t *testing.T) {
	r, _, out := newTestRoom(t)
	r.Settings.MaxPlayers = 1

	r.enqueue(msgJoin{userID: "u1", displayName: "Ada"})
	drain(r)
	r.enqueue(msgJoin{userID: "u2", displayName: "Bob"})
	drain(r)

	assert.Len(t, r.players, 1)
	errEnv := out.latestOfType(protocol.EventError)
	require.NotNil(t, errEnv)
	var payload protocol.ErrorPayload
	require.NoError(t, errEnv.Decode(&payload))
	assert.Equal(t, protocol.ErrRoomFull, payload.Code)
}

func TestStartGameAdvancesToWordSelection(t *testing.T) {
	r, _, out := newTestRoom(t)
	r.enqueue(msgJoin{userID: "u1", displayName: "Ada"})
	r.enqueue(msgJoin{userID: "u2", displayName: "Bob"})
	drain(r)

	r.enqueue(msgStartGame{userID: "u1"})
	drain(r)

	assert.Equal(t, StatusWordSelection, r.status)
	assert.NotNil(t, out.latestOfType(protocol.EventWordSelection))
}

func TestSelectWordBeginsDrawingAndCorrectGuessEndsAllGuessedTurn(t *testing.T) {
	r, fake, out := newTestRoom(t)
	r.enqueue(msgJoin{userID: "u1", displayName: "Ada"})
	r.enqueue(msgJoin{userID: "u2", displayName: "Bob"})
	r.enqueue(msgStartGame{userID: "u1"})
	drain(r)

	drawerID := r.turn.drawerID
	guesserID := "u1"
	if drawerID == "u1" {
		guesserID = "u2"
	}
	word := r.turn.wordChoices[0]

	r.enqueue(msgSelectWord{userID: drawerID, word: word, turnID: r.turn.turnID})
	drain(r)
	assert.Equal(t, StatusDrawing, r.status)

	r.enqueue(msgChatMessage{userID: guesserID, text: word})
	drain(r)

	assert.NotNil(t, out.latestOfType(protocol.EventTurnEnded))
	_ = fake
}

func TestDrawOpFromNonDrawerIsRejected(t *testing.T) {
	r, _, out := newTestRoom(t)
	r.enqueue(msgJoin{userID: "u1", displayName: "Ada"})
	r.enqueue(msgJoin{userID: "u2", displayName: "Bob"})
	r.enqueue(msgStartGame{userID: "u1"})
	drain(r)

	drawerID := r.turn.drawerID
	nonDrawer := "u1"
	if drawerID == "u1" {
		nonDrawer = "u2"
	}
	word := r.turn.wordChoices[0]
	r.enqueue(msgSelectWord{userID: drawerID, word: word, turnID: r.turn.turnID})
	drain(r)

	r.enqueue(msgDrawOp{userID: nonDrawer, op: protocol.DrawOp{Kind: protocol.OpStroke}})
	drain(r)

	errEnv := out.latestOfType(protocol.EventError)
	require.NotNil(t, errEnv)
	var payload protocol.ErrorPayload
	require.NoError(t, errEnv.Decode(&payload))
	assert.Equal(t, protocol.ErrNotDrawer, payload.Code)
}

func TestTurnTimeoutEndsTurn(t *testing.T) {
	r, fake, out := newTestRoom(t)
	r.Settings.DrawTimeSeconds = 30
	r.enqueue(msgJoin{userID: "u1", displayName: "Ada"})
	r.enqueue(msgJoin{userID: "u2", displayName: "Bob"})
	r.enqueue(msgStartGame{userID: "u1"})
	drain(r)

	r.enqueue(msgSelectWord{userID: r.turn.drawerID, word: r.turn.wordChoices[0], turnID: r.turn.turnID})
	drain(r)

	fake.Advance(31 * time.Second)
	drain(r)

	assert.NotNil(t, out.latestOfType(protocol.EventTurnEnded))
}
