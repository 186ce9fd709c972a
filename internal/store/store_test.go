package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewFromClient(client), mr
}

func TestSaveGamePersistsRecords(t *testing.T) {
	s, mr := newTestStore(t)

	session := Session{ID: "sess-1", RoomID: "room-1", Mode: "public", StartedAt: time.Unix(0, 0), EndedAt: time.Unix(100, 0)}
	participants := []Participant{{SessionID: "sess-1", UserID: "u1", Score: 42}}
	rounds := []Round{{SessionID: "sess-1", RoundIndex: 0, DrawerID: "u1", Word: "cat", EndedAt: time.Unix(50, 0)}}

	s.SaveGame(context.Background(), session, participants, rounds)

	assert.True(t, mr.Exists("game_session:sess-1"))
	length, err := mr.List("game_participant:sess-1")
	require.NoError(t, err)
	assert.Len(t, length, 1)
}

func TestDisabledStoreIsNoOp(t *testing.T) {
	s, err := New("", "")
	require.NoError(t, err)

	s.SaveGame(context.Background(), Session{ID: "sess-2"}, nil, nil)
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}
