package roomregistry

import (
	"testing"
	"time"

	"github.com/brushline/doodleserver/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateRoomIDIsUnique(t *testing.T) {
	r := New(clock.NewFake(time.Unix(0, 0)), time.Minute)

	id1, err := r.AllocateRoomID()
	require.NoError(t, err)
	r.Register(&Entry{RoomID: id1, Status: func() string { return "waiting" }, PlayerCount: func() int { return 0 }, LastActivity: time.Now})

	id2, err := r.AllocateRoomID()
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
	assert.Len(t, id1, roomIDLength)
}

func TestLookupResolvesBoundUser(t *testing.T) {
	r := New(clock.NewFake(time.Unix(0, 0)), time.Minute)
	r.BindUser("u1", "room-a")

	roomID, ok := r.Lookup("u1")

	assert.True(t, ok)
	assert.Equal(t, "room-a", roomID)
}

func TestFindOpenPublicRoomPrefersNewestWithSpace(t *testing.T) {
	r := New(clock.NewFake(time.Unix(0, 0)), time.Minute)
	r.Register(&Entry{RoomID: "old", Status: func() string { return "waiting" }, PlayerCount: func() int { return 1 }, LastActivity: time.Now})
	r.Register(&Entry{RoomID: "new", Status: func() string { return "waiting" }, PlayerCount: func() int { return 1 }, LastActivity: time.Now})

	roomID, ok := r.FindOpenPublicRoom(8)

	assert.True(t, ok)
	assert.Equal(t, "new", roomID)
}

func TestFindOpenPublicRoomSkipsFullRooms(t *testing.T) {
	r := New(clock.NewFake(time.Unix(0, 0)), time.Minute)
	r.Register(&Entry{RoomID: "full", Status: func() string { return "waiting" }, PlayerCount: func() int { return 8 }, LastActivity: time.Now})

	_, ok := r.FindOpenPublicRoom(8)

	assert.False(t, ok)
}

func TestResolveInviteAndUnregister(t *testing.T) {
	r := New(clock.NewFake(time.Unix(0, 0)), time.Minute)
	r.Register(&Entry{RoomID: "priv", InviteCode: "abcd1234", IsPrivate: true, Status: func() string { return "waiting" }, PlayerCount: func() int { return 0 }, LastActivity: time.Now})

	roomID, ok := r.ResolveInvite("abcd1234")
	assert.True(t, ok)
	assert.Equal(t, "priv", roomID)

	r.Unregister("priv")
	_, ok = r.ResolveInvite("abcd1234")
	assert.False(t, ok)
}

func TestSweeperEvictsIdleEmptyRooms(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	r := New(fake, 30*time.Minute)
	r.Register(&Entry{
		RoomID:       "idle",
		Status:       func() string { return "waiting" },
		PlayerCount:  func() int { return 0 },
		LastActivity: func() time.Time { return time.Unix(0, 0) },
	})

	var evicted []string
	r.StartSweeper(time.Minute, func(roomID string) { evicted = append(evicted, roomID) })

	fake.Advance(31 * time.Minute)

	assert.Contains(t, evicted, "idle")
}
