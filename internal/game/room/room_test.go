package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/testutil"
)

func TestHostIDFromRoomID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		roomID string
		want   string
	}{
		{"k3j4.alice", "alice"},
		{"a.b.carol", "carol"},
		{"lobby", ""},
		{"trailing.", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HostIDFromRoomID(tt.roomID), tt.roomID)
	}
}

func TestRoom_NextActiveAfter(t *testing.T) {
	t.Parallel()

	r := newRoom("x.a", time.Now())
	for _, id := range []string{"a", "b", "c", "d"} {
		r.Members = append(r.Members, &Player{Client: testutil.NewSimpleClient(id), PlayerID: id, Active: true})
	}
	r.Members[1].Active = false

	assert.Equal(t, "a", r.nextActiveAfter(-1).PlayerID)
	assert.Equal(t, "c", r.nextActiveAfter(0).PlayerID, "inactive members are skipped")
	assert.Equal(t, "a", r.nextActiveAfter(3).PlayerID, "wraps around")
	assert.Equal(t, "a", r.nextActiveAfter(10).PlayerID, "out of range starts from the beginning")

	for _, p := range r.Members {
		p.Active = false
	}
	assert.Nil(t, r.nextActiveAfter(0))
}

func TestRoomManager_CreateIfAbsent(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	r1 := h.rm.CreateIfAbsent("abc.alice")
	r2 := h.rm.CreateIfAbsent("abc.alice")

	assert.Same(t, r1, r2)
	assert.Equal(t, "alice", r1.HostID)
	assert.Equal(t, RoomStateLobby, r1.State)
	assert.Equal(t, 1, h.rm.RoomCount())

	h.rm.DeleteRoom("abc.alice")
	h.rm.DeleteRoom("abc.alice")
	assert.Nil(t, h.rm.GetRoom("abc.alice"))
	assert.Equal(t, RoomStateTerminated, r1.State)
}

func TestRoomManager_GetRoomList(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.join(t, "b.bob", "bob")
	h.join(t, "b.bob", "x")
	h.startedGame(t, "alice", "carol")

	list := h.rm.GetRoomList()
	require.Len(t, list, 1, "playing rooms are not listed")
	assert.Equal(t, protocol.RoomListItem{RoomID: "b.bob", HostID: "bob", PlayerCount: 2}, list[0])
	assert.Equal(t, 1, h.rm.GetActiveGamesCount())
}

func TestRoomManager_CleanupIdleRooms(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(d *ManagerDeps) { d.Options.RoomTimeout = 10 * time.Minute })
	idle := h.join(t, "idle.alice", "alice")
	bob := h.join(t, "game.bob", "bob")
	h.join(t, "game.bob", "carol")

	h.clock.Advance(11 * time.Minute)
	require.NoError(t, h.rm.StartGame(bob, "game.bob"))
	assert.Equal(t, 1, h.rm.cleanupIdleRooms())

	assert.Nil(t, h.rm.GetRoom("idle.alice"))
	assert.NotNil(t, h.rm.GetRoom("game.bob"), "playing rooms are never cleaned")
	assert.Equal(t, 1, idle.CountOf(protocol.MsgError))
	assert.Empty(t, idle.GetRoom())
}

func TestRoomManager_CloseStopsTimers(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.startedGame(t, "alice", "bob")
	require.Equal(t, 1, h.clock.Pending())

	h.rm.Close()
	assert.Equal(t, 0, h.clock.Pending())
}
