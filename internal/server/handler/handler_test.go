package handler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/atlas/internal/dictionary"
	"github.com/palemoky/atlas/internal/game/room"
	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/protocol/codec"
	"github.com/palemoky/atlas/internal/testutil"
)

type staticLetter struct{}

func (staticLetter) Letter() string { return "a" }

func setupHandler(t *testing.T, maintenance bool) (*Handler, *room.RoomManager, *testutil.FakeClock) {
	t.Helper()
	clock := testutil.NewFakeClock()
	rm := room.NewRoomManager(room.ManagerDeps{
		Dictionary: dictionary.New([]string{"agra", "amsterdam", "madrid"}),
		Letters:    staticLetter{},
		Clock:      clock,
		Options:    room.Options{TurnTimeout: 15 * time.Second, StartDelay: time.Second},
	})
	t.Cleanup(rm.Close)

	mockServer := new(testutil.MockServer)
	mockServer.On("IsMaintenanceMode").Return(maintenance)

	h := NewHandler(HandlerDeps{Server: mockServer, RoomManager: rm})
	return h, rm, clock
}

func send(h *Handler, c *testutil.SimpleClient, msgType protocol.MessageType, payload any) {
	h.Handle(c, codec.MustNewMessage(msgType, payload))
}

func joinPayload(roomID, playerID string) protocol.JoinRoomPayload {
	return protocol.JoinRoomPayload{RoomID: roomID, PlayerID: playerID, Name: playerID}
}

func TestHandler_UnknownType(t *testing.T) {
	t.Parallel()

	h, _, _ := setupHandler(t, false)
	c := testutil.NewSimpleClient("c1")

	h.Handle(c, &protocol.Message{Type: "dance"})

	errPayload, ok := testutil.LastPayload[protocol.ErrorPayload](c, protocol.MsgError)
	require.True(t, ok)
	assert.Equal(t, protocol.ErrCodeInvalidMsg, errPayload.Code)
}

func TestHandler_Ping(t *testing.T) {
	t.Parallel()

	h, _, _ := setupHandler(t, false)
	c := testutil.NewSimpleClient("c1")

	send(h, c, protocol.MsgPing, protocol.PingPayload{Timestamp: 42})

	pong, ok := testutil.LastPayload[protocol.PongPayload](c, protocol.MsgPong)
	require.True(t, ok)
	assert.Equal(t, int64(42), pong.ClientTimestamp)
	assert.NotZero(t, pong.ServerTimestamp)
}

func TestHandler_JoinRoom_InvalidInput(t *testing.T) {
	t.Parallel()

	h, rm, _ := setupHandler(t, false)
	c := testutil.NewSimpleClient("c1")

	send(h, c, protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "r.alice"})
	h.Handle(c, &protocol.Message{Type: protocol.MsgJoinRoom, Payload: json.RawMessage(`{"room_id": 7}`)})

	notices := c.MessagesOfType(protocol.MsgNotice)
	require.Len(t, notices, 2)
	for _, m := range notices {
		n, err := codec.ParsePayload[protocol.NoticePayload](m)
		require.NoError(t, err)
		assert.Equal(t, protocol.NoticeRejected, n.Code)
		assert.Equal(t, protocol.ReasonInvalidInput, n.Reason)
	}
	assert.Nil(t, rm.GetRoom("r.alice"))
	assert.Empty(t, c.GetRoom())
}

func TestHandler_JoinRoom_Maintenance(t *testing.T) {
	t.Parallel()

	h, rm, _ := setupHandler(t, true)
	c := testutil.NewSimpleClient("c1")

	send(h, c, protocol.MsgJoinRoom, joinPayload("new.alice", "alice"))
	errPayload, ok := testutil.LastPayload[protocol.ErrorPayload](c, protocol.MsgError)
	require.True(t, ok)
	assert.Equal(t, protocol.ErrCodeServerMaintenance, errPayload.Code)
	assert.Nil(t, rm.GetRoom("new.alice"))

	rm.CreateIfAbsent("old.bob")
	send(h, c, protocol.MsgJoinRoom, joinPayload("old.bob", "alice"))
	assert.Equal(t, "old.bob", c.GetRoom(), "existing rooms stay joinable")
}

func TestHandler_SilentErrors(t *testing.T) {
	t.Parallel()

	h, _, _ := setupHandler(t, false)
	alice := testutil.NewSimpleClient("c-alice")
	bob := testutil.NewSimpleClient("c-bob")
	send(h, alice, protocol.MsgJoinRoom, joinPayload("r.alice", "alice"))
	send(h, bob, protocol.MsgJoinRoom, joinPayload("r.alice", "bob"))
	before := len(bob.SentMessages())

	send(h, bob, protocol.MsgStartGame, protocol.RoomActionPayload{RoomID: "r.alice"})
	send(h, bob, protocol.MsgStopGame, protocol.RoomActionPayload{RoomID: "missing"})
	send(h, bob, protocol.MsgSubmitPlace, protocol.SubmitPlacePayload{RoomID: "r.alice", Place: "agra"})

	assert.Len(t, bob.SentMessages(), before, "not-host, not-found and out-of-turn are never answered")
}

func TestHandler_GameFlow(t *testing.T) {
	t.Parallel()

	h, rm, clock := setupHandler(t, false)
	alice := testutil.NewSimpleClient("c-alice")
	bob := testutil.NewSimpleClient("c-bob")
	send(h, alice, protocol.MsgJoinRoom, joinPayload("r.alice", "alice"))
	send(h, bob, protocol.MsgJoinRoom, joinPayload("r.alice", "bob"))

	send(h, alice, protocol.MsgStartGame, protocol.RoomActionPayload{RoomID: "r.alice"})
	clock.Advance(time.Second)

	turn, ok := testutil.LastPayload[protocol.TurnUpdatePayload](bob, protocol.MsgTurnUpdate)
	require.True(t, ok)
	assert.Equal(t, "alice", turn.Player.ID)

	send(h, alice, protocol.MsgSubmitPlace, protocol.SubmitPlacePayload{RoomID: "r.alice", Place: "Amsterdam"})
	places, ok := testutil.LastPayload[[]string](bob, protocol.MsgUpdatePlaces)
	require.True(t, ok)
	assert.Equal(t, []string{"amsterdam"}, *places)

	h.HandleDisconnect(bob)
	over, ok := testutil.LastPayload[protocol.GameOverPayload](alice, protocol.MsgGameOver)
	require.True(t, ok)
	require.NotNil(t, over.Winner)
	assert.Equal(t, "alice", over.Winner.ID)
	assert.Nil(t, rm.GetRoom("r.alice"))
}

func TestHandler_GetRoomList(t *testing.T) {
	t.Parallel()

	h, _, _ := setupHandler(t, false)
	c := testutil.NewSimpleClient("c1")

	send(h, c, protocol.MsgGetRoomList, nil)
	list, ok := testutil.LastPayload[protocol.RoomListPayload](c, protocol.MsgRoomList)
	require.True(t, ok)
	assert.Empty(t, list.Rooms)

	send(h, c, protocol.MsgJoinRoom, joinPayload("r.alice", "alice"))
	send(h, c, protocol.MsgGetRoomList, nil)
	list, ok = testutil.LastPayload[protocol.RoomListPayload](c, protocol.MsgRoomList)
	require.True(t, ok)
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, "r.alice", list.Rooms[0].RoomID)
	assert.Equal(t, 1, list.Rooms[0].PlayerCount)

	send(h, c, protocol.MsgLeaveRoom, nil)
	assert.Empty(t, c.GetRoom())
}
