package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/palemoky/atlas/internal/dictionary"
	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/testutil"
)

const (
	testTurnTimeout = 15 * time.Second
	testStartDelay  = 3 * time.Second
)

var testPlaces = []string{
	"amsterdam", "madrid", "dublin", "nairobi", "india",
	"agra", "accra", "ankara", "athens", "berlin", "oslo", "ottawa", "tokyo",
}

// fixedLetters 总是返回同一个字母
type fixedLetters string

func (f fixedLetters) Letter() string { return string(f) }

type harness struct {
	rm    *RoomManager
	clock *testutil.FakeClock
}

func newHarness(t *testing.T, configure ...func(*ManagerDeps)) *harness {
	t.Helper()
	clock := testutil.NewFakeClock()
	deps := ManagerDeps{
		Dictionary: dictionary.New(testPlaces),
		Letters:    fixedLetters("a"),
		Clock:      clock,
		Options: Options{
			TurnTimeout:  testTurnTimeout,
			StartDelay:   testStartDelay,
			InitialLives: 3,
			MinPlayers:   2,
		},
	}
	for _, fn := range configure {
		fn(&deps)
	}
	rm := NewRoomManager(deps)
	t.Cleanup(rm.Close)
	return &harness{rm: rm, clock: clock}
}

func (h *harness) join(t *testing.T, roomID, playerID string) *testutil.SimpleClient {
	t.Helper()
	c := testutil.NewSimpleClient("conn-" + playerID)
	_, err := h.rm.JoinRoom(c, protocol.JoinRoomPayload{RoomID: roomID, PlayerID: playerID, Name: playerID})
	require.NoError(t, err)
	return c
}

// startedGame 建立房间 game.alice，按顺序加入 players（第一个为房主），开局并发出首回合
func (h *harness) startedGame(t *testing.T, players ...string) (*Room, []*testutil.SimpleClient) {
	t.Helper()
	roomID := "game." + players[0]
	clients := make([]*testutil.SimpleClient, len(players))
	for i, id := range players {
		clients[i] = h.join(t, roomID, id)
	}
	require.NoError(t, h.rm.StartGame(clients[0], roomID))
	h.clock.Advance(testStartDelay)

	r := h.rm.GetRoom(roomID)
	require.NotNil(t, r)
	require.Equal(t, clients[0].GetID(), r.CurrentPlayer)
	return r, clients
}

func lastTurn(t *testing.T, c *testutil.SimpleClient) *protocol.TurnUpdatePayload {
	t.Helper()
	turn, ok := testutil.LastPayload[protocol.TurnUpdatePayload](c, protocol.MsgTurnUpdate)
	require.True(t, ok, "expected a turn-update")
	return turn
}

func livesOf(r *Room, playerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.Members {
		if p.PlayerID == playerID {
			return p.Lives
		}
	}
	return -1
}
