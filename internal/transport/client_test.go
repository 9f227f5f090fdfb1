package transport

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/atlas/internal/config"
	"github.com/palemoky/atlas/internal/dictionary"
	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/server"
)

func startServer(t *testing.T) string {
	t.Helper()
	s, err := server.NewServer(config.Default(), dictionary.New([]string{"agra"}))
	require.NoError(t, err)

	ts := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func waitFor(t *testing.T, c *Client, want protocol.MessageType) *protocol.Message {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case msg := <-c.Receive():
			if msg.Type == want {
				return msg
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", want)
			return nil
		}
	}
}

func TestClient_ConnectAndPing(t *testing.T) {
	t.Parallel()

	for _, useProto := range []bool{false, true} {
		c := NewClient(startServer(t), useProto)
		require.NoError(t, c.Connect(context.Background()))
		t.Cleanup(c.Close)

		waitFor(t, c, protocol.MsgConnected)
		assert.NotEmpty(t, c.ConnID())

		require.NoError(t, c.Ping())
		waitFor(t, c, protocol.MsgPong)
		assert.GreaterOrEqual(t, int64(c.Latency()), int64(0))
	}
}

func TestClient_JoinRoom(t *testing.T) {
	t.Parallel()

	c := NewClient(startServer(t), true)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(c.Close)

	require.NoError(t, c.Send(protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "r.p1", PlayerID: "p1", Name: "One"}))
	msg := waitFor(t, c, protocol.MsgUpdatePlayers)
	assert.Contains(t, string(msg.Payload), `"One"`)
}

func TestClient_SendAfterClose(t *testing.T) {
	t.Parallel()

	c := NewClient(startServer(t), false)
	require.NoError(t, c.Connect(context.Background()))
	c.Close()

	assert.ErrorIs(t, c.Send(protocol.MsgPing, protocol.PingPayload{}), ErrClosed)
	select {
	case <-c.Done():
	default:
		t.Fatal("done channel not closed")
	}
}
