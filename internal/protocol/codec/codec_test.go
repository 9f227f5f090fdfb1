package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/atlas/internal/protocol"
)

func TestForSubprotocol(t *testing.T) {
	t.Parallel()

	assert.IsType(t, ProtoCodec{}, ForSubprotocol(SubprotocolProto))
	assert.IsType(t, JSONCodec{}, ForSubprotocol(SubprotocolJSON))
	assert.IsType(t, JSONCodec{}, ForSubprotocol(""))
	assert.True(t, ProtoCodec{}.Binary())
	assert.False(t, JSONCodec{}.Binary())
}

func TestJSONCodec_Encode(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(protocol.MsgUpdatePlaces, []string{"agra", "accra"})
	data, err := JSONCodec{}.Encode(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"update-places","payload":["agra","accra"]}`, string(data))
}

func TestJSONCodec_DecodeRejectsMalformed(t *testing.T) {
	t.Parallel()

	_, err := JSONCodec{}.Decode([]byte(`{not json`))
	assert.Error(t, err)

	_, err = JSONCodec{}.Decode([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrMissingType)
}

func TestProtoCodec_PreservesPayload(t *testing.T) {
	t.Parallel()

	original := MustNewMessage(protocol.MsgTurnUpdate, protocol.TurnUpdatePayload{
		Player:  protocol.PlayerRef{ID: "hostA", Name: "Host"},
		Letter:  "A",
		Players: []protocol.PlayerInfo{{ID: "hostA", Name: "Host", Lives: 3}},
		Timeout: 15,
	})

	c := ProtoCodec{}
	data, err := c.Encode(original)
	require.NoError(t, err)

	decoded, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgTurnUpdate, decoded.Type)

	payload, err := ParsePayload[protocol.TurnUpdatePayload](decoded)
	require.NoError(t, err)
	assert.Equal(t, "hostA", payload.Player.ID)
	assert.Equal(t, "A", payload.Letter)
	assert.Equal(t, 3, payload.Players[0].Lives)
	assert.Equal(t, 15, payload.Timeout)
}

func TestProtoCodec_NullPayloadField(t *testing.T) {
	t.Parallel()

	c := ProtoCodec{}
	data, err := c.Encode(MustNewMessage(protocol.MsgGameOver, protocol.GameOverPayload{}))
	require.NoError(t, err)

	decoded, err := c.Decode(data)
	require.NoError(t, err)

	payload, err := ParsePayload[protocol.GameOverPayload](decoded)
	require.NoError(t, err)
	assert.Nil(t, payload.Winner)
}

func TestProtoCodec_DecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ProtoCodec{}.Decode([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}

func TestParsePayload_EmptyPayload(t *testing.T) {
	t.Parallel()

	p, err := ParsePayload[protocol.PingPayload](&protocol.Message{Type: protocol.MsgPing})
	require.NoError(t, err)
	assert.Zero(t, p.Timestamp)
}

func TestNewNotice(t *testing.T) {
	t.Parallel()

	msg := NewNotice("p1", protocol.NoticeRejected, protocol.ReasonAlreadyUsed, "used")
	p, err := ParsePayload[protocol.NoticePayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgNotice, msg.Type)
	assert.Equal(t, "p1", p.To)
	assert.Equal(t, protocol.ReasonAlreadyUsed, p.Reason)
}
