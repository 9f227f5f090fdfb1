package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/atlas/internal/dictionary"
	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/protocol/codec"
)

type sent struct {
	msgType protocol.MessageType
	payload any
}

type recordingSender struct {
	sent []sent
}

func (s *recordingSender) Send(msgType protocol.MessageType, payload any) error {
	s.sent = append(s.sent, sent{msgType, payload})
	return nil
}

func (s *recordingSender) last() sent {
	return s.sent[len(s.sent)-1]
}

func newBot(cfg Config) (*Bot, *recordingSender) {
	sender := &recordingSender{}
	dict := dictionary.New([]string{"Agra", "Amsterdam", "Athens", "Madrid", "Oslo"})
	if cfg.RoomID == "" {
		cfg.RoomID = "r.bot"
	}
	if cfg.PlayerID == "" {
		cfg.PlayerID = "bot"
	}
	return New(cfg, sender, dict), sender
}

func turnUpdate(playerID, letter string) *protocol.Message {
	return codec.MustNewMessage(protocol.MsgTurnUpdate, protocol.TurnUpdatePayload{
		Player: protocol.PlayerRef{ID: playerID},
		Letter: letter,
	})
}

func TestBot_Join(t *testing.T) {
	t.Parallel()

	b, sender := newBot(Config{Name: "Robo"})
	require.NoError(t, b.Join())

	require.Len(t, sender.sent, 1)
	assert.Equal(t, protocol.MsgJoinRoom, sender.last().msgType)
	assert.Equal(t, protocol.JoinRoomPayload{RoomID: "r.bot", PlayerID: "bot", Name: "Robo"}, sender.last().payload)
}

func TestBot_ChooseSkipsUsedPlaces(t *testing.T) {
	t.Parallel()

	b, _ := newBot(Config{})
	_, err := b.Handle(codec.MustNewMessage(protocol.MsgUpdatePlaces, []string{"agra"}))
	require.NoError(t, err)

	assert.Equal(t, "amsterdam", b.Choose("a"))
	assert.Equal(t, "madrid", b.Choose("M"))
	assert.Empty(t, b.Choose("z"))
}

func TestBot_SubmitsOnOwnTurnOnly(t *testing.T) {
	t.Parallel()

	b, sender := newBot(Config{})

	_, err := b.Handle(turnUpdate("someone-else", "A"))
	require.NoError(t, err)
	assert.Empty(t, sender.sent)

	_, err = b.Handle(turnUpdate("bot", "A"))
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, protocol.MsgSubmitPlace, sender.last().msgType)
	assert.Equal(t, protocol.SubmitPlacePayload{RoomID: "r.bot", Place: "agra"}, sender.last().payload)
}

func TestBot_RetriesAfterRejection(t *testing.T) {
	t.Parallel()

	b, sender := newBot(Config{})
	_, err := b.Handle(turnUpdate("bot", "A"))
	require.NoError(t, err)

	_, err = b.Handle(codec.NewNotice("bot", protocol.NoticeRejected, protocol.ReasonAlreadyUsed, "used"))
	require.NoError(t, err)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, protocol.SubmitPlacePayload{RoomID: "r.bot", Place: "amsterdam"}, sender.last().payload)
}

func TestBot_GivesUpWhenOutOfPlaces(t *testing.T) {
	t.Parallel()

	b, sender := newBot(Config{})
	_, err := b.Handle(turnUpdate("bot", "O"))
	require.NoError(t, err)
	_, err = b.Handle(codec.NewNotice("bot", protocol.NoticeRejected, protocol.ReasonAlreadyUsed, "used"))
	require.NoError(t, err)

	// 唯一的候选被拒绝后不再提交
	assert.Len(t, sender.sent, 1)
}

func TestBot_AutoStart(t *testing.T) {
	t.Parallel()

	b, sender := newBot(Config{AutoStart: 2})
	one := []protocol.PlayerInfo{{ID: "bot"}}
	two := []protocol.PlayerInfo{{ID: "bot"}, {ID: "p2"}}

	_, err := b.Handle(codec.MustNewMessage(protocol.MsgUpdatePlayers, one))
	require.NoError(t, err)
	assert.Empty(t, sender.sent)

	_, err = b.Handle(codec.MustNewMessage(protocol.MsgUpdatePlayers, two))
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, protocol.MsgStartGame, sender.last().msgType)

	_, err = b.Handle(codec.MustNewMessage(protocol.MsgUpdatePlayers, two))
	require.NoError(t, err)
	assert.Len(t, sender.sent, 1)
}

func TestBot_RunReturnsResult(t *testing.T) {
	t.Parallel()

	b, _ := newBot(Config{})
	msgs := make(chan *protocol.Message, 3)
	msgs <- codec.MustNewMessage(protocol.MsgUpdatePlaces, []string{"agra", "athens"})
	msgs <- codec.MustNewMessage(protocol.MsgGameOver, protocol.GameOverPayload{Winner: &protocol.PlayerInfo{ID: "bot", Lives: 2}})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	result, err := b.Run(ctx, msgs, make(chan struct{}))
	require.NoError(t, err)
	require.NotNil(t, result.Winner)
	assert.Equal(t, "bot", result.Winner.ID)
	assert.Equal(t, []string{"agra", "athens"}, result.Places)
}

func TestBot_RunStopsOnClose(t *testing.T) {
	t.Parallel()

	b, _ := newBot(Config{})
	closed := make(chan struct{})
	close(closed)

	_, err := b.Run(context.Background(), make(chan *protocol.Message), closed)
	assert.ErrorIs(t, err, errConnectionClosed)
}
