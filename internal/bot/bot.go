// Package bot 实现自动接龙的机器人玩家，用于联调和压测。
package bot

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/palemoky/atlas/internal/dictionary"
	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/protocol/codec"
)

var errConnectionClosed = errors.New("connection closed before game over")

// Sender 发送消息的连接
type Sender interface {
	Send(msgType protocol.MessageType, payload any) error
}

// Places 按首字母提供候选地名
type Places interface {
	StartingWith(letter string) []string
}

// Config 机器人配置
type Config struct {
	RoomID   string
	PlayerID string
	Name     string
	Photo    string
	// AutoStart 大于 0 时，活跃玩家数达到该值后发送 start-game（仅房主有效）
	AutoStart int
}

// Result 一局结束后的结果
type Result struct {
	Winner  *protocol.PlayerInfo
	Stopped bool
	Places  []string
}

// Bot 机器人玩家，Handle 只应在单个协程中调用
type Bot struct {
	cfg    Config
	sender Sender
	places Places

	used    []string
	usedSet map[string]struct{}
	tried   map[string]struct{} // 当前回合已被拒绝的地名
	letter  string
	myTurn  bool
	started bool
}

// New 创建机器人
func New(cfg Config, sender Sender, places Places) *Bot {
	return &Bot{
		cfg:     cfg,
		sender:  sender,
		places:  places,
		usedSet: make(map[string]struct{}),
		tried:   make(map[string]struct{}),
	}
}

// Join 加入房间
func (b *Bot) Join() error {
	return b.sender.Send(protocol.MsgJoinRoom, protocol.JoinRoomPayload{
		RoomID:   b.cfg.RoomID,
		PlayerID: b.cfg.PlayerID,
		Name:     b.cfg.Name,
		Photo:    b.cfg.Photo,
	})
}

// Choose 返回以 letter 开头、未被使用且本回合未被拒绝的第一个地名
func (b *Bot) Choose(letter string) string {
	for _, place := range b.places.StartingWith(letter) {
		if _, ok := b.usedSet[place]; ok {
			continue
		}
		if _, ok := b.tried[place]; ok {
			continue
		}
		return place
	}
	return ""
}

// Handle 处理一条服务器消息，游戏结束时返回结果
func (b *Bot) Handle(msg *protocol.Message) (*Result, error) {
	switch msg.Type {
	case protocol.MsgUpdatePlaces:
		places, err := codec.ParsePayload[[]string](msg)
		if err != nil {
			return nil, err
		}
		b.setUsed(*places)

	case protocol.MsgUpdatePlayers:
		players, err := codec.ParsePayload[[]protocol.PlayerInfo](msg)
		if err != nil {
			return nil, err
		}
		if b.cfg.AutoStart > 0 && !b.started && len(*players) >= b.cfg.AutoStart {
			b.started = true
			return nil, b.sender.Send(protocol.MsgStartGame, protocol.RoomActionPayload{RoomID: b.cfg.RoomID})
		}

	case protocol.MsgTurnUpdate:
		turn, err := codec.ParsePayload[protocol.TurnUpdatePayload](msg)
		if err != nil {
			return nil, err
		}
		b.started = true
		b.letter = strings.ToLower(turn.Letter)
		b.myTurn = turn.Player.ID == b.cfg.PlayerID
		clear(b.tried)
		if b.myTurn {
			return nil, b.submit()
		}

	case protocol.MsgNotice:
		notice, err := codec.ParsePayload[protocol.NoticePayload](msg)
		if err != nil {
			return nil, err
		}
		if notice.Code == protocol.NoticeRejected && b.myTurn {
			log.Printf("🤖 %s 的提交被拒绝: %s", b.cfg.Name, notice.Reason)
			return nil, b.submit()
		}

	case protocol.MsgGameOver:
		over, err := codec.ParsePayload[protocol.GameOverPayload](msg)
		if err != nil {
			return nil, err
		}
		return &Result{Winner: over.Winner, Places: b.used}, nil

	case protocol.MsgGameStopped:
		return &Result{Stopped: true, Places: b.used}, nil
	}
	return nil, nil
}

// Run 持续处理消息直到游戏结束、连接关闭或 ctx 取消
func (b *Bot) Run(ctx context.Context, msgs <-chan *protocol.Message, closed <-chan struct{}) (*Result, error) {
	for {
		select {
		case msg := <-msgs:
			result, err := b.Handle(msg)
			if err != nil {
				return nil, err
			}
			if result != nil {
				return result, nil
			}
		case <-closed:
			return nil, errConnectionClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (b *Bot) submit() error {
	place := b.Choose(b.letter)
	if place == "" {
		log.Printf("🤖 %s 想不出以 %s 开头的地名，等待超时", b.cfg.Name, strings.ToUpper(b.letter))
		b.myTurn = false
		return nil
	}
	b.tried[place] = struct{}{}
	return b.sender.Send(protocol.MsgSubmitPlace, protocol.SubmitPlacePayload{RoomID: b.cfg.RoomID, Place: place})
}

func (b *Bot) setUsed(places []string) {
	b.used = places
	clear(b.usedSet)
	for _, p := range places {
		b.usedSet[dictionary.Normalize(p)] = struct{}{}
	}
}
