package handler

import (
	"errors"
	"log"

	"github.com/palemoky/atlas/internal/apperrors"
	"github.com/palemoky/atlas/internal/game/room"
	"github.com/palemoky/atlas/internal/logger"
	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/protocol/codec"
	"github.com/palemoky/atlas/internal/types"
)

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server      types.ServerInterface
	RoomManager *room.RoomManager
}

// Handler 消息处理器，把入站消息分发给房间管理器
type Handler struct {
	server      types.ServerInterface
	roomManager *room.RoomManager
	handlers    map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:      deps.Server,
		roomManager: deps.RoomManager,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgJoinRoom:    h.handleJoinRoom,
		protocol.MsgLeaveRoom:   func(c types.ClientInterface, _ *protocol.Message) { h.handleLeaveRoom(c) },
		protocol.MsgGetRoomList: func(c types.ClientInterface, _ *protocol.Message) { h.handleGetRoomList(c) },

		// 游戏操作
		protocol.MsgStartGame:   h.handleStartGame,
		protocol.MsgStopGame:    h.handleStopGame,
		protocol.MsgSubmitPlace: h.handleSubmitPlace,
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	log.Printf("⚠️  未知消息类型: '%s' (连接: %s, Payload长度=%d bytes)", msg.Type, client.GetID(), len(msg.Payload))
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// HandleDisconnect 连接断开时把玩家移出房间
func (h *Handler) HandleDisconnect(client types.ClientInterface) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
	}()
	h.roomManager.LeaveRoom(client)
}

// replyError 未找到、无权限、非本回合等错误只记录日志，其余错误回复给发送者
func (h *Handler) replyError(client types.ClientInterface, op protocol.MessageType, err error) {
	if apperrors.IsSilent(err) {
		log.Printf("🔇 忽略 %s (连接: %s): %v", op, client.GetID(), err)
		return
	}

	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(codec.NewErrorMessage(gameErr.Code))
		return
	}
	client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, err.Error()))
}

// rejectInput 无效输入：仅提示发送者
func (h *Handler) rejectInput(client types.ClientInterface, err error) {
	log.Printf("⚠️ 无效输入 (连接: %s): %v", client.GetID(), err)
	client.SendMessage(codec.NewNotice("", protocol.NoticeRejected, protocol.ReasonInvalidInput, err.Error()))
}

// validator 带校验的 payload
type validator interface {
	Validate() error
}

// parseValid 解析并校验 payload，失败时已回复发送者
func parseValid[T any, PT interface {
	*T
	validator
}](h *Handler, client types.ClientInterface, msg *protocol.Message) (PT, bool) {
	payload, err := codec.ParsePayload[T](msg)
	if err != nil {
		h.rejectInput(client, apperrors.ErrInvalidInput)
		return nil, false
	}
	p := PT(payload)
	if err := p.Validate(); err != nil {
		h.rejectInput(client, err)
		return nil, false
	}
	return p, true
}
