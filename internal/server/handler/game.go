package handler

import (
	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/types"
)

// handleStartGame 房主开始游戏
func (h *Handler) handleStartGame(client types.ClientInterface, msg *protocol.Message) {
	payload, ok := parseValid[protocol.RoomActionPayload](h, client, msg)
	if !ok {
		return
	}
	if err := h.roomManager.StartGame(client, payload.RoomID); err != nil {
		h.replyError(client, msg.Type, err)
	}
}

// handleStopGame 房主终止游戏
func (h *Handler) handleStopGame(client types.ClientInterface, msg *protocol.Message) {
	payload, ok := parseValid[protocol.RoomActionPayload](h, client, msg)
	if !ok {
		return
	}
	if err := h.roomManager.StopGame(client, payload.RoomID); err != nil {
		h.replyError(client, msg.Type, err)
	}
}

// handleSubmitPlace 提交地名，校验结果由房间管理器通知
func (h *Handler) handleSubmitPlace(client types.ClientInterface, msg *protocol.Message) {
	payload, ok := parseValid[protocol.SubmitPlacePayload](h, client, msg)
	if !ok {
		return
	}
	if _, err := h.roomManager.SubmitPlace(client, payload.RoomID, payload.Place); err != nil {
		h.replyError(client, msg.Type, err)
	}
}
