package handler

import (
	"log"

	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/protocol/codec"
	"github.com/palemoky/atlas/internal/types"
)

// handleJoinRoom 处理加入房间（房间不存在时创建）
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	payload, ok := parseValid[protocol.JoinRoomPayload](h, client, msg)
	if !ok {
		return
	}

	// 维护模式下不再创建新房间，已有房间仍可加入
	if h.server.IsMaintenanceMode() && h.roomManager.GetRoom(payload.RoomID) == nil {
		client.SendMessage(codec.NewErrorMessageWithText(
			protocol.ErrCodeServerMaintenance, "Server is under maintenance, no new rooms"))
		return
	}

	if _, err := h.roomManager.JoinRoom(client, *payload); err != nil {
		h.replyError(client, msg.Type, err)
		return
	}
	log.Printf("🚪 连接 %s 以玩家 %s 身份进入房间 %s", client.GetID(), payload.PlayerID, payload.RoomID)
}

// handleLeaveRoom 处理离开房间
func (h *Handler) handleLeaveRoom(client types.ClientInterface) {
	h.roomManager.LeaveRoom(client)
}

// handleGetRoomList 获取可加入的房间列表
func (h *Handler) handleGetRoomList(client types.ClientInterface) {
	rooms := h.roomManager.GetRoomList()
	if rooms == nil {
		rooms = []protocol.RoomListItem{}
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgRoomList, protocol.RoomListPayload{Rooms: rooms}))
}
