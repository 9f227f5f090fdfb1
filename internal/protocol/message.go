package protocol

import "encoding/json"

// Message 基础消息结构，Type 为判别字段
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	MsgPing        MessageType = "ping"          // 心跳 ping
	MsgJoinRoom    MessageType = "join-room"     // 加入（或创建）房间
	MsgLeaveRoom   MessageType = "leave-room"    // 离开房间
	MsgStartGame   MessageType = "start-game"    // 房主开始游戏
	MsgStopGame    MessageType = "stop-game"     // 房主终止游戏
	MsgSubmitPlace MessageType = "submit-place"  // 提交地名
	MsgGetRoomList MessageType = "get-room-list" // 获取可加入房间列表
)

// 服务端 → 客户端 消息类型
const (
	MsgConnected      MessageType = "connected"       // 连接成功
	MsgPong           MessageType = "pong"            // 心跳 pong
	MsgUpdatePlayers  MessageType = "update-players"  // 活跃玩家列表
	MsgUpdatePlaces   MessageType = "update-places"   // 已用地名列表
	MsgTurnUpdate     MessageType = "turn-update"     // 回合切换
	MsgPlayerInactive MessageType = "player-inactive" // 淘汰或观战通知
	MsgGameOver       MessageType = "game-over"       // 游戏结束
	MsgGameStopped    MessageType = "game-stopped"    // 房主终止游戏
	MsgNotice         MessageType = "msg"             // 提示消息
	MsgRoomList       MessageType = "room-list"       // 房间列表结果
	MsgError          MessageType = "error"           // 错误消息
)
