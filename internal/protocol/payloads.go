package protocol

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	maxRoomIDLength = 128
	maxNameLength   = 64
	maxPlaceLength  = 100
	maxPhotoLength  = 2048
)

var (
	ErrMissingRoomID   = errors.New("room_id is required")
	ErrMissingPlayerID = errors.New("player_id is required")
	ErrMissingPlace    = errors.New("place is required")
	ErrFieldTooLong    = errors.New("field too long")
)

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// JoinRoomPayload 加入房间请求，player_id 由上游认证给出
type JoinRoomPayload struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Photo    string `json:"photo"`
}

func (p *JoinRoomPayload) Validate() error {
	p.RoomID = strings.TrimSpace(p.RoomID)
	p.PlayerID = strings.TrimSpace(p.PlayerID)
	p.Name = strings.TrimSpace(p.Name)
	if p.RoomID == "" {
		return ErrMissingRoomID
	}
	if p.PlayerID == "" {
		return ErrMissingPlayerID
	}
	if len(p.RoomID) > maxRoomIDLength || utf8.RuneCountInString(p.Name) > maxNameLength || len(p.Photo) > maxPhotoLength {
		return ErrFieldTooLong
	}
	if p.Name == "" {
		p.Name = p.PlayerID
	}
	return nil
}

// RoomActionPayload start-game / stop-game 请求
type RoomActionPayload struct {
	RoomID string `json:"room_id"`
}

func (p *RoomActionPayload) Validate() error {
	p.RoomID = strings.TrimSpace(p.RoomID)
	if p.RoomID == "" {
		return ErrMissingRoomID
	}
	return nil
}

// SubmitPlacePayload 提交地名请求
type SubmitPlacePayload struct {
	RoomID string `json:"room_id"`
	Place  string `json:"place"`
}

func (p *SubmitPlacePayload) Validate() error {
	p.RoomID = strings.TrimSpace(p.RoomID)
	p.Place = strings.TrimSpace(p.Place)
	if p.RoomID == "" {
		return ErrMissingRoomID
	}
	if p.Place == "" {
		return ErrMissingPlace
	}
	if utf8.RuneCountInString(p.Place) > maxPlaceLength {
		return ErrFieldTooLong
	}
	return nil
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	ConnID string `json:"conn_id"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"`
	ServerTimestamp int64 `json:"server_timestamp"`
}

// PlayerInfo 活跃玩家信息
type PlayerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Lives int    `json:"lives"`
	Photo string `json:"photo,omitempty"`
}

// PlayerRef 玩家引用
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TurnUpdatePayload 回合切换通知
type TurnUpdatePayload struct {
	Player  PlayerRef    `json:"player"`
	Letter  string       `json:"letter"` // 大写
	Players []PlayerInfo `json:"players"`
	Timeout int          `json:"timeout"` // 秒
}

// PlayerInactivePayload 淘汰或观战通知
type PlayerInactivePayload struct {
	ID   string `json:"id"`
	Code int    `json:"code"`
}

// GameOverPayload 游戏结束通知，Winner 为 nil 表示无人幸存
type GameOverPayload struct {
	Winner *PlayerInfo `json:"winner"`
}

// GameStoppedPayload 房主终止游戏通知
type GameStoppedPayload struct {
	HostID string `json:"host_id"`
}

// NoticePayload msg 消息
type NoticePayload struct {
	Msg    string `json:"msg"`
	To     string `json:"to"` // 玩家 ID，"*" 表示所有人
	Code   int    `json:"code"`
	Reason string `json:"reason,omitempty"`
}

// RoomListItem 房间列表项
type RoomListItem struct {
	RoomID      string `json:"room_id"`
	HostID      string `json:"host_id"`
	PlayerCount int    `json:"player_count"`
}

// RoomListPayload 房间列表结果
type RoomListPayload struct {
	Rooms []RoomListItem `json:"rooms"`
}

// ErrorPayload 错误消息
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
