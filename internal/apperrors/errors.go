package apperrors

import (
	"github.com/palemoky/atlas/internal/protocol"
)

// GameError 游戏错误
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound      = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: "房间不存在"}
	ErrNotInRoom         = &GameError{Code: protocol.ErrCodeNotInRoom, Message: "您不在房间中"}
	ErrNotHost           = &GameError{Code: protocol.ErrCodeNotHost, Message: "只有房主可以操作"}
	ErrGameStarted       = &GameError{Code: protocol.ErrCodeGameStarted, Message: "游戏已开始"}
	ErrNotEnoughPlayers  = &GameError{Code: protocol.ErrCodeNotEnoughPlayers, Message: "玩家人数不足"}
	ErrGameNotStart      = &GameError{Code: protocol.ErrCodeGameNotStart, Message: "游戏尚未开始"}
	ErrNotYourTurn       = &GameError{Code: protocol.ErrCodeNotYourTurn, Message: "还没轮到您"}
	ErrInvalidInput      = &GameError{Code: protocol.ErrCodeInvalidMsg, Message: "无效的请求"}
	ErrServerMaintenance = &GameError{Code: protocol.ErrCodeServerMaintenance, Message: "服务器维护中"}
)

// IsSilent 报告该错误是否应静默忽略（仅记录日志，不回复客户端）
func IsSilent(err error) bool {
	switch err {
	case ErrRoomNotFound, ErrNotInRoom, ErrNotHost, ErrGameStarted, ErrNotEnoughPlayers, ErrGameNotStart, ErrNotYourTurn:
		return true
	}
	return false
}
