package protocol

// 错误码
const (
	ErrCodeUnknown           = 1000
	ErrCodeInvalidMsg        = 1001
	ErrCodeRateLimit         = 1002
	ErrCodeRoomNotFound      = 2001
	ErrCodeNotInRoom         = 2003
	ErrCodeGameStarted       = 2004
	ErrCodeNotHost           = 2005
	ErrCodeNotEnoughPlayers  = 2006
	ErrCodeGameNotStart      = 3001
	ErrCodeNotYourTurn       = 3002
	ErrCodeServerMaintenance = 5003
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "Unknown error",
	ErrCodeInvalidMsg:        "Malformed message",
	ErrCodeRateLimit:         "Too many requests",
	ErrCodeRoomNotFound:      "Room not found",
	ErrCodeNotInRoom:         "You are not in this room",
	ErrCodeGameStarted:       "Game has already started",
	ErrCodeNotHost:           "Only the host can do that",
	ErrCodeNotEnoughPlayers:  "Not enough players to start",
	ErrCodeGameNotStart:      "Game has not started",
	ErrCodeNotYourTurn:       "It is not your turn",
	ErrCodeServerMaintenance: "Server is under maintenance",
}

// msg 消息的 code 字段
const (
	NoticeRejected = 0 // 提交被拒绝，仅发送给提交者
	NoticeInfo     = 1 // 广播提示
)

// msg 消息的拒绝原因
const (
	ReasonAlreadyUsed  = "already_used"
	ReasonUnknownPlace = "unknown_place"
	ReasonWrongLetter  = "wrong_letter"
	ReasonInvalidInput = "invalid_input"
)

// player-inactive 消息的 code 字段
const (
	InactiveEliminated = 0 // 生命耗尽
	InactiveLateJoin   = 1 // 游戏开始后加入
)
