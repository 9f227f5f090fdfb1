package types

import (
	"time"

	"github.com/palemoky/atlas/internal/protocol"
)

// ServerInterface 定义服务器接口（用于打破循环依赖）
type ServerInterface interface {
	IsMaintenanceMode() bool
	GetOnlineCount() int
}

// ClientInterface 定义客户端接口，是核心引擎看到的唯一传输层句柄
type ClientInterface interface {
	GetID() string
	GetRoom() string
	SetRoom(roomID string)
	SendMessage(msg *protocol.Message)
	Close()
}

// Timer 可取消的定时任务
type Timer interface {
	Stop() bool
}

// Clock 时间源，测试中可替换为手动推进的实现
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock 基于 time 包的 Clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
