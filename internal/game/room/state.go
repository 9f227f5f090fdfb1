package room

// RoomState 房间状态
type RoomState int

const (
	RoomStateLobby      RoomState = iota // 等待开始，接受加入
	RoomStatePlaying                     // 游戏进行中，迟到者成为观战成员
	RoomStateTerminated                  // 已销毁，不可再访问
)

func (s RoomState) String() string {
	switch s {
	case RoomStateLobby:
		return "lobby"
	case RoomStatePlaying:
		return "playing"
	case RoomStateTerminated:
		return "terminated"
	}
	return "unknown"
}
