package room

import (
	"strings"
	"sync"
	"time"

	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/types"
)

// roomIDDelimiter 房间号中房主 ID 的分隔符：<任意>.<房主玩家 ID>
const roomIDDelimiter = "."

// Player 房间成员
type Player struct {
	Client   types.ClientInterface // 传输层连接，仅为弱引用
	PlayerID string                // 上游认证后的玩家 ID
	Name     string
	Photo    string
	Lives    int
	Active   bool // 生命耗尽或开局后加入时为 false
	JoinedAt time.Time
}

func (p *Player) info() protocol.PlayerInfo {
	return protocol.PlayerInfo{
		ID:    p.PlayerID,
		Name:  p.Name,
		Lives: p.Lives,
		Photo: p.Photo,
	}
}

func (p *Player) ref() protocol.PlayerRef {
	return protocol.PlayerRef{ID: p.PlayerID, Name: p.Name}
}

// Room 游戏房间。除 ID 外的字段都由 mu 保护。
type Room struct {
	ID            string
	HostID        string
	State         RoomState
	Members       []*Player // 按加入顺序
	CurrentPlayer string    // 当前回合玩家的连接 ID
	CurrentLetter string    // 小写
	UsedPlaces    []string  // 按接受顺序，小写
	TurnStartedAt time.Time
	CreatedAt     time.Time
	StartedAt     time.Time

	usedSet      map[string]struct{}
	participants []*Player   // 开局时的活跃玩家，用于结算
	turnSeq      uint64      // 回合代数，计时器据此判断是否过期
	timer        types.Timer // 开局延迟或回合超时计时器

	mu sync.Mutex
}

func newRoom(id string, now time.Time) *Room {
	return &Room{
		ID:        id,
		HostID:    HostIDFromRoomID(id),
		State:     RoomStateLobby,
		usedSet:   make(map[string]struct{}),
		CreatedAt: now,
	}
}

// HostIDFromRoomID 从房间号中取出房主 ID，没有分隔符时返回空串
func HostIDFromRoomID(roomID string) string {
	i := strings.LastIndex(roomID, roomIDDelimiter)
	if i < 0 {
		return ""
	}
	return roomID[i+len(roomIDDelimiter):]
}

// 以下方法的调用方须持有 r.mu

func (r *Room) indexOf(connID string) int {
	if connID == "" {
		return -1
	}
	for i, p := range r.Members {
		if p.Client.GetID() == connID {
			return i
		}
	}
	return -1
}

func (r *Room) member(connID string) *Player {
	if i := r.indexOf(connID); i >= 0 {
		return r.Members[i]
	}
	return nil
}

func (r *Room) isHost(p *Player) bool {
	return r.HostID != "" && p.PlayerID == r.HostID
}

func (r *Room) activePlayers() []*Player {
	active := make([]*Player, 0, len(r.Members))
	for _, p := range r.Members {
		if p.Active {
			active = append(active, p)
		}
	}
	return active
}

func (r *Room) roster() []protocol.PlayerInfo {
	infos := make([]protocol.PlayerInfo, 0, len(r.Members))
	for _, p := range r.Members {
		if p.Active {
			infos = append(infos, p.info())
		}
	}
	return infos
}

func (r *Room) clients() []types.ClientInterface {
	clients := make([]types.ClientInterface, len(r.Members))
	for i, p := range r.Members {
		clients[i] = p.Client
	}
	return clients
}

// nextActiveAfter 按加入顺序循环查找下标 from 之后的第一个活跃玩家，from 为 -1 时从头开始
func (r *Room) nextActiveAfter(from int) *Player {
	n := len(r.Members)
	if from < -1 || from >= n {
		from = -1
	}
	for i := 1; i <= n; i++ {
		p := r.Members[(from+i)%n]
		if p.Active {
			return p
		}
	}
	return nil
}

func (r *Room) addUsedPlace(place string) {
	r.usedSet[place] = struct{}{}
	r.UsedPlaces = append(r.UsedPlaces, place)
}

func (r *Room) usedPlaces() []string {
	out := make([]string, len(r.UsedPlaces))
	copy(out, r.UsedPlaces)
	return out
}

func (r *Room) currentTurn() *protocol.TurnUpdatePayload {
	p := r.member(r.CurrentPlayer)
	if p == nil || r.CurrentLetter == "" {
		return nil
	}
	return &protocol.TurnUpdatePayload{
		Player:  p.ref(),
		Letter:  strings.ToUpper(r.CurrentLetter),
		Players: r.roster(),
	}
}
