package room

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/palemoky/atlas/internal/config"
	"github.com/palemoky/atlas/internal/dictionary"
	"github.com/palemoky/atlas/internal/game/rule"
	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/protocol/codec"
	"github.com/palemoky/atlas/internal/server/storage"
	"github.com/palemoky/atlas/internal/types"
)

const cleanupInterval = time.Minute

// RoomStore 房间快照存储（只写，进程重启后不会读回）
type RoomStore interface {
	SaveRoom(ctx context.Context, roomID string, data *storage.RoomData) error
	DeleteRoom(ctx context.Context, roomID string) error
}

// ResultRecorder 对局结果记录
type ResultRecorder interface {
	RecordGameResult(ctx context.Context, playerID, playerName string, isWinner bool) error
}

// Options 游戏规则参数
type Options struct {
	TurnTimeout  time.Duration
	StartDelay   time.Duration
	InitialLives int
	MinPlayers   int
	RoomTimeout  time.Duration // 大厅闲置超时，0 表示不清理
}

// OptionsFromConfig 由游戏配置生成参数
func OptionsFromConfig(cfg *config.GameConfig) Options {
	return Options{
		TurnTimeout:  cfg.TurnTimeoutDuration(),
		StartDelay:   cfg.StartDelayDuration(),
		InitialLives: cfg.InitialLives,
		MinPlayers:   cfg.MinPlayers,
		RoomTimeout:  cfg.RoomTimeoutDuration(),
	}
}

func (o *Options) applyDefaults() {
	if o.TurnTimeout <= 0 {
		o.TurnTimeout = 15 * time.Second
	}
	if o.StartDelay < 0 {
		o.StartDelay = 0
	}
	if o.InitialLives <= 0 {
		o.InitialLives = 3
	}
	if o.MinPlayers < 2 {
		o.MinPlayers = 2
	}
}

// ManagerDeps 房间管理器依赖，为空的字段使用默认实现
type ManagerDeps struct {
	Store       RoomStore
	Leaderboard ResultRecorder
	Dictionary  rule.Dictionary
	Letters     rule.LetterSource
	Clock       types.Clock
	Options     Options
}

// RoomManager 房间注册表与回合引擎
//
// 锁顺序：先房间锁，后注册表锁，反之不可。
type RoomManager struct {
	store       RoomStore
	leaderboard ResultRecorder
	dict        rule.Dictionary
	letters     rule.LetterSource
	clock       types.Clock
	opts        Options

	rooms map[string]*Room
	mu    sync.RWMutex

	tasks *taskQueue // 快照与战绩写入

	done      chan struct{}
	closeOnce sync.Once
}

// NewRoomManager 创建房间管理器
func NewRoomManager(deps ManagerDeps) *RoomManager {
	rm := &RoomManager{
		store:       deps.Store,
		leaderboard: deps.Leaderboard,
		dict:        deps.Dictionary,
		letters:     deps.Letters,
		clock:       deps.Clock,
		opts:        deps.Options,
		rooms:       make(map[string]*Room),
		tasks:       newTaskQueue(),
		done:        make(chan struct{}),
	}
	if rm.dict == nil {
		rm.dict = dictionary.Default()
	}
	if rm.letters == nil {
		rm.letters = rule.RandomLetters{}
	}
	if rm.clock == nil {
		rm.clock = types.SystemClock{}
	}
	rm.opts.applyDefaults()

	if rm.opts.RoomTimeout > 0 {
		go rm.cleanupLoop(cleanupInterval)
	}
	return rm
}

// Close 停止后台清理，取消所有计时器，并等待已入队的存储写入完成
func (rm *RoomManager) Close() {
	rm.closeOnce.Do(func() {
		close(rm.done)
		for _, r := range rm.allRooms() {
			r.mu.Lock()
			rm.stopTimer(r)
			r.mu.Unlock()
		}
		rm.tasks.close()
	})
}

// CreateIfAbsent 返回房间，不存在时创建
func (rm *RoomManager) CreateIfAbsent(roomID string) *Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if r, ok := rm.rooms[roomID]; ok {
		return r
	}
	r := newRoom(roomID, rm.clock.Now())
	rm.rooms[roomID] = r
	log.Printf("🏠 房间 %s 已创建 (房主: %q)", roomID, r.HostID)
	return r
}

// GetRoom 获取房间，不存在时返回 nil
func (rm *RoomManager) GetRoom(roomID string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[roomID]
}

// DeleteRoom 销毁房间，不存在时为空操作
func (rm *RoomManager) DeleteRoom(roomID string) {
	r := rm.GetRoom(roomID)
	if r == nil {
		return
	}

	fx := rm.newEffects()
	r.mu.Lock()
	if r.State != RoomStateTerminated {
		rm.terminate(r, fx)
	}
	r.mu.Unlock()
	fx.dispatch()
}

// RoomCount 当前房间数
func (rm *RoomManager) RoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// GetRoomList 返回等待中的房间列表，按房间号排序
func (rm *RoomManager) GetRoomList() []protocol.RoomListItem {
	var list []protocol.RoomListItem
	for _, r := range rm.allRooms() {
		r.mu.Lock()
		if r.State == RoomStateLobby {
			list = append(list, protocol.RoomListItem{
				RoomID:      r.ID,
				HostID:      r.HostID,
				PlayerCount: len(r.activePlayers()),
			})
		}
		r.mu.Unlock()
	}
	sort.Slice(list, func(i, j int) bool { return list[i].RoomID < list[j].RoomID })
	return list
}

// GetActiveGamesCount 返回正在进行的游戏数
func (rm *RoomManager) GetActiveGamesCount() int {
	count := 0
	for _, r := range rm.allRooms() {
		r.mu.Lock()
		if r.State == RoomStatePlaying {
			count++
		}
		r.mu.Unlock()
	}
	return count
}

// allRooms 复制注册表中的房间指针，调用方随后逐个加房间锁
func (rm *RoomManager) allRooms() []*Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, r := range rm.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// terminate 销毁房间，调用方须持有 r.mu
func (rm *RoomManager) terminate(r *Room, fx *effects) {
	r.State = RoomStateTerminated
	rm.stopTimer(r)

	rm.mu.Lock()
	if rm.rooms[r.ID] == r {
		delete(rm.rooms, r.ID)
	}
	rm.mu.Unlock()

	for _, p := range r.Members {
		if p.Client.GetRoom() == r.ID {
			p.Client.SetRoom("")
		}
	}
	r.Members = nil
	r.participants = nil
	r.usedSet = make(map[string]struct{})
	r.CurrentPlayer = ""
	r.CurrentLetter = ""

	if rm.store != nil {
		roomID := r.ID
		fx.async(func(ctx context.Context) error {
			return rm.store.DeleteRoom(ctx, roomID)
		})
	}
	log.Printf("🗑️ 房间 %s 已销毁", r.ID)
}

func (rm *RoomManager) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rm.done:
			return
		case <-ticker.C:
			if n := rm.cleanupIdleRooms(); n > 0 {
				log.Printf("🧹 已清理 %d 个闲置房间", n)
			}
		}
	}
}

// cleanupIdleRooms 销毁超过闲置时间仍未开局的房间
func (rm *RoomManager) cleanupIdleRooms() int {
	now := rm.clock.Now()
	cleaned := 0
	for _, r := range rm.allRooms() {
		fx := rm.newEffects()
		r.mu.Lock()
		if r.State == RoomStateLobby && now.Sub(r.CreatedAt) > rm.opts.RoomTimeout {
			fx.broadcastMessage(r, codec.NewErrorMessageWithText(protocol.ErrCodeRoomNotFound, "Room closed due to inactivity"))
			rm.terminate(r, fx)
			cleaned++
		}
		r.mu.Unlock()
		fx.dispatch()
	}
	return cleaned
}
