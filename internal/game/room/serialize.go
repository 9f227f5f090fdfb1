package room

import (
	"context"

	"github.com/palemoky/atlas/internal/server/storage"
)

// toRoomData 生成房间快照，调用方须持有 r.mu
func (r *Room) toRoomData() *storage.RoomData {
	data := &storage.RoomData{
		ID:         r.ID,
		HostID:     r.HostID,
		State:      r.State.String(),
		Players:    make([]storage.PlayerData, 0, len(r.Members)),
		UsedPlaces: r.usedPlaces(),
		CreatedAt:  r.CreatedAt.Unix(),
	}
	for _, p := range r.Members {
		data.Players = append(data.Players, storage.PlayerData{
			ID:     p.PlayerID,
			Name:   p.Name,
			Lives:  p.Lives,
			Active: p.Active,
		})
	}
	if cur := r.member(r.CurrentPlayer); cur != nil {
		data.CurrentPlayer = cur.PlayerID
		data.CurrentLetter = r.CurrentLetter
	}
	return data
}

// saveSnapshot 在解锁后异步写入快照，调用方须持有 r.mu
func (rm *RoomManager) saveSnapshot(r *Room, fx *effects) {
	if rm.store == nil || r.State == RoomStateTerminated {
		return
	}
	roomID := r.ID
	data := r.toRoomData()
	data.UpdatedAt = rm.clock.Now().Unix()
	fx.async(func(ctx context.Context) error {
		return rm.store.SaveRoom(ctx, roomID, data)
	})
}
