package room

import (
	"log"
	"slices"

	"github.com/palemoky/atlas/internal/apperrors"
	"github.com/palemoky/atlas/internal/dictionary"
	"github.com/palemoky/atlas/internal/game/rule"
	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/protocol/codec"
	"github.com/palemoky/atlas/internal/types"
)

const gameStartedText = "Game has started!"

// JoinRoom 加入房间，房间不存在时创建。同一连接重复加入为空操作。
// 游戏进行中加入的玩家成为不参与轮转的观战成员。
func (rm *RoomManager) JoinRoom(client types.ClientInterface, req protocol.JoinRoomPayload) (*Room, error) {
	if current := client.GetRoom(); current != "" && current != req.RoomID {
		rm.LeaveRoom(client)
	}

	r := rm.lockLiveRoom(req.RoomID)
	if r.member(client.GetID()) != nil {
		r.mu.Unlock()
		return r, nil
	}

	fx := rm.newEffects()
	if r.HostID == "" {
		r.HostID = req.PlayerID
	}
	p := &Player{
		Client:   client,
		PlayerID: req.PlayerID,
		Name:     req.Name,
		Photo:    req.Photo,
		Lives:    rm.opts.InitialLives,
		JoinedAt: rm.clock.Now(),
	}
	r.Members = append(r.Members, p)
	client.SetRoom(r.ID)

	if r.State == RoomStatePlaying {
		log.Printf("👀 玩家 %s 在游戏中途加入房间 %s", p.Name, r.ID)
		fx.broadcast(r, protocol.MsgPlayerInactive, protocol.PlayerInactivePayload{
			ID:   p.PlayerID,
			Code: protocol.InactiveLateJoin,
		})
		fx.send(client, codec.MustNewMessage(protocol.MsgUpdatePlaces, r.usedPlaces()))
		fx.send(client, codec.MustNewMessage(protocol.MsgUpdatePlayers, r.roster()))
		if turn := r.currentTurn(); turn != nil {
			fx.send(client, codec.MustNewMessage(protocol.MsgTurnUpdate, turn))
		}
	} else {
		p.Active = true
		log.Printf("👤 玩家 %s 加入房间 %s (%d 人)", p.Name, r.ID, len(r.Members))
		fx.broadcast(r, protocol.MsgUpdatePlayers, r.roster())
		fx.broadcast(r, protocol.MsgUpdatePlaces, r.usedPlaces())
	}

	rm.saveSnapshot(r, fx)
	r.mu.Unlock()
	fx.dispatch()
	return r, nil
}

// lockLiveRoom 返回已加锁且未销毁的房间。遇到刚被销毁的房间时重试，
// 因为销毁在持有房间锁时已将其移出注册表，重试会得到新房间。
func (rm *RoomManager) lockLiveRoom(roomID string) *Room {
	for {
		r := rm.CreateIfAbsent(roomID)
		r.mu.Lock()
		if r.State != RoomStateTerminated {
			return r
		}
		r.mu.Unlock()
	}
}

// lockMember 返回已加锁的房间与发送者对应的成员，失败时不持有锁
func (rm *RoomManager) lockMember(client types.ClientInterface, roomID string) (*Room, *Player, error) {
	r := rm.GetRoom(roomID)
	if r == nil {
		return nil, nil, apperrors.ErrRoomNotFound
	}
	r.mu.Lock()
	if r.State == RoomStateTerminated {
		r.mu.Unlock()
		return nil, nil, apperrors.ErrRoomNotFound
	}
	p := r.member(client.GetID())
	if p == nil {
		r.mu.Unlock()
		return nil, nil, apperrors.ErrNotInRoom
	}
	return r, p, nil
}

// StartGame 房主开始游戏，首回合在开局延迟后发出
func (rm *RoomManager) StartGame(client types.ClientInterface, roomID string) error {
	r, p, err := rm.lockMember(client, roomID)
	if err != nil {
		return err
	}

	fx := rm.newEffects()
	switch {
	case !r.isHost(p):
		err = apperrors.ErrNotHost
	case r.State != RoomStateLobby:
		err = apperrors.ErrGameStarted
	case len(r.activePlayers()) < rm.opts.MinPlayers:
		err = apperrors.ErrNotEnoughPlayers
	}
	if err != nil {
		r.mu.Unlock()
		return err
	}

	r.State = RoomStatePlaying
	r.StartedAt = rm.clock.Now()
	r.participants = r.activePlayers()
	r.turnSeq++
	log.Printf("🎮 房间 %s 游戏开始，%d 名玩家", r.ID, len(r.participants))

	fx.broadcastMessage(r, codec.NewNotice("*", protocol.NoticeInfo, "", gameStartedText))
	rm.schedule(r, rm.opts.StartDelay, rm.handleFirstTurn)
	rm.saveSnapshot(r, fx)

	r.mu.Unlock()
	fx.dispatch()
	return nil
}

// StopGame 房主终止游戏并销毁房间，任何状态下都可调用
func (rm *RoomManager) StopGame(client types.ClientInterface, roomID string) error {
	r, p, err := rm.lockMember(client, roomID)
	if err != nil {
		return err
	}
	if !r.isHost(p) {
		r.mu.Unlock()
		return apperrors.ErrNotHost
	}

	fx := rm.newEffects()
	log.Printf("🛑 房主 %s 终止了房间 %s", p.Name, r.ID)
	fx.broadcast(r, protocol.MsgGameStopped, protocol.GameStoppedPayload{HostID: p.PlayerID})
	rm.terminate(r, fx)

	r.mu.Unlock()
	fx.dispatch()
	return nil
}

// SubmitPlace 当前玩家提交地名。被拒绝时仅通知提交者，回合不变，返回值为校验结果。
func (rm *RoomManager) SubmitPlace(client types.ClientInterface, roomID, place string) (rule.Verdict, error) {
	r, p, err := rm.lockMember(client, roomID)
	if err != nil {
		return 0, err
	}
	if r.State != RoomStatePlaying {
		r.mu.Unlock()
		return 0, apperrors.ErrGameNotStart
	}
	if r.CurrentPlayer != client.GetID() || r.CurrentLetter == "" {
		r.mu.Unlock()
		return 0, apperrors.ErrNotYourTurn
	}

	fx := rm.newEffects()
	normalized := dictionary.Normalize(place)
	verdict := rule.Validate(normalized, r.CurrentLetter, r.usedSet, rm.dict)
	if verdict != rule.Accepted {
		fx.send(client, codec.NewNotice(p.PlayerID, protocol.NoticeRejected, verdict.String(), verdict.Message()))
		r.mu.Unlock()
		fx.dispatch()
		return verdict, nil
	}

	r.addUsedPlace(normalized)
	log.Printf("📍 房间 %s 玩家 %s: %s", r.ID, p.Name, normalized)
	fx.broadcast(r, protocol.MsgUpdatePlaces, r.usedPlaces())
	rm.advanceTurn(r, r.indexOf(client.GetID()), fx)

	r.mu.Unlock()
	fx.dispatch()
	return verdict, nil
}

// LeaveRoom 离开当前房间（主动离开或断线）。
// 最后一人离开时销毁房间；当前玩家离开时立即换人；活跃玩家不足两人时结束游戏。
func (rm *RoomManager) LeaveRoom(client types.ClientInterface) {
	roomID := client.GetRoom()
	if roomID == "" {
		return
	}
	r := rm.GetRoom(roomID)
	if r == nil {
		client.SetRoom("")
		return
	}

	fx := rm.newEffects()
	r.mu.Lock()
	idx := r.indexOf(client.GetID())
	if r.State == RoomStateTerminated || idx < 0 {
		r.mu.Unlock()
		if client.GetRoom() == roomID {
			client.SetRoom("")
		}
		return
	}

	p := r.Members[idx]
	r.Members = slices.Delete(r.Members, idx, idx+1)
	client.SetRoom("")
	log.Printf("👋 玩家 %s 离开房间 %s", p.Name, r.ID)

	switch {
	case len(r.Members) == 0:
		rm.terminate(r, fx)
	case r.State == RoomStatePlaying && r.CurrentPlayer == client.GetID():
		// 下一位是原位置之后的第一个活跃玩家，删除后其下标前移了一位
		r.CurrentPlayer = ""
		rm.advanceTurn(r, idx-1, fx)
	case r.State == RoomStatePlaying && p.Active && len(r.activePlayers()) <= 1:
		rm.advanceTurn(r, r.indexOf(r.CurrentPlayer), fx)
	}

	if r.State != RoomStateTerminated {
		if p.Active {
			fx.broadcast(r, protocol.MsgUpdatePlayers, r.roster())
		}
		rm.saveSnapshot(r, fx)
	}

	r.mu.Unlock()
	fx.dispatch()
}
