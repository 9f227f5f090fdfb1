package room

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/palemoky/atlas/internal/game/rule"
	"github.com/palemoky/atlas/internal/protocol"
)

// advanceTurn 把回合交给下一位活跃玩家，活跃玩家不足两人时结束游戏。
// from 为当前玩家在 Members 中的下标，-1 表示从头开始。调用方须持有 r.mu。
func (rm *RoomManager) advanceTurn(r *Room, from int, fx *effects) {
	active := r.activePlayers()
	if len(active) <= 1 {
		rm.finishGame(r, active, fx)
		return
	}

	next := r.nextActiveAfter(from)

	letter := ""
	if n := len(r.UsedPlaces); n > 0 {
		letter = rule.LastLetter(r.UsedPlaces[n-1])
	}
	if letter == "" {
		letter = rm.letters.Letter()
	}

	r.CurrentPlayer = next.Client.GetID()
	r.CurrentLetter = letter
	r.TurnStartedAt = rm.clock.Now()
	r.turnSeq++

	fx.broadcast(r, protocol.MsgTurnUpdate, protocol.TurnUpdatePayload{
		Player:  next.ref(),
		Letter:  strings.ToUpper(letter),
		Players: r.roster(),
		Timeout: int(rm.opts.TurnTimeout / time.Second),
	})
	rm.schedule(r, rm.opts.TurnTimeout, rm.handleTurnTimeout)
	rm.saveSnapshot(r, fx)
}

// finishGame 广播结果并销毁房间，调用方须持有 r.mu
func (rm *RoomManager) finishGame(r *Room, active []*Player, fx *effects) {
	var winner *Player
	payload := protocol.GameOverPayload{}
	if len(active) == 1 {
		winner = active[0]
		info := winner.info()
		payload.Winner = &info
	}
	fx.broadcast(r, protocol.MsgGameOver, payload)

	if winner != nil {
		log.Printf("🏆 房间 %s 游戏结束，胜者: %s", r.ID, winner.Name)
	} else {
		log.Printf("🏁 房间 %s 游戏结束，无人幸存", r.ID)
	}

	rm.recordResults(r, winner, fx)
	rm.terminate(r, fx)
}

// recordResults 记录开局时所有参与者的胜负
func (rm *RoomManager) recordResults(r *Room, winner *Player, fx *effects) {
	if rm.leaderboard == nil || len(r.participants) == 0 {
		return
	}
	for _, p := range r.participants {
		playerID, name, isWinner := p.PlayerID, p.Name, p == winner
		fx.async(func(ctx context.Context) error {
			return rm.leaderboard.RecordGameResult(ctx, playerID, name, isWinner)
		})
	}
}

// schedule 取消旧计时器并按当前回合代数注册新计时器，调用方须持有 r.mu
func (rm *RoomManager) schedule(r *Room, d time.Duration, fn func(r *Room, seq uint64)) {
	rm.stopTimer(r)
	seq := r.turnSeq
	r.timer = rm.clock.AfterFunc(d, func() { fn(r, seq) })
}

func (rm *RoomManager) stopTimer(r *Room) {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// handleFirstTurn 开局延迟结束后发出第一个回合
func (rm *RoomManager) handleFirstTurn(r *Room, seq uint64) {
	fx := rm.newEffects()
	r.mu.Lock()
	if r.State != RoomStatePlaying || seq != r.turnSeq || r.CurrentPlayer != "" {
		r.mu.Unlock()
		return
	}
	r.timer = nil
	rm.advanceTurn(r, -1, fx)
	r.mu.Unlock()
	fx.dispatch()
}

// handleTurnTimeout 回合超时：扣一条命，命耗尽则淘汰，然后换人。
// 代数不一致说明回合已被提交或离开推进过，直接忽略。
func (rm *RoomManager) handleTurnTimeout(r *Room, seq uint64) {
	fx := rm.newEffects()
	r.mu.Lock()
	if r.State != RoomStatePlaying || seq != r.turnSeq {
		r.mu.Unlock()
		return
	}
	r.timer = nil

	idx := r.indexOf(r.CurrentPlayer)
	if idx >= 0 {
		p := r.Members[idx]
		p.Lives = max(0, p.Lives-1)
		log.Printf("⏰ 房间 %s 玩家 %s 超时，剩余生命 %d", r.ID, p.Name, p.Lives)
		fx.broadcast(r, protocol.MsgUpdatePlayers, r.roster())

		if p.Lives == 0 {
			p.Active = false
			log.Printf("💀 房间 %s 玩家 %s 被淘汰", r.ID, p.Name)
			fx.broadcast(r, protocol.MsgPlayerInactive, protocol.PlayerInactivePayload{
				ID:   p.PlayerID,
				Code: protocol.InactiveEliminated,
			})
			fx.broadcast(r, protocol.MsgUpdatePlayers, r.roster())
		}
	}

	rm.advanceTurn(r, idx, fx)
	r.mu.Unlock()
	fx.dispatch()
}
