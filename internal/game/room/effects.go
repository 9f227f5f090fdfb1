package room

import (
	"context"

	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/protocol/codec"
	"github.com/palemoky/atlas/internal/types"
)

type outbound struct {
	to  []types.ClientInterface
	msg *protocol.Message
}

// effects 在房间锁内收集的待发送消息，解锁后统一发送，保证临界区内没有网络 I/O。
// 存储写入在加锁时直接进入 taskQueue，使其顺序与房间状态变更顺序一致。
type effects struct {
	out   []outbound
	queue *taskQueue
}

func (rm *RoomManager) newEffects() *effects {
	return &effects{queue: rm.tasks}
}

// broadcast 发送给当前所有成员（收件人在调用时确定）
func (fx *effects) broadcast(r *Room, msgType protocol.MessageType, payload any) {
	fx.broadcastMessage(r, codec.MustNewMessage(msgType, payload))
}

func (fx *effects) broadcastMessage(r *Room, msg *protocol.Message) {
	fx.out = append(fx.out, outbound{to: r.clients(), msg: msg})
}

func (fx *effects) send(c types.ClientInterface, msg *protocol.Message) {
	fx.out = append(fx.out, outbound{to: []types.ClientInterface{c}, msg: msg})
}

// async 追加后台任务，调用方须持有房间锁
func (fx *effects) async(task func(ctx context.Context) error) {
	if fx.queue != nil {
		fx.queue.push(task)
	}
}

func (fx *effects) dispatch() {
	for _, o := range fx.out {
		for _, c := range o.to {
			c.SendMessage(o.msg)
		}
	}
}
