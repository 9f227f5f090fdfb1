package room

import (
	"context"
	"sync"
	"time"

	"github.com/palemoky/atlas/internal/logger"
)

const taskTimeout = 5 * time.Second

type task func(ctx context.Context) error

// taskQueue 单个 worker 按入队顺序串行执行快照与战绩写入，
// 同一房间的保存不会落在删除之后
type taskQueue struct {
	mu      sync.Mutex
	pending []task
	closed  bool

	wake    chan struct{}
	stopped chan struct{}
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go q.run()
	return q
}

// push 入队，不阻塞。关闭后的任务直接丢弃。
func (q *taskQueue) push(t task) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, t)
	q.mu.Unlock()
	q.notify()
}

func (q *taskQueue) notify() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *taskQueue) run() {
	defer close(q.stopped)
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		closed := q.closed
		q.mu.Unlock()

		for _, t := range batch {
			q.exec(t)
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-q.wake
	}
}

func (q *taskQueue) exec(t task) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()
	if err := t(ctx); err != nil {
		logger.LogError("房间后台任务失败: %v", err)
	}
}

// close 拒绝新任务，执行完已入队的任务后返回
func (q *taskQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notify()
	<-q.stopped
}
