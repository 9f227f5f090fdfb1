//go:build !production

package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/palemoky/atlas/internal/types"
)

// FakeClock 手动推进的时钟，到期的回调在 Advance 的调用方 goroutine 中同步执行
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	last   func()
}

type fakeTimer struct {
	clock   *FakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

// NewFakeClock 创建时钟
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) types.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	c.last = f
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance 推进时间并依次执行到期回调（回调中新注册的定时器若也到期会继续执行）
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.at
		next.fired = true
		c.mu.Unlock()

		next.f()
	}
}

func (c *FakeClock) nextDueLocked(target time.Time) *fakeTimer {
	pending := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			pending = append(pending, t)
		}
	}
	c.timers = pending

	sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].at.Before(c.timers[j].at) })
	if len(c.timers) > 0 && !c.timers[0].at.After(target) {
		return c.timers[0]
	}
	return nil
}

// Pending 返回尚未触发且未取消的定时器数量
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// LastCallback 返回最近注册的定时器回调（无论是否已取消），用于模拟过期计时器与玩家操作的竞态
func (c *FakeClock) LastCallback() func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
