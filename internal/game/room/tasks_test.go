package room

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/atlas/internal/server/storage"
)

func TestTaskQueue_RunsInOrderAndDrainsOnClose(t *testing.T) {
	t.Parallel()

	q := newTaskQueue()
	var (
		mu  sync.Mutex
		got []int
	)
	for i := range 50 {
		q.push(func(context.Context) error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			if i == 10 {
				return errors.New("redis down")
			}
			if i == 20 {
				panic("boom")
			}
			return nil
		})
	}
	q.close()

	require.Len(t, got, 50)
	for i, v := range got {
		assert.Equal(t, i, v)
	}

	q.push(func(context.Context) error {
		t.Error("task pushed after close must not run")
		return nil
	})
}

// gatedStore 第一次 SaveRoom 阻塞到 release 关闭，用于模拟慢速 Redis
type gatedStore struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once

	mu    sync.Mutex
	rooms map[string]*storage.RoomData
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		started: make(chan struct{}),
		release: make(chan struct{}),
		rooms:   make(map[string]*storage.RoomData),
	}
}

func (s *gatedStore) SaveRoom(_ context.Context, roomID string, data *storage.RoomData) error {
	s.once.Do(func() {
		close(s.started)
		<-s.release
	})
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = data
	return nil
}

func (s *gatedStore) DeleteRoom(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	return nil
}

func (s *gatedStore) has(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rooms[roomID]
	return ok
}

func TestRoomManager_SlowSnapshotDoesNotOutliveRoom(t *testing.T) {
	t.Parallel()

	store := newGatedStore()
	h := newHarness(t, func(d *ManagerDeps) { d.Store = store })
	released := false
	t.Cleanup(func() {
		if !released {
			close(store.release)
		}
	})

	alice := h.join(t, "p.alice", "alice")
	<-store.started

	h.rm.LeaveRoom(alice)
	require.Nil(t, h.rm.GetRoom("p.alice"))

	close(store.release)
	released = true
	h.rm.Close()

	assert.False(t, store.has("p.alice"), "delete must be applied after the earlier save")
}
