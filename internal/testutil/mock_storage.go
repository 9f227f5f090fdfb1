//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/atlas/internal/server/storage"
)

// MockRoomStore 房间快照存储 mock
type MockRoomStore struct {
	mock.Mock
}

func (m *MockRoomStore) SaveRoom(ctx context.Context, roomID string, data *storage.RoomData) error {
	args := m.Called(ctx, roomID, data)
	return args.Error(0)
}

func (m *MockRoomStore) DeleteRoom(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

// MockLeaderboard 排行榜 mock
type MockLeaderboard struct {
	mock.Mock
}

func (m *MockLeaderboard) RecordGameResult(ctx context.Context, playerID, playerName string, isWinner bool) error {
	args := m.Called(ctx, playerID, playerName, isWinner)
	return args.Error(0)
}
