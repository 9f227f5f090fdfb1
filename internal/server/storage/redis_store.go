package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	roomKeyPrefix = "room:"

	// 房间快照过期时间
	roomExpiration = 2 * time.Hour
)

// RoomData 房间快照（仅用于运维查看，引擎不会从中恢复）
type RoomData struct {
	ID            string       `json:"id"`
	HostID        string       `json:"host_id"`
	State         string       `json:"state"`
	Players       []PlayerData `json:"players"`
	CurrentPlayer string       `json:"current_player,omitempty"`
	CurrentLetter string       `json:"current_letter,omitempty"`
	UsedPlaces    []string     `json:"used_places"`
	CreatedAt     int64        `json:"created_at"`
	UpdatedAt     int64        `json:"updated_at"`
}

// PlayerData 玩家快照
type PlayerData struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Lives  int    `json:"lives"`
	Active bool   `json:"active"`
}

// RedisStore Redis 存储，client 为 nil 时所有操作为空操作
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (rs *RedisStore) enabled() bool {
	return rs != nil && rs.client != nil
}

// SaveRoom 保存房间快照
func (rs *RedisStore) SaveRoom(ctx context.Context, roomID string, data *RoomData) error {
	if !rs.enabled() || data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	return rs.client.Set(ctx, roomKeyPrefix+roomID, jsonData, roomExpiration).Err()
}

// LoadRoom 读取房间快照，不存在时返回 nil, nil
func (rs *RedisStore) LoadRoom(ctx context.Context, roomID string) (*RoomData, error) {
	if !rs.enabled() {
		return nil, nil
	}

	data, err := rs.client.Get(ctx, roomKeyPrefix+roomID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var roomData RoomData
	if err := json.Unmarshal(data, &roomData); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}

	return &roomData, nil
}

// DeleteRoom 删除房间快照
func (rs *RedisStore) DeleteRoom(ctx context.Context, roomID string) error {
	if !rs.enabled() {
		return nil
	}
	return rs.client.Del(ctx, roomKeyPrefix+roomID).Err()
}
