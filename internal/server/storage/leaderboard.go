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
	playerStatsKey    = "player:stats:"
	leaderboardKey    = "leaderboard:score"
	dailyLeaderboard  = "leaderboard:daily:"
	weeklyLeaderboard = "leaderboard:weekly:"
)

// 排行榜类型
const (
	LeaderboardTotal  = "total"
	LeaderboardDaily  = "daily"
	LeaderboardWeekly = "weekly"
)

// 积分规则
const (
	WinScore  = 20
	LoseScore = -5

	StreakBonus3  = 5
	StreakBonus5  = 10
	StreakBonus10 = 20
)

const maxRecordRetries = 100

// PlayerStats 玩家统计数据
type PlayerStats struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`

	TotalGames int `json:"total_games"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
	Score      int `json:"score"`

	CurrentStreak int `json:"current_streak"` // 正数为连胜，负数为连败
	MaxWinStreak  int `json:"max_win_streak"`

	LastPlayedAt int64 `json:"last_played_at"`
	CreatedAt    int64 `json:"created_at"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Score      int     `json:"score"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
}

// LeaderboardManager 排行榜管理器，redis 为 nil 时写入为空操作
type LeaderboardManager struct {
	redis *redis.Client
}

// NewLeaderboardManager 创建排行榜管理器
func NewLeaderboardManager(client *redis.Client) *LeaderboardManager {
	return &LeaderboardManager{redis: client}
}

func (lm *LeaderboardManager) enabled() bool {
	return lm != nil && lm.redis != nil
}

// GetPlayerStats 获取玩家统计，不存在时返回 nil, nil
func (lm *LeaderboardManager) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	if !lm.enabled() {
		return nil, nil
	}
	return loadPlayerStats(ctx, lm.redis, playerID)
}

func loadPlayerStats(ctx context.Context, c redis.Cmdable, playerID string) (*PlayerStats, error) {
	data, err := c.Get(ctx, playerStatsKey+playerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("反序列化玩家统计失败: %w", err)
	}
	return &stats, nil
}

func updateWinLossStats(stats *PlayerStats, isWinner bool) int {
	if isWinner {
		stats.Wins++
		if stats.CurrentStreak > 0 {
			stats.CurrentStreak++
		} else {
			stats.CurrentStreak = 1
		}
		stats.MaxWinStreak = max(stats.MaxWinStreak, stats.CurrentStreak)
		return WinScore
	}

	stats.Losses++
	if stats.CurrentStreak < 0 {
		stats.CurrentStreak--
	} else {
		stats.CurrentStreak = -1
	}
	return LoseScore
}

func calculateStreakBonus(streak int) int {
	switch {
	case streak >= 10:
		return StreakBonus10
	case streak >= 5:
		return StreakBonus5
	case streak >= 3:
		return StreakBonus3
	}
	return 0
}

// RecordGameResult 记录一局结果。统计的读改写在 WATCH 事务中完成，
// 同一玩家在多个房间同时结束对局时冲突方重试。
func (lm *LeaderboardManager) RecordGameResult(ctx context.Context, playerID, playerName string, isWinner bool) error {
	if !lm.enabled() {
		return nil
	}

	key := playerStatsKey + playerID
	for range maxRecordRetries {
		err := lm.redis.Watch(ctx, func(tx *redis.Tx) error {
			return recordInTx(ctx, tx, playerID, playerName, isWinner)
		}, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("记录玩家 %s 战绩失败: 并发冲突重试 %d 次", playerID, maxRecordRetries)
}

func recordInTx(ctx context.Context, tx *redis.Tx, playerID, playerName string, isWinner bool) error {
	stats, err := loadPlayerStats(ctx, tx, playerID)
	if err != nil {
		return err
	}
	if stats == nil {
		stats = &PlayerStats{PlayerID: playerID, CreatedAt: time.Now().Unix()}
	}

	stats.PlayerName = playerName
	stats.TotalGames++
	stats.LastPlayedAt = time.Now().Unix()

	scoreChange := updateWinLossStats(stats, isWinner)
	scoreChange += calculateStreakBonus(stats.CurrentStreak)
	stats.Score = max(0, stats.Score+scoreChange)

	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, playerStatsKey+playerID, data, 0)
		pipe.ZAdd(ctx, leaderboardKey, redis.Z{Score: float64(stats.Score), Member: playerID})

		// 日榜、周榜只累计本周期内的得分变化
		dailyKey := leaderboardKeyFor(LeaderboardDaily)
		pipe.ZIncrBy(ctx, dailyKey, float64(scoreChange), playerID)
		pipe.Expire(ctx, dailyKey, 48*time.Hour)

		weeklyKey := leaderboardKeyFor(LeaderboardWeekly)
		pipe.ZIncrBy(ctx, weeklyKey, float64(scoreChange), playerID)
		pipe.Expire(ctx, weeklyKey, 8*24*time.Hour)
		return nil
	})
	return err
}

func leaderboardKeyFor(kind string) string {
	now := time.Now()
	switch kind {
	case LeaderboardDaily:
		return dailyLeaderboard + now.Format("2006-01-02")
	case LeaderboardWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%s%d-W%02d", weeklyLeaderboard, year, week)
	}
	return leaderboardKey
}

// GetLeaderboard 获取排行榜（从高到低）
func (lm *LeaderboardManager) GetLeaderboard(ctx context.Context, kind string, limit int) ([]*LeaderboardEntry, error) {
	if !lm.enabled() || limit <= 0 {
		return []*LeaderboardEntry{}, nil
	}

	results, err := lm.redis.ZRevRangeWithScores(ctx, leaderboardKeyFor(kind), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*LeaderboardEntry, 0, len(results))
	for i, result := range results {
		playerID, ok := result.Member.(string)
		if !ok {
			continue
		}

		stats, err := lm.GetPlayerStats(ctx, playerID)
		if err != nil || stats == nil {
			continue
		}

		winRate := 0.0
		if stats.TotalGames > 0 {
			winRate = float64(stats.Wins) / float64(stats.TotalGames) * 100
		}

		entries = append(entries, &LeaderboardEntry{
			Rank:       i + 1,
			PlayerID:   playerID,
			PlayerName: stats.PlayerName,
			Score:      int(result.Score),
			Wins:       stats.Wins,
			WinRate:    winRate,
		})
	}

	return entries, nil
}

// GetPlayerRank 获取玩家总榜排名，未上榜返回 -1
func (lm *LeaderboardManager) GetPlayerRank(ctx context.Context, playerID string) (int64, error) {
	if !lm.enabled() {
		return -1, nil
	}

	rank, err := lm.redis.ZRevRank(ctx, leaderboardKey, playerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil
}
