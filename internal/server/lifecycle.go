package server

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/protocol/codec"
)

const statsInterval = 30 * time.Second

// monitorStats 定期输出服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			log.Printf("📊 [监控] 在线: %d | 房间: %d (进行中 %d) | Goroutines: %d | 活跃连接: %d/%d | 内存: %.2f MB",
				s.GetOnlineCount(),
				s.roomManager.RoomCount(),
				s.roomManager.GetActiveGamesCount(),
				runtime.NumGoroutine(),
				len(s.semaphore),
				s.maxConnections,
				float64(m.Alloc)/1024/1024)
		}
	}
}

// EnterMaintenanceMode 进入维护模式：拒绝新连接与新房间
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	s.BroadcastToLobby(codec.NewErrorMessageWithText(protocol.ErrCodeServerMaintenance,
		"👷🏻‍♂️ Maintenance mode: no new rooms"))

	log.Println("🔧 进入维护模式：停止新连接和房间创建")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 进入维护模式，等待进行中的游戏结束（最长 timeout）后关闭
func (s *Server) GracefulShutdown(timeout time.Duration) {
	s.EnterMaintenanceMode()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(s.config.Game.ShutdownCheckIntervalDuration())
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		activeGames := s.roomManager.GetActiveGamesCount()
		if activeGames == 0 {
			log.Printf("✅ 所有游戏已结束，将在 %ds 后关闭服务器", s.config.Game.RoomCleanupDelay)
			s.Broadcast(codec.NewErrorMessageWithText(protocol.ErrCodeServerMaintenance,
				fmt.Sprintf("🚧 Server shutting down in %d seconds", s.config.Game.RoomCleanupDelay)))
			break
		}
		log.Printf("⏳ 等待 %d 个游戏结束...", activeGames)
		<-ticker.C
	}

	if activeGames := s.roomManager.GetActiveGamesCount(); activeGames > 0 {
		log.Printf("⚠️ 超时，仍有 %d 个游戏进行中，强制关闭", activeGames)
	}

	time.Sleep(s.config.Game.RoomCleanupDelayDuration())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.Shutdown(ctx)
}

// Shutdown 立即关闭：断开所有连接，停止后台任务，关闭 Redis
func (s *Server) Shutdown(ctx context.Context) {
	s.shutdownOnce.Do(func() {
		close(s.done)

		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Printf("HTTP 服务关闭失败: %v", err)
		}

		for _, client := range s.snapshotClients() {
			client.Close()
		}

		s.roomManager.Close()
		s.rateLimiter.Stop()

		if s.redis != nil {
			_ = s.redis.Close()
		}

		log.Println("服务器已关闭")
	})
}
