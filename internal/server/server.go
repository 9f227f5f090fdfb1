package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/atlas/internal/config"
	"github.com/palemoky/atlas/internal/game/room"
	"github.com/palemoky/atlas/internal/game/rule"
	"github.com/palemoky/atlas/internal/logger"
	"github.com/palemoky/atlas/internal/protocol/codec"
	"github.com/palemoky/atlas/internal/server/handler"
	"github.com/palemoky/atlas/internal/server/storage"
)

// Server WebSocket 服务器
type Server struct {
	config      *config.Config
	redis       *redis.Client // 未配置 Redis 时为 nil
	redisStore  *storage.RedisStore
	leaderboard *storage.LeaderboardManager
	roomManager *room.RoomManager
	clients     map[string]*Client
	clientsMu   sync.RWMutex
	handler     *handler.Handler
	upgrader    websocket.Upgrader
	httpServer  *http.Server

	// 安全组件
	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter
	ipFilter       *IPFilter

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	done         chan struct{}
	shutdownOnce sync.Once
}

// NewServer 创建服务器实例，dict 为空时使用内置词典
func NewServer(cfg *config.Config, dict rule.Dictionary) (*Server, error) {
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis 连接失败: %w", err)
		}
		log.Printf("🗄️ 已连接 Redis %s", cfg.Redis.Addr)
	} else {
		log.Println("🗄️ 未配置 Redis，快照与排行榜已禁用")
	}

	s := &Server{
		config:      cfg,
		redis:       rdb,
		redisStore:  storage.NewRedisStore(rdb),
		leaderboard: storage.NewLeaderboardManager(rdb),
		clients:     make(map[string]*Client),
		rateLimiter: NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
		),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		ipFilter:       NewIPFilter(cfg.Security.BlockedIPs),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
		done:           make(chan struct{}),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Subprotocols:    []string{codec.SubprotocolProto, codec.SubprotocolJSON},
		// 来源在升级前已由 originChecker 校验
		CheckOrigin: func(*http.Request) bool { return true },
	}

	s.roomManager = room.NewRoomManager(room.ManagerDeps{
		Store:       s.redisStore,
		Leaderboard: s.leaderboard,
		Dictionary:  dict,
		Options:     room.OptionsFromConfig(&cfg.Game),
	})

	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server:      s,
		RoomManager: s.roomManager,
	})

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("🔒 安全配置: 连接限制=%d/s, 消息限制=%d/s, 最大连接数=%d, 黑名单=%d 条",
		cfg.Security.RateLimit.MaxPerSecond, cfg.Security.MessageLimit.MaxPerSecond,
		cfg.Server.MaxConnections, len(cfg.Security.BlockedIPs))

	return s, nil
}

// Router 返回 HTTP 路由
func (s *Server) Router() http.Handler {
	router := httprouter.New()
	router.GET("/ws", s.handleWebSocket)
	router.GET("/health", s.handleHealth)
	router.GET("/rooms", s.handleRooms)
	router.GET("/rooms/:id/qr", s.handleRoomQR)
	router.GET("/rooms/:id/snapshot", s.handleRoomSnapshot)
	router.GET("/leaderboard", s.handleLeaderboard)
	router.GET("/players/:id/stats", s.handlePlayerStats)
	router.PanicHandler = func(w http.ResponseWriter, _ *http.Request, v any) {
		logger.LogPanic(v)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return router
}

// Start 启动服务器，阻塞直到关闭
func (s *Server) Start() error {
	go s.monitorStats()

	log.Printf("🚀 服务器启动在 ws://%s/ws (CPU核心数: %d)", s.httpServer.Addr, runtime.NumCPU())
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RoomManager 返回房间管理器
func (s *Server) RoomManager() *room.RoomManager {
	return s.roomManager
}
