package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 4000
	defaultMaxConnections = 2000

	defaultTurnTimeout   = 15
	defaultStartDelay    = 3
	defaultInitialLives  = 3
	defaultMinPlayers    = 2
	defaultRoomTimeout   = 30
	defaultShutdownWait  = 30
	defaultShutdownCheck = 5
	defaultCleanupDelay  = 5

	defaultMaxPerSecond = 10
	defaultMaxPerMinute = 60
	defaultBanDuration  = 60
	defaultMsgPerSecond = 20
)

// Config 服务端配置
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Redis      RedisConfig      `yaml:"redis"`
	Game       GameConfig       `yaml:"game"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Security   SecurityConfig   `yaml:"security"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
	LogFile        string `yaml:"log_file"`   // 为空时输出到 stderr
	PublicURL      string `yaml:"public_url"` // 邀请二维码中的前端地址，为空时使用请求的 Host
}

// RedisConfig Redis 配置，Addr 为空表示不启用
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled 是否配置了 Redis
func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// GameConfig 游戏配置
type GameConfig struct {
	TurnTimeout           int `yaml:"turn_timeout"`            // 回合超时（秒）
	StartDelay            int `yaml:"start_delay"`             // 开始后首回合延迟（秒）
	InitialLives          int `yaml:"initial_lives"`           // 初始生命数
	MinPlayers            int `yaml:"min_players"`             // 开局最少玩家数
	RoomTimeout           int `yaml:"room_timeout"`            // 大厅房间闲置超时（分钟）
	ShutdownTimeout       int `yaml:"shutdown_timeout"`        // 优雅关闭最长等待（分钟）
	ShutdownCheckInterval int `yaml:"shutdown_check_interval"` // 关闭时检查间隔（秒）
	RoomCleanupDelay      int `yaml:"room_cleanup_delay"`      // 关闭前等待（秒）
}

// TurnTimeoutDuration 返回回合超时时长
func (c *GameConfig) TurnTimeoutDuration() time.Duration {
	return time.Duration(c.TurnTimeout) * time.Second
}

// StartDelayDuration 返回首回合延迟
func (c *GameConfig) StartDelayDuration() time.Duration {
	return time.Duration(c.StartDelay) * time.Second
}

// RoomTimeoutDuration 返回大厅房间闲置超时
func (c *GameConfig) RoomTimeoutDuration() time.Duration {
	return time.Duration(c.RoomTimeout) * time.Minute
}

func (c *GameConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Minute
}

func (c *GameConfig) ShutdownCheckIntervalDuration() time.Duration {
	return time.Duration(c.ShutdownCheckInterval) * time.Second
}

func (c *GameConfig) RoomCleanupDelayDuration() time.Duration {
	return time.Duration(c.RoomCleanupDelay) * time.Second
}

// DictionaryConfig 地名词典配置，Path 为空时使用内置词典
type DictionaryConfig struct {
	Path string `yaml:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	BlockedIPs     []string           `yaml:"blocked_ips"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
}

// RateLimitConfig 连接速率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 秒
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// MessageLimitConfig 消息速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = defaultMaxConnections
	}

	if c.Game.TurnTimeout == 0 {
		c.Game.TurnTimeout = defaultTurnTimeout
	}
	if c.Game.StartDelay == 0 {
		c.Game.StartDelay = defaultStartDelay
	}
	if c.Game.InitialLives == 0 {
		c.Game.InitialLives = defaultInitialLives
	}
	if c.Game.MinPlayers == 0 {
		c.Game.MinPlayers = defaultMinPlayers
	}
	if c.Game.RoomTimeout == 0 {
		c.Game.RoomTimeout = defaultRoomTimeout
	}
	if c.Game.ShutdownTimeout == 0 {
		c.Game.ShutdownTimeout = defaultShutdownWait
	}
	if c.Game.ShutdownCheckInterval == 0 {
		c.Game.ShutdownCheckInterval = defaultShutdownCheck
	}
	if c.Game.RoomCleanupDelay == 0 {
		c.Game.RoomCleanupDelay = defaultCleanupDelay
	}

	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"*"}
	}
	if c.Security.RateLimit.MaxPerSecond == 0 {
		c.Security.RateLimit.MaxPerSecond = defaultMaxPerSecond
	}
	if c.Security.RateLimit.MaxPerMinute == 0 {
		c.Security.RateLimit.MaxPerMinute = defaultMaxPerMinute
	}
	if c.Security.RateLimit.BanDuration == 0 {
		c.Security.RateLimit.BanDuration = defaultBanDuration
	}
	if c.Security.MessageLimit.MaxPerSecond == 0 {
		c.Security.MessageLimit.MaxPerSecond = defaultMsgPerSecond
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("无效端口 (1-65535): %d", c.Server.Port)
	}
	if c.Game.TurnTimeout < 0 || c.Game.StartDelay < 0 {
		return errors.New("turn_timeout 和 start_delay 不能为负数")
	}
	if c.Game.InitialLives < 1 {
		return fmt.Errorf("initial_lives 至少为 1: %d", c.Game.InitialLives)
	}
	if c.Game.MinPlayers < 2 {
		return fmt.Errorf("min_players 至少为 2: %d", c.Game.MinPlayers)
	}
	return nil
}
