package server

import (
	"log"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"
)

// RateLimiter 按 IP 限制新连接速率
type RateLimiter struct {
	requests map[string]*clientRate
	mu       sync.RWMutex

	maxRequestsPerSecond int
	maxRequestsPerMinute int
	banDuration          time.Duration
	cleanupInterval      time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

// clientRate 客户端速率记录
type clientRate struct {
	secondCount int
	minuteCount int
	lastSecond  time.Time
	lastMinute  time.Time
	bannedUntil time.Time
}

// NewRateLimiter 创建速率限制器，后台定期清理过期记录直到 Stop
func NewRateLimiter(maxPerSecond, maxPerMinute int, banDuration time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests:             make(map[string]*clientRate),
		maxRequestsPerSecond: maxPerSecond,
		maxRequestsPerMinute: maxPerMinute,
		banDuration:          banDuration,
		cleanupInterval:      5 * time.Minute,
		done:                 make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow 检查是否允许请求，超限时封禁 banDuration
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rate, exists := rl.requests[ip]
	if !exists {
		rl.requests[ip] = &clientRate{
			secondCount: 1,
			minuteCount: 1,
			lastSecond:  now,
			lastMinute:  now,
		}
		return true
	}

	if now.Before(rate.bannedUntil) {
		return false
	}

	if now.Sub(rate.lastSecond) >= time.Second {
		rate.secondCount = 0
		rate.lastSecond = now
	}
	if now.Sub(rate.lastMinute) >= time.Minute {
		rate.minuteCount = 0
		rate.lastMinute = now
	}

	rate.secondCount++
	rate.minuteCount++

	if rate.secondCount > rl.maxRequestsPerSecond || rate.minuteCount > rl.maxRequestsPerMinute {
		rate.bannedUntil = now.Add(rl.banDuration)
		log.Printf("⚠️ IP %s 连接过于频繁，封禁 %v", ip, rl.banDuration)
		return false
	}

	return true
}

// IsBanned 检查 IP 是否被封禁
func (rl *RateLimiter) IsBanned(ip string) bool {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	rate, exists := rl.requests[ip]
	if !exists {
		return false
	}
	return time.Now().Before(rate.bannedUntil)
}

// Stop 停止后台清理
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.purge(time.Now())
		}
	}
}

// purge 删除 10 分钟无请求且未封禁的记录
func (rl *RateLimiter) purge(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, rate := range rl.requests {
		if now.Sub(rate.lastMinute) > 10*time.Minute && now.After(rate.bannedUntil) {
			delete(rl.requests, ip)
		}
	}
}

// --- 来源验证 ---

// OriginChecker 来源验证器
type OriginChecker struct {
	allowedOrigins map[string]bool
	allowAll       bool
}

// NewOriginChecker 创建来源验证器，"*" 表示允许所有来源
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{
		allowedOrigins: make(map[string]bool),
	}
	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			return oc
		}
		oc.allowedOrigins[strings.ToLower(strings.TrimRight(origin, "/"))] = true
	}
	return oc
}

// Check 检查来源是否允许，没有 Origin 头的请求（本地客户端）放行
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return oc.allowedOrigins[strings.ToLower(origin)]
}

// --- IP 黑名单 ---

// IPFilter IP 黑名单，条目可以是单个地址或 CIDR 网段
type IPFilter struct {
	addrs    map[netip.Addr]bool
	prefixes []netip.Prefix
	mu       sync.RWMutex
}

// NewIPFilter 创建 IP 过滤器，无法解析的条目记录日志后忽略
func NewIPFilter(blocked []string) *IPFilter {
	f := &IPFilter{addrs: make(map[netip.Addr]bool)}
	for _, entry := range blocked {
		if err := f.Block(entry); err != nil {
			log.Printf("⚠️ 忽略无效的 IP 黑名单条目 %q: %v", entry, err)
		}
	}
	return f
}

// Block 加入黑名单
func (f *IPFilter) Block(entry string) error {
	entry = strings.TrimSpace(entry)
	f.mu.Lock()
	defer f.mu.Unlock()

	if strings.Contains(entry, "/") {
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			return err
		}
		f.prefixes = append(f.prefixes, prefix.Masked())
		return nil
	}
	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return err
	}
	f.addrs[addr.Unmap()] = true
	return nil
}

// IsAllowed 检查 IP 是否允许，无法解析的地址放行
func (f *IPFilter) IsAllowed(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return true
	}
	addr = addr.Unmap()

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.addrs[addr] {
		return false
	}
	for _, p := range f.prefixes {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

// --- 辅助函数 ---

// GetClientIP 获取客户端真实 IP
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// 取第一个 IP（最原始的客户端）
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// --- 消息速率限制 ---

// maxRateWarnings 超速次数达到该值后断开连接
const maxRateWarnings = 5

// MessageRateLimiter 已连接客户端的消息速率限制
type MessageRateLimiter struct {
	limits map[string]*messageRate
	mu     sync.Mutex

	maxMessagesPerSecond int
	warningThreshold     int
}

type messageRate struct {
	count     int
	lastReset time.Time
	warnings  int
}

// NewMessageRateLimiter 创建消息速率限制器
func NewMessageRateLimiter(maxPerSecond int) *MessageRateLimiter {
	return &MessageRateLimiter{
		limits:               make(map[string]*messageRate),
		maxMessagesPerSecond: maxPerSecond,
		warningThreshold:     maxPerSecond / 2,
	}
}

// AllowMessage 检查是否允许处理该消息；warning 表示已接近或超过限制
func (ml *MessageRateLimiter) AllowMessage(clientID string) (allowed bool, warning bool) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := time.Now()
	rate, exists := ml.limits[clientID]
	if !exists {
		ml.limits[clientID] = &messageRate{count: 1, lastReset: now}
		return true, false
	}

	if now.Sub(rate.lastReset) >= time.Second {
		rate.count = 1
		rate.lastReset = now
		return true, false
	}

	rate.count++
	if rate.count > ml.maxMessagesPerSecond {
		rate.warnings++
		return false, true
	}
	if rate.count > ml.warningThreshold {
		return true, true
	}
	return true, false
}

// ShouldDisconnect 超速次数过多
func (ml *MessageRateLimiter) ShouldDisconnect(clientID string) bool {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	rate, exists := ml.limits[clientID]
	return exists && rate.warnings >= maxRateWarnings
}

// RemoveClient 移除客户端记录
func (ml *MessageRateLimiter) RemoveClient(clientID string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.limits, clientID)
}
