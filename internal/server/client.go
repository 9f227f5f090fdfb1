package server

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/palemoky/atlas/internal/logger"
	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096

	sendBufferSize = 256
)

// Client 一条 WebSocket 连接
type Client struct {
	ID string // 连接 ID，与玩家 ID 无关
	IP string

	server *Server
	conn   *websocket.Conn
	codec  codec.Codec
	send   chan []byte

	mu     sync.RWMutex
	roomID string
	closed bool
}

// NewClient 创建客户端，编解码器由协商的子协议决定
func NewClient(s *Server, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.NewString(),
		server: s,
		conn:   conn,
		codec:  codec.ForSubprotocol(conn.Subprotocol()),
		send:   make(chan []byte, sendBufferSize),
	}
}

func (c *Client) GetID() string {
	return c.ID
}

func (c *Client) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

// SetRoom 设置客户端所在房间
func (c *Client) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

// SendMessage 编码后放入发送队列，队列已满时关闭连接
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := c.codec.Encode(msg)
	if err != nil {
		log.Printf("消息编码错误: %v", err)
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		log.Printf("客户端 %s 发送缓冲区已满，断开连接", c.ID)
		go c.Close()
	}
}

// Close 关闭发送队列，WritePump 随后关闭底层连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump 从 WebSocket 读取消息并交给处理器，退出时执行断线清理
func (c *Client) ReadPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		c.handleDisconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("读取错误: %v", err)
			}
			return
		}

		process, keep := c.checkRate()
		if !keep {
			return
		}
		if !process {
			continue
		}

		msg, err := c.codec.Decode(data)
		if err != nil {
			log.Printf("消息解析错误 (连接 %s): %v", c.ID, err)
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}

		c.server.handler.Handle(c, msg)
	}
}

// checkRate 消息速率检查：超速的消息丢弃，多次超速则断开连接
func (c *Client) checkRate() (process, keep bool) {
	limiter := c.server.messageLimiter
	allowed, warning := limiter.AllowMessage(c.ID)
	if allowed {
		if warning {
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "Slow down"))
		}
		return true, true
	}

	log.Printf("⚠️ 客户端 %s (IP: %s) 消息过于频繁", c.ID, c.IP)
	c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeRateLimit))
	if limiter.ShouldDisconnect(c.ID) {
		log.Printf("🚫 客户端 %s 因多次超速被断开连接", c.ID)
		return false, false
	}
	return false, true
}

// WritePump 向 WebSocket 写入消息并定期发送 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		ticker.Stop()
		_ = c.conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.codec.Binary() {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(frameType, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleDisconnect 断线：离开房间并注销连接
func (c *Client) handleDisconnect() {
	c.server.handler.HandleDisconnect(c)
	c.server.messageLimiter.RemoveClient(c.ID)
	c.server.unregisterClient(c)
	c.Close()
}
