// Package transport 提供连接游戏服务器的 WebSocket 客户端。
package transport

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/protocol/codec"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	sendBufferSize    = 64
	receiveBufferSize = 256
)

var ErrClosed = errors.New("connection closed")

// Client WebSocket 客户端
type Client struct {
	ServerURL string
	UseProto  bool // 协商 atlas.proto 二进制子协议

	conn    *websocket.Conn
	codec   codec.Codec
	send    chan []byte
	receive chan *protocol.Message
	done    chan struct{}

	connID  atomic.Value // string
	latency atomic.Int64 // 毫秒

	// 回调，在读协程中调用
	OnMessage func(*protocol.Message)
	OnError   func(error)

	closeOnce sync.Once
}

// NewClient 创建客户端
func NewClient(serverURL string, useProto bool) *Client {
	return &Client{
		ServerURL: serverURL,
		UseProto:  useProto,
		send:      make(chan []byte, sendBufferSize),
		receive:   make(chan *protocol.Message, receiveBufferSize),
		done:      make(chan struct{}),
	}
}

// Connect 连接服务器并启动读写协程
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if c.UseProto {
		dialer.Subprotocols = []string{codec.SubprotocolProto}
	}

	conn, _, err := dialer.DialContext(ctx, c.ServerURL, nil)
	if err != nil {
		return err
	}

	c.conn = conn
	c.codec = codec.ForSubprotocol(conn.Subprotocol())

	go c.readPump()
	go c.writePump()

	return nil
}

// Send 发送消息
func (c *Client) Send(msgType protocol.MessageType, payload any) error {
	msg, err := codec.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	data, err := c.codec.Encode(msg)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Ping 发送心跳，pong 到达后更新延迟
func (c *Client) Ping() error {
	return c.Send(protocol.MsgPing, protocol.PingPayload{Timestamp: time.Now().UnixMilli()})
}

// Receive 返回接收消息的 channel，缓冲区满时丢弃
func (c *Client) Receive() <-chan *protocol.Message {
	return c.receive
}

// Done 在连接关闭后关闭
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ConnID 返回服务器分配的连接 ID，收到 connected 之前为空
func (c *Client) ConnID() string {
	id, _ := c.connID.Load().(string)
	return id
}

// Latency 返回最近一次 ping 的往返延迟
func (c *Client) Latency() time.Duration {
	return time.Duration(c.latency.Load()) * time.Millisecond
}

// Close 关闭连接
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			_ = c.conn.Close()
		}
	})
}
