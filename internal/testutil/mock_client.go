//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/protocol/codec"
)

// MockClient 实现 types.ClientInterface 的 mock
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) GetRoom() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) SetRoom(roomID string) {
	m.Called(roomID)
}

func (m *MockClient) SendMessage(msg *protocol.Message) {
	m.Called(msg)
}

func (m *MockClient) Close() {
	m.Called()
}

// SimpleClient 记录收到消息的客户端，不使用 testify，可并发使用
type SimpleClient struct {
	ID string

	mu       sync.Mutex
	roomID   string
	messages []*protocol.Message
	closed   bool
}

// NewSimpleClient 创建记录型客户端
func NewSimpleClient(id string) *SimpleClient {
	return &SimpleClient{ID: id}
}

func (c *SimpleClient) GetID() string { return c.ID }

func (c *SimpleClient) GetRoom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *SimpleClient) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

func (c *SimpleClient) SendMessage(msg *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

func (c *SimpleClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// IsClosed 是否已关闭
func (c *SimpleClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// SentMessages 返回已收到消息的副本
func (c *SimpleClient) SentMessages() []*protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*protocol.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// MessagesOfType 返回指定类型的消息
func (c *SimpleClient) MessagesOfType(t protocol.MessageType) []*protocol.Message {
	var out []*protocol.Message
	for _, m := range c.SentMessages() {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// CountOf 返回指定类型消息的数量
func (c *SimpleClient) CountOf(t protocol.MessageType) int {
	return len(c.MessagesOfType(t))
}

// Reset 清空已记录的消息
func (c *SimpleClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// LastPayload 解析最后一条指定类型消息的 payload，没有时返回 false
func LastPayload[T any](c *SimpleClient, t protocol.MessageType) (*T, bool) {
	msgs := c.MessagesOfType(t)
	if len(msgs) == 0 {
		return nil, false
	}
	p, err := codec.ParsePayload[T](msgs[len(msgs)-1])
	if err != nil {
		return nil, false
	}
	return p, true
}
