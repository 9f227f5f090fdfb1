package transport

import (
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/atlas/internal/logger"
	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/protocol/codec"
)

// readPump 从服务器读取消息
func (c *Client) readPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			log.Printf("[PANIC] readPump panic recovered: %v", r)
		}
		c.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) && c.OnError != nil {
				c.OnError(err)
			}
			return
		}

		msg, err := c.codec.Decode(data)
		if err != nil {
			log.Printf("消息解析错误: %v", err)
			continue
		}

		c.processMessage(msg)
	}
}

func (c *Client) processMessage(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgConnected:
		if payload, err := codec.ParsePayload[protocol.ConnectedPayload](msg); err == nil {
			c.connID.Store(payload.ConnID)
		}
	case protocol.MsgPong:
		if payload, err := codec.ParsePayload[protocol.PongPayload](msg); err == nil {
			c.latency.Store(time.Now().UnixMilli() - payload.ClientTimestamp)
		}
	}

	if c.OnMessage != nil {
		c.OnMessage(msg)
	}

	select {
	case c.receive <- msg:
	default:
	}
}

// writePump 向服务器写入消息
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			log.Printf("[PANIC] writePump panic recovered: %v", r)
		}
		ticker.Stop()
		c.Close()
	}()

	frameType := websocket.TextMessage
	if c.codec.Binary() {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(frameType, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
