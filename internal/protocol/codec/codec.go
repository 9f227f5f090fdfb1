package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/palemoky/atlas/internal/protocol"
)

// WebSocket 子协议
const (
	SubprotocolJSON  = "atlas.json"
	SubprotocolProto = "atlas.proto"
)

var ErrMissingType = errors.New("message type is required")

// Codec 消息编解码器
type Codec interface {
	Encode(msg *protocol.Message) ([]byte, error)
	Decode(data []byte) (*protocol.Message, error)
	// Binary 报告编码结果是否应以二进制帧发送
	Binary() bool
}

// ForSubprotocol 根据协商的子协议选择编解码器，默认 JSON
func ForSubprotocol(name string) Codec {
	if name == SubprotocolProto {
		return ProtoCodec{}
	}
	return JSONCodec{}
}

// JSONCodec 文本帧 JSON 编码
type JSONCodec struct{}

func (JSONCodec) Binary() bool { return false }

func (JSONCodec) Encode(msg *protocol.Message) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := json.NewEncoder(buf).Encode(msg); err != nil {
		return nil, err
	}
	// 去掉 Encoder 追加的换行，并拷贝出池化缓冲区
	out := make([]byte, buf.Len()-1)
	copy(out, buf.Bytes())
	return out, nil
}

func (JSONCodec) Decode(data []byte) (*protocol.Message, error) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, ErrMissingType
	}
	return &msg, nil
}

// ProtoCodec 二进制帧编码，信封为 google.protobuf.Struct {type, payload}
type ProtoCodec struct{}

func (ProtoCodec) Binary() bool { return true }

func (ProtoCodec) Encode(msg *protocol.Message) ([]byte, error) {
	fields := map[string]any{"type": string(msg.Type)}
	if len(msg.Payload) > 0 {
		var payload any
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		fields["payload"] = payload
	}

	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	return proto.Marshal(st)
}

func (ProtoCodec) Decode(data []byte) (*protocol.Message, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, err
	}

	msgType := st.GetFields()["type"].GetStringValue()
	if msgType == "" {
		return nil, ErrMissingType
	}

	msg := &protocol.Message{Type: protocol.MessageType(msgType)}
	if v, ok := st.GetFields()["payload"]; ok {
		raw, err := v.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		msg.Payload = raw
	}
	return msg, nil
}
