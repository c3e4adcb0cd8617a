package websocket

import (
	"encoding/json"
	"time"

	"websiter-server/internal/domain"
)

type MessageType string

const (
	TypeChange    MessageType = "change"
	TypeSubscribe MessageType = "subscribe"
	TypeAck       MessageType = "ack"
	TypePing      MessageType = "ping"
	TypePong      MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// SubscribePayload switches the owner key a connection watches. Regular
// clients are pinned to their own key; only admins may ask for another.
type SubscribePayload struct {
	OwnerID    string `json:"owner_id"`
	OwnerEmail string `json:"owner_email"`
}

type AckPayload struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func NewChangeMessage(event domain.ChangeEvent) (*Message, error) {
	return NewMessage(TypeChange, event)
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
