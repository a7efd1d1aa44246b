package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	// Client to Server
	MessageTypePing MessageType = "PING"

	// Server to Client
	MessageTypePong             MessageType = "PONG"
	MessageTypeCraftingComplete MessageType = "CRAFTING_COMPLETE"
	MessageTypeBuildVoted       MessageType = "BUILD_VOTED"
	MessageTypeError            MessageType = "ERROR"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &Message{
		Type:      msgType,
		Payload:   raw,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Server to Client payloads

type CraftingCompletePayload struct {
	NotificationID string    `json:"notificationId"`
	ItemName       string    `json:"itemName"`
	Category       string    `json:"category"`
	Quantity       int       `json:"quantity"`
	EndTime        time.Time `json:"endTime"`
}

type BuildVotedPayload struct {
	BuildID   uuid.UUID `json:"buildId"`
	VoteCount int       `json:"voteCount"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
