package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dom/wedge-builds/internal/websocket"
	gorillaWS "github.com/gorilla/websocket"
)

// WSClient is a test WebSocket client
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *websocket.Message
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// NewWSClient dials url and starts reading in the background
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *websocket.Message, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(client.Close)

	return client
}

func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			default:
			}
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			select {
			case c.errors <- err:
			default:
			}
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

// SendRaw writes data as a single text frame
func (c *WSClient) SendRaw(data []byte) {
	c.t.Helper()

	c.mu.Lock()
	err := c.conn.WriteMessage(gorillaWS.TextMessage, data)
	c.mu.Unlock()

	if err != nil {
		c.t.Fatalf("failed to send message: %v", err)
	}
}

// Send writes a typed message
func (c *WSClient) Send(msgType websocket.MessageType, payload interface{}) {
	c.t.Helper()

	msg, err := websocket.NewMessage(msgType, payload)
	if err != nil {
		c.t.Fatalf("failed to build message: %v", err)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		c.t.Fatalf("failed to marshal message: %v", err)
	}
	c.SendRaw(data)
}

// Ping sends a PING
func (c *WSClient) Ping() {
	c.Send(websocket.MessageTypePing, nil)
}

// ExpectMessage waits for a message of the specified type, skipping others
func (c *WSClient) ExpectMessage(msgType websocket.MessageType, timeout time.Duration) *websocket.Message {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", msgType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for message type %s", msgType)
		}
	}
}

func decodePayload[T any](c *WSClient, msg *websocket.Message) *T {
	c.t.Helper()

	var payload T
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode %s payload: %v", msg.Type, err)
	}
	return &payload
}

// ExpectCraftingComplete waits for and decodes a CRAFTING_COMPLETE message
func (c *WSClient) ExpectCraftingComplete(timeout time.Duration) *websocket.CraftingCompletePayload {
	c.t.Helper()
	return decodePayload[websocket.CraftingCompletePayload](c, c.ExpectMessage(websocket.MessageTypeCraftingComplete, timeout))
}

// ExpectBuildVoted waits for and decodes a BUILD_VOTED message
func (c *WSClient) ExpectBuildVoted(timeout time.Duration) *websocket.BuildVotedPayload {
	c.t.Helper()
	return decodePayload[websocket.BuildVotedPayload](c, c.ExpectMessage(websocket.MessageTypeBuildVoted, timeout))
}

// ExpectError waits for and decodes an ERROR message
func (c *WSClient) ExpectError(timeout time.Duration) *websocket.ErrorPayload {
	c.t.Helper()
	return decodePayload[websocket.ErrorPayload](c, c.ExpectMessage(websocket.MessageTypeError, timeout))
}

// ExpectNoMessage verifies no messages are received within timeout
func (c *WSClient) ExpectNoMessage(timeout time.Duration) {
	c.t.Helper()

	select {
	case msg := <-c.messages:
		if msg != nil {
			c.t.Fatalf("unexpected message received: %s", msg.Type)
		}
	case <-time.After(timeout):
	}
}

// DrainMessages discards buffered messages until none arrive for 50ms
func (c *WSClient) DrainMessages() {
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				return
			}
		case <-time.After(50 * time.Millisecond):
			return
		case <-c.done:
			return
		}
	}
}
