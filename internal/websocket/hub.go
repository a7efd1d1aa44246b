package websocket

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoConnections is returned by Notify when the owner has no open
// connection. The scheduler keeps the timer pending in that case.
var ErrNoConnections = errors.New("user has no open connections")

// Hub tracks open connections per user and fans out push messages.
// Client send channels are only closed under the write lock and only
// written under the read lock.
type Hub struct {
	clients    map[*Client]struct{}
	byUser     map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopOnce   sync.Once
	mu         sync.RWMutex
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		byUser:     make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Named("hub"),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]struct{})
			h.byUser = make(map[uuid.UUID]map[*Client]struct{})
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			conns, ok := h.byUser[client.userID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.byUser[client.userID] = conns
			}
			conns[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("client registered", zap.Stringer("user_id", client.userID))

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// Stop closes every connection and waits for Run to exit.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Register adds a client. After Stop the client is closed instead.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	if conns := h.byUser[c.userID]; conns != nil {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.byUser, c.userID)
		}
	}
	c.Close()
}

// ConnectionCount returns the number of open connections of userID.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

// SendToUser pushes msg to every connection of userID and reports how
// many received it.
func (h *Hub) SendToUser(userID uuid.UUID, msg *Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal message", zap.Error(err))
		return 0
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.byUser[userID]))
	for c := range h.byUser[userID] {
		targets = append(targets, c)
	}
	sent, slow := h.deliver(targets, data)
	h.mu.RUnlock()

	h.dropSlow(slow)
	return sent
}

// Broadcast pushes msg to every open connection.
func (h *Hub) Broadcast(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal message", zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	_, slow := h.deliver(targets, data)
	h.mu.RUnlock()

	h.dropSlow(slow)
}

// deliver must be called with the read lock held.
func (h *Hub) deliver(targets []*Client, data []byte) (int, []*Client) {
	sent := 0
	var slow []*Client
	for _, c := range targets {
		select {
		case c.send <- data:
			sent++
		default:
			slow = append(slow, c)
		}
	}
	return sent, slow
}

func (h *Hub) dropSlow(slow []*Client) {
	for _, c := range slow {
		h.logger.Warn("dropping slow client", zap.Stringer("user_id", c.userID))
		h.remove(c)
	}
}

// Notify delivers a completed crafting timer to its owner's connections.
func (h *Hub) Notify(owner string, n *domain.CraftingNotification) error {
	userID, err := uuid.Parse(owner)
	if err != nil {
		return err
	}

	msg, err := NewMessage(MessageTypeCraftingComplete, CraftingCompletePayload{
		NotificationID: n.ID,
		ItemName:       n.ItemName,
		Category:       n.Category,
		Quantity:       n.Quantity,
		EndTime:        n.EndTime,
	})
	if err != nil {
		return err
	}

	if h.SendToUser(userID, msg) == 0 {
		return ErrNoConnections
	}
	return nil
}

// BuildVoted announces a build's new vote count to everyone connected.
func (h *Hub) BuildVoted(build *domain.Build) {
	msg, err := NewMessage(MessageTypeBuildVoted, BuildVotedPayload{
		BuildID:   build.ID,
		VoteCount: build.VoteCount,
	})
	if err != nil {
		h.logger.Error("failed to build vote message", zap.Error(err))
		return
	}
	h.Broadcast(msg)
}
