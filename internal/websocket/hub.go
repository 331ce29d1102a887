// Package websocket pushes chat updates to the browser tabs a user has open.
package websocket

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"career-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "chat_live_updates"

type Hub struct {
	// Registered clients map: UserID -> List of Clients (multi-device)
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{} // closed when Run returns

	mu sync.RWMutex

	// Optional. When set, every Send goes through Redis so that the replica
	// holding the connection delivers it, including this one.
	rdb redis.UniversalClient

	logger logger.ILogger
}

func NewHub(rdb redis.UniversalClient, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

// Run owns client registration until ctx is done. It returns only after the
// Redis subscriber has stopped.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	var subscriber sync.WaitGroup
	if h.rdb != nil {
		subscriber.Add(1)
		go func() {
			defer subscriber.Done()
			h.subscribeToRedis(ctx)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			subscriber.Wait()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Debug("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID.String()})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// join reports false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// remove is idempotent: a client already dropped is ignored.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.UserID]
	i := slices.Index(clients, client)
	if i < 0 {
		return
	}
	h.clients[client.UserID] = slices.Delete(clients, i, i+1)
	close(client.Send)
	if len(h.clients[client.UserID]) == 0 {
		delete(h.clients, client.UserID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, clients := range h.clients {
		for _, c := range clients {
			close(c.Send)
		}
		delete(h.clients, userID)
	}
}

// Connected reports how many live connections the user has on this replica.
func (h *Hub) Connected(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Send delivers data to every connection of the user.
func (h *Hub) Send(ctx context.Context, userID uuid.UUID, data []byte) {
	if h.rdb == nil {
		h.deliver(userID, data)
		return
	}

	payload, _ := json.Marshal(clusterMessage{TargetUserID: userID.String(), Message: data})
	if err := h.rdb.Publish(ctx, clusterChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Redis publish failed, delivering locally only", map[string]interface{}{
			"user_id": userID.String(),
			"error":   err.Error(),
		})
		h.deliver(userID, data)
	}
}

// deliver never blocks, so it can hold the read lock while sending; remove
// and closeAll need the write lock before closing a Send channel.
func (h *Hub) deliver(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[userID] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"user_id": userID.String()})
			go h.leave(client)
		}
	}
}

type clusterMessage struct {
	TargetUserID string          `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

// subscribeToRedis delivers messages published by any replica to the
// connections held here, until ctx is done.
func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		var msg *redis.Message
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			msg = m
		}

		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		uid, err := uuid.Parse(payload.TargetUserID)
		if err != nil {
			continue
		}
		h.deliver(uid, payload.Message)
	}
}
