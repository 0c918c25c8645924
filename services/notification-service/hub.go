package main

import (
	"context"
	"encoding/json"
	"sync"

	"lapordesa/pkg/middleware"
	"lapordesa/pkg/queue"

	"go.uber.org/zap"
)

// Message is one server-sent event. Type is the routing key the event
// arrived on.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`

	// owner is the citizen the report belongs to, empty for anonymous
	// reports and for notifications.
	owner string
}

type Client struct {
	UserID string
	Role   string
	Send   chan Message
}

func newClient(claims *middleware.UserClaims, buffer int) *Client {
	return &Client{UserID: claims.UserID, Role: claims.Role, Send: make(chan Message, buffer)}
}

// shouldDeliver decides who sees what: admins get every event, a citizen only
// gets status changes of their own reports.
func shouldDeliver(c *Client, m Message) bool {
	if c.Role == middleware.RoleAdmin {
		return true
	}
	if c.Role != middleware.RoleCitizen {
		return false
	}
	return m.Type == queue.KeyReportUpdated && m.owner != "" && m.owner == c.UserID
}

type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	done       chan struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, 100),
		done:       make(chan struct{}),
	}
}

// Register reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) Broadcast(m Message) {
	select {
	case h.broadcast <- m:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run owns the client set until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.Send)
			}
			h.mu.Unlock()
			connectedClients.Set(0)
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			connectedClients.Set(float64(n))
			h.logger.Info("Client registered", zap.String("user_id", c.UserID), zap.Int("clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.Send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			connectedClients.Set(float64(n))
			h.logger.Info("Client unregistered", zap.String("user_id", c.UserID), zap.Int("clients", n))

		case m := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if !shouldDeliver(c, m) {
					continue
				}
				select {
				case c.Send <- m:
				default:
					droppedEvents.Inc()
				}
			}
			h.mu.RUnlock()
		}
	}
}
