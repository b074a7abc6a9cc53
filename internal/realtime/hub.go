package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// Message is the envelope written to websocket clients.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Events pushed to clients
const (
	EventNotification      = "notification"
	EventFriendshipRemoved = "friendship_removed"
	EventPong              = "pong"
)

// Hub tracks live websocket connections per user. A user may hold several.
type Hub struct {
	userConns  map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		userConns:  make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client, 64),
		done:       make(chan struct{}),
	}
}

// Run owns registration until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.userConns[client.UserID] == nil {
				h.userConns[client.UserID] = make(map[*Client]struct{})
			}
			h.userConns[client.UserID][client] = struct{}{}
			h.mu.Unlock()
			log.Printf("[Hub] connected: user=%d client=%s", client.UserID, client.ID)

		case client := <-h.unregister:
			h.remove(client)

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for userID, clients := range h.userConns {
				for c := range clients {
					close(c.send)
				}
				delete(h.userConns, userID)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.userConns[client.UserID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.userConns, client.UserID)
	}
	close(client.send)
	log.Printf("[Hub] disconnected: user=%d client=%s", client.UserID, client.ID)
}

// SendToUser queues msg on every connection of userID and reports how many accepted it.
// Connections whose buffer is full are dropped.
func (h *Hub) SendToUser(userID int64, msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Hub] marshal FAILED: event=%s err=%v", msg.Event, err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.userConns[userID] {
		select {
		case client.send <- data:
			delivered++
		default:
			select {
			case h.unregister <- client:
			default:
			}
		}
	}
	return delivered
}

// reply queues msg on a single connection if it is still registered.
func (h *Hub) reply(client *Client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.userConns[client.UserID][client]; !ok {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

// IsOnline reports whether userID has at least one live connection.
func (h *Hub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userConns[userID]) > 0
}
