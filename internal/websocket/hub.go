package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/pkg/logger"
)

const (
	EventOrderStatus = "order_status"
	eventPong        = "pong"

	sendBufferSize = 256
)

// OrderEvent is pushed to the order owner and to every staff session.
type OrderEvent struct {
	Type         string            `json:"type"`
	OrderID      uint              `json:"order_id"`
	OrderNumber  string            `json:"order_number"`
	Status       model.OrderStatus `json:"status"`
	TrackingCode string            `json:"tracking_code"`
}

// ClientMessage is the only inbound frame the hub understands.
type ClientMessage struct {
	Type string `json:"type"` // ping
}

// Client is one websocket session. A user may hold several.
type Client struct {
	Hub           *Hub
	Conn          *Conn
	UserID        uint
	Staff         bool
	Send          chan []byte
	MessageCount  int       // messages received in the current second
	LastResetTime time.Time // start of the current rate window
	RateMu        sync.Mutex
}

// NewClient builds a session with a buffered outbound queue.
func NewClient(hub *Hub, conn *Conn, userID uint, staff bool) *Client {
	return &Client{
		Hub:           hub,
		Conn:          conn,
		UserID:        userID,
		Staff:         staff,
		Send:          make(chan []byte, sendBufferSize),
		LastResetTime: time.Now(),
	}
}

type broadcastMessage struct {
	OwnerID *uint
	Message []byte
}

// Hub tracks live sessions and fans order events out to them.
type Hub struct {
	clients map[uint][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *broadcastMessage, 1024),
	}
}

// Run is the hub loop; start it once in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			sessions := len(h.clients[client.UserID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"staff":          client.Staff,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	remaining := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		remaining = append(remaining, c)
	}
	if !found {
		return
	}
	if len(remaining) == 0 {
		delete(h.clients, client.UserID)
	} else {
		h.clients[client.UserID] = remaining
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(remaining),
	})
}

func (h *Hub) deliver(message *broadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID, list := range h.clients {
		for _, client := range list {
			owner := message.OwnerID != nil && *message.OwnerID == userID
			if !owner && !client.Staff {
				continue
			}
			select {
			case client.Send <- message.Message:
			default:
				go h.Unregister(client)
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"user_id": userID,
				})
			}
		}
	}
}

// PublishOrderStatus queues an order event. A full queue drops the event.
func (h *Hub) PublishOrderStatus(order *model.Order) {
	data, err := json.Marshal(OrderEvent{
		Type:         EventOrderStatus,
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		Status:       order.Status,
		TrackingCode: order.TrackingCode,
	})
	if err != nil {
		logger.Error("Failed to marshal order event", err, map[string]interface{}{
			"order_id": order.ID,
		})
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{OwnerID: order.UserID, Message: data}:
	default:
		logger.Warn("Broadcast channel full, order event dropped", map[string]interface{}{
			"order_id": order.ID,
		})
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SessionCount returns the number of open sessions of userID.
func (h *Hub) SessionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// HandleClientMessage answers pings and drops everything else. Clients
// above maxMessagesPerSecond are ignored until the window resets.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"user_id": client.UserID,
			"count":   count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"user_id": client.UserID,
			"error":   err.Error(),
		})
		return
	}

	if msg.Type != "ping" {
		return
	}
	pong, _ := json.Marshal(ClientMessage{Type: eventPong})
	select {
	case client.Send <- pong:
	default:
	}
}
