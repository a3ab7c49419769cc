package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Hub maintains the set of active clients and pushes notification events to
// the connections of the addressed user.
type Hub struct {
	// Registered clients organized by user ID
	clients map[int64]map[*Client]bool

	// Channel for outbound events
	events chan *Event

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for concurrent access to clients map
	mu sync.RWMutex

	// Logger for Hub operations
	logger zerolog.Logger
}

// Event is a notification pushed over WebSocket to one user.
type Event struct {
	// Type of event, mirrors models.NotificationType
	Type string `json:"type"`

	// User the event is addressed to
	UserID int64 `json:"userId"`

	// Notification ID from the database
	NotificationID int64 `json:"notificationId,omitempty"`

	Title   string `json:"title"`
	Message string `json:"message"`

	// References back to the triggering entity
	FileID       int64 `json:"fileId,omitempty"`
	AssignmentID int64 `json:"assignmentId,omitempty"`

	// Timestamp when the event was created
	Timestamp time.Time `json:"timestamp"`
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		events:     make(chan *Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[int64]map[*Client]bool),
		logger:     logger,
	}
}

// Run starts the hub, handling client registrations and event delivery.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.events:
			h.deliverEvent(event)
		}
	}
}

// registerClient registers a new client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := client.userID
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[*Client]bool)
	}
	h.clients[userID][client] = true

	h.logger.Info().
		Int64("userID", userID).
		Str("addr", client.conn.RemoteAddr().String()).
		Msg("Notification client registered")
}

// unregisterClient unregisters a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := client.userID
	if _, ok := h.clients[userID]; ok {
		if _, ok := h.clients[userID][client]; ok {
			delete(h.clients[userID], client)
			close(client.send)

			if len(h.clients[userID]) == 0 {
				delete(h.clients, userID)
			}

			h.logger.Info().
				Int64("userID", userID).
				Str("addr", client.conn.RemoteAddr().String()).
				Msg("Notification client unregistered")
		}
	}
}

// deliverEvent sends an event to every open connection of the target user.
// Runs on the hub goroutine, so slow clients are dropped with a direct
// unregisterClient call; sending to h.unregister from here would block
// forever because this goroutine is its only receiver.
func (h *Hub) deliverEvent(event *Event) {
	h.mu.RLock()

	clients, ok := h.clients[event.UserID]
	if !ok {
		h.mu.RUnlock()
		h.logger.Debug().
			Int64("userID", event.UserID).
			Msg("No open connections for notification event")
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.mu.RUnlock()
		h.logger.Error().
			Err(err).
			Int64("userID", event.UserID).
			Msg("Failed to marshal notification event")
		return
	}

	// Clients whose send buffer is full; they are slow or disconnected
	var slow []*Client
	for client := range clients {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	delivered := len(clients) - len(slow)
	h.mu.RUnlock()

	for _, client := range slow {
		h.unregisterClient(client)
	}

	h.logger.Debug().
		Int64("userID", event.UserID).
		Int("clientCount", delivered).
		Msg("Notification event delivered")
}

// Push queues an event for delivery to the addressed user. Non-blocking;
// events are dropped if the hub backlog is full.
func (h *Hub) Push(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case h.events <- event:
	default:
		h.logger.Warn().Int64("userID", event.UserID).Msg("Notification hub backlog full, event dropped")
	}
}

// ConnectionCount returns the number of open connections for a user
func (h *Hub) ConnectionCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.clients[userID]; ok {
		return len(clients)
	}
	return 0
}
