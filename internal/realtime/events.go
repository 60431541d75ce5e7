// file: internal/realtime/events.go
// version: 2.0.0
// guid: 7a957c96-f992-4b75-85ae-55315c7ab5bc

package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jdfalk/cliqbook/internal/metrics"
	"github.com/rs/zerolog"
)

// EventType defines the type of real-time event
type EventType string

const (
	EventCatalogChanged EventType = "catalog.changed"
	EventSessionChanged EventType = "session.changed"
	EventSystemStatus   EventType = "system.status"
)

// Event represents a real-time event to send to clients
type Event struct {
	Type       EventType      `json:"type"`
	Collection string         `json:"collection,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Data       map[string]any `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID      string
	Channel chan *Event

	mu          sync.RWMutex
	collections map[string]bool // empty means every collection
}

// NewClient creates a new SSE client
func NewClient(id string) *Client {
	return &Client{
		ID:          id,
		Channel:     make(chan *Event, 100),
		collections: make(map[string]bool),
	}
}

// Subscribe limits the client to events about the named collection.
func (c *Client) Subscribe(collection string) {
	c.mu.Lock()
	c.collections[collection] = true
	c.mu.Unlock()
}

// Unsubscribe removes a collection filter.
func (c *Client) Unsubscribe(collection string) {
	c.mu.Lock()
	delete(c.collections, collection)
	c.mu.Unlock()
}

// Wants reports whether an event about collection should reach this client.
func (c *Client) Wants(collection string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return collection == "" || len(c.collections) == 0 || c.collections[collection]
}

// EventHub manages SSE connections and fans change notifications out to them.
type EventHub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     zerolog.Logger
}

// NewEventHub creates a new event hub
func NewEventHub(log zerolog.Logger) *EventHub {
	return &EventHub{
		clients: make(map[string]*Client),
		log:     log.With().Str("component", "realtime").Logger(),
	}
}

// RegisterClient registers a new client
func (h *EventHub) RegisterClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	n := len(h.clients)
	h.mu.Unlock()
	metrics.SetSSEClients(n)
	h.log.Debug().Str("client", client.ID).Int("clients", n).Msg("client registered")
}

// UnregisterClient removes a client
func (h *EventHub) UnregisterClient(clientID string) {
	h.mu.Lock()
	if client, exists := h.clients[clientID]; exists {
		close(client.Channel)
		delete(h.clients, clientID)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.SetSSEClients(n)
	h.log.Debug().Str("client", clientID).Int("clients", n).Msg("client unregistered")
}

// Broadcast sends an event to every interested client. Slow clients drop events.
func (h *EventHub) Broadcast(event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if !client.Wants(event.Collection) {
			continue
		}
		select {
		case client.Channel <- event:
		default:
			h.log.Warn().Str("client", client.ID).Str("type", string(event.Type)).Msg("client channel full, dropping event")
		}
	}
}

// Changed announces a successful mutation of a collection.
func (h *EventHub) Changed(collection, action, id string) {
	h.Broadcast(&Event{
		Type:       EventCatalogChanged,
		Collection: collection,
		Timestamp:  time.Now(),
		Data: map[string]any{
			"action": action,
			"id":     id,
		},
	})
}

// SessionChanged announces a login, registration or logout.
func (h *EventHub) SessionChanged(action, userID string) {
	h.Broadcast(&Event{
		Type:       EventSessionChanged,
		Collection: "session",
		Timestamp:  time.Now(),
		Data: map[string]any{
			"action":  action,
			"user_id": userID,
		},
	})
}

// SendSystemStatus sends a system status event
func (h *EventHub) SendSystemStatus(data map[string]any) {
	h.Broadcast(&Event{
		Type:      EventSystemStatus,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// GetClientCount returns the number of connected clients
func (h *EventHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleSSE streams events to one client until the request is cancelled.
// ?collection=books may be repeated to filter.
func (h *EventHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	client := NewClient(uuid.NewString())
	for _, collection := range c.QueryArray("collection") {
		client.Subscribe(collection)
	}

	h.RegisterClient(client)
	defer h.UnregisterClient(client.ID)

	writeEvent(c, map[string]any{
		"type":      "connection.established",
		"timestamp": time.Now(),
		"data":      map[string]any{"client_id": client.ID},
	})

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case event, ok := <-client.Channel:
			if !ok {
				return
			}
			if err := writeEvent(c, event); err != nil {
				h.log.Debug().Err(err).Str("client", client.ID).Msg("write failed, closing stream")
				return
			}
		case <-ticker.C:
			_ = writeEvent(c, map[string]any{"type": "heartbeat", "timestamp": time.Now()})
		}
	}
}

func writeEvent(c *gin.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}
