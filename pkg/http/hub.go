// Package http exposes the engine over HTTP and WebSocket: frame ingestion,
// event broadcast, health, stats, and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"punchcoach-server/pkg/drill"
)

// Client represents a connected WebSocket client
type Client struct {
	hub       *EventHub
	conn      *websocket.Conn
	send      chan []byte
	logger    *logrus.Logger
	sessionID string // non-empty when subscribed to a single session
}

// EventHub fans drill events out to WebSocket clients. It is a
// drill.EventSink: sessions publish into it, clients subscribe to everything
// or to a single session.
type EventHub struct {
	logger             *logrus.Logger
	clients            map[*Client]bool
	sessionSubscribers map[string]map[*Client]bool
	broadcast          chan drill.Event
	register           chan *Client
	unregister         chan *Client
	mutex              sync.RWMutex
}

// WebSocketUpgrader configures the WebSocket connection
var WebSocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all connections
		return true
	},
}

// NewEventHub creates a new event hub
func NewEventHub(logger *logrus.Logger) *EventHub {
	return &EventHub{
		logger:             logger,
		clients:            make(map[*Client]bool),
		sessionSubscribers: make(map[string]map[*Client]bool),
		broadcast:          make(chan drill.Event, 256),
		register:           make(chan *Client),
		unregister:         make(chan *Client),
	}
}

// Publish implements drill.EventSink. A full broadcast buffer drops the
// event rather than stalling the classification pass.
func (h *EventHub) Publish(event drill.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Event hub broadcast buffer full, dropping event")
	}
}

// Run starts the event hub loop
func (h *EventHub) Run(ctx context.Context) {
	h.logger.Info("Starting WebSocket event hub")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Shutting down WebSocket event hub")
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			if client.sessionID != "" {
				if _, exists := h.sessionSubscribers[client.sessionID]; !exists {
					h.sessionSubscribers[client.sessionID] = make(map[*Client]bool)
				}
				h.sessionSubscribers[client.sessionID][client] = true
			}
			h.mutex.Unlock()

			h.logger.WithField("session_id", client.sessionID).Info("Client connected to event hub")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)

				if client.sessionID != "" {
					if subscribers, exists := h.sessionSubscribers[client.sessionID]; exists {
						delete(subscribers, client)
						if len(subscribers) == 0 {
							delete(h.sessionSubscribers, client.sessionID)
						}
					}
				}
			}
			h.mutex.Unlock()

			h.logger.Info("Client disconnected from event hub")

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.WithError(err).Error("Failed to marshal drill event")
				continue
			}
			h.deliver(event, data)
		}
	}
}

// deliver sends a marshaled event to every interested client. Clients with a
// session filter only receive their own session's events.
func (h *EventHub) deliver(event drill.Event, data []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if client.sessionID != "" && client.sessionID != event.SessionID {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Slow client, skip this event for it
		}
	}
}

// NewClient wraps a WebSocket connection as a hub client. An empty sessionID
// subscribes to all sessions.
func (h *EventHub) NewClient(conn *websocket.Conn, sessionID string) *Client {
	return &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 64),
		logger:    h.logger,
		sessionID: sessionID,
	}
}

// Register adds the client to the hub
func (h *EventHub) Register(client *Client) {
	h.register <- client
}

// Unregister removes the client from the hub
func (h *EventHub) Unregister(client *Client) {
	h.unregister <- client
}

// WritePump forwards hub events to the client connection until the send
// channel closes or the write fails.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.logger.WithError(err).Debug("WebSocket write failed")
			return
		}
	}
}

// ReadPump discards incoming messages from observer clients so pings and
// close frames are processed; it returns when the connection drops.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
