package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local use
	},
}

// WebSocketHandler streams index and search activity to connected clients.
// It subscribes to the event bus and fans events out to every open socket.
type WebSocketHandler struct {
	logger  arbor.ILogger
	events  interfaces.EventService
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewWebSocketHandler creates the activity stream handler and subscribes it
// to the event bus.
func NewWebSocketHandler(events interfaces.EventService, logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:  logger,
		events:  events,
		clients: make(map[*websocket.Conn]struct{}),
	}

	for _, eventType := range []interfaces.EventType{
		interfaces.EventDocumentIndexed,
		interfaces.EventDocumentRemoved,
		interfaces.EventSearchExecuted,
		interfaces.EventIndexCleared,
	} {
		if err := events.Subscribe(eventType, h.broadcast); err != nil {
			logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Failed to subscribe websocket broadcaster")
		}
	}

	return h
}

// HandleWebSocket handles GET /ws upgrade requests
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Int("clients", count).Msg("WebSocket client connected")

	// Drain reads so close frames are processed; drop the client when the
	// connection dies
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// broadcast sends an event to every connected client.
func (h *WebSocketHandler) broadcast(ctx context.Context, event interfaces.Event) error {
	message := map[string]interface{}{
		"type":      string(event.Type),
		"payload":   event.Payload,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(message); err != nil {
			h.logger.Debug().Err(err).Msg("Dropping unresponsive websocket client")
			conn.Close()
			delete(h.clients, conn)
		}
	}
	return nil
}

func (h *WebSocketHandler) drop(conn *websocket.Conn) {
	conn.Close()
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// Close disconnects every client.
func (h *WebSocketHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
