package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"geotrail/pkg/alert"
	"geotrail/pkg/tracking"
	"geotrail/pkg/viewport"
)

// Stream message types.
const (
	MessageState = "state"
	MessageFrame = "frame"
	MessageAlert = "alert"
)

const (
	clientBuffer = 64
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
)

// Message is one frame pushed to stream clients.
type Message struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type streamClient struct {
	id   string
	send chan []byte
}

// Hub fans tracker updates out to websocket clients. Slow clients drop
// messages instead of stalling the broadcaster.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*streamClient
	upgrader websocket.Upgrader

	// last state, replayed to new clients so they can draw at once
	last []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*streamClient),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *Hub) register() *streamClient {
	c := &streamClient{
		id:   uuid.NewString(),
		send: make(chan []byte, clientBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	if h.last != nil {
		c.send <- h.last
	}
	return c
}

func (h *Hub) unregister(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast encodes data as a typed message and queues it for every client.
func (h *Hub) Broadcast(msgType string, data any) {
	payload, err := json.Marshal(Message{Type: msgType, Data: data, Timestamp: time.Now()})
	if err != nil {
		slog.Error("Failed to encode stream message", "type", msgType, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if msgType == MessageState {
		h.last = payload
	}
	for _, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slog.Debug("Stream client lagging, message dropped", "client", c.id, "type", msgType)
		}
	}
}

// PublishState implements the controller subscriber signature.
func (h *Hub) PublishState(s tracking.State) {
	h.Broadcast(MessageState, s)
}

// PublishFrame implements viewport.FrameSink.
func (h *Hub) PublishFrame(f viewport.Frame) {
	h.Broadcast(MessageFrame, f)
}

// Notify implements alert.Notifier.
func (h *Hub) Notify(_ context.Context, a alert.Alert) {
	h.Broadcast(MessageAlert, a)
}

// ServeHTTP upgrades the request and streams messages until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		slog.Debug("Stream upgrade failed", "error", err)
		return
	}

	client := h.register()
	slog.Debug("Stream client connected", "client", client.id)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(conn, client)
	}()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(client)
	<-done
	_ = conn.Close()
	slog.Debug("Stream client disconnected", "client", client.id)
}

func (h *Hub) writePump(conn *websocket.Conn, c *streamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				// Unblock the read loop.
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
