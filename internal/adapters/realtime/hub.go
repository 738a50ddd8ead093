// Package realtime pushes feed events to browsers over websockets.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultSendBuffer = 16
	writeTimeout      = 5 * time.Second
)

// Client is a single live feed subscriber.
type Client struct {
	ID   string
	Send chan []byte
}

// WritePump forwards queued events to conn. It returns nil once the hub
// drops the client and an error when ctx ends or a write fails.
func (c *Client) WritePump(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-c.Send:
			if !ok {
				return nil
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

// Hub fans cheer events out to every connected client.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool

	buffer  int
	origins []string
	log     *logrus.Entry
}

type HubOption func(*Hub)

func WithSendBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithOriginPatterns allows cross-origin browsers to subscribe.
func WithOriginPatterns(patterns ...string) HubOption {
	return func(h *Hub) { h.origins = patterns }
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients: make(map[string]*Client),
		buffer:  DefaultSendBuffer,
		log:     logrus.WithField("component", "feed_hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds a client. On a closed hub the returned client is already drained.
func (h *Hub) Register(id string) *Client {
	c := &Client{ID: id, Send: make(chan []byte, h.buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(c.Send)
		return c
	}
	if old, ok := h.clients[id]; ok {
		close(old.Send)
	}
	h.clients[id] = c
	return c
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[c.ID]; ok && current == c {
		close(c.Send)
		delete(h.clients, c.ID)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish never blocks: slow clients miss the event.
func (h *Hub) Publish(event domain.CheerEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal feed event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.Send <- data:
		default:
			h.log.WithField("client_id", c.ID).Debug("send buffer full, dropping event")
		}
	}
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.clients {
		close(c.Send)
		delete(h.clients, id)
	}
}

// Serve pumps events to conn until either side goes away.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn) {
	c := h.Register(uuid.NewString())
	defer h.Unregister(c)

	ctx = conn.CloseRead(ctx)
	if err := c.WritePump(ctx, conn); err != nil {
		h.log.WithError(err).WithField("client_id", c.ID).Debug("live feed client gone")
		conn.CloseNow()
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	h.Serve(r.Context(), conn)
}
