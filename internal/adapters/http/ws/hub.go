// Package ws pushes newly ranked leaderboard entries to websocket clients.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/okian/clockery/internal/domain/types"
	"github.com/okian/clockery/pkg/logger"
	"github.com/okian/clockery/pkg/metrics"
)

const broadcastBuffer = 256

// Message is the frame sent to clients.
type Message struct {
	Type  string      `json:"type"`
	Entry types.Entry `json:"entry"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*client]struct{}
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
	upgrader   websocket.Upgrader
	count      atomic.Int64
	logger     logger.Logger
}

// NewHub initializes a new Hub. Call Run before serving clients.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.Get().Named("ws-hub"),
	}
}

// Run handles client registration and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for c := range h.clients {
			close(c.send)
			delete(h.clients, c)
		}
		h.setCount(0)
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info(ctx, "hub shutting down")
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.setCount(len(h.clients))
			h.logger.Debug(ctx, "client connected", logger.Int("clients", len(h.clients)))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.setCount(len(h.clients))
				h.logger.Debug(ctx, "client disconnected", logger.Int("clients", len(h.clients)))
			}
		case msg := <-h.broadcast:
			metrics.RecordWSBroadcast()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow client; drop it rather than stall everyone.
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.setCount(len(h.clients))
		}
	}
}

// Clients reports how many connections are registered.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

func (h *Hub) setCount(n int) {
	h.count.Store(int64(n))
	metrics.UpdateWSClients(n)
}

// Publish queues e for every connected client. It never blocks: when the
// broadcast buffer is full the entry is dropped.
func (h *Hub) Publish(ctx context.Context, e types.Entry) {
	payload, err := json.Marshal(Message{Type: "entry", Entry: e})
	if err != nil {
		h.logger.Error(ctx, "encode entry", logger.Error(err))
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn(ctx, "broadcast buffer full, dropping entry", logger.String("id", e.ID))
	}
}

// ServeHTTP upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	c := newClient(h, conn)
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	case <-r.Context().Done():
		_ = conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}
