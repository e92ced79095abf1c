package hub

import (
	"context"
	"sync"
	"sync/atomic"

	"admin-notifier/internal/model"
	"admin-notifier/internal/render"

	"go.uber.org/zap"
)

const DefaultClientBuffer = 16

// Hub раздаёт тосты всем подключённым вкладкам админки (SSE).
// Медленный клиент не тормозит остальных: если его буфер полон, тост для него теряется.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
	buffer  int
	log     *zap.Logger
}

type Client struct {
	C       chan model.Toast
	dropped atomic.Int64
}

func (c *Client) Dropped() int64 { return c.dropped.Load() }

func New(buffer int, log *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{clients: make(map[*Client]struct{}), buffer: buffer, log: log}
}

func (h *Hub) Register() *Client {
	c := &Client{C: make(chan model.Toast, h.buffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(c.C)
		return c
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("admin stream connected", zap.Int("clients", n))
	return c
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.C)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("admin stream disconnected", zap.Int("clients", n))
}

// Close закрывает каналы всех клиентов, после чего SSE-стримы завершаются.
// Новые клиенты после Close получают сразу закрытый канал.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.C)
	}
	h.log.Info("admin streams closed")
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Show реализует render.ToastSink. Без подключённых клиентов возвращает render.ErrNoAudience.
func (h *Hub) Show(_ context.Context, t model.Toast) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return render.ErrNoAudience
	}
	for c := range h.clients {
		select {
		case c.C <- t:
		default:
			c.dropped.Add(1)
			h.log.Warn("admin stream buffer full, toast dropped", zap.String("toast_id", t.ID))
		}
	}
	return nil
}
