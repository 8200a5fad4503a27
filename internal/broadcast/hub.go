package broadcast

import (
	"sync"

	"github.com/DevanshVerma21/SafeNow/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Hub реестр подключенных клиентов этого инстанса
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

func NewHub(logger *logrus.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
		metrics: m,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.Connections(n)
	h.logger.WithFields(logrus.Fields{"client_id": c.ID, "user_id": c.UserID, "clients": n}).Info("Client registered")
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	c.closeSend()
	h.metrics.Connections(n)
	h.logger.WithFields(logrus.Fields{"client_id": c.ID, "clients": n}).Info("Client unregistered")
}

// Deliver ставит payload в очередь каждому клиенту без блокировки. Клиенты
// с переполненным буфером отключаются, остальные получают сообщение.
func (h *Hub) Deliver(payload []byte) int {
	h.mu.RLock()
	var (
		delivered int
		stale     []*Client
	)
	for c := range h.clients {
		if c.enqueue(payload) {
			delivered++
		} else {
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		h.logger.WithField("client_id", c.ID).Warn("Client send buffer full, disconnecting")
		h.Unregister(c)
	}

	h.metrics.Delivered(delivered)
	h.metrics.Pruned(len(stale))
	return delivered
}

// Count число подключенных клиентов
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close отключает всех клиентов при остановке процесса
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.closeSend()
	}
	h.metrics.Connections(0)
}
