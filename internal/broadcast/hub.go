package broadcast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/enrollhq/leadpulse/internal/domain"
	"github.com/enrollhq/leadpulse/internal/logging"
	"github.com/enrollhq/leadpulse/internal/metrics"
)

// Hub is the connection registry plus broadcast and targeted dispatchers.
// One instance is constructed at process start and injected into every route
// handler that registers connections or fires events.
//
// The registry is the only shared mutable state in this package. All access
// goes through the mutex; delivery itself happens outside the lock against a
// snapshot, so a registration racing a broadcast can never corrupt iteration.
type Hub struct {
	mu    sync.Mutex
	conns map[*Connection]struct{}

	clock             clockwork.Clock
	heartbeatInterval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	stopped  chan struct{}
}

var _ domain.Broadcaster = (*Hub)(nil)

// NewHub creates a hub and starts its heartbeat ticker. The ticker runs for
// the life of the process; Stop exists for tests and graceful shutdown.
func NewHub(clock clockwork.Clock, heartbeatInterval time.Duration) *Hub {
	h := &Hub{
		conns:             make(map[*Connection]struct{}),
		clock:             clock,
		heartbeatInterval: heartbeatInterval,
		stop:              make(chan struct{}),
		stopped:           make(chan struct{}),
	}
	go h.run()
	return h
}

// Register adds a new connection for the given subscriber. It never fails:
// authorization has already happened by the time a connection reaches the
// registry. Multiple simultaneous connections per subscriber are legal and
// independent (one admin, two browser tabs).
func (h *Hub) Register(identity domain.Identity) *Connection {
	c := newConnection(identity)

	h.mu.Lock()
	h.conns[c] = struct{}{}
	total := len(h.conns)
	h.mu.Unlock()

	metrics.HubConnectedClients.Set(float64(total))
	logging.WithConnection(c.id.String()).Debug("Connection registered",
		"admin_id", identity.ID,
		"total_clients", total,
	)
	return c
}

// Unregister removes a connection and marks it closed. Idempotent: every
// path that can end a connection (client disconnect, write failure, slow
// client eviction, shutdown) funnels through here, so double bookkeeping is
// impossible.
func (h *Hub) Unregister(c *Connection) {
	h.mu.Lock()
	_, present := h.conns[c]
	delete(h.conns, c)
	total := len(h.conns)
	h.mu.Unlock()

	c.markClosed()

	if present {
		metrics.HubConnectedClients.Set(float64(total))
		logging.WithConnection(c.id.String()).Debug("Connection unregistered",
			"admin_id", c.identity.ID,
			"remaining_clients", total,
		)
	}
}

// Count returns the current registry size.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// snapshot copies the current membership so delivery iterates without
// holding the lock while handler goroutines register and unregister.
func (h *Hub) snapshot() []*Connection {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := make([]*Connection, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	return conns
}

// Broadcast fans an event out to every registered connection. One
// subscriber's dead socket never aborts delivery to the others; a connection
// whose buffer is full is evicted instead of awaited.
func (h *Hub) Broadcast(event domain.Event) {
	frame, err := encodeFrame(event)
	if err != nil {
		slog.Error("Failed to encode broadcast event", "event", event.Name(), "error", err)
		return
	}

	metrics.HubBroadcastsTotal.WithLabelValues(event.Name()).Inc()

	conns := h.snapshot()
	for _, c := range conns {
		h.deliver(c, frame)
	}
	slog.Debug("Broadcast delivered", "event", event.Name(), "clients", len(conns))
}

// SendTo delivers an event to one subscriber's connection. A subscriber with
// no live connection is a silent no-op: this channel is best effort and
// callers must not depend on delivery. When a subscriber has several tabs
// open only the first match receives the event.
func (h *Hub) SendTo(adminID int64, event domain.Event) {
	var target *Connection
	for _, c := range h.snapshot() {
		if c.identity.ID == adminID {
			target = c
			break
		}
	}
	if target == nil {
		return
	}

	frame, err := encodeFrame(event)
	if err != nil {
		slog.Error("Failed to encode targeted event", "event", event.Name(), "error", err)
		return
	}
	h.deliver(target, frame)
}

// Greet emits the handshake event on a freshly registered connection so the
// client can distinguish "stream open" from "stream pending".
func (h *Hub) Greet(c *Connection) {
	frame, err := encodeFrame(domain.ConnectedEvent{Message: "stream established"})
	if err != nil {
		slog.Error("Failed to encode handshake event", "error", err)
		return
	}
	h.deliver(c, frame)
}

// deliver enqueues a frame without blocking. A full buffer means the client
// has stalled or its socket is dead; the connection is evicted so it cannot
// accumulate in the registry.
func (h *Hub) deliver(c *Connection, frame []byte) {
	select {
	case c.send <- frame:
	default:
		metrics.HubFramesDroppedTotal.Inc()
		metrics.HubEvictionsTotal.Inc()
		logging.WithConnection(c.id.String()).Warn("Evicting stalled connection",
			"admin_id", c.identity.ID,
		)
		h.Unregister(c)
	}
}

// Stop terminates the heartbeat ticker and closes every connection. Blocks
// until the heartbeat goroutine has exited.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
	<-h.stopped

	for _, c := range h.snapshot() {
		h.Unregister(c)
	}
	slog.Info("Broadcast hub stopped")
}

// run is the heartbeat loop. Each tick writes a keep-alive comment frame to
// every registered connection; an empty registry makes the tick a no-op.
func (h *Hub) run() {
	defer close(h.stopped)

	ticker := h.clock.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			conns := h.snapshot()
			for _, c := range conns {
				h.deliver(c, heartbeatFrame)
			}
			if len(conns) > 0 {
				metrics.HubHeartbeatsTotal.Inc()
			}
		case <-h.stop:
			return
		}
	}
}
