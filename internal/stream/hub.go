// Package stream fans engine emissions out to long-lived consumers over
// buffered channels.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"debounced/internal/debounce"
	"debounced/pkg/types"
)

const defaultBuffer = 16

var droppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "debounced",
	Subsystem: "stream",
	Name:      "dropped_total",
	Help:      "Emissions dropped because a stream client fell behind",
})

func init() {
	prometheus.MustRegister(droppedTotal)
}

// Hub multiplexes the engine's data channel to any number of clients.
type Hub struct {
	disp *debounce.Dispatcher
	sub  debounce.Subscription
	log  zerolog.Logger

	mu      sync.Mutex
	buffer  int
	clients map[*Client]struct{}
	closed  bool
}

// Client receives emissions on C until it is closed.
type Client struct {
	C <-chan debounce.Emission

	ch   chan debounce.Emission
	key  string
	hub  *Hub
	once sync.Once
	// stop detaches the ctx watcher; guarded by hub.mu.
	stop func() bool
}

// NewHub subscribes to d's data channel. buffer <= 0 uses the default.
func NewHub(d *debounce.Dispatcher, buffer int, log zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	h := &Hub{
		disp:    d,
		log:     log.With().Str("component", "stream").Logger(),
		buffer:  buffer,
		clients: make(map[*Client]struct{}),
	}
	h.sub = d.SubscribeAll(h.broadcast)
	return h
}

// Subscribe registers a client. An empty key receives every emission. The
// client is closed when ctx is done or Close is called.
func (h *Hub) Subscribe(ctx context.Context, key string) *Client {
	ch := make(chan debounce.Emission, h.buffer)
	c := &Client{C: ch, ch: ch, key: key, hub: h}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return c
	}
	h.clients[c] = struct{}{}
	c.stop = context.AfterFunc(ctx, c.Close)
	h.mu.Unlock()
	return c
}

// Close unregisters the client and closes C.
func (c *Client) Close() {
	c.once.Do(func() {
		h := c.hub
		h.mu.Lock()
		if c.stop != nil {
			c.stop()
		}
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			close(c.ch)
		}
		h.mu.Unlock()
	})
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close detaches from the engine and closes every client.
func (h *Hub) Close() {
	h.disp.Unsubscribe(h.sub)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		c.stop()
		delete(h.clients, c)
		close(c.ch)
	}
}

func (h *Hub) broadcast(em debounce.Emission) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.key != "" && c.key != em.Key {
			continue
		}
		select {
		case c.ch <- em:
		default:
			droppedTotal.Inc()
			h.log.Warn().Str("key", em.Key).Msg("dropping emission (client backlog)")
		}
	}
}

// Encode converts an emission to its wire form. json.RawMessage payloads are
// passed through; anything else is marshalled.
func Encode(em debounce.Emission) (types.EmissionEvent, error) {
	ev := types.EmissionEvent{
		Key:         em.Key,
		Reason:      string(em.Reason),
		EmittedAtMS: em.At.UnixMilli(),
	}
	switch p := em.Payload.(type) {
	case nil:
		ev.Payload = json.RawMessage("null")
	case json.RawMessage:
		if len(p) == 0 {
			ev.Payload = json.RawMessage("null")
		} else {
			ev.Payload = p
		}
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return ev, fmt.Errorf("encode payload for %s: %w", em.Key, err)
		}
		ev.Payload = b
	}
	return ev, nil
}
