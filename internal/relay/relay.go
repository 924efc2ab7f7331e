// Package relay forwards engine emissions to a Redis pub/sub channel.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"debounced/internal/debounce"
	"debounced/internal/stream"
	"debounced/pkg/types"
)

const (
	DefaultChannel = "debounced-emissions"
	defaultQueue   = 256
	defaultTimeout = 2 * time.Second
)

var publishedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "debounced",
		Subsystem: "relay",
		Name:      "published_total",
		Help:      "Emissions handed to Redis, by result",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(publishedTotal)
}

// Options configure the relay.
type Options struct {
	Client  redis.UniversalClient
	Channel string
	// Queue bounds the emissions waiting to be published.
	Queue int
	// Timeout bounds each PUBLISH call.
	Timeout time.Duration
	Logger  *zerolog.Logger
}

// Relay publishes every emission of a dispatcher's data channel to Redis.
// Publishing happens on a worker goroutine so listeners never wait on the
// network; when the queue is full emissions are dropped.
type Relay struct {
	client  redis.UniversalClient
	ch      string
	timeout time.Duration
	log     zerolog.Logger

	disp *debounce.Dispatcher
	sub  debounce.Subscription

	mu     sync.RWMutex
	queue  chan types.EmissionEvent
	closed bool
	wg     sync.WaitGroup
}

// New subscribes a relay to d and starts its worker.
func New(d *debounce.Dispatcher, opts Options) (*Relay, error) {
	if opts.Client == nil {
		return nil, errors.New("relay: redis client is required")
	}
	r := &Relay{
		client:  opts.Client,
		ch:      opts.Channel,
		timeout: opts.Timeout,
		disp:    d,
	}
	if r.ch == "" {
		r.ch = DefaultChannel
	}
	if r.timeout <= 0 {
		r.timeout = defaultTimeout
	}
	q := opts.Queue
	if q <= 0 {
		q = defaultQueue
	}
	r.queue = make(chan types.EmissionEvent, q)
	if opts.Logger != nil {
		r.log = opts.Logger.With().Str("component", "relay").Str("channel", r.ch).Logger()
	} else {
		r.log = zerolog.Nop()
	}

	r.wg.Add(1)
	go r.run()
	r.sub = d.SubscribeAll(r.enqueue)
	return r, nil
}

// Channel returns the Redis channel emissions are published to.
func (r *Relay) Channel() string { return r.ch }

func (r *Relay) enqueue(em debounce.Emission) {
	ev, err := stream.Encode(em)
	if err != nil {
		publishedTotal.WithLabelValues("encode_error").Inc()
		r.log.Error().Err(err).Str("key", em.Key).Msg("encode emission")
		return
	}
	ev.ID = uuid.NewString()

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- ev:
	default:
		publishedTotal.WithLabelValues("dropped").Inc()
		r.log.Warn().Str("key", ev.Key).Msg("dropping emission (relay backlog)")
	}
}

func (r *Relay) run() {
	defer r.wg.Done()
	for ev := range r.queue {
		r.publish(ev)
	}
}

func (r *Relay) publish(ev types.EmissionEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		publishedTotal.WithLabelValues("encode_error").Inc()
		r.log.Error().Err(err).Str("key", ev.Key).Msg("marshal emission")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.Publish(ctx, r.ch, payload).Err(); err != nil {
		publishedTotal.WithLabelValues("error").Inc()
		r.log.Error().Err(err).Str("key", ev.Key).Msg("redis publish")
		return
	}
	publishedTotal.WithLabelValues("ok").Inc()
}

// Close detaches from the dispatcher and waits until queued emissions are
// published. It does not close the Redis client.
func (r *Relay) Close() error {
	r.disp.Unsubscribe(r.sub)
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	r.wg.Wait()
	return nil
}
