package debounce

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Subscription identifies a registered listener. The zero value is not a
// valid subscription.
type Subscription struct {
	key string
	all bool
	id  uint64
}

// Key returns the key the subscription listens on, or DataChannel for
// subscriptions made with SubscribeAll.
func (s Subscription) Key() string {
	if s.all {
		return DataChannel
	}
	return s.key
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// Dispatcher delivers emissions to key listeners and to "data" listeners.
type Dispatcher struct {
	mu     sync.RWMutex
	nextID uint64
	byKey  map[string][]listenerEntry
	all    []listenerEntry

	log     zerolog.Logger
	metrics *Metrics
}

// NewDispatcher returns an empty dispatcher. A nil metrics is allowed.
func NewDispatcher(log zerolog.Logger, metrics *Metrics) *Dispatcher {
	return &Dispatcher{
		byKey:   make(map[string][]listenerEntry),
		log:     log,
		metrics: metrics,
	}
}

// Subscribe registers fn for emissions of key.
func (d *Dispatcher) Subscribe(key string, fn Listener) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.byKey[key] = append(d.byKey[key], listenerEntry{id: d.nextID, fn: fn})
	return Subscription{key: key, id: d.nextID}
}

// SubscribeAll registers fn on the data channel: it receives every emission.
func (d *Dispatcher) SubscribeAll(fn Listener) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.all = append(d.all, listenerEntry{id: d.nextID, fn: fn})
	return Subscription{all: true, id: d.nextID}
}

// Unsubscribe removes a listener. It reports whether the listener was found.
func (d *Dispatcher) Unsubscribe(s Subscription) bool {
	if s.id == 0 {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if s.all {
		var ok bool
		d.all, ok = removeEntry(d.all, s.id)
		return ok
	}
	entries, ok := removeEntry(d.byKey[s.key], s.id)
	if len(entries) == 0 {
		delete(d.byKey, s.key)
	} else {
		d.byKey[s.key] = entries
	}
	return ok
}

// Listeners returns how many listeners are registered for key. Pass
// DataChannel to count data listeners.
func (d *Dispatcher) Listeners(key string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if key == DataChannel {
		return len(d.all)
	}
	return len(d.byKey[key])
}

// Notify delivers em to the listeners of em.Key, then to the data listeners.
func (d *Dispatcher) Notify(em Emission) {
	d.mu.RLock()
	keyed := append([]listenerEntry(nil), d.byKey[em.Key]...)
	all := append([]listenerEntry(nil), d.all...)
	d.mu.RUnlock()

	for _, l := range keyed {
		d.call(l, em)
	}
	for _, l := range all {
		d.call(l, em)
	}
}

func (d *Dispatcher) call(l listenerEntry, em Emission) {
	defer func() {
		if r := recover(); r != nil {
			d.metrics.listenerPanicked()
			d.log.Error().
				Str("key", em.Key).
				Uint64("listener", l.id).
				Str("panic", fmt.Sprint(r)).
				Msg("listener panicked")
		}
	}()
	l.fn(em)
}

func removeEntry(entries []listenerEntry, id uint64) ([]listenerEntry, bool) {
	for i, e := range entries {
		if e.id == id {
			out := make([]listenerEntry, 0, len(entries)-1)
			out = append(out, entries[:i]...)
			return append(out, entries[i+1:]...), true
		}
	}
	return entries, false
}
