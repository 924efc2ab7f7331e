package debounce

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// pendingEvent is the engine's per-key state. It lives until Clear or Flush.
type pendingEvent struct {
	key     string
	payload any

	// timer is the single outstanding timer for the key, if any. seq tags
	// it so a callback that lost the race with Stop can recognize itself
	// as stale.
	timer Timer
	seq   uint64
	due   time.Time

	lastEmit time.Time
	emitted  bool
}

// Engine debounces submissions per key.
type Engine struct {
	mu     sync.Mutex
	wait   time.Duration
	clock  Clock
	events map[string]*pendingEvent
	seq    uint64

	// queue holds emissions awaiting delivery in the order they were made.
	// At most one goroutine drains it at a time.
	queue      []Emission
	delivering bool

	dispatcher *Dispatcher
	log        zerolog.Logger
	metrics    *Metrics
}

// PendingInfo describes one live key for status reporting.
type PendingInfo struct {
	Key       string
	Scheduled bool
	Due       time.Time
	LastEmit  time.Time
}

// DefaultWait returns the wait applied when a submission does not carry one.
func (e *Engine) DefaultWait() time.Duration { return e.wait }

// Dispatcher exposes subscription management.
func (e *Engine) Dispatcher() *Dispatcher { return e.dispatcher }

// Subscribe is shorthand for e.Dispatcher().Subscribe.
func (e *Engine) Subscribe(key string, fn Listener) Subscription {
	return e.dispatcher.Subscribe(key, fn)
}

// SubscribeAll is shorthand for e.Dispatcher().SubscribeAll.
func (e *Engine) SubscribeAll(fn Listener) Subscription {
	return e.dispatcher.SubscribeAll(fn)
}

// Unsubscribe is shorthand for e.Dispatcher().Unsubscribe.
func (e *Engine) Unsubscribe(s Subscription) bool {
	return e.dispatcher.Unsubscribe(s)
}

// Submit records payload for key using the default wait.
func (e *Engine) Submit(key string, payload any) {
	e.SubmitWait(key, 0, payload)
}

// SubmitWait records payload as the latest value for key. The first
// submission for a key emits immediately. Later ones emit once at least wait
// has passed since the previous emission; submissions arriving while a timer
// is scheduled only replace the payload. A zero wait means the default wait;
// a negative wait is used as given and so never delays past the last emission.
func (e *Engine) SubmitWait(key string, wait time.Duration, payload any) {
	e.submit(key, wait, payload)
	e.deliver()
}

func (e *Engine) submit(key string, wait time.Duration, payload any) {
	if wait == 0 {
		wait = e.wait
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	ev, ok := e.events[key]
	if !ok {
		ev = &pendingEvent{key: key}
		e.events[key] = ev
		e.metrics.setPending(len(e.events))
	}
	ev.payload = payload
	e.metrics.submitted()

	if ev.timer != nil {
		e.metrics.coalescedSubmit()
		e.log.Debug().Str("key", key).Time("due", ev.due).Msg("coalesced")
		return
	}

	var delay time.Duration
	if ev.emitted {
		delay = wait - e.clock.Now().Sub(ev.lastEmit)
	}
	if delay <= 0 {
		e.fireLocked(ev, ReasonImmediate)
		return
	}
	e.scheduleLocked(ev, delay)
}

func (e *Engine) scheduleLocked(ev *pendingEvent, delay time.Duration) {
	e.seq++
	seq, key := e.seq, ev.key
	ev.seq = seq
	ev.due = e.clock.Now().Add(delay)
	ev.timer = e.clock.AfterFunc(delay, func() { e.expire(key, seq) })
	e.log.Debug().Str("key", key).Dur("delay", delay).Msg("scheduled")
}

// expire runs on the timer goroutine.
func (e *Engine) expire(key string, seq uint64) {
	e.mu.Lock()
	ev, ok := e.events[key]
	if !ok || ev.timer == nil || ev.seq != seq {
		e.mu.Unlock()
		e.log.Debug().Str("key", key).Msg("stale timer ignored")
		return
	}
	e.fireLocked(ev, ReasonTimer)
	e.mu.Unlock()
	e.deliver()
}

// fireLocked cancels the key's timer, stamps the emission time and queues
// the emission. The caller runs deliver after releasing the lock.
func (e *Engine) fireLocked(ev *pendingEvent, reason Reason) {
	if ev.timer != nil {
		ev.timer.Stop()
		ev.timer = nil
	}
	ev.seq = 0
	ev.due = time.Time{}

	now := e.clock.Now()
	if ev.emitted && now.Before(ev.lastEmit) {
		now = ev.lastEmit
	}
	ev.lastEmit = now
	ev.emitted = true

	e.metrics.emitted(reason)
	e.log.Debug().Str("key", ev.key).Str("reason", string(reason)).Msg("emit")
	e.queue = append(e.queue, Emission{Key: ev.key, Payload: ev.payload, At: now, Reason: reason})
}

// deliver hands queued emissions to the dispatcher in queue order. If
// another goroutine, or an outer call on this one, is already delivering,
// it returns at once and that caller picks up the new emissions.
func (e *Engine) deliver() {
	e.mu.Lock()
	if e.delivering {
		e.mu.Unlock()
		return
	}
	e.delivering = true
	for len(e.queue) > 0 {
		em := e.queue[0]
		e.queue[0] = Emission{}
		e.queue = e.queue[1:]
		e.mu.Unlock()
		e.dispatcher.Notify(em)
		e.mu.Lock()
	}
	e.queue = nil
	e.delivering = false
	e.mu.Unlock()
}

// Trigger emits key's current payload now, overriding any remaining wait,
// and records the emission as if its timer had expired. It reports false,
// without notifying anyone, when the key is unknown. The key stays live.
func (e *Engine) Trigger(key string) bool {
	e.mu.Lock()
	ev, ok := e.events[key]
	if !ok {
		e.mu.Unlock()
		return false
	}
	e.fireLocked(ev, ReasonTrigger)
	e.mu.Unlock()
	e.deliver()
	return true
}

// Clear cancels every timer and drops all keys without emitting. It returns
// the number of keys dropped.
func (e *Engine) Clear() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.events)
	for _, ev := range e.events {
		if ev.timer != nil {
			ev.timer.Stop()
			ev.timer = nil
		}
	}
	e.events = make(map[string]*pendingEvent)
	e.metrics.setPending(0)
	e.log.Info().Int("keys", n).Msg("cleared")
	return n
}

// Flush emits every key once with its current payload, then drops all keys.
// Order across keys is unspecified. It returns the number of emissions.
func (e *Engine) Flush() int {
	e.mu.Lock()
	n := len(e.events)
	for _, ev := range e.events {
		e.fireLocked(ev, ReasonFlush)
	}
	e.events = make(map[string]*pendingEvent)
	e.metrics.setPending(0)
	e.mu.Unlock()

	e.log.Info().Int("keys", n).Msg("flushed")
	e.deliver()
	return n
}

// Len returns the number of live keys.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}

// Pending returns the live keys, sorted.
func (e *Engine) Pending() []string {
	e.mu.Lock()
	keys := make([]string, 0, len(e.events))
	for k := range e.events {
		keys = append(keys, k)
	}
	e.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// Snapshot reports per-key state, sorted by key.
func (e *Engine) Snapshot() []PendingInfo {
	e.mu.Lock()
	out := make([]PendingInfo, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, PendingInfo{
			Key:       ev.key,
			Scheduled: ev.timer != nil,
			Due:       ev.due,
			LastEmit:  ev.lastEmit,
		})
	}
	e.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
