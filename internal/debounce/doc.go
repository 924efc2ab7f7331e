// Package debounce collapses bursts of keyed submissions into spaced
// emissions that always carry the latest payload for the key.
//
// Files by concern:
//
//   - engine.go: Engine type, Submit/SubmitWait, Trigger, Clear, Flush.
//   - config.go: Config and package defaults; NewWithConfig applies defaults.
//   - options.go: Options and OptionsFrom (bare number or options table).
//   - clock.go: timer service abstraction (Clock, Timer) and the real clock.
//   - dispatcher.go: key and "data" channel subscriptions.
//   - events.go: Emission, Reason, Listener.
//   - recorder.go: in-memory emission recorder.
//   - metrics.go: Prometheus collectors.
//
// An Engine is safe for concurrent use. Emissions are queued under the
// engine lock and delivered one at a time, in the order they were made, by
// whichever goroutine finds no delivery in progress. Listeners run without
// the engine lock held, so they may call back into the engine; emissions
// they cause are delivered after they return.
package debounce
