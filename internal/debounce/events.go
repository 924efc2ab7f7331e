package debounce

import "time"

// DataChannel is the reserved channel that receives every emission regardless
// of key.
const DataChannel = "data"

// Reason tells why an emission happened.
type Reason string

const (
	// ReasonImmediate: the submit found the key outside its wait window.
	ReasonImmediate Reason = "immediate"
	// ReasonTimer: a scheduled timer expired.
	ReasonTimer Reason = "timer"
	// ReasonTrigger: Trigger forced the emission early.
	ReasonTrigger Reason = "trigger"
	// ReasonFlush: Flush drained the key.
	ReasonFlush Reason = "flush"
)

// Emission is what listeners receive when a key fires.
type Emission struct {
	Key     string
	Payload any
	At      time.Time
	Reason  Reason
}

// Listener receives emissions. Listeners must not block for long: they run
// inline with the operation that produced the emission.
type Listener func(Emission)
