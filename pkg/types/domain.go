package types

import "encoding/json"

// EmissionEvent is the wire form of one debounced emission, used by the
// /events stream and the Redis relay.
type EmissionEvent struct {
	// Unique message id. Set by the relay; empty on the HTTP stream.
	// example: 3f1c0f6e-4d7b-4a3e-9a55-0d4f5b0f2a11
	ID string `json:"id,omitempty" example:"3f1c0f6e-4d7b-4a3e-9a55-0d4f5b0f2a11"`
	// Key that fired.
	// example: user:42:profile
	Key string `json:"key" example:"user:42:profile"`
	// Latest payload submitted for the key, verbatim.
	Payload json.RawMessage `json:"payload" swaggertype:"object"`
	// Why the emission happened: immediate, timer, trigger or flush.
	// example: timer
	Reason string `json:"reason" example:"timer"`
	// Emission time in unix milliseconds.
	// example: 1700000000123
	EmittedAtMS int64 `json:"emitted_at_ms" example:"1700000000123"`
}

// PendingKey describes one key held by the engine.
type PendingKey struct {
	// example: user:42:profile
	Key string `json:"key" example:"user:42:profile"`
	// Whether a timer is scheduled for the key.
	// example: true
	Scheduled bool `json:"scheduled" example:"true"`
	// Milliseconds until the scheduled timer fires; 0 when not scheduled.
	// example: 420
	DueInMS int64 `json:"due_in_ms,omitempty" example:"420"`
	// Last emission in unix milliseconds; 0 if the key never emitted.
	// example: 1700000000123
	LastEmitMS int64 `json:"last_emit_ms,omitempty" example:"1700000000123"`
}
