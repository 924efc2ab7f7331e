package types

import "encoding/json"

// SubmitRequest is the body of POST /submit.
type SubmitRequest struct {
	// Required debounce key.
	// example: user:42:profile
	Key string `json:"key" example:"user:42:profile"`
	// Optional wait in milliseconds; 0 or omitted uses the server default.
	// example: 500
	WaitMS int64 `json:"wait_ms,omitempty" example:"500"`
	// Arbitrary JSON payload. The latest one wins.
	Payload json.RawMessage `json:"payload,omitempty" swaggertype:"object"`
}

// SubmitResponse acknowledges a submission.
type SubmitResponse struct {
	// example: user:42:profile
	Key string `json:"key" example:"user:42:profile"`
	// Number of keys held by the engine after the submission.
	// example: 3
	Pending int `json:"pending" example:"3"`
}

// TriggerResponse is returned by POST /trigger/{key}.
type TriggerResponse struct {
	// example: user:42:profile
	Key string `json:"key" example:"user:42:profile"`
	// False when the key was unknown and nothing was emitted.
	// example: true
	Triggered bool `json:"triggered" example:"true"`
}

// FlushResponse is returned by POST /flush.
type FlushResponse struct {
	// Number of emissions produced.
	// example: 3
	Flushed int `json:"flushed" example:"3"`
}

// ClearResponse is returned by POST /clear.
type ClearResponse struct {
	// Number of keys dropped without emitting.
	// example: 3
	Cleared int `json:"cleared" example:"3"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Keys currently held by the engine.
	Pending []PendingKey `json:"pending"`
	// Default wait in milliseconds.
	// example: 30000
	DefaultWaitMS int64 `json:"default_wait_ms" example:"30000"`
	// Connected /events clients.
	// example: 1
	StreamClients int `json:"stream_clients" example:"1"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
