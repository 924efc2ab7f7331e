package debounce

import (
	"time"

	"github.com/rs/zerolog"
)

// Config encapsulates all tunables for Engine construction.
type Config struct {
	DefaultWait time.Duration
	// Clock defaults to RealClock.
	Clock Clock
	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
	// Metrics may be nil.
	Metrics *Metrics
}

// New constructs an Engine from normalized options.
func New(opts Options) *Engine {
	return NewWithConfig(Config{DefaultWait: opts.DefaultWait})
}

// NewWithConfig constructs an Engine, applying defaults for unset fields.
func NewWithConfig(cfg Config) *Engine {
	e := &Engine{
		wait:    cfg.DefaultWait,
		clock:   cfg.Clock,
		events:  make(map[string]*pendingEvent),
		metrics: cfg.Metrics,
	}
	if e.wait <= 0 {
		e.wait = DefaultWait
	}
	if e.clock == nil {
		e.clock = RealClock()
	}
	if cfg.Logger != nil {
		e.log = cfg.Logger.With().Str("component", "debounce").Logger()
	} else {
		e.log = zerolog.Nop()
	}
	e.dispatcher = NewDispatcher(e.log, e.metrics)
	return e
}
