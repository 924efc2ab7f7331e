package httpapi

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"debounced/internal/debounce"
	"debounced/internal/stream"
	"debounced/pkg/types"
)

// EngineService adapts a debounce engine and its stream hub to Service.
type EngineService struct {
	engine   *debounce.Engine
	hub      *stream.Hub
	started  time.Time
	draining atomic.Bool
}

func NewEngineService(e *debounce.Engine, h *stream.Hub) *EngineService {
	return &EngineService{engine: e, hub: h, started: time.Now()}
}

// SetDraining flips readiness off during shutdown.
func (s *EngineService) SetDraining(v bool) { s.draining.Store(v) }

func (s *EngineService) Ready() bool { return !s.draining.Load() }

func (s *EngineService) Submit(key string, wait time.Duration, payload json.RawMessage) int {
	s.engine.SubmitWait(key, wait, payload)
	return s.engine.Len()
}

func (s *EngineService) Trigger(key string) bool { return s.engine.Trigger(key) }

func (s *EngineService) Flush() int { return s.engine.Flush() }

func (s *EngineService) Clear() int { return s.engine.Clear() }

func (s *EngineService) Stream(ctx context.Context, key string) (<-chan debounce.Emission, func()) {
	c := s.hub.Subscribe(ctx, key)
	return c.C, c.Close
}

func (s *EngineService) Status() types.StatusResponse {
	now := time.Now()
	snap := s.engine.Snapshot()
	pending := make([]types.PendingKey, 0, len(snap))
	for _, p := range snap {
		pk := types.PendingKey{Key: p.Key, Scheduled: p.Scheduled}
		if p.Scheduled {
			if d := p.Due.Sub(now); d > 0 {
				pk.DueInMS = d.Milliseconds()
			}
		}
		if !p.LastEmit.IsZero() {
			pk.LastEmitMS = p.LastEmit.UnixMilli()
		}
		pending = append(pending, pk)
	}
	return types.StatusResponse{
		Pending:        pending,
		DefaultWaitMS:  s.engine.DefaultWait().Milliseconds(),
		StreamClients:  s.hub.Clients(),
		UptimeSeconds:  int64(now.Sub(s.started).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
}
