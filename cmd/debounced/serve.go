package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"debounced/internal/config"
	"debounced/internal/debounce"
	"debounced/internal/httpapi"
	"debounced/internal/relay"
	"debounced/internal/stream"
)

const shutdownTimeout = 5 * time.Second

type daemon struct {
	engine *debounce.Engine
	hub    *stream.Hub
	relay  *relay.Relay
	rdb    *redis.Client
	svc    *httpapi.EngineService
	srv    *http.Server
	log    zerolog.Logger
}

func newDaemon(cfg config.Config, logger zerolog.Logger, reg prometheus.Registerer) (*daemon, error) {
	opts, err := cfg.DebounceOptions()
	if err != nil {
		return nil, err
	}
	d := &daemon{log: logger}
	d.engine = debounce.NewWithConfig(debounce.Config{
		DefaultWait: opts.DefaultWait,
		Logger:      &logger,
		Metrics:     debounce.NewMetrics(reg),
	})
	d.hub = stream.NewHub(d.engine.Dispatcher(), cfg.StreamBuffer, logger)

	if cfg.RedisAddr != "" {
		d.rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		d.relay, err = relay.New(d.engine.Dispatcher(), relay.Options{
			Client:  d.rdb,
			Channel: cfg.RedisChannel,
			Logger:  &logger,
		})
		if err != nil {
			d.hub.Close()
			_ = d.rdb.Close()
			return nil, err
		}
	}

	httpapi.SetLogger(logger)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	if len(cfg.CORSOrigins) > 0 {
		httpapi.SetCORSOptions(true, cfg.CORSOrigins, []string{"GET", "POST", "OPTIONS"}, []string{"Content-Type", "X-Log-Level"})
	}

	d.svc = httpapi.NewEngineService(d.engine, d.hub)
	d.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(d.svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return d, nil
}

// shutdown drains the daemon: readiness goes off and the HTTP server stops
// accepting submissions, then pending payloads are flushed to listeners and
// the relay drains before the hub closes.
func (d *daemon) shutdown(ctx context.Context) error {
	d.svc.SetDraining(true)
	serr := d.srv.Shutdown(ctx)
	if serr != nil {
		d.log.Error().Err(serr).Msg("http shutdown")
	}
	n := d.engine.Flush()
	d.log.Info().Int("flushed", n).Msg("engine flushed")
	if d.relay != nil {
		if err := d.relay.Close(); err != nil {
			d.log.Error().Err(err).Msg("relay close")
		}
		_ = d.rdb.Close()
	}
	d.hub.Close()
	return serr
}

func serve(parent context.Context, cfg config.Config, logger zerolog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := newDaemon(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	httpapi.SetBaseContext(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Dur("default_wait", d.engine.DefaultWait()).Msg("debounced listening")
		if err := d.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server error")
			return err
		}
	}

	logger.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.shutdown(sctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
		return err
	}
	return nil
}
