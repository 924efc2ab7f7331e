package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"debounced/internal/debounce"
	"debounced/internal/stream"
	"debounced/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	// Submit records payload for key and returns the number of live keys.
	Submit(key string, wait time.Duration, payload json.RawMessage) int
	Trigger(key string) bool
	Flush() int
	Clear() int
	Status() types.StatusResponse
	// Stream delivers emissions (all keys when key is empty) until ctx is
	// done or the returned stop func is called.
	Stream(ctx context.Context, key string) (<-chan debounce.Emission, func())
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Compression for JSON endpoints; NDJSON is not in the default type list
	// so /events streams uncompressed.
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/submit", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			IncrementRejected("content_type")
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			logOp(r, "submit", "", http.StatusUnsupportedMediaType, start, nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			// Oversized bodies land here too; keep the 400 to avoid leaking the limit.
			reason := "bad_json"
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				reason = "too_large"
			}
			IncrementRejected(reason)
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			logOp(r, "submit", "", http.StatusBadRequest, start, err)
			return
		}
		if strings.TrimSpace(req.Key) == "" {
			IncrementRejected("missing_key")
			writeJSONError(w, http.StatusBadRequest, "key is required")
			logOp(r, "submit", "", http.StatusBadRequest, start, nil)
			return
		}
		wait := time.Duration(req.WaitMS) * time.Millisecond
		n := svc.Submit(req.Key, wait, req.Payload)
		writeJSON(w, http.StatusAccepted, types.SubmitResponse{Key: req.Key, Pending: n})
		logOp(r, "submit", req.Key, http.StatusAccepted, start, nil)
	})

	r.Post("/trigger/{key}", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		key, err := url.PathUnescape(chi.URLParam(r, "key"))
		if err != nil || key == "" {
			IncrementRejected("bad_key")
			writeJSONError(w, http.StatusBadRequest, "invalid key")
			logOp(r, "trigger", "", http.StatusBadRequest, start, err)
			return
		}
		ok := svc.Trigger(key)
		writeJSON(w, http.StatusOK, types.TriggerResponse{Key: key, Triggered: ok})
		logOp(r, "trigger", key, http.StatusOK, start, nil)
	})

	r.Post("/flush", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		writeJSON(w, http.StatusOK, types.FlushResponse{Flushed: svc.Flush()})
		logOp(r, "flush", "", http.StatusOK, start, nil)
	})

	r.Post("/clear", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		writeJSON(w, http.StatusOK, types.ClearResponse{Cleared: svc.Clear()})
		logOp(r, "clear", "", http.StatusOK, start, nil)
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		// Join server base context with request context so shutdown ends the stream too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		ch, stop := svc.Stream(ctx, key)
		defer stop()

		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flush := func() {}
		if f, ok := w.(http.Flusher); ok {
			flush = f.Flush
		}
		flush()

		writer := io.Writer(w)
		if requestLogLevel(r) >= LevelDebug {
			writer = io.MultiWriter(w, &loggingLineWriter{})
		}
		enc := json.NewEncoder(writer)
		start := time.Now()
		for {
			select {
			case <-ctx.Done():
				logOp(r, "events", key, http.StatusOK, start, nil)
				return
			case em, ok := <-ch:
				if !ok {
					logOp(r, "events", key, http.StatusOK, start, nil)
					return
				}
				ev, err := stream.Encode(em)
				if err != nil {
					logOp(r, "events", em.Key, http.StatusInternalServerError, start, err)
					continue
				}
				if err := enc.Encode(ev); err != nil {
					return
				}
				flush()
			}
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("draining"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}
