package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"debounced/internal/debounce"
	"debounced/internal/httpapi"
	"debounced/internal/stream"
	"debounced/pkg/types"
)

type harness struct {
	srv    *httptest.Server
	engine *debounce.Engine
	hub    *stream.Hub
	svc    *httpapi.EngineService
}

func newServer(t *testing.T, wait time.Duration) *harness {
	t.Helper()
	e := debounce.New(debounce.Options{DefaultWait: wait})
	hub := stream.NewHub(e.Dispatcher(), 32, zerolog.Nop())
	svc := httpapi.NewEngineService(e, hub)
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
	})
	return &harness{srv: srv, engine: e, hub: hub, svc: svc}
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

// submit posts one submission and fails the test unless it is accepted.
func submit(t *testing.T, base, key string, waitMS int64, payload string) {
	t.Helper()
	b, _ := json.Marshal(map[string]any{"key": key, "wait_ms": waitMS, "payload": json.RawMessage(payload)})
	resp, body := httpPostJSON(t, base+"/submit", b)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("/submit %d %s", resp.StatusCode, string(body))
	}
}

// eventStream opens /events and decodes NDJSON lines onto a channel.
func eventStream(t *testing.T, h *harness, query string) <-chan types.EmissionEvent {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.srv.URL+"/events"+query, nil)
	if err != nil {
		cancel()
		t.Fatalf("new req: %v", err)
	}
	before := h.hub.Clients()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		t.Fatalf("open /events: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		_ = resp.Body.Close()
	})
	deadline := time.Now().Add(2 * time.Second)
	for h.hub.Clients() <= before {
		if time.Now().After(deadline) {
			t.Fatalf("/events client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	out := make(chan types.EmissionEvent, 64)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			var ev types.EmissionEvent
			if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
				return
			}
			out <- ev
		}
	}()
	return out
}

// collect reads events until n arrived or timeout elapsed.
func collect(ch <-chan types.EmissionEvent, n int, timeout time.Duration) []types.EmissionEvent {
	var got []types.EmissionEvent
	deadline := time.After(timeout)
	for len(got) < n {
		select {
		case ev, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-deadline:
			return got
		}
	}
	return got
}

func payloads(evs []types.EmissionEvent) []string {
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = string(ev.Payload)
	}
	return out
}
