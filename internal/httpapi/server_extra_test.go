package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debounced/internal/debounce"
	"debounced/internal/stream"
	"debounced/pkg/types"
)

func newEngineServer(t *testing.T, wait time.Duration) (*httptest.Server, *EngineService) {
	t.Helper()
	e := debounce.New(debounce.Options{DefaultWait: wait})
	hub := stream.NewHub(e.Dispatcher(), 8, zerolog.Nop())
	t.Cleanup(hub.Close)
	svc := NewEngineService(e, hub)
	srv := httptest.NewServer(NewMux(svc))
	t.Cleanup(srv.Close)
	return srv, svc
}

func doPost(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestEngineService_StreamSeesDebouncedEmissions(t *testing.T) {
	srv, svc := newEngineServer(t, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?key=t", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Eventually(t, func() bool { return svc.hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	for i := 1; i <= 3; i++ {
		r := doPost(t, srv.URL+"/submit", `{"key":"t","payload":`+string(rune('0'+i))+`}`)
		require.Equal(t, http.StatusAccepted, r.StatusCode)
	}
	doPost(t, srv.URL+"/submit", `{"key":"other","payload":0}`)

	sc := bufio.NewScanner(resp.Body)
	var got []string
	for len(got) < 2 && sc.Scan() {
		var ev types.EmissionEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		assert.Equal(t, "t", ev.Key)
		got = append(got, string(ev.Payload))
	}
	assert.Equal(t, []string{"1", "3"}, got)
}

func TestEngineService_TriggerFlushClearStatus(t *testing.T) {
	srv, _ := newEngineServer(t, time.Hour)

	doPost(t, srv.URL+"/submit", `{"key":"a","payload":1}`)
	doPost(t, srv.URL+"/submit", `{"key":"a","payload":2}`)
	doPost(t, srv.URL+"/submit", `{"key":"b","payload":1}`)

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	var st types.StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	resp.Body.Close()
	require.Len(t, st.Pending, 2)
	assert.Equal(t, "a", st.Pending[0].Key)
	assert.True(t, st.Pending[0].Scheduled)
	assert.Greater(t, st.Pending[0].DueInMS, int64(0))
	assert.False(t, st.Pending[1].Scheduled)
	assert.NotZero(t, st.Pending[1].LastEmitMS)
	assert.Equal(t, time.Hour.Milliseconds(), st.DefaultWaitMS)

	var tr types.TriggerResponse
	require.NoError(t, json.NewDecoder(doPost(t, srv.URL+"/trigger/a", "").Body).Decode(&tr))
	assert.True(t, tr.Triggered)
	tr = types.TriggerResponse{}
	require.NoError(t, json.NewDecoder(doPost(t, srv.URL+"/trigger/zzz", "").Body).Decode(&tr))
	assert.False(t, tr.Triggered)

	var fr types.FlushResponse
	require.NoError(t, json.NewDecoder(doPost(t, srv.URL+"/flush", "").Body).Decode(&fr))
	assert.Equal(t, 2, fr.Flushed)

	doPost(t, srv.URL+"/submit", `{"key":"c","payload":1}`)
	var cr types.ClearResponse
	require.NoError(t, json.NewDecoder(doPost(t, srv.URL+"/clear", "").Body).Decode(&cr))
	assert.Equal(t, 1, cr.Cleared)
}

func TestEngineService_Draining(t *testing.T) {
	e := debounce.New(debounce.Options{})
	hub := stream.NewHub(e.Dispatcher(), 0, zerolog.Nop())
	defer hub.Close()
	svc := NewEngineService(e, hub)
	assert.True(t, svc.Ready())
	svc.SetDraining(true)
	assert.False(t, svc.Ready())
}

func TestSubmitLogsWithZerologInfo(t *testing.T) {
	var buf strings.Builder
	SetLogger(zerolog.New(&buf))
	defer SetLogger(zerolog.New(io.Discard))

	w := postJSON(NewMux(&mockService{}), "/submit?log=info", `{"key":"k","payload":1}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202 with info logging, got %d", w.Code)
	}
	if !strings.Contains(buf.String(), `"op":"submit"`) || !strings.Contains(buf.String(), `"key":"k"`) {
		t.Fatalf("expected submit log line, got %q", buf.String())
	}
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	SetCORSOptions(true, []string{"*"}, []string{"GET", "POST", "OPTIONS"}, []string{"Content-Type"})
	defer SetCORSOptions(false, nil, nil, nil)

	h := NewMux(&mockService{})
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options=nosniff, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("expected CORS header Access-Control-Allow-Origin to be set, got empty")
	}
}
