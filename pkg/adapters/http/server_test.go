package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/apc"
	apchttp "github.com/aretw0/apc/pkg/adapters/http"
	"github.com/aretw0/apc/pkg/domain"
	"github.com/aretw0/apc/pkg/observability"
	"github.com/aretw0/apc/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T, opts ...apchttp.Option) (http.Handler, *runner.Runner) {
	t.Helper()
	eng, err := apc.New(apc.WithBranchIDGenerator(func() string { return "br-1" }))
	require.NoError(t, err)
	r := runner.New(eng, nil)
	return apchttp.NewHandler(eng, r, opts...), r
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthAndInfo(t *testing.T) {
	h, _ := newHandler(t)

	w := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(t, h, http.MethodGet, "/info", nil)
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "apc-http", info["app"])
	assert.Equal(t, strings.TrimSpace(apc.Version), info["version"])
}

func TestStep_AppliesResult(t *testing.T) {
	h, _ := newHandler(t)

	w := do(t, h, http.MethodPost, "/step", apchttp.StepRequest{Event: domain.NewEvent(domain.EventStartSession)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp apchttp.StepResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.ModeDesignSession, resp.Result.Mode)
	assert.Equal(t, domain.ModeDesignSession, resp.Context.Mode)
	require.NotNil(t, resp.Context.Design)
	assert.Equal(t, domain.PhaseDiscover, resp.Context.Design.Phase)

	// The returned context feeds the next call.
	w = do(t, h, http.MethodPost, "/step", apchttp.StepRequest{Context: resp.Context, Event: domain.NewEvent(domain.EventExit)})
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.ModeInline, resp.Context.Mode)
}

func TestStep_BadBody(t *testing.T) {
	h, _ := newHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/step", strings.NewReader("{"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDetect(t *testing.T) {
	h, _ := newHandler(t)

	w := do(t, h, http.MethodPost, "/detect", apchttp.DetectRequest{Text: "I think we should rethink the design"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp apchttp.DetectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Rethink)
	require.NotEmpty(t, resp.Events)
	assert.Equal(t, domain.EventRethinkDetected, resp.Events[0].Type)
	assert.Equal(t, domain.ModeInline, resp.Context.Mode)
}

func TestSessions_Lifecycle(t *testing.T) {
	h, _ := newHandler(t)

	w := do(t, h, http.MethodGet, "/sessions/s1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPost, "/sessions/s1/turns", apchttp.TurnRequest{Input: "ds"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var turn runner.TurnResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &turn))
	assert.Equal(t, domain.ModeDesignSession, turn.Mode())

	w = do(t, h, http.MethodGet, "/sessions", nil)
	assert.JSONEq(t, `{"sessions":["s1"]}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/sessions/s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var c domain.Context
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	assert.Equal(t, domain.ModeDesignSession, c.Mode)
	assert.Equal(t, 1, c.Step)

	w = do(t, h, http.MethodGet, "/graph?session=s1", nil)
	assert.Contains(t, w.Body.String(), "graph TD")
	assert.Contains(t, w.Body.String(), "class DESIGN_SESSION current;")

	w = do(t, h, http.MethodDelete, "/sessions/s1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodGet, "/sessions/s1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTurn_RejectsOversizedInput(t *testing.T) {
	t.Setenv(runner.EnvMaxInputSize, "8")
	h, _ := newHandler(t)

	w := do(t, h, http.MethodPost, "/sessions/s1/turns", apchttp.TurnRequest{Input: "this is far too long"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/detect", apchttp.DetectRequest{Text: "this is far too long"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	m := observability.NewMetrics()
	h, _ := newHandler(t, apchttp.WithMetrics(m))

	do(t, h, http.MethodPost, "/sessions/s1/turns", apchttp.TurnRequest{Input: "hello"})

	w := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `apc_turns_total{outcome="ok",transport="http"} 1`)
}

func TestSubscribeEvents_Session(t *testing.T) {
	h, _ := newHandler(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/s1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readFrame := func() string {
		var frame strings.Builder
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if line == "\n" {
				return frame.String()
			}
			frame.WriteString(line)
		}
	}

	// The ping is written after the subscription is registered.
	assert.Contains(t, readFrame(), "event: ping")

	body := strings.NewReader(`{"input":"ds"}`)
	post, err := http.Post(srv.URL+"/sessions/s1/turns", "application/json", body)
	require.NoError(t, err)
	post.Body.Close()
	require.Equal(t, http.StatusOK, post.StatusCode)

	frame := readFrame()
	assert.Contains(t, frame, "event: turn")
	assert.Contains(t, frame, `"session_id":"s1"`)
	assert.Contains(t, frame, `"mode":"DESIGN_SESSION"`)
}

func TestStreamManager_Unsubscribe(t *testing.T) {
	sm := apchttp.NewStreamManager()
	ch, cancel := sm.Subscribe("s")
	assert.Equal(t, 1, sm.Subscribers("s"))

	sm.Broadcast("s", "hello")
	assert.Equal(t, "hello", <-ch)

	cancel()
	assert.Equal(t, 0, sm.Subscribers("s"))
	_, open := <-ch
	assert.False(t, open)

	sm.Broadcast("s", "nobody listens")
}
