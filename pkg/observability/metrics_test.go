package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/apc"
	"github.com/aretw0/apc/pkg/domain"
	"github.com/aretw0/apc/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	eng, err := apc.New(apc.WithLifecycleHooks(m.Hooks()))
	require.NoError(t, err)

	ctx := context.Background()
	c := eng.NewContext()

	res := eng.Step(ctx, c, domain.NewEvent(domain.EventStartSession))
	eng.Apply(ctx, c, res)
	res = eng.Step(ctx, c, domain.NewEvent(domain.EventChoiceParty))
	eng.Apply(ctx, c, res)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("INLINE", "DESIGN_SESSION", "CMD_DS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("DESIGN_SESSION", "DESIGN_SESSION", "USER_CHOICE_P")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModeEntries.WithLabelValues("DESIGN_SESSION")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("START_DS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("RECORD_CHOICE")))

	eng.Detect(ctx, c, "this flow feels wrong, what if we iterate?")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Detections.WithLabelValues("rethink")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Detections.WithLabelValues("iteration")))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.ObserveTurn("http", nil)
	m.ObserveTurn("http", assert.AnError)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `apc_turns_total{outcome="ok",transport="http"} 1`)
	assert.Contains(t, body, `apc_turns_total{outcome="error",transport="http"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	eng, err := apc.New(apc.WithLifecycleHooks(observability.LogHooks(logger)))
	require.NoError(t, err)

	ctx := context.Background()
	c := eng.NewContext()
	eng.Apply(ctx, c, eng.Step(ctx, c, domain.NewEvent(domain.EventStartSession)))
	eng.Detect(ctx, c, "nothing to see")

	out := buf.String()
	assert.Contains(t, out, "msg=transition from=INLINE to=DESIGN_SESSION event=CMD_DS")
	assert.Contains(t, out, "msg=action mode=DESIGN_SESSION kind=START_DS")
	assert.NotContains(t, out, "msg=detect")
}
