package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/apc/internal/adapters/file"
	"github.com/aretw0/apc/internal/adapters/sqlite"
	"github.com/aretw0/apc/internal/config"
	"github.com/aretw0/apc/internal/logging"
	"github.com/aretw0/apc/pkg/adapters/memory"
	"github.com/aretw0/apc/pkg/adapters/redis"
	"github.com/aretw0/apc/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// project creates a project dir with the given config file contents.
func project(t *testing.T, configYAML string) Options {
	t.Helper()
	dir := t.TempDir()
	if configYAML != "" {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".apc"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultPath), []byte(configYAML), 0644))
	}
	return Options{Dir: dir}
}

func TestCreateEngine_FromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Cooldowns = config.Cooldowns{Micro: 5, Nudge: 20}
	cfg.Preferences.DefaultDesignMode = domain.DesignSpeed
	cfg.Patterns.Rethink = []string{"start over"}

	engine, err := createEngine(cfg, logging.NewNop(), nil)
	require.NoError(t, err)

	c := engine.NewContext()
	assert.Equal(t, 5, c.MicroCooldown)
	assert.Equal(t, 20, c.NudgeCooldown)
	assert.Equal(t, domain.DesignSpeed, c.Preferences.DefaultDesignMode)

	d := engine.Detect(context.Background(), c, "let's start over")
	assert.True(t, d.Rethink)

	cfg.Patterns.Rethink = []string{"("}
	_, err = createEngine(cfg, logging.NewNop(), nil)
	assert.Error(t, err)
}

func TestOpenStore_Drivers(t *testing.T) {
	dir := t.TempDir()

	t.Run("memory", func(t *testing.T) {
		cfg := config.Default()
		cfg.Store.Driver = config.DriverMemory
		store, closeFn, err := openStore(cfg, dir)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &memory.Store{}, store)
	})

	t.Run("file", func(t *testing.T) {
		store, closeFn, err := openStore(config.Default(), dir)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &file.Store{}, store)

		require.NoError(t, store.Save(context.Background(), "s", domain.NewContext()))
		assert.FileExists(t, filepath.Join(dir, ".apc", "sessions", "s.json"))
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.Default()
		cfg.Store.Driver = config.DriverSQLite
		store, closeFn, err := openStore(cfg, dir)
		require.NoError(t, err)
		assert.IsType(t, &sqlite.Store{}, store)
		require.NoError(t, store.Save(context.Background(), "s", domain.NewContext()))
		require.NoError(t, closeFn())
		assert.FileExists(t, filepath.Join(dir, ".apc", "apc.db"))
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := config.Default()
		cfg.Store.Driver = "etcd"
		_, _, err := openStore(cfg, dir)
		assert.Error(t, err)
	})
}

func TestOpenSessions_RedisWithLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store.Driver = config.DriverRedis
	cfg.Store.Redis.Addr = mr.Addr()
	cfg.Store.Redis.Prefix = "test:"
	cfg.Locker.Redis = true

	sessions, closeFn, err := openSessions(cfg, "", logging.NewNop(), domain.NewContext)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &redis.Store{}, sessions.Store())

	_, err = sessions.Update(context.Background(), "s1", func(ctx context.Context, c *domain.Context) error {
		assert.True(t, mr.Exists("test:lock:s1"), "turns run under the distributed lock")
		c.Step++
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:lock:s1"))
	assert.True(t, mr.Exists("test:s1"))
}

func TestOpenSessions_RedactAndEncrypt(t *testing.T) {
	t.Setenv(config.EnvEncryptionKey, "")
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Store.Driver = config.DriverSQLite
	cfg.Store.Redact = []string{`secret-\w+`}
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 32)))

	sessions, closeFn, err := openSessions(cfg, dir, logging.NewNop(), domain.NewContext)
	require.NoError(t, err)
	defer closeFn()

	ctx := context.Background()
	c := domain.NewContext()
	c.Branch.ScopeSummary = "move secret-prod to vault"
	require.NoError(t, sessions.Save(ctx, "s1", c))

	loaded, err := sessions.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "move *** to vault", loaded.Branch.ScopeSummary)

	raw, err := sqlite.Open(filepath.Join(dir, ".apc", "apc.db"))
	require.NoError(t, err)
	defer raw.Close()
	stored, err := raw.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.Branch.ScopeSummary, "enc:v1:"), "stored value is sealed")
}

func TestLiveEngine_Swap(t *testing.T) {
	first, err := createEngine(config.Default(), logging.NewNop(), nil)
	require.NoError(t, err)
	live := newLiveEngine(first)
	assert.Equal(t, domain.DefaultMicroCooldown, live.NewContext().MicroCooldown)

	cfg := config.Default()
	cfg.Cooldowns.Micro = 8
	second, err := createEngine(cfg, logging.NewNop(), nil)
	require.NoError(t, err)
	live.Swap(second)
	assert.Equal(t, 8, live.NewContext().MicroCooldown)
	assert.Same(t, second, live.Engine())
}

func TestStep_StatelessAndSession(t *testing.T) {
	opts := project(t, "")
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, Step(ctx, opts, "", "", "cmd_ds", &out))
	var res StepOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, domain.ModeDesignSession, res.Context.Mode)

	// Feed the context back in.
	raw, err := json.Marshal(res.Context)
	require.NoError(t, err)
	out.Reset()
	require.NoError(t, Step(ctx, opts, "", string(raw), `{"type":"USER_EXIT_DS"}`, &out))
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, domain.ModeInline, res.Context.Mode)

	// Session mode persists the applied context.
	out.Reset()
	require.NoError(t, Step(ctx, opts, "s1", "", "CMD_DS", &out))
	out.Reset()
	require.NoError(t, InspectSession(ctx, opts, "s1", &out))
	assert.Contains(t, out.String(), `"mode": "DESIGN_SESSION"`)

	assert.Error(t, Step(ctx, opts, "", "", "", &out))
	assert.Error(t, Step(ctx, opts, "", "{", "CMD_DS", &out))
}

func TestDetect_PrintsDetection(t *testing.T) {
	opts := project(t, "")
	var out bytes.Buffer
	require.NoError(t, Detect(context.Background(), opts, `{"iterations":{"default":2}}`, "what if we rework it", &out))

	var res struct {
		Events    []domain.Event  `json:"events"`
		Iteration bool            `json:"iteration"`
		Context   *domain.Context `json:"context"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.True(t, res.Iteration)
	require.Len(t, res.Events, 1)
	assert.Equal(t, domain.EventIterationThreshold, res.Events[0].Type)
	assert.Equal(t, 3, res.Context.Iterations[domain.DefaultTopic])
}

func TestSessions_ListGraphRemove(t *testing.T) {
	opts := project(t, "store:\n  driver: sqlite\n")
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, ListSessions(ctx, opts, &out))
	assert.Contains(t, out.String(), "No active sessions found.")

	for _, id := range []string{"a", "b"} {
		require.NoError(t, Step(ctx, opts, id, "", "CMD_DS", io.Discard))
	}

	out.Reset()
	require.NoError(t, ListSessions(ctx, opts, &out))
	assert.Contains(t, out.String(), "- a [DESIGN_SESSION, step 0]")
	assert.Contains(t, out.String(), "- b [DESIGN_SESSION, step 0]")

	out.Reset()
	require.NoError(t, Graph(ctx, opts, "a", &out))
	assert.Contains(t, out.String(), "class DESIGN_SESSION current;")
	assert.Error(t, Graph(ctx, opts, "missing", &out))

	out.Reset()
	require.NoError(t, RemoveSessions(ctx, opts, nil, true, &out))
	assert.Contains(t, out.String(), "Removed session 'a'")
	assert.Contains(t, out.String(), "Removed session 'b'")

	out.Reset()
	require.NoError(t, ListSessions(ctx, opts, &out))
	assert.Contains(t, out.String(), "No active sessions found.")
}

func TestRunChat_Text(t *testing.T) {
	opts := project(t, "")
	var out bytes.Buffer

	err := RunChat(context.Background(), ChatOptions{
		Options:   opts,
		SessionID: "demo",
		In:        strings.NewReader("ds\nquit\n"),
		Out:       &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), ">>> Session 'demo' active.")
	assert.Contains(t, out.String(), "[DESIGN_SESSION · DISCOVER] Starting FULL Design Session")

	// Resuming reports the stored mode; --fresh starts over.
	out.Reset()
	require.NoError(t, RunChat(context.Background(), ChatOptions{Options: opts, SessionID: "demo", In: strings.NewReader(""), Out: &out}))
	assert.Contains(t, out.String(), "Resuming session 'demo' in DESIGN_SESSION.")

	out.Reset()
	require.NoError(t, RunChat(context.Background(), ChatOptions{Options: opts, SessionID: "demo", Fresh: true, In: strings.NewReader(""), Out: &out}))
	assert.Contains(t, out.String(), ">>> Session 'demo' active.")
}

func TestRunChat_JSON(t *testing.T) {
	opts := project(t, "store:\n  driver: memory\n")
	var out bytes.Buffer

	err := RunChat(context.Background(), ChatOptions{
		Options: opts,
		JSON:    true,
		In:      strings.NewReader(`{"session_id":"j1","input":"ds"}` + "\n"),
		Out:     &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"session_id":"j1"`)
	assert.Contains(t, out.String(), `"mode":"DESIGN_SESSION"`)
}

func TestRunServe_HealthAndShutdown(t *testing.T) {
	opts := project(t, "store:\n  driver: memory\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- RunServe(ctx, ServeOptions{Options: opts, Addr: "127.0.0.1:0", Ready: ready, Out: io.Discard})
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestOptions_LoadConfig(t *testing.T) {
	opts := project(t, "cooldowns:\n  micro: 4\n")
	opts.Overrides = []string{"cooldowns.nudge=12"}

	cfg, err := opts.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Cooldowns.Micro)
	assert.Equal(t, 12, cfg.Cooldowns.Nudge)

	opts.Overrides = []string{"broken"}
	_, err = opts.LoadConfig()
	assert.Error(t, err)
}
