package cli

import (
	"log/slog"

	"github.com/aretw0/apc/internal/config"
	"github.com/aretw0/apc/pkg/observability"
	"github.com/aretw0/apc/pkg/runner"
	"github.com/aretw0/apc/pkg/session"
)

// app bundles what every command needs: config, logger, engine and sessions.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	engine   *liveEngine
	sessions *session.Manager
	closer   func() error
}

func newApp(opts Options, metrics *observability.Metrics) (*app, error) {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger(cfg)

	engine, err := createEngine(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}
	live := newLiveEngine(engine)

	sessions, closer, err := openSessions(cfg, opts.Dir, logger, live.NewContext)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, engine: live, sessions: sessions, closer: closer}, nil
}

func (a *app) runner(opts ...runner.Option) *runner.Runner {
	opts = append([]runner.Option{runner.WithLogger(a.logger)}, opts...)
	return runner.New(a.engine, a.sessions, opts...)
}

func (a *app) Close() error {
	return a.closer()
}
