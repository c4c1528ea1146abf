package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/aretw0/apc"
	"github.com/aretw0/apc/internal/config"
	"github.com/aretw0/apc/pkg/detect"
	"github.com/aretw0/apc/pkg/domain"
	"github.com/aretw0/apc/pkg/observability"
	"github.com/aretw0/apc/pkg/ports"
)

// createEngine builds an engine from the configuration with standard CLI conventions.
func createEngine(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*apc.Engine, error) {
	engineOpts := []apc.Option{
		apc.WithLogger(logger),
		apc.WithCooldowns(cfg.Cooldowns.Micro, cfg.Cooldowns.Nudge),
		apc.WithPreferences(cfg.Preferences),
		apc.WithIterationReset(cfg.ResetIterationsOnSession),
		apc.WithPatterns(cfg.Patterns.Rethink, cfg.Patterns.Iteration),
		apc.WithLifecycleHooks(observability.LogHooks(logger)),
	}
	if len(cfg.Prompts) > 0 {
		engineOpts = append(engineOpts, apc.WithPromptOverrides(cfg.Prompts))
	}
	if metrics != nil {
		engineOpts = append(engineOpts, apc.WithLifecycleHooks(metrics.Hooks()))
	}

	engine, err := apc.New(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

// liveEngine lets long-running commands swap the engine when the config changes.
// Conversation state lives in the stores, so in-flight sessions carry over.
type liveEngine struct {
	current atomic.Pointer[apc.Engine]
}

var _ ports.Coordinator = (*liveEngine)(nil)

func newLiveEngine(e *apc.Engine) *liveEngine {
	l := &liveEngine{}
	l.current.Store(e)
	return l
}

func (l *liveEngine) Swap(e *apc.Engine) {
	l.current.Store(e)
}

func (l *liveEngine) Engine() *apc.Engine {
	return l.current.Load()
}

func (l *liveEngine) NewContext() *domain.Context {
	return l.Engine().NewContext()
}

func (l *liveEngine) Step(ctx context.Context, c *domain.Context, ev domain.Event) domain.TransitionResult {
	return l.Engine().Step(ctx, c, ev)
}

func (l *liveEngine) Detect(ctx context.Context, c *domain.Context, text string) detect.Detection {
	return l.Engine().Detect(ctx, c, text)
}

func (l *liveEngine) CheckpointBoundary(c *domain.Context, artifact domain.ArtifactType) (domain.Event, bool) {
	return l.Engine().CheckpointBoundary(c, artifact)
}

func (l *liveEngine) Apply(ctx context.Context, c *domain.Context, r domain.TransitionResult) {
	l.Engine().Apply(ctx, c, r)
}

func (l *liveEngine) ApplyActions(ctx context.Context, c *domain.Context, actions []domain.Action) {
	l.Engine().ApplyActions(ctx, c, actions)
}

func (l *liveEngine) Mermaid(c *domain.Context) string {
	return l.Engine().Mermaid(c)
}
