package apc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/apc/internal/presentation/graph"
	"github.com/aretw0/apc/internal/prompts"
	"github.com/aretw0/apc/internal/runtime"
	"github.com/aretw0/apc/pkg/detect"
	"github.com/aretw0/apc/pkg/domain"
	"github.com/google/uuid"
)

// Engine is the high-level entry point for the design-support coordinator.
// It wraps the pure dispatcher with logging, lifecycle hooks and the caller-side applier.
// An Engine holds no conversation state and is safe for concurrent use.
type Engine struct {
	dispatcher *runtime.Dispatcher
	detector   *detect.Detector
	hooks      domain.LifecycleHooks
	logger     *slog.Logger

	microCooldown   int
	nudgeCooldown   int
	preferences     domain.Preferences
	promptOverrides map[string]string
	rethink         []string
	iteration       []string
	newBranchID     func() string
	resetIterations bool
	now             func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks. Repeated calls chain the hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCooldowns sets the micro-checkpoint and nudge windows, in steps, for new contexts.
func WithCooldowns(micro, nudge int) Option {
	return func(e *Engine) {
		e.microCooldown = micro
		e.nudgeCooldown = nudge
	}
}

// WithPreferences sets the preferences given to new contexts.
func WithPreferences(p domain.Preferences) Option {
	return func(e *Engine) {
		e.preferences = p
	}
}

// WithPromptOverrides replaces prompt templates, keyed "MODE/case".
func WithPromptOverrides(overrides map[string]string) Option {
	return func(e *Engine) {
		e.promptOverrides = overrides
	}
}

// WithPatterns appends rethink and iteration patterns to the built-in detector sets.
func WithPatterns(rethink, iteration []string) Option {
	return func(e *Engine) {
		e.rethink = append(e.rethink, rethink...)
		e.iteration = append(e.iteration, iteration...)
	}
}

// WithBranchIDGenerator sets how branch ids are allocated (default: random UUID).
func WithBranchIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newBranchID = fn
	}
}

// WithIterationReset controls whether starting a session clears the topic's
// iteration count (default: true).
func WithIterationReset(reset bool) Option {
	return func(e *Engine) {
		e.resetIterations = reset
	}
}

// New initializes a new Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		microCooldown:   domain.DefaultMicroCooldown,
		nudgeCooldown:   domain.DefaultNudgeCooldown,
		preferences:     domain.DefaultPreferences(),
		newBranchID:     uuid.NewString,
		resetIterations: true,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	table := prompts.Default()
	if len(eng.promptOverrides) > 0 {
		var err error
		if table, err = table.With(eng.promptOverrides); err != nil {
			return nil, fmt.Errorf("invalid prompt overrides: %w", err)
		}
	}
	eng.dispatcher = runtime.NewDispatcher(table)

	detector, err := detect.New(
		detect.WithRethinkPatterns(eng.rethink...),
		detect.WithIterationPatterns(eng.iteration...),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid detection patterns: %w", err)
	}
	eng.detector = detector

	return eng, nil
}

// NewContext creates a conversation context carrying the engine's cooldowns and preferences.
func (e *Engine) NewContext() *domain.Context {
	c := domain.NewContext()
	c.MicroCooldown = e.microCooldown
	c.NudgeCooldown = e.nudgeCooldown
	c.Preferences = e.preferences
	return c
}

// Step dispatches one event. The context is not modified; call Apply with the result.
func (e *Engine) Step(ctx context.Context, c *domain.Context, ev domain.Event) domain.TransitionResult {
	res := e.dispatcher.Step(c, ev)

	from := domain.ModeInline
	topic := domain.DefaultTopic
	if c != nil {
		from = c.Mode
		topic = c.Topic(ev)
	}

	e.logger.Debug("dispatched event",
		"event", ev.Type,
		"from", from,
		"to", res.Mode,
		"topic", topic,
		"prompt", res.PromptID,
		"actions", res.Kinds(),
	)

	if e.hooks.OnTransition != nil {
		e.hooks.OnTransition(ctx, &domain.TransitionEvent{
			Timestamp: e.now(),
			From:      from,
			To:        res.Mode,
			Event:     ev.Type,
			Topic:     topic,
			PromptID:  res.PromptID,
			Actions:   res.Kinds(),
		})
	}
	return res
}

// Detect classifies free text. The returned actions must be applied before the
// returned events are dispatched.
func (e *Engine) Detect(ctx context.Context, c *domain.Context, text string) detect.Detection {
	d := e.detector.Detect(c, text)

	if d.Rethink || d.Iteration {
		e.logger.Debug("passive trigger detected", "topic", c.ActiveTopic(), "rethink", d.Rethink, "iteration", d.Iteration)
	}
	if e.hooks.OnDetect != nil {
		types := make([]domain.EventType, 0, len(d.Events))
		for _, ev := range d.Events {
			types = append(types, ev.Type)
		}
		e.hooks.OnDetect(ctx, &domain.DetectionEvent{
			Timestamp: e.now(),
			Topic:     c.ActiveTopic(),
			Rethink:   d.Rethink,
			Iteration: d.Iteration,
			Events:    types,
		})
	}
	return d
}

// CheckpointBoundary proposes a checkpoint-boundary event after an artifact was produced.
func (e *Engine) CheckpointBoundary(c *domain.Context, artifact domain.ArtifactType) (domain.Event, bool) {
	return detect.CheckpointBoundary(c, artifact)
}

// Apply interprets a transition result against c and moves it to the result's mode.
func (e *Engine) Apply(ctx context.Context, c *domain.Context, r domain.TransitionResult) {
	e.emitActions(ctx, r.Mode, r.Actions)
	domain.Apply(c, r, e.applyOptions())
}

// ApplyActions interprets actions against c without changing its mode.
func (e *Engine) ApplyActions(ctx context.Context, c *domain.Context, actions []domain.Action) {
	e.emitActions(ctx, c.Mode, actions)
	domain.ApplyActions(c, actions, e.applyOptions())
}

func (e *Engine) applyOptions() domain.ApplyOptions {
	return domain.ApplyOptions{
		NewBranchID:     e.newBranchID,
		ResetIterations: e.resetIterations,
	}
}

func (e *Engine) emitActions(ctx context.Context, mode domain.Mode, actions []domain.Action) {
	if e.hooks.OnAction == nil {
		return
	}
	for _, a := range actions {
		e.hooks.OnAction(ctx, &domain.ActionEvent{
			Timestamp: e.now(),
			Mode:      mode,
			Action:    a,
		})
	}
}

// Transitions returns the static table of mode-changing edges.
func (e *Engine) Transitions() []runtime.Edge {
	return runtime.Transitions()
}

// Mermaid renders the mode machine as a Mermaid flowchart, highlighting the
// context's current mode when c is not nil.
func (e *Engine) Mermaid(c *domain.Context) string {
	var overlay *graph.GraphOverlay
	if c != nil {
		overlay = &graph.GraphOverlay{Current: c.Mode}
	}
	return graph.GenerateMermaid(runtime.Transitions(), overlay)
}
