package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/apc/internal/logging"
	"github.com/aretw0/apc/pkg/adapters/memory"
	"github.com/aretw0/apc/pkg/domain"
	"github.com/aretw0/apc/pkg/ports"
	"github.com/aretw0/apc/pkg/session"
)

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// Runner executes conversation turns. It holds no conversation state of its own
// and is safe for concurrent use across sessions.
type Runner struct {
	engine   ports.Coordinator
	sessions *session.Manager
	logger   *slog.Logger
	renderer ContentRenderer
}

// New creates a Runner. A nil manager keeps sessions in memory.
// A caller-supplied manager should create contexts with engine.NewContext
// (session.WithContextFactory) so new sessions carry the engine's defaults.
func New(engine ports.Coordinator, sessions *session.Manager, opts ...Option) *Runner {
	if sessions == nil {
		sessions = session.NewManager(memory.NewStore(), session.WithContextFactory(engine.NewContext))
	}
	r := &Runner{
		engine:   engine,
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sessions returns the session manager backing the runner.
func (r *Runner) Sessions() *session.Manager {
	return r.sessions
}

// TurnResult is everything one turn produced.
type TurnResult struct {
	SessionID string                    `json:"session_id"`
	Input     string                    `json:"input"`
	Kind      string                    `json:"kind"`
	Events    []domain.EventType        `json:"events,omitempty"`
	Results   []domain.TransitionResult `json:"results,omitempty"`
	Notice    string                    `json:"notice,omitempty"`
	Context   *domain.Context           `json:"context"`
}

// Mode is the conversation mode after the turn.
func (t *TurnResult) Mode() domain.Mode {
	if t.Context == nil {
		return domain.ModeInline
	}
	return t.Context.Mode
}

// Prompt joins every prompt rendered during the turn, plus any notice.
func (t *TurnResult) Prompt() string {
	var parts []string
	if t.Notice != "" {
		parts = append(parts, t.Notice)
	}
	for _, res := range t.Results {
		if res.Prompt != "" {
			parts = append(parts, res.Prompt)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Actions lists every action requested during the turn, in order.
func (t *TurnResult) Actions() []domain.Action {
	var out []domain.Action
	for _, res := range t.Results {
		out = append(out, res.Actions...)
	}
	return out
}

// Turn processes one line of user input for a session and persists the context.
// Unknown sessions start fresh. Rejected input leaves the context untouched.
func (r *Runner) Turn(ctx context.Context, sessionID, input string) (*TurnResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID cannot be empty")
	}
	clean, err := SanitizeInput(input)
	if err != nil {
		r.logger.Warn("Rejected input", "session_id", sessionID, "err", err)
		return nil, err
	}

	res := &TurnResult{SessionID: sessionID, Input: clean}
	c, err := r.sessions.Update(ctx, sessionID, func(ctx context.Context, c *domain.Context) error {
		r.repair(sessionID, c)
		c.Tick()
		r.process(ctx, c, ParseInput(c, clean), res)
		return nil
	})
	if err != nil {
		r.logger.Error("Turn failed", "session_id", sessionID, "err", err)
		return nil, err
	}
	res.Context = c
	return res, nil
}

// repair puts a context that violates its invariants back into a consistent INLINE state.
func (r *Runner) repair(sessionID string, c *domain.Context) {
	err := c.Validate()
	if err == nil {
		return
	}
	r.logger.Warn("Resetting corrupt context", "session_id", sessionID, "mode", c.Mode, "err", err)

	c.Mode = domain.ModeInline
	c.Design = nil
	c.Checkpoint = nil
	if c.Step < 0 {
		c.Step = 0
	}
	if c.Branch.InFlight() || c.Branch.Status == domain.BranchProposed {
		c.Branch.Status = domain.BranchAbandoned
	}
	clamp := func(steps map[string]int) {
		for topic, at := range steps {
			if at > c.Step {
				steps[topic] = c.Step
			}
		}
	}
	clamp(c.LastMicroStep)
	clamp(c.LastNudgeStep)
}

func (r *Runner) process(ctx context.Context, c *domain.Context, in Input, res *TurnResult) {
	res.Kind = in.Kind.String()

	switch in.Kind {
	case InputEvent:
		r.dispatch(ctx, c, in.Event, res)

	case InputCheckpoint:
		ev, ok := r.engine.CheckpointBoundary(c, in.Artifact)
		if !ok {
			res.Notice = "No checkpoint right now."
			return
		}
		r.dispatch(ctx, c, ev, res)

	case InputTrack:
		c.ActiveTrackID = in.Arg
		if in.Arg == "" {
			c.Activity = domain.ActivityInline
			res.Notice = "No active track."
			return
		}
		c.Activity = domain.ActivityImplementing
		res.Notice = fmt.Sprintf("Active track: %s", in.Arg)

	case InputTopic:
		c.ActiveTopicID = in.Arg
		res.Notice = fmt.Sprintf("Active topic: %s", c.ActiveTopic())

	default:
		d := r.engine.Detect(ctx, c, in.Text)
		// Iteration counts must be in place before the threshold event is dispatched.
		r.engine.ApplyActions(ctx, c, d.Actions)
		for _, ev := range d.Events {
			r.dispatch(ctx, c, ev, res)
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, c *domain.Context, ev domain.Event, res *TurnResult) {
	tr := r.engine.Step(ctx, c, ev)
	r.engine.Apply(ctx, c, tr)
	res.Events = append(res.Events, ev.Type)
	res.Results = append(res.Results, tr)
}
