package runtime

import (
	"github.com/aretw0/apc/internal/prompts"
	"github.com/aretw0/apc/pkg/domain"
)

// Dispatcher is the design-support state machine.
// Step is a pure function of its inputs: it reads the context and never mutates it.
type Dispatcher struct {
	prompts *prompts.Table
}

// NewDispatcher creates a dispatcher rendering prompts from table.
// A nil table selects the built-in prompts.
func NewDispatcher(table *prompts.Table) *Dispatcher {
	if table == nil {
		table = prompts.Default()
	}
	return &Dispatcher{prompts: table}
}

// Step resolves one event against the context.
//
// Priority:
//  1. Explicit commands win regardless of mode.
//  2. Passive triggers are swallowed while a design session or branch runs.
//  3. Everything else goes to the handler of the current mode.
//
// Events a mode does not handle leave the mode unchanged.
func (d *Dispatcher) Step(c *domain.Context, ev domain.Event) domain.TransitionResult {
	if c == nil || !c.Mode.Valid() {
		return stay(domain.ModeInline)
	}

	switch ev.Type {
	case domain.EventStartSession:
		return d.startSession(c, ev)
	case domain.EventStartBranch:
		return d.startBranch(c, ev)
	}

	if c.Mode.InDesign() && ev.Type.Passive() {
		return stay(c.Mode)
	}

	switch c.Mode {
	case domain.ModeInline:
		return d.inline(c, ev)
	case domain.ModeMicroCheckpoint:
		return d.micro(c, ev)
	case domain.ModeNudge:
		return d.nudge(c, ev)
	case domain.ModeDesignSession:
		return d.session(c, ev)
	case domain.ModeDesignBranch:
		return d.branch(c, ev)
	case domain.ModeBranchMerge:
		return d.merge(c, ev)
	}
	return stay(domain.ModeInline)
}

func stay(mode domain.Mode) domain.TransitionResult {
	return domain.TransitionResult{Mode: mode}
}

// say builds a result carrying a rendered prompt.
func (d *Dispatcher) say(mode domain.Mode, key prompts.Key, data prompts.Data, actions ...domain.Action) domain.TransitionResult {
	return domain.TransitionResult{
		Mode:     mode,
		Prompt:   d.prompts.Render(key, data),
		PromptID: string(key),
		Actions:  actions,
	}
}

// startingPhase picks the phase a new session opens at: the event's hint,
// then the event's artifact, then the fallback artifact.
func startingPhase(ev domain.Event, fallback domain.ArtifactType) domain.Phase {
	if hint, ok := ev.PhaseHint(); ok {
		return hint
	}
	if artifact := ev.ArtifactType(); artifact != "" {
		return domain.PhaseForArtifact(artifact)
	}
	return domain.PhaseForArtifact(fallback)
}

func (d *Dispatcher) startSession(c *domain.Context, ev domain.Event) domain.TransitionResult {
	mode := domain.DesignModeFor(ev.Complexity(), c.Preferences.DefaultDesignMode)
	phase := startingPhase(ev, "")

	var actions []domain.Action
	if c.Branch.InFlight() {
		actions = append(actions, domain.SetBranchStatus(domain.BranchAbandoned))
	}
	actions = append(actions, domain.StartSession(mode, phase, ev.Complexity(), ev.Summary(), c.Topic(ev)))

	return d.say(domain.ModeDesignSession, prompts.SessionStart, prompts.Data{Mode: mode, Phase: phase}, actions...)
}
