package runtime

import (
	"github.com/aretw0/apc/internal/prompts"
	"github.com/aretw0/apc/pkg/domain"
)

var (
	standardOptions = []string{domain.OptionAdvanced, domain.OptionParty, domain.OptionContinue}
	branchOptions   = []string{domain.OptionAdvancedBranch, domain.OptionParty, domain.OptionContinue}
)

func (d *Dispatcher) inline(c *domain.Context, ev domain.Event) domain.TransitionResult {
	topic := c.Topic(ev)

	switch ev.Type {
	case domain.EventCheckpointBoundary:
		if c.Preferences.SuppressMicro || c.InCooldown(domain.CooldownMicro, topic) {
			return stay(domain.ModeInline)
		}
		if c.PrefersBranch() {
			return d.say(domain.ModeMicroCheckpoint, prompts.MicroWithBranch, prompts.Data{},
				domain.ShowCheckpoint(branchOptions, ev.ArtifactType()))
		}
		return d.say(domain.ModeMicroCheckpoint, prompts.MicroStandard, prompts.Data{},
			domain.ShowCheckpoint(standardOptions, ev.ArtifactType()))

	case domain.EventIterationThreshold:
		if c.Preferences.SuppressNudges ||
			!c.HasEnoughIterations(topic) ||
			c.InCooldown(domain.CooldownNudge, topic) {
			return stay(domain.ModeInline)
		}
		msg := d.prompts.Render(prompts.NudgeMessage, prompts.Data{})
		return d.say(domain.ModeNudge, prompts.NudgeMessage, prompts.Data{}, domain.ShowNudge(msg))

	case domain.EventRethinkDetected:
		// Nothing to branch from without a track.
		if !c.HasActiveTrack() {
			return stay(domain.ModeInline)
		}
		return d.say(domain.ModeMicroCheckpoint, prompts.MicroRethink, prompts.Data{},
			domain.ShowCheckpoint(branchOptions, ev.ArtifactType()))
	}
	return stay(domain.ModeInline)
}

func (d *Dispatcher) micro(c *domain.Context, ev domain.Event) domain.TransitionResult {
	topic := c.Topic(ev)

	switch ev.Type {
	case domain.EventChoiceContinue:
		return d.say(domain.ModeInline, prompts.MicroContinue, prompts.Data{},
			domain.SetCooldown(domain.CooldownMicro, topic))

	case domain.EventDecline:
		return d.say(domain.ModeInline, prompts.MicroDeclined, prompts.Data{},
			domain.SetCooldown(domain.CooldownMicro, topic))

	case domain.EventChoiceAdvanced, domain.EventChoiceParty:
		var trigger domain.ArtifactType
		if c.Checkpoint != nil {
			trigger = c.Checkpoint.ArtifactType
		}
		phase := startingPhase(ev, trigger)
		label := "Advanced"
		if ev.Type == domain.EventChoiceParty {
			label = "Party"
		}
		return d.say(domain.ModeDesignSession, prompts.MicroUpgrade, prompts.Data{Label: label, Phase: phase},
			domain.StartSession(domain.DesignFull, phase, ev.Complexity(), ev.Summary(), topic))
	}
	return stay(domain.ModeMicroCheckpoint)
}

func (d *Dispatcher) nudge(c *domain.Context, ev domain.Event) domain.TransitionResult {
	topic := c.Topic(ev)

	switch ev.Type {
	case domain.EventAccept:
		mode := domain.DesignModeFor(ev.Complexity(), c.Preferences.DefaultDesignMode)
		return d.say(domain.ModeDesignSession, prompts.NudgeAccepted, prompts.Data{Mode: mode, Phase: domain.PhaseDiscover},
			domain.StartSession(mode, domain.PhaseDiscover, ev.Complexity(), ev.Summary(), topic))

	case domain.EventDecline:
		return d.say(domain.ModeInline, prompts.NudgeDeclined, prompts.Data{},
			domain.SetCooldown(domain.CooldownNudge, topic))
	}
	return stay(domain.ModeNudge)
}

func (d *Dispatcher) session(c *domain.Context, ev domain.Event) domain.TransitionResult {
	if r, ok := d.phaseStep(c, ev, domain.ModeDesignSession, d.complete); ok {
		return r
	}

	switch ev.Type {
	case domain.EventExit:
		return d.say(domain.ModeInline, prompts.SessionExit, prompts.Data{})
	case domain.EventSessionComplete:
		return d.complete(c)
	}
	return stay(domain.ModeDesignSession)
}

func (d *Dispatcher) branch(c *domain.Context, ev domain.Event) domain.TransitionResult {
	if r, ok := d.phaseStep(c, ev, domain.ModeDesignBranch, d.readyToMerge); ok {
		return r
	}

	switch ev.Type {
	case domain.EventSessionComplete, domain.EventBranchReady:
		return d.readyToMerge(c)
	case domain.EventExit:
		return d.say(domain.ModeInline, prompts.BranchAbandoned, prompts.Data{},
			domain.SetBranchStatus(domain.BranchAbandoned))
	}
	return stay(domain.ModeDesignBranch)
}

// phaseStep runs the phase rules shared by sessions and branches.
// finish is called when "continue" runs past the last phase.
func (d *Dispatcher) phaseStep(
	c *domain.Context,
	ev domain.Event,
	mode domain.Mode,
	finish func(*domain.Context) domain.TransitionResult,
) (domain.TransitionResult, bool) {
	phase := currentPhase(c)

	switch ev.Type {
	case domain.EventPhaseComplete:
		return d.say(mode, prompts.SessionCheckpoint, prompts.Data{Phase: phase, Checkpoint: phase.Checkpoint()}), true

	case domain.EventChoiceAdvanced:
		return d.say(mode, prompts.SessionAdvanced, prompts.Data{Phase: phase},
			domain.RecordChoice(domain.ChoiceAdvanced)), true

	case domain.EventChoiceParty:
		return d.say(mode, prompts.SessionParty, prompts.Data{Phase: phase},
			domain.RecordChoice(domain.ChoiceParty)), true

	case domain.EventChoiceContinue:
		next, ok := phase.Next()
		if !ok {
			return finish(c), true
		}
		return d.say(mode, prompts.SessionNextPhase, prompts.Data{Phase: next},
			domain.AdvancePhase(next)), true

	case domain.EventChoiceBack:
		prev, ok := phase.Prev()
		if !ok {
			return stay(mode), true
		}
		return d.say(mode, prompts.SessionBackPhase, prompts.Data{Phase: prev},
			domain.AdvancePhase(prev)), true
	}
	return domain.TransitionResult{}, false
}

func (d *Dispatcher) complete(_ *domain.Context) domain.TransitionResult {
	return d.say(domain.ModeInline, prompts.SessionComplete, prompts.Data{},
		domain.CompleteSession(domain.DefaultDesignDoc),
		domain.Handoff(domain.HandoffImplement),
	)
}

func currentPhase(c *domain.Context) domain.Phase {
	if c.Design == nil || !c.Design.Phase.Valid() {
		return domain.PhaseDiscover
	}
	return c.Design.Phase
}
