package runtime

import (
	"github.com/aretw0/apc/internal/prompts"
	"github.com/aretw0/apc/pkg/domain"
)

// startBranch forks a design branch from the active track.
//
// A session in progress is forked in place and keeps its phase. From any other
// mode a FULL session is opened at the phase hint, or DEVELOP.
// Only one branch may be in flight; further fork requests are rejected.
func (d *Dispatcher) startBranch(c *domain.Context, ev domain.Event) domain.TransitionResult {
	if !c.HasActiveTrack() {
		mode := domain.ModeInline
		if c.Mode.InDesign() || c.Mode == domain.ModeBranchMerge {
			mode = c.Mode
		}
		return d.say(mode, prompts.BranchNoTrack, prompts.Data{})
	}
	if !c.CanFork() {
		return d.say(c.Mode, prompts.BranchInFlight, prompts.Data{BranchID: c.Branch.BranchID})
	}

	track, scope := c.ActiveTrackID, ev.Summary()

	if c.Mode == domain.ModeDesignSession && c.Design != nil {
		return d.say(domain.ModeDesignBranch, prompts.SessionToBranch, prompts.Data{Track: track, Scope: scope},
			domain.StartBranch(track, scope))
	}

	phase, ok := ev.PhaseHint()
	if !ok {
		phase = domain.PhaseDevelop
	}
	return d.say(domain.ModeDesignBranch, prompts.BranchStart, prompts.Data{Track: track, Scope: scope},
		domain.StartBranch(track, scope),
		domain.StartSession(domain.DesignFull, phase, ev.Complexity(), scope, c.Topic(ev)),
	)
}

func (d *Dispatcher) readyToMerge(c *domain.Context) domain.TransitionResult {
	return d.say(domain.ModeBranchMerge, prompts.MergeOptions, prompts.Data{Scope: c.Branch.ScopeSummary},
		domain.SetBranchStatus(domain.BranchMergePending))
}

// merge resolves a finished branch. Only the four resolution events leave BRANCH_MERGE.
func (d *Dispatcher) merge(_ *domain.Context, ev domain.Event) domain.TransitionResult {
	switch ev.Type {
	case domain.EventMergeOverwrite:
		return d.say(domain.ModeInline, prompts.MergeOverwrite, prompts.Data{Strategy: domain.MergeOverwrite},
			domain.ExecuteMerge(domain.MergeOverwrite))

	case domain.EventMergeNewTrack:
		return d.say(domain.ModeInline, prompts.MergeNewTrack, prompts.Data{Strategy: domain.MergeNewTrack},
			domain.ExecuteMerge(domain.MergeNewTrack),
			domain.Handoff(domain.HandoffNewTrack),
		)

	case domain.EventMergeDocumentOnly:
		return d.say(domain.ModeInline, prompts.MergeDocumentOnly, prompts.Data{Strategy: domain.MergeDocumentOnly},
			domain.ExecuteMerge(domain.MergeDocumentOnly))

	case domain.EventMergeCancel:
		return d.say(domain.ModeInline, prompts.MergeCancelled, prompts.Data{},
			domain.SetBranchStatus(domain.BranchNone))
	}
	return stay(domain.ModeBranchMerge)
}
