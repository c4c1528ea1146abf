package runtime

import "github.com/aretw0/apc/pkg/domain"

// Edge is one mode-changing transition of the dispatcher.
// Guard describes the condition under which the edge is taken; empty means always.
type Edge struct {
	From  domain.Mode      `json:"from"`
	Event domain.EventType `json:"event"`
	To    domain.Mode      `json:"to"`
	Guard string           `json:"guard,omitempty"`
}

// Guard labels used by Transitions.
const (
	GuardMicroAllowed = "micro not suppressed, cooldown elapsed"
	GuardNudgeAllowed = "nudges not suppressed, threshold met, cooldown elapsed"
	GuardActiveTrack  = "active track"
	GuardCanFork      = "active track, no branch in flight"
	GuardLastPhase    = "at VERIFY"
)

// Transitions lists every edge that changes the mode. Self-loops are omitted.
func Transitions() []Edge {
	edges := []Edge{
		{domain.ModeInline, domain.EventCheckpointBoundary, domain.ModeMicroCheckpoint, GuardMicroAllowed},
		{domain.ModeInline, domain.EventIterationThreshold, domain.ModeNudge, GuardNudgeAllowed},
		{domain.ModeInline, domain.EventRethinkDetected, domain.ModeMicroCheckpoint, GuardActiveTrack},

		{domain.ModeMicroCheckpoint, domain.EventChoiceContinue, domain.ModeInline, ""},
		{domain.ModeMicroCheckpoint, domain.EventDecline, domain.ModeInline, ""},
		{domain.ModeMicroCheckpoint, domain.EventChoiceAdvanced, domain.ModeDesignSession, ""},
		{domain.ModeMicroCheckpoint, domain.EventChoiceParty, domain.ModeDesignSession, ""},

		{domain.ModeNudge, domain.EventAccept, domain.ModeDesignSession, ""},
		{domain.ModeNudge, domain.EventDecline, domain.ModeInline, ""},

		{domain.ModeDesignSession, domain.EventChoiceContinue, domain.ModeInline, GuardLastPhase},
		{domain.ModeDesignSession, domain.EventSessionComplete, domain.ModeInline, ""},
		{domain.ModeDesignSession, domain.EventExit, domain.ModeInline, ""},
		{domain.ModeDesignSession, domain.EventStartBranch, domain.ModeDesignBranch, GuardCanFork},

		{domain.ModeDesignBranch, domain.EventChoiceContinue, domain.ModeBranchMerge, GuardLastPhase},
		{domain.ModeDesignBranch, domain.EventSessionComplete, domain.ModeBranchMerge, ""},
		{domain.ModeDesignBranch, domain.EventBranchReady, domain.ModeBranchMerge, ""},
		{domain.ModeDesignBranch, domain.EventExit, domain.ModeInline, ""},

		{domain.ModeBranchMerge, domain.EventMergeOverwrite, domain.ModeInline, ""},
		{domain.ModeBranchMerge, domain.EventMergeNewTrack, domain.ModeInline, ""},
		{domain.ModeBranchMerge, domain.EventMergeDocumentOnly, domain.ModeInline, ""},
		{domain.ModeBranchMerge, domain.EventMergeCancel, domain.ModeInline, ""},
	}

	// Explicit commands apply from every mode.
	for _, m := range domain.Modes() {
		if m != domain.ModeDesignSession {
			edges = append(edges, Edge{m, domain.EventStartSession, domain.ModeDesignSession, ""})
		}
		switch m {
		case domain.ModeInline, domain.ModeMicroCheckpoint, domain.ModeNudge:
			edges = append(edges, Edge{m, domain.EventStartBranch, domain.ModeDesignBranch, GuardCanFork})
		}
	}
	return edges
}
