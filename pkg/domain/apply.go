package domain

import "fmt"

// ApplyOptions configures how action records mutate a context.
type ApplyOptions struct {
	// NewBranchID allocates an identifier for ActionStartBranch.
	// Defaults to a step-derived id.
	NewBranchID func() string

	// ResetIterations clears the topic's iteration count when a session starts.
	ResetIterations bool
}

// Apply interprets every action of r against c and then moves c to r.Mode.
// HANDOFF and COMPLETE_DS carry no context mutation beyond closing the checkpoint;
// the host executes them.
func Apply(c *Context, r TransitionResult, opts ApplyOptions) {
	ApplyActions(c, r.Actions, opts)
	if r.Mode.Valid() {
		c.Mode = r.Mode
	}
	if c.Mode != ModeMicroCheckpoint && c.Mode != ModeNudge {
		c.Checkpoint = nil
	}
}

// ApplyActions interprets actions against c without changing its mode.
func ApplyActions(c *Context, actions []Action, opts ApplyOptions) {
	c.ensureMaps()
	for _, a := range actions {
		applyAction(c, a, opts)
	}
}

func applyAction(c *Context, a Action, opts ApplyOptions) {
	switch a.Kind {
	case ActionStartSession:
		c.Design = &DesignSession{
			Mode:            a.DesignMode,
			Phase:           a.Phase,
			Checkpoint:      a.Phase.Checkpoint(),
			ComplexityScore: a.Complexity,
			SeedContext:     a.SeedContext,
		}
		c.Checkpoint = nil
		if opts.ResetIterations && a.TopicID != "" {
			c.Iterations[a.TopicID] = 0
		}

	case ActionStartBranch:
		id := fmt.Sprintf("branch-%d", c.Step)
		if opts.NewBranchID != nil {
			id = opts.NewBranchID()
		}
		c.Branch = Branch{
			Status:        BranchActive,
			BranchID:      id,
			ParentTrackID: a.TrackID,
			ScopeSummary:  a.ScopeSummary,
			CreatedAtStep: c.Step,
		}
		c.Checkpoint = nil

	case ActionShowCheckpoint:
		upgrade := UpgradeSession
		for _, opt := range a.Options {
			if opt == OptionAdvancedBranch {
				upgrade = UpgradeBranch
			}
		}
		c.Checkpoint = &CheckpointInfo{
			Kind:             CheckpointMicro,
			ArtifactType:     a.ArtifactType,
			SuggestedUpgrade: upgrade,
		}

	case ActionShowNudge:
		c.Checkpoint = &CheckpointInfo{Kind: CheckpointNudge, SuggestedUpgrade: UpgradeSession}

	case ActionAdvancePhase:
		if c.Design != nil && a.Phase.Valid() {
			c.Design.Phase = a.Phase
			c.Design.Checkpoint = a.Phase.Checkpoint()
			c.Design.IterationsInPhase = 0
			c.Design.LastChoice = ""
		}

	case ActionRecordChoice:
		if c.Design != nil {
			c.Design.LastChoice = a.Choice
			c.Design.IterationsInPhase++
		}

	case ActionCompleteSession, ActionHandoff:
		c.Checkpoint = nil

	case ActionExecuteMerge:
		c.Branch.MergeStrategy = a.Strategy
		c.Branch.Status = BranchNone

	case ActionSetCooldown:
		m := c.LastMicroStep
		if a.Cooldown == CooldownNudge {
			m = c.LastNudgeStep
		}
		if prev, ok := m[a.TopicID]; !ok || prev < c.Step {
			m[a.TopicID] = c.Step
		}
		c.Checkpoint = nil

	case ActionIncrementIterations:
		c.Iterations[a.TopicID]++

	case ActionSetBranchStatus:
		c.Branch.Status = a.BranchStatus
	}
}
