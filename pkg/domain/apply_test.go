package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_StartSession(t *testing.T) {
	c := NewContext()
	c.Iterations["auth"] = 4
	c.Checkpoint = &CheckpointInfo{Kind: CheckpointNudge}

	Apply(c, TransitionResult{
		Mode:    ModeDesignSession,
		Actions: []Action{StartSession(DesignSpeed, PhaseDefine, 2, "seed", "auth")},
	}, ApplyOptions{ResetIterations: true})

	assert.Equal(t, ModeDesignSession, c.Mode)
	require.NotNil(t, c.Design)
	assert.Equal(t, DesignSpeed, c.Design.Mode)
	assert.Equal(t, PhaseDefine, c.Design.Phase)
	assert.Equal(t, CheckpointCP2, c.Design.Checkpoint)
	assert.Equal(t, 2, c.Design.ComplexityScore)
	assert.Equal(t, "seed", c.Design.SeedContext)
	assert.Nil(t, c.Checkpoint)
	assert.Equal(t, 0, c.Iterations["auth"])
	assert.NoError(t, c.Validate())
}

func TestApply_StartSession_KeepsIterationsByDefault(t *testing.T) {
	c := NewContext()
	c.Iterations["auth"] = 4

	Apply(c, TransitionResult{
		Mode:    ModeDesignSession,
		Actions: []Action{StartSession(DesignFull, PhaseDiscover, 5, "", "auth")},
	}, ApplyOptions{})

	assert.Equal(t, 4, c.Iterations["auth"])
}

func TestApply_StartBranch(t *testing.T) {
	c := NewContext()
	c.Step = 9
	c.ActiveTrackID = "track-7"

	Apply(c, TransitionResult{
		Mode: ModeDesignBranch,
		Actions: []Action{
			StartBranch("track-7", "auth flow"),
			StartSession(DesignFull, PhaseDevelop, 5, "", DefaultTopic),
		},
	}, ApplyOptions{NewBranchID: func() string { return "b-1" }})

	assert.Equal(t, Branch{
		Status:        BranchActive,
		BranchID:      "b-1",
		ParentTrackID: "track-7",
		ScopeSummary:  "auth flow",
		CreatedAtStep: 9,
	}, c.Branch)
	assert.NoError(t, c.Validate())
}

func TestApply_StartBranch_DefaultID(t *testing.T) {
	c := NewContext()
	c.Step = 4
	ApplyActions(c, []Action{StartBranch("t", "")}, ApplyOptions{})
	assert.Equal(t, "branch-4", c.Branch.BranchID)
}

func TestApply_Checkpoints(t *testing.T) {
	c := NewContext()
	ApplyActions(c, []Action{ShowCheckpoint([]string{OptionAdvancedBranch, OptionParty, OptionContinue}, ArtifactPlan)}, ApplyOptions{})
	require.NotNil(t, c.Checkpoint)
	assert.Equal(t, CheckpointMicro, c.Checkpoint.Kind)
	assert.Equal(t, ArtifactPlan, c.Checkpoint.ArtifactType)
	assert.Equal(t, UpgradeBranch, c.Checkpoint.SuggestedUpgrade)

	ApplyActions(c, []Action{ShowNudge("hi")}, ApplyOptions{})
	assert.Equal(t, CheckpointNudge, c.Checkpoint.Kind)
}

func TestApply_Cooldown_Monotonic(t *testing.T) {
	c := NewContext()
	c.Step = 10
	c.LastMicroStep["auth"] = 12 // stale value from a buggy caller

	ApplyActions(c, []Action{SetCooldown(CooldownMicro, "auth")}, ApplyOptions{})
	assert.Equal(t, 12, c.LastMicroStep["auth"], "never moves backwards")

	c.Step = 20
	ApplyActions(c, []Action{SetCooldown(CooldownMicro, "auth"), SetCooldown(CooldownNudge, "auth")}, ApplyOptions{})
	assert.Equal(t, 20, c.LastMicroStep["auth"])
	assert.Equal(t, 20, c.LastNudgeStep["auth"])
}

func TestApply_PhaseAndChoices(t *testing.T) {
	c := NewContext()
	Apply(c, TransitionResult{
		Mode:    ModeDesignSession,
		Actions: []Action{StartSession(DesignFull, PhaseDiscover, 5, "", DefaultTopic)},
	}, ApplyOptions{})

	ApplyActions(c, []Action{RecordChoice(ChoiceAdvanced), RecordChoice(ChoiceParty)}, ApplyOptions{})
	assert.Equal(t, ChoiceParty, c.Design.LastChoice)
	assert.Equal(t, 2, c.Design.IterationsInPhase)

	ApplyActions(c, []Action{AdvancePhase(PhaseDefine)}, ApplyOptions{})
	assert.Equal(t, PhaseDefine, c.Design.Phase)
	assert.Equal(t, CheckpointCP2, c.Design.Checkpoint)
	assert.Equal(t, 0, c.Design.IterationsInPhase)
	assert.Empty(t, c.Design.LastChoice)

	ApplyActions(c, []Action{AdvancePhase("NOPE")}, ApplyOptions{})
	assert.Equal(t, PhaseDefine, c.Design.Phase, "invalid phases are ignored")
}

func TestApply_MergeResetsBranch(t *testing.T) {
	for _, strategy := range []MergeStrategy{MergeOverwrite, MergeNewTrack, MergeDocumentOnly} {
		t.Run(string(strategy), func(t *testing.T) {
			c := NewContext()
			c.Mode = ModeBranchMerge
			c.Branch = Branch{Status: BranchMergePending, BranchID: "b"}

			Apply(c, TransitionResult{Mode: ModeInline, Actions: []Action{ExecuteMerge(strategy)}}, ApplyOptions{})

			assert.Equal(t, ModeInline, c.Mode)
			assert.Equal(t, BranchNone, c.Branch.Status)
			assert.Equal(t, strategy, c.Branch.MergeStrategy)
		})
	}
}

func TestApply_IgnoresUnknownMode(t *testing.T) {
	c := NewContext()
	Apply(c, TransitionResult{Mode: "BROKEN"}, ApplyOptions{})
	assert.Equal(t, ModeInline, c.Mode)
}

func TestApply_NilMaps(t *testing.T) {
	c := &Context{Mode: ModeInline}
	ApplyActions(c, []Action{IncrementIterations("x"), SetCooldown(CooldownNudge, "x")}, ApplyOptions{})
	assert.Equal(t, 1, c.Iterations["x"])
	assert.Equal(t, 0, c.LastNudgeStep["x"])
}

func TestValidate(t *testing.T) {
	t.Run("Defaults are valid", func(t *testing.T) {
		assert.NoError(t, NewContext().Validate())
	})

	t.Run("Design mode without session", func(t *testing.T) {
		c := NewContext()
		c.Mode = ModeDesignSession
		err := c.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidContext))
		assert.Contains(t, err.Error(), "requires a design session")
	})

	t.Run("Branch mode with wrong status", func(t *testing.T) {
		c := NewContext()
		c.Mode = ModeDesignBranch
		c.Design = &DesignSession{Mode: DesignFull, Phase: PhaseDevelop}
		assert.ErrorIs(t, c.Validate(), ErrInvalidContext)

		c.Branch.Status = BranchActive
		assert.NoError(t, c.Validate())
	})

	t.Run("Merge mode requires merge_pending", func(t *testing.T) {
		c := NewContext()
		c.Mode = ModeBranchMerge
		assert.Error(t, c.Validate())
		c.Branch.Status = BranchMergePending
		assert.NoError(t, c.Validate())
	})

	t.Run("Cooldown ahead of step", func(t *testing.T) {
		c := NewContext()
		c.Step = 2
		c.LastNudgeStep["a"] = 5
		assert.ErrorContains(t, c.Validate(), "ahead of step")
	})

	t.Run("Unknown mode", func(t *testing.T) {
		c := NewContext()
		c.Mode = "LIMBO"
		assert.ErrorContains(t, c.Validate(), "unknown mode")
	})
}

func TestClone_IsDeep(t *testing.T) {
	c := NewContext()
	c.Iterations["a"] = 1
	c.Design = &DesignSession{Phase: PhaseDefine}
	c.Checkpoint = &CheckpointInfo{Kind: CheckpointMicro}

	cp := c.Clone()
	cp.Iterations["a"] = 9
	cp.Design.Phase = PhaseVerify
	cp.Checkpoint.Kind = CheckpointNudge

	assert.Equal(t, 1, c.Iterations["a"])
	assert.Equal(t, PhaseDefine, c.Design.Phase)
	assert.Equal(t, CheckpointMicro, c.Checkpoint.Kind)
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := LifecycleHooks{OnTransition: func(_ context.Context, _ *TransitionEvent) { calls = append(calls, "a") }}
	b := LifecycleHooks{OnTransition: func(_ context.Context, _ *TransitionEvent) { calls = append(calls, "b") }}

	merged := a.Merge(b)
	merged.OnTransition(context.Background(), &TransitionEvent{})
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Nil(t, merged.OnDetect)
}
