package domain

// Guard predicates. All of them are pure reads of the context.

// InCooldown reports whether the cooldown of the given kind is still running for topic.
// A topic that never showed the checkpoint is not in cooldown.
func (c *Context) InCooldown(kind CooldownKind, topic string) bool {
	last, window := c.LastMicroStep, c.MicroCooldown
	if kind == CooldownNudge {
		last, window = c.LastNudgeStep, c.NudgeCooldown
	}
	at, ok := last[topic]
	if !ok {
		return false
	}
	return c.Step-at < window
}

// IterationThreshold maps a nudge sensitivity to its iteration threshold.
func IterationThreshold(s Sensitivity) int {
	switch s {
	case SensitivityHigh:
		return 2
	case SensitivityLow:
		return 4
	}
	return 3
}

// IterationThreshold returns the threshold for the context's sensitivity.
func (c *Context) IterationThreshold() int {
	return IterationThreshold(c.Preferences.NudgeSensitivity)
}

// HasEnoughIterations reports whether topic reached the nudge threshold.
func (c *Context) HasEnoughIterations(topic string) bool {
	return c.Iterations[topic] >= c.IterationThreshold()
}

// InDesign reports whether a design session or branch is running.
func (c *Context) InDesign() bool {
	return c.Mode.InDesign()
}

// HasActiveTrack reports whether an implementation track is in progress.
func (c *Context) HasActiveTrack() bool {
	return c.ActiveTrackID != ""
}

// PrefersBranch reports whether design changes would diverge from an active
// implementation, so a branch should be offered instead of an in-place session.
func (c *Context) PrefersBranch() bool {
	return c.HasActiveTrack() && c.Activity == ActivityImplementing
}

// CanFork reports whether a new branch may be created.
func (c *Context) CanFork() bool {
	return c.HasActiveTrack() && !c.Branch.InFlight()
}

// DesignModeFor maps a complexity score to a design mode:
// 7 and above is FULL, 3 and below is SPEED, otherwise the preference decides.
func DesignModeFor(score int, preference DesignMode) DesignMode {
	switch {
	case score >= 7:
		return DesignFull
	case score <= 3:
		return DesignSpeed
	}
	if !preference.Valid() {
		return DesignFull
	}
	return preference
}

// PhaseForArtifact maps the artifact that triggered a checkpoint to a starting phase.
func PhaseForArtifact(artifact ArtifactType) Phase {
	switch artifact {
	case ArtifactSpec:
		return PhaseDefine
	case ArtifactPlan, ArtifactCode:
		return PhaseDevelop
	}
	return PhaseDiscover
}
