package domain

// Mode is the top-level operating state of the coordinator.
// Exactly one Mode is active per conversation.
type Mode string

const (
	ModeInline          Mode = "INLINE"
	ModeMicroCheckpoint Mode = "MICRO_CHECKPOINT"
	ModeNudge           Mode = "NUDGE"
	ModeDesignSession   Mode = "DESIGN_SESSION"
	ModeDesignBranch    Mode = "DESIGN_BRANCH"
	ModeBranchMerge     Mode = "BRANCH_MERGE"
)

var allModes = []Mode{
	ModeInline,
	ModeMicroCheckpoint,
	ModeNudge,
	ModeDesignSession,
	ModeDesignBranch,
	ModeBranchMerge,
}

// Modes returns every mode in declaration order.
func Modes() []Mode {
	out := make([]Mode, len(allModes))
	copy(out, allModes)
	return out
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	for _, known := range allModes {
		if m == known {
			return true
		}
	}
	return false
}

// InDesign reports whether m is a structured design mode (session or branch).
func (m Mode) InDesign() bool {
	return m == ModeDesignSession || m == ModeDesignBranch
}
