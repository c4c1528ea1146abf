package domain

// DefaultTopic scopes cooldowns and iteration counts when no topic is active.
const DefaultTopic = "default"

// Process-wide cooldown defaults, in steps.
const (
	DefaultMicroCooldown = 3
	DefaultNudgeCooldown = 10
)

// Sensitivity scales the iteration threshold that triggers a nudge.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityNormal Sensitivity = "normal"
	SensitivityHigh   Sensitivity = "high"
)

// Activity describes what the assistant is currently doing for the user.
type Activity string

const (
	ActivityInline       Activity = "inline"
	ActivityImplementing Activity = "implementing"
	ActivityTracking     Activity = "tracking"
	ActivityDesigning    Activity = "designing"
)

// Preferences are caller-supplied and read-only to the dispatcher.
type Preferences struct {
	DefaultDesignMode DesignMode  `json:"default_design_mode" yaml:"default_design_mode" mapstructure:"default_design_mode"`
	NudgeSensitivity  Sensitivity `json:"nudge_sensitivity" yaml:"nudge_sensitivity" mapstructure:"nudge_sensitivity"`
	SuppressNudges    bool        `json:"suppress_nudges" yaml:"suppress_nudges" mapstructure:"suppress_nudges"`
	SuppressMicro     bool        `json:"suppress_micro" yaml:"suppress_micro" mapstructure:"suppress_micro"`
}

// DefaultPreferences returns FULL sessions, normal sensitivity, nothing suppressed.
func DefaultPreferences() Preferences {
	return Preferences{
		DefaultDesignMode: DesignFull,
		NudgeSensitivity:  SensitivityNormal,
	}
}

// DesignSession is the sub-state of a running design session or branch.
type DesignSession struct {
	Mode              DesignMode `json:"mode"`
	Phase             Phase      `json:"phase"`
	Checkpoint        Checkpoint `json:"checkpoint,omitempty"`
	LastChoice        Choice     `json:"last_choice,omitempty"`
	IterationsInPhase int        `json:"iterations_in_phase"`
	ComplexityScore   int        `json:"complexity_score"`
	SeedContext       string     `json:"seed_context,omitempty"`
}

// BranchStatus is the lifecycle status of a design branch.
type BranchStatus string

const (
	BranchNone         BranchStatus = "none"
	BranchProposed     BranchStatus = "proposed"
	BranchActive       BranchStatus = "active"
	BranchMergePending BranchStatus = "merge_pending"
	BranchAbandoned    BranchStatus = "abandoned"
)

// Branch is the sub-state of a design branch forked from an active track.
type Branch struct {
	Status        BranchStatus  `json:"status"`
	BranchID      string        `json:"branch_id,omitempty"`
	ParentTrackID string        `json:"parent_track_id,omitempty"`
	ScopeSummary  string        `json:"scope_summary,omitempty"`
	CreatedAtStep int           `json:"created_at_step,omitempty"`
	MergeStrategy MergeStrategy `json:"merge_strategy,omitempty"`
}

// InFlight reports whether a branch is active or waiting to be merged.
// A proposed branch does not block a new fork.
func (b Branch) InFlight() bool {
	return b.Status == BranchActive || b.Status == BranchMergePending
}

// CheckpointKind tells which prompt is currently open.
type CheckpointKind string

const (
	CheckpointMicro CheckpointKind = "micro"
	CheckpointNudge CheckpointKind = "nudge"
)

// Upgrade suggested by an open checkpoint.
const (
	UpgradeNone    = "none"
	UpgradeSession = "offer_ds"
	UpgradeBranch  = "offer_branch"
)

// CheckpointInfo remembers what triggered the currently open checkpoint.
type CheckpointInfo struct {
	Kind             CheckpointKind `json:"kind"`
	ArtifactType     ArtifactType   `json:"artifact_type,omitempty"`
	SuggestedUpgrade string         `json:"suggested_upgrade,omitempty"`
}

// Context is the per-conversation aggregate read by the dispatcher.
// The dispatcher never mutates it; Apply does.
type Context struct {
	Mode Mode `json:"mode"`
	Step int  `json:"step"`

	ActiveTrackID string   `json:"active_track_id,omitempty"`
	ActiveTopicID string   `json:"active_topic_id,omitempty"`
	Activity      Activity `json:"activity,omitempty"`

	Iterations    map[string]int `json:"iterations"`
	LastMicroStep map[string]int `json:"last_micro_step"`
	LastNudgeStep map[string]int `json:"last_nudge_step"`
	MicroCooldown int            `json:"micro_cooldown"`
	NudgeCooldown int            `json:"nudge_cooldown"`

	Design     *DesignSession  `json:"design,omitempty"`
	Branch     Branch          `json:"branch"`
	Checkpoint *CheckpointInfo `json:"checkpoint,omitempty"`

	Preferences Preferences `json:"preferences"`
}

// NewContext creates a context with the documented defaults: INLINE, step 0, empty maps.
func NewContext() *Context {
	return &Context{
		Mode:          ModeInline,
		Activity:      ActivityInline,
		Iterations:    make(map[string]int),
		LastMicroStep: make(map[string]int),
		LastNudgeStep: make(map[string]int),
		MicroCooldown: DefaultMicroCooldown,
		NudgeCooldown: DefaultNudgeCooldown,
		Branch:        Branch{Status: BranchNone},
		Preferences:   DefaultPreferences(),
	}
}

// Topic resolves the topic an event applies to: the event's own topic,
// then the active topic, then DefaultTopic.
func (c *Context) Topic(ev Event) string {
	if id := ev.TopicID(); id != "" {
		return id
	}
	if c.ActiveTopicID != "" {
		return c.ActiveTopicID
	}
	return DefaultTopic
}

// ActiveTopic returns the active topic or DefaultTopic.
func (c *Context) ActiveTopic() string {
	if c.ActiveTopicID != "" {
		return c.ActiveTopicID
	}
	return DefaultTopic
}

// Tick advances the step counter by one conversational turn.
func (c *Context) Tick() {
	c.Step++
}

// Clone returns a deep copy of c.
func (c *Context) Clone() *Context {
	if c == nil {
		return nil
	}
	out := *c
	out.Iterations = cloneCounts(c.Iterations)
	out.LastMicroStep = cloneCounts(c.LastMicroStep)
	out.LastNudgeStep = cloneCounts(c.LastNudgeStep)
	if c.Design != nil {
		d := *c.Design
		out.Design = &d
	}
	if c.Checkpoint != nil {
		cp := *c.Checkpoint
		out.Checkpoint = &cp
	}
	return &out
}

func cloneCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (c *Context) ensureMaps() {
	if c.Iterations == nil {
		c.Iterations = make(map[string]int)
	}
	if c.LastMicroStep == nil {
		c.LastMicroStep = make(map[string]int)
	}
	if c.LastNudgeStep == nil {
		c.LastNudgeStep = make(map[string]int)
	}
}
