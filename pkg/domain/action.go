package domain

// ActionKind identifies a side-effect the dispatcher requests from the host.
type ActionKind string

// Standard Action Kinds
const (
	// ActionStartSession creates the design-session sub-state.
	// Fields: DesignMode, Phase, Complexity, SeedContext, TopicID.
	ActionStartSession ActionKind = "START_DS"

	// ActionStartBranch forks a design branch from the active track.
	// Fields: TrackID, ScopeSummary.
	ActionStartBranch ActionKind = "START_BRANCH"

	// ActionShowCheckpoint asks the host to present the micro-checkpoint choices.
	// Fields: Options, ArtifactType.
	ActionShowCheckpoint ActionKind = "SHOW_CHECKPOINT"

	// ActionShowNudge asks the host to suggest a design session.
	// Fields: Message.
	ActionShowNudge ActionKind = "SHOW_NUDGE"

	// ActionAdvancePhase moves the design session to Phase (forward or back).
	ActionAdvancePhase ActionKind = "ADVANCE_DS_PHASE"

	// ActionCompleteSession closes the design session. Fields: DesignDoc.
	ActionCompleteSession ActionKind = "COMPLETE_DS"

	// ActionExecuteMerge reconciles a branch with its parent. Fields: Strategy.
	ActionExecuteMerge ActionKind = "EXECUTE_MERGE"

	// ActionSetCooldown records the current step for a cooldown class.
	// Fields: Cooldown, TopicID.
	ActionSetCooldown ActionKind = "SET_COOLDOWN"

	// ActionIncrementIterations bumps the iteration count of TopicID.
	ActionIncrementIterations ActionKind = "INCREMENT_ITERATIONS"

	// ActionHandoff asks the host to run a follow-up command. Fields: Command.
	ActionHandoff ActionKind = "HANDOFF"

	// ActionSetBranchStatus updates the branch sub-state status. Fields: BranchStatus.
	ActionSetBranchStatus ActionKind = "SET_BRANCH_STATUS"

	// ActionRecordChoice records a reply inside a design session. Fields: Choice.
	ActionRecordChoice ActionKind = "RECORD_CHOICE"
)

// Choice is a reply at a checkpoint.
type Choice string

const (
	ChoiceAdvanced Choice = "A"
	ChoiceParty    Choice = "P"
	ChoiceContinue Choice = "C"
	ChoiceBack     Choice = "BACK"
)

// Checkpoint option labels offered by ActionShowCheckpoint.
const (
	OptionAdvanced       = "A"
	OptionAdvancedBranch = "A_BRANCH"
	OptionParty          = "P"
	OptionContinue       = "C"
)

// MergeStrategy is how a finished branch is reconciled with its parent track.
type MergeStrategy string

const (
	MergeOverwrite    MergeStrategy = "overwrite"
	MergeNewTrack     MergeStrategy = "new_track"
	MergeDocumentOnly MergeStrategy = "document_only"
)

// CooldownKind selects which cooldown window applies.
type CooldownKind string

const (
	CooldownMicro CooldownKind = "micro"
	CooldownNudge CooldownKind = "nudge"
)

// HandoffCommand is a follow-up command the host should offer or run.
type HandoffCommand string

const (
	HandoffNewTrack  HandoffCommand = "cn" // create a new track from the design
	HandoffImplement HandoffCommand = "ci" // implement in the current track
	HandoffFileIssue HandoffCommand = "fb" // file work items from the design
)

// DefaultDesignDoc is the artifact name reported by ActionCompleteSession.
const DefaultDesignDoc = "design.md"

// Action is a side-effect description. Only the fields documented for its Kind are set.
type Action struct {
	Kind ActionKind `json:"kind"`

	DesignMode   DesignMode     `json:"design_mode,omitempty"`
	Phase        Phase          `json:"phase,omitempty"`
	Complexity   int            `json:"complexity,omitempty"`
	SeedContext  string         `json:"seed_context,omitempty"`
	TrackID      string         `json:"track_id,omitempty"`
	ScopeSummary string         `json:"scope_summary,omitempty"`
	Options      []string       `json:"options,omitempty"`
	ArtifactType ArtifactType   `json:"artifact_type,omitempty"`
	Message      string         `json:"message,omitempty"`
	DesignDoc    string         `json:"design_doc,omitempty"`
	Strategy     MergeStrategy  `json:"strategy,omitempty"`
	Cooldown     CooldownKind   `json:"cooldown,omitempty"`
	TopicID      string         `json:"topic_id,omitempty"`
	Command      HandoffCommand `json:"command,omitempty"`
	BranchStatus BranchStatus   `json:"branch_status,omitempty"`
	Choice       Choice         `json:"choice,omitempty"`
}

func StartSession(mode DesignMode, phase Phase, complexity int, seed, topic string) Action {
	return Action{
		Kind:        ActionStartSession,
		DesignMode:  mode,
		Phase:       phase,
		Complexity:  complexity,
		SeedContext: seed,
		TopicID:     topic,
	}
}

func StartBranch(trackID, scope string) Action {
	return Action{Kind: ActionStartBranch, TrackID: trackID, ScopeSummary: scope}
}

func ShowCheckpoint(options []string, artifact ArtifactType) Action {
	return Action{Kind: ActionShowCheckpoint, Options: options, ArtifactType: artifact}
}

func ShowNudge(message string) Action {
	return Action{Kind: ActionShowNudge, Message: message}
}

func AdvancePhase(phase Phase) Action {
	return Action{Kind: ActionAdvancePhase, Phase: phase}
}

func CompleteSession(designDoc string) Action {
	return Action{Kind: ActionCompleteSession, DesignDoc: designDoc}
}

func ExecuteMerge(strategy MergeStrategy) Action {
	return Action{Kind: ActionExecuteMerge, Strategy: strategy}
}

func SetCooldown(kind CooldownKind, topic string) Action {
	return Action{Kind: ActionSetCooldown, Cooldown: kind, TopicID: topic}
}

func IncrementIterations(topic string) Action {
	return Action{Kind: ActionIncrementIterations, TopicID: topic}
}

func Handoff(cmd HandoffCommand) Action {
	return Action{Kind: ActionHandoff, Command: cmd}
}

func SetBranchStatus(status BranchStatus) Action {
	return Action{Kind: ActionSetBranchStatus, BranchStatus: status}
}

func RecordChoice(choice Choice) Action {
	return Action{Kind: ActionRecordChoice, Choice: choice}
}
