package domain

// EventType identifies what happened in the conversation.
type EventType string

const (
	// Explicit commands
	EventStartSession EventType = "CMD_DS"
	EventStartBranch  EventType = "CMD_DS_BRANCH"

	// Passive triggers
	EventCheckpointBoundary EventType = "CHECKPOINT_BOUNDARY"
	EventIterationThreshold EventType = "ITERATION_THRESHOLD"
	EventRethinkDetected    EventType = "DESIGN_RETHINK_DETECTED"

	// User replies
	EventChoiceAdvanced EventType = "USER_CHOICE_A"
	EventChoiceParty    EventType = "USER_CHOICE_P"
	EventChoiceContinue EventType = "USER_CHOICE_C"
	EventChoiceBack     EventType = "USER_CHOICE_BACK"
	EventAccept         EventType = "USER_ACCEPT"
	EventDecline        EventType = "USER_DECLINE"
	EventExit           EventType = "USER_EXIT_DS"

	// Session lifecycle
	EventPhaseComplete   EventType = "DS_PHASE_COMPLETE"
	EventSessionComplete EventType = "DS_SESSION_COMPLETE"
	EventBranchReady     EventType = "BRANCH_READY_TO_MERGE"

	// Merge resolutions
	EventMergeOverwrite    EventType = "MERGE_OVERWRITE"
	EventMergeNewTrack     EventType = "MERGE_NEW_TRACK"
	EventMergeDocumentOnly EventType = "MERGE_DOCUMENT_ONLY"
	EventMergeCancel       EventType = "MERGE_CANCEL"
)

var allEventTypes = []EventType{
	EventStartSession, EventStartBranch,
	EventCheckpointBoundary, EventIterationThreshold, EventRethinkDetected,
	EventChoiceAdvanced, EventChoiceParty, EventChoiceContinue, EventChoiceBack,
	EventAccept, EventDecline, EventExit,
	EventPhaseComplete, EventSessionComplete, EventBranchReady,
	EventMergeOverwrite, EventMergeNewTrack, EventMergeDocumentOnly, EventMergeCancel,
}

// EventTypes returns every known event type.
func EventTypes() []EventType {
	out := make([]EventType, len(allEventTypes))
	copy(out, allEventTypes)
	return out
}

// Passive reports whether t is a heuristic trigger rather than a user decision.
func (t EventType) Passive() bool {
	switch t {
	case EventCheckpointBoundary, EventIterationThreshold, EventRethinkDetected:
		return true
	}
	return false
}

// Command reports whether t is an explicit user command.
func (t EventType) Command() bool {
	return t == EventStartSession || t == EventStartBranch
}

// ArtifactType is the kind of artifact that was just produced in the conversation.
type ArtifactType string

const (
	ArtifactSpec      ArtifactType = "spec"
	ArtifactPlan      ArtifactType = "plan"
	ArtifactDesignDoc ArtifactType = "design-doc"
	ArtifactCode      ArtifactType = "code"
)

// DefaultComplexity is used when an event carries no complexity score.
const DefaultComplexity = 5

// Payload carries the optional event fields. Unknown fields are ignored on decode.
type Payload struct {
	TopicID         string       `json:"topic_id,omitempty" yaml:"topic_id,omitempty" mapstructure:"topic_id"`
	TrackID         string       `json:"track_id,omitempty" yaml:"track_id,omitempty" mapstructure:"track_id"`
	ArtifactType    ArtifactType `json:"artifact_type,omitempty" yaml:"artifact_type,omitempty" mapstructure:"artifact_type"`
	ComplexityScore *int         `json:"complexity_score,omitempty" yaml:"complexity_score,omitempty" mapstructure:"complexity_score"`
	PhaseHint       Phase        `json:"phase_hint,omitempty" yaml:"phase_hint,omitempty" mapstructure:"phase_hint"`
	Summary         string       `json:"summary,omitempty" yaml:"summary,omitempty" mapstructure:"summary"`
}

// Event is the tagged record consumed by the dispatcher.
type Event struct {
	Type    EventType `json:"type" yaml:"type" mapstructure:"type"`
	Payload *Payload  `json:"payload,omitempty" yaml:"payload,omitempty" mapstructure:"payload"`
}

// NewEvent creates an event of the given type with an empty payload.
func NewEvent(t EventType) Event {
	return Event{Type: t, Payload: &Payload{}}
}

// TopicID returns the payload topic, or "".
func (e Event) TopicID() string {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.TopicID
}

// ArtifactType returns the payload artifact type, or "".
func (e Event) ArtifactType() ArtifactType {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.ArtifactType
}

// PhaseHint returns the payload phase hint when it names a canonical phase.
func (e Event) PhaseHint() (Phase, bool) {
	if e.Payload == nil || !e.Payload.PhaseHint.Valid() {
		return "", false
	}
	return e.Payload.PhaseHint, true
}

// Summary returns the payload free-text summary, or "".
func (e Event) Summary() string {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Summary
}

// Complexity returns the payload complexity score clamped to 0..10,
// or DefaultComplexity when absent.
func (e Event) Complexity() int {
	if e.Payload == nil || e.Payload.ComplexityScore == nil {
		return DefaultComplexity
	}
	score := *e.Payload.ComplexityScore
	switch {
	case score < 0:
		return 0
	case score > 10:
		return 10
	}
	return score
}
