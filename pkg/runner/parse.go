package runner

import (
	"strings"

	"github.com/aretw0/apc/pkg/domain"
)

// InputKind classifies one line of user input.
type InputKind int

const (
	// InputText is free text, handed to passive detection.
	InputText InputKind = iota
	// InputEvent is an explicit reply token mapped to a dispatcher event.
	InputEvent
	// InputCheckpoint reports that an artifact was just produced.
	InputCheckpoint
	// InputTrack sets (or clears) the active track: "/track <id>".
	InputTrack
	// InputTopic sets (or clears) the active topic: "/topic <id>".
	InputTopic
)

func (k InputKind) String() string {
	switch k {
	case InputEvent:
		return "event"
	case InputCheckpoint:
		return "checkpoint"
	case InputTrack:
		return "track"
	case InputTopic:
		return "topic"
	}
	return "text"
}

// Input is the parsed form of a user line.
type Input struct {
	Kind     InputKind
	Event    domain.Event
	Artifact domain.ArtifactType
	Arg      string
	Text     string
}

var replies = map[string]domain.EventType{
	"a":          domain.EventChoiceAdvanced,
	"advanced":   domain.EventChoiceAdvanced,
	"p":          domain.EventChoiceParty,
	"party":      domain.EventChoiceParty,
	"c":          domain.EventChoiceContinue,
	"continue":   domain.EventChoiceContinue,
	"back":       domain.EventChoiceBack,
	"↩":          domain.EventChoiceBack,
	"yes":        domain.EventAccept,
	"y":          domain.EventAccept,
	"no":         domain.EventDecline,
	"n":          domain.EventDecline,
	"not now":    domain.EventDecline,
	"exit":       domain.EventExit,
	"phase done": domain.EventPhaseComplete,
	"done":       domain.EventSessionComplete,
	"merge":      domain.EventBranchReady,
	"m1":         domain.EventMergeOverwrite,
	"m2":         domain.EventMergeNewTrack,
	"m3":         domain.EventMergeDocumentOnly,
	"cancel":     domain.EventMergeCancel,
}

var artifacts = map[string]domain.ArtifactType{
	"spec":       domain.ArtifactSpec,
	"plan":       domain.ArtifactPlan,
	"design-doc": domain.ArtifactDesignDoc,
	"design":     domain.ArtifactDesignDoc,
	"code":       domain.ArtifactCode,
}

// ParseInput maps a sanitized line to an event or host directive.
// Tokens are case-insensitive and may be wrapped in brackets ("[C]").
// Anything that is not a token is InputText.
func ParseInput(c *domain.Context, line string) Input {
	text := strings.TrimSpace(line)
	raw := strings.TrimSpace(strings.Trim(text, "[]"))
	norm := strings.ToLower(raw)
	head, rest, _ := strings.Cut(norm, " ")
	rest = strings.TrimSpace(rest)
	// Arguments keep their original case.
	_, arg, _ := strings.Cut(raw, " ")
	arg = strings.TrimSpace(arg)

	switch head {
	case "ds":
		ev := domain.NewEvent(domain.EventStartSession)
		ev.Payload.Summary = arg
		return Input{Kind: InputEvent, Event: ev, Text: text}

	case "branch":
		return Input{Kind: InputEvent, Event: branchEvent(c, arg), Text: text}

	case "checkpoint":
		artifact, known := artifacts[rest]
		if rest == "" || known {
			return Input{Kind: InputCheckpoint, Artifact: artifact, Arg: arg, Text: text}
		}

	case "/track":
		return Input{Kind: InputTrack, Arg: arg, Text: text}

	case "/topic":
		return Input{Kind: InputTopic, Arg: arg, Text: text}
	}

	t, ok := replies[norm]
	if !ok {
		return Input{Kind: InputText, Text: text}
	}
	// [A] on a checkpoint that offered a branch forks instead of upgrading.
	if t == domain.EventChoiceAdvanced && offersBranch(c) {
		return Input{Kind: InputEvent, Event: branchEvent(c, ""), Text: text}
	}
	return Input{Kind: InputEvent, Event: domain.NewEvent(t), Text: text}
}

func branchEvent(c *domain.Context, scope string) domain.Event {
	ev := domain.NewEvent(domain.EventStartBranch)
	ev.Payload.Summary = scope
	if c != nil {
		ev.Payload.TrackID = c.ActiveTrackID
	}
	return ev
}

func offersBranch(c *domain.Context) bool {
	return c != nil &&
		c.Mode == domain.ModeMicroCheckpoint &&
		c.Checkpoint != nil &&
		c.Checkpoint.SuggestedUpgrade == domain.UpgradeBranch &&
		c.HasActiveTrack()
}
