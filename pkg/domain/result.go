package domain

// TransitionResult is what the dispatcher returns for one event.
type TransitionResult struct {
	// Mode is the mode the conversation should be in after the event.
	Mode Mode `json:"mode"`

	// Prompt is the user-facing text to render, if any.
	Prompt string `json:"prompt,omitempty"`

	// PromptID identifies the template Prompt was rendered from ("MODE/case").
	PromptID string `json:"prompt_id,omitempty"`

	// Actions are the side-effects the host must apply, in order.
	Actions []Action `json:"actions,omitempty"`
}

// Find returns the first action of the given kind.
func (r TransitionResult) Find(kind ActionKind) (Action, bool) {
	for _, a := range r.Actions {
		if a.Kind == kind {
			return a, true
		}
	}
	return Action{}, false
}

// Has reports whether the result requests an action of the given kind.
func (r TransitionResult) Has(kind ActionKind) bool {
	_, ok := r.Find(kind)
	return ok
}

// Kinds lists the action kinds in order.
func (r TransitionResult) Kinds() []ActionKind {
	out := make([]ActionKind, 0, len(r.Actions))
	for _, a := range r.Actions {
		out = append(out, a.Kind)
	}
	return out
}
