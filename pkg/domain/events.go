package domain

import (
	"context"
	"time"
)

// TransitionEvent describes one dispatched event.
type TransitionEvent struct {
	Timestamp time.Time    `json:"timestamp"`
	From      Mode         `json:"from"`
	To        Mode         `json:"to"`
	Event     EventType    `json:"event"`
	Topic     string       `json:"topic"`
	PromptID  string       `json:"prompt_id,omitempty"`
	Actions   []ActionKind `json:"actions,omitempty"`
}

// DetectionEvent describes one run of the passive trigger detector.
type DetectionEvent struct {
	Timestamp time.Time   `json:"timestamp"`
	Topic     string      `json:"topic"`
	Rethink   bool        `json:"rethink"`
	Iteration bool        `json:"iteration"`
	Events    []EventType `json:"events,omitempty"`
}

// ActionEvent describes one action applied to a context.
type ActionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Mode      Mode      `json:"mode"`
	Action    Action    `json:"action"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnDetect     func(context.Context, *DetectionEvent)
	OnAction     func(context.Context, *ActionEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition: chain(h.OnTransition, other.OnTransition),
		OnDetect:     chain(h.OnDetect, other.OnDetect),
		OnAction:     chain(h.OnAction, other.OnAction),
	}
}

func chain[T any](a, b func(context.Context, *T)) func(context.Context, *T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *T) {
		a(ctx, e)
		b(ctx, e)
	}
}
