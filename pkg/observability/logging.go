package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/apc/pkg/domain"
)

// LogHooks returns lifecycle hooks that log every event at Info.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.InfoContext(ctx, "transition",
				"from", e.From,
				"to", e.To,
				"event", e.Event,
				"topic", e.Topic,
				"prompt_id", e.PromptID,
			)
		},
		OnDetect: func(ctx context.Context, e *domain.DetectionEvent) {
			if !e.Rethink && !e.Iteration {
				return
			}
			logger.InfoContext(ctx, "detect",
				"topic", e.Topic,
				"rethink", e.Rethink,
				"iteration", e.Iteration,
				"events", e.Events,
			)
		},
		OnAction: func(ctx context.Context, e *domain.ActionEvent) {
			logger.InfoContext(ctx, "action", "mode", e.Mode, "kind", e.Action.Kind)
		},
	}
}
