package ports

import (
	"context"

	"github.com/aretw0/apc/pkg/detect"
	"github.com/aretw0/apc/pkg/domain"
)

// Coordinator is the stateless design-support engine as seen by adapters (runner, HTTP, MCP).
// Conversation state is owned by the caller and passed in on every call.
type Coordinator interface {
	// NewContext creates a conversation context with the engine's defaults.
	NewContext() *domain.Context

	// Step resolves one event without mutating the context.
	Step(ctx context.Context, c *domain.Context, ev domain.Event) domain.TransitionResult

	// Detect classifies free text into passive trigger events.
	Detect(ctx context.Context, c *domain.Context, text string) detect.Detection

	// CheckpointBoundary proposes a checkpoint-boundary event after an artifact was produced.
	CheckpointBoundary(c *domain.Context, artifact domain.ArtifactType) (domain.Event, bool)

	// Apply interprets a transition result against the context.
	Apply(ctx context.Context, c *domain.Context, r domain.TransitionResult)

	// ApplyActions interprets action records without changing the mode.
	ApplyActions(ctx context.Context, c *domain.Context, actions []domain.Action)

	// Mermaid renders the mode machine, highlighting the context's mode if c is not nil.
	Mermaid(c *domain.Context) string
}
