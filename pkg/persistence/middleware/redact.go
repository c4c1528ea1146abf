package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/apc/pkg/domain"
	"github.com/aretw0/apc/pkg/ports"
)

// Mask replaces redacted text.
const Mask = "***"

// DefaultRedactPatterns catch e-mail addresses and common secret shapes.
var DefaultRedactPatterns = []string{
	`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`,
	`(?i)(api[_-]?key|token|password|secret)\s*[:=]\s*\S+`,
}

type redactMiddleware struct {
	next     ports.ContextStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks every match of the patterns in the free-text fields
// before they reach the store. Redaction is one-way: Load returns the masked text.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.ContextStore) ports.ContextStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, sessionID string, c *domain.Context) error {
	// The caller keeps using c, so mask a copy.
	masked := c.Clone()
	for _, field := range textFields(masked) {
		for _, re := range m.patterns {
			*field = re.ReplaceAllString(*field, Mask)
		}
	}
	return m.next.Save(ctx, sessionID, masked)
}

func (m *redactMiddleware) Load(ctx context.Context, sessionID string) (*domain.Context, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
