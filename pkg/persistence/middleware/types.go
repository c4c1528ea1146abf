// Package middleware wraps a ContextStore to transform contexts on their way
// to and from storage: encrypting and redacting the free-text fields users type.
package middleware

import (
	"github.com/aretw0/apc/pkg/domain"
	"github.com/aretw0/apc/pkg/ports"
)

// Middleware allows wrapping a ContextStore to add behavior.
type Middleware func(ports.ContextStore) ports.ContextStore

// Chain wraps store so that the first middleware sees calls first.
func Chain(store ports.ContextStore, mws ...Middleware) ports.ContextStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

// textFields returns pointers to the free-text fields of c: the design seed and
// the branch scope summary. Everything else is an enum, id or counter.
func textFields(c *domain.Context) []*string {
	fields := []*string{&c.Branch.ScopeSummary}
	if c.Design != nil {
		fields = append(fields, &c.Design.SeedContext)
	}
	return fields
}
