package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/apc/pkg/adapters/memory"
	"github.com/aretw0/apc/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.Save(ctx, sid, domain.NewContext())
		_, _ = mgr.Update(ctx, sid, func(context.Context, *domain.Context) error { return nil })
		_ = mgr.Delete(ctx, sid)
	}

	assert.Zero(t, mgr.activeLocks(), "every session mutex must be released")
}

func TestManager_LockReleasedOnError(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	err := mgr.WithLock(context.Background(), "s", func(context.Context) error {
		require.Equal(t, 1, mgr.activeLocks())
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, mgr.activeLocks())
}
