package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/apc/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunContextStoreContract runs a suite of tests to verify that a ContextStore implementation
// adheres to the defined interface contract.
func RunContextStoreContract(t *testing.T, store ContextStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		c := domain.NewContext()
		c.Mode = domain.ModeDesignBranch
		c.Step = 12
		c.ActiveTrackID = "track-1"
		c.Iterations["auth"] = 3
		c.LastMicroStep["auth"] = 4
		c.Design = &domain.DesignSession{Mode: domain.DesignFull, Phase: domain.PhaseDevelop, Checkpoint: domain.CheckpointCP3}
		c.Branch = domain.Branch{Status: domain.BranchActive, BranchID: "b-1", ParentTrackID: "track-1", ScopeSummary: "auth flow", CreatedAtStep: 10}

		err := store.Save(ctx, sessionID, c)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, c.Mode, loaded.Mode)
		assert.Equal(t, c.Step, loaded.Step)
		assert.Equal(t, 3, loaded.Iterations["auth"])
		assert.Equal(t, 4, loaded.LastMicroStep["auth"])
		require.NotNil(t, loaded.Design)
		assert.Equal(t, domain.PhaseDevelop, loaded.Design.Phase)
		assert.Equal(t, c.Branch, loaded.Branch)
		assert.NoError(t, loaded.Validate())
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		c := domain.NewContext()
		c.Step = 99
		require.NoError(t, store.Save(ctx, sessionID, c))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 99, loaded.Step)
		assert.Nil(t, loaded.Design)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewContext())
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewContext())
		_ = store.Save(ctx, id2, domain.NewContext())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
