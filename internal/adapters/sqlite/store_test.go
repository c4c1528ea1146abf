package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/aretw0/apc/internal/adapters/sqlite"
	"github.com/aretw0/apc/pkg/domain"
	"github.com/aretw0/apc/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "apc.db"))
	ports.RunContextStoreContract(t, store)
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store := openStore(t, ":memory:")
	ports.RunContextStoreContract(t, store)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "apc.db")

	first, err := sqlite.Open(path)
	require.NoError(t, err)
	c := domain.NewContext()
	c.Step = 42
	c.Mode = domain.ModeNudge
	require.NoError(t, first.Save(ctx, "persisted", c))
	require.NoError(t, first.Close())

	second := openStore(t, path)
	loaded, err := second.Load(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.Step)
	assert.Equal(t, domain.ModeNudge, loaded.Mode)
}

func TestSQLiteStore_DenormalizedColumns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "apc.db")
	store := openStore(t, path)

	c := domain.NewContext()
	c.Mode = domain.ModeMicroCheckpoint
	c.Step = 7
	require.NoError(t, store.Save(ctx, "s", c))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var mode string
	var step int
	require.NoError(t, db.QueryRow(`SELECT mode, step FROM sessions WHERE session_id = ?`, "s").Scan(&mode, &step))
	assert.Equal(t, "MICRO_CHECKPOINT", mode)
	assert.Equal(t, 7, step)
}

func TestSQLiteStore_List_Sorted(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, ":memory:")

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, store.Save(ctx, id, domain.NewContext()))
	}
	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, sessions)

	assert.Error(t, store.Save(ctx, "", domain.NewContext()))
}
