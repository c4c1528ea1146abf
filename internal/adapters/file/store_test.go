package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/apc/internal/adapters/file"
	"github.com/aretw0/apc/pkg/domain"
	"github.com/aretw0/apc/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunContextStoreContract(t, store)
}

func TestFileStore_Layout(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "sessions")
	store := file.New(dir)

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions, "missing directory lists nothing")

	require.NoError(t, store.Save(ctx, "abc", domain.NewContext()))
	_, err = os.Stat(filepath.Join(dir, "abc.json"))
	assert.NoError(t, err)

	// Leftover temp files from a crashed write are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-abc-123.json"), []byte("{"), 0644))
	sessions, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, sessions)
}

func TestFileStore_RejectsBadIDs(t *testing.T) {
	ctx := context.Background()
	store := file.New(t.TempDir())

	for _, id := range []string{"", "../escape", `a\b`, ".."} {
		assert.Error(t, store.Save(ctx, id, domain.NewContext()), id)
		_, err := store.Load(ctx, id)
		assert.Error(t, err, id)
		assert.Error(t, store.Delete(ctx, id), id)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := file.New(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("not json"), 0644))
	_, err := store.Load(ctx, "bad")
	assert.ErrorContains(t, err, "failed to unmarshal session context")
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestNew_DefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join(".apc", "sessions"), file.New("").BasePath)
}
