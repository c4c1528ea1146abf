package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/apc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()

	t.Run("version", func(t *testing.T) {
		assert.Equal(t, "apc version "+strings.TrimSpace(apc.Version)+"\n", run(t, "version"))
	})

	t.Run("graph", func(t *testing.T) {
		out := run(t, "graph", "--dir", dir)
		assert.True(t, strings.HasPrefix(out, "graph TD\n"))
		assert.Contains(t, out, "BRANCH_MERGE")
	})

	t.Run("step and session", func(t *testing.T) {
		out := run(t, "step", "CMD_DS", "--dir", dir, "--session", "cli", "--set", "store.driver=file")
		assert.Contains(t, out, `"mode": "DESIGN_SESSION"`)

		out = run(t, "session", "ls", "--dir", dir)
		assert.Contains(t, out, "- cli [DESIGN_SESSION, step 0]")

		out = run(t, "session", "rm", "cli", "--dir", dir)
		assert.Contains(t, out, "Removed session 'cli'")
	})

	t.Run("detect", func(t *testing.T) {
		out := run(t, "detect", "--dir", dir, "the", "flow", "feels", "wrong")
		assert.Contains(t, out, `"rethink": true`)
	})
}
