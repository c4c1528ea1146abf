package tui

import (
	"bytes"
	"os"
	"testing"

	"github.com/aretw0/apc/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner_IncludesVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3\n")
	assert.Contains(t, buf.String(), "v1.2.3")
	assert.Contains(t, buf.String(), "/_/   \\_\\_|")
}

func TestModeBadge(t *testing.T) {
	var buf bytes.Buffer
	assert.Empty(t, ModeBadge(&buf, nil))

	c := domain.NewContext()
	assert.Contains(t, ModeBadge(&buf, c), "[INLINE]")

	c.Mode = domain.ModeDesignSession
	c.Design = &domain.DesignSession{Mode: domain.DesignFull, Phase: domain.PhaseDevelop}
	assert.Contains(t, ModeBadge(&buf, c), "[DESIGN_SESSION · DEVELOP]")
}

func TestNewRenderer_RendersMarkdown(t *testing.T) {
	render := NewRenderer()
	out, err := render("**Design checkpoint:** choose [A] or [C]")
	require.NoError(t, err)
	assert.Contains(t, out, "Design checkpoint:")
}

func TestIsTerminal_File(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f))
}
