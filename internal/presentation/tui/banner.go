package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/apc/pkg/domain"
	"github.com/muesli/termenv"
)

// PrintBanner writes the chat banner with the version underneath.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{"     _    ____   ____ ", "#818cf8"},
		{"    / \\  |  _ \\ / ___|", "#a78bfa"},
		{"   / _ \\ | |_) | |    ", "#c084fc"},
		{"  / ___ \\|  __/| |___ ", "#e879f9"},
		{" /_/   \\_\\_|    \\____|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  advanced / party / continue  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}

// modeColors tints the mode badge shown after each turn.
var modeColors = map[domain.Mode]string{
	domain.ModeInline:          "#94a3b8",
	domain.ModeMicroCheckpoint: "#facc15",
	domain.ModeNudge:           "#fb923c",
	domain.ModeDesignSession:   "#818cf8",
	domain.ModeDesignBranch:    "#c084fc",
	domain.ModeBranchMerge:     "#f472b6",
}

// ModeBadge renders "[MODE]" (or "[MODE · PHASE]" inside a design session) in the mode's color.
func ModeBadge(w io.Writer, c *domain.Context) string {
	if c == nil {
		return ""
	}
	label := string(c.Mode)
	if c.Mode.InDesign() && c.Design != nil {
		label += " · " + string(c.Design.Phase)
	}
	out := termenv.NewOutput(w)
	color, ok := modeColors[c.Mode]
	if !ok {
		return "[" + label + "]"
	}
	return out.String("[" + label + "]").Foreground(out.Color(color)).Bold().String()
}
