package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/apc/internal/runtime"
	"github.com/aretw0/apc/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	Visited []domain.Mode
	Current domain.Mode
}

// GenerateMermaid produces a Mermaid flowchart of the mode machine.
// It applies semantic styling:
// - INLINE: ((Circle))
// - Design modes: [[Subroutine]]
// - Modes waiting on a user reply: [/Parallelogram/]
// Passive triggers are drawn as dotted edges and guards are appended to the label.
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(edges []runtime.Edge, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, m := range domain.Modes() {
		opener, closer := "[", "]"
		switch {
		case m == domain.ModeInline:
			opener, closer = "((", "))"
		case m.InDesign():
			opener, closer = "[[", "]]"
		case m == domain.ModeMicroCheckpoint, m == domain.ModeNudge, m == domain.ModeBranchMerge:
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", sanitizeMermaidID(string(m)), opener, m, closer))
	}

	for _, e := range edges {
		label := string(e.Event)
		if e.Guard != "" {
			label = fmt.Sprintf("%s [%s]", label, strings.ReplaceAll(e.Guard, "\"", "'"))
		}
		arrow := fmt.Sprintf("-- \"%s\" -->", label)
		if e.Event.Passive() {
			arrow = fmt.Sprintf("-. \"%s\" .->", label)
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(string(e.From)), arrow, sanitizeMermaidID(string(e.To))))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, m := range overlay.Visited {
			id := sanitizeMermaidID(string(m))
			if !seen[id] && m.Valid() {
				seen[id] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", id))
			}
		}
		if overlay.Current.Valid() {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(string(overlay.Current))))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
