// Package prompts holds the user-facing texts of the design-support flow.
//
// Texts are data: a lookup table keyed by mode and sub-case, rendered with text/template.
// The dispatcher only picks a key and fills Data; it never builds strings itself.
package prompts

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/aretw0/apc/pkg/domain"
)

// Key identifies a prompt as "MODE/case".
type Key string

const (
	MicroStandard   Key = "MICRO_CHECKPOINT/standard"
	MicroWithBranch Key = "MICRO_CHECKPOINT/branch"
	MicroRethink    Key = "MICRO_CHECKPOINT/rethink"
	MicroContinue   Key = "MICRO_CHECKPOINT/continue"
	MicroDeclined   Key = "MICRO_CHECKPOINT/declined"
	MicroUpgrade    Key = "MICRO_CHECKPOINT/upgrade"

	NudgeMessage  Key = "NUDGE/message"
	NudgeAccepted Key = "NUDGE/accepted"
	NudgeDeclined Key = "NUDGE/declined"

	SessionStart      Key = "DESIGN_SESSION/start"
	SessionCheckpoint Key = "DESIGN_SESSION/checkpoint"
	SessionAdvanced   Key = "DESIGN_SESSION/advanced"
	SessionParty      Key = "DESIGN_SESSION/party"
	SessionNextPhase  Key = "DESIGN_SESSION/next"
	SessionBackPhase  Key = "DESIGN_SESSION/back"
	SessionComplete   Key = "DESIGN_SESSION/complete"
	SessionExit       Key = "DESIGN_SESSION/exit"
	SessionToBranch   Key = "DESIGN_SESSION/fork"

	BranchStart     Key = "DESIGN_BRANCH/start"
	BranchAbandoned Key = "DESIGN_BRANCH/abandoned"
	BranchNoTrack   Key = "DESIGN_BRANCH/no_track"
	BranchInFlight  Key = "DESIGN_BRANCH/in_flight"

	MergeOptions      Key = "BRANCH_MERGE/options"
	MergeOverwrite    Key = "BRANCH_MERGE/overwrite"
	MergeNewTrack     Key = "BRANCH_MERGE/new_track"
	MergeDocumentOnly Key = "BRANCH_MERGE/document_only"
	MergeCancelled    Key = "BRANCH_MERGE/cancel"
)

// Data is the template input. Only the fields a prompt references need to be set.
type Data struct {
	Mode       domain.DesignMode
	Phase      domain.Phase
	Checkpoint domain.Checkpoint
	Track      string
	Scope      string
	Label      string
	Strategy   domain.MergeStrategy
	BranchID   string
}

var defaults = map[Key]string{
	MicroStandard: `Design checkpoint:
- **[A]** Advanced – deeper design exploration
- **[P]** Party – multi-perspective feedback
- **[C]** Continue inline`,

	MicroWithBranch: `Design checkpoint (changes diverge from current design):
- **[A]** Advanced – explore alternatives in a design branch
- **[P]** Party – get multi-perspective feedback
- **[C]** Continue as-is`,

	MicroRethink: `You're signaling the current design doesn't feel right.
- **[A]** Start a design branch – explore alternatives safely
- **[P]** Get opinions first
- **[C]** Keep current plan`,

	MicroContinue: `Continuing inline.`,
	MicroDeclined: `Ok, continuing.`,
	MicroUpgrade:  `Upgrading to FULL Design Session with {{.Label}} analysis. Importing current context...`,

	NudgeMessage: `We've iterated on this flow several times. Want to switch into a structured **Design Session** with A/P/C checkpoints to properly explore options?

- **[Start Design Session]** _(recommended)_
- **[Not now]**`,
	NudgeAccepted: `Starting {{.Mode}} Design Session. I'll import our recent discussion as context and begin at DISCOVER phase.`,
	NudgeDeclined: `Ok, continuing inline. I won't suggest this again for a while.`,

	SessionStart: `Starting {{.Mode}} Design Session at {{.Phase}} phase.`,
	SessionCheckpoint: `**{{.Checkpoint}} Checkpoint** ({{.Phase}} phase complete)

- **[A]** Advanced – {{advanced .Phase}}
- **[P]** Party – multi-agent design review
- **[C]** Continue to next phase
- **[↩ Back]** – return to previous phase`,
	SessionAdvanced:  `Running Advanced check for {{.Phase}}...`,
	SessionParty:     `Starting Party Mode review for {{.Phase}}...`,
	SessionNextPhase: `Moving to {{.Phase}} phase...`,
	SessionBackPhase: `Returning to {{.Phase}} phase...`,
	SessionComplete: `Design Session complete. Design document ready.

Next steps:
- ` + "`cn`" + ` – Create new track from this design
- ` + "`ci`" + ` – Implement in current track
- ` + "`fb`" + ` – File work items from design`,
	SessionExit:     `Exiting Design Session. Partial progress saved.`,
	SessionToBranch: `Forking current Design Session into a design branch for Track ` + "`{{.Track}}`" + `...`,

	BranchStart: `Created design branch for Track ` + "`{{.Track}}`" + `.
{{- if .Scope}}
Scope: {{.Scope}}{{end}}

Running FULL Design Session with A/P/C. Original track untouched until merge.`,
	BranchAbandoned: `Design branch abandoned. Original track unchanged.`,
	BranchNoTrack:   `No active track to branch from. Use ` + "`ds`" + ` for a standalone Design Session.`,
	BranchInFlight:  `Design branch {{.BranchID}} is still open. Merge or cancel it before starting another one.`,

	MergeOptions: `**Design branch complete**: {{.Scope}}

How to apply this design?
- **[M1]** Replace current design/plan for this track
- **[M2]** Create new implementation track
- **[M3]** Keep as documented alternative (no changes yet)
- **[Cancel]** Discard branch`,
	MergeOverwrite:    `Design merged. Spec/plan updated. Affected work items tagged for review.`,
	MergeNewTrack:     `New track created from branch design. Original track unchanged.`,
	MergeDocumentOnly: `Branch saved as alternative design. No implementation changes.`,
	MergeCancelled:    `Branch discarded. Returning to original track.`,
}

var funcs = template.FuncMap{
	"advanced": AdvancedDescription,
}

// AdvancedDescription tells what an Advanced check does in a phase.
func AdvancedDescription(p domain.Phase) string {
	switch p {
	case domain.PhaseDiscover:
		return "challenge assumptions, explore edge cases"
	case domain.PhaseDefine:
		return "stress-test problem definition"
	case domain.PhaseDevelop:
		return "deep dive on solution alternatives"
	case domain.PhaseVerify:
		return "Oracle audit before finalizing"
	}
	return "deeper design exploration"
}

// Table is an immutable set of parsed prompt templates.
type Table struct {
	templates map[Key]*template.Template
}

var defaultTable = mustParse(defaults)

// Default returns the built-in prompt table.
func Default() *Table {
	return defaultTable
}

// Keys returns every known key in sorted order.
func Keys() []Key {
	keys := make([]Key, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// With returns a copy of t where the given keys use new template text.
// Unknown keys and unparsable templates are rejected.
func (t *Table) With(overrides map[string]string) (*Table, error) {
	out := &Table{templates: make(map[Key]*template.Template, len(t.templates))}
	for k, tmpl := range t.templates {
		out.templates[k] = tmpl
	}
	for raw, text := range overrides {
		key := Key(strings.TrimSpace(raw))
		if _, ok := defaults[key]; !ok {
			return nil, fmt.Errorf("unknown prompt key %q", raw)
		}
		tmpl, err := parse(key, text)
		if err != nil {
			return nil, err
		}
		out.templates[key] = tmpl
	}
	return out, nil
}

// Render executes the template for key. A template that fails to execute
// yields its raw text so the conversation keeps going.
func (t *Table) Render(key Key, data Data) string {
	tmpl, ok := t.templates[key]
	if !ok {
		return ""
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmpl.Root.String()
	}
	return strings.TrimSpace(buf.String())
}

func parse(key Key, text string) (*template.Template, error) {
	tmpl, err := template.New(string(key)).Funcs(funcs).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt %s: %w", key, err)
	}
	return tmpl, nil
}

func mustParse(src map[Key]string) *Table {
	t := &Table{templates: make(map[Key]*template.Template, len(src))}
	for k, text := range src {
		tmpl, err := parse(k, text)
		if err != nil {
			panic(err)
		}
		t.templates[k] = tmpl
	}
	return t
}
