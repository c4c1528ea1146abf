package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/apc/pkg/domain"
	"github.com/aretw0/apc/pkg/runner"
)

// StepOutput is printed by the step command.
type StepOutput struct {
	Result  domain.TransitionResult `json:"result"`
	Context *domain.Context         `json:"context"`
}

// Step dispatches one event against a context given as JSON, or a stored session,
// and prints the result with the applied context. event is either an event
// record in JSON or a bare event type such as CMD_DS.
func Step(ctx context.Context, opts Options, sessionID, rawContext, event string, w io.Writer) error {
	ev, err := parseEvent(event)
	if err != nil {
		return err
	}
	a, err := newApp(opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	apply := func(c *domain.Context) StepOutput {
		res := a.engine.Step(ctx, c, ev)
		a.engine.Apply(ctx, c, res)
		return StepOutput{Result: res, Context: c}
	}

	var out StepOutput
	if sessionID != "" {
		_, err = a.sessions.Update(ctx, sessionID, func(ctx context.Context, c *domain.Context) error {
			out = apply(c)
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		c, err := parseContext(a, rawContext)
		if err != nil {
			return err
		}
		out = apply(c)
	}
	return printJSON(w, out)
}

// Detect classifies text against a context given as JSON and prints the detection.
func Detect(ctx context.Context, opts Options, rawContext, text string, w io.Writer) error {
	clean, err := runner.SanitizeInput(text)
	if err != nil {
		return err
	}
	a, err := newApp(opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := parseContext(a, rawContext)
	if err != nil {
		return err
	}
	d := a.engine.Detect(ctx, c, clean)
	a.engine.ApplyActions(ctx, c, d.Actions)
	return printJSON(w, struct {
		Events    []domain.Event  `json:"events"`
		Rethink   bool            `json:"rethink"`
		Iteration bool            `json:"iteration"`
		Context   *domain.Context `json:"context"`
	}{d.Events, d.Rethink, d.Iteration, c})
}

// Graph prints the Mermaid flowchart, highlighting a session's mode if given.
func Graph(ctx context.Context, opts Options, sessionID string, w io.Writer) error {
	a, err := newApp(opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	var c *domain.Context
	if sessionID != "" {
		if c, err = a.sessions.Load(ctx, sessionID); err != nil {
			return fmt.Errorf("error loading session '%s': %w", sessionID, err)
		}
	}
	_, err = io.WriteString(w, a.engine.Mermaid(c))
	return err
}

// ListSessions prints every stored session id.
func ListSessions(ctx context.Context, opts Options, w io.Writer) error {
	a, err := newApp(opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	sessions, err := a.sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No active sessions found.")
		return nil
	}
	fmt.Fprintln(w, "Active Sessions:")
	for _, id := range sessions {
		c, err := a.sessions.Load(ctx, id)
		if err != nil {
			fmt.Fprintf(w, "- %s (unreadable: %v)\n", id, err)
			continue
		}
		fmt.Fprintf(w, "- %s [%s, step %d]\n", id, c.Mode, c.Step)
	}
	return nil
}

// InspectSession pretty-prints a stored context.
func InspectSession(ctx context.Context, opts Options, sessionID string, w io.Writer) error {
	a, err := newApp(opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.sessions.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", sessionID, err)
	}
	if verr := c.Validate(); verr != nil {
		fmt.Fprintf(w, "# warning: %v\n", strings.ReplaceAll(verr.Error(), "\n", "; "))
	}
	return printJSON(w, c)
}

// RemoveSessions deletes the given sessions, or every session when all is set.
func RemoveSessions(ctx context.Context, opts Options, ids []string, all bool, w io.Writer) error {
	a, err := newApp(opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if all {
		if ids, err = a.sessions.List(ctx); err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}
	}

	var errs []error
	for _, id := range ids {
		if err := a.sessions.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}

func parseEvent(raw string) (domain.Event, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Event{}, fmt.Errorf("an event is required")
	}
	if !strings.HasPrefix(raw, "{") {
		return domain.NewEvent(domain.EventType(strings.ToUpper(raw))), nil
	}
	var ev domain.Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return domain.Event{}, fmt.Errorf("error parsing event JSON: %w", err)
	}
	return ev, nil
}

func parseContext(a *app, raw string) (*domain.Context, error) {
	c := a.engine.NewContext()
	if strings.TrimSpace(raw) == "" {
		return c, nil
	}
	if err := json.Unmarshal([]byte(raw), c); err != nil {
		return nil, fmt.Errorf("error parsing --context JSON: %w", err)
	}
	return c, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
