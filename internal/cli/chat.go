package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/apc"
	"github.com/aretw0/apc/internal/presentation/tui"
	"github.com/aretw0/apc/pkg/runner"
	"github.com/google/uuid"
)

// ChatOptions configures the chat command.
type ChatOptions struct {
	Options
	// SessionID resumes a session; empty starts a new one with a random id.
	SessionID string
	// Fresh deletes the session before starting.
	Fresh bool
	// JSON switches to NDJSON requests and responses.
	JSON bool

	In  io.Reader
	Out io.Writer
}

// RunChat runs an interactive (or NDJSON) conversation until input ends or a signal arrives.
func RunChat(ctx context.Context, opts ChatOptions) error {
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	a, err := newApp(opts.Options, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if opts.Fresh {
		if err := a.sessions.Delete(sigCtx, sessionID); err != nil {
			return fmt.Errorf("reset session: %w", err)
		}
	}

	if opts.JSON {
		r := a.runner()
		return handleExecutionError(r.ServeJSON(sigCtx, sessionID, runner.NewJSONHandler(in, out)))
	}

	interactive := isTTY(out)
	var runnerOpts []runner.Option
	if interactive {
		tui.PrintBanner(out, apc.Version)
		runnerOpts = append(runnerOpts, runner.WithRenderer(tui.NewRenderer()))
	}
	r := a.runner(runnerOpts...)

	c, created, err := a.sessions.LoadOrStart(sigCtx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to init session: %w", err)
	}
	if created {
		a.logger.Info("Session Created", "session_id", sessionID)
		printSystemMessage(out, "Session '%s' active.", sessionID)
	} else {
		a.logger.Info("Session Resumed", "session_id", sessionID, "mode", c.Mode, "step", c.Step)
		printSystemMessage(out, "Resuming session '%s' in %s.", sessionID, c.Mode)
	}

	h := runner.NewTextHandler(in, out, runner.WithTextHandlerStatus(func(res *runner.TurnResult) string {
		return tui.ModeBadge(out, res.Context)
	}))
	runErr := r.Chat(sigCtx, sessionID, h)

	if sig := sigCtx.Signal(); sig != nil {
		fmt.Fprintln(out)
		printSystemMessage(out, "Interrupted. Resume with: apc chat --session %s", sessionID)
	}
	return handleExecutionError(runErr)
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && tui.IsTerminal(f)
}
