package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// TextHandler implements the line-oriented chat interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	// Status, if set, labels each printed prompt (e.g. with the current mode).
	Status func(*TurnResult) string

	inputChan chan inputResult
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerStatus prefixes every printed prompt with a status label.
func WithTextHandlerStatus(status func(*TurnResult) string) TextHandlerOption {
	return func(h *TextHandler) {
		h.Status = status
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honor context cancellation.
func (h *TextHandler) pump() {
	defer close(h.inputChan)
	for {
		text, err := h.Reader.ReadString('\n')

		if text != "" {
			select {
			case h.inputChan <- inputResult{text: text}:
			case <-h.done:
				return
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			select {
			case h.inputChan <- inputResult{err: err}:
			case <-h.done:
				return
			}
			// Backoff for non-fatal errors to prevent CPU spikes on persistent failure
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// Close stops the background reader once its current read returns.
func (h *TextHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Input shows the prompt marker and reads one trimmed line.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		fmt.Fprint(h.Writer, "> ")
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-h.inputChan:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.text), nil
	}
}

// Output renders the prompts produced by a turn.
func (h *TextHandler) Output(ctx context.Context, res *TurnResult) error {
	msg := res.Prompt()
	if msg == "" {
		return nil
	}
	output := msg
	if h.Renderer != nil {
		if rendered, err := h.Renderer(msg); err == nil {
			output = rendered
		}
	}
	output = strings.TrimSpace(output)
	if h.Status != nil {
		if label := h.Status(res); label != "" {
			output = label + " " + output
		}
	}
	_, err := fmt.Fprintln(h.Writer, output)
	return err
}

// SystemOutput presents a meta-message to the user (e.g. status updates, input errors).
func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return err
}

// IsQuit reports whether a line ends the chat loop.
func IsQuit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "quit", "/quit", "/exit":
		return true
	}
	return false
}

// Chat runs an interactive loop for one session until the input ends, the user
// quits or ctx is cancelled. Rejected input is reported and the loop goes on.
func (r *Runner) Chat(ctx context.Context, sessionID string, h *TextHandler) error {
	defer h.Close()
	if h.Renderer == nil {
		h.Renderer = r.renderer
	}

	for {
		line, err := h.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		if line == "" {
			continue
		}
		if IsQuit(line) {
			return nil
		}

		res, err := r.Turn(ctx, sessionID, line)
		if err != nil {
			if errors.Is(err, ErrInputTooLarge) || errors.Is(err, ErrInvalidUTF8) {
				_ = h.SystemOutput(ctx, fmt.Sprintf("Error: %v. Please try again.", err))
				continue
			}
			return err
		}
		if err := h.Output(ctx, res); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}
