package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// JSONRequest is one line of JSON-lines input.
type JSONRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Input     string `json:"input"`
}

// JSONResponse is one line of JSON-lines output.
type JSONResponse struct {
	*TurnResult
	Mode   string `json:"mode,omitempty"`
	Prompt string `json:"prompt,omitempty"`
	Error  string `json:"error,omitempty"`
}

// JSONHandler implements structured JSON-lines communication for headless hosts.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

// Decode parses a line as a JSONRequest, a JSON string or plain text.
func (h *JSONHandler) Decode(line, defaultSession string) JSONRequest {
	line = strings.TrimSpace(line)

	var req JSONRequest
	if strings.HasPrefix(line, "{") && json.Unmarshal([]byte(line), &req) == nil {
		if req.SessionID == "" {
			req.SessionID = defaultSession
		}
		return req
	}

	var val string
	if err := json.Unmarshal([]byte(line), &val); err == nil {
		return JSONRequest{SessionID: defaultSession, Input: val}
	}
	return JSONRequest{SessionID: defaultSession, Input: line}
}

// ServeJSON answers every input line with one JSON object until EOF or ctx is done.
// Per-line failures are reported in the "error" field and do not stop the loop.
func (r *Runner) ServeJSON(ctx context.Context, defaultSession string, h *JSONHandler) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := h.Reader.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			if encErr := h.Encoder.Encode(r.answer(ctx, h.Decode(line, defaultSession))); encErr != nil {
				return fmt.Errorf("output error: %w", encErr)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
	}
}

func (r *Runner) answer(ctx context.Context, req JSONRequest) JSONResponse {
	res, err := r.Turn(ctx, req.SessionID, req.Input)
	if err != nil {
		return JSONResponse{Error: err.Error()}
	}
	return JSONResponse{TurnResult: res, Mode: string(res.Mode()), Prompt: res.Prompt()}
}
