// Package mcp exposes the design-support engine as a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/apc"
	"github.com/aretw0/apc/internal/logging"
	"github.com/aretw0/apc/pkg/domain"
	"github.com/aretw0/apc/pkg/ports"
	"github.com/aretw0/apc/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/sync/errgroup"
)

// GraphURI is the resource holding the Mermaid rendering of the mode machine.
const GraphURI = "apc://graph"

// StepResponse aligns with the HTTP adapter's /step body.
type StepResponse struct {
	Result  domain.TransitionResult `json:"result" jsonschema_description:"The dispatcher's transition result"`
	Context *domain.Context         `json:"context" jsonschema_description:"The context after applying the result"`
}

// DetectResponse aligns with the HTTP adapter's /detect body.
type DetectResponse struct {
	Events    []domain.Event  `json:"events" jsonschema_description:"Passive trigger events to dispatch, in order"`
	Rethink   bool            `json:"rethink"`
	Iteration bool            `json:"iteration"`
	Context   *domain.Context `json:"context" jsonschema_description:"The context with iteration counts applied"`
}

// Server wraps the engine and a runner and exposes them as an MCP server.
type Server struct {
	engine    ports.Coordinator
	runner    *runner.Runner
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance. A nil runner keeps sessions in memory.
func NewServer(engine ports.Coordinator, r *runner.Runner, opts ...Option) *Server {
	if r == nil {
		r = runner.New(engine, nil)
	}
	s := &Server{
		engine:    engine,
		runner:    r,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("apc-mcp", strings.TrimSpace(apc.Version),
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(false, true),
			server.WithRecovery(),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: step
	stepTool := mcp.NewTool("step",
		mcp.WithDescription("Dispatch one event against a conversation context and return the applied result. Omit context to start a new conversation."),
		mcp.WithObject("event", mcp.Required(), mcp.Description(`Event record, e.g. {"type":"CMD_DS","payload":{"topic_id":"auth"}}`)),
		mcp.WithObject("context", mcp.Description("Conversation context as returned by a previous call (optional)")),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(stepTool, mcp.NewStructuredToolHandler(s.handleStep))

	// TOOL: detect
	detectTool := mcp.NewTool("detect",
		mcp.WithDescription("Classify free text into passive trigger events (rethink detected, iteration threshold)."),
		mcp.WithString("text", mcp.Required(), mcp.Description("User message")),
		mcp.WithObject("context", mcp.Description("Conversation context (optional)")),
		mcp.WithOutputSchema[DetectResponse](),
	)
	s.mcpServer.AddTool(detectTool, mcp.NewStructuredToolHandler(s.handleDetect))

	// TOOL: turn
	turnTool := mcp.NewTool("turn",
		mcp.WithDescription("Run one conversation turn for a server-side session: a reply token (a, p, c, yes, no, merge...) or free text."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("input", mcp.Required(), mcp.Description("User input line")),
	)
	s.mcpServer.AddTool(turnTool, s.handleTurn)

	// TOOL: list_sessions
	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List server-side session ids."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.runner.Sessions().List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: get_graph
	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the mode machine as a Mermaid flowchart, highlighting a session's mode when session_id is given."),
		mcp.WithString("session_id", mcp.Description("Session to highlight (optional)")),
	), s.handleGetGraph)
}

func (s *Server) handleStep(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StepResponse, error) {
	var ev domain.Event
	if err := decodeArg(args["event"], &ev); err != nil {
		return StepResponse{}, fmt.Errorf("invalid event: %w", err)
	}
	if ev.Type == "" {
		return StepResponse{}, fmt.Errorf("invalid event: type is required")
	}
	c, err := s.contextArg(args)
	if err != nil {
		return StepResponse{}, err
	}

	res := s.engine.Step(ctx, c, ev)
	s.engine.Apply(ctx, c, res)
	return StepResponse{Result: res, Context: c}, nil
}

func (s *Server) handleDetect(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (DetectResponse, error) {
	text, _ := args["text"].(string)
	clean, err := runner.SanitizeInput(text)
	if err != nil {
		s.logger.Warn("MCP Detect: Input rejected", "err", err, "size", len(text))
		return DetectResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	c, err := s.contextArg(args)
	if err != nil {
		return DetectResponse{}, err
	}

	d := s.engine.Detect(ctx, c, clean)
	s.engine.ApplyActions(ctx, c, d.Actions)
	events := d.Events
	if events == nil {
		events = []domain.Event{}
	}
	return DetectResponse{Events: events, Rethink: d.Rethink, Iteration: d.Iteration, Context: c}, nil
}

func (s *Server) handleTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	input, err := request.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.runner.Turn(ctx, sessionID, input)
	if err != nil {
		s.logger.Warn("MCP Turn failed", "session_id", sessionID, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("turn failed: %v", err)), nil
	}

	jsonBytes, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode turn: %w", err)
	}
	// The prompt goes first so hosts that only show text still see it.
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(res.Prompt()),
			mcp.NewTextContent(string(jsonBytes)),
		},
	}, nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var c *domain.Context
	if id := request.GetString("session_id", ""); id != "" {
		loaded, err := s.runner.Sessions().Load(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
		}
		c = loaded
	}
	return mcp.NewToolResultText(s.engine.Mermaid(c)), nil
}

// contextArg decodes the optional "context" argument, falling back to a new context.
func (s *Server) contextArg(args map[string]any) (*domain.Context, error) {
	raw, ok := args["context"]
	if !ok || raw == nil {
		return s.engine.NewContext(), nil
	}
	c := s.engine.NewContext()
	if err := decodeArg(raw, c); err != nil {
		return nil, fmt.Errorf("invalid context: %w", err)
	}
	return c, nil
}

// decodeArg accepts either a JSON object (already decoded to a map) or a JSON string.
func decodeArg(raw any, out any) error {
	if str, ok := raw.(string); ok {
		return json.Unmarshal([]byte(str), out)
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

func (s *Server) registerResources() {
	// EXPOSE: apc://graph
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Mode Machine",
		mcp.WithResourceDescription("Mermaid flowchart of the conversation modes and their transitions"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/plain",
				Text:     s.engine.Mermaid(nil),
			},
		}, nil
	})
}
