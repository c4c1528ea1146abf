package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/apc/internal/config"
	httpAdapter "github.com/aretw0/apc/pkg/adapters/http"
	"github.com/aretw0/apc/pkg/adapters/mcp"
	"github.com/aretw0/apc/pkg/observability"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds graceful shutdown of the HTTP servers.
const ShutdownTimeout = 5 * time.Second

// ServeOptions configures the serve command.
type ServeOptions struct {
	Options
	// Addr overrides server.addr from the config.
	Addr string
	// Watch reloads the engine when the config file changes.
	Watch bool
	// Ready, if set, receives the bound address once the listener is up.
	Ready chan<- string
	Out   io.Writer
}

// RunServe serves the HTTP API until ctx is done or a signal arrives.
func RunServe(ctx context.Context, opts ServeOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}
	var metrics *observability.Metrics
	if cfg.Server.Metrics {
		metrics = observability.NewMetrics()
	}

	a, err := newApp(opts.Options, metrics)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := opts.Addr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	httpOpts := []httpAdapter.Option{httpAdapter.WithLogger(a.logger)}
	if metrics != nil {
		httpOpts = append(httpOpts, httpAdapter.WithMetrics(metrics))
	}
	srv := &http.Server{
		Handler:           httpAdapter.NewHandler(a.engine, a.runner(), httpOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	g, gctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		printSystemMessage(out, "Starting apc server on %s", listener.Addr())
		if opts.Ready != nil {
			opts.Ready <- listener.Addr().String()
		}
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", ShutdownTimeout, err)
		}
		printSystemMessage(out, "apc server stopped gracefully")
		return nil
	})

	if opts.Watch {
		updates, err := config.Watch(gctx, opts.configPath(), a.logger)
		if err != nil {
			a.logger.Warn("Config watch disabled", "err", err)
		} else {
			g.Go(func() error {
				for cfg := range updates {
					if err := config.Apply(cfg, mustOverrides(opts.Overrides)); err != nil {
						a.logger.Warn("Ignoring config reload", "err", err)
						continue
					}
					engine, err := createEngine(cfg, a.logger, metrics)
					if err != nil {
						a.logger.Warn("Ignoring config reload", "err", err)
						continue
					}
					a.engine.Swap(engine)
					a.logger.Info("Engine reloaded")
				}
				return nil
			})
		}
	}

	return g.Wait()
}

// mustOverrides re-parses overrides that were already validated at startup.
func mustOverrides(pairs []string) map[string]any {
	overrides, _ := config.ParseOverrides(pairs)
	return overrides
}

// MCPOptions configures the mcp command.
type MCPOptions struct {
	Options
	// Transport is "stdio" or "sse".
	Transport string
	Addr      string
}

// RunMCP serves the MCP protocol on the chosen transport.
func RunMCP(ctx context.Context, opts MCPOptions) error {
	a, err := newApp(opts.Options, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := mcp.NewServer(a.engine, a.runner(), mcp.WithLogger(a.logger))

	switch opts.Transport {
	case "", "stdio":
		// Logs go to Stderr so they never corrupt JSON-RPC on Stdout.
		a.logger.Info("Starting apc MCP Server (Stdio)")
		return srv.ServeStdio()
	case "sse":
		sigCtx := NewSignalContext(ctx)
		defer sigCtx.Cancel()
		addr := opts.Addr
		if addr == "" {
			addr = a.cfg.Server.Addr
		}
		return srv.ServeSSE(sigCtx, addr)
	}
	return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", opts.Transport)
}
