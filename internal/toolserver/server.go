// SPDX-License-Identifier: MPL-2.0

package toolserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/taskgrove/grove/internal/core/serverbase"
	"github.com/taskgrove/grove/internal/dispatch"
	"github.com/taskgrove/grove/internal/registry"
	"github.com/taskgrove/grove/internal/toolproj"
)

const (
	// DefaultName is the server name announced during initialization.
	DefaultName = "grove"
	// DefaultCallTimeout bounds a single tool call.
	DefaultCallTimeout = 10 * time.Minute
)

type (
	// Server exposes a tool set over MCP stdio.
	Server struct {
		*serverbase.Base

		mcp         *server.MCPServer
		dispatcher  *dispatch.Dispatcher
		tools       *toolproj.Set
		logger      *log.Logger
		name        string
		version     string
		callTimeout time.Duration
		in          io.Reader
		out         io.Writer
	}

	// Option configures a Server.
	Option func(*Server)
)

// WithLogger sets the logger. It must not write to the protocol stream.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithName sets the announced server name.
func WithName(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.name = name
		}
	}
}

// WithVersion sets the announced server version.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithCallTimeout bounds each tool call. Zero or negative disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.callTimeout = d
	}
}

// WithStdio sets the protocol streams. Defaults are os.Stdin and os.Stdout.
func WithStdio(in io.Reader, out io.Writer) Option {
	return func(s *Server) {
		s.in = in
		s.out = out
	}
}

// New builds a server for tools, dispatching calls through d.
func New(tools *toolproj.Set, d *dispatch.Dispatcher, opts ...Option) (*Server, error) {
	s := &Server{
		Base:        serverbase.NewBase(),
		dispatcher:  d,
		tools:       tools,
		logger:      log.NewWithOptions(os.Stderr, log.Options{Prefix: "mcp"}),
		name:        DefaultName,
		version:     "dev",
		callTimeout: DefaultCallTimeout,
		in:          os.Stdin,
		out:         os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(s.name, s.version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, desc := range tools.Descriptors() {
		tool, err := desc.MCPTool()
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", desc.Name, err)
		}
		s.mcp.AddTool(tool, s.handler(desc.Path))
	}
	s.logger.Debug("tools registered", "count", tools.Len())
	return s, nil
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Call dispatches one tool call. fallback is the command path of the tool
// the request was addressed to.
func (s *Server) Call(ctx context.Context, fallback registry.PathKey, arguments map[string]any) (dispatch.Envelope, error) {
	call, err := dispatch.ParseToolArguments(arguments, fallback)
	if err != nil {
		return dispatch.Envelope{}, err
	}
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}
	return s.dispatcher.DispatchTool(ctx, call), nil
}

func (s *Server) handler(path registry.PathKey) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		env, err := s.Call(ctx, path, req.GetArguments())
		if err != nil {
			s.logger.Info("rejected tool call", "tool", req.Params.Name, "err", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, err := json.Marshal(env)
		if err != nil {
			return nil, fmt.Errorf("encoding result envelope: %w", err)
		}
		if env.Result == dispatch.ResultError {
			return mcp.NewToolResultError(string(data)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// Serve answers requests until the input closes, ctx ends, or Stop is
// called.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.TransitionToStarting(ctx); err != nil {
		return err
	}

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}))

	g, gctx := errgroup.WithContext(ctx)
	listenCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error {
		defer cancel()
		return stdio.Listen(listenCtx, s.in, s.out)
	})
	g.Go(func() error {
		select {
		case <-s.Context().Done():
			cancel()
		case <-listenCtx.Done():
		}
		return nil
	})

	s.TransitionToRunning()
	s.logger.Info("serving tools", "name", s.name, "tools", s.tools.Len())

	err := g.Wait()
	s.TransitionToStopping()
	if err != nil && !errors.Is(err, context.Canceled) {
		s.TransitionToFailed(err)
		return fmt.Errorf("tool server: %w", err)
	}
	s.TransitionToStopped()
	s.logger.Info("tool server stopped")
	return nil
}

// Stop ends Serve. It is safe to call more than once.
func (s *Server) Stop() {
	s.TransitionToStopping()
}
