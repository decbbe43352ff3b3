// Package mcpserver exposes margin's route table and portfolio to AI agents
// over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/robinvdvleuten/margin/app"
	"github.com/robinvdvleuten/margin/router"
)

// ErrLocked is returned by data tools called without the right password.
var ErrLocked = errors.New("portfolio is locked: pass the password argument")

// Server is the MCP server for margin.
type Server struct {
	mcp    *server.MCPServer
	app    *app.App
	routes *router.Table
	logger *slog.Logger
}

// New creates the server and registers its tools.
func New(a *app.App, routes *router.Table, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if version == "" {
		version = "dev"
	}

	s := &Server{
		app:    a,
		routes: routes,
		logger: logger,
	}
	s.mcp = server.NewMCPServer(
		"margin",
		version,
		server.WithToolCapabilities(true),
	)

	s.registerRouteTools()
	s.registerPortfolioTools()
	return s
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting mcp stdio server")
	return server.ServeStdio(s.mcp)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// unlock verifies the password argument unless the app is already unlocked.
func (s *Server) unlock(ctx context.Context, req mcp.CallToolRequest) error {
	if s.app.IsAuthenticated() {
		return nil
	}
	password := req.GetString("password", "")
	if password == "" {
		return ErrLocked
	}
	ok, err := s.app.VerifyPassword(ctx, password)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

func passwordArg() mcp.ToolOption {
	return mcp.WithString("password",
		mcp.Description("Password unlocking the portfolio. Not needed once unlocked."),
	)
}
