package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerRouteTools() {
	s.mcp.AddTool(mcp.NewTool("list_routes",
		mcp.WithDescription("List the pages of the margin app and the paths they are reached by"),
	), s.handleListRoutes)

	s.mcp.AddTool(mcp.NewTool("resolve_route",
		mcp.WithDescription("Resolve a path or hash-history URL to the page it shows, following redirects"),
		mcp.WithString("path",
			mcp.Description("Route path such as /dashboard, or a location such as http://localhost:34115/#/settings"),
			mcp.Required(),
		),
	), s.handleResolveRoute)
}

func (s *Server) handleListRoutes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.routes.Manifest())
}

func (s *Server) handleResolveRoute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	match, err := s.routes.Navigate(path)
	if err != nil {
		return nil, err
	}
	return jsonResult(match)
}
