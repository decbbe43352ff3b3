package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPortfolioTools() {
	s.mcp.AddTool(mcp.NewTool("list_assets",
		mcp.WithDescription("List every holding with its code, name, type (stock or bond), source and amount"),
		passwordArg(),
	), s.handleListAssets)

	s.mcp.AddTool(mcp.NewTool("portfolio_ratio",
		mcp.WithDescription("Current stock/bond split of the portfolio in percent"),
		passwordArg(),
	), s.handlePortfolioRatio)

	s.mcp.AddTool(mcp.NewTool("rebalance_advice",
		mcp.WithDescription("Amounts to move between stocks and bonds to reach a target stock percentage"),
		mcp.WithNumber("target",
			mcp.Description("Target stock percentage, 0 to 100"),
			mcp.Required(),
		),
		passwordArg(),
	), s.handleRebalanceAdvice)

	s.mcp.AddTool(mcp.NewTool("list_history",
		mcp.WithDescription("Portfolio snapshots, newest first"),
		passwordArg(),
	), s.handleListHistory)
}

func (s *Server) handleListAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.unlock(ctx, req); err != nil {
		return nil, err
	}
	assets, err := s.app.GetAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return jsonResult(assets)
}

func (s *Server) handlePortfolioRatio(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.unlock(ctx, req); err != nil {
		return nil, err
	}
	ratio, err := s.app.GetPortfolioRatio(ctx)
	if err != nil {
		return nil, fmt.Errorf("portfolio ratio: %w", err)
	}
	return jsonResult(ratio)
}

func (s *Server) handleRebalanceAdvice(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.unlock(ctx, req); err != nil {
		return nil, err
	}
	target := req.GetFloat("target", -1)
	advice, err := s.app.GetRebalanceAdvice(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("rebalance advice: %w", err)
	}
	return jsonResult(advice)
}

func (s *Server) handleListHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.unlock(ctx, req); err != nil {
		return nil, err
	}
	history, err := s.app.GetHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return jsonResult(history)
}
