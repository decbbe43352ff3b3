package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/margin/app"
	"github.com/robinvdvleuten/margin/portfolio"
	"github.com/robinvdvleuten/margin/router"
	"github.com/robinvdvleuten/margin/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "margin.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	a := app.New(db, app.Options{Logger: slog.New(slog.DiscardHandler)})
	assert.NoError(t, a.SetPassword(ctx, "hunter2"))

	for _, in := range []portfolio.AssetInput{
		{Code: "510300", Name: "沪深300ETF", Type: portfolio.Stock, Source: "支付宝", Amount: decimal.NewFromInt(7000)},
		{Code: "050027", Name: "博时信用债", Type: portfolio.Bond, Source: "支付宝", Amount: decimal.NewFromInt(3000)},
	} {
		_, err := a.SaveAsset(ctx, in)
		assert.NoError(t, err)
	}

	return New(a, router.Default(), "test", slog.New(slog.DiscardHandler))
}

func request(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultJSON[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	assert.Equal(t, 1, len(res.Content))
	text, ok := res.Content[0].(mcp.TextContent)
	assert.True(t, ok)

	var v T
	assert.NoError(t, json.Unmarshal([]byte(text.Text), &v))
	return v
}

func TestRouteTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleListRoutes(ctx, request(nil))
	assert.NoError(t, err)
	manifest := resultJSON[router.Manifest](t, res)
	assert.Equal(t, 5, len(manifest.Routes))

	res, err = s.handleResolveRoute(ctx, request(map[string]any{"path": "/#/"}))
	assert.NoError(t, err)
	match := resultJSON[router.Match](t, res)
	assert.Equal(t, "Login", match.Route.Component)

	_, err = s.handleResolveRoute(ctx, request(map[string]any{"path": "/missing"}))
	assert.IsError(t, err, router.ErrNoRoute)

	_, err = s.handleResolveRoute(ctx, request(nil))
	assert.Error(t, err)
}

func TestPortfolioToolsLocked(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleListAssets(ctx, request(nil))
	assert.IsError(t, err, ErrLocked)

	_, err = s.handleListAssets(ctx, request(map[string]any{"password": "wrong"}))
	assert.IsError(t, err, ErrLocked)
}

func TestPortfolioTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleListAssets(ctx, request(map[string]any{"password": "hunter2"}))
	assert.NoError(t, err)
	assets := resultJSON[[]map[string]any](t, res)
	assert.Equal(t, 2, len(assets))

	// Unlocked now, the password can be left out.
	res, err = s.handlePortfolioRatio(ctx, request(nil))
	assert.NoError(t, err)
	ratio := resultJSON[portfolio.Ratio](t, res)
	assert.Equal(t, 70.0, ratio.Stock)
	assert.Equal(t, 30.0, ratio.Bond)

	res, err = s.handleRebalanceAdvice(ctx, request(map[string]any{"target": 60.0}))
	assert.NoError(t, err)
	advice := resultJSON[map[string]any](t, res)
	assert.Equal(t, true, advice["need_rebalance"])
	assert.Equal(t, "-1000", advice["stock_adjust"])

	_, err = s.handleRebalanceAdvice(ctx, request(map[string]any{"target": 120.0}))
	assert.Error(t, err)

	res, err = s.handleListHistory(ctx, request(nil))
	assert.NoError(t, err)
	assert.Equal(t, 0, len(resultJSON[[]map[string]any](t, res)))
}
