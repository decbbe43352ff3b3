package desktop

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/margin/app"
	"github.com/robinvdvleuten/margin/portfolio"
	"github.com/robinvdvleuten/margin/storage"
	"github.com/robinvdvleuten/margin/web"
)

func TestBindings(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "margin.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	b := NewBindings(app.New(db, app.Options{}))
	b.Startup(context.Background())

	first, err := b.IsFirstRun()
	assert.NoError(t, err)
	assert.True(t, first)

	assert.NoError(t, b.SetPassword("hunter2"))
	ok, err := b.VerifyPassword("hunter2")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, b.IsAuthenticated())

	sources, err := b.GetSources()
	assert.NoError(t, err)
	assert.Equal(t, len(storage.DefaultSources), len(sources))

	id, err := b.SaveAsset("510300", "沪深300ETF", "", string(portfolio.Stock), "支付宝", 5000)
	assert.NoError(t, err)
	_, err = b.SaveAsset("050027", "博时信用债", "", string(portfolio.Bond), "支付宝", 5000)
	assert.NoError(t, err)

	ratio, err := b.GetPortfolioRatio()
	assert.NoError(t, err)
	assert.Equal(t, 50.0, ratio.Stock)

	record, err := b.SaveRebalance(40, "less risk")
	assert.NoError(t, err)
	assert.Equal(t, 40.0, record.TargetStockRatio)

	latest, err := b.GetLatestRebalance()
	assert.NoError(t, err)
	assert.Equal(t, record.ID, latest.ID)

	assert.NoError(t, b.UpdateAssetAmount(id, 6000))
	assets, err := b.GetAssets()
	assert.NoError(t, err)
	assert.Equal(t, 2, len(assets))

	b.Logout()
	assert.False(t, b.IsAuthenticated())
}

func TestRunUnavailable(t *testing.T) {
	if Available {
		t.Skip("built with the desktop window")
	}
	assert.IsError(t, Run(nil, ""), ErrUnavailable)
}

func TestAPIHandler(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "margin.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := app.New(db, app.Options{})
	a.Startup(context.Background())
	h, err := APIHandler(a, nil)
	assert.NoError(t, err)

	do := func(method, target, body string) *httptest.ResponseRecorder {
		var r io.Reader
		if body != "" {
			r = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, target, r)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodGet, "/api/auth/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var status web.AuthStatus
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.True(t, status.FirstRun)

	rec = do(http.MethodPost, "/api/auth/password", `{"password":"hunter2"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(http.MethodGet, "/api/assets", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The window may not keep cookies; unlocking the App is enough.
	rec = do(http.MethodPost, "/api/auth/login", `{"password":"hunter2"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodGet, "/api/auth/status", "")
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.True(t, status.Authenticated)

	rec = do(http.MethodGet, "/api/assets", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodPost, "/api/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, a.IsAuthenticated())

	rec = do(http.MethodGet, "/api/assets", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
