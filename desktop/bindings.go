// Package desktop runs margin in a native window. The window loads the same
// built frontend as the HTTP server and calls the App through Bindings.
package desktop

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/margin/app"
	"github.com/robinvdvleuten/margin/market"
	"github.com/robinvdvleuten/margin/portfolio"
	"github.com/robinvdvleuten/margin/storage"
)

// Window defaults.
const (
	Width  = 1320
	Height = 880
)

// Bindings exposes the App to the window's JavaScript. Bound methods cannot
// take a context, so the one handed over at startup is used for every call.
type Bindings struct {
	app *app.App
	ctx context.Context
}

// NewBindings wraps a.
func NewBindings(a *app.App) *Bindings {
	return &Bindings{app: a, ctx: context.Background()}
}

// Startup stores the window context and seeds default data.
func (b *Bindings) Startup(ctx context.Context) {
	b.ctx = ctx
	b.app.Startup(ctx)
}

func (b *Bindings) IsFirstRun() (bool, error) {
	return b.app.IsFirstRun(b.ctx)
}

func (b *Bindings) SetPassword(password string) error {
	return b.app.SetPassword(b.ctx, password)
}

func (b *Bindings) VerifyPassword(password string) (bool, error) {
	return b.app.VerifyPassword(b.ctx, password)
}

func (b *Bindings) IsAuthenticated() bool {
	return b.app.IsAuthenticated()
}

func (b *Bindings) Logout() {
	b.app.Logout()
}

func (b *Bindings) GetAssets() ([]portfolio.Asset, error) {
	return b.app.GetAssets(b.ctx)
}

func (b *Bindings) GetFundInfo(code string) (*market.FundInfo, error) {
	return b.app.GetFundInfo(b.ctx, code)
}

func (b *Bindings) SaveAsset(code, name, url, assetType, source string, amount float64) (int64, error) {
	return b.app.SaveAsset(b.ctx, portfolio.AssetInput{
		Code:   code,
		Name:   name,
		URL:    url,
		Type:   portfolio.AssetType(assetType),
		Source: source,
		Amount: decimal.NewFromFloat(amount),
	})
}

func (b *Bindings) UpdateAsset(id int64, assetType, source string, amount float64) error {
	return b.app.UpdateAsset(b.ctx, id, portfolio.AssetType(assetType), source, decimal.NewFromFloat(amount))
}

func (b *Bindings) UpdateAssetAmount(id int64, amount float64) error {
	return b.app.UpdateAssetAmount(b.ctx, id, decimal.NewFromFloat(amount))
}

func (b *Bindings) DeleteAsset(id int64) error {
	return b.app.DeleteAsset(b.ctx, id)
}

func (b *Bindings) GetPortfolioRatio() (portfolio.Ratio, error) {
	return b.app.GetPortfolioRatio(b.ctx)
}

func (b *Bindings) GetRebalanceAdvice(targetStock float64) (*portfolio.Advice, error) {
	return b.app.GetRebalanceAdvice(b.ctx, targetStock)
}

func (b *Bindings) SaveSnapshot() (*portfolio.Snapshot, error) {
	return b.app.SaveSnapshot(b.ctx)
}

func (b *Bindings) GetHistory() ([]portfolio.Snapshot, error) {
	return b.app.GetHistory(b.ctx)
}

func (b *Bindings) DeleteHistory(id int64) error {
	return b.app.DeleteHistory(b.ctx, id)
}

func (b *Bindings) GetSources() ([]portfolio.Source, error) {
	return b.app.GetSources(b.ctx)
}

func (b *Bindings) AddSource(name string) (*portfolio.Source, error) {
	return b.app.AddSource(b.ctx, name)
}

func (b *Bindings) DeleteSource(id int64) error {
	return b.app.DeleteSource(b.ctx, id)
}

func (b *Bindings) GetIndexData(code string) (*market.IndexData, error) {
	return b.app.GetIndexData(b.ctx, code)
}

func (b *Bindings) GetAllIndexes() ([]market.IndexData, error) {
	return b.app.GetAllIndexes(b.ctx)
}

func (b *Bindings) GetDBInfo() (storage.Info, error) {
	return b.app.GetDBInfo()
}

func (b *Bindings) GetSystemInfo() app.SystemInfo {
	return b.app.GetSystemInfo()
}

func (b *Bindings) BackupDatabase(dest string) error {
	return b.app.BackupDatabase(dest)
}

// SaveRebalance records carrying out the advice for targetStock.
func (b *Bindings) SaveRebalance(targetStock float64, note string) (*portfolio.Rebalance, error) {
	advice, err := b.app.GetRebalanceAdvice(b.ctx, targetStock)
	if err != nil {
		return nil, err
	}
	record := portfolio.RebalanceFromAdvice(advice, note)
	if err := b.app.SaveRebalance(b.ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (b *Bindings) GetRebalanceHistory() ([]portfolio.Rebalance, error) {
	return b.app.GetRebalanceHistory(b.ctx)
}

func (b *Bindings) GetLatestRebalance() (*portfolio.Rebalance, error) {
	return b.app.GetLatestRebalance(b.ctx)
}

func (b *Bindings) DeleteRebalance(id int64) error {
	return b.app.DeleteRebalance(b.ctx, id)
}
