package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/margin/portfolio"
)

func (a *App) GetAssets(ctx context.Context) ([]portfolio.Asset, error) {
	return a.portfolio.Assets(ctx)
}

func (a *App) SaveAsset(ctx context.Context, in portfolio.AssetInput) (int64, error) {
	id, err := a.portfolio.SaveAsset(ctx, in)
	return id, a.publishOnSuccess(TopicAssets, err)
}

func (a *App) UpdateAsset(ctx context.Context, id int64, assetType portfolio.AssetType, source string, amount decimal.Decimal) error {
	return a.publishOnSuccess(TopicAssets, a.portfolio.UpdateAsset(ctx, id, assetType, source, amount))
}

func (a *App) UpdateAssetAmount(ctx context.Context, id int64, amount decimal.Decimal) error {
	return a.publishOnSuccess(TopicAssets, a.portfolio.UpdateAssetAmount(ctx, id, amount))
}

func (a *App) DeleteAsset(ctx context.Context, id int64) error {
	return a.publishOnSuccess(TopicAssets, a.portfolio.DeleteAsset(ctx, id))
}

func (a *App) GetPortfolioRatio(ctx context.Context) (portfolio.Ratio, error) {
	return a.portfolio.Ratio(ctx)
}

func (a *App) GetRebalanceAdvice(ctx context.Context, targetStock float64) (*portfolio.Advice, error) {
	return a.portfolio.Advice(ctx, targetStock)
}

// SaveSnapshot records the current totals. Nothing is recorded, and nil is
// returned, for an empty portfolio.
func (a *App) SaveSnapshot(ctx context.Context) (*portfolio.Snapshot, error) {
	snap, err := a.portfolio.SaveSnapshot(ctx)
	if err == nil && snap != nil {
		a.publish(TopicHistory)
	}
	return snap, err
}

func (a *App) GetHistory(ctx context.Context) ([]portfolio.Snapshot, error) {
	return a.portfolio.History(ctx)
}

func (a *App) DeleteHistory(ctx context.Context, id int64) error {
	return a.publishOnSuccess(TopicHistory, a.portfolio.DeleteHistory(ctx, id))
}

func (a *App) GetSources(ctx context.Context) ([]portfolio.Source, error) {
	return a.portfolio.Sources(ctx)
}

func (a *App) AddSource(ctx context.Context, name string) (*portfolio.Source, error) {
	src, err := a.portfolio.AddSource(ctx, name)
	return src, a.publishOnSuccess(TopicSources, err)
}

func (a *App) DeleteSource(ctx context.Context, id int64) error {
	return a.publishOnSuccess(TopicSources, a.portfolio.DeleteSource(ctx, id))
}

func (a *App) SaveRebalance(ctx context.Context, r *portfolio.Rebalance) error {
	return a.publishOnSuccess(TopicRebalance, a.portfolio.SaveRebalance(ctx, r))
}

func (a *App) GetRebalanceHistory(ctx context.Context) ([]portfolio.Rebalance, error) {
	return a.portfolio.Rebalances(ctx)
}

// GetLatestRebalance returns nil when nothing has been recorded.
func (a *App) GetLatestRebalance(ctx context.Context) (*portfolio.Rebalance, error) {
	return a.portfolio.LatestRebalance(ctx)
}

func (a *App) DeleteRebalance(ctx context.Context, id int64) error {
	return a.publishOnSuccess(TopicRebalance, a.portfolio.DeleteRebalance(ctx, id))
}
