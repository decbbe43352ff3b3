package app

import (
	"context"
	"errors"

	"github.com/robinvdvleuten/margin/config"
	"github.com/robinvdvleuten/margin/market"
)

// ErrMarketUnavailable is returned when no market service was configured.
var ErrMarketUnavailable = errors.New("market data is not configured")

// MarketServices builds the fund and index services from cfg.
func MarketServices(cfg config.MarketConfig) (*market.FundService, *market.IndexService) {
	timeout := market.WithTimeout(cfg.TimeoutDuration())
	return market.NewFundService(cfg.FundURL, timeout), market.NewIndexService(cfg.QuoteURL, timeout)
}

// GetFundInfo looks up a fund by code.
func (a *App) GetFundInfo(ctx context.Context, code string) (*market.FundInfo, error) {
	if a.funds == nil {
		return nil, ErrMarketUnavailable
	}
	return a.funds.FundInfo(ctx, code)
}

// GetIndexData fetches a single index quote.
func (a *App) GetIndexData(ctx context.Context, code string) (*market.IndexData, error) {
	if a.indexes == nil {
		return nil, ErrMarketUnavailable
	}
	return a.indexes.Index(ctx, code)
}

// GetAllIndexes returns every index quote, from cache while it is fresh.
func (a *App) GetAllIndexes(ctx context.Context) ([]market.IndexData, error) {
	a.mu.RLock()
	quotes, at := a.quotes, a.quotesAt
	a.mu.RUnlock()

	if quotes != nil && a.now().Sub(at) < QuoteTTL {
		return quotes, nil
	}
	return a.RefreshQuotes(ctx)
}

// RefreshQuotes refetches every index quote into the cache. Indexes that fail
// are left out.
func (a *App) RefreshQuotes(ctx context.Context) ([]market.IndexData, error) {
	if a.indexes == nil {
		return nil, ErrMarketUnavailable
	}

	quotes := a.indexes.AllIndexes(ctx)

	a.mu.Lock()
	a.quotes = quotes
	a.quotesAt = a.now()
	a.mu.Unlock()

	a.publish(TopicIndexes)
	return quotes, nil
}
