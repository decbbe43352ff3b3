// Package portfolio implements the stock/bond allocation domain: the local
// password, encrypted holdings, allocation ratios, rebalance advice, history
// snapshots, sources and rebalance records.
//
// Amounts are handled as decimals and persisted encrypted with the key
// generated on first password set.
package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/robinvdvleuten/margin/storage"
	"github.com/robinvdvleuten/margin/vault"
	"github.com/shopspring/decimal"
)

// Service exposes every portfolio operation over a single database.
type Service struct {
	settings   *storage.SettingStore
	assets     *storage.AssetStore
	sources    *storage.SourceStore
	history    *storage.HistoryStore
	rebalances *storage.RebalanceStore
}

// New creates a Service backed by db.
func New(db *storage.DB) *Service {
	return &Service{
		settings:   storage.NewSettingStore(db),
		assets:     storage.NewAssetStore(db),
		sources:    storage.NewSourceStore(db),
		history:    storage.NewHistoryStore(db),
		rebalances: storage.NewRebalanceStore(db),
	}
}

// key returns the data encryption key.
func (s *Service) key(ctx context.Context) (string, error) {
	key, err := s.settings.Get(ctx, storage.SettingEncryptKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrNotInitialized
	}
	return key, err
}

func sealAmount(amount decimal.Decimal, key string) (string, error) {
	return vault.Encrypt(amount.StringFixed(2), key)
}

func openAmount(ciphertext, key string) (decimal.Decimal, error) {
	plain, err := vault.Decrypt(ciphertext, key)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(plain)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid stored amount: %w", err)
	}
	return d, nil
}
