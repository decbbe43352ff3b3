package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robinvdvleuten/margin/storage"
	"github.com/shopspring/decimal"
)

// AssetType classifies a holding.
type AssetType string

const (
	Stock AssetType = "stock"
	Bond  AssetType = "bond"
)

// Valid reports whether t is a known type.
func (t AssetType) Valid() bool {
	return t == Stock || t == Bond
}

// Asset is a decrypted holding.
type Asset struct {
	ID        int64           `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	URL       string          `json:"url"`
	Type      AssetType       `json:"type"`
	Source    string          `json:"source"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created"`
}

// AssetInput is the data needed to save a holding.
type AssetInput struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	URL    string          `json:"url"`
	Type   AssetType       `json:"type"`
	Source string          `json:"source"`
	Amount decimal.Decimal `json:"amount"`
}

// Validate checks the input fields.
func (in AssetInput) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return invalid("code", "must not be empty")
	}
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if !in.Type.Valid() {
		return invalid("type", fmt.Sprintf("unknown asset type %q", in.Type))
	}
	if in.Amount.IsNegative() {
		return invalid("amount", "must not be negative")
	}
	return nil
}

// Assets returns every holding with its amount decrypted.
func (s *Service) Assets(ctx context.Context) ([]Asset, error) {
	key, err := s.key(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.assets.List(ctx)
	if err != nil {
		return nil, err
	}

	assets := make([]Asset, 0, len(rows))
	for _, row := range rows {
		amount, err := openAmount(row.EncryptedAmount, key)
		if err != nil {
			return nil, fmt.Errorf("asset %d: %w", row.ID, err)
		}
		assets = append(assets, Asset{
			ID:        row.ID,
			Code:      row.Code,
			Name:      row.Name,
			URL:       row.URL,
			Type:      AssetType(row.Type),
			Source:    row.Source,
			Amount:    amount,
			CreatedAt: row.CreatedAt,
		})
	}
	return assets, nil
}

// SaveAsset creates a holding, or updates the one already held under the
// same code at the same source.
func (s *Service) SaveAsset(ctx context.Context, in AssetInput) (int64, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return 0, err
	}

	key, err := s.key(ctx)
	if err != nil {
		return 0, err
	}
	sealed, err := sealAmount(in.Amount, key)
	if err != nil {
		return 0, err
	}

	existing, err := s.assets.GetByCodeAndSource(ctx, in.Code, in.Source)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, err
	}

	if existing != nil {
		existing.Name = in.Name
		existing.URL = in.URL
		existing.Type = string(in.Type)
		existing.EncryptedAmount = sealed
		return existing.ID, s.assets.Update(ctx, existing)
	}

	row := &storage.Asset{
		Code:            in.Code,
		Name:            in.Name,
		URL:             in.URL,
		Type:            string(in.Type),
		Source:          in.Source,
		EncryptedAmount: sealed,
	}
	if err := s.assets.Create(ctx, row); err != nil {
		return 0, err
	}
	return row.ID, nil
}

// UpdateAsset changes the type, source and amount of a holding. Moving it to a
// source that already holds the same code fails with ErrDuplicate.
func (s *Service) UpdateAsset(ctx context.Context, id int64, assetType AssetType, source string, amount decimal.Decimal) error {
	if !assetType.Valid() {
		return invalid("type", fmt.Sprintf("unknown asset type %q", assetType))
	}
	if amount.IsNegative() {
		return invalid("amount", "must not be negative")
	}

	row, err := s.assets.Get(ctx, id)
	if err != nil {
		return err
	}

	other, err := s.assets.GetByCodeAndSource(ctx, row.Code, source)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if other != nil && other.ID != id {
		return fmt.Errorf("asset %s at source %q: %w", row.Code, source, ErrDuplicate)
	}

	key, err := s.key(ctx)
	if err != nil {
		return err
	}
	sealed, err := sealAmount(amount, key)
	if err != nil {
		return err
	}

	row.Type = string(assetType)
	row.Source = source
	row.EncryptedAmount = sealed
	return s.assets.Update(ctx, row)
}

// UpdateAssetAmount replaces the amount of a holding.
func (s *Service) UpdateAssetAmount(ctx context.Context, id int64, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return invalid("amount", "must not be negative")
	}

	row, err := s.assets.Get(ctx, id)
	if err != nil {
		return err
	}

	key, err := s.key(ctx)
	if err != nil {
		return err
	}
	row.EncryptedAmount, err = sealAmount(amount, key)
	if err != nil {
		return err
	}
	return s.assets.Update(ctx, row)
}

// DeleteAsset removes a holding.
func (s *Service) DeleteAsset(ctx context.Context, id int64) error {
	return s.assets.Delete(ctx, id)
}
