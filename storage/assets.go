package storage

import (
	"context"
	"fmt"
	"time"
)

// Asset is a stored holding. The amount is stored encrypted.
type Asset struct {
	ID              int64
	Code            string
	Name            string
	URL             string
	Type            string
	Source          string
	EncryptedAmount string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AssetStore persists assets.
type AssetStore struct {
	db *DB
}

func NewAssetStore(db *DB) *AssetStore {
	return &AssetStore{db: db}
}

const assetColumns = `id, code, name, url, type, source, encrypted_amount, created_at, updated_at`

func scanAsset(row interface{ Scan(...any) error }, a *Asset) error {
	return row.Scan(&a.ID, &a.Code, &a.Name, &a.URL, &a.Type, &a.Source, &a.EncryptedAmount, &a.CreatedAt, &a.UpdatedAt)
}

// List returns all assets in insertion order.
func (s *AssetStore) List(ctx context.Context) ([]Asset, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		if err := scanAsset(rows, &a); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// Get returns the asset with id.
func (s *AssetStore) Get(ctx context.Context, id int64) (*Asset, error) {
	a := &Asset{}
	row := s.db.conn.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	if err := scanAsset(row, a); err != nil {
		return nil, notFound(err, fmt.Sprintf("get asset %d", id))
	}
	return a, nil
}

// GetByCodeAndSource returns the asset held at source under code.
func (s *AssetStore) GetByCodeAndSource(ctx context.Context, code, source string) (*Asset, error) {
	a := &Asset{}
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE code = ? AND source = ? ORDER BY id ASC LIMIT 1`, code, source)
	if err := scanAsset(row, a); err != nil {
		return nil, notFound(err, "get asset by code and source")
	}
	return a, nil
}

// Create inserts a and sets its ID and timestamps.
func (s *AssetStore) Create(ctx context.Context, a *Asset) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	res, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO assets (code, name, url, type, source, encrypted_amount, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Code, a.Name, a.URL, a.Type, a.Source, a.EncryptedAmount, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create asset: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

// Update writes every mutable column of a.
func (s *AssetStore) Update(ctx context.Context, a *Asset) error {
	a.UpdatedAt = time.Now()
	res, err := s.db.conn.ExecContext(ctx,
		`UPDATE assets SET code = ?, name = ?, url = ?, type = ?, source = ?, encrypted_amount = ?, updated_at = ? WHERE id = ?`,
		a.Code, a.Name, a.URL, a.Type, a.Source, a.EncryptedAmount, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	return expectRow(res, fmt.Sprintf("update asset %d", a.ID))
}

// Delete removes the asset with id. Deleting a missing asset is not an error.
func (s *AssetStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete asset %d: %w", id, err)
	}
	return expectRow(res, fmt.Sprintf("delete asset %d", id))
}
