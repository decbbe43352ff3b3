package storage

import (
	"context"
	"fmt"
	"time"
)

// Snapshot is a point-in-time record of portfolio totals. Totals are stored
// encrypted; ratios are kept in the clear for charting.
type Snapshot struct {
	ID                  int64
	EncryptedStockTotal string
	EncryptedBondTotal  string
	StockRatio          float64
	BondRatio           float64
	CreatedAt           time.Time
}

// HistoryStore persists snapshots.
type HistoryStore struct {
	db *DB
}

func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Create inserts snap.
func (s *HistoryStore) Create(ctx context.Context, snap *Snapshot) error {
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}

	res, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO history (encrypted_stock_total, encrypted_bond_total, stock_ratio, bond_ratio, created_at) VALUES (?, ?, ?, ?, ?)`,
		snap.EncryptedStockTotal, snap.EncryptedBondTotal, snap.StockRatio, snap.BondRatio, snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	snap.ID, err = res.LastInsertId()
	return err
}

// List returns snapshots newest first.
func (s *HistoryStore) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, encrypted_stock_total, encrypted_bond_total, stock_ratio, bond_ratio, created_at
		 FROM history ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var h Snapshot
		if err := rows.Scan(&h.ID, &h.EncryptedStockTotal, &h.EncryptedBondTotal, &h.StockRatio, &h.BondRatio, &h.CreatedAt); err != nil {
			return nil, err
		}
		snaps = append(snaps, h)
	}
	return snaps, rows.Err()
}

// Delete removes the snapshot with id.
func (s *HistoryStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete history %d: %w", id, err)
	}
	return expectRow(res, fmt.Sprintf("delete history %d", id))
}
