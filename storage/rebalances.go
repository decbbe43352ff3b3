package storage

import (
	"context"
	"fmt"
	"time"
)

// Rebalance records a rebalancing the user carried out.
type Rebalance struct {
	ID               int64
	StockRatio       float64
	BondRatio        float64
	TotalAmount      float64
	StockAmount      float64
	BondAmount       float64
	TargetStockRatio float64
	TargetBondRatio  float64
	Note             string
	CreatedAt        time.Time
}

// RebalanceStore persists rebalance records.
type RebalanceStore struct {
	db *DB
}

func NewRebalanceStore(db *DB) *RebalanceStore {
	return &RebalanceStore{db: db}
}

const rebalanceColumns = `id, stock_ratio, bond_ratio, total_amount, stock_amount, bond_amount, target_stock_ratio, target_bond_ratio, note, created_at`

func scanRebalance(row interface{ Scan(...any) error }, r *Rebalance) error {
	return row.Scan(&r.ID, &r.StockRatio, &r.BondRatio, &r.TotalAmount, &r.StockAmount, &r.BondAmount,
		&r.TargetStockRatio, &r.TargetBondRatio, &r.Note, &r.CreatedAt)
}

// Create inserts r.
func (s *RebalanceStore) Create(ctx context.Context, r *Rebalance) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	res, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO rebalances (stock_ratio, bond_ratio, total_amount, stock_amount, bond_amount, target_stock_ratio, target_bond_ratio, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StockRatio, r.BondRatio, r.TotalAmount, r.StockAmount, r.BondAmount, r.TargetStockRatio, r.TargetBondRatio, r.Note, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create rebalance: %w", err)
	}
	r.ID, err = res.LastInsertId()
	return err
}

// List returns records newest first.
func (s *RebalanceStore) List(ctx context.Context) ([]Rebalance, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT `+rebalanceColumns+` FROM rebalances ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list rebalances: %w", err)
	}
	defer rows.Close()

	var out []Rebalance
	for rows.Next() {
		var r Rebalance
		if err := scanRebalance(rows, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Latest returns the most recent record or an error matching ErrNotFound.
func (s *RebalanceStore) Latest(ctx context.Context) (*Rebalance, error) {
	r := &Rebalance{}
	row := s.db.conn.QueryRowContext(ctx, `SELECT `+rebalanceColumns+` FROM rebalances ORDER BY id DESC LIMIT 1`)
	if err := scanRebalance(row, r); err != nil {
		return nil, notFound(err, "latest rebalance")
	}
	return r, nil
}

// Delete removes the record with id.
func (s *RebalanceStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM rebalances WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete rebalance %d: %w", id, err)
	}
	return expectRow(res, fmt.Sprintf("delete rebalance %d", id))
}
