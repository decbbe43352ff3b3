package portfolio

import (
	"context"
	"errors"
	"time"

	"github.com/robinvdvleuten/margin/storage"
	"github.com/shopspring/decimal"
)

// Rebalance records a rebalancing the user carried out.
type Rebalance struct {
	ID               int64           `json:"id"`
	StockRatio       float64         `json:"stock_ratio"`
	BondRatio        float64         `json:"bond_ratio"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	StockAmount      decimal.Decimal `json:"stock_amount"`
	BondAmount       decimal.Decimal `json:"bond_amount"`
	TargetStockRatio float64         `json:"target_stock_ratio"`
	TargetBondRatio  float64         `json:"target_bond_ratio"`
	Note             string          `json:"note"`
	CreatedAt        time.Time       `json:"created_at"`
}

// RebalanceFromAdvice builds the record for carrying out a.
func RebalanceFromAdvice(a *Advice, note string) *Rebalance {
	return &Rebalance{
		StockRatio:       a.CurrentStockRatio,
		BondRatio:        a.CurrentBondRatio,
		TotalAmount:      a.TotalAssets,
		StockAmount:      a.CurrentStockTotal,
		BondAmount:       a.CurrentBondTotal,
		TargetStockRatio: a.TargetStockRatio,
		TargetBondRatio:  a.TargetBondRatio,
		Note:             note,
	}
}

// SaveRebalance stores r and sets its ID.
func (s *Service) SaveRebalance(ctx context.Context, r *Rebalance) error {
	if r.TargetStockRatio < 0 || r.TargetStockRatio > 100 {
		return invalid("target_stock_ratio", "must be between 0 and 100")
	}

	row := &storage.Rebalance{
		StockRatio:       r.StockRatio,
		BondRatio:        r.BondRatio,
		TotalAmount:      r.TotalAmount.InexactFloat64(),
		StockAmount:      r.StockAmount.InexactFloat64(),
		BondAmount:       r.BondAmount.InexactFloat64(),
		TargetStockRatio: r.TargetStockRatio,
		TargetBondRatio:  r.TargetBondRatio,
		Note:             r.Note,
	}
	if err := s.rebalances.Create(ctx, row); err != nil {
		return err
	}

	r.ID = row.ID
	r.CreatedAt = row.CreatedAt
	return nil
}

// Rebalances lists records newest first.
func (s *Service) Rebalances(ctx context.Context) ([]Rebalance, error) {
	rows, err := s.rebalances.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Rebalance, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRebalanceRow(row))
	}
	return out, nil
}

// LatestRebalance returns the most recent record, or nil when there is none.
func (s *Service) LatestRebalance(ctx context.Context) (*Rebalance, error) {
	row, err := s.rebalances.Latest(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r := fromRebalanceRow(*row)
	return &r, nil
}

// DeleteRebalance removes a record.
func (s *Service) DeleteRebalance(ctx context.Context, id int64) error {
	return s.rebalances.Delete(ctx, id)
}

func fromRebalanceRow(row storage.Rebalance) Rebalance {
	return Rebalance{
		ID:               row.ID,
		StockRatio:       row.StockRatio,
		BondRatio:        row.BondRatio,
		TotalAmount:      decimal.NewFromFloat(row.TotalAmount),
		StockAmount:      decimal.NewFromFloat(row.StockAmount),
		BondAmount:       decimal.NewFromFloat(row.BondAmount),
		TargetStockRatio: row.TargetStockRatio,
		TargetBondRatio:  row.TargetBondRatio,
		Note:             row.Note,
		CreatedAt:        row.CreatedAt,
	}
}
