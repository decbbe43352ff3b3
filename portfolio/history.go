package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/robinvdvleuten/margin/storage"
	"github.com/shopspring/decimal"
)

// Snapshot is a decrypted history entry.
type Snapshot struct {
	ID         int64           `json:"id"`
	StockTotal decimal.Decimal `json:"stock_total"`
	BondTotal  decimal.Decimal `json:"bond_total"`
	StockRatio float64         `json:"stock_ratio"`
	BondRatio  float64         `json:"bond_ratio"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SaveSnapshot records the current totals. It returns nil without writing
// anything when the portfolio is empty.
func (s *Service) SaveSnapshot(ctx context.Context) (*Snapshot, error) {
	key, err := s.key(ctx)
	if err != nil {
		return nil, err
	}

	t, err := s.Totals(ctx)
	if err != nil {
		return nil, err
	}
	if t.Total().IsZero() {
		return nil, nil
	}

	stock, err := sealAmount(t.Stock, key)
	if err != nil {
		return nil, err
	}
	bond, err := sealAmount(t.Bond, key)
	if err != nil {
		return nil, err
	}

	ratio := t.Ratio()
	row := &storage.Snapshot{
		EncryptedStockTotal: stock,
		EncryptedBondTotal:  bond,
		StockRatio:          ratio.Stock,
		BondRatio:           ratio.Bond,
	}
	if err := s.history.Create(ctx, row); err != nil {
		return nil, err
	}

	return &Snapshot{
		ID:         row.ID,
		StockTotal: t.Stock,
		BondTotal:  t.Bond,
		StockRatio: ratio.Stock,
		BondRatio:  ratio.Bond,
		CreatedAt:  row.CreatedAt,
	}, nil
}

// History returns snapshots newest first.
func (s *Service) History(ctx context.Context) ([]Snapshot, error) {
	key, err := s.key(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.history.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Snapshot, 0, len(rows))
	for _, row := range rows {
		stock, err := openAmount(row.EncryptedStockTotal, key)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", row.ID, err)
		}
		bond, err := openAmount(row.EncryptedBondTotal, key)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", row.ID, err)
		}
		out = append(out, Snapshot{
			ID:         row.ID,
			StockTotal: stock,
			BondTotal:  bond,
			StockRatio: row.StockRatio,
			BondRatio:  row.BondRatio,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out, nil
}

// DeleteHistory removes a snapshot.
func (s *Service) DeleteHistory(ctx context.Context, id int64) error {
	return s.history.Delete(ctx, id)
}
