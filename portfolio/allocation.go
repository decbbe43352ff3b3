package portfolio

import (
	"context"
	"math"

	"github.com/shopspring/decimal"
)

// RebalanceThreshold is the percentage-point drift beyond which a rebalance
// is advised.
const RebalanceThreshold = 0.01

var hundred = decimal.NewFromInt(100)

// Totals holds the summed amounts per asset type.
type Totals struct {
	Stock decimal.Decimal `json:"stock"`
	Bond  decimal.Decimal `json:"bond"`
}

// Total returns the sum of both sides.
func (t Totals) Total() decimal.Decimal {
	return t.Stock.Add(t.Bond)
}

// Ratio returns the allocation in percent. A zero total yields 0/0.
func (t Totals) Ratio() Ratio {
	total := t.Total()
	if total.IsZero() {
		return Ratio{}
	}
	return Ratio{
		Stock: t.Stock.Div(total).Mul(hundred).InexactFloat64(),
		Bond:  t.Bond.Div(total).Mul(hundred).InexactFloat64(),
	}
}

// SumTotals adds up assets by type. Anything not a stock counts as bond.
func SumTotals(assets []Asset) Totals {
	t := Totals{Stock: decimal.Zero, Bond: decimal.Zero}
	for _, a := range assets {
		if a.Type == Stock {
			t.Stock = t.Stock.Add(a.Amount)
		} else {
			t.Bond = t.Bond.Add(a.Amount)
		}
	}
	return t
}

// Ratio is a stock/bond split in percent.
type Ratio struct {
	Stock float64 `json:"stock"`
	Bond  float64 `json:"bond"`
}

// Advice describes how to move from the current allocation to a target.
type Advice struct {
	TotalAssets       decimal.Decimal `json:"total_assets"`
	CurrentStockTotal decimal.Decimal `json:"current_stock_total"`
	CurrentBondTotal  decimal.Decimal `json:"current_bond_total"`
	CurrentStockRatio float64         `json:"current_stock_ratio"`
	CurrentBondRatio  float64         `json:"current_bond_ratio"`
	TargetStockRatio  float64         `json:"target_stock_ratio"`
	TargetBondRatio   float64         `json:"target_bond_ratio"`
	TargetStockTotal  decimal.Decimal `json:"target_stock_total"`
	TargetBondTotal   decimal.Decimal `json:"target_bond_total"`
	StockAdjust       decimal.Decimal `json:"stock_adjust"`
	BondAdjust        decimal.Decimal `json:"bond_adjust"`
	NeedRebalance     bool            `json:"need_rebalance"`
}

// Totals sums the current holdings.
func (s *Service) Totals(ctx context.Context) (Totals, error) {
	assets, err := s.Assets(ctx)
	if err != nil {
		return Totals{}, err
	}
	return SumTotals(assets), nil
}

// Ratio returns the current allocation.
func (s *Service) Ratio(ctx context.Context) (Ratio, error) {
	t, err := s.Totals(ctx)
	if err != nil {
		return Ratio{}, err
	}
	return t.Ratio(), nil
}

// Advice compares the current allocation with targetStock percent stocks.
func (s *Service) Advice(ctx context.Context, targetStock float64) (*Advice, error) {
	if math.IsNaN(targetStock) || targetStock < 0 || targetStock > 100 {
		return nil, invalid("target", "must be between 0 and 100")
	}

	t, err := s.Totals(ctx)
	if err != nil {
		return nil, err
	}
	return AdviseFor(t, targetStock)
}

// AdviseFor computes advice for the given totals.
func AdviseFor(t Totals, targetStock float64) (*Advice, error) {
	total := t.Total()
	if total.IsZero() {
		return nil, ErrNoAssets
	}

	current := t.Ratio()
	targetBond := 100 - targetStock

	targetStockTotal := total.Mul(decimal.NewFromFloat(targetStock)).Div(hundred).Round(2)
	targetBondTotal := total.Sub(targetStockTotal)

	return &Advice{
		TotalAssets:       total,
		CurrentStockTotal: t.Stock,
		CurrentBondTotal:  t.Bond,
		CurrentStockRatio: current.Stock,
		CurrentBondRatio:  current.Bond,
		TargetStockRatio:  targetStock,
		TargetBondRatio:   targetBond,
		TargetStockTotal:  targetStockTotal,
		TargetBondTotal:   targetBondTotal,
		StockAdjust:       targetStockTotal.Sub(t.Stock),
		BondAdjust:        targetBondTotal.Sub(t.Bond),
		NeedRebalance:     math.Abs(current.Stock-targetStock) > RebalanceThreshold,
	}, nil
}
