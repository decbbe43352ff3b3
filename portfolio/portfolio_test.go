package portfolio

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/margin/storage"
	"github.com/shopspring/decimal"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "margin.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db)
}

func unlocked(t *testing.T) *Service {
	t.Helper()
	svc := newTestService(t)
	assert.NoError(t, svc.SetPassword(context.Background(), "secret"))
	return svc
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstRun", func(t *testing.T) {
		svc := newTestService(t)

		first, err := svc.IsFirstRun(ctx)
		assert.NoError(t, err)
		assert.True(t, first)

		ok, err := svc.VerifyPassword(ctx, "anything")
		assert.NoError(t, err)
		assert.False(t, ok)

		_, err = svc.Assets(ctx)
		assert.True(t, errors.Is(err, ErrNotInitialized))
	})

	t.Run("EmptyPassword", func(t *testing.T) {
		svc := newTestService(t)

		err := svc.SetPassword(ctx, "")
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr))
		assert.Equal(t, "password", verr.Field)
	})

	t.Run("Verify", func(t *testing.T) {
		svc := unlocked(t)

		first, err := svc.IsFirstRun(ctx)
		assert.NoError(t, err)
		assert.False(t, first)

		ok, err := svc.VerifyPassword(ctx, "secret")
		assert.NoError(t, err)
		assert.True(t, ok)

		ok, err = svc.VerifyPassword(ctx, "wrong")
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ResetKeepsData", func(t *testing.T) {
		svc := unlocked(t)
		_, err := svc.SaveAsset(ctx, AssetInput{Code: "110020", Name: "易方达沪深300ETF联接A", Type: Stock, Source: "支付宝", Amount: dec("1234.5")})
		assert.NoError(t, err)

		assert.NoError(t, svc.SetPassword(ctx, "another"))

		assets, err := svc.Assets(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 1, len(assets))
		assert.Equal(t, "1234.5", assets[0].Amount.String())

		ok, err := svc.VerifyPassword(ctx, "another")
		assert.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestSaveAsset(t *testing.T) {
	ctx := context.Background()

	t.Run("Validation", func(t *testing.T) {
		svc := unlocked(t)
		tests := []struct {
			name  string
			in    AssetInput
			field string
		}{
			{"EmptyCode", AssetInput{Name: "n", Type: Stock}, "code"},
			{"EmptyName", AssetInput{Code: "1", Type: Stock}, "name"},
			{"UnknownType", AssetInput{Code: "1", Name: "n", Type: "gold"}, "type"},
			{"NegativeAmount", AssetInput{Code: "1", Name: "n", Type: Bond, Amount: dec("-1")}, "amount"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.SaveAsset(ctx, tt.in)
				var verr *ValidationError
				assert.True(t, errors.As(err, &verr))
				assert.Equal(t, tt.field, verr.Field)
			})
		}
	})

	t.Run("UpsertsOnCodeAndSource", func(t *testing.T) {
		svc := unlocked(t)

		id1, err := svc.SaveAsset(ctx, AssetInput{Code: "050027", Name: "博时信用债", Type: Bond, Source: "支付宝", Amount: dec("100")})
		assert.NoError(t, err)
		id2, err := svc.SaveAsset(ctx, AssetInput{Code: "050027", Name: "博时信用债纯债债券A", Type: Bond, Source: "支付宝", Amount: dec("250.456")})
		assert.NoError(t, err)
		assert.Equal(t, id1, id2)

		id3, err := svc.SaveAsset(ctx, AssetInput{Code: "050027", Name: "博时信用债纯债债券A", Type: Bond, Source: "天天基金", Amount: dec("1")})
		assert.NoError(t, err)
		assert.NotEqual(t, id1, id3)

		assets, err := svc.Assets(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 2, len(assets))
		assert.Equal(t, "博时信用债纯债债券A", assets[0].Name)
		assert.Equal(t, "250.46", assets[0].Amount.StringFixed(2))
	})
}

func TestUpdateAsset(t *testing.T) {
	ctx := context.Background()
	svc := unlocked(t)

	a, err := svc.SaveAsset(ctx, AssetInput{Code: "161725", Name: "招商中证白酒指数", Type: Stock, Source: "支付宝", Amount: dec("10")})
	assert.NoError(t, err)
	b, err := svc.SaveAsset(ctx, AssetInput{Code: "161725", Name: "招商中证白酒指数", Type: Stock, Source: "雪球", Amount: dec("20")})
	assert.NoError(t, err)

	err = svc.UpdateAsset(ctx, b, Stock, "支付宝", dec("30"))
	assert.True(t, errors.Is(err, ErrDuplicate))

	assert.NoError(t, svc.UpdateAsset(ctx, a, Bond, "天天基金", dec("15")))
	assert.NoError(t, svc.UpdateAssetAmount(ctx, b, dec("99.99")))

	err = svc.UpdateAssetAmount(ctx, 404, dec("1"))
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	assets, err := svc.Assets(ctx)
	assert.NoError(t, err)
	assert.Equal(t, Bond, assets[0].Type)
	assert.Equal(t, "天天基金", assets[0].Source)
	assert.Equal(t, "15", assets[0].Amount.String())
	assert.Equal(t, "99.99", assets[1].Amount.String())

	assert.NoError(t, svc.DeleteAsset(ctx, a))
	assets, err = svc.Assets(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(assets))
}

func TestRatioAndAdvice(t *testing.T) {
	ctx := context.Background()
	svc := unlocked(t)

	ratio, err := svc.Ratio(ctx)
	assert.NoError(t, err)
	assert.Equal(t, Ratio{}, ratio)

	_, err = svc.Advice(ctx, 50)
	assert.True(t, errors.Is(err, ErrNoAssets))

	_, err = svc.SaveAsset(ctx, AssetInput{Code: "1", Name: "stock", Type: Stock, Source: "s", Amount: dec("6000")})
	assert.NoError(t, err)
	_, err = svc.SaveAsset(ctx, AssetInput{Code: "2", Name: "bond", Type: Bond, Source: "s", Amount: dec("4000")})
	assert.NoError(t, err)

	ratio, err = svc.Ratio(ctx)
	assert.NoError(t, err)
	assert.Equal(t, Ratio{Stock: 60, Bond: 40}, ratio)

	advice, err := svc.Advice(ctx, 50)
	assert.NoError(t, err)
	assert.Equal(t, "10000", advice.TotalAssets.String())
	assert.Equal(t, "5000", advice.TargetStockTotal.String())
	assert.Equal(t, "5000", advice.TargetBondTotal.String())
	assert.Equal(t, "-1000", advice.StockAdjust.String())
	assert.Equal(t, "1000", advice.BondAdjust.String())
	assert.Equal(t, 50.0, advice.TargetBondRatio)
	assert.True(t, advice.NeedRebalance)

	advice, err = svc.Advice(ctx, 60)
	assert.NoError(t, err)
	assert.False(t, advice.NeedRebalance)
	assert.True(t, advice.StockAdjust.IsZero())

	for _, target := range []float64{-1, 100.5} {
		_, err = svc.Advice(ctx, target)
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr))
	}
}

func TestAdviseForThreshold(t *testing.T) {
	totals := Totals{Stock: dec("6000.5"), Bond: dec("3999.5")}

	advice, err := AdviseFor(totals, 60)
	assert.NoError(t, err)
	assert.False(t, advice.NeedRebalance)

	advice, err = AdviseFor(totals, 59.9)
	assert.NoError(t, err)
	assert.True(t, advice.NeedRebalance)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	svc := unlocked(t)

	snap, err := svc.SaveSnapshot(ctx)
	assert.NoError(t, err)
	assert.Zero(t, snap)

	_, err = svc.SaveAsset(ctx, AssetInput{Code: "1", Name: "stock", Type: Stock, Source: "s", Amount: dec("300")})
	assert.NoError(t, err)
	_, err = svc.SaveAsset(ctx, AssetInput{Code: "2", Name: "bond", Type: Bond, Source: "s", Amount: dec("100")})
	assert.NoError(t, err)

	first, err := svc.SaveSnapshot(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 75.0, first.StockRatio)

	_, err = svc.SaveAsset(ctx, AssetInput{Code: "2", Name: "bond", Type: Bond, Source: "s", Amount: dec("300")})
	assert.NoError(t, err)
	second, err := svc.SaveSnapshot(ctx)
	assert.NoError(t, err)

	history, err := svc.History(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(history))
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, "300", history[0].BondTotal.String())
	assert.Equal(t, 50.0, history[0].BondRatio)

	assert.NoError(t, svc.DeleteHistory(ctx, first.ID))
	history, err = svc.History(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(history))
}

func TestSources(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	assert.NoError(t, svc.SeedSources(ctx))
	assert.NoError(t, svc.SeedSources(ctx))

	sources, err := svc.Sources(ctx)
	assert.NoError(t, err)
	assert.Equal(t, len(storage.DefaultSources), len(sources))

	_, err = svc.AddSource(ctx, "  ")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = svc.AddSource(ctx, "支付宝")
	assert.True(t, errors.Is(err, ErrDuplicate))

	added, err := svc.AddSource(ctx, " 蚂蚁财富 ")
	assert.NoError(t, err)
	assert.Equal(t, "蚂蚁财富", added.Name)

	assert.NoError(t, svc.DeleteSource(ctx, added.ID))
	sources, err = svc.Sources(ctx)
	assert.NoError(t, err)
	assert.Equal(t, len(storage.DefaultSources), len(sources))
}

func TestRebalances(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	latest, err := svc.LatestRebalance(ctx)
	assert.NoError(t, err)
	assert.Zero(t, latest)

	advice, err := AdviseFor(Totals{Stock: dec("700"), Bond: dec("300")}, 60)
	assert.NoError(t, err)

	r := RebalanceFromAdvice(advice, "yearly")
	assert.NoError(t, svc.SaveRebalance(ctx, r))
	assert.NotEqual(t, int64(0), r.ID)

	second := RebalanceFromAdvice(advice, "drift")
	assert.NoError(t, svc.SaveRebalance(ctx, second))

	latest, err = svc.LatestRebalance(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "drift", latest.Note)
	assert.Equal(t, "1000", latest.TotalAmount.String())
	assert.Equal(t, 70.0, latest.StockRatio)

	all, err := svc.Rebalances(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(all))
	assert.Equal(t, second.ID, all[0].ID)

	assert.NoError(t, svc.DeleteRebalance(ctx, second.ID))
	latest, err = svc.LatestRebalance(ctx)
	assert.NoError(t, err)
	assert.Equal(t, r.ID, latest.ID)

	err = svc.SaveRebalance(ctx, &Rebalance{TargetStockRatio: 120})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}
