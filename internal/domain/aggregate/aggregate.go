// Package aggregate computes per-demographic mean prices.
package aggregate

import (
	"context"
	"slices"

	"github.com/okian/persona/internal/domain/model"
	"github.com/shopspring/decimal"
)

type accumulator struct {
	sum   decimal.Decimal
	count int
}

// GroupMeans partitions txs by the exact (country, source, sex, age) tuple
// and returns one row per tuple carrying the arithmetic mean price.
//
// Ordering: mean price DESC, then tuple ASC (deterministic). An empty input
// yields an empty, non-nil result.
func GroupMeans(ctx context.Context, txs []model.Transaction) ([]model.GroupMean, error) {
	groups := make(map[model.Demographic]*accumulator)
	for _, tx := range txs {
		d := tx.Demographic()
		acc, ok := groups[d]
		if !ok {
			acc = &accumulator{sum: decimal.Zero}
			groups[d] = acc
		}
		acc.sum = acc.sum.Add(tx.Price)
		acc.count++
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]model.GroupMean, 0, len(groups))
	for d, acc := range groups {
		mean, _ := acc.sum.Div(decimal.NewFromInt(int64(acc.count))).Float64()
		out = append(out, model.GroupMean{
			Demographic: d,
			Count:       acc.count,
			MeanPrice:   mean,
		})
	}

	slices.SortFunc(out, func(a, b model.GroupMean) int {
		switch {
		case a.MeanPrice > b.MeanPrice:
			return -1
		case a.MeanPrice < b.MeanPrice:
			return 1
		case a.Demographic.Less(b.Demographic):
			return -1
		case b.Demographic.Less(a.Demographic):
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

// MaxAge returns the largest age among groups and false when there are none.
func MaxAge(groups []model.GroupMean) (int, bool) {
	if len(groups) == 0 {
		return 0, false
	}
	m := groups[0].Age
	for _, g := range groups[1:] {
		if g.Age > m {
			m = g.Age
		}
	}
	return m, true
}
