// Package dedupe collapses persona rows that share a key.
package dedupe

import (
	"context"
	"slices"
	"strings"

	"github.com/okian/persona/internal/domain/model"
)

// Deduper re-aggregates persona rows so each key appears once.
type Deduper interface {
	// Dedupe groups rows by key and returns one row per key ordered by
	// price DESC, then key ASC.
	Dedupe(ctx context.Context, rows []model.PersonaRow) ([]model.PersonaRow, error)
}

// meanOfMeans averages the already-averaged group prices of a key. Every
// input row weighs the same regardless of how many transactions produced
// it, so the result differs from a mean over the raw transactions whenever
// the collapsed groups had different sizes.
type meanOfMeans struct{}

// NewMeanOfMeans creates the mean-of-means deduper.
func NewMeanOfMeans() Deduper {
	return meanOfMeans{}
}

type acc struct {
	sum   float64
	count int
}

func (meanOfMeans) Dedupe(ctx context.Context, rows []model.PersonaRow) ([]model.PersonaRow, error) {
	byKey := make(map[string]*acc, len(rows))
	order := make([]string, 0, len(rows))
	for _, r := range rows {
		a, ok := byKey[r.Key]
		if !ok {
			a = &acc{}
			byKey[r.Key] = a
			order = append(order, r.Key)
		}
		a.sum += r.MeanPrice
		a.count++
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]model.PersonaRow, 0, len(order))
	for _, k := range order {
		a := byKey[k]
		out = append(out, model.PersonaRow{Key: k, MeanPrice: a.sum / float64(a.count)})
	}
	slices.SortStableFunc(out, func(a, b model.PersonaRow) int {
		switch {
		case a.MeanPrice > b.MeanPrice:
			return -1
		case a.MeanPrice < b.MeanPrice:
			return 1
		default:
			return strings.Compare(a.Key, b.Key)
		}
	})
	return out, nil
}
