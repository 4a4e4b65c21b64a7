// Package segment ranks personas into equal-frequency price tiers.
package segment

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/okian/persona/internal/domain/model"
)

// DefaultLabels are the quartile labels in ascending price order.
var DefaultLabels = []string{"D", "C", "B", "A"} //nolint:gochecknoglobals // read-only default

// Segmenter assigns a tier label to every deduplicated persona row.
type Segmenter interface {
	// Segment labels rows; the returned slice keeps the input order.
	Segment(ctx context.Context, rows []model.PersonaRow) ([]model.Segment, error)
}

// QuantileSegmenter cuts the price distribution at its quantiles.
type QuantileSegmenter struct {
	labels []string
}

// NewQuantileSegmenter creates a segmenter with configuration options.
func NewQuantileSegmenter(opts ...Option) *QuantileSegmenter {
	s := &QuantileSegmenter{
		labels: append([]string(nil), DefaultLabels...),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Labels returns the labels in ascending price order.
func (s *QuantileSegmenter) Labels() []string {
	return append([]string(nil), s.labels...)
}

// Segment computes len(labels)+1 quantile edges over the row prices and puts
// each row in the first bin whose upper edge is >= its price. The lowest bin
// includes its lower edge.
func (s *QuantileSegmenter) Segment(ctx context.Context, rows []model.PersonaRow) ([]model.Segment, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyPopulation
	}
	prices := make([]float64, len(rows))
	for i, r := range rows {
		if math.IsNaN(r.MeanPrice) || math.IsInf(r.MeanPrice, 0) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, r.Key)
		}
		prices[i] = r.MeanPrice
	}

	edges, err := Edges(prices, len(s.labels))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]model.Segment, len(rows))
	for i, r := range rows {
		out[i] = model.Segment{
			PersonaKey: r.Key,
			MeanPrice:  r.MeanPrice,
			Label:      s.labels[binOf(edges, r.MeanPrice)],
		}
	}
	return out, nil
}

// Edges returns the bins+1 quantile edges of values using linear
// interpolation between closest ranks. It fails on an empty input or when
// two edges coincide.
func Edges(values []float64, bins int) ([]float64, error) {
	if len(values) == 0 {
		return nil, ErrEmptyPopulation
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	edges := make([]float64, bins+1)
	for k := 0; k <= bins; k++ {
		edges[k] = quantile(sorted, float64(k)/float64(bins))
	}
	for k := 1; k < len(edges); k++ {
		if edges[k] == edges[k-1] {
			return nil, fmt.Errorf("%w: %v", ErrNonUniqueEdges, edges)
		}
	}
	return edges, nil
}

// quantile returns the p-quantile of an ascending slice.
func quantile(sorted []float64, p float64) float64 {
	h := p * float64(len(sorted)-1)
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// binOf returns the index of the bin (edges[i], edges[i+1]] containing v.
// Values at or below edges[0] land in bin 0.
func binOf(edges []float64, v float64) int {
	last := len(edges) - 2
	for i := 0; i < last; i++ {
		if v <= edges[i+1] {
			return i
		}
	}
	return last
}

// Summarize reports count and price range per label, ordered from the highest
// tier to the lowest. Labels without rows are omitted.
func Summarize(segments []model.Segment, labels []string) []model.SegmentSummary {
	byLabel := make(map[string]*model.SegmentSummary, len(labels))
	sums := make(map[string]float64, len(labels))
	for _, seg := range segments {
		sum, ok := byLabel[seg.Label]
		if !ok {
			sum = &model.SegmentSummary{Label: seg.Label, MinPrice: seg.MeanPrice, MaxPrice: seg.MeanPrice}
			byLabel[seg.Label] = sum
		}
		sum.Count++
		sum.MinPrice = min(sum.MinPrice, seg.MeanPrice)
		sum.MaxPrice = max(sum.MaxPrice, seg.MeanPrice)
		sums[seg.Label] += seg.MeanPrice
	}

	out := make([]model.SegmentSummary, 0, len(byLabel))
	for i := len(labels) - 1; i >= 0; i-- {
		sum, ok := byLabel[labels[i]]
		if !ok {
			continue
		}
		sum.MeanPrice = sums[sum.Label] / float64(sum.Count)
		out = append(out, *sum)
	}
	return out
}
