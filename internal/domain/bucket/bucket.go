// Package bucket discretizes ages into categorical ranges.
package bucket

import (
	"context"
	"errors"
	"strconv"

	"github.com/okian/persona/internal/domain/aggregate"
	"github.com/okian/persona/internal/domain/model"
)

// ErrNoAges is returned when the top edge cannot be derived from an empty
// population.
var ErrNoAges = errors.New("no ages to derive bucket edges from")

// fixedEdges are the lower edges of each bin up to the open-ended top bin.
// Bins are half-open on the left and closed on the right: (lo, hi].
var fixedEdges = []int{0, 18, 23, 30, 40} //nolint:gochecknoglobals // immutable bin layout

// Bucketer maps ages to categories using edges {0,18,23,30,40,max}.
type Bucketer struct {
	edges  []int
	labels []string
}

// New builds a Bucketer whose last bin spans (40, maxAge]. When maxAge is 40
// or lower the top bin is omitted, so every age in (0, maxAge] is still
// covered by exactly one bin.
func New(maxAge int) *Bucketer {
	edges := append([]int(nil), fixedEdges...)
	if maxAge > fixedEdges[len(fixedEdges)-1] {
		edges = append(edges, maxAge)
	}
	labels := make([]string, len(edges)-1)
	for i := 0; i < len(edges)-1; i++ {
		labels[i] = label(edges[i], edges[i+1], i == 0)
	}
	return &Bucketer{edges: edges, labels: labels}
}

// FromGroups derives the top edge from the largest observed age.
func FromGroups(_ context.Context, groups []model.GroupMean) (*Bucketer, error) {
	m, ok := aggregate.MaxAge(groups)
	if !ok {
		return nil, ErrNoAges
	}
	return New(m), nil
}

// label renders "lo+1_hi", except the first bin which keeps its open edge
// ("0_18").
func label(lo, hi int, first bool) string {
	start := lo + 1
	if first {
		start = lo
	}
	return strconv.Itoa(start) + "_" + strconv.Itoa(hi)
}

// Categorize returns the bin containing age. Ages outside (0, max] yield the
// unresolved category.
func (b *Bucketer) Categorize(age int) model.AgeCategory {
	for i := 0; i < len(b.edges)-1; i++ {
		if age > b.edges[i] && age <= b.edges[i+1] {
			return model.AgeCategory{Label: b.labels[i]}
		}
	}
	return model.AgeCategory{}
}

// Labels returns the bin labels in ascending age order.
func (b *Bucketer) Labels() []string {
	return append([]string(nil), b.labels...)
}

// Edges returns the bin edges in ascending order.
func (b *Bucketer) Edges() []int {
	return append([]int(nil), b.edges...)
}

// MaxAge returns the upper edge of the last bin.
func (b *Bucketer) MaxAge() int {
	return b.edges[len(b.edges)-1]
}
