// Package synth generates reproducible persona-shaped transaction tables.
package synth

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/persona/internal/adapters/source"
	"github.com/okian/persona/internal/domain/model"
	"github.com/okian/persona/pkg/logger"
	"github.com/shopspring/decimal"
)

// ColumnID is the optional customer identifier column.
const ColumnID = "ID"

// Default value pools.
const (
	defaultMinAge = 15
	defaultMaxAge = 66
)

// Generator draws transactions from fixed value pools using a seeded source,
// so the same seed always yields the same table.
type Generator struct {
	rng       *rand.Rand
	countries []string
	sources   []string
	sexes     []string
	prices    []int64
	minAge    int
	maxAge    int
	withID    bool
}

// New creates a generator seeded with seed.
func New(seed int64, opts ...Option) *Generator {
	g := &Generator{
		rng:       rand.New(rand.NewSource(seed)), //nolint:gosec // reproducible fixtures, not secrets
		countries: []string{"usa", "bra", "deu", "tur", "fra", "can"},
		sources:   []string{"android", "ios"},
		sexes:     []string{"male", "female"},
		prices:    []int64{9, 19, 29, 39, 49, 59},
		minAge:    defaultMinAge,
		maxAge:    defaultMaxAge,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Transaction draws one transaction.
func (g *Generator) Transaction() model.Transaction {
	return model.Transaction{
		Price:   decimal.NewFromInt(g.prices[g.rng.Intn(len(g.prices))]),
		Source:  g.sources[g.rng.Intn(len(g.sources))],
		Sex:     g.sexes[g.rng.Intn(len(g.sexes))],
		Country: g.countries[g.rng.Intn(len(g.countries))],
		Age:     g.minAge + g.rng.Intn(g.maxAge-g.minAge+1),
	}
}

// Generate draws n transactions.
func (g *Generator) Generate(ctx context.Context, n int) ([]model.Transaction, error) {
	out := make([]model.Transaction, 0, max(n, 0))
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		out = append(out, g.Transaction())
	}
	return out, nil
}

// WriteCSV writes a header and n generated rows to w.
func (g *Generator) WriteCSV(ctx context.Context, w io.Writer, n int) error {
	cw := csv.NewWriter(w)

	header := append([]string(nil), source.RequiredColumns...)
	if g.withID {
		header = append([]string{ColumnID}, header...)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, 0, len(header))
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled during generation: %w", err)
		}
		record = record[:0]
		if g.withID {
			id, err := uuid.NewRandomFromReader(g.rng)
			if err != nil {
				return fmt.Errorf("customer id: %w", err)
			}
			record = append(record, id.String())
		}
		tx := g.Transaction()
		record = append(record,
			tx.Price.String(),
			tx.Source,
			tx.Sex,
			tx.Country,
			strconv.Itoa(tx.Age),
		)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	logger.Get().Debug(ctx, "generated transactions", logger.Int("rows", n), logger.Bool("with_id", g.withID))
	return nil
}
