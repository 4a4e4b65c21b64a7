// Package source loads transaction tables into typed records.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/okian/persona/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Required column names, matched case-insensitively against the header.
const (
	ColumnPrice   = "PRICE"
	ColumnSource  = "SOURCE"
	ColumnSex     = "SEX"
	ColumnCountry = "COUNTRY"
	ColumnAge     = "AGE"
)

// RequiredColumns lists the header names every table must carry.
var RequiredColumns = []string{ColumnPrice, ColumnSource, ColumnSex, ColumnCountry, ColumnAge}

// Reader produces transactions from an external table.
type Reader interface {
	Read(ctx context.Context, r io.Reader) ([]model.Transaction, error)
}

// CSVReader reads delimited text with a header row.
type CSVReader struct {
	comma     rune
	trimSpace bool
}

// NewCSVReader creates a CSV reader with configuration options.
func NewCSVReader(opts ...Option) *CSVReader {
	c := &CSVReader{
		comma:     ',',
		trimSpace: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReadFile opens path and reads it with Read.
func (c *CSVReader) ReadFile(ctx context.Context, path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadTable, err)
	}
	defer func() { _ = f.Close() }()
	return c.Read(ctx, f)
}

// Read parses the header, checks the required columns and converts every
// data row into a Transaction, preserving input order. Extra columns are
// ignored.
func (c *CSVReader) Read(ctx context.Context, r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.Comma = c.comma
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s (empty input)", ErrMissingColumn, strings.Join(RequiredColumns, ","))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrReadTable, err)
	}

	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var out []model.Transaction
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRow, line, err)
		}
		tx, err := c.parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRow, line, err)
		}
		out = append(out, tx)
	}
	return out, nil
}

// columnIndex maps each required column to its position in header.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ","))
	}
	return idx, nil
}

func (c *CSVReader) parseRow(row []string, idx map[string]int) (model.Transaction, error) {
	field := func(col string) (string, error) {
		i := idx[col]
		if i >= len(row) {
			return "", fmt.Errorf("column %s absent", col)
		}
		v := row[i]
		if c.trimSpace {
			v = strings.TrimSpace(v)
		}
		if v == "" {
			return "", fmt.Errorf("column %s empty", col)
		}
		return v, nil
	}

	var (
		tx  model.Transaction
		raw string
		err error
	)

	if raw, err = field(ColumnPrice); err != nil {
		return tx, err
	}
	if tx.Price, err = decimal.NewFromString(raw); err != nil {
		return tx, fmt.Errorf("price %q: %w", raw, err)
	}
	if !tx.Price.IsPositive() {
		return tx, fmt.Errorf("price %q must be positive", raw)
	}

	if raw, err = field(ColumnAge); err != nil {
		return tx, err
	}
	if tx.Age, err = strconv.Atoi(raw); err != nil {
		return tx, fmt.Errorf("age %q: %w", raw, err)
	}
	if tx.Age < 0 {
		return tx, fmt.Errorf("age %d must not be negative", tx.Age)
	}

	if tx.Source, err = field(ColumnSource); err != nil {
		return tx, err
	}
	if tx.Sex, err = field(ColumnSex); err != nil {
		return tx, err
	}
	if tx.Country, err = field(ColumnCountry); err != nil {
		return tx, err
	}
	return tx, nil
}
