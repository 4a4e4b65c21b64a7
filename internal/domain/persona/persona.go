// Package persona builds level-based customer keys from demographic rows.
package persona

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/persona/internal/domain/bucket"
	"github.com/okian/persona/internal/domain/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Delimiter joins the key components.
const Delimiter = "_"

// ErrAmbiguousComponent is returned when a categorical field contains the
// delimiter, which would let two different tuples render the same key.
var ErrAmbiguousComponent = errors.New("persona key component contains delimiter")

// Key returns "{COUNTRY}_{SOURCE}_{SEX}_{AGE_CATEGORY}" with every component
// upper-cased.
func Key(country, source, sex string, cat model.AgeCategory) (string, error) {
	for _, c := range [...]string{country, source, sex} {
		if strings.Contains(c, Delimiter) {
			return "", fmt.Errorf("%w: %q", ErrAmbiguousComponent, c)
		}
	}
	upper := cases.Upper(language.Und)
	return strings.Join([]string{
		upper.String(country),
		upper.String(source),
		upper.String(sex),
		upper.String(cat.KeyLabel()),
	}, Delimiter), nil
}

// Normalize upper-cases a caller supplied key so it can be compared with keys
// built by Key.
func Normalize(key string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(key))
}

// Result is the output of Build.
type Result struct {
	Rows       []model.PersonaRow
	Unresolved int // rows whose age fell outside every bin
}

// Build derives a persona key for each group row, preserving row order. Rows
// with an unresolved age category keep their row under the "NA" label.
func Build(ctx context.Context, groups []model.GroupMean, b *bucket.Bucketer) (Result, error) {
	res := Result{Rows: make([]model.PersonaRow, 0, len(groups))}
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		cat := b.Categorize(g.Age)
		if !cat.Resolved() {
			res.Unresolved++
		}
		key, err := Key(g.Country, g.Source, g.Sex, cat)
		if err != nil {
			return Result{}, err
		}
		res.Rows = append(res.Rows, model.PersonaRow{Key: key, MeanPrice: g.MeanPrice})
	}
	return res, nil
}
