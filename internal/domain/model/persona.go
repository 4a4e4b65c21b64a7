// Package model contains domain models passed between pipeline stages.
package model

import "github.com/shopspring/decimal"

// Transaction is one purchase event as read from the source table.
type Transaction struct {
	Price   decimal.Decimal // purchase price, positive
	Source  string          // device platform, e.g. "android", "ios"
	Sex     string          // customer sex
	Country string          // customer country code
	Age     int             // customer age in years
}

// Demographic returns the grouping tuple of the transaction.
func (t Transaction) Demographic() Demographic {
	return Demographic{
		Country: t.Country,
		Source:  t.Source,
		Sex:     t.Sex,
		Age:     t.Age,
	}
}

// Demographic is the exact tuple transactions are grouped by.
type Demographic struct {
	Country string
	Source  string
	Sex     string
	Age     int
}

// Less orders tuples lexicographically by country, source, sex, then age.
func (d Demographic) Less(o Demographic) bool {
	if d.Country != o.Country {
		return d.Country < o.Country
	}
	if d.Source != o.Source {
		return d.Source < o.Source
	}
	if d.Sex != o.Sex {
		return d.Sex < o.Sex
	}
	return d.Age < o.Age
}

// GroupMean is the mean price of all transactions sharing a Demographic.
type GroupMean struct {
	Demographic
	Count     int
	MeanPrice float64
}

// UnresolvedLabel is rendered in persona keys for ages no bin covers.
const UnresolvedLabel = "NA"

// AgeCategory is a discretized age range. The zero value is the unresolved
// category.
type AgeCategory struct {
	Label string
}

// Resolved reports whether the age fell into one of the bins.
func (c AgeCategory) Resolved() bool { return c.Label != "" }

// KeyLabel returns the label used when building a persona key.
func (c AgeCategory) KeyLabel() string {
	if !c.Resolved() {
		return UnresolvedLabel
	}
	return c.Label
}

// String implements fmt.Stringer.
func (c AgeCategory) String() string { return c.KeyLabel() }

// PersonaRow pairs a persona key with a mean price. Before deduplication
// several rows may share a key.
type PersonaRow struct {
	Key       string
	MeanPrice float64
}

// Segment is the final output entity of a pipeline run.
type Segment struct {
	PersonaKey string  `json:"persona_key"`
	MeanPrice  float64 `json:"mean_price"`
	Label      string  `json:"segment"`
}

// SegmentSummary describes the price range covered by one segment label.
type SegmentSummary struct {
	Label     string  `json:"segment"`
	Count     int     `json:"count"`
	MinPrice  float64 `json:"min_price"`
	MaxPrice  float64 `json:"max_price"`
	MeanPrice float64 `json:"mean_price"`
}
