package synth

// Option configures a Generator.
type Option func(*Generator)

// WithCountries sets the country codes rows are drawn from.
func WithCountries(countries ...string) Option {
	return func(g *Generator) {
		if len(countries) > 0 {
			g.countries = countries
		}
	}
}

// WithSources sets the device platforms rows are drawn from.
func WithSources(sources ...string) Option {
	return func(g *Generator) {
		if len(sources) > 0 {
			g.sources = sources
		}
	}
}

// WithPrices sets the price points rows are drawn from. Non-positive prices
// are dropped.
func WithPrices(prices ...int64) Option {
	return func(g *Generator) {
		kept := make([]int64, 0, len(prices))
		for _, p := range prices {
			if p > 0 {
				kept = append(kept, p)
			}
		}
		if len(kept) > 0 {
			g.prices = kept
		}
	}
}

// WithAgeRange sets the inclusive age range. Invalid ranges are ignored.
func WithAgeRange(minAge, maxAge int) Option {
	return func(g *Generator) {
		if minAge >= 0 && maxAge >= minAge {
			g.minAge = minAge
			g.maxAge = maxAge
		}
	}
}

// WithIDColumn prepends an ID column holding a customer UUID.
func WithIDColumn(enabled bool) Option {
	return func(g *Generator) {
		g.withID = enabled
	}
}
