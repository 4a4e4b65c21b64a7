package source

// Option applies a configuration option to the CSVReader.
type Option func(*CSVReader)

// WithComma sets the field delimiter. Zero keeps the default comma.
func WithComma(r rune) Option {
	return func(c *CSVReader) {
		if r != 0 {
			c.comma = r
		}
	}
}

// WithTrimSpace controls whether surrounding whitespace is stripped from
// every field before parsing.
func WithTrimSpace(trim bool) Option {
	return func(c *CSVReader) {
		c.trimSpace = trim
	}
}
