package source

import "errors"

// Sentinel kinds for loader errors.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrMalformedRow  = errors.New("malformed row")
	ErrReadTable     = errors.New("read table failed")
)
