package segment

import "errors"

// Sentinel kinds for segmentation errors.
var (
	ErrEmptyPopulation = errors.New("cannot segment an empty population")
	ErrNonUniqueEdges  = errors.New("quantile bin edges must be unique")
	ErrInvalidPrice    = errors.New("price must be a finite number")
)
