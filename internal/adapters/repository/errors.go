package repository

import "errors"

// Sentinel kinds for segment store errors.
var (
	ErrNotFound     = errors.New("persona not found")
	ErrInvalidLimit = errors.New("invalid top-n limit")
	ErrDuplicateKey = errors.New("persona key already stored")
	ErrEmptyKey     = errors.New("persona key must not be empty")
)
