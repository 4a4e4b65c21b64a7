// Package repository holds the in-memory segment table queried after a run.
package repository

import (
	"context"

	"github.com/okian/persona/internal/domain/model"
)

// Entry is a ranked segment row.
type Entry struct {
	Rank int
	model.Segment
}

// Store provides write-once, read-many access to the segment table.
type Store interface {
	// Put stores seg. Each persona key may be stored once; a second Put for
	// the same key returns ErrDuplicateKey.
	Put(ctx context.Context, seg model.Segment) error

	// Lookup returns the segment for an exact persona key. A missing key is
	// reported through the boolean, not an error.
	Lookup(ctx context.Context, key string) (model.Segment, bool)

	// Rank returns the current rank of a persona by mean price.
	// Returns ErrNotFound if the key is unknown.
	Rank(ctx context.Context, key string) (Entry, error)

	// TopN returns the top-N entries ordered by mean price desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Keys returns every stored key in rank order.
	Keys(ctx context.Context) []string

	// Count returns the number of stored personas.
	Count(ctx context.Context) int
}
