// Package repository holds the in-memory segment table queried after a run.
package repository

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/okian/persona/internal/domain/model"
	"github.com/okian/persona/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: mean price DESC, then persona key ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the table from
// the most to the least valuable persona.

// treap node
type node struct {
	key   string
	price float64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aPrice, aKey) should appear before (bPrice, bKey).
func less(aPrice float64, aKey string, bPrice float64, bKey string) bool {
	if aPrice != bPrice {
		return aPrice > bPrice
	}
	return aKey < bKey
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// keyPriority hashes the key so the heap order is independent of the sort
// order and the tree stays balanced in expectation.
func keyPriority(key string) uint64 {
	return xxhash.Sum64String(key)
}

func insert(n *node, key string, price float64) *node {
	if n == nil {
		return &node{key: key, price: price, prio: keyPriority(key), size: 1}
	}
	if less(price, key, n.price, n.key) {
		n.left = insert(n.left, key, price)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, key, price)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// position returns the zero-based in-order index of (price, key).
func position(n *node, key string, price float64) int {
	pos := 0
	for n != nil {
		switch {
		case n.key == key:
			return pos + nsize(n.left)
		case less(price, key, n.price, n.key):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return -1
}

// collectTopN appends up to limit nodes in rank order.
func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// TreapStore is an order-statistic treap keyed by persona.
type TreapStore struct {
	mu    sync.RWMutex
	root  *node
	byKey map[string]model.Segment
}

// NewTreapStore constructs an empty treap store.
func NewTreapStore(_ context.Context) *TreapStore {
	return &TreapStore{
		byKey: make(map[string]model.Segment),
	}
}

// Put implements Store.Put with O(log n) expected time.
func (s *TreapStore) Put(_ context.Context, seg model.Segment) error {
	if seg.PersonaKey == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byKey[seg.PersonaKey]; ok {
		return ErrDuplicateKey
	}
	s.byKey[seg.PersonaKey] = seg
	s.root = insert(s.root, seg.PersonaKey, seg.MeanPrice)
	metrics.UpdateStoredPersonas(len(s.byKey))
	return nil
}

// Lookup implements Store.Lookup in O(1).
func (s *TreapStore) Lookup(_ context.Context, key string) (model.Segment, bool) {
	s.mu.RLock()
	seg, ok := s.byKey[key]
	s.mu.RUnlock()

	metrics.RecordLookup(ok)
	return seg, ok
}

// Rank returns the dense rank of a persona: personas with equal mean price
// share a rank and the next distinct price takes the following rank.
func (s *TreapStore) Rank(_ context.Context, key string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seg, ok := s.byKey[key]
	if !ok {
		return Entry{}, ErrNotFound
	}

	pos := position(s.root, key, seg.MeanPrice)
	ahead := make([]*node, 0, pos+1)
	collectTopN(s.root, pos+1, &ahead)
	return Entry{Rank: denseRank(ahead), Segment: seg}, nil
}

// TopN returns the top N entries ordered by mean price desc.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node, 0, min(n, len(s.byKey)))
	collectTopN(s.root, n, &nodes)

	out := make([]Entry, len(nodes))
	rank := 0
	for i, nd := range nodes {
		if i == 0 || nd.price != nodes[i-1].price {
			rank++
		}
		out[i] = Entry{Rank: rank, Segment: s.byKey[nd.key]}
	}
	return out, nil
}

// Keys returns all keys in rank order.
func (s *TreapStore) Keys(_ context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node, 0, len(s.byKey))
	collectTopN(s.root, len(s.byKey), &nodes)
	keys := make([]string, len(nodes))
	for i, nd := range nodes {
		keys[i] = nd.key
	}
	return keys
}

// Count returns the total number of personas.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}

// denseRank returns the rank of the last node given all nodes up to it in
// order.
func denseRank(nodes []*node) int {
	rank := 0
	for i, nd := range nodes {
		if i == 0 || nd.price != nodes[i-1].price {
			rank++
		}
	}
	return rank
}
