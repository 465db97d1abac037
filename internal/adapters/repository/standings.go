// Package repository holds the in-memory and on-disk stores behind the tournament:
// the rating standings, the game log archive and the optional Postgres mirror.
package repository

import (
	"hash/fnv"
	"math"
	"slices"
	"sync"

	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/types"
)

// Treap-based standings table.
//
// Ordering: rating DESC, then insertion sequence ASC. "less" means ranks
// earlier, so an in-order traversal yields the leaderboard best to worst.
// Node sizes make Rank O(log n) expected.

const ratingScale = 1_000_000_000

type ratingFP int64

func toFixedPoint(x float64) ratingFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := x * ratingScale
	if scaled >= float64(math.MaxInt64) {
		return ratingFP(math.MaxInt64)
	}
	if scaled <= float64(math.MinInt64) {
		return ratingFP(math.MinInt64)
	}
	return ratingFP(math.Round(scaled))
}

type key struct {
	rating ratingFP
	seq    uint64
}

// record keeps the exact rating next to its ordering key.
type record struct {
	key    key
	rating float64
}

type node struct {
	id    model.AgentID
	key   key
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

func less(a, b key) bool {
	if a.rating != b.rating {
		return a.rating > b.rating
	}
	return a.seq < b.seq
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

// priority is a hash of id and seq, so tree shape is deterministic per input.
func priority(id model.AgentID, seq uint64) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	var b [8]byte
	for i := range b {
		b[i] = byte(seq >> (8 * i))
	}
	_, _ = h.Write(b[:])
	return h.Sum64()
}

func insert(n *node, id model.AgentID, k key) *node {
	if n == nil {
		return &node{id: id, key: k, prio: priority(id, k.seq), size: 1}
	}
	if less(k, n.key) {
		n.left = insert(n.left, id, k)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, k)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, k key) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.key == k:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, k)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, k)
		}
	case less(k, n.key):
		n.left = deleteNode(n.left, k)
	default:
		n.right = deleteNode(n.right, k)
	}
	fix(n)
	return n
}

// position returns the 1-based in-order position of k.
func position(n *node, k key) int {
	pos := 0
	for n != nil {
		switch {
		case n.key == k:
			return pos + nsize(n.left) + 1
		case less(k, n.key):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

func collect(n *node, limit int, byID map[model.AgentID]record, out *[]types.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, byID, out)
	if len(*out) < limit {
		*out = append(*out, types.Entry{
			Rank:   len(*out) + 1,
			Agent:  n.id,
			Rating: byID[n.id].rating,
		})
	}
	if len(*out) < limit {
		collect(n.right, limit, byID, out)
	}
}

// Standings is a concurrent-safe ordered table of agent ratings. An agent keeps
// its insertion sequence for life, which breaks rating ties.
type Standings struct {
	mu      sync.RWMutex
	root    *node
	byID    map[model.AgentID]record
	nextSeq uint64
}

// NewStandings returns an empty table.
func NewStandings() *Standings {
	return &Standings{byID: make(map[model.AgentID]record)}
}

// Set inserts id or moves it to its new rating.
func (s *Standings) Set(id model.AgentID, rating float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{rating: toFixedPoint(rating)}
	if old, ok := s.byID[id]; ok {
		k.seq = old.key.seq
		if old.key != k {
			s.root = deleteNode(s.root, old.key)
			s.root = insert(s.root, id, k)
		}
	} else {
		k.seq = s.nextSeq
		s.nextSeq++
		s.root = insert(s.root, id, k)
	}
	s.byID[id] = record{key: k, rating: rating}
}

// Rating returns the stored rating for id.
func (s *Standings) Rating(id model.AgentID) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	return rec.rating, ok
}

// Rank returns the leaderboard row for id, or ErrNotFound.
func (s *Standings) Rank(id model.AgentID) (types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return types.Entry{}, ErrNotFound
	}
	return types.Entry{Rank: position(s.root, rec.key), Agent: id, Rating: rec.rating}, nil
}

// Top returns up to n rows best first. n < 1 returns every row.
func (s *Standings) Top(n int) []types.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n < 1 || n > len(s.byID) {
		n = len(s.byID)
	}
	out := make([]types.Entry, 0, n)
	collect(s.root, n, s.byID, &out)
	return out
}

// Agents returns the known agents in insertion order.
func (s *Standings) Agents() []model.AgentID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]model.AgentID, len(s.byID))
	pos := make(map[uint64]model.AgentID, len(s.byID))
	seqs := make([]uint64, 0, len(s.byID))
	for id, rec := range s.byID {
		pos[rec.key.seq] = id
		seqs = append(seqs, rec.key.seq)
	}
	slices.Sort(seqs)
	for i, seq := range seqs {
		ids[i] = pos[seq]
	}
	return ids
}

// Count returns the number of agents in the table.
func (s *Standings) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Clear empties the table and restarts insertion order.
func (s *Standings) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = nil
	s.byID = make(map[model.AgentID]record)
	s.nextSeq = 0
}
