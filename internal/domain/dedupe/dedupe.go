// Package dedupe tracks identifiers that must be acted on at most once, such as
// completed matchup units.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen identifiers.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Seen reports whether id has been recorded without recording it.
	Seen(ctx context.Context, id string) bool

	// Unrecord forgets id so that it can be recorded again.
	Unrecord(ctx context.Context, id string)

	// Reset forgets every id.
	Reset(ctx context.Context)

	Size() int64
}

// inMemoryDeduper keeps ids in a set. Ids are never evicted, a completed unit must
// stay completed for the lifetime of the process.
type inMemoryDeduper struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewInMemoryDeduper creates an empty deduper, optionally preloaded with ids.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{seen: make(map[string]struct{})}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return true
	}
	d.seen[id] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Seen(_ context.Context, id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.seen[id]
	return ok
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}

func (d *inMemoryDeduper) Reset(_ context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[string]struct{})
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return int64(len(d.seen))
}
