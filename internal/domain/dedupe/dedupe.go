// Package dedupe defines the interface for idempotency tracking of
// simulation submissions.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen submission IDs to ensure at-most-once enqueueing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	// This is the ONLY method for deduplication - thread-safe and atomic.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen list, allowing it to be retried.
	// This should only be used when a submission was marked as seen but
	// failed to be enqueued (e.g., queue backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// defaultMaxSize caps the seen set. Simulation submissions are far sparser
// than telemetry, so ten thousand covers a full season many times over.
const defaultMaxSize = 10000

// compactFloor keeps compaction from churning on small queues.
const compactFloor = 64

// slot pins one recorded ID to the sequence it was recorded under. A slot
// is live only while the map still holds the same sequence, so an ID that
// was unrecorded and later recorded again is not evicted out of turn.
type slot struct {
	id  string
	seq uint64
}

// inMemoryDeduper tracks seen IDs in a map with arrival order kept in a
// FIFO queue of slots. Bounded mode (maxSize > 0) evicts the oldest live
// entry when a new ID arrives at capacity; unbounded mode (maxSize <= 0)
// skips order tracking entirely. Unrecord leaves a stale slot behind;
// eviction skips stale slots and compact trims them once they dominate.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]uint64 // id -> sequence of its live slot
	order   []slot            // arrival order, oldest first (bounded mode)
	nextSeq uint64
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]uint64)
	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
// Returns true if id was already seen, false if it was newly recorded.
func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.nextSeq++
	d.seen[id] = d.nextSeq
	if d.maxSize > 0 {
		d.order = append(d.order, slot{id: id, seq: d.nextSeq})
	}
	return false
}

// Unrecord removes an ID from the seen list, allowing it to be retried.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; !exists {
		return
	}
	delete(d.seen, id)
	d.compact()
}

// evictOldest drops the oldest live entry, discarding stale slots on the
// way. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	for len(d.order) > 0 {
		s := d.order[0]
		d.order = d.order[1:]
		if seq, live := d.seen[s.id]; live && seq == s.seq {
			delete(d.seen, s.id)
			return
		}
	}
}

// compact rebuilds the order queue without stale slots once they outnumber
// live entries. Must be called with d.mu held.
func (d *inMemoryDeduper) compact() {
	if d.maxSize <= 0 || len(d.order) < compactFloor || len(d.order) < 2*len(d.seen) {
		return
	}
	live := make([]slot, 0, len(d.seen))
	for _, s := range d.order {
		if seq, ok := d.seen[s.id]; ok && seq == s.seq {
			live = append(live, s)
		}
	}
	d.order = live
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
