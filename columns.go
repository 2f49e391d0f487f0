package fieldmap

import (
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// ColumnTracker records which documents contributed a doc-values entry per
// field, as compressed posting bitmaps. The tracker answers the
// introspection question "which columns exist and how dense are they"
// without touching segment storage.
type ColumnTracker struct {
	mu sync.RWMutex

	// field -> bitmap of document sequence numbers
	columns map[string]*roaring.Bitmap
}

// NewColumnTracker creates an empty tracker.
func NewColumnTracker() *ColumnTracker {
	return &ColumnTracker{
		columns: make(map[string]*roaring.Bitmap),
	}
}

// Record marks that document seq carries a doc-values entry for field.
func (ct *ColumnTracker) Record(field string, seq uint32) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	bm, ok := ct.columns[field]
	if !ok {
		bm = roaring.New()
		ct.columns[field] = bm
	}
	bm.Add(seq)
}

// Contains reports whether document seq has a doc-values entry for field.
func (ct *ColumnTracker) Contains(field string, seq uint32) bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	bm, ok := ct.columns[field]
	return ok && bm.Contains(seq)
}

// Cardinality returns the number of documents with a doc-values entry for
// field.
func (ct *ColumnTracker) Cardinality(field string) uint64 {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	bm, ok := ct.columns[field]
	if !ok {
		return 0
	}
	return bm.GetCardinality()
}

// Fields returns the tracked column names, sorted.
func (ct *ColumnTracker) Fields() []string {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	fields := make([]string, 0, len(ct.columns))
	for f := range ct.columns {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Intersection returns the sequence numbers carrying doc-values entries for
// every one of the given fields.
func (ct *ColumnTracker) Intersection(fields ...string) []uint32 {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	var acc *roaring.Bitmap
	for _, f := range fields {
		bm, ok := ct.columns[f]
		if !ok {
			return nil
		}
		if acc == nil {
			acc = bm.Clone()
			continue
		}
		acc.And(bm)
	}
	if acc == nil {
		return nil
	}
	return acc.ToArray()
}
