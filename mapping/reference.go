package mapping

import (
	"fmt"
	"sync/atomic"
)

// FieldTypeReference is the shared cell through which every mapper of the
// same full field name observes the current FieldType snapshot.
//
// Reads are a single atomic pointer load and happen lock-free on the document
// parse path. Writes (Set) only happen on the mapping-update path, which the
// owning index serializes externally. The associated-mapper count gates
// strict merging: once more than one mapper shares the reference, structural
// changes require an explicit update-all-types request.
type FieldTypeReference struct {
	current atomic.Pointer[FieldType]
	mappers atomic.Int32
}

// NewFieldTypeReference creates a reference holding ft, associated with one
// mapper. ft must already be frozen.
func NewFieldTypeReference(ft *FieldType) *FieldTypeReference {
	r := &FieldTypeReference{}
	r.mappers.Store(1)
	r.Set(ft)
	return r
}

// Get returns the current snapshot.
func (r *FieldTypeReference) Get() *FieldType { return r.current.Load() }

// Set publishes a new snapshot to every holder. ft must be frozen; updates
// are copy-then-publish, never in-place mutation of the held value.
func (r *FieldTypeReference) Set(ft *FieldType) {
	if !ft.Frozen() {
		panic(fmt.Errorf("fieldmap: cannot publish unfrozen field type [%s]", ft.Names().FullName))
	}
	r.current.Store(ft)
}

// NumAssociatedMappers returns how many mapper instances share this
// reference. The count never decreases except through explicit unmapping.
func (r *FieldTypeReference) NumAssociatedMappers() int {
	return int(r.mappers.Load())
}

// IncrementAssociatedMappers records one more mapper sharing the reference.
func (r *FieldTypeReference) IncrementAssociatedMappers() {
	r.mappers.Add(1)
}
