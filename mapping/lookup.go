package mapping

import (
	"fmt"
	"iter"
	"strings"
)

// FieldTypeLookup is an immutable registry from full names and index names to
// the shared FieldTypeReference of each mapped field.
//
// A lookup is never mutated in place: CopyAndAddAll returns a new lookup and
// the owning index publishes it atomically. Document parsing reads whichever
// snapshot it started with, lock-free, while mapping updates build the next
// one.
type FieldTypeLookup struct {
	fullName  map[string]*FieldTypeReference
	indexName map[string]*FieldTypeReference
}

// NewFieldTypeLookup creates an empty lookup.
func NewFieldTypeLookup() *FieldTypeLookup {
	return &FieldTypeLookup{
		fullName:  make(map[string]*FieldTypeReference),
		indexName: make(map[string]*FieldTypeReference),
	}
}

// Get returns the field type registered under the given full name, nil if
// unmapped.
func (l *FieldTypeLookup) Get(fullName string) *FieldType {
	if ref, ok := l.fullName[fullName]; ok {
		return ref.Get()
	}
	return nil
}

// GetByIndexName returns the field type registered under the given index
// name, nil if unmapped.
func (l *FieldTypeLookup) GetByIndexName(indexName string) *FieldType {
	if ref, ok := l.indexName[indexName]; ok {
		return ref.Get()
	}
	return nil
}

// SimpleMatchToFullName returns the full names of every field whose full name
// or index name matches the glob pattern (`*` wildcard). The result is never
// nil.
func (l *FieldTypeLookup) SimpleMatchToFullName(pattern string) map[string]struct{} {
	out := make(map[string]struct{})
	for name := range l.fullName {
		if simpleMatch(pattern, name) {
			out[name] = struct{}{}
		}
	}
	for name, ref := range l.indexName {
		if simpleMatch(pattern, name) {
			out[ref.Get().Names().FullName] = struct{}{}
		}
	}
	return out
}

// SimpleMatchToIndexNames returns the index names of every field whose full
// name or index name matches the glob pattern (`*` wildcard). The result is
// never nil.
func (l *FieldTypeLookup) SimpleMatchToIndexNames(pattern string) map[string]struct{} {
	out := make(map[string]struct{})
	for name := range l.indexName {
		if simpleMatch(pattern, name) {
			out[name] = struct{}{}
		}
	}
	for name, ref := range l.fullName {
		if simpleMatch(pattern, name) {
			out[ref.Get().Names().IndexName] = struct{}{}
		}
	}
	return out
}

// Types iterates over the registered field types, one per full name, in
// unspecified order. Yielded types are frozen; attempting to mutate one
// panics.
func (l *FieldTypeLookup) Types() iter.Seq[*FieldType] {
	return func(yield func(*FieldType) bool) {
		for _, ref := range l.fullName {
			if !yield(ref.Get()) {
				return
			}
		}
	}
}

// Validate checks whether adding every mapper's field type would succeed,
// without touching the registry or any reference. Names staged by an earlier
// mapper in the batch count as registered for later ones, so intra-batch
// collisions are caught too. A batch that validates cleanly applies without
// error, which is what lets CopyAndAddAll stay all-or-nothing.
//
// For a mapper whose full name or index name is already registered, the
// incoming type is checked against the registered one. Compatibility is
// strict when the reference is shared by more than one mapper and
// updateAllTypes is false.
//
// A mapper that would bridge two distinct existing references (its full name
// registered to one, its index name to another) violates the registry's
// sanity invariant; this is a caller bug and panics.
func (l *FieldTypeLookup) Validate(newMappers []*FieldMapper, updateAllTypes bool) error {
	pendingFull := make(map[string]*FieldType, len(newMappers))
	pendingIndex := make(map[string]*FieldType, len(newMappers))

	var conflicts []string
	for _, m := range newMappers {
		ft := m.FieldType()
		names := ft.Names()
		fullRef := l.fullName[names.FullName]
		indexRef := l.indexName[names.IndexName]

		// sanity first, then type name, then structural compatibility
		if fullRef != nil && indexRef != nil && fullRef != indexRef {
			panic(fmt.Errorf(
				"fieldmap: insane mappings found: field [%s] bridges to index name [%s] already owned by another field",
				names.FullName, names.IndexName))
		}

		ref := fullRef
		if ref == nil {
			ref = indexRef
		}
		if ref != nil && ref == m.FieldTypeReference() {
			// already associated with the registered reference
			pendingFull[names.FullName] = ft
			pendingIndex[names.IndexName] = ft
			continue
		}

		var existing *FieldType
		strict := false
		if ref != nil {
			existing = ref.Get()
			strict = ref.NumAssociatedMappers() > 1 && !updateAllTypes
		}
		if p, ok := pendingFull[names.FullName]; ok {
			existing = p
		} else if p, ok := pendingIndex[names.IndexName]; ok {
			existing = p
		}

		if existing != nil {
			var cs []string
			existing.CheckTypeName(ft, &cs)
			if len(cs) == 0 {
				existing.CheckCompatibility(ft, &cs, strict)
			}
			conflicts = append(conflicts, cs...)
		}

		pendingFull[names.FullName] = ft
		pendingIndex[names.IndexName] = ft
	}
	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

// CopyAndAddAll returns a new lookup reflecting the registry after adding
// each mapper's field type. The receiver is left untouched.
//
// The whole batch is validated up front; on error, no reference has been
// modified. For a mapper whose full name or index name is already registered,
// the existing reference is reused: its snapshot is updated in place so every
// other mapper sharing it observes the change, and the incoming mapper is
// re-pointed at it.
func (l *FieldTypeLookup) CopyAndAddAll(newMappers []*FieldMapper, updateAllTypes bool) (*FieldTypeLookup, error) {
	if err := l.Validate(newMappers, updateAllTypes); err != nil {
		return nil, err
	}

	next := &FieldTypeLookup{
		fullName:  make(map[string]*FieldTypeReference, len(l.fullName)+len(newMappers)),
		indexName: make(map[string]*FieldTypeReference, len(l.indexName)+len(newMappers)),
	}
	for k, v := range l.fullName {
		next.fullName[k] = v
	}
	for k, v := range l.indexName {
		next.indexName[k] = v
	}

	for _, m := range newMappers {
		ft := m.FieldType()
		names := ft.Names()
		fullRef := next.fullName[names.FullName]
		indexRef := next.indexName[names.IndexName]

		if fullRef == nil && indexRef == nil {
			next.fullName[names.FullName] = m.FieldTypeReference()
			next.indexName[names.IndexName] = m.FieldTypeReference()
			continue
		}

		ref := fullRef
		if ref == nil {
			ref = indexRef
		}

		// reuse the existing reference so the pre-existing identity stays
		// live; publish the incoming type through it
		ref.Set(ft)
		if m.FieldTypeReference() != ref {
			m.SetFieldTypeReference(ref)
		}
		next.fullName[names.FullName] = ref
		next.indexName[names.IndexName] = ref
	}
	return next, nil
}

// simpleMatch matches the `*`-wildcard glob subset used by mapping name
// patterns.
func simpleMatch(pattern, s string) bool {
	i := strings.IndexByte(pattern, '*')
	if i == -1 {
		return pattern == s
	}
	if i == len(pattern)-1 {
		return strings.HasPrefix(s, pattern[:i])
	}
	if !strings.HasPrefix(s, pattern[:i]) {
		return false
	}
	rest := pattern[i+1:]
	for j := i; j <= len(s); j++ {
		if simpleMatch(rest, s[j:]) {
			return true
		}
	}
	return false
}
