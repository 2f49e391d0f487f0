package mapping

// MergeResult accumulates the outcome of one merge operation over a pair of
// mapping trees: the complete conflict list, the merge mode flags, and the
// field mappers the merge introduced (so the caller can update the registry).
type MergeResult struct {
	simulate        bool
	updateAllTypes  bool
	conflicts       []string
	conflictSet     map[string]struct{}
	newFieldMappers []*FieldMapper
}

// NewMergeResult creates a result for a merge pass. With simulate, the walk
// only validates and reports; nothing is mutated. With updateAllTypes,
// structural changes are allowed even when multiple mappers share a field
// type.
func NewMergeResult(simulate, updateAllTypes bool) *MergeResult {
	return &MergeResult{simulate: simulate, updateAllTypes: updateAllTypes}
}

// Simulate reports whether this is a dry run.
func (r *MergeResult) Simulate() bool { return r.simulate }

// UpdateAllTypes reports whether shared-type structural changes are allowed.
func (r *MergeResult) UpdateAllTypes() bool { return r.updateAllTypes }

// AddConflict records one conflict description. The merge walk and the
// registry validation overlap on fields joined by index name, so duplicates
// are dropped; discovery order is kept otherwise.
func (r *MergeResult) AddConflict(conflict string) {
	if r.conflictSet == nil {
		r.conflictSet = make(map[string]struct{})
	}
	if _, seen := r.conflictSet[conflict]; seen {
		return
	}
	r.conflictSet[conflict] = struct{}{}
	r.conflicts = append(r.conflicts, conflict)
}

// HasConflicts reports whether any conflict was recorded.
func (r *MergeResult) HasConflicts() bool { return len(r.conflicts) > 0 }

// Conflicts returns the recorded conflicts in discovery order.
func (r *MergeResult) Conflicts() []string { return r.conflicts }

// AddNewFieldMappers records mappers introduced by the merge, for registry
// update by the caller.
func (r *MergeResult) AddNewFieldMappers(mappers ...*FieldMapper) {
	r.newFieldMappers = append(r.newFieldMappers, mappers...)
}

// NewFieldMappers returns the mappers introduced by the merge.
func (r *MergeResult) NewFieldMappers() []*FieldMapper { return r.newFieldMappers }

// Merge reconciles incoming into existing with all-or-nothing semantics: a
// validation walk runs first and collects every conflict; only if it comes
// back clean does a second walk apply the changes. A subtree is therefore
// never mutated on the strength of its own cleanliness while a sibling
// conflicts.
//
// In simulate mode the validation report is returned as-is and nothing is
// ever mutated. Otherwise a non-empty conflict list is returned as a
// ConflictError and the trees are untouched.
func Merge(existing, incoming Mapper, simulate, updateAllTypes bool) (*MergeResult, error) {
	dry := NewMergeResult(true, updateAllTypes)
	existing.Merge(incoming, dry)

	if simulate {
		return dry, nil
	}
	if dry.HasConflicts() {
		return dry, &ConflictError{Conflicts: dry.Conflicts()}
	}

	res := NewMergeResult(false, updateAllTypes)
	existing.Merge(incoming, res)
	return res, nil
}
