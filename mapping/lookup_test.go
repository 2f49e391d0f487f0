package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldTypeLookupEmpty(t *testing.T) {
	lookup := NewFieldTypeLookup()

	assert.Nil(t, lookup.Get("foo"))
	assert.Nil(t, lookup.GetByIndexName("foo"))
	assert.Empty(t, lookup.SimpleMatchToFullName("foo*"))
	assert.Empty(t, lookup.SimpleMatchToIndexNames("foo*"))

	count := 0
	for range lookup.Types() {
		count++
	}
	assert.Zero(t, count)
}

func TestFieldTypeLookupAddNewField(t *testing.T) {
	f := buildField(t, TypeNameText, "foo", nil)
	lookup := NewFieldTypeLookup()

	lookup2, err := lookup.CopyAndAddAll([]*FieldMapper{f}, false)
	require.NoError(t, err)

	// the receiver stays untouched
	assert.Nil(t, lookup.Get("foo"))

	assert.Same(t, f.FieldType(), lookup2.Get("foo"))
	assert.Same(t, f.FieldType(), lookup2.GetByIndexName("foo"))
	assert.Equal(t, 1, f.FieldTypeReference().NumAssociatedMappers())
}

func TestFieldTypeLookupAddExistingField(t *testing.T) {
	f := buildField(t, TypeNameText, "foo", nil)
	f2 := buildField(t, TypeNameText, "foo", nil)

	lookup := NewFieldTypeLookup()
	lookup, err := lookup.CopyAndAddAll([]*FieldMapper{f}, false)
	require.NoError(t, err)
	lookup2, err := lookup.CopyAndAddAll([]*FieldMapper{f2}, false)
	require.NoError(t, err)

	// both mappers share one reference and see the latest snapshot
	assert.Same(t, f.FieldTypeReference(), f2.FieldTypeReference())
	assert.Same(t, f.FieldType(), f2.FieldType())
	assert.Same(t, f2.FieldType(), lookup2.Get("foo"))
	assert.Equal(t, 2, f2.FieldTypeReference().NumAssociatedMappers())
}

func TestFieldTypeLookupAddExistingIndexName(t *testing.T) {
	f := buildLegacyField(t, TypeNameText, "foo", nil)
	f2 := buildLegacyField(t, TypeNameText, "bar", map[string]any{"index_name": "foo"})

	lookup := NewFieldTypeLookup()
	lookup, err := lookup.CopyAndAddAll([]*FieldMapper{f}, false)
	require.NoError(t, err)
	lookup2, err := lookup.CopyAndAddAll([]*FieldMapper{f2}, false)
	require.NoError(t, err)

	assert.Same(t, f.FieldTypeReference(), f2.FieldTypeReference())
	assert.Same(t, f2.FieldType(), lookup2.GetByIndexName("foo"))
	assert.Same(t, f2.FieldType(), lookup2.Get("bar"))
	assert.Equal(t, 2, f2.FieldTypeReference().NumAssociatedMappers())
}

func TestFieldTypeLookupAddExistingFullName(t *testing.T) {
	f := buildLegacyField(t, TypeNameText, "foo", map[string]any{"index_name": "foo"})
	f2 := buildLegacyField(t, TypeNameText, "foo", map[string]any{"index_name": "bar"})

	lookup := NewFieldTypeLookup()
	lookup, err := lookup.CopyAndAddAll([]*FieldMapper{f}, false)
	require.NoError(t, err)
	lookup2, err := lookup.CopyAndAddAll([]*FieldMapper{f2}, false)
	require.NoError(t, err)

	assert.Same(t, f.FieldTypeReference(), f2.FieldTypeReference())
	assert.Same(t, f2.FieldType(), lookup2.Get("foo"))
	assert.Equal(t, 2, f2.FieldTypeReference().NumAssociatedMappers())
}

func TestFieldTypeLookupBridgingIsFatal(t *testing.T) {
	f := buildLegacyField(t, TypeNameText, "foo", nil)
	f2 := buildLegacyField(t, TypeNameText, "bar", nil)
	f3 := buildLegacyField(t, TypeNameText, "foo", map[string]any{"index_name": "bar"})

	lookup := NewFieldTypeLookup()
	lookup, err := lookup.CopyAndAddAll([]*FieldMapper{f, f2}, false)
	require.NoError(t, err)

	assert.Panics(t, func() {
		_, _ = lookup.CopyAndAddAll([]*FieldMapper{f3}, false)
	})
}

func TestFieldTypeLookupTypeNameConflict(t *testing.T) {
	f := buildField(t, TypeNameText, "foo", nil)
	f2 := buildField(t, TypeNameLong, "foo", nil)

	lookup := NewFieldTypeLookup()
	lookup, err := lookup.CopyAndAddAll([]*FieldMapper{f}, false)
	require.NoError(t, err)

	_, err = lookup.CopyAndAddAll([]*FieldMapper{f2}, false)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Conflicts, 1)
	assert.Contains(t, ce.Conflicts[0], "cannot be changed from type")
}

func TestFieldTypeLookupStrictWhenShared(t *testing.T) {
	f := buildField(t, TypeNameText, "foo", nil)
	f2 := buildField(t, TypeNameText, "foo", nil)

	lookup := NewFieldTypeLookup()
	lookup, err := lookup.CopyAndAddAll([]*FieldMapper{f}, false)
	require.NoError(t, err)
	lookup, err = lookup.CopyAndAddAll([]*FieldMapper{f2}, false)
	require.NoError(t, err)
	require.Equal(t, 2, f.FieldTypeReference().NumAssociatedMappers())

	boosted := buildField(t, TypeNameText, "foo", map[string]any{"boost": 3.0})

	_, err = lookup.CopyAndAddAll([]*FieldMapper{boosted}, false)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Conflicts[0], "update_all_types")

	lookup2, err := lookup.CopyAndAddAll([]*FieldMapper{boosted}, true)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, lookup2.Get("foo").Boost(), 0.0001)
	// shared reference: the other mappers observe the update too
	assert.InDelta(t, 3.0, f.FieldType().Boost(), 0.0001)
}

func TestFieldTypeLookupSimpleMatch(t *testing.T) {
	f := buildField(t, TypeNameText, "foo", nil)
	bar := buildField(t, TypeNameText, "bar", nil)
	legacy := buildLegacyField(t, TypeNameText, "food", map[string]any{"index_name": "baz"})

	lookup := NewFieldTypeLookup()
	lookup, err := lookup.CopyAndAddAll([]*FieldMapper{f, bar, legacy}, false)
	require.NoError(t, err)

	tests := []struct {
		name    string
		pattern string
		full    []string
		index   []string
	}{
		{name: "prefix", pattern: "fo*", full: []string{"foo", "food"}, index: []string{"foo", "baz"}},
		{name: "exact", pattern: "bar", full: []string{"bar"}, index: []string{"bar"}},
		{name: "index name maps to full name", pattern: "baz", full: []string{"food"}, index: []string{"baz"}},
		{name: "no match", pattern: "qux*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			full := lookup.SimpleMatchToFullName(tt.pattern)
			require.Len(t, full, len(tt.full))
			for _, want := range tt.full {
				assert.Contains(t, full, want)
			}
			index := lookup.SimpleMatchToIndexNames(tt.pattern)
			require.Len(t, index, len(tt.index))
			for _, want := range tt.index {
				assert.Contains(t, index, want)
			}
		})
	}
}

func TestFieldTypeLookupTypesAreFrozen(t *testing.T) {
	f := buildField(t, TypeNameText, "foo", nil)

	lookup := NewFieldTypeLookup()
	lookup, err := lookup.CopyAndAddAll([]*FieldMapper{f}, false)
	require.NoError(t, err)

	for ft := range lookup.Types() {
		assert.True(t, ft.Frozen())
		assert.Panics(t, func() { ft.SetBoost(2.0) })
	}
	// the registry still serves the original snapshot
	assert.InDelta(t, DefaultBoost, lookup.Get("foo").Boost(), 0.0001)
}

func TestFieldTypeLookupRejectedBatchLeavesRegistryUntouched(t *testing.T) {
	a := buildField(t, TypeNameText, "a", nil)
	b := buildField(t, TypeNameLong, "b", nil)

	lookup := NewFieldTypeLookup()
	lookup, err := lookup.CopyAndAddAll([]*FieldMapper{a, b}, false)
	require.NoError(t, err)

	// boosted would join a's reference cleanly, but the second mapper in the
	// batch collides with b via its index name
	boosted := buildField(t, TypeNameText, "a", map[string]any{"boost": 5.0})
	colliding := buildLegacyField(t, TypeNameText, "c", map[string]any{"index_name": "b"})

	_, err = lookup.CopyAndAddAll([]*FieldMapper{boosted, colliding}, false)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Conflicts[0], "cannot be changed from type [long] to [text]")

	// nothing from the rejected batch reached the registry or the live references
	assert.InDelta(t, DefaultBoost, lookup.Get("a").Boost(), 0.0001)
	assert.InDelta(t, DefaultBoost, a.FieldType().Boost(), 0.0001)
	assert.Equal(t, 1, a.FieldTypeReference().NumAssociatedMappers())
	assert.Nil(t, lookup.Get("c"))
	assert.NotSame(t, b.FieldTypeReference(), colliding.FieldTypeReference())
}

func TestFieldTypeLookupValidateCatchesBatchInternalCollision(t *testing.T) {
	a := buildLegacyField(t, TypeNameText, "a", map[string]any{"index_name": "shared"})
	b := buildLegacyField(t, TypeNameLong, "b", map[string]any{"index_name": "shared"})

	lookup := NewFieldTypeLookup()
	err := lookup.Validate([]*FieldMapper{a, b}, false)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Conflicts[0], "cannot be changed from type [text] to [long]")
}
