package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldTypeFreeze(t *testing.T) {
	ft := NewFieldType(TypeNameText)
	ft.SetNames(NewNames("foo"))
	ft.SetBoost(2.0)
	ft.Freeze()

	assert.True(t, ft.Frozen())
	assert.Panics(t, func() { ft.SetBoost(3.0) })
	assert.Panics(t, func() { ft.SetStored(true) })
	assert.Panics(t, func() { ft.SetNames(NewNames("bar")) })

	// the failed mutations left nothing behind
	assert.InDelta(t, 2.0, ft.Boost(), 0.0001)
	assert.False(t, ft.Stored())
}

func TestFieldTypeCloneIsUnfrozen(t *testing.T) {
	ft := NewFieldType(TypeNameText)
	ft.SetNames(NewNames("foo"))
	ft.SetStored(true)
	ft.Freeze()

	c := ft.Clone()
	assert.False(t, c.Frozen())
	assert.True(t, c.Stored())
	assert.Equal(t, ft.Names(), c.Names())

	c.SetBoost(5.0)
	assert.InDelta(t, DefaultBoost, ft.Boost(), 0.0001)
}

func TestFieldTypeCheckTypeName(t *testing.T) {
	text := NewFieldType(TypeNameText)
	text.SetNames(NewNames("foo"))
	long := NewFieldType(TypeNameLong)
	long.SetNames(NewNames("foo"))

	var conflicts []string
	text.CheckTypeName(long, &conflicts)
	require.Len(t, conflicts, 1)
	assert.Contains(t, conflicts[0], "cannot be changed from type [text] to [long]")

	conflicts = nil
	text.CheckTypeName(text.Clone(), &conflicts)
	assert.Empty(t, conflicts)
}

func TestFieldTypeCheckCompatibilityEnumeratesAll(t *testing.T) {
	a := NewFieldType(TypeNameText)
	a.SetNames(NewNames("foo"))
	a.SetIndexOptions(IndexOptionsPositions)
	a.SetTokenized(true)

	b := a.Clone()
	b.SetTokenized(false)
	b.SetStored(true)
	b.SetIndexOptions(IndexOptionsDocs)

	var conflicts []string
	a.CheckCompatibility(b, &conflicts, false)

	// one entry per mismatched setting, not just the first
	require.Len(t, conflicts, 3)
	joined := ""
	for _, c := range conflicts {
		joined += c + "\n"
	}
	assert.Contains(t, joined, "[analyzed]")
	assert.Contains(t, joined, "[store]")
	assert.Contains(t, joined, "[index_options]")
}

func TestFieldTypeCheckCompatibilityDirectional(t *testing.T) {
	t.Run("doc values can be enabled but not disabled", func(t *testing.T) {
		with := NewFieldType(TypeNameText)
		with.SetNames(NewNames("foo"))
		with.SetHasDocValues(true)
		without := with.Clone()
		without.SetHasDocValues(false)

		var conflicts []string
		with.CheckCompatibility(without, &conflicts, false)
		require.Len(t, conflicts, 1)
		assert.Contains(t, conflicts[0], "[doc_values]")

		conflicts = nil
		without.CheckCompatibility(with, &conflicts, false)
		assert.Empty(t, conflicts)
	})

	t.Run("norms can be disabled but not re-enabled", func(t *testing.T) {
		omitted := NewFieldType(TypeNameText)
		omitted.SetNames(NewNames("foo"))
		omitted.SetOmitNorms(true)
		kept := omitted.Clone()
		kept.SetOmitNorms(false)

		var conflicts []string
		omitted.CheckCompatibility(kept, &conflicts, false)
		require.Len(t, conflicts, 1)
		assert.Contains(t, conflicts[0], "[omit_norms]")

		// the disable direction is allowed structurally, strict-only
		conflicts = nil
		kept.CheckCompatibility(omitted, &conflicts, false)
		assert.Empty(t, conflicts)

		kept.CheckCompatibility(omitted, &conflicts, true)
		require.Len(t, conflicts, 1)
		assert.Contains(t, conflicts[0], "update_all_types")
	})
}

func TestFieldTypeCheckCompatibilityStrict(t *testing.T) {
	a := NewFieldType(TypeNameText)
	a.SetNames(NewNames("foo"))
	b := a.Clone()
	b.SetBoost(4.0)
	b.SetNullValue("n/a")

	var conflicts []string
	a.CheckCompatibility(b, &conflicts, false)
	assert.Empty(t, conflicts)

	a.CheckCompatibility(b, &conflicts, true)
	require.Len(t, conflicts, 2)
	for _, c := range conflicts {
		assert.Contains(t, c, "update_all_types")
	}
}

func TestParseIndexOptions(t *testing.T) {
	tests := []struct {
		in      string
		want    IndexOptions
		wantErr bool
	}{
		{in: "docs", want: IndexOptionsDocs},
		{in: "freqs", want: IndexOptionsFreqs},
		{in: "positions", want: IndexOptionsPositions},
		{in: "offsets", want: IndexOptionsOffsets},
		{in: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIndexOptions(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}
