package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fieldmap/content"
)

func metaParseContext(source string) *ParseContext {
	return NewParseContext(content.NewBytesParser([]byte(source)), len(source), true)
}

func TestIDFieldRequiresID(t *testing.T) {
	m := NewIDFieldMapper(DefaultIndexSettings())
	ctx := metaParseContext(`{}`)

	err := m.PreParse(ctx)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, IDFieldName, pe.Field)
	assert.Contains(t, err.Error(), "no id provided")
}

func TestIDFieldIndexesID(t *testing.T) {
	m := NewIDFieldMapper(DefaultIndexSettings())
	ctx := metaParseContext(`{}`)
	ctx.SetID("doc-1")

	require.NoError(t, m.PreParse(ctx))

	fields := ctx.Doc().FieldsByName(IDFieldName)
	require.Len(t, fields, 1)
	assert.Equal(t, EntryIndexed, fields[0].Kind)
	assert.Equal(t, "doc-1", fields[0].Value)
	assert.True(t, fields[0].Stored)
	assert.False(t, fields[0].Tokenized)
	assert.Empty(t, ctx.AllEntries().Entries(), "metadata must not feed the catch-all")
}

func TestRoutingFieldOptionalByDefault(t *testing.T) {
	m := NewRoutingFieldMapper(DefaultIndexSettings(), false)
	ctx := metaParseContext(`{}`)

	require.NoError(t, m.PreParse(ctx))
	assert.Empty(t, ctx.Doc().Fields())

	ctx.SetRouting("shard-key")
	require.NoError(t, m.PreParse(ctx))
	fields := ctx.Doc().FieldsByName(RoutingFieldName)
	require.Len(t, fields, 1)
	assert.Equal(t, "shard-key", fields[0].Value)
	assert.True(t, fields[0].Stored)
}

func TestRoutingFieldRequired(t *testing.T) {
	m := NewRoutingFieldMapper(DefaultIndexSettings(), true)
	ctx := metaParseContext(`{}`)

	err := m.PreParse(ctx)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "routing is required")
}

func TestRoutingFieldRequiredImmutable(t *testing.T) {
	existing := NewRoutingFieldMapper(DefaultIndexSettings(), false)
	incoming := NewRoutingFieldMapper(DefaultIndexSettings(), true)

	result := NewMergeResult(false, false)
	existing.Merge(incoming, result)
	require.True(t, result.HasConflicts())
	assert.Contains(t, result.Conflicts()[0], "cannot update required setting for [_routing]")
}

func TestSizeFieldRecordsSourceLength(t *testing.T) {
	source := `{"title":"hello"}`

	disabled := NewSizeFieldMapper(DefaultIndexSettings(), false)
	ctx := metaParseContext(source)
	require.NoError(t, disabled.PostParse(ctx))
	assert.Empty(t, ctx.Doc().Fields())

	enabled := NewSizeFieldMapper(DefaultIndexSettings(), true)
	ctx = metaParseContext(source)
	require.NoError(t, enabled.PostParse(ctx))
	fields := ctx.Doc().FieldsByName(SizeFieldName)
	require.NotEmpty(t, fields)
	assert.Equal(t, int64(len(source)), fields[0].Value)
}

func TestSizeFieldEnabledIsTunable(t *testing.T) {
	existing := NewSizeFieldMapper(DefaultIndexSettings(), false)
	incoming := NewSizeFieldMapper(DefaultIndexSettings(), true)

	dry := NewMergeResult(true, false)
	existing.Merge(incoming, dry)
	require.False(t, dry.HasConflicts())
	assert.False(t, existing.Enabled(), "simulation must not mutate")

	result := NewMergeResult(false, false)
	existing.Merge(incoming, result)
	require.False(t, result.HasConflicts())
	assert.True(t, existing.Enabled())
}

func TestAllFieldFlushesAccumulator(t *testing.T) {
	m := NewAllFieldMapper(DefaultIndexSettings(), true)
	ctx := metaParseContext(`{}`)
	ctx.AllEntries().Add("title", "hello world", 2.0)
	ctx.AllEntries().Add("body", "lorem", 1.0)

	require.NoError(t, m.PostParse(ctx))

	fields := ctx.Doc().FieldsByName(AllFieldName)
	require.Len(t, fields, 2)
	assert.Equal(t, "hello world", fields[0].Value)
	assert.Equal(t, 2.0, fields[0].Boost)
	assert.True(t, fields[0].Tokenized)
	assert.Equal(t, "lorem", fields[1].Value)
}

func TestAllFieldDisabledFlushesNothing(t *testing.T) {
	m := NewAllFieldMapper(DefaultIndexSettings(), false)
	ctx := metaParseContext(`{}`)
	ctx.AllEntries().Add("title", "hello", 1.0)

	require.NoError(t, m.PostParse(ctx))
	assert.Empty(t, ctx.Doc().Fields())
}

func TestAllFieldEnabledImmutable(t *testing.T) {
	existing := NewAllFieldMapper(DefaultIndexSettings(), true)
	incoming := NewAllFieldMapper(DefaultIndexSettings(), false)

	result := NewMergeResult(false, false)
	existing.Merge(incoming, result)
	require.True(t, result.HasConflicts())
	assert.Contains(t, result.Conflicts()[0], "enabled is [true] now encountering [false]")
}
