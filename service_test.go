package fieldmap

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/fieldmap/content"
	"github.com/hupe1980/fieldmap/mapping"
)

const articleMapping = `{
	"properties": {
		"title":   {"type": "text", "boost": 2.0},
		"views":   {"type": "long"},
		"active":  {"type": "boolean"},
		"created": {"type": "date"}
	}
}`

func newTestService(t testing.TB, optFns ...Option) *Service {
	t.Helper()
	s := New(optFns...)
	_, err := s.ApplyMapping(context.Background(), []byte(articleMapping), ApplyOptions{})
	require.NoError(t, err)
	return s
}

func TestApplyMappingAndParseDocument(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	assert.Equal(t, []string{"active", "created", "title", "views"}, s.Fields())

	ft := s.FieldType("title")
	require.NotNil(t, ft)
	assert.Equal(t, 2.0, ft.Boost())
	assert.Nil(t, s.FieldType("missing"))

	doc, err := s.ParseDocument(ctx, "doc-1", "", []byte(
		`{"title":"hello world","views":42,"active":true,"unmapped":{"deep":["x"]}}`))
	require.NoError(t, err)

	title := doc.FieldsByName("title")
	require.Len(t, title, 1)
	assert.Equal(t, "hello world", title[0].Value)
	assert.Equal(t, 2.0, title[0].Boost)
	assert.True(t, title[0].Tokenized)

	views := doc.FieldsByName("views")
	require.Len(t, views, 2)
	assert.Equal(t, int64(42), views[0].Value)
	assert.Equal(t, mapping.EntryDocValues, views[1].Kind)

	id := doc.FieldsByName("_id")
	require.Len(t, id, 1)
	assert.Equal(t, "doc-1", id[0].Value)

	all := doc.FieldsByName("_all")
	require.NotEmpty(t, all, "indexed field values must reach the catch-all")
}

func TestApplyMappingEmptySource(t *testing.T) {
	s := New()
	_, err := s.ApplyMapping(context.Background(), []byte("  "), ApplyOptions{})
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = s.ParseDocument(context.Background(), "doc-1", "", nil)
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestApplyMappingRejectsUnknownSection(t *testing.T) {
	s := New()
	_, err := s.ApplyMapping(context.Background(), []byte(`{"propertiez":{}}`), ApplyOptions{})
	require.ErrorIs(t, err, ErrInvalidMapping)
	assert.Contains(t, err.Error(), "propertiez")
}

func TestApplyMappingRejectsUnknownType(t *testing.T) {
	s := New()
	_, err := s.ApplyMapping(context.Background(),
		[]byte(`{"properties":{"loc":{"type":"geo_point"}}}`), ApplyOptions{})
	require.ErrorIs(t, err, ErrInvalidMapping)
	assert.Contains(t, err.Error(), "geo_point")
}

func TestApplyMappingSimulateReportsWithoutMutating(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	before := s.Lookup()

	res, err := s.ApplyMapping(ctx, []byte(
		`{"properties":{"title":{"type":"text","store":true},"extra":{"type":"long"}}}`),
		ApplyOptions{Simulate: true})
	require.NoError(t, err)
	require.True(t, res.HasConflicts())
	assert.Contains(t, res.Conflicts()[0], "store")

	assert.Same(t, before, s.Lookup(), "simulation must not publish a new snapshot")
	assert.NotContains(t, s.Fields(), "extra")
}

func TestApplyMappingConflictRejectsWholeUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	// "views" alone would merge cleanly; the "title" conflict rejects both
	res, err := s.ApplyMapping(ctx, []byte(
		`{"properties":{"title":{"type":"text","store":true},"views":{"type":"long","coerce":false}}}`),
		ApplyOptions{})
	require.ErrorIs(t, err, ErrMappingConflict)
	require.True(t, res.HasConflicts())

	doc, perr := s.ParseDocument(ctx, "doc-1", "", []byte(`{"views":"3.7"}`))
	require.NoError(t, perr, "coerce must still be on after the rejected update")
	require.NotEmpty(t, doc.FieldsByName("views"))
}

func TestApplyMappingTypeChangeConflict(t *testing.T) {
	s := newTestService(t)

	_, err := s.ApplyMapping(context.Background(),
		[]byte(`{"properties":{"views":{"type":"text"}}}`), ApplyOptions{})
	require.ErrorIs(t, err, ErrMappingConflict)
	assert.Contains(t, err.Error(), "cannot be changed from type")
}

func TestApplyMappingIncrementalAddAndTune(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	res, err := s.ApplyMapping(ctx, []byte(
		`{"properties":{"title":{"type":"text","boost":3.0},"tags":{"type":"text","index":"not_analyzed"}}}`),
		ApplyOptions{})
	require.NoError(t, err)
	require.Len(t, res.NewFieldMappers(), 1)
	assert.Equal(t, "tags", res.NewFieldMappers()[0].Name())

	assert.Equal(t, 3.0, s.FieldType("title").Boost())
	assert.Contains(t, s.Fields(), "tags")
	assert.False(t, s.FieldType("tags").Tokenized())
}

func TestRoutingSectionUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, WithRoutingRequired(true))

	_, err := s.ParseDocument(ctx, "doc-1", "", []byte(`{"title":"x"}`))
	require.ErrorIs(t, err, ErrParseFailure)
	assert.Contains(t, err.Error(), "routing is required")

	doc, err := s.ParseDocument(ctx, "doc-1", "shard-7", []byte(`{"title":"x"}`))
	require.NoError(t, err)
	routing := doc.FieldsByName("_routing")
	require.Len(t, routing, 1)
	assert.Equal(t, "shard-7", routing[0].Value)

	// the required flag is write-once
	_, err = s.ApplyMapping(ctx, []byte(`{"_routing":{"required":false}}`), ApplyOptions{})
	require.ErrorIs(t, err, ErrMappingConflict)
}

func TestSizeSectionUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	doc, err := s.ParseDocument(ctx, "doc-1", "", []byte(`{"title":"x"}`))
	require.NoError(t, err)
	assert.Empty(t, doc.FieldsByName("_size"))

	_, err = s.ApplyMapping(ctx, []byte(`{"_size":{"enabled":true}}`), ApplyOptions{})
	require.NoError(t, err)

	source := []byte(`{"title":"x"}`)
	doc, err = s.ParseDocument(ctx, "doc-2", "", source)
	require.NoError(t, err)
	size := doc.FieldsByName("_size")
	require.NotEmpty(t, size)
	assert.Equal(t, int64(len(source)), size[0].Value)
}

func TestAllSectionImmutable(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, WithAllEnabled(false))

	doc, err := s.ParseDocument(ctx, "doc-1", "", []byte(`{"title":"hello"}`))
	require.NoError(t, err)
	assert.Empty(t, doc.FieldsByName("_all"))

	_, err = s.ApplyMapping(ctx, []byte(`{"_all":{"enabled":true}}`), ApplyOptions{})
	require.ErrorIs(t, err, ErrMappingConflict)
}

func TestParseDocumentLeafArray(t *testing.T) {
	s := newTestService(t)

	doc, err := s.ParseDocument(context.Background(), "doc-1", "",
		[]byte(`{"views":[1,2,3]}`))
	require.NoError(t, err)

	views := doc.FieldsByName("views")
	require.Len(t, views, 6) // indexed + doc-values per element
	assert.Equal(t, int64(1), views[0].Value)
}

func TestParseDocumentMalformedValue(t *testing.T) {
	s := newTestService(t)

	_, err := s.ParseDocument(context.Background(), "doc-1", "",
		[]byte(`{"views":"not a number"}`))
	require.ErrorIs(t, err, ErrParseFailure)
	assert.Contains(t, err.Error(), "views")
}

func TestParseDocumentRequiresID(t *testing.T) {
	s := newTestService(t)

	_, err := s.ParseDocument(context.Background(), "", "", []byte(`{"title":"x"}`))
	require.ErrorIs(t, err, ErrParseFailure)
	assert.Contains(t, err.Error(), "no id provided")
}

func TestParseDocumentCopyTo(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.ApplyMapping(ctx, []byte(`{
		"properties": {
			"first":  {"type": "text", "copy_to": ["full_name", "ghost"]},
			"full_name": {"type": "text"}
		}
	}`), ApplyOptions{})
	require.NoError(t, err)

	doc, err := s.ParseDocument(ctx, "doc-1", "", []byte(`{"first":"ada"}`))
	require.NoError(t, err)

	full := doc.FieldsByName("full_name")
	require.Len(t, full, 1)
	assert.Equal(t, "ada", full[0].Value)

	// the unmapped copy target surfaces as an ignored value, not an error
	var ignoredFields []string
	for _, iv := range doc.Ignored() {
		ignoredFields = append(ignoredFields, iv.Field)
	}
	assert.Contains(t, ignoredFields, "ghost")
}

func TestColumnTrackerFollowsDocValues(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	for i := range 3 {
		_, err := s.ParseDocument(ctx, fmt.Sprintf("doc-%d", i), "",
			[]byte(fmt.Sprintf(`{"views":%d,"active":true}`, i)))
		require.NoError(t, err)
	}
	_, err := s.ParseDocument(ctx, "doc-3", "", []byte(`{"views":7}`))
	require.NoError(t, err)

	cols := s.Columns()
	assert.Equal(t, []string{"active", "views"}, cols.Fields())
	assert.Equal(t, uint64(4), cols.Cardinality("views"))
	assert.Equal(t, uint64(3), cols.Cardinality("active"))
	assert.Len(t, cols.Intersection("views", "active"), 3)
	assert.Nil(t, cols.Intersection("views", "missing"))
	assert.True(t, cols.Contains("views", 4))
	assert.False(t, cols.Contains("active", 4))
}

func TestExportMappingRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, WithRoutingRequired(true))

	out, err := s.ExportMapping(ctx, false)
	require.NoError(t, err)

	root, err := content.DecodeMap(out)
	require.NoError(t, err)

	routing, ok := root["_routing"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, routing["required"])

	props, ok := root["properties"].(map[string]any)
	require.True(t, ok)
	require.Len(t, props, 4)
	title, ok := props["title"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "text", title["type"])

	// a non-defaults export must re-apply cleanly onto a fresh service
	fresh := New(WithRoutingRequired(true))
	_, err = fresh.ApplyMapping(ctx, out, ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, s.Fields(), fresh.Fields())
}

func TestExportMappingIncludeDefaults(t *testing.T) {
	s := newTestService(t)

	out, err := s.ExportMapping(context.Background(), true)
	require.NoError(t, err)

	root, err := content.DecodeMap(out)
	require.NoError(t, err)
	assert.Contains(t, root, "_all")
	assert.Contains(t, root, "_id")
	assert.Contains(t, root, "_size")
}

func TestConcurrentParseAndApply(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	var g errgroup.Group
	for w := range 4 {
		g.Go(func() error {
			for i := range 50 {
				doc, err := s.ParseDocument(ctx, fmt.Sprintf("doc-%d-%d", w, i), "",
					[]byte(`{"title":"hello","views":1}`))
				if err != nil {
					return err
				}
				if len(doc.FieldsByName("title")) != 1 {
					return fmt.Errorf("worker %d: unexpected title entries", w)
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		for i := range 20 {
			source := fmt.Sprintf(`{"properties":{"gen_%d":{"type":"long"}}}`, i)
			if _, err := s.ApplyMapping(ctx, []byte(source), ApplyOptions{}); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		// retune a parsed field while the parse workers are running
		for i := range 20 {
			source := fmt.Sprintf(
				`{"properties":{"title":{"type":"text","boost":2.0,"ignore_above":%d}}}`, 50+i%2)
			if _, err := s.ApplyMapping(ctx, []byte(source), ApplyOptions{}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, g.Wait())

	assert.Len(t, s.Fields(), 24)
	require.NotNil(t, s.FieldType("gen_19"))
	assert.Equal(t, 2.0, s.FieldType("title").Boost())
}

func TestRejectedUpdateLeavesMappingUntouched(t *testing.T) {
	ctx := context.Background()
	s := New(WithIndexSettings(mapping.IndexSettings{Format: mapping.Format1}))
	_, err := s.ApplyMapping(ctx, []byte(`{
		"properties": {
			"a": {"type": "text"},
			"b": {"type": "long"}
		}
	}`), ApplyOptions{})
	require.NoError(t, err)

	// tuning "a" would merge cleanly on its own; the new "c" collides with
	// "b" through its index name, so the whole update must be rejected
	res, err := s.ApplyMapping(ctx, []byte(`{
		"properties": {
			"a": {"type": "text", "boost": 5.0},
			"c": {"type": "text", "index_name": "b"}
		}
	}`), ApplyOptions{})
	require.ErrorIs(t, err, ErrMappingConflict)
	require.True(t, res.HasConflicts())

	assert.InDelta(t, mapping.DefaultBoost, s.FieldType("a").Boost(), 0.0001)
	assert.NotContains(t, s.Fields(), "c")
	assert.Nil(t, s.FieldType("c"))
}

func TestParseDocumentChainedCopyTo(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.ApplyMapping(ctx, []byte(`{
		"properties": {
			"first":     {"type": "text", "copy_to": ["full_name"]},
			"full_name": {"type": "text", "copy_to": ["alias"]},
			"alias":     {"type": "text"}
		}
	}`), ApplyOptions{})
	require.NoError(t, err)

	doc, err := s.ParseDocument(ctx, "doc-1", "", []byte(`{"first":"ada"}`))
	require.NoError(t, err)

	require.Len(t, doc.FieldsByName("full_name"), 1)
	alias := doc.FieldsByName("alias")
	require.Len(t, alias, 1)
	assert.Equal(t, "ada", alias[0].Value)
}

func TestParseDocumentCopyToCycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.ApplyMapping(ctx, []byte(`{
		"properties": {
			"ping": {"type": "text", "copy_to": ["pong"]},
			"pong": {"type": "text", "copy_to": ["ping"]}
		}
	}`), ApplyOptions{})
	require.NoError(t, err)

	_, err = s.ParseDocument(ctx, "doc-1", "", []byte(`{"ping":"x"}`))
	require.ErrorIs(t, err, ErrInvalidMapping)
	assert.Contains(t, err.Error(), "copy_to")
}
