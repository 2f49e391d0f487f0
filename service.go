package fieldmap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/fieldmap/content"
	"github.com/hupe1980/fieldmap/mapping"
)

// ApplyOptions controls one mapping update.
type ApplyOptions struct {
	// Simulate runs the validation walk only and reports every conflict
	// without mutating anything.
	Simulate bool

	// UpdateAllTypes allows structural changes to field types shared by
	// multiple mappers.
	UpdateAllTypes bool
}

// mapperTree is the immutable set of root field mappers. Updates build a new
// tree and publish it atomically.
type mapperTree struct {
	byName map[string]*mapping.FieldMapper
}

func newMapperTree() *mapperTree {
	return &mapperTree{byName: make(map[string]*mapping.FieldMapper)}
}

func (t *mapperTree) clone() *mapperTree {
	c := newMapperTree()
	for name, m := range t.byName {
		c.byName[name] = m
	}
	return c
}

func (t *mapperTree) sortedNames() []string {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Service owns a live mapping: the root mapper tree, the published
// field-type registry snapshot, the metadata mappers and the doc-values
// column tracker.
type Service struct {
	opts   options
	logger *Logger

	mu     sync.Mutex // serializes mapping updates
	tree   atomic.Pointer[mapperTree]
	lookup atomic.Pointer[mapping.FieldTypeLookup]

	metaID      *mapping.IDFieldMapper
	metaRouting *mapping.RoutingFieldMapper
	metaSize    *mapping.SizeFieldMapper
	metaAll     *mapping.AllFieldMapper

	columns *ColumnTracker
	seq     atomic.Uint32
}

// New creates a Service with an empty mapping.
func New(optFns ...Option) *Service {
	o := applyOptions(optFns)

	s := &Service{
		opts:        o,
		logger:      o.logger,
		metaID:      mapping.NewIDFieldMapper(o.settings),
		metaRouting: mapping.NewRoutingFieldMapper(o.settings, o.routingRequired),
		metaSize:    mapping.NewSizeFieldMapper(o.settings, o.sizeEnabled),
		metaAll:     mapping.NewAllFieldMapper(o.settings, o.allEnabled),
		columns:     NewColumnTracker(),
	}
	s.tree.Store(newMapperTree())
	s.lookup.Store(mapping.NewFieldTypeLookup())
	return s
}

// Lookup returns the current field-type registry snapshot. The snapshot is
// immutable; later updates publish new snapshots without touching it.
func (s *Service) Lookup() *mapping.FieldTypeLookup {
	return s.lookup.Load()
}

// FieldType returns the current type of the named field, nil if unmapped.
func (s *Service) FieldType(fullName string) *mapping.FieldType {
	return s.lookup.Load().Get(fullName)
}

// Fields returns the mapped root field names, sorted.
func (s *Service) Fields() []string {
	return s.tree.Load().sortedNames()
}

// Columns returns the doc-values column tracker.
func (s *Service) Columns() *ColumnTracker {
	return s.columns
}

// ApplyMapping merges a mapping definition into the live mapping.
//
// The definition is an object with a "properties" section and optional
// "_routing", "_size" and "_all" sections. The whole update is validated
// first; any conflict rejects it completely and the returned MergeResult
// carries the full conflict list. With ApplyOptions.Simulate the validation
// report is returned and nothing changes.
func (s *Service) ApplyMapping(ctx context.Context, source []byte, opts ApplyOptions) (*mapping.MergeResult, error) {
	if len(bytes.TrimSpace(source)) == 0 {
		return nil, ErrEmptySource
	}

	root, err := content.DecodeMap(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMapping, err)
	}

	incoming, metaIn, err := s.parseMappingSource(root)
	if err != nil {
		s.logger.LogApplyMapping(ctx, 0, 0, opts.Simulate, err)
		return nil, translateError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.tree.Load()

	dry := mapping.NewMergeResult(true, opts.UpdateAllTypes)
	s.mergeWalk(cur, incoming, metaIn, dry)

	// the registry has its own constraints (index-name joins across fields)
	// the merge walk cannot see, so validate the whole prospective batch
	// against the current snapshot before anything is touched
	var prospective []*mapping.FieldMapper
	for _, name := range sortedKeys(incoming) {
		prospective = append(prospective, mapping.CollectFieldMappers(incoming[name])...)
	}
	if err := s.lookup.Load().Validate(prospective, opts.UpdateAllTypes); err != nil {
		var conflictErr *mapping.ConflictError
		if !errors.As(err, &conflictErr) {
			s.logger.LogApplyMapping(ctx, len(incoming), 0, opts.Simulate, err)
			return nil, translateError(err)
		}
		for _, c := range conflictErr.Conflicts {
			dry.AddConflict(c)
		}
	}

	if opts.Simulate {
		s.logger.LogApplyMapping(ctx, len(incoming), len(dry.Conflicts()), true, nil)
		return dry, nil
	}
	if dry.HasConflicts() {
		err := &mapping.ConflictError{Conflicts: dry.Conflicts()}
		s.logger.LogApplyMapping(ctx, len(incoming), len(dry.Conflicts()), false, err)
		return dry, translateError(err)
	}

	res := mapping.NewMergeResult(false, opts.UpdateAllTypes)
	next := cur.clone()
	for _, name := range sortedKeys(incoming) {
		if existing, ok := next.byName[name]; ok {
			existing.Merge(incoming[name], res)
			continue
		}
		next.byName[name] = incoming[name]
		res.AddNewFieldMappers(incoming[name])
	}
	s.applyMetaMerges(metaIn, res)

	var register []*mapping.FieldMapper
	for _, name := range next.sortedNames() {
		register = append(register, mapping.CollectFieldMappers(next.byName[name])...)
	}
	lookup, err := s.lookup.Load().CopyAndAddAll(register, opts.UpdateAllTypes)
	if err != nil {
		s.logger.LogApplyMapping(ctx, len(incoming), 0, false, err)
		return res, translateError(err)
	}

	s.lookup.Store(lookup)
	s.tree.Store(next)
	s.logger.LogApplyMapping(ctx, len(incoming), 0, false, nil)
	return res, nil
}

// incomingMeta holds the metadata sections of one mapping update, nil when
// the section was absent.
type incomingMeta struct {
	routing *mapping.RoutingFieldMapper
	size    *mapping.SizeFieldMapper
	all     *mapping.AllFieldMapper
}

func (s *Service) parseMappingSource(root map[string]any) (map[string]*mapping.FieldMapper, incomingMeta, error) {
	var meta incomingMeta

	if raw, ok := root[mapping.RoutingFieldName]; ok {
		required, err := metaBoolSetting(mapping.RoutingFieldName, raw, "required", s.metaRouting.Required())
		if err != nil {
			return nil, meta, err
		}
		meta.routing = mapping.NewRoutingFieldMapper(s.opts.settings, required)
		delete(root, mapping.RoutingFieldName)
	}
	if raw, ok := root[mapping.SizeFieldName]; ok {
		enabled, err := metaBoolSetting(mapping.SizeFieldName, raw, "enabled", s.metaSize.Enabled())
		if err != nil {
			return nil, meta, err
		}
		meta.size = mapping.NewSizeFieldMapper(s.opts.settings, enabled)
		delete(root, mapping.SizeFieldName)
	}
	if raw, ok := root[mapping.AllFieldName]; ok {
		enabled, err := metaBoolSetting(mapping.AllFieldName, raw, "enabled", s.metaAll.Enabled())
		if err != nil {
			return nil, meta, err
		}
		meta.all = mapping.NewAllFieldMapper(s.opts.settings, enabled)
		delete(root, mapping.AllFieldName)
	}

	props := map[string]any{}
	if raw, ok := root["properties"]; ok {
		obj, isMap := raw.(map[string]any)
		if !isMap {
			return nil, meta, &mapping.SchemaError{Field: "properties", Reason: "must be an object"}
		}
		props = obj
		delete(root, "properties")
	}
	for key := range root {
		return nil, meta, &mapping.SchemaError{Field: key, Reason: "unknown mapping section"}
	}

	pctx := &mapping.ParserContext{
		Analysis:    s.opts.analysis,
		Similarity:  s.opts.similarity,
		TypeParsers: s.opts.typeParsers,
		Format:      s.opts.settings.Format,
	}
	builders, err := mapping.ParseMappingProperties(props, pctx)
	if err != nil {
		return nil, meta, err
	}

	bctx := mapping.NewBuilderContext(s.opts.settings)
	incoming := make(map[string]*mapping.FieldMapper, len(builders))
	for _, b := range builders {
		m, err := b.Build(bctx)
		if err != nil {
			return nil, meta, err
		}
		fm, ok := m.(*mapping.FieldMapper)
		if !ok {
			return nil, meta, &mapping.SchemaError{Field: b.Name(), Reason: "not a leaf field"}
		}
		incoming[fm.Name()] = fm
	}
	return incoming, meta, nil
}

// mergeWalk runs the merge over every incoming mapper and metadata section
// against the current tree, recording into result.
func (s *Service) mergeWalk(cur *mapperTree, incoming map[string]*mapping.FieldMapper, metaIn incomingMeta, result *mapping.MergeResult) {
	for _, name := range sortedKeys(incoming) {
		if existing, ok := cur.byName[name]; ok {
			existing.Merge(incoming[name], result)
		}
	}
	s.applyMetaMerges(metaIn, result)
}

func (s *Service) applyMetaMerges(metaIn incomingMeta, result *mapping.MergeResult) {
	if metaIn.routing != nil {
		s.metaRouting.Merge(metaIn.routing, result)
	}
	if metaIn.size != nil {
		s.metaSize.Merge(metaIn.size, result)
	}
	if metaIn.all != nil {
		s.metaAll.Merge(metaIn.all, result)
	}
}

func metaBoolSetting(section string, raw any, key string, current bool) (bool, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return false, &mapping.SchemaError{Field: section, Reason: "must be an object"}
	}
	value := current
	if v, ok := obj[key]; ok {
		b, err := content.BoolValue(v)
		if err != nil {
			return false, &mapping.SchemaError{Field: section, Property: key, Reason: err.Error()}
		}
		value = b
		delete(obj, key)
	}
	for k := range obj {
		return false, &mapping.SchemaError{Field: section, Property: k, Reason: "unknown property"}
	}
	return value, nil
}

// ParseDocument translates one document into indexable entries against the
// current mapping snapshot. Unmapped fields are skipped. id must be
// non-empty; routing may be empty unless the mapping requires it.
func (s *Service) ParseDocument(ctx context.Context, id, routing string, source []byte) (*mapping.Document, error) {
	if len(bytes.TrimSpace(source)) == 0 {
		return nil, ErrEmptySource
	}

	tree := s.tree.Load()
	parser := content.NewBytesParser(source)
	pctx := mapping.NewParseContext(parser, len(source), s.metaAll.Enabled())
	pctx.SetID(id)
	pctx.SetRouting(routing)

	metas := []mapping.MetadataMapper{s.metaID, s.metaRouting, s.metaSize, s.metaAll}
	for _, m := range metas {
		if err := m.PreParse(pctx); err != nil {
			s.logger.LogParseDocument(ctx, id, 0, 0, err)
			return nil, translateError(err)
		}
	}

	if err := s.walkDocument(tree, pctx); err != nil {
		s.logger.LogParseDocument(ctx, id, 0, 0, err)
		return nil, translateError(err)
	}

	// resolve copy-to duplications against the same snapshot; a copy target
	// may itself copy elsewhere, so the list grows while being worked off
	const maxCopyChain = 1000
	for i := 0; i < len(pctx.Doc().Copies()); i++ {
		if i >= maxCopyChain {
			err := fmt.Errorf("%w: copy_to chain exceeds %d entries, check for cycles", ErrInvalidMapping, maxCopyChain)
			s.logger.LogParseDocument(ctx, id, 0, 0, err)
			return nil, err
		}
		c := pctx.Doc().Copies()[i]
		target, ok := tree.byName[c.Field]
		if !ok {
			pctx.Doc().AddIgnored(c.Field, c.Value)
			continue
		}
		pctx.SetExternalValue(c.Value)
		err := target.Parse(pctx)
		pctx.ClearExternalValue()
		if err != nil {
			s.logger.LogParseDocument(ctx, id, 0, 0, err)
			return nil, translateError(err)
		}
	}

	for _, m := range metas {
		if err := m.PostParse(pctx); err != nil {
			s.logger.LogParseDocument(ctx, id, 0, 0, err)
			return nil, translateError(err)
		}
	}

	doc := pctx.Doc()
	seq := s.seq.Add(1)
	for _, f := range doc.Fields() {
		if f.Kind == mapping.EntryDocValues {
			s.columns.Record(f.Name, seq)
		}
	}

	s.logger.LogParseDocument(ctx, id, len(doc.Fields()), len(doc.Ignored()), nil)
	return doc, nil
}

func (s *Service) walkDocument(tree *mapperTree, pctx *mapping.ParseContext) error {
	parser := pctx.Parser()

	tok, err := parser.Next()
	if err != nil {
		return newDocError(err)
	}
	if tok != content.TokenStartObject {
		return newDocError(fmt.Errorf("expected an object, got [%s]", tok))
	}

	for {
		tok, err := parser.Next()
		if err != nil {
			return newDocError(err)
		}
		if tok == content.TokenEndObject {
			return nil
		}
		if tok != content.TokenFieldName {
			return newDocError(fmt.Errorf("expected a field name, got [%s]", tok))
		}
		name := parser.CurrentName()

		if _, err := parser.Next(); err != nil {
			return newDocError(err)
		}

		fm, mapped := tree.byName[name]
		if !mapped {
			if err := parser.Skip(); err != nil {
				return newDocError(err)
			}
			continue
		}

		if parser.Current() == content.TokenStartArray {
			// leaf arrays: each element parses as one value
			for {
				tok, err := parser.Next()
				if err != nil {
					return newDocError(err)
				}
				if tok == content.TokenEndArray {
					break
				}
				if err := fm.Parse(pctx); err != nil {
					return err
				}
			}
			continue
		}
		if err := fm.Parse(pctx); err != nil {
			return err
		}
	}
}

func newDocError(cause error) error {
	return fmt.Errorf("malformed document: %w", cause)
}

// ExportMapping renders the current mapping as JSON. With includeDefaults,
// settings equal to built-in defaults are included too.
func (s *Service) ExportMapping(ctx context.Context, includeDefaults bool) ([]byte, error) {
	tree := s.tree.Load()

	b := content.NewBuilder()
	b.StartObject()

	for _, m := range []mapping.Mapper{s.metaAll, s.metaRouting, s.metaSize, s.metaID} {
		if err := m.ToContent(b, includeDefaults); err != nil {
			s.logger.LogExportMapping(ctx, 0, includeDefaults, err)
			return nil, err
		}
	}

	b.StartObjectField("properties")
	for _, name := range tree.sortedNames() {
		if err := tree.byName[name].ToContent(b, includeDefaults); err != nil {
			s.logger.LogExportMapping(ctx, 0, includeDefaults, err)
			return nil, err
		}
	}
	b.EndObject()
	b.EndObject()

	out, err := b.Bytes()
	if err != nil {
		s.logger.LogExportMapping(ctx, 0, includeDefaults, err)
		return nil, err
	}
	s.logger.LogExportMapping(ctx, len(out), includeDefaults, nil)
	return out, nil
}

func sortedKeys(m map[string]*mapping.FieldMapper) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
