package mapping

import (
	"fmt"
	"sort"

	"github.com/hupe1980/fieldmap/analysis"
	"github.com/hupe1980/fieldmap/content"
)

// FieldBuilder accumulates the common field settings while a definition is
// being parsed and assembles the FieldMapper.
type FieldBuilder struct {
	name    string
	variant Variant
	ft      *FieldType

	indexName       string
	docValues       *bool
	omitNormsSet    bool
	indexOptionsSet bool
	includeInAll    *bool

	multiBuilders map[string]Builder
	copyTo        *CopyTo
}

// NewFieldBuilder creates a builder for a field of the given variant,
// starting from the variant's built-in defaults.
func NewFieldBuilder(name string, variant Variant) *FieldBuilder {
	return &FieldBuilder{
		name:          name,
		variant:       variant,
		ft:            variant.DefaultFieldType().Clone(),
		multiBuilders: make(map[string]Builder),
	}
}

// Name returns the short name of the field being built.
func (b *FieldBuilder) Name() string { return b.name }

// Type exposes the working field type for variant parsers.
func (b *FieldBuilder) Type() *FieldType { return b.ft }

// SetDocValues records an explicit doc-values choice.
func (b *FieldBuilder) SetDocValues(v bool) { b.docValues = &v }

// SetOmitNorms records an explicit norms choice.
func (b *FieldBuilder) SetOmitNorms(v bool) {
	b.ft.SetOmitNorms(v)
	b.omitNormsSet = true
}

// SetIndexOptions records an explicit index-options choice.
func (b *FieldBuilder) SetIndexOptions(o IndexOptions) {
	b.ft.SetIndexOptions(o)
	b.indexOptionsSet = true
}

// SetIndexName sets the legacy per-field index name.
func (b *FieldBuilder) SetIndexName(name string) { b.indexName = name }

// SetIncludeInAll records the per-field catch-all flag.
func (b *FieldBuilder) SetIncludeInAll(v bool) { b.includeInAll = &v }

// IncludeInAll returns the per-field catch-all flag, nil when unset.
func (b *FieldBuilder) IncludeInAll() *bool { return b.includeInAll }

// SetCopyTo sets the copy-to targets.
func (b *FieldBuilder) SetCopyTo(c *CopyTo) { b.copyTo = c }

// AddMultiField registers a sub-field builder under its short name.
func (b *FieldBuilder) AddMultiField(sub Builder) {
	b.multiBuilders[sub.Name()] = sub
}

// buildNames resolves the field's naming tuple against the current tree
// position. Only format 1 indexes honor a separate index name; on current
// indexes all names collapse to the full path.
func (b *FieldBuilder) buildNames(ctx *BuilderContext) Names {
	full := ctx.Path.PathAsText(b.name)
	if ctx.Settings.Format.Before(Format2) {
		clean := b.indexName
		if clean == "" {
			clean = b.name
		}
		return Names{
			ShortName:      b.name,
			IndexName:      ctx.Path.PathAsText(clean),
			IndexNameClean: clean,
			FullName:       full,
		}
	}
	return Names{ShortName: b.name, IndexName: full, IndexNameClean: full, FullName: full}
}

// Build finalizes names and untokenized defaults, builds the multi-field
// sub-mappers one path level down, and assembles the mapper.
func (b *FieldBuilder) Build(ctx *BuilderContext) (Mapper, error) {
	return b.BuildFieldMapper(ctx)
}

// BuildFieldMapper is Build with a concrete result type, for callers that
// compose field mappers directly.
func (b *FieldBuilder) BuildFieldMapper(ctx *BuilderContext) (*FieldMapper, error) {
	b.ft.SetNames(b.buildNames(ctx))

	if b.ft.Indexed() && !b.ft.Tokenized() {
		if !b.omitNormsSet {
			b.ft.SetOmitNorms(true)
		}
		if !b.indexOptionsSet {
			b.ft.SetIndexOptions(IndexOptionsDocs)
		}
	}

	multi := make(map[string]*FieldMapper, len(b.multiBuilders))
	if len(b.multiBuilders) > 0 {
		ctx.Path.Add(b.name)
		for name, sb := range b.multiBuilders {
			m, err := sb.Build(ctx)
			if err != nil {
				ctx.Path.Remove()
				return nil, err
			}
			fm, ok := m.(*FieldMapper)
			if !ok {
				ctx.Path.Remove()
				return nil, &SchemaError{Field: name, Reason: "multi field must be a leaf field"}
			}
			multi[name] = fm
		}
		ctx.Path.Remove()
	}

	return NewFieldMapper(b.ft, b.variant, b.docValues, ctx.Settings, NewMultiFields(multi), b.copyTo)
}

// parseField consumes the settings common to every field variant from node,
// deleting each key it understands. Variant parsers run before or after this
// for their own keys; whatever remains afterwards is unknown.
func parseField(b *FieldBuilder, name string, node map[string]any, pctx *ParserContext) error {
	for key, raw := range node {
		switch key {
		case "index_name":
			s, err := content.StringValue(raw)
			if err != nil {
				return schemaErr(name, key, err)
			}
			b.SetIndexName(s)
		case "store":
			v, err := parseStoreValue(raw)
			if err != nil {
				return schemaErr(name, key, err)
			}
			b.ft.SetStored(v)
		case "index":
			if err := parseIndexValue(b, name, raw); err != nil {
				return err
			}
		case "boost":
			f, err := content.Float64Value(raw)
			if err != nil {
				return schemaErr(name, key, err)
			}
			b.ft.SetBoost(f)
		case "doc_values":
			v, err := content.BoolValue(raw)
			if err != nil {
				return schemaErr(name, key, err)
			}
			b.SetDocValues(v)
		case "term_vector":
			s, err := content.StringValue(raw)
			if err != nil {
				return schemaErr(name, key, err)
			}
			if err := parseTermVectorValue(b.ft, s); err != nil {
				return schemaErr(name, key, err)
			}
		case "omit_norms":
			v, err := content.BoolValue(raw)
			if err != nil {
				return schemaErr(name, key, err)
			}
			b.SetOmitNorms(v)
		case "norms":
			obj, ok := raw.(map[string]any)
			if !ok {
				return schemaErr(name, key, fmt.Errorf("expected an object, got %T", raw))
			}
			if enabled, ok := obj["enabled"]; ok {
				v, err := content.BoolValue(enabled)
				if err != nil {
					return schemaErr(name, key, err)
				}
				b.SetOmitNorms(!v)
				delete(obj, "enabled")
			}
			if len(obj) > 0 {
				return schemaErr(name, key, fmt.Errorf("unknown norms property"))
			}
		case "index_options":
			s, err := content.StringValue(raw)
			if err != nil {
				return schemaErr(name, key, err)
			}
			o, err := ParseIndexOptions(s)
			if err != nil {
				return schemaErr(name, key, err)
			}
			b.SetIndexOptions(o)
		case "analyzer", "index_analyzer":
			na, err := resolveAnalyzer(pctx.Analysis, raw)
			if err != nil {
				return schemaErr(name, key, err)
			}
			b.ft.SetIndexAnalyzer(na)
			if b.ft.SearchAnalyzer() == nil {
				b.ft.SetSearchAnalyzer(na)
			}
		case "search_analyzer":
			na, err := resolveAnalyzer(pctx.Analysis, raw)
			if err != nil {
				return schemaErr(name, key, err)
			}
			b.ft.SetSearchAnalyzer(na)
		case "similarity":
			s, err := content.StringValue(raw)
			if err != nil {
				return schemaErr(name, key, err)
			}
			p, err := pctx.Similarity.MustProvider(s)
			if err != nil {
				return schemaErr(name, key, err)
			}
			b.ft.SetSimilarity(p)
		case "fielddata":
			obj, ok := raw.(map[string]any)
			if !ok {
				return schemaErr(name, key, fmt.Errorf("expected an object, got %T", raw))
			}
			if format, ok := obj["format"]; ok {
				s, err := content.StringValue(format)
				if err != nil {
					return schemaErr(name, key, err)
				}
				b.ft.SetFieldDataType(s)
				delete(obj, "format")
			}
			if len(obj) > 0 {
				return schemaErr(name, key, fmt.Errorf("unknown fielddata property"))
			}
		case "include_in_all":
			v, err := content.BoolValue(raw)
			if err != nil {
				return schemaErr(name, key, err)
			}
			b.SetIncludeInAll(v)
		case "copy_to":
			targets, err := content.StringSliceValue(raw)
			if err != nil {
				return schemaErr(name, key, err)
			}
			b.SetCopyTo(NewCopyTo(targets...))
		case "fields":
			if err := parseMultiFields(b, name, raw, pctx); err != nil {
				return err
			}
		default:
			continue
		}
		delete(node, key)
	}
	return nil
}

// parseMultiFields parses the "fields" sub-definitions into sub-builders.
func parseMultiFields(b *FieldBuilder, name string, raw any, pctx *ParserContext) error {
	fields, ok := raw.(map[string]any)
	if !ok {
		return schemaErr(name, "fields", fmt.Errorf("expected an object, got %T", raw))
	}
	for subName, subRaw := range fields {
		subNode, ok := subRaw.(map[string]any)
		if !ok {
			return schemaErr(subName, "fields", fmt.Errorf("expected an object, got %T", subRaw))
		}
		sub, err := parseFieldDefinition(subName, subNode, pctx)
		if err != nil {
			return err
		}
		b.AddMultiField(sub)
	}
	return nil
}

// checkLeftoverKeys fails the definition when keys nobody consumed remain.
func checkLeftoverKeys(name string, node map[string]any) error {
	if len(node) == 0 {
		return nil
	}
	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &SchemaError{
		Field:    name,
		Property: keys[0],
		Reason:   "unknown property",
	}
}

// applyUntokenizedAnalyzer injects the pass-through analyzer for indexed,
// untokenized fields that carry none, so analyzer comparisons during merges
// see matching names.
func applyUntokenizedAnalyzer(b *FieldBuilder, pctx *ParserContext) {
	if b.ft.Indexed() && !b.ft.Tokenized() && b.ft.IndexAnalyzer() == nil {
		kw := pctx.Analysis.KeywordAnalyzer()
		b.ft.SetIndexAnalyzer(kw)
		b.ft.SetSearchAnalyzer(kw)
	}
}

func resolveAnalyzer(reg *analysis.Registry, raw any) (*analysis.NamedAnalyzer, error) {
	s, err := content.StringValue(raw)
	if err != nil {
		return nil, err
	}
	return reg.MustAnalyzer(s)
}

func parseStoreValue(raw any) (bool, error) {
	if s, ok := raw.(string); ok {
		switch s {
		case "yes":
			return true, nil
		case "no":
			return false, nil
		}
	}
	return content.BoolValue(raw)
}

func parseIndexValue(b *FieldBuilder, name string, raw any) error {
	s, err := content.StringValue(raw)
	if err != nil {
		return schemaErr(name, "index", err)
	}
	switch s {
	case "no", "false":
		b.ft.SetIndexOptions(IndexOptionsNone)
		b.indexOptionsSet = false
	case "not_analyzed":
		b.ft.SetTokenized(false)
		if !b.ft.Indexed() {
			b.ft.SetIndexOptions(IndexOptionsDocs)
		}
	case "analyzed", "true":
		b.ft.SetTokenized(true)
		if !b.ft.Indexed() {
			b.ft.SetIndexOptions(IndexOptionsPositions)
		}
	default:
		return schemaErr(name, "index", fmt.Errorf("wrong value for index [%s]", s))
	}
	return nil
}

func parseTermVectorValue(ft *FieldType, s string) error {
	switch s {
	case "no":
		ft.SetStoreTermVectors(false)
	case "yes":
		ft.SetStoreTermVectors(true)
	case "with_offsets":
		ft.SetStoreTermVectors(true)
		ft.SetStoreTermVectorOffsets(true)
	case "with_positions":
		ft.SetStoreTermVectors(true)
		ft.SetStoreTermVectorPositions(true)
	case "with_positions_offsets":
		ft.SetStoreTermVectors(true)
		ft.SetStoreTermVectorPositions(true)
		ft.SetStoreTermVectorOffsets(true)
	case "with_positions_payloads":
		ft.SetStoreTermVectors(true)
		ft.SetStoreTermVectorPositions(true)
		ft.SetStoreTermVectorPayloads(true)
	case "with_positions_offsets_payloads":
		ft.SetStoreTermVectors(true)
		ft.SetStoreTermVectorPositions(true)
		ft.SetStoreTermVectorOffsets(true)
		ft.SetStoreTermVectorPayloads(true)
	default:
		return fmt.Errorf("wrong value for termVector [%s]", s)
	}
	return nil
}

// parseFieldDefinition dispatches one field's property bag to the parser for
// its declared type.
func parseFieldDefinition(name string, node map[string]any, pctx *ParserContext) (Builder, error) {
	typeName := TypeNameText
	if raw, ok := node["type"]; ok {
		s, err := content.StringValue(raw)
		if err != nil {
			return nil, schemaErr(name, "type", err)
		}
		typeName = s
		delete(node, "type")
	}
	parser := pctx.TypeParser(typeName)
	if parser == nil {
		return nil, &SchemaError{
			Field:    name,
			Property: "type",
			Reason:   fmt.Sprintf("no handler for type [%s]", typeName),
		}
	}
	b, err := parser(name, node, pctx)
	if err != nil {
		return nil, err
	}
	if err := checkLeftoverKeys(name, node); err != nil {
		return nil, err
	}
	return b, nil
}

// ParseMappingProperties parses a "properties" object into one builder per
// declared field, sorted by field name for deterministic ordering.
func ParseMappingProperties(props map[string]any, pctx *ParserContext) ([]Builder, error) {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	builders := make([]Builder, 0, len(names))
	for _, name := range names {
		node, ok := props[name].(map[string]any)
		if !ok {
			return nil, &SchemaError{Field: name, Reason: "definition must be an object"}
		}
		b, err := parseFieldDefinition(name, node, pctx)
		if err != nil {
			return nil, err
		}
		builders = append(builders, b)
	}
	return builders, nil
}

func schemaErr(field, property string, cause error) error {
	return &SchemaError{Field: field, Property: property, Reason: cause.Error()}
}
