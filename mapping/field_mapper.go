package mapping

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/hupe1980/fieldmap/content"
	"github.com/hupe1980/fieldmap/similarity"
)

// Variant is the capability interface the closed set of field-type variants
// implements. A variant owns the type-specific pieces: how a raw value is
// coerced into indexable entries, the built-in default field type, and which
// of its scalar settings a merge may replace.
type Variant interface {
	// TypeName is the mapping-definition type ("text", "long", ...).
	TypeName() string
	// DefaultFieldType returns the frozen built-in defaults for the variant.
	DefaultFieldType() *FieldType
	// DefaultFieldDataType returns the fielddata backing type.
	DefaultFieldDataType() string
	// ParseCreateField reads the value the context is positioned on, applies
	// coercion, and returns the entries to index plus the coerced value. A
	// nil value means nothing was extracted (explicit null without a
	// substitute, or a skip rule applied).
	ParseCreateField(ctx *ParseContext, fm *FieldMapper) ([]IndexableField, any, error)
	// MergeCustom returns a copy of the variant carrying with's
	// runtime-tunable scalar settings. The receiver is never modified;
	// published variants stay immutable so concurrent parses read a
	// consistent snapshot. Only called after a conflict-free,
	// non-simulated merge.
	MergeCustom(with Variant) Variant
	// ToContentExtra writes the variant-specific definition properties.
	ToContentExtra(b *content.Builder, fm *FieldMapper, includeDefaults bool)
}

// includeInAllVariant is implemented by variants that can contribute to the
// catch-all aggregate field.
type includeInAllVariant interface {
	unsetIncludeInAll()
}

// fieldMapperCarrier lets the merge engine reach the FieldMapper embedded in
// specializations (metadata field mappers).
type fieldMapperCarrier interface {
	asFieldMapper() *FieldMapper
}

// MultiFields holds the named sub-mappers that apply alternate analysis to
// the same source value.
type MultiFields struct {
	mappers map[string]*FieldMapper
}

// NewMultiFields creates a MultiFields over the given sub-mappers. Sub-mapper
// contributions to the catch-all aggregate are always disabled: the main
// field already carries the value.
func NewMultiFields(mappers map[string]*FieldMapper) MultiFields {
	if mappers == nil {
		mappers = make(map[string]*FieldMapper)
	}
	for _, sub := range mappers {
		if v, ok := sub.Variant().(includeInAllVariant); ok {
			v.unsetIncludeInAll()
		}
	}
	return MultiFields{mappers: mappers}
}

func (mf MultiFields) sortedNames() []string {
	names := make([]string, 0, len(mf.mappers))
	for name := range mf.mappers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CopyTo lists the other field names a value is duplicated into.
type CopyTo struct {
	fields []string
}

// NewCopyTo creates a CopyTo over the given target field names.
func NewCopyTo(fields ...string) *CopyTo {
	return &CopyTo{fields: fields}
}

// Fields returns the target field names.
func (c *CopyTo) Fields() []string { return c.fields }

// fieldConf bundles the merge-replaceable parts of a mapper. Merge builds a
// fresh fieldConf and publishes it atomically, so a parse in flight keeps
// reading the snapshot it loaded.
type fieldConf struct {
	variant     Variant
	multiFields MultiFields
	copyTo      *CopyTo
}

// FieldMapper is a leaf of the mapping tree: it reads one typed value out of
// the document token stream and emits indexable entries for it.
type FieldMapper struct {
	ref                 *FieldTypeReference
	conf                atomic.Pointer[fieldConf]
	hasDefaultDocValues bool
	legacyFormat        bool
}

// NewFieldMapper assembles a mapper from a built field type. ft must carry
// final names and analyzer settings; doc values are resolved here (explicit
// flag wins, otherwise untokenized indexed fields get a column on
// current-format indexes) and the type is frozen.
//
// A tokenized, indexed field combined with doc values is rejected: analyzed
// values are multi-valued and unordered, incompatible with the single-sorted
// doc-values column contract.
func NewFieldMapper(ft *FieldType, variant Variant, docValues *bool, settings IndexSettings, multiFields MultiFields, copyTo *CopyTo) (*FieldMapper, error) {
	legacy := settings.Format.Before(Format2)

	dv := false
	switch {
	case docValues != nil:
		dv = *docValues
	case !legacy:
		dv = !ft.Tokenized() && ft.Indexed()
	}

	if ft.Tokenized() && ft.Indexed() && dv {
		return nil, &SchemaError{
			Field:  ft.Names().FullName,
			Reason: "cannot be analyzed and have doc values",
		}
	}

	ft.SetHasDocValues(dv)
	if ft.FieldDataType() == "" {
		ft.SetFieldDataType(variant.DefaultFieldDataType())
	}
	ft.Freeze()

	m := &FieldMapper{
		ref:                 NewFieldTypeReference(ft),
		hasDefaultDocValues: docValues == nil,
		legacyFormat:        legacy,
	}
	m.conf.Store(&fieldConf{variant: variant, multiFields: multiFields, copyTo: copyTo})
	return m, nil
}

// Name returns the field's short name.
func (m *FieldMapper) Name() string { return m.FieldType().Names().ShortName }

// FieldType returns the current frozen field type snapshot.
func (m *FieldMapper) FieldType() *FieldType { return m.ref.Get() }

// FieldTypeReference returns the shared reference cell.
func (m *FieldMapper) FieldTypeReference() *FieldTypeReference { return m.ref }

// SetFieldTypeReference re-points the mapper at a shared reference. The
// reference must already hold the mapper's current type; anything else is a
// caller bug.
func (m *FieldMapper) SetFieldTypeReference(ref *FieldTypeReference) {
	if ref.Get() != m.FieldType() {
		panic(fmt.Errorf("fieldmap: cannot overwrite field type reference to unequal reference for [%s]",
			m.FieldType().Names().FullName))
	}
	ref.IncrementAssociatedMappers()
	m.ref = ref
}

// Variant returns the mapper's type variant.
func (m *FieldMapper) Variant() Variant { return m.conf.Load().variant }

// CopyTo returns the copy-to targets, nil if none.
func (m *FieldMapper) CopyTo() *CopyTo { return m.conf.Load().copyTo }

// MultiFieldMapper returns the named multi-field sub-mapper, nil if absent.
func (m *FieldMapper) MultiFieldMapper(name string) *FieldMapper {
	return m.conf.Load().multiFields.mappers[name]
}

func (m *FieldMapper) asFieldMapper() *FieldMapper { return m }

// Parse reads the value the context is positioned on and appends the
// resulting entries to the document under construction. The extracted value
// is re-presented to multi-field sub-mappers and copy-to targets as an
// external value. Coercion failures come back as a ParseError carrying the
// fully-qualified field name.
func (m *FieldMapper) Parse(ctx *ParseContext) error {
	ft := m.FieldType()
	conf := m.conf.Load()

	fields, value, err := conf.variant.ParseCreateField(ctx, m)
	if err != nil {
		return newParseError(ft.Names().FullName, err)
	}

	for i := range fields {
		if fields[i].Boost == 0 {
			fields[i].Boost = ft.Boost()
		}
		ctx.Doc().Add(fields[i])
	}
	if len(fields) == 0 && value != nil {
		ctx.Doc().AddIgnored(ft.Names().IndexName, value)
	}

	if value == nil {
		return nil
	}

	prevValue, prevSet := ctx.ExternalValue(), ctx.ExternalValueSet()
	ctx.SetExternalValue(value)
	defer func() {
		if prevSet {
			ctx.SetExternalValue(prevValue)
		} else {
			ctx.ClearExternalValue()
		}
	}()

	if len(conf.multiFields.mappers) > 0 {
		restore := ctx.MultiFieldContext()
		ctx.Path().Add(m.Name())
		for _, name := range conf.multiFields.sortedNames() {
			if err := conf.multiFields.mappers[name].Parse(ctx); err != nil {
				ctx.Path().Remove()
				restore()
				return err
			}
		}
		ctx.Path().Remove()
		restore()
	}

	if conf.copyTo != nil {
		for _, target := range conf.copyTo.Fields() {
			ctx.Doc().AddCopy(target, value)
		}
	}
	return nil
}

// Merge reconciles mergeWith into the receiver.
//
// The walk records every conflict it finds (variant mismatch stops descent;
// structural checks enumerate all mismatches) and recurses into multi-fields,
// staging sub-mappers that only exist on the incoming side as pure additions.
// Only when the result is conflict-free and not simulating are the field type
// snapshot and the runtime-tunable scalar settings replaced.
func (m *FieldMapper) Merge(mergeWith Mapper, result *MergeResult) {
	conf := m.conf.Load()

	carrier, ok := mergeWith.(fieldMapperCarrier)
	if !ok {
		result.AddConflict(fmt.Sprintf(
			"mapper [%s] of different type, current_type [%s], merged_type [%T]",
			m.FieldType().Names().FullName, conf.variant.TypeName(), mergeWith))
		return
	}
	other := carrier.asFieldMapper()
	otherConf := other.conf.Load()

	var typeConflicts []string
	m.FieldType().CheckTypeName(other.FieldType(), &typeConflicts)
	if len(typeConflicts) > 0 {
		result.AddConflict(typeConflicts[0])
		return
	}

	strict := m.ref.NumAssociatedMappers() > 1 && !result.UpdateAllTypes()
	var conflicts []string
	m.FieldType().CheckCompatibility(other.FieldType(), &conflicts, strict)
	for _, c := range conflicts {
		result.AddConflict(c)
	}

	merged := mergeMultiFields(conf.multiFields, otherConf.multiFields, result)

	if !result.Simulate() && !result.HasConflicts() {
		ft := other.FieldType().Clone()
		ft.Freeze()
		m.ref.Set(ft)
		m.conf.Store(&fieldConf{
			variant:     conf.variant.MergeCustom(otherConf.variant),
			multiFields: merged,
			copyTo:      otherConf.copyTo,
		})
	}
}

// mergeMultiFields recurses into sub-mappers shared by both sides and stages
// incoming-only sub-mappers as pure additions. Additions go into a copied
// map; the map held by published configs is never mutated.
func mergeMultiFields(mine, other MultiFields, result *MergeResult) MultiFields {
	merged, copied := mine, false
	for _, name := range other.sortedNames() {
		incoming := other.mappers[name]
		current, ok := mine.mappers[name]
		if !ok {
			// present only on the incoming side: a pure addition
			if !result.Simulate() {
				if v, ok := incoming.Variant().(includeInAllVariant); ok {
					v.unsetIncludeInAll()
				}
				if !copied {
					dup := make(map[string]*FieldMapper, len(mine.mappers)+1)
					for k, v := range mine.mappers {
						dup[k] = v
					}
					merged, copied = MultiFields{mappers: dup}, true
				}
				merged.mappers[name] = incoming
				result.AddNewFieldMappers(incoming)
			}
			continue
		}
		current.Merge(incoming, result)
	}
	return merged
}

// CollectFieldMappers returns m and every multi-field sub-mapper below it,
// depth first.
func CollectFieldMappers(m *FieldMapper) []*FieldMapper {
	mf := m.conf.Load().multiFields
	out := []*FieldMapper{m}
	for _, name := range mf.sortedNames() {
		out = append(out, CollectFieldMappers(mf.mappers[name])...)
	}
	return out
}

// ToContent writes the mapper's definition as structured content. With
// includeDefaults, values equal to built-in defaults are written too.
func (m *FieldMapper) ToContent(b *content.Builder, includeDefaults bool) error {
	ft := m.FieldType()
	conf := m.conf.Load()
	def := conf.variant.DefaultFieldType()

	b.StartObjectField(ft.Names().ShortName)
	b.Field("type", conf.variant.TypeName())

	if m.legacyFormat && (includeDefaults || ft.Names().ShortName != ft.Names().IndexNameClean) {
		b.Field("index_name", ft.Names().IndexNameClean)
	}
	if includeDefaults || ft.Boost() != DefaultBoost {
		b.Field("boost", ft.Boost())
	}
	if includeDefaults || ft.Indexed() != def.Indexed() || ft.Tokenized() != def.Tokenized() {
		b.Field("index", indexTokenizeOption(ft.Indexed(), ft.Tokenized()))
	}
	if includeDefaults || ft.Stored() != def.Stored() {
		b.Field("store", ft.Stored())
	}
	if includeDefaults || !m.hasDefaultDocValues {
		b.Field("doc_values", ft.HasDocValues())
	}
	if includeDefaults || ft.StoreTermVectors() != def.StoreTermVectors() {
		b.Field("term_vector", termVectorOptions(ft))
	}
	if includeDefaults || ft.OmitNorms() != def.OmitNorms() {
		b.StartObjectField("norms").Field("enabled", !ft.OmitNorms()).EndObject()
	}
	if ft.Indexed() && (includeDefaults || ft.IndexOptions() != def.IndexOptions()) {
		b.Field("index_options", ft.IndexOptions().String())
	}

	m.toContentAnalyzers(b, includeDefaults)

	if ft.Similarity() != nil {
		b.Field("similarity", ft.Similarity().Name())
	} else if includeDefaults {
		b.Field("similarity", similarity.Default)
	}
	if includeDefaults || ft.FieldDataType() != conf.variant.DefaultFieldDataType() {
		if ft.FieldDataType() != "" {
			b.StartObjectField("fielddata").Field("format", ft.FieldDataType()).EndObject()
		}
	}

	conf.variant.ToContentExtra(b, m, includeDefaults)

	if len(conf.multiFields.mappers) > 0 {
		b.StartObjectField("fields")
		for _, name := range conf.multiFields.sortedNames() {
			if err := conf.multiFields.mappers[name].ToContent(b, includeDefaults); err != nil {
				return err
			}
		}
		b.EndObject()
	}
	if conf.copyTo != nil && len(conf.copyTo.fields) > 0 {
		b.StartArrayField("copy_to")
		for _, f := range conf.copyTo.fields {
			b.Value(f)
		}
		b.EndArray()
	}

	b.EndObject()
	return nil
}

// toContentAnalyzers only reports analyzers for tokenized fields: untokenized
// fields implicitly take the pass-through analyzer, which the builder layer
// re-injects on parse.
func (m *FieldMapper) toContentAnalyzers(b *content.Builder, includeDefaults bool) {
	ft := m.FieldType()
	if !ft.Tokenized() && !includeDefaults {
		return
	}
	if ft.IndexAnalyzer() == nil {
		if includeDefaults {
			b.Field("analyzer", "default")
		}
		return
	}
	b.Field("analyzer", ft.IndexAnalyzer().Name())
	if ft.SearchAnalyzer() != nil && ft.SearchAnalyzer().Name() != ft.IndexAnalyzer().Name() {
		b.Field("search_analyzer", ft.SearchAnalyzer().Name())
	}
}

func indexTokenizeOption(indexed, tokenized bool) string {
	switch {
	case !indexed:
		return "no"
	case tokenized:
		return "analyzed"
	default:
		return "not_analyzed"
	}
}

func termVectorOptions(ft *FieldType) string {
	if !ft.StoreTermVectors() {
		return "no"
	}
	if !ft.StoreTermVectorOffsets() && !ft.StoreTermVectorPositions() {
		return "yes"
	}
	if ft.StoreTermVectorOffsets() && !ft.StoreTermVectorPositions() {
		return "with_offsets"
	}
	s := "with"
	if ft.StoreTermVectorPositions() {
		s += "_positions"
	}
	if ft.StoreTermVectorOffsets() {
		s += "_offsets"
	}
	if ft.StoreTermVectorPayloads() {
		s += "_payloads"
	}
	return s
}
