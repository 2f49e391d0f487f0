package mapping

import (
	"fmt"

	"github.com/hupe1980/fieldmap/content"
)

// AllFieldName is the catch-all aggregate metadata field.
const AllFieldName = "_all"

// AllFieldMapper flushes the per-document include-in-all accumulator into a
// single analyzed text field once the body walk completes.
type AllFieldMapper struct {
	metadataFieldMapper
	enabled bool
}

// NewAllFieldMapper creates the catch-all metadata mapper.
func NewAllFieldMapper(settings IndexSettings, enabled bool) *AllFieldMapper {
	ft := NewFieldType(AllFieldName)
	ft.SetNames(NewNames(AllFieldName))
	ft.SetTokenized(true)
	ft.SetIndexOptions(IndexOptionsPositions)

	variant := NewTextVariant()
	variant.unsetIncludeInAll()

	fm, err := NewFieldMapper(ft, variant, nil, settings, NewMultiFields(nil), nil)
	if err != nil {
		panic(err) // static configuration, cannot fail
	}
	return &AllFieldMapper{metadataFieldMapper: metadataFieldMapper{fm}, enabled: enabled}
}

// Enabled reports whether the aggregate is collected.
func (m *AllFieldMapper) Enabled() bool { return m.enabled }

// PreParse implements MetadataMapper.
func (m *AllFieldMapper) PreParse(ctx *ParseContext) error { return nil }

// PostParse implements MetadataMapper.
func (m *AllFieldMapper) PostParse(ctx *ParseContext) error {
	if !m.enabled {
		return nil
	}
	ft := m.FieldType()
	for _, e := range ctx.AllEntries().Entries() {
		ctx.Doc().Add(IndexableField{
			Name:      AllFieldName,
			Kind:      EntryIndexed,
			Value:     e.Text,
			Boost:     e.Boost,
			Options:   ft.IndexOptions(),
			Tokenized: true,
			Analyzer:  analyzerNameOrEmpty(ft.IndexAnalyzer()),
		})
	}
	return nil
}

// Merge implements Mapper. Flipping the aggregate on or off invalidates what
// previous documents contributed, so the flag is fixed.
func (m *AllFieldMapper) Merge(mergeWith Mapper, result *MergeResult) {
	o, ok := mergeWith.(*AllFieldMapper)
	if !ok {
		result.AddConflict(fmt.Sprintf("mapper [%s] of different type, merged_type [%T]", AllFieldName, mergeWith))
		return
	}
	if o.enabled != m.enabled {
		result.AddConflict(fmt.Sprintf("mapper [%s] enabled is [%t] now encountering [%t]", AllFieldName, m.enabled, o.enabled))
	}
}

// ToContent implements Mapper.
func (m *AllFieldMapper) ToContent(b *content.Builder, includeDefaults bool) error {
	if !includeDefaults && m.enabled {
		return nil
	}
	b.StartObjectField(AllFieldName).Field("enabled", m.enabled).EndObject()
	return nil
}
