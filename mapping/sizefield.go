package mapping

import (
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/fieldmap/content"
)

// SizeFieldName is the metadata field recording the source byte length.
const SizeFieldName = "_size"

// SizeFieldMapper records the document source length as a long entry after
// the body walk completes. Disabled unless asked for.
type SizeFieldMapper struct {
	metadataFieldMapper
	enabled atomic.Bool
}

// NewSizeFieldMapper creates the size metadata mapper.
func NewSizeFieldMapper(settings IndexSettings, enabled bool) *SizeFieldMapper {
	ft := NewFieldType(SizeFieldName)
	ft.SetNames(NewNames(SizeFieldName))
	ft.SetTokenized(false)
	ft.SetIndexOptions(IndexOptionsDocs)
	ft.SetOmitNorms(true)

	variant := NewLongVariant()
	variant.unsetIncludeInAll()

	fm, err := NewFieldMapper(ft, variant, nil, settings, NewMultiFields(nil), nil)
	if err != nil {
		panic(err) // static configuration, cannot fail
	}
	m := &SizeFieldMapper{metadataFieldMapper: metadataFieldMapper{fm}}
	m.enabled.Store(enabled)
	return m
}

// Enabled reports whether size recording is on.
func (m *SizeFieldMapper) Enabled() bool { return m.enabled.Load() }

// PreParse implements MetadataMapper.
func (m *SizeFieldMapper) PreParse(ctx *ParseContext) error { return nil }

// PostParse implements MetadataMapper.
func (m *SizeFieldMapper) PostParse(ctx *ParseContext) error {
	if !m.enabled.Load() {
		return nil
	}
	return m.parseExternal(ctx, int64(ctx.SourceLength()))
}

// Merge implements Mapper. The enabled flag is runtime tunable.
func (m *SizeFieldMapper) Merge(mergeWith Mapper, result *MergeResult) {
	o, ok := mergeWith.(*SizeFieldMapper)
	if !ok {
		result.AddConflict(fmt.Sprintf("mapper [%s] of different type, merged_type [%T]", SizeFieldName, mergeWith))
		return
	}
	if !result.Simulate() && !result.HasConflicts() {
		m.enabled.Store(o.enabled.Load())
	}
}

// ToContent implements Mapper.
func (m *SizeFieldMapper) ToContent(b *content.Builder, includeDefaults bool) error {
	enabled := m.enabled.Load()
	if !includeDefaults && !enabled {
		return nil
	}
	b.StartObjectField(SizeFieldName).Field("enabled", enabled).EndObject()
	return nil
}
