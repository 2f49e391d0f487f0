package mapping

import (
	"fmt"

	"github.com/hupe1980/fieldmap/content"
)

// IDFieldName is the metadata field carrying the document identity.
const IDFieldName = "_id"

// IDFieldMapper indexes the document id as an untokenized, stored entry.
// Every document must arrive with an id.
type IDFieldMapper struct {
	metadataFieldMapper
}

// NewIDFieldMapper creates the id metadata mapper.
func NewIDFieldMapper(settings IndexSettings) *IDFieldMapper {
	ft := NewFieldType(IDFieldName)
	ft.SetNames(NewNames(IDFieldName))
	ft.SetTokenized(false)
	ft.SetIndexOptions(IndexOptionsDocs)
	ft.SetOmitNorms(true)
	ft.SetStored(true)

	variant := NewTextVariant()
	variant.unsetIncludeInAll()

	fm, err := NewFieldMapper(ft, variant, boolPtr(false), settings, NewMultiFields(nil), nil)
	if err != nil {
		panic(err) // static configuration, cannot fail
	}
	return &IDFieldMapper{metadataFieldMapper{fm}}
}

// PreParse implements MetadataMapper.
func (m *IDFieldMapper) PreParse(ctx *ParseContext) error {
	id := ctx.ID()
	if id == "" {
		return newParseError(IDFieldName, fmt.Errorf("no id provided for document"))
	}
	return m.parseExternal(ctx, id)
}

// PostParse implements MetadataMapper.
func (m *IDFieldMapper) PostParse(ctx *ParseContext) error { return nil }

// Merge implements Mapper. The id field has no tunable settings.
func (m *IDFieldMapper) Merge(mergeWith Mapper, result *MergeResult) {
	if _, ok := mergeWith.(*IDFieldMapper); !ok {
		result.AddConflict(fmt.Sprintf("mapper [%s] of different type, merged_type [%T]", IDFieldName, mergeWith))
	}
}

// ToContent implements Mapper. The id field carries no configuration, so it
// only shows up when defaults are requested.
func (m *IDFieldMapper) ToContent(b *content.Builder, includeDefaults bool) error {
	if !includeDefaults {
		return nil
	}
	b.StartObjectField(IDFieldName).EndObject()
	return nil
}
