package mapping

import (
	"fmt"

	"github.com/hupe1980/fieldmap/content"
)

// RoutingFieldName is the metadata field carrying the shard routing value.
const RoutingFieldName = "_routing"

// RoutingFieldMapper indexes the routing value when one is provided and,
// when marked required, rejects documents arriving without one.
type RoutingFieldMapper struct {
	metadataFieldMapper
	required bool
}

// NewRoutingFieldMapper creates the routing metadata mapper.
func NewRoutingFieldMapper(settings IndexSettings, required bool) *RoutingFieldMapper {
	ft := NewFieldType(RoutingFieldName)
	ft.SetNames(NewNames(RoutingFieldName))
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
	return &RoutingFieldMapper{metadataFieldMapper: metadataFieldMapper{fm}, required: required}
}

// Required reports whether documents must carry a routing value.
func (m *RoutingFieldMapper) Required() bool { return m.required }

// PreParse implements MetadataMapper.
func (m *RoutingFieldMapper) PreParse(ctx *ParseContext) error {
	routing := ctx.Routing()
	if routing == "" {
		if m.required {
			return newParseError(RoutingFieldName, fmt.Errorf("routing is required but no routing value was provided"))
		}
		return nil
	}
	return m.parseExternal(ctx, routing)
}

// PostParse implements MetadataMapper.
func (m *RoutingFieldMapper) PostParse(ctx *ParseContext) error { return nil }

// Merge implements Mapper. The required flag binds document validity and
// cannot be changed after the fact.
func (m *RoutingFieldMapper) Merge(mergeWith Mapper, result *MergeResult) {
	o, ok := mergeWith.(*RoutingFieldMapper)
	if !ok {
		result.AddConflict(fmt.Sprintf("mapper [%s] of different type, merged_type [%T]", RoutingFieldName, mergeWith))
		return
	}
	if o.required != m.required {
		result.AddConflict(fmt.Sprintf("cannot update required setting for [%s]", RoutingFieldName))
	}
}

// ToContent implements Mapper.
func (m *RoutingFieldMapper) ToContent(b *content.Builder, includeDefaults bool) error {
	if !includeDefaults && !m.required {
		return nil
	}
	b.StartObjectField(RoutingFieldName).Field("required", m.required).EndObject()
	return nil
}
