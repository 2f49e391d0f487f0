package mapping

import (
	"fmt"

	"github.com/hupe1980/fieldmap/content"
)

// TypeNameBoolean is the mapping type name for boolean fields.
const TypeNameBoolean = "boolean"

var defaultBooleanFieldType = func() *FieldType {
	ft := NewFieldType(TypeNameBoolean)
	ft.SetTokenized(false)
	ft.SetIndexOptions(IndexOptionsDocs)
	ft.SetOmitNorms(true)
	ft.Freeze()
	return ft
}()

// BooleanVariant implements the boolean field behavior.
type BooleanVariant struct {
	includeInAll *bool
}

// NewBooleanVariant creates a boolean variant.
func NewBooleanVariant() *BooleanVariant { return &BooleanVariant{} }

// TypeName implements Variant.
func (v *BooleanVariant) TypeName() string { return TypeNameBoolean }

// DefaultFieldType implements Variant.
func (v *BooleanVariant) DefaultFieldType() *FieldType { return defaultBooleanFieldType }

// DefaultFieldDataType implements Variant.
func (v *BooleanVariant) DefaultFieldDataType() string { return "array" }

func (v *BooleanVariant) unsetIncludeInAll() {
	f := false
	v.includeInAll = &f
}

// MergeCustom implements Variant.
func (v *BooleanVariant) MergeCustom(with Variant) Variant {
	o, ok := with.(*BooleanVariant)
	if !ok {
		return v
	}
	c := *v
	if o.includeInAll != nil {
		c.includeInAll = o.includeInAll
	}
	return &c
}

// ParseCreateField implements Variant. Numbers map to false when zero, and
// the strings "true"/"false" are accepted alongside real booleans.
func (v *BooleanVariant) ParseCreateField(ctx *ParseContext, fm *FieldMapper) ([]IndexableField, any, error) {
	ft := fm.FieldType()

	value, ok, err := v.extractBool(ctx, ft)
	if err != nil || !ok {
		return nil, nil, err
	}

	if ctx.IncludeInAll(v.includeInAll, ft) {
		text := "false"
		if value {
			text = "true"
		}
		ctx.AllEntries().Add(ft.Names().FullName, text, ft.Boost())
	}

	var fields []IndexableField
	if ft.Indexed() || ft.Stored() {
		fields = append(fields, IndexableField{
			Name:    ft.Names().IndexName,
			Kind:    EntryIndexed,
			Value:   value,
			Options: ft.IndexOptions(),
			Stored:  ft.Stored(),
		})
	}
	if ft.HasDocValues() {
		fields = append(fields, IndexableField{
			Name:  ft.Names().IndexName,
			Kind:  EntryDocValues,
			Value: value,
		})
	}
	return fields, value, nil
}

func (v *BooleanVariant) extractBool(ctx *ParseContext, ft *FieldType) (bool, bool, error) {
	if ctx.ExternalValueSet() {
		val, err := content.BoolValue(ctx.ExternalValue())
		if err != nil {
			return false, false, err
		}
		return val, true, nil
	}

	p := ctx.Parser()
	switch p.Current() {
	case content.TokenNull:
		if ft.NullValue() == nil {
			return false, false, nil
		}
		nv, err := content.BoolValue(ft.NullValue())
		if err != nil {
			return false, false, err
		}
		return nv, true, nil
	case content.TokenBool:
		return p.BoolValue(), true, nil
	case content.TokenNumber:
		f, err := p.Float64Value()
		if err != nil {
			return false, false, err
		}
		return f != 0, true, nil
	case content.TokenString:
		s := p.Text()
		if s == "" {
			return false, false, nil
		}
		val, err := content.BoolValue(s)
		if err != nil {
			return false, false, err
		}
		return val, true, nil
	default:
		return false, false, fmt.Errorf("cannot read [%s] as boolean", p.Current())
	}
}

// ToContentExtra implements Variant.
func (v *BooleanVariant) ToContentExtra(b *content.Builder, fm *FieldMapper, includeDefaults bool) {
	ft := fm.FieldType()
	if ft.NullValue() != nil {
		b.Field("null_value", ft.NullValue())
	}
	if v.includeInAll != nil {
		b.Field("include_in_all", *v.includeInAll)
	}
}

// ParseBooleanField is the TypeParser for boolean fields.
func ParseBooleanField(name string, node map[string]any, pctx *ParserContext) (Builder, error) {
	variant := NewBooleanVariant()
	b := NewFieldBuilder(name, variant)

	if raw, present := node["null_value"]; present {
		if raw == nil {
			return nil, &SchemaError{Field: name, Property: "null_value", Reason: "property cannot be null"}
		}
		val, err := content.BoolValue(raw)
		if err != nil {
			return nil, schemaErr(name, "null_value", err)
		}
		b.Type().SetNullValue(val)
		delete(node, "null_value")
	}

	if err := parseField(b, name, node, pctx); err != nil {
		return nil, err
	}
	applyUntokenizedAnalyzer(b, pctx)
	variant.includeInAll = b.IncludeInAll()
	return b, nil
}
