package mapping

import (
	"fmt"
	"strconv"

	"github.com/hupe1980/fieldmap/content"
)

// Mapping type names for the numeric variants.
const (
	TypeNameLong   = "long"
	TypeNameDouble = "double"
)

// Each numeric variant carries its own default type: the type name is what
// CheckTypeName compares, so long and double must never share one.
var (
	defaultLongFieldType   = newNumberFieldType(TypeNameLong)
	defaultDoubleFieldType = newNumberFieldType(TypeNameDouble)
)

func newNumberFieldType(typeName string) *FieldType {
	ft := NewFieldType(typeName)
	ft.SetTokenized(false)
	ft.SetIndexOptions(IndexOptionsDocs)
	ft.SetOmitNorms(true)
	ft.Freeze()
	return ft
}

// numericVariant carries the behavior shared by the numeric field variants:
// lenient coercion, malformed-value tolerance and catch-all contribution.
type numericVariant struct {
	includeInAll    *bool
	ignoreMalformed bool
	coerce          bool
}

func (v *numericVariant) unsetIncludeInAll() {
	f := false
	v.includeInAll = &f
}

func (v *numericVariant) mergeNumeric(o *numericVariant) {
	if o.includeInAll != nil {
		v.includeInAll = o.includeInAll
	}
	v.ignoreMalformed = o.ignoreMalformed
	v.coerce = o.coerce
}

// extractRawNumber reads the raw textual number the context is positioned on.
// ok is false for null without a substitute and for empty strings, which are
// treated as null.
func (v *numericVariant) extractRawNumber(ctx *ParseContext, ft *FieldType) (raw string, ok bool, boost float64, err error) {
	boost = ft.Boost()

	if ctx.ExternalValueSet() {
		s, err := content.StringValue(ctx.ExternalValue())
		if err != nil {
			return "", false, boost, err
		}
		if s == "" {
			return nullSubstitute(ft)
		}
		return s, true, boost, nil
	}

	p := ctx.Parser()
	switch p.Current() {
	case content.TokenNull:
		raw, ok, _, err = nullSubstitute(ft)
		return raw, ok, boost, err

	case content.TokenStartObject:
		for {
			tok, err := p.Next()
			if err != nil {
				return "", false, boost, err
			}
			if tok == content.TokenEndObject {
				return raw, ok, boost, nil
			}
			if tok != content.TokenFieldName {
				return "", false, boost, fmt.Errorf("unexpected token [%s] in value object", tok)
			}
			name := p.CurrentName()
			vt, err := p.Next()
			if err != nil {
				return "", false, boost, err
			}
			switch name {
			case "value", "_value":
				switch {
				case vt == content.TokenNull:
					raw, ok, _, err = nullSubstitute(ft)
					if err != nil {
						return "", false, boost, err
					}
				case vt.IsValue():
					raw = p.Text()
					ok = true
					if raw == "" {
						raw, ok, _, err = nullSubstitute(ft)
						if err != nil {
							return "", false, boost, err
						}
					}
				default:
					return "", false, boost, fmt.Errorf("value must be a scalar, got [%s]", vt)
				}
			case "boost", "_boost":
				switch vt {
				case content.TokenNumber:
					boost, err = p.Float64Value()
				case content.TokenString:
					boost, err = strconv.ParseFloat(p.Text(), 64)
				default:
					err = fmt.Errorf("boost must be a number, got [%s]", vt)
				}
				if err != nil {
					return "", false, boost, err
				}
			default:
				return "", false, boost, fmt.Errorf("unknown property [%s] in value object", name)
			}
		}

	case content.TokenString:
		if p.Text() == "" {
			raw, ok, _, err = nullSubstitute(ft)
			return raw, ok, boost, err
		}
		return p.Text(), true, boost, nil

	case content.TokenNumber:
		return p.Text(), true, boost, nil

	default:
		return "", false, boost, fmt.Errorf("cannot read [%s] as a number", p.Current())
	}
}

func nullSubstitute(ft *FieldType) (string, bool, float64, error) {
	if ft.NullValue() == nil {
		return "", false, DefaultBoost, nil
	}
	return ft.NullValueAsString(), true, DefaultBoost, nil
}

// numericFields emits the entries for a parsed numeric value.
func numericFields(ft *FieldType, value any, boost float64) []IndexableField {
	var fields []IndexableField
	if ft.Indexed() || ft.Stored() {
		fields = append(fields, IndexableField{
			Name:    ft.Names().IndexName,
			Kind:    EntryIndexed,
			Value:   value,
			Boost:   boost,
			Options: ft.IndexOptions(),
			Stored:  ft.Stored(),
		})
	}
	if ft.HasDocValues() {
		fields = append(fields, IndexableField{
			Name:  ft.Names().IndexName,
			Kind:  EntryDocValues,
			Value: value,
			Boost: boost,
		})
	}
	return fields
}

func (v *numericVariant) toContentNumeric(b *content.Builder, ft *FieldType, includeDefaults bool) {
	if ft.NullValue() != nil {
		b.Field("null_value", ft.NullValue())
	}
	if v.includeInAll != nil {
		b.Field("include_in_all", *v.includeInAll)
	}
	if includeDefaults || v.ignoreMalformed {
		b.Field("ignore_malformed", v.ignoreMalformed)
	}
	if includeDefaults || !v.coerce {
		b.Field("coerce", v.coerce)
	}
}

// parseNumericKeys consumes the properties shared by the numeric variants.
func (v *numericVariant) parseNumericKeys(b *FieldBuilder, name string, node map[string]any, parseNull func(string) (any, error)) error {
	for key, raw := range node {
		switch key {
		case "null_value":
			if raw == nil {
				return &SchemaError{Field: name, Property: key, Reason: "property cannot be null"}
			}
			s, err := content.StringValue(raw)
			if err != nil {
				return schemaErr(name, key, err)
			}
			nv, err := parseNull(s)
			if err != nil {
				return schemaErr(name, key, err)
			}
			b.Type().SetNullValue(nv)
		case "ignore_malformed":
			val, err := content.BoolValue(raw)
			if err != nil {
				return schemaErr(name, key, err)
			}
			v.ignoreMalformed = val
		case "coerce":
			val, err := content.BoolValue(raw)
			if err != nil {
				return schemaErr(name, key, err)
			}
			v.coerce = val
		default:
			continue
		}
		delete(node, key)
	}
	return nil
}

// LongVariant implements the 64-bit integer field behavior.
type LongVariant struct {
	numericVariant
}

// NewLongVariant creates a long variant with lenient coercion enabled.
func NewLongVariant() *LongVariant {
	return &LongVariant{numericVariant{coerce: true}}
}

// TypeName implements Variant.
func (v *LongVariant) TypeName() string { return TypeNameLong }

// DefaultFieldType implements Variant.
func (v *LongVariant) DefaultFieldType() *FieldType { return defaultLongFieldType }

// DefaultFieldDataType implements Variant.
func (v *LongVariant) DefaultFieldDataType() string { return "array" }

// MergeCustom implements Variant.
func (v *LongVariant) MergeCustom(with Variant) Variant {
	o, ok := with.(*LongVariant)
	if !ok {
		return v
	}
	c := *v
	c.mergeNumeric(&o.numericVariant)
	return &c
}

// ParseCreateField implements Variant. With coercion enabled, fractional
// input truncates toward zero; without it, fractions are malformed.
func (v *LongVariant) ParseCreateField(ctx *ParseContext, fm *FieldMapper) ([]IndexableField, any, error) {
	ft := fm.FieldType()
	raw, ok, boost, err := v.extractRawNumber(ctx, ft)
	if err != nil || !ok {
		return nil, nil, err
	}

	value, err := parseLongValue(raw, v.coerce)
	if err != nil {
		if v.ignoreMalformed {
			ctx.Doc().AddIgnored(ft.Names().IndexName, raw)
			return nil, nil, nil
		}
		return nil, nil, err
	}

	if ctx.IncludeInAll(v.includeInAll, ft) {
		ctx.AllEntries().Add(ft.Names().FullName, raw, boost)
	}
	return numericFields(ft, value, boost), value, nil
}

func parseLongValue(raw string, coerce bool) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err == nil {
		return n, nil
	}
	if !coerce {
		return 0, fmt.Errorf("cannot read %q as long", raw)
	}
	f, ferr := strconv.ParseFloat(raw, 64)
	if ferr != nil {
		return 0, fmt.Errorf("cannot read %q as long", raw)
	}
	return int64(f), nil
}

// ToContentExtra implements Variant.
func (v *LongVariant) ToContentExtra(b *content.Builder, fm *FieldMapper, includeDefaults bool) {
	v.toContentNumeric(b, fm.FieldType(), includeDefaults)
}

// ParseLongField is the TypeParser for long fields.
func ParseLongField(name string, node map[string]any, pctx *ParserContext) (Builder, error) {
	variant := NewLongVariant()
	b := NewFieldBuilder(name, variant)

	err := variant.parseNumericKeys(b, name, node, func(s string) (any, error) {
		return strconv.ParseInt(s, 10, 64)
	})
	if err != nil {
		return nil, err
	}
	if err := parseField(b, name, node, pctx); err != nil {
		return nil, err
	}
	applyUntokenizedAnalyzer(b, pctx)
	variant.includeInAll = b.IncludeInAll()
	return b, nil
}

// DoubleVariant implements the 64-bit float field behavior.
type DoubleVariant struct {
	numericVariant
}

// NewDoubleVariant creates a double variant with lenient coercion enabled.
func NewDoubleVariant() *DoubleVariant {
	return &DoubleVariant{numericVariant{coerce: true}}
}

// TypeName implements Variant.
func (v *DoubleVariant) TypeName() string { return TypeNameDouble }

// DefaultFieldType implements Variant.
func (v *DoubleVariant) DefaultFieldType() *FieldType { return defaultDoubleFieldType }

// DefaultFieldDataType implements Variant.
func (v *DoubleVariant) DefaultFieldDataType() string { return "array" }

// MergeCustom implements Variant.
func (v *DoubleVariant) MergeCustom(with Variant) Variant {
	o, ok := with.(*DoubleVariant)
	if !ok {
		return v
	}
	c := *v
	c.mergeNumeric(&o.numericVariant)
	return &c
}

// ParseCreateField implements Variant.
func (v *DoubleVariant) ParseCreateField(ctx *ParseContext, fm *FieldMapper) ([]IndexableField, any, error) {
	ft := fm.FieldType()
	raw, ok, boost, err := v.extractRawNumber(ctx, ft)
	if err != nil || !ok {
		return nil, nil, err
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if v.ignoreMalformed {
			ctx.Doc().AddIgnored(ft.Names().IndexName, raw)
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("cannot read %q as double", raw)
	}

	if ctx.IncludeInAll(v.includeInAll, ft) {
		ctx.AllEntries().Add(ft.Names().FullName, raw, boost)
	}
	return numericFields(ft, value, boost), value, nil
}

// ToContentExtra implements Variant.
func (v *DoubleVariant) ToContentExtra(b *content.Builder, fm *FieldMapper, includeDefaults bool) {
	v.toContentNumeric(b, fm.FieldType(), includeDefaults)
}

// ParseDoubleField is the TypeParser for double fields.
func ParseDoubleField(name string, node map[string]any, pctx *ParserContext) (Builder, error) {
	variant := NewDoubleVariant()
	b := NewFieldBuilder(name, variant)

	err := variant.parseNumericKeys(b, name, node, func(s string) (any, error) {
		return strconv.ParseFloat(s, 64)
	})
	if err != nil {
		return nil, err
	}
	if err := parseField(b, name, node, pctx); err != nil {
		return nil, err
	}
	applyUntokenizedAnalyzer(b, pctx)
	variant.includeInAll = b.IncludeInAll()
	return b, nil
}
