package mapping

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hupe1980/fieldmap/content"
)

// TypeNameDate is the mapping type name for date fields.
const TypeNameDate = "date"

// DefaultDateFormat is the layout dates are parsed with when none is
// configured. Bare numbers are always read as epoch milliseconds.
const DefaultDateFormat = time.RFC3339

var defaultDateFieldType = func() *FieldType {
	ft := NewFieldType(TypeNameDate)
	ft.SetTokenized(false)
	ft.SetIndexOptions(IndexOptionsDocs)
	ft.SetOmitNorms(true)
	ft.Freeze()
	return ft
}()

// DateVariant implements the date field behavior. Values index as epoch
// milliseconds.
type DateVariant struct {
	numericVariant
	format string
}

// NewDateVariant creates a date variant with the default layout.
func NewDateVariant() *DateVariant {
	return &DateVariant{numericVariant: numericVariant{coerce: true}, format: DefaultDateFormat}
}

// TypeName implements Variant.
func (v *DateVariant) TypeName() string { return TypeNameDate }

// DefaultFieldType implements Variant.
func (v *DateVariant) DefaultFieldType() *FieldType { return defaultDateFieldType }

// DefaultFieldDataType implements Variant.
func (v *DateVariant) DefaultFieldDataType() string { return "array" }

// Format returns the configured date layout.
func (v *DateVariant) Format() string { return v.format }

// MergeCustom implements Variant. The layout is replaceable: already-indexed
// epoch values are layout independent.
func (v *DateVariant) MergeCustom(with Variant) Variant {
	o, ok := with.(*DateVariant)
	if !ok {
		return v
	}
	c := *v
	c.mergeNumeric(&o.numericVariant)
	c.format = o.format
	return &c
}

// ParseCreateField implements Variant.
func (v *DateVariant) ParseCreateField(ctx *ParseContext, fm *FieldMapper) ([]IndexableField, any, error) {
	ft := fm.FieldType()
	raw, ok, boost, err := v.extractRawNumber(ctx, ft)
	if err != nil || !ok {
		return nil, nil, err
	}

	millis, err := v.parseDateValue(raw)
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
	return numericFields(ft, millis, boost), millis, nil
}

// parseDateValue resolves raw to epoch milliseconds: all-digit input is
// already epoch millis, anything else must match the configured layout.
func (v *DateVariant) parseDateValue(raw string) (int64, error) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	t, err := time.Parse(v.format, raw)
	if err != nil {
		return 0, fmt.Errorf("cannot read %q as date with format [%s]", raw, v.format)
	}
	return t.UnixMilli(), nil
}

// ToContentExtra implements Variant.
func (v *DateVariant) ToContentExtra(b *content.Builder, fm *FieldMapper, includeDefaults bool) {
	if includeDefaults || v.format != DefaultDateFormat {
		b.Field("format", v.format)
	}
	v.toContentNumeric(b, fm.FieldType(), includeDefaults)
}

// ParseDateField is the TypeParser for date fields.
func ParseDateField(name string, node map[string]any, pctx *ParserContext) (Builder, error) {
	variant := NewDateVariant()
	b := NewFieldBuilder(name, variant)

	if raw, present := node["format"]; present {
		s, err := content.StringValue(raw)
		if err != nil {
			return nil, schemaErr(name, "format", err)
		}
		variant.format = s
		delete(node, "format")
	}

	err := variant.parseNumericKeys(b, name, node, func(s string) (any, error) {
		return variant.parseDateValue(s)
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
