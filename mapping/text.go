package mapping

import (
	"fmt"
	"strconv"

	"github.com/hupe1980/fieldmap/analysis"
	"github.com/hupe1980/fieldmap/content"
)

// TypeNameText is the mapping type name for analyzed and keyword text fields.
const TypeNameText = "text"

const (
	// ignoreAboveDisabled means no length cutoff applies.
	ignoreAboveDisabled = -1
	// positionGapUnset means no position increment gap was configured.
	positionGapUnset = -1
)

var defaultTextFieldType = func() *FieldType {
	ft := NewFieldType(TypeNameText)
	ft.SetTokenized(true)
	ft.SetIndexOptions(IndexOptionsPositions)
	ft.Freeze()
	return ft
}()

// TextVariant implements the text field behavior: string extraction with
// null substitution, the value-and-boost object form, a length cutoff and
// catch-all contribution.
type TextVariant struct {
	includeInAll         *bool
	ignoreAbove          int
	positionIncrementGap int
}

// NewTextVariant creates a text variant with the cutoff and gap disabled.
func NewTextVariant() *TextVariant {
	return &TextVariant{ignoreAbove: ignoreAboveDisabled, positionIncrementGap: positionGapUnset}
}

// TypeName implements Variant.
func (v *TextVariant) TypeName() string { return TypeNameText }

// DefaultFieldType implements Variant.
func (v *TextVariant) DefaultFieldType() *FieldType { return defaultTextFieldType }

// DefaultFieldDataType implements Variant.
func (v *TextVariant) DefaultFieldDataType() string { return "paged_bytes" }

// IgnoreAbove returns the length cutoff, ignoreAboveDisabled if none.
func (v *TextVariant) IgnoreAbove() int { return v.ignoreAbove }

func (v *TextVariant) unsetIncludeInAll() {
	f := false
	v.includeInAll = &f
}

// MergeCustom implements Variant: the catch-all flag and the length cutoff
// are runtime tunable.
func (v *TextVariant) MergeCustom(with Variant) Variant {
	o, ok := with.(*TextVariant)
	if !ok {
		return v
	}
	c := *v
	if o.includeInAll != nil {
		c.includeInAll = o.includeInAll
	}
	c.ignoreAbove = o.ignoreAbove
	return &c
}

// ParseCreateField implements Variant.
func (v *TextVariant) ParseCreateField(ctx *ParseContext, fm *FieldMapper) ([]IndexableField, any, error) {
	ft := fm.FieldType()

	text, ok, boost, err := v.extractValueAndBoost(ctx, ft)
	if err != nil || !ok {
		return nil, nil, err
	}
	if v.ignoreAbove != ignoreAboveDisabled && len(text) > v.ignoreAbove {
		return nil, nil, nil
	}

	if ctx.IncludeInAll(v.includeInAll, ft) {
		ctx.AllEntries().Add(ft.Names().FullName, text, boost)
	}

	var fields []IndexableField
	if ft.Indexed() || ft.Stored() {
		fields = append(fields, IndexableField{
			Name:      ft.Names().IndexName,
			Kind:      EntryIndexed,
			Value:     text,
			Boost:     boost,
			Options:   ft.IndexOptions(),
			Tokenized: ft.Tokenized(),
			Stored:    ft.Stored(),
			Analyzer:  analyzerNameOrEmpty(ft.IndexAnalyzer()),
		})
	}
	if ft.HasDocValues() {
		fields = append(fields, IndexableField{
			Name:  ft.Names().IndexName,
			Kind:  EntryDocValues,
			Value: text,
			Boost: boost,
		})
	}
	return fields, text, nil
}

// extractValueAndBoost reads the string value the context is positioned on.
// ok is false when the value resolves to nothing (null without a configured
// substitute). The object form {"value": ..., "boost": ...} overrides the
// field boost for this one value.
func (v *TextVariant) extractValueAndBoost(ctx *ParseContext, ft *FieldType) (text string, ok bool, boost float64, err error) {
	boost = ft.Boost()

	if ctx.ExternalValueSet() {
		s, err := content.StringValue(ctx.ExternalValue())
		if err != nil {
			return "", false, boost, err
		}
		return s, true, boost, nil
	}

	p := ctx.Parser()
	switch p.Current() {
	case content.TokenNull:
		if ft.NullValue() == nil {
			return "", false, boost, nil
		}
		return ft.NullValueAsString(), true, boost, nil

	case content.TokenStartObject:
		for {
			tok, err := p.Next()
			if err != nil {
				return "", false, boost, err
			}
			if tok == content.TokenEndObject {
				return text, ok, boost, nil
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
					if ft.NullValue() != nil {
						text, ok = ft.NullValueAsString(), true
					}
				case vt.IsValue():
					text, ok = p.Text(), true
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

	default:
		if !p.Current().IsValue() {
			return "", false, boost, fmt.Errorf("value must be a scalar, got [%s]", p.Current())
		}
		return p.Text(), true, boost, nil
	}
}

// ToContentExtra implements Variant.
func (v *TextVariant) ToContentExtra(b *content.Builder, fm *FieldMapper, includeDefaults bool) {
	ft := fm.FieldType()
	if ft.NullValue() != nil {
		b.Field("null_value", ft.NullValue())
	}
	if v.includeInAll != nil {
		b.Field("include_in_all", *v.includeInAll)
	}
	if includeDefaults || v.ignoreAbove != ignoreAboveDisabled {
		b.Field("ignore_above", v.ignoreAbove)
	}
	if includeDefaults || v.positionIncrementGap != positionGapUnset {
		b.Field("position_increment_gap", v.positionIncrementGap)
	}
	if sq := ft.SearchQuoteAnalyzer(); sq != nil &&
		(ft.SearchAnalyzer() == nil || sq.Name() != ft.SearchAnalyzer().Name()) {
		b.Field("search_quote_analyzer", sq.Name())
	}
}

// ParseTextField is the TypeParser for text (and legacy string) fields.
func ParseTextField(name string, node map[string]any, pctx *ParserContext) (Builder, error) {
	variant := NewTextVariant()
	b := NewFieldBuilder(name, variant)

	for key, raw := range node {
		switch key {
		case "null_value":
			if raw == nil {
				return nil, &SchemaError{Field: name, Property: key, Reason: "property cannot be null"}
			}
			s, err := content.StringValue(raw)
			if err != nil {
				return nil, schemaErr(name, key, err)
			}
			b.Type().SetNullValue(s)
		case "ignore_above":
			n, err := content.IntValue(raw)
			if err != nil {
				return nil, schemaErr(name, key, err)
			}
			variant.ignoreAbove = n
		case "position_increment_gap", "position_offset_gap":
			n, err := content.IntValue(raw)
			if err != nil {
				return nil, schemaErr(name, key, err)
			}
			if n < 0 {
				return nil, &SchemaError{Field: name, Property: key, Reason: "must not be negative"}
			}
			variant.positionIncrementGap = n
		case "search_quote_analyzer":
			na, err := resolveAnalyzer(pctx.Analysis, raw)
			if err != nil {
				return nil, schemaErr(name, key, err)
			}
			b.Type().SetSearchQuoteAnalyzer(na)
		default:
			continue
		}
		delete(node, key)
	}

	if err := parseField(b, name, node, pctx); err != nil {
		return nil, err
	}
	applyUntokenizedAnalyzer(b, pctx)
	variant.includeInAll = b.IncludeInAll()

	if variant.positionIncrementGap != positionGapUnset {
		applyPositionIncrementGap(b.Type(), pctx.Analysis, variant.positionIncrementGap)
	}
	return b, nil
}

// applyPositionIncrementGap rewraps the field's analyzers so multi-value
// entries are separated by the configured gap. Unset analyzers are pinned to
// the registry defaults first so the gap has a carrier.
func applyPositionIncrementGap(ft *FieldType, reg *analysis.Registry, gap int) {
	index := ft.IndexAnalyzer()
	if index == nil {
		index = reg.DefaultIndexAnalyzer()
	}
	search := ft.SearchAnalyzer()
	if search == nil {
		search = reg.DefaultSearchAnalyzer()
	}
	quote := ft.SearchQuoteAnalyzer()
	if quote == nil {
		quote = reg.DefaultSearchQuoteAnalyzer()
	}
	ft.SetIndexAnalyzer(analysis.Reanalyze(index, gap))
	ft.SetSearchAnalyzer(analysis.Reanalyze(search, gap))
	ft.SetSearchQuoteAnalyzer(analysis.Reanalyze(quote, gap))
}

func analyzerNameOrEmpty(na *analysis.NamedAnalyzer) string {
	if na == nil {
		return ""
	}
	return na.Name()
}
