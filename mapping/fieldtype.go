package mapping

import (
	"fmt"

	"github.com/hupe1980/fieldmap/analysis"
	"github.com/hupe1980/fieldmap/similarity"
)

// IndexOptions controls how much positional information the inverted index
// keeps for a field.
type IndexOptions uint8

const (
	// IndexOptionsNone means the field is not indexed.
	IndexOptionsNone IndexOptions = iota
	// IndexOptionsDocs indexes document ids only.
	IndexOptionsDocs
	// IndexOptionsFreqs adds term frequencies.
	IndexOptionsFreqs
	// IndexOptionsPositions adds term positions.
	IndexOptionsPositions
	// IndexOptionsOffsets adds character offsets.
	IndexOptionsOffsets
)

// String returns the mapping-definition spelling of the option.
func (o IndexOptions) String() string {
	switch o {
	case IndexOptionsNone:
		return "none"
	case IndexOptionsDocs:
		return "docs"
	case IndexOptionsFreqs:
		return "freqs"
	case IndexOptionsPositions:
		return "positions"
	case IndexOptionsOffsets:
		return "offsets"
	default:
		return "unknown"
	}
}

// ParseIndexOptions parses the mapping-definition spelling of IndexOptions.
func ParseIndexOptions(s string) (IndexOptions, error) {
	switch s {
	case "docs":
		return IndexOptionsDocs, nil
	case "freqs":
		return IndexOptionsFreqs, nil
	case "positions":
		return IndexOptionsPositions, nil
	case "offsets":
		return IndexOptionsOffsets, nil
	default:
		return IndexOptionsNone, fmt.Errorf("unknown index_options [%s]", s)
	}
}

// DefaultBoost is the boost applied when none is configured.
const DefaultBoost = 1.0

// FieldType is the resolved descriptor of a mapped field: its names, indexing
// flags, analyzers, similarity and null handling.
//
// A FieldType is mutable while being built and immutable once Freeze is
// called; any later mutation attempt panics. Frozen types are shared freely
// across goroutines.
type FieldType struct {
	typeName string
	names    Names

	boost        float64
	indexOptions IndexOptions
	tokenized    bool
	stored       bool
	hasDocValues bool
	omitNorms    bool

	storeTermVectors         bool
	storeTermVectorOffsets   bool
	storeTermVectorPositions bool
	storeTermVectorPayloads  bool

	indexAnalyzer       *analysis.NamedAnalyzer
	searchAnalyzer      *analysis.NamedAnalyzer
	searchQuoteAnalyzer *analysis.NamedAnalyzer
	similarity          *similarity.Provider

	nullValue     any
	fieldDataType string

	frozen bool
}

// NewFieldType creates an unfrozen FieldType for the given variant type name.
func NewFieldType(typeName string) *FieldType {
	return &FieldType{typeName: typeName, boost: DefaultBoost}
}

// Clone returns an unfrozen copy.
func (t *FieldType) Clone() *FieldType {
	c := *t
	c.frozen = false
	return &c
}

// Freeze makes the type immutable. All derived and defaulted values must be
// in place before freezing.
func (t *FieldType) Freeze() { t.frozen = true }

// Frozen reports whether Freeze has been called.
func (t *FieldType) Frozen() bool { return t.frozen }

func (t *FieldType) checkFrozen() {
	if t.frozen {
		panic(fmt.Errorf("fieldmap: field type [%s] is frozen and cannot be modified", t.names.FullName))
	}
}

// TypeName returns the variant type name ("text", "long", ...).
func (t *FieldType) TypeName() string { return t.typeName }

// Names returns the field's names.
func (t *FieldType) Names() Names { return t.names }

// SetNames sets the field's names.
func (t *FieldType) SetNames(n Names) { t.checkFrozen(); t.names = n }

// Boost returns the query/index boost factor.
func (t *FieldType) Boost() float64 { return t.boost }

// SetBoost sets the boost factor.
func (t *FieldType) SetBoost(b float64) { t.checkFrozen(); t.boost = b }

// IndexOptions returns how the field is indexed.
func (t *FieldType) IndexOptions() IndexOptions { return t.indexOptions }

// SetIndexOptions sets how the field is indexed.
func (t *FieldType) SetIndexOptions(o IndexOptions) { t.checkFrozen(); t.indexOptions = o }

// Indexed reports whether the field is indexed at all.
func (t *FieldType) Indexed() bool { return t.indexOptions != IndexOptionsNone }

// Tokenized reports whether the field's value is analyzed into terms.
func (t *FieldType) Tokenized() bool { return t.tokenized }

// SetTokenized sets whether the field's value is analyzed.
func (t *FieldType) SetTokenized(v bool) { t.checkFrozen(); t.tokenized = v }

// Stored reports whether the raw value is kept in the stored-fields file.
func (t *FieldType) Stored() bool { return t.stored }

// SetStored sets whether the raw value is stored.
func (t *FieldType) SetStored(v bool) { t.checkFrozen(); t.stored = v }

// HasDocValues reports whether the field keeps a doc-values column.
func (t *FieldType) HasDocValues() bool { return t.hasDocValues }

// SetHasDocValues sets whether the field keeps a doc-values column.
func (t *FieldType) SetHasDocValues(v bool) { t.checkFrozen(); t.hasDocValues = v }

// OmitNorms reports whether length normalization is skipped.
func (t *FieldType) OmitNorms() bool { return t.omitNorms }

// SetOmitNorms sets whether length normalization is skipped.
func (t *FieldType) SetOmitNorms(v bool) { t.checkFrozen(); t.omitNorms = v }

// StoreTermVectors reports whether term vectors are stored.
func (t *FieldType) StoreTermVectors() bool { return t.storeTermVectors }

// SetStoreTermVectors sets whether term vectors are stored.
func (t *FieldType) SetStoreTermVectors(v bool) { t.checkFrozen(); t.storeTermVectors = v }

// StoreTermVectorOffsets reports whether term vector offsets are stored.
func (t *FieldType) StoreTermVectorOffsets() bool { return t.storeTermVectorOffsets }

// SetStoreTermVectorOffsets sets whether term vector offsets are stored.
func (t *FieldType) SetStoreTermVectorOffsets(v bool) {
	t.checkFrozen()
	t.storeTermVectorOffsets = v
}

// StoreTermVectorPositions reports whether term vector positions are stored.
func (t *FieldType) StoreTermVectorPositions() bool { return t.storeTermVectorPositions }

// SetStoreTermVectorPositions sets whether term vector positions are stored.
func (t *FieldType) SetStoreTermVectorPositions(v bool) {
	t.checkFrozen()
	t.storeTermVectorPositions = v
}

// StoreTermVectorPayloads reports whether term vector payloads are stored.
func (t *FieldType) StoreTermVectorPayloads() bool { return t.storeTermVectorPayloads }

// SetStoreTermVectorPayloads sets whether term vector payloads are stored.
func (t *FieldType) SetStoreTermVectorPayloads(v bool) {
	t.checkFrozen()
	t.storeTermVectorPayloads = v
}

// IndexAnalyzer returns the analyzer applied at index time.
func (t *FieldType) IndexAnalyzer() *analysis.NamedAnalyzer { return t.indexAnalyzer }

// SetIndexAnalyzer sets the analyzer applied at index time.
func (t *FieldType) SetIndexAnalyzer(a *analysis.NamedAnalyzer) { t.checkFrozen(); t.indexAnalyzer = a }

// SearchAnalyzer returns the analyzer applied to query text.
func (t *FieldType) SearchAnalyzer() *analysis.NamedAnalyzer { return t.searchAnalyzer }

// SetSearchAnalyzer sets the analyzer applied to query text.
func (t *FieldType) SetSearchAnalyzer(a *analysis.NamedAnalyzer) {
	t.checkFrozen()
	t.searchAnalyzer = a
}

// SearchQuoteAnalyzer returns the analyzer applied to quoted query text. It
// falls back to the search analyzer when unset.
func (t *FieldType) SearchQuoteAnalyzer() *analysis.NamedAnalyzer {
	if t.searchQuoteAnalyzer != nil {
		return t.searchQuoteAnalyzer
	}
	return t.searchAnalyzer
}

// SetSearchQuoteAnalyzer sets the analyzer applied to quoted query text.
func (t *FieldType) SetSearchQuoteAnalyzer(a *analysis.NamedAnalyzer) {
	t.checkFrozen()
	t.searchQuoteAnalyzer = a
}

// Similarity returns the similarity provider, nil when defaulted.
func (t *FieldType) Similarity() *similarity.Provider { return t.similarity }

// SetSimilarity sets the similarity provider.
func (t *FieldType) SetSimilarity(p *similarity.Provider) { t.checkFrozen(); t.similarity = p }

// NullValue returns the substitute value used for explicit nulls, nil if
// none.
func (t *FieldType) NullValue() any { return t.nullValue }

// SetNullValue sets the substitute value used for explicit nulls.
func (t *FieldType) SetNullValue(v any) { t.checkFrozen(); t.nullValue = v }

// NullValueAsString returns the null substitute rendered as a string.
func (t *FieldType) NullValueAsString() string {
	if t.nullValue == nil {
		return ""
	}
	return fmt.Sprintf("%v", t.nullValue)
}

// FieldDataType returns the fielddata backing type used for in-memory
// sorting/aggregation structures.
func (t *FieldType) FieldDataType() string { return t.fieldDataType }

// SetFieldDataType sets the fielddata backing type.
func (t *FieldType) SetFieldDataType(s string) { t.checkFrozen(); t.fieldDataType = s }

// CheckTypeName records a conflict into conflicts if other belongs to a
// different variant type.
func (t *FieldType) CheckTypeName(other *FieldType, conflicts *[]string) {
	if t.typeName != other.typeName {
		*conflicts = append(*conflicts, fmt.Sprintf(
			"mapper [%s] cannot be changed from type [%s] to [%s]",
			t.names.FullName, t.typeName, other.typeName))
	}
}

// CheckCompatibility enumerates every incompatibility between t and other
// into conflicts. Structural attributes (those requiring a reindex to change)
// are always checked; runtime-tunable attributes are only checked under
// strict, which callers enable when more than one mapper shares the type and
// no update-all-types override was given.
//
// The check never stops at the first mismatch: callers rely on getting the
// complete report in a single pass.
func (t *FieldType) CheckCompatibility(other *FieldType, conflicts *[]string, strict bool) {
	add := func(setting string) {
		*conflicts = append(*conflicts, fmt.Sprintf(
			"mapper [%s] has different [%s] values", t.names.FullName, setting))
	}

	if t.Indexed() != other.Indexed() {
		add("index")
	}
	if t.tokenized != other.tokenized {
		add("analyzed")
	}
	if t.stored != other.stored {
		add("store")
	}
	if t.hasDocValues && !other.hasDocValues {
		add("doc_values")
	}
	if t.omitNorms && !other.omitNorms {
		// norms cannot be re-enabled once omitted
		add("omit_norms")
	}
	if t.indexOptions != other.indexOptions {
		add("index_options")
	}
	if t.storeTermVectors != other.storeTermVectors {
		add("store_term_vector")
	}
	if t.storeTermVectorOffsets != other.storeTermVectorOffsets {
		add("store_term_vector_offsets")
	}
	if t.storeTermVectorPositions != other.storeTermVectorPositions {
		add("store_term_vector_positions")
	}
	if t.storeTermVectorPayloads != other.storeTermVectorPayloads {
		add("store_term_vector_payloads")
	}
	if analyzerName(t.indexAnalyzer) != analyzerName(other.indexAnalyzer) {
		add("analyzer")
	}
	if t.fieldDataType != other.fieldDataType {
		add("fielddata")
	}

	if strict {
		addStrict := func(setting string) {
			*conflicts = append(*conflicts, fmt.Sprintf(
				"mapper [%s] is used by multiple types; set update_all_types to true to update [%s] across all types",
				t.names.FullName, setting))
		}
		if t.boost != other.boost {
			addStrict("boost")
		}
		if !t.omitNorms && other.omitNorms {
			addStrict("omit_norms")
		}
		if fmt.Sprintf("%v", t.nullValue) != fmt.Sprintf("%v", other.nullValue) {
			addStrict("null_value")
		}
		if analyzerName(t.searchAnalyzer) != analyzerName(other.searchAnalyzer) {
			addStrict("search_analyzer")
		}
		if analyzerName(t.SearchQuoteAnalyzer()) != analyzerName(other.SearchQuoteAnalyzer()) {
			addStrict("search_quote_analyzer")
		}
		if similarityName(t.similarity) != similarityName(other.similarity) {
			addStrict("similarity")
		}
	}
}

// CompatibleWith reports whether CheckCompatibility would find no conflicts.
func (t *FieldType) CompatibleWith(other *FieldType, strict bool) bool {
	var conflicts []string
	t.CheckTypeName(other, &conflicts)
	t.CheckCompatibility(other, &conflicts, strict)
	return len(conflicts) == 0
}

func analyzerName(a *analysis.NamedAnalyzer) string {
	if a == nil {
		return ""
	}
	return a.Name()
}

func similarityName(p *similarity.Provider) string {
	if p == nil {
		return ""
	}
	return p.Name()
}
