// Package analysis resolves analyzers by name for the mapping core.
//
// The mapping core never tokenizes text itself; it records which analyzer a
// field is bound to so the indexing pipeline can apply it. What matters here
// is name resolution, sensible defaults, and position-increment-gap wrapping.
package analysis

import "fmt"

// Analyzer is the minimal surface the mapping core needs from an analyzer.
type Analyzer interface {
	// Name is the stable registry name of the analyzer.
	Name() string
}

// NamedAnalyzer binds an Analyzer to the name it was resolved under, plus the
// position increment gap applied between values of a multi-valued field.
type NamedAnalyzer struct {
	analyzer             Analyzer
	name                 string
	positionIncrementGap int
}

// NewNamedAnalyzer wraps an analyzer under the given name.
func NewNamedAnalyzer(name string, a Analyzer) *NamedAnalyzer {
	return &NamedAnalyzer{name: name, analyzer: a}
}

// Reanalyze returns a copy of na with the given position increment gap. The
// receiver is not modified.
func Reanalyze(na *NamedAnalyzer, gap int) *NamedAnalyzer {
	if na == nil {
		return nil
	}
	return &NamedAnalyzer{name: na.name, analyzer: na.analyzer, positionIncrementGap: gap}
}

// Name returns the registry name.
func (na *NamedAnalyzer) Name() string { return na.name }

// PositionIncrementGap returns the configured gap.
func (na *NamedAnalyzer) PositionIncrementGap() int { return na.positionIncrementGap }

// Analyzer returns the wrapped analyzer.
func (na *NamedAnalyzer) Analyzer() Analyzer { return na.analyzer }

type simpleAnalyzer string

func (a simpleAnalyzer) Name() string { return string(a) }

// Built-in analyzer names.
const (
	AnalyzerStandard   = "standard"
	AnalyzerKeyword    = "keyword"
	AnalyzerWhitespace = "whitespace"
	AnalyzerDefault    = "default"
)

// Registry resolves analyzers by name and supplies the index defaults.
//
// A Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	analyzers          map[string]*NamedAnalyzer
	defaultIndex       *NamedAnalyzer
	defaultSearch      *NamedAnalyzer
	defaultSearchQuote *NamedAnalyzer
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithAnalyzer registers an additional named analyzer.
func WithAnalyzer(name string, a Analyzer) RegistryOption {
	return func(r *Registry) {
		r.analyzers[name] = NewNamedAnalyzer(name, a)
	}
}

// WithDefaultAnalyzer overrides the default index/search analyzers. The name
// must already be registered.
func WithDefaultAnalyzer(name string) RegistryOption {
	return func(r *Registry) {
		if na, ok := r.analyzers[name]; ok {
			r.defaultIndex = na
			r.defaultSearch = na
			r.defaultSearchQuote = na
		}
	}
}

// NewRegistry creates a Registry pre-populated with the built-in analyzers,
// defaulting to "standard" for index, search, and search-quote analysis.
func NewRegistry(optFns ...RegistryOption) *Registry {
	r := &Registry{analyzers: make(map[string]*NamedAnalyzer)}
	for _, name := range []string{AnalyzerStandard, AnalyzerKeyword, AnalyzerWhitespace} {
		r.analyzers[name] = NewNamedAnalyzer(name, simpleAnalyzer(name))
	}
	r.defaultIndex = r.analyzers[AnalyzerStandard]
	r.defaultSearch = r.analyzers[AnalyzerStandard]
	r.defaultSearchQuote = r.analyzers[AnalyzerStandard]

	for _, fn := range optFns {
		fn(r)
	}
	return r
}

// Analyzer resolves an analyzer by name, nil if unknown.
func (r *Registry) Analyzer(name string) *NamedAnalyzer {
	if name == AnalyzerDefault {
		return r.defaultIndex
	}
	return r.analyzers[name]
}

// MustAnalyzer resolves an analyzer by name, erroring if unknown.
func (r *Registry) MustAnalyzer(name string) (*NamedAnalyzer, error) {
	if na := r.Analyzer(name); na != nil {
		return na, nil
	}
	return nil, fmt.Errorf("analyzer %q not found", name)
}

// DefaultIndexAnalyzer returns the analyzer applied at index time when a field
// declares none.
func (r *Registry) DefaultIndexAnalyzer() *NamedAnalyzer { return r.defaultIndex }

// DefaultSearchAnalyzer returns the analyzer applied to query text.
func (r *Registry) DefaultSearchAnalyzer() *NamedAnalyzer { return r.defaultSearch }

// DefaultSearchQuoteAnalyzer returns the analyzer applied to quoted query
// text.
func (r *Registry) DefaultSearchQuoteAnalyzer() *NamedAnalyzer { return r.defaultSearchQuote }

// KeywordAnalyzer returns the pass-through analyzer used for untokenized
// fields.
func (r *Registry) KeywordAnalyzer() *NamedAnalyzer { return r.analyzers[AnalyzerKeyword] }
