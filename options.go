package fieldmap

import (
	"log/slog"

	"github.com/hupe1980/fieldmap/analysis"
	"github.com/hupe1980/fieldmap/mapping"
	"github.com/hupe1980/fieldmap/similarity"
)

type options struct {
	settings        mapping.IndexSettings
	analysis        *analysis.Registry
	similarity      *similarity.Lookup
	typeParsers     map[string]mapping.TypeParser
	routingRequired bool
	sizeEnabled     bool
	allEnabled      bool
	logger          *Logger
}

// Option configures Service construction.
type Option func(*options)

// WithIndexSettings configures the index settings (format version) the
// mapping is built against.
func WithIndexSettings(settings mapping.IndexSettings) Option {
	return func(o *options) {
		o.settings = settings
	}
}

// WithAnalysisRegistry configures the analyzer registry definitions resolve
// against. Pass nil to keep the built-in registry.
func WithAnalysisRegistry(reg *analysis.Registry) Option {
	return func(o *options) {
		if reg != nil {
			o.analysis = reg
		}
	}
}

// WithSimilarityLookup configures the similarity provider lookup. Pass nil to
// keep the defaults.
func WithSimilarityLookup(lookup *similarity.Lookup) Option {
	return func(o *options) {
		if lookup != nil {
			o.similarity = lookup
		}
	}
}

// WithTypeParser registers (or overrides) the parser for one mapping type
// name.
func WithTypeParser(typeName string, parser mapping.TypeParser) Option {
	return func(o *options) {
		o.typeParsers[typeName] = parser
	}
}

// WithRoutingRequired makes documents without a routing value fail to parse.
func WithRoutingRequired(required bool) Option {
	return func(o *options) {
		o.routingRequired = required
	}
}

// WithSizeEnabled turns on source-length recording via the _size metadata
// field.
func WithSizeEnabled(enabled bool) Option {
	return func(o *options) {
		o.sizeEnabled = enabled
	}
}

// WithAllEnabled controls the _all catch-all aggregate. Enabled unless
// turned off here.
func WithAllEnabled(enabled bool) Option {
	return func(o *options) {
		o.allEnabled = enabled
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		settings:    mapping.DefaultIndexSettings(),
		analysis:    analysis.NewRegistry(),
		similarity:  similarity.NewLookup(),
		typeParsers: mapping.DefaultTypeParsers(),
		allEnabled:  true,
		logger:      NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
