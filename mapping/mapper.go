package mapping

import (
	"github.com/hupe1980/fieldmap/analysis"
	"github.com/hupe1980/fieldmap/content"
	"github.com/hupe1980/fieldmap/similarity"
)

// Mapper is a node in the mapping tree.
type Mapper interface {
	// Name returns the node's short name.
	Name() string

	// Merge reconciles mergeWith into the receiver, recording conflicts and
	// staged additions into result. Mutation is gated on result: nothing
	// changes in simulate mode or once result carries conflicts.
	Merge(mergeWith Mapper, result *MergeResult)

	// ToContent writes the mapper's definition. With includeDefaults, values
	// equal to built-in defaults are written too, for diff/debug tooling.
	ToContent(b *content.Builder, includeDefaults bool) error
}

// BuilderContext carries what builders need while turning a definition tree
// into mappers. It is passed by value-semantics configuration plus a shared
// ContentPath tracking the position in the tree.
type BuilderContext struct {
	Settings IndexSettings
	Path     *ContentPath
}

// NewBuilderContext creates a BuilderContext with an empty path.
func NewBuilderContext(settings IndexSettings) *BuilderContext {
	return &BuilderContext{Settings: settings, Path: NewContentPath()}
}

// Builder produces a mapper from validated, defaulted configuration.
type Builder interface {
	// Name returns the short name of the mapper being built.
	Name() string
	// Build resolves defaults and produces the mapper.
	Build(ctx *BuilderContext) (Mapper, error)
}

// TypeParser turns one field's property bag into a Builder. Parsers must
// delete every key they understand from node; the caller treats leftover keys
// as unknown properties and fails the mapping update.
type TypeParser func(name string, node map[string]any, pctx *ParserContext) (Builder, error)

// ParserContext carries the collaborator services type parsers resolve
// against.
type ParserContext struct {
	Analysis    *analysis.Registry
	Similarity  *similarity.Lookup
	TypeParsers map[string]TypeParser
	Format      FormatVersion
}

// TypeParser resolves a parser for the given variant type name, nil if
// unknown.
func (c *ParserContext) TypeParser(typeName string) TypeParser {
	return c.TypeParsers[typeName]
}

// DefaultTypeParsers returns the parser table for the built-in field
// variants. "string" is accepted as a legacy alias of "text".
func DefaultTypeParsers() map[string]TypeParser {
	return map[string]TypeParser{
		TypeNameText:    ParseTextField,
		"string":        ParseTextField,
		TypeNameLong:    ParseLongField,
		TypeNameDouble:  ParseDoubleField,
		TypeNameBoolean: ParseBooleanField,
		TypeNameDate:    ParseDateField,
	}
}
