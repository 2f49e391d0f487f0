package mapping

import (
	"github.com/hupe1980/fieldmap/content"
)

// EntryKind classifies an emitted index entry.
type EntryKind uint8

const (
	// EntryIndexed is a posting-list and or stored-field entry.
	EntryIndexed EntryKind = iota
	// EntryDocValues is a columnar doc-values entry.
	EntryDocValues
)

// IndexableField is one low-level entry a field mapper emits into the
// document under construction. The indexing pipeline downstream turns these
// into segment writes; the mapping core only describes them.
type IndexableField struct {
	Name      string
	Kind      EntryKind
	Value     any
	Boost     float64
	Options   IndexOptions
	Tokenized bool
	Stored    bool
	Analyzer  string
}

// IgnoredValue records a value that was parsed but produced no indexable
// entries, so introspection can recover what was dropped.
type IgnoredValue struct {
	Field string
	Value any
}

// CopyEntry records a value to be duplicated into another field.
type CopyEntry struct {
	Field string
	Value any
}

// AllEntry is one contribution to the catch-all aggregate text field.
type AllEntry struct {
	Field string
	Text  string
	Boost float64
}

// AllEntries accumulates include-in-all contributions during a single
// document parse.
type AllEntries struct {
	entries []AllEntry
}

// Add appends a contribution.
func (a *AllEntries) Add(field, text string, boost float64) {
	a.entries = append(a.entries, AllEntry{Field: field, Text: text, Boost: boost})
}

// Entries returns the accumulated contributions.
func (a *AllEntries) Entries() []AllEntry { return a.entries }

// Document accumulates everything a single document parse produces.
type Document struct {
	fields  []IndexableField
	ignored []IgnoredValue
	copies  []CopyEntry
}

// Add appends an indexable entry.
func (d *Document) Add(f IndexableField) { d.fields = append(d.fields, f) }

// Fields returns the emitted entries.
func (d *Document) Fields() []IndexableField { return d.fields }

// FieldsByName returns the emitted entries carrying the given index name.
func (d *Document) FieldsByName(name string) []IndexableField {
	var out []IndexableField
	for _, f := range d.fields {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out
}

// AddIgnored records a parsed-but-dropped value.
func (d *Document) AddIgnored(field string, value any) {
	d.ignored = append(d.ignored, IgnoredValue{Field: field, Value: value})
}

// Ignored returns the recorded ignored values.
func (d *Document) Ignored() []IgnoredValue { return d.ignored }

// AddCopy records a copy-to duplication.
func (d *Document) AddCopy(field string, value any) {
	d.copies = append(d.copies, CopyEntry{Field: field, Value: value})
}

// Copies returns the recorded copy-to duplications.
func (d *Document) Copies() []CopyEntry { return d.copies }

// ParseContext is the per-document state threaded through field mappers while
// a single document is parsed. It is confined to one goroutine.
type ParseContext struct {
	doc    *Document
	parser *content.Parser
	path   *ContentPath

	allEntries *AllEntries
	allEnabled bool

	externalValue any
	externalSet   bool

	inMultiFields bool

	id        string
	routing   string
	sourceLen int
}

// NewParseContext creates a context for parsing one document.
func NewParseContext(parser *content.Parser, sourceLen int, allEnabled bool) *ParseContext {
	return &ParseContext{
		doc:        &Document{},
		parser:     parser,
		path:       NewContentPath(),
		allEntries: &AllEntries{},
		allEnabled: allEnabled,
		sourceLen:  sourceLen,
	}
}

// Doc returns the document accumulator.
func (c *ParseContext) Doc() *Document { return c.doc }

// Parser returns the token cursor, positioned on the value being parsed.
func (c *ParseContext) Parser() *content.Parser { return c.parser }

// Path returns the content path of the field being parsed.
func (c *ParseContext) Path() *ContentPath { return c.path }

// AllEntries returns the include-in-all accumulator.
func (c *ParseContext) AllEntries() *AllEntries { return c.allEntries }

// IncludeInAll decides whether a field's value joins the catch-all aggregate:
// a field-level flag wins; otherwise the aggregate must be enabled and the
// field indexed. Multi-field sub-context never contributes.
func (c *ParseContext) IncludeInAll(fieldFlag *bool, ft *FieldType) bool {
	if c.inMultiFields {
		return false
	}
	if fieldFlag != nil {
		return *fieldFlag
	}
	return c.allEnabled && ft.Indexed()
}

// ExternalValueSet reports whether an external value overrides the parser
// position.
func (c *ParseContext) ExternalValueSet() bool { return c.externalSet }

// ExternalValue returns the external override value.
func (c *ParseContext) ExternalValue() any { return c.externalValue }

// SetExternalValue installs an override value; mappers parse it instead of
// reading the token stream. Clear with ClearExternalValue.
func (c *ParseContext) SetExternalValue(v any) {
	c.externalValue = v
	c.externalSet = true
}

// ClearExternalValue removes the override.
func (c *ParseContext) ClearExternalValue() {
	c.externalValue = nil
	c.externalSet = false
}

// MultiFieldContext marks the context as parsing multi-field sub-mappers
// until the returned restore function runs.
func (c *ParseContext) MultiFieldContext() func() {
	prev := c.inMultiFields
	c.inMultiFields = true
	return func() { c.inMultiFields = prev }
}

// ID returns the document id, empty if none was provided.
func (c *ParseContext) ID() string { return c.id }

// SetID sets the document id.
func (c *ParseContext) SetID(id string) { c.id = id }

// Routing returns the routing value, empty if none was provided.
func (c *ParseContext) Routing() string { return c.routing }

// SetRouting sets the routing value.
func (c *ParseContext) SetRouting(routing string) { c.routing = routing }

// SourceLength returns the byte length of the document source.
func (c *ParseContext) SourceLength() int { return c.sourceLen }
