package mapping

import "strings"

// Names holds the different names a mapped field is known under.
type Names struct {
	// ShortName is the name of the field relative to its parent.
	ShortName string
	// IndexName is the name used in the physical index structures. It may
	// differ from FullName only on legacy-format indexes.
	IndexName string
	// IndexNameClean is the index name without any path prefix.
	IndexNameClean string
	// FullName is the dotted, fully-qualified name used to address the field.
	FullName string
}

// NewNames builds Names where every name is the same, the common case on
// current-format indexes.
func NewNames(name string) Names {
	return Names{ShortName: name, IndexName: name, IndexNameClean: name, FullName: name}
}

// ContentPath tracks the dotted path while building or parsing a mapper tree.
type ContentPath struct {
	segments []string
}

// NewContentPath creates an empty path.
func NewContentPath() *ContentPath {
	return &ContentPath{}
}

// Add pushes a path segment.
func (p *ContentPath) Add(name string) {
	p.segments = append(p.segments, name)
}

// Remove pops the innermost path segment.
func (p *ContentPath) Remove() {
	if len(p.segments) > 0 {
		p.segments = p.segments[:len(p.segments)-1]
	}
}

// PathAsText returns the dotted path ending in name.
func (p *ContentPath) PathAsText(name string) string {
	if len(p.segments) == 0 {
		return name
	}
	return strings.Join(p.segments, ".") + "." + name
}
