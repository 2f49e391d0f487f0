package mapping

// FormatVersion is the on-disk mapping format generation an index was created
// with. It gates backward-compatible defaulting: indexes created before
// Format2 may give a field an index name that differs from its full name.
type FormatVersion int

const (
	// Format1 is the legacy format with free-form index names.
	Format1 FormatVersion = iota + 1
	// Format2 forces index names to equal full names.
	Format2
)

// FormatCurrent is the format used for newly created indexes.
const FormatCurrent = Format2

// OnOrAfter reports whether v is other or newer.
func (v FormatVersion) OnOrAfter(other FormatVersion) bool { return v >= other }

// Before reports whether v predates other.
func (v FormatVersion) Before(other FormatVersion) bool { return v < other }

// IndexSettings carries the per-index configuration the mapping core reads.
// It is passed by value and never mutated after construction.
type IndexSettings struct {
	// Format is the mapping format version the index was created with.
	Format FormatVersion
}

// DefaultIndexSettings returns settings for a newly created index.
func DefaultIndexSettings() IndexSettings {
	return IndexSettings{Format: FormatCurrent}
}
