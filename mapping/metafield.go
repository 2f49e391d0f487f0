package mapping

// MetadataMapper is a mapper for a built-in metadata field. Metadata mappers
// bracket the document walk: PreParse runs before any declared field is
// visited, PostParse after the whole document has been consumed.
type MetadataMapper interface {
	Mapper

	// PreParse contributes entries derivable before the document body is
	// walked (identity, routing).
	PreParse(ctx *ParseContext) error

	// PostParse contributes entries that depend on the completed walk
	// (accumulated catch-all text, source size).
	PostParse(ctx *ParseContext) error
}

// metadataFieldMapper gives metadata mappers the leaf-field parse pipeline.
type metadataFieldMapper struct {
	*FieldMapper
}

// parseExternal pushes value through the embedded field pipeline as an
// external value.
func (m *metadataFieldMapper) parseExternal(ctx *ParseContext, value any) error {
	prevValue, prevSet := ctx.ExternalValue(), ctx.ExternalValueSet()
	ctx.SetExternalValue(value)
	defer func() {
		if prevSet {
			ctx.SetExternalValue(prevValue)
		} else {
			ctx.ClearExternalValue()
		}
	}()
	return m.FieldMapper.Parse(ctx)
}

func boolPtr(b bool) *bool { return &b }
