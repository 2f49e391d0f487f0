package mapping

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fieldmap/analysis"
	"github.com/hupe1980/fieldmap/content"
	"github.com/hupe1980/fieldmap/similarity"
)

func testParserContext() *ParserContext {
	return &ParserContext{
		Analysis:    analysis.NewRegistry(),
		Similarity:  similarity.NewLookup(),
		TypeParsers: DefaultTypeParsers(),
		Format:      FormatCurrent,
	}
}

func legacyParserContext() *ParserContext {
	pctx := testParserContext()
	pctx.Format = Format1
	return pctx
}

func buildField(t testing.TB, typeName, name string, node map[string]any) *FieldMapper {
	t.Helper()
	return buildFieldWith(t, testParserContext(), DefaultIndexSettings(), typeName, name, node)
}

func buildLegacyField(t testing.TB, typeName, name string, node map[string]any) *FieldMapper {
	t.Helper()
	return buildFieldWith(t, legacyParserContext(), IndexSettings{Format: Format1}, typeName, name, node)
}

func buildFieldWith(t testing.TB, pctx *ParserContext, settings IndexSettings, typeName, name string, node map[string]any) *FieldMapper {
	t.Helper()
	if node == nil {
		node = map[string]any{}
	}
	parser := pctx.TypeParser(typeName)
	require.NotNil(t, parser, "no parser for type %q", typeName)
	b, err := parser(name, node, pctx)
	require.NoError(t, err)
	m, err := b.Build(NewBuilderContext(settings))
	require.NoError(t, err)
	return m.(*FieldMapper)
}

func parseDoc(t testing.TB, m *FieldMapper, field, source string) (*ParseContext, error) {
	t.Helper()
	parser := content.NewBytesParser([]byte(source))
	ctx := NewParseContext(parser, len(source), true)

	tok, err := parser.Next()
	require.NoError(t, err)
	require.Equal(t, content.TokenStartObject, tok)
	for {
		tok, err := parser.Next()
		require.NoError(t, err)
		if tok == content.TokenEndObject {
			return ctx, nil
		}
		require.Equal(t, content.TokenFieldName, tok)
		name := parser.CurrentName()
		_, err = parser.Next()
		require.NoError(t, err)
		if name != field {
			require.NoError(t, parser.Skip())
			continue
		}
		if parser.Current() == content.TokenStartArray {
			for {
				tok, err := parser.Next()
				require.NoError(t, err)
				if tok == content.TokenEndArray {
					break
				}
				if err := m.Parse(ctx); err != nil {
					return ctx, err
				}
			}
			continue
		}
		if err := m.Parse(ctx); err != nil {
			return ctx, err
		}
	}
}
