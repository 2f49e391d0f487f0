// Package content provides the structured-content layer the mapping core is
// built on: a positioned token cursor over JSON documents (Parser), an
// order-preserving JSON object writer (Builder), and helpers for working with
// decoded property bags.
//
// Encoding and decoding are backed by github.com/goccy/go-json. The package
// deliberately exposes tokens rather than decoded trees on the document path:
// field mappers consume exactly the value they are positioned on and nothing
// else.
package content

import (
	"bytes"
	"io"

	gojson "github.com/goccy/go-json"
)

// Token identifies what the Parser is currently positioned on.
type Token uint8

const (
	// TokenNone means the parser has not been advanced yet or is exhausted.
	TokenNone Token = iota
	// TokenStartObject marks the beginning of an object.
	TokenStartObject
	// TokenEndObject marks the end of an object.
	TokenEndObject
	// TokenStartArray marks the beginning of an array.
	TokenStartArray
	// TokenEndArray marks the end of an array.
	TokenEndArray
	// TokenFieldName marks an object key; CurrentName reports it.
	TokenFieldName
	// TokenString is a string scalar.
	TokenString
	// TokenNumber is a numeric scalar; use Int64Value/Float64Value.
	TokenNumber
	// TokenBool is a boolean scalar.
	TokenBool
	// TokenNull is a JSON null.
	TokenNull
)

// String returns the string representation of the Token.
func (t Token) String() string {
	switch t {
	case TokenNone:
		return "None"
	case TokenStartObject:
		return "StartObject"
	case TokenEndObject:
		return "EndObject"
	case TokenStartArray:
		return "StartArray"
	case TokenEndArray:
		return "EndArray"
	case TokenFieldName:
		return "FieldName"
	case TokenString:
		return "String"
	case TokenNumber:
		return "Number"
	case TokenBool:
		return "Bool"
	case TokenNull:
		return "Null"
	default:
		return "Unknown"
	}
}

// IsValue reports whether the token is a scalar value.
func (t Token) IsValue() bool {
	switch t {
	case TokenString, TokenNumber, TokenBool, TokenNull:
		return true
	default:
		return false
	}
}

// DecodeMap decodes a JSON object into a property bag, preserving number
// fidelity (numbers decode as gojson.Number, not float64).
func DecodeMap(data []byte) (map[string]any, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// Marshal encodes v to JSON.
func Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

// frame tracks the container the parser is inside so object keys can be told
// apart from string values.
type frame struct {
	object  bool
	keyNext bool
}

// Parser is a cursor over a JSON token stream.
//
// The zero position is before the first token; call Next to advance. The
// parser never reads past the value it is positioned on, which lets callers
// hand a partially-consumed stream from one mapper to the next.
type Parser struct {
	dec   *gojson.Decoder
	tok   Token
	name  string
	str   string
	num   gojson.Number
	b     bool
	stack []frame
}

// NewParser creates a Parser reading from r.
func NewParser(r io.Reader) *Parser {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	return &Parser{dec: dec}
}

// NewBytesParser creates a Parser over an in-memory document.
func NewBytesParser(data []byte) *Parser {
	return NewParser(bytes.NewReader(data))
}

// Current returns the token the parser is positioned on.
func (p *Parser) Current() Token { return p.tok }

// CurrentName returns the name of the innermost object field being parsed.
// It stays valid while the field's value (including a whole sub-object) is
// being consumed.
func (p *Parser) CurrentName() string { return p.name }

// Next advances to the next token. io.EOF is returned at end of input.
func (p *Parser) Next() (Token, error) {
	raw, err := p.dec.Token()
	if err != nil {
		if err == io.EOF {
			p.tok = TokenNone
		}
		return TokenNone, err
	}

	switch v := raw.(type) {
	case gojson.Delim:
		switch v {
		case '{':
			p.valueDone()
			p.stack = append(p.stack, frame{object: true, keyNext: true})
			p.tok = TokenStartObject
		case '}':
			p.stack = p.stack[:len(p.stack)-1]
			p.valueDone()
			p.tok = TokenEndObject
		case '[':
			p.valueDone()
			p.stack = append(p.stack, frame{})
			p.tok = TokenStartArray
		case ']':
			p.stack = p.stack[:len(p.stack)-1]
			p.valueDone()
			p.tok = TokenEndArray
		}
	case string:
		if p.expectKey() {
			p.name = v
			p.stack[len(p.stack)-1].keyNext = false
			p.tok = TokenFieldName
		} else {
			p.str = v
			p.valueDone()
			p.tok = TokenString
		}
	case gojson.Number:
		p.num = v
		p.valueDone()
		p.tok = TokenNumber
	case bool:
		p.b = v
		p.valueDone()
		p.tok = TokenBool
	case nil:
		p.valueDone()
		p.tok = TokenNull
	}
	return p.tok, nil
}

func (p *Parser) expectKey() bool {
	return len(p.stack) > 0 && p.stack[len(p.stack)-1].object && p.stack[len(p.stack)-1].keyNext
}

// valueDone marks that a complete value finished at the current nesting level,
// so the next string inside an object is a key again.
func (p *Parser) valueDone() {
	if len(p.stack) > 0 && p.stack[len(p.stack)-1].object {
		p.stack[len(p.stack)-1].keyNext = true
	}
}

// Text returns the current scalar rendered as a string. Numbers and booleans
// are stringified; null yields the empty string.
func (p *Parser) Text() string {
	switch p.tok {
	case TokenString:
		return p.str
	case TokenNumber:
		return p.num.String()
	case TokenBool:
		if p.b {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// TextOrNil returns the current scalar as text, or ok=false on null.
func (p *Parser) TextOrNil() (string, bool) {
	if p.tok == TokenNull {
		return "", false
	}
	return p.Text(), true
}

// Int64Value returns the current number as int64.
func (p *Parser) Int64Value() (int64, error) { return p.num.Int64() }

// Float64Value returns the current number as float64.
func (p *Parser) Float64Value() (float64, error) { return p.num.Float64() }

// BoolValue returns the current boolean.
func (p *Parser) BoolValue() bool { return p.b }

// Skip consumes the value the parser is positioned on. For container starts
// the whole subtree is consumed, leaving the parser on the matching end token.
func (p *Parser) Skip() error {
	if p.tok != TokenStartObject && p.tok != TokenStartArray {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err := p.Next()
		if err != nil {
			return err
		}
		switch tok {
		case TokenStartObject, TokenStartArray:
			depth++
		case TokenEndObject, TokenEndArray:
			depth--
		}
	}
	return nil
}
