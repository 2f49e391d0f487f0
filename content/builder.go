package content

import (
	"bytes"
	"fmt"

	gojson "github.com/goccy/go-json"
)

// Builder writes a JSON object incrementally, preserving the order fields are
// added in. Mapping export depends on stable ordering so that two exports of
// the same mapping are byte-comparable for diffing.
//
// The first error encountered is sticky; Bytes reports it.
type Builder struct {
	buf   bytes.Buffer
	stack []builderFrame
	err   error
}

type builderFrame struct {
	array    bool
	hasElems bool
}

// NewBuilder creates an empty Builder. Callers normally begin with
// StartObject.
func NewBuilder() *Builder {
	return &Builder{}
}

// StartObject opens an anonymous object (the document root or an array
// element).
func (b *Builder) StartObject() *Builder {
	b.elem()
	b.buf.WriteByte('{')
	b.stack = append(b.stack, builderFrame{})
	return b
}

// StartObjectField opens a named sub-object.
func (b *Builder) StartObjectField(name string) *Builder {
	b.key(name)
	b.buf.WriteByte('{')
	b.stack = append(b.stack, builderFrame{})
	return b
}

// EndObject closes the innermost object.
func (b *Builder) EndObject() *Builder {
	if len(b.stack) == 0 || b.stack[len(b.stack)-1].array {
		b.fail(fmt.Errorf("content: EndObject without matching StartObject"))
		return b
	}
	b.buf.WriteByte('}')
	b.stack = b.stack[:len(b.stack)-1]
	return b
}

// StartArrayField opens a named array.
func (b *Builder) StartArrayField(name string) *Builder {
	b.key(name)
	b.buf.WriteByte('[')
	b.stack = append(b.stack, builderFrame{array: true})
	return b
}

// EndArray closes the innermost array.
func (b *Builder) EndArray() *Builder {
	if len(b.stack) == 0 || !b.stack[len(b.stack)-1].array {
		b.fail(fmt.Errorf("content: EndArray without matching StartArray"))
		return b
	}
	b.buf.WriteByte(']')
	b.stack = b.stack[:len(b.stack)-1]
	return b
}

// Field writes a named value, encoded with goccy/go-json.
func (b *Builder) Field(name string, v any) *Builder {
	b.key(name)
	b.value(v)
	return b
}

// Value writes an array element.
func (b *Builder) Value(v any) *Builder {
	b.elem()
	b.value(v)
	return b
}

// Bytes returns the accumulated JSON, or the first error hit while building.
func (b *Builder) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.stack) != 0 {
		return nil, fmt.Errorf("content: %d unclosed containers", len(b.stack))
	}
	return b.buf.Bytes(), nil
}

func (b *Builder) key(name string) {
	if b.err != nil {
		return
	}
	if len(b.stack) == 0 || b.stack[len(b.stack)-1].array {
		b.fail(fmt.Errorf("content: field %q written outside object", name))
		return
	}
	b.comma()
	enc, err := gojson.Marshal(name)
	if err != nil {
		b.fail(err)
		return
	}
	b.buf.Write(enc)
	b.buf.WriteByte(':')
}

func (b *Builder) elem() {
	if b.err != nil || len(b.stack) == 0 {
		return
	}
	if b.stack[len(b.stack)-1].array {
		b.comma()
	}
}

func (b *Builder) comma() {
	top := &b.stack[len(b.stack)-1]
	if top.hasElems {
		b.buf.WriteByte(',')
	}
	top.hasElems = true
}

func (b *Builder) value(v any) {
	if b.err != nil {
		return
	}
	enc, err := gojson.Marshal(v)
	if err != nil {
		b.fail(err)
		return
	}
	b.buf.Write(enc)
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
