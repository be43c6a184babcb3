// Package oscval models the OSC type alphabet and the tagged value variant
// used to store a single argument slot in the address-space tree.
package oscval

import "strings"

// Code is a single OSC type tag character.
type Code byte

// The OSC type alphabet. Standard tags (Int32, Float32, String, Blob) plus
// the extended tags commonly advertised by OSC Query nodes.
const (
	Int32     Code = 'i'
	Float32   Code = 'f'
	String    Code = 's'
	Blob      Code = 'b'
	Int64     Code = 'h'
	TimeTag   Code = 't'
	Double    Code = 'd'
	AltString Code = 'S'
	Char      Code = 'c'
	RGBA      Code = 'r'
	MIDI      Code = 'm'
	True      Code = 'T'
	False     Code = 'F'
	Nil       Code = 'N'
	Infinitum Code = 'I'
)

// Type describes the shape of one argument slot: either a single type code,
// or a nested, ordered list of types (an array/tuple), recursively.
type Type struct {
	Code   Code   // valid when Nested == nil
	Nested []Type // non-nil for a nested list
}

// Single builds a Type wrapping one type code.
func Single(c Code) Type {
	return Type{Code: c}
}

// List builds a Type wrapping a nested, ordered list of types.
func List(elems ...Type) Type {
	return Type{Nested: elems}
}

// IsList reports whether t is a nested list rather than a single code.
func (t Type) IsList() bool {
	return t.Nested != nil
}

// String renders the type the way OSC Query concatenates a TYPE string:
// a bare code, or "[...]" around the concatenation of nested codes.
func (t Type) String() string {
	if !t.IsList() {
		return string(t.Code)
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for _, n := range t.Nested {
		sb.WriteString(n.String())
	}
	sb.WriteByte(']')
	return sb.String()
}
