// Package codec reads and writes notes in the .ustx formats.
//
// Encoding and decoding go through a tree of yaml.Nodes, which holds nothing
// but objects, arrays and scalars; the same tree is written as json (the .ustx
// project files) or as yml. The data model in package ustx knows nothing
// about the formats: every type with a custom wire shape has a Codec, a pair
// of functions translating between the type and a tree.
package codec

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/CantTolerateYou/ustx"
)

// Codec is the pair of functions translating a value of type T to a tree and
// back. Decode gets the field path of the node for error messages; "" for the
// document itself.
type Codec[T any] struct {
	Encode func(v T) *yaml.Node
	Decode func(n *yaml.Node, path string) (T, error)
}

var (
	// ExpressionCodec writes an expression as its bare value and reads a bare
	// number back into an expression. The descriptor is not written, so a
	// decoded expression is always unbound.
	ExpressionCodec = Codec[ustx.Expression]{Encode: encodeExpression, Decode: decodeExpression}

	// NoteCodec translates a note to the object with the keys pos, dur, num,
	// lrc, pho, pit, vbr and exp, in this order.
	NoteCodec = Codec[*ustx.Note]{Encode: encodeNote, Decode: decodeNote}
)

// EncodeJSON writes v as indented json.
func (c Codec[T]) EncodeJSON(v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, c.Encode(v), Indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeJSON reads v from json. Syntax errors are reported as a DecodeError
// with an empty path.
func (c Codec[T]) DecodeJSON(data []byte) (T, error) {
	n, err := parseJSON(data)
	if err != nil {
		var zero T
		return zero, &DecodeError{Err: err}
	}
	return c.Decode(n, "")
}

// EncodeYAML writes v as yml.
func (c Codec[T]) EncodeYAML(v T) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c.Encode(v)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeYAML reads v from the first document of a yml stream.
func (c Codec[T]) DecodeYAML(data []byte) (T, error) {
	var zero T
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return zero, &DecodeError{Err: err}
	}
	n := resolve(&doc)
	if n == nil {
		return zero, &DecodeError{Err: errors.New("empty document")}
	}
	return c.Decode(n, "")
}

func MarshalExpression(e ustx.Expression) ([]byte, error) {
	return ExpressionCodec.EncodeJSON(e)
}

func UnmarshalExpression(data []byte) (ustx.Expression, error) {
	return ExpressionCodec.DecodeJSON(data)
}

// MarshalNote writes n the way notes are stored in .ustx project files.
func MarshalNote(n *ustx.Note) ([]byte, error) {
	return NoteCodec.EncodeJSON(n)
}

// UnmarshalNote reads a note from json. None of the expressions of the
// returned note are bound; see ustx.Note.BindExpressions.
func UnmarshalNote(data []byte) (*ustx.Note, error) {
	return NoteCodec.DecodeJSON(data)
}

func MarshalNoteYAML(n *ustx.Note) ([]byte, error) {
	return NoteCodec.EncodeYAML(n)
}

func UnmarshalNoteYAML(data []byte) (*ustx.Note, error) {
	return NoteCodec.DecodeYAML(data)
}

// ReadNote reads a note given either as json or yml. Input that is valid json
// is decoded as json only; anything else is tried as yml.
func ReadNote(data []byte) (*ustx.Note, error) {
	n, errJSON := parseJSON(data)
	if errJSON == nil {
		return NoteCodec.Decode(n, "")
	}
	note, errYaml := UnmarshalNoteYAML(data)
	if errYaml != nil {
		return nil, fmt.Errorf("note could not be unmarshaled as .json (%v) or .yml: %w", errJSON, errYaml)
	}
	return note, nil
}
