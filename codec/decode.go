package codec

import (
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/CantTolerateYou/ustx"
)

// DecodeError is returned when the input does not have the shape of a note.
// Path names the offending field, e.g. "pho[0].envelope.data" or "exp.vel";
// an empty Path means the document itself. Line and Column are 1-based and
// only known for yml input.
type DecodeError struct {
	Path   string
	Line   int
	Column int
	Err    error
}

func (e *DecodeError) Error() string {
	path := e.Path
	if path == "" {
		path = "document"
	}
	if e.Line > 0 {
		return fmt.Sprintf("cannot decode %v (line %v, column %v): %v", path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("cannot decode %v: %v", path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func errorAt(n *yaml.Node, path string, err error) *DecodeError {
	ret := &DecodeError{Path: path, Err: err}
	if n != nil {
		ret.Line, ret.Column = n.Line, n.Column
	}
	return ret
}

func typeError(n *yaml.Node, path string, expected string) *DecodeError {
	return errorAt(n, path, fmt.Errorf("expected %v, got %v", expected, describe(n)))
}

func describe(n *yaml.Node) string {
	if n == nil {
		return "nothing"
	}
	switch n.Kind {
	case yaml.MappingNode:
		return "object"
	case yaml.SequenceNode:
		return "array"
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!str":
			return fmt.Sprintf("string %q", n.Value)
		case "!!int", "!!float":
			return "number " + n.Value
		case "!!bool":
			return "boolean " + n.Value
		case "!!null":
			return "null"
		}
		return n.ShortTag() + " " + n.Value
	}
	return "unknown node"
}

func field(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func index(path string, i int) string {
	return fmt.Sprintf("%v[%v]", path, i)
}

// resolve strips documents and aliases.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func decodeInt(n *yaml.Node, path string) (int, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return 0, typeError(n, path, "integer")
	}
	switch n.ShortTag() {
	case "!!int":
		var i int
		if err := n.Decode(&i); err != nil {
			return 0, errorAt(n, path, err)
		}
		return i, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return 0, errorAt(n, path, err)
		}
		if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
			return 0, errorAt(n, path, fmt.Errorf("%v is not an integer", n.Value))
		}
		return int(f), nil
	}
	return 0, typeError(n, path, "integer")
}

func decodeFloat(n *yaml.Node, path string) (float64, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return 0, typeError(n, path, "number")
	}
	switch n.ShortTag() {
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return 0, errorAt(n, path, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, errorAt(n, path, fmt.Errorf("%v is not a finite number", n.Value))
		}
		return f, nil
	}
	return 0, typeError(n, path, "number")
}

func decodeString(n *yaml.Node, path string) (string, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
		return "", typeError(n, path, "string")
	}
	return n.Value, nil
}

func decodeBool(n *yaml.Node, path string) (bool, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode || n.ShortTag() != "!!bool" {
		return false, typeError(n, path, "boolean")
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		return false, errorAt(n, path, err)
	}
	return b, nil
}

// object reads the fields of a mapping node. The first error sticks: after
// it, all reads return zero values and err reports it.
type object struct {
	path   string
	keys   []string
	fields map[string]*yaml.Node
	err    error
}

func newObject(n *yaml.Node, path string) (*object, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, typeError(n, path, "object")
	}
	o := &object{path: path, fields: make(map[string]*yaml.Node, len(n.Content)/2)}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := resolve(n.Content[i])
		if k == nil || k.Kind != yaml.ScalarNode {
			return nil, errorAt(n.Content[i], path, errors.New("object keys should be strings"))
		}
		if _, ok := o.fields[k.Value]; !ok {
			o.keys = append(o.keys, k.Value)
		}
		o.fields[k.Value] = n.Content[i+1] // the last one wins, like in encoding/json
	}
	return o, nil
}

// get returns the node of key, or false if the key is absent or null.
func (o *object) get(key string) (*yaml.Node, bool) {
	if o.err != nil {
		return nil, false
	}
	n, ok := o.fields[key]
	if !ok {
		return nil, false
	}
	if r := resolve(n); r == nil || isNull(r) {
		return nil, false
	}
	return n, true
}

// require is like get, but reports a missing key as an error.
func (o *object) require(key string) (*yaml.Node, bool) {
	n, ok := o.get(key)
	if !ok && o.err == nil {
		o.err = &DecodeError{Path: field(o.path, key), Err: errors.New("missing field")}
	}
	return n, ok
}

func (o *object) fail(err error) {
	if o.err == nil {
		o.err = err
	}
}

func (o *object) intField(key string) (ret int) {
	if n, ok := o.get(key); ok {
		var err error
		if ret, err = decodeInt(n, field(o.path, key)); err != nil {
			o.fail(err)
		}
	}
	return ret
}

func (o *object) floatField(key string, required bool) (ret float64) {
	n, ok := o.get(key)
	if required {
		n, ok = o.require(key)
	}
	if ok {
		var err error
		if ret, err = decodeFloat(n, field(o.path, key)); err != nil {
			o.fail(err)
		}
	}
	return ret
}

func (o *object) stringField(key string) (ret string) {
	if n, ok := o.get(key); ok {
		var err error
		if ret, err = decodeString(n, field(o.path, key)); err != nil {
			o.fail(err)
		}
	}
	return ret
}

func (o *object) boolField(key string, def bool) bool {
	if n, ok := o.get(key); ok {
		ret, err := decodeBool(n, field(o.path, key))
		if err != nil {
			o.fail(err)
		}
		return ret
	}
	return def
}

// sequence returns the items of the array under key; nil if the key is absent.
func (o *object) sequence(key string) ([]*yaml.Node, bool) {
	n, ok := o.get(key)
	if !ok {
		return nil, false
	}
	n = resolve(n)
	if n.Kind != yaml.SequenceNode {
		o.fail(typeError(n, field(o.path, key), "array"))
		return nil, false
	}
	return n.Content, true
}

func decodeExpression(n *yaml.Node, path string) (ustx.Expression, error) {
	v, err := decodeFloat(n, path)
	if err != nil {
		return ustx.Expression{}, err
	}
	return ustx.Expression{Value: v}, nil
}

func decodeNote(n *yaml.Node, path string) (*ustx.Note, error) {
	o, err := newObject(n, path)
	if err != nil {
		return nil, err
	}
	note := &ustx.Note{
		Position: o.intField("pos"),
		Duration: o.intField("dur"),
		NoteNum:  o.intField("num"),
		Lyric:    o.stringField("lrc"),
		Pitch:    ustx.DefaultPitchCurve(),
	}
	if items, ok := o.sequence("pho"); ok {
		note.Phonemes = make([]ustx.Phoneme, 0, len(items))
		for i, item := range items {
			p, err := decodePhoneme(item, index(field(path, "pho"), i))
			if err != nil {
				return nil, err
			}
			note.Phonemes = append(note.Phonemes, p)
		}
	}
	if pit, ok := o.get("pit"); ok {
		if note.Pitch, err = decodePitch(pit, field(path, "pit")); err != nil {
			return nil, err
		}
	}
	if vbr, ok := o.get("vbr"); ok {
		if note.Vibrato, err = decodeVibrato(vbr, field(path, "vbr")); err != nil {
			return nil, err
		}
	}
	note.Expressions = map[string]ustx.Expression{}
	if exp, ok := o.get("exp"); ok {
		e, err := newObject(exp, field(path, "exp"))
		if err != nil {
			return nil, err
		}
		for _, k := range e.keys {
			if note.Expressions[k], err = ExpressionCodec.Decode(e.fields[k], field(e.path, k)); err != nil {
				return nil, err
			}
		}
	}
	if o.err != nil {
		return nil, o.err
	}
	return note, nil
}

func decodePhoneme(n *yaml.Node, path string) (ustx.Phoneme, error) {
	o, err := newObject(n, path)
	if err != nil {
		return ustx.Phoneme{}, err
	}
	p := ustx.Phoneme{
		Position: o.intField("position"),
		Phoneme:  o.stringField("phoneme"),
		Preutter: o.floatField("preutter", false),
		Overlap:  o.floatField("overlap", false),
		Envelope: ustx.DefaultEnvelope(),
	}
	if env, ok := o.get("envelope"); ok {
		if p.Envelope, err = decodeEnvelope(env, field(path, "envelope")); err != nil {
			return ustx.Phoneme{}, err
		}
	}
	return p, o.err
}

func decodeEnvelope(n *yaml.Node, path string) (ustx.Envelope, error) {
	var env ustx.Envelope
	o, err := newObject(n, path)
	if err != nil {
		return env, err
	}
	o.require("data")
	items, _ := o.sequence("data")
	if o.err != nil {
		return env, o.err
	}
	if len(items) != len(env.Points) {
		return env, errorAt(resolve(o.fields["data"]), field(path, "data"), fmt.Errorf("expected %v points, got %v", len(env.Points), len(items)))
	}
	for i, item := range items {
		p, err := newObject(item, index(field(path, "data"), i))
		if err != nil {
			return env, err
		}
		env.Points[i] = ustx.Point{X: p.floatField("X", true), Y: p.floatField("Y", true)}
		if p.err != nil {
			return env, p.err
		}
	}
	return env, nil
}

func decodePitch(n *yaml.Node, path string) (ustx.PitchCurve, error) {
	c := ustx.DefaultPitchCurve()
	o, err := newObject(n, path)
	if err != nil {
		return c, err
	}
	c.SnapFirst = o.boolField("snapFirst", true)
	items, _ := o.sequence("data")
	for i, item := range items {
		p, err := newObject(item, index(field(path, "data"), i))
		if err != nil {
			return c, err
		}
		pt := ustx.PitchPoint{X: p.floatField("X", true), Y: p.floatField("Y", true), Shape: ustx.ShapeInOut}
		if s := p.stringField("shape"); s != "" {
			pt.Shape = ustx.PitchPointShape(s)
		}
		if p.err != nil {
			return c, p.err
		}
		if !pt.Shape.Valid() {
			return c, errorAt(resolve(p.fields["shape"]), field(p.path, "shape"), fmt.Errorf("unknown pitch point shape %q", pt.Shape))
		}
		c.Points = append(c.Points, pt)
	}
	return c, o.err
}

func decodeVibrato(n *yaml.Node, path string) (ustx.Vibrato, error) {
	o, err := newObject(n, path)
	if err != nil {
		return ustx.Vibrato{}, err
	}
	v := ustx.Vibrato{
		Length:  o.floatField("length", false),
		Period:  o.floatField("period", false),
		Depth:   o.floatField("depth", false),
		FadeIn:  o.floatField("in", false),
		FadeOut: o.floatField("out", false),
		Shift:   o.floatField("shift", false),
		Drift:   o.floatField("drift", false),
	}
	return v, o.err
}
