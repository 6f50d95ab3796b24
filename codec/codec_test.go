package codec_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/CantTolerateYou/ustx"
	"github.com/CantTolerateYou/ustx/codec"
)

const expectedNote = `{
  "pos": 120,
  "dur": 60,
  "num": 42,
  "lrc": "あ",
  "pho": [
    {
      "position": 0,
      "phoneme": "a",
      "preutter": 0.0,
      "overlap": 0.0,
      "envelope": {
        "data": [
          {
            "X": 0.0,
            "Y": 0.0
          },
          {
            "X": 0.0,
            "Y": 100.0
          },
          {
            "X": 0.0,
            "Y": 100.0
          },
          {
            "X": 0.0,
            "Y": 100.0
          },
          {
            "X": 0.0,
            "Y": 0.0
          }
        ]
      }
    }
  ],
  "pit": {
    "data": [],
    "snapFirst": true
  },
  "vbr": {
    "length": 0.0,
    "period": 0.0,
    "depth": 0.0,
    "in": 0.0,
    "out": 0.0,
    "shift": 0.0,
    "drift": 0.0
  },
  "exp": {
    "vel": 123.0
  }
}`

var velocity = ustx.NewExpressionDescriptor("velocity", "vel", 0, 200, 100)

func testNote(t *testing.T) *ustx.Note {
	note := ustx.NewNote()
	note.Position = 120
	note.Duration = 60
	note.NoteNum = 42
	note.Lyric = "あ"
	if err := note.SetExpression(ustx.NewExpressionValue(velocity, 123)); err != nil {
		t.Fatalf("SetExpression failed: %v", err)
	}
	return note
}

func TestExpressionMarshal(t *testing.T) {
	b, err := codec.MarshalExpression(ustx.NewExpressionValue(velocity, 123))
	if err != nil {
		t.Fatalf("cannot marshal expression: %v", err)
	}
	if string(b) != "123.0" {
		t.Fatalf("expression marshaled to %q, expected %q", b, "123.0")
	}
}

func TestExpressionUnmarshal(t *testing.T) {
	e, err := codec.UnmarshalExpression([]byte("123.0"))
	if err != nil {
		t.Fatalf("cannot unmarshal expression: %v", err)
	}
	if e.Descriptor != nil {
		t.Fatalf("unmarshaled expression should not have a descriptor, got %v", e.Descriptor)
	}
	if e.Value != 123 {
		t.Fatalf("unmarshaled expression has value %v, expected 123", e.Value)
	}
}

func TestExpressionUnmarshalOutOfRange(t *testing.T) {
	e, err := codec.UnmarshalExpression([]byte("-1000"))
	if err != nil {
		t.Fatalf("out of range values should decode, got %v", err)
	}
	if e.Value != -1000 {
		t.Fatalf("unmarshaled expression has value %v, expected -1000", e.Value)
	}
}

func TestNoteMarshal(t *testing.T) {
	b, err := codec.MarshalNote(testNote(t))
	if err != nil {
		t.Fatalf("cannot marshal note: %v", err)
	}
	if string(b) != expectedNote {
		t.Fatalf("note marshaled to unexpected result, got\n%v\nexpected\n%v", string(b), expectedNote)
	}
}

func TestNoteUnmarshal(t *testing.T) {
	note, err := codec.UnmarshalNote([]byte(expectedNote))
	if err != nil {
		t.Fatalf("cannot unmarshal note: %v", err)
	}
	if note.Position != 120 || note.Duration != 60 || note.NoteNum != 42 || note.Lyric != "あ" {
		t.Fatalf("unexpected note header: %+v", note)
	}
	if len(note.Phonemes) != 1 {
		t.Fatalf("expected 1 phoneme, got %v", len(note.Phonemes))
	}
	if p := note.Phonemes[0]; p.Position != 0 || p.Phoneme != "a" || p.Preutter != 0 || p.Overlap != 0 {
		t.Fatalf("unexpected phoneme: %+v", p)
	}
	if note.Phonemes[0].Envelope != ustx.DefaultEnvelope() {
		t.Fatalf("unexpected envelope: %+v", note.Phonemes[0].Envelope)
	}
	if len(note.Expressions) != 1 {
		t.Fatalf("expected 1 expression, got %v", len(note.Expressions))
	}
	vel, ok := note.Expressions["vel"]
	if !ok {
		t.Fatalf("expression vel missing")
	}
	if vel.Descriptor != nil {
		t.Fatalf("unmarshaled expression should not have a descriptor")
	}
	if vel.Value != 123 {
		t.Fatalf("vel has value %v, expected 123", vel.Value)
	}
}

func TestNoteRoundTrip(t *testing.T) {
	note := testNote(t)
	note.Phonemes = append(note.Phonemes, ustx.Phoneme{
		Position: 30,
		Phoneme:  "ka",
		Preutter: 12.5,
		Overlap:  -3.25,
		Envelope: ustx.Envelope{Points: [5]ustx.Point{{X: 0, Y: 0}, {X: 5.5, Y: 80}, {X: 10, Y: 100}, {X: 20, Y: 90}, {X: 30.25, Y: 0}}},
	})
	note.Pitch.AddPoint(ustx.PitchPoint{X: -25, Y: 0, Shape: ustx.ShapeLine})
	note.Pitch.AddPoint(ustx.PitchPoint{X: 25, Y: 1.5})
	note.Pitch.SnapFirst = false
	note.Vibrato = ustx.Vibrato{Length: 75, Period: 175, Depth: 25, FadeIn: 10, FadeOut: 20, Shift: 0.5, Drift: -1}
	gender := ustx.NewExpressionDescriptor("gender", "gen", -100, 100, 0)
	if err := note.SetExpression(ustx.NewExpression(gender)); err != nil {
		t.Fatalf("SetExpression failed: %v", err)
	}
	formats := []struct {
		name      string
		marshal   func(*ustx.Note) ([]byte, error)
		unmarshal func([]byte) (*ustx.Note, error)
	}{
		{"json", codec.MarshalNote, codec.UnmarshalNote},
		{"yml", codec.MarshalNoteYAML, codec.UnmarshalNoteYAML},
		{"json via ReadNote", codec.MarshalNote, codec.ReadNote},
		{"yml via ReadNote", codec.MarshalNoteYAML, codec.ReadNote},
	}
	for _, f := range formats {
		t.Run(f.name, func(t *testing.T) {
			b, err := f.marshal(note)
			if err != nil {
				t.Fatalf("cannot marshal note: %v", err)
			}
			actual, err := f.unmarshal(b)
			if err != nil {
				t.Fatalf("cannot unmarshal note: %v\n%v", err, string(b))
			}
			expected := note.Copy()
			expected.Pitch.Points[1].Shape = ustx.ShapeInOut
			expected.Expressions = map[string]ustx.Expression{
				"vel": {Value: 123},
				"gen": {Value: 0},
			}
			if !reflect.DeepEqual(*actual, expected) {
				t.Fatalf("round trip gave\n%#v\nexpected\n%#v", *actual, expected)
			}
		})
	}
}

func TestYAMLLayout(t *testing.T) {
	b, err := codec.MarshalNoteYAML(testNote(t))
	if err != nil {
		t.Fatalf("cannot marshal note: %v", err)
	}
	for _, line := range []string{"pos: 120\n", "lrc: あ\n", "  data: []\n", "  snapFirst: true\n", "  vel: 123.0\n", "      - X: 0.0\n"} {
		if !strings.Contains(string(b), line) {
			t.Errorf("yml output does not contain %q:\n%v", line, string(b))
		}
	}
}

func TestWriteJSONCompact(t *testing.T) {
	var sb strings.Builder
	if err := codec.WriteJSON(&sb, codec.NoteCodec.Encode(testNote(t)), ""); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	const prefix = `{"pos":120,"dur":60,"num":42,"lrc":"あ","pho":[{"position":0,"phoneme":"a","preutter":0.0,`
	if !strings.HasPrefix(sb.String(), prefix) {
		t.Fatalf("compact json %v does not start with %v", sb.String(), prefix)
	}
	if !strings.HasSuffix(sb.String(), `"pit":{"data":[],"snapFirst":true},"vbr":{"length":0.0,"period":0.0,"depth":0.0,"in":0.0,"out":0.0,"shift":0.0,"drift":0.0},"exp":{"vel":123.0}}`) {
		t.Fatalf("unexpected compact json %v", sb.String())
	}
}

func TestExpressionsSorted(t *testing.T) {
	note := ustx.NewNote()
	note.Duration = 480
	r := ustx.DefaultExpressionRegistry()
	for _, abbr := range []string{"vol", "atk", "vel"} {
		d, _ := r.Lookup(abbr)
		note.SetExpression(ustx.NewExpression(d))
	}
	b, err := codec.MarshalNote(note)
	if err != nil {
		t.Fatalf("cannot marshal note: %v", err)
	}
	if !strings.Contains(string(b), "\"exp\": {\n    \"atk\": 100.0,\n    \"vel\": 100.0,\n    \"vol\": 100.0\n  }") {
		t.Fatalf("expressions should be written in sorted order:\n%v", string(b))
	}
}

func TestFloatFormatting(t *testing.T) {
	cases := []struct {
		value    float64
		expected string
	}{
		{123, "123.0"},
		{0, "0.0"},
		{-5, "-5.0"},
		{0.5, "0.5"},
		{12.125, "12.125"},
		{1e20, "1E+20"},
		{1.5e-7, "1.5E-07"},
	}
	for _, c := range cases {
		b, err := codec.MarshalExpression(ustx.Expression{Value: c.value})
		if err != nil {
			t.Fatalf("cannot marshal %v: %v", c.value, err)
		}
		if string(b) != c.expected {
			t.Errorf("%v marshaled to %v, expected %v", c.value, string(b), c.expected)
		}
		e, err := codec.UnmarshalExpression(b)
		if err != nil {
			t.Fatalf("cannot unmarshal %v: %v", string(b), err)
		}
		if e.Value != c.value {
			t.Errorf("%v read back as %v", string(b), e.Value)
		}
	}
}

func TestPhonemesAbsentOrEmpty(t *testing.T) {
	absent, err := codec.UnmarshalNote([]byte(`{"pos": 0, "dur": 480, "num": 60, "lrc": "a"}`))
	if err != nil {
		t.Fatalf("cannot unmarshal note without pho: %v", err)
	}
	if absent.Phonemes != nil {
		t.Fatalf("absent pho should decode to nil, got %#v", absent.Phonemes)
	}
	if !reflect.DeepEqual(absent.Pitch, ustx.DefaultPitchCurve()) {
		t.Fatalf("absent pit should decode to the default curve, got %#v", absent.Pitch)
	}
	if absent.Vibrato != (ustx.Vibrato{}) {
		t.Fatalf("absent vbr should decode to zero vibrato, got %#v", absent.Vibrato)
	}
	if absent.Expressions == nil || len(absent.Expressions) != 0 {
		t.Fatalf("absent exp should decode to an empty map, got %#v", absent.Expressions)
	}
	empty, err := codec.UnmarshalNote([]byte(`{"pos": 0, "dur": 480, "num": 60, "lrc": "a", "pho": []}`))
	if err != nil {
		t.Fatalf("cannot unmarshal note with empty pho: %v", err)
	}
	if empty.Phonemes == nil || len(empty.Phonemes) != 0 {
		t.Fatalf("empty pho should decode to an empty slice, got %#v", empty.Phonemes)
	}
}

func TestDecodeDefaults(t *testing.T) {
	note, err := codec.UnmarshalNote([]byte(`{"pho": [{"phoneme": "ka"}], "pit": {"data": [{"X": 1, "Y": 2}]}, "vbr": null}`))
	if err != nil {
		t.Fatalf("cannot unmarshal note: %v", err)
	}
	if note.Phonemes[0].Envelope != ustx.DefaultEnvelope() {
		t.Fatalf("absent envelope should decode to the default envelope, got %+v", note.Phonemes[0].Envelope)
	}
	if !note.Pitch.SnapFirst {
		t.Fatalf("absent snapFirst should default to true")
	}
	if p := note.Pitch.Points[0]; p != (ustx.PitchPoint{X: 1, Y: 2, Shape: ustx.ShapeInOut}) {
		t.Fatalf("unexpected pitch point %+v", p)
	}
}

func TestUnknownExpressionKeys(t *testing.T) {
	note, err := codec.UnmarshalNote([]byte(`{"dur": 480, "pho": [], "exp": {"zzz": 5, "vel": 80.0}}`))
	if err != nil {
		t.Fatalf("unknown expression keys should decode, got %v", err)
	}
	unknown := note.BindExpressions(ustx.DefaultExpressionRegistry())
	if !reflect.DeepEqual(unknown, []string{"zzz"}) {
		t.Fatalf("expected unknown keys [zzz], got %v", unknown)
	}
	if !note.Expressions["vel"].Bound() || note.Expressions["vel"].Value != 80 {
		t.Fatalf("vel should be bound with value 80, got %+v", note.Expressions["vel"])
	}
	if note.Expressions["zzz"].Bound() || note.Expressions["zzz"].Value != 5 {
		t.Fatalf("zzz should be unbound with value 5, got %+v", note.Expressions["zzz"])
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		path  string
	}{
		{"non-numeric expression", `{"exp": {"vel": "loud"}}`, "exp.vel"},
		{"null expression", `{"exp": {"vel": null}}`, "exp.vel"},
		{"boolean expression", `{"exp": {"vel": true}}`, "exp.vel"},
		{"string position", `{"pos": "120"}`, "pos"},
		{"fractional duration", `{"dur": 60.5}`, "dur"},
		{"numeric lyric", `{"lrc": 1}`, "lrc"},
		{"pho not an array", `{"pho": {}}`, "pho"},
		{"phoneme not an object", `{"pho": [1]}`, "pho[0]"},
		{"string preutter", `{"pho": [{"preutter": "0"}]}`, "pho[0].preutter"},
		{"short envelope", `{"pho": [{"envelope": {"data": [{"X": 0, "Y": 0}]}}]}`, "pho[0].envelope.data"},
		{"envelope without data", `{"pho": [{"envelope": {}}]}`, "pho[0].envelope.data"},
		{"envelope point without Y", `{"pho": [{"envelope": {"data": [{"X": 0, "Y": 0}, {"X": 0, "Y": 0}, {"X": 0}, {"X": 0, "Y": 0}, {"X": 0, "Y": 0}]}}]}`, "pho[0].envelope.data[2].Y"},
		{"string snapFirst", `{"pit": {"snapFirst": "yes"}}`, "pit.snapFirst"},
		{"unknown shape", `{"pit": {"data": [{"X": 0, "Y": 0, "shape": "zigzag"}]}}`, "pit.data[0].shape"},
		{"vbr not an object", `{"vbr": []}`, "vbr"},
		{"string vibrato depth", `{"vbr": {"depth": "deep"}}`, "vbr.depth"},
		{"exp not an object", `{"exp": [1, 2]}`, "exp"},
		{"not an object", `[]`, ""},
		{"syntax error", `{"pos": 120,`, ""},
		{"trailing data", `{} {}`, ""},
		{"empty input", ``, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			note, err := codec.UnmarshalNote([]byte(c.input))
			if err == nil {
				t.Fatalf("expected an error, got note %+v", note)
			}
			if note != nil {
				t.Fatalf("no note should be returned on error, got %+v", note)
			}
			var decodeErr *codec.DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected a *DecodeError, got %T: %v", err, err)
			}
			if decodeErr.Path != c.path {
				t.Fatalf("error %q has path %q, expected %q", err, decodeErr.Path, c.path)
			}
		})
	}
}

func TestUnmarshalExpressionErrors(t *testing.T) {
	for _, input := range []string{`"123"`, `{}`, `null`, `true`, `123 456`} {
		if _, err := codec.UnmarshalExpression([]byte(input)); err == nil {
			t.Errorf("unmarshaling %v should fail", input)
		}
	}
}

func TestYAMLDecodeErrorPosition(t *testing.T) {
	input := "pos: 120\ndur: 60\nexp:\n  vel: loud\n"
	_, err := codec.UnmarshalNoteYAML([]byte(input))
	var decodeErr *codec.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected a *DecodeError, got %v", err)
	}
	if decodeErr.Path != "exp.vel" || decodeErr.Line != 4 || decodeErr.Column != 8 {
		t.Fatalf("unexpected error location: %+v", decodeErr)
	}
}

func TestReadNoteErrors(t *testing.T) {
	// valid json with the wrong shape is not retried as yml
	_, err := codec.ReadNote([]byte(`{"exp": {"vel": "loud"}}`))
	var decodeErr *codec.DecodeError
	if !errors.As(err, &decodeErr) || decodeErr.Path != "exp.vel" {
		t.Fatalf("expected a DecodeError at exp.vel, got %v", err)
	}
	if _, err := codec.ReadNote([]byte("pos: [1\n")); err == nil {
		t.Fatalf("ReadNote should fail on input that is neither json nor yml")
	}
}
