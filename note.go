// Package ustx is the data model of a note in a singing voice synthesis
// editor: timing, pitch, lyric, phonemes and the expression parameters used to
// render it. Reading and writing notes is done by package codec.
package ustx

import (
	"errors"
	"fmt"
)

// Note is one lyrical event of a voice part: its timing, pitch, lyric and the
// parameters used when rendering it. Position and Duration are in ticks, 480
// ticks per quarter note.
type Note struct {
	Position int
	Duration int
	NoteNum  int // MIDI note number, 60 = C4
	Lyric    string

	// Phonemes is the list of phonemes the note is rendered with. It is
	// derived from the lyric by the phonemizer of the host; a new note starts
	// with a single placeholder phoneme "a".
	Phonemes []Phoneme

	Pitch   PitchCurve
	Vibrato Vibrato

	// Expressions maps the abbreviation of an expression to its value. The key
	// is authoritative: expressions read from a file have no descriptor and
	// are bound again using their key.
	Expressions map[string]Expression
}

// NewNote returns a note with one default phoneme "a", an empty pitch curve,
// no vibrato and no expressions.
func NewNote() *Note {
	return &Note{
		Phonemes:    []Phoneme{NewPhoneme("a")},
		Pitch:       DefaultPitchCurve(),
		Expressions: map[string]Expression{},
	}
}

// End returns the position just after the note.
func (n *Note) End() int {
	return n.Position + n.Duration
}

// SetExpression stores e under the abbreviation of its descriptor, replacing
// any previous value with the same key.
func (n *Note) SetExpression(e Expression) error {
	if !e.Bound() {
		return errUnbound
	}
	if n.Expressions == nil {
		n.Expressions = map[string]Expression{}
	}
	n.Expressions[e.Descriptor.Abbr] = e
	return nil
}

// ExpressionValues returns the bare values of the expressions, dropping the
// descriptors.
func (n *Note) ExpressionValues() ExpressionValues {
	ret := make(ExpressionValues, len(n.Expressions))
	for k, e := range n.Expressions {
		ret[k] = e.Value
	}
	return ret
}

// BindExpressions binds every expression of the note to the descriptor of r
// with the same key. Expressions with an unknown key are left unbound and
// their keys are returned; it's up to the caller to keep or delete them.
func (n *Note) BindExpressions(r *ExpressionRegistry) (unknown []string) {
	n.Expressions, unknown = n.ExpressionValues().Bind(r)
	return unknown
}

// Copy makes a deep copy of a Note. Descriptors are shared, not copied.
func (n *Note) Copy() Note {
	var phonemes []Phoneme
	if n.Phonemes != nil {
		phonemes = make([]Phoneme, len(n.Phonemes))
		copy(phonemes, n.Phonemes)
	}
	expressions := make(map[string]Expression, len(n.Expressions))
	for k, e := range n.Expressions {
		expressions[k] = e
	}
	return Note{
		Position:    n.Position,
		Duration:    n.Duration,
		NoteNum:     n.NoteNum,
		Lyric:       n.Lyric,
		Phonemes:    phonemes,
		Pitch:       n.Pitch.Copy(),
		Vibrato:     n.Vibrato,
		Expressions: expressions,
	}
}

// Validate checks the invariants of a note that is about to be persisted.
func (n *Note) Validate() error {
	if n.Duration <= 0 {
		return errors.New("note duration should be > 0")
	}
	if n.NoteNum < 0 || n.NoteNum > 127 {
		return fmt.Errorf("note number %v is not in the range 0..127", n.NoteNum)
	}
	if len(n.Phonemes) == 0 {
		return errors.New("note should have at least one phoneme")
	}
	for i, p := range n.Pitch.Points {
		if p.Shape != "" && !p.Shape.Valid() {
			return fmt.Errorf("pitch point %v has unknown shape %q", i, p.Shape)
		}
	}
	for k, e := range n.Expressions {
		if e.Bound() && e.Descriptor.Abbr != k {
			return fmt.Errorf("expression %q is stored under key %q", e.Descriptor.Abbr, k)
		}
	}
	return nil
}
