package ustx

import "sort"

type (
	// PitchPointShape tells how the pitch curve is interpolated from a point to
	// the next one.
	PitchPointShape string

	// PitchPoint is a control point of a pitch curve. X is in milliseconds
	// relative to the start of the note, Y is in tenths of a semitone relative
	// to the note pitch.
	PitchPoint struct {
		X     float64
		Y     float64
		Shape PitchPointShape
	}

	// PitchCurve is the user drawn pitch bend of a note. When SnapFirst is
	// true, the first point is snapped to the pitch of the previous note.
	PitchCurve struct {
		Points    []PitchPoint
		SnapFirst bool
	}

	// Vibrato describes the periodic pitch oscillation of a note. Length,
	// FadeIn and FadeOut are percents of the note length, Period is in
	// milliseconds and Depth in cents.
	Vibrato struct {
		Length  float64
		Period  float64
		Depth   float64
		FadeIn  float64
		FadeOut float64
		Shift   float64
		Drift   float64
	}
)

const (
	ShapeInOut PitchPointShape = "io" // ease in and out
	ShapeLine  PitchPointShape = "l"  // linear
	ShapeIn    PitchPointShape = "i"  // ease in
	ShapeOut   PitchPointShape = "o"  // ease out
)

// Valid reports if s is one of the known shapes.
func (s PitchPointShape) Valid() bool {
	switch s {
	case ShapeInOut, ShapeLine, ShapeIn, ShapeOut:
		return true
	}
	return false
}

// DefaultPitchCurve returns an empty curve that snaps to the previous note.
func DefaultPitchCurve() PitchCurve {
	return PitchCurve{Points: []PitchPoint{}, SnapFirst: true}
}

// AddPoint inserts p keeping the points ordered by X. A point with the same X
// as an existing point is inserted after it.
func (c *PitchCurve) AddPoint(p PitchPoint) int {
	i := sort.Search(len(c.Points), func(i int) bool { return c.Points[i].X > p.X })
	c.Points = append(c.Points, PitchPoint{})
	copy(c.Points[i+1:], c.Points[i:])
	c.Points[i] = p
	return i
}

// RemovePoint removes the point at index i; out of range indices are ignored.
func (c *PitchCurve) RemovePoint(i int) {
	if i < 0 || i >= len(c.Points) {
		return
	}
	c.Points = append(c.Points[:i], c.Points[i+1:]...)
}

// Copy makes a deep copy of a PitchCurve.
func (c *PitchCurve) Copy() PitchCurve {
	points := make([]PitchPoint, len(c.Points))
	copy(points, c.Points)
	return PitchCurve{Points: points, SnapFirst: c.SnapFirst}
}

// Enabled reports if the vibrato has any audible effect.
func (v Vibrato) Enabled() bool {
	return v.Length > 0 && v.Depth != 0
}
