package ustx

type (
	// Point is a point of an envelope. X is in milliseconds relative to the
	// start of the phoneme, Y is the amplitude in percents.
	Point struct {
		X float64
		Y float64
	}

	// Envelope is the amplitude curve of a phoneme. It always has exactly five
	// points: the start, the end of the preutterance, the end of the overlap,
	// the start of the release and the end.
	Envelope struct {
		Points [5]Point
	}

	// Phoneme is one speech sound rendered within a note.
	Phoneme struct {
		Position int    // offset from the start of the note, in ticks
		Phoneme  string // phoneme symbol, e.g. "a" or "ka"
		Preutter float64
		Overlap  float64
		Envelope Envelope
	}
)

// DefaultEnvelope returns a flat full amplitude plateau. The X coordinates are
// left at zero until the renderer computes the timing of the phoneme.
func DefaultEnvelope() Envelope {
	return Envelope{Points: [5]Point{{0, 0}, {0, 100}, {0, 100}, {0, 100}, {0, 0}}}
}

// NewPhoneme returns a phoneme with the given symbol, zero timings and the
// default envelope.
func NewPhoneme(symbol string) Phoneme {
	return Phoneme{Phoneme: symbol, Envelope: DefaultEnvelope()}
}
