// Package midiimport converts the notes of a Standard MIDI File into ustx
// notes.
package midiimport

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/CantTolerateYou/ustx"
)

// Resolution is the number of ticks per quarter note in ustx notes.
const Resolution = 480

// DefaultLyric is used for notes with no lyric event.
const DefaultLyric = "a"

type (
	// Options control the conversion. The zero value is usable.
	Options struct {
		// Registry is used to bind the velocity of the MIDI notes to the
		// "vel" expression. With no registry, or no "vel" descriptor in it,
		// velocities are dropped.
		Registry *ustx.ExpressionRegistry

		// Lyric is the lyric of notes that have no lyric meta event at their
		// start. Defaults to DefaultLyric.
		Lyric string
	}

	pending struct {
		start    uint64
		velocity uint8
		lyric    string
	}
)

var ErrSMPTE = errors.New("SMPTE time format is not supported")

// Read reads a Standard MIDI File from r and returns its notes, sorted by
// position and note number. The notes of all tracks and channels are returned
// as they are, overlapping notes included.
func Read(r io.Reader, opts Options) ([]*ustx.Note, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("could not read midi: %w", err)
	}
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, ErrSMPTE
	}
	if opts.Lyric == "" {
		opts.Lyric = DefaultLyric
	}
	velocity, _ := opts.Registry.Lookup("vel")
	var notes []*ustx.Note
	for _, track := range s.Tracks {
		notes = append(notes, readTrack(track, uint64(ticks.Resolution()), velocity, opts.Lyric)...)
	}
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].Position != notes[j].Position {
			return notes[i].Position < notes[j].Position
		}
		return notes[i].NoteNum < notes[j].NoteNum
	})
	return notes, nil
}

func readTrack(track smf.Track, resolution uint64, velocity *ustx.ExpressionDescriptor, defaultLyric string) []*ustx.Note {
	var notes []*ustx.Note
	var open [16][128]*pending
	var abs uint64
	lyric, lyricTime := "", uint64(0)
	closeNote := func(ch, key uint8) {
		p := open[ch][key]
		if p == nil {
			return
		}
		open[ch][key] = nil
		note := ustx.NewNote()
		note.Position = int(p.start * Resolution / resolution)
		note.Duration = int(abs*Resolution/resolution) - note.Position
		note.NoteNum = int(key)
		note.Lyric = p.lyric
		if velocity != nil {
			note.SetExpression(ustx.NewExpressionValue(velocity, float64(p.velocity)))
		}
		if note.Duration > 0 {
			notes = append(notes, note)
		}
	}
	for _, ev := range track {
		abs += uint64(ev.Delta)
		msg := midi.Message(ev.Message)
		var ch, key, vel uint8
		var text string
		switch {
		case ev.Message.GetMetaLyric(&text):
			lyric, lyricTime = text, abs
		case msg.GetNoteStart(&ch, &key, &vel):
			closeNote(ch, key)
			p := &pending{start: abs, velocity: vel, lyric: defaultLyric}
			if lyric != "" && lyricTime == abs {
				p.lyric = lyric
			}
			open[ch][key] = p
		case msg.GetNoteEnd(&ch, &key):
			closeNote(ch, key)
		}
	}
	for ch := range open {
		for key := range open[ch] {
			closeNote(uint8(ch), uint8(key))
		}
	}
	return notes
}
