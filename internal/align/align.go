// Package align pairs MIDI note events with SVG noteheads.
//
// Both inputs are put into a deterministic order (performance time for the
// MIDI events, reading order for the noteheads) and zipped by position. The
// only check made on a pair is that both sides agree on pitch class; the
// first disagreement aborts the whole run because every later pair would be
// shifted as well.
package align

import (
	"fmt"
	"sort"

	"github.com/himanishpuri/ScoreSync/internal/model"
	"github.com/himanishpuri/ScoreSync/internal/pitch"
	"github.com/himanishpuri/ScoreSync/internal/ties"
)

// Logger is the subset of the project logger the aligner writes to.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// MismatchError reports the first pair whose pitch classes disagree.
type MismatchError struct {
	Index             int
	MidiPitch         int
	MidiPitchClass    int
	SnippetPitchClass int
	Snippet           string
	Href              string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("pitch class mismatch at %d: MIDI pitch=%d (%d) vs snippet %q (%d) at %s",
		e.Index, e.MidiPitch, e.MidiPitchClass, e.Snippet, e.SnippetPitchClass, e.Href)
}

// Report summarises one alignment run.
type Report struct {
	Events          int // MIDI events given
	Noteheads       int // noteheads given
	Primaries       int // noteheads left after removing tie secondaries
	Aligned         int
	LengthMismatch  bool
	SecondaryHidden int
}

// Aligner runs the alignment. The zero value is usable and logs nothing.
type Aligner struct {
	log Logger
}

// New returns an Aligner that reports warnings to log.
func New(log Logger) *Aligner {
	return &Aligner{log: log}
}

func (a *Aligner) warnf(format string, args ...any) {
	if a != nil && a.log != nil {
		a.log.Warnf(format, args...)
	}
}

func (a *Aligner) debugf(format string, args ...any) {
	if a != nil && a.log != nil {
		a.log.Debugf(format, args...)
	}
}

// FilterPrimaries drops every notehead that continues a tie.
func FilterPrimaries(heads []model.SvgNotehead, forest *ties.Forest) []model.SvgNotehead {
	out := make([]model.SvgNotehead, 0, len(heads))
	for _, h := range heads {
		if forest.IsSecondary(h.Href) {
			continue
		}
		out = append(out, h)
	}
	return out
}

// SortEvents orders events by onset, then channel descending, then pitch.
func SortEvents(events []model.MidiNoteEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.OnSec != b.OnSec {
			return a.OnSec < b.OnSec
		}
		if a.Channel != b.Channel {
			return a.Channel > b.Channel
		}
		return a.Pitch < b.Pitch
	})
}

// SortNoteheads orders noteheads left to right, then by descending y.
func SortNoteheads(heads []model.SvgNotehead) {
	sort.SliceStable(heads, func(i, j int) bool {
		a, b := heads[i], heads[j]
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y > b.Y
	})
}

// Align pairs events with noteheads. The inputs are not modified. On a pitch
// class mismatch no notes are returned and the error is a *MismatchError.
func (a *Aligner) Align(events []model.MidiNoteEvent, heads []model.SvgNotehead, forest *ties.Forest) ([]model.AlignedNote, Report, error) {
	rep := Report{Events: len(events), Noteheads: len(heads)}

	primaries := FilterPrimaries(heads, forest)
	rep.Primaries = len(primaries)
	rep.SecondaryHidden = len(heads) - len(primaries)
	a.debugf("Noteheads: %d total, %d after removing tie secondaries", len(heads), len(primaries))

	sortedEvents := make([]model.MidiNoteEvent, len(events))
	copy(sortedEvents, events)
	SortEvents(sortedEvents)
	SortNoteheads(primaries)

	n := len(sortedEvents)
	if len(primaries) != n {
		rep.LengthMismatch = true
		a.warnf("Length mismatch: %d MIDI events vs %d primary noteheads, aligning the first %d",
			len(sortedEvents), len(primaries), min(n, len(primaries)))
		n = min(n, len(primaries))
	}

	notes := make([]model.AlignedNote, 0, n)
	for i := 0; i < n; i++ {
		ev, head := sortedEvents[i], primaries[i]

		midiPC := pitch.PitchClass(ev.Pitch)
		snippetPC := pitch.PitchClass(pitch.Decode(head.Snippet))
		if snippetPC == pitch.Unknown || midiPC != snippetPC {
			return nil, rep, &MismatchError{
				Index:             i,
				MidiPitch:         ev.Pitch,
				MidiPitchClass:    midiPC,
				SnippetPitchClass: snippetPC,
				Snippet:           head.Snippet,
				Href:              head.Href,
			}
		}

		notes = append(notes, model.AlignedNote{
			Hrefs:   forest.Chain(head.Href),
			OnSec:   ev.OnSec,
			OffSec:  ev.OffSec,
			Pitch:   ev.Pitch,
			Channel: ev.Channel,
		})
	}

	rep.Aligned = len(notes)
	return notes, rep, nil
}
