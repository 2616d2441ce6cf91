package align

import (
	"errors"
	"fmt"
	"testing"

	"github.com/himanishpuri/ScoreSync/internal/model"
	"github.com/himanishpuri/ScoreSync/internal/ties"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Debugf(string, ...any) {}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func mustForest(t *testing.T, edges ...model.TieEdge) *ties.Forest {
	t.Helper()
	f, err := ties.NewForest(edges)
	require.NoError(t, err)
	return f
}

func TestSingleNoteEndToEnd(t *testing.T) {
	events := []model.MidiNoteEvent{{Pitch: 60, OnSec: 0.0, OffSec: 0.5, Channel: 0}}
	heads := []model.SvgNotehead{{X: 1.0, Y: 1.0, Href: "f1:1:5", Snippet: "c"}}

	notes, rep, err := New(nil).Align(events, heads, mustForest(t))
	require.NoError(t, err)
	assert.Equal(t, []model.AlignedNote{{
		Hrefs:   []string{"f1:1:5"},
		OnSec:   0.0,
		OffSec:  0.5,
		Pitch:   60,
		Channel: 0,
	}}, notes)
	assert.Equal(t, 1, rep.Aligned)
	assert.False(t, rep.LengthMismatch)
}

func TestMismatchAbortsWithNoOutput(t *testing.T) {
	events := []model.MidiNoteEvent{
		{Pitch: 60, OnSec: 0.0, OffSec: 0.5},
		{Pitch: 62, OnSec: 0.5, OffSec: 1.0},
	}
	heads := []model.SvgNotehead{
		{X: 1, Y: 1, Href: "f1:1:5", Snippet: "d"},
		{X: 2, Y: 1, Href: "f1:1:7", Snippet: "d"},
	}

	notes, _, err := New(nil).Align(events, heads, nil)
	assert.Empty(t, notes)

	var mm *MismatchError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, 0, mm.Index)
	assert.Equal(t, 0, mm.MidiPitchClass)
	assert.Equal(t, 2, mm.SnippetPitchClass)
	assert.Equal(t, "f1:1:5", mm.Href)
}

func TestUndecodableSnippetIsAMismatch(t *testing.T) {
	events := []model.MidiNoteEvent{{Pitch: 60}}
	heads := []model.SvgNotehead{{Href: "x", Snippet: "q"}}

	_, _, err := New(nil).Align(events, heads, nil)
	var mm *MismatchError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, -1, mm.SnippetPitchClass)
}

func TestOrderingAndTieChains(t *testing.T) {
	// Two simultaneous notes on different channels, then a tied note.
	events := []model.MidiNoteEvent{
		{Pitch: 67, OnSec: 1.0, OffSec: 3.0, Channel: 0},
		{Pitch: 48, OnSec: 0.0, OffSec: 1.0, Channel: 0},
		{Pitch: 64, OnSec: 0.0, OffSec: 1.0, Channel: 1},
	}
	heads := []model.SvgNotehead{
		{X: 30, Y: 10, Href: "g2", Snippet: "g''"}, // tie continuation
		{X: 20, Y: 10, Href: "g1", Snippet: "g''"},
		{X: 10, Y: 40, Href: "e1", Snippet: "e''"}, // larger y pairs first
		{X: 10, Y: 10, Href: "c1", Snippet: "c"},
	}
	forest := mustForest(t, model.TieEdge{Primary: "g1", Secondary: "g2"})

	notes, rep, err := New(nil).Align(events, heads, forest)
	require.NoError(t, err)
	require.Len(t, notes, 3)

	// channel 1 sorts first at t=0, and the larger y comes first at x=10
	assert.Equal(t, []string{"e1"}, notes[0].Hrefs)
	assert.Equal(t, 64, notes[0].Pitch)
	assert.Equal(t, []string{"c1"}, notes[1].Hrefs)
	assert.Equal(t, 48, notes[1].Pitch)
	assert.Equal(t, []string{"g1", "g2"}, notes[2].Hrefs)
	assert.Equal(t, 3.0, notes[2].OffSec)
	assert.Equal(t, 1, rep.SecondaryHidden)
}

func TestLengthMismatchWarnsAndTruncates(t *testing.T) {
	events := []model.MidiNoteEvent{
		{Pitch: 60, OnSec: 0},
		{Pitch: 62, OnSec: 1},
		{Pitch: 64, OnSec: 2},
	}
	heads := []model.SvgNotehead{
		{X: 1, Href: "a", Snippet: "c"},
		{X: 2, Href: "b", Snippet: "d"},
	}
	log := &recordingLogger{}

	notes, rep, err := New(log).Align(events, heads, nil)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
	assert.True(t, rep.LengthMismatch)
	assert.Len(t, log.warnings, 1)
}

func TestAlignDoesNotReorderCallerSlices(t *testing.T) {
	events := []model.MidiNoteEvent{{Pitch: 62, OnSec: 1}, {Pitch: 60, OnSec: 0}}
	heads := []model.SvgNotehead{{X: 2, Href: "b", Snippet: "d"}, {X: 1, Href: "a", Snippet: "c"}}

	_, _, err := New(nil).Align(events, heads, nil)
	require.NoError(t, err)
	assert.Equal(t, 62, events[0].Pitch)
	assert.Equal(t, "b", heads[0].Href)
}

func TestFilterPrimariesIsIdempotent(t *testing.T) {
	heads := []model.SvgNotehead{{Href: "a"}, {Href: "b"}, {Href: "c"}}
	forest := mustForest(t, model.TieEdge{Primary: "a", Secondary: "b"})

	once := FilterPrimaries(heads, forest)
	twice := FilterPrimaries(once, forest)
	assert.Equal(t, once, twice)
	assert.Equal(t, []model.SvgNotehead{{Href: "a"}, {Href: "c"}}, once)
}

func TestSortEventsTieBreaks(t *testing.T) {
	events := []model.MidiNoteEvent{
		{Pitch: 70, OnSec: 0, Channel: 0},
		{Pitch: 65, OnSec: 0, Channel: 0},
		{Pitch: 50, OnSec: 0, Channel: 2},
	}
	SortEvents(events)
	assert.Equal(t, []int{50, 65, 70}, []int{events[0].Pitch, events[1].Pitch, events[2].Pitch})
}
