package midi

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/himanishpuri/ScoreSync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// buildSMF writes a tempo track and two note tracks at 120 BPM with 480 ticks per quarter,
// so 480 ticks = 0.5s, and reads it back the way a real file would be.
func buildSMF(t *testing.T) *smf.SMF {
	t.Helper()

	s := smf.NewSMF1()
	s.TimeFormat = smf.MetricTicks(480)

	var tempo smf.Track
	tempo.Add(0, smf.MetaTempo(120))
	tempo.Close(0)
	require.NoError(t, s.Add(tempo))

	var upper smf.Track
	upper.Add(0, gomidi.NoteOn(1, 72, 90))
	upper.Add(480, gomidi.NoteOff(1, 72))
	upper.Add(0, gomidi.NoteOn(1, 74, 90))
	upper.Add(960, gomidi.NoteOn(1, 74, 0)) // running-status style note off
	upper.Close(0)
	require.NoError(t, s.Add(upper))

	var lower smf.Track
	lower.Add(0, gomidi.NoteOn(0, 48, 80))
	lower.Add(1440, gomidi.NoteOff(0, 48))
	lower.Add(0, gomidi.NoteOn(0, 50, 80)) // never released
	lower.Close(0)
	require.NoError(t, s.Add(lower))

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)

	read, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	return read
}

func TestExtractNoteEventsUsesTempoMap(t *testing.T) {
	events, st, err := ExtractNoteEvents(buildSMF(t), Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, st.Notes)
	assert.Equal(t, 1, st.Unclosed)
	assert.Equal(t, []model.MidiNoteEvent{
		{Pitch: 72, OnSec: 0, OffSec: 0.5, Channel: 1},
		{Pitch: 48, OnSec: 0, OffSec: 1.5, Channel: 0},
		{Pitch: 74, OnSec: 0.5, OffSec: 1.5, Channel: 1},
	}, events)
}

func TestExtractNoteEventsFitDuration(t *testing.T) {
	events, st, err := ExtractNoteEvents(buildSMF(t), Options{FitDuration: 3})
	require.NoError(t, err)
	require.Equal(t, int64(1440), st.MaxTick)

	// 1440 ticks are stretched to 3 seconds
	assert.InDelta(t, 1.0, events[0].OffSec, 1e-9)
	assert.InDelta(t, 3.0, events[1].OffSec, 1e-9)
}

func TestExtractNoteEventsNilFile(t *testing.T) {
	_, _, err := ExtractNoteEvents(nil, Options{})
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "score.midi")
	var buf bytes.Buffer
	_, err := buildSMF(t).WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	s, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, s.Tracks, 3)

	bad := filepath.Join(dir, "bad.midi")
	require.NoError(t, os.WriteFile(bad, []byte("not a midi file"), 0o644))
	_, err = ReadFile(bad)
	assert.Error(t, err)

	_, err = ReadFile(filepath.Join(dir, "missing.midi"))
	assert.Error(t, err)
}
