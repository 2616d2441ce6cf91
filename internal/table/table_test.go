package table

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/himanishpuri/ScoreSync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMidiEventsPandasOutput(t *testing.T) {
	in := "pitch,on,off,channel\n" +
		"62,0.0,0.25,1\n" +
		"50,0.0,0.5,0\n"

	events, err := ReadMidiEvents(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []model.MidiNoteEvent{
		{Pitch: 62, OnSec: 0, OffSec: 0.25, Channel: 1},
		{Pitch: 50, OnSec: 0, OffSec: 0.5, Channel: 0},
	}, events)
}

func TestReadMidiEventsColumnOrderDoesNotMatter(t *testing.T) {
	in := "channel,off,on,pitch,extra\n2,1.5,1.0,67.0,ignored\n"

	events, err := ReadMidiEvents(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []model.MidiNoteEvent{{Pitch: 67, OnSec: 1.0, OffSec: 1.5, Channel: 2}}, events)
}

func TestReadMidiEventsErrors(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"missing column": "pitch,on,off\n60,0,1\n",
		"bad number":     "pitch,on,off,channel\nsixty,0,1,0\n",
		"fractional int": "pitch,on,off,channel\n60.5,0,1,0\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadMidiEvents(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestReadNoteheads(t *testing.T) {
	in := "index,x,y,snippet,href\n" +
		"1,10.5,-3.25,cis',textedit:///work/score.ly:12:5\n" +
		"2,11,4,\"d,\",textedit:///work/score.ly:12:10\n"

	heads, err := ReadNoteheads(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, heads, 2)
	assert.Equal(t, model.SvgNotehead{Index: 1, X: 10.5, Y: -3.25, Snippet: "cis'", Href: "textedit:///work/score.ly:12:5"}, heads[0])
	assert.Equal(t, "d,", heads[1].Snippet)
}

func TestReadNoteheadsTrimsHref(t *testing.T) {
	in := "index,x,y,snippet,href\n1,1,2,c, a.ly:1:9 \n"

	heads, err := ReadNoteheads(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, heads, 1)
	assert.Equal(t, "a.ly:1:9", heads[0].Href)
}

func TestReadTies(t *testing.T) {
	edges, err := ReadTies(strings.NewReader("primary,secondary\na.ly:1:1, a.ly:1:9\n"))
	require.NoError(t, err)
	assert.Equal(t, []model.TieEdge{{Primary: "a.ly:1:1", Secondary: "a.ly:1:9"}}, edges)
}

func TestNormalizeHref(t *testing.T) {
	assert.Equal(t, "bwv1006.ly:25:10", NormalizeHref("textedit:///work/bwv1006.ly:25:10", DefaultHrefPrefixes))
	assert.Equal(t, "f1:1:5", NormalizeHref("f1:1:5", DefaultHrefPrefixes))
	assert.Equal(t, "x", NormalizeHref("x", nil))
}

func TestWriteNotesShape(t *testing.T) {
	var buf bytes.Buffer
	err := WriteNotes(&buf, []model.AlignedNote{{Hrefs: []string{"f1:1:5"}, OnSec: 0, OffSec: 0.5, Pitch: 60, Channel: 0}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"hrefs": ["f1:1:5"], "on": 0.0, "off": 0.5, "pitch": 60, "channel": 0}]`, buf.String())
}

func TestWriteNotesEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNotes(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestFilesRoundTrip(t *testing.T) {
	dir := t.TempDir()

	heads := []model.SvgNotehead{{Index: 1, X: 1.5, Y: 2, Snippet: "fis''", Href: "s.ly:1:2"}}
	path := filepath.Join(dir, "heads.csv")
	require.NoError(t, WriteFile(path, heads, WriteNoteheads))

	got, err := ReadFile(path, ReadNoteheads)
	require.NoError(t, err)
	assert.Equal(t, heads, got)

	_, err = ReadFile(filepath.Join(dir, "missing.csv"), ReadTies)
	assert.Error(t, err)
}

func TestWriteFileReplacesWhole(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.json")
	notes := []model.AlignedNote{{Hrefs: []string{"a.ly:1:2:3"}, OnSec: 0, OffSec: 1, Pitch: 60}}
	require.NoError(t, WriteFile(path, notes, WriteNotes))

	failing := func(w io.Writer, _ []model.AlignedNote) error {
		io.WriteString(w, "[{\"hrefs\": [")
		return errors.New("disk full")
	}
	assert.Error(t, WriteFile(path, nil, failing))

	got, err := ReadFile(path, ReadNotes)
	require.NoError(t, err)
	assert.Equal(t, notes, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files left behind")
}
