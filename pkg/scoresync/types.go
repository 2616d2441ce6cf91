package scoresync

import (
	"github.com/himanishpuri/ScoreSync/internal/align"
	"github.com/himanishpuri/ScoreSync/internal/midi"
	"github.com/himanishpuri/ScoreSync/internal/model"
	"github.com/himanishpuri/ScoreSync/internal/svg"
)

type (
	MidiNoteEvent = model.MidiNoteEvent
	SvgNotehead   = model.SvgNotehead
	TieEdge       = model.TieEdge
	AlignedNote   = model.AlignedNote
	MismatchError = align.MismatchError
)

// AlignRequest names the files of one alignment.
type AlignRequest struct {
	MidiCSV      string // pitch,on,off,channel
	NoteheadsCSV string // index,x,y,snippet,href
	TiesCSV      string // primary,secondary; optional
	Output       string // notes JSON; empty skips writing
}

type AlignResult struct {
	Notes  []AlignedNote
	Report align.Report
}

type MidiResult struct {
	Events []MidiNoteEvent
	Stats  midi.Stats
}

type NoteheadResult struct {
	Noteheads []SvgNotehead
	Stats     svg.Stats
}
