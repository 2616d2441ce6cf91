package main

import "github.com/himanishpuri/ScoreSync/pkg/scoresync"

// NotesResponse is the response for GET /api/notes
type NotesResponse struct {
	Notes []scoresync.AlignedNote `json:"notes"`
	Count int                     `json:"count"`
}

// NoteResponse is the response for GET /api/notes/{index}
type NoteResponse struct {
	Index int                   `json:"index"`
	Note  scoresync.AlignedNote `json:"note"`
}

// SoundingResponse is the response for GET /api/notes/at/{seconds}
type SoundingResponse struct {
	Seconds float64                 `json:"seconds"`
	Notes   []scoresync.AlignedNote `json:"notes"`
	Hrefs   []string                `json:"hrefs"`
}

// AlignResponse is the response for POST /api/align
type AlignResponse struct {
	Message         string `json:"message"`
	Aligned         int    `json:"aligned"`
	Events          int    `json:"events"`
	Noteheads       int    `json:"noteheads"`
	SecondaryHidden int    `json:"secondary_hidden"`
	LengthMismatch  bool   `json:"length_mismatch"`
}

// MismatchResponse describes a pitch class mismatch that aborted alignment.
type MismatchResponse struct {
	Error             string `json:"error"`
	Index             int    `json:"index"`
	MidiPitch         int    `json:"midi_pitch"`
	MidiPitchClass    int    `json:"midi_pitch_class"`
	SnippetPitchClass int    `json:"snippet_pitch_class"`
	Snippet           string `json:"snippet"`
	Href              string `json:"href"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
