package model

// MidiNoteEvent is one sounded note read from the rendered MIDI file.
// OnSec and OffSec are absolute times in seconds.
type MidiNoteEvent struct {
	Pitch   int
	OnSec   float64
	OffSec  float64
	Channel int
}

// SvgNotehead is one notehead glyph found in the rendered SVG.
// Snippet holds the pitch token read back from the score source (e.g. "cis'").
type SvgNotehead struct {
	Index   int // informational, 1-based reading order at extraction time
	X       float64
	Y       float64
	Href    string
	Snippet string
}

// TieEdge says Secondary is a sustain-continuation of Primary.
type TieEdge struct {
	Primary   string
	Secondary string
}

// AlignedNote pairs a MIDI event with the notehead (and its tie chain) that
// draws it. Hrefs always starts with the primary notehead.
type AlignedNote struct {
	Hrefs   []string `json:"hrefs"`
	OnSec   float64  `json:"on"`
	OffSec  float64  `json:"off"`
	Pitch   int      `json:"pitch"`
	Channel int      `json:"channel"`
}
