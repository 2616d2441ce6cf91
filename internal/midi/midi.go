// Package midi extracts sounded note intervals from a Standard MIDI File.
package midi

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/himanishpuri/ScoreSync/internal/align"
	"github.com/himanishpuri/ScoreSync/internal/model"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Options controls how ticks become seconds.
type Options struct {
	// FitDuration, when > 0, stretches the file linearly so that its last
	// event lands at this many seconds instead of using the tempo map.
	FitDuration float64
}

// Stats describes one extraction.
type Stats struct {
	Notes    int
	Unclosed int   // note-ons never matched by a note-off
	MaxTick  int64 // last event tick over all tracks
}

// ReadFile parses a MIDI file. smf can panic on malformed input, so the
// panic is turned into an error.
func ReadFile(path string) (s *smf.SMF, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing midi file %s: %v", path, r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading midi file: %w", err)
	}
	defer f.Close()

	s, err = smf.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("parsing midi file %s: %w", path, err)
	}
	return s, nil
}

type timedMessage struct {
	tick int64
	msg  smf.Message
}

type noteKey struct {
	channel uint8
	key     uint8
}

type openNote struct {
	tick    int64
	channel uint8
}

// ExtractNoteEvents merges all tracks in time order and pairs note-ons with
// note-offs of the same key and channel, oldest first. The result is in
// align.SortEvents order.
func ExtractNoteEvents(s *smf.SMF, opts Options) ([]model.MidiNoteEvent, Stats, error) {
	var st Stats
	if s == nil {
		return nil, st, errors.New("nil midi file")
	}

	var merged []timedMessage
	for _, track := range s.Tracks {
		var abs int64
		for _, ev := range track {
			abs += int64(ev.Delta)
			merged = append(merged, timedMessage{tick: abs, msg: ev.Message})
		}
		if abs > st.MaxTick {
			st.MaxTick = abs
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].tick < merged[j].tick
	})

	toSeconds := func(tick int64) float64 {
		return float64(s.TimeAt(tick)) / 1e6
	}
	if opts.FitDuration > 0 {
		if st.MaxTick == 0 {
			return nil, st, errors.New("cannot fit duration: midi file has no ticks")
		}
		toSeconds = func(tick int64) float64 {
			return float64(tick) / float64(st.MaxTick) * opts.FitDuration
		}
	}

	open := make(map[noteKey][]openNote)
	var events []model.MidiNoteEvent
	for _, tm := range merged {
		var ch, key, vel uint8
		switch {
		case tm.msg.GetNoteOn(&ch, &key, &vel) && vel > 0:
			k := noteKey{ch, key}
			open[k] = append(open[k], openNote{tick: tm.tick, channel: ch})
		case tm.msg.GetNoteOn(&ch, &key, &vel), tm.msg.GetNoteOff(&ch, &key, &vel):
			k := noteKey{ch, key}
			stack := open[k]
			if len(stack) == 0 {
				continue
			}
			start := stack[0]
			open[k] = stack[1:]
			events = append(events, model.MidiNoteEvent{
				Pitch:   int(key),
				OnSec:   toSeconds(start.tick),
				OffSec:  toSeconds(tm.tick),
				Channel: int(start.channel),
			})
		}
	}

	for _, stack := range open {
		st.Unclosed += len(stack)
	}
	st.Notes = len(events)

	align.SortEvents(events)
	return events, st, nil
}
