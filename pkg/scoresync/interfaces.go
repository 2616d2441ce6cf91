package scoresync

import (
	"context"
	"time"
)

type Service interface {
	// Align reads the three CSV tables and writes the notes JSON.
	Align(ctx context.Context, req AlignRequest) (*AlignResult, error)
	// AlignNotes aligns in-memory inputs without touching files.
	AlignNotes(events []MidiNoteEvent, heads []SvgNotehead, edges []TieEdge) (*AlignResult, error)
	ExtractMidi(ctx context.Context, midiPath, outPath string, fitDuration float64) (*MidiResult, error)
	ExtractNoteheads(ctx context.Context, svgPath, outPath string) (*NoteheadResult, error)
	// Cache opens the build cache on first use.
	Cache() (Cache, error)
	Close() error
}

// Cache remembers, per task, the content digests of its inputs.
type Cache interface {
	// Changed reports whether the digests of paths differ from the stored
	// ones and, if so, stores the new set. Missing files are left out.
	Changed(task string, paths []string) (bool, error)
	Digests(task string) (map[string]string, error)
	Forget(task string) error
	Tasks() ([]TaskInfo, error)
	Close() error
}

type Storage interface {
	LoadDigests(task string) (map[string]string, bool, error)
	ReplaceDigests(task string, digests map[string]string) error
	DeleteTask(task string) error
	ListTasks() ([]TaskInfo, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// TaskInfo is what the cache knows about one task.
type TaskInfo struct {
	Name      string
	Paths     int
	UpdatedAt time.Time
}
