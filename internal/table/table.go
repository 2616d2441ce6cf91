// Package table reads and writes the tabular files exchanged between the
// pipeline stages: MIDI note events, SVG noteheads and tie edges as CSV, and
// the aligned notes as JSON.
package table

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/himanishpuri/ScoreSync/internal/model"
)

var (
	MidiColumns     = []string{"pitch", "on", "off", "channel"}
	NoteheadColumns = []string{"index", "x", "y", "snippet", "href"}
	TieColumns      = []string{"primary", "secondary"}
)

// DefaultHrefPrefixes are stripped from hrefs, in order, by NormalizeHref.
var DefaultHrefPrefixes = []string{"textedit://", "/work/"}

// NormalizeHref removes editor-link prefixes so that
// "textedit:///work/f.ly:1:5" becomes "f.ly:1:5".
func NormalizeHref(href string, prefixes []string) string {
	for _, p := range prefixes {
		href = strings.ReplaceAll(href, p, "")
	}
	return href
}

// row gives named access to one CSV record.
type row struct {
	line   int
	cols   map[string]int
	record []string
}

func (r row) str(name string) string {
	return r.record[r.cols[name]]
}

func (r row) intCol(name string) (int, error) {
	s := strings.TrimSpace(r.str(name))
	v, err := strconv.Atoi(s)
	if err != nil {
		// pandas writes integer columns as floats once a NaN shows up
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("line %d column %q: %w", r.line, name, err)
		}
		v = int(f)
	}
	return v, nil
}

func (r row) floatCol(name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.str(name)), 64)
	if err != nil {
		return 0, fmt.Errorf("line %d column %q: %w", r.line, name, err)
	}
	return v, nil
}

// readRows reads a CSV with a header row and calls fn for each data row.
// Only the required columns must be present; others are ignored.
func readRows(r io.Reader, required []string, fn func(row) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("missing header row")
	}
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return fmt.Errorf("missing column %q", name)
		}
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) < len(header) {
			return fmt.Errorf("line %d: expected %d fields, got %d", line, len(header), len(rec))
		}
		if err := fn(row{line: line, cols: cols, record: rec}); err != nil {
			return err
		}
	}
}

// ReadMidiEvents parses a pitch,on,off,channel table.
func ReadMidiEvents(r io.Reader) ([]model.MidiNoteEvent, error) {
	var out []model.MidiNoteEvent
	err := readRows(r, MidiColumns, func(rw row) error {
		var ev model.MidiNoteEvent
		var err error
		if ev.Pitch, err = rw.intCol("pitch"); err != nil {
			return err
		}
		if ev.OnSec, err = rw.floatCol("on"); err != nil {
			return err
		}
		if ev.OffSec, err = rw.floatCol("off"); err != nil {
			return err
		}
		if ev.Channel, err = rw.intCol("channel"); err != nil {
			return err
		}
		out = append(out, ev)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("midi events: %w", err)
	}
	return out, nil
}

// ReadNoteheads parses an index,x,y,snippet,href table.
func ReadNoteheads(r io.Reader) ([]model.SvgNotehead, error) {
	var out []model.SvgNotehead
	err := readRows(r, []string{"x", "y", "snippet", "href"}, func(rw row) error {
		var h model.SvgNotehead
		var err error
		if _, ok := rw.cols["index"]; ok && strings.TrimSpace(rw.str("index")) != "" {
			if h.Index, err = rw.intCol("index"); err != nil {
				return err
			}
		}
		if h.X, err = rw.floatCol("x"); err != nil {
			return err
		}
		if h.Y, err = rw.floatCol("y"); err != nil {
			return err
		}
		h.Snippet = rw.str("snippet")
		h.Href = strings.TrimSpace(rw.str("href"))
		out = append(out, h)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("noteheads: %w", err)
	}
	return out, nil
}

// ReadTies parses a primary,secondary table.
func ReadTies(r io.Reader) ([]model.TieEdge, error) {
	var out []model.TieEdge
	err := readRows(r, TieColumns, func(rw row) error {
		out = append(out, model.TieEdge{
			Primary:   strings.TrimSpace(rw.str("primary")),
			Secondary: strings.TrimSpace(rw.str("secondary")),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ties: %w", err)
	}
	return out, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteMidiEvents writes events in the order given.
func WriteMidiEvents(w io.Writer, events []model.MidiNoteEvent) error {
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []string{
			strconv.Itoa(ev.Pitch),
			formatFloat(ev.OnSec),
			formatFloat(ev.OffSec),
			strconv.Itoa(ev.Channel),
		})
	}
	return writeAll(w, MidiColumns, rows)
}

// WriteNoteheads writes noteheads in the order given.
func WriteNoteheads(w io.Writer, heads []model.SvgNotehead) error {
	rows := make([][]string, 0, len(heads))
	for _, h := range heads {
		rows = append(rows, []string{
			strconv.Itoa(h.Index),
			formatFloat(h.X),
			formatFloat(h.Y),
			h.Snippet,
			h.Href,
		})
	}
	return writeAll(w, NoteheadColumns, rows)
}

// WriteTies writes tie edges in the order given.
func WriteTies(w io.Writer, edges []model.TieEdge) error {
	rows := make([][]string, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, []string{e.Primary, e.Secondary})
	}
	return writeAll(w, TieColumns, rows)
}

// WriteNotes writes the aligned notes as an indented JSON array. An empty
// result is written as [] rather than null.
func WriteNotes(w io.Writer, notes []model.AlignedNote) error {
	if notes == nil {
		notes = []model.AlignedNote{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(notes)
}

// ReadNotes parses a notes JSON file written by WriteNotes.
func ReadNotes(r io.Reader) ([]model.AlignedNote, error) {
	var notes []model.AlignedNote
	if err := json.NewDecoder(r).Decode(&notes); err != nil {
		return nil, fmt.Errorf("decoding notes: %w", err)
	}
	return notes, nil
}

// ReadFile opens path and hands it to read, wrapping errors with the path.
func ReadFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()

	v, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// WriteFile hands a temp file next to path to write and renames it into
// place, so readers never see a half written file.
func WriteFile[T any](path string, v T, write func(io.Writer, T) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := write(f, v); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
