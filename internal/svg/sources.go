package svg

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ErrNotEditorLink marks hrefs that do not point back into score source.
var ErrNotEditorLink = errors.New("not a textedit link")

const editorScheme = "textedit://"

// pitchRe matches a note name at the start of the source text: letter,
// optional accidental, optional octave marks. "s" covers the short flats
// "es" and "as".
var pitchRe = regexp.MustCompile(`^([a-g])(isis|eses|is|es|s)?\s*[,']*`)

// SourceResolver reads pitch tokens out of score source files referenced by
// textedit links. Files are read once and kept for the resolver's lifetime.
type SourceResolver struct {
	root        string
	mountPrefix string
	files       map[string][]string
}

// NewSourceResolver resolves link paths relative to root after removing
// mountPrefix (the directory the renderer saw the sources under, e.g.
// "/work/" inside a container). An empty root means the working directory.
func NewSourceResolver(root, mountPrefix string) *SourceResolver {
	return &SourceResolver{
		root:        root,
		mountPrefix: mountPrefix,
		files:       make(map[string][]string),
	}
}

// Location is a parsed textedit link.
type Location struct {
	Path   string
	Line   int // 1-based
	Column int // character offset into the line
}

// ParseLink splits "textedit:///work/score.ly:25:10:11" into its parts.
// A trailing end column, when present, is ignored.
func ParseLink(href string) (Location, error) {
	rest, ok := strings.CutPrefix(href, editorScheme)
	if !ok {
		return Location{}, fmt.Errorf("%w: %s", ErrNotEditorLink, href)
	}
	parts := strings.Split(rest, ":")
	if len(parts) < 3 {
		return Location{}, fmt.Errorf("%s: expected path:line:column", href)
	}
	line, err := strconv.Atoi(parts[1])
	if err != nil {
		return Location{}, fmt.Errorf("%s: bad line: %w", href, err)
	}
	col, err := strconv.Atoi(parts[2])
	if err != nil {
		return Location{}, fmt.Errorf("%s: bad column: %w", href, err)
	}
	return Location{Path: parts[0], Line: line, Column: col}, nil
}

func (s *SourceResolver) lines(path string) ([]string, error) {
	if l, ok := s.files[path]; ok {
		return l, nil
	}
	rel := strings.TrimPrefix(path, s.mountPrefix)
	full := rel
	if !filepath.IsAbs(rel) {
		full = filepath.Join(s.root, rel)
	}

	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("opening score source: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", full, err)
	}
	s.files[path] = lines
	return lines, nil
}

// Snippet returns the pitch token at the link's position. ok is false when
// the text there is not a pitch.
func (s *SourceResolver) Snippet(href string) (snippet string, ok bool, err error) {
	loc, err := ParseLink(href)
	if err != nil {
		return "", false, err
	}
	lines, err := s.lines(loc.Path)
	if err != nil {
		return "", false, err
	}
	if loc.Line < 1 || loc.Line > len(lines) {
		return "", false, fmt.Errorf("%s: line %d outside %s (%d lines)", href, loc.Line, loc.Path, len(lines))
	}

	text := []rune(lines[loc.Line-1])
	if loc.Column < 0 || loc.Column > len(text) {
		return "", false, fmt.Errorf("%s: column %d outside line %d", href, loc.Column, loc.Line)
	}

	m := pitchRe.FindString(trimGrouping(string(text[loc.Column:])))
	if m == "" {
		return "", false, nil
	}
	return strings.ReplaceAll(m, " ", ""), true, nil
}
