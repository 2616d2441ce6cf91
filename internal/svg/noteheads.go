// Package svg finds noteheads in LilyPond SVG output.
//
// LilyPond wraps each clickable grob in <a xlink:href="textedit://...">
// pointing back at file:line:column in the score source. A notehead is an
// anchor whose first <g> child carries a translate(x, y) transform and whose
// source text at that position starts with a pitch name.
package svg

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/himanishpuri/ScoreSync/internal/align"
	"github.com/himanishpuri/ScoreSync/internal/model"
)

const xlinkNS = "http://www.w3.org/1999/xlink"

var translateRe = regexp.MustCompile(`translate\(([-\d.]+)[ ,]+([-\d.]+)`)

// Logger receives per-anchor diagnostics.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// Stats counts what the extractor saw.
type Stats struct {
	Anchors     int
	Noteheads   int
	NotAPitch   int // links whose source text is not a pitch (rests, bar checks, ...)
	ForeignLink int // links that are not editor cross-references
	NoTransform int // pitch links without a translated <g> child
}

type anchor struct {
	href      string
	depth     int
	seenGroup bool
	transform string
}

// Extractor pulls noteheads out of an SVG document.
type Extractor struct {
	sources *SourceResolver
	log     Logger
}

// NewExtractor returns an Extractor that looks pitch tokens up through sources.
func NewExtractor(sources *SourceResolver, log Logger) *Extractor {
	return &Extractor{sources: sources, log: log}
}

// Extract streams the SVG and returns its noteheads in reading order
// (x ascending, y descending), coordinates rounded to 3 decimals and
// indexed from 1.
func (e *Extractor) Extract(r io.Reader) ([]model.SvgNotehead, Stats, error) {
	var st Stats
	var heads []model.SvgNotehead
	var anchors []*anchor

	dec := xml.NewDecoder(r)
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, st, fmt.Errorf("parsing svg: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "a":
				anchors = append(anchors, &anchor{href: linkTarget(t.Attr), depth: depth})
			case "g":
				if n := len(anchors); n > 0 {
					a := anchors[n-1]
					if !a.seenGroup && depth == a.depth+1 {
						a.seenGroup = true
						a.transform = attr(t.Attr, "", "transform")
					}
				}
			}
		case xml.EndElement:
			if n := len(anchors); n > 0 && anchors[n-1].depth == depth {
				a := anchors[n-1]
				anchors = anchors[:n-1]
				st.Anchors++
				head, ok, err := e.notehead(a, &st)
				if err != nil {
					return nil, st, err
				}
				if ok {
					heads = append(heads, head)
				}
			}
			depth--
		}
	}

	align.SortNoteheads(heads)
	for i := range heads {
		heads[i].Index = i + 1
	}
	st.Noteheads = len(heads)
	return heads, st, nil
}

func (e *Extractor) notehead(a *anchor, st *Stats) (model.SvgNotehead, bool, error) {
	snippet, ok, err := e.sources.Snippet(a.href)
	if errors.Is(err, ErrNotEditorLink) {
		st.ForeignLink++
		return model.SvgNotehead{}, false, nil
	}
	if err != nil {
		return model.SvgNotehead{}, false, err
	}
	if !ok {
		st.NotAPitch++
		return model.SvgNotehead{}, false, nil
	}

	m := translateRe.FindStringSubmatch(a.transform)
	if m == nil {
		st.NoTransform++
		if e.log != nil {
			e.log.Warnf("No translate transform near <a> of [%s] for snippet [%s]", a.href, snippet)
		}
		return model.SvgNotehead{}, false, nil
	}
	x, err := parseCoord(m[1])
	if err != nil {
		return model.SvgNotehead{}, false, fmt.Errorf("%s: %w", a.href, err)
	}
	y, err := parseCoord(m[2])
	if err != nil {
		return model.SvgNotehead{}, false, fmt.Errorf("%s: %w", a.href, err)
	}

	return model.SvgNotehead{
		X:       round3(x),
		Y:       round3(y),
		Href:    a.href,
		Snippet: snippet,
	}, true, nil
}

func linkTarget(attrs []xml.Attr) string {
	if v := attr(attrs, xlinkNS, "href"); v != "" {
		return v
	}
	// some writers emit the prefix unresolved, SVG 2 uses a plain href
	if v := attr(attrs, "xlink", "href"); v != "" {
		return v
	}
	return attr(attrs, "", "href")
}

func attr(attrs []xml.Attr, space, local string) string {
	for _, a := range attrs {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func parseCoord(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad coordinate %q: %w", s, err)
	}
	return v, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// trimGrouping drops the chord and beam brackets that can precede a pitch.
func trimGrouping(s string) string {
	return strings.Trim(strings.TrimSpace(s), "[]<>()")
}
