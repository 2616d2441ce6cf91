// Package pitch decodes LilyPond pitch names (Dutch note names with
// apostrophe/comma octave marks) into MIDI note numbers.
package pitch

import (
	"sort"
	"strings"
	"unicode"
)

// Unknown is returned for tokens that do not name a pitch in MIDI range.
const Unknown = -1

const (
	minPitch = 0
	maxPitch = 127

	octaveUp   = "'"
	octaveDown = ","
)

// baseSpellings anchors every spelling at the octave where plain "c" is 36.
var baseSpellings = map[string]int{
	"c": 36, "cis": 37, "des": 37, "d": 38, "dis": 39, "ees": 39, "es": 39,
	"e": 40, "f": 41, "fis": 42, "ges": 42, "g": 43, "gis": 44, "aes": 44,
	"as": 44, "a": 45, "ais": 46, "bes": 46, "b": 47,

	"eis": 41, "bis": 48, "ces": 35, "fes": 40,

	"cisis": 38, "disis": 40, "eisis": 42, "fisis": 43, "gisis": 45,
	"aisis": 47, "bisis": 49,
	"ceses": 34, "deses": 36, "eses": 38, "feses": 39, "geses": 41,
	"aeses": 43, "beses": 45,
}

var table = buildTable()

// buildTable adds comma octaves first and then apostrophe octaves on top of
// every entry, so mixed tokens such as "c,'" decode as well.
func buildTable() map[string]int {
	down := make(map[string]int, len(baseSpellings)*4)
	for name, v := range baseSpellings {
		down[name] = v
		for n := 1; v-n*12 >= minPitch; n++ {
			down[name+strings.Repeat(octaveDown, n)] = v - n*12
		}
	}

	t := make(map[string]int, len(down)*11)
	for name, v := range down {
		t[name] = v
		for n := 1; v+n*12 <= maxPitch; n++ {
			t[name+strings.Repeat(octaveUp, n)] = v + n*12
		}
	}
	return t
}

// Decode returns the MIDI pitch for a token such as "fis''" or "bes,".
// Whitespace inside the token is ignored.
func Decode(token string) int {
	key := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, token)
	if v, ok := table[key]; ok {
		return v
	}
	return Unknown
}

// PitchClass reduces a MIDI pitch modulo 12. Unknown stays Unknown.
func PitchClass(p int) int {
	if p < 0 {
		return Unknown
	}
	return p % 12
}

// Spellings lists every token Decode accepts, sorted.
func Spellings() []string {
	out := make([]string, 0, len(table))
	for k := range table {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
