package pitch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNaturalsDecodeToWesternPitchClasses(t *testing.T) {
	expected := map[string]int{"c": 0, "d": 2, "e": 4, "f": 5, "g": 7, "a": 9, "b": 11}
	for name, class := range expected {
		t.Run(name, func(t *testing.T) {
			v := Decode(name)
			assert.GreaterOrEqual(t, v, 0)
			assert.LessOrEqual(t, v, 127)
			assert.Equal(t, class, v%12)
		})
	}
}

func TestAnchorOctave(t *testing.T) {
	assert.Equal(t, 36, Decode("c"))
	assert.Equal(t, 48, Decode("c'"))
	assert.Equal(t, 60, Decode("c''"))
	assert.Equal(t, 24, Decode("c,"))
}

func TestEnharmonicSpellingsAgree(t *testing.T) {
	pairs := [][2]string{
		{"cis", "des"},
		{"dis", "ees"},
		{"dis", "es"},
		{"gis", "aes"},
		{"gis", "as"},
		{"ais", "bes"},
		{"fis''", "ges''"},
		{"eis", "f"},
		{"ces", "b,"},
		{"fes", "e"},
		{"bis", "c'"},
		{"cisis", "d"},
		{"beses", "a"},
		{"eses", "d"},
	}
	for _, p := range pairs {
		t.Run(p[0]+"="+p[1], func(t *testing.T) {
			assert.NotEqual(t, Unknown, Decode(p[0]))
			assert.Equal(t, Decode(p[0]), Decode(p[1]))
		})
	}
}

func TestOctaveShiftLaw(t *testing.T) {
	for name := range baseSpellings {
		for n := 0; n < 12; n++ {
			token := name + strings.Repeat("'", n)
			v := Decode(token)
			if v == Unknown {
				continue
			}
			up := Decode(token + "'")
			if v+12 <= 127 {
				assert.Equal(t, v+12, up, "token %q", token)
			} else {
				assert.Equal(t, Unknown, up, "token %q should fall outside MIDI range", token)
			}
		}
	}
}

func TestOctaveShiftLawFromCommaTokens(t *testing.T) {
	assert.Equal(t, 36, Decode("c,'"))
	assert.Equal(t, 48, Decode("c,,'''"))
	assert.Equal(t, Decode("bes"), Decode("bes,'"))

	for name := range baseSpellings {
		for n := 1; n <= 3; n++ {
			token := name + strings.Repeat(",", n)
			v := Decode(token)
			if v == Unknown {
				continue
			}
			assert.Equal(t, v+12, Decode(token+"'"), "token %q", token)
		}
	}
}

func TestDownShiftStopsAtZero(t *testing.T) {
	assert.Equal(t, 0, Decode("c,,,"))
	assert.Equal(t, Unknown, Decode("c,,,,"))
	assert.Equal(t, Unknown, Decode("ceses,,,"))
	assert.Equal(t, 10, Decode("ceses,,"))
}

func TestUpperRangeLimit(t *testing.T) {
	assert.Equal(t, 127, Decode("g'''''''"))
	assert.Equal(t, Unknown, Decode("gis'''''''"))
}

func TestWhitespaceIsStripped(t *testing.T) {
	assert.Equal(t, Decode("cis''"), Decode(" cis ' '\t"))
	assert.Equal(t, Decode("bes,"), Decode("bes ,\n"))
}

func TestUnknownTokens(t *testing.T) {
	for _, tok := range []string{"", "h", "r", "cisx", "c'x", "C"} {
		assert.Equal(t, Unknown, Decode(tok), "token %q", tok)
	}
}

func TestPitchClass(t *testing.T) {
	assert.Equal(t, 0, PitchClass(60))
	assert.Equal(t, 11, PitchClass(71))
	assert.Equal(t, Unknown, PitchClass(Unknown))
}

func TestSpellingsAreAllDecodable(t *testing.T) {
	for _, s := range Spellings() {
		v := Decode(s)
		if v < 0 || v > 127 {
			t.Fatalf("spelling %q decoded to %d", s, v)
		}
	}
}
