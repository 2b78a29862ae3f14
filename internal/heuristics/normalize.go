package heuristics

import (
	"strings"
	"unicode"

	"golang.org/x/net/idna"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// lookalikes maps single runes to the letter they imitate.
var lookalikes = map[rune]rune{
	'0': 'o', '1': 'l', '3': 'e', '4': 'a', '5': 's',
	'7': 't', '8': 'b', '9': 'g', '@': 'a', '$': 's', '!': 'i',
	// Cyrillic homoglyphs
	'а': 'a', 'е': 'e', 'о': 'o', 'р': 'p', 'с': 'c', 'х': 'x', 'у': 'y', 'і': 'i',
}

var digraphs = strings.NewReplacer("rn", "m", "vv", "w")

// unicodeLabel decodes a punycode label; other input is returned as is.
func unicodeLabel(label string) string {
	if !strings.HasPrefix(label, "xn--") {
		return label
	}
	u, err := idna.ToUnicode(label)
	if err != nil {
		return label
	}
	return u
}

// fold strips diacritics: "amazön" becomes "amazon".
func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// normalizeLabel reverses look-alike substitutions, then drops hyphens and
// digits, for comparison against brand names.
func normalizeLabel(label string) string {
	s := strings.ToLower(fold(unicodeLabel(label)))
	s = digraphs.Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if mapped, ok := lookalikes[r]; ok {
			r = mapped
		}
		if r == '-' || unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
