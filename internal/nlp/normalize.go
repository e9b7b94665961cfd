package nlp

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Arabic-keyboard letters that render like their Persian counterparts.
const (
	arabicKaf  = 'ك'
	persianKaf = 'ک'
	arabicYeh  = 'ي'
	persianYeh = 'ی'
)

// unifyScript turns zero-width joiners into spaces and Arabic kaf/yeh into
// the Persian letters.
func unifyScript(r rune) rune {
	switch r {
	case '\u200c', '\u200d':
		return ' '
	case arabicKaf:
		return persianKaf
	case arabicYeh:
		return persianYeh
	}
	return r
}

func stripPunctuation(r rune) rune {
	switch r {
	case '?', '؟', '!', '.', ',', ';', ':', '-', '(', ')':
		return ' '
	}
	return r
}

// Chains carry buffers between calls, so each goroutine takes its own.
var normalizerPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			runes.Map(unifyScript),
			runes.Map(stripPunctuation),
			cases.Lower(language.Und),
		)
	},
}

// Normalize canonicalizes a message for keyword matching. The steps run in
// order: script unification, punctuation removal, lowercasing, whitespace
// collapse. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")

	tr := normalizerPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	normalizerPool.Put(tr)
	if err != nil {
		// transform only fails on malformed input, which ToValidUTF8 removed
		out = strings.ToLower(s)
	}

	return strings.Join(strings.FieldsFunc(out, isSpace), " ")
}

// isSpace extends unicode.IsSpace with the information separators
// U+001C..U+001F, matching the ws class used by the entity patterns.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= '\x1c' && r <= '\x1f')
}
