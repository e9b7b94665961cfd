package nlp

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// swedishMarkers are whole words that mark a message as Swedish.
var swedishMarkers = map[string]struct{}{
	"hej": {}, "tjena": {}, "hallå": {}, "jag": {}, "är": {}, "behöver": {},
	"vill": {}, "kan": {}, "städning": {}, "hjälp": {}, "flyttning": {},
	"imorgon": {}, "idag": {},
}

// isPersianScript reports whether r is in the Arabic block U+0600..U+06FF.
func isPersianScript(r rune) bool {
	return r >= 0x0600 && r <= 0x06FF
}

// isWordRune matches the characters a regex word boundary treats as word
// characters in Unicode mode.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// DetectLanguage picks a locale from message content alone. Persian script
// wins over everything, then Swedish marker words, else English.
func DetectLanguage(message string) Locale {
	for _, r := range message {
		if isPersianScript(r) {
			return LocaleFA
		}
	}

	lower := cases.Lower(language.Und).String(message)
	for _, word := range strings.FieldsFunc(lower, func(r rune) bool { return !isWordRune(r) }) {
		if _, ok := swedishMarkers[word]; ok {
			return LocaleSV
		}
	}

	return LocaleEN
}

// EffectiveLocale resolves the locale used for classification. A detected
// non-English locale always wins; otherwise the caller's hint is used.
func EffectiveLocale(detected, hint Locale) Locale {
	if detected != LocaleEN {
		return detected
	}
	if hint == "" || !hint.Valid() {
		return DefaultLocale
	}
	return hint
}
