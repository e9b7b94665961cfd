package nlp

import (
	"regexp"
	"strconv"
	"strings"
)

// ws matches the same whitespace as a Unicode-aware \s.
const ws = `[\s\v\p{Z}\x{1c}-\x{1f}\x{85}]*`

var (
	hoursPattern  = regexp.MustCompile(`(?i)([0-9]+)` + ws + `(hour|hr|hours|hrs|timme|timmar|stunde|hora|ساعت)`)
	roomsPattern  = regexp.MustCompile(`(?i)([0-9]+)` + ws + `(room|rooms|bed|bedroom|rum|zimmer|habitación|اتاق|اطاق)`)
	itemsPattern  = regexp.MustCompile(`(?i)([0-9]+)` + ws + `(item|items|sak|artikel|cosa|چیز|مورد)`)
	budgetPattern = regexp.MustCompile(`(?i)([0-9]+)` + ws + `(kr|sek|€|eur|\$|usd|تومان|کرون)`)

	locationPattern = regexp.MustCompile(`(?i)(stockholm|göteborg|malmö|södertälje|uppsala|västerås|örebro|linköping|استکهلم|استوکهلم|گوتبورگ|مالمو)`)
	timingPattern   = regexp.MustCompile(`(?i)(today|tomorrow|tonight|weekend|idag|imorgon|i` + ws + `morgon|helgen|i` + ws + `helgen|kväll|morgon|امروز|فردا|عصر|صبح|شب)`)
)

// transliterateDigits maps Persian digits ۰..۹ to ASCII.
func transliterateDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '۰' && r <= '۹' {
			return '0' + (r - '۰')
		}
		return r
	}, s)
}

// ExtractEntities pulls hours, rooms, items, budget, location and timing out
// of a raw message. Numeric fields are matched after Persian digits are
// transliterated; location and timing are matched on the original text.
// Each field takes its first match. A count too large for int is dropped.
func ExtractEntities(message string) EntityResult {
	var e EntityResult
	numeric := transliterateDigits(message)

	e.Hours = matchCount(hoursPattern, numeric)
	e.Rooms = matchCount(roomsPattern, numeric)
	e.Items = matchCount(itemsPattern, numeric)

	if m := locationPattern.FindStringSubmatch(message); m != nil {
		e.Location = strPtr(m[1])
	}
	if m := timingPattern.FindStringSubmatch(message); m != nil {
		e.Timing = strPtr(m[1])
	}
	if m := budgetPattern.FindStringSubmatch(numeric); m != nil {
		e.Budget = strPtr(m[1] + " " + m[2])
	}

	return e
}

func matchCount(re *regexp.Regexp, s string) *int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return intPtr(n)
}
