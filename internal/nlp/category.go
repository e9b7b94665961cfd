package nlp

// DefaultCategoryThreshold is the minimum best score for a category match.
const DefaultCategoryThreshold = 80.0

// CategoryMatch is the outcome of category matching. Category is "" when
// nothing cleared the threshold.
type CategoryMatch struct {
	Category   string
	Confidence float64
	Keyword    string
}

// Found reports whether a category was selected.
func (m CategoryMatch) Found() bool { return m.Category != "" }

// matchCategory scores every keyword of every category and keeps the single
// best pair. Only a strictly higher score replaces the current best, so ties
// go to the category listed first.
func matchCategory(normalized string, loc Locale, tables *KeywordTables, threshold float64) CategoryMatch {
	var best CategoryMatch
	bestScore := 0.0

	for _, c := range tables.categories {
		for _, kw := range c.keywords(loc) {
			if score := PartialRatio(kw.normalized, normalized); score > bestScore {
				bestScore = score
				best = CategoryMatch{Category: c.id, Keyword: kw.raw}
			}
		}
	}

	if best.Category == "" || bestScore < threshold {
		return CategoryMatch{}
	}
	best.Confidence = bestScore / 100
	return best
}

// MatchCategory matches a raw message with the built-in tables and the
// default threshold.
func MatchCategory(message string, loc Locale) (string, float64) {
	m := matchCategory(Normalize(message), loc, DefaultTables(), DefaultCategoryThreshold)
	return m.Category, m.Confidence
}
