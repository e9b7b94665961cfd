package nlp

// DefaultIntentThreshold is the minimum partial-ratio score for an intent hit.
const DefaultIntentThreshold = 85.0

// IntentMatch is the outcome of intent classification.
type IntentMatch struct {
	Intent     Intent
	Confidence float64
	// Keyword is the raw keyword that matched, empty for IntentUnknown.
	Keyword string
}

// classifyIntent walks the intents in priority order and returns on the
// first keyword scoring at least threshold. Later intents and keywords are
// never examined once a hit is found.
func classifyIntent(normalized string, loc Locale, tables *KeywordTables, threshold float64) IntentMatch {
	byIntent := tables.intentKeywords(loc)
	for _, intent := range intentPriority {
		for _, kw := range byIntent[intent] {
			if score := PartialRatio(kw.normalized, normalized); score >= threshold {
				return IntentMatch{Intent: intent, Confidence: score / 100, Keyword: kw.raw}
			}
		}
	}
	return IntentMatch{Intent: IntentUnknown}
}

// ClassifyIntent classifies a raw message with the built-in tables and the
// default threshold.
func ClassifyIntent(message string, loc Locale) (Intent, float64) {
	m := classifyIntent(Normalize(message), loc, DefaultTables(), DefaultIntentThreshold)
	return m.Intent, m.Confidence
}
