package nlp

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidKeywordTables = errors.New("INVALID_KEYWORD_TABLES")

// CategoryKeywords is the vocabulary of one service category.
type CategoryKeywords struct {
	ID       string
	Keywords map[Locale][]string
}

type keyword struct {
	raw        string
	normalized string
}

type categoryEntry struct {
	id       string
	byLocale map[Locale][]keyword
}

// KeywordTables holds the intent and category vocabularies with every
// keyword normalized once up front. It is read-only after construction.
type KeywordTables struct {
	intents    map[Locale]map[Intent][]keyword
	categories []categoryEntry
}

// NewKeywordTables validates and indexes the given vocabularies. Categories
// keep their order: on equal scores the earlier category wins.
func NewKeywordTables(intents map[Locale]map[Intent][]string, categories []CategoryKeywords) (*KeywordTables, error) {
	if _, ok := intents[LocaleEN]; !ok {
		return nil, fmt.Errorf("%w: english intent keywords are required as fallback", ErrInvalidKeywordTables)
	}

	t := &KeywordTables{
		intents:    make(map[Locale]map[Intent][]keyword, len(intents)),
		categories: make([]categoryEntry, 0, len(categories)),
	}

	for loc, byIntent := range intents {
		if !loc.Valid() {
			return nil, fmt.Errorf("%w: unknown locale %q", ErrInvalidKeywordTables, loc)
		}
		indexed := make(map[Intent][]keyword, len(byIntent))
		for intent, words := range byIntent {
			if !intent.Matchable() {
				return nil, fmt.Errorf("%w: intent %q cannot carry keywords", ErrInvalidKeywordTables, intent)
			}
			kws, err := indexKeywords(words)
			if err != nil {
				return nil, fmt.Errorf("%w: %s/%s: %v", ErrInvalidKeywordTables, loc, intent, err)
			}
			indexed[intent] = kws
		}
		t.intents[loc] = indexed
	}

	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: category without id", ErrInvalidKeywordTables)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalidKeywordTables, id)
		}
		seen[id] = true

		entry := categoryEntry{id: id, byLocale: make(map[Locale][]keyword, len(c.Keywords))}
		for loc, words := range c.Keywords {
			if !loc.Valid() {
				return nil, fmt.Errorf("%w: category %q: unknown locale %q", ErrInvalidKeywordTables, id, loc)
			}
			kws, err := indexKeywords(words)
			if err != nil {
				return nil, fmt.Errorf("%w: category %q/%s: %v", ErrInvalidKeywordTables, id, loc, err)
			}
			entry.byLocale[loc] = kws
		}
		t.categories = append(t.categories, entry)
	}

	return t, nil
}

func indexKeywords(words []string) ([]keyword, error) {
	out := make([]keyword, 0, len(words))
	for _, w := range words {
		n := Normalize(w)
		if n == "" {
			return nil, fmt.Errorf("blank keyword %q", w)
		}
		out = append(out, keyword{raw: w, normalized: n})
	}
	return out, nil
}

// intentKeywords returns the locale's intent table, falling back to English
// when the locale has none.
func (t *KeywordTables) intentKeywords(loc Locale) map[Intent][]keyword {
	if byIntent, ok := t.intents[loc]; ok {
		return byIntent
	}
	return t.intents[LocaleEN]
}

func (c categoryEntry) keywords(loc Locale) []keyword {
	if kws, ok := c.byLocale[loc]; ok {
		return kws
	}
	return c.byLocale[LocaleEN]
}

// Categories lists category ids in match order.
func (t *KeywordTables) Categories() []string {
	ids := make([]string, len(t.categories))
	for i, c := range t.categories {
		ids[i] = c.id
	}
	return ids
}

// IntentKeywords returns the raw keywords for one locale and intent, without
// fallback. The slice is a copy.
func (t *KeywordTables) IntentKeywords(loc Locale, intent Intent) []string {
	return rawKeywords(t.intents[loc][intent])
}

// CategoryKeywords returns the raw keywords for one category and locale,
// without fallback.
func (t *KeywordTables) CategoryKeywords(id string, loc Locale) []string {
	for _, c := range t.categories {
		if c.id == id {
			return rawKeywords(c.byLocale[loc])
		}
	}
	return nil
}

func rawKeywords(kws []keyword) []string {
	if len(kws) == 0 {
		return nil
	}
	out := make([]string, len(kws))
	for i, k := range kws {
		out[i] = k.raw
	}
	return out
}

var defaultTables = mustKeywordTables(defaultIntentKeywords, defaultCategoryKeywords)

// DefaultTables returns the built-in vocabularies.
func DefaultTables() *KeywordTables { return defaultTables }

func mustKeywordTables(intents map[Locale]map[Intent][]string, categories []CategoryKeywords) *KeywordTables {
	t, err := NewKeywordTables(intents, categories)
	if err != nil {
		panic(err)
	}
	return t
}

// German and Spanish have no vocabulary yet and fall back to English.
var defaultIntentKeywords = map[Locale]map[Intent][]string{
	LocaleEN: {
		IntentProviderSignup: {"become helper", "sign up as", "offer services", "work as", "i want to become"},
		IntentGeneralQA:      {"how", "what", "why", "when", "pricing", "price", "cost", "do you have", "does it"},
		IntentBookService:    {"need", "want", "looking for", "help with", "book", "hire", "cleaning", "moving", "mount", "mounting", "assemble", "assembly"},
	},
	LocaleSV: {
		IntentProviderSignup: {"bli hjälpare", "registrera som", "erbjuda tjänster"},
		IntentGeneralQA:      {"hur", "vad", "varför", "när", "pris"},
		IntentBookService:    {"behöver", "vill", "vill ha", "söker", "hjälp med", "boka", "städning", "städa", "flytt", "flyttning", "kan ni", "montering", "montera"},
	},
	LocaleFA: {
		IntentProviderSignup: {"همکار شدن", "ثبت نام کنم", "ثبت\u200cنام", "ثبت نام", "نام نویسی", "ارائه خدمات", "کار کردن"},
		IntentGeneralQA:      {"چگونه", "چطور", "چه طور", "چی", "چیه", "چه", "چرا", "کی", "کجا", "چند", "قیمت", "پرداخت", "بیمه"},
		IntentBookService:    {"نیاز", "می خواهم", "میخواهم", "رزرو", "نظافت", "خدمت", "اسباب کشی", "اسباب\u200cکشی", "حمل"},
	},
}

var defaultCategoryKeywords = []CategoryKeywords{
	{
		ID: "cleaning",
		Keywords: map[Locale][]string{
			LocaleEN: {"clean", "cleaning", "tidy", "scrub", "vacuum"},
			LocaleSV: {"städ", "städning", "städa", "rengöring"},
			LocaleFA: {"نظافت", "تمیزکردن", "تمیز"},
		},
	},
	{
		ID: "moving-delivery",
		Keywords: map[Locale][]string{
			LocaleEN: {"moving", "move", "delivery", "transport"},
			LocaleSV: {"flytt", "flyttning", "leverans", "transport", "moving"},
			LocaleFA: {"اسباب\u200cکشی", "اسباب کشی", "حمل", "تحویل"},
		},
	},
	{
		ID: "assembly",
		Keywords: map[Locale][]string{
			LocaleEN: {"assembly", "assemble", "furniture", "ikea"},
			LocaleSV: {"montering", "montera", "möbel", "ikea", "assembly"},
			LocaleFA: {"مونتاژ", "سوار کردن", "مبل"},
		},
	},
	{
		ID: "mounting",
		Keywords: map[Locale][]string{
			LocaleEN: {"mount", "mounting", "install", "hang", "tv", "shelf"},
			LocaleSV: {"montera", "installera", "hänga", "tv", "mounting"},
			LocaleFA: {"نصب", "آویزان کردن", "تلویزیون"},
		},
	},
	{
		ID: "repairs",
		Keywords: map[Locale][]string{
			LocaleEN: {"repair", "fix", "broken", "handyman"},
			LocaleSV: {"reparation", "fixa", "laga", "hantverkare"},
			LocaleFA: {"تعمیر", "تعمیرات", "درست کردن"},
		},
	},
}
