package registry

import (
	"sort"

	"github.com/sahilm/fuzzy"
)

// Entry is one keyword with its position in the registry.
type Entry struct {
	Kind    string `json:"kind"` // "intent" or "category"
	Key     string `json:"key"`  // intent name or category id
	Locale  string `json:"locale"`
	Keyword string `json:"keyword"`
}

// SearchResult is an Entry ranked against a query.
type SearchResult struct {
	Entry
	Score int `json:"score"`
}

type entrySource []Entry

func (s entrySource) String(i int) string { return s[i].Keyword }
func (s entrySource) Len() int            { return len(s) }

// Entries flattens the registry in a stable order: intents by locale then
// priority, then categories in file order.
func (r *KeywordRegistry) Entries() []Entry {
	var out []Entry

	locales := make([]string, 0, len(r.Intents))
	for loc := range r.Intents {
		locales = append(locales, loc)
	}
	sort.Strings(locales)
	for _, loc := range locales {
		for _, intent := range Intents {
			for _, kw := range r.Intents[loc][intent] {
				out = append(out, Entry{Kind: "intent", Key: intent, Locale: loc, Keyword: kw})
			}
		}
	}

	for _, c := range r.Categories {
		catLocales := make([]string, 0, len(c.Keywords))
		for loc := range c.Keywords {
			catLocales = append(catLocales, loc)
		}
		sort.Strings(catLocales)
		for _, loc := range catLocales {
			for _, kw := range c.Keywords[loc] {
				out = append(out, Entry{Kind: "category", Key: c.ID, Locale: loc, Keyword: kw})
			}
		}
	}
	return out
}

// Search ranks registry keywords against query with subsequence matching,
// best first. limit <= 0 returns every match.
func (r *KeywordRegistry) Search(query string, limit int) []SearchResult {
	entries := entrySource(r.Entries())
	matches := fuzzy.FindFrom(query, entries)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]SearchResult, len(matches))
	for i, m := range matches {
		out[i] = SearchResult{Entry: entries[m.Index], Score: m.Score}
	}
	return out
}
