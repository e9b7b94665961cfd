package nlp

import (
	"fmt"

	"helpro-nlp/pkg/registry"
)

// TablesFromRegistry builds keyword tables from a registry document.
func TablesFromRegistry(reg *registry.KeywordRegistry) (*KeywordTables, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	intents := make(map[Locale]map[Intent][]string, len(reg.Intents))
	for loc, byIntent := range reg.Intents {
		m := make(map[Intent][]string, len(byIntent))
		for intent, words := range byIntent {
			m[Intent(intent)] = words
		}
		intents[Locale(loc)] = m
	}

	categories := make([]CategoryKeywords, 0, len(reg.Categories))
	for _, c := range reg.Categories {
		kws := make(map[Locale][]string, len(c.Keywords))
		for loc, words := range c.Keywords {
			kws[Locale(loc)] = words
		}
		categories = append(categories, CategoryKeywords{ID: c.ID, Keywords: kws})
	}

	return NewKeywordTables(intents, categories)
}

// LoadTables reads, validates and indexes a registry file.
func LoadTables(path string) (*KeywordTables, error) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load keyword registry: %w", err)
	}
	t, err := TablesFromRegistry(reg)
	if err != nil {
		return nil, fmt.Errorf("keyword registry %s: %w", path, err)
	}
	return t, nil
}

// ToRegistry exports the tables as a registry document.
func (t *KeywordTables) ToRegistry(version string) *registry.KeywordRegistry {
	reg := &registry.KeywordRegistry{
		Version:    version,
		Intents:    make(map[string]map[string][]string, len(t.intents)),
		Categories: make([]registry.Category, 0, len(t.categories)),
	}
	for loc, byIntent := range t.intents {
		m := make(map[string][]string, len(byIntent))
		for intent, kws := range byIntent {
			m[string(intent)] = rawKeywords(kws)
		}
		reg.Intents[string(loc)] = m
	}
	for _, c := range t.categories {
		kws := make(map[string][]string, len(c.byLocale))
		for loc, words := range c.byLocale {
			kws[string(loc)] = rawKeywords(words)
		}
		reg.Categories = append(reg.Categories, registry.Category{ID: c.id, Keywords: kws})
	}
	reg.Touch()
	return reg
}
