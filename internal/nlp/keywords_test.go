package nlp

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpro-nlp/pkg/registry"
)

func TestDefaultTables(t *testing.T) {
	tables := DefaultTables()
	assert.Equal(t, []string{"cleaning", "moving-delivery", "assembly", "mounting", "repairs"}, tables.Categories())
	assert.Contains(t, tables.IntentKeywords(LocaleFA, IntentProviderSignup), "ثبت\u200cنام")
	assert.Nil(t, tables.IntentKeywords(LocaleDE, IntentBookService))
	assert.Contains(t, tables.CategoryKeywords("cleaning", LocaleSV), "städning")
	assert.Nil(t, tables.CategoryKeywords("gardening", LocaleEN))
}

func TestKeywordTables_Fallback(t *testing.T) {
	tables := DefaultTables()
	assert.Equal(t, tables.intentKeywords(LocaleEN), tables.intentKeywords(LocaleES))
	assert.NotEqual(t, tables.intentKeywords(LocaleEN), tables.intentKeywords(LocaleSV))

	for _, c := range tables.categories {
		assert.NotEmpty(t, c.keywords(LocaleDE), c.id)
	}
}

func TestKeywordTables_NormalizedOnce(t *testing.T) {
	for _, kw := range DefaultTables().intentKeywords(LocaleFA)[IntentProviderSignup] {
		assert.Equal(t, Normalize(kw.raw), kw.normalized)
	}
}

func TestNewKeywordTables_Invalid(t *testing.T) {
	en := map[Intent][]string{IntentBookService: {"need"}}
	cat := []CategoryKeywords{{ID: "cleaning", Keywords: map[Locale][]string{LocaleEN: {"clean"}}}}

	tests := []struct {
		name       string
		intents    map[Locale]map[Intent][]string
		categories []CategoryKeywords
	}{
		{
			name:       "missing english",
			intents:    map[Locale]map[Intent][]string{LocaleSV: en},
			categories: cat,
		},
		{
			name:       "unknown locale",
			intents:    map[Locale]map[Intent][]string{LocaleEN: en, "fr": en},
			categories: cat,
		},
		{
			name:       "unknown intent cannot carry keywords",
			intents:    map[Locale]map[Intent][]string{LocaleEN: {IntentUnknown: {"x"}}},
			categories: cat,
		},
		{
			name:       "punctuation only keyword",
			intents:    map[Locale]map[Intent][]string{LocaleEN: {IntentBookService: {"?!"}}},
			categories: cat,
		},
		{
			name:    "duplicate category",
			intents: map[Locale]map[Intent][]string{LocaleEN: en},
			categories: []CategoryKeywords{
				{ID: "cleaning", Keywords: map[Locale][]string{LocaleEN: {"clean"}}},
				{ID: "cleaning", Keywords: map[Locale][]string{LocaleEN: {"tidy"}}},
			},
		},
		{
			name:       "category without id",
			intents:    map[Locale]map[Intent][]string{LocaleEN: en},
			categories: []CategoryKeywords{{ID: " ", Keywords: map[Locale][]string{LocaleEN: {"clean"}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKeywordTables(tt.intents, tt.categories)
			assert.ErrorIs(t, err, ErrInvalidKeywordTables)
		})
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	reg := DefaultTables().ToRegistry("2.0.0")
	assert.Equal(t, "2.0.0", reg.Version)
	assert.NotEmpty(t, reg.LastUpdated)
	require.NoError(t, reg.Validate())

	tables, err := TablesFromRegistry(reg)
	require.NoError(t, err)
	assert.Equal(t, DefaultTables().Categories(), tables.Categories())

	a := NewAnalyzer(WithKeywordTables(tables))
	res := a.Analyze(testContext(t), Request{Message: "Jag behöver hjälp med städning imorgon"})
	assert.Equal(t, "cleaning", res.CategoryName())
}

func TestLoadTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keywords.yaml")
	reg := &registry.KeywordRegistry{
		Version: "1.0.0",
		Intents: map[string]map[string][]string{
			"en": {"BOOK_SERVICE": {"need"}},
		},
		Categories: []registry.Category{
			{ID: "gardening", Keywords: map[string][]string{"en": {"lawn", "garden"}}},
		},
	}
	require.NoError(t, registry.SaveRegistry(reg, path))

	tables, err := LoadTables(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"gardening"}, tables.Categories())

	res := NewAnalyzer(WithKeywordTables(tables)).Analyze(testContext(t), Request{Message: "need someone to mow the lawn"})
	assert.Equal(t, IntentBookService, res.Intent)
	assert.Equal(t, "gardening", res.CategoryName())

	_, err = LoadTables(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	reg.Categories = nil
	require.NoError(t, registry.SaveRegistry(reg, path))
	_, err = LoadTables(path)
	assert.ErrorIs(t, err, registry.ErrRegistryInvalid)
}

// testContext mirrors testing.T.Context (Go 1.24+): the context is
// cancelled just before the test's Cleanup-registered functions run.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
