package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		locale     Locale
		intent     Intent
		confidence float64
	}{
		{"signup", "I want to become a helper", LocaleEN, IntentProviderSignup, 1},
		{"question", "How much does cleaning cost?", LocaleEN, IntentGeneralQA, 1},
		{"question beats booking", "i need a price for moving", LocaleEN, IntentGeneralQA, 1},
		{"booking", "I need someone to fix my broken sink", LocaleEN, IntentBookService, 1},
		{"typo still matches", "pricng", LocaleEN, IntentGeneralQA, 8.0 / 9},
		{"typo in booking", "hirre", LocaleEN, IntentBookService, 6.0 / 7},
		{"unknown", "xyz qqq", LocaleEN, IntentUnknown, 0},
		{"swedish signup", "Jag vill bli hjälpare", LocaleSV, IntentProviderSignup, 1},
		{"swedish question", "Hej! Vad kostar flytt?", LocaleSV, IntentGeneralQA, 1},
		{"english text with swedish tables", "need cleaning", LocaleSV, IntentUnknown, 0},
		{"german falls back to english", "I need help", LocaleDE, IntentBookService, 1},
		{"persian booking", "من به نظافت خانه نیاز دارم فردا", LocaleFA, IntentBookService, 1},
		{"empty", "", LocaleEN, IntentUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, conf := ClassifyIntent(tt.message, tt.locale)
			assert.Equal(t, tt.intent, intent)
			assert.InDelta(t, tt.confidence, conf, 1e-9)
		})
	}
}

func TestClassifyIntent_ReportsKeyword(t *testing.T) {
	m := classifyIntent(Normalize("I want to become a helper"), LocaleEN, DefaultTables(), DefaultIntentThreshold)
	assert.Equal(t, "i want to become", m.Keyword)

	m = classifyIntent("xyz", LocaleEN, DefaultTables(), DefaultIntentThreshold)
	assert.Empty(t, m.Keyword)
}

func TestClassifyIntent_Threshold(t *testing.T) {
	// "hirre" scores 85.7 against "hire"
	m := classifyIntent("hirre", LocaleEN, DefaultTables(), 90)
	assert.Equal(t, IntentUnknown, m.Intent)

	m = classifyIntent("hirre", LocaleEN, DefaultTables(), 85)
	assert.Equal(t, IntentBookService, m.Intent)
}

func TestMatchCategory(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		locale     Locale
		category   string
		confidence float64
	}{
		{"cleaning", "Need cleaning of 4 rooms", LocaleEN, "cleaning", 1},
		{"moving", "I want to move my sofa", LocaleEN, "moving-delivery", 1},
		{"assembly", "assemble a bed", LocaleEN, "assembly", 1},
		{"mounting", "hire someone to hang a shelf", LocaleEN, "mounting", 1},
		{"repairs", "I need someone to fix my broken sink", LocaleEN, "repairs", 1},
		{"typo", "cleening please", LocaleEN, "cleaning", 0.875},
		{"swedish", "behöver flytt", LocaleSV, "moving-delivery", 1},
		{"persian", "من به نظافت خانه نیاز دارم", LocaleFA, "cleaning", 1},
		{"nothing", "I need help", LocaleEN, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, conf := MatchCategory(tt.message, tt.locale)
			assert.Equal(t, tt.category, cat)
			assert.InDelta(t, tt.confidence, conf, 1e-9)
		})
	}
}

func TestMatchCategory_TieGoesToFirstCategory(t *testing.T) {
	tables, err := NewKeywordTables(
		map[Locale]map[Intent][]string{LocaleEN: {IntentBookService: {"need"}}},
		[]CategoryKeywords{
			{ID: "first", Keywords: map[Locale][]string{LocaleEN: {"sofa"}}},
			{ID: "second", Keywords: map[Locale][]string{LocaleEN: {"sofa"}}},
		},
	)
	require.NoError(t, err)

	m := matchCategory("move my sofa", LocaleEN, tables, DefaultCategoryThreshold)
	assert.Equal(t, "first", m.Category)
	assert.Equal(t, "sofa", m.Keyword)
	assert.True(t, m.Found())
}

func TestMatchCategory_BestScoreWins(t *testing.T) {
	tables, err := NewKeywordTables(
		map[Locale]map[Intent][]string{LocaleEN: {IntentBookService: {"need"}}},
		[]CategoryKeywords{
			{ID: "close", Keywords: map[Locale][]string{LocaleEN: {"sofx"}}},
			{ID: "exact", Keywords: map[Locale][]string{LocaleEN: {"sofa"}}},
		},
	)
	require.NoError(t, err)

	m := matchCategory("sofa", LocaleEN, tables, 0)
	assert.Equal(t, "exact", m.Category)
	assert.InDelta(t, 1.0, m.Confidence, 1e-9)
}

func TestMatchCategory_BelowThreshold(t *testing.T) {
	m := matchCategory("zzz", LocaleEN, DefaultTables(), DefaultCategoryThreshold)
	assert.False(t, m.Found())
	assert.Zero(t, m.Confidence)
}
