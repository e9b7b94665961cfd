// Package nlp implements the message analysis pipeline: normalization,
// language detection, intent and category classification and entity
// extraction. Every exported function is safe for concurrent use.
package nlp

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Locale is one of the languages the keyword tables are keyed by.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleSV Locale = "sv"
	LocaleDE Locale = "de"
	LocaleES Locale = "es"
	LocaleFA Locale = "fa"
)

// DefaultLocale is used when neither detection nor the caller picks one.
const DefaultLocale = LocaleEN

var supportedLocales = []Locale{LocaleEN, LocaleSV, LocaleDE, LocaleES, LocaleFA}

var ErrUnsupportedLocale = errors.New("UNSUPPORTED_LOCALE")

// Locales returns the supported locales in declaration order.
func Locales() []Locale {
	out := make([]Locale, len(supportedLocales))
	copy(out, supportedLocales)
	return out
}

func (l Locale) Valid() bool {
	for _, s := range supportedLocales {
		if l == s {
			return true
		}
	}
	return false
}

func (l Locale) String() string { return string(l) }

// ParseLocale maps a BCP 47 tag such as "sv-SE" or "FA" onto a supported
// locale by its base language.
func ParseLocale(s string) (Locale, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty locale", ErrUnsupportedLocale)
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrUnsupportedLocale, s, err)
	}
	base, _ := tag.Base()
	loc := Locale(base.String())
	if !loc.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLocale, s)
	}
	return loc, nil
}

// Intent is the coarse purpose of a message.
type Intent string

const (
	IntentBookService    Intent = "BOOK_SERVICE"
	IntentProviderSignup Intent = "PROVIDER_SIGNUP"
	IntentGeneralQA      Intent = "GENERAL_QA"
	IntentUnknown        Intent = "UNKNOWN"
)

// intentPriority is the order intents are tried in. Signup and question
// phrasing must be checked before the broader booking vocabulary.
var intentPriority = []Intent{IntentProviderSignup, IntentGeneralQA, IntentBookService}

// Matchable reports whether the intent can be produced by keyword matching.
func (i Intent) Matchable() bool {
	for _, p := range intentPriority {
		if i == p {
			return true
		}
	}
	return false
}

// EntityResult holds the structured values found in a message. A nil field
// means the entity was not found.
type EntityResult struct {
	Location *string `json:"location"`
	Timing   *string `json:"timing"`
	Budget   *string `json:"budget"`
	Hours    *int    `json:"hours"`
	Items    *int    `json:"items"`
	Rooms    *int    `json:"rooms"`
}

// Empty reports whether no entity was extracted.
func (e EntityResult) Empty() bool {
	return e.Location == nil && e.Timing == nil && e.Budget == nil &&
		e.Hours == nil && e.Items == nil && e.Rooms == nil
}

// KBHit is a knowledge-base match contributed by a SemanticMatcher.
type KBHit struct {
	Matched    bool    `json:"matched"`
	Category   *string `json:"category"`
	AnswerKey  *string `json:"answer_key"`
	Confidence float64 `json:"confidence"`
}

// Request is a single analysis call.
type Request struct {
	Message    string
	LocaleHint Locale
	RequestID  *string
}

// AnalysisResult is the outcome of one Analyze call.
type AnalysisResult struct {
	Language   Locale       `json:"language"`
	Intent     Intent       `json:"intent"`
	Category   *string      `json:"category"`
	Entities   EntityResult `json:"entities"`
	KBHit      *KBHit       `json:"kb_hit"`
	Confidence float64      `json:"confidence"`
	RequestID  *string      `json:"request_id"`
}

// CategoryName returns the category or "" when absent.
func (r *AnalysisResult) CategoryName() string {
	if r.Category == nil {
		return ""
	}
	return *r.Category
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
