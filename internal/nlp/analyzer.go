package nlp

import (
	"context"
	"math"
)

// Analyzer runs the full pipeline. The zero value is not usable; build one
// with NewAnalyzer. An Analyzer is immutable and safe for concurrent use.
type Analyzer struct {
	tables            *KeywordTables
	intentThreshold   float64
	categoryThreshold float64
	semantic          SemanticMatcher
}

type Option func(*Analyzer)

func WithKeywordTables(t *KeywordTables) Option {
	return func(a *Analyzer) {
		if t != nil {
			a.tables = t
		}
	}
}

func WithIntentThreshold(score float64) Option {
	return func(a *Analyzer) { a.intentThreshold = score }
}

func WithCategoryThreshold(score float64) Option {
	return func(a *Analyzer) { a.categoryThreshold = score }
}

// WithSemanticMatcher installs an optional knowledge-base matcher. A nil
// matcher leaves semantic lookup disabled.
func WithSemanticMatcher(m SemanticMatcher) Option {
	return func(a *Analyzer) { a.semantic = m }
}

func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		tables:            DefaultTables(),
		intentThreshold:   DefaultIntentThreshold,
		categoryThreshold: DefaultCategoryThreshold,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SemanticEnabled reports whether a matcher is installed.
func (a *Analyzer) SemanticEnabled() bool { return a.semantic != nil }

// Tables returns the vocabularies in use.
func (a *Analyzer) Tables() *KeywordTables { return a.tables }

// Analysis is an AnalysisResult plus the intermediate decisions that led to
// it, for logging and debugging.
type Analysis struct {
	Result      AnalysisResult
	Normalized  string
	Detected    Locale
	IntentMatch IntentMatch
	Category    CategoryMatch
	SemanticErr error
}

// Analyze classifies one message. It never fails: unmatched stages resolve
// to UNKNOWN or absent values.
func (a *Analyzer) Analyze(ctx context.Context, req Request) AnalysisResult {
	return a.AnalyzeDetailed(ctx, req).Result
}

func (a *Analyzer) AnalyzeDetailed(ctx context.Context, req Request) Analysis {
	detected := DetectLanguage(req.Message)
	loc := EffectiveLocale(detected, req.LocaleHint)
	normalized := Normalize(req.Message)

	intent := classifyIntent(normalized, loc, a.tables, a.intentThreshold)

	var category CategoryMatch
	if intent.Intent == IntentBookService {
		category = matchCategory(normalized, loc, a.tables, a.categoryThreshold)
	}

	out := Analysis{
		Normalized:  normalized,
		Detected:    detected,
		IntentMatch: intent,
		Category:    category,
	}

	var kb *KBHit
	if a.semantic != nil {
		hit, err := a.semantic.Match(ctx, normalized, loc)
		switch {
		case err != nil:
			out.SemanticErr = err
		case hit != nil && hit.Matched:
			kb = hit
			if intent.Intent == IntentBookService && hit.Category != nil && *hit.Category != "" &&
				hit.Confidence > category.Confidence {
				category = CategoryMatch{Category: *hit.Category, Confidence: clamp01(hit.Confidence)}
				out.Category = category
			}
		}
	}

	result := AnalysisResult{
		Language:   loc,
		Intent:     intent.Intent,
		Entities:   ExtractEntities(req.Message),
		KBHit:      kb,
		Confidence: clamp01(math.Max(intent.Confidence, category.Confidence)),
		RequestID:  req.RequestID,
	}
	if category.Found() {
		result.Category = strPtr(category.Category)
	}
	out.Result = result
	return out
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
