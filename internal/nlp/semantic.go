package nlp

import "context"

// SemanticMatcher is an optional knowledge-base lookup consulted after the
// keyword pipeline. Implementations must be safe for concurrent use.
type SemanticMatcher interface {
	Match(ctx context.Context, normalized string, loc Locale) (*KBHit, error)
}

// SemanticMatcherFunc adapts a function to SemanticMatcher.
type SemanticMatcherFunc func(ctx context.Context, normalized string, loc Locale) (*KBHit, error)

func (f SemanticMatcherFunc) Match(ctx context.Context, normalized string, loc Locale) (*KBHit, error) {
	return f(ctx, normalized, loc)
}
