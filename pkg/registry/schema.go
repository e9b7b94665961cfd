// pkg/registry/schema.go
package registry

// KeywordRegistry is the on-disk form of the classifier vocabularies.
// Intents are keyed by locale then intent name; categories keep file order,
// which is also their tie-break order when matching.
type KeywordRegistry struct {
	Version     string                         `json:"version" yaml:"version"`
	LastUpdated string                         `json:"lastUpdated" yaml:"lastUpdated"`
	Intents     map[string]map[string][]string `json:"intents" yaml:"intents"`
	Categories  []Category                     `json:"categories" yaml:"categories"`
}

type Category struct {
	ID          string              `json:"id" yaml:"id"`
	DisplayName string              `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Keywords    map[string][]string `json:"keywords" yaml:"keywords"`
}

// Locales accepted as keys in a registry.
var Locales = []string{"en", "sv", "de", "es", "fa"}

// Intents that may carry keywords, in matching priority order.
var Intents = []string{"PROVIDER_SIGNUP", "GENERAL_QA", "BOOK_SERVICE"}

// FallbackLocale must be present for every intent table and category.
const FallbackLocale = "en"
