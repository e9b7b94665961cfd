// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrRegistryInvalid = errors.New("REGISTRY_INVALID")
	ErrDuplicate       = errors.New("DUPLICATE_KEYWORD")
	ErrUnknownCategory = errors.New("UNKNOWN_CATEGORY")
)

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadRegistry reads a registry from a .json, .yaml or .yml file.
func LoadRegistry(path string) (*KeywordRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg KeywordRegistry
	if isYAML(path) {
		err = yaml.Unmarshal(data, &reg)
	} else {
		err = json.Unmarshal(data, &reg)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &reg, nil
}

// SaveRegistry writes reg to path, creating parent directories. The format
// follows the file extension.
func SaveRegistry(reg *KeywordRegistry, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(reg)
	} else {
		data, err = json.MarshalIndent(reg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

// Touch stamps LastUpdated with the current UTC time.
func (r *KeywordRegistry) Touch() {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Validate checks the registry can be turned into keyword tables. It
// returns every problem found, joined.
func (r *KeywordRegistry) Validate() error {
	var problems []error
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if _, ok := r.Intents[FallbackLocale]; !ok {
		add("intents: missing %q table", FallbackLocale)
	}
	for loc, byIntent := range r.Intents {
		if !contains(Locales, loc) {
			add("intents: unknown locale %q", loc)
		}
		for intent, words := range byIntent {
			if !contains(Intents, intent) {
				add("intents.%s: unknown intent %q", loc, intent)
			}
			checkKeywords(fmt.Sprintf("intents.%s.%s", loc, intent), words, add)
		}
	}

	if len(r.Categories) == 0 {
		add("categories: registry contains no categories")
	}
	seen := make(map[string]bool, len(r.Categories))
	for i, c := range r.Categories {
		if strings.TrimSpace(c.ID) == "" {
			add("categories[%d]: missing id", i)
			continue
		}
		if seen[c.ID] {
			add("categories[%d]: duplicate id %q", i, c.ID)
		}
		seen[c.ID] = true
		if len(c.Keywords[FallbackLocale]) == 0 {
			add("categories.%s: missing %q keywords", c.ID, FallbackLocale)
		}
		for loc, words := range c.Keywords {
			if !contains(Locales, loc) {
				add("categories.%s: unknown locale %q", c.ID, loc)
			}
			checkKeywords(fmt.Sprintf("categories.%s.%s", c.ID, loc), words, add)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRegistryInvalid, errors.Join(problems...))
}

func checkKeywords(path string, words []string, add func(string, ...interface{})) {
	seen := make(map[string]bool, len(words))
	for i, w := range words {
		if strings.TrimSpace(w) == "" {
			add("%s[%d]: blank keyword", path, i)
			continue
		}
		if seen[w] {
			add("%s: duplicate keyword %q", path, w)
		}
		seen[w] = true
	}
}

// AddIntentKeyword appends a keyword to one locale/intent list.
func (r *KeywordRegistry) AddIntentKeyword(locale, intent, keyword string) error {
	if !contains(Locales, locale) {
		return fmt.Errorf("%w: unknown locale %q", ErrRegistryInvalid, locale)
	}
	if !contains(Intents, intent) {
		return fmt.Errorf("%w: unknown intent %q", ErrRegistryInvalid, intent)
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return fmt.Errorf("%w: blank keyword", ErrRegistryInvalid)
	}
	if r.Intents == nil {
		r.Intents = map[string]map[string][]string{}
	}
	if r.Intents[locale] == nil {
		r.Intents[locale] = map[string][]string{}
	}
	if contains(r.Intents[locale][intent], keyword) {
		return fmt.Errorf("%w: %q already in %s/%s", ErrDuplicate, keyword, locale, intent)
	}
	r.Intents[locale][intent] = append(r.Intents[locale][intent], keyword)
	return nil
}

// AddCategoryKeyword appends a keyword to an existing category.
func (r *KeywordRegistry) AddCategoryKeyword(categoryID, locale, keyword string) error {
	if !contains(Locales, locale) {
		return fmt.Errorf("%w: unknown locale %q", ErrRegistryInvalid, locale)
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return fmt.Errorf("%w: blank keyword", ErrRegistryInvalid)
	}
	for i := range r.Categories {
		if r.Categories[i].ID != categoryID {
			continue
		}
		c := &r.Categories[i]
		if c.Keywords == nil {
			c.Keywords = map[string][]string{}
		}
		if contains(c.Keywords[locale], keyword) {
			return fmt.Errorf("%w: %q already in %s/%s", ErrDuplicate, keyword, categoryID, locale)
		}
		c.Keywords[locale] = append(c.Keywords[locale], keyword)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownCategory, categoryID)
}
