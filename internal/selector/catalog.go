// Package selector scores E2E tests against the template catalog using
// weighted keyword overlap and decides between template rendering and the
// generative fallback.
package selector

import (
	"fmt"
	"strings"

	"e2egen/internal/spec"
)

// Keyword is one weighted entry in a category's keyword table.
type Keyword struct {
	Keyword string  `json:"keyword" yaml:"keyword"`
	Weight  float64 `json:"weight" yaml:"weight"`
}

// Table binds a category to its ordered keyword table.
type Table struct {
	Category spec.TemplateCategory `json:"category" yaml:"category"`
	Keywords []Keyword             `json:"keywords" yaml:"keywords"`
}

type catalogEntry struct {
	category spec.TemplateCategory
	keywords []Keyword
	total    float64
}

// Catalog is an ordered, immutable set of keyword tables. Declaration order
// breaks score ties. A Catalog is safe for concurrent use.
type Catalog struct {
	entries []catalogEntry
}

// NewCatalog validates and freezes the given tables.
func NewCatalog(tables ...Table) (*Catalog, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("catalog requires at least one table")
	}

	seen := make(map[spec.TemplateCategory]bool, len(tables))
	c := &Catalog{entries: make([]catalogEntry, 0, len(tables))}

	for _, t := range tables {
		if t.Category == "" {
			return nil, fmt.Errorf("catalog table with empty category")
		}
		if seen[t.Category] {
			return nil, fmt.Errorf("duplicate catalog category %q", t.Category)
		}
		seen[t.Category] = true

		if len(t.Keywords) == 0 {
			return nil, fmt.Errorf("category %q has no keywords", t.Category)
		}

		entry := catalogEntry{category: t.Category, keywords: make([]Keyword, 0, len(t.Keywords))}
		for _, kw := range t.Keywords {
			word := strings.ToLower(strings.TrimSpace(kw.Keyword))
			if word == "" {
				return nil, fmt.Errorf("category %q has an empty keyword", t.Category)
			}
			if kw.Weight <= 0 {
				return nil, fmt.Errorf("category %q keyword %q: weight must be > 0", t.Category, word)
			}
			entry.keywords = append(entry.keywords, Keyword{Keyword: word, Weight: kw.Weight})
			entry.total += kw.Weight
		}
		c.entries = append(c.entries, entry)
	}

	return c, nil
}

// MustCatalog is NewCatalog that panics on invalid tables.
func MustCatalog(tables ...Table) *Catalog {
	c, err := NewCatalog(tables...)
	if err != nil {
		panic(err)
	}
	return c
}

// Categories returns the catalog's categories in declaration order.
func (c *Catalog) Categories() []spec.TemplateCategory {
	out := make([]spec.TemplateCategory, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.category
	}
	return out
}

// Keywords returns a copy of the keyword table for category.
func (c *Catalog) Keywords(category spec.TemplateCategory) ([]Keyword, bool) {
	for _, e := range c.entries {
		if e.category == category {
			out := make([]Keyword, len(e.keywords))
			copy(out, e.keywords)
			return out, true
		}
	}
	return nil, false
}

// Len returns the number of categories.
func (c *Catalog) Len() int {
	return len(c.entries)
}

var defaultCatalog = MustCatalog(
	Table{Category: spec.CategoryCRUD, Keywords: []Keyword{
		{"create", 0.15}, {"delete", 0.15}, {"edit", 0.12}, {"update", 0.12},
		{"add", 0.10}, {"remove", 0.10}, {"save", 0.08},
		{"list", 0.06}, {"item", 0.06}, {"record", 0.06},
	}},
	Table{Category: spec.CategoryFormValidation, Keywords: []Keyword{
		{"form", 0.20}, {"validation", 0.15}, {"error", 0.12}, {"required", 0.12},
		{"invalid", 0.10}, {"submit", 0.10}, {"input", 0.08}, {"field", 0.08},
		{"email", 0.05},
	}},
	Table{Category: spec.CategoryModalWorkflow, Keywords: []Keyword{
		{"modal", 0.30}, {"dialog", 0.15}, {"appears", 0.10}, {"backdrop", 0.10},
		{"blur", 0.10}, {"close", 0.10}, {"overlay", 0.10}, {"popup", 0.05},
	}},
	Table{Category: spec.CategoryNavigation, Keywords: []Keyword{
		{"navigate", 0.20}, {"link", 0.15}, {"route", 0.15}, {"url", 0.15},
		{"redirect", 0.10}, {"page", 0.10}, {"back", 0.05}, {"menu", 0.05},
		{"breadcrumb", 0.05},
	}},
	Table{Category: spec.CategoryLoadingStates, Keywords: []Keyword{
		{"loading", 0.25}, {"spinner", 0.20}, {"skeleton", 0.15}, {"progress", 0.10},
		{"pending", 0.10}, {"wait", 0.10}, {"placeholder", 0.05}, {"fetch", 0.05},
	}},
	Table{Category: spec.CategoryVisualRegression, Keywords: []Keyword{
		{"screenshot", 0.25}, {"visual", 0.20}, {"snapshot", 0.15}, {"layout", 0.10},
		{"appearance", 0.10}, {"pixel", 0.10}, {"responsive", 0.05}, {"theme", 0.05},
	}},
)

// DefaultCatalog returns the built-in six-category catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}
