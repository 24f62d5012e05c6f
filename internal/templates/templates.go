// Package templates holds the Playwright template library, one template per
// category, and builds the render context a template expects from a test.
package templates

import (
	"embed"
	"fmt"
	"sort"

	"e2egen/internal/render"
	"e2egen/internal/spec"
)

//go:embed tmpl/*.tmpl
var files embed.FS

// Library maps each category to its compiled template.
type Library struct {
	byCategory map[spec.TemplateCategory]*render.Template
}

// Load compiles the embedded templates. Every category must have one.
func Load() (*Library, error) {
	lib := &Library{byCategory: make(map[spec.TemplateCategory]*render.Template, len(spec.Categories))}
	for _, c := range spec.Categories {
		src, err := files.ReadFile("tmpl/" + string(c) + ".tmpl")
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", c, err)
		}
		tpl, err := render.Compile(string(src))
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", c, err)
		}
		lib.byCategory[c] = tpl
	}
	return lib, nil
}

// MustLoad is like Load but panics on error.
func MustLoad() *Library {
	lib, err := Load()
	if err != nil {
		panic(err)
	}
	return lib
}

// Get returns the template for category.
func (l *Library) Get(category spec.TemplateCategory) (*render.Template, bool) {
	tpl, ok := l.byCategory[category]
	return tpl, ok
}

// Variables lists the names the category's template references.
func (l *Library) Variables(category spec.TemplateCategory) []string {
	tpl, ok := l.byCategory[category]
	if !ok {
		return nil
	}
	return render.ExtractVariables(tpl.Source())
}

// Render fills the category's template for test. It fails when the template
// references variables the built context cannot supply.
func (l *Library) Render(category spec.TemplateCategory, screen spec.ScreenSpec, test spec.E2ETest) (string, error) {
	tpl, ok := l.byCategory[category]
	if !ok {
		return "", fmt.Errorf("no template for category %q", category)
	}
	ctx := BuildContext(category, screen, test)
	if missing := Missing(tpl.Source(), ctx); len(missing) > 0 {
		return "", &MissingError{Category: category, Names: missing}
	}
	return tpl.Execute(ctx), nil
}

// MissingError reports template variables the context could not supply.
type MissingError struct {
	Category spec.TemplateCategory
	Names    []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("template %s: missing variables %v", e.Category, e.Names)
}

// Missing lists the variables tpl references that ctx cannot supply. Keys of
// maps inside list values count as supplied, since loop bodies read them.
func Missing(tpl string, ctx render.Map) []string {
	available := make(map[string]struct{}, len(ctx))
	for k, v := range ctx {
		available[k] = struct{}{}
		list, ok := v.(render.List)
		if !ok {
			continue
		}
		for _, item := range list {
			if m, ok := item.(render.Map); ok {
				for field := range m {
					available[field] = struct{}{}
				}
			}
		}
	}

	var missing []string
	for _, name := range render.ExtractVariables(tpl) {
		if _, ok := available[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Keys returns the context keys in sorted order.
func Keys(ctx render.Map) []string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
