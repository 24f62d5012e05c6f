package templates

import (
	"regexp"
	"strings"

	"e2egen/internal/render"
	"e2egen/internal/spec"
)

// BuildContext derives the render context for test. String values are
// escaped for single-quoted JavaScript literals.
func BuildContext(category spec.TemplateCategory, screen spec.ScreenSpec, test spec.E2ETest) render.Map {
	priority := test.Priority
	if priority == "" {
		priority = spec.DefaultPriority
	}

	ctx := render.Map{
		"screen":      render.String(JSEscape(screen.Screen)),
		"route":       render.String(JSEscape(screen.Route)),
		"hasRoute":    render.Bool(screen.Route != ""),
		"testName":    render.String(JSEscape(test.Name)),
		"description": render.String(JSEscape(test.Description)),
		"steps":       escapeAll(test.Steps),
		"assertions":  escapeAll(test.Assertions),
		"priority":    render.String(priority),
		"skipIfEmpty": render.Bool(test.SkipIfEmpty),
	}

	switch category {
	case spec.CategoryCRUD:
		ctx["entity"] = render.String(deriveEntity(screen, test))
	case spec.CategoryFormValidation:
		ctx["fields"] = deriveFields(test)
	case spec.CategoryModalWorkflow:
		ctx["modalName"] = render.String(deriveModalName(test))
	case spec.CategoryNavigation:
		if target := deriveTargetRoute(screen, test); target != "" {
			ctx["targetRoute"] = render.String(target)
		}
	case spec.CategoryVisualRegression:
		ctx["snapshotName"] = render.String(render.KebabCase(screen.Screen) + "-" + render.KebabCase(test.Name) + ".png")
	}
	return ctx
}

// JSEscape escapes s for a single-quoted JavaScript string and folds newlines.
func JSEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "`", "\\`", "\r\n", " ", "\n", " ", "\r", " ")
	return r.Replace(s)
}

func escapeAll(items []string) render.List {
	out := make(render.List, len(items))
	for i, s := range items {
		out[i] = render.String(JSEscape(s))
	}
	return out
}

var (
	crudVerb   = regexp.MustCompile(`(?i)\b(?:create|add|edit|update|delete|remove)\s+(?:(?:a|an|the|new|existing)\s+)*([a-z][a-z0-9]*)`)
	modalName  = regexp.MustCompile(`(?i)\b([a-z][a-z0-9]*)\s+(?:modal|dialog|popup)\b`)
	fillStep   = regexp.MustCompile(`(?i)^\s*(?:fill(?:\s+in)?|enter|type\s+into|input)\s+(?:the\s+)?([a-z][a-z0-9 ]*?)(?:\s+(?:field|input|box))?(?:\s+with\b.*)?$`)
	routeToken = regexp.MustCompile(`(^|\s|["'(])(/[A-Za-z0-9_\-/:.]*)`)
	nonWord    = regexp.MustCompile(`[^A-Za-z0-9 ]+`)
)

// deriveEntity finds the object of the first CRUD verb, falling back to the
// screen name.
func deriveEntity(screen spec.ScreenSpec, test spec.E2ETest) string {
	for _, text := range append([]string{test.Name, test.Description}, test.Steps...) {
		if m := crudVerb.FindStringSubmatch(text); m != nil {
			return strings.ToLower(m[1])
		}
	}
	return render.KebabCase(screen.Screen)
}

// deriveModalName takes the word before "modal", "dialog" or "popup".
func deriveModalName(test spec.E2ETest) string {
	for _, text := range append([]string{test.Name, test.Description}, test.Steps...) {
		for _, m := range modalName.FindAllStringSubmatch(text, -1) {
			if w := strings.ToLower(m[1]); !isVerb(w) {
				return w
			}
		}
	}
	return strings.TrimSpace(nonWord.ReplaceAllString(strings.ToLower(test.Name), " "))
}

func isVerb(w string) bool {
	switch w {
	case "open", "opens", "close", "closes", "show", "shows", "the", "a", "an":
		return true
	}
	return false
}

// deriveFields reads form field labels from fill/enter steps.
func deriveFields(test spec.E2ETest) render.List {
	seen := make(map[string]bool)
	fields := render.List{}
	for _, step := range test.Steps {
		m := fillStep.FindStringSubmatch(step)
		if m == nil {
			continue
		}
		label := strings.TrimSpace(m[1])
		name := render.CamelCase(label)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		fields = append(fields, render.Map{
			"name":  render.String(name + "Field"),
			"label": render.String(JSEscape(label)),
		})
	}
	return fields
}

// deriveTargetRoute returns the first path mentioned in the steps or
// assertions that differs from the screen's own route.
func deriveTargetRoute(screen spec.ScreenSpec, test spec.E2ETest) string {
	texts := append(append([]string{}, test.Steps...), test.Assertions...)
	for _, text := range texts {
		for _, m := range routeToken.FindAllStringSubmatch(text, -1) {
			route := strings.TrimRight(m[2], ".:")
			if route != "" && route != "/" && route != screen.Route {
				return route
			}
		}
	}
	return ""
}
