package spec

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"e2egen/internal/logging"

	"gopkg.in/yaml.v3"
)

// rawSpec mirrors the on-disk shape with pointers so absent keys can be told
// apart from zero values during validation.
type rawSpec struct {
	Screen      *string    `yaml:"screen"`
	Description *string    `yaml:"description"`
	Route       *string    `yaml:"route"`
	Tests       *[]rawTest `yaml:"e2e_tests"`
}

type rawTest struct {
	Name         *string    `yaml:"name"`
	Description  *string    `yaml:"description"`
	Steps        stringList `yaml:"steps"`
	Assertions   stringList `yaml:"assertions"`
	Priority     *string    `yaml:"priority"`
	TemplateHint *string    `yaml:"template_hint"`
	SkipIfEmpty  *bool      `yaml:"skip_if_empty"`
}

// stringList decodes a sequence of strings. Any other node is remembered so
// validation reports it once, against its own field.
type stringList struct {
	items []string
	kind  string
	line  int
}

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		return node.Decode(&l.items)
	}
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return nil
	}
	l.kind, l.line = nodeKind(node), node.Line
	return nil
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	default:
		return "scalar"
	}
}

// Parse parses and validates a screen specification.
// Comments are ignored. Malformed text yields *ParseError; schema violations
// yield *ValidationError carrying every issue.
func Parse(text string) (*ScreenSpec, error) {
	var raw rawSpec
	var issues []Issue

	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		var typeErr *yaml.TypeError
		if !errors.As(err, &typeErr) {
			logging.ParserDebug("syntax error: %v", err)
			return nil, &ParseError{Err: err}
		}
		// Type mismatches are schema problems; decoding continued past them.
		for _, msg := range typeErr.Errors {
			issues = append(issues, Issue{Message: strings.TrimPrefix(msg, "yaml: ")})
		}
	}

	spec, schemaIssues := validate(raw)
	issues = append(issues, schemaIssues...)
	if len(issues) > 0 {
		logging.ParserDebug("validation failed with %d issues", len(issues))
		return nil, &ValidationError{Issues: issues}
	}

	logging.ParserDebug("parsed screen %q with %d tests", spec.Screen, len(spec.Tests))
	return spec, nil
}

// ParseFile reads path and delegates to Parse.
func ParseFile(path string) (*ScreenSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec %s: %w", path, err)
	}
	spec, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

func validate(raw rawSpec) (*ScreenSpec, []Issue) {
	var issues []Issue
	add := func(path, format string, args ...interface{}) {
		issues = append(issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	spec := &ScreenSpec{}

	if s := trimmed(raw.Screen); s == "" {
		add("screen", "is required")
	} else {
		spec.Screen = s
	}

	if s := trimmed(raw.Description); s == "" {
		add("description", "is required")
	} else {
		spec.Description = s
	}

	if raw.Route != nil {
		route := strings.TrimSpace(*raw.Route)
		if !strings.HasPrefix(route, "/") {
			add("route", "must start with \"/\" (got %q)", route)
		} else {
			spec.Route = route
		}
	}

	switch {
	case raw.Tests == nil:
		add("e2e_tests", "is required")
	case len(*raw.Tests) == 0:
		add("e2e_tests", "must contain at least one test")
	default:
		for i, rt := range *raw.Tests {
			test, testIssues := validateTest(fmt.Sprintf("e2e_tests[%d]", i), rt)
			issues = append(issues, testIssues...)
			spec.Tests = append(spec.Tests, test)
		}
	}

	return spec, issues
}

func validateTest(prefix string, rt rawTest) (E2ETest, []Issue) {
	var issues []Issue
	add := func(field, format string, args ...interface{}) {
		issues = append(issues, Issue{Path: prefix + "." + field, Message: fmt.Sprintf(format, args...)})
	}

	test := E2ETest{
		Name:        trimmed(rt.Name),
		Description: trimmed(rt.Description),
		Priority:    DefaultPriority,
	}

	if test.Name == "" {
		add("name", "is required")
	}
	if test.Description == "" {
		add("description", "is required")
	}

	test.Steps = listField(rt.Steps, "steps", "step", add)
	test.Assertions = listField(rt.Assertions, "assertions", "assertion", add)

	if rt.Priority != nil {
		p := Priority(strings.ToLower(strings.TrimSpace(*rt.Priority)))
		if !p.Valid() {
			add("priority", "must be one of critical, high, medium, low (got %q)", *rt.Priority)
		} else {
			test.Priority = p
		}
	}

	if rt.TemplateHint != nil {
		hint := strings.TrimSpace(*rt.TemplateHint)
		if hint != LLMHint && !IsCategory(hint) {
			add("template_hint", "unknown template %q (valid: %s)", hint, validHints())
		} else {
			test.TemplateHint = hint
		}
	}

	if rt.SkipIfEmpty != nil {
		test.SkipIfEmpty = *rt.SkipIfEmpty
	}

	return test, issues
}

func listField(l stringList, field, noun string, add func(field, format string, args ...interface{})) []string {
	if l.kind != "" {
		add(field, "must be a list of %ss (got a %s on line %d)", noun, l.kind, l.line)
		return nil
	}
	return nonBlank(l.items, field, noun, add)
}

func nonBlank(items []string, field, noun string, add func(field, format string, args ...interface{})) []string {
	if len(items) == 0 {
		add(field, "must contain at least one %s", noun)
		return nil
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			add(fmt.Sprintf("%s[%d]", field, i), "must not be blank")
			continue
		}
		out = append(out, item)
	}
	return out
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func validHints() string {
	names := make([]string, 0, len(Categories)+1)
	for _, c := range Categories {
		names = append(names, string(c))
	}
	names = append(names, LLMHint)
	return strings.Join(names, ", ")
}
