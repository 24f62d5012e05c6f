// Package spec parses declarative screen specifications into ScreenSpec values
// and exposes pure query helpers over the parsed tests.
package spec

// Priority ranks an E2E test.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// DefaultPriority is applied when a test omits priority.
const DefaultPriority = PriorityMedium

// Priorities lists every priority level, highest first.
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// Valid reports whether p is one of the four known levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// TemplateCategory names one of the fixed code-generation patterns.
type TemplateCategory string

const (
	CategoryCRUD             TemplateCategory = "crud-operations"
	CategoryFormValidation   TemplateCategory = "form-validation"
	CategoryModalWorkflow    TemplateCategory = "modal-workflow"
	CategoryNavigation       TemplateCategory = "navigation"
	CategoryLoadingStates    TemplateCategory = "loading-states"
	CategoryVisualRegression TemplateCategory = "visual-regression"
)

// LLMHint forces a test onto the generative-model path.
const LLMHint = "llm"

// Categories lists the template categories in catalog declaration order.
var Categories = []TemplateCategory{
	CategoryCRUD,
	CategoryFormValidation,
	CategoryModalWorkflow,
	CategoryNavigation,
	CategoryLoadingStates,
	CategoryVisualRegression,
}

// IsCategory reports whether name is a known template category.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if string(c) == name {
			return true
		}
	}
	return false
}

// ScreenSpec is the validated, in-memory form of one screen specification.
type ScreenSpec struct {
	Screen      string    `yaml:"screen" json:"screen"`
	Description string    `yaml:"description" json:"description"`
	Route       string    `yaml:"route,omitempty" json:"route,omitempty"`
	Tests       []E2ETest `yaml:"e2e_tests" json:"tests"`
}

// E2ETest is one end-to-end scenario. Values are treated as immutable once parsed.
type E2ETest struct {
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description" json:"description"`
	Steps        []string `yaml:"steps" json:"steps"`
	Assertions   []string `yaml:"assertions" json:"assertions"`
	Priority     Priority `yaml:"priority,omitempty" json:"priority"`
	TemplateHint string   `yaml:"template_hint,omitempty" json:"templateHint,omitempty"`
	SkipIfEmpty  bool     `yaml:"skip_if_empty,omitempty" json:"skipIfEmpty,omitempty"`
}

// HasTemplateHint reports whether the test names a template or the llm hint.
func (t E2ETest) HasTemplateHint() bool {
	return t.TemplateHint != ""
}

// ForcesLLM reports whether the test opts out of templates entirely.
func (t E2ETest) ForcesLLM() bool {
	return t.TemplateHint == LLMHint
}

// Stats summarizes a ScreenSpec.
type Stats struct {
	Total      int              `json:"total"`
	ByPriority map[Priority]int `json:"byPriority"`
	WithHint   int              `json:"withTemplateHint"`
	Skippable  int              `json:"skippable"`
}
