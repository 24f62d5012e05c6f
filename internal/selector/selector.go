package selector

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"e2egen/internal/logging"
	"e2egen/internal/spec"
)

// DefaultThreshold is the minimum score at which a template is trusted.
const DefaultThreshold = 0.7

// Markers placed in MatchedKeywords when scoring is bypassed.
const (
	MarkerForcedLLM    = "[forced llm]"
	MarkerExplicitHint = "[explicit hint]"
)

// Path records how a Match was decided.
type Path string

const (
	PathExplicitHint Path = "explicit hint"
	PathForcedLLM    Path = "forced fallback"
	PathScored       Path = "scored"
)

// Match is the outcome of scoring one test against one category.
// Template is empty when no category matched at all.
type Match struct {
	Template          spec.TemplateCategory `json:"template"`
	Score             float64               `json:"score"`
	MatchedKeywords   []string              `json:"matchedKeywords"`
	ShouldUseTemplate bool                  `json:"shouldUseTemplate"`
	Path              Path                  `json:"path"`
}

// Config configures a Selector.
type Config struct {
	// Threshold in (0,1]; zero selects DefaultThreshold.
	Threshold float64
	// Catalog defaults to DefaultCatalog().
	Catalog *Catalog
}

// Selector scores tests against an immutable catalog. It holds no mutable
// state and is safe for concurrent use.
type Selector struct {
	threshold float64
	catalog   *Catalog
}

// New creates a Selector. Out-of-range thresholds fall back to DefaultThreshold.
func New(cfg Config) *Selector {
	threshold := cfg.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Selector{threshold: threshold, catalog: catalog}
}

// NewDefault creates a Selector with the default catalog and threshold.
func NewDefault() *Selector {
	return New(Config{})
}

// Threshold returns the decision threshold.
func (s *Selector) Threshold() float64 {
	return s.threshold
}

// Catalog returns the selector's catalog.
func (s *Selector) Catalog() *Catalog {
	return s.catalog
}

// SelectTemplate picks the best category for test. Explicit template hints
// bypass scoring: "llm" forces the fallback, a category name forces that template.
func (s *Selector) SelectTemplate(test spec.E2ETest) Match {
	if m, ok := s.hintMatch(test); ok {
		logging.SelectorDebug("%q: %s -> %q", test.Name, m.Path, test.TemplateHint)
		return m
	}

	all := s.score(test)
	best := Match{Score: 0, MatchedKeywords: []string{}, Path: PathScored}
	for _, m := range all {
		// Strict comparison keeps the first-declared category on ties.
		if m.Score > best.Score {
			best = m
		}
	}

	logging.SelectorDebug("%q: best=%q score=%.2f use_template=%v", test.Name, best.Template, best.Score, best.ShouldUseTemplate)
	return best
}

// ScoreAll scores test against every category, sorted by descending score.
// Ties keep catalog order. Hints are ignored here; every entry is scored.
func (s *Selector) ScoreAll(test spec.E2ETest) []Match {
	all := s.score(test)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})
	return all
}

// GetTemplateKeywords returns the keyword table for a category name.
func (s *Selector) GetTemplateKeywords(category string) ([]Keyword, bool) {
	return s.catalog.Keywords(spec.TemplateCategory(category))
}

// hintMatch honors "llm" and hints naming a category this catalog holds.
// Other hints fall through to scoring.
func (s *Selector) hintMatch(test spec.E2ETest) (Match, bool) {
	switch {
	case test.TemplateHint == spec.LLMHint:
		return Match{
			Score:             0,
			MatchedKeywords:   []string{MarkerForcedLLM},
			ShouldUseTemplate: false,
			Path:              PathForcedLLM,
		}, true
	case s.hasCategory(test.TemplateHint):
		return Match{
			Template:          spec.TemplateCategory(test.TemplateHint),
			Score:             1,
			MatchedKeywords:   []string{MarkerExplicitHint},
			ShouldUseTemplate: true,
			Path:              PathExplicitHint,
		}, true
	}
	return Match{}, false
}

func (s *Selector) hasCategory(name string) bool {
	if name == "" {
		return false
	}
	_, ok := s.catalog.Keywords(spec.TemplateCategory(name))
	return ok
}

func (s *Selector) score(test spec.E2ETest) []Match {
	text := searchText(test)
	out := make([]Match, 0, s.catalog.Len())

	for _, entry := range s.catalog.entries {
		matched := []string{}
		var weight float64
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw.Keyword) {
				matched = append(matched, kw.Keyword)
				weight += kw.Weight
			}
		}

		score := 0.0
		if entry.total > 0 {
			score = roundScore(weight / entry.total)
		}
		out = append(out, Match{
			Template:          entry.category,
			Score:             score,
			MatchedKeywords:   matched,
			ShouldUseTemplate: score >= s.threshold,
			Path:              PathScored,
		})
	}
	return out
}

func searchText(test spec.E2ETest) string {
	var b strings.Builder
	b.WriteString(test.Name)
	b.WriteByte(' ')
	b.WriteString(test.Description)
	b.WriteByte(' ')
	b.WriteString(strings.Join(test.Steps, " "))
	b.WriteByte(' ')
	b.WriteString(strings.Join(test.Assertions, " "))
	return strings.ToLower(b.String())
}

// roundScore trims float noise so sums such as 0.1+0.6 compare cleanly against the threshold.
func roundScore(v float64) float64 {
	v = math.Round(v*1e6) / 1e6
	return math.Max(0, math.Min(1, v))
}

// Explain renders a human-readable trace of the selection for diagnostics.
func (s *Selector) Explain(test spec.E2ETest) string {
	m := s.SelectTemplate(test)

	var b strings.Builder
	fmt.Fprintf(&b, "Test: %s\n", test.Name)

	switch m.Path {
	case PathExplicitHint:
		fmt.Fprintf(&b, "Path: explicit hint (template_hint: %s)\n", test.TemplateHint)
	case PathForcedLLM:
		fmt.Fprintf(&b, "Path: forced fallback (template_hint: %s)\n", spec.LLMHint)
	default:
		b.WriteString("Path: scored by keyword overlap\n")
	}

	winner := string(m.Template)
	if winner == "" {
		winner = "(none)"
	}
	fmt.Fprintf(&b, "Winner: %s\n", winner)
	fmt.Fprintf(&b, "Score: %.2f\n", m.Score)
	if len(m.MatchedKeywords) == 0 {
		b.WriteString("Matched keywords: (none)\n")
	} else {
		fmt.Fprintf(&b, "Matched keywords: %s\n", strings.Join(m.MatchedKeywords, ", "))
	}
	fmt.Fprintf(&b, "Threshold: %.2f\n", s.threshold)

	if m.Path == PathScored {
		b.WriteString("Scores:\n")
		for _, sm := range s.ScoreAll(test) {
			fmt.Fprintf(&b, "  %-18s %.2f\n", sm.Template, sm.Score)
		}
	}

	if m.ShouldUseTemplate {
		fmt.Fprintf(&b, "Decision: render template %s\n", m.Template)
	} else {
		b.WriteString("Decision: fall back to generative refinement\n")
	}
	return b.String()
}
