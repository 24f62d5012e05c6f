package refine

import (
	"regexp"
	"strings"

	"e2egen/internal/spec"
)

// RoutingPolicy picks the model tier for a test. It is a cost heuristic:
// short tests without branching language go to the fast tier. Both knobs
// are tunable through configuration.
type RoutingPolicy struct {
	MaxFastSteps      int      `yaml:"max_fast_steps"`
	ComplexitySignals []string `yaml:"complexity_signals"`
}

// DefaultRoutingPolicy returns the stock thresholds.
func DefaultRoutingPolicy() RoutingPolicy {
	return RoutingPolicy{
		MaxFastSteps:      3,
		ComplexitySignals: []string{"if", "conditional", "optional", "depending"},
	}
}

type router struct {
	policy RoutingPolicy
	signal *regexp.Regexp // nil when there are no signals
}

func newRouter(p RoutingPolicy) *router {
	r := &router{policy: p}
	var alts []string
	for _, s := range p.ComplexitySignals {
		if s = strings.TrimSpace(s); s != "" {
			alts = append(alts, regexp.QuoteMeta(strings.ToLower(s)))
		}
	}
	if len(alts) > 0 {
		r.signal = regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
	}
	return r
}

// complexity returns the first signal found in the description or steps.
func (r *router) complexity(test spec.E2ETest) (string, bool) {
	if r.signal == nil {
		return "", false
	}
	for _, text := range append([]string{test.Description}, test.Steps...) {
		if m := r.signal.FindString(text); m != "" {
			return strings.ToLower(m), true
		}
	}
	return "", false
}

func (r *router) tier(test spec.E2ETest) Tier {
	if len(test.Steps) > r.policy.MaxFastSteps {
		return TierCapable
	}
	if _, complex := r.complexity(test); complex {
		return TierCapable
	}
	return TierFast
}
