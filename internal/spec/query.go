package spec

// ExtractTests returns the spec's tests in source order.
func ExtractTests(s *ScreenSpec) []E2ETest {
	if s == nil {
		return nil
	}
	out := make([]E2ETest, len(s.Tests))
	copy(out, s.Tests)
	return out
}

// GroupByPriority buckets tests by priority. All four keys are always present.
func GroupByPriority(s *ScreenSpec) map[Priority][]E2ETest {
	groups := make(map[Priority][]E2ETest, len(Priorities))
	for _, p := range Priorities {
		groups[p] = []E2ETest{}
	}
	if s == nil {
		return groups
	}
	for _, t := range s.Tests {
		p := t.Priority
		if !p.Valid() {
			p = DefaultPriority
		}
		groups[p] = append(groups[p], t)
	}
	return groups
}

// GetTestsByTemplateHint returns tests whose template hint equals hint exactly.
// Tests without a hint are never returned.
func GetTestsByTemplateHint(s *ScreenSpec, hint string) []E2ETest {
	return filter(s, func(t E2ETest) bool {
		return t.TemplateHint != "" && t.TemplateHint == hint
	})
}

// GetTestsByPriority returns tests at the given priority level.
func GetTestsByPriority(s *ScreenSpec, level Priority) []E2ETest {
	return filter(s, func(t E2ETest) bool { return t.Priority == level })
}

// GetSkippableTests returns tests flagged skip_if_empty.
func GetSkippableTests(s *ScreenSpec) []E2ETest {
	return filter(s, func(t E2ETest) bool { return t.SkipIfEmpty })
}

// GetStats counts tests overall, per priority, with a template hint, and skippable.
func GetStats(s *ScreenSpec) Stats {
	stats := Stats{ByPriority: make(map[Priority]int, len(Priorities))}
	for _, p := range Priorities {
		stats.ByPriority[p] = 0
	}
	if s == nil {
		return stats
	}
	for _, t := range s.Tests {
		stats.Total++
		stats.ByPriority[t.Priority]++
		if t.HasTemplateHint() {
			stats.WithHint++
		}
		if t.SkipIfEmpty {
			stats.Skippable++
		}
	}
	return stats
}

func filter(s *ScreenSpec, keep func(E2ETest) bool) []E2ETest {
	out := []E2ETest{}
	if s == nil {
		return out
	}
	for _, t := range s.Tests {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
