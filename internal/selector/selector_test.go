package selector

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"e2egen/internal/spec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modalTest() spec.E2ETest {
	return spec.E2ETest{
		Name:        "Open modal",
		Description: "Modal dialog appears with backdrop blur when clicked",
		Steps:       []string{"Click button", "Modal appears"},
		Assertions:  []string{"Modal is visible"},
		Priority:    spec.PriorityMedium,
	}
}

func unrelatedTest() spec.E2ETest {
	return spec.E2ETest{
		Name:        "Export report",
		Description: "Generates a CSV",
		Steps:       []string{"Press export"},
		Assertions:  []string{"File downloads"},
	}
}

func TestSelectTemplate_ModalExample(t *testing.T) {
	m := NewDefault().SelectTemplate(modalTest())

	assert.Equal(t, spec.CategoryModalWorkflow, m.Template)
	assert.GreaterOrEqual(t, m.Score, 0.7)
	assert.True(t, m.ShouldUseTemplate)
	assert.Equal(t, PathScored, m.Path)
	for _, kw := range []string{"modal", "appears", "backdrop", "blur"} {
		assert.Contains(t, m.MatchedKeywords, kw)
	}
}

func TestSelectTemplate_ForcedLLM(t *testing.T) {
	test := modalTest()
	test.TemplateHint = spec.LLMHint

	m := NewDefault().SelectTemplate(test)
	assert.Equal(t, 0.0, m.Score)
	assert.False(t, m.ShouldUseTemplate)
	assert.Equal(t, []string{MarkerForcedLLM}, m.MatchedKeywords)
	assert.Empty(t, m.Template)
}

func TestSelectTemplate_ExplicitHint(t *testing.T) {
	for _, c := range spec.Categories {
		t.Run(string(c), func(t *testing.T) {
			test := unrelatedTest()
			test.TemplateHint = string(c)

			m := NewDefault().SelectTemplate(test)
			assert.Equal(t, c, m.Template)
			assert.Equal(t, 1.0, m.Score)
			assert.True(t, m.ShouldUseTemplate)
			assert.Equal(t, []string{MarkerExplicitHint}, m.MatchedKeywords)
		})
	}
}

func TestSelectTemplate_NoOverlapFallsBack(t *testing.T) {
	sel := NewDefault()
	m := sel.SelectTemplate(unrelatedTest())

	assert.False(t, m.ShouldUseTemplate)
	assert.Empty(t, m.Template)
	for _, sm := range sel.ScoreAll(unrelatedTest()) {
		assert.Less(t, sm.Score, 0.7, string(sm.Template))
		assert.False(t, sm.ShouldUseTemplate)
	}
}

func TestScoreAll_SixEntriesSorted(t *testing.T) {
	tests := []spec.E2ETest{modalTest(), unrelatedTest(), {
		Name:        "Submit form",
		Description: "Required email field shows validation error when invalid",
		Steps:       []string{"Leave input empty", "Submit"},
		Assertions:  []string{"Error is shown"},
	}}

	for _, test := range tests {
		all := NewDefault().ScoreAll(test)
		require.Len(t, all, 6)
		for i := 1; i < len(all); i++ {
			assert.GreaterOrEqual(t, all[i-1].Score, all[i].Score)
		}
	}
}

func TestScoreAll_TiesKeepCatalogOrder(t *testing.T) {
	all := NewDefault().ScoreAll(unrelatedTest())
	var got []spec.TemplateCategory
	for _, m := range all {
		got = append(got, m.Template)
	}
	assert.Equal(t, spec.Categories, got)
}

func TestScoreAll_IgnoresHints(t *testing.T) {
	test := modalTest()
	test.TemplateHint = spec.LLMHint
	all := NewDefault().ScoreAll(test)
	assert.Equal(t, spec.CategoryModalWorkflow, all[0].Template)
	assert.Greater(t, all[0].Score, 0.0)
}

func TestScore_KeywordCountedOnce(t *testing.T) {
	once := spec.E2ETest{Name: "modal", Description: "x", Steps: []string{"x"}, Assertions: []string{"x"}}
	many := spec.E2ETest{Name: "modal modal", Description: "modal", Steps: []string{"modal"}, Assertions: []string{"modal"}}

	sel := NewDefault()
	assert.Equal(t, scoreFor(sel, once, spec.CategoryModalWorkflow), scoreFor(sel, many, spec.CategoryModalWorkflow))
	assert.InDelta(t, 0.30, scoreFor(sel, once, spec.CategoryModalWorkflow), 1e-9)
}

func TestSelectTemplate_TieBreakFirstDeclared(t *testing.T) {
	catalog := MustCatalog(
		Table{Category: spec.CategoryNavigation, Keywords: []Keyword{{"shared", 1}}},
		Table{Category: spec.CategoryCRUD, Keywords: []Keyword{{"shared", 2}}},
	)
	sel := New(Config{Catalog: catalog})
	m := sel.SelectTemplate(spec.E2ETest{Name: "shared", Description: "d", Steps: []string{"s"}, Assertions: []string{"a"}})
	assert.Equal(t, spec.CategoryNavigation, m.Template)
	assert.Equal(t, 1.0, m.Score)
}

func TestNew_CustomThreshold(t *testing.T) {
	strict := New(Config{Threshold: 0.9})
	assert.Equal(t, 0.9, strict.Threshold())

	m := strict.SelectTemplate(modalTest())
	assert.Equal(t, spec.CategoryModalWorkflow, m.Template)
	assert.False(t, m.ShouldUseTemplate, "0.75 is below a 0.9 threshold")

	lenient := New(Config{Threshold: 0.2})
	assert.True(t, lenient.SelectTemplate(modalTest()).ShouldUseTemplate)

	assert.Equal(t, DefaultThreshold, New(Config{Threshold: -1}).Threshold())
	assert.Equal(t, DefaultThreshold, New(Config{Threshold: 3}).Threshold())
}

func TestSelectTemplate_HintOutsideCatalogIsScored(t *testing.T) {
	navOnly := MustCatalog(Table{
		Category: spec.CategoryNavigation,
		Keywords: []Keyword{{"navigate", 0.6}, {"link", 0.4}},
	})
	sel := New(Config{Catalog: navOnly})

	test := modalTest()
	test.TemplateHint = string(spec.CategoryModalWorkflow)
	m := sel.SelectTemplate(test)
	assert.NotEqual(t, spec.CategoryModalWorkflow, m.Template)
	assert.Equal(t, PathScored, m.Path)
	assert.False(t, m.ShouldUseTemplate)
	assert.NotContains(t, m.MatchedKeywords, MarkerExplicitHint)

	test.TemplateHint = string(spec.CategoryNavigation)
	m = sel.SelectTemplate(test)
	assert.Equal(t, spec.CategoryNavigation, m.Template)
	assert.Equal(t, PathExplicitHint, m.Path)
	assert.Equal(t, 1.0, m.Score)
}

func TestGetTemplateKeywords(t *testing.T) {
	sel := NewDefault()
	kws, ok := sel.GetTemplateKeywords("modal-workflow")
	require.True(t, ok)
	assert.Equal(t, "modal", kws[0].Keyword)

	kws[0].Keyword = "mutated"
	again, _ := sel.GetTemplateKeywords("modal-workflow")
	assert.Equal(t, "modal", again[0].Keyword, "returned table must be a copy")

	_, ok = sel.GetTemplateKeywords("carousel")
	assert.False(t, ok)
}

func TestDefaultCatalog_CoversAllCategories(t *testing.T) {
	assert.Equal(t, spec.Categories, DefaultCatalog().Categories())
	for _, c := range spec.Categories {
		kws, ok := DefaultCatalog().Keywords(c)
		require.True(t, ok)
		var total float64
		for _, kw := range kws {
			assert.Greater(t, kw.Weight, 0.0)
			total += kw.Weight
		}
		assert.InDelta(t, 1.0, total, 1e-9, string(c))
	}
}

func TestNewCatalog_Rejects(t *testing.T) {
	cases := map[string][]Table{
		"empty":          nil,
		"no keywords":    {{Category: spec.CategoryCRUD}},
		"zero weight":    {{Category: spec.CategoryCRUD, Keywords: []Keyword{{"add", 0}}}},
		"blank keyword":  {{Category: spec.CategoryCRUD, Keywords: []Keyword{{"  ", 1}}}},
		"duplicate":      {{Category: spec.CategoryCRUD, Keywords: []Keyword{{"a", 1}}}, {Category: spec.CategoryCRUD, Keywords: []Keyword{{"b", 1}}}},
		"empty category": {{Keywords: []Keyword{{"a", 1}}}},
	}
	for name, tables := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewCatalog(tables...)
			assert.Error(t, err)
		})
	}
}

func TestExplain(t *testing.T) {
	sel := NewDefault()

	out := sel.Explain(modalTest())
	assert.Contains(t, out, "Path: scored")
	assert.Contains(t, out, "Winner: modal-workflow")
	assert.Contains(t, out, "Threshold: 0.70")
	assert.Contains(t, out, "backdrop")
	assert.Contains(t, out, "Decision: render template modal-workflow")

	forced := modalTest()
	forced.TemplateHint = spec.LLMHint
	out = sel.Explain(forced)
	assert.Contains(t, out, "Path: forced fallback")
	assert.Contains(t, out, MarkerForcedLLM)
	assert.Contains(t, out, "Decision: fall back")

	hinted := unrelatedTest()
	hinted.TemplateHint = "navigation"
	out = sel.Explain(hinted)
	assert.Contains(t, out, "Path: explicit hint (template_hint: navigation)")
	assert.Contains(t, out, "Score: 1.00")
}

func TestSelector_Concurrent(t *testing.T) {
	sel := NewDefault()
	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m := sel.SelectTemplate(modalTest()); m.Template != spec.CategoryModalWorkflow {
				errs <- fmt.Errorf("unexpected template %q", m.Template)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func scoreFor(sel *Selector, test spec.E2ETest, c spec.TemplateCategory) float64 {
	for _, m := range sel.ScoreAll(test) {
		if m.Template == c {
			return m.Score
		}
	}
	return -1
}

func TestSearchText_LowerCased(t *testing.T) {
	text := searchText(spec.E2ETest{Name: "A", Description: "B", Steps: []string{"C", "D"}, Assertions: []string{"E"}})
	assert.Equal(t, strings.ToLower(text), text)
	assert.Equal(t, "a b c d e", text)
}
