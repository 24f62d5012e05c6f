package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeTestSpec() *ScreenSpec {
	return &ScreenSpec{
		Screen:      "Settings",
		Description: "User settings",
		Tests: []E2ETest{
			{Name: "a", Description: "a", Steps: []string{"s"}, Assertions: []string{"x"}, Priority: PriorityCritical, TemplateHint: "form-validation"},
			{Name: "b", Description: "b", Steps: []string{"s"}, Assertions: []string{"x"}, Priority: PriorityHigh, TemplateHint: LLMHint},
			{Name: "c", Description: "c", Steps: []string{"s"}, Assertions: []string{"x"}, Priority: PriorityMedium, SkipIfEmpty: true},
		},
	}
}

func TestGetStats(t *testing.T) {
	stats := GetStats(threeTestSpec())

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, map[Priority]int{
		PriorityCritical: 1,
		PriorityHigh:     1,
		PriorityMedium:   1,
		PriorityLow:      0,
	}, stats.ByPriority)
	assert.Equal(t, 1, stats.Skippable)
	assert.Equal(t, 2, stats.WithHint)
}

func TestGroupByPriority_AlwaysHasAllKeys(t *testing.T) {
	groups := GroupByPriority(threeTestSpec())
	require.Len(t, groups, 4)
	assert.Len(t, groups[PriorityCritical], 1)
	assert.Len(t, groups[PriorityHigh], 1)
	assert.Len(t, groups[PriorityMedium], 1)
	assert.NotNil(t, groups[PriorityLow])
	assert.Empty(t, groups[PriorityLow])

	empty := GroupByPriority(nil)
	assert.Len(t, empty, 4)
}

func TestGetTestsByTemplateHint(t *testing.T) {
	s := threeTestSpec()

	got := GetTestsByTemplateHint(s, "form-validation")
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Name)

	assert.Len(t, GetTestsByTemplateHint(s, LLMHint), 1)
	assert.Empty(t, GetTestsByTemplateHint(s, ""), "tests without a hint are excluded")
	assert.Empty(t, GetTestsByTemplateHint(s, "navigation"))
}

func TestGetTestsByPriority(t *testing.T) {
	s := threeTestSpec()
	got := GetTestsByPriority(s, PriorityHigh)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Name)
	assert.Empty(t, GetTestsByPriority(s, PriorityLow))
}

func TestGetSkippableTests(t *testing.T) {
	got := GetSkippableTests(threeTestSpec())
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].Name)
}

func TestExtractTests_ReturnsCopy(t *testing.T) {
	s := threeTestSpec()
	tests := ExtractTests(s)
	tests[0].Name = "mutated"
	assert.Equal(t, "a", s.Tests[0].Name)
}
