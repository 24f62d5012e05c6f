package spec

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFile_Fixture(t *testing.T) {
	s, err := ParseFile(filepath.Join("testdata", "dashboard.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Dashboard", s.Screen)
	assert.Equal(t, "/dashboard", s.Route)
	require.Len(t, s.Tests, 3)

	want := []E2ETest{
		{
			Name:        "Open settings modal",
			Description: "Modal dialog appears with backdrop blur when clicked",
			Steps:       []string{"Click the settings button", "Modal appears"},
			Assertions:  []string{"Modal is visible"},
			Priority:    PriorityCritical,
		},
		{
			Name:         "Navigate to projects",
			Description:  "Sidebar link routes to the projects page",
			Steps:        []string{`Click "Projects" in the sidebar`, "Wait for navigation"},
			Assertions:   []string{"URL is /projects"},
			Priority:     PriorityHigh,
			TemplateHint: "navigation",
		},
		{
			Name:        "Empty activity feed",
			Description: "Feed renders an empty state when there is no activity",
			Steps:       []string{"Load the dashboard with no activity"},
			Assertions:  []string{"Empty state message is shown"},
			Priority:    PriorityMedium,
			SkipIfEmpty: true,
		},
	}
	if diff := cmp.Diff(want, ExtractTests(s)); diff != "" {
		t.Errorf("ExtractTests mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, "", ErrorKind(err))
}

func TestParse_DefaultsPriority(t *testing.T) {
	s, err := Parse(`
screen: Login
description: Sign in
e2e_tests:
  - name: a
    description: b
    steps: [one]
    assertions: [two]
`)
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, s.Tests[0].Priority)
	assert.Empty(t, s.Route)
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse("screen: [unclosed\ndescription: x")
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindParse, ErrorKind(err))
}

func TestParse_CollectsAllViolations(t *testing.T) {
	_, err := Parse(`
route: dashboard
e2e_tests:
  - name: first
    description: has no steps
    steps: []
    assertions: [ok]
    priority: urgent
  - name: second
    description: bad hint
    steps: [go]
    assertions: []
    template_hint: carousel
`)
	require.Error(t, err)
	assert.Equal(t, KindValidation, ErrorKind(err))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))

	paths := make([]string, len(ve.Issues))
	for i, issue := range ve.Issues {
		paths[i] = issue.Path
	}
	assert.Equal(t, []string{
		"screen",
		"description",
		"route",
		"e2e_tests[0].steps",
		"e2e_tests[0].priority",
		"e2e_tests[1].assertions",
		"e2e_tests[1].template_hint",
	}, paths)
}

func TestParse_RequiresTests(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"missing", "screen: A\ndescription: B\n", "is required"},
		{"empty", "screen: A\ndescription: B\ne2e_tests: []\n", "must contain at least one test"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			require.Len(t, ve.Issues, 1)
			assert.Equal(t, "e2e_tests", ve.Issues[0].Path)
			assert.Equal(t, tt.msg, ve.Issues[0].Message)
		})
	}
}

func TestParse_TypeMismatchIsValidation(t *testing.T) {
	_, err := Parse(`
screen: A
description: B
e2e_tests:
  - name: t
    description: d
    steps: click the button
    assertions: [ok]
`)
	require.Error(t, err)
	assert.Equal(t, KindValidation, ErrorKind(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Issues, 1, "one issue per bad field: %v", ve.Issues)
	assert.Equal(t, "e2e_tests[0].steps", ve.Issues[0].Path)
	assert.Equal(t, "must be a list of steps (got a scalar on line 7)", ve.Issues[0].Message)
}

func TestParse_MappingWhereListBelongs(t *testing.T) {
	_, err := Parse(`
screen: A
description: B
e2e_tests:
  - name: t
    description: d
    steps: [s]
    assertions:
      visible: true
`)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Issues, 1)
	assert.Equal(t, "e2e_tests[0].assertions", ve.Issues[0].Path)
	assert.Contains(t, ve.Issues[0].Message, "got a mapping")
}

func TestParse_AcceptsLLMHint(t *testing.T) {
	s, err := Parse(`
screen: A
description: B
e2e_tests:
  - name: t
    description: d
    steps: [s]
    assertions: [a]
    template_hint: llm
`)
	require.NoError(t, err)
	assert.True(t, s.Tests[0].ForcesLLM())
}

func TestParse_BlankStep(t *testing.T) {
	_, err := Parse(`
screen: A
description: B
e2e_tests:
  - name: t
    description: d
    steps: ["ok", "  "]
    assertions: [a]
`)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Issues, 1)
	assert.Equal(t, "e2e_tests[0].steps[1]", ve.Issues[0].Path)
}
