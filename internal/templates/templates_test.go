package templates

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"e2egen/internal/render"
	"e2egen/internal/spec"
)

func settingsScreen() spec.ScreenSpec {
	return spec.ScreenSpec{Screen: "User Settings", Description: "Account settings", Route: "/settings"}
}

func TestLoad_EveryCategoryCompiles(t *testing.T) {
	lib, err := Load()
	require.NoError(t, err)

	for _, c := range spec.Categories {
		tpl, ok := lib.Get(c)
		require.True(t, ok, c)
		assert.NoError(t, render.ValidateSyntax(tpl.Source()), c)
		assert.Contains(t, lib.Variables(c), "testName", c)
	}

	_, ok := lib.Get("unknown")
	assert.False(t, ok)
	assert.Nil(t, lib.Variables("unknown"))
}

func TestRender_ModalWorkflow(t *testing.T) {
	lib := MustLoad()
	test := spec.E2ETest{
		Name:        "Open settings modal",
		Description: "User's settings modal opens and closes",
		Steps:       []string{"Click settings button", "Press Escape"},
		Assertions:  []string{"Modal is visible", "Modal closes"},
	}

	out, err := lib.Render(spec.CategoryModalWorkflow, settingsScreen(), test)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "test('Open settings modal', async ({ page }) => {\n"))
	assert.Contains(t, out, "// User\\'s settings modal opens and closes")
	assert.Contains(t, out, "name: /settings/i")
	assert.Contains(t, out, "  // step: Click settings button\n  // step: Press Escape\n")
	assert.Contains(t, out, "  // expect: Modal closes\n});")
	assert.NotContains(t, out, "test.skip")
	assert.NotContains(t, out, "{{")
}

func TestRender_SkipIfEmptyGuard(t *testing.T) {
	lib := MustLoad()
	test := spec.E2ETest{
		Name:        "Delete a project",
		Description: "Remove a project from the list",
		Steps:       []string{"Click delete on the first project"},
		Assertions:  []string{"Project disappears"},
		SkipIfEmpty: true,
	}

	out, err := lib.Render(spec.CategoryCRUD, settingsScreen(), test)
	require.NoError(t, err)
	assert.Contains(t, out, "getByTestId('project-item').count()) === 0")
	assert.Contains(t, out, "test.skip(true, 'no project records');")
}

func TestRender_NavigationNeedsTarget(t *testing.T) {
	lib := MustLoad()
	test := spec.E2ETest{
		Name:        "Go to profile",
		Description: "Navigate to the profile page",
		Steps:       []string{"Click the profile link"},
		Assertions:  []string{"Profile page shows"},
	}

	_, err := lib.Render(spec.CategoryNavigation, settingsScreen(), test)
	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"targetRoute"}, missing.Names)

	test.Assertions = []string{"URL is /profile"}
	out, err := lib.Render(spec.CategoryNavigation, settingsScreen(), test)
	require.NoError(t, err)
	assert.Contains(t, out, `a[href="/profile"]`)
	assert.Contains(t, out, "new RegExp('/settings$')")
}

func TestRender_FormFields(t *testing.T) {
	lib := MustLoad()
	test := spec.E2ETest{
		Name:        "Email validation",
		Description: "Invalid email shows an error",
		Steps:       []string{"Fill email field with invalid value", "Enter Display Name", "Click submit"},
		Assertions:  []string{"Error message is shown"},
	}

	out, err := lib.Render(spec.CategoryFormValidation, settingsScreen(), test)
	require.NoError(t, err)
	assert.Contains(t, out, "const emailField = page.getByLabel('email', { exact: false });")
	assert.Contains(t, out, "const displayNameField = page.getByLabel('Display Name', { exact: false });")

	// Without fill steps the loop-body fields cannot be supplied.
	test.Steps = []string{"Click submit"}
	_, err = lib.Render(spec.CategoryFormValidation, settingsScreen(), test)
	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	assert.ElementsMatch(t, []string{"name", "label"}, missing.Names)
}

func TestBuildContext(t *testing.T) {
	test := spec.E2ETest{
		Name:        "Visual check",
		Description: "It's `stable`",
		Steps:       []string{"Load page"},
		Assertions:  []string{"Matches snapshot"},
	}
	ctx := BuildContext(spec.CategoryVisualRegression, settingsScreen(), test)

	want := render.Map{
		"screen":       render.String("User Settings"),
		"route":        render.String("/settings"),
		"hasRoute":     render.Bool(true),
		"testName":     render.String("Visual check"),
		"description":  render.String("It\\'s \\`stable\\`"),
		"steps":        render.List{render.String("Load page")},
		"assertions":   render.List{render.String("Matches snapshot")},
		"priority":     render.String("medium"),
		"skipIfEmpty":  render.Bool(false),
		"snapshotName": render.String("user-settings-visual-check.png"),
	}
	if diff := cmp.Diff(want, ctx); diff != "" {
		t.Errorf("BuildContext() mismatch (-want +got):\n%s", diff)
	}
}

func TestMissing(t *testing.T) {
	tpl := "{{a}}{{#each items}}{{x}}{{this}}{{/each}}{{uppercase b}}"

	assert.Equal(t, []string{"a", "items", "x", "b"}, Missing(tpl, render.Map{}))
	assert.Equal(t, []string{"x"}, Missing(tpl, render.Map{"a": nil, "b": render.String(""), "items": render.List{}}))
	assert.Empty(t, Missing(tpl, render.Map{
		"a":     render.String("1"),
		"b":     render.String("2"),
		"items": render.List{render.Map{"x": render.Number(1)}},
	}))
}

func TestDeriveHelpers(t *testing.T) {
	screen := settingsScreen()

	assert.Equal(t, "project", deriveEntity(screen, spec.E2ETest{Name: "Create new project"}))
	assert.Equal(t, "user-settings", deriveEntity(screen, spec.E2ETest{Name: "List things"}))

	assert.Equal(t, "confirm", deriveModalName(spec.E2ETest{Name: "User sees confirm dialog"}))
	assert.Equal(t, "share", deriveModalName(spec.E2ETest{Name: "Open the modal", Steps: []string{"Click share popup"}}))
	assert.Equal(t, "open the modal", deriveModalName(spec.E2ETest{Name: "Open the modal!"}))

	assert.Equal(t, "/billing", deriveTargetRoute(screen, spec.E2ETest{Steps: []string{"Go to /settings", "Then open /billing."}}))
	assert.Empty(t, deriveTargetRoute(screen, spec.E2ETest{Steps: []string{"Click and/or tap"}}))
}
