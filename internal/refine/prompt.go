package refine

import (
	"fmt"
	"regexp"
	"strings"

	"e2egen/internal/spec"
)

// SystemPrompt frames every refinement request.
const SystemPrompt = `You are a senior QA engineer writing Playwright end-to-end tests in TypeScript.
Reply with a single test(...) block and nothing else.`

type example struct {
	test spec.E2ETest
	code string
}

var examples = []example{
	{
		test: spec.E2ETest{
			Name:        "Sidebar collapses",
			Description: "The sidebar collapses and expands from the toggle",
			Steps:       []string{"Click the sidebar toggle", "Click the sidebar toggle again"},
			Assertions:  []string{"Sidebar is collapsed after the first click", "Sidebar is expanded after the second click"},
		},
		code: `test('Sidebar collapses', async ({ page }) => {
  const sidebar = page.getByRole('navigation', { name: 'Sidebar' });
  const toggle = page.getByRole('button', { name: /toggle sidebar/i });

  await toggle.click();
  await expect(sidebar).toHaveAttribute('data-state', 'collapsed');

  await toggle.click();
  await expect(sidebar).toHaveAttribute('data-state', 'expanded');
});`,
	},
	{
		test: spec.E2ETest{
			Name:        "Filter by status",
			Description: "Filtering the table by status shows only matching rows",
			Steps:       []string{"Open the status filter", "Select Active"},
			Assertions:  []string{"Every visible row shows Active"},
		},
		code: `test('Filter by status', async ({ page }) => {
  await page.getByRole('combobox', { name: /status/i }).click();
  await page.getByRole('option', { name: 'Active' }).click();

  const rows = page.getByRole('row').filter({ has: page.getByRole('cell') });
  await expect(rows.first()).toBeVisible();
  for (const row of await rows.all()) {
    await expect(row).toContainText('Active');
  }
});`,
	},
}

var constraints = []string{
	"Use @playwright/test; `test` and `expect` are already imported.",
	"The page is already at the screen's route; do not call page.goto unless navigating away.",
	"Locate elements with getByRole, getByLabel, getByText or getByTestId. Never use CSS classes or XPath.",
	"Use web-first assertions (await expect(locator)...) instead of manual waits or timeouts.",
	"Cover every assertion listed for the test.",
	"If the test only makes sense with data present, call test.skip() when the relevant list is empty.",
	"Output only TypeScript code, optionally inside a single typescript code fence.",
}

// GeneratePrompt builds the user prompt for test.
func GeneratePrompt(test spec.E2ETest) string {
	var b strings.Builder

	b.WriteString("Write a Playwright test for the scenario below.\n\n")
	b.WriteString("## Examples\n\n")
	for _, ex := range examples {
		writeTest(&b, ex.test)
		b.WriteString("```typescript\n")
		b.WriteString(ex.code)
		b.WriteString("\n```\n\n")
	}

	b.WriteString("## Test\n\n")
	writeTest(&b, test)

	b.WriteString("## Requirements\n\n")
	for _, c := range constraints {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	return b.String()
}

func writeTest(b *strings.Builder, test spec.E2ETest) {
	fmt.Fprintf(b, "Name: %s\n", test.Name)
	fmt.Fprintf(b, "Description: %s\n", test.Description)
	b.WriteString("Steps:\n")
	for i, s := range test.Steps {
		fmt.Fprintf(b, "%d. %s\n", i+1, s)
	}
	b.WriteString("Assertions:\n")
	for _, a := range test.Assertions {
		fmt.Fprintf(b, "- %s\n", a)
	}
	if test.SkipIfEmpty {
		b.WriteString("Skip when there is no data to exercise.\n")
	}
	b.WriteString("\n")
}

var fence = regexp.MustCompile("(?s)```[A-Za-z]*[ \\t]*\\r?\\n(.*?)```")

// ExtractCode returns the first fenced block in text, or the trimmed text
// when there is no fence.
func ExtractCode(text string) string {
	if m := fence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}
