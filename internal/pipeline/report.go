package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"e2egen/internal/refine"
	"e2egen/internal/render"
	"e2egen/internal/selector"
	"e2egen/internal/spec"
	"e2egen/internal/templates"
)

// Path records which generator produced a test.
type Path string

const (
	PathTemplate Path = "template"
	PathLLM      Path = "llm"
	PathFailed   Path = "failed"
)

// Result is the generation result for one test.
type Result struct {
	Test     spec.E2ETest   `json:"test"`
	Path     Path           `json:"path"`
	Match    selector.Match `json:"match"`
	Code     string         `json:"code,omitempty"`
	Outcome  refine.Outcome `json:"outcome,omitempty"` // nil on the template path
	Attempts int            `json:"attempts"`
}

// Failure returns the refinement failure, if any.
func (r Result) Failure() *refine.Failure {
	f, _ := r.Outcome.(*refine.Failure)
	return f
}

// Report collects the results of one GenerateSpec run in source order.
type Report struct {
	RunID        string          `json:"runId"`
	Screen       spec.ScreenSpec `json:"screen"`
	Results      []Result        `json:"results"`
	TotalCostUSD float64         `json:"totalCostUSD"`
	Started      time.Time       `json:"started"`
	Finished     time.Time       `json:"finished"`
}

// Counts tallies results by path.
type Counts struct {
	Template int `json:"template"`
	LLM      int `json:"llm"`
	Failed   int `json:"failed"`
}

func (r *Report) Counts() Counts {
	var c Counts
	for _, res := range r.Results {
		switch res.Path {
		case PathTemplate:
			c.Template++
		case PathLLM:
			c.LLM++
		default:
			c.Failed++
		}
	}
	return c
}

// File assembles one Playwright spec file from the results.
func (r *Report) File() string {
	var b strings.Builder
	b.WriteString("import { test, expect } from '@playwright/test';\n\n")
	fmt.Fprintf(&b, "// Generated by e2egen (run %s). Do not edit by hand.\n", r.RunID)
	fmt.Fprintf(&b, "test.describe('%s', () => {\n", templates.JSEscape(r.Screen.Screen))

	if r.Screen.Route != "" {
		b.WriteString("  test.beforeEach(async ({ page }) => {\n")
		fmt.Fprintf(&b, "    await page.goto('%s');\n", templates.JSEscape(r.Screen.Route))
		b.WriteString("  });\n")
	}

	for _, res := range r.Results {
		b.WriteString("\n")
		if res.Path == PathFailed {
			msg := "unknown error"
			if f := res.Failure(); f != nil {
				msg = fmt.Sprintf("%s: %s", f.Kind, f.Message)
			}
			fmt.Fprintf(&b, "  // generation failed: %s\n", strings.ReplaceAll(msg, "\n", " "))
			fmt.Fprintf(&b, "  test.fixme('%s', async () => {});\n", templates.JSEscape(res.Test.Name))
			continue
		}
		b.WriteString(indent(strings.TrimRight(res.Code, "\n"), "  "))
		b.WriteString("\n")
	}

	b.WriteString("});\n")
	return b.String()
}

func indent(code, prefix string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = prefix + line
		} else {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

// FileName is the output file name for a screen.
func FileName(screen string) string {
	name := render.KebabCase(screen)
	if name == "" {
		name = "screen"
	}
	return name + ".spec.ts"
}

// Write stores File() under dir and returns the written path.
func (r *Report) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, FileName(r.Screen.Screen))
	if err := os.WriteFile(path, []byte(r.File()), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
