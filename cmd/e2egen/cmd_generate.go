package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"e2egen/internal/pipeline"
	"e2egen/internal/spec"
)

var (
	outDir   string
	callerID string
	forceLLM bool
	showDiff bool
)

// generateCmd renders or refines every test in one or more specs
var generateCmd = &cobra.Command{
	Use:   "generate [spec.yaml]...",
	Short: "Generate Playwright tests from screen specs",
	Long: `Parses each spec, picks a template per test, and falls back to the
configured model for tests no template covers. One <screen>.spec.ts file is
written per spec.

Example:
  e2egen generate specs/dashboard.yaml --out e2e --caller alice`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(timeout)
	defer cancel()

	if forceLLM {
		cfg.Pipeline.ForceLLM = true
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.saveUsage()

	var failed []string
	for _, path := range args {
		if err := a.generateFile(ctx, path); err != nil {
			fmt.Println(errorStyle.Render("✗ "+path) + " " + err.Error())
			failed = append(failed, path)
			if ctx.Err() != nil {
				break
			}
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d specs failed: %s", len(failed), len(args), strings.Join(failed, ", "))
	}
	return nil
}

// generateFile runs the pipeline for one spec file and writes the result.
func (a *app) generateFile(ctx context.Context, path string) error {
	s, err := spec.ParseFile(path)
	if err != nil {
		return err
	}

	report, runErr := a.generator.GenerateSpec(ctx, *s, callerID)
	if report == nil {
		return runErr
	}

	dir := outDir
	if dir == "" {
		dir = a.cfg.Output.Dir
	}
	target := filepath.Join(dir, pipeline.FileName(s.Screen))
	prev, err := os.ReadFile(target)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	out, err := report.Write(dir)
	if err != nil {
		return err
	}

	printReport(path, out, report)
	change := a.differ.Compare(filepath.Base(out), string(prev), report.File())
	fmt.Println(field("Changes", change.Summary()))
	if showDiff {
		fmt.Print(change.Unified())
	}
	return runErr
}

func printReport(specPath, outPath string, report *pipeline.Report) {
	c := report.Counts()
	fmt.Println(titleStyle.Render(report.Screen.Screen) + " " + mutedStyle.Render(specPath))
	for _, r := range report.Results {
		switch r.Path {
		case pipeline.PathTemplate:
			fmt.Printf("  %s %s %s\n", successStyle.Render("✓"), r.Test.Name, mutedStyle.Render("template:"+string(r.Match.Template)))
		case pipeline.PathLLM:
			fmt.Printf("  %s %s %s\n", successStyle.Render("✓"), r.Test.Name, mutedStyle.Render(fmt.Sprintf("llm, %d attempt(s)", r.Attempts)))
		default:
			msg := "failed"
			if f := r.Failure(); f != nil {
				msg = f.Error()
			}
			fmt.Printf("  %s %s %s\n", warningStyle.Render("!"), r.Test.Name, mutedStyle.Render(msg))
		}
	}
	fmt.Println(field("Template", c.Template))
	fmt.Println(field("LLM", c.LLM))
	fmt.Println(field("Failed", c.Failed))
	fmt.Println(field("Cost", fmt.Sprintf("$%.6f", report.TotalCostUSD)))
	fmt.Println(field("Written", outPath))
}

// isValidation reports whether err carries a list of schema issues.
func isValidation(err error) (*spec.ValidationError, bool) {
	var ve *spec.ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
