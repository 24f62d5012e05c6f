package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"e2egen/internal/provider"
	"e2egen/internal/settings"
	"e2egen/internal/spec"
)

var (
	testFilter  string
	keyProvider string
)

// validateCmd checks specs without generating anything
var validateCmd = &cobra.Command{
	Use:   "validate [spec.yaml]...",
	Short: "Validate screen specs and list every issue",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

// statsCmd summarizes one spec
var statsCmd = &cobra.Command{
	Use:   "stats [spec.yaml]",
	Short: "Show test counts by priority for a spec",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

// explainCmd shows how the selector decided each test
var explainCmd = &cobra.Command{
	Use:   "explain [spec.yaml]",
	Short: "Explain template selection for each test",
	Long: `Prints the selection trace for each test: which path was taken, the
winning category and score, the matched keywords, and the threshold.

Example:
  e2egen explain specs/dashboard.yaml --test "Open settings modal"`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

// estimateCmd prices the fallback without calling a provider
var estimateCmd = &cobra.Command{
	Use:   "estimate [spec.yaml]",
	Short: "Estimate model tier and cost for tests that would fall back",
	Args:  cobra.ExactArgs(1),
	RunE:  runEstimate,
}

// usageCmd prints the recorded usage ledger
var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show recorded token usage and cost",
	Args:  cobra.NoArgs,
	RunE:  runUsage,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage per-caller provider keys",
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [api-key]",
	Short: "Store a provider key for a caller (sealed when a secret is configured)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsSet,
}

func runValidate(cmd *cobra.Command, args []string) error {
	invalid := 0
	for _, path := range args {
		s, err := spec.ParseFile(path)
		if err == nil {
			fmt.Printf("%s %s %s\n", successStyle.Render("✓"), path, mutedStyle.Render(fmt.Sprintf("(%d tests)", len(s.Tests))))
			continue
		}

		invalid++
		fmt.Printf("%s %s\n", errorStyle.Render("✗"), path)
		if ve, ok := isValidation(err); ok {
			for _, issue := range ve.Issues {
				fmt.Printf("    - %s\n", issue)
			}
			continue
		}
		fmt.Printf("    %s\n", err)
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d specs invalid", invalid, len(args))
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	s, err := spec.ParseFile(args[0])
	if err != nil {
		return err
	}

	st := spec.GetStats(s)
	groups := spec.GroupByPriority(s)

	fmt.Println(titleStyle.Render(s.Screen))
	fmt.Println(field("Total", st.Total))
	for _, p := range spec.Priorities {
		names := make([]string, 0, len(groups[p]))
		for _, t := range groups[p] {
			names = append(names, t.Name)
		}
		line := fmt.Sprint(st.ByPriority[p])
		if len(names) > 0 {
			line += " " + mutedStyle.Render(strings.Join(names, ", "))
		}
		fmt.Println(field(string(p), line))
	}
	fmt.Println(field("With hint", st.WithHint))
	fmt.Println(field("Skippable", st.Skippable))
	return nil
}

func runExplain(cmd *cobra.Command, args []string) error {
	s, err := spec.ParseFile(args[0])
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	shown := 0
	for _, t := range s.Tests {
		if testFilter != "" && t.Name != testFilter {
			continue
		}
		if shown > 0 {
			fmt.Println()
		}
		fmt.Print(a.selector.Explain(t))
		shown++
	}
	if shown == 0 {
		return fmt.Errorf("no test named %q in %s", testFilter, args[0])
	}
	return nil
}

func runEstimate(cmd *cobra.Command, args []string) error {
	s, err := spec.ParseFile(args[0])
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(s.Screen) + " " + mutedStyle.Render("provider: "+string(a.refiner.Provider())))
	var total float64
	fallbacks := 0
	for _, t := range s.Tests {
		if category, ok := a.templatePlan(*s, t); ok {
			fmt.Printf("  %s %s\n", t.Name, mutedStyle.Render("template:"+string(category)))
			continue
		}

		est := a.refiner.EstimateCost(t)
		total += est.EstimatedCost
		fallbacks++
		fmt.Printf("  %s %s $%.6f %s\n", t.Name,
			warningStyle.Render(string(est.Model)+":"+est.ModelID),
			est.EstimatedCost, mutedStyle.Render(est.Reason))
	}
	fmt.Println(field("Fallbacks", fallbacks))
	fmt.Println(field("Estimated", fmt.Sprintf("$%.6f", total)))
	return nil
}

// templatePlan reports the category generate would render t from. Any render
// failure means generate falls back to the model.
func (a *app) templatePlan(s spec.ScreenSpec, t spec.E2ETest) (spec.TemplateCategory, bool) {
	if a.cfg.Pipeline.ForceLLM {
		return "", false
	}
	m := a.selector.SelectTemplate(t)
	if !m.ShouldUseTemplate {
		return "", false
	}
	if _, err := a.library.Render(m.Template, s, t); err != nil {
		return "", false
	}
	return m.Template, true
}

func runUsage(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	st := a.tracker.Stats()

	fmt.Println(titleStyle.Render("Usage"))
	fmt.Println(field("Calls", st.Total.Calls))
	fmt.Println(field("Tokens", fmt.Sprintf("%d in / %d out", st.Total.Input, st.Total.Output)))
	fmt.Println(field("Cost", fmt.Sprintf("$%.6f", st.Total.Cost)))

	models := make([]string, 0, len(st.ByModel))
	for m := range st.ByModel {
		models = append(models, m)
	}
	sort.Strings(models)
	for _, m := range models {
		tc := st.ByModel[m]
		fmt.Println(field(m, fmt.Sprintf("%d calls $%.6f", tc.Calls, tc.Cost)))
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	name := provider.Name(keyProvider)
	if name == "" {
		name = provider.Name(a.cfg.LLM.Provider)
	}

	ctx, cancel := commandContext(timeout)
	defer cancel()
	current, err := a.settings.Get(ctx, callerID)
	if err != nil {
		return err
	}
	next := settings.UserSettings{}
	if current != nil {
		next = *current
	}

	switch name {
	case provider.Anthropic:
		next.AnthropicAPIKey = args[0]
	case provider.Gemini:
		next.GeminiAPIKey = args[0]
	default:
		return fmt.Errorf("unknown provider %q (valid: %v)", name, provider.Names)
	}

	if err := a.settings.Put(callerID, next); err != nil {
		return err
	}
	sealed := ""
	if a.cfg.Settings.Secret != "" {
		sealed = " (sealed)"
	}
	fmt.Printf("%s stored %s key for %s%s\n", successStyle.Render("✓"), name, callerID, sealed)
	return nil
}
