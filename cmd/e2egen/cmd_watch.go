package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"e2egen/internal/logging"
	"e2egen/internal/watch"
)

// watchCmd regenerates output whenever a spec in the directory changes
var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Regenerate tests when spec files change",
	Long: `Watches a directory for *.yaml and *.yml changes. Each settled change
(500ms debounce) re-runs generate for that file. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(0)
	defer cancel()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.saveUsage()

	w, err := watch.New(args[0], a.regenerate)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	fmt.Println(titleStyle.Render("Watching "+args[0]) + " " + mutedStyle.Render("(Ctrl+C to stop)"))

	<-ctx.Done()
	w.Stop()

	st := w.Stats()
	fmt.Println(field("Runs", st.RunsTriggered))
	fmt.Println(field("Failed", st.RunsFailed))
	return nil
}

// regenerate is the watch handler for one settled spec path.
func (a *app) regenerate(ctx context.Context, path string) error {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := a.generateFile(runCtx, path); err != nil {
		logging.WatchError("regenerate %s: %v", path, err)
		fmt.Println(errorStyle.Render("✗ "+path) + " " + err.Error())
		return err
	}
	a.saveUsage()
	return nil
}
