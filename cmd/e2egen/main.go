package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"e2egen/internal/config"
	"e2egen/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration

	// Loaded in PersistentPreRunE
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "e2egen",
	Short: "e2egen - Playwright test generation from screen specs",
	Long: `e2egen turns YAML screen specifications into Playwright end-to-end tests.

Each test is scored against a fixed catalog of template categories. Tests that
clear the decision threshold are rendered from a template; the rest fall back
to a generative model routed to a fast or capable tier by complexity.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}

		// Initialize logger
		lc := cfg.Logging.ToLogging()
		if verbose {
			lc.Level = "debug"
		}
		if err := logging.Initialize(lc); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = logging.Base()
		logger.Debug("config loaded", zap.String("path", configPath), zap.String("provider", cfg.LLM.Provider))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".e2egen/config.yaml", "Config file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Operation timeout")

	generateCmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: output.dir from config)")
	generateCmd.Flags().StringVar(&callerID, "caller", "default", "Caller id used for credential lookup")
	generateCmd.Flags().BoolVar(&forceLLM, "force-llm", false, "Skip templates and refine every test")
	generateCmd.Flags().BoolVar(&showDiff, "diff", false, "Print a unified diff against the previous output")

	watchCmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: output.dir from config)")
	watchCmd.Flags().StringVar(&callerID, "caller", "default", "Caller id used for credential lookup")
	watchCmd.Flags().BoolVar(&showDiff, "diff", false, "Print a unified diff on each regeneration")

	explainCmd.Flags().StringVar(&testFilter, "test", "", "Only explain the named test")

	settingsSetCmd.Flags().StringVar(&callerID, "caller", "default", "Caller id to store the key for")
	settingsSetCmd.Flags().StringVar(&keyProvider, "provider", "", "Provider the key belongs to (default: llm.provider)")
	settingsCmd.AddCommand(settingsSetCmd)

	// Add commands to root
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(settingsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

// commandContext returns a context cancelled on SIGINT/SIGTERM and, when d > 0,
// after d.
func commandContext(d time.Duration) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if d > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), d)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
