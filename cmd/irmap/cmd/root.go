package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/irmap/internal/config"
	"github.com/OpenTraceLab/irmap/internal/ctxlog"
)

var (
	// Global flags
	verbose    bool
	logLevel   string
	logFormat  string
	configPath string
	lefPaths   []string
	unit       float64
)

var rootCmd = &cobra.Command{
	Use:   "irmap",
	Short: "IR-drop feature extraction for placed and routed designs",
	Long: `Turn the outputs of a physical design flow (LEF cell library, routed DEF,
timing windows, per-instance power, IR-drop report and power pad locations)
into grid-aligned feature maps for IR-drop prediction.

Examples:
  irmap extract --lef cells.lef --data-root designs --out features
  irmap extract --config job.hcl designs/aes designs/jpeg
  irmap inspect --lef cells.lef designs/aes
  irmap lef cells.lef`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	PersistentPreRunE: setupLogger,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output (same as --log-level debug)")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	pf.StringVar(&configPath, "config", "", "HCL job file")
	pf.StringArrayVar(&lefPaths, "lef", nil, "LEF library file (repeatable, later files override)")
	pf.Float64Var(&unit, "unit", 2000, "database units per micron")
}

// setupLogger stores the logger selected by the global flags in the command
// context. Logs go to stderr, reports to stdout.
func setupLogger(cmd *cobra.Command, args []string) error {
	level, err := ctxlog.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	if verbose && !cmd.Flags().Changed("log-level") {
		level, _ = ctxlog.ParseLevel("debug")
	}
	logger, err := ctxlog.New(level, logFormat, os.Stderr)
	if err != nil {
		return err
	}
	cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
	return nil
}

// loadConfig reads the job file and applies the global flags that were set
// on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("lef") {
		cfg.LEF = lefPaths
	}
	if flags.Changed("unit") {
		cfg.Unit = unit
	}
	return cfg, nil
}
