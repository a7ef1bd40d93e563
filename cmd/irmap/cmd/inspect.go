package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/irmap/pkg/def"
	"github.com/OpenTraceLab/irmap/pkg/lef"
	"github.com/OpenTraceLab/irmap/pkg/parse"
	"github.com/OpenTraceLab/irmap/pkg/power"
	"github.com/OpenTraceLab/irmap/pkg/twf"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <design-dir>",
	Short: "Parse one design folder and print a summary",
	Long: `Parse the routed DEF of a design folder, and its timing and power
reports when present, and print what was read. Nothing is written.

Missing references are reported instead of failing.

Examples:
  irmap inspect designs/aes
  irmap inspect --lef cells.lef --config job.hcl designs/aes`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	dir := args[0]
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	d, err := def.ParseFile(filepath.Join(dir, cfg.Files.RouteDEF))
	if err != nil {
		return fmt.Errorf("failed to parse placement: %w", err)
	}

	fmt.Printf("Design: %s\n", d.Name)
	if d.Units > 0 {
		fmt.Printf("Units: %d per micron\n", d.Units)
	}
	if !d.DieArea.IsEmpty() {
		fmt.Printf("Die area: (%g, %g) - (%g, %g)\n", d.DieArea.Min.X, d.DieArea.Min.Y, d.DieArea.Max.X, d.DieArea.Max.Y)
	}
	fmt.Printf("Instances: %d\n", len(d.Instances))
	fmt.Printf("Nets: %d\n", len(d.Nets))
	fmt.Printf("Pins: %d\n", len(d.Pins))

	g, err := d.Grid(cfg.DieEdge)
	if err != nil {
		fmt.Printf("Grid: unavailable (%v)\n", err)
	} else {
		fmt.Printf("Grid: %d x %d cells\n", g.NX(), g.NY())
	}

	timingPath := filepath.Join(dir, cfg.Files.Timing)
	if _, err := os.Stat(timingPath); err != nil {
		return nil
	}
	tw, err := twf.ParseFile(timingPath, d.Nets, twf.Options{TimeWindows: cfg.TimeWindows, Missing: parse.ZeroMissing})
	if err != nil {
		return fmt.Errorf("failed to parse timing windows: %w", err)
	}
	fmt.Printf("Clock period: %g\n", tw.Period)
	fmt.Printf("Instances with timing windows: %d\n", len(tw.Windows))
	printSkipped(tw.Skipped)

	powerPath := filepath.Join(dir, cfg.Files.Power)
	if len(cfg.LEF) == 0 {
		return nil
	}
	if _, err := os.Stat(powerPath); err != nil {
		return nil
	}
	lib := lef.NewLibrary(cfg.Unit)
	if err := lib.LoadFiles(cfg.LEF...); err != nil {
		return err
	}
	pw, err := power.ParseFile(powerPath, lib, tw.Windows, power.Options{Missing: parse.ZeroMissing})
	if err != nil {
		return fmt.Errorf("failed to parse power report: %w", err)
	}
	var total float64
	for _, rec := range pw.Records {
		total += rec.Total()
	}
	fmt.Printf("Power records: %d (total %g)\n", len(pw.Records), total)
	printSkipped(pw.Skipped)
	return nil
}

func printSkipped(skipped []*parse.MissingReferenceError) {
	if len(skipped) == 0 {
		return
	}
	fmt.Printf("  %d missing reference(s)\n", len(skipped))
	if !verbose {
		return
	}
	for _, s := range skipped {
		fmt.Printf("    %s %s\n", s.Kind, s.Key)
	}
}
