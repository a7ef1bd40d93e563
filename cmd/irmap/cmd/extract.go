package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/irmap/pkg/batch"
)

var (
	// Flags for extract command
	dataRoot      string
	outDir        string
	workers       int
	timeWindows   int
	outFormat     string
	missingRefs   string
	normalization string
)

var extractCmd = &cobra.Command{
	Use:   "extract [design-dir...]",
	Short: "Extract feature maps for a batch of designs",
	Long: `Extract the power, decap, pad distance and IR-drop maps of every design
folder and write them under the output directory.

Without arguments every sub-directory of the data root is processed. A
failing design is reported and skipped; the other designs are unaffected.

Examples:
  irmap extract --lef tech.lef --lef cells.lef --data-root designs
  irmap extract --config job.hcl --workers 1 --format npy designs/aes
  irmap extract --lef cells.lef --missing-refs zero --time-windows 10`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	f := extractCmd.Flags()
	f.StringVar(&dataRoot, "data-root", "", "directory holding one folder per design")
	f.StringVarP(&outDir, "out", "o", "", "output directory")
	f.IntVarP(&workers, "workers", "j", 0, "number of designs processed in parallel (0 = all CPUs)")
	f.IntVar(&timeWindows, "time-windows", 0, "number of timing windows per clock period")
	f.StringVar(&outFormat, "format", "", "output format (netcdf, npy)")
	f.StringVar(&missingRefs, "missing-refs", "", "missing reference policy (fail, zero)")
	f.StringVar(&normalization, "normalization", "", "coverage normalization (footprint, cell)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("data-root") {
		cfg.DataRoot = dataRoot
	}
	if flags.Changed("out") {
		cfg.Out = outDir
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("time-windows") {
		cfg.TimeWindows = timeWindows
	}
	if flags.Changed("format") {
		cfg.Format = outFormat
	}
	if flags.Changed("missing-refs") {
		cfg.MissingReferences = missingRefs
	}
	if flags.Changed("normalization") {
		cfg.Normalization = normalization
	}
	if len(args) > 0 {
		cfg.Designs = args
	}

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	runner, err := batch.New(opts)
	if err != nil {
		return err
	}
	dirs, err := cfg.DesignDirs()
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		return fmt.Errorf("no design folders found in %s", cfg.DataRoot)
	}

	if verbose {
		fmt.Printf("Extracting %d design(s) with %d worker(s) into %s\n\n", len(dirs), runner.Options().Workers, opts.Out)
	}

	start := time.Now()
	results := make(chan batch.Result)
	errc := make(chan error, 1)
	go func() { errc <- runner.Run(cmd.Context(), dirs, results) }()

	var ok, failed int
	for res := range results {
		if res.Err != nil {
			failed++
			fmt.Printf("✗ %-24s %v\n", res.Design, res.Err)
			continue
		}
		ok++
		fmt.Printf("✓ %-24s %s (%s)\n", res.Design, res.Output, res.Duration.Round(time.Millisecond))
	}
	if err := <-errc; err != nil {
		return fmt.Errorf("extraction interrupted: %w", err)
	}

	fmt.Printf("\nProcessed %d design(s) in %s: %d succeeded, %d failed\n",
		ok+failed, time.Since(start).Round(time.Millisecond), ok, failed)
	return nil
}
