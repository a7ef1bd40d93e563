package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/irmap/pkg/lef"
)

var showLayers bool

var lefCmd = &cobra.Command{
	Use:   "lef <lef-file>...",
	Short: "Print the macros of a LEF library",
	Long: `Parse one or more LEF files and list their macros with class, size and
pins. Later files override macros of the same name.

Examples:
  irmap lef cells.lef
  irmap lef --layers --unit 1000 tech.lef cells.lef`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLEF,
}

func init() {
	rootCmd.AddCommand(lefCmd)
	lefCmd.Flags().BoolVarP(&showLayers, "layers", "l", false, "show pin shapes per layer")
}

func runLEF(cmd *cobra.Command, args []string) error {
	lib := lef.NewLibrary(unit)
	if err := lib.LoadFiles(args...); err != nil {
		return err
	}

	fmt.Printf("Macros: %d\n\n", lib.Len())
	fmt.Printf("%-20s %-14s %12s %12s  %s\n", "Name", "Class", "Width", "Height", "Pins")
	var pinMaps map[string]*lef.PinMap
	if showLayers {
		pinMaps = lib.PinMaps()
	}
	for _, name := range lib.Names() {
		m, _ := lib.Lookup(name)
		class := m.Class
		if class == "" {
			class = "-"
		}
		fmt.Printf("%-20s %-14s %12g %12g  %d\n", name, class, m.Size.Width, m.Size.Height, len(m.Pins))
		if !showLayers {
			continue
		}
		pm := pinMaps[name]
		for _, pin := range m.PinNames() {
			printLayers(pin, pm.Pins[pin])
		}
		if obs, ok := pm.Pins[lef.ObstructionKey]; ok {
			printLayers(lef.ObstructionKey, obs)
		}
	}
	return nil
}

func printLayers(name string, shapes lef.LayerShapes) {
	for _, layer := range shapes.Layers() {
		fmt.Printf("    %-16s %-8s %d shape(s)\n", name, layer, len(shapes[layer]))
	}
}
