package feature

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ctessum/sparse"
)

// Format selects the on-disk layout of the feature grids.
type Format int

const (
	// NetCDF writes one features.nc file per design.
	NetCDF Format = iota
	// NPY writes one .npy file per channel.
	NPY
)

func (f Format) String() string {
	switch f {
	case NetCDF:
		return "netcdf"
	case NPY:
		return "npy"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat converts "netcdf" or "npy".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "netcdf", "nc", "":
		return NetCDF, nil
	case "npy":
		return NPY, nil
	}
	return 0, fmt.Errorf("feature: unknown output format %q", s)
}

// Channel is one named feature grid.
type Channel struct {
	Name        string
	Dir         string // sub-directory used by the npy layout
	Description string
	Units       string
	Data        *sparse.DenseArray
}

// Channels returns the feature grids in a fixed order. The VSS map is left
// out when the design has no VSS pads.
func (m *Maps) Channels() []Channel {
	chans := []Channel{
		{Name: "power_t", Dir: "power_t", Description: "duty-scaled power per timing window", Units: "W", Data: m.PowerT},
		{Name: "power_i", Dir: "power_i", Description: "internal power", Units: "W", Data: m.PowerI},
		{Name: "power_s", Dir: "power_s", Description: "switching power", Units: "W", Data: m.PowerS},
		{Name: "power_sca", Dir: "power_sca", Description: "duty-scaled dynamic plus leakage power", Units: "W", Data: m.PowerSCA},
		{Name: "power_all", Dir: "power_all", Description: "internal plus switching plus leakage power", Units: "W", Data: m.PowerAll},
		{Name: "decap", Dir: "decap", Description: "decoupling capacitance", Units: "fF", Data: m.Decap},
		{Name: "vdd_map", Dir: "VDD_Map", Description: "distance to nearest VDD pad", Units: "dbu", Data: m.VDD},
	}
	if m.VSS != nil {
		chans = append(chans, Channel{Name: "vss_map", Dir: "VSS_Map", Description: "distance to nearest VSS pad", Units: "dbu", Data: m.VSS})
	}
	return append(chans, Channel{Name: "ir_map", Dir: "IR_drop", Description: "maximum IR drop", Units: "V", Data: m.IR})
}

// NetCDFName is the file written per design in the netCDF layout.
const NetCDFName = "features.nc"

// Write stores the maps under root/<design> and returns the path written:
// the netCDF file, or the design directory for the npy layout.
func Write(root string, m *Maps, format Format) (string, error) {
	dir := filepath.Join(root, m.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("feature: %w", err)
	}

	switch format {
	case NetCDF:
		path := filepath.Join(dir, NetCDFName)
		f, err := os.Create(path)
		if err != nil {
			return "", fmt.Errorf("feature: %w", err)
		}
		if err := WriteNetCDF(f, m); err != nil {
			f.Close()
			return "", err
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("feature: close %s: %w", path, err)
		}
		return path, nil
	case NPY:
		for _, ch := range m.Channels() {
			chDir := filepath.Join(dir, ch.Dir)
			if err := os.MkdirAll(chDir, 0o755); err != nil {
				return "", fmt.Errorf("feature: %w", err)
			}
			if err := writeNPYFile(filepath.Join(chDir, ch.Name+".npy"), ch.Data); err != nil {
				return "", err
			}
		}
		return dir, nil
	}
	return "", fmt.Errorf("feature: unsupported format %v", format)
}

func writeNPYFile(path string, a *sparse.DenseArray) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("feature: %w", err)
	}
	if err := WriteNPY(f, a); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("feature: close %s: %w", path, err)
	}
	return nil
}
