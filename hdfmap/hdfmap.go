// Package hdfmap builds structured, navigable maps of the group/dataset
// layout inside HDF5 files written by the LAPD control system: MSI
// diagnostics, digitizers, and control devices.
//
// Mapping degrades gracefully: recoverable structural problems exclude the
// smallest affected unit and are reported as Diagnostics, while problems
// that make a device unmappable abort that device's map with a MappingError
// and leave sibling devices untouched.
package hdfmap

import (
	"strings"

	"github.com/scigolib/lapd/hdfio"
)

// Top-level group names of LAPD control-system files.
const (
	MSIGroup  = "MSI"
	DataGroup = "Raw data + config"
)

// FileMap is the top-level map of one LAPD file: every successfully mapped
// device keyed by name, plus the diagnostics accumulated while mapping.
type FileMap struct {
	MSI        map[string]*MSIMap
	Digitizers map[string]*DigiMap
	Controls   map[string]*ControlMap

	// MainDigitizer is the digitizer reads default to; the first known
	// digitizer found. Empty when the file has none.
	MainDigitizer string

	// Unknown lists device-group paths no mapper recognizes.
	Unknown []string

	Diags []Diagnostic
}

var knownDigitizers = map[string]bool{
	SIS3301: true,
}

var knownControls = map[string]bool{
	"Waveform":      true,
	"N5700_PS":      true,
	"6K Compumotor": true,
}

var knownMSI = map[string]bool{
	"Discharge":            true,
	"Gas pressure":         true,
	"Heater":               true,
	"Interferometer array": true,
	"Magnetic field":       true,
}

// MapFile maps every recognizable device under the file's "MSI" and
// "Raw data + config" groups. A device whose map construction fails is
// skipped and the failure recorded as a diagnostic.
func MapFile(root hdfio.Group) *FileMap {
	fm := &FileMap{
		MSI:        make(map[string]*MSIMap),
		Digitizers: make(map[string]*DigiMap),
		Controls:   make(map[string]*ControlMap),
	}

	if msi, ok := root.Group(MSIGroup); ok {
		for _, name := range msi.Groups() {
			sub, _ := msi.Group(name)
			if !knownMSI[name] {
				fm.Unknown = append(fm.Unknown, sub.Path())
				continue
			}
			m, err := MapMSI(sub)
			if err != nil {
				fm.Diags = append(fm.Diags, Diagnostic{
					Unit:   sub.Path(),
					Reason: err.Error(),
				})
				continue
			}
			fm.MSI[name] = m
			fm.Diags = append(fm.Diags, m.Diags...)
		}
	}

	if data, ok := root.Group(DataGroup); ok {
		for _, name := range data.Groups() {
			sub, _ := data.Group(name)
			switch {
			case knownDigitizers[name]:
				m, err := MapDigitizer(sub)
				if err != nil {
					fm.Diags = append(fm.Diags, Diagnostic{
						Unit:   sub.Path(),
						Reason: err.Error(),
					})
					continue
				}
				fm.Digitizers[name] = m
				fm.Diags = append(fm.Diags, m.Diags...)
				if fm.MainDigitizer == "" {
					fm.MainDigitizer = name
				}
			case knownControls[name]:
				m, err := MapControl(sub)
				if err != nil {
					fm.Diags = append(fm.Diags, Diagnostic{
						Unit:   sub.Path(),
						Reason: err.Error(),
					})
					continue
				}
				fm.Controls[name] = m
				fm.Diags = append(fm.Diags, m.Diags...)
			default:
				fm.Unknown = append(fm.Unknown, sub.Path())
			}
		}
	}
	return fm
}

// ResolveDataset walks a "/"-separated dataset path relative to a device
// group, descending subgroups for all but the last element.
func ResolveDataset(g hdfio.Group, path string) (hdfio.Dataset, bool) {
	parts := strings.Split(path, "/")
	for _, part := range parts[:len(parts)-1] {
		sub, ok := g.Group(part)
		if !ok {
			return nil, false
		}
		g = sub
	}
	return g.Dataset(parts[len(parts)-1])
}
