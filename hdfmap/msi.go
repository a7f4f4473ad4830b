package hdfmap

import (
	"fmt"

	"github.com/scigolib/lapd/hdfio"
)

// MSISource locates one contribution to an output field: a dataset path
// relative to the device group and, for compound datasets, the member name.
// An empty Field means the whole plain dataset row.
type MSISource struct {
	Dataset string
	Field   string
}

// MSIField plans one output field of an assembled MSI read. Multi-source
// fields (sensor arrays) fill one row per source.
type MSIField struct {
	Name    string
	Sources []MSISource
	// NT is the per-shot, per-source element count; 1 for scalars.
	NT int
}

// MSIMap is the structural map of one MSI diagnostic group: where the shot
// numbers, signal blocks, and per-shot metadata live.
type MSIMap struct {
	Info    DeviceInfo
	NShots  int
	ShotNum MSIField
	Signals []MSIField
	Meta    []MSIField
	// Attrs carries the device's calibration attributes; subgroup attributes
	// are keyed "<subgroup>/<attr>".
	Attrs map[string]interface{}
	Diags []Diagnostic
}

// MapMSI builds the map for a known MSI diagnostic group.
func MapMSI(g hdfio.Group) (*MSIMap, error) {
	switch g.Name() {
	case "Discharge":
		return mapDischarge(g)
	case "Gas pressure":
		return mapGasPressure(g)
	case "Heater":
		return mapHeater(g)
	case "Interferometer array":
		return mapInterferometerArray(g)
	case "Magnetic field":
		return mapMagneticField(g)
	default:
		return nil, mappingErrorf(g.Path(), "unknown MSI diagnostic %q", g.Name())
	}
}

func newMSIMap(g hdfio.Group) *MSIMap {
	m := &MSIMap{
		Info: DeviceInfo{
			Name:    g.Name(),
			Path:    g.Path(),
			ConType: ConTypeMSI,
		},
		Attrs: make(map[string]interface{}),
	}
	copyAttrs(g, "", m.Attrs)
	return m
}

func copyAttrs(g hdfio.Group, prefix string, dst map[string]interface{}) {
	for _, name := range g.AttrNames() {
		if v, ok := g.Attr(name); ok {
			dst[prefix+name] = v
		}
	}
}

type metaSpec struct {
	out   string
	field string
}

// mapSummary validates a per-shot summary dataset and plans the shot-number
// and metadata fields it provides. Missing expected members abort the map.
func (m *MSIMap) mapSummary(g hdfio.Group, dsName string, meta []metaSpec) error {
	ds, ok := g.Dataset(dsName)
	if !ok {
		return mappingErrorf(m.Info.Path, "summary dataset %q missing", dsName)
	}
	if ds.Kind() != hdfio.KindCompound {
		return mappingErrorf(m.Info.Path, "summary dataset %q is not compound", dsName)
	}
	if _, ok := hdfio.FieldByName(ds, "Shot number"); !ok {
		return mappingErrorf(m.Info.Path, "%q lacks field 'Shot number'", dsName)
	}
	for _, spec := range meta {
		if _, ok := hdfio.FieldByName(ds, spec.field); !ok {
			return mappingErrorf(m.Info.Path, "%q lacks field %q", dsName, spec.field)
		}
		m.Meta = append(m.Meta, MSIField{
			Name:    spec.out,
			Sources: []MSISource{{Dataset: dsName, Field: spec.field}},
			NT:      1,
		})
	}

	rows := ds.Shape()[0]
	if m.NShots == 0 {
		m.NShots = rows
	} else if m.NShots != rows {
		return mappingErrorf(m.Info.Path,
			"%q holds %d shots, expected %d", dsName, rows, m.NShots)
	}
	m.ShotNum.Name = "shotnum"
	m.ShotNum.NT = 1
	m.ShotNum.Sources = append(m.ShotNum.Sources,
		MSISource{Dataset: dsName, Field: "Shot number"})
	return nil
}

// mapSignal validates a plain 2-D trace dataset and plans it as one output
// signal field.
func (m *MSIMap) mapSignal(g hdfio.Group, out, dsName string) error {
	ds, ok := g.Dataset(dsName)
	if !ok {
		return mappingErrorf(m.Info.Path, "signal dataset %q missing", dsName)
	}
	if ds.Kind() == hdfio.KindCompound {
		return mappingErrorf(m.Info.Path, "signal dataset %q is compound", dsName)
	}
	shape := ds.Shape()
	if len(shape) != 2 {
		return mappingErrorf(m.Info.Path, "signal dataset %q is %d-D, expected 2-D",
			dsName, len(shape))
	}
	if shape[0] != m.NShots {
		return mappingErrorf(m.Info.Path,
			"signal dataset %q holds %d shots, expected %d", dsName, shape[0], m.NShots)
	}
	m.Signals = append(m.Signals, MSIField{
		Name:    out,
		Sources: []MSISource{{Dataset: dsName}},
		NT:      shape[1],
	})
	return nil
}

func mapDischarge(g hdfio.Group) (*MSIMap, error) {
	m := newMSIMap(g)
	err := m.mapSummary(g, "Discharge summary", []metaSpec{
		{"timestamp", "Timestamp"},
		{"data valid", "Data valid"},
		{"pulse length", "Pulse length"},
		{"peak current", "Peak current"},
		{"bank voltage", "Bank voltage"},
	})
	if err != nil {
		return nil, err
	}
	if err := m.mapSignal(g, "voltage", "Cathode-anode voltage"); err != nil {
		return nil, err
	}
	if err := m.mapSignal(g, "current", "Discharge current"); err != nil {
		return nil, err
	}
	return m, nil
}

func mapGasPressure(g hdfio.Group) (*MSIMap, error) {
	m := newMSIMap(g)
	err := m.mapSummary(g, "Gas pressure summary", []metaSpec{
		{"timestamp", "Timestamp"},
		{"data valid", "Data valid"},
		{"fill pressure", "Fill pressure"},
		{"peak pressure", "Peak pressure"},
	})
	if err != nil {
		return nil, err
	}
	if err := m.mapSignal(g, "partial pressures", "RGA partial pressures"); err != nil {
		return nil, err
	}
	return m, nil
}

func mapHeater(g hdfio.Group) (*MSIMap, error) {
	m := newMSIMap(g)
	err := m.mapSummary(g, "Heater summary", []metaSpec{
		{"timestamp", "Timestamp"},
		{"data valid", "Data valid"},
		{"current", "Heater current"},
		{"voltage", "Heater voltage"},
		{"temperature", "Heater temperature"},
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func mapMagneticField(g hdfio.Group) (*MSIMap, error) {
	m := newMSIMap(g)
	err := m.mapSummary(g, "Magnetic field summary", []metaSpec{
		{"timestamp", "Timestamp"},
		{"data valid", "Data valid"},
		{"peak magnetic field", "Peak magnetic field"},
	})
	if err != nil {
		return nil, err
	}
	if err := m.mapSignal(g, "magnetic field", "Magnetic field profile"); err != nil {
		return nil, err
	}
	return m, nil
}

// mapInterferometerArray plans the sensor-array diagnostic: every
// "Interferometer [i]" subgroup contributes one row to the multi-row signal
// and metadata fields, and one shot-number source for cross-checking.
func mapInterferometerArray(g hdfio.Group) (*MSIMap, error) {
	m := newMSIMap(g)

	var sensors []string
	for i := 0; ; i++ {
		name := fmt.Sprintf("Interferometer [%d]", i)
		if _, ok := g.Group(name); !ok {
			break
		}
		sensors = append(sensors, name)
	}
	if len(sensors) == 0 {
		return nil, mappingErrorf(m.Info.Path, "no interferometer subgroups found")
	}
	if v, ok := m.Attrs["Interferometer count"]; ok {
		if n, ok := v.(int64); ok && int(n) != len(sensors) {
			return nil, mappingErrorf(m.Info.Path,
				"'Interferometer count' is %d but %d subgroups found", n, len(sensors))
		}
	}

	const (
		summaryName = "Interferometer summary list"
		traceName   = "Interferometer trace"
	)
	meta := []metaSpec{
		{"timestamp", "Timestamp"},
		{"data valid", "Data valid"},
		{"peak density", "Peak density"},
	}

	signal := MSIField{Name: "signal"}
	metaFields := make([]MSIField, len(meta))
	for i, spec := range meta {
		metaFields[i] = MSIField{Name: spec.out, NT: 1}
	}

	for _, name := range sensors {
		sub, _ := g.Group(name)
		copyAttrs(sub, name+"/", m.Attrs)

		sum, ok := sub.Dataset(summaryName)
		if !ok {
			return nil, mappingErrorf(m.Info.Path, "%s: %q missing", name, summaryName)
		}
		if _, ok := hdfio.FieldByName(sum, "Shot number"); !ok {
			return nil, mappingErrorf(m.Info.Path,
				"%s: %q lacks field 'Shot number'", name, summaryName)
		}
		rows := sum.Shape()[0]
		if m.NShots == 0 {
			m.NShots = rows
		} else if m.NShots != rows {
			return nil, mappingErrorf(m.Info.Path,
				"%s: %d shots, expected %d", name, rows, m.NShots)
		}
		m.ShotNum.Sources = append(m.ShotNum.Sources,
			MSISource{Dataset: name + "/" + summaryName, Field: "Shot number"})

		for i, spec := range meta {
			if _, ok := hdfio.FieldByName(sum, spec.field); !ok {
				return nil, mappingErrorf(m.Info.Path,
					"%s: %q lacks field %q", name, summaryName, spec.field)
			}
			metaFields[i].Sources = append(metaFields[i].Sources,
				MSISource{Dataset: name + "/" + summaryName, Field: spec.field})
		}

		trace, ok := sub.Dataset(traceName)
		if !ok {
			return nil, mappingErrorf(m.Info.Path, "%s: %q missing", name, traceName)
		}
		shape := trace.Shape()
		if len(shape) != 2 || shape[0] != m.NShots {
			return nil, mappingErrorf(m.Info.Path,
				"%s: trace shape %v inconsistent with %d shots", name, shape, m.NShots)
		}
		if signal.NT == 0 {
			signal.NT = shape[1]
		} else if signal.NT != shape[1] {
			return nil, mappingErrorf(m.Info.Path,
				"%s: trace length %d, expected %d", name, shape[1], signal.NT)
		}
		signal.Sources = append(signal.Sources,
			MSISource{Dataset: name + "/" + traceName})
	}

	m.ShotNum.Name = "shotnum"
	m.ShotNum.NT = 1
	m.Signals = []MSIField{signal}
	m.Meta = metaFields
	return m, nil
}
