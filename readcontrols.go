package lapd

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/scigolib/lapd/hdfio"
	"github.com/scigolib/lapd/hdfmap"
)

// ControlData is the assembled per-shot record of one control device under
// one configuration.
type ControlData struct {
	Device  string
	Config  string
	Kind    hdfmap.ControlKind
	ShotNum []uint32

	// Command and CommandIndex hold the per-shot commanded value (frequency
	// or voltage) for state devices; nil for motion devices.
	Command      []float64
	CommandIndex []uint64

	// Position holds per-shot x, y, z, theta, phi columns for motion
	// devices; nil for state devices.
	Position *mat.Dense
}

var positionFields = []string{"x", "y", "z", "theta", "phi"}

// ReadControls assembles per-shot records for each named control device.
// The specs are conditioned first: configurations auto-resolve when sole,
// and at most one device per control kind is allowed. A nil shot spec
// selects every shot the device recorded.
func (f *File) ReadControls(specs []ControlSpec, shots ShotSpec) ([]*ControlData, error) {
	resolved, err := conditionControls(f.fmap, specs)
	if err != nil {
		return nil, err
	}

	out := make([]*ControlData, 0, len(resolved))
	for _, spec := range resolved {
		m := f.fmap.Controls[spec.Name]
		g, ok := f.dataGroup(spec.Name)
		if !ok {
			return nil, fmt.Errorf("control group %q vanished", spec.Name)
		}

		var cd *ControlData
		if m.Kind == hdfmap.KindMotion {
			cd, err = f.readMotionControl(g, m, spec.Config, shots)
		} else {
			cd, err = f.readStateControl(g, m, spec.Config, shots)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, cd)
	}
	return out, nil
}

// readStateControl extracts the configuration's rows from the shared
// "Run time list" dataset and maps command indices to commanded values.
func (f *File) readStateControl(g hdfio.Group, m *hdfmap.ControlMap, config string, shots ShotSpec) (*ControlData, error) {
	ds, ok := g.Dataset(m.Dataset)
	if !ok {
		return nil, fmt.Errorf("dataset %q vanished from %s", m.Dataset, g.Path())
	}
	shotCol, err := ds.ReadUintField("Shot number")
	if err != nil {
		return nil, err
	}
	cfgCol, err := ds.ReadStringField("Configuration name")
	if err != nil {
		return nil, err
	}
	idxCol, err := ds.ReadUintField("Command index")
	if err != nil {
		return nil, err
	}

	var commands []float64
	switch cfg := m.Configs[config]; m.Kind {
	case hdfmap.KindWaveform:
		commands = cfg.Waveform.Commands
	case hdfmap.KindPower:
		commands = cfg.Power.Commands
	default:
		return nil, fmt.Errorf("%s: device kind %q carries no command list",
			m.Info.Name, m.Kind)
	}

	idxOf := make(map[uint32]uint64)
	var last uint32
	for i, name := range cfgCol {
		if name != config {
			continue
		}
		sn := uint32(shotCol[i])
		idxOf[sn] = idxCol[i]
		if sn > last {
			last = sn
		}
	}
	if len(idxOf) == 0 {
		return nil, fmt.Errorf("%s: configuration %q recorded no shots",
			ds.Path(), config)
	}

	shotnum, err := selectShots(shots, idxOf, last)
	if err != nil {
		return nil, err
	}

	cd := &ControlData{
		Device:       m.Info.Name,
		Config:       config,
		Kind:         m.Kind,
		ShotNum:      shotnum,
		Command:      make([]float64, len(shotnum)),
		CommandIndex: make([]uint64, len(shotnum)),
	}
	for i, sn := range shotnum {
		idx := idxOf[sn]
		if idx >= uint64(len(commands)) {
			return nil, fmt.Errorf("%s: command index %d out of range (%d commands)",
				ds.Path(), idx, len(commands))
		}
		cd.CommandIndex[i] = idx
		cd.Command[i] = commands[idx]
	}
	return cd, nil
}

// readMotionControl extracts per-shot probe positions from the
// configuration's own dataset.
func (f *File) readMotionControl(g hdfio.Group, m *hdfmap.ControlMap, config string, shots ShotSpec) (*ControlData, error) {
	mc := m.Configs[config].Motion
	ds, ok := g.Dataset(mc.Dataset)
	if !ok {
		return nil, fmt.Errorf("dataset %q vanished from %s", mc.Dataset, g.Path())
	}
	shotCol, err := ds.ReadUintField("Shot number")
	if err != nil {
		return nil, err
	}
	if len(shotCol) == 0 {
		return nil, fmt.Errorf("%s: no shots recorded", ds.Path())
	}

	rowOf := make(map[uint32]int, len(shotCol))
	var last uint32
	for i, sn := range shotCol {
		rowOf[uint32(sn)] = i
		if uint32(sn) > last {
			last = uint32(sn)
		}
	}

	var shotnum []uint32
	if shots == nil {
		shotnum = make([]uint32, len(shotCol))
		for i, sn := range shotCol {
			shotnum[i] = uint32(sn)
		}
		sort.Slice(shotnum, func(i, j int) bool { return shotnum[i] < shotnum[j] })
	} else {
		shotnum, err = conditionShotnum(shots, []uint32{last})
		if err != nil {
			return nil, err
		}
		shotnum = intersectRecorded(shotnum, rowOf)
		if len(shotnum) == 0 {
			return nil, fmt.Errorf("%s: requested shot numbers not recorded", ds.Path())
		}
	}

	cols := make([][]float64, len(positionFields))
	for j, field := range positionFields {
		cols[j], err = ds.ReadFloatField(field)
		if err != nil {
			return nil, err
		}
	}

	pos := mat.NewDense(len(shotnum), len(positionFields), nil)
	for i, sn := range shotnum {
		for j := range positionFields {
			pos.Set(i, j, cols[j][rowOf[sn]])
		}
	}

	return &ControlData{
		Device:   m.Info.Name,
		Config:   config,
		Kind:     m.Kind,
		ShotNum:  shotnum,
		Position: pos,
	}, nil
}

// selectShots resolves a shot spec against one device's recorded shots,
// defaulting to every recorded shot in ascending order. Requested shots are
// intersected with the recording; only an empty intersection fails.
func selectShots(spec ShotSpec, recorded map[uint32]uint64, last uint32) ([]uint32, error) {
	if spec == nil {
		out := make([]uint32, 0, len(recorded))
		for sn := range recorded {
			out = append(out, sn)
		}
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return out, nil
	}
	shotnum, err := conditionShotnum(spec, []uint32{last})
	if err != nil {
		return nil, err
	}
	shotnum = intersectRecorded(shotnum, recorded)
	if len(shotnum) == 0 {
		return nil, fmt.Errorf("requested shot numbers not recorded")
	}
	return shotnum, nil
}
