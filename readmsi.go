package lapd

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/scigolib/lapd/hdfio"
	"github.com/scigolib/lapd/hdfmap"
)

// Signal is one assembled signal block of an MSI read. Multi-sensor
// diagnostics carry one plane per sensor; each plane is (nshots x nt).
type Signal struct {
	Planes []*mat.Dense
}

// NT returns the per-shot sample count.
func (s *Signal) NT() int {
	if len(s.Planes) == 0 {
		return 0
	}
	_, c := s.Planes[0].Dims()
	return c
}

// MSIInfo is the read-only provenance record attached to an MSI read.
type MSIInfo struct {
	File   string
	Device string
	Path   string
	// Attrs carries the device's calibration attributes as mapped.
	Attrs map[string]interface{}
}

// MSIData is the assembled result of one MSI diagnostic read: shot numbers,
// signal blocks, and per-shot metadata columns, all row-aligned.
type MSIData struct {
	ShotNum []uint32
	Signals map[string]*Signal
	// Meta columns are (nshots x nsources); single-source fields have one
	// column.
	Meta map[string]*mat.Dense
	Info MSIInfo
}

// ReadMSI assembles every recorded shot of one MSI diagnostic. The name may
// be the canonical group name or a known alias ("bfield", "rga", ...).
func (f *File) ReadMSI(name string) (*MSIData, error) {
	canonical, ok := resolveMSIName(name)
	if !ok {
		canonical = name
	}
	m, ok := f.fmap.MSI[canonical]
	if !ok {
		return nil, fmt.Errorf("MSI diagnostic %q not in file", name)
	}
	g, ok := f.msiGroup(canonical)
	if !ok {
		return nil, fmt.Errorf("MSI diagnostic %q not in file", name)
	}

	shotnum, err := readShotNumSources(g, m.ShotNum, m.NShots)
	if err != nil {
		return nil, err
	}

	out := &MSIData{
		ShotNum: shotnum,
		Signals: make(map[string]*Signal, len(m.Signals)),
		Meta:    make(map[string]*mat.Dense, len(m.Meta)),
		Info: MSIInfo{
			File:   f.src.Path(),
			Device: m.Info.Name,
			Path:   m.Info.Path,
			Attrs:  m.Attrs,
		},
	}

	for _, field := range m.Signals {
		sig := &Signal{}
		for _, src := range field.Sources {
			plane, err := readFieldBlock(g, src, m.NShots, field.NT)
			if err != nil {
				return nil, err
			}
			sig.Planes = append(sig.Planes, plane)
		}
		out.Signals[field.Name] = sig
	}

	for _, field := range m.Meta {
		cols := mat.NewDense(m.NShots, len(field.Sources), nil)
		for j, src := range field.Sources {
			col, err := readFieldColumn(g, src, m.NShots)
			if err != nil {
				return nil, err
			}
			cols.SetCol(j, col)
		}
		out.Meta[field.Name] = cols
	}
	return out, nil
}

// readShotNumSources fills the shot-number array from the first source and
// cross-checks every additional source for exact equality.
func readShotNumSources(g hdfio.Group, field hdfmap.MSIField, nshots int) ([]uint32, error) {
	var shotnum []uint32
	for _, src := range field.Sources {
		ds, ok := hdfmap.ResolveDataset(g, src.Dataset)
		if !ok {
			return nil, fmt.Errorf("dataset %q vanished from %s", src.Dataset, g.Path())
		}
		vals, err := ds.ReadUintField(src.Field)
		if err != nil {
			return nil, err
		}
		if len(vals) != nshots {
			return nil, fmt.Errorf("%s: %d shot numbers, expected %d",
				ds.Path(), len(vals), nshots)
		}
		if shotnum == nil {
			shotnum = make([]uint32, len(vals))
			for i, v := range vals {
				shotnum[i] = uint32(v)
			}
			continue
		}
		for i, v := range vals {
			if uint32(v) != shotnum[i] {
				return nil, fmt.Errorf(
					"%s: shot number %d at row %d disagrees with %d",
					ds.Path(), v, i, shotnum[i])
			}
		}
	}
	return shotnum, nil
}

// readFieldBlock reads one (nshots x nt) contribution: the whole plain
// dataset, or one array-valued compound member.
func readFieldBlock(g hdfio.Group, src hdfmap.MSISource, nshots, nt int) (*mat.Dense, error) {
	ds, ok := hdfmap.ResolveDataset(g, src.Dataset)
	if !ok {
		return nil, fmt.Errorf("dataset %q vanished from %s", src.Dataset, g.Path())
	}
	var (
		vals []float64
		err  error
	)
	if src.Field == "" {
		vals, err = ds.ReadRows(0, nshots)
	} else {
		vals, err = ds.ReadFloatField(src.Field)
	}
	if err != nil {
		return nil, err
	}
	if len(vals) != nshots*nt {
		return nil, fmt.Errorf("%s: %d values, expected %d rows of %d",
			ds.Path(), len(vals), nshots, nt)
	}
	return mat.NewDense(nshots, nt, vals), nil
}

// readFieldColumn reads one per-shot scalar compound member.
func readFieldColumn(g hdfio.Group, src hdfmap.MSISource, nshots int) ([]float64, error) {
	ds, ok := hdfmap.ResolveDataset(g, src.Dataset)
	if !ok {
		return nil, fmt.Errorf("dataset %q vanished from %s", src.Dataset, g.Path())
	}
	vals, err := ds.ReadFloatField(src.Field)
	if err != nil {
		return nil, err
	}
	if len(vals) != nshots {
		return nil, fmt.Errorf("%s field %q: %d values, expected %d",
			ds.Path(), src.Field, len(vals), nshots)
	}
	return vals, nil
}
