package lapd

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/scigolib/lapd/hdfio"
	"github.com/scigolib/lapd/hdfmap"
)

// DataInfo is the provenance and acquisition metadata attached to a
// digitizer read.
type DataInfo struct {
	File      string
	Digitizer string
	ADC       string
	Config    string
	Board     int
	Channel   int
	Dataset   string

	Bit           int
	ClockRate     float64 // Hz
	SampleAverage int
	ShotAverage   int
	// VoltageOffset is the per-shot 'Offset' header value, used for dv.
	VoltageOffset float64
}

// Data is the assembled result of one digitizer channel read: one signal
// row per requested shot number.
type Data struct {
	ShotNum []uint32
	Signal  *mat.Dense
	Info    DataInfo
	// Diags records defaults assumed while resolving the read.
	Diags []hdfmap.Diagnostic
}

// DT returns the sample spacing in seconds, accounting for hardware sample
// averaging. Zero when the clock rate is unknown.
func (d *Data) DT() float64 {
	if d.Info.ClockRate == 0 {
		return 0
	}
	avg := d.Info.SampleAverage
	if avg < 1 {
		avg = 1
	}
	return float64(avg) / d.Info.ClockRate
}

// DV returns the voltage resolution in volts: the digitizer's input span
// divided by its code count.
func (d *Data) DV() float64 {
	if d.Info.Bit == 0 {
		return 0
	}
	span := 2 * math.Abs(d.Info.VoltageOffset)
	return span / float64((uint64(1)<<uint(d.Info.Bit))-1)
}

type readOpts struct {
	digitizer string
	adc       string
	config    string
	shots     ShotSpec
}

// ReadOption adjusts a digitizer read.
type ReadOption func(*readOpts)

// WithDigitizer names the digitizer to read from instead of the file's main
// digitizer.
func WithDigitizer(name string) ReadOption {
	return func(o *readOpts) { o.digitizer = name }
}

// WithADC names the ADC to resolve the channel against.
func WithADC(adc string) ReadOption {
	return func(o *readOpts) { o.adc = adc }
}

// WithConfig names the digitizer configuration to read.
func WithConfig(name string) ReadOption {
	return func(o *readOpts) { o.config = name }
}

// WithShots restricts the read to the shot numbers sel selects.
func WithShots(spec ShotSpec) ReadOption {
	return func(o *readOpts) { o.shots = spec }
}

// ReadData assembles the recorded signal of one digitizer board/channel
// pair, one row per shot. Omitted options resolve to the file's main
// digitizer, its sole active configuration, and every recorded shot.
func (f *File) ReadData(board, channel int, opts ...ReadOption) (*Data, error) {
	var o readOpts
	for _, opt := range opts {
		opt(&o)
	}

	var diags []hdfmap.Diagnostic
	dig := o.digitizer
	if dig == "" {
		if f.fmap.MainDigitizer == "" {
			return nil, fmt.Errorf("%s: no digitizer mapped", f.src.Path())
		}
		dig = f.fmap.MainDigitizer
		diags = append(diags, hdfmap.Diagnostic{
			Unit:   dig,
			Reason: "digitizer not named, assuming the main digitizer",
		})
	}
	dmap, ok := f.fmap.Digitizers[dig]
	if !ok {
		return nil, fmt.Errorf("digitizer %q not in file", dig)
	}

	var nameOpts []hdfmap.NameOption
	if o.config != "" {
		nameOpts = append(nameOpts, hdfmap.WithConfig(o.config))
	}
	if o.adc != "" {
		nameOpts = append(nameOpts, hdfmap.WithADC(o.adc))
	}
	dsName, info, err := dmap.ConstructDatasetNameInfo(board, channel, nameOpts...)
	if err != nil {
		return nil, err
	}

	g, ok := f.dataGroup(dig)
	if !ok {
		return nil, fmt.Errorf("digitizer group %q vanished", dig)
	}
	ds, ok := g.Dataset(dsName)
	if !ok {
		return nil, fmt.Errorf("dataset %q vanished from %s", dsName, g.Path())
	}
	hdr, ok := g.Dataset(hdfmap.HeaderName(dsName))
	if !ok {
		return nil, fmt.Errorf("header dataset for %q vanished", dsName)
	}

	recorded, err := hdr.ReadUintField("Shot")
	if err != nil {
		return nil, err
	}
	if len(recorded) == 0 {
		return nil, fmt.Errorf("%s: no shots recorded", ds.Path())
	}
	offset := headerOffset(hdr)

	shape := ds.Shape()
	if len(shape) != 2 || shape[0] != len(recorded) {
		return nil, fmt.Errorf("%s: shape %v disagrees with %d header rows",
			ds.Path(), shape, len(recorded))
	}
	nt := shape[1]

	rowOf := make(map[uint32]int, len(recorded))
	for i, sn := range recorded {
		rowOf[uint32(sn)] = i
	}

	var shotnum []uint32
	if o.shots == nil {
		shotnum = make([]uint32, len(recorded))
		for i, sn := range recorded {
			shotnum[i] = uint32(sn)
		}
	} else {
		last := uint32(recorded[len(recorded)-1])
		shotnum, err = conditionShotnum(o.shots, []uint32{last})
		if err != nil {
			return nil, err
		}
		// Requested shots are intersected with the recording; only an empty
		// intersection fails.
		shotnum = intersectRecorded(shotnum, rowOf)
		if len(shotnum) == 0 {
			return nil, fmt.Errorf("%s: requested shot numbers not recorded", ds.Path())
		}
	}

	signal := mat.NewDense(len(shotnum), nt, nil)
	for i, sn := range shotnum {
		vals, err := ds.ReadRows(rowOf[sn], 1)
		if err != nil {
			return nil, err
		}
		signal.SetRow(i, vals)
	}

	return &Data{
		ShotNum: shotnum,
		Signal:  signal,
		Info: DataInfo{
			File:          f.src.Path(),
			Digitizer:     dig,
			ADC:           info.ADC,
			Config:        info.Config,
			Board:         board,
			Channel:       channel,
			Dataset:       dsName,
			Bit:           info.Bit,
			ClockRate:     info.ClockRate,
			SampleAverage: info.SampleAverage,
			ShotAverage:   info.ShotAverage,
			VoltageOffset: offset,
		},
		Diags: diags,
	}, nil
}

// headerOffset reads the per-shot 'Offset' header field, constant across
// shots in practice; the first row's value is used. Headers without the
// field yield 0, disabling dv.
func headerOffset(hdr hdfio.Dataset) float64 {
	vals, err := hdr.ReadFloatField("Offset")
	if err != nil || len(vals) == 0 {
		return 0
	}
	return vals[0]
}
