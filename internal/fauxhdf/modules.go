package fauxhdf

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scigolib/lapd/hdfio"
)

// SIS3301Options shapes a faux "SIS 3301" digitizer group.
type SIS3301Options struct {
	// NConfigs is the number of configuration groups; default 1.
	NConfigs int
	// Active lists the configuration names with recorded datasets; default
	// the first config.
	Active []string
	// BrdChans maps connected board numbers to channel numbers; default
	// board 0 with channels 0, 3 and 5.
	BrdChans map[int][]int
	// NT and NShots size the active datasets; defaults 100 and 10.
	NT     int
	NShots int
}

func (o *SIS3301Options) normalize() {
	if o.NConfigs <= 0 {
		o.NConfigs = 1
	}
	if o.Active == nil {
		o.Active = []string{ConfigName(1)}
	}
	if o.BrdChans == nil {
		o.BrdChans = map[int][]int{0: {0, 3, 5}}
	}
	if o.NT <= 0 {
		o.NT = 100
	}
	if o.NShots <= 0 {
		o.NShots = 10
	}
}

// ConfigName returns the n-th faux configuration name, "config01" style.
func ConfigName(n int) string { return fmt.Sprintf("config%02d", n) }

// AddSIS3301 builds a faux SIS 3301 digitizer under "Raw data + config" and
// returns its mutable group.
func (b *Builder) AddSIS3301(opt SIS3301Options) *Group {
	opt.normalize()
	dev := b.Data().NewGroup("SIS 3301")

	boards := make([]int, 0, len(opt.BrdChans))
	for brd := range opt.BrdChans {
		boards = append(boards, brd)
	}
	sort.Ints(boards)

	for n := 1; n <= opt.NConfigs; n++ {
		cfg := dev.NewGroup("Configuration: " + ConfigName(n))
		cfg.SetAttr("Samples to average", "No averaging")
		cfg.SetAttr("Shots to average", int64(1))
		for i, brd := range boards {
			bg := cfg.NewGroup(fmt.Sprintf("Boards[%d]", i))
			bg.SetAttr("Board", int64(brd))
			for j, ch := range opt.BrdChans[brd] {
				cg := bg.NewGroup(fmt.Sprintf("Channels[%d]", j))
				cg.SetAttr("Channel", int64(ch))
			}
		}
	}

	for _, name := range opt.Active {
		for _, brd := range boards {
			for _, ch := range opt.BrdChans[brd] {
				AddSIS3301Dataset(dev, name, brd, ch, opt.NShots, opt.NT)
			}
		}
	}
	return dev
}

// AddSIS3301Dataset writes one "<config> [brd:ch]" dataset and its header,
// replacing existing ones. Exposed so tests can resize single channels.
func AddSIS3301Dataset(dev *Group, config string, brd, ch, nShots, nt int) {
	name := fmt.Sprintf("%s [%d:%d]", config, brd, ch)

	data := make([]float64, nShots*nt)
	for shot := 0; shot < nShots; shot++ {
		for t := 0; t < nt; t++ {
			data[shot*nt+t] = float64((shot+1)*100 + brd*10 + ch)
		}
	}
	dev.AddDataset(NewPlain(name, []int{nShots, nt}, hdfio.KindInt, data))

	shots := make([]uint64, nShots)
	scale := make([]float64, nShots)
	offset := make([]float64, nShots)
	for i := range shots {
		shots[i] = uint64(i + 1)
		scale[i] = 5.0 / 16383.0
		offset[i] = -2.5
	}
	hdr := NewCompound(name+" headers", nShots)
	hdr.SetUintField("Shot", shots)
	hdr.SetFloatField("Scale", 1, scale)
	hdr.SetFloatField("Offset", 1, offset)
	dev.AddDataset(hdr)
}

// ControlOptions shapes the faux state-based control devices (Waveform and
// N5700_PS).
type ControlOptions struct {
	NConfigs int // default 1
	NShots   int // shots recorded per configuration; default 10
}

func (o *ControlOptions) normalize() {
	if o.NConfigs <= 0 {
		o.NConfigs = 1
	}
	if o.NShots <= 0 {
		o.NShots = 10
	}
}

// AddWaveform builds a faux "Waveform" function-generator control group.
func (b *Builder) AddWaveform(opt ControlOptions) *Group {
	opt.normalize()
	dev := b.Data().NewGroup("Waveform")

	commands := []string{
		"FREQ 40000.000000",
		"FREQ 80000.000000",
		"FREQ 120000.000000",
	}
	for n := 1; n <= opt.NConfigs; n++ {
		cfg := dev.NewGroup(ConfigName(n))
		cfg.SetAttr("IP address", fmt.Sprintf("192.168.1.%d", n))
		cfg.SetAttr("Generator type", "Agilent 33220A")
		cfg.SetAttr("Waveform command list", strings.Join(commands, " \n")+" \n")
	}
	addRunTimeList(dev, opt, len(commands))
	return dev
}

// AddN5700PS builds a faux "N5700_PS" power-supply control group.
func (b *Builder) AddN5700PS(opt ControlOptions) *Group {
	opt.normalize()
	dev := b.Data().NewGroup("N5700_PS")

	commands := []string{
		"VOLT 20.000000",
		"VOLT 25.000000",
		"VOLT 30.000000",
	}
	for n := 1; n <= opt.NConfigs; n++ {
		cfg := dev.NewGroup(ConfigName(n))
		cfg.SetAttr("IP address", fmt.Sprintf("192.168.2.%d", n))
		cfg.SetAttr("Power supply device", "Agilent N5751A")
		cfg.SetAttr("Initial state", "*RST")
		cfg.SetAttr("N5700 power supply command list",
			strings.Join(commands, " \n")+" \n")
	}
	addRunTimeList(dev, opt, len(commands))
	return dev
}

// addRunTimeList writes the shared "Run time list" recorded-state dataset:
// one row per shot per configuration, command index cycling through the
// command list.
func addRunTimeList(dev *Group, opt ControlOptions, nCommands int) {
	nRows := opt.NConfigs * opt.NShots
	shots := make([]uint64, 0, nRows)
	configs := make([]string, 0, nRows)
	cmdIdx := make([]uint64, 0, nRows)
	for n := 1; n <= opt.NConfigs; n++ {
		for shot := 1; shot <= opt.NShots; shot++ {
			shots = append(shots, uint64(shot))
			configs = append(configs, ConfigName(n))
			cmdIdx = append(cmdIdx, uint64((shot-1)%nCommands))
		}
	}
	rtl := NewCompound("Run time list", nRows)
	rtl.SetUintField("Shot number", shots)
	rtl.SetStringField("Configuration name", configs)
	rtl.SetUintField("Command index", cmdIdx)
	dev.AddDataset(rtl)
}

// MotionOptions shapes a faux "6K Compumotor" probe-drive group.
type MotionOptions struct {
	// Probes maps drive receptacle numbers to probe names; default
	// receptacle 1 with "probe01".
	Probes map[int]string
	NShots int // default 10
}

func (o *MotionOptions) normalize() {
	if o.Probes == nil {
		o.Probes = map[int]string{1: "probe01"}
	}
	if o.NShots <= 0 {
		o.NShots = 10
	}
}

// Add6KCompumotor builds a faux "6K Compumotor" motion control group: one
// configuration subgroup and one position dataset per probe, both named
// "XY[<receptacle>]: <probe>".
func (b *Builder) Add6KCompumotor(opt MotionOptions) *Group {
	opt.normalize()
	dev := b.Data().NewGroup("6K Compumotor")

	recs := make([]int, 0, len(opt.Probes))
	for r := range opt.Probes {
		recs = append(recs, r)
	}
	sort.Ints(recs)

	for _, r := range recs {
		name := fmt.Sprintf("XY[%d]: %s", r, opt.Probes[r])
		cfg := dev.NewGroup(name)
		cfg.SetAttr("Receptacle", int64(r))
		cfg.SetAttr("Probe name", opt.Probes[r])
		cfg.SetAttr("Probe type", "LaPD probe")
		cfg.SetAttr("Motion list", "ml-0001")

		shots := make([]uint64, opt.NShots)
		x := make([]float64, opt.NShots)
		y := make([]float64, opt.NShots)
		z := make([]float64, opt.NShots)
		theta := make([]float64, opt.NShots)
		phi := make([]float64, opt.NShots)
		for i := range shots {
			shots[i] = uint64(i + 1)
			x[i] = float64(i)
			y[i] = float64(i) * 0.5
			z[i] = 10.0 * float64(r)
		}
		pos := NewCompound(name, opt.NShots)
		pos.SetUintField("Shot number", shots)
		pos.SetFloatField("x", 1, x)
		pos.SetFloatField("y", 1, y)
		pos.SetFloatField("z", 1, z)
		pos.SetFloatField("theta", 1, theta)
		pos.SetFloatField("phi", 1, phi)
		dev.AddDataset(pos)
	}
	return dev
}

// MSIOptions sizes the faux MSI diagnostic groups.
type MSIOptions struct {
	NShots int // default 10
	NT     int // trace length; default 100
}

func (o *MSIOptions) normalize() {
	if o.NShots <= 0 {
		o.NShots = 10
	}
	if o.NT <= 0 {
		o.NT = 100
	}
}

func msiShotFields(d *Dataset, nShots int) {
	shots := make([]int64, nShots)
	ts := make([]float64, nShots)
	valid := make([]int64, nShots)
	for i := range shots {
		shots[i] = int64(i + 1)
		ts[i] = 1.5e9 + float64(i)
		valid[i] = 1
	}
	d.SetIntField("Shot number", shots)
	d.SetFloatField("Timestamp", 1, ts)
	d.SetIntField("Data valid", valid)
}

func ramp(n int, base float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = base + float64(i)
	}
	return out
}

// AddDischarge builds the faux "Discharge" MSI group.
func (b *Builder) AddDischarge(opt MSIOptions) *Group {
	opt.normalize()
	g := b.MSI().NewGroup("Discharge")
	g.SetAttr("Current conversion factor", 0.5)
	g.SetAttr("Voltage conversion factor", 0.25)
	g.SetAttr("Timestep", 4.88e-5)
	g.SetAttr("Start time", -0.0249856)

	sum := NewCompound("Discharge summary", opt.NShots)
	msiShotFields(sum, opt.NShots)
	sum.SetFloatField("Pulse length", 1, ramp(opt.NShots, 12.0e-3))
	sum.SetFloatField("Peak current", 1, ramp(opt.NShots, 4.2e3))
	sum.SetFloatField("Bank voltage", 1, ramp(opt.NShots, 68.0))
	g.AddDataset(sum)

	shape := []int{opt.NShots, opt.NT}
	g.AddDataset(NewPlain("Cathode-anode voltage", shape, hdfio.KindFloat,
		ramp(opt.NShots*opt.NT, 0)))
	g.AddDataset(NewPlain("Discharge current", shape, hdfio.KindFloat,
		ramp(opt.NShots*opt.NT, 1000)))
	return g
}

// AddGasPressure builds the faux "Gas pressure" MSI group.
func (b *Builder) AddGasPressure(opt MSIOptions) *Group {
	opt.normalize()
	g := b.MSI().NewGroup("Gas pressure")
	amus := make([]float64, 51)
	for i := range amus {
		amus[i] = float64(i)
	}
	g.SetAttr("RGA AMUs", amus)
	g.SetAttr("Ion gauge calib tag", "08/24/2018")

	sum := NewCompound("Gas pressure summary", opt.NShots)
	msiShotFields(sum, opt.NShots)
	sum.SetFloatField("Fill pressure", 1, ramp(opt.NShots, 1.0e-5))
	sum.SetFloatField("Peak pressure", 1, ramp(opt.NShots, 4.0e-5))
	g.AddDataset(sum)

	g.AddDataset(NewPlain("RGA partial pressures",
		[]int{opt.NShots, len(amus)}, hdfio.KindFloat,
		ramp(opt.NShots*len(amus), 0)))
	return g
}

// AddHeater builds the faux "Heater" MSI group, summary only.
func (b *Builder) AddHeater(opt MSIOptions) *Group {
	opt.normalize()
	g := b.MSI().NewGroup("Heater")
	g.SetAttr("Calib tag", "01/15/2018")

	sum := NewCompound("Heater summary", opt.NShots)
	msiShotFields(sum, opt.NShots)
	sum.SetFloatField("Heater current", 1, ramp(opt.NShots, 2100))
	sum.SetFloatField("Heater voltage", 1, ramp(opt.NShots, 52))
	sum.SetFloatField("Heater temperature", 1, ramp(opt.NShots, 1750))
	g.AddDataset(sum)
	return g
}

// AddInterferometer builds the faux "Interferometer array" MSI group with
// nSensors "Interferometer [i]" subgroups.
func (b *Builder) AddInterferometer(nSensors int, opt MSIOptions) *Group {
	opt.normalize()
	if nSensors <= 0 {
		nSensors = 7
	}
	g := b.MSI().NewGroup("Interferometer array")
	g.SetAttr("Interferometer count", int64(nSensors))
	g.SetAttr("Calibration tag", "04/18/2017")

	for i := 0; i < nSensors; i++ {
		sub := g.NewGroup(fmt.Sprintf("Interferometer [%d]", i))
		sub.SetAttr("Start time", -0.0249856)
		sub.SetAttr("Timestep", 4.88e-5)
		sub.SetAttr("n bar L", 4.4e17)
		sub.SetAttr("z location", float64(i)*100.0)

		sum := NewCompound("Interferometer summary list", opt.NShots)
		msiShotFields(sum, opt.NShots)
		sum.SetFloatField("Peak density", 1, ramp(opt.NShots, 1.0e13+float64(i)))
		sub.AddDataset(sum)

		sub.AddDataset(NewPlain("Interferometer trace",
			[]int{opt.NShots, opt.NT}, hdfio.KindFloat,
			ramp(opt.NShots*opt.NT, float64(i)*1000)))
	}
	return g
}

// AddMagneticField builds the faux "Magnetic field" MSI group.
func (b *Builder) AddMagneticField(opt MSIOptions) *Group {
	opt.normalize()
	g := b.MSI().NewGroup("Magnetic field")
	nz := 1024
	zlocs := make([]float64, nz)
	for i := range zlocs {
		zlocs[i] = float64(i) * 2.0
	}
	g.SetAttr("Profile z locations", zlocs)

	sum := NewCompound("Magnetic field summary", opt.NShots)
	msiShotFields(sum, opt.NShots)
	sum.SetFloatField("Peak magnetic field", 1, ramp(opt.NShots, 1500))
	g.AddDataset(sum)

	g.AddDataset(NewPlain("Magnetic field profile",
		[]int{opt.NShots, nz}, hdfio.KindFloat, ramp(opt.NShots*nz, 900)))
	return g
}
