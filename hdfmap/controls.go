package hdfmap

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/scigolib/lapd/hdfio"
)

// RunTimeList is the recorded-state dataset every state-based control device
// carries: one row per shot per configuration.
const RunTimeList = "Run time list"

// WaveformConfig is the metadata of one function-generator configuration.
type WaveformConfig struct {
	IP            string
	GeneratorType string
	// Commands holds the frequencies parsed from the command list, in
	// command-index order.
	Commands []float64
}

// PowerConfig is the metadata of one programmable power-supply configuration.
type PowerConfig struct {
	IP           string
	Device       string
	InitialState string
	// Commands holds the voltages parsed from the command list, in
	// command-index order.
	Commands []float64
}

// MotionConfig is the metadata of one probe-drive configuration.
type MotionConfig struct {
	Receptacle int
	ProbeName  string
	ProbeType  string
	MotionList string
	// Dataset is the per-shot position dataset recorded for this probe.
	Dataset string
}

// ControlConfig is a tagged variant: exactly one of the device-kind pointers
// is set, matching the owning map's Kind.
type ControlConfig struct {
	Name     string
	Waveform *WaveformConfig
	Power    *PowerConfig
	Motion   *MotionConfig
}

// ControlMap is the structural map of one control device group.
type ControlMap struct {
	Info        DeviceInfo
	Kind        ControlKind
	Configs     map[string]*ControlConfig
	ConfigNames []string
	// Dataset is the shared recorded-state dataset name; motion devices use
	// per-configuration datasets instead.
	Dataset string
	Diags   []Diagnostic
}

func (m *ControlMap) diagf(unit, reason string) {
	m.Diags = append(m.Diags, Diagnostic{Unit: unit, Reason: reason})
}

// MapControl builds the map for a known control device group.
func MapControl(g hdfio.Group) (*ControlMap, error) {
	switch g.Name() {
	case "Waveform":
		return mapWaveform(g)
	case "N5700_PS":
		return mapN5700PS(g)
	case "6K Compumotor":
		return map6KCompumotor(g)
	default:
		return nil, mappingErrorf(g.Path(), "unknown control device %q", g.Name())
	}
}

// reCommand matches one "<VERB> <float>" line of a command-list attribute.
var reCommand = regexp.MustCompile(`(?m)^\s*([A-Z]+)\s+(-?\d+(?:\.\d+)?)\s*$`)

// parseCommandList extracts the numeric arguments of every line whose verb
// matches.
func parseCommandList(list, verb string) []float64 {
	var vals []float64
	for _, match := range reCommand.FindAllStringSubmatch(list, -1) {
		if match[1] != verb {
			continue
		}
		v, err := strconv.ParseFloat(match[2], 64)
		if err != nil {
			continue
		}
		vals = append(vals, v)
	}
	return vals
}

func newControlMap(g hdfio.Group, kind ControlKind) *ControlMap {
	return &ControlMap{
		Info: DeviceInfo{
			Name:    g.Name(),
			Path:    g.Path(),
			ConType: ConTypeControl,
		},
		Kind:    kind,
		Configs: make(map[string]*ControlConfig),
	}
}

func (m *ControlMap) addConfig(c *ControlConfig) {
	m.Configs[c.Name] = c
	m.ConfigNames = append(m.ConfigNames, c.Name)
}

// requireRunTimeList checks the shared recorded-state dataset and its
// per-shot fields.
func (m *ControlMap) requireRunTimeList(g hdfio.Group) error {
	ds, ok := g.Dataset(RunTimeList)
	if !ok {
		return mappingErrorf(g.Path(), "dataset %q missing", RunTimeList)
	}
	for _, field := range []string{"Shot number", "Configuration name", "Command index"} {
		if _, ok := hdfio.FieldByName(ds, field); !ok {
			return mappingErrorf(g.Path(), "%q lacks field %q", RunTimeList, field)
		}
	}
	m.Dataset = RunTimeList
	return nil
}

func attrString(g hdfio.Group, name string) (string, bool) {
	v, ok := g.Attr(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func mapWaveform(g hdfio.Group) (*ControlMap, error) {
	m := newControlMap(g, KindWaveform)
	if err := m.requireRunTimeList(g); err != nil {
		return nil, err
	}

	for _, name := range g.Groups() {
		cfg, _ := g.Group(name)
		list, ok := attrString(cfg, "Waveform command list")
		if !ok {
			m.diagf(cfg.Path(), "'Waveform command list' missing, configuration skipped")
			continue
		}
		commands := parseCommandList(list, "FREQ")
		if len(commands) == 0 {
			m.diagf(cfg.Path(), "no FREQ commands parsed, configuration skipped")
			continue
		}
		ip, _ := attrString(cfg, "IP address")
		gen, _ := attrString(cfg, "Generator type")
		m.addConfig(&ControlConfig{
			Name: name,
			Waveform: &WaveformConfig{
				IP:            ip,
				GeneratorType: gen,
				Commands:      commands,
			},
		})
	}
	if len(m.Configs) == 0 {
		return nil, mappingErrorf(g.Path(), "no usable configurations")
	}
	return m, nil
}

func mapN5700PS(g hdfio.Group) (*ControlMap, error) {
	m := newControlMap(g, KindPower)
	if err := m.requireRunTimeList(g); err != nil {
		return nil, err
	}

	for _, name := range g.Groups() {
		cfg, _ := g.Group(name)
		list, ok := attrString(cfg, "N5700 power supply command list")
		if !ok {
			m.diagf(cfg.Path(), "'N5700 power supply command list' missing, configuration skipped")
			continue
		}
		commands := parseCommandList(list, "VOLT")
		if len(commands) == 0 {
			m.diagf(cfg.Path(), "no VOLT commands parsed, configuration skipped")
			continue
		}
		ip, _ := attrString(cfg, "IP address")
		dev, _ := attrString(cfg, "Power supply device")
		init, _ := attrString(cfg, "Initial state")
		m.addConfig(&ControlConfig{
			Name: name,
			Power: &PowerConfig{
				IP:           ip,
				Device:       dev,
				InitialState: init,
				Commands:     commands,
			},
		})
	}
	if len(m.Configs) == 0 {
		return nil, mappingErrorf(g.Path(), "no usable configurations")
	}
	return m, nil
}

func map6KCompumotor(g hdfio.Group) (*ControlMap, error) {
	m := newControlMap(g, KindMotion)

	for _, name := range g.Groups() {
		cfg, _ := g.Group(name)
		rec, ok := cfg.Attr("Receptacle")
		if !ok {
			m.diagf(cfg.Path(), "'Receptacle' missing, configuration skipped")
			continue
		}
		recNum, ok := rec.(int64)
		if !ok {
			m.diagf(cfg.Path(), "'Receptacle' is not an integer, configuration skipped")
			continue
		}
		ds, ok := g.Dataset(name)
		if !ok {
			m.diagf(cfg.Path(), "position dataset missing, configuration skipped")
			continue
		}
		if _, ok := hdfio.FieldByName(ds, "Shot number"); !ok {
			m.diagf(cfg.Path(), "position dataset lacks 'Shot number', configuration skipped")
			continue
		}
		probe, _ := attrString(cfg, "Probe name")
		ptype, _ := attrString(cfg, "Probe type")
		mlist, _ := attrString(cfg, "Motion list")
		m.addConfig(&ControlConfig{
			Name: name,
			Motion: &MotionConfig{
				Receptacle: int(recNum),
				ProbeName:  probe,
				ProbeType:  ptype,
				MotionList: mlist,
				Dataset:    name,
			},
		})
	}
	if len(m.Configs) == 0 {
		return nil, mappingErrorf(g.Path(), "no usable configurations")
	}
	sort.Strings(m.ConfigNames)
	return m, nil
}

// ConfigNamed resolves a configuration name, auto-selecting when the device
// has exactly one configuration and none was named.
func (m *ControlMap) ConfigNamed(name string) (*ControlConfig, error) {
	if name == "" {
		if len(m.ConfigNames) != 1 {
			return nil, fmt.Errorf("%s: %d configurations, name one explicitly",
				m.Info.Name, len(m.ConfigNames))
		}
		name = m.ConfigNames[0]
	}
	cfg, ok := m.Configs[name]
	if !ok {
		return nil, fmt.Errorf("%s: configuration %q unknown (have %s)",
			m.Info.Name, name, strings.Join(m.ConfigNames, ", "))
	}
	return cfg, nil
}
