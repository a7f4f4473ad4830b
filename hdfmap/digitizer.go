package hdfmap

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/scigolib/lapd/hdfio"
)

// SIS3301 is the name of the 14-bit, 100 MHz digitizer and of its sole ADC.
const SIS3301 = "SIS 3301"

const (
	sis3301Bits      = 14
	sis3301ClockRate = 100e6 // Hz

	configPrefix = "Configuration: "
	shotFieldHdr = "Shot"
)

// CountIndeterminate is the nt/nshotnum value recorded when the channels or
// boards sharing a connection set disagree on the count. Zero means the
// count was never examined (inactive configurations).
const CountIndeterminate = -1

// ConnInfo carries the acquisition metadata resolved for one connection.
type ConnInfo struct {
	ADC       string
	Bit       int
	ClockRate float64 // Hz
	// NT and NShotNum are CountIndeterminate when inconsistent, 0 when not
	// examined.
	NT       int
	NShotNum int
	// SampleAverage is the hardware samples-per-point average, 0 for none.
	SampleAverage int
	// ShotAverage is the software shots-per-record average, 0 for none.
	ShotAverage int
	Config      string
	Digitizer   string
}

// Connection pairs one acquisition board with its recorded channels.
type Connection struct {
	Board    int
	Channels []int
	Info     ConnInfo
}

// DigiConfig is one named configuration of a digitizer.
type DigiConfig struct {
	Name        string
	Active      bool
	ADC         string
	Connections []Connection
}

// DigiMap is the structural map of one digitizer group.
type DigiMap struct {
	Info          DeviceInfo
	Configs       map[string]*DigiConfig
	ConfigNames   []string
	ActiveConfigs []string
	Diags         []Diagnostic
}

func (m *DigiMap) diagf(unit, format string, args ...interface{}) {
	m.Diags = append(m.Diags, Diagnostic{
		Unit:   unit,
		Reason: fmt.Sprintf(format, args...),
	})
}

// MapDigitizer builds the map for a known digitizer group.
func MapDigitizer(g hdfio.Group) (*DigiMap, error) {
	if g.Name() != SIS3301 {
		return nil, mappingErrorf(g.Path(), "unknown digitizer %q", g.Name())
	}
	return mapSIS3301(g)
}

var (
	reBoardGroup   = regexp.MustCompile(`^Boards\[\d+\]$`)
	reChannelGroup = regexp.MustCompile(`^Channels\[\d+\]$`)
	reSampleAvg    = regexp.MustCompile(`^Average (\d+) Samples$`)
)

func mapSIS3301(g hdfio.Group) (*DigiMap, error) {
	m := &DigiMap{
		Info: DeviceInfo{
			Name:    g.Name(),
			Path:    g.Path(),
			ConType: ConTypeDigitizer,
		},
		Configs: make(map[string]*DigiConfig),
	}

	var cfgNames []string
	for _, name := range g.Groups() {
		if cfg, ok := strings.CutPrefix(name, configPrefix); ok {
			cfgNames = append(cfgNames, cfg)
		}
	}
	if len(cfgNames) == 0 {
		return nil, mappingErrorf(g.Path(), "no configuration groups found")
	}

	// A configuration is active when the file holds datasets named with its
	// prefix.
	activeSet := make(map[string]bool)
	for _, cfg := range cfgNames {
		for _, ds := range g.Datasets() {
			if strings.HasPrefix(ds, cfg+" [") {
				activeSet[cfg] = true
				break
			}
		}
	}
	if len(activeSet) == 0 {
		return nil, mappingErrorf(g.Path(), "no active configuration")
	}

	for _, cfg := range cfgNames {
		grp, _ := g.Group(configPrefix + cfg)
		active := activeSet[cfg]

		sampAvg := m.parseSampleAverage(grp)
		shotAvg := m.parseShotAverage(grp)

		conns, err := m.findConnections(grp, active)
		if err != nil {
			return nil, err
		}
		if active {
			conns = m.validateConnections(g, cfg, conns)
			if len(conns) == 0 {
				return nil, mappingErrorf(g.Path(),
					"active configuration %q has no usable connections", cfg)
			}
		} else if len(conns) == 0 {
			m.diagf(grp.Path(), "configuration dropped: no connections survived")
			continue
		}

		for i := range conns {
			info := &conns[i].Info
			info.ADC = SIS3301
			info.Bit = sis3301Bits
			info.ClockRate = sis3301ClockRate
			info.SampleAverage = sampAvg
			info.ShotAverage = shotAvg
			info.Config = cfg
			info.Digitizer = m.Info.Name
		}

		m.Configs[cfg] = &DigiConfig{
			Name:        cfg,
			Active:      active,
			ADC:         SIS3301,
			Connections: conns,
		}
		m.ConfigNames = append(m.ConfigNames, cfg)
		if active {
			m.ActiveConfigs = append(m.ActiveConfigs, cfg)
		}
	}

	if len(m.ActiveConfigs) == 0 {
		return nil, mappingErrorf(g.Path(), "no active configuration")
	}
	return m, nil
}

// parseSampleAverage decodes the "Samples to average" setting: "No
// averaging" or "Average N Samples". Returns 0 for none.
func (m *DigiMap) parseSampleAverage(grp hdfio.Group) int {
	v, ok := grp.Attr("Samples to average")
	if !ok {
		return 0
	}
	s, ok := v.(string)
	if !ok {
		m.diagf(grp.Path(), "'Samples to average' is not a string, assuming none")
		return 0
	}
	if s == "No averaging" {
		return 0
	}
	match := reSampleAvg.FindStringSubmatch(s)
	if match == nil {
		m.diagf(grp.Path(), "unrecognized 'Samples to average' value %q, assuming none", s)
		return 0
	}
	var n int
	fmt.Sscanf(match[1], "%d", &n)
	if n <= 1 {
		return 0
	}
	return n
}

// parseShotAverage decodes the "Shots to average" setting. Values below 2
// mean no averaging.
func (m *DigiMap) parseShotAverage(grp hdfio.Group) int {
	v, ok := grp.Attr("Shots to average")
	if !ok {
		return 0
	}
	n, ok := v.(int64)
	if !ok {
		m.diagf(grp.Path(), "'Shots to average' is not an integer, assuming none")
		return 0
	}
	if n <= 1 {
		return 0
	}
	return int(n)
}

// findConnections walks the configuration group's board and channel
// subgroups. Malformed identifiers degrade to diagnostics; duplicate
// identifiers and missing identifying attributes in an active configuration
// are fatal.
func (m *DigiMap) findConnections(grp hdfio.Group, active bool) ([]Connection, error) {
	type boardEntry struct {
		group hdfio.Group
		num   int
	}
	byNum := make(map[int][]boardEntry)
	var order []int

	for _, name := range grp.Groups() {
		sub, _ := grp.Group(name)
		if !reBoardGroup.MatchString(name) {
			m.diagf(sub.Path(), "not a board group, skipped")
			continue
		}
		num, err := m.readIdentAttr(sub, "Board")
		if err != nil {
			return nil, err
		}
		if num < 0 {
			continue
		}
		if _, seen := byNum[num]; !seen {
			order = append(order, num)
		}
		byNum[num] = append(byNum[num], boardEntry{group: sub, num: num})
	}

	var conns []Connection
	for _, num := range order {
		entries := byNum[num]
		if len(entries) > 1 {
			if active {
				return nil, mappingErrorf(m.Info.Path,
					"board %d appears %d times in active configuration %q",
					num, len(entries), strings.TrimPrefix(grp.Name(), configPrefix))
			}
			m.diagf(entries[0].group.Path(),
				"board %d duplicated %d times, all excluded", num, len(entries))
			continue
		}
		channels, err := m.findChannels(entries[0].group, active)
		if err != nil {
			return nil, err
		}
		if len(channels) == 0 {
			m.diagf(entries[0].group.Path(),
				"board %d dropped: no usable channels", num)
			continue
		}
		conns = append(conns, Connection{Board: num, Channels: channels})
	}
	return conns, nil
}

func (m *DigiMap) findChannels(board hdfio.Group, active bool) ([]int, error) {
	byNum := make(map[int]int)
	firstPath := make(map[int]string)
	var order []int

	for _, name := range board.Groups() {
		sub, _ := board.Group(name)
		if !reChannelGroup.MatchString(name) {
			m.diagf(sub.Path(), "not a channel group, skipped")
			continue
		}
		num, err := m.readIdentAttr(sub, "Channel")
		if err != nil {
			return nil, err
		}
		if num < 0 {
			continue
		}
		if byNum[num] == 0 {
			order = append(order, num)
			firstPath[num] = sub.Path()
		}
		byNum[num]++
	}

	var channels []int
	for _, num := range order {
		if byNum[num] > 1 {
			if active {
				return nil, mappingErrorf(m.Info.Path,
					"channel %d appears %d times under %s", num, byNum[num], board.Path())
			}
			m.diagf(firstPath[num],
				"channel %d duplicated %d times, all excluded", num, byNum[num])
			continue
		}
		channels = append(channels, num)
	}
	return channels, nil
}

// readIdentAttr reads an identifying integer attribute. A missing attribute
// is a fatal mapping error; a non-integer or negative value excludes the
// group with a diagnostic (returned as -1).
func (m *DigiMap) readIdentAttr(grp hdfio.Group, attr string) (int, error) {
	v, ok := grp.Attr(attr)
	if !ok {
		return 0, mappingErrorf(m.Info.Path,
			"%s: required attribute %q missing", grp.Path(), attr)
	}
	n, ok := v.(int64)
	if !ok {
		m.diagf(grp.Path(), "attribute %q is not an integer, group excluded", attr)
		return -1, nil
	}
	if n < 0 {
		m.diagf(grp.Path(), "attribute %q is negative (%d), group excluded", attr, n)
		return -1, nil
	}
	return int(n), nil
}

// validateConnections cross-checks an active configuration's discovered
// connections against the dataset inventory, excluding channels whose
// datasets are missing or malformed and resolving nt/nshotnum.
func (m *DigiMap) validateConnections(g hdfio.Group, cfg string, conns []Connection) []Connection {
	var kept []Connection
	for _, conn := range conns {
		var channels []int
		nt, nshot := 0, 0
		ntSet, nshotSet := false, false
		for _, ch := range conn.Channels {
			dsName := datasetName(cfg, conn.Board, ch)
			dsPath := childPath(g.Path(), dsName)

			rows, cols, ok := m.validateDataset(g, dsName, dsPath)
			if !ok {
				continue
			}
			channels = append(channels, ch)

			switch {
			case !ntSet:
				nt, ntSet = cols, true
			case nt != cols && nt != CountIndeterminate:
				m.diagf(dsPath,
					"sample count %d disagrees with the board's %d, nt indeterminate",
					cols, nt)
				nt = CountIndeterminate
			}
			switch {
			case !nshotSet:
				nshot, nshotSet = rows, true
			case nshot != rows && nshot != CountIndeterminate:
				m.diagf(dsPath,
					"shot count %d disagrees with the board's %d, nshotnum indeterminate",
					rows, nshot)
				nshot = CountIndeterminate
			}
		}
		if len(channels) == 0 {
			m.diagf(fmt.Sprintf("%s board %d", g.Path(), conn.Board),
				"board dropped: no usable channels for configuration %q", cfg)
			continue
		}
		conn.Channels = channels
		conn.Info.NT = nt
		conn.Info.NShotNum = nshot
		kept = append(kept, conn)
	}

	// Boards disagreeing on shot count mark the whole configuration's
	// nshotnum indeterminate; the channels stay usable.
	distinct := make(map[int]bool)
	for _, conn := range kept {
		distinct[conn.Info.NShotNum] = true
	}
	if len(distinct) > 1 {
		m.diagf(g.Path(),
			"boards disagree on shot count for configuration %q, nshotnum indeterminate", cfg)
		for i := range kept {
			kept[i].Info.NShotNum = CountIndeterminate
		}
	}
	return kept
}

// validateDataset checks one channel's data and header datasets. Returns the
// row and column counts when the channel is usable.
func (m *DigiMap) validateDataset(g hdfio.Group, dsName, dsPath string) (rows, cols int, ok bool) {
	ds, found := g.Dataset(dsName)
	if !found {
		m.diagf(dsPath, "dataset missing, channel excluded")
		return 0, 0, false
	}
	if ds.Kind() == hdfio.KindCompound {
		m.diagf(dsPath, "dataset is compound, expected plain 2-D, channel excluded")
		return 0, 0, false
	}
	shape := ds.Shape()
	if len(shape) != 2 {
		m.diagf(dsPath, "dataset is %d-D, expected 2-D, channel excluded", len(shape))
		return 0, 0, false
	}

	hdrName := HeaderName(dsName)
	hdr, found := g.Dataset(hdrName)
	if !found {
		m.diagf(dsPath, "header dataset %q missing, channel excluded", hdrName)
		return 0, 0, false
	}
	f, found := hdfio.FieldByName(hdr, shotFieldHdr)
	if !found {
		m.diagf(dsPath, "header lacks %q field, channel excluded", shotFieldHdr)
		return 0, 0, false
	}
	// HDF5 readers commonly expose unsigned fixed-point members as signed
	// values, so any integer kind is accepted here; non-negativity is
	// enforced when the field is read.
	if f.Kind != hdfio.KindUint && f.Kind != hdfio.KindInt {
		m.diagf(dsPath, "header %q field is %s, expected integer, channel excluded",
			shotFieldHdr, f.Kind)
		return 0, 0, false
	}
	if len(f.Shape) != 0 {
		m.diagf(dsPath, "header %q field is not scalar, channel excluded", shotFieldHdr)
		return 0, 0, false
	}
	hdrShape := hdr.Shape()
	if len(hdrShape) != 1 || hdrShape[0] != shape[0] {
		m.diagf(dsPath, "shot count %d disagrees with header %v, channel excluded",
			shape[0], hdrShape)
		return 0, 0, false
	}
	return shape[0], shape[1], true
}

func datasetName(cfg string, board, channel int) string {
	return fmt.Sprintf("%s [%d:%d]", cfg, board, channel)
}

// HeaderName returns the per-shot header dataset name paired with a channel
// dataset.
func HeaderName(dataset string) string { return dataset + " headers" }

func childPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

type nameOpts struct {
	config string
	adc    string
}

// NameOption adjusts dataset-name resolution.
type NameOption func(*nameOpts)

// WithConfig names the digitizer configuration to resolve against. It must
// be an active configuration.
func WithConfig(name string) NameOption {
	return func(o *nameOpts) { o.config = name }
}

// WithADC names the ADC to resolve against.
func WithADC(adc string) NameOption {
	return func(o *nameOpts) { o.adc = adc }
}

// ConstructDatasetName resolves the canonical dataset name recorded for a
// board/channel pair. Omitted options resolve only when unambiguous.
func (m *DigiMap) ConstructDatasetName(board, channel int, opts ...NameOption) (string, error) {
	name, _, err := m.resolveName(board, channel, opts)
	return name, err
}

// ConstructDatasetNameInfo is ConstructDatasetName returning the resolved
// connection metadata alongside the name.
func (m *DigiMap) ConstructDatasetNameInfo(board, channel int, opts ...NameOption) (string, ConnInfo, error) {
	return m.resolveName(board, channel, opts)
}

func (m *DigiMap) resolveName(board, channel int, opts []NameOption) (string, ConnInfo, error) {
	var o nameOpts
	for _, opt := range opts {
		opt(&o)
	}

	cfgName := o.config
	if cfgName == "" {
		if len(m.ActiveConfigs) != 1 {
			return "", ConnInfo{}, fmt.Errorf(
				"%s: %d active configurations, name one explicitly",
				m.Info.Name, len(m.ActiveConfigs))
		}
		cfgName = m.ActiveConfigs[0]
	} else if !m.isActive(cfgName) {
		return "", ConnInfo{}, fmt.Errorf(
			"%s: configuration %q is unknown or inactive", m.Info.Name, cfgName)
	}
	cfg := m.Configs[cfgName]

	if o.adc != "" && o.adc != cfg.ADC {
		return "", ConnInfo{}, fmt.Errorf(
			"%s: adc %q not present for configuration %q", m.Info.Name, o.adc, cfgName)
	}

	for _, conn := range cfg.Connections {
		if conn.Board != board {
			continue
		}
		for _, ch := range conn.Channels {
			if ch == channel {
				return datasetName(cfgName, board, channel), conn.Info, nil
			}
		}
	}
	return "", ConnInfo{}, fmt.Errorf(
		"%s: board %d channel %d not connected under configuration %q",
		m.Info.Name, board, channel, cfgName)
}

func (m *DigiMap) isActive(cfg string) bool {
	for _, name := range m.ActiveConfigs {
		if name == cfg {
			return true
		}
	}
	return false
}
