package hdfmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/lapd/internal/fauxhdf"
)

func TestMapWaveform(t *testing.T) {
	dev := fauxhdf.New().AddWaveform(fauxhdf.ControlOptions{NConfigs: 2})

	m, err := MapControl(dev)
	require.NoError(t, err)
	assert.Equal(t, KindWaveform, m.Kind)
	assert.Equal(t, ConTypeControl, m.Info.ConType)
	assert.Equal(t, RunTimeList, m.Dataset)
	require.Equal(t, []string{"config01", "config02"}, m.ConfigNames)

	wf := m.Configs["config01"].Waveform
	require.NotNil(t, wf)
	assert.Equal(t, "192.168.1.1", wf.IP)
	assert.Equal(t, []float64{40000, 80000, 120000}, wf.Commands)
	assert.Nil(t, m.Configs["config01"].Power)
	assert.Nil(t, m.Configs["config01"].Motion)
}

func TestMapWaveformMissingRunTimeList(t *testing.T) {
	dev := fauxhdf.New().AddWaveform(fauxhdf.ControlOptions{})
	dev.DelDataset(RunTimeList)

	_, err := MapControl(dev)
	requireMappingError(t, err)
}

func TestMapWaveformBadCommandList(t *testing.T) {
	dev := fauxhdf.New().AddWaveform(fauxhdf.ControlOptions{NConfigs: 2})
	cfg, ok := dev.GroupAt("config02")
	require.True(t, ok)
	cfg.SetAttr("Waveform command list", "RESET\n")

	m, err := MapControl(dev)
	require.NoError(t, err)
	require.Equal(t, []string{"config01"}, m.ConfigNames)
	assert.True(t, diagContains(m.Diags, "no FREQ commands"))
}

func TestMapWaveformNoUsableConfigs(t *testing.T) {
	dev := fauxhdf.New().AddWaveform(fauxhdf.ControlOptions{})
	cfg, ok := dev.GroupAt("config01")
	require.True(t, ok)
	cfg.DelAttr("Waveform command list")

	_, err := MapControl(dev)
	requireMappingError(t, err)
}

func TestMapN5700PS(t *testing.T) {
	dev := fauxhdf.New().AddN5700PS(fauxhdf.ControlOptions{})

	m, err := MapControl(dev)
	require.NoError(t, err)
	assert.Equal(t, KindPower, m.Kind)

	ps := m.Configs["config01"].Power
	require.NotNil(t, ps)
	assert.Equal(t, "Agilent N5751A", ps.Device)
	assert.Equal(t, "*RST", ps.InitialState)
	assert.Equal(t, []float64{20, 25, 30}, ps.Commands)
}

func TestMap6KCompumotor(t *testing.T) {
	dev := fauxhdf.New().Add6KCompumotor(fauxhdf.MotionOptions{
		Probes: map[int]string{1: "probe01", 3: "probe07"},
	})

	m, err := MapControl(dev)
	require.NoError(t, err)
	assert.Equal(t, KindMotion, m.Kind)
	require.Equal(t, []string{"XY[1]: probe01", "XY[3]: probe07"}, m.ConfigNames)

	mc := m.Configs["XY[3]: probe07"].Motion
	require.NotNil(t, mc)
	assert.Equal(t, 3, mc.Receptacle)
	assert.Equal(t, "probe07", mc.ProbeName)
	assert.Equal(t, "XY[3]: probe07", mc.Dataset)
}

func TestMap6KCompumotorMissingDataset(t *testing.T) {
	dev := fauxhdf.New().Add6KCompumotor(fauxhdf.MotionOptions{
		Probes: map[int]string{1: "probe01", 3: "probe07"},
	})
	dev.DelDataset("XY[1]: probe01")

	m, err := MapControl(dev)
	require.NoError(t, err)
	require.Equal(t, []string{"XY[3]: probe07"}, m.ConfigNames)
	assert.True(t, diagContains(m.Diags, "position dataset missing"))
}

func TestControlConfigNamed(t *testing.T) {
	dev := fauxhdf.New().AddWaveform(fauxhdf.ControlOptions{})
	m, err := MapControl(dev)
	require.NoError(t, err)

	// Sole configuration auto-resolves.
	cfg, err := m.ConfigNamed("")
	require.NoError(t, err)
	assert.Equal(t, "config01", cfg.Name)

	_, err = m.ConfigNamed("config09")
	assert.Error(t, err)

	dev2 := fauxhdf.New().AddWaveform(fauxhdf.ControlOptions{NConfigs: 2})
	m2, err := MapControl(dev2)
	require.NoError(t, err)
	_, err = m2.ConfigNamed("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name one explicitly")
}

func TestParseCommandList(t *testing.T) {
	list := "FREQ 40000.000000 \nFREQ 80000.000000 \nVOLT 5.0 \n"
	assert.Equal(t, []float64{40000, 80000}, parseCommandList(list, "FREQ"))
	assert.Equal(t, []float64{5}, parseCommandList(list, "VOLT"))
	assert.Empty(t, parseCommandList(list, "CURR"))
}
