package hdfmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/lapd/internal/fauxhdf"
)

func fullFaux() *fauxhdf.Builder {
	b := fauxhdf.New()
	b.AddSIS3301(fauxhdf.SIS3301Options{})
	b.AddWaveform(fauxhdf.ControlOptions{})
	b.AddN5700PS(fauxhdf.ControlOptions{})
	b.Add6KCompumotor(fauxhdf.MotionOptions{})
	b.AddDischarge(fauxhdf.MSIOptions{})
	b.AddGasPressure(fauxhdf.MSIOptions{})
	b.AddHeater(fauxhdf.MSIOptions{})
	b.AddInterferometer(7, fauxhdf.MSIOptions{})
	b.AddMagneticField(fauxhdf.MSIOptions{})
	return b
}

func TestMapFile(t *testing.T) {
	fm := MapFile(fullFaux().Root())

	assert.Len(t, fm.MSI, 5)
	assert.Len(t, fm.Digitizers, 1)
	assert.Len(t, fm.Controls, 3)
	assert.Equal(t, SIS3301, fm.MainDigitizer)
	assert.Empty(t, fm.Unknown)
	assert.Empty(t, fm.Diags)
}

func TestMapFileUnknownDevices(t *testing.T) {
	b := fullFaux()
	b.MSI().NewGroup("Thermocouple")
	b.Data().NewGroup("SIS crate")

	fm := MapFile(b.Root())
	require.Len(t, fm.Unknown, 2)
	assert.Contains(t, fm.Unknown, "/MSI/Thermocouple")
	assert.Contains(t, fm.Unknown, "/Raw data + config/SIS crate")
}

func TestMapFileDeviceFailureIsLocal(t *testing.T) {
	b := fullFaux()
	discharge, ok := b.MSI().GroupAt("Discharge")
	require.True(t, ok)
	discharge.DelDataset("Discharge summary")

	fm := MapFile(b.Root())
	// The broken diagnostic is skipped and reported; siblings still map.
	_, ok = fm.MSI["Discharge"]
	assert.False(t, ok)
	assert.Len(t, fm.MSI, 4)
	assert.Len(t, fm.Digitizers, 1)
	assert.NotEmpty(t, fm.Diags)
}

func TestMapFileEmpty(t *testing.T) {
	fm := MapFile(fauxhdf.Empty().Root())
	assert.Empty(t, fm.MSI)
	assert.Empty(t, fm.Digitizers)
	assert.Empty(t, fm.Controls)
	assert.Empty(t, fm.MainDigitizer)
}

func TestResolveDataset(t *testing.T) {
	b := fullFaux()
	msi := b.MSI()
	ifo, ok := msi.Group("Interferometer array")
	require.True(t, ok)

	ds, ok := ResolveDataset(ifo, "Interferometer [3]/Interferometer trace")
	require.True(t, ok)
	assert.Equal(t, "Interferometer trace", ds.Name())

	_, ok = ResolveDataset(ifo, "Interferometer [99]/Interferometer trace")
	assert.False(t, ok)

	dis, ok := msi.Group("Discharge")
	require.True(t, ok)
	ds, ok = ResolveDataset(dis, "Discharge summary")
	require.True(t, ok)
	assert.Equal(t, []int{10}, ds.Shape())
}
