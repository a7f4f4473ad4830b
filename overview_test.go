package lapd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/lapd/hdfio"
	"github.com/scigolib/lapd/internal/fauxhdf"
)

func TestOverview(t *testing.T) {
	b := fullFaux()
	b.Data().NewGroup("SIS crate")
	f := newTestFile(t, b)

	report := f.Overview()

	assert.Contains(t, report, "LaPD HDF5 FILE OVERVIEW")
	assert.Contains(t, report, "file:          faux.hdf5")
	assert.Contains(t, report, "LaPD version:  1.2")

	for _, device := range []string{
		"Discharge", "Gas pressure", "Heater", "Interferometer array",
		"Magnetic field", "SIS 3301", "Waveform", "N5700_PS", "6K Compumotor",
	} {
		assert.Contains(t, report, device)
	}

	assert.Contains(t, report, "main digitizer")
	assert.Contains(t, report, "active")
	assert.Contains(t, report, "board 0: channels [0 3 5]")
	assert.Contains(t, report, "nt=100 nshotnum=10")
	assert.Contains(t, report, "|-- ")
	assert.Contains(t, report, "Unmapped groups")
	assert.Contains(t, report, "/Raw data + config/SIS crate")
}

func TestOverviewIndeterminateCounts(t *testing.T) {
	b := fullFaux()
	dev, ok := b.Data().GroupAt("SIS 3301")
	require.True(t, ok)
	dev.AddDataset(fauxhdf.NewPlain("config01 [0:3]", []int{10, 50}, hdfio.KindInt, nil))
	f := newTestFile(t, b)

	report := f.Overview()
	assert.Contains(t, report, "nt=indeterminate")
	assert.Contains(t, report, "Mapping diagnostics")
}

func TestStatusLine(t *testing.T) {
	line := statusLine(1, "Discharge", "mapped", "10 shots")
	assert.True(t, strings.HasPrefix(line, "|-- Discharge "))
	assert.Contains(t, line, "~")
	assert.Contains(t, line, " mapped  10 shots")

	// Long items are not truncated.
	long := strings.Repeat("x", 80)
	assert.Contains(t, statusLine(0, long, "ok", ""), long)
}
