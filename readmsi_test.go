package lapd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/lapd/hdfio"
	"github.com/scigolib/lapd/internal/fauxhdf"
)

func TestReadMSIDischarge(t *testing.T) {
	f := newTestFile(t, fullFaux())

	d, err := f.ReadMSI("Discharge")
	require.NoError(t, err)

	require.Len(t, d.ShotNum, 10)
	assert.Equal(t, uint32(1), d.ShotNum[0])
	assert.Equal(t, uint32(10), d.ShotNum[9])

	voltage := d.Signals["voltage"]
	require.NotNil(t, voltage)
	require.Len(t, voltage.Planes, 1)
	r, c := voltage.Planes[0].Dims()
	assert.Equal(t, 10, r)
	assert.Equal(t, 100, c)
	assert.Equal(t, 100, voltage.NT())
	// The faux builder fills signals with a row-major ramp.
	assert.Equal(t, float64(2*100+5), voltage.Planes[0].At(2, 5))

	bank := d.Meta["bank voltage"]
	require.NotNil(t, bank)
	r, c = bank.Dims()
	assert.Equal(t, 10, r)
	assert.Equal(t, 1, c)
	assert.Equal(t, 71.0, bank.At(3, 0))

	assert.Equal(t, "faux.hdf5", d.Info.File)
	assert.Equal(t, "Discharge", d.Info.Device)
	assert.Equal(t, "/MSI/Discharge", d.Info.Path)
	assert.Equal(t, 4.88e-5, d.Info.Attrs["Timestep"])
}

func TestReadMSIByAlias(t *testing.T) {
	f := newTestFile(t, fullFaux())

	d, err := f.ReadMSI("bfield")
	require.NoError(t, err)
	assert.Equal(t, "Magnetic field", d.Info.Device)
	require.NotNil(t, d.Signals["magnetic field"])

	_, err = f.ReadMSI("langmuir probe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in file")
}

func TestReadMSIInterferometer(t *testing.T) {
	f := newTestFile(t, fullFaux())

	d, err := f.ReadMSI("interferometer")
	require.NoError(t, err)

	signal := d.Signals["signal"]
	require.NotNil(t, signal)
	require.Len(t, signal.Planes, 7)
	for i, plane := range signal.Planes {
		r, c := plane.Dims()
		assert.Equal(t, 10, r)
		assert.Equal(t, 100, c)
		assert.Equal(t, float64(i)*1000, plane.At(0, 0))
	}

	density := d.Meta["peak density"]
	require.NotNil(t, density)
	r, c := density.Dims()
	assert.Equal(t, 10, r)
	assert.Equal(t, 7, c)
}

func TestReadMSIShotNumberCrossCheck(t *testing.T) {
	b := fullFaux()
	f := newTestFile(t, b)

	ifo, ok := b.MSI().GroupAt("Interferometer array/Interferometer [3]")
	require.True(t, ok)
	sum, ok := ifo.DatasetAt("Interferometer summary list")
	require.True(t, ok)
	shots := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 99}
	sum.SetIntField("Shot number", shots)

	_, err := f.ReadMSI("interferometer")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disagrees")
}

func TestReadMSIRowCountMismatchFails(t *testing.T) {
	b := fullFaux()
	f := newTestFile(t, b)

	// Shrink one signal dataset after mapping: assembly must hard-fail, not
	// degrade.
	dis, ok := b.MSI().GroupAt("Discharge")
	require.True(t, ok)
	dis.AddDataset(fauxhdf.NewPlain("Discharge current", []int{10, 50},
		hdfio.KindFloat, nil))

	_, err := f.ReadMSI("Discharge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected")
}

func TestReadMSIHeaterMetaOnly(t *testing.T) {
	f := newTestFile(t, fullFaux())

	d, err := f.ReadMSI("heater")
	require.NoError(t, err)
	assert.Empty(t, d.Signals)
	require.NotNil(t, d.Meta["temperature"])
	assert.Equal(t, 1750.0, d.Meta["temperature"].At(0, 0))
}
