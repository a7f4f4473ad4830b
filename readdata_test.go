package lapd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/lapd/internal/fauxhdf"
)

func TestReadData(t *testing.T) {
	f := newTestFile(t, fullFaux())

	d, err := f.ReadData(0, 3)
	require.NoError(t, err)

	require.Len(t, d.ShotNum, 10)
	assert.Equal(t, uint32(1), d.ShotNum[0])

	r, c := d.Signal.Dims()
	assert.Equal(t, 10, r)
	assert.Equal(t, 100, c)
	// Faux signal value encodes shot*100 + board*10 + channel.
	assert.Equal(t, float64(5*100+0*10+3), d.Signal.At(4, 0))

	assert.Equal(t, "SIS 3301", d.Info.Digitizer)
	assert.Equal(t, "config01", d.Info.Config)
	assert.Equal(t, "config01 [0:3]", d.Info.Dataset)
	assert.Equal(t, 14, d.Info.Bit)
	assert.Equal(t, -2.5, d.Info.VoltageOffset)

	assert.InDelta(t, 1e-8, d.DT(), 1e-15)
	assert.InDelta(t, 5.0/16383.0, d.DV(), 1e-12)

	// The main digitizer was assumed.
	require.Len(t, d.Diags, 1)
	assert.Contains(t, d.Diags[0].Reason, "main digitizer")
}

func TestReadDataExplicitDigitizer(t *testing.T) {
	f := newTestFile(t, fullFaux())

	d, err := f.ReadData(3, 1, WithDigitizer("SIS 3301"), WithADC("SIS 3301"))
	require.NoError(t, err)
	assert.Empty(t, d.Diags)
	assert.Equal(t, "config01 [3:1]", d.Info.Dataset)

	_, err = f.ReadData(0, 0, WithDigitizer("SIS 3305"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in file")
}

func TestReadDataShotSelection(t *testing.T) {
	f := newTestFile(t, fullFaux())

	d, err := f.ReadData(0, 0, WithShots(Shots{4, 2, 4}))
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 4}, d.ShotNum)
	assert.Equal(t, float64(2*100), d.Signal.At(0, 0))
	assert.Equal(t, float64(4*100), d.Signal.At(1, 0))

	d, err = f.ReadData(0, 0, WithShots(ShotRange{Start: 8}))
	require.NoError(t, err)
	assert.Equal(t, []uint32{8, 9, 10}, d.ShotNum)

	// Requested shots beyond the recording are dropped, not fatal.
	d, err = f.ReadData(0, 0, WithShots(Shots{4, 50}))
	require.NoError(t, err)
	assert.Equal(t, []uint32{4}, d.ShotNum)

	d, err = f.ReadData(0, 0, WithShots(ShotRange{Start: 8, Stop: 15}))
	require.NoError(t, err)
	assert.Equal(t, []uint32{8, 9, 10}, d.ShotNum)

	_, err = f.ReadData(0, 0, WithShots(Shot(50)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not recorded")
}

func TestReadDataUnresolvable(t *testing.T) {
	f := newTestFile(t, fullFaux())

	// Unconnected board/channel pairs are usage errors.
	_, err := f.ReadData(7, 0)
	assert.Error(t, err)
	_, err = f.ReadData(0, 1)
	assert.Error(t, err)
	_, err = f.ReadData(0, 0, WithADC("SIS 3305"))
	assert.Error(t, err)
	_, err = f.ReadData(0, 0, WithConfig("config09"))
	assert.Error(t, err)
}

func TestReadDataAmbiguousConfig(t *testing.T) {
	b := fullFaux()
	b.AddSIS3301(fauxhdf.SIS3301Options{
		NConfigs: 2,
		Active:   []string{"config01", "config02"},
	})
	f := newTestFile(t, b)

	_, err := f.ReadData(0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name one explicitly")

	d, err := f.ReadData(0, 0, WithConfig("config02"))
	require.NoError(t, err)
	assert.Equal(t, "config02 [0:0]", d.Info.Dataset)
}

func TestReadDataNoDigitizer(t *testing.T) {
	b := fauxhdf.New()
	b.AddDischarge(fauxhdf.MSIOptions{})
	f := newTestFile(t, b)

	_, err := f.ReadData(0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no digitizer")
}
