package lapd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/lapd/hdfmap"
	"github.com/scigolib/lapd/internal/fauxhdf"
)

// fullFaux builds a faux LAPD file with every known device populated.
func fullFaux() *fauxhdf.Builder {
	b := fauxhdf.New()
	b.AddSIS3301(fauxhdf.SIS3301Options{
		BrdChans: map[int][]int{0: {0, 3, 5}, 3: {0, 1, 2, 3}},
	})
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

func newTestFile(t *testing.T, b *fauxhdf.Builder) *File {
	t.Helper()
	f, err := NewFile(b)
	require.NoError(t, err)
	return f
}

func TestNewFile(t *testing.T) {
	f := newTestFile(t, fullFaux())
	defer f.Close()

	assert.Equal(t, "1.2", f.Version())
	assert.Equal(t, "faux.hdf5", f.Path())

	fm := f.Map()
	assert.Len(t, fm.MSI, 5)
	assert.Len(t, fm.Controls, 3)
	assert.Equal(t, hdfmap.SIS3301, fm.MainDigitizer)
}

func TestNewFileNotLaPD(t *testing.T) {
	_, err := NewFile(fauxhdf.Empty())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotLaPD))
}

func TestNewFileVersionAttrVariants(t *testing.T) {
	b := fauxhdf.Empty()
	b.Tree().SetAttr("LaPD software version", "1.1")

	f, err := NewFile(b)
	require.NoError(t, err)
	assert.Equal(t, "1.1", f.Version())

	b2 := fauxhdf.Empty()
	b2.Tree().SetAttr("Created by", "lapd")
	_, err = NewFile(b2)
	assert.True(t, errors.Is(err, ErrNotLaPD))
}
