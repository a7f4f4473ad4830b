package lapd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/lapd/hdfmap"
	"github.com/scigolib/lapd/internal/fauxhdf"
)

func TestReadControlsWaveform(t *testing.T) {
	f := newTestFile(t, fullFaux())

	out, err := f.ReadControls([]ControlSpec{{Name: "Waveform"}}, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)

	cd := out[0]
	assert.Equal(t, "Waveform", cd.Device)
	assert.Equal(t, "config01", cd.Config)
	assert.Equal(t, hdfmap.KindWaveform, cd.Kind)
	require.Len(t, cd.ShotNum, 10)

	// Command indices cycle through the three FREQ commands.
	assert.Equal(t, uint64(0), cd.CommandIndex[0])
	assert.Equal(t, uint64(1), cd.CommandIndex[1])
	assert.Equal(t, uint64(2), cd.CommandIndex[2])
	assert.Equal(t, uint64(0), cd.CommandIndex[3])
	assert.Equal(t, 40000.0, cd.Command[0])
	assert.Equal(t, 80000.0, cd.Command[1])
	assert.Equal(t, 120000.0, cd.Command[2])
	assert.Nil(t, cd.Position)
}

func TestReadControlsPowerSupply(t *testing.T) {
	f := newTestFile(t, fullFaux())

	out, err := f.ReadControls([]ControlSpec{{Name: "N5700_PS"}}, Shots{1, 5})
	require.NoError(t, err)
	cd := out[0]
	assert.Equal(t, hdfmap.KindPower, cd.Kind)
	assert.Equal(t, []uint32{1, 5}, cd.ShotNum)
	assert.Equal(t, 20.0, cd.Command[0]) // shot 1, index 0
	assert.Equal(t, 25.0, cd.Command[1]) // shot 5, index 1
}

func TestReadControlsMotion(t *testing.T) {
	f := newTestFile(t, fullFaux())

	out, err := f.ReadControls([]ControlSpec{{Name: "6K Compumotor"}}, nil)
	require.NoError(t, err)
	cd := out[0]
	assert.Equal(t, hdfmap.KindMotion, cd.Kind)
	assert.Equal(t, "XY[1]: probe01", cd.Config)
	assert.Nil(t, cd.Command)

	require.NotNil(t, cd.Position)
	r, c := cd.Position.Dims()
	assert.Equal(t, 10, r)
	assert.Equal(t, 5, c)
	// Shot 3 sits at x=2, y=1, z=10*receptacle.
	assert.Equal(t, 2.0, cd.Position.At(2, 0))
	assert.Equal(t, 1.0, cd.Position.At(2, 1))
	assert.Equal(t, 10.0, cd.Position.At(2, 2))
}

func TestReadControlsMultipleDevices(t *testing.T) {
	f := newTestFile(t, fullFaux())

	out, err := f.ReadControls([]ControlSpec{
		{Name: "Waveform"},
		{Name: "6K Compumotor"},
	}, Shots{2, 3})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []uint32{2, 3}, out[0].ShotNum)
	assert.Equal(t, []uint32{2, 3}, out[1].ShotNum)
}

func TestReadControlsErrors(t *testing.T) {
	f := newTestFile(t, fullFaux())

	_, err := f.ReadControls(nil, nil)
	assert.ErrorIs(t, err, ErrNullControls)

	_, err = f.ReadControls([]ControlSpec{{Name: "Waveform"}}, Shot(99))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not recorded")
}

func TestReadControlsIntersectsRecordedShots(t *testing.T) {
	f := newTestFile(t, fullFaux())

	// Requested shots beyond the recording are dropped, not fatal.
	out, err := f.ReadControls([]ControlSpec{{Name: "N5700_PS"}}, Shots{5, 99})
	require.NoError(t, err)
	assert.Equal(t, []uint32{5}, out[0].ShotNum)

	out, err = f.ReadControls([]ControlSpec{{Name: "6K Compumotor"}},
		ShotRange{Start: 9, Stop: 20})
	require.NoError(t, err)
	assert.Equal(t, []uint32{9, 10}, out[0].ShotNum)
}

func TestReadControlsConfigFilter(t *testing.T) {
	b := fullFaux()
	b.AddWaveform(fauxhdf.ControlOptions{NConfigs: 2, NShots: 6})
	f := newTestFile(t, b)

	out, err := f.ReadControls([]ControlSpec{
		{Name: "Waveform", Config: "config02"},
	}, nil)
	require.NoError(t, err)
	cd := out[0]
	assert.Equal(t, "config02", cd.Config)
	// Only config02's rows are selected.
	assert.Len(t, cd.ShotNum, 6)
}
