package hdfio

import (
	"path/filepath"
	"testing"

	"github.com/scigolib/hdf5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOpenFileAdapter round-trips a small file through the access library's
// writer and checks the adapter's traversal, introspection, and row reads.
func TestOpenFileAdapter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adapter.h5")

	fw, err := hdf5.CreateForWrite(path, hdf5.CreateTruncate)
	require.NoError(t, err)
	_, err = fw.CreateGroup("/Raw data + config")
	require.NoError(t, err)

	trace, err := fw.CreateDataset("/Raw data + config/trace", hdf5.Float64,
		[]uint64{4, 8}, hdf5.WithChunkDims([]uint64{2, 8}))
	require.NoError(t, err)
	data := make([]float64, 32)
	for i := range data {
		data[i] = float64(i)
	}
	require.NoError(t, trace.Write(data))

	scalars, err := fw.CreateDataset("/scalars", hdf5.Float64, []uint64{5})
	require.NoError(t, err)
	require.NoError(t, scalars.Write([]float64{1, 2, 3, 4, 5}))
	require.NoError(t, fw.Close())

	src, err := OpenFile(path)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, path, src.Path())

	root := src.Root()
	assert.Equal(t, "/", root.Path())
	assert.Contains(t, root.Groups(), "Raw data + config")
	assert.Contains(t, root.Datasets(), "scalars")

	g, ok := root.Group("Raw data + config")
	require.True(t, ok)
	assert.Equal(t, "/Raw data + config", g.Path())

	d, ok := g.Dataset("trace")
	require.True(t, ok)
	assert.Equal(t, []int{4, 8}, d.Shape())
	assert.Equal(t, KindFloat, d.Kind())
	assert.Nil(t, d.Fields())

	rows, err := d.ReadRows(1, 2)
	require.NoError(t, err)
	require.Len(t, rows, 16)
	assert.Equal(t, 8.0, rows[0])
	assert.Equal(t, 23.0, rows[15])

	s, ok := root.Dataset("scalars")
	require.True(t, ok)
	assert.Equal(t, []int{5}, s.Shape())
	vals, err := s.ReadRows(0, 5)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, vals)

	_, err = s.ReadFloatField("anything")
	assert.Error(t, err)
}

func TestOpenFileMissing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "absent.h5"))
	assert.Error(t, err)
}

func TestDecodeValue(t *testing.T) {
	assert.Equal(t, int64(3), decodeValue(int32(3)))
	assert.Equal(t, int64(3), decodeValue(uint16(3)))
	assert.Equal(t, uint64(3), decodeValue(uint64(3)))
	assert.Equal(t, 1.5, decodeValue(float32(1.5)))
	assert.Equal(t, "config01", decodeValue("config01\x00\x00"))
	assert.Equal(t, "No averaging", decodeValue([]byte("No averaging\x00")))
	assert.Equal(t, []int64{1, 2}, decodeValue([]int32{1, 2}))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "uint", KindUint.String())
	assert.Equal(t, "compound", KindCompound.String())
	assert.Equal(t, "invalid", Kind(99).String())
}
