package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/n0remac/robotraj/feature"
	"github.com/n0remac/robotraj/ndarray"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	trajPath := filepath.Join(dir, "episode.mkv")

	pos, err := ndarray.New(feature.Float32, 2, []int{3})
	require.NoError(t, err)
	require.NoError(t, pos.SetElem(0, []float32{1, 2, 3}))
	require.NoError(t, pos.SetElem(1, []float32{4, 5, 6}))

	rot, err := ndarray.New(feature.Int32, 2, []int{2, 2})
	require.NoError(t, err)
	require.NoError(t, rot.SetElem(0, [][]int32{{1, 0}, {0, 1}}))
	require.NoError(t, rot.SetElem(1, [][]int32{{0, 1}, {1, 0}}))

	c, err := Open(dir, trajPath)
	require.NoError(t, err)
	require.NoError(t, c.Write(map[string]*ndarray.Array{
		"pose/pos": pos,
		"pose/rot": rot,
	}, "/"))
	require.NoError(t, c.Close())

	require.True(t, Exists(dir, trajPath))

	c2, err := Open(dir, trajPath)
	require.NoError(t, err)
	defer c2.Close()

	got, err := c2.Read("/")
	require.NoError(t, err)
	require.Contains(t, got, "pose/pos")
	require.Contains(t, got, "pose/rot")
	require.Equal(t, [][]float32{{1, 2, 3}, {4, 5, 6}}, got["pose/pos"].Data)
	require.Equal(t, feature.Int32, got["pose/rot"].Dtype)
}

func TestExistsFalseBeforeWrite(t *testing.T) {
	dir := t.TempDir()
	require.False(t, Exists(dir, filepath.Join(dir, "nope.mkv")))
}

func TestToHDF5RenamesFile(t *testing.T) {
	dir := t.TempDir()
	trajPath := filepath.Join(dir, "episode.mkv")

	a, err := ndarray.New(feature.Float64, 1, nil)
	require.NoError(t, err)
	require.NoError(t, a.SetElem(0, float64(1)))

	c, err := Open(dir, trajPath)
	require.NoError(t, err)
	require.NoError(t, c.Write(map[string]*ndarray.Array{"a": a}, "/"))
	require.NoError(t, c.Close())

	dst := filepath.Join(dir, "export.cache")
	require.NoError(t, ToHDF5(dir, trajPath, dst))
	_, err = os.Stat(dst)
	require.NoError(t, err)
}
