package trajectory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/n0remac/robotraj/config"
	"github.com/n0remac/robotraj/mkv"
)

func ones3D(h, w, c int) [][][]uint8 {
	out := make([][][]uint8, h)
	for i := range out {
		out[i] = make([][]uint8, w)
		for j := range out[i] {
			out[i][j] = make([]uint8, c)
			for k := range out[i][j] {
				out[i][j][k] = 1
			}
		}
	}
	return out
}

func onesFloat2D(h, w int) [][]float32 {
	out := make([][]float32, h)
	for i := range out {
		out[i] = make([]float32, w)
		for j := range out[i] {
			out[i][j] = 1
		}
	}
	return out
}

func TestScenarioMultiFeatureRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "episode.mkv")

	traj, err := OpenWrite(path, config.Config{})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, traj.AddByDict(map[string]any{
			"arm_view":     ones3D(480, 640, 3),
			"gripper_pose": onesFloat2D(4, 4),
			"joint_angles": []float32{1, 1, 1, 1, 1, 1, 1},
		}))
	}
	require.NoError(t, traj.Close(true))

	reader, err := OpenRead(path, config.Config{})
	require.NoError(t, err)
	arrays, err := reader.Load()
	require.NoError(t, err)

	require.Equal(t, []int{10, 480, 640, 3}, arrays["arm_view"].Shape)
	require.Equal(t, []int{10, 7}, arrays["joint_angles"].Shape)

	angles := arrays["joint_angles"].Data.([][]float32)
	require.Len(t, angles, 10)
	require.Equal(t, []float32{1, 1, 1, 1, 1, 1, 1}, angles[0])
}

func TestScenarioMidSessionStreamAddition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "episode.mkv")

	traj, err := OpenWrite(path, config.Config{})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, traj.Add("a", float64(i)))
	}
	require.NoError(t, traj.AddByDict(map[string]any{"a": float64(3), "b": float64(9)}))
	require.NoError(t, traj.Close(true))

	reader, err := OpenRead(path, config.Config{})
	require.NoError(t, err)
	arrays, err := reader.Load()
	require.NoError(t, err)

	require.Equal(t, 4, arrays["a"].Len())
	require.Equal(t, 1, arrays["b"].Len())
}

func TestFromDictOfListsShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "episode.mkv")

	err := FromDictOfLists(map[string][]any{
		"x": {1, 2, 3},
		"y": {4, 5},
	}, path, config.Config{})
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestAddByDictFlattensNestedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "episode.mkv")

	traj, err := OpenWrite(path, config.Config{})
	require.NoError(t, err)
	require.NoError(t, traj.AddByDict(map[string]any{
		"pose": map[string]any{
			"pos": []float32{1, 2, 3},
			"rot": [][]float32{{1, 0}, {0, 1}},
		},
	}))
	require.NoError(t, traj.Close(true))

	reader, err := OpenRead(path, config.Config{})
	require.NoError(t, err)
	arrays, err := reader.Load()
	require.NoError(t, err)
	require.Contains(t, arrays, "pose/pos")
	require.Contains(t, arrays, "pose/rot")
}

func TestDoubleCloseRaises(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "episode.mkv")

	traj, err := OpenWrite(path, config.Config{})
	require.NoError(t, err)
	require.NoError(t, traj.Add("a", float64(1)))
	require.NoError(t, traj.Close(false))
	require.ErrorIs(t, traj.Close(false), ErrDoubleClose)
}

func TestAddMapValueRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "episode.mkv")

	traj, err := OpenWrite(path, config.Config{})
	require.NoError(t, err)
	err = traj.Add("bad", map[string]any{"x": 1})
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestLoadServedFromCacheAfterContainerDeleted(t *testing.T) {
	dir := t.TempDir()
	cacheDir := t.TempDir()
	path := filepath.Join(dir, "episode.mkv")
	cfg := config.Config{CacheDir: cacheDir}

	traj, err := OpenWrite(path, cfg)
	require.NoError(t, err)
	require.NoError(t, traj.Add("a", float64(42)))
	require.NoError(t, traj.Close(true))

	reader, err := OpenRead(path, cfg)
	require.NoError(t, err)
	first, err := reader.Load()
	require.NoError(t, err)
	require.Equal(t, float64(42), first["a"].Data.([]float64)[0])

	require.NoError(t, os.Remove(path))

	second, err := reader.Load()
	require.NoError(t, err)
	require.Equal(t, first, second)

	// OpenRead's file-exists precondition applies per-Trajectory: a brand
	// new handle against the now-deleted path fails at open time even
	// though a decoded cache for it still exists on disk.
	_, err = OpenRead(path, cfg)
	require.ErrorIs(t, err, ErrFileMissing)
}

func TestImageLikeFeatureGoesThroughFFV1(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "episode.mkv")

	traj, err := OpenWrite(path, config.Config{})
	require.NoError(t, err)
	require.NoError(t, traj.Add("img", ones3D(100, 100, 3)))
	require.NoError(t, traj.Close(true))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	reader, err := mkv.NewReader(f)
	require.NoError(t, err)
	streams := reader.Streams()
	require.Len(t, streams, 1)
	require.Equal(t, "ffv1", streams[0].Codec)
	require.Equal(t, 100, streams[0].Width)
	require.Equal(t, 100, streams[0].Height)
}
