package ndarray

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/n0remac/robotraj/feature"
)

func TestNewAndSetElemScalarLike(t *testing.T) {
	a, err := New(feature.Float32, 3, []int{7})
	require.NoError(t, err)
	require.Equal(t, []int{3, 7}, a.Shape)
	require.Equal(t, 3, a.Len())

	row := make([]float32, 7)
	for i := range row {
		row[i] = 1
	}
	require.NoError(t, a.SetElem(1, row))

	data := a.Data.([][]float32)
	require.Equal(t, row, data[1])
	require.Equal(t, []float32{0, 0, 0, 0, 0, 0, 0}, data[0])
}

func TestSetElemRejectsWrongType(t *testing.T) {
	a, err := New(feature.Uint8, 2, []int{2, 2, 3})
	require.NoError(t, err)
	err = a.SetElem(0, "not a matrix")
	require.Error(t, err)
}

func TestSetElemMagnitudesReshapesAndCasts(t *testing.T) {
	a, err := New(feature.Float32, 1, []int{2, 2})
	require.NoError(t, err)

	magnitudes := []byte{10, 20, 30, 40}
	require.NoError(t, a.SetElemMagnitudes(0, magnitudes, []int{2, 2}))

	data := a.Data.([][][]float32)
	require.Equal(t, [][]float32{{10, 20}, {30, 40}}, data[0])
}

func TestNewRejectsUnknownDtype(t *testing.T) {
	_, err := New(feature.Dtype("bogus"), 1, nil)
	require.Error(t, err)
}
