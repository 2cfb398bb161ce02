package feature

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZeroValueScalar(t *testing.T) {
	v := ZeroValue(Type{Dtype: Float64})
	require.Equal(t, float64(0), v)
}

func TestZeroValueNested(t *testing.T) {
	v := ZeroValue(Type{Dtype: Uint8, Shape: []int{2, 3}})
	arr, ok := v.([][]uint8)
	require.True(t, ok)
	require.Len(t, arr, 2)
	require.Len(t, arr[0], 3)
}

func TestZeroValueString(t *testing.T) {
	v := ZeroValue(Type{Dtype: String, Shape: []int{2}})
	arr, ok := v.([]string)
	require.True(t, ok)
	require.Equal(t, []string{"", ""}, arr)
}
