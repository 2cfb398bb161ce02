package framecodec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/n0remac/robotraj/feature"
)

func TestRawvideoRoundTripScalar(t *testing.T) {
	ft := feature.Type{Dtype: feature.Float64}
	data, err := Encode(3.5, feature.Rawvideo, ft)
	require.NoError(t, err)

	got, err := Decode(feature.Rawvideo, ft, data)
	require.NoError(t, err)
	require.Equal(t, 3.5, got)
}

func TestRawvideoRoundTripNested(t *testing.T) {
	ft := feature.Type{Dtype: feature.Float32, Shape: []int{4, 4}}
	value := [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
	data, err := Encode(value, feature.Rawvideo, ft)
	require.NoError(t, err)

	got, err := Decode(feature.Rawvideo, ft, data)
	require.NoError(t, err)
	require.Equal(t, value, got)
}

func TestRGBRoundTrip(t *testing.T) {
	ft := feature.Type{Dtype: feature.Uint8, Shape: []int{2, 2, 3}}
	value := [][][]uint8{
		{{1, 2, 3}, {4, 5, 6}},
		{{7, 8, 9}, {10, 11, 12}},
	}
	data, err := Encode(value, feature.FFV1, ft)
	require.NoError(t, err)

	got, err := Decode(feature.FFV1, ft, data)
	require.NoError(t, err)
	flatGot, ok := got.([]byte)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, flatGot)
}

func TestGrayRoundTrip2D(t *testing.T) {
	ft := feature.Type{Dtype: feature.Float32, Shape: []int{2, 2}}
	value := [][]float32{
		{0, 1},
		{0.5, 0.25},
	}
	data, err := Encode(value, feature.AV1, ft)
	require.NoError(t, err)
	require.Len(t, data, 4)

	got, err := Decode(feature.AV1, ft, data)
	require.NoError(t, err)
	require.Len(t, got.([]byte), 4)
}

func TestGrayFromFirstChannel3D(t *testing.T) {
	ft := feature.Type{Dtype: feature.Float32, Shape: []int{1, 2, 3}}
	value := [][][]float32{
		{{1, 9, 9}, {0, 9, 9}},
	}
	data, err := Encode(value, feature.FFV1, ft)
	require.NoError(t, err)
	require.Len(t, data, 2)
}

func TestUnknownCodecRejected(t *testing.T) {
	ft := feature.Type{Dtype: feature.Uint8}
	_, err := Encode(uint8(1), feature.CodecName("bogus"), ft)
	require.Error(t, err)
}
