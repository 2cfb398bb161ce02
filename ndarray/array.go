// Package ndarray provides the dense, preallocated per-feature arrays that
// Container Reader fills while demuxing a trajectory: one array per
// feature, shape (N, *feature_type.shape), written into at a per-feature
// cursor as packets are decoded.
//
// No tensor/ndarray library appears anywhere in the example pack this
// repository was grounded on, so this is a small reflection-based stand-in
// scoped to exactly what the reader and cache need: typed zero-allocation
// (well, allocate-once) slot assignment by index, and a flat view for
// dumping into the cache.
package ndarray

import (
	"fmt"
	"reflect"

	"github.com/n0remac/robotraj/feature"
)

// Array is a dense array of length N along its leading axis, each slot
// shaped like a single feature value (feature.Type.Shape).
type Array struct {
	Dtype feature.Dtype
	Shape []int // full shape: (N, *elemShape)
	Data  any   // reflect.Slice of length N, element type per elemShape/Dtype
}

// New preallocates a length-n array of dtype-typed elements shaped like
// elemShape. For feature.String it backs the array with []string
// (spec's "object array" for strings).
func New(dtype feature.Dtype, n int, elemShape []int) (*Array, error) {
	elemType, err := elemGoType(dtype, elemShape)
	if err != nil {
		return nil, err
	}
	data := reflect.MakeSlice(reflect.SliceOf(elemType), n, n)

	shape := make([]int, 0, 1+len(elemShape))
	shape = append(shape, n)
	shape = append(shape, elemShape...)

	return &Array{Dtype: dtype, Shape: shape, Data: data.Interface()}, nil
}

// SetElem assigns value into slot index along the leading axis. value must
// already be shaped/typed like one feature element (what framecodec.Decode
// returns for the rawvideo path).
func (a *Array) SetElem(index int, value any) error {
	slice := reflect.ValueOf(a.Data)
	if index < 0 || index >= slice.Len() {
		return fmt.Errorf("ndarray: index %d out of range for length %d", index, slice.Len())
	}
	slot := slice.Index(index)
	rv := reflect.ValueOf(value)
	if !rv.Type().AssignableTo(slot.Type()) {
		return fmt.Errorf("ndarray: cannot assign %s into slot of type %s", rv.Type(), slot.Type())
	}
	slot.Set(rv)
	return nil
}

// SetElemMagnitudes assigns a flat row-major []byte of pixel magnitudes (as
// produced by framecodec.Decode for the ffv1/av1 paths) into slot index,
// reshaping it to elemShape and casting each magnitude to a's Dtype.
func (a *Array) SetElemMagnitudes(index int, magnitudes []byte, elemShape []int) error {
	want := 1
	for _, d := range elemShape {
		want *= d
	}
	if len(magnitudes) != want {
		return fmt.Errorf("ndarray: got %d magnitudes, want %d for shape %v", len(magnitudes), want, elemShape)
	}
	nested, err := reshapeMagnitudes(magnitudes, a.Dtype, elemShape)
	if err != nil {
		return err
	}
	return a.SetElem(index, nested)
}

// Len returns the size of the leading axis.
func (a *Array) Len() int {
	return reflect.ValueOf(a.Data).Len()
}

func elemGoType(dtype feature.Dtype, elemShape []int) (reflect.Type, error) {
	base, err := scalarGoType(dtype)
	if err != nil {
		return nil, err
	}
	t := base
	for range elemShape {
		t = reflect.SliceOf(t)
	}
	return t, nil
}

func scalarGoType(dtype feature.Dtype) (reflect.Type, error) {
	switch dtype {
	case feature.Uint8:
		return reflect.TypeOf(uint8(0)), nil
	case feature.Float32:
		return reflect.TypeOf(float32(0)), nil
	case feature.Float64:
		return reflect.TypeOf(float64(0)), nil
	case feature.Int32:
		return reflect.TypeOf(int32(0)), nil
	case feature.Int64:
		return reflect.TypeOf(int64(0)), nil
	case feature.Bool:
		return reflect.TypeOf(false), nil
	case feature.String:
		return reflect.TypeOf(""), nil
	default:
		return nil, fmt.Errorf("ndarray: unsupported dtype %q", dtype)
	}
}

// reshapeMagnitudes builds a nested-slice value of the requested shape and
// dtype, consuming magnitudes in row-major order and casting each byte
// magnitude to the target dtype.
func reshapeMagnitudes(magnitudes []byte, dtype feature.Dtype, shape []int) (any, error) {
	base, err := scalarGoType(dtype)
	if err != nil {
		return nil, err
	}
	cursor := 0
	rv, err := buildLevel(magnitudes, &cursor, base, dtype, shape)
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

func buildLevel(magnitudes []byte, cursor *int, base reflect.Type, dtype feature.Dtype, shape []int) (reflect.Value, error) {
	if len(shape) == 0 {
		m := magnitudes[*cursor]
		*cursor++
		return castMagnitude(m, dtype, base)
	}
	n := shape[0]
	innerType := base
	for i := 1; i < len(shape); i++ {
		innerType = reflect.SliceOf(innerType)
	}
	out := reflect.MakeSlice(reflect.SliceOf(innerType), n, n)
	for i := 0; i < n; i++ {
		v, err := buildLevel(magnitudes, cursor, base, dtype, shape[1:])
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(v)
	}
	return out, nil
}

func castMagnitude(m byte, dtype feature.Dtype, base reflect.Type) (reflect.Value, error) {
	switch dtype {
	case feature.Uint8:
		return reflect.ValueOf(m), nil
	case feature.Float32:
		return reflect.ValueOf(float32(m)), nil
	case feature.Float64:
		return reflect.ValueOf(float64(m)), nil
	case feature.Int32:
		return reflect.ValueOf(int32(m)), nil
	case feature.Int64:
		return reflect.ValueOf(int64(m)), nil
	default:
		return reflect.Value{}, fmt.Errorf("ndarray: dtype %q cannot back a video-encoded feature", dtype)
	}
}
