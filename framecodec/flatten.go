package framecodec

import (
	"fmt"
	"math"
	"reflect"
)

// float32Bytes packs a slice of float32 magnitudes into the little-endian
// byte layout gocv.NewMatFromBytes expects for MatTypeCV32FC1.
func float32Bytes(flat []float32) []byte {
	out := make([]byte, 4*len(flat))
	for i, f := range flat {
		bits := math.Float32bits(f)
		out[4*i+0] = byte(bits)
		out[4*i+1] = byte(bits >> 8)
		out[4*i+2] = byte(bits >> 16)
		out[4*i+3] = byte(bits >> 24)
	}
	return out
}

func flattenUint8(v any) ([]byte, error) {
	return walkUint8(reflect.ValueOf(v))
}

func walkUint8(rv reflect.Value) ([]byte, error) {
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		b, err := toUint8(rv)
		if err != nil {
			return nil, err
		}
		return []byte{b}, nil
	}
	var out []byte
	for i := 0; i < rv.Len(); i++ {
		sub, err := walkUint8(rv.Index(i))
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

func toUint8(rv reflect.Value) (byte, error) {
	switch rv.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return byte(rv.Uint()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return byte(rv.Int()), nil
	case reflect.Float32, reflect.Float64:
		return byte(rv.Float()), nil
	default:
		return 0, fmt.Errorf("framecodec: cannot interpret %s as uint8", rv.Kind())
	}
}

// flattenFloat32Gray flattens a float32 feature value into one float32 per
// output pixel: for a 2-D (H,W) shape the whole value is used, for a 3-D
// (H,W,C) shape only the first channel is taken (spec §4.3).
func flattenFloat32Gray(v any, shape []int) ([]float32, error) {
	rv := reflect.ValueOf(v)
	switch len(shape) {
	case 2:
		return walkFloat32(rv)
	case 3:
		h, w := shape[0], shape[1]
		out := make([]float32, 0, h*w)
		for i := 0; i < h; i++ {
			row := rv.Index(i)
			for j := 0; j < w; j++ {
				f, err := toFloat32(row.Index(j).Index(0))
				if err != nil {
					return nil, err
				}
				out = append(out, f)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("framecodec: unsupported float32 video shape %v", shape)
	}
}

func walkFloat32(rv reflect.Value) ([]float32, error) {
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		f, err := toFloat32(rv)
		if err != nil {
			return nil, err
		}
		return []float32{f}, nil
	}
	var out []float32
	for i := 0; i < rv.Len(); i++ {
		sub, err := walkFloat32(rv.Index(i))
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

func toFloat32(rv reflect.Value) (float32, error) {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return float32(rv.Float()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float32(rv.Int()), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return float32(rv.Uint()), nil
	default:
		return 0, fmt.Errorf("framecodec: cannot interpret %s as float32", rv.Kind())
	}
}
