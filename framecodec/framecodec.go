// Package framecodec converts in-memory feature values to and from the
// packet payloads muxed into a trajectory container: pickled-style opaque
// blobs for rawvideo streams, and pixel buffers for video-encoded streams.
//
// Pixel work (grounded on the teacher's gocv-based cvpipe.Pipeline, which
// built OpenCV Mats out of raw RTP payload bytes) uses gocv.io/x/gocv;
// packet serialization uses github.com/ugorji/go/codec's canonical
// msgpack handle, a deterministic, self-describing, language-neutral
// encoding, as opposed to encoding/gob which is Go-specific.
package framecodec

import (
	"bytes"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ugorji/go/codec"

	"github.com/n0remac/robotraj/feature"
)

var mpHandle = func() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.Canonical = true
	return h
}()

// Encode converts value into the opaque bytes muxed as one packet payload
// for the given codec and feature type.
func Encode(value any, codecName feature.CodecName, ft feature.Type) ([]byte, error) {
	switch codecName {
	case feature.Rawvideo:
		return encodeRaw(value)
	case feature.FFV1, feature.AV1:
		if ft.Dtype == feature.Float32 {
			return encodeGray(value, ft.Shape)
		}
		return encodeRGB(value, ft.Shape)
	default:
		return nil, fmt.Errorf("framecodec: unknown codec %q", codecName)
	}
}

// Decode reverses Encode. For rawvideo it returns a value concretely typed
// per ft (scalar or nested slice). For ffv1/av1 it returns a flat []byte of
// raw pixel magnitudes in row-major order (length = product(ft.Shape) for
// uint8 features and 2-D float32 features; a 3-D float32 feature's gray
// frame holds only ft.Shape[0]*ft.Shape[1] magnitudes); the caller
// (trajectory.Load) is responsible for casting those magnitudes into the
// feature's declared dtype when filling a dense array — video decode never
// re-normalizes float32 features back out of uint8 (no ÷255 inversion, a
// deliberate choice; see SPEC_FULL.md §9).
func Decode(codecName feature.CodecName, ft feature.Type, data []byte) (any, error) {
	switch codecName {
	case feature.Rawvideo:
		return decodeRaw(data, ft)
	case feature.FFV1, feature.AV1:
		if ft.Dtype == feature.Float32 {
			return decodeGray(data, ft.Shape)
		}
		return decodeRGB(data, ft.Shape)
	default:
		return nil, fmt.Errorf("framecodec: unknown codec %q", codecName)
	}
}

func encodeRaw(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, mpHandle)
	if err := enc.Encode(value); err != nil {
		return nil, fmt.Errorf("framecodec: encoding rawvideo packet: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeRaw(data []byte, ft feature.Type) (any, error) {
	target := feature.ZeroValue(ft)
	dec := codec.NewDecoderBytes(data, mpHandle)
	// Decode into a pointer so slices/scalars alike are set in place.
	ptr := &target
	if err := dec.Decode(ptr); err != nil {
		return nil, fmt.Errorf("framecodec: decoding rawvideo packet: %w", err)
	}
	return *ptr, nil
}

func encodeRGB(value any, shape []int) ([]byte, error) {
	if len(shape) != 3 || shape[2] != 3 {
		return nil, fmt.Errorf("framecodec: uint8 video feature must have shape (h,w,3), got %v", shape)
	}
	raw, err := flattenUint8(value)
	if err != nil {
		return nil, err
	}
	mat, err := gocv.NewMatFromBytes(shape[0], shape[1], gocv.MatTypeCV8UC3, raw)
	if err != nil {
		return nil, fmt.Errorf("framecodec: building RGB frame: %w", err)
	}
	defer mat.Close()
	return mat.ToBytes(), nil
}

func decodeRGB(data []byte, shape []int) (any, error) {
	if len(shape) != 3 || shape[2] != 3 {
		return nil, fmt.Errorf("framecodec: uint8 video feature must have shape (h,w,3), got %v", shape)
	}
	mat, err := gocv.NewMatFromBytes(shape[0], shape[1], gocv.MatTypeCV8UC3, data)
	if err != nil {
		return nil, fmt.Errorf("framecodec: reading RGB frame: %w", err)
	}
	defer mat.Close()
	return mat.ToBytes(), nil
}

func encodeGray(value any, shape []int) ([]byte, error) {
	if len(shape) < 2 {
		return nil, fmt.Errorf("framecodec: float32 video feature needs at least 2 dims, got %v", shape)
	}
	flat, err := flattenFloat32Gray(value, shape)
	if err != nil {
		return nil, err
	}
	h, w := shape[0], shape[1]
	src, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV32FC1, float32Bytes(flat))
	if err != nil {
		return nil, fmt.Errorf("framecodec: building gray source frame: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	// writer side scales [0,1]-ish float values up into uint8 range.
	src.ConvertToWithParams(&gray, gocv.MatTypeCV8UC1, 255.0, 0.0)
	return gray.ToBytes(), nil
}

func decodeGray(data []byte, shape []int) (any, error) {
	if len(shape) < 2 {
		return nil, fmt.Errorf("framecodec: float32 video feature needs at least 2 dims, got %v", shape)
	}
	want := shape[0] * shape[1]
	if len(data) != want {
		return nil, fmt.Errorf("framecodec: gray packet has %d bytes, expected %d", len(data), want)
	}
	out := make([]byte, want)
	copy(out, data)
	return out, nil
}
