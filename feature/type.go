// Package feature describes the element type of a recorded trajectory
// feature: its dtype and shape, the textual form stored as stream
// metadata, and the pure codec-selection rule that decides how a feature
// is muxed into a trajectory container.
package feature

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Dtype is the fixed set of element types a feature can carry.
type Dtype string

const (
	Uint8   Dtype = "uint8"
	Float32 Dtype = "float32"
	Float64 Dtype = "float64"
	Int32   Dtype = "int32"
	Int64   Dtype = "int64"
	Bool    Dtype = "bool"
	String  Dtype = "string"
)

// Type is a (dtype, shape) descriptor of a feature's element, derived from
// a sample value and stable across the library versions that share
// container files (it is stored verbatim as FEATURE_TYPE stream metadata).
type Type struct {
	Dtype Dtype
	Shape []int // nil/empty means scalar, i.e. shape ()
}

// IsScalar reports whether t describes a 0-dimensional value.
func (t Type) IsScalar() bool {
	return len(t.Shape) == 0
}

// String renders the stable textual form "<dtype>[d0,d1,...]", e.g.
// "float32[480,640]" or "uint8[]" for a scalar uint8.
func (t Type) String() string {
	dims := make([]string, len(t.Shape))
	for i, d := range t.Shape {
		dims[i] = strconv.Itoa(d)
	}
	return fmt.Sprintf("%s[%s]", t.Dtype, strings.Join(dims, ","))
}

// ParseType parses the textual form produced by Type.String.
func ParseType(s string) (Type, error) {
	open := strings.IndexByte(s, '[')
	if open < 0 || !strings.HasSuffix(s, "]") {
		return Type{}, fmt.Errorf("feature: malformed type string %q", s)
	}
	dtype := Dtype(s[:open])
	if !dtype.valid() {
		return Type{}, fmt.Errorf("feature: unknown dtype %q in %q", dtype, s)
	}
	body := s[open+1 : len(s)-1]
	if body == "" {
		return Type{Dtype: dtype}, nil
	}
	parts := strings.Split(body, ",")
	shape := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Type{}, fmt.Errorf("feature: malformed shape dimension %q in %q", p, s)
		}
		shape[i] = n
	}
	return Type{Dtype: dtype, Shape: shape}, nil
}

func (d Dtype) valid() bool {
	switch d {
	case Uint8, Float32, Float64, Int32, Int64, Bool, String:
		return true
	}
	return false
}

// FromValue derives a Type from a sample value: n-dimensional slices/arrays
// take their element dtype and shape; scalar numbers/bools/strings get
// shape () and the canonical dtype name for their Go kind.
func FromValue(v any) (Type, error) {
	if v == nil {
		return Type{}, fmt.Errorf("feature: cannot derive type from nil value")
	}
	if _, ok := v.(map[string]any); ok {
		return Type{}, fmt.Errorf("feature: cannot derive type from a map value")
	}

	rv := reflect.ValueOf(v)
	var shape []int
	for rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		n := rv.Len()
		shape = append(shape, n)
		if n == 0 {
			return Type{}, fmt.Errorf("feature: cannot derive type from an empty dimension")
		}
		rv = rv.Index(0)
	}

	dtype, err := dtypeOf(rv)
	if err != nil {
		return Type{}, err
	}
	return Type{Dtype: dtype, Shape: shape}, nil
}

func dtypeOf(rv reflect.Value) (Dtype, error) {
	switch rv.Kind() {
	case reflect.Uint8:
		return Uint8, nil
	case reflect.Float32:
		return Float32, nil
	case reflect.Float64:
		return Float64, nil
	case reflect.Int32:
		return Int32, nil
	case reflect.Int, reflect.Int64:
		return Int64, nil
	case reflect.Bool:
		return Bool, nil
	case reflect.String:
		return String, nil
	default:
		return "", fmt.Errorf("feature: unsupported element kind %s", rv.Kind())
	}
}
