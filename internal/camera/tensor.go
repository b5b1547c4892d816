package camera

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedTensor = errors.New("malformed numeric array")

// Tensor is a fixed-shape block of reals, stored flat in row-major order.
// A tensor decoded from JSON keeps its source bytes and re-encodes them unchanged.
type Tensor struct {
	Shape  []int
	Values []float64
	raw    json.RawMessage
}

// NewTensor builds a tensor from a shape and its flattened values.
func NewTensor(shape []int, values []float64) Tensor {
	return Tensor{
		Shape:  append([]int(nil), shape...),
		Values: values,
	}
}

// Vector is a 1-D tensor.
func Vector(values ...float64) Tensor {
	return NewTensor([]int{len(values)}, values)
}

// SameShape reports whether a and b have identical shapes.
func SameShape(a, b Tensor) bool {
	return equalInts(a.Shape, b.Shape)
}

func (t *Tensor) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	shape, values, err := flatten(v)
	if err != nil {
		return err
	}
	t.Shape = shape
	t.Values = values
	t.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (t Tensor) MarshalJSON() ([]byte, error) {
	if t.raw != nil {
		return t.raw, nil
	}
	size := 1
	for _, d := range t.Shape {
		size *= d
	}
	if size != len(t.Values) {
		return nil, fmt.Errorf("%w: shape %v holds %d values, got %d", ErrMalformedTensor, t.Shape, size, len(t.Values))
	}
	if len(t.Shape) == 0 {
		return json.Marshal(t.Values[0])
	}
	nested, _ := nest(t.Shape, t.Values)
	return json.Marshal(nested)
}

// flatten walks a decoded JSON value and returns its shape and row-major values.
func flatten(v interface{}) ([]int, []float64, error) {
	switch x := v.(type) {
	case float64:
		return nil, []float64{x}, nil
	case []interface{}:
		if len(x) == 0 {
			return []int{0}, []float64{}, nil
		}
		var inner []int
		var values []float64
		for i, elem := range x {
			shape, vals, err := flatten(elem)
			if err != nil {
				return nil, nil, err
			}
			if i == 0 {
				inner = shape
			} else if !equalInts(inner, shape) {
				return nil, nil, fmt.Errorf("%w: ragged array (element %d has shape %v, want %v)", ErrMalformedTensor, i, shape, inner)
			}
			values = append(values, vals...)
		}
		return append([]int{len(x)}, inner...), values, nil
	default:
		return nil, nil, fmt.Errorf("%w: unexpected %T", ErrMalformedTensor, v)
	}
}

// nest rebuilds nested slices from a shape and consumes the values it used.
func nest(shape []int, values []float64) (interface{}, []float64) {
	if len(shape) == 1 {
		return values[:shape[0]], values[shape[0]:]
	}
	out := make([]interface{}, shape[0])
	for i := range out {
		out[i], values = nest(shape[1:], values)
	}
	return out, values
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
