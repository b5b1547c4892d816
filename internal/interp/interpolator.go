package interp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/ivlev/camtrace/internal/camera"
)

var ErrShapeMismatch = errors.New("start and end shapes differ")

// Linear interpolates every component of a tensor independently between a
// start value (t=0) and an end value (t=1).
type Linear struct {
	start camera.Tensor
	delta []float64
}

// NewLinear anchors an interpolant at start and end, which must share a shape.
func NewLinear(start, end camera.Tensor) (*Linear, error) {
	if !camera.SameShape(start, end) || len(start.Values) != len(end.Values) {
		return nil, fmt.Errorf("%w: %v vs %v", ErrShapeMismatch, start.Shape, end.Shape)
	}
	delta := make([]float64, len(start.Values))
	floats.SubTo(delta, end.Values, start.Values)
	return &Linear{start: start, delta: delta}, nil
}

// At evaluates start + t*(end-start).
func (l *Linear) At(t float64) camera.Tensor {
	out := make([]float64, len(l.delta))
	floats.AddScaledTo(out, l.start.Values, t, l.delta)
	return camera.NewTensor(l.start.Shape, out)
}

// Pose is the camera position and rotation at some t within a segment.
type Pose struct {
	Position camera.Tensor
	Rotation camera.Tensor
}

// Segment interpolates a camera pose between two keyframes.
type Segment struct {
	position *Linear
	rotation *Linear
}

// NewSegment builds the position and rotation interpolants of one segment.
func NewSegment(start, end Pose) (*Segment, error) {
	position, err := NewLinear(start.Position, end.Position)
	if err != nil {
		return nil, fmt.Errorf("position: %w", err)
	}
	rotation, err := NewLinear(start.Rotation, end.Rotation)
	if err != nil {
		return nil, fmt.Errorf("rotation: %w", err)
	}
	return &Segment{position: position, rotation: rotation}, nil
}

func (s *Segment) At(t float64) Pose {
	return Pose{
		Position: s.position.At(t),
		Rotation: s.rotation.At(t),
	}
}

// Samples returns n evenly spaced values covering [0, 1] with both ends included.
// A single sample is 0; n <= 0 yields none.
func Samples(n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{0}
	}
	ts := floats.Span(make([]float64, n), 0, 1)
	ts[n-1] = 1
	return ts
}
