package tensor

import (
	"fmt"

	"github.com/x448/float16"
)

// UnaryFunc pairs the single and double precision forms of an elementwise
// function. Float16 tensors are computed through F32.
type UnaryFunc struct {
	F32 func(float32) float32
	F64 func(float64) float64
}

// Map applies fn to every element of x on host memory and returns a new
// tensor with the same shape, dtype and device. x is not modified.
func Map(x *RawTensor, fn UnaryFunc) (*RawTensor, error) {
	result, err := NewRaw(x.Shape(), x.DType(), x.Device())
	if err != nil {
		return nil, err
	}

	switch x.DType() {
	case Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i, v := range src {
			dst[i] = fn.F32(v)
		}
	case Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		for i, v := range src {
			dst[i] = fn.F64(v)
		}
	case Float16:
		src, dst := x.AsFloat16(), result.AsFloat16()
		for i, v := range src {
			dst[i] = float16.Fromfloat32(fn.F32(v.Float32()))
		}
	default:
		return nil, fmt.Errorf("map: %w: %s", ErrDtypeMismatch, x.DType())
	}

	return result, nil
}

// Narrow returns a copy of x restricted to [start, start+length) along dim.
// The copy lives on x's device tag; x is not modified.
func Narrow(x *RawTensor, dim, start, length int) (*RawTensor, error) {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		return nil, fmt.Errorf("narrow: %w: dimension %d out of range for tensor of rank %d", ErrShapeMismatch, dim, ndim)
	}
	if start < 0 || length < 0 || start+length > shape[dim] {
		return nil, fmt.Errorf("narrow: %w: range [%d, %d) out of bounds for dimension %d (size %d)",
			ErrShapeMismatch, start, start+length, dim, shape[dim])
	}

	outShape := shape.Clone()
	outShape[dim] = length
	result, err := NewRaw(outShape, x.DType(), x.Device())
	if err != nil {
		return nil, err
	}
	if result.NumElements() == 0 {
		return result, nil
	}

	// Treat x as [outer, shape[dim], inner] and copy one contiguous block per outer index.
	elem := x.DType().Size()
	outer := Shape(shape[:dim]).NumElements()
	inner := Shape(shape[dim+1:]).NumElements()
	srcRow := shape[dim] * inner * elem
	dstRow := length * inner * elem
	offset := start * inner * elem

	src, dst := x.Data(), result.Data()
	for o := 0; o < outer; o++ {
		copy(dst[o*dstRow:(o+1)*dstRow], src[o*srcRow+offset:o*srcRow+offset+dstRow])
	}
	return result, nil
}
