package cpu

import (
	"fmt"

	"github.com/born-ml/fusedact/internal/tensor"
	"github.com/x448/float16"
)

// Mul performs element-wise multiplication of two same-shape tensors.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("mul: shape mismatch: %v vs %v", a.Shape(), b.Shape()))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("mul: dtype mismatch: %s vs %s", a.DType(), b.DType()))
	}

	result, err := tensor.NewRaw(a.Shape(), a.DType(), a.Device())
	if err != nil {
		panic(fmt.Sprintf("mul: failed to create result tensor: %v", err))
	}

	switch a.DType() {
	case tensor.Float32:
		mulFloat32(result.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case tensor.Float64:
		mulFloat64(result.AsFloat64(), a.AsFloat64(), b.AsFloat64())
	case tensor.Float16:
		mulFloat16(result.AsFloat16(), a.AsFloat16(), b.AsFloat16())
	default:
		panic(fmt.Sprintf("mul: unsupported dtype %s", a.DType()))
	}

	return result
}

// MulScalar multiplies each element of the tensor by a scalar value.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	s32 := float32(scalar)
	return cpu.unary("mulScalar", x, tensor.UnaryFunc{
		F32: func(v float32) float32 { return v * s32 },
		F64: func(v float64) float64 { return v * scalar },
	})
}

// AddScalar adds a scalar value to each element of the tensor.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	s32 := float32(scalar)
	return cpu.unary("addScalar", x, tensor.UnaryFunc{
		F32: func(v float32) float32 { return v + s32 },
		F64: func(v float64) float64 { return v + scalar },
	})
}

// Narrow copies [start, start+length) along dim into a new tensor.
func (cpu *CPUBackend) Narrow(x *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	result, err := tensor.Narrow(x, dim, start, length)
	if err != nil {
		panic(fmt.Sprintf("narrow: %v", err))
	}
	return result
}

// unary applies fn element-wise and panics with an op-prefixed message on failure.
func (cpu *CPUBackend) unary(op string, x *tensor.RawTensor, fn tensor.UnaryFunc) *tensor.RawTensor {
	result, err := tensor.Map(x, fn)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	return result
}

func mulFloat32(dst, a, b []float32) {
	for i := range dst {
		dst[i] = a[i] * b[i]
	}
}

func mulFloat64(dst, a, b []float64) {
	for i := range dst {
		dst[i] = a[i] * b[i]
	}
}

func mulFloat16(dst, a, b []float16.Float16) {
	for i := range dst {
		dst[i] = float16.Fromfloat32(a[i].Float32() * b[i].Float32())
	}
}
