package tensor

import "math"

// mockBackend is a host-memory Backend used by the package tests.
type mockBackend struct{}

func (mockBackend) Mul(a, b *RawTensor) *RawTensor {
	if !a.Shape().Equal(b.Shape()) {
		panic("mock: mul: shape mismatch")
	}
	result, _ := NewRaw(a.Shape(), a.DType(), a.Device())
	switch a.DType() {
	case Float32:
		x, y, dst := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
		for i := range dst {
			dst[i] = x[i] * y[i]
		}
	case Float64:
		x, y, dst := a.AsFloat64(), b.AsFloat64(), result.AsFloat64()
		for i := range dst {
			dst[i] = x[i] * y[i]
		}
	}
	return result
}

func (mockBackend) MulScalar(x *RawTensor, s float64) *RawTensor {
	r, _ := Map(x, UnaryFunc{
		F32: func(v float32) float32 { return v * float32(s) },
		F64: func(v float64) float64 { return v * s },
	})
	return r
}

func (mockBackend) AddScalar(x *RawTensor, s float64) *RawTensor {
	r, _ := Map(x, UnaryFunc{
		F32: func(v float32) float32 { return v + float32(s) },
		F64: func(v float64) float64 { return v + s },
	})
	return r
}

func (mockBackend) Narrow(x *RawTensor, dim, start, length int) *RawTensor {
	r, err := Narrow(x, dim, start, length)
	if err != nil {
		panic(err)
	}
	return r
}

func (mockBackend) Sigmoid(x *RawTensor) *RawTensor {
	r, _ := Map(x, UnaryFunc{
		F32: func(v float32) float32 { return float32(1 / (1 + math.Exp(-float64(v)))) },
		F64: func(v float64) float64 { return 1 / (1 + math.Exp(-v)) },
	})
	return r
}

func (mockBackend) Name() string   { return "mock" }
func (mockBackend) Device() Device { return CPU }
