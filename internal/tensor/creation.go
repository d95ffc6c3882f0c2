package tensor

import (
	"math/rand"

	"github.com/x448/float16"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	dtype := inferDataType(dummy)

	raw, err := NewRaw(shape, dtype, b.Device())
	if err != nil {
		panic(err) // Shape validation should prevent this
	}

	// Data is already zero-initialized by make()
	return New[T, B](raw, b)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full[float32](Shape{3, 3}, 3.14, backend)
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Rand creates a tensor with values uniformly distributed in [lo, hi)
// drawn from rng. A nil rng uses the global source.
//
// Example:
//
//	t := tensor.Rand[float32](Shape{10, 10}, -4, 4, rng, backend)
func Rand[T DType, B Backend](shape Shape, lo, hi float64, rng *rand.Rand, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	next := rand.Float64 //nolint:gosec // G404: ML uses math/rand intentionally
	if rng != nil {
		next = rng.Float64
	}

	switch data := any(t.Data()).(type) {
	case []float32:
		for i := range data {
			data[i] = float32(lo + (hi-lo)*next())
		}
	case []float64:
		for i := range data {
			data[i] = lo + (hi-lo)*next()
		}
	case []float16.Float16:
		for i := range data {
			data[i] = float16.Fromfloat32(float32(lo + (hi-lo)*next()))
		}
	}
	return t
}
