// Package tensor provides the core tensor types used by the fused activation kernels.
package tensor

import "github.com/x448/float16"

// DType is a constraint for supported tensor element types.
// It uses Go generics to ensure compile-time type safety.
type DType interface {
	~float32 | ~float64 | float16.Float16
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
	Float16
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	case Float16:
		return 2
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	default:
		return "unknown"
	}
}

// ParseDataType maps a dtype name ("float32", "fp16", ...) to a DataType.
func ParseDataType(name string) (DataType, bool) {
	switch name {
	case "float32", "fp32", "f32":
		return Float32, true
	case "float64", "fp64", "f64":
		return Float64, true
	case "float16", "fp16", "f16", "half":
		return Float16, true
	default:
		return 0, false
	}
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case float16.Float16:
		return Float16
	default:
		panic("unsupported type")
	}
}
