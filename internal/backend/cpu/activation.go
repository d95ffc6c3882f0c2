package cpu

import (
	"github.com/born-ml/fusedact/internal/scalar"
	"github.com/born-ml/fusedact/internal/tensor"
)

// Sigmoid applies 1 / (1 + exp(-x)) element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sigmoid", x, tensor.UnaryFunc{F32: scalar.Sigmoid32, F64: scalar.Sigmoid})
}

// Tanh applies tanh element-wise.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("tanh", x, tensor.UnaryFunc{F32: scalar.Tanh32, F64: scalar.Tanh})
}

// ReLU applies max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("relu", x, tensor.UnaryFunc{F32: scalar.ReLU32, F64: scalar.ReLU})
}

// SiLU applies x * sigmoid(x) element-wise.
func (cpu *CPUBackend) SiLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("silu", x, tensor.UnaryFunc{F32: scalar.SiLU32, F64: scalar.SiLU})
}

// GELU applies the exact (erf-based) GELU element-wise.
func (cpu *CPUBackend) GELU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("gelu", x, tensor.UnaryFunc{F32: scalar.GELU32, F64: scalar.GELU})
}

// GELUTanh applies the tanh approximation of GELU element-wise.
func (cpu *CPUBackend) GELUTanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("geluTanh", x, tensor.UnaryFunc{F32: scalar.GELUTanh32, F64: scalar.GELUTanh})
}

// QuickGELU applies x * sigmoid(1.702x) element-wise.
func (cpu *CPUBackend) QuickGELU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("quickGelu", x, tensor.UnaryFunc{F32: scalar.QuickGELU32, F64: scalar.QuickGELU})
}
