// Package cpu implements the pure Go CPU backend and its fused kernels.
package cpu

import (
	"github.com/born-ml/fusedact/internal/parallel"
	"github.com/born-ml/fusedact/internal/tensor"
)

// Config controls the CPU backend.
type Config struct {
	// Parallel controls how the fused kernel fans rows out over goroutines.
	Parallel parallel.Config
}

// DefaultConfig returns the default CPU backend configuration.
func DefaultConfig() Config {
	return Config{Parallel: parallel.DefaultConfig()}
}

// CPUBackend implements tensor operations on CPU.
//
// It is stateless after construction and safe for concurrent use.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
	features []string
}

// New creates a new CPU backend with DefaultConfig.
func New() *CPUBackend {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a new CPU backend with the given configuration.
func NewWithConfig(cfg Config) *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: cfg.Parallel,
		features: detectFeatures(),
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Features returns the SIMD extensions reported by the host CPU.
func (cpu *CPUBackend) Features() []string {
	return append([]string(nil), cpu.features...)
}

// SupportsDType reports whether the primitives accept dtype: float32,
// float64 and float16.
func (cpu *CPUBackend) SupportsDType(dtype tensor.DataType) bool {
	switch dtype {
	case tensor.Float32, tensor.Float64, tensor.Float16:
		return true
	default:
		return false
	}
}

// Compile-time interface checks.
var (
	_ tensor.Backend                = (*CPUBackend)(nil)
	_ tensor.DTypeBackend           = (*CPUBackend)(nil)
	_ tensor.FusedSiLUAndMulBackend = (*CPUBackend)(nil)
)
