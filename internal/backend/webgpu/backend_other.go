//go:build !windows

package webgpu

import (
	"github.com/born-ml/fusedact/internal/tensor"
)

// Backend is the WebGPU backend. On this platform it cannot be constructed;
// New always returns ErrNotAvailable.
type Backend struct{}

// New reports that WebGPU is not available on this platform.
func New() (*Backend, error) {
	return nil, ErrNotAvailable
}

// IsAvailable reports whether WebGPU can be used; always false here.
func IsAvailable() bool {
	return false
}

// Release is a no-op.
func (b *Backend) Release() {}

// Name returns the backend name.
func (b *Backend) Name() string { return "WebGPU" }

// Device returns the compute device.
func (b *Backend) Device() tensor.Device { return tensor.WebGPU }

func (b *Backend) Mul(_, _ *tensor.RawTensor) *tensor.RawTensor { panic(ErrNotAvailable) }

func (b *Backend) MulScalar(_ *tensor.RawTensor, _ float64) *tensor.RawTensor {
	panic(ErrNotAvailable)
}

func (b *Backend) AddScalar(_ *tensor.RawTensor, _ float64) *tensor.RawTensor {
	panic(ErrNotAvailable)
}

func (b *Backend) Narrow(_ *tensor.RawTensor, _, _, _ int) *tensor.RawTensor {
	panic(ErrNotAvailable)
}

func (b *Backend) Sigmoid(_ *tensor.RawTensor) *tensor.RawTensor { panic(ErrNotAvailable) }

// SupportsDType always reports false.
func (b *Backend) SupportsDType(tensor.DataType) bool { return false }

// SupportsSiLUAndMul always reports false.
func (b *Backend) SupportsSiLUAndMul(tensor.DataType, tensor.Device) bool { return false }

// SiLUAndMul always returns ErrUnsupportedDevice.
func (b *Backend) SiLUAndMul(_, _ *tensor.RawTensor) error {
	return tensor.ErrUnsupportedDevice
}

// Compile-time interface checks.
var (
	_ tensor.Backend                = (*Backend)(nil)
	_ tensor.DTypeBackend           = (*Backend)(nil)
	_ tensor.FusedSiLUAndMulBackend = (*Backend)(nil)
)
