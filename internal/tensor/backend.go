package tensor

// Backend defines the elementwise primitives every compute backend provides.
// These are the building blocks of the composed (un-fused) gated activation
// path, so any backend implementing them can run it.
//
// Implementations:
//   - CPU: pure Go (internal/backend/cpu)
//   - WebGPU: compute shaders (internal/backend/webgpu, windows builds)
//
// Primitive misuse (mismatched shapes, unsupported dtype) panics with an
// op-prefixed message; the kernels validate operands before calling them.
type Backend interface {
	// Mul performs element-wise multiplication of two same-shape tensors.
	Mul(a, b *RawTensor) *RawTensor

	// MulScalar and AddScalar apply a float scalar to each element.
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	AddScalar(x *RawTensor, scalar float64) *RawTensor

	// Narrow copies [start, start+length) along dim into a new tensor.
	Narrow(x *RawTensor, dim, start, length int) *RawTensor

	// Sigmoid applies 1 / (1 + exp(-x)) element-wise.
	Sigmoid(x *RawTensor) *RawTensor

	// Metadata
	Name() string
	Device() Device
}

// FusedSiLUAndMulBackend is implemented by backends with a native fused
// SiLU-and-multiply kernel.
type FusedSiLUAndMulBackend interface {
	// SupportsSiLUAndMul reports whether the fused kernel can run for the
	// given element type on the given device.
	SupportsSiLUAndMul(dtype DataType, device Device) bool

	// SiLUAndMul writes silu(x[:, :D]) * x[:, D:] into out.
	// It returns ErrUnsupportedDevice when the combination is not supported.
	SiLUAndMul(out, x *RawTensor) error
}

// DTypeBackend is implemented by backends whose primitives accept only some
// element types. Backends without it accept every DataType.
type DTypeBackend interface {
	// SupportsDType reports whether the backend's primitives accept dtype.
	SupportsDType(dtype DataType) bool
}

// SupportsDType reports whether b's primitives accept dtype.
func SupportsDType(b Backend, dtype DataType) bool {
	if db, ok := b.(DTypeBackend); ok {
		return db.SupportsDType(dtype)
	}
	return true
}
