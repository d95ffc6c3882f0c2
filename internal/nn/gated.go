package nn

import (
	"errors"
	"fmt"

	"github.com/born-ml/fusedact/internal/tensor"
	"github.com/rs/zerolog/log"
)

// GatedActivationKernel computes silu(x[:, :D]) * x[:, D:] for x of shape
// (N, 2*D), writing the (N, D) result into out.
//
// Implementations validate operands with tensor.CheckGatedOperands, never
// modify x, and keep no state between calls.
type GatedActivationKernel interface {
	// Name identifies the implementation ("fused" or "composed").
	Name() string

	// Supports reports whether the kernel can run on x's dtype and device.
	Supports(x *tensor.RawTensor) bool

	// Forward writes the gated activation of x into out.
	Forward(out, x *tensor.RawTensor) error
}

// FusedKernel runs a backend's native single-pass SiLU-and-multiply.
type FusedKernel struct {
	backend tensor.FusedSiLUAndMulBackend
}

// NewFusedKernel wraps a backend with a native fused kernel.
func NewFusedKernel(b tensor.FusedSiLUAndMulBackend) *FusedKernel {
	return &FusedKernel{backend: b}
}

// Name returns "fused".
func (k *FusedKernel) Name() string { return "fused" }

// Supports reports whether the backend's fused kernel handles x.
func (k *FusedKernel) Supports(x *tensor.RawTensor) bool {
	return x != nil && k.backend.SupportsSiLUAndMul(x.DType(), x.Device())
}

// Forward runs the fused kernel. Unsupported dtype or device combinations
// return ErrUnsupportedDevice.
func (k *FusedKernel) Forward(out, x *tensor.RawTensor) error {
	if x == nil {
		return fmt.Errorf("silu_and_mul: %w: nil input tensor", ErrShapeMismatch)
	}
	return k.backend.SiLUAndMul(out, x)
}

// ComposedKernel builds the gated activation from backend primitives:
// two narrows, a sigmoid and two multiplies. It runs wherever the backend's
// primitives accept the input dtype, at the cost of intermediate buffers.
type ComposedKernel struct {
	backend tensor.Backend
}

// NewComposedKernel creates a composed kernel over the backend's primitives.
func NewComposedKernel(b tensor.Backend) *ComposedKernel {
	return &ComposedKernel{backend: b}
}

// Name returns "composed".
func (k *ComposedKernel) Name() string { return "composed" }

// Supports reports whether x lives on the backend's device and the
// backend's primitives accept its dtype.
func (k *ComposedKernel) Supports(x *tensor.RawTensor) bool {
	return x != nil && x.Device() == k.backend.Device() && tensor.SupportsDType(k.backend, x.DType())
}

// Forward computes silu(left) * gate with left = x[:, :D], gate = x[:, D:].
func (k *ComposedKernel) Forward(out, x *tensor.RawTensor) error {
	if err := tensor.CheckGatedOperands(out, x); err != nil {
		return fmt.Errorf("silu_and_mul: %w", err)
	}
	if !k.Supports(x) {
		return fmt.Errorf("silu_and_mul: %w: %s backend cannot run on %s tensors on %s",
			ErrUnsupportedDevice, k.backend.Name(), x.DType(), x.Device())
	}
	if out.NumElements() == 0 {
		return nil
	}

	d := out.Shape()[1]
	b := k.backend
	left := b.Narrow(x, 1, 0, d)
	gate := b.Narrow(x, 1, d, d)
	act := b.Mul(left, b.Sigmoid(left))

	return out.CopyFrom(b.Mul(act, gate))
}

// Compile-time interface checks.
var (
	_ GatedActivationKernel = (*FusedKernel)(nil)
	_ GatedActivationKernel = (*ComposedKernel)(nil)
)

// gatedConfig holds SiluAndMul construction options.
type gatedConfig struct {
	composedOnly bool
}

// GatedOption configures a SiluAndMul.
type GatedOption func(*gatedConfig)

// WithComposedOnly disables the fused kernel so every call takes the composed
// path. Used for parity checks and benchmarks.
func WithComposedOnly() GatedOption {
	return func(c *gatedConfig) {
		c.composedOnly = true
	}
}

// SiluAndMul is the gated activation used by SwiGLU-style feed-forward
// layers: out = silu(x[:, :D]) * x[:, D:] for x of shape (N, 2*D).
//
// Each call picks the backend's fused kernel when it supports the input and
// otherwise runs the composed kernel. A fused kernel that reports
// ErrUnsupportedDevice also falls back. SiluAndMul holds no mutable state
// and is safe for concurrent use on independent tensors.
//
// Example:
//
//	act := nn.NewSiluAndMul[float32](cpu.New())
//	y, err := act.Forward(x) // x: (N, 2*D), y: (N, D)
type SiluAndMul[T tensor.DType, B tensor.Backend] struct {
	backend  B
	fused    GatedActivationKernel // nil when the backend has no fused kernel
	composed GatedActivationKernel
}

// NewSiluAndMul creates a gated activation over backend.
func NewSiluAndMul[T tensor.DType, B tensor.Backend](backend B, opts ...GatedOption) *SiluAndMul[T, B] {
	var cfg gatedConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &SiluAndMul[T, B]{
		backend:  backend,
		composed: NewComposedKernel(backend),
	}
	if fb, ok := any(backend).(tensor.FusedSiLUAndMulBackend); ok && !cfg.composedOnly {
		s.fused = NewFusedKernel(fb)
	}
	return s
}

// Kernel returns the kernel a call on x tries first.
func (s *SiluAndMul[T, B]) Kernel(x *tensor.RawTensor) GatedActivationKernel {
	if s.fused != nil && s.fused.Supports(x) {
		return s.fused
	}
	return s.composed
}

// Forward applies the gated activation and returns a new (N, D) tensor with
// x's dtype and device.
func (s *SiluAndMul[T, B]) Forward(x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	raw, err := s.ForwardRaw(nil, x.Raw())
	if err != nil {
		return nil, err
	}
	return tensor.New[T, B](raw, s.backend), nil
}

// ForwardInto applies the gated activation, writing into out.
// out must be (N, D) with x's dtype and device and must not alias x.
func (s *SiluAndMul[T, B]) ForwardInto(out, x *tensor.Tensor[T, B]) error {
	if out == nil {
		return s.fail(fmt.Errorf("silu_and_mul: %w: nil output tensor", ErrShapeMismatch))
	}
	_, err := s.ForwardRaw(out.Raw(), x.Raw())
	return err
}

// ForwardRaw is the untyped form of Forward and ForwardInto. A nil out is
// allocated; the tensor written to is returned.
func (s *SiluAndMul[T, B]) ForwardRaw(out, x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if x == nil {
		return nil, s.fail(fmt.Errorf("silu_and_mul: %w: nil input tensor", ErrShapeMismatch))
	}

	if out == nil {
		shape, err := tensor.GatedOutputShape(x.Shape())
		if err != nil {
			return nil, s.fail(fmt.Errorf("silu_and_mul: %w", err))
		}
		out, err = tensor.NewRaw(shape, x.DType(), x.Device())
		if err != nil {
			return nil, s.fail(fmt.Errorf("silu_and_mul: %w", err))
		}
	}

	if s.fused != nil && s.fused.Supports(x) {
		err := s.fused.Forward(out, x)
		switch {
		case err == nil:
			gatedInvocations.WithLabelValues(s.fused.Name(), s.backend.Name()).Inc()
			return out, nil
		case !errors.Is(err, ErrUnsupportedDevice):
			return nil, s.fail(err)
		}
		log.Debug().Err(err).Str("backend", s.backend.Name()).Msg("silu_and_mul: fused kernel declined input")
	} else if s.fused != nil {
		log.Debug().
			Str("backend", s.backend.Name()).
			Stringer("dtype", x.DType()).
			Stringer("device", x.Device()).
			Msg("silu_and_mul: no fused kernel for input, using composed path")
	}

	if err := s.composed.Forward(out, x); err != nil {
		return nil, s.fail(err)
	}
	gatedInvocations.WithLabelValues(s.composed.Name(), s.backend.Name()).Inc()
	return out, nil
}

// fail records err in metrics and returns it.
func (s *SiluAndMul[T, B]) fail(err error) error {
	gatedErrors.WithLabelValues(errorReason(err)).Inc()
	return err
}
