// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides activation lookup by name and the fused gated
// activation used by SwiGLU-style feed-forward layers.
//
// # Activation registry
//
// Resolve maps a configuration name to a stateless transform, ignoring case:
//
//	act, err := nn.Resolve("gelu_pytorch_tanh")
//	if err != nil {
//	    var unsupported *nn.UnsupportedActivationError
//	    errors.As(err, &unsupported) // unsupported.Name == "gelu_pytorch_tanh"
//	}
//	y, err := nn.Apply(act, x)
//
// Recognized names: gelu, gelu_new, gelu_fast, gelu_pytorch_tanh, relu, silu,
// swish, quick_gelu. Synonyms return the same *Activation.
//
// # Gated activation
//
// SiluAndMul computes silu(x[:, :D]) * x[:, D:] for x of shape (N, 2*D):
//
//	act := nn.NewSiluAndMul[float32](cpu.New())
//	y, err := act.Forward(x)         // new (N, D) tensor
//	err = act.ForwardInto(out, x)    // caller-supplied (N, D) tensor
//
// The backend's fused kernel is used when it supports the input; otherwise
// the result is composed from Narrow, Sigmoid and Mul.
package nn

import (
	"github.com/born-ml/fusedact/internal/nn"
	"github.com/born-ml/fusedact/internal/tensor"
)

// Kind identifies an elementwise nonlinearity.
type Kind = nn.Kind

// Activation kinds.
const (
	KindGELU      = nn.KindGELU
	KindGELUTanh  = nn.KindGELUTanh
	KindReLU      = nn.KindReLU
	KindSiLU      = nn.KindSiLU
	KindQuickGELU = nn.KindQuickGELU
)

// Activation is a stateless elementwise transform returned by Resolve.
type Activation = nn.Activation

// UnsupportedActivationError reports a name Resolve does not recognize.
type UnsupportedActivationError = nn.UnsupportedActivationError

// Errors. The tensor contract errors are repeated here for convenience.
var (
	ErrUnsupportedActivation = nn.ErrUnsupportedActivation
	ErrShapeMismatch         = nn.ErrShapeMismatch
	ErrDtypeMismatch         = nn.ErrDtypeMismatch
	ErrUnsupportedDevice     = nn.ErrUnsupportedDevice
	ErrAliasedBuffers        = nn.ErrAliasedBuffers
)

// Resolve returns the activation registered under name, ignoring case.
func Resolve(name string) (*Activation, error) {
	return nn.Resolve(name)
}

// Names returns the recognized activation names in sorted order.
func Names() []string {
	return nn.Names()
}

// Apply applies the activation element-wise to x.
func Apply[T tensor.DType, B tensor.Backend](a *Activation, x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return nn.Apply(a, x)
}

// GatedActivationKernel computes silu(x[:, :D]) * x[:, D:].
type GatedActivationKernel = nn.GatedActivationKernel

// FusedKernel runs a backend's native single-pass kernel.
type FusedKernel = nn.FusedKernel

// ComposedKernel builds the result from backend primitives.
type ComposedKernel = nn.ComposedKernel

// NewFusedKernel wraps a backend with a native fused kernel.
func NewFusedKernel(b tensor.FusedSiLUAndMulBackend) *FusedKernel {
	return nn.NewFusedKernel(b)
}

// NewComposedKernel creates a composed kernel over the backend's primitives.
func NewComposedKernel(b tensor.Backend) *ComposedKernel {
	return nn.NewComposedKernel(b)
}

// SiluAndMul is the gated activation dispatcher.
type SiluAndMul[T tensor.DType, B tensor.Backend] = nn.SiluAndMul[T, B]

// GatedOption configures a SiluAndMul.
type GatedOption = nn.GatedOption

// NewSiluAndMul creates a gated activation over backend.
func NewSiluAndMul[T tensor.DType, B tensor.Backend](backend B, opts ...GatedOption) *SiluAndMul[T, B] {
	return nn.NewSiluAndMul[T, B](backend, opts...)
}

// WithComposedOnly forces the composed path.
func WithComposedOnly() GatedOption {
	return nn.WithComposedOnly()
}
