package nn

import (
	"fmt"
	"slices"
	"strings"

	"github.com/born-ml/fusedact/internal/scalar"
	"github.com/born-ml/fusedact/internal/tensor"
)

// Kind identifies an elementwise nonlinearity.
type Kind int

// Supported activation kinds.
const (
	KindGELU      Kind = iota // exact GELU, 0.5*x*(1+erf(x/sqrt(2)))
	KindGELUTanh              // tanh approximation of GELU
	KindReLU                  // max(0, x)
	KindSiLU                  // x*sigmoid(x)
	KindQuickGELU             // x*sigmoid(1.702*x)
)

// String returns the canonical name of the kind.
func (k Kind) String() string {
	switch k {
	case KindGELU:
		return "gelu"
	case KindGELUTanh:
		return "gelu_tanh"
	case KindReLU:
		return "relu"
	case KindSiLU:
		return "silu"
	case KindQuickGELU:
		return "quick_gelu"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// GELUBackend is an interface for backends that support exact GELU.
type GELUBackend interface {
	GELU(*tensor.RawTensor) *tensor.RawTensor
}

// GELUTanhBackend is an interface for backends that support tanh-approximated GELU.
type GELUTanhBackend interface {
	GELUTanh(*tensor.RawTensor) *tensor.RawTensor
}

// ReLUBackend is an interface for backends that support ReLU activation.
type ReLUBackend interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

// SiLUBackend is an interface for backends that support SiLU activation.
type SiLUBackend interface {
	SiLU(*tensor.RawTensor) *tensor.RawTensor
}

// QuickGELUBackend is an interface for backends that support quick GELU.
type QuickGELUBackend interface {
	QuickGELU(*tensor.RawTensor) *tensor.RawTensor
}

// TanhBackend is an interface for backends that support tanh. Backends
// without a GELUTanh kernel compose the tanh approximation from it.
type TanhBackend interface {
	Tanh(*tensor.RawTensor) *tensor.RawTensor
}

// Activation is a stateless elementwise transform. Values returned by
// Resolve are shared and must be treated as read-only.
type Activation struct {
	kind Kind
	fn   tensor.UnaryFunc
}

// Kind returns the activation kind.
func (a *Activation) Kind() Kind {
	return a.kind
}

// String returns the canonical name of the activation.
func (a *Activation) String() string {
	return a.kind.String()
}

// ApplyRaw applies the activation element-wise to x using b.
//
// Backends with a native kernel for the kind (GELUBackend, ReLUBackend, ...)
// run it. Quick GELU, and tanh GELU on a TanhBackend, are otherwise composed
// from the backend's primitives. Everything else, and any dtype the backend's
// primitives reject, is evaluated on the host. The result has x's shape,
// dtype and device. x is not modified.
func (a *Activation) ApplyRaw(b tensor.Backend, x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("%s: nil input", a)
	}
	if !tensor.SupportsDType(b, x.DType()) {
		return a.applyHost(x)
	}

	switch a.kind {
	case KindGELU:
		if gb, ok := b.(GELUBackend); ok {
			return gb.GELU(x), nil
		}
	case KindGELUTanh:
		if gb, ok := b.(GELUTanhBackend); ok {
			return gb.GELUTanh(x), nil
		}
	case KindReLU:
		if rb, ok := b.(ReLUBackend); ok {
			return rb.ReLU(x), nil
		}
	case KindSiLU:
		if sb, ok := b.(SiLUBackend); ok {
			return sb.SiLU(x), nil
		}
	case KindQuickGELU:
		if qb, ok := b.(QuickGELUBackend); ok {
			return qb.QuickGELU(x), nil
		}
	}

	switch a.kind {
	case KindGELUTanh:
		if tb, ok := b.(TanhBackend); ok {
			return composeGELUTanh(b, tb, x), nil
		}
	case KindQuickGELU:
		return composeQuickGELU(b, x), nil
	}

	return a.applyHost(x)
}

// applyHost evaluates the activation element-wise on host memory.
func (a *Activation) applyHost(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	result, err := tensor.Map(x, a.fn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a, err)
	}
	return result, nil
}

// composeQuickGELU computes x * sigmoid(1.702*x).
func composeQuickGELU(b tensor.Backend, x *tensor.RawTensor) *tensor.RawTensor {
	return b.Mul(x, b.Sigmoid(b.MulScalar(x, scalar.QuickGELUK)))
}

// composeGELUTanh computes 0.5*x*(1+tanh(sqrt(2/pi)*x*(1+0.044715*x^2))).
func composeGELUTanh(b tensor.Backend, tb TanhBackend, x *tensor.RawTensor) *tensor.RawTensor {
	poly := b.AddScalar(b.MulScalar(b.Mul(x, x), scalar.GELUTanhCoef), 1)
	inner := b.MulScalar(b.Mul(x, poly), scalar.Sqrt2OverPi)
	return b.Mul(b.MulScalar(x, 0.5), b.AddScalar(tb.Tanh(inner), 1))
}

// Apply applies the activation element-wise to a typed tensor.
//
// Example:
//
//	act, _ := nn.Resolve("gelu_new")
//	y, err := nn.Apply(act, x)
func Apply[T tensor.DType, B tensor.Backend](a *Activation, x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	raw, err := a.ApplyRaw(x.Backend(), x.Raw())
	if err != nil {
		return nil, err
	}
	return tensor.New[T, B](raw, x.Backend()), nil
}

// One Activation per kind; synonyms resolve to the same value.
var activations = map[Kind]*Activation{
	KindGELU:      {kind: KindGELU, fn: tensor.UnaryFunc{F32: scalar.GELU32, F64: scalar.GELU}},
	KindGELUTanh:  {kind: KindGELUTanh, fn: tensor.UnaryFunc{F32: scalar.GELUTanh32, F64: scalar.GELUTanh}},
	KindReLU:      {kind: KindReLU, fn: tensor.UnaryFunc{F32: scalar.ReLU32, F64: scalar.ReLU}},
	KindSiLU:      {kind: KindSiLU, fn: tensor.UnaryFunc{F32: scalar.SiLU32, F64: scalar.SiLU}},
	KindQuickGELU: {kind: KindQuickGELU, fn: tensor.UnaryFunc{F32: scalar.QuickGELU32, F64: scalar.QuickGELU}},
}

// Lower-case names accepted by Resolve.
var activationNames = map[string]Kind{
	"gelu":              KindGELU,
	"gelu_new":          KindGELUTanh,
	"gelu_fast":         KindGELUTanh,
	"gelu_pytorch_tanh": KindGELUTanh,
	"relu":              KindReLU,
	"silu":              KindSiLU,
	"swish":             KindSiLU,
	"quick_gelu":        KindQuickGELU,
}

// Resolve returns the activation registered under name, ignoring letter case.
//
// Unknown names yield an *UnsupportedActivationError carrying name as given.
// Resolve only reads immutable tables and is safe for concurrent use.
func Resolve(name string) (*Activation, error) {
	kind, ok := activationNames[strings.ToLower(name)]
	if !ok {
		return nil, &UnsupportedActivationError{Name: name}
	}
	return activations[kind], nil
}

// Names returns the recognized activation names in sorted order.
func Names() []string {
	names := make([]string, 0, len(activationNames))
	for name := range activationNames {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
