package nn

import (
	"errors"
	"fmt"

	"github.com/born-ml/fusedact/internal/tensor"
)

// ErrUnsupportedActivation is returned by Resolve for names outside the
// recognized set. Use errors.As with *UnsupportedActivationError to get the
// offending name.
var ErrUnsupportedActivation = errors.New("unsupported activation")

// Gated kernel contract violations, shared with the tensor runtime.
var (
	ErrShapeMismatch     = tensor.ErrShapeMismatch
	ErrDtypeMismatch     = tensor.ErrDtypeMismatch
	ErrUnsupportedDevice = tensor.ErrUnsupportedDevice
	ErrAliasedBuffers    = tensor.ErrAliasedBuffers
)

// UnsupportedActivationError reports a name Resolve does not recognize.
type UnsupportedActivationError struct {
	Name string // Name as passed by the caller, before case folding
}

// Error implements the error interface.
func (e *UnsupportedActivationError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnsupportedActivation, e.Name)
}

// Is makes errors.Is(err, ErrUnsupportedActivation) hold.
func (e *UnsupportedActivationError) Is(target error) bool {
	return target == ErrUnsupportedActivation
}
