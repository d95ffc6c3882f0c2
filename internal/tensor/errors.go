package tensor

import "errors"

// Kernel contract violations. Callers match them with errors.Is; the
// returned errors carry the offending shapes or types as context.
var (
	ErrShapeMismatch     = errors.New("shape mismatch")
	ErrDtypeMismatch     = errors.New("dtype mismatch")
	ErrUnsupportedDevice = errors.New("unsupported device")
	ErrAliasedBuffers    = errors.New("output aliases input buffer")
)
