// Package webgpu implements the WebGPU backend: WGSL compute shaders for the
// fused gated activation and the primitives of the composed path.
//
// The backend is built on windows only; elsewhere New reports ErrNotAvailable.
package webgpu

import "errors"

// ErrNotAvailable is returned by New when no WebGPU adapter can be used.
var ErrNotAvailable = errors.New("webgpu: not available")
