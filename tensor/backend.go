// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/fusedact/internal/tensor"

// Backend defines the elementwise primitives every compute backend provides:
// Mul, MulScalar, AddScalar, Narrow and Sigmoid, plus Name and Device.
//
// Implementations:
//   - backend/cpu: Pure Go
//   - backend/webgpu: WebGPU compute shaders (Windows)
type Backend = tensor.Backend

// FusedSiLUAndMulBackend is implemented by backends with a native
// single-pass SiLU-and-multiply kernel.
type FusedSiLUAndMulBackend = tensor.FusedSiLUAndMulBackend

// Contract errors returned by kernels. Match them with errors.Is.
var (
	ErrShapeMismatch     = tensor.ErrShapeMismatch
	ErrDtypeMismatch     = tensor.ErrDtypeMismatch
	ErrUnsupportedDevice = tensor.ErrUnsupportedDevice
	ErrAliasedBuffers    = tensor.ErrAliasedBuffers
)
