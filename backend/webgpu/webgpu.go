// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend: a fused SiLU-and-multiply
// compute shader and the elementwise primitives of the composed path.
//
// The backend runs on Windows. On other platforms New returns
// ErrNotAvailable and IsAvailable reports false.
//
// Example:
//
//	import (
//	    "github.com/born-ml/fusedact/backend/webgpu"
//	    "github.com/born-ml/fusedact/nn"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    act := nn.NewSiluAndMul[float32](gpu)
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/fusedact/internal/backend/webgpu"
	"github.com/born-ml/fusedact/tensor"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// ErrNotAvailable is returned by New when WebGPU cannot be initialized.
var ErrNotAvailable = internalwebgpu.ErrNotAvailable

// Compile-time checks that Backend implements the tensor interfaces.
var (
	_ tensor.Backend                = (*Backend)(nil)
	_ tensor.FusedSiLUAndMulBackend = (*Backend)(nil)
)

// New creates a new WebGPU backend. Call Release when done to free GPU
// resources.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
//
// Example:
//
//	var backend tensor.Backend = cpu.New()
//	if webgpu.IsAvailable() {
//	    gpu, _ := webgpu.New()
//	    defer gpu.Release()
//	    backend = gpu
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
