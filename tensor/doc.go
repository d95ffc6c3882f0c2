// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the typed, shaped tensors consumed by the
// activation registry and the gated activation kernels.
//
// # Overview
//
// This package provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - Raw device-tagged buffers (RawTensor) for backend implementations
//   - The Backend interface and the optional fused-kernel capability
//   - Contract errors shared by all kernels
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/fusedact/backend/cpu"
//	    "github.com/born-ml/fusedact/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 4}, backend)
//	    fmt.Println(x.Shape()) // [1 4]
//	}
//
// # Supported Data Types
//
//   - float32, float64
//   - float16.Float16 (github.com/x448/float16), IEEE half precision
//
// # Device Support
//
// Every tensor carries a Device tag. Kernels refuse to mix devices:
//   - CPU: Pure Go implementation
//   - WebGPU: Compute shaders (Windows)
//   - CUDA, Metal: tags only; no backend in this module
package tensor
