// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend with a native fused
// SiLU-and-multiply kernel.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Float32 and Float64 fused kernel, rows split across goroutines
//   - Float16 through the composed path (elementwise primitives)
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/fusedact/backend/cpu"
//	    "github.com/born-ml/fusedact/nn"
//	    "github.com/born-ml/fusedact/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 4}, backend)
//	    y, _ := nn.NewSiluAndMul[float32](backend).Forward(x) // shape (1, 2)
//	}
package cpu

import (
	internalcpu "github.com/born-ml/fusedact/internal/backend/cpu"
	"github.com/born-ml/fusedact/internal/parallel"
	"github.com/born-ml/fusedact/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Config controls the CPU backend.
type Config = internalcpu.Config

// ParallelConfig controls how the fused kernel splits rows across goroutines.
type ParallelConfig = parallel.Config

// Compile-time checks that Backend implements the tensor interfaces.
var (
	_ tensor.Backend                = (*Backend)(nil)
	_ tensor.FusedSiLUAndMulBackend = (*Backend)(nil)
)

// New creates a new CPU backend with the default configuration.
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with the given configuration.
//
// Example:
//
//	cfg := cpu.DefaultConfig()
//	cfg.Parallel.NumWorkers = 4
//	backend := cpu.NewWithConfig(cfg)
func NewWithConfig(cfg Config) *Backend {
	return internalcpu.NewWithConfig(cfg)
}

// DefaultConfig returns the default CPU backend configuration.
func DefaultConfig() Config {
	return internalcpu.DefaultConfig()
}

// SequentialConfig returns a configuration that never spawns goroutines.
func SequentialConfig() Config {
	return Config{Parallel: parallel.Sequential()}
}
