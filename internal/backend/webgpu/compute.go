//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/born-ml/fusedact/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Backend's shaders map.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if shader, exists := b.shaders[name]; exists {
		return shader
	}
	shader := b.device.CreateShaderModuleWGSL(code)
	b.shaders[name] = shader
	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if pipeline, exists := b.pipelines[name]; exists {
		return pipeline
	}
	// Auto layout (nil layout)
	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")
	b.pipelines[name] = pipeline
	return pipeline
}

// createBuffer creates a GPU buffer and uploads initial data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createUniformBuffer creates a uniform buffer rounded up to 16 bytes.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// readBuffer reads data back from a GPU buffer through a staging buffer,
// since storage buffers can't be mapped directly.
func (b *Backend) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	staging.Unmap()

	return result, nil
}

// dispatch runs one compute shader over invocations threads.
//
// Bindings follow the shaders in shaders.go: inputs at 0..len(inputs)-1, the
// result buffer next, then the uniform params. The result buffer has
// len(dst) bytes and is copied into dst.
func (b *Backend) dispatch(name, code string, inputs []*tensor.RawTensor, dst []byte, params []byte, invocations int) error {
	pipeline := b.getOrCreatePipeline(name, b.compileShader(name, code))

	entries := make([]wgpu.BindGroupEntry, 0, len(inputs)+2)
	for i, in := range inputs {
		buf := b.createBuffer(in.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		defer buf.Release()
		//nolint:gosec // G115: binding index and ByteSize are non-negative
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), buf, 0, uint64(in.ByteSize())))
	}

	resultSize := uint64(len(dst))
	result := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  resultSize,
	})
	defer result.Release()

	uniform := b.createUniformBuffer(params)
	defer uniform.Release()

	//nolint:gosec // G115: binding indices are small
	n := uint32(len(inputs))
	entries = append(entries,
		wgpu.BufferBindingEntry(n, result, 0, resultSize),
		wgpu.BufferBindingEntry(n+1, uniform, 0, 16),
	)

	bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	//nolint:gosec // G115: workgroup count is non-negative
	pass.DispatchWorkgroups(uint32((invocations+workgroupSize-1)/workgroupSize), 1, 1)
	pass.End()
	b.queue.Submit(encoder.Finish(nil))

	data, err := b.readBuffer(result, resultSize)
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

// runUnaryOp executes an element-wise shader with one input on GPU.
func (b *Backend) runUnaryOp(x *tensor.RawTensor, name, code string) (*tensor.RawTensor, error) {
	return b.runElementwise([]*tensor.RawTensor{x}, name, code, nil)
}

// runScalarOp executes an element-wise shader parameterized by one scalar.
func (b *Backend) runScalarOp(x *tensor.RawTensor, scalar float32, name, code string) (*tensor.RawTensor, error) {
	return b.runElementwise([]*tensor.RawTensor{x}, name, code, &scalar)
}

// runBinaryOp executes an element-wise shader over two same-shape inputs.
func (b *Backend) runBinaryOp(a, other *tensor.RawTensor, name, code string) (*tensor.RawTensor, error) {
	if !a.Shape().Equal(other.Shape()) {
		return nil, fmt.Errorf("shape mismatch: %v vs %v", a.Shape(), other.Shape())
	}
	if other.DType() != a.DType() {
		return nil, fmt.Errorf("dtype mismatch: %s vs %s", a.DType(), other.DType())
	}
	return b.runElementwise([]*tensor.RawTensor{a, other}, name, code, nil)
}

func (b *Backend) runElementwise(inputs []*tensor.RawTensor, name, code string, scalar *float32) (*tensor.RawTensor, error) {
	x := inputs[0]
	if x.DType() != tensor.Float32 {
		return nil, fmt.Errorf("only float32 is supported, got %s", x.DType())
	}

	result, err := tensor.NewRaw(x.Shape(), x.DType(), tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	numElements := x.NumElements()
	if numElements == 0 {
		return result, nil
	}

	params := make([]byte, 16)
	//nolint:gosec // G115: NumElements() is non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(numElements))
	if scalar != nil {
		binary.LittleEndian.PutUint32(params[4:8], math.Float32bits(*scalar))
	}

	if err := b.dispatch(name, code, inputs, result.Data(), params, numElements); err != nil {
		return nil, err
	}
	return result, nil
}
