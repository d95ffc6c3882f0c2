//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"

	"github.com/born-ml/fusedact/internal/tensor"
)

// SupportsSiLUAndMul reports whether the fused shader handles the given
// element type on the given device: float32 on WebGPU.
func (b *Backend) SupportsSiLUAndMul(dtype tensor.DataType, device tensor.Device) bool {
	return dtype == tensor.Float32 && device == tensor.WebGPU
}

// SiLUAndMul computes out = silu(x[:, :D]) * x[:, D:] with a single shader
// dispatch. out must be a distinct (N, D) float32 WebGPU tensor.
func (b *Backend) SiLUAndMul(out, x *tensor.RawTensor) error {
	if err := tensor.CheckGatedOperands(out, x); err != nil {
		return fmt.Errorf("silu_and_mul: %w", err)
	}
	if !b.SupportsSiLUAndMul(x.DType(), x.Device()) {
		return fmt.Errorf("silu_and_mul: %w: %s tensors on %s", tensor.ErrUnsupportedDevice, x.DType(), x.Device())
	}

	rows, d := out.Shape()[0], out.Shape()[1]
	if rows == 0 || d == 0 {
		return nil
	}

	params := make([]byte, 16)
	//nolint:gosec // G115: shape dimensions are non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(rows))
	//nolint:gosec // G115: shape dimensions are non-negative
	binary.LittleEndian.PutUint32(params[4:8], uint32(d))

	if err := b.dispatch("siluAndMul", siluAndMulShader, []*tensor.RawTensor{x}, out.Data(), params, rows*d); err != nil {
		return fmt.Errorf("silu_and_mul: %w", err)
	}
	return nil
}
