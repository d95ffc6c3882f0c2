package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/fusedact/internal/parallel"
	"github.com/born-ml/fusedact/internal/tensor"
)

// SupportsSiLUAndMul reports whether the native fused kernel handles the
// given element type on the given device: float32 and float64 on CPU.
func (cpu *CPUBackend) SupportsSiLUAndMul(dtype tensor.DataType, device tensor.Device) bool {
	if device != cpu.device {
		return false
	}
	return dtype == tensor.Float32 || dtype == tensor.Float64
}

// SiLUAndMul computes out[i, j] = silu(x[i, j]) * x[i, D+j] for x of shape
// (N, 2*D) in a single pass, without materializing silu(x[:, :D]).
//
// out must be a distinct (N, D) tensor with x's dtype and device. Rows are
// split across goroutines per the backend's parallel config; the call returns
// once all rows are written. x is only read.
func (cpu *CPUBackend) SiLUAndMul(out, x *tensor.RawTensor) error {
	if err := tensor.CheckGatedOperands(out, x); err != nil {
		return fmt.Errorf("silu_and_mul: %w", err)
	}
	if !cpu.SupportsSiLUAndMul(x.DType(), x.Device()) {
		return fmt.Errorf("silu_and_mul: %w: %s tensors on %s", tensor.ErrUnsupportedDevice, x.DType(), x.Device())
	}

	rows, d := out.Shape()[0], out.Shape()[1]
	if rows == 0 || d == 0 {
		return nil
	}

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), out.AsFloat32()
		parallel.Rows(rows, 2*d, func(start, end int) {
			siluAndMulFloat32(dst, src, d, start, end)
		}, cpu.parallel)
	case tensor.Float64:
		src, dst := x.AsFloat64(), out.AsFloat64()
		parallel.Rows(rows, 2*d, func(start, end int) {
			siluAndMulFloat64(dst, src, d, start, end)
		}, cpu.parallel)
	}

	return nil
}

func siluAndMulFloat32(dst, src []float32, d, start, end int) {
	for i := start; i < end; i++ {
		in := src[i*2*d : (i+1)*2*d]
		act, gate := in[:d], in[d:]
		row := dst[i*d : (i+1)*d]
		for j, v := range act {
			silu := float32(float64(v) / (1 + math.Exp(-float64(v))))
			row[j] = silu * gate[j]
		}
	}
}

func siluAndMulFloat64(dst, src []float64, d, start, end int) {
	for i := start; i < end; i++ {
		in := src[i*2*d : (i+1)*2*d]
		act, gate := in[:d], in[d:]
		row := dst[i*d : (i+1)*d]
		for j, v := range act {
			row[j] = v / (1 + math.Exp(-v)) * gate[j]
		}
	}
}
