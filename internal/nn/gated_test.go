package nn

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/born-ml/fusedact/internal/backend/cpu"
	"github.com/born-ml/fusedact/internal/tensor"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
	fscalar "gonum.org/v1/gonum/floats/scalar"
)

// decliningBackend advertises a fused kernel but refuses every call.
type decliningBackend struct {
	hostBackend
}

func (decliningBackend) SupportsSiLUAndMul(tensor.DataType, tensor.Device) bool { return true }
func (decliningBackend) SiLUAndMul(_, _ *tensor.RawTensor) error {
	return fmt.Errorf("silu_and_mul: %w: declined", ErrUnsupportedDevice)
}
func (decliningBackend) Name() string { return "declining" }

// float32Backend lives on the WebGPU device and accepts only float32, like
// the WebGPU backend: its primitives panic on other dtypes and its fused
// kernel declines them.
type float32Backend struct {
	hostBackend
}

func mustFloat32(op string, xs ...*tensor.RawTensor) {
	for _, x := range xs {
		if x.DType() != tensor.Float32 {
			panic(fmt.Sprintf("float32: %s: only float32 is supported, got %s", op, x.DType()))
		}
	}
}

func (b float32Backend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	mustFloat32("Mul", x, y)
	return b.hostBackend.Mul(x, y)
}

func (b float32Backend) MulScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	mustFloat32("MulScalar", x)
	return b.hostBackend.MulScalar(x, s)
}

func (b float32Backend) AddScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	mustFloat32("AddScalar", x)
	return b.hostBackend.AddScalar(x, s)
}

func (b float32Backend) Narrow(x *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	mustFloat32("Narrow", x)
	return b.hostBackend.Narrow(x, dim, start, length)
}

func (b float32Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	mustFloat32("Sigmoid", x)
	return b.hostBackend.Sigmoid(x)
}

func (b float32Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	mustFloat32("ReLU", x)
	return b.inner.ReLU(x)
}

func (b float32Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	mustFloat32("Tanh", x)
	return b.inner.Tanh(x)
}

func (float32Backend) SupportsDType(dtype tensor.DataType) bool {
	return dtype == tensor.Float32
}

func (float32Backend) SupportsSiLUAndMul(dtype tensor.DataType, device tensor.Device) bool {
	return dtype == tensor.Float32 && device == tensor.WebGPU
}

func (b float32Backend) SiLUAndMul(out, x *tensor.RawTensor) error {
	if err := tensor.CheckGatedOperands(out, x); err != nil {
		return err
	}
	if !b.SupportsSiLUAndMul(x.DType(), x.Device()) {
		return fmt.Errorf("silu_and_mul: %w: %s", ErrUnsupportedDevice, x.DType())
	}
	d := out.Shape()[1]
	src, dst := x.AsFloat32(), out.AsFloat32()
	for i := range dst {
		row, j := i/d, i%d
		dst[i] = float32(silu(float64(src[row*2*d+j]))) * src[row*2*d+d+j]
	}
	return nil
}

func (float32Backend) Name() string {
	return "float32"
}

func (float32Backend) Device() tensor.Device {
	return tensor.WebGPU
}

func silu(x float64) float64 {
	return x / (1 + math.Exp(-x))
}

// referenceGated computes silu(x[:, :D]) * x[:, D:] row by row in float64.
func referenceGated(x []float64, rows, d int) []float64 {
	out := make([]float64, rows*d)
	for i := 0; i < rows; i++ {
		for j := 0; j < d; j++ {
			out[i*d+j] = silu(x[i*2*d+j]) * x[i*2*d+d+j]
		}
	}
	return out
}

func TestSiluAndMul_KnownValues(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 4}, backend)
	require.NoError(t, err)

	y, err := NewSiluAndMul[float32](backend).Forward(x)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{1, 2}, y.Shape())
	assert.InDelta(t, 2.1931757, y.Data()[0], 1e-5)
	assert.InDelta(t, 7.0463767, y.Data()[1], 1e-5)
	assert.Equal(t, []float32{1, 2, 3, 4}, x.Data())
}

func TestSiluAndMul_ShapeLaw(t *testing.T) {
	backend := cpu.New()
	act := NewSiluAndMul[float64](backend)

	for _, shape := range []tensor.Shape{{1, 2}, {3, 8}, {5, 0}, {0, 6}, {17, 130}} {
		x := tensor.Zeros[float64](shape, backend)
		y, err := act.Forward(x)
		require.NoError(t, err, "%v", shape)
		assert.Equal(t, tensor.Shape{shape[0], shape[1] / 2}, y.Shape())
		assert.Equal(t, x.DType(), y.DType())
		assert.Equal(t, x.Device(), y.Device())
	}
}

func TestSiluAndMul_ZeroGateGivesZero(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float32{-7, 0.5, 9, 0, 0, 0}, tensor.Shape{1, 6}, backend)
	require.NoError(t, err)

	for _, act := range []*SiluAndMul[float32, *cpu.CPUBackend]{
		NewSiluAndMul[float32](backend),
		NewSiluAndMul[float32](backend, WithComposedOnly()),
	} {
		y, err := act.Forward(x)
		require.NoError(t, err)
		assert.Equal(t, []float32{0, 0, 0}, y.Data())
	}
}

func TestSiluAndMul_FusedMatchesComposed(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(42))
	rows, d := 33, 96

	t.Run("float32", func(t *testing.T) {
		x := tensor.Rand[float32](tensor.Shape{rows, 2 * d}, -6, 6, rng, backend)
		fused, err := NewSiluAndMul[float32](backend).Forward(x)
		require.NoError(t, err)
		composed, err := NewSiluAndMul[float32](backend, WithComposedOnly()).Forward(x)
		require.NoError(t, err)

		for i := range fused.Data() {
			f, c := float64(fused.Data()[i]), float64(composed.Data()[i])
			assert.True(t, fscalar.EqualWithinAbsOrRel(f, c, 1e-6, 1e-5), "index %d: fused %v composed %v", i, f, c)
		}
	})

	t.Run("float64", func(t *testing.T) {
		x := tensor.Rand[float64](tensor.Shape{rows, 2 * d}, -6, 6, rng, backend)
		fused, err := NewSiluAndMul[float64](backend).Forward(x)
		require.NoError(t, err)
		composed, err := NewSiluAndMul[float64](backend, WithComposedOnly()).Forward(x)
		require.NoError(t, err)

		want := referenceGated(x.Data(), rows, d)
		for i := range want {
			assert.True(t, fscalar.EqualWithinAbsOrRel(want[i], fused.Data()[i], 1e-12, 1e-12), "fused index %d", i)
			assert.True(t, fscalar.EqualWithinAbsOrRel(want[i], composed.Data()[i], 1e-12, 1e-12), "composed index %d", i)
		}
	})
}

func TestSiluAndMul_ForwardInto(t *testing.T) {
	backend := cpu.New()
	act := NewSiluAndMul[float32](backend)

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, -1, -2, 5, 6}, tensor.Shape{2, 4}, backend)
	require.NoError(t, err)
	out := tensor.Full[float32](tensor.Shape{2, 2}, 99, backend)

	require.NoError(t, act.ForwardInto(out, x))
	want := referenceGated([]float64{1, 2, 3, 4, -1, -2, 5, 6}, 2, 2)
	for i, w := range want {
		assert.InDelta(t, w, out.Data()[i], 1e-5)
	}
}

func TestSiluAndMul_ContractViolations(t *testing.T) {
	backend := cpu.New()
	act := NewSiluAndMul[float32](backend)

	t.Run("odd width", func(t *testing.T) {
		x := tensor.Zeros[float32](tensor.Shape{2, 5}, backend)
		_, err := act.Forward(x)
		require.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("not 2-D", func(t *testing.T) {
		for _, shape := range []tensor.Shape{{8}, {2, 2, 4}} {
			_, err := act.Forward(tensor.Zeros[float32](shape, backend))
			require.ErrorIs(t, err, ErrShapeMismatch, "%v", shape)
		}
	})

	t.Run("wrong output shape", func(t *testing.T) {
		x := tensor.Zeros[float32](tensor.Shape{2, 4}, backend)
		for _, shape := range []tensor.Shape{{2, 4}, {1, 2}, {2, 3}} {
			out := tensor.Zeros[float32](shape, backend)
			require.ErrorIs(t, act.ForwardInto(out, x), ErrShapeMismatch, "%v", shape)
		}
	})

	t.Run("nil output", func(t *testing.T) {
		x := tensor.Zeros[float32](tensor.Shape{2, 4}, backend)
		require.ErrorIs(t, act.ForwardInto(nil, x), ErrShapeMismatch)
	})

	t.Run("wrong output dtype", func(t *testing.T) {
		x := tensor.Zeros[float32](tensor.Shape{2, 4}, backend)
		out, err := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float64, tensor.CPU)
		require.NoError(t, err)
		_, err = act.ForwardRaw(out, x.Raw())
		require.ErrorIs(t, err, ErrDtypeMismatch)
	})

	t.Run("wrong output device", func(t *testing.T) {
		x := tensor.Zeros[float32](tensor.Shape{2, 4}, backend)
		out, err := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float32, tensor.Metal)
		require.NoError(t, err)
		_, err = act.ForwardRaw(out, x.Raw())
		require.ErrorIs(t, err, ErrDtypeMismatch)
	})

	t.Run("input on foreign device", func(t *testing.T) {
		x, err := tensor.NewRaw(tensor.Shape{2, 4}, tensor.Float32, tensor.CUDA)
		require.NoError(t, err)
		_, err = act.ForwardRaw(nil, x)
		require.ErrorIs(t, err, ErrUnsupportedDevice)
	})
}

func TestSiluAndMul_Float16UsesComposedPath(t *testing.T) {
	backend := cpu.New()
	act := NewSiluAndMul[float16.Float16](backend)

	vals := []float32{0.5, -1, 2, 3, 1.5, -0.25}
	data := make([]float16.Float16, len(vals))
	for i, v := range vals {
		data[i] = float16.Fromfloat32(v)
	}
	x, err := tensor.FromSlice(data, tensor.Shape{1, 6}, backend)
	require.NoError(t, err)

	assert.Equal(t, "composed", act.Kernel(x.Raw()).Name())

	before := testutil.ToFloat64(gatedInvocations.WithLabelValues("composed", backend.Name()))
	y, err := act.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(gatedInvocations.WithLabelValues("composed", backend.Name())))

	want := referenceGated([]float64{0.5, -1, 2, 3, 1.5, -0.25}, 1, 3)
	for i, w := range want {
		assert.InDelta(t, w, float64(y.Data()[i].Float32()), 1e-2*math.Max(1, math.Abs(w)))
	}
}

func TestSiluAndMul_FallbackOnDecline(t *testing.T) {
	backend := decliningBackend{hostBackend{inner: cpu.New()}}
	act := NewSiluAndMul[float32](backend)

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 4}, backend)
	require.NoError(t, err)
	assert.Equal(t, "fused", act.Kernel(x.Raw()).Name())

	before := testutil.ToFloat64(gatedInvocations.WithLabelValues("composed", "declining"))
	y, err := act.Forward(x)
	require.NoError(t, err)
	assert.InDelta(t, silu(1)*3, y.Data()[0], 1e-5)
	assert.InDelta(t, silu(2)*4, y.Data()[1], 1e-5)
	assert.Equal(t, before+1, testutil.ToFloat64(gatedInvocations.WithLabelValues("composed", "declining")))
}

func TestSiluAndMul_NoFusedCapability(t *testing.T) {
	backend := hostBackend{inner: cpu.New()}
	act := NewSiluAndMul[float64](backend)

	x, err := tensor.FromSlice([]float64{-2, 0.5, 4, -3}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	assert.Equal(t, "composed", act.Kernel(x.Raw()).Name())

	y, err := act.Forward(x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{silu(-2) * 0.5, silu(4) * -3}, y.Data(), 1e-12)
}

func TestSiluAndMul_Float32OnlyBackend(t *testing.T) {
	backend := float32Backend{hostBackend{inner: cpu.New()}}

	t.Run("float32 runs fused and composed", func(t *testing.T) {
		x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 4}, backend)
		require.NoError(t, err)

		for _, act := range []*SiluAndMul[float32, float32Backend]{
			NewSiluAndMul[float32](backend),
			NewSiluAndMul[float32](backend, WithComposedOnly()),
		} {
			y, err := act.Forward(x)
			require.NoError(t, err)
			assert.Equal(t, tensor.WebGPU, y.Device())
			assert.InDelta(t, silu(1)*3, y.Data()[0], 1e-5)
			assert.InDelta(t, silu(2)*4, y.Data()[1], 1e-5)
		}
	})

	t.Run("float64 is rejected without panicking", func(t *testing.T) {
		x, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{1, 4}, backend)
		require.NoError(t, err)
		act := NewSiluAndMul[float64](backend)

		assert.False(t, act.composed.Supports(x.Raw()))
		assert.Equal(t, "composed", act.Kernel(x.Raw()).Name())

		errs := gatedErrors.WithLabelValues("unsupported_device")
		before := testutil.ToFloat64(errs)
		require.NotPanics(t, func() {
			_, err = act.ForwardRaw(nil, x.Raw())
		})
		require.ErrorIs(t, err, ErrUnsupportedDevice)
		assert.Equal(t, before+1, testutil.ToFloat64(errs))
	})

	t.Run("float16 is rejected without panicking", func(t *testing.T) {
		x := tensor.Zeros[float16.Float16](tensor.Shape{2, 4}, backend)
		out := tensor.Zeros[float16.Float16](tensor.Shape{2, 2}, backend)
		act := NewSiluAndMul[float16.Float16](backend)

		var err error
		require.NotPanics(t, func() {
			err = act.ForwardInto(out, x)
		})
		require.ErrorIs(t, err, ErrUnsupportedDevice)
	})
}

func TestSiluAndMul_AliasedOutput(t *testing.T) {
	backend := cpu.New()
	input := []float32{1, 2, 3, 4, -1, -2, 5, 6}

	for _, act := range []*SiluAndMul[float32, *cpu.CPUBackend]{
		NewSiluAndMul[float32](backend),
		NewSiluAndMul[float32](backend, WithComposedOnly()),
	} {
		x, err := tensor.FromSlice(append([]float32(nil), input...), tensor.Shape{2, 4}, backend)
		require.NoError(t, err)
		view, err := x.Raw().View(tensor.Shape{2, 2})
		require.NoError(t, err)

		_, err = act.ForwardRaw(view, x.Raw())
		require.ErrorIs(t, err, ErrAliasedBuffers)
		require.ErrorIs(t, act.ForwardInto(tensor.New[float32](view, backend), x), ErrAliasedBuffers)
		assert.Equal(t, input, x.Data(), "input must not change")
	}
}

func TestSiluAndMul_ScratchOutput(t *testing.T) {
	backend := cpu.New()
	input := []float32{1, 2, 3, 4, -1, -2, 5, 6}
	x, err := tensor.FromSlice(append([]float32(nil), input...), tensor.Shape{2, 4}, backend)
	require.NoError(t, err)

	// A larger scratch buffer carved into the output shape.
	scratch := tensor.Full[float32](tensor.Shape{16}, 99, backend)
	view, err := scratch.Raw().View(tensor.Shape{2, 2})
	require.NoError(t, err)

	require.NoError(t, NewSiluAndMul[float32](backend).ForwardInto(tensor.New[float32](view, backend), x))
	want := referenceGated([]float64{1, 2, 3, 4, -1, -2, 5, 6}, 2, 2)
	for i, w := range want {
		assert.InDelta(t, w, scratch.Data()[i], 1e-5)
	}
	assert.Equal(t, float32(99), scratch.Data()[4], "elements past the view are untouched")
	assert.Equal(t, input, x.Data(), "input must not change")
}

func TestKernels_NilInput(t *testing.T) {
	backend := cpu.New()
	out, err := tensor.NewRaw(tensor.Shape{1, 2}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)

	for _, k := range []GatedActivationKernel{NewFusedKernel(backend), NewComposedKernel(backend)} {
		assert.False(t, k.Supports(nil), k.Name())
		require.NotPanics(t, func() {
			err = k.Forward(out, nil)
		}, k.Name())
		require.ErrorIs(t, err, ErrShapeMismatch, k.Name())
	}

	_, err = NewSiluAndMul[float32](backend).ForwardRaw(out, nil)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestSiluAndMul_Metrics(t *testing.T) {
	backend := cpu.New()
	act := NewSiluAndMul[float32](backend)
	fused := gatedInvocations.WithLabelValues("fused", backend.Name())
	shapeErrs := gatedErrors.WithLabelValues("shape_mismatch")

	fusedBefore := testutil.ToFloat64(fused)
	errsBefore := testutil.ToFloat64(shapeErrs)

	_, err := act.Forward(tensor.Zeros[float32](tensor.Shape{4, 8}, backend))
	require.NoError(t, err)
	_, err = act.Forward(tensor.Zeros[float32](tensor.Shape{4, 7}, backend))
	require.Error(t, err)

	assert.Equal(t, fusedBefore+1, testutil.ToFloat64(fused))
	assert.Equal(t, errsBefore+1, testutil.ToFloat64(shapeErrs))
}

func TestSiluAndMul_Concurrent(t *testing.T) {
	backend := cpu.New()
	act := NewSiluAndMul[float32](backend)
	rng := rand.New(rand.NewSource(3))

	const workers = 12
	inputs := make([]*tensor.Tensor[float32, *cpu.CPUBackend], workers)
	serial := make([][]float32, workers)
	for i := range inputs {
		inputs[i] = tensor.Rand[float32](tensor.Shape{16, 64}, -4, 4, rng, backend)
		y, err := act.Forward(inputs[i])
		require.NoError(t, err)
		serial[i] = y.Data()
	}

	results := make([][]float32, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			y, err := act.Forward(inputs[i])
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = y.Data()
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, serial[i], results[i])
	}
}

func TestErrorReason(t *testing.T) {
	assert.Equal(t, "aliased_buffers", errorReason(fmt.Errorf("x: %w", ErrAliasedBuffers)))
	assert.Equal(t, "unsupported_device", errorReason(ErrUnsupportedDevice))
	assert.Equal(t, "other", errorReason(fmt.Errorf("boom")))
}

func BenchmarkSiluAndMul(b *testing.B) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))
	x := tensor.Rand[float32](tensor.Shape{256, 2 * 2048}, -4, 4, rng, backend)

	for _, tc := range []struct {
		name string
		opts []GatedOption
	}{
		{"fused", nil},
		{"composed", []GatedOption{WithComposedOnly()}},
	} {
		act := NewSiluAndMul[float32](backend, tc.opts...)
		out := tensor.Zeros[float32](tensor.Shape{256, 2048}, backend)
		b.Run(tc.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if err := act.ForwardInto(out, x); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
