package tensor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

// DType Tests

func TestDataTypeSize(t *testing.T) {
	tests := []struct {
		dtype DataType
		size  int
	}{
		{Float32, 4},
		{Float64, 8},
		{Float16, 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.size, tt.dtype.Size(), "%s.Size()", tt.dtype)
	}
}

func TestDataTypeString(t *testing.T) {
	assert.Equal(t, "float32", Float32.String())
	assert.Equal(t, "float64", Float64.String())
	assert.Equal(t, "float16", Float16.String())
	assert.Equal(t, "unknown", DataType(42).String())
}

func TestParseDataType(t *testing.T) {
	for name, want := range map[string]DataType{
		"float32": Float32, "fp32": Float32,
		"float64": Float64, "f64": Float64,
		"float16": Float16, "half": Float16,
	} {
		got, ok := ParseDataType(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := ParseDataType("int8")
	assert.False(t, ok)
}

func TestInferDataType(t *testing.T) {
	assert.Equal(t, Float32, inferDataType(float32(0)))
	assert.Equal(t, Float64, inferDataType(float64(0)))
	assert.Equal(t, Float16, inferDataType(float16.Float16(0)))
}

// Shape Tests

func TestShapeNumElements(t *testing.T) {
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, 12, Shape{3, 4}.NumElements())
	assert.Equal(t, 0, Shape{5, 0}.NumElements())
}

func TestShapeValidate(t *testing.T) {
	require.NoError(t, Shape{2, 3}.Validate())
	require.NoError(t, Shape{2, 0}.Validate(), "zero-width dims are valid")
	require.Error(t, Shape{2, -1}.Validate())
}

func TestShapeComputeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Empty(t, Shape{}.ComputeStrides())
}

func TestShapeCloneIsIndependent(t *testing.T) {
	s := Shape{2, 3}
	c := s.Clone()
	c[0] = 9
	assert.Equal(t, 2, s[0])
}

// Tensor Tests

func TestFromSlice(t *testing.T) {
	b := mockBackend{}
	x, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, b)
	require.NoError(t, err)

	assert.Equal(t, Shape{2, 3}, x.Shape())
	assert.Equal(t, Float32, x.DType())
	assert.Equal(t, CPU, x.Device())
	assert.Equal(t, float32(6), x.At(1, 2))
	assert.Equal(t, "Tensor[float32][2 3] on CPU", x.String())

	_, err = FromSlice([]float32{1, 2, 3}, Shape{2, 2}, b)
	require.Error(t, err)
}

func TestFromSliceFloat16(t *testing.T) {
	data := []float16.Float16{float16.Fromfloat32(1.5), float16.Fromfloat32(-2)}
	x, err := FromSlice(data, Shape{1, 2}, mockBackend{})
	require.NoError(t, err)

	assert.Equal(t, Float16, x.DType())
	assert.InDelta(t, -2.0, x.At(0, 1).Float32(), 1e-6)
}

func TestAtOutOfBoundsPanics(t *testing.T) {
	x := Zeros[float64](Shape{2, 2}, mockBackend{})
	assert.Panics(t, func() { x.At(2, 0) })
	assert.Panics(t, func() { x.At(0) })
}

func TestFullAndRand(t *testing.T) {
	b := mockBackend{}
	f := Full[float32](Shape{2, 2}, 3.5, b)
	for _, v := range f.Data() {
		assert.Equal(t, float32(3.5), v)
	}

	r := Rand[float64](Shape{64}, -2, 2, rand.New(rand.NewSource(1)), b)
	for _, v := range r.Data() {
		assert.GreaterOrEqual(t, v, -2.0)
		assert.Less(t, v, 2.0)
	}
}

// RawTensor Tests

func TestRawTensorZeroElements(t *testing.T) {
	raw, err := NewRaw(Shape{3, 0}, Float32, CPU)
	require.NoError(t, err)

	assert.Empty(t, raw.AsFloat32())
	assert.Equal(t, 0, raw.ByteSize())
}

func TestRawTensorWrongViewPanics(t *testing.T) {
	raw, _ := NewRaw(Shape{2}, Float64, CPU)
	assert.Panics(t, func() { raw.AsFloat32() })
	assert.Panics(t, func() { raw.AsFloat16() })
}

func TestRawTensorSharesBuffer(t *testing.T) {
	a, _ := NewRaw(Shape{2, 2}, Float32, CPU)
	b, _ := NewRaw(Shape{2, 2}, Float32, CPU)

	assert.True(t, a.SharesBuffer(a.Clone()))
	assert.False(t, a.SharesBuffer(b))
	assert.False(t, a.SharesBuffer(nil))

	empty, _ := NewRaw(Shape{2, 0}, Float32, CPU)
	assert.False(t, empty.SharesBuffer(empty.Clone()))
}

func TestRawTensorView(t *testing.T) {
	base, _ := NewRaw(Shape{2, 4}, Float32, WebGPU)
	copy(base.AsFloat32(), []float32{1, 2, 3, 4, 5, 6, 7, 8})

	v, err := base.View(Shape{3, 2})
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 2}, v.Shape())
	assert.Equal(t, []int{2, 1}, v.Strides())
	assert.Equal(t, WebGPU, v.Device())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, v.AsFloat32())
	assert.True(t, v.SharesBuffer(base))

	v.AsFloat32()[0] = 42
	assert.Equal(t, float32(42), base.AsFloat32()[0])

	_, err = base.View(Shape{3, 3})
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = base.View(Shape{-1})
	require.Error(t, err)
}

func TestRawTensorCopyFrom(t *testing.T) {
	src, _ := NewRaw(Shape{2}, Float32, CPU)
	copy(src.AsFloat32(), []float32{7, 8})

	dst, _ := NewRaw(Shape{2}, Float32, CPU)
	require.NoError(t, dst.CopyFrom(src))
	assert.Equal(t, []float32{7, 8}, dst.AsFloat32())

	wrongShape, _ := NewRaw(Shape{3}, Float32, CPU)
	require.ErrorIs(t, wrongShape.CopyFrom(src), ErrShapeMismatch)

	wrongType, _ := NewRaw(Shape{2}, Float64, CPU)
	require.ErrorIs(t, wrongType.CopyFrom(src), ErrDtypeMismatch)
}
