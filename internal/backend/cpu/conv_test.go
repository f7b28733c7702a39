package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprout-ml/sprout/internal/tensor"
)

func TestCorrelateOutputDim(t *testing.T) {
	tests := []struct {
		in, k, stride, inset int
		want                 int
	}{
		{5, 3, 1, 0, 3},  // valid correlation
		{5, 3, 1, -1, 5}, // negative inset widens (same-size output)
		{5, 3, 1, 1, 1},  // positive inset shrinks to the interior
		{28, 5, 1, 0, 24},
	}
	for _, tt := range tests {
		got := CorrelateOutputDim(tt.in, tt.k, tt.stride, tt.inset)
		assert.Equal(t, tt.want, got, "in=%d k=%d inset=%d", tt.in, tt.k, tt.inset)
	}
}

func TestCorrelateOnesKernel(t *testing.T) {
	src := tensor.Ones(tensor.D2(5, 5))
	kernel := tensor.Ones(tensor.D2(3, 3))

	out := Correlate(src, kernel, 1, 0)
	require.Equal(t, tensor.D2(3, 3), out.Dims())
	for _, v := range out.Data() {
		assert.Equal(t, float32(9), v)
	}
}

func TestCorrelateNegativeInsetPads(t *testing.T) {
	src := tensor.Ones(tensor.D2(5, 5))
	kernel := tensor.Ones(tensor.D2(3, 3))

	out := Correlate(src, kernel, 1, -1)
	require.Equal(t, tensor.D2(5, 5), out.Dims())

	// Corner windows hang over the zero padding: only 4 in-bounds taps.
	assert.Equal(t, float32(4), out.At(0, 0, 0))
	assert.Equal(t, float32(4), out.At(4, 4, 0))
	// Centre windows are fully inside.
	assert.Equal(t, float32(9), out.At(2, 2, 0))
}

func TestCorrelateDepthReduces(t *testing.T) {
	// A kernel spanning the full source depth reduces to a single plane.
	src := tensor.Full(tensor.D3(4, 4, 2), 2)
	kernel := tensor.Ones(tensor.D3(2, 2, 2))

	out := Correlate(src, kernel, 1, 0)
	require.Equal(t, tensor.D2(3, 3), out.Dims())
	for _, v := range out.Data() {
		assert.Equal(t, float32(16), v) // 2·2·2 window of 2s
	}
}

func TestCorrelateDepthMismatchPanics(t *testing.T) {
	src := tensor.New(tensor.D3(4, 4, 2))
	kernel := tensor.New(tensor.D3(2, 2, 3))
	assert.Panics(t, func() { Correlate(src, kernel, 1, 0) })
}

func TestCorrelateNonUnitStridePanics(t *testing.T) {
	src := tensor.New(tensor.D2(4, 4))
	kernel := tensor.New(tensor.D2(2, 2))
	assert.Panics(t, func() { Correlate(src, kernel, 2, 0) })
}

func TestCorrelateAllStacksPlanes(t *testing.T) {
	src := tensor.Ones(tensor.D2(4, 4))
	kernels := []*tensor.Tensor{
		tensor.Ones(tensor.D2(3, 3)),
		tensor.Full(tensor.D2(3, 3), 2),
	}
	biases := []float32{0, 1}

	out := CorrelateAll(src, kernels, biases, 1, 0)
	require.Equal(t, tensor.D3(2, 2, 2), out.Dims())
	assert.Equal(t, float32(9), out.At(0, 0, 0))
	assert.Equal(t, float32(19), out.At(0, 0, 1)) // 9·2 + bias 1
}

func TestCorrelateInputGradMatchesScatter(t *testing.T) {
	// Single 1x1 kernel of weight w: input grad is outGrad·w placed at
	// the forward source offset.
	kernel, err := tensor.FromSlice([]float32{3}, tensor.D1(1))
	require.NoError(t, err)
	outGrad, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.D2(2, 2))
	require.NoError(t, err)

	grad := CorrelateInputGrad(outGrad, []*tensor.Tensor{kernel}, 0, tensor.D2(2, 2))
	assert.Equal(t, []float32{3, 6, 9, 12}, grad.Data())
}

func TestCorrelateInputGradAgainstNumeric(t *testing.T) {
	// Finite-difference check of dOut/dIn summed over all outputs.
	src, err := tensor.FromSlice([]float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.D2(3, 3))
	require.NoError(t, err)
	kernel, err := tensor.FromSlice([]float32{
		1, -1,
		0.5, 2,
	}, tensor.D2(2, 2))
	require.NoError(t, err)

	outGrad := tensor.Ones(tensor.D2(2, 2))
	grad := CorrelateInputGrad(outGrad, []*tensor.Tensor{kernel}, 0, src.Dims())

	const eps = 1e-2
	for i := range src.Data() {
		perturbed := src.Clone()
		perturbed.Data()[i] += eps
		base := Sum(Correlate(src, kernel, 1, 0).Data())
		bumped := Sum(Correlate(perturbed, kernel, 1, 0).Data())
		numeric := (bumped - base) / eps
		assert.InDelta(t, numeric, grad.Data()[i], 1e-2, "input %d", i)
	}
}

func TestCorrelateKernelGrads(t *testing.T) {
	src, err := tensor.FromSlice([]float32{
		1, 2,
		3, 4,
	}, tensor.D2(2, 2))
	require.NoError(t, err)
	outGrad, err := tensor.FromSlice([]float32{2}, tensor.D3(1, 1, 1))
	require.NoError(t, err)

	grads, biasGrads := CorrelateKernelGrads(src, outGrad, tensor.D2(2, 2), 0)
	require.Len(t, grads, 1)
	assert.Equal(t, []float32{2, 4, 6, 8}, grads[0].Data())
	assert.Equal(t, []float32{2}, biasGrads)
}
