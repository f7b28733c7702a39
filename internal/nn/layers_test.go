package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprout-ml/sprout/internal/tensor"
)

func TestNonlinearityForwardBackward(t *testing.T) {
	layer := NewNonlinearity(ReLU, tensor.D1(4))
	in, _ := tensor.FromSlice([]float32{-2, -0.5, 0.5, 2}, tensor.D1(4))

	out := layer.Forward(in)
	assert.Equal(t, []float32{0, 0, 0.5, 2}, out.Data())

	grad := tensor.Ones(tensor.D1(4))
	prev := layer.BackwardAndUpdate(in, grad, Hyper{})
	assert.Equal(t, []float32{0, 0, 1, 1}, prev.Data())
}

func TestNonlinearityLinearPassesThrough(t *testing.T) {
	layer := NewNonlinearity(Linear, tensor.D1(3))
	in, _ := tensor.FromSlice([]float32{1, -2, 3}, tensor.D1(3))
	grad, _ := tensor.FromSlice([]float32{0.5, 0.5, 0.5}, tensor.D1(3))

	assert.Equal(t, in.Data(), layer.Forward(in).Data())
	assert.Equal(t, grad.Data(), layer.BackwardAndUpdate(in, grad, Hyper{}).Data())
}

func TestNonlinearityRejectsSoftmax(t *testing.T) {
	assert.Panics(t, func() { NewNonlinearity(Softmax, tensor.D1(3)) })
}

func TestSoftmaxDerivativePanics(t *testing.T) {
	y := []float32{0.3, 0.7}
	assert.Panics(t, func() { Softmax.derivOnOutput(make([]float32, 2), y) })
}

func TestActivationStrings(t *testing.T) {
	assert.Equal(t, "relu", ReLU.String())
	assert.Equal(t, "softmax", Softmax.String())
	assert.Equal(t, "activation(99)", Activation(99).String())
}

func TestMaxPoolLayer(t *testing.T) {
	layer := NewMaxPool(tensor.D2(4, 4), tensor.D2(2, 2))
	in := tensor.New(tensor.D2(4, 4))
	for i := range in.Data() {
		in.Data()[i] = float32(i)
	}

	out := layer.Forward(in)
	assert.Equal(t, []float32{5, 7, 13, 15}, out.Data())

	grad, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.D2(2, 2))
	prev := layer.BackwardAndUpdate(in, grad, Hyper{})
	assert.Equal(t, float32(1), prev.At(1, 1, 0))
	assert.Equal(t, float32(2), prev.At(3, 1, 0))
	assert.Equal(t, float32(3), prev.At(1, 3, 0))
	assert.Equal(t, float32(4), prev.At(3, 3, 0))
	assert.Equal(t, float32(10), sum(prev.Data()))
}

func TestMaxPoolLayerRejectsUnevenRatio(t *testing.T) {
	assert.Panics(t, func() { NewMaxPool(tensor.D2(5, 4), tensor.D2(2, 2)) })
	assert.Panics(t, func() { NewMaxPool(tensor.D3(4, 4, 2), tensor.D3(2, 2, 1)) })
}

func TestReshapeLayer(t *testing.T) {
	layer := NewReshape(tensor.D3(2, 2, 2), tensor.D1(8))
	in := tensor.New(tensor.D3(2, 2, 2))
	for i := range in.Data() {
		in.Data()[i] = float32(i)
	}

	out := layer.Forward(in)
	assert.Equal(t, tensor.D1(8), out.Dims())
	assert.Equal(t, in.Data(), out.Data())

	grad := tensor.Ones(tensor.D1(8))
	prev := layer.BackwardAndUpdate(in, grad, Hyper{})
	assert.Equal(t, tensor.D3(2, 2, 2), prev.Dims())
}

func TestReshapeRejectsVolumeChange(t *testing.T) {
	assert.Panics(t, func() { NewReshape(tensor.D1(8), tensor.D1(9)) })
}

func TestConvLayerShapes(t *testing.T) {
	layer := NewConv(tensor.D3(28, 28, 1), 5, 5, 8, 1, 0)
	assert.Equal(t, tensor.D3(24, 24, 8), layer.OutputShape())
	assert.Equal(t, 8*25+8, layer.ParameterCount())

	// negative inset pads, growing the output
	padded := NewConv(tensor.D3(8, 8, 3), 3, 3, 4, 1, -1)
	assert.Equal(t, tensor.D3(8, 8, 4), padded.OutputShape())
}

func TestConvLayerForward(t *testing.T) {
	layer := NewConv(tensor.D2(4, 4), 3, 3, 1, 1, 0)
	k := layer.Kernels()[0]
	for i := range k.Data() {
		k.Data()[i] = 1
	}
	layer.Biases()[0] = 0.5

	in := tensor.Ones(tensor.D2(4, 4))
	out := layer.Forward(in)
	require.Equal(t, tensor.D3(2, 2, 1), out.Dims())
	assert.Equal(t, []float32{9.5, 9.5, 9.5, 9.5}, out.Data())
}

func TestConvLayerBackwardUpdatesKernels(t *testing.T) {
	layer := NewConv(tensor.D2(3, 3), 2, 2, 1, 1, 0)
	k := layer.Kernels()[0]
	copy(k.Data(), []float32{1, 0, 0, 1})

	in := tensor.New(tensor.D2(3, 3))
	for i := range in.Data() {
		in.Data()[i] = float32(i)
	}
	grad := tensor.Ones(tensor.D3(2, 2, 1))

	prev := layer.BackwardAndUpdate(in, grad, Hyper{LearningRate: 0.1})
	assert.Equal(t, tensor.D2(3, 3), prev.Dims())

	// kernel grad is the correlation of input with the output grad:
	// each tap sums the 2x2 window of inputs it touched
	assert.InDeltaSlice(t, []float32{
		1 + 0.1*8, 0 + 0.1*12,
		0 + 0.1*20, 1 + 0.1*24,
	}, k.Data(), 1e-6)
	assert.InDelta(t, 0.1*4, layer.Biases()[0], 1e-6)
}

func TestConvLayerRejectsCollapse(t *testing.T) {
	assert.Panics(t, func() { NewConv(tensor.D2(3, 3), 5, 5, 1, 1, 0) })
	assert.Panics(t, func() { NewConv(tensor.D2(8, 8), 3, 3, 0, 1, 0) })
}

func TestHyperAnnealed(t *testing.T) {
	h := Hyper{LearningRate: 0.1, AnnealRate: 0.5}
	assert.InDelta(t, 0.1, h.Annealed(0).LearningRate, 1e-7)
	assert.InDelta(t, 0.1/1.5, h.Annealed(1).LearningRate, 1e-7)
	assert.InDelta(t, 0.1/2, h.Annealed(2).LearningRate, 1e-7)
}

func sum(a []float32) float32 {
	var s float32
	for _, v := range a {
		s += v
	}
	return s
}
