package nn

import (
	"fmt"

	"github.com/sprout-ml/sprout/internal/backend/cpu"
	"github.com/sprout-ml/sprout/internal/optim"
	"github.com/sprout-ml/sprout/internal/tensor"
)

// Dense is a fully connected layer. The input is flattened to a row
// vector and augmented with a constant 1, so the bias lives as the
// last row of the weight matrix and trains with the rest of it.
type Dense struct {
	in, out tensor.Dims

	// weights is (inVol+1) x outVol; row inVol holds the biases.
	weights *tensor.Tensor
	state   *optim.SGD
}

// NewDense builds a dense layer mapping in to out, with Xavier-uniform
// initial weights and zero biases.
func NewDense(in, out tensor.Dims) *Dense {
	if err := in.Validate(); err != nil {
		panic(fmt.Sprintf("nn: dense input: %v", err))
	}
	if err := out.Validate(); err != nil {
		panic(fmt.Sprintf("nn: dense output: %v", err))
	}
	n, m := in.Volume(), out.Volume()
	w := xavierInit(tensor.D2(m, n+1), n, m)
	// zero the bias row
	biases := w.Data()[n*m:]
	for i := range biases {
		biases[i] = 0
	}
	return &Dense{
		in:      in,
		out:     out,
		weights: w,
		state:   optim.NewSGD((n + 1) * m),
	}
}

func (d *Dense) InputShape() tensor.Dims  { return d.in }
func (d *Dense) OutputShape() tensor.Dims { return d.out }
func (d *Dense) ParameterCount() int      { return d.weights.Volume() }

// Weights exposes the (inVol+1) x outVol parameter matrix. Mutations
// are visible to subsequent passes.
func (d *Dense) Weights() *tensor.Tensor { return d.weights }

// State exposes the optimizer state so device backends can mirror the
// velocity buffer.
func (d *Dense) State() *optim.SGD { return d.state }

// SetWeights replaces the parameter matrix. It panics unless the
// replacement has the same shape as the current weights.
func (d *Dense) SetWeights(w *tensor.Tensor) {
	checkShape("dense weights", w.Dims(), d.weights.Dims())
	copy(d.weights.Data(), w.Data())
}

// augmented flattens input into a 1 x (n+1) row vector with a trailing 1.
func (d *Dense) augmented(input *tensor.Tensor) *tensor.Tensor {
	n := d.in.Volume()
	aug := tensor.New(tensor.D2(n+1, 1))
	copy(aug.Data(), input.Data())
	aug.Data()[n] = 1
	return aug
}

func (d *Dense) Forward(input *tensor.Tensor) *tensor.Tensor {
	checkShape("dense input", input.Dims(), d.in)
	out := cpu.MatMul(d.augmented(input), d.weights, false, false, 1)
	return out.Reshaped(d.out)
}

// BackwardAndUpdate propagates the gradient through the weights as of
// the forward pass, then applies the fused SGD step. The bias row's
// contribution to the input gradient is discarded with the augmented
// column.
func (d *Dense) BackwardAndUpdate(input, grad *tensor.Tensor, h Hyper) *tensor.Tensor {
	checkShape("dense input", input.Dims(), d.in)
	checkShape("dense gradient", grad.Dims(), d.out)
	n, m := d.in.Volume(), d.out.Volume()

	aug := d.augmented(input)
	g := grad.Reshaped(tensor.D2(m, 1))

	// d(loss)/d(input) = g * W^T, truncated to the real inputs.
	prevAug := cpu.MatMul(g, d.weights, false, true, 1)
	prev := tensor.New(d.in)
	copy(prev.Data(), prevAug.Data()[:n])

	// d(loss)/d(W) = aug^T * g, shaped like the weights.
	wGrad := cpu.MatMul(aug, g, true, false, 1)
	d.state.Apply(d.weights.Data(), wGrad.Data(), h.LearningRate, h.Momentum, h.Decay)
	return prev
}
