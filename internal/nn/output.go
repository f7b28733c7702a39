package nn

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/sprout-ml/sprout/internal/backend/cpu"
	"github.com/sprout-ml/sprout/internal/tensor"
)

// Output is the terminal policy of a network: the activation applied
// to the last layer's result, the loss measured against a target, and
// the delta that seeds the backward pass.
//
// Softmax pairs with cross-entropy; everything else pairs with half
// squared error. In both cases the delta simplifies to
// (expected - actual) times the activation derivative, and for softmax
// with cross-entropy the derivative cancels entirely.
type Output struct {
	act  Activation
	dims tensor.Dims
}

// NewOutput builds an output policy for the given activation and
// output dimensions.
func NewOutput(act Activation, dims tensor.Dims) *Output {
	if err := dims.Validate(); err != nil {
		panic(fmt.Sprintf("nn: output: %v", err))
	}
	return &Output{act: act, dims: dims}
}

// Kind returns the output activation.
func (o *Output) Kind() Activation { return o.act }

// Dims returns the expected output dimensions.
func (o *Output) Dims() tensor.Dims { return o.dims }

// Activate applies the output activation to the last layer's result.
func (o *Output) Activate(x *tensor.Tensor) *tensor.Tensor {
	checkShape("output", x.Dims(), o.dims)
	out := tensor.New(o.dims)
	o.act.apply(out.Data(), x.Data())
	return out
}

// Delta returns the gradient seed (expected - actual), scaled by the
// activation derivative except under softmax where cross-entropy
// cancels it.
func (o *Output) Delta(expected, actual *tensor.Tensor) *tensor.Tensor {
	checkShape("output expected", expected.Dims(), o.dims)
	checkShape("output actual", actual.Dims(), o.dims)

	delta := expected.Clone()
	cpu.Sub(delta.Data(), actual.Data())
	if o.act == Softmax {
		return delta
	}
	deriv := make([]float32, o.dims.Volume())
	o.act.derivOnOutput(deriv, actual.Data())
	cpu.Mul(delta.Data(), deriv)
	return delta
}

// Loss measures the scalar loss: cross-entropy for softmax, half the
// summed squared error otherwise.
func (o *Output) Loss(expected, actual *tensor.Tensor) float32 {
	checkShape("output expected", expected.Dims(), o.dims)
	checkShape("output actual", actual.Dims(), o.dims)

	e, a := expected.Data(), actual.Data()
	if o.act == Softmax {
		var sum float32
		for i := range e {
			if e[i] != 0 {
				sum -= e[i] * math32.Log(a[i])
			}
		}
		return sum
	}
	var sum float32
	for i := range e {
		d := a[i] - e[i]
		sum += d * d
	}
	return sum / 2
}
