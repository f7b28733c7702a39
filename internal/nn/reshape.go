package nn

import (
	"fmt"

	"github.com/sprout-ml/sprout/internal/tensor"
)

// Reshape reinterprets its input under new dimensions of equal volume.
// The flat buffer is untouched, so gradients flow through unchanged.
type Reshape struct {
	in, out tensor.Dims
}

// NewReshape builds a volume-preserving shape adapter, typically used
// to flatten a 3D feature map ahead of a dense layer.
func NewReshape(in, out tensor.Dims) *Reshape {
	if err := in.Validate(); err != nil {
		panic(fmt.Sprintf("nn: reshape input: %v", err))
	}
	if err := out.Validate(); err != nil {
		panic(fmt.Sprintf("nn: reshape output: %v", err))
	}
	if in.Volume() != out.Volume() {
		panic(fmt.Sprintf("nn: reshape %v to %v changes volume", in, out))
	}
	return &Reshape{in: in, out: out}
}

func (r *Reshape) InputShape() tensor.Dims  { return r.in }
func (r *Reshape) OutputShape() tensor.Dims { return r.out }
func (r *Reshape) ParameterCount() int      { return 0 }

func (r *Reshape) Forward(input *tensor.Tensor) *tensor.Tensor {
	checkShape("reshape input", input.Dims(), r.in)
	return input.Clone().Reshaped(r.out)
}

func (r *Reshape) BackwardAndUpdate(input, grad *tensor.Tensor, _ Hyper) *tensor.Tensor {
	checkShape("reshape input", input.Dims(), r.in)
	checkShape("reshape gradient", grad.Dims(), r.out)
	return grad.Clone().Reshaped(r.in)
}
