package nn

import (
	"fmt"

	"github.com/sprout-ml/sprout/internal/backend/cpu"
	"github.com/sprout-ml/sprout/internal/tensor"
)

// MaxPool downsamples each plane by taking the maximum over
// non-overlapping windows. The window is implied by the input/output
// ratio, which must divide evenly.
type MaxPool struct {
	in, out tensor.Dims
}

// NewMaxPool builds a pooling layer shrinking in to out. Depth is
// preserved; width and height ratios must be whole.
func NewMaxPool(in, out tensor.Dims) *MaxPool {
	if err := in.Validate(); err != nil {
		panic(fmt.Sprintf("nn: maxpool input: %v", err))
	}
	if in.Depth != out.Depth || out.Width < 1 || out.Height < 1 ||
		in.Width%out.Width != 0 || in.Height%out.Height != 0 {
		panic(fmt.Sprintf("nn: maxpool cannot reduce %v to %v", in, out))
	}
	return &MaxPool{in: in, out: out}
}

func (p *MaxPool) InputShape() tensor.Dims  { return p.in }
func (p *MaxPool) OutputShape() tensor.Dims { return p.out }
func (p *MaxPool) ParameterCount() int      { return 0 }

func (p *MaxPool) Forward(input *tensor.Tensor) *tensor.Tensor {
	checkShape("maxpool input", input.Dims(), p.in)
	out, _ := cpu.MaxPool(input, p.out)
	return out
}

// BackwardAndUpdate routes each gradient element to the input position
// that won its window, recomputing the arg-max from the forward input
// rather than caching it.
func (p *MaxPool) BackwardAndUpdate(input, grad *tensor.Tensor, _ Hyper) *tensor.Tensor {
	checkShape("maxpool input", input.Dims(), p.in)
	checkShape("maxpool gradient", grad.Dims(), p.out)
	_, argmax := cpu.MaxPool(input, p.out)
	return cpu.MaxPoolBackward(grad, argmax, p.in)
}
