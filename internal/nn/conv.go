package nn

import (
	"fmt"

	"github.com/sprout-ml/sprout/internal/backend/cpu"
	"github.com/sprout-ml/sprout/internal/optim"
	"github.com/sprout-ml/sprout/internal/tensor"
)

// Conv cross-correlates a bank of kernels against its input. Each
// kernel spans the full input depth and contributes one output plane,
// so the output depth equals the kernel count.
type Conv struct {
	in, out tensor.Dims
	kernels []*tensor.Tensor
	biases  []float32
	stride  int
	inset   int

	kernelState []*optim.SGD
	biasState   *optim.SGD
}

// NewConv builds a correlation layer with count kernels of kernelW x
// kernelH x in.Depth, He-normal initialized. inset shifts the kernel
// window: a negative inset grows the output by reading implicit zeros
// outside the input.
func NewConv(in tensor.Dims, kernelW, kernelH, count, stride, inset int) *Conv {
	if err := in.Validate(); err != nil {
		panic(fmt.Sprintf("nn: conv input: %v", err))
	}
	if kernelW < 1 || kernelH < 1 || count < 1 {
		panic(fmt.Sprintf("nn: conv kernel %dx%dx%d invalid", kernelW, kernelH, count))
	}
	outW := cpu.CorrelateOutputDim(in.Width, kernelW, stride, inset)
	outH := cpu.CorrelateOutputDim(in.Height, kernelH, stride, inset)
	if outW < 1 || outH < 1 {
		panic(fmt.Sprintf("nn: conv output %dx%d collapses for input %v kernel %dx%d inset %d",
			outW, outH, in, kernelW, kernelH, inset))
	}

	kDims := tensor.D3(kernelW, kernelH, in.Depth)
	fanIn := kDims.Volume()
	c := &Conv{
		in:          in,
		out:         tensor.D3(outW, outH, count),
		kernels:     make([]*tensor.Tensor, count),
		biases:      make([]float32, count),
		stride:      stride,
		inset:       inset,
		kernelState: make([]*optim.SGD, count),
		biasState:   optim.NewSGD(count),
	}
	for k := range c.kernels {
		c.kernels[k] = heInit(kDims, fanIn)
		c.kernelState[k] = optim.NewSGD(fanIn)
	}
	return c
}

func (c *Conv) InputShape() tensor.Dims  { return c.in }
func (c *Conv) OutputShape() tensor.Dims { return c.out }

func (c *Conv) ParameterCount() int {
	return len(c.kernels)*c.kernels[0].Volume() + len(c.biases)
}

// Kernels exposes the kernel bank for device mirroring and tests.
func (c *Conv) Kernels() []*tensor.Tensor { return c.kernels }

// Biases exposes the per-kernel bias terms.
func (c *Conv) Biases() []float32 { return c.biases }

// Inset returns the window offset this layer correlates with.
func (c *Conv) Inset() int { return c.inset }

// Stride returns the step the kernel window advances by.
func (c *Conv) Stride() int { return c.stride }

// KernelState exposes per-kernel optimizer state.
func (c *Conv) KernelState() []*optim.SGD { return c.kernelState }

// BiasState exposes the bias optimizer state.
func (c *Conv) BiasState() *optim.SGD { return c.biasState }

func (c *Conv) Forward(input *tensor.Tensor) *tensor.Tensor {
	checkShape("conv input", input.Dims(), c.in)
	return cpu.CorrelateAll(input, c.kernels, c.biases, c.stride, c.inset)
}

// BackwardAndUpdate computes the input gradient against the kernels as
// of the forward pass, then steps every kernel and the biases.
func (c *Conv) BackwardAndUpdate(input, grad *tensor.Tensor, h Hyper) *tensor.Tensor {
	checkShape("conv input", input.Dims(), c.in)
	checkShape("conv gradient", grad.Dims(), c.out)

	prev := cpu.CorrelateInputGrad(grad, c.kernels, c.inset, c.in)
	kGrads, bGrads := cpu.CorrelateKernelGrads(input, grad, c.kernels[0].Dims(), c.inset)
	for k, kg := range kGrads {
		c.kernelState[k].Apply(c.kernels[k].Data(), kg.Data(), h.LearningRate, h.Momentum, h.Decay)
	}
	c.biasState.Apply(c.biases, bGrads, h.LearningRate, h.Momentum, h.Decay)
	return prev
}
