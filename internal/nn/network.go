package nn

import (
	"fmt"

	"github.com/sprout-ml/sprout/internal/tensor"
)

// Network chains layers in order and terminates them with an output
// policy. It trains online: one sample forward, one fused
// backward-and-update walk.
type Network struct {
	layers []Layer
	output *Output
}

// New validates that adjacent layer shapes line up and that the last
// layer feeds the output policy. Mismatches are construction errors,
// not panics, because they come from user-assembled architectures.
func New(output *Output, layers ...Layer) (*Network, error) {
	if output == nil {
		return nil, fmt.Errorf("nn: network needs an output policy")
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("nn: network needs at least one layer")
	}
	for i := 1; i < len(layers); i++ {
		prev, next := layers[i-1].OutputShape(), layers[i].InputShape()
		if !prev.Equal(next) {
			return nil, fmt.Errorf("nn: layer %d produces %v but layer %d expects %v",
				i-1, prev, i, next)
		}
	}
	last := layers[len(layers)-1].OutputShape()
	if !last.Equal(output.Dims()) {
		return nil, fmt.Errorf("nn: last layer produces %v but output expects %v",
			last, output.Dims())
	}
	return &Network{layers: layers, output: output}, nil
}

// Layers returns the stack in forward order.
func (n *Network) Layers() []Layer { return n.layers }

// Output returns the terminal policy.
func (n *Network) Output() *Output { return n.output }

// InputShape returns the first layer's input dimensions.
func (n *Network) InputShape() tensor.Dims { return n.layers[0].InputShape() }

// OutputShape returns the activated output dimensions.
func (n *Network) OutputShape() tensor.Dims { return n.output.Dims() }

// ParameterCount totals the trainable scalars across all layers.
func (n *Network) ParameterCount() int {
	var total int
	for _, l := range n.layers {
		total += l.ParameterCount()
	}
	return total
}

// FeedForward runs input through every layer and the output
// activation.
func (n *Network) FeedForward(input *tensor.Tensor) *tensor.Tensor {
	checkShape("network input", input.Dims(), n.InputShape())
	x := input
	for _, l := range n.layers {
		x = l.Forward(x)
	}
	return n.output.Activate(x)
}

// Train runs one online step: forward with all intermediate outputs
// retained, the output delta seeded from expected, then a backward
// walk where each layer updates itself and hands back its input
// gradient. Returns the pre-update loss for the sample.
func (n *Network) Train(input, expected *tensor.Tensor, h Hyper) float32 {
	checkShape("network input", input.Dims(), n.InputShape())

	// inputs[i] is what layer i saw; the final entry is the last
	// layer's raw output, pre-activation.
	inputs := make([]*tensor.Tensor, len(n.layers)+1)
	inputs[0] = input
	for i, l := range n.layers {
		inputs[i+1] = l.Forward(inputs[i])
	}
	actual := n.output.Activate(inputs[len(n.layers)])
	loss := n.output.Loss(expected, actual)

	grad := n.output.Delta(expected, actual)
	for i := len(n.layers) - 1; i >= 0; i-- {
		grad = n.layers[i].BackwardAndUpdate(inputs[i], grad, h)
	}
	return loss
}
