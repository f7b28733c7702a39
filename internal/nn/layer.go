// Package nn implements feed-forward networks as ordered stacks of
// layers. Each layer owns its parameters and applies its own update
// during the backward pass, so a single training step walks the stack
// twice and leaves the network ready for the next sample.
package nn

import (
	"github.com/sprout-ml/sprout/internal/tensor"
)

// Layer is a single stage of a feed-forward network. Implementations
// are stateful only in their trainable parameters: Forward must not
// retain anything BackwardAndUpdate depends on, because the caller
// re-supplies the forward input.
type Layer interface {
	// InputShape returns the dimensions this layer accepts.
	InputShape() tensor.Dims

	// OutputShape returns the dimensions this layer produces.
	OutputShape() tensor.Dims

	// Forward computes the layer's output for input. It panics if
	// input does not match InputShape.
	Forward(input *tensor.Tensor) *tensor.Tensor

	// BackwardAndUpdate consumes the gradient of the loss with
	// respect to this layer's output, applies any parameter update
	// in place, and returns the gradient with respect to the input.
	// input must be the same tensor that produced the gradient.
	BackwardAndUpdate(input, grad *tensor.Tensor, h Hyper) *tensor.Tensor

	// ParameterCount reports the number of trainable scalars.
	ParameterCount() int
}

// Hyper bundles the training hyper-parameters passed to every
// BackwardAndUpdate call. Callers anneal the learning rate between
// epochs with Annealed rather than mutating the struct.
type Hyper struct {
	LearningRate float32
	AnnealRate   float32
	Momentum     float32
	Decay        float32
}

// Annealed returns a copy of h with the learning rate decayed for the
// given zero-based epoch: lr / (1 + anneal*epoch).
func (h Hyper) Annealed(epoch int) Hyper {
	out := h
	out.LearningRate = h.LearningRate / (1 + h.AnnealRate*float32(epoch))
	return out
}
