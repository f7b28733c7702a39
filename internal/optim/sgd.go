// Package optim implements the gradient-descent update rule applied
// by every trainable layer during backward-and-update.
//
// The update state is explicit per parameter tensor so the rule can be
// tested in isolation from the gradient computation that feeds it.
package optim

import "fmt"

// SGD holds the per-parameter accumulator state for stochastic
// gradient descent with momentum and weight decay.
//
// Update rule, per Apply call:
//
//	v = momentum·v + lr·grad
//	w = (1 - lr·decay)·w + v
//
// The gradient is expected to already point in the descent direction
// (the terminal error signal is expected - actual), so the step is
// added, not subtracted.
type SGD struct {
	velocity []float32
}

// NewSGD creates update state for a parameter buffer of the given
// length. Velocity starts at zero.
func NewSGD(size int) *SGD {
	return &SGD{velocity: make([]float32, size)}
}

// Velocity exposes the momentum accumulator, used by the GPU backend
// to mirror the state into a device buffer.
func (s *SGD) Velocity() []float32 {
	return s.velocity
}

// Apply performs one fused update step on param from grad.
func (s *SGD) Apply(param, grad []float32, lr, momentum, decay float32) {
	if len(param) != len(grad) || len(param) != len(s.velocity) {
		panic(fmt.Sprintf("optim: apply: length mismatch: param %d, grad %d, velocity %d",
			len(param), len(grad), len(s.velocity)))
	}

	shrink := 1 - lr*decay
	for i := range param {
		v := momentum*s.velocity[i] + lr*grad[i]
		s.velocity[i] = v
		param[i] = shrink*param[i] + v
	}
}
