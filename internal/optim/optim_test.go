package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainStep(t *testing.T) {
	s := NewSGD(2)
	param := []float32{1, 1}
	grad := []float32{0.5, -0.5}

	s.Apply(param, grad, 0.1, 0, 0)
	assert.InDeltaSlice(t, []float32{1.05, 0.95}, param, 1e-6)
}

func TestMomentumAccumulates(t *testing.T) {
	s := NewSGD(1)
	param := []float32{0}
	grad := []float32{1}

	s.Apply(param, grad, 0.1, 0.9, 0)
	assert.InDelta(t, 0.1, param[0], 1e-6)

	// Second step with the same gradient: v = 0.9·0.1 + 0.1 = 0.19.
	s.Apply(param, grad, 0.1, 0.9, 0)
	assert.InDelta(t, 0.29, param[0], 1e-6)
	assert.InDelta(t, 0.19, s.Velocity()[0], 1e-6)
}

func TestDecayShrinksWeights(t *testing.T) {
	s := NewSGD(1)
	param := []float32{10}
	grad := []float32{0}

	s.Apply(param, grad, 0.1, 0, 0.5)
	assert.InDelta(t, 9.5, param[0], 1e-6) // 10·(1 - 0.1·0.5)
}

func TestLengthMismatchPanics(t *testing.T) {
	s := NewSGD(2)
	assert.Panics(t, func() { s.Apply([]float32{1}, []float32{1}, 0.1, 0, 0) })
	assert.Panics(t, func() { s.Apply([]float32{1, 2}, []float32{1}, 0.1, 0, 0) })
}
