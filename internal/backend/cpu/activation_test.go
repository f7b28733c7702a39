package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSigmoid(t *testing.T) {
	src := []float32{0, 2, -2}
	dst := make([]float32, 3)
	Sigmoid(dst, src)

	assert.InDelta(t, 0.5, dst[0], 1e-6)
	assert.InDelta(t, 0.880797, dst[1], 1e-5)
	assert.InDelta(t, 0.119203, dst[2], 1e-5)
}

func TestSigmoidDerivOnOutputs(t *testing.T) {
	xs := []float32{-3, -1, 0, 0.5, 2}
	y := make([]float32, len(xs))
	Sigmoid(y, xs)

	d := make([]float32, len(xs))
	SigmoidDeriv(d, y)
	for i := range xs {
		assert.InDelta(t, y[i]*(1-y[i]), d[i], 1e-6)
	}
}

func TestTanhDerivOnOutputs(t *testing.T) {
	xs := []float32{-2, 0, 1}
	y := make([]float32, len(xs))
	TanhOf(y, xs)

	d := make([]float32, len(xs))
	TanhDeriv(d, y)
	for i := range xs {
		assert.InDelta(t, 1-y[i]*y[i], d[i], 1e-6)
	}
}

func TestReluDerivExact(t *testing.T) {
	src := []float32{-5, -0.001, 0, 0.001, 5}
	d := make([]float32, len(src))
	ReluDeriv(d, src)

	// Exactly 0 for x <= 0, exactly 1 for x > 0; zero itself maps to 0.
	assert.Equal(t, []float32{0, 0, 0, 1, 1}, d)
}

func TestRelu(t *testing.T) {
	src := []float32{-1, 0, 3}
	d := make([]float32, len(src))
	Relu(d, src)
	assert.Equal(t, []float32{0, 0, 3}, d)
}

func TestSoftmaxSumsToOne(t *testing.T) {
	src := []float32{1, 2, 3, 4}
	dst := make([]float32, 4)
	Softmax(dst, src)

	assert.InDelta(t, 1.0, float64(Sum(dst)), 1e-6)
	for i := 1; i < len(dst); i++ {
		assert.Greater(t, dst[i], dst[i-1], "softmax preserves ordering")
	}
}

func TestSoftmaxShiftInvariant(t *testing.T) {
	src := []float32{0.5, -1, 2}
	a := make([]float32, 3)
	Softmax(a, src)

	shifted := make([]float32, 3)
	copy(shifted, src)
	AddConst(shifted, 1000) // would overflow exp without max subtraction
	b := make([]float32, 3)
	Softmax(b, shifted)

	assert.InDeltaSlice(t, a, b, 1e-6)
}

func TestSoftmaxLargeInputsStable(t *testing.T) {
	src := []float32{1000, 1000, 1000}
	dst := make([]float32, 3)
	Softmax(dst, src)
	for _, v := range dst {
		assert.InDelta(t, 1.0/3.0, v, 1e-6)
	}
}
