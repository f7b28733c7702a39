package cpu

import (
	"math"

	"github.com/chewxy/math32"
)

// Activation functions write into dst from src so callers can keep the
// pre-activation values. dst and src may be the same slice.

// Sigmoid computes dst = 1/(1+e^-x).
func Sigmoid(dst, src []float32) {
	checkLen("sigmoid", dst, src)
	for i, x := range src {
		dst[i] = 1 / (1 + math32.Exp(-x))
	}
}

// SigmoidDeriv computes dst = y·(1-y). It assumes src already holds
// sigmoid outputs, not raw pre-activations.
func SigmoidDeriv(dst, src []float32) {
	checkLen("sigmoid_deriv", dst, src)
	for i, y := range src {
		dst[i] = y * (1 - y)
	}
}

// TanhOf computes dst = tanh(x).
func TanhOf(dst, src []float32) {
	checkLen("tanh", dst, src)
	for i, x := range src {
		dst[i] = math32.Tanh(x)
	}
}

// TanhDeriv computes dst = 1-y². It assumes src already holds tanh
// outputs.
func TanhDeriv(dst, src []float32) {
	checkLen("tanh_deriv", dst, src)
	for i, y := range src {
		dst[i] = 1 - y*y
	}
}

// Relu computes dst = max(x, 0).
func Relu(dst, src []float32) {
	checkLen("relu", dst, src)
	for i, x := range src {
		dst[i] = math32.Max(x, 0)
	}
}

// ReluDeriv computes dst = 1 where x > 0 and 0 elsewhere, via clip
// then ceiling so that an input of exactly 0 maps to 0.
func ReluDeriv(dst, src []float32) {
	checkLen("relu_deriv", dst, src)
	for i, x := range src {
		dst[i] = math32.Ceil(math32.Min(math32.Max(x, 0), 1))
	}
}

// Softmax computes dst = e^x / Σe^x, subtracting the maximum of src
// before exponentiating for numerical stability.
func Softmax(dst, src []float32) {
	checkLen("softmax", dst, src)
	maxVal := float32(math.Inf(-1))
	for _, x := range src {
		if x > maxVal {
			maxVal = x
		}
	}

	var sum float32
	for i, x := range src {
		e := math32.Exp(x - maxVal)
		dst[i] = e
		sum += e
	}
	Scale(dst, 1/sum)
}
