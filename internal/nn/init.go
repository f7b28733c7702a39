package nn

import (
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/sprout-ml/sprout/internal/tensor"
)

// xavierInit fills a tensor with Glorot-uniform values, the usual
// choice for dense weights feeding sigmoid or tanh units.
func xavierInit(dims tensor.Dims, fanIn, fanOut int) *tensor.Tensor {
	t := tensor.New(dims)
	limit := math32.Sqrt(6 / float32(fanIn+fanOut))
	data := t.Data()
	for i := range data {
		data[i] = (rand.Float32()*2 - 1) * limit
	}
	return t
}

// heInit fills a tensor with Kaiming-normal values, scaled for ReLU
// stacks where half the units are expected to be inactive.
func heInit(dims tensor.Dims, fanIn int) *tensor.Tensor {
	t := tensor.New(dims)
	std := math32.Sqrt(2 / float32(fanIn))
	data := t.Data()
	for i := range data {
		data[i] = float32(rand.NormFloat64()) * std
	}
	return t
}
