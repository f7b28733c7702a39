package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprout-ml/sprout/internal/tensor"
)

func sequential(dims tensor.Dims) *tensor.Tensor {
	t := tensor.New(dims)
	for i := range t.Data() {
		t.Data()[i] = float32(i)
	}
	return t
}

func TestMaxPoolQuadrants(t *testing.T) {
	// 4x4 of 0..15 pooled to 2x2 selects the max of each quadrant.
	src := sequential(tensor.D2(4, 4))

	out, argmax := MaxPool(src, tensor.D3(2, 2, 1))
	assert.Equal(t, []float32{5, 7, 13, 15}, out.Data())
	assert.Equal(t, []int{5, 7, 13, 15}, argmax)
}

func TestMaxPoolBackwardRouting(t *testing.T) {
	src := sequential(tensor.D2(4, 4))
	_, argmax := MaxPool(src, tensor.D3(2, 2, 1))

	grad := tensor.Ones(tensor.D3(2, 2, 1))
	back := MaxPoolBackward(grad, argmax, src.Dims())

	for i, v := range back.Data() {
		switch i {
		case 5, 7, 13, 15:
			assert.Equal(t, float32(1), v, "argmax cell %d receives the gradient", i)
		default:
			assert.Equal(t, float32(0), v, "cell %d receives nothing", i)
		}
	}
}

func TestMaxPoolPerChannel(t *testing.T) {
	src := tensor.New(tensor.D3(2, 2, 2))
	src.Set(5, 1, 0, 0)
	src.Set(-3, 0, 1, 1) // all other channel-1 values are 0

	out, _ := MaxPool(src, tensor.D3(1, 1, 2))
	require.Equal(t, 2, out.Volume())
	assert.Equal(t, float32(5), out.At(0, 0, 0))
	assert.Equal(t, float32(0), out.At(0, 0, 1))
}

func TestMaxPoolInvalidShapes(t *testing.T) {
	src := tensor.New(tensor.D2(4, 4))
	assert.Panics(t, func() { MaxPool(src, tensor.D3(3, 2, 1)) }, "uneven ratio")
	assert.Panics(t, func() { MaxPool(src, tensor.D3(2, 2, 2)) }, "depth change")
}
