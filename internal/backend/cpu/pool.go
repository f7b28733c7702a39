package cpu

import (
	"fmt"

	"github.com/sprout-ml/sprout/internal/tensor"
)

// MaxPool downsamples src to outDims by taking the maximum of each
// window. The window extent per axis is implied by the ratio of input
// to output extent, which must divide evenly; depth is preserved.
// The second return value records, per output cell, the flat source
// index of the element that produced the maximum — backward routing
// depends on it.
func MaxPool(src *tensor.Tensor, outDims tensor.Dims) (*tensor.Tensor, []int) {
	in := src.Dims()
	if outDims.Depth != in.Depth {
		panic(fmt.Sprintf("cpu: maxpool: depth must be preserved, got %v -> %v", in, outDims))
	}
	if in.Width%outDims.Width != 0 || in.Height%outDims.Height != 0 {
		panic(fmt.Sprintf("cpu: maxpool: %v does not divide evenly into %v", in, outDims))
	}

	rw := in.Width / outDims.Width
	rh := in.Height / outDims.Height

	out := tensor.New(outDims)
	argmax := make([]int, outDims.Volume())
	od := out.Data()

	i := 0
	for z := 0; z < outDims.Depth; z++ {
		for oy := 0; oy < outDims.Height; oy++ {
			for ox := 0; ox < outDims.Width; ox++ {
				best := src.At(ox*rw, oy*rh, z)
				bestIdx := (z*in.Height+oy*rh)*in.Width + ox*rw
				for wy := 0; wy < rh; wy++ {
					for wx := 0; wx < rw; wx++ {
						sx, sy := ox*rw+wx, oy*rh+wy
						v := src.At(sx, sy, z)
						if v > best {
							best = v
							bestIdx = (z*in.Height+sy)*in.Width + sx
						}
					}
				}
				od[i] = best
				argmax[i] = bestIdx
				i++
			}
		}
	}
	return out, argmax
}

// MaxPoolBackward routes each gradient value to the source position
// that produced the window maximum; every other position receives
// zero.
func MaxPoolBackward(grad *tensor.Tensor, argmax []int, srcDims tensor.Dims) *tensor.Tensor {
	if grad.Volume() != len(argmax) {
		panic(fmt.Sprintf("cpu: maxpool: gradient volume %d does not match %d recorded maxima",
			grad.Volume(), len(argmax)))
	}

	out := tensor.New(srcDims)
	od := out.Data()
	for i, g := range grad.Data() {
		od[argmax[i]] += g
	}
	return out
}
