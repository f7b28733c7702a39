package cpu

import (
	"fmt"

	"github.com/sprout-ml/sprout/internal/parallel"
	"github.com/sprout-ml/sprout/internal/tensor"
)

// CorrelateOutputDim returns the output extent for one axis of a
// sliding-window correlation: in/stride - k + 1 - 2·inset. A negative
// inset widens the output (implicit zero padding); a positive inset
// restricts it to the interior.
func CorrelateOutputDim(in, k, stride, inset int) int {
	return in/stride - k + 1 - 2*inset
}

func checkStride(op string, stride int) {
	// Non-unit strides are a planned extension; rejecting them here is
	// an unsupported-configuration failure, not a data error.
	if stride != 1 {
		panic(fmt.Sprintf("cpu: %s: unit stride only, got %d", op, stride))
	}
}

// Correlate slides kernel over src and reduces each window to one
// output value. The kernel depth must equal the source depth; the
// output is a single (ow, oh, 1) plane. Source reads outside the
// bounds contribute zero, which is how negative insets realize
// implicit padding.
func Correlate(src, kernel *tensor.Tensor, stride, inset int) *tensor.Tensor {
	checkStride("correlate", stride)
	if kernel.Depth() != src.Depth() {
		panic(fmt.Sprintf("cpu: correlate: kernel depth %d does not match source depth %d",
			kernel.Depth(), src.Depth()))
	}

	ow := CorrelateOutputDim(src.Width(), kernel.Width(), stride, inset)
	oh := CorrelateOutputDim(src.Height(), kernel.Height(), stride, inset)
	if ow <= 0 || oh <= 0 {
		panic(fmt.Sprintf("cpu: correlate: empty output %dx%d for source %v kernel %v inset %d",
			ow, oh, src.Dims(), kernel.Dims(), inset))
	}

	out := tensor.New(tensor.D2(ow, oh))
	for oy := 0; oy < oh; oy++ {
		for ox := 0; ox < ow; ox++ {
			var sum float32
			for z := 0; z < kernel.Depth(); z++ {
				for ky := 0; ky < kernel.Height(); ky++ {
					for kx := 0; kx < kernel.Width(); kx++ {
						sx := ox*stride + kx + inset
						sy := oy*stride + ky + inset
						sum += src.AtPadded(sx, sy, z) * kernel.At(kx, ky, z)
					}
				}
			}
			out.Set(sum, ox, oy, 0)
		}
	}
	return out
}

// CorrelateAll runs one correlation per kernel, adds the matching bias
// scalar, and stacks the resulting planes along depth. Kernels run
// concurrently; each writes a disjoint depth slice of the output.
func CorrelateAll(src *tensor.Tensor, kernels []*tensor.Tensor, biases []float32, stride, inset int) *tensor.Tensor {
	checkStride("correlate", stride)
	if len(kernels) != len(biases) {
		panic(fmt.Sprintf("cpu: correlate: %d kernels but %d biases", len(kernels), len(biases)))
	}

	ow := CorrelateOutputDim(src.Width(), kernels[0].Width(), stride, inset)
	oh := CorrelateOutputDim(src.Height(), kernels[0].Height(), stride, inset)
	out := tensor.New(tensor.D3(ow, oh, len(kernels)))

	parallel.For(len(kernels), func(k int) {
		plane := Correlate(src, kernels[k], stride, inset)
		base := k * ow * oh
		od := out.Data()
		for i, v := range plane.Data() {
			od[base+i] = v + biases[k]
		}
	}, parallel.DefaultConfig())
	return out
}

// CorrelateInputGrad computes the gradient of a correlation with
// respect to its source: the gather form of correlating the output
// gradient against the buffer-order-reversed kernels (a transposed
// convolution). outGrad has one depth plane per kernel; the result has
// the source dims.
func CorrelateInputGrad(outGrad *tensor.Tensor, kernels []*tensor.Tensor, inset int, srcDims tensor.Dims) *tensor.Tensor {
	if outGrad.Depth() != len(kernels) {
		panic(fmt.Sprintf("cpu: correlate: gradient depth %d does not match %d kernels",
			outGrad.Depth(), len(kernels)))
	}

	grad := tensor.New(srcDims)
	for z := 0; z < srcDims.Depth; z++ {
		for sy := 0; sy < srcDims.Height; sy++ {
			for sx := 0; sx < srcDims.Width; sx++ {
				var sum float32
				for k, kernel := range kernels {
					for ky := 0; ky < kernel.Height(); ky++ {
						for kx := 0; kx < kernel.Width(); kx++ {
							// Forward read src at (ox+kx+inset, oy+ky+inset),
							// so the output cell influenced via weight (kx, ky)
							// is (sx-kx-inset, sy-ky-inset).
							ox := sx - kx - inset
							oy := sy - ky - inset
							sum += outGrad.AtPadded(ox, oy, k) * kernel.At(kx, ky, z)
						}
					}
				}
				grad.Set(sum, sx, sy, z)
			}
		}
	}
	return grad
}

// CorrelateKernelGrads accumulates the gradient of each kernel: the
// correlation of the original source against the matching output
// gradient plane. Returns one kernel-shaped gradient per output plane
// plus the per-plane bias gradients.
func CorrelateKernelGrads(src, outGrad *tensor.Tensor, kernelDims tensor.Dims, inset int) ([]*tensor.Tensor, []float32) {
	ow, oh := outGrad.Width(), outGrad.Height()
	grads := make([]*tensor.Tensor, outGrad.Depth())
	biasGrads := make([]float32, outGrad.Depth())

	parallel.For(outGrad.Depth(), func(k int) {
		g := tensor.New(kernelDims)
		var biasSum float32
		for z := 0; z < kernelDims.Depth; z++ {
			for ky := 0; ky < kernelDims.Height; ky++ {
				for kx := 0; kx < kernelDims.Width; kx++ {
					var sum float32
					for oy := 0; oy < oh; oy++ {
						for ox := 0; ox < ow; ox++ {
							sx := ox + kx + inset
							sy := oy + ky + inset
							sum += src.AtPadded(sx, sy, z) * outGrad.At(ox, oy, k)
						}
					}
					g.Set(sum, kx, ky, z)
				}
			}
		}
		for oy := 0; oy < oh; oy++ {
			for ox := 0; ox < ow; ox++ {
				biasSum += outGrad.At(ox, oy, k)
			}
		}
		grads[k] = g
		biasGrads[k] = biasSum
	}, parallel.DefaultConfig())
	return grads, biasGrads
}
