package webgpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sprout-ml/sprout/internal/tensor"
)

func TestWorkgroupShapeSmallOutputsFitExactly(t *testing.T) {
	assert.Equal(t, [3]int{10, 1, 1}, workgroupShape(tensor.D1(10)))
	assert.Equal(t, [3]int{4, 4, 4}, workgroupShape(tensor.D3(4, 4, 4)))
	assert.Equal(t, [3]int{16, 16, 1}, workgroupShape(tensor.D2(16, 16)))
}

func TestWorkgroupShapeRespectsLimits(t *testing.T) {
	shapes := []tensor.Dims{
		tensor.D1(100000),
		tensor.D2(1024, 1024),
		tensor.D3(512, 512, 128),
		tensor.D3(28, 28, 8),
		tensor.D3(1, 1, 64),
	}
	for _, d := range shapes {
		s := workgroupShape(d)
		assert.LessOrEqual(t, s[0]*s[1]*s[2], maxWorkgroupInvocations, "dims %v", d)
		assert.LessOrEqual(t, s[0], maxWorkgroupSizeXY, "dims %v", d)
		assert.LessOrEqual(t, s[1], maxWorkgroupSizeXY, "dims %v", d)
		assert.LessOrEqual(t, s[2], maxWorkgroupSizeZ, "dims %v", d)
		assert.GreaterOrEqual(t, s[0], 1, "dims %v", d)
		assert.GreaterOrEqual(t, s[1], 1, "dims %v", d)
		assert.GreaterOrEqual(t, s[2], 1, "dims %v", d)
	}
}

func TestWorkgroupShapeShrinksLargestAxisFirst(t *testing.T) {
	// 256 x 4 exceeds the budget; the wide axis gives way
	s := workgroupShape(tensor.D2(1024, 4))
	assert.Equal(t, 4, s[1])
	assert.LessOrEqual(t, s[0]*s[1], maxWorkgroupInvocations)
}

func TestDispatchCountsCoverOutput(t *testing.T) {
	d := tensor.D3(28, 28, 8)
	s := workgroupShape(d)
	c := dispatchCounts(d, s)
	assert.GreaterOrEqual(t, int(c[0])*s[0], d.Width)
	assert.GreaterOrEqual(t, int(c[1])*s[1], d.Height)
	assert.GreaterOrEqual(t, int(c[2])*s[2], d.Depth)
	// no full workgroup of slack
	assert.Less(t, (int(c[0])-1)*s[0], d.Width)
}

func TestPoolShadersGuardOverflowThreads(t *testing.T) {
	// A depth the workgroup z does not divide evenly: the grid
	// overshoots, so the extra threads must return before writing.
	d := tensor.D3(14, 14, 50)
	wg := workgroupShape(d)
	c := dispatchCounts(d, wg)
	assert.Greater(t, int(c[2])*wg[2], d.Depth)

	for _, code := range []string{poolForwardWGSL(wg), poolBackwardWGSL(wg)} {
		assert.Contains(t, code, "src_d: u32")
		assert.Contains(t, code, "global_id.z >= params.src_d")
	}
}

func TestShaderTemplatesRender(t *testing.T) {
	wg := [3]int{8, 8, 4}
	lin := [3]int{256, 1, 1}
	shaders := map[string]string{
		"dense_forward":      denseForwardWGSL(lin),
		"dense_input_grad":   denseInputGradWGSL(lin),
		"dense_update":       denseUpdateWGSL(lin),
		"conv_forward":       convForwardWGSL(wg),
		"conv_input_grad":    convInputGradWGSL(wg),
		"conv_kernel_update": convKernelUpdateWGSL(lin),
		"conv_bias_update":   convBiasUpdateWGSL(lin),
		"pool_forward":       poolForwardWGSL(wg),
		"pool_backward":      poolBackwardWGSL(wg),
		"relu_forward":       activationForwardWGSL("relu", lin),
		"sigmoid_backward":   activationBackwardWGSL("sigmoid", lin),
		"tanh_backward":      activationBackwardWGSL("tanh", lin),
		"softmax":            softmaxWGSL,
		"loss_delta_softmax": lossDeltaWGSL("softmax", lin),
		"loss_delta_sigmoid": lossDeltaWGSL("sigmoid", lin),
	}
	for name, code := range shaders {
		assert.Contains(t, code, "@workgroup_size", name)
		assert.Contains(t, code, "fn main", name)
		// a formatting miss would leave %! markers behind
		assert.NotContains(t, code, "%!", name)
		assert.False(t, strings.Contains(code, "%d"), name)
	}
}

func TestLossDeltaDerivativeReadsActual(t *testing.T) {
	code := lossDeltaWGSL("sigmoid", [3]int{64, 1, 1})
	assert.Contains(t, code, "a * (1.0 - a)")

	code = lossDeltaWGSL("softmax", [3]int{64, 1, 1})
	assert.Contains(t, code, "* 1.0")
}

func TestUnknownActivationPanics(t *testing.T) {
	assert.Panics(t, func() { activationExprWGSL("softmax") })
	assert.Panics(t, func() { activationDerivExprWGSL("softsign") })
}

func TestParamPackerPadsTo16(t *testing.T) {
	var pk paramPacker
	pk.u32(3)
	pk.u32(7)
	pk.f32(0.5)
	b := pk.bytes()
	assert.Len(t, b, 16)

	var five paramPacker
	for i := 0; i < 5; i++ {
		five.u32(1)
	}
	assert.Len(t, five.bytes(), 32)
}

func TestFloatBytesRoundTrip(t *testing.T) {
	in := []float32{0, 1, -2.5, 3.25e-3}
	assert.Equal(t, in, bytesToFloats(floatBytes(in)))
}
