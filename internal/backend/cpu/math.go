// Package cpu implements the host execution backend: eager, vectorized
// float32 math over flat buffers and tensors.
//
// Slice operations mutate their first argument in place and require
// matching lengths; a mismatch is a programmer error and panics.
// Tensor operations return new owning tensors.
package cpu

import (
	"fmt"

	"github.com/chewxy/math32"
	"gorgonia.org/vecf32"

	"github.com/sprout-ml/sprout/internal/tensor"
)

func checkLen(op string, a, b []float32) {
	if len(a) != len(b) {
		panic(fmt.Sprintf("cpu: %s: length mismatch %d vs %d", op, len(a), len(b)))
	}
}

// Add computes a += b element-wise.
func Add(a, b []float32) {
	checkLen("add", a, b)
	vecf32.Add(a, b)
}

// Sub computes a -= b element-wise.
func Sub(a, b []float32) {
	checkLen("sub", a, b)
	vecf32.Sub(a, b)
}

// Mul computes a *= b element-wise.
func Mul(a, b []float32) {
	checkLen("mul", a, b)
	vecf32.Mul(a, b)
}

// Div computes a /= b element-wise.
func Div(a, b []float32) {
	checkLen("div", a, b)
	vecf32.Div(a, b)
}

// Scale computes a *= s.
func Scale(a []float32, s float32) {
	vecf32.Scale(a, s)
}

// Neg negates a in place.
func Neg(a []float32) {
	vecf32.Scale(a, -1)
}

// AddConst computes a += s element-wise.
func AddConst(a []float32, s float32) {
	for i := range a {
		a[i] += s
	}
}

// ConstSub computes a = s - a element-wise (the scalar-first ordering).
func ConstSub(s float32, a []float32) {
	for i := range a {
		a[i] = s - a[i]
	}
}

// ConstDiv computes a = s / a element-wise (the scalar-first ordering).
func ConstDiv(s float32, a []float32) {
	for i := range a {
		a[i] = s / a[i]
	}
}

// AddScaled computes a += s*b element-wise.
func AddScaled(a, b []float32, s float32) {
	checkLen("addscaled", a, b)
	for i := range a {
		a[i] += s * b[i]
	}
}

// Dot returns the inner product of a and b.
func Dot(a, b []float32) float32 {
	checkLen("dot", a, b)
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Sqrt computes a = sqrt(a) element-wise.
func Sqrt(a []float32) {
	vecf32.Sqrt(a)
}

// Exp computes a = e^a element-wise.
func Exp(a []float32) {
	for i := range a {
		a[i] = math32.Exp(a[i])
	}
}

// Log computes a = ln(a) element-wise.
func Log(a []float32) {
	for i := range a {
		a[i] = math32.Log(a[i])
	}
}

// Tanh computes a = tanh(a) element-wise.
func Tanh(a []float32) {
	for i := range a {
		a[i] = math32.Tanh(a[i])
	}
}

// Pow computes a = a^b element-wise.
func Pow(a, b []float32) {
	checkLen("pow", a, b)
	for i := range a {
		a[i] = math32.Pow(a[i], b[i])
	}
}

// Copysign computes a = |a| with the sign of b, element-wise.
func Copysign(a, b []float32) {
	checkLen("copysign", a, b)
	for i := range a {
		a[i] = math32.Copysign(a[i], b[i])
	}
}

// AddTensors returns a + scale·b. Dims must match exactly.
func AddTensors(a, b *tensor.Tensor, scale float32) *tensor.Tensor {
	if !a.Dims().Equal(b.Dims()) {
		panic(fmt.Sprintf("cpu: add: dims mismatch %v vs %v", a.Dims(), b.Dims()))
	}
	out := a.Clone()
	AddScaled(out.Data(), b.Data(), scale)
	return out
}

// Accumulate computes dst += src in place. Dims must match exactly.
func Accumulate(dst, src *tensor.Tensor) {
	if !dst.Dims().Equal(src.Dims()) {
		panic(fmt.Sprintf("cpu: accumulate: dims mismatch %v vs %v", dst.Dims(), src.Dims()))
	}
	Add(dst.Data(), src.Data())
}

// AccumulateScaled computes dst += scale·src in place. Dims must match.
func AccumulateScaled(dst, src *tensor.Tensor, scale float32) {
	if !dst.Dims().Equal(src.Dims()) {
		panic(fmt.Sprintf("cpu: accumulate: dims mismatch %v vs %v", dst.Dims(), src.Dims()))
	}
	AddScaled(dst.Data(), src.Data(), scale)
}
