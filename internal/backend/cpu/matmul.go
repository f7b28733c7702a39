package cpu

import (
	"fmt"

	"github.com/sprout-ml/sprout/internal/tensor"
)

// MatMul computes scale·op(A)·op(B), where op is the identity or the
// transpose depending on the flags. Both operands must have depth 1.
// Inner dimensions must match after the requested transposition; a
// mismatch is a fatal precondition violation.
func MatMul(a, b *tensor.Tensor, transposeA, transposeB bool, scale float32) *tensor.Tensor {
	if a.Depth() != 1 || b.Depth() != 1 {
		panic(fmt.Sprintf("cpu: matmul: operands must be matrices, got %v and %v", a.Dims(), b.Dims()))
	}

	aRows, aCols := a.Height(), a.Width()
	if transposeA {
		aRows, aCols = aCols, aRows
	}
	bRows, bCols := b.Height(), b.Width()
	if transposeB {
		bRows, bCols = bCols, bRows
	}

	if aCols != bRows {
		panic(fmt.Sprintf("cpu: matmul: inner dimension mismatch: %dx%d · %dx%d", aRows, aCols, bRows, bCols))
	}

	out := tensor.New(tensor.D2(bCols, aRows))
	ad, bd, od := a.Data(), b.Data(), out.Data()
	aw, bw := a.Width(), b.Width()

	for r := 0; r < aRows; r++ {
		for c := 0; c < bCols; c++ {
			var sum float32
			for k := 0; k < aCols; k++ {
				var av, bv float32
				if transposeA {
					av = ad[k*aw+r]
				} else {
					av = ad[r*aw+k]
				}
				if transposeB {
					bv = bd[c*bw+k]
				} else {
					bv = bd[k*bw+c]
				}
				sum += av * bv
			}
			od[r*bCols+c] = scale * sum
		}
	}

	return out
}

// Transpose returns the transposed matrix as a new owning tensor.
// The operand must have depth 1.
func Transpose(t *tensor.Tensor) *tensor.Tensor {
	if t.Depth() != 1 {
		panic(fmt.Sprintf("cpu: transpose: operand must be a matrix, got %v", t.Dims()))
	}

	out := tensor.New(tensor.D2(t.Height(), t.Width()))
	for y := 0; y < t.Height(); y++ {
		for x := 0; x < t.Width(); x++ {
			out.Set(t.At(x, y, 0), y, x, 0)
		}
	}
	return out
}
