package cpu

import (
	"math"

	"gorgonia.org/vecf32"
)

// Sum returns the sum of all elements.
func Sum(a []float32) float32 {
	return vecf32.Sum(a)
}

// Max returns the largest element. Empty input yields -Inf.
func Max(a []float32) float32 {
	best := float32(math.Inf(-1))
	for _, v := range a {
		if v > best {
			best = v
		}
	}
	return best
}

// Min returns the smallest element. Empty input yields +Inf.
func Min(a []float32) float32 {
	best := float32(math.Inf(1))
	for _, v := range a {
		if v < best {
			best = v
		}
	}
	return best
}

// Argmax returns the index of the largest element, -1 when empty.
func Argmax(a []float32) int {
	idx := -1
	best := float32(math.Inf(-1))
	for i, v := range a {
		if v > best {
			best = v
			idx = i
		}
	}
	return idx
}

// Argmin returns the index of the smallest element, -1 when empty.
func Argmin(a []float32) int {
	idx := -1
	best := float32(math.Inf(1))
	for i, v := range a {
		if v < best {
			best = v
			idx = i
		}
	}
	return idx
}
