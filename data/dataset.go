// Package data loads labeled training corpora into tensors: MNIST-style
// IDX archives and directories of class-sorted PNG images.
package data

import (
	"fmt"
	"math/rand"

	"github.com/sprout-ml/sprout/internal/tensor"
)

// Sample is one labeled input.
type Sample struct {
	Input *tensor.Tensor
	Label int
}

// Set is an ordered collection of samples drawn from a fixed number of
// classes.
type Set struct {
	Samples []Sample
	Classes int
}

// Len returns the number of samples.
func (s *Set) Len() int { return len(s.Samples) }

// Shuffle permutes the samples in place using rng.
func (s *Set) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(s.Samples), func(i, j int) {
		s.Samples[i], s.Samples[j] = s.Samples[j], s.Samples[i]
	})
}

// Split partitions the set, putting the leading frac of samples in the
// first returned set. Shuffle first if ordering matters.
func (s *Set) Split(frac float64) (*Set, *Set) {
	cut := int(float64(len(s.Samples)) * frac)
	if cut < 0 {
		cut = 0
	}
	if cut > len(s.Samples) {
		cut = len(s.Samples)
	}
	return &Set{Samples: s.Samples[:cut], Classes: s.Classes},
		&Set{Samples: s.Samples[cut:], Classes: s.Classes}
}

// OneHot encodes label as a vector of base values with hot at the
// label index. Softmax targets use (0, 1); tanh targets often train
// better against (-1, 1).
func OneHot(label, classes int, base, hot float32) *tensor.Tensor {
	if label < 0 || label >= classes {
		panic(fmt.Sprintf("data: label %d out of range for %d classes", label, classes))
	}
	t := tensor.Full(tensor.D1(classes), base)
	t.Data()[label] = hot
	return t
}

// Expected returns the one-hot target for a sample with standard
// (0, 1) encoding.
func (s *Set) Expected(i int) *tensor.Tensor {
	return OneHot(s.Samples[i].Label, s.Classes, 0, 1)
}
