// Copyright 2026 Sprout ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprout-ml/sprout/tensor"
)

func TestPublicAPI(t *testing.T) {
	m := tensor.Zeros(tensor.D2(3, 2))
	assert.Equal(t, 6, m.Volume())
	assert.Equal(t, 2, m.Dims().Rank())

	v, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.D1(3))
	require.NoError(t, err)
	assert.Equal(t, float32(2), v.At(1, 0, 0))

	eye := tensor.Eye(2)
	assert.Equal(t, []float32{1, 0, 0, 1}, eye.Data())

	full := tensor.Full(tensor.D3(2, 1, 1), 0.5)
	assert.Equal(t, []float32{0.5, 0.5}, full.Data())
}

func TestFromSliceCopiesData(t *testing.T) {
	src := []float32{1, 2, 3}
	v, err := tensor.FromSlice(src, tensor.D1(3))
	require.NoError(t, err)

	src[0] = 99
	assert.Equal(t, float32(1), v.At(0, 0, 0))
}
