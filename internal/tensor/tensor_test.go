package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDims(t *testing.T) {
	tests := []struct {
		dims   Dims
		volume int
		rank   int
	}{
		{D1(5), 5, 1},
		{D2(4, 3), 12, 2},
		{D3(4, 3, 2), 24, 3},
		{D3(1, 1, 7), 7, 3},
		{D1(1), 1, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.volume, tt.dims.Volume(), "volume of %v", tt.dims)
		assert.Equal(t, tt.rank, tt.dims.Rank(), "rank of %v", tt.dims)
	}
}

func TestDimsValidate(t *testing.T) {
	assert.NoError(t, D3(2, 2, 2).Validate())
	assert.Error(t, Dims{Width: 0, Height: 1, Depth: 1}.Validate())
	assert.Error(t, Dims{Width: 2, Height: -1, Depth: 1}.Validate())
}

func TestFromSlice(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6}

	m, err := FromSlice(data, D2(3, 2))
	require.NoError(t, err)
	assert.Equal(t, float32(1), m.At(0, 0, 0))
	assert.Equal(t, float32(6), m.At(2, 1, 0))

	// The tensor owns its buffer: mutating the source must not leak in.
	data[0] = 99
	assert.Equal(t, float32(1), m.At(0, 0, 0))

	_, err = FromSlice(data, D2(4, 2))
	assert.Error(t, err, "length mismatch must fail")
}

func TestAtBoundsChecked(t *testing.T) {
	m := New(D2(3, 2))

	assert.Panics(t, func() { m.At(3, 0, 0) })
	assert.Panics(t, func() { m.At(0, 2, 0) })
	assert.Panics(t, func() { m.At(0, 0, 1) })
	assert.Panics(t, func() { m.At(-1, 0, 0) })
}

func TestAtPadded(t *testing.T) {
	m, err := FromSlice([]float32{1, 2, 3, 4}, D2(2, 2))
	require.NoError(t, err)

	assert.Equal(t, float32(4), m.AtPadded(1, 1, 0))
	assert.Equal(t, float32(0), m.AtPadded(-1, 0, 0))
	assert.Equal(t, float32(0), m.AtPadded(0, 2, 0))
	assert.Equal(t, float32(0), m.AtPadded(0, 0, 5))
}

func TestRowMajorLayout(t *testing.T) {
	// data[(z*H+y)*W + x]: x fastest, then y, then z.
	v := New(D3(2, 2, 2))
	v.Set(1, 1, 0, 0)
	v.Set(2, 0, 1, 0)
	v.Set(3, 0, 0, 1)

	assert.Equal(t, float32(1), v.Data()[1])
	assert.Equal(t, float32(2), v.Data()[2])
	assert.Equal(t, float32(3), v.Data()[4])
}

func TestCloneIsIndependent(t *testing.T) {
	a := Full(D1(4), 7)
	b := a.Clone()
	b.Data()[0] = 0

	assert.Equal(t, float32(7), a.Data()[0])
	assert.Equal(t, float32(0), b.Data()[0])
}

func TestReversed(t *testing.T) {
	a, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, D3(1, 2, 3))
	require.NoError(t, err)

	r := a.Reversed()
	assert.Equal(t, []float32{6, 5, 4, 3, 2, 1}, r.Data())
	assert.True(t, r.Dims().Equal(a.Dims()))

	// Involution: reversing twice restores the original buffer.
	assert.Equal(t, a.Data(), r.Reversed().Data())
}

func TestReshaped(t *testing.T) {
	a, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, D2(3, 2))
	require.NoError(t, err)

	b := a.Reshaped(D3(1, 2, 3))
	assert.Equal(t, a.Data(), b.Data())
	assert.Equal(t, D3(1, 2, 3), b.Dims())

	assert.Panics(t, func() { a.Reshaped(D2(4, 2)) }, "volume mismatch must panic")
}

func TestEye(t *testing.T) {
	id := Eye(3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			want := float32(0)
			if x == y {
				want = 1
			}
			assert.Equal(t, want, id.At(x, y, 0))
		}
	}
}
