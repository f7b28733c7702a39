package tensor

import "fmt"

// Dims describes the extent of a tensor along each axis.
// Rank 1 and 2 tensors set the unused extents to 1, so a vector of
// length n is {n, 1, 1} and an r×c matrix is {c, r, 1}.
type Dims struct {
	Width  int
	Height int
	Depth  int
}

// D1 returns the dims of a vector of length w.
func D1(w int) Dims { return Dims{Width: w, Height: 1, Depth: 1} }

// D2 returns the dims of a matrix with h rows and w columns.
func D2(w, h int) Dims { return Dims{Width: w, Height: h, Depth: 1} }

// D3 returns the dims of a volume.
func D3(w, h, d int) Dims { return Dims{Width: w, Height: h, Depth: d} }

// Volume returns the total number of elements.
func (d Dims) Volume() int {
	return d.Width * d.Height * d.Depth
}

// Rank returns 1, 2 or 3 depending on which extents exceed one.
func (d Dims) Rank() int {
	switch {
	case d.Depth > 1:
		return 3
	case d.Height > 1:
		return 2
	default:
		return 1
	}
}

// Equal reports whether two dims match exactly.
func (d Dims) Equal(other Dims) bool {
	return d.Width == other.Width && d.Height == other.Height && d.Depth == other.Depth
}

// Validate checks that every extent is positive.
func (d Dims) Validate() error {
	if d.Width <= 0 || d.Height <= 0 || d.Depth <= 0 {
		return fmt.Errorf("invalid dims %v (all extents must be > 0)", d)
	}
	return nil
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%dx%d", d.Width, d.Height, d.Depth)
}
