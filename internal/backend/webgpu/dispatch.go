package webgpu

import (
	"github.com/sprout-ml/sprout/internal/tensor"
)

// WebGPU baseline limits. Workgroup shapes are derived from output
// dimensions at compile time and must stay within all of them.
const (
	maxWorkgroupInvocations = 256
	maxWorkgroupSizeXY      = 256
	maxWorkgroupSizeZ       = 64
)

// workgroupShape picks a workgroup size matching the given output
// dimensions: each axis starts at its extent (clamped to the per-axis
// limit) and the largest axis is halved until the invocation budget
// holds. Small outputs get exact-fit workgroups, large ones get the
// familiar 256-invocation tiles.
func workgroupShape(d tensor.Dims) [3]int {
	s := [3]int{d.Width, d.Height, d.Depth}
	if s[0] > maxWorkgroupSizeXY {
		s[0] = maxWorkgroupSizeXY
	}
	if s[1] > maxWorkgroupSizeXY {
		s[1] = maxWorkgroupSizeXY
	}
	if s[2] > maxWorkgroupSizeZ {
		s[2] = maxWorkgroupSizeZ
	}
	for s[0]*s[1]*s[2] > maxWorkgroupInvocations {
		largest := 0
		if s[1] > s[largest] {
			largest = 1
		}
		if s[2] > s[largest] {
			largest = 2
		}
		s[largest] = (s[largest] + 1) / 2
	}
	return s
}

// dispatchCounts returns the workgroup grid covering dims with the
// given workgroup shape.
func dispatchCounts(d tensor.Dims, shape [3]int) [3]uint32 {
	return [3]uint32{
		uint32((d.Width + shape[0] - 1) / shape[0]),
		uint32((d.Height + shape[1] - 1) / shape[1]),
		uint32((d.Depth + shape[2] - 1) / shape[2]),
	}
}

// linearShape returns a 1D workgroup shape for a flat buffer of n
// elements.
func linearShape(n int) [3]int {
	return workgroupShape(tensor.D1(n))
}
