// Copyright 2026 Sprout ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for Sprout's tensor type.
//
// Tensors are dense float32 containers of rank 1 to 3, stored row-major
// with slices as the outermost axis. Dims describes a tensor's extents;
// the D1, D2, and D3 helpers build Dims for each rank:
//
//	v := tensor.Zeros(tensor.D1(10))        // vector of 10
//	m := tensor.Randn(tensor.D2(28, 28))    // 28x28 matrix
//	c := tensor.Ones(tensor.D3(28, 28, 3))  // 3-plane cube
//
// Out-of-range element access and malformed dimensions are programmer
// errors and panic. Operations on tensors live in the backend packages:
// backend/cpu for host math, backend/webgpu for device execution.
package tensor
