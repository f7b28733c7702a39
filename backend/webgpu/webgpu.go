// Copyright 2026 Sprout ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu exposes GPU execution for Sprout networks.
//
// Example:
//
//	if !webgpu.IsAvailable() {
//	    // fall back to host training
//	}
//	ctx, err := webgpu.NewContext()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Release()
//
//	prog, err := webgpu.Compile(ctx, net)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer prog.Release()
//
//	loss, err := prog.Train(input, expected, h)
//
// A compiled program keeps parameters resident on the device; call
// SyncHost to copy trained weights back into the network.
package webgpu

import (
	"github.com/sprout-ml/sprout/internal/backend/webgpu"
	"github.com/sprout-ml/sprout/internal/nn"
)

// Context owns a WebGPU device and its shader and pipeline caches.
type Context = webgpu.Context

// Program is a network compiled for one device.
type Program = webgpu.Program

// NewContext initializes WebGPU and returns a compute context.
func NewContext() (*Context, error) {
	return webgpu.NewContext()
}

// IsAvailable reports whether a WebGPU adapter can be acquired.
func IsAvailable() bool {
	return webgpu.IsAvailable()
}

// Compile lowers a network into device pipelines and uploads its
// parameters.
func Compile(ctx *Context, net *nn.Network) (*Program, error) {
	return webgpu.Compile(ctx, net)
}
