// Copyright 2026 Sprout ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides feed-forward networks built from layers.
//
// # Overview
//
// This package contains:
//   - Layers: Dense, Conv, MaxPool, Reshape, Nonlinearity
//   - Activations: ReLU, Sigmoid, Tanh, Softmax, Linear
//   - Output policies pairing an activation with its natural loss
//   - The Network orchestrator with online forward/train steps
//
// # Basic Usage
//
//	net, err := nn.New(nn.NewOutput(nn.Softmax, tensor.D1(10)),
//	    nn.NewDense(tensor.D1(784), tensor.D1(128)),
//	    nn.NewNonlinearity(nn.ReLU, tensor.D1(128)),
//	    nn.NewDense(tensor.D1(128), tensor.D1(10)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	h := nn.Hyper{LearningRate: 0.01, Momentum: 0.9}
//	loss := net.Train(input, expected, h)
//	out := net.FeedForward(input)
//
// Each layer owns its parameters and applies its SGD update during the
// backward walk, so a Train call leaves the network ready for the next
// sample. Networks train one sample at a time (online learning).
//
// For GPU execution, compile a network with backend/webgpu.Compile; the
// compiled program and the host network produce matching results.
package nn
