// Copyright 2026 Sprout ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the SGD optimizer used by Sprout's layers.
//
// Every trainable layer owns one SGD instance per parameter block and
// applies it during the fused backward pass. The update rule is
// momentum SGD with multiplicative weight decay:
//
//	v = momentum*v + lr*grad
//	w = (1 - lr*decay)*w + v
//
// where grad points toward lower loss, following the delta convention
// of the nn package.
package optim
