// Copyright 2026 Sprout ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/sprout-ml/sprout/internal/optim"
)

// SGD applies momentum SGD with weight decay to one parameter block.
type SGD = optim.SGD

// NewSGD creates optimizer state for a parameter block of the given
// size.
func NewSGD(size int) *SGD {
	return optim.NewSGD(size)
}
