package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForCoversEveryIndex(t *testing.T) {
	for _, n := range []int{0, 1, 3, 7, 64, 100} {
		seen := make([]int32, n)
		For(n, func(i int) {
			atomic.AddInt32(&seen[i], 1)
		}, DefaultConfig())
		for i, c := range seen {
			assert.EqualValues(t, 1, c, "index %d of %d", i, n)
		}
	}
}

func TestForSequentialFallback(t *testing.T) {
	cfg := Config{Enabled: false}
	var order []int
	For(4, func(i int) { order = append(order, i) }, cfg)
	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestForMoreWorkersThanWork(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 16, MinPerTask: 2}
	var total int64
	For(3, func(i int) { atomic.AddInt64(&total, int64(i)) }, cfg)
	assert.EqualValues(t, 3, total)
}
