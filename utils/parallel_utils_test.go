package utils

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionMap(t *testing.T) {
	{ // Bucket sizes are balanced to within one item
		getHisto := func(K, Np int) (histo map[int]int) {
			pm := NewPartitionMap(Np, K)
			histo = make(map[int]int)
			for np := 0; np < pm.ParallelDegree; np++ {
				histo[pm.GetBucketDimension(np)]++
			}
			return
		}
		getTotal := func(histo map[int]int) (total int) {
			for key, count := range histo {
				total += key * count
			}
			return
		}
		assert.Equal(t, map[int]int{0: 30, 1: 2}, getHisto(2, 32))
		assert.Equal(t, map[int]int{8: 1, 9: 31}, getHisto(287, 32))
		assert.Equal(t, map[int]int{0: 4}, getHisto(0, 4))
		for n := 64; n < 2000; n++ {
			var (
				keys   [2]float64
				keyNum int
			)
			histo := getHisto(n, 32)
			for key := range histo {
				keys[keyNum] = float64(key)
				keyNum++
			}
			if keyNum == 2 {
				assert.Equal(t, 1., math.Abs(keys[0]-keys[1]))
			}
			assert.Equal(t, n, getTotal(histo))
		}
	}
	{ // Buckets are contiguous and cover every index
		for maxIndex := 10; maxIndex < 300; maxIndex++ {
			pm := NewPartitionMap(5, maxIndex)
			var next int
			for bn := 0; bn < pm.ParallelDegree; bn++ {
				kMin, kMax := pm.GetBucketRange(bn)
				assert.Equal(t, next, kMin)
				next = kMax
			}
			assert.Equal(t, maxIndex, next)
		}
	}
	{ // Degenerate parallel degree falls back to one bucket
		pm := NewPartitionMap(0, 9)
		assert.Equal(t, 1, pm.ParallelDegree)
		assert.Equal(t, 9, pm.GetBucketDimension(0))
	}
}

func TestForEachBucket(t *testing.T) {
	var (
		pm    = NewPartitionMap(4, 103)
		seen  = make([]int32, 103)
		calls int32
	)
	pm.ForEachBucket(func(bn, kMin, kMax int) {
		atomic.AddInt32(&calls, 1)
		for k := kMin; k < kMax; k++ {
			atomic.AddInt32(&seen[k], 1)
		}
	})
	assert.Equal(t, int32(4), calls)
	for k := range seen {
		assert.Equal(t, int32(1), seen[k])
	}
	// Empty buckets are skipped
	calls = 0
	NewPartitionMap(8, 3).ForEachBucket(func(bn, kMin, kMax int) {
		atomic.AddInt32(&calls, 1)
	})
	assert.Equal(t, int32(3), calls)
}

func TestDefaultParallelDegree(t *testing.T) {
	assert.Equal(t, 1, DefaultParallelDegree(0, 0))
	assert.LessOrEqual(t, DefaultParallelDegree(0, 2), 2)
	assert.Equal(t, 1, DefaultParallelDegree(1, 100))
}
