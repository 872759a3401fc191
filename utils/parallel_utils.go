package utils

import (
	"runtime"
	"sync"
)

// MaxWorkers caps the goroutines used to precompute per-cell data while a
// grid is finalized.
const MaxWorkers = 4

// PartitionMap splits [0,MaxIndex) into ParallelDegree contiguous buckets
// whose sizes differ by at most one.
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
	Partitions     [][2]int // [begin, end) of each bucket
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketDimension(bn int) (kMax int) {
	if bn == -1 {
		kMax = pm.MaxIndex
		return
	}
	var (
		k1, k2 = pm.GetBucketRange(bn)
	)
	kMax = k2 - k1
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	// the first remainder buckets take one extra item
	if remainder != 0 {
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}

// ParallelFor partitions [0,n) into at most MaxWorkers buckets and calls fn on
// each bucket from its own goroutine. Buckets never overlap, so fn may write
// to disjoint slots of shared slices without locking.
func ParallelFor(n int, fn func(kMin, kMax int)) {
	np := MaxWorkers
	if cpus := runtime.GOMAXPROCS(0); cpus < np {
		np = cpus
	}
	if np > n {
		np = n
	}
	if np <= 1 {
		if n > 0 {
			fn(0, n)
		}
		return
	}
	var (
		pm = NewPartitionMap(np, n)
		wg sync.WaitGroup
	)
	for bn := 0; bn < np; bn++ {
		wg.Add(1)
		go func(bn int) {
			defer wg.Done()
			fn(pm.GetBucketRange(bn))
		}(bn)
	}
	wg.Wait()
}
