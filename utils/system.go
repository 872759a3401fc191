package utils

import (
	"fmt"
	"math"
	"runtime"
)

// GetMemUsage reports heap use, for logging after large grids are built.
func GetMemUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	mib := func(b uint64) float64 { return float64(b) / (1 << 20) }
	return fmt.Sprintf("Alloc = %.1f MiB HeapInuse = %.1f MiB Sys = %.1f MiB NumGC = %d",
		mib(m.Alloc), mib(m.HeapInuse), mib(m.Sys), m.NumGC)
}

// IsNan reports whether A, a float64 or a []float64, holds a NaN. Other types
// never do.
func IsNan(A any) bool {
	switch v := A.(type) {
	case float64:
		return math.IsNaN(v)
	case []float64:
		for _, f := range v {
			if f != f {
				return true
			}
		}
	}
	return false
}
