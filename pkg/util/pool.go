package util

import "runtime"

// GetOptimalPoolSize returns min(max(2*NumCPU, 4), 32).
//
// It sizes both the per-grammar parser pools and the batch generation
// worker limit, which must agree so workers never block waiting on a parser.
func GetOptimalPoolSize() int {
	poolSize := runtime.NumCPU() * 2
	if poolSize < 4 {
		poolSize = 4
	}
	if poolSize > 32 {
		poolSize = 32
	}
	return poolSize
}

// GetOptimalPoolSizeWithOverride returns override when positive, otherwise
// GetOptimalPoolSize().
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
