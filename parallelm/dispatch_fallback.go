//go:build !amd64

package parallelm

// prefilterEnabled is always true off amd64: there is no SIMD feature gate
// to consult, and the nibble-mask walk is plain Go regardless of arch.
func prefilterEnabled() bool {
	return true
}
