//go:build amd64

package parallelm

import "golang.org/x/sys/cpu"

// prefilterEnabled reports whether this CPU is worth building a nibble-mask
// prefilter for. The teacher gates its actual PSHUFB-based Teddy on SSSE3
// (simd/ascii_amd64.go's build-tag dispatch is the model); this walk is
// portable Go rather than real SIMD, so the feature check here only avoids
// the filter's setup cost on cores too old to benefit from the branch
// patterns it produces.
func prefilterEnabled() bool {
	return cpu.X86.HasSSSE3
}
