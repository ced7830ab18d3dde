package parallelm

// fingerprintLen is the number of leading pattern-element bytes the
// nibble-mask filter inspects per candidate position, mirroring
// prefilter/teddy.go's default two-byte fingerprint.
const fingerprintLen = 2

// maxBuckets bounds how many distinct pattern buckets the filter tracks.
// The teacher's Teddy packs bucket membership into an 8-bit (Slim) or
// 32-bit (Fat) SIMD lane; this is a portable, non-SIMD walk, so the mask
// is simply widened to a uint64 and the bucket count capped at its width.
const maxBuckets = 64

// prefilter is a nibble-mask candidate filter over the leading
// fingerprintLen bytes of every pattern, adapted from prefilter/teddy.go's
// buildMasks/findScalarCandidate: two lookup tables per fingerprint
// position (one per nibble) whose bits are ANDed together across
// positions, leaving a non-zero bucket mask only where every inspected
// byte is consistent with at least one pattern.
type prefilter struct {
	loMasks    [fingerprintLen][16]uint64
	hiMasks    [fingerprintLen][16]uint64
	allBuckets uint64
}

// buildPrefilter builds a prefilter over patterns' leading fingerprintLen
// elements. It returns nil -- disabling the filter, so every position is
// scanned -- whenever a sound filter cannot be built: a pattern shorter
// than fingerprintLen, or one with a wildcard within the fingerprint
// region (a wildcard is satisfied by any byte there, so no nibble value
// could ever be excluded on its account).
func buildPrefilter(patterns [][]uint16) *prefilter {
	if len(patterns) == 0 {
		return nil
	}

	numBuckets := len(patterns)
	if numBuckets > maxBuckets {
		numBuckets = maxBuckets
	}

	pf := &prefilter{allBuckets: (uint64(1) << uint(numBuckets)) - 1}

	for id, p := range patterns {
		if len(p) < fingerprintLen {
			return nil
		}
		for pos := 0; pos < fingerprintLen; pos++ {
			if p[pos] > 0xFF {
				return nil
			}
		}

		bucket := uint64(1) << uint(id%numBuckets)
		for pos := 0; pos < fingerprintLen; pos++ {
			b := byte(p[pos])
			lo := b & 0x0F
			hi := (b >> 4) & 0x0F
			pf.loMasks[pos][lo] |= bucket
			pf.hiMasks[pos][hi] |= bucket
		}
	}

	return pf
}

// IsCandidate reports whether a walk starting at data[i] could plausibly
// complete a match. It never returns false for a position that genuinely
// starts one -- positions too close to the end of data to fill a whole
// fingerprint are always reported as candidates, since there isn't enough
// data to rule them out.
func (pf *prefilter) IsCandidate(data []byte, i int) bool {
	if i+fingerprintLen > len(data) {
		return true
	}

	mask := pf.allBuckets
	for pos := 0; pos < fingerprintLen; pos++ {
		b := data[i+pos]
		lo := b & 0x0F
		hi := (b >> 4) & 0x0F
		mask &= pf.loMasks[pos][lo] & pf.hiMasks[pos][hi]
		if mask == 0 {
			return false
		}
	}
	return true
}
