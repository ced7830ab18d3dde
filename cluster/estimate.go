// Package cluster estimates the filesystem cluster (allocation unit) size
// an image was formatted with by looking at where header matches tend to
// start, and provides the exact-division range-splitting helper used to
// walk a byte range cluster by cluster.
package cluster

import (
	"sort"

	"github.com/coregx/searchlight/matchid"
)

// MinSize and MaxSize bound the powers of two EstimateSize considers,
// grounded on utils.rs's estimate_cluster_size: every common cluster size
// from 512 bytes up to 64 KiB.
const (
	MinSize uint64 = 512
	MaxSize uint64 = 65536
)

// EstimateSize builds a histogram of which power-of-two cluster size (in
// [MinSize, MaxSize]) each header's start offset is a multiple of -- a
// header can vote for more than one size at once -- plus a "none" bucket
// (key 0) for headers that don't align to any candidate size, then returns
// the size with the most votes. Ties are broken toward the larger
// candidate: histogram keys are walked in ascending order and a new
// leader is adopted on a tie (>=), so among equally-voted sizes the
// largest wins, exactly as the original's ascending BTreeMap walk does.
//
// ok is false when the winning bucket is the "none" bucket, meaning the
// headers don't appear to align with any usual cluster boundary.
func EstimateSize(headers []matchid.Match) (size uint64, ok bool) {
	histogram := make(map[uint64]uint64)

	for _, h := range headers {
		found := false
		for s := MinSize; s <= MaxSize; s <<= 1 {
			if h.Start%s == 0 {
				histogram[s]++
				found = true
			}
		}
		if !found {
			histogram[0]++
		}
	}

	keys := make([]uint64, 0, len(histogram))
	for k := range histogram {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var max uint64
	for _, k := range keys {
		if v := histogram[k]; v >= max {
			max = v
			size = k
		}
	}

	if size == 0 {
		return 0, false
	}
	return size, true
}
