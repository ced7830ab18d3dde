// Package fragment enumerates and simplifies candidate byte ranges for
// reconstructing a file whose clusters are not contiguous on disk.
package fragment

import (
	"fmt"

	"github.com/coregx/searchlight/cluster"
)

// Fragment is a single contiguous byte range of an image; an alias of
// cluster.Range so the cluster-size estimator and the fragmentation
// enumerator share one range representation end to end.
type Fragment = cluster.Range

// Generate enumerates candidate fragmentations of a file known to occupy
// numFileClusters clusters of clusterSize bytes somewhere within
// [rangeStart, rangeEnd), restricting itself -- as libsearchlight does --
// to the common bifragmentation case: the file occupies every cluster in
// the range except one contiguous run of clusters (the gap), and that gap
// is slid across every possible position. Clusters adjacent to a gap's
// edges are merged into a single Fragment by Simplify.
//
// Generate panics if rangeStart or rangeEnd is not a multiple of
// clusterSize, or if numFileClusters exceeds the number of clusters in
// the range.
func Generate(clusterSize, rangeStart, rangeEnd, numFileClusters uint64) [][]Fragment {
	if rangeStart%clusterSize != 0 || rangeEnd%clusterSize != 0 {
		panic("fragment: fragmentation range is not on cluster boundaries")
	}

	clusters, remainder := cluster.SplitExact(rangeStart, rangeEnd, clusterSize)
	if remainder != nil {
		panic("fragment: fragmentation range does not divide evenly into clusters")
	}
	if numFileClusters > uint64(len(clusters)) {
		panic(fmt.Sprintf("fragment: num_file_clusters (%d) exceeds the %d clusters in range", numFileClusters, len(clusters)))
	}

	gapLen := uint64(len(clusters)) - numFileClusters

	var out [][]Fragment
	for gapIdx := uint64(0); gapIdx <= uint64(len(clusters))-gapLen; gapIdx++ {
		var fileClusters []Fragment
		for i, c := range clusters {
			if uint64(i) < gapIdx || uint64(i) >= gapIdx+gapLen {
				fileClusters = append(fileClusters, c)
			}
		}
		out = append(out, Simplify(fileClusters))
	}

	return out
}

// Simplify merges adjacent ranges in an assumed in-order, non-overlapping
// slice wherever one range's End equals the next range's Start.
func Simplify(ranges []Fragment) []Fragment {
	out := append([]Fragment(nil), ranges...)

	i := 1
	for i < len(out) {
		if out[i-1].End == out[i].Start {
			out[i-1].End = out[i].End
			out = append(out[:i], out[i+1:]...)
			i--
		}
		i++
	}

	return out
}
