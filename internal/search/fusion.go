package search

import (
	"sort"

	"github.com/passagekit/passage/internal/store"
)

// fusedEntry accumulates a chunk's contributions from both lists.
type fusedEntry struct {
	key   string
	hit   *store.Hit
	score float64
}

// Fuse merges the vector and keyword ranked lists with Reciprocal
// Rank Fusion. A hit at zero-based rank r contributes
// alpha/(r+RRFConstant) from the vector list and
// (1-alpha)/(r+RRFConstant) from the keyword list; a chunk appearing
// in both lists sums its contributions under one FusionKey.
//
// Only rank positions enter the formula. The raw scores are on
// incomparable scales (cosine vs BM25) and are never summed.
//
// Output is sorted by fused score descending, ties broken by
// FusionKey ascending so identical inputs always produce identical
// output, and truncated to k. An empty input list simply contributes
// nothing; fusion over one list degrades to a damped re-ranking of it.
func Fuse(vectorRanked, keywordRanked []*store.Hit, alpha float64, k int) []*store.Hit {
	if k <= 0 {
		return nil
	}

	entries := make(map[string]*fusedEntry, len(vectorRanked)+len(keywordRanked))

	accumulate := func(hits []*store.Hit, weight float64) {
		for rank, hit := range hits {
			key := hit.FusionKey()
			entry, ok := entries[key]
			if !ok {
				entry = &fusedEntry{key: key, hit: hit}
				entries[key] = entry
			}
			entry.score += weight / float64(rank+RRFConstant)
		}
	}
	accumulate(vectorRanked, alpha)
	accumulate(keywordRanked, 1-alpha)

	sorted := make([]*fusedEntry, 0, len(entries))
	for _, entry := range entries {
		sorted = append(sorted, entry)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].score != sorted[j].score {
			return sorted[i].score > sorted[j].score
		}
		return sorted[i].key < sorted[j].key
	})

	if len(sorted) > k {
		sorted = sorted[:k]
	}

	out := make([]*store.Hit, len(sorted))
	for i, entry := range sorted {
		out[i] = &store.Hit{
			Chunk: entry.hit.Chunk,
			Score: entry.score,
			Kind:  store.ScoreFused,
		}
	}
	return out
}
