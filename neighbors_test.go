package dbscan

import (
	"math"
	"math/rand"
	"testing"
)

// --- Finder equivalence ---

func TestFinders_TreeMatchesMatrix(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	n, dims := 90, 2
	flat := make([]float64, n*dims)
	for i := range flat {
		flat[i] = rng.Float64() * 6
	}
	metric := EuclideanMetric{}

	tf := newTreeFinder(flat, n, dims, metric, 4, SplitSuggest, 0)
	mf := newMatrixFinder(pairwiseDistances(flat, n, dims, metric, 1), n)

	for i := 0; i < n; i += 7 {
		treeIdx, treeDist := tf.radiusNeighbors(i, 1.2, true)
		matIdx, matDist := mf.radiusNeighbors(i, 1.2, true)
		if len(treeIdx) != len(matIdx) {
			t.Fatalf("point %d: radius counts differ: tree %d, matrix %d", i, len(treeIdx), len(matIdx))
		}
		for j := range treeIdx {
			if treeIdx[j] != matIdx[j] {
				t.Errorf("point %d: radius index[%d]: tree %d, matrix %d", i, j, treeIdx[j], matIdx[j])
			}
			if !almostEqual(treeDist[j], matDist[j], 1e-9) {
				t.Errorf("point %d: radius dist[%d]: tree %v, matrix %v", i, j, treeDist[j], matDist[j])
			}
		}

		_, tkDist := tf.kNearest(i, 8)
		_, mkDist := mf.kNearest(i, 8)
		for j := range tkDist {
			if !almostEqual(tkDist[j], mkDist[j], 1e-9) {
				t.Errorf("point %d: kNN dist[%d]: tree %v, matrix %v", i, j, tkDist[j], mkDist[j])
			}
		}
	}
}

func TestFinders_SelfIncluded(t *testing.T) {
	flat := []float64{0, 0, 2, 0, 5, 0}
	tf := newTreeFinder(flat, 3, 2, EuclideanMetric{}, 2, SplitSuggest, 0)

	idx, dists := tf.kNearest(1, 1)
	if len(idx) != 1 || idx[0] != 1 || dists[0] != 0 {
		t.Errorf("kNearest(1, 1) = (%v, %v), want own point at distance 0", idx, dists)
	}

	rIdx, _ := tf.radiusNeighbors(1, 0.5, true)
	if len(rIdx) != 1 || rIdx[0] != 1 {
		t.Errorf("radiusNeighbors(1, 0.5) = %v, want [1]", rIdx)
	}
}

// --- Core distances ---

func TestAllCoreDistances_HandComputed(t *testing.T) {
	flat := []float64{
		0, 0,
		1, 0,
		3, 0,
	}
	tf := newTreeFinder(flat, 3, 2, EuclideanMetric{}, 2, SplitSuggest, 0)

	core := allCoreDistances(tf, 2, 1)
	want := []float64{1, 1, 2}
	for i := range want {
		if !almostEqual(core[i], want[i], floatTol) {
			t.Errorf("core[%d] = %v, want %v", i, core[i], want[i])
		}
	}
}

func TestAllCoreDistances_TooFewPoints(t *testing.T) {
	flat := []float64{0, 0, 1, 1}
	tf := newTreeFinder(flat, 2, 2, EuclideanMetric{}, 2, SplitSuggest, 0)

	core := allCoreDistances(tf, 5, 1)
	for i, c := range core {
		if !math.IsInf(c, 1) {
			t.Errorf("core[%d] = %v, want +Inf", i, c)
		}
	}
}

// --- Parallel helpers ---

func TestParallelChunks_CoversAllIndices(t *testing.T) {
	for _, workers := range []int{1, 2, 3, 8} {
		n := 103
		hits := make([]int, n)
		parallelChunks(n, workers, func(start, end int) {
			for i := start; i < end; i++ {
				hits[i]++
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("workers=%d: index %d visited %d times", workers, i, h)
			}
		}
	}
}

func TestResolveWorkers(t *testing.T) {
	if got := resolveWorkers(4); got != 4 {
		t.Errorf("resolveWorkers(4) = %d, want 4", got)
	}
	if got := resolveWorkers(0); got < 1 {
		t.Errorf("resolveWorkers(0) = %d, want >= 1", got)
	}
}
