package dbscan

import "sort"

// matrixCoreDistances computes core distances from a precomputed distance
// matrix: the minPts-th smallest entry of each row, counting the zero
// self-distance. minPts is clamped to [1, n].
func matrixCoreDistances(dist []float64, n, minPts, workers int) []float64 {
	if minPts > n {
		minPts = n
	}
	if minPts < 1 {
		minPts = 1
	}

	core := make([]float64, n)
	parallelChunks(n, workers, func(start, end int) {
		row := make([]float64, n)
		for i := start; i < end; i++ {
			copy(row, dist[i*n:(i+1)*n])
			sort.Float64s(row)
			core[i] = row[minPts-1]
		}
	})
	return core
}

// treeCoreDistances computes core distances with kNN queries against a
// spatial index, counting each point as its own nearest neighbor. Points in
// data sets smaller than minPts get +Inf.
func treeCoreDistances(tree *KDTree, minPts, workers int) []float64 {
	return allCoreDistances(&treeFinder{tree: tree}, minPts, workers)
}
