package dbscan

// pairwiseDistances computes the full n*n distance matrix from flat
// row-major data, in parallel across source rows. Each row range writes
// disjoint cells of the symmetric result.
func pairwiseDistances(data []float64, n, dims int, metric DistanceMetric, workers int) []float64 {
	out := make([]float64, n*n)
	parallelChunks(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			pi := data[i*dims : (i+1)*dims]
			for j := i + 1; j < n; j++ {
				d := metric.Distance(pi, data[j*dims:(j+1)*dims])
				out[i*n+j] = d
				out[j*n+i] = d
			}
		}
	})
	return out
}

// mutualReachability lifts a distance matrix into mutual reachability
// space: mr[i,j] = max(core[i], core[j], dist[i,j]).
func mutualReachability(dist, core []float64, n, workers int) []float64 {
	out := make([]float64, n*n)
	parallelChunks(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			ci := core[i]
			row := dist[i*n : (i+1)*n]
			for j, d := range row {
				if ci > d {
					d = ci
				}
				if core[j] > d {
					d = core[j]
				}
				out[i*n+j] = d
			}
		}
	})
	return out
}
