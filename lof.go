package dbscan

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// LOFConfig controls local outlier factor scoring.
type LOFConfig struct {
	// MinPts is the neighborhood size used for k-distances and local
	// reachability density. Must be >= 1. Default: 20.
	MinPts int

	// Metric is the distance function. Default: EuclideanMetric.
	Metric DistanceMetric

	// BucketSize is the kd-tree leaf capacity. Default: 10.
	BucketSize int

	// SplitRule is the kd-tree splitting rule. Default: SplitSuggest.
	SplitRule SplitRule

	// Approx relaxes kNN pruning by a (1+Approx) distance factor; scores
	// lose their exactness guarantee in exchange for faster queries.
	Approx float64

	// Workers bounds goroutines for the query stages. 0 means NumCPU.
	Workers int
}

// DefaultLOFConfig returns the baseline configuration.
func DefaultLOFConfig() LOFConfig {
	return LOFConfig{
		MinPts:     20,
		Metric:     EuclideanMetric{},
		BucketSize: 10,
		SplitRule:  SplitSuggest,
	}
}

func (cfg *LOFConfig) applyDefaults() {
	if cfg.MinPts == 0 {
		cfg.MinPts = 20
	}
	if cfg.Metric == nil {
		cfg.Metric = EuclideanMetric{}
	}
	if cfg.BucketSize == 0 {
		cfg.BucketSize = 10
	}
	if cfg.SplitRule == "" {
		cfg.SplitRule = SplitSuggest
	}
	cfg.Workers = resolveWorkers(cfg.Workers)
}

func (cfg *LOFConfig) validate() error {
	if cfg.MinPts < 1 {
		return configErrorf("MinPts", "must be >= 1, got %d", cfg.MinPts)
	}
	return validateIndexOptions(cfg.Metric, cfg.BucketSize, cfg.SplitRule, cfg.Approx)
}

// LOF computes the local outlier factor of every point: the ratio of the
// average local reachability density of a point's neighbors to its own.
// Scores near 1 mark points of locally typical density; scores well above 1
// mark outliers. Each row of data is one point.
func LOF(data [][]float64, cfg LOFConfig) ([]float64, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	flat, n, dims, err := flattenPoints(data)
	if err != nil {
		return nil, err
	}

	finder := newTreeFinder(flat, n, dims, cfg.Metric, cfg.BucketSize, cfg.SplitRule, cfg.Approx)
	return lofRun(finder, n, cfg.MinPts, cfg.Workers), nil
}

// LOFPrecomputed computes local outlier factors from a flat row-major n*n
// distance matrix. The Metric, BucketSize, SplitRule and Approx fields are
// ignored.
func LOFPrecomputed(dist []float64, n int, cfg LOFConfig) ([]float64, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := validateDistMatrix(dist, n); err != nil {
		return nil, err
	}
	return lofRun(newMatrixFinder(dist, n), n, cfg.MinPts, cfg.Workers), nil
}

// lofRun is the two-pass LOF computation: first the kNN neighborhoods and
// local reachability densities, then the density ratios.
func lofRun(finder neighborFinder, n, minPts, workers int) []float64 {
	k := minPts
	if k > n-1 {
		k = n - 1
	}
	if k < 1 {
		// Too few points for any neighborhood; everything scores 1.
		out := make([]float64, n)
		for i := range out {
			out[i] = 1.0
		}
		return out
	}

	// Neighborhoods exclude the query point; k+1 covers its self-match.
	neighbors := make([][]int, n)
	neighborDist := make([][]float64, n)
	kDistance := make([]float64, n)
	parallelChunks(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			idx, dists := finder.kNearest(i, k+1)
			nIdx := make([]int, 0, k)
			nDist := make([]float64, 0, k)
			for j, p := range idx {
				if p == i {
					continue
				}
				nIdx = append(nIdx, p)
				nDist = append(nDist, dists[j])
				if len(nIdx) == k {
					break
				}
			}
			neighbors[i] = nIdx
			neighborDist[i] = nDist
			kDistance[i] = nDist[len(nDist)-1]
		}
	})

	// lrd[i] = 1 / mean reachability distance from i to its neighbors.
	lrd := make([]float64, n)
	parallelChunks(n, workers, func(start, end int) {
		reach := make([]float64, k)
		for i := start; i < end; i++ {
			reach = reach[:len(neighbors[i])]
			for j, o := range neighbors[i] {
				reach[j] = math.Max(kDistance[o], neighborDist[i][j])
			}
			meanReach := stat.Mean(reach, nil)
			if meanReach == 0 {
				lrd[i] = math.Inf(1)
			} else {
				lrd[i] = 1.0 / meanReach
			}
		}
	})

	scores := make([]float64, n)
	parallelChunks(n, workers, func(start, end int) {
		ratios := make([]float64, k)
		for i := start; i < end; i++ {
			ratios = ratios[:len(neighbors[i])]
			for j, o := range neighbors[i] {
				switch {
				case math.IsInf(lrd[o], 1) && math.IsInf(lrd[i], 1):
					// Duplicate-heavy neighborhoods: both densities are
					// infinite, the point is as dense as its neighbors.
					ratios[j] = 1.0
				case math.IsInf(lrd[i], 1):
					ratios[j] = 0.0
				default:
					ratios[j] = lrd[o] / lrd[i]
				}
			}
			scores[i] = stat.Mean(ratios, nil)
		}
	})

	return scores
}
