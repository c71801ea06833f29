package dbscan

// DBSCANConfig controls DBSCAN clustering behavior.
// Start with [DefaultDBSCANConfig] and override the fields you need.
type DBSCANConfig struct {
	// Eps is the neighborhood radius. Must be > 0.
	Eps float64

	// MinPts is the minimum neighborhood size (including the point itself)
	// for a point to qualify as a core point. Must be >= 1. Default: 5.
	MinPts int

	// BorderPoints controls whether non-core points within a core point's
	// neighborhood are assigned to that cluster (true) or left as noise
	// (false). Default: true.
	BorderPoints bool

	// Metric is the distance function. Default: EuclideanMetric.
	Metric DistanceMetric

	// BucketSize and SplitRule tune KD-tree construction.
	// Defaults: 10, SplitSuggest.
	BucketSize int
	SplitRule  SplitRule

	// Approx relaxes neighbor search by a relative error factor, trading
	// exactness for speed. Default: 0 (exact).
	Approx float64

	// Workers is the goroutine count for the parallel region-query phase.
	// 0 means all CPUs. The expansion phase is sequential regardless, to
	// preserve deterministic tie-breaking.
	Workers int
}

// DefaultDBSCANConfig returns a DBSCANConfig with reasonable defaults;
// Eps must still be set by the caller.
func DefaultDBSCANConfig() DBSCANConfig {
	return DBSCANConfig{
		MinPts:       5,
		BorderPoints: true,
		Metric:       EuclideanMetric{},
		BucketSize:   10,
		SplitRule:    SplitSuggest,
	}
}

func (cfg *DBSCANConfig) applyDefaults() {
	if cfg.Metric == nil {
		cfg.Metric = EuclideanMetric{}
	}
	if cfg.BucketSize == 0 {
		cfg.BucketSize = 10
	}
	if cfg.SplitRule == "" {
		cfg.SplitRule = SplitSuggest
	}
}

func (cfg *DBSCANConfig) validate() error {
	if cfg.Eps <= 0 {
		return configErrorf("Eps", "must be > 0, got %g", cfg.Eps)
	}
	if cfg.MinPts < 1 {
		return configErrorf("MinPts", "must be >= 1, got %d", cfg.MinPts)
	}
	return validateIndexOptions(cfg.Metric, cfg.BucketSize, cfg.SplitRule, cfg.Approx)
}

// DBSCANResult contains the output of DBSCAN clustering.
type DBSCANResult struct {
	// Labels assigns each point a cluster ID in 1..k, or 0 for noise.
	Labels []int

	// IsCore reports whether each point is a core point.
	IsCore []bool
}

// NumClusters returns the number of clusters found (noise excluded).
func (r *DBSCANResult) NumClusters() int {
	maxLabel := 0
	for _, l := range r.Labels {
		if l > maxLabel {
			maxLabel = l
		}
	}
	return maxLabel
}

// DBSCAN clusters data by density-reachability expansion. Each element of
// data is a point; all points must have the same dimensionality.
func DBSCAN(data [][]float64, cfg DBSCANConfig) (*DBSCANResult, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	flat, n, dims, err := flattenPoints(data)
	if err != nil {
		return nil, err
	}

	finder := newTreeFinder(flat, n, dims, cfg.Metric, cfg.BucketSize, cfg.SplitRule, cfg.Approx)
	return dbscanRun(finder, cfg), nil
}

// DBSCANPrecomputed clusters from a precomputed distance matrix.
// dist is a flat []float64 of length n*n in row-major order. The Metric,
// BucketSize, SplitRule and Approx fields are ignored: with all pairwise
// distances in hand, neighborhoods come from brute-force row scans.
func DBSCANPrecomputed(dist []float64, n int, cfg DBSCANConfig) (*DBSCANResult, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := validateDistMatrix(dist, n); err != nil {
		return nil, err
	}

	return dbscanRun(newMatrixFinder(dist, n), cfg), nil
}

// dbscanRun is the core labeling pass. The region queries are batched and
// data-parallel; the seed-queue expansion is sequential and scans points in
// ascending index order, which fixes the border-point tie-break: a border
// point in reach of core points from two clusters goes to whichever cluster
// reaches it first.
func dbscanRun(finder neighborFinder, cfg DBSCANConfig) *DBSCANResult {
	n := finder.numPoints()

	neighborhoods, _ := allRadiusNeighbors(finder, cfg.Eps, false, resolveWorkers(cfg.Workers))

	isCore := make([]bool, n)
	for i := range isCore {
		isCore[i] = len(neighborhoods[i]) >= cfg.MinPts
	}

	const (
		unclassified = 0
		noise        = -1
	)

	labels := make([]int, n)
	clusterID := 0
	var queue []int

	for i := 0; i < n; i++ {
		if labels[i] != unclassified {
			continue
		}
		if !isCore[i] {
			// Default to noise; a later core point may still reclaim this
			// point as border.
			labels[i] = noise
			continue
		}

		clusterID++
		labels[i] = clusterID

		queue = append(queue[:0], neighborhoods[i]...)
		for qi := 0; qi < len(queue); qi++ {
			q := queue[qi]
			if labels[q] == noise {
				labels[q] = clusterID // promoted to border, not expanded
				continue
			}
			if labels[q] != unclassified {
				continue
			}
			labels[q] = clusterID
			if isCore[q] {
				queue = append(queue, neighborhoods[q]...)
			}
		}
	}

	// Finalize: noise sentinel is 0, and optionally demote border points.
	// Every cluster keeps at least its seeding core point, so cluster IDs
	// stay contiguous either way.
	for i := range labels {
		if labels[i] == noise {
			labels[i] = 0
		} else if !cfg.BorderPoints && !isCore[i] {
			labels[i] = 0
		}
	}

	return &DBSCANResult{Labels: labels, IsCore: isCore}
}
