package dbscan

// MSTStrategy selects how the mutual reachability minimum spanning tree is
// built.
type MSTStrategy string

const (
	// MSTAuto picks dual-tree Borůvka for low-dimensional data and
	// matrix-free Prim otherwise.
	MSTAuto MSTStrategy = "auto"
	// MSTBrute materializes the full n*n mutual reachability matrix.
	MSTBrute MSTStrategy = "brute"
	// MSTPrim runs Prim's algorithm with distances computed on the fly.
	MSTPrim MSTStrategy = "prim"
	// MSTBoruvka runs dual-tree Borůvka over the kd-tree.
	MSTBoruvka MSTStrategy = "boruvka"
)

// SelectionEOM and SelectionLeaf are the flat-cluster extraction methods.
const (
	SelectionEOM  = "eom"
	SelectionLeaf = "leaf"
)

// HDBSCANConfig controls hierarchical density-based clustering. Start from
// [DefaultHDBSCANConfig] and override what you need.
type HDBSCANConfig struct {
	// MinClusterSize is the smallest point count accepted as a cluster.
	// Must be >= 2. Default: 5.
	MinClusterSize int

	// MinPts sets the core distance neighborhood size, counting the point
	// itself. Larger values treat more points as noise. 0 defaults to
	// MinClusterSize.
	MinPts int

	// SelectionMethod is "eom" (excess of mass, the default) or "leaf".
	SelectionMethod string

	// AllowSingleCluster permits the hierarchy root itself to be selected.
	AllowSingleCluster bool

	// SelectionEpsilon merges selected clusters born below this distance
	// threshold into their ancestors. 0 disables the threshold.
	SelectionEpsilon float64

	// SelectionPersistence prunes clusters whose lambda lifespan in the
	// condensed tree falls below this value. 0 disables pruning.
	SelectionPersistence float64

	// MST picks the spanning tree construction strategy. Default: MSTAuto.
	MST MSTStrategy

	// Metric is the distance function. Default: EuclideanMetric.
	Metric DistanceMetric

	// BucketSize is the kd-tree leaf capacity. Default: 10.
	BucketSize int

	// SplitRule is the kd-tree splitting rule. Default: SplitSuggest.
	SplitRule SplitRule

	// Workers bounds goroutines for the parallel stages. 0 means NumCPU.
	Workers int
}

// HDBSCANResult holds the clustering output. Labels use 0 for noise and
// contiguous cluster IDs 1..k.
type HDBSCANResult struct {
	Labels []int

	// Probabilities scores each point's attachment to its cluster in [0, 1].
	// Noise points score 0.
	Probabilities []float64

	// Stabilities maps output cluster IDs to their excess-of-mass stability.
	Stabilities map[int]float64

	// OutlierScores holds the GLOSH outlier score of every point in [0, 1].
	OutlierScores []float64

	// CondensedTree is the pruned cluster hierarchy, for inspection or
	// custom extraction.
	CondensedTree []CondensedTreeEntry

	// Dendrogram is the full single-linkage tree in scipy linkage format:
	// rows of [left, right, distance, mergedSize], synthetic cluster IDs
	// starting at n.
	Dendrogram [][4]float64
}

// NumClusters returns the number of clusters in the result.
func (r *HDBSCANResult) NumClusters() int {
	return len(r.Stabilities)
}

// DefaultHDBSCANConfig returns the baseline configuration.
func DefaultHDBSCANConfig() HDBSCANConfig {
	return HDBSCANConfig{
		MinClusterSize:  5,
		SelectionMethod: SelectionEOM,
		MST:             MSTAuto,
		Metric:          EuclideanMetric{},
		BucketSize:      10,
		SplitRule:       SplitSuggest,
	}
}

func (cfg *HDBSCANConfig) applyDefaults() {
	if cfg.MinClusterSize == 0 {
		cfg.MinClusterSize = 5
	}
	if cfg.MinPts == 0 {
		cfg.MinPts = cfg.MinClusterSize
	}
	if cfg.SelectionMethod == "" {
		cfg.SelectionMethod = SelectionEOM
	}
	if cfg.MST == "" {
		cfg.MST = MSTAuto
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

func (cfg *HDBSCANConfig) validate() error {
	if cfg.MinClusterSize < 2 {
		return configErrorf("MinClusterSize", "must be >= 2, got %d", cfg.MinClusterSize)
	}
	if cfg.MinPts < 1 {
		return configErrorf("MinPts", "must be >= 1, got %d", cfg.MinPts)
	}
	if cfg.SelectionMethod != SelectionEOM && cfg.SelectionMethod != SelectionLeaf {
		return configErrorf("SelectionMethod", "must be %q or %q, got %q",
			SelectionEOM, SelectionLeaf, cfg.SelectionMethod)
	}
	if cfg.SelectionEpsilon < 0 {
		return configErrorf("SelectionEpsilon", "must be >= 0, got %g", cfg.SelectionEpsilon)
	}
	if cfg.SelectionPersistence < 0 {
		return configErrorf("SelectionPersistence", "must be >= 0, got %g", cfg.SelectionPersistence)
	}
	switch cfg.MST {
	case MSTAuto, MSTBrute, MSTPrim, MSTBoruvka:
	default:
		return configErrorf("MST", "unknown strategy %q", cfg.MST)
	}
	return validateIndexOptions(cfg.Metric, cfg.BucketSize, cfg.SplitRule, 0)
}

// HDBSCAN clusters data hierarchically by density. Each row of data is one
// point; all rows must share the same dimensionality.
func HDBSCAN(data [][]float64, cfg HDBSCANConfig) (*HDBSCANResult, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	flat, n, dims, err := flattenPoints(data)
	if err != nil {
		return nil, err
	}
	if n == 1 {
		return emptyHDBSCANResult(1), nil
	}

	minPts := cfg.MinPts
	if minPts > n {
		minPts = n
	}

	strategy := cfg.MST
	if strategy == MSTAuto {
		if dims <= 60 {
			strategy = MSTBoruvka
		} else {
			strategy = MSTPrim
		}
	}

	logger.Debug("hdbscan start",
		"points", n, "dims", dims, "minPts", minPts,
		"minClusterSize", cfg.MinClusterSize, "mst", string(strategy))

	var mstEdges [][3]float64
	switch strategy {
	case MSTBrute:
		dist := pairwiseDistances(flat, n, dims, cfg.Metric, cfg.Workers)
		core := matrixCoreDistances(dist, n, minPts, cfg.Workers)
		mr := mutualReachability(dist, core, n, cfg.Workers)
		mstEdges = primMSTDense(mr, n)
	case MSTPrim:
		tree := NewKDTree(flat, n, dims, cfg.Metric, cfg.BucketSize, cfg.SplitRule)
		core := treeCoreDistances(tree, minPts, cfg.Workers)
		mstEdges = primMSTVector(flat, n, dims, core, cfg.Metric)
	default: // MSTBoruvka
		tree := NewKDTree(flat, n, dims, cfg.Metric, cfg.BucketSize, cfg.SplitRule)
		b := newBoruvkaMST(tree, cfg.Metric, minPts, cfg.Workers)
		mstEdges, _ = b.spanningTree()
	}

	return hdbscanFromMST(mstEdges, n, &cfg), nil
}

// HDBSCANPrecomputed clusters from a flat row-major n*n distance matrix.
// The Metric, BucketSize and SplitRule fields are ignored.
func HDBSCANPrecomputed(dist []float64, n int, cfg HDBSCANConfig) (*HDBSCANResult, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := validateDistMatrix(dist, n); err != nil {
		return nil, err
	}
	if n == 1 {
		return emptyHDBSCANResult(1), nil
	}

	minPts := cfg.MinPts
	if minPts > n {
		minPts = n
	}

	core := matrixCoreDistances(dist, n, minPts, cfg.Workers)
	mr := mutualReachability(dist, core, n, cfg.Workers)
	mstEdges := primMSTDense(mr, n)
	return hdbscanFromMST(mstEdges, n, &cfg), nil
}

func emptyHDBSCANResult(n int) *HDBSCANResult {
	return &HDBSCANResult{
		Labels:        make([]int, n),
		Probabilities: make([]float64, n),
		Stabilities:   map[int]float64{},
		OutlierScores: make([]float64, n),
	}
}

// hdbscanFromMST runs the pipeline from spanning tree edges onward:
// dendrogram, condensed tree, stability, selection, flat labels, GLOSH.
func hdbscanFromMST(mstEdges [][3]float64, n int, cfg *HDBSCANConfig) *HDBSCANResult {
	dendrogram := buildDendrogram(mstEdges, n)
	condensed := condenseTree(dendrogram, cfg.MinClusterSize)
	if len(condensed) == 0 {
		r := emptyHDBSCANResult(n)
		r.Dendrogram = dendrogram
		return r
	}

	stability := computeStability(condensed)
	if cfg.SelectionPersistence > 0 {
		condensed = simplifyHierarchy(condensed, cfg.SelectionPersistence)
		stability = computeStability(condensed)
	}

	var selected map[int]bool
	switch cfg.SelectionMethod {
	case SelectionLeaf:
		selected = selectClustersLeaf(condensed, cfg.SelectionEpsilon)
	default:
		selected, stability = selectClustersEOM(condensed, stability, cfg.AllowSingleCluster)
		if cfg.SelectionEpsilon > 0 {
			selected = epsilonSearch(condensed, selected, cfg.SelectionEpsilon, cfg.AllowSingleCluster)
		}
	}

	labels, probabilities, labelOf := labelsAndProbabilities(
		condensed, selected, n, cfg.AllowSingleCluster, cfg.SelectionEpsilon)

	stabilities := make(map[int]float64, len(labelOf))
	for cluster, label := range labelOf {
		stabilities[label] = stability[cluster]
	}

	numClusters := len(stabilities)
	logger.Debug("hdbscan done", "points", n, "clusters", numClusters)

	return &HDBSCANResult{
		Labels:        labels,
		Probabilities: probabilities,
		Stabilities:   stabilities,
		OutlierScores: gloshScores(condensed, n),
		CondensedTree: condensed,
		Dendrogram:    dendrogram,
	}
}
