package dbscan

import (
	"container/heap"
	"math"
)

// OPTICSConfig controls the OPTICS ordering computation.
type OPTICSConfig struct {
	// Eps is the upper neighborhood radius. 0 means unbounded, at the cost
	// of larger neighborhoods per processed point.
	Eps float64

	// MinPts is the neighborhood size (including the point itself) used for
	// core distances. Must be >= 1. Default: 5.
	MinPts int

	// Metric is the distance function. Default: EuclideanMetric.
	Metric DistanceMetric

	// BucketSize and SplitRule tune KD-tree construction.
	// Defaults: 10, SplitSuggest.
	BucketSize int
	SplitRule  SplitRule

	// Approx relaxes neighbor search by a relative error factor. Default: 0.
	Approx float64

	// Workers is the goroutine count for core-distance precomputation.
	// 0 means all CPUs. The priority-ordered traversal itself is sequential
	// to keep tie-breaking deterministic.
	Workers int
}

// DefaultOPTICSConfig returns an OPTICSConfig with reasonable defaults.
func DefaultOPTICSConfig() OPTICSConfig {
	return OPTICSConfig{
		MinPts:     5,
		Metric:     EuclideanMetric{},
		BucketSize: 10,
		SplitRule:  SplitSuggest,
	}
}

func (cfg *OPTICSConfig) applyDefaults() {
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

func (cfg *OPTICSConfig) validate() error {
	if cfg.Eps < 0 {
		return configErrorf("Eps", "must be >= 0 (0 means unbounded), got %g", cfg.Eps)
	}
	if cfg.MinPts < 1 {
		return configErrorf("MinPts", "must be >= 1, got %d", cfg.MinPts)
	}
	return validateIndexOptions(cfg.Metric, cfg.BucketSize, cfg.SplitRule, cfg.Approx)
}

// OPTICSResult is a reachability-ordered traversal of the point set.
// Cluster structure appears as valleys in the reachability plot; flat or
// hierarchical clusterings are extracted with [OPTICSResult.ExtractDBSCAN]
// and [OPTICSResult.ExtractXi].
type OPTICSResult struct {
	// Order is the permutation of point indices in processing order.
	Order []int

	// ReachDist[i] is the reachability distance of point i (+Inf for the
	// first point of each density-connected component).
	ReachDist []float64

	// CoreDist[i] is the core distance of point i: the distance to its
	// MinPts-th neighbor counting itself, or +Inf if the eps-neighborhood
	// has fewer than MinPts members.
	CoreDist []float64

	// Predecessor[i] is the point from which i was reached, or -1.
	Predecessor []int

	// Eps and MinPts echo the generating parameters; extraction uses them.
	Eps    float64
	MinPts int
}

// OPTICS computes a reachability ordering of data. The ordering itself is
// not a clustering; use ExtractDBSCAN or ExtractXi on the result.
func OPTICS(data [][]float64, cfg OPTICSConfig) (*OPTICSResult, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	flat, n, dims, err := flattenPoints(data)
	if err != nil {
		return nil, err
	}

	finder := newTreeFinder(flat, n, dims, cfg.Metric, cfg.BucketSize, cfg.SplitRule, cfg.Approx)
	return opticsRun(finder, cfg), nil
}

// OPTICSPrecomputed computes the ordering from a precomputed distance
// matrix (flat row-major, length n*n), using brute-force neighborhoods.
func OPTICSPrecomputed(dist []float64, n int, cfg OPTICSConfig) (*OPTICSResult, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := validateDistMatrix(dist, n); err != nil {
		return nil, err
	}

	return opticsRun(newMatrixFinder(dist, n), cfg), nil
}

func opticsRun(finder neighborFinder, cfg OPTICSConfig) *OPTICSResult {
	n := finder.numPoints()
	eps := cfg.Eps
	if eps == 0 {
		eps = math.Inf(1)
	}

	// Core distances are independent per point; compute them in parallel
	// before the sequential traversal.
	core := allCoreDistances(finder, cfg.MinPts, resolveWorkers(cfg.Workers))
	for i := range core {
		if core[i] > eps {
			core[i] = math.Inf(1) // fewer than MinPts neighbors within eps
		}
	}

	reach := make([]float64, n)
	pred := make([]int, n)
	processed := make([]bool, n)
	for i := range reach {
		reach[i] = math.Inf(1)
		pred[i] = -1
	}

	order := make([]int, 0, n)
	pq := newReachQueue(n)

	// process appends p to the ordering and, if p is a core point, updates
	// the reachability of its unprocessed neighbors downward.
	process := func(p int) {
		processed[p] = true
		order = append(order, p)
		if math.IsInf(core[p], 1) {
			return
		}
		nbrIdx, nbrDist := finder.radiusNeighbors(p, eps, false)
		for j, o := range nbrIdx {
			if processed[o] {
				continue
			}
			newReach := nbrDist[j]
			if core[p] > newReach {
				newReach = core[p]
			}
			if newReach < reach[o] {
				reach[o] = newReach
				pred[o] = p
				pq.update(o, newReach)
			}
		}
	}

	for i := 0; i < n; i++ {
		if processed[i] {
			continue
		}
		process(i)
		for pq.Len() > 0 {
			process(pq.popMin())
		}
	}

	return &OPTICSResult{
		Order:       order,
		ReachDist:   reach,
		CoreDist:    core,
		Predecessor: pred,
		Eps:         eps,
		MinPts:      cfg.MinPts,
	}
}

// --- updatable min-priority queue keyed by reachability ---

type reachItem struct {
	point int
	reach float64
	seq   int // insertion order, breaks reachability ties deterministically
}

// reachQueue is an indexed min-heap supporting decrease-key via heap.Fix.
type reachQueue struct {
	items []reachItem
	pos   []int // point index → heap position, -1 if absent
	seq   int
}

func newReachQueue(n int) *reachQueue {
	pos := make([]int, n)
	for i := range pos {
		pos[i] = -1
	}
	return &reachQueue{pos: pos}
}

func (q *reachQueue) Len() int { return len(q.items) }

func (q *reachQueue) Less(i, j int) bool {
	if q.items[i].reach != q.items[j].reach {
		return q.items[i].reach < q.items[j].reach
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *reachQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.pos[q.items[i].point] = i
	q.pos[q.items[j].point] = j
}

func (q *reachQueue) Push(x interface{}) {
	item := x.(reachItem)
	q.pos[item.point] = len(q.items)
	q.items = append(q.items, item)
}

func (q *reachQueue) Pop() interface{} {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[:n-1]
	q.pos[item.point] = -1
	return item
}

// update inserts the point or decreases its key; reachability only ever
// moves downward.
func (q *reachQueue) update(point int, reach float64) {
	if i := q.pos[point]; i >= 0 {
		q.items[i].reach = reach
		heap.Fix(q, i)
		return
	}
	q.seq++
	heap.Push(q, reachItem{point: point, reach: reach, seq: q.seq})
}

func (q *reachQueue) popMin() int {
	return heap.Pop(q).(reachItem).point
}
