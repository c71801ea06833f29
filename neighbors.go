package dbscan

import (
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// neighborFinder answers neighborhood queries for indexed points. It is the
// thin query layer every clustering algorithm runs against; implementations
// hold no state beyond a reference to the index (or matrix) they query.
//
// Self-queries include the query point itself, so radius results always
// contain (i, 0) and kNearest's first entry is i (barring exact duplicates
// at distance 0, which may order before it).
type neighborFinder interface {
	numPoints() int

	// radiusNeighbors returns all points within eps of point i.
	radiusNeighbors(i int, eps float64, sorted bool) ([]int, []float64)

	// kNearest returns the k nearest points to point i (self included),
	// sorted by ascending distance. Fewer than k results only when k > n.
	kNearest(i, k int) ([]int, []float64)
}

// treeFinder answers queries against a KD-tree.
type treeFinder struct {
	tree   *KDTree
	approx float64
}

func newTreeFinder(flat []float64, n, dims int, metric DistanceMetric,
	bucketSize int, rule SplitRule, approx float64,
) *treeFinder {
	return &treeFinder{
		tree:   NewKDTree(flat, n, dims, metric, bucketSize, rule),
		approx: approx,
	}
}

func (f *treeFinder) numPoints() int { return f.tree.NumPoints() }

func (f *treeFinder) radiusNeighbors(i int, eps float64, sorted bool) ([]int, []float64) {
	return f.tree.QueryRadius(f.tree.point(i), eps, sorted, f.approx)
}

func (f *treeFinder) kNearest(i, k int) ([]int, []float64) {
	return f.tree.QueryKNN(f.tree.point(i), k, f.approx)
}

// matrixFinder answers queries by scanning rows of a precomputed n×n
// distance matrix; a distance matrix already is the exhaustive pairwise
// information, so brute force is the natural path.
type matrixFinder struct {
	dist []float64 // flat row-major n*n
	n    int
}

func newMatrixFinder(dist []float64, n int) *matrixFinder {
	return &matrixFinder{dist: dist, n: n}
}

func (f *matrixFinder) numPoints() int { return f.n }

func (f *matrixFinder) radiusNeighbors(i int, eps float64, sorted bool) ([]int, []float64) {
	var indices []int
	var distances []float64
	row := f.dist[i*f.n : (i+1)*f.n]
	for j, d := range row {
		if d <= eps {
			indices = append(indices, j)
			distances = append(distances, d)
		}
	}
	if sorted {
		order := make([]int, len(indices))
		for k := range order {
			order[k] = k
		}
		sort.Slice(order, func(a, b int) bool {
			x, y := order[a], order[b]
			if distances[x] != distances[y] {
				return distances[x] < distances[y]
			}
			return indices[x] < indices[y]
		})
		si := make([]int, len(indices))
		sd := make([]float64, len(distances))
		for k, o := range order {
			si[k] = indices[o]
			sd[k] = distances[o]
		}
		return si, sd
	}
	return indices, distances
}

func (f *matrixFinder) kNearest(i, k int) ([]int, []float64) {
	if k <= 0 {
		return nil, nil
	}
	if k > f.n {
		k = f.n
	}
	row := f.dist[i*f.n : (i+1)*f.n]
	order := make([]int, f.n)
	for j := range order {
		order[j] = j
	}
	sort.Slice(order, func(a, b int) bool {
		if row[order[a]] != row[order[b]] {
			return row[order[a]] < row[order[b]]
		}
		return order[a] < order[b]
	})
	indices := make([]int, k)
	distances := make([]float64, k)
	for j := 0; j < k; j++ {
		indices[j] = order[j]
		distances[j] = row[order[j]]
	}
	return indices, distances
}

// resolveWorkers maps the Workers config convention (0 = all CPUs) to a
// concrete goroutine count.
func resolveWorkers(workers int) int {
	if workers <= 0 {
		return runtime.NumCPU()
	}
	return workers
}

// parallelChunks runs fn over [0,n) split into contiguous chunks with at
// most `workers` goroutines in flight. Chunks write to disjoint output
// slots, so callers need no locking. workers <= 1 runs inline.
func parallelChunks(n, workers int, fn func(start, end int)) {
	if workers <= 1 || n <= 1 {
		fn(0, n)
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)

	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		start, end := start, end
		g.Go(func() error {
			fn(start, end)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors
}

// allRadiusNeighbors runs a radius self-query for every point, data-parallel
// across the immutable index.
func allRadiusNeighbors(f neighborFinder, eps float64, sorted bool, workers int) ([][]int, [][]float64) {
	n := f.numPoints()
	indices := make([][]int, n)
	distances := make([][]float64, n)
	parallelChunks(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			indices[i], distances[i] = f.radiusNeighbors(i, eps, sorted)
		}
	})
	return indices, distances
}

// allKNearest runs a kNN self-query for every point in parallel.
func allKNearest(f neighborFinder, k, workers int) ([][]int, [][]float64) {
	n := f.numPoints()
	indices := make([][]int, n)
	distances := make([][]float64, n)
	parallelChunks(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			indices[i], distances[i] = f.kNearest(i, k)
		}
	})
	return indices, distances
}

// allCoreDistances computes, for every point, the distance to its minPts-th
// nearest neighbor counting the point itself. Points with fewer than minPts
// neighbors get +Inf: not an error, just "never a core point".
func allCoreDistances(f neighborFinder, minPts, workers int) []float64 {
	n := f.numPoints()
	core := make([]float64, n)
	parallelChunks(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			_, dists := f.kNearest(i, minPts)
			if len(dists) < minPts {
				core[i] = math.Inf(1)
			} else {
				core[i] = dists[minPts-1]
			}
		}
	})
	return core
}
