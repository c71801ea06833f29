package dbscan

import (
	"container/heap"
	"math"
	"sort"
)

// SplitRule selects the KD-tree build heuristic.
type SplitRule string

const (
	// SplitSuggest splits the widest dimension near the midpoint of the
	// node's bounding box, sliding the plane when a side would be empty.
	// Bounds cell aspect ratio; the default.
	SplitSuggest SplitRule = "suggest"
	// SplitStandard splits at the median of the widest dimension.
	SplitStandard SplitRule = "standard"
	// SplitCyclic cycles through dimensions by depth, splitting at the median.
	SplitCyclic SplitRule = "cyclic"
)

// treeNode is one slot in the KD-tree arena. Internal nodes store child
// arena indices; leaves hold a bucket of positions into the permutation
// array. Points are referenced by index, never copied per node.
type treeNode struct {
	Start, End  int // range into the permutation array
	SplitDim    int
	SplitVal    float64
	Left, Right int // arena indices; -1 on leaves
	Parent      int // arena index; -1 at the root
	Leaf        bool
}

// KDTree is a KD-tree spatial index for k-nearest-neighbor and fixed-radius
// queries. Points are stored in a flat row-major array and reordered via an
// index permutation; the tree itself is an arena of nodes addressed by index.
//
// The tree is immutable after construction and safe for concurrent queries.
type KDTree struct {
	data       []float64 // flat row-major point data (n * dims)
	n          int
	dims       int
	bucketSize int
	rule       SplitRule
	metric     DistanceMetric
	idx        []int      // permutation: tree-order position → original index
	nodes      []treeNode // arena
	// boundsMin[node*dims + j] = min value of feature j in node
	boundsMin []float64
	// boundsMax[node*dims + j] = max value of feature j in node
	boundsMax []float64
}

// NewKDTree builds a KD-tree from flat row-major data with n points of
// dimensionality dims. bucketSize controls the max points per leaf.
// An empty point set yields a tree that answers every query with empty
// results; callers that consider empty input an error reject it upstream.
func NewKDTree(data []float64, n, dims int, metric DistanceMetric, bucketSize int, rule SplitRule) *KDTree {
	if bucketSize < 1 {
		bucketSize = 1
	}
	if rule == "" {
		rule = SplitSuggest
	}

	dataCopy := make([]float64, len(data))
	copy(dataCopy, data)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	t := &KDTree{
		data:       dataCopy,
		n:          n,
		dims:       dims,
		bucketSize: bucketSize,
		rule:       rule,
		metric:     metric,
		idx:        idx,
	}

	if n > 0 {
		t.build(-1, 0, n, 0)
	}

	return t
}

// newNode appends an arena slot and returns its index.
func (t *KDTree) newNode(parent, start, end int) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, treeNode{
		Start: start, End: end,
		Left: -1, Right: -1, Parent: parent,
	})
	t.boundsMin = append(t.boundsMin, make([]float64, t.dims)...)
	t.boundsMax = append(t.boundsMax, make([]float64, t.dims)...)
	return id
}

// build recursively constructs the subtree for points idx[start:end].
func (t *KDTree) build(parent, start, end, depth int) int {
	id := t.newNode(parent, start, end)
	t.computeNodeBounds(id, start, end)

	if end-start <= t.bucketSize {
		t.nodes[id].Leaf = true
		return id
	}

	dim, mid, val := t.chooseSplit(id, start, end, depth)
	t.nodes[id].SplitDim = dim
	t.nodes[id].SplitVal = val

	left := t.build(id, start, mid, depth+1)
	right := t.build(id, mid, end, depth+1)
	t.nodes[id].Left = left
	t.nodes[id].Right = right
	return id
}

// chooseSplit applies the configured split rule and returns the split
// dimension, the partition point in the permutation array, and the split value.
// The subrange idx[start:end] is sorted along the chosen dimension on return.
func (t *KDTree) chooseSplit(id, start, end, depth int) (dim, mid int, val float64) {
	count := end - start

	switch t.rule {
	case SplitCyclic:
		dim = depth % t.dims
		t.sortByDimension(start, end, dim)
		mid = start + count/2

	case SplitStandard:
		dim = t.widestDimension(id)
		t.sortByDimension(start, end, dim)
		mid = start + count/2

	default: // SplitSuggest: sliding midpoint on the widest dimension
		dim = t.widestDimension(id)
		base := id * t.dims
		val = (t.boundsMin[base+dim] + t.boundsMax[base+dim]) / 2
		t.sortByDimension(start, end, dim)
		cut := val
		mid = start + sort.Search(count, func(i int) bool {
			return t.coord(t.idx[start+i], dim) >= cut
		})
		// Slide the plane so neither side is empty.
		if mid == start {
			mid = start + 1
		} else if mid == end {
			mid = end - 1
		}
	}

	val = t.coord(t.idx[mid], dim)
	return dim, mid, val
}

// widestDimension returns the dimension of greatest spread in the node.
func (t *KDTree) widestDimension(id int) int {
	base := id * t.dims
	dim := 0
	maxSpread := -1.0
	for d := 0; d < t.dims; d++ {
		spread := t.boundsMax[base+d] - t.boundsMin[base+d]
		if spread > maxSpread {
			maxSpread = spread
			dim = d
		}
	}
	return dim
}

// computeNodeBounds computes min/max per dimension for points idx[start:end].
func (t *KDTree) computeNodeBounds(id, start, end int) {
	base := id * t.dims
	for d := 0; d < t.dims; d++ {
		t.boundsMin[base+d] = math.Inf(1)
		t.boundsMax[base+d] = math.Inf(-1)
	}
	for i := start; i < end; i++ {
		p := t.idx[i]
		for d := 0; d < t.dims; d++ {
			v := t.data[p*t.dims+d]
			if v < t.boundsMin[base+d] {
				t.boundsMin[base+d] = v
			}
			if v > t.boundsMax[base+d] {
				t.boundsMax[base+d] = v
			}
		}
	}
}

// sortByDimension sorts idx[start:end] by the given dimension.
// Ties fall back to point index so builds are deterministic.
func (t *KDTree) sortByDimension(start, end, dim int) {
	sub := t.idx[start:end]
	dims := t.dims
	data := t.data
	sort.Slice(sub, func(i, j int) bool {
		a, b := data[sub[i]*dims+dim], data[sub[j]*dims+dim]
		if a != b {
			return a < b
		}
		return sub[i] < sub[j]
	})
}

func (t *KDTree) coord(point, dim int) float64 { return t.data[point*t.dims+dim] }

func (t *KDTree) point(p int) []float64 { return t.data[p*t.dims : (p+1)*t.dims] }

// --- accessors ---

func (t *KDTree) Data() []float64 { return t.data }
func (t *KDTree) NumPoints() int  { return t.n }
func (t *KDTree) NumFeatures() int { return t.dims }
func (t *KDTree) IdxArray() []int { return t.idx }
func (t *KDTree) NumNodes() int   { return len(t.nodes) }

// ChildNodes returns the left and right child arena indices.
// Both are -1 for leaves.
func (t *KDTree) ChildNodes(node int) (left, right int) {
	return t.nodes[node].Left, t.nodes[node].Right
}

// --- queries ---

// QueryKNN returns the k nearest neighbors of q, sorted by ascending
// distance. A query point coincident with an indexed point includes that
// point at distance 0. k >= n returns all points. approx >= 0 relaxes
// subtree pruning by a (1+approx) relative error factor; approx = 0 is exact.
func (t *KDTree) QueryKNN(q []float64, k int, approx float64) ([]int, []float64) {
	if t.n == 0 || k <= 0 {
		return nil, nil
	}
	if k > t.n {
		k = t.n
	}

	h := make(knnHeap, 0, k)
	boundFactor := t.metric.DistToRdist(1 + approx)
	t.knnSearch(0, q, k, &h, boundFactor)

	nResults := h.Len()
	indices := make([]int, nResults)
	distances := make([]float64, nResults)
	for i := nResults - 1; i >= 0; i-- {
		item := heap.Pop(&h).(knnItem)
		indices[i] = item.index
		distances[i] = item.dist
	}
	return indices, distances
}

// knnSearch performs a branch-and-bound traversal maintaining a bounded
// max-heap of the best k candidates.
func (t *KDTree) knnSearch(nodeID int, q []float64, k int, h *knnHeap, boundFactor float64) {
	node := t.nodes[nodeID]

	if node.Leaf {
		for i := node.Start; i < node.End; i++ {
			p := t.idx[i]
			d := t.metric.Distance(q, t.point(p))
			if h.Len() < k {
				heap.Push(h, knnItem{index: p, dist: d})
			} else if d < (*h)[0].dist {
				(*h)[0] = knnItem{index: p, dist: d}
				heap.Fix(h, 0)
			}
		}
		return
	}

	leftRdist := t.minRdistPoint(node.Left, q)
	rightRdist := t.minRdistPoint(node.Right, q)

	near, nearRdist := node.Left, leftRdist
	far, farRdist := node.Right, rightRdist
	if rightRdist < leftRdist {
		near, nearRdist = node.Right, rightRdist
		far, farRdist = node.Left, leftRdist
	}

	if h.Len() < k || nearRdist*boundFactor < t.metric.DistToRdist((*h)[0].dist) {
		t.knnSearch(near, q, k, h, boundFactor)
	}
	if h.Len() < k || farRdist*boundFactor < t.metric.DistToRdist((*h)[0].dist) {
		t.knnSearch(far, q, k, h, boundFactor)
	}
}

// QueryRadius returns all points within eps of q. Sorting by distance is
// opt-in since it is avoidable cost when only counts are needed. approx >= 0
// relaxes pruning and may miss candidates near the boundary; points returned
// are always genuinely within eps.
func (t *KDTree) QueryRadius(q []float64, eps float64, sorted bool, approx float64) ([]int, []float64) {
	if t.n == 0 || eps < 0 {
		return nil, nil
	}

	rEps := t.metric.DistToRdist(eps)
	boundFactor := t.metric.DistToRdist(1 + approx)

	var indices []int
	var distances []float64
	t.radiusSearch(0, q, eps, rEps, boundFactor, &indices, &distances)

	if sorted {
		order := make([]int, len(indices))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(i, j int) bool {
			a, b := order[i], order[j]
			if distances[a] != distances[b] {
				return distances[a] < distances[b]
			}
			return indices[a] < indices[b]
		})
		sortedIdx := make([]int, len(indices))
		sortedDist := make([]float64, len(distances))
		for i, o := range order {
			sortedIdx[i] = indices[o]
			sortedDist[i] = distances[o]
		}
		return sortedIdx, sortedDist
	}

	return indices, distances
}

func (t *KDTree) radiusSearch(nodeID int, q []float64, eps, rEps, boundFactor float64,
	indices *[]int, distances *[]float64,
) {
	if t.minRdistPoint(nodeID, q)*boundFactor > rEps {
		return
	}

	node := t.nodes[nodeID]
	if node.Leaf {
		for i := node.Start; i < node.End; i++ {
			p := t.idx[i]
			d := t.metric.Distance(q, t.point(p))
			if d <= eps {
				*indices = append(*indices, p)
				*distances = append(*distances, d)
			}
		}
		return
	}

	t.radiusSearch(node.Left, q, eps, rEps, boundFactor, indices, distances)
	t.radiusSearch(node.Right, q, eps, rEps, boundFactor, indices, distances)
}

// --- bounding-box distance lower bounds ---

// minRdistPoint returns a lower bound in reduced-distance space on the
// distance between a point and any point in the given node.
func (t *KDTree) minRdistPoint(node int, q []float64) float64 {
	base := node * t.dims

	if _, ok := t.metric.(ChebyshevMetric); ok {
		var rdist float64
		for j := 0; j < t.dims; j++ {
			if d := boxGap(q[j], t.boundsMin[base+j], t.boundsMax[base+j]); d > rdist {
				rdist = d
			}
		}
		return rdist
	}

	p := metricP(t.metric)
	var rdist float64
	for j := 0; j < t.dims; j++ {
		d := boxGap(q[j], t.boundsMin[base+j], t.boundsMax[base+j])
		switch p {
		case 2.0:
			rdist += d * d
		case 1.0:
			rdist += d
		default:
			rdist += math.Pow(d, p)
		}
	}
	return rdist
}

// minRdistDual returns a lower bound in reduced-distance space on the
// distance between any point in node1 and any point in node2.
func (t *KDTree) minRdistDual(node1, node2 int) float64 {
	base1 := node1 * t.dims
	base2 := node2 * t.dims

	if _, ok := t.metric.(ChebyshevMetric); ok {
		var rdist float64
		for j := 0; j < t.dims; j++ {
			d := intervalGap(
				t.boundsMin[base1+j], t.boundsMax[base1+j],
				t.boundsMin[base2+j], t.boundsMax[base2+j],
			)
			if d > rdist {
				rdist = d
			}
		}
		return rdist
	}

	p := metricP(t.metric)
	var rdist float64
	for j := 0; j < t.dims; j++ {
		d := intervalGap(
			t.boundsMin[base1+j], t.boundsMax[base1+j],
			t.boundsMin[base2+j], t.boundsMax[base2+j],
		)
		switch p {
		case 2.0:
			rdist += d * d
		case 1.0:
			rdist += d
		default:
			rdist += math.Pow(d, p)
		}
	}
	return rdist
}

// boxGap is the distance from a coordinate to the interval [lo, hi].
func boxGap(v, lo, hi float64) float64 {
	if v < lo {
		return lo - v
	}
	if v > hi {
		return v - hi
	}
	return 0
}

// intervalGap is the gap between intervals [lo1,hi1] and [lo2,hi2].
func intervalGap(lo1, hi1, lo2, hi2 float64) float64 {
	if d := lo1 - hi2; d > 0 {
		return d
	}
	if d := lo2 - hi1; d > 0 {
		return d
	}
	return 0
}

// --- max-heap for KNN queries ---

type knnItem struct {
	index int
	dist  float64
}

// knnHeap is a max-heap of knnItem (largest distance on top) used as a
// bounded priority queue for KNN queries.
type knnHeap []knnItem

func (h knnHeap) Len() int           { return len(h) }
func (h knnHeap) Less(i, j int) bool { return h[i].dist > h[j].dist } // max-heap
func (h knnHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *knnHeap) Push(x interface{}) { *h = append(*h, x.(knnItem)) }
func (h *knnHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
