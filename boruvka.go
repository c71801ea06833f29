package dbscan

import "math"

// boruvkaMST builds the mutual reachability minimum spanning tree with the
// dual-tree Borůvka algorithm over a kd-tree. Each round finds, for every
// connected component, its cheapest outgoing edge in mutual reachability
// space, then merges; the number of components at least halves per round.
//
// All stored distances (core, candidate, node bounds) live in true distance
// space; reduced distances from the tree are converted before comparison.
type boruvkaMST struct {
	tree   *KDTree
	metric DistanceMetric
	minPts int

	n    int
	dims int

	core          []float64
	componentOf   []int // per point, current component root
	candEdgeFrom  []int // per component root
	candEdgeTo    []int
	candDist      []float64
	nodeComponent []int     // per tree node; -1 when mixed
	nodeBound     []float64 // per tree node, true distance

	uf       *pointUnionFind
	numComps int

	edges [][3]float64
}

func newBoruvkaMST(tree *KDTree, metric DistanceMetric, minPts, workers int) *boruvkaMST {
	n := tree.NumPoints()
	b := &boruvkaMST{
		tree:          tree,
		metric:        metric,
		minPts:        minPts,
		n:             n,
		dims:          tree.NumFeatures(),
		core:          make([]float64, n),
		componentOf:   make([]int, n),
		candEdgeFrom:  make([]int, n),
		candEdgeTo:    make([]int, n),
		candDist:      make([]float64, n),
		nodeComponent: make([]int, tree.NumNodes()),
		nodeBound:     make([]float64, tree.NumNodes()),
		uf:            newPointUnionFind(n),
		numComps:      n,
		edges:         make([][3]float64, 0, n-1),
	}
	b.seedFromNeighbors(workers)
	return b
}

// seedFromNeighbors computes core distances and uses the same kNN results to
// give every point an initial candidate edge, which tightens pruning from the
// very first traversal.
func (b *boruvkaMST) seedFromNeighbors(workers int) {
	k := b.minPts
	if k > b.n {
		k = b.n
	}
	if k < 1 {
		k = 1
	}

	knnIdx, knnDist := allKNearest(&treeFinder{tree: b.tree}, k, workers)
	for i := 0; i < b.n; i++ {
		b.core[i] = knnDist[i][k-1]
	}

	for i := 0; i < b.n; i++ {
		b.componentOf[i] = i
		b.candEdgeFrom[i] = -1
		b.candEdgeTo[i] = -1
		b.candDist[i] = math.MaxFloat64
	}
	for i := 0; i < b.n; i++ {
		for j, m := range knnIdx[i] {
			if m == i {
				continue
			}
			d := knnDist[i][j]
			if b.core[i] > d {
				d = b.core[i]
			}
			if b.core[m] > d {
				d = b.core[m]
			}
			if d < b.candDist[i] {
				b.candEdgeFrom[i] = i
				b.candEdgeTo[i] = m
				b.candDist[i] = d
			}
		}
	}

	for i := range b.nodeComponent {
		b.nodeComponent[i] = -1
		b.nodeBound[i] = math.MaxFloat64
	}
	b.mergeCandidates()
}

// componentRoots returns the distinct union-find roots in point order.
func (b *boruvkaMST) componentRoots() []int {
	seen := make(map[int]bool, b.numComps)
	roots := make([]int, 0, b.numComps)
	for i := 0; i < b.n; i++ {
		r := b.uf.find(i)
		if !seen[r] {
			seen[r] = true
			roots = append(roots, r)
		}
	}
	return roots
}

// mergeCandidates commits each component's best candidate edge, then refreshes
// the per-point and per-node component views for the next round. Returns the
// number of components remaining.
func (b *boruvkaMST) mergeCandidates() int {
	for _, root := range b.componentRoots() {
		from, to := b.candEdgeFrom[root], b.candEdgeTo[root]
		if from == -1 || to == -1 {
			continue
		}
		if b.uf.find(from) == b.uf.find(to) {
			b.candEdgeFrom[root] = -1
			b.candEdgeTo[root] = -1
			b.candDist[root] = math.MaxFloat64
			continue
		}

		b.edges = append(b.edges, [3]float64{float64(from), float64(to), b.candDist[root]})
		b.uf.union(from, to)
		b.candDist[root] = math.MaxFloat64

		if len(b.edges) == b.n-1 {
			b.numComps = len(b.componentRoots())
			return b.numComps
		}
	}

	for i := 0; i < b.n; i++ {
		b.componentOf[i] = b.uf.find(i)
	}

	// Settle node components bottom-up: a node belongs to a component only
	// when every point under it does. The arena appends children after
	// parents, so a reverse scan visits children first.
	idx := b.tree.IdxArray()
	for nd := len(b.tree.nodes) - 1; nd >= 0; nd-- {
		node := &b.tree.nodes[nd]
		if node.Leaf {
			if node.Start >= node.End {
				continue
			}
			comp := b.componentOf[idx[node.Start]]
			same := true
			for i := node.Start + 1; i < node.End; i++ {
				if b.componentOf[idx[i]] != comp {
					same = false
					break
				}
			}
			if same {
				b.nodeComponent[nd] = comp
			} else {
				b.nodeComponent[nd] = -1
			}
		} else {
			lc, rc := b.nodeComponent[node.Left], b.nodeComponent[node.Right]
			if lc == rc && lc >= 0 {
				b.nodeComponent[nd] = lc
			} else {
				b.nodeComponent[nd] = -1
			}
		}
	}

	for i := range b.nodeBound {
		b.nodeBound[i] = math.MaxFloat64
	}
	b.numComps = len(b.componentRoots())
	return b.numComps
}

func (b *boruvkaMST) traverse(node1, node2 int) {
	gap := b.metric.RdistToDist(b.tree.minRdistDual(node1, node2))
	if gap >= b.nodeBound[node1] {
		return
	}
	if b.nodeComponent[node1] >= 0 && b.nodeComponent[node1] == b.nodeComponent[node2] {
		return
	}

	n1 := &b.tree.nodes[node1]
	n2 := &b.tree.nodes[node2]

	if n1.Leaf && n2.Leaf {
		b.scanLeafPair(node1, node2)
		return
	}

	// Descend into the larger node; visit the closer child first so its
	// candidates tighten the bound before the farther child is considered.
	if n1.Leaf || (!n2.Leaf && n2.End-n2.Start > n1.End-n1.Start) {
		left, right := n2.Left, n2.Right
		if b.tree.minRdistDual(node1, left) <= b.tree.minRdistDual(node1, right) {
			b.traverse(node1, left)
			b.traverse(node1, right)
		} else {
			b.traverse(node1, right)
			b.traverse(node1, left)
		}
		return
	}

	left, right := n1.Left, n1.Right
	if b.tree.minRdistDual(left, node2) <= b.tree.minRdistDual(right, node2) {
		b.traverse(left, node2)
		b.traverse(right, node2)
	} else {
		b.traverse(right, node2)
		b.traverse(left, node2)
	}
}

// scanLeafPair compares every cross-component point pair between two leaves
// and updates per-component candidates with any cheaper mutual reachability
// edge found.
func (b *boruvkaMST) scanLeafPair(node1, node2 int) {
	idx := b.tree.IdxArray()
	n1 := &b.tree.nodes[node1]
	n2 := &b.tree.nodes[node2]

	worst := 0.0
	for i := n1.Start; i < n1.End; i++ {
		p := idx[i]
		comp1 := b.componentOf[p]

		if b.core[p] > b.candDist[comp1] {
			continue
		}

		for j := n2.Start; j < n2.End; j++ {
			q := idx[j]
			if b.core[q] > b.candDist[comp1] {
				continue
			}
			if comp1 == b.componentOf[q] {
				continue
			}

			mr := b.metric.Distance(b.tree.point(p), b.tree.point(q))
			if b.core[p] > mr {
				mr = b.core[p]
			}
			if b.core[q] > mr {
				mr = b.core[q]
			}
			if mr < b.candDist[comp1] {
				b.candDist[comp1] = mr
				b.candEdgeFrom[comp1] = p
				b.candEdgeTo[comp1] = q
			}
		}

		if b.candDist[comp1] > worst {
			worst = b.candDist[comp1]
		}
	}

	// The leaf needs no pair farther than its worst remaining candidate.
	if worst < b.nodeBound[node1] {
		b.nodeBound[node1] = worst
		b.liftBound(node1)
	}
}

// liftBound propagates a tightened leaf bound toward the root. A parent can
// never need more than the larger of its children's bounds.
func (b *boruvkaMST) liftBound(node int) {
	for {
		parent := b.tree.nodes[node].Parent
		if parent < 0 {
			return
		}
		p := &b.tree.nodes[parent]
		bound := math.Max(b.nodeBound[p.Left], b.nodeBound[p.Right])
		if bound >= b.nodeBound[parent] {
			return
		}
		b.nodeBound[parent] = bound
		node = parent
	}
}

// spanningTree runs Borůvka rounds to completion and returns the MST edges
// plus the core distances computed along the way.
func (b *boruvkaMST) spanningTree() ([][3]float64, []float64) {
	for b.numComps > 1 && len(b.edges) < b.n-1 {
		b.traverse(0, 0)
		b.mergeCandidates()
	}
	core := make([]float64, b.n)
	copy(core, b.core)
	return b.edges, core
}
