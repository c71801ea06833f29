package dbscan

import (
	"math"
	"math/rand"
	"sort"
	"testing"
)

// --- Construction tests ---

func TestKDTree_Construction_BasicProperties(t *testing.T) {
	data := []float64{
		0, 0,
		1, 0,
		2, 0,
		0, 3,
		1, 3,
		2, 3,
	}
	n, dims := 6, 2
	tree := NewKDTree(data, n, dims, EuclideanMetric{}, 2, SplitSuggest)

	if tree.NumPoints() != n {
		t.Errorf("NumPoints() = %d, want %d", tree.NumPoints(), n)
	}
	if tree.NumFeatures() != dims {
		t.Errorf("NumFeatures() = %d, want %d", tree.NumFeatures(), dims)
	}
	if tree.NumNodes() < 1 {
		t.Errorf("NumNodes() = %d, want >= 1", tree.NumNodes())
	}

	// IdxArray must be a permutation of 0..n-1.
	idx := tree.IdxArray()
	if len(idx) != n {
		t.Fatalf("IdxArray length = %d, want %d", len(idx), n)
	}
	seen := make(map[int]bool)
	for _, v := range idx {
		if v < 0 || v >= n {
			t.Errorf("IdxArray contains out-of-range index %d", v)
		}
		if seen[v] {
			t.Errorf("IdxArray contains duplicate index %d", v)
		}
		seen[v] = true
	}
}

func TestKDTree_Construction_BucketLargerThanN(t *testing.T) {
	data := []float64{1, 2, 3, 4}
	tree := NewKDTree(data, 2, 2, EuclideanMetric{}, 100, SplitSuggest)

	if tree.NumNodes() != 1 {
		t.Errorf("expected 1 node when all points fit one bucket, got %d", tree.NumNodes())
	}
	if left, right := tree.ChildNodes(0); left != -1 || right != -1 {
		t.Errorf("root children = (%d, %d), want (-1, -1)", left, right)
	}
}

func TestKDTree_Construction_SinglePoint(t *testing.T) {
	data := []float64{5, 5}
	tree := NewKDTree(data, 1, 2, EuclideanMetric{}, 10, SplitSuggest)

	if tree.NumPoints() != 1 {
		t.Errorf("NumPoints() = %d, want 1", tree.NumPoints())
	}
	idx, dists := tree.QueryKNN([]float64{5, 5}, 1, 0)
	if len(idx) != 1 || idx[0] != 0 || dists[0] != 0 {
		t.Errorf("QueryKNN = (%v, %v), want ([0], [0])", idx, dists)
	}
}

func TestKDTree_Construction_SplitRules(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n, dims := 80, 3
	data := make([]float64, n*dims)
	for i := range data {
		data[i] = rng.Float64() * 10
	}

	for _, rule := range []SplitRule{SplitSuggest, SplitStandard, SplitCyclic} {
		tree := NewKDTree(data, n, dims, EuclideanMetric{}, 5, rule)
		if tree.NumPoints() != n {
			t.Errorf("rule %q: NumPoints() = %d, want %d", rule, tree.NumPoints(), n)
		}

		// Every rule must produce identical exact query results.
		q := []float64{5, 5, 5}
		_, dists := tree.QueryKNN(q, 10, 0)
		_, brute := bruteForceKNN(data, n, dims, q, 10, EuclideanMetric{})
		for i := range dists {
			if !almostEqual(dists[i], brute[i], floatTol) {
				t.Errorf("rule %q: kNN distance[%d] = %v, want %v", rule, i, dists[i], brute[i])
			}
		}
	}
}

// --- KNN query tests ---

func TestKDTree_KNN_BruteForceMatch(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n, dims := 120, 2
	data := make([]float64, n*dims)
	for i := range data {
		data[i] = rng.NormFloat64()
	}

	for _, metric := range []DistanceMetric{
		EuclideanMetric{},
		ManhattanMetric{},
		ChebyshevMetric{},
		MinkowskiMetric{P: 3},
	} {
		tree := NewKDTree(data, n, dims, metric, 4, SplitSuggest)
		for _, k := range []int{1, 3, 10, n} {
			for q := 0; q < n; q += 17 {
				query := data[q*dims : (q+1)*dims]
				_, dists := tree.QueryKNN(query, k, 0)
				_, brute := bruteForceKNN(data, n, dims, query, k, metric)
				if len(dists) != len(brute) {
					t.Fatalf("%T k=%d: got %d results, want %d", metric, k, len(dists), len(brute))
				}
				for i := range dists {
					if !almostEqual(dists[i], brute[i], 1e-9) {
						t.Errorf("%T k=%d q=%d: distance[%d] = %v, want %v",
							metric, k, q, i, dists[i], brute[i])
					}
				}
			}
		}
	}
}

func TestKDTree_KNN_CoincidentPoints(t *testing.T) {
	// 5 copies of the same point plus 2 distinct ones.
	data := []float64{
		1, 1,
		1, 1,
		1, 1,
		1, 1,
		1, 1,
		4, 4,
		9, 9,
	}
	n := 7
	tree := NewKDTree(data, n, 2, EuclideanMetric{}, 2, SplitSuggest)

	idx, dists := tree.QueryKNN([]float64{1, 1}, 6, 0)
	if len(idx) != 6 {
		t.Fatalf("got %d results, want 6", len(idx))
	}
	for i := 0; i < 5; i++ {
		if dists[i] != 0 {
			t.Errorf("distance[%d] = %v, want 0 (duplicate)", i, dists[i])
		}
	}
	if !almostEqual(dists[5], 3*math.Sqrt2, floatTol) {
		t.Errorf("distance[5] = %v, want %v", dists[5], 3*math.Sqrt2)
	}
}

func TestKDTree_KNN_CollinearPoints(t *testing.T) {
	// All points on the x axis, degenerate in y.
	n := 50
	data := make([]float64, n*2)
	for i := 0; i < n; i++ {
		data[i*2] = float64(i)
	}
	tree := NewKDTree(data, n, 2, EuclideanMetric{}, 3, SplitSuggest)

	query := []float64{25.2, 0}
	_, dists := tree.QueryKNN(query, 4, 0)
	_, brute := bruteForceKNN(data, n, 2, query, 4, EuclideanMetric{})
	for i := range dists {
		if !almostEqual(dists[i], brute[i], floatTol) {
			t.Errorf("distance[%d] = %v, want %v", i, dists[i], brute[i])
		}
	}
}

func TestKDTree_KNN_KLargerThanN(t *testing.T) {
	data := []float64{0, 0, 1, 1, 2, 2}
	tree := NewKDTree(data, 3, 2, EuclideanMetric{}, 10, SplitSuggest)

	idx, _ := tree.QueryKNN([]float64{0, 0}, 100, 0)
	if len(idx) != 3 {
		t.Errorf("got %d results, want 3 (clamped to n)", len(idx))
	}
}

func TestKDTree_KNN_Approximate(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n, dims := 200, 2
	data := make([]float64, n*dims)
	for i := range data {
		data[i] = rng.Float64() * 100
	}
	tree := NewKDTree(data, n, dims, EuclideanMetric{}, 5, SplitSuggest)

	const approx = 0.5
	for q := 0; q < n; q += 23 {
		query := data[q*dims : (q+1)*dims]
		_, approxDists := tree.QueryKNN(query, 5, approx)
		_, exactDists := tree.QueryKNN(query, 5, 0)

		if len(approxDists) != 5 {
			t.Fatalf("approx query returned %d results, want 5", len(approxDists))
		}
		// The k-th approximate neighbor is within (1+approx) of the true
		// k-th distance.
		last := len(approxDists) - 1
		if approxDists[last] > exactDists[last]*(1+approx)+floatTol {
			t.Errorf("q=%d: approx k-th distance %v exceeds bound %v",
				q, approxDists[last], exactDists[last]*(1+approx))
		}
	}
}

// --- Radius query tests ---

func TestKDTree_Radius_BruteForceMatch(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n, dims := 150, 3
	data := make([]float64, n*dims)
	for i := range data {
		data[i] = rng.Float64() * 4
	}
	metric := EuclideanMetric{}
	tree := NewKDTree(data, n, dims, metric, 6, SplitSuggest)

	for _, eps := range []float64{0.5, 1.0, 2.5} {
		for q := 0; q < n; q += 29 {
			query := data[q*dims : (q+1)*dims]
			idx, dists := tree.QueryRadius(query, eps, true, 0)

			var wantIdx []int
			for i := 0; i < n; i++ {
				if metric.Distance(query, data[i*dims:(i+1)*dims]) <= eps {
					wantIdx = append(wantIdx, i)
				}
			}

			if len(idx) != len(wantIdx) {
				t.Fatalf("eps=%v q=%d: got %d results, want %d", eps, q, len(idx), len(wantIdx))
			}
			got := append([]int(nil), idx...)
			sort.Ints(got)
			for i := range got {
				if got[i] != wantIdx[i] {
					t.Errorf("eps=%v q=%d: index sets differ", eps, q)
					break
				}
			}
			for i := 1; i < len(dists); i++ {
				if dists[i] < dists[i-1] {
					t.Errorf("eps=%v q=%d: sorted result not ascending", eps, q)
					break
				}
			}
		}
	}
}

func TestKDTree_Radius_ZeroEps(t *testing.T) {
	data := []float64{0, 0, 0, 0, 5, 5}
	tree := NewKDTree(data, 3, 2, EuclideanMetric{}, 2, SplitSuggest)

	// eps=0 still returns coincident points.
	idx, _ := tree.QueryRadius([]float64{0, 0}, 0, true, 0)
	if len(idx) != 2 {
		t.Errorf("got %d results, want 2 coincident points", len(idx))
	}
}

func TestKDTree_Radius_ApproximateStaysWithinEps(t *testing.T) {
	rng := rand.New(rand.NewSource(19))
	n, dims := 100, 2
	data := make([]float64, n*dims)
	for i := range data {
		data[i] = rng.Float64() * 10
	}
	metric := EuclideanMetric{}
	tree := NewKDTree(data, n, dims, metric, 5, SplitSuggest)

	const eps = 2.0
	for q := 0; q < n; q += 13 {
		query := data[q*dims : (q+1)*dims]
		idx, _ := tree.QueryRadius(query, eps, false, 0.3)
		for _, p := range idx {
			if d := metric.Distance(query, data[p*dims:(p+1)*dims]); d > eps+floatTol {
				t.Errorf("approx radius returned point at distance %v > eps %v", d, eps)
			}
		}
	}
}

// --- Dual bound tests ---

func TestKDTree_MinRdistDual_IsLowerBound(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	n, dims := 60, 2
	data := make([]float64, n*dims)
	for i := range data {
		data[i] = rng.Float64() * 8
	}
	metric := EuclideanMetric{}
	tree := NewKDTree(data, n, dims, metric, 4, SplitSuggest)
	idx := tree.IdxArray()

	for a := 0; a < tree.NumNodes(); a += 3 {
		for b := 0; b < tree.NumNodes(); b += 3 {
			bound := tree.minRdistDual(a, b)
			na, nb := tree.nodes[a], tree.nodes[b]
			actual := math.Inf(1)
			for i := na.Start; i < na.End; i++ {
				for j := nb.Start; j < nb.End; j++ {
					rd := metric.ReducedDistance(tree.point(idx[i]), tree.point(idx[j]))
					if rd < actual {
						actual = rd
					}
				}
			}
			if bound > actual+floatTol {
				t.Errorf("minRdistDual(%d, %d) = %v exceeds actual minimum %v", a, b, bound, actual)
			}
		}
	}
}

// --- Helper: brute-force KNN ---

func bruteForceKNN(data []float64, n, dims int, query []float64, k int, metric DistanceMetric) ([]int, []float64) {
	type distIdx struct {
		dist  float64
		index int
	}
	all := make([]distIdx, n)
	for i := 0; i < n; i++ {
		all[i] = distIdx{dist: metric.Distance(query, data[i*dims:(i+1)*dims]), index: i}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].dist == all[j].dist {
			return all[i].index < all[j].index
		}
		return all[i].dist < all[j].dist
	})
	if k > n {
		k = n
	}
	idx := make([]int, k)
	dists := make([]float64, k)
	for i := 0; i < k; i++ {
		idx[i] = all[i].index
		dists[i] = all[i].dist
	}
	return idx, dists
}
