package dbscan

import "math"

// primMSTDense computes a minimum spanning tree with Prim's algorithm over a
// dense n*n mutual reachability matrix. Edges come back in chain order as
// [from, to, weight] triples; n-1 of them for n points. Disconnected inputs
// produce +Inf edges, which are reported via the package logger and later
// surface as clusters that never merge.
func primMSTDense(mr []float64, n int) [][3]float64 {
	if n <= 1 {
		return nil
	}

	inTree := make([]bool, n)
	best := make([]float64, n)

	inTree[0] = true
	best[0] = math.Inf(1)
	for j := 1; j < n; j++ {
		best[j] = mr[j]
	}

	edges := make([][3]float64, 0, n-1)
	current := 0
	infEdges := 0

	for len(edges) < n-1 {
		next := -1
		nextDist := math.Inf(1)
		for j := 0; j < n; j++ {
			if !inTree[j] && best[j] < nextDist {
				next = j
				nextDist = best[j]
			}
		}
		if next == -1 {
			// Remaining points are unreachable; attach one at +Inf.
			for j := 0; j < n; j++ {
				if !inTree[j] {
					next = j
					nextDist = best[j]
					break
				}
			}
		}
		if math.IsInf(nextDist, 1) {
			infEdges++
		}

		edges = append(edges, [3]float64{float64(current), float64(next), nextDist})
		inTree[next] = true
		current = next

		row := mr[next*n : (next+1)*n]
		for j := 0; j < n; j++ {
			if !inTree[j] && row[j] < best[j] {
				best[j] = row[j]
			}
		}
	}

	if infEdges > 0 {
		logger.Warn("spanning tree has infinite-weight edges",
			"edges", infEdges, "points", n)
	}
	return edges
}

// primMSTVector is Prim's algorithm with mutual reachability distances
// computed on the fly, avoiding the n*n matrix. Each edge's "from" field is
// the true tree neighbor, not the last point added.
func primMSTVector(data []float64, n, dims int, core []float64, metric DistanceMetric) [][3]float64 {
	if n <= 1 {
		return nil
	}

	inTree := make([]bool, n)
	best := make([]float64, n)
	source := make([]int, n)
	for j := range best {
		best[j] = math.Inf(1)
	}

	edges := make([][3]float64, 0, n-1)
	current := 0
	infEdges := 0

	for i := 1; i < n; i++ {
		inTree[current] = true
		curCore := core[current]
		curRow := data[current*dims : (current+1)*dims]

		next := 0
		nextSource := 0
		nextDist := math.Inf(1)

		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}

			old := best[j]
			d := metric.Distance(curRow, data[j*dims:(j+1)*dims])

			// Lift to mutual reachability only when the raw distance and
			// both core distances can still beat the stored best.
			if curCore <= old && core[j] <= old && d <= old {
				if curCore > d {
					d = curCore
				}
				if core[j] > d {
					d = core[j]
				}
				if d < old {
					best[j] = d
					source[j] = current
					old = d
				}
			}

			if old < nextDist {
				nextDist = old
				nextSource = source[j]
				next = j
			}
		}

		if math.IsInf(nextDist, 1) {
			infEdges++
		}
		edges = append(edges, [3]float64{float64(nextSource), float64(next), nextDist})
		current = next
	}

	if infEdges > 0 {
		logger.Warn("spanning tree has infinite-weight edges",
			"edges", infEdges, "points", n)
	}
	return edges
}
