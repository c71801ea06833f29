package dbscan

import (
	"math"
	"sort"
)

// ExtractDBSCAN reconstructs a flat DBSCAN-equivalent clustering from the
// reachability ordering, without rerunning any neighborhood search. epsCl
// must not exceed the eps the ordering was computed with, since reachability
// beyond that radius was never measured. Border points are assigned to the
// cluster that reached them (DBSCAN with BorderPoints=true semantics).
func (r *OPTICSResult) ExtractDBSCAN(epsCl float64) (*DBSCANResult, error) {
	if epsCl <= 0 {
		return nil, configErrorf("epsCl", "must be > 0, got %g", epsCl)
	}
	if epsCl > r.Eps {
		return nil, configErrorf("epsCl", "must be <= the ordering eps %g, got %g", r.Eps, epsCl)
	}

	n := len(r.Order)
	labels := make([]int, n)
	isCore := make([]bool, n)
	clusterID := 0

	for _, p := range r.Order {
		isCore[p] = r.CoreDist[p] <= epsCl
		if r.ReachDist[p] > epsCl {
			if isCore[p] {
				clusterID++
				labels[p] = clusterID
			}
			// else: noise (label 0); may still precede a reachable run
			// that belongs to no cluster started yet.
		} else if clusterID > 0 {
			labels[p] = clusterID
		}
	}

	return &DBSCANResult{Labels: labels, IsCore: isCore}, nil
}

// XiCluster is a cluster extracted from a reachability ordering, given as an
// inclusive range of positions in OPTICSResult.Order.
type XiCluster struct {
	Start, End int
}

// XiResult contains the output of Xi steep-area extraction.
type XiResult struct {
	// Labels assigns each point a cluster ID in 1..k, or 0 for noise.
	// Where clusters nest, the innermost cluster wins.
	Labels []int

	// Clusters holds all extracted clusters (including enclosing ones),
	// ordered by start position, enclosing clusters before nested ones.
	Clusters []XiCluster
}

// steepDownArea tracks an open steep-down region during Xi extraction.
// maximum is the reachability at its start; mib is the maximum reachability
// seen between its end and the current scan position.
type steepDownArea struct {
	start, end int
	maximum    float64
	mib        float64
}

// ExtractXi extracts clusters from steep regions of the reachability plot.
// A steep-down region paired with a compatible steep-up region forms a
// cluster when the span holds at least MinPts points; regions may tolerate
// up to MinPts consecutive non-steep points. xi in (0,1) sets the relative
// steepness threshold. Predecessors are used to trim cluster tails whose
// points were not actually reached from within the cluster.
func (r *OPTICSResult) ExtractXi(xi float64) (*XiResult, error) {
	if xi <= 0 || xi >= 1 {
		return nil, configErrorf("xi", "must be in (0,1), got %g", xi)
	}

	n := len(r.Order)
	rd := make([]float64, n, n+1)
	posOf := make([]int, n) // point index → position in Order
	for pos, p := range r.Order {
		rd[pos] = r.ReachDist[p]
		posOf[p] = pos
	}
	// Sentinel: an infinite tail lets a cluster that runs to the end of the
	// ordering close with a final steep-up step.
	rd = append(rd, math.Inf(1))

	ixi := 1 - xi
	minPts := r.MinPts

	// A step i is the transition rd[i] → rd[i+1]. Two infinite values in a
	// row count as level, never as steep.
	bothInf := func(i int) bool {
		return math.IsInf(rd[i], 1) && math.IsInf(rd[i+1], 1)
	}
	steepDown := func(i int) bool { return rd[i+1] <= rd[i]*ixi && !bothInf(i) }
	downward := func(i int) bool { return rd[i+1] <= rd[i] }
	steepUp := func(i int) bool { return rd[i] <= rd[i+1]*ixi && !bothInf(i) }
	upward := func(i int) bool { return rd[i] <= rd[i+1] }

	var sdas []steepDownArea
	var clusters []XiCluster
	seen := make(map[XiCluster]bool)

	// updateFilter discards steep-down areas invalidated by the maximum
	// reachability seen since their end, and folds that maximum into the
	// mib of the survivors.
	updateFilter := func(mib float64) {
		kept := sdas[:0]
		for _, sda := range sdas {
			if sda.maximum*ixi <= mib {
				continue
			}
			if mib > sda.mib {
				sda.mib = mib
			}
			kept = append(kept, sda)
		}
		sdas = kept
	}

	index := 0
	mib := 0.0

	for index < n {
		switch {
		case steepDown(index):
			updateFilter(mib)
			mib = 0
			start := index
			endStep := index
			i := index + 1
			for i < n && downward(i) {
				if steepDown(i) {
					endStep = i
				} else if i-endStep > minPts {
					break
				}
				i++
			}
			sdas = append(sdas, steepDownArea{
				start:   start,
				end:     endStep + 1,
				maximum: rd[start],
			})
			index = i

		case steepUp(index):
			updateFilter(mib)
			mib = 0
			endStep := index
			i := index + 1
			for i < n && upward(i) {
				if steepUp(i) {
					endStep = i
				} else if i-endStep > minPts {
					break
				}
				i++
			}
			areaEnd := endStep + 1
			endVal := rd[areaEnd]
			index = i

			for s := len(sdas) - 1; s >= 0; s-- {
				sda := sdas[s]

				// The maximum in between must stay below both cluster
				// boundary values by the xi factor.
				if sda.mib > math.Min(sda.maximum, endVal)*ixi {
					continue
				}

				cstart, cend := sda.start, areaEnd
				if cend > n-1 {
					cend = n - 1 // the sentinel position holds no point
				}

				// Boundary adjustment: when one side starts far higher than
				// the other ends, shrink the cluster to the matching level.
				if sda.maximum*ixi >= endVal {
					for cstart < cend && rd[cstart+1] > endVal {
						cstart++
					}
				} else if endVal*ixi >= sda.maximum {
					for cend > cstart && rd[cend] > sda.maximum {
						cend--
					}
				}

				// Predecessor correction: drop tail points that were not
				// density-reached from inside the cluster.
				for cend > cstart {
					pred := r.Predecessor[r.Order[cend]]
					if pred != -1 && posOf[pred] >= cstart && posOf[pred] < cend {
						break
					}
					cend--
				}

				if cend-cstart+1 < minPts {
					continue
				}

				c := XiCluster{Start: cstart, End: cend}
				if !seen[c] {
					seen[c] = true
					clusters = append(clusters, c)
				}
			}

		default:
			if rd[index] > mib {
				mib = rd[index]
			}
			index++
		}
	}

	// Enclosing clusters first, nested ones after; labeling in this order
	// lets inner clusters overwrite their parents, so the flat labels give
	// nested clusters priority over enclosing ones.
	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Start != clusters[j].Start {
			return clusters[i].Start < clusters[j].Start
		}
		return clusters[i].End > clusters[j].End
	})

	labels := make([]int, n)
	for id, c := range clusters {
		for pos := c.Start; pos <= c.End; pos++ {
			labels[r.Order[pos]] = id + 1
		}
	}

	// An enclosing cluster can be fully covered by its children; renumber so
	// the flat labels are a contiguous 1..k range.
	remap := make(map[int]int)
	for _, p := range r.Order {
		l := labels[p]
		if l == 0 {
			continue
		}
		if _, ok := remap[l]; !ok {
			remap[l] = len(remap) + 1
		}
	}
	for i, l := range labels {
		if l != 0 {
			labels[i] = remap[l]
		}
	}

	return &XiResult{Labels: labels, Clusters: clusters}, nil
}
