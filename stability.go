package dbscan

import "math"

// computeStability computes the excess-of-mass stability for each cluster in
// the condensed tree:
//
//	sum over entries with Parent==C of (entry.LambdaVal - lambdaBirth(C)) * entry.ChildSize
//
// where lambdaBirth(C) is the minimum lambda at which C appears as a child.
// The root cluster (smallest parent ID) has lambdaBirth = 0, so all
// stabilities are non-negative.
func computeStability(tree []CondensedTreeEntry) map[int]float64 {
	if len(tree) == 0 {
		return nil
	}

	root := math.MaxInt
	births := make(map[int]float64)
	for _, e := range tree {
		if e.Parent < root {
			root = e.Parent
		}
		if existing, ok := births[e.Child]; !ok || e.LambdaVal < existing {
			births[e.Child] = e.LambdaVal
		}
	}
	births[root] = 0.0

	stability := make(map[int]float64)
	for _, e := range tree {
		delta := e.LambdaVal - births[e.Parent]
		if math.IsInf(e.LambdaVal, 1) {
			// Zero-distance merges: the point never leaves the cluster at a
			// finite density; contribute nothing rather than +Inf.
			continue
		}
		stability[e.Parent] += delta * float64(e.ChildSize)
	}

	return stability
}

// treeRoot returns the root cluster ID (smallest parent) of a condensed tree.
func treeRoot(tree []CondensedTreeEntry) int {
	root := math.MaxInt
	for _, e := range tree {
		if e.Parent < root {
			root = e.Parent
		}
	}
	return root
}

// clusterEntries returns only the cluster-to-cluster entries (ChildSize > 1).
func clusterEntries(tree []CondensedTreeEntry) []CondensedTreeEntry {
	entries := make([]CondensedTreeEntry, 0, len(tree)/2)
	for _, e := range tree {
		if e.ChildSize > 1 {
			entries = append(entries, e)
		}
	}
	return entries
}

// clusterChildrenMap builds a parent-to-children mapping from cluster entries.
func clusterChildrenMap(clusterTree []CondensedTreeEntry) map[int][]int {
	childrenOf := make(map[int][]int)
	for _, e := range clusterTree {
		childrenOf[e.Parent] = append(childrenOf[e.Parent], e.Child)
	}
	return childrenOf
}

// bfsDescendants returns all cluster descendants of a node (including
// itself) using a pre-built children map.
func bfsDescendants(childrenOf map[int][]int, bfsRoot int) []int {
	result := []int{bfsRoot}
	toProcess := []int{bfsRoot}

	for len(toProcess) > 0 {
		var next []int
		for _, node := range toProcess {
			for _, child := range childrenOf[node] {
				result = append(result, child)
				next = append(next, child)
			}
		}
		toProcess = next
	}

	return result
}

// computeMaxLambdas computes the max lambda (death) observed under each
// cluster of the condensed tree.
func computeMaxLambdas(tree []CondensedTreeEntry) map[int]float64 {
	deaths := make(map[int]float64)
	for _, e := range tree {
		if e.LambdaVal > deaths[e.Parent] {
			deaths[e.Parent] = e.LambdaVal
		}
	}
	return deaths
}
