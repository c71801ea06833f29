package dbscan

import (
	"math"
	"sort"
)

// simplifyHierarchy prunes leaf clusters whose persistence, measured as the
// lambda span between birth and the parent's birth, falls below threshold.
// Pruned clusters' entries are re-parented onto the nearest surviving
// ancestor and cluster IDs are renumbered consecutively. A threshold <= 0
// returns an unmodified copy.
func simplifyHierarchy(tree []CondensedTreeEntry, threshold float64) []CondensedTreeEntry {
	if threshold <= 0 || len(tree) == 0 {
		return cloneTree(tree)
	}

	root := math.MaxInt
	var clusters []CondensedTreeEntry
	for _, e := range tree {
		if e.Parent < root {
			root = e.Parent
		}
		if e.ChildSize > 1 {
			clusters = append(clusters, e)
		}
	}
	if len(clusters) == 0 {
		return cloneTree(tree)
	}

	birth := make(map[int]float64, len(clusters)+1)
	parentOf := make(map[int]int, len(clusters))
	for _, e := range clusters {
		birth[e.Child] = e.LambdaVal
		parentOf[e.Child] = e.Parent
	}
	birth[root] = 0.0

	// Prune leaves repeatedly: removing a leaf may expose its parent as a
	// new leaf with low persistence.
	pruned := make(map[int]bool)
	for {
		isParent := make(map[int]bool)
		for _, e := range clusters {
			if !pruned[e.Parent] && !pruned[e.Child] {
				isParent[e.Parent] = true
			}
		}

		progressed := false
		for _, e := range clusters {
			c := e.Child
			if pruned[c] || isParent[c] {
				continue
			}
			if birth[c]-birth[parentOf[c]] < threshold {
				pruned[c] = true
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	if len(pruned) == 0 {
		return cloneTree(tree)
	}

	survivor := func(c int) int {
		for pruned[c] {
			c = parentOf[c]
		}
		return c
	}

	out := make([]CondensedTreeEntry, 0, len(tree))
	for _, e := range tree {
		if e.ChildSize > 1 && pruned[e.Child] {
			continue
		}
		e.Parent = survivor(e.Parent)
		out = append(out, e)
	}

	renumberClusters(out, root)
	return out
}

func cloneTree(tree []CondensedTreeEntry) []CondensedTreeEntry {
	out := make([]CondensedTreeEntry, len(tree))
	copy(out, tree)
	return out
}

// renumberClusters rewrites cluster IDs in place so they are consecutive
// from startID upward, preserving relative order. Point children (size 1)
// keep their IDs.
func renumberClusters(tree []CondensedTreeEntry, startID int) {
	ids := make(map[int]bool)
	for _, e := range tree {
		ids[e.Parent] = true
		if e.ChildSize > 1 {
			ids[e.Child] = true
		}
	}

	sorted := make([]int, 0, len(ids))
	for c := range ids {
		sorted = append(sorted, c)
	}
	sort.Ints(sorted)

	remap := make(map[int]int, len(sorted))
	for i, c := range sorted {
		remap[c] = startID + i
	}

	for i := range tree {
		tree[i].Parent = remap[tree[i].Parent]
		if tree[i].ChildSize > 1 {
			tree[i].Child = remap[tree[i].Child]
		}
	}
}
