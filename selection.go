package dbscan

import "sort"

// selectClustersEOM performs excess-of-mass (FOSC) cluster selection: a
// bottom-up walk over the condensed tree choosing the set of clusters that
// maximizes total stability, subject to each point belonging to at most one
// selected cluster. A node's selected stability is the larger of its own
// stability and the sum of its children's selected stability; ties favor
// the parent, producing fewer, larger clusters.
//
// Returns the selected cluster IDs and the propagated stability map.
func selectClustersEOM(tree []CondensedTreeEntry, stability map[int]float64,
	allowSingleCluster bool,
) (map[int]bool, map[int]float64) {
	stab := make(map[int]float64, len(stability))
	for k, v := range stability {
		stab[k] = v
	}

	root := treeRoot(tree)
	clusterTree := clusterEntries(tree)
	childrenOf := clusterChildrenMap(clusterTree)

	// Candidates in reverse topological order. Cluster IDs are assigned in
	// BFS order during condensing, so reverse numeric sort walks bottom-up.
	var nodeList []int
	for k := range stab {
		if allowSingleCluster || k != root {
			nodeList = append(nodeList, k)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(nodeList)))

	isCluster := make(map[int]bool, len(nodeList))
	for _, n := range nodeList {
		isCluster[n] = true
	}

	for _, node := range nodeList {
		children := childrenOf[node]
		if len(children) == 0 {
			continue
		}

		subtreeStability := 0.0
		for _, child := range children {
			subtreeStability += stab[child]
		}

		if subtreeStability > stab[node] {
			isCluster[node] = false
			stab[node] = subtreeStability
		} else {
			// Parent wins: deselect all descendants.
			for _, d := range bfsDescendants(childrenOf, node) {
				if d != node {
					isCluster[d] = false
				}
			}
		}
	}

	selected := make(map[int]bool)
	for k, v := range isCluster {
		if v {
			selected[k] = true
		}
	}

	return selected, stab
}

// selectClustersLeaf selects the leaf clusters of the condensed tree,
// producing many small homogeneous clusters. If epsilon > 0, leaves born
// below the threshold are merged upward via epsilonSearch.
func selectClustersLeaf(tree []CondensedTreeEntry, epsilon float64) map[int]bool {
	clusterTree := clusterEntries(tree)
	leaves := clusterTreeLeaves(clusterTree)

	if len(leaves) == 0 {
		return map[int]bool{treeRoot(tree): true}
	}

	if epsilon > 0 {
		return epsilonSearch(tree, leaves, epsilon, false)
	}

	return leaves
}

// epsilonSearch adjusts selected clusters against a minimum split-distance
// threshold: candidates whose epsilon (1/lambdaBirth) falls below it are
// replaced by the nearest ancestor at or above the threshold, preventing
// over-segmentation in dense regions.
func epsilonSearch(tree []CondensedTreeEntry, candidates map[int]bool,
	epsilon float64, allowSingleCluster bool,
) map[int]bool {
	clusterTree := clusterEntries(tree)
	root := treeRoot(tree)
	childrenOf := clusterChildrenMap(clusterTree)

	childToParent := make(map[int]int)
	childToLambda := make(map[int]float64)
	for _, e := range clusterTree {
		childToParent[e.Child] = e.Parent
		childToLambda[e.Child] = e.LambdaVal
	}

	processed := make(map[int]bool)
	result := make(map[int]bool)

	for leaf := range candidates {
		lambda, ok := childToLambda[leaf]
		if !ok {
			result[leaf] = true
			continue
		}

		if 1.0/lambda >= epsilon {
			result[leaf] = true
			continue
		}

		if processed[leaf] {
			continue
		}

		ancestor := traverseUpwards(childToParent, childToLambda, root, epsilon, leaf, allowSingleCluster)
		result[ancestor] = true

		for _, subNode := range bfsDescendants(childrenOf, ancestor) {
			if subNode != ancestor {
				processed[subNode] = true
			}
		}
	}

	return result
}

// traverseUpwards walks from a leaf cluster up to the first ancestor whose
// epsilon meets the threshold.
func traverseUpwards(childToParent map[int]int, childToLambda map[int]float64,
	root int, epsilon float64, leaf int, allowSingleCluster bool,
) int {
	parent, ok := childToParent[leaf]
	if !ok {
		return leaf
	}
	if parent == root {
		if allowSingleCluster {
			return parent
		}
		return leaf
	}

	parentLambda, ok := childToLambda[parent]
	if !ok {
		return leaf
	}
	if 1.0/parentLambda > epsilon {
		return parent
	}
	return traverseUpwards(childToParent, childToLambda, root, epsilon, parent, allowSingleCluster)
}

// clusterTreeLeaves returns leaf cluster IDs from a cluster-only tree.
func clusterTreeLeaves(clusterTree []CondensedTreeEntry) map[int]bool {
	if len(clusterTree) == 0 {
		return nil
	}

	isParent := make(map[int]bool)
	for _, e := range clusterTree {
		isParent[e.Parent] = true
	}

	leaves := make(map[int]bool)
	for _, e := range clusterTree {
		if !isParent[e.Child] {
			leaves[e.Child] = true
		}
	}

	return leaves
}
