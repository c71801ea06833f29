package dbscan

import (
	"math"
	"sort"
)

// labelsAndProbabilities assigns a flat cluster label and a membership
// probability to each point given the selected clusters of the condensed
// tree. Labels use the noise sentinel 0 and contiguous cluster IDs 1..k in
// ascending condensed-tree order; probabilities are in [0, 1] with noise at 0.
func labelsAndProbabilities(tree []CondensedTreeEntry, selected map[int]bool,
	n int, allowSingleCluster bool, epsilon float64,
) (labels []int, probabilities []float64, labelOf map[int]int) {
	labelOf = make(map[int]int)
	if len(tree) == 0 {
		return make([]int, n), make([]float64, n), labelOf
	}

	rootCluster := treeRoot(tree)
	deaths := computeMaxLambdas(tree)

	// Sorted selected cluster IDs → sequential labels 1..k.
	sorted := make([]int, 0, len(selected))
	for c := range selected {
		sorted = append(sorted, c)
	}
	sort.Ints(sorted)
	reverse := make(map[int]int, len(sorted))
	for i, c := range sorted {
		labelOf[c] = i + 1
		reverse[i+1] = c
	}

	labels = assignLabels(tree, selected, labelOf, rootCluster, n, allowSingleCluster, epsilon)
	probabilities = membershipProbabilities(tree, reverse, labels, deaths, rootCluster)
	return labels, probabilities, labelOf
}

// assignLabels resolves each point to its selected cluster via union-find
// over the non-selected condensed tree edges.
func assignLabels(tree []CondensedTreeEntry, selected map[int]bool,
	labelOf map[int]int, rootCluster, n int, allowSingleCluster bool, epsilon float64,
) []int {
	maxNode := 0
	for _, e := range tree {
		if e.Parent > maxNode {
			maxNode = e.Parent
		}
		if e.Child > maxNode {
			maxNode = e.Child
		}
	}

	uf := newPointUnionFind(maxNode + 1)
	for _, e := range tree {
		if !selected[e.Child] {
			uf.union(e.Parent, e.Child)
		}
	}

	// Per-point lambdas and the root's max point lambda, for the
	// single-cluster edge cases.
	pointLambdas := make(map[int]float64)
	rootMaxPointLambda := 0.0
	for _, e := range tree {
		if e.ChildSize == 1 {
			pointLambdas[e.Child] = e.LambdaVal
			if e.Parent == rootCluster && e.LambdaVal > rootMaxPointLambda {
				rootMaxPointLambda = e.LambdaVal
			}
		}
	}

	result := make([]int, n)
	for i := 0; i < n; i++ {
		cluster := uf.find(i)
		switch {
		case cluster < rootCluster:
			// Never merged upward: noise.
		case cluster != rootCluster:
			result[i] = labelOf[cluster]
		case len(selected) == 1 && allowSingleCluster:
			// Root selected as the single cluster: only points dense enough
			// relative to the root's profile belong.
			label, ok := labelOf[cluster]
			if !ok {
				continue
			}
			pointLambda := pointLambdas[i]
			if epsilon != 0 {
				if pointLambda >= 1.0/epsilon {
					result[i] = label
				}
			} else if pointLambda >= rootMaxPointLambda {
				result[i] = label
			}
		}
	}

	return result
}

// membershipProbabilities scales each labeled point's lambda by its
// cluster's death lambda.
func membershipProbabilities(tree []CondensedTreeEntry, reverse map[int]int,
	labels []int, deaths map[int]float64, rootCluster int,
) []float64 {
	result := make([]float64, len(labels))

	for _, e := range tree {
		point := e.Child
		if point >= rootCluster {
			continue
		}

		label := labels[point]
		if label == 0 {
			continue
		}

		cluster, ok := reverse[label]
		if !ok {
			continue
		}

		maxLambda := deaths[cluster]
		if maxLambda == 0.0 || math.IsInf(e.LambdaVal, 0) {
			result[point] = 1.0
		} else {
			result[point] = math.Min(e.LambdaVal, maxLambda) / maxLambda
		}
	}

	return result
}
