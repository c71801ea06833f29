package dbscan

import "math"

// gloshScores computes the GLOSH outlier score of every point from the
// condensed tree: (lambdaMax - lambdaPoint) / lambdaMax, where lambdaMax is
// the death lambda of the cluster the point fell out of. Scores are in
// [0, 1]; points that persist until their cluster dies score 0.
func gloshScores(tree []CondensedTreeEntry, n int) []float64 {
	scores := make([]float64, n)
	if len(tree) == 0 {
		return scores
	}

	deaths := computeMaxLambdas(tree)
	root := treeRoot(tree)

	for _, e := range tree {
		point := e.Child
		if point >= root {
			continue
		}
		lambdaMax := deaths[e.Parent]
		if lambdaMax > 0.0 && !math.IsInf(e.LambdaVal, 0) {
			scores[point] = (lambdaMax - e.LambdaVal) / lambdaMax
		}
	}

	return scores
}
