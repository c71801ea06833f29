package dbscan

import "sort"

// buildDendrogram converts MST edges into a single-linkage dendrogram by
// processing edges in increasing weight order (Kruskal-style union-find
// merges). mstEdges is [][3]float64 where each edge is [from, to, weight].
//
// Returns [][4]float64 dendrogram rows [left, right, distance, mergedSize]
// in scipy linkage format: merged-cluster IDs start at n and increment, and
// merge distances are non-decreasing along the row sequence.
func buildDendrogram(mstEdges [][3]float64, n int) [][4]float64 {
	if len(mstEdges) == 0 {
		return nil
	}

	sorted := make([][3]float64, len(mstEdges))
	copy(sorted, mstEdges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i][2] < sorted[j][2]
	})

	// 2*n - 1 elements so merged cluster IDs (n, n+1, ...) can be stored as
	// union-find roots.
	uf := newUnionFind(n)

	result := make([][4]float64, 0, len(sorted))

	for _, edge := range sorted {
		a := int(edge[0])
		b := int(edge[1])
		weight := edge[2]

		aa := uf.find(a)
		bb := uf.find(b)
		newSize := uf.size[aa] + uf.size[bb]

		result = append(result, [4]float64{float64(aa), float64(bb), weight, float64(newSize)})

		// Relabel the merged root to the next dendrogram cluster ID.
		uf.size[uf.nextLabel] = newSize
		uf.parent[aa] = uf.nextLabel
		uf.parent[bb] = uf.nextLabel
		uf.nextLabel++
	}

	return result
}
