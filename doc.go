// Package dbscan implements fast density-based clustering and outlier
// scoring for point clouds in low-to-moderate dimensional Euclidean space.
//
// The package is built around a KD-tree spatial index supporting exact and
// approximate k-nearest-neighbor and fixed-radius queries. On top of the
// index it provides:
//
//   - DBSCAN: core/border/noise labeling via density-reachability expansion
//   - OPTICS: reachability ordering with DBSCAN-cut and Xi steep-area
//     cluster extraction
//   - HDBSCAN: mutual-reachability minimum spanning tree, single-linkage
//     hierarchy, stability-based cluster selection, and GLOSH outlier scores
//   - LOF: local outlier factor scoring
//   - Point density estimation (frequency, relative, Gaussian kernel)
//
// Basic usage:
//
//	cfg := dbscan.DefaultDBSCANConfig()
//	cfg.Eps = 0.5
//	cfg.MinPts = 5
//	result, err := dbscan.DBSCAN(data, cfg)
//	// result.Labels[i] is the cluster ID for point i (0 = noise)
//
// For precomputed distance matrices the *Precomputed variants bypass the
// KD-tree and use brute-force neighborhoods:
//
//	result, err := dbscan.DBSCANPrecomputed(distMatrix, n, cfg)
//
// All cluster label arrays use 0 as the noise sentinel; cluster IDs are a
// contiguous range starting at 1.
package dbscan
