package dbscan

import "fmt"

// ConfigError reports an invalid parameter or input shape. It is returned
// before any computation starts; a failing input fails identically on retry,
// so the only corrective action is fixing the named parameter.
type ConfigError struct {
	// Param is the name of the offending parameter or input.
	Param string
	// Reason describes why the value was rejected.
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("dbscan: %s: %s", e.Param, e.Reason)
}

// configErrorf builds a ConfigError with a formatted reason.
func configErrorf(param, format string, args ...interface{}) error {
	return &ConfigError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

// flattenPoints validates an n×d point matrix and flattens it into row-major
// form. Empty input and ragged rows are configuration errors; NaN screening
// is the caller's contract and is not repeated here.
func flattenPoints(data [][]float64) (flat []float64, n, dims int, err error) {
	n = len(data)
	if n == 0 {
		return nil, 0, 0, configErrorf("data", "point set is empty")
	}
	dims = len(data[0])
	if dims == 0 {
		return nil, 0, 0, configErrorf("data", "points have zero dimensions")
	}
	flat = make([]float64, n*dims)
	for i, row := range data {
		if len(row) != dims {
			return nil, 0, 0, configErrorf("data",
				"point %d has %d dimensions, want %d", i, len(row), dims)
		}
		copy(flat[i*dims:], row)
	}
	return flat, n, dims, nil
}

// validateDistMatrix checks a flat row-major n×n distance matrix.
func validateDistMatrix(dist []float64, n int) error {
	if n == 0 {
		return configErrorf("distMatrix", "point set is empty")
	}
	if len(dist) != n*n {
		return configErrorf("distMatrix",
			"length %d does not match n*n = %d (n=%d)", len(dist), n*n, n)
	}
	return nil
}

// validateIndexOptions checks the KD-tree tuning parameters shared by all
// tree-backed entry points.
func validateIndexOptions(metric DistanceMetric, bucketSize int, rule SplitRule, approx float64) error {
	if m, ok := metric.(MinkowskiMetric); ok && m.P < 1 {
		return configErrorf("Metric", "Minkowski P must be >= 1, got %g", m.P)
	}
	if bucketSize < 1 {
		return configErrorf("BucketSize", "must be >= 1, got %d", bucketSize)
	}
	switch rule {
	case SplitSuggest, SplitStandard, SplitCyclic:
	default:
		return configErrorf("SplitRule", "invalid split rule %q", rule)
	}
	if approx < 0 {
		return configErrorf("Approx", "must be >= 0, got %g", approx)
	}
	return nil
}
