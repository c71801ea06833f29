package dbscan

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DensityKind selects the point density estimator.
type DensityKind string

const (
	// DensityFrequency counts neighbors within eps, including the point itself.
	DensityFrequency DensityKind = "frequency"
	// DensityRelative is the frequency count normalized by 2*eps*n.
	DensityRelative DensityKind = "density"
	// DensityGaussian is a Gaussian kernel estimate with eps as the standard
	// deviation, summed over points within 3 standard deviations and
	// normalized by n*sigma*sqrt(2*pi). Contributions beyond 3 sigma are
	// negligible and skipped.
	DensityGaussian DensityKind = "gaussian"
)

// DensityConfig controls PointDensity.
type DensityConfig struct {
	// Eps is the neighborhood radius (the kernel standard deviation for
	// DensityGaussian). Must be > 0.
	Eps float64

	// Kind selects the estimator. Default: DensityFrequency.
	Kind DensityKind

	// Metric is the distance function. Default: EuclideanMetric.
	Metric DistanceMetric

	// BucketSize and SplitRule tune KD-tree construction.
	// Defaults: 10, SplitSuggest.
	BucketSize int
	SplitRule  SplitRule

	// Approx relaxes neighbor search by a relative error factor. Default: 0.
	Approx float64

	// Workers is the goroutine count for per-point queries. 0 means all CPUs.
	Workers int
}

// DefaultDensityConfig returns a DensityConfig with defaults applied;
// Eps must still be set by the caller.
func DefaultDensityConfig() DensityConfig {
	return DensityConfig{
		Kind:       DensityFrequency,
		Metric:     EuclideanMetric{},
		BucketSize: 10,
		SplitRule:  SplitSuggest,
	}
}

func (cfg *DensityConfig) applyDefaults() {
	if cfg.Kind == "" {
		cfg.Kind = DensityFrequency
	}
	if cfg.Metric == nil {
		cfg.Metric = EuclideanMetric{}
	}
	if cfg.BucketSize == 0 {
		cfg.BucketSize = 10
	}
	if cfg.SplitRule == "" {
		cfg.SplitRule = SplitSuggest
	}
}

func (cfg *DensityConfig) validate() error {
	if cfg.Eps <= 0 {
		return configErrorf("Eps", "must be > 0, got %g", cfg.Eps)
	}
	switch cfg.Kind {
	case DensityFrequency, DensityRelative, DensityGaussian:
	default:
		return configErrorf("Kind", "invalid density kind %q", cfg.Kind)
	}
	return validateIndexOptions(cfg.Metric, cfg.BucketSize, cfg.SplitRule, cfg.Approx)
}

// PointDensity estimates the density at every point of data. All three
// estimators are symmetric pairwise: each point's density depends only on
// points within its own neighborhood, never on other points' densities, so
// the per-point queries run data-parallel.
func PointDensity(data [][]float64, cfg DensityConfig) ([]float64, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	flat, n, dims, err := flattenPoints(data)
	if err != nil {
		return nil, err
	}

	finder := newTreeFinder(flat, n, dims, cfg.Metric, cfg.BucketSize, cfg.SplitRule, cfg.Approx)
	workers := resolveWorkers(cfg.Workers)

	out := make([]float64, n)

	switch cfg.Kind {
	case DensityGaussian:
		sigma := cfg.Eps
		radius := 3 * sigma
		inv2s2 := 1.0 / (2 * sigma * sigma)
		parallelChunks(n, workers, func(start, end int) {
			for i := start; i < end; i++ {
				_, dists := finder.radiusNeighbors(i, radius, false)
				var sum float64
				for _, d := range dists {
					sum += math.Exp(-d * d * inv2s2)
				}
				out[i] = sum
			}
		})
		floats.Scale(1.0/(float64(n)*sigma*math.Sqrt(2*math.Pi)), out)

	default:
		parallelChunks(n, workers, func(start, end int) {
			for i := start; i < end; i++ {
				ids, _ := finder.radiusNeighbors(i, cfg.Eps, false)
				out[i] = float64(len(ids))
			}
		})
		if cfg.Kind == DensityRelative {
			floats.Scale(1.0/(2*cfg.Eps*float64(n)), out)
		}
	}

	return out, nil
}
