// Package distance provides vector distance calculations.
//
// All scores follow the "smaller is closer" convention. Inner-product
// similarity is negated so that results from every metric sort the same
// way.
//
// The arithmetic lives in internal/vmath, which binds unrolled or
// reference kernels once at init.
//
// # Supported Metrics
//
//   - MetricL2: Squared Euclidean distance (default)
//   - MetricIP: Negated inner product
//
// # Usage
//
//	dist := distance.SquaredL2(a, b)
//	dist := distance.NegDot(a, b)
package distance
