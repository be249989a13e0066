package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/ironsheep/pixel-tools-mcp/internal/parallel"
	"github.com/ironsheep/pixel-tools-mcp/internal/vecmath"
)

var (
	// ErrInvalidK is returned when k is less than 1.
	ErrInvalidK = errors.New("k must be at least 1")

	// ErrNoVectors is returned when there is nothing to cluster.
	ErrNoVectors = errors.New("no input vectors")
)

const (
	// DefaultMaxIterations caps the assignment/update loop.
	DefaultMaxIterations = 300

	// DefaultTolerance is the largest L1 move of a representative that still
	// counts as converged.
	DefaultTolerance = 0.01
)

type options struct {
	maxIterations int
	tolerance     float64
	rng           *rand.Rand
	workers       int
	logger        *slog.Logger
}

// Option configures KMeans and KMedians.
type Option func(*options)

// WithMaxIterations caps the number of assignment passes. n < 1 removes the
// cap; the loop then runs until every representative settles.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

// WithTolerance sets the convergence threshold on the L1 move of each
// representative.
func WithTolerance(t float64) Option {
	return func(o *options) {
		o.tolerance = t
	}
}

// WithRand sets the source used to shuffle the initial representatives.
// Without it the package-level generator is used.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rng = r
	}
}

// WithWorkers splits the assignment step across up to n goroutines.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLogger sets the logger for convergence diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Model is a trained set of representatives.
type Model struct {
	reps       []vecmath.Vector
	dist       vecmath.DistanceFunc
	iterations int
	converged  bool
}

// Representatives returns a copy of the cluster representatives.
func (m *Model) Representatives() []vecmath.Vector {
	out := make([]vecmath.Vector, len(m.reps))
	for i, r := range m.reps {
		out[i] = r.Clone()
	}
	return out
}

// K returns the number of clusters actually formed. It can be lower than the
// requested k when the input has fewer distinct vectors.
func (m *Model) K() int { return len(m.reps) }

// Iterations returns the number of assignment passes performed.
func (m *Model) Iterations() int { return m.iterations }

// Converged reports whether every representative settled within tolerance
// before the iteration cap.
func (m *Model) Converged() bool { return m.converged }

// Assign returns the index of the representative nearest to v, or
// ErrDimensionMismatch when v does not have the dimension the model was
// trained on.
func (m *Model) Assign(v vecmath.Vector) (int, error) {
	if err := vecmath.CheckSameDim(m.reps[0], v); err != nil {
		return -1, err
	}
	return NearestIndex(m.reps, v, m.dist), nil
}

// FindCluster returns a copy of the representative nearest to v.
func (m *Model) FindCluster(v vecmath.Vector) (vecmath.Vector, error) {
	i, err := m.Assign(v)
	if err != nil {
		return nil, err
	}
	return m.reps[i].Clone(), nil
}

// updateFunc computes a new representative from a non-empty cluster.
type updateFunc func(members []vecmath.Vector, dist vecmath.DistanceFunc) vecmath.Vector

// KMeans clusters vectors around arithmetic means.
func KMeans(k int, vectors []vecmath.Vector, dist vecmath.DistanceFunc, opts ...Option) (*Model, error) {
	return KMeansContext(context.Background(), k, vectors, dist, opts...)
}

// KMeansContext is KMeans with cancellation checked between iterations.
func KMeansContext(ctx context.Context, k int, vectors []vecmath.Vector, dist vecmath.DistanceFunc, opts ...Option) (*Model, error) {
	return fit(ctx, "kmeans", k, vectors, dist, func(members []vecmath.Vector, _ vecmath.DistanceFunc) vecmath.Vector {
		return Mean(members)
	}, opts)
}

// KMedians clusters vectors around medoids: each representative is the member
// closest to its cluster's per-dimension median, so it is always an input
// vector.
func KMedians(k int, vectors []vecmath.Vector, dist vecmath.DistanceFunc, opts ...Option) (*Model, error) {
	return KMediansContext(context.Background(), k, vectors, dist, opts...)
}

// KMediansContext is KMedians with cancellation checked between iterations.
func KMediansContext(ctx context.Context, k int, vectors []vecmath.Vector, dist vecmath.DistanceFunc, opts ...Option) (*Model, error) {
	return fit(ctx, "kmedians", k, vectors, dist, Medoid, opts)
}

func fit(ctx context.Context, method string, k int, vectors []vecmath.Vector, dist vecmath.DistanceFunc, update updateFunc, opts []Option) (*Model, error) {
	o := options{
		maxIterations: DefaultMaxIterations,
		tolerance:     DefaultTolerance,
		workers:       1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if dist == nil {
		dist = vecmath.L2
	}

	if k < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidK, k)
	}
	if len(vectors) == 0 {
		return nil, ErrNoVectors
	}
	if err := vecmath.CheckAllSameDim(vectors); err != nil {
		return nil, err
	}

	reps := initialRepresentatives(vectors, k, o.rng)
	if len(reps) < k {
		o.logger.Warn("fewer distinct vectors than clusters, reducing k",
			"method", method,
			"requested_k", k,
			"distinct", len(reps))
	}

	m := &Model{reps: reps, dist: dist}
	assignment := make([]int, len(vectors))
	members := make([][]vecmath.Vector, len(reps))

	for o.maxIterations < 1 || m.iterations < o.maxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m.iterations++

		err := parallel.Rows(ctx, len(vectors), o.workers, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				assignment[i] = NearestIndex(m.reps, vectors[i], dist)
			}
		})
		if err != nil {
			return nil, err
		}

		for i := range members {
			members[i] = members[i][:0]
		}
		for i, c := range assignment {
			members[c] = append(members[c], vectors[i])
		}

		updated := false
		for i, group := range members {
			// An empty cluster keeps its representative.
			if len(group) == 0 {
				continue
			}
			next := update(group, dist)
			if vecmath.L1(m.reps[i], next) > o.tolerance {
				m.reps[i] = next
				updated = true
			}
		}
		if !updated {
			m.converged = true
			break
		}
	}

	if !m.converged {
		o.logger.Warn("clustering stopped at iteration cap",
			"method", method,
			"k", len(m.reps),
			"iterations", m.iterations)
	} else {
		o.logger.Debug("clustering converged",
			"method", method,
			"k", len(m.reps),
			"vectors", len(vectors),
			"iterations", m.iterations)
	}
	return m, nil
}

// initialRepresentatives deduplicates vectors, shuffles the distinct set
// (Fisher-Yates) and returns copies of the first k. Fewer than k are returned
// when the input has fewer distinct vectors.
func initialRepresentatives(vectors []vecmath.Vector, k int, rng *rand.Rand) []vecmath.Vector {
	seen := make(map[string]struct{}, len(vectors))
	distinct := make([]vecmath.Vector, 0, len(vectors))
	for _, v := range vectors {
		key := vecmath.Key(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		distinct = append(distinct, v)
	}

	swap := func(i, j int) { distinct[i], distinct[j] = distinct[j], distinct[i] }
	if rng != nil {
		rng.Shuffle(len(distinct), swap)
	} else {
		rand.Shuffle(len(distinct), swap)
	}

	k = min(k, len(distinct))
	reps := make([]vecmath.Vector, k)
	for i := range reps {
		reps[i] = distinct[i].Clone()
	}
	return reps
}
