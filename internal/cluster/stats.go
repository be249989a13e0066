package cluster

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/pixel-tools-mcp/internal/vecmath"
)

// NearestIndex returns the index of the vector in reps closest to target.
// The lowest index wins ties. It returns -1 for an empty reps. Dimensions are
// not checked; Nearest is the checked entry point.
func NearestIndex(reps []vecmath.Vector, target vecmath.Vector, dist vecmath.DistanceFunc) int {
	best := -1
	bestDist := math.Inf(1)
	for i, r := range reps {
		if d := dist(r, target); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 && len(reps) > 0 {
		// every distance was NaN or +Inf
		best = 0
	}
	return best
}

// Nearest returns the vector in reps closest to target. It returns
// ErrNoVectors for an empty reps and ErrDimensionMismatch when target or any
// representative differs in dimension from reps[0].
func Nearest(reps []vecmath.Vector, target vecmath.Vector, dist vecmath.DistanceFunc) (vecmath.Vector, error) {
	if len(reps) == 0 {
		return nil, ErrNoVectors
	}
	if err := vecmath.CheckAllSameDim(reps); err != nil {
		return nil, fmt.Errorf("representatives: %w", err)
	}
	if err := vecmath.CheckSameDim(reps[0], target); err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	return reps[NearestIndex(reps, target, dist)], nil
}

// Mean returns the per-dimension arithmetic mean. vectors must be non-empty
// and of equal dimension.
func Mean(vectors []vecmath.Vector) vecmath.Vector {
	sum := vecmath.ZerosLike(vectors[0])
	for _, v := range vectors {
		floats.Add(sum, v)
	}
	floats.Scale(1/float64(len(vectors)), sum)
	return sum
}

// Median returns the per-dimension upper median: for each dimension the
// values are sorted and the element at n/2 is taken. The result is usually
// not one of the inputs.
func Median(vectors []vecmath.Vector) vecmath.Vector {
	out := vecmath.ZerosLike(vectors[0])
	column := make([]float64, len(vectors))
	for d := range out {
		for i, v := range vectors {
			column[i] = v[d]
		}
		slices.Sort(column)
		out[d] = column[len(column)/2]
	}
	return out
}

// Medoid returns a copy of the member of vectors nearest to their Median.
func Medoid(vectors []vecmath.Vector, dist vecmath.DistanceFunc) vecmath.Vector {
	return vectors[NearestIndex(vectors, Median(vectors), dist)].Clone()
}

// DominantColor picks one representative sample from a cell without
// iterating. Samples are ranked by distance to their per-channel median
// (stable, so equal distances keep input order) and the sample at rank
// floor(sensitivity*(n-1)) is returned. Sensitivity 0 gives the sample most
// typical of the cell; 1 gives the most atypical. Values outside [0, 1] are
// clamped.
func DominantColor(samples []vecmath.Vector, dist vecmath.DistanceFunc, sensitivity float64) (vecmath.Vector, error) {
	if len(samples) == 0 {
		return nil, ErrNoVectors
	}
	if err := vecmath.CheckAllSameDim(samples); err != nil {
		return nil, err
	}
	if dist == nil {
		dist = vecmath.L1
	}
	switch {
	case math.IsNaN(sensitivity) || sensitivity < 0:
		sensitivity = 0
	case sensitivity > 1:
		sensitivity = 1
	}

	median := Median(samples)
	type ranked struct {
		index int
		dist  float64
	}
	order := make([]ranked, len(samples))
	for i, s := range samples {
		order[i] = ranked{index: i, dist: dist(s, median)}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].dist < order[j].dist
	})

	rank := int(math.Floor(sensitivity * float64(len(samples)-1)))
	return samples[order[rank].index].Clone(), nil
}
