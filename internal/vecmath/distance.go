package vecmath

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
)

// ErrUnknownMetric is returned by ParseMetric and Provider for unsupported metrics.
var ErrUnknownMetric = errors.New("unknown distance metric")

// DistanceFunc measures the distance between two vectors of equal dimension.
// The built-in metrics panic on a dimension mismatch; entry points that take
// caller vectors check with CheckSameDim first.
type DistanceFunc func(a, b Vector) float64

// L1 is the Manhattan distance.
func L1(a, b Vector) float64 {
	return floats.Distance(a, b, 1)
}

// L2 is the Euclidean distance.
func L2(a, b Vector) float64 {
	return floats.Distance(a, b, 2)
}

// Lab is the CIE76 distance between the colors described by the first three
// components of a and b, read as 8-bit R, G, B. Any further components
// (alpha) contribute their absolute difference scaled to the same 0..1 range.
// It panics when a and b differ in length or have fewer than three
// components.
func Lab(a, b Vector) float64 {
	if err := CheckSameDim(a, b); err != nil {
		panic("vecmath: Lab: " + err.Error())
	}
	if len(a) < 3 {
		panic(fmt.Sprintf("vecmath: Lab needs at least 3 components, got %d", len(a)))
	}
	d := toColor(a).DistanceLab(toColor(b))
	for i := 3; i < len(a); i++ {
		diff := (a[i] - b[i]) / 255
		if diff < 0 {
			diff = -diff
		}
		d += diff
	}
	return d
}

func toColor(v Vector) colorful.Color {
	return colorful.Color{R: v[0] / 255, G: v[1] / 255, B: v[2] / 255}
}

// Metric names a distance function.
type Metric int

const (
	MetricL1 Metric = iota
	MetricL2
	MetricLab
)

func (m Metric) String() string {
	switch m {
	case MetricL1:
		return "l1"
	case MetricL2:
		return "l2"
	case MetricLab:
		return "lab"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseMetric maps "l1", "l2" or "lab" (case-insensitive) to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l1", "manhattan":
		return MetricL1, nil
	case "l2", "euclidean":
		return MetricL2, nil
	case "lab":
		return MetricLab, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

// Provider returns the distance function for m.
func Provider(m Metric) (DistanceFunc, error) {
	switch m {
	case MetricL1:
		return L1, nil
	case MetricL2:
		return L2, nil
	case MetricLab:
		return Lab, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownMetric, m)
	}
}
