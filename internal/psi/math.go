package psi

import (
	"math"
	"sort"
)

func nan() float64 {
	return math.NaN()
}

// finite reports whether x is a usable real number.
func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// clamp restricts a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// round rounds to specified decimal places
func round(value float64, places int) float64 {
	mult := math.Pow(10, float64(places))
	return math.Round(value*mult) / mult
}

// mean calculates the arithmetic mean of all values
func mean(values []float64) float64 {
	if len(values) == 0 {
		return nan()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddevPop calculates the population standard deviation
func stddevPop(values []float64) float64 {
	if len(values) == 0 {
		return nan()
	}
	m := mean(values)
	sumSquares := 0.0
	for _, v := range values {
		diff := v - m
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)))
}

// median returns the middle value of a sample. The input is copied, not reordered.
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return nan()
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// finiteOnly filters the non-finite entries out of a sample.
func finiteOnly(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if finite(v) {
			out = append(out, v)
		}
	}
	return out
}

// firstDiff returns the first differences of a sequence, NaN-padded at index 0
// so the output stays aligned with the input. A difference involving a
// non-finite operand is NaN.
func firstDiff(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	out[0] = nan()
	for i := 1; i < len(values); i++ {
		if finite(values[i]) && finite(values[i-1]) {
			out[i] = values[i] - values[i-1]
		} else {
			out[i] = nan()
		}
	}
	return out
}
