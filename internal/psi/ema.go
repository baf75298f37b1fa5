package psi

// SmoothingConfig configures the exponential smoothing primitive.
type SmoothingConfig struct {
	Period      int  `json:"period"`
	Interpolate bool `json:"interpolate"`
}

// DefaultSmoothing returns a smoothing config with leading-gap interpolation
// enabled.
func DefaultSmoothing(period int) SmoothingConfig {
	return SmoothingConfig{Period: period, Interpolate: true}
}

// EMA computes an exponential moving average over data and returns a series of
// the same length. Weight k = 2/(period+1); the seed is the arithmetic mean of
// the first period values, placed at index period-1; from there on
// ema[i] = data[i]*k + ema[i-1]*(1-k).
//
// Degenerate inputs never panic:
//   - A sequence shorter than the period degrades to a straight-line
//     interpolation between the first and last raw values (all slots flagged
//     interpolated) when interpolation is enabled and at least two samples
//     exist; otherwise every slot is undefined.
//   - Leading slots before the seed are linearly interpolated between the first
//     raw value and the seed when enabled, otherwise left undefined.
//   - A non-finite sample carries the previous average forward unchanged and
//     flags the slot interpolated, so one bad sample never invalidates the
//     series.
//   - A non-finite seed leaves its slot undefined; the first finite sample after
//     it re-bootstraps the average directly from the raw value, flagged
//     interpolated.
func EMA(data []float64, config SmoothingConfig) []Point {
	n := len(data)
	series := make([]Point, n)
	if n == 0 || config.Period <= 0 {
		return series
	}

	if n < config.Period {
		return shortSeries(data, config)
	}

	k := 2.0 / (float64(config.Period) + 1.0)
	seedIdx := config.Period - 1
	seed := mean(data[:config.Period])

	if finite(seed) {
		series[seedIdx] = Point{Value: seed, Valid: true}
		if config.Interpolate {
			interpolateLeading(series, data[0], seed, seedIdx)
		}
	}
	// A non-finite seed leaves the leading slots and the seed slot undefined;
	// the recurrence below re-bootstraps from the next finite raw sample.

	prev := series[seedIdx]
	for i := config.Period; i < n; i++ {
		switch {
		case !finite(data[i]):
			if prev.Valid {
				// Carry forward the previous average over the bad sample.
				series[i] = Point{Value: prev.Value, Valid: true, Interpolated: true}
			}
		case !prev.Valid:
			// Bootstrap directly from the raw value.
			series[i] = Point{Value: data[i], Valid: true, Interpolated: true}
		default:
			series[i] = Point{Value: data[i]*k + prev.Value*(1.0-k), Valid: true}
		}
		if series[i].Valid {
			prev = series[i]
		}
	}

	return series
}

// shortSeries handles input shorter than the period: a straight line from the
// first to the last raw value across the whole sequence, every slot flagged
// interpolated. Without interpolation, or with fewer than two usable samples,
// every slot is undefined.
func shortSeries(data []float64, config SmoothingConfig) []Point {
	n := len(data)
	series := make([]Point, n)
	if !config.Interpolate || n < 2 {
		return series
	}
	first, last := data[0], data[n-1]
	if !finite(first) || !finite(last) {
		return series
	}
	step := (last - first) / float64(n-1)
	for i := 0; i < n; i++ {
		series[i] = Point{Value: first + step*float64(i), Valid: true, Interpolated: true}
	}
	return series
}

// interpolateLeading fills slots [0, seedIdx-1] with a straight line between the
// first raw value and the seeded average.
func interpolateLeading(series []Point, first, seed float64, seedIdx int) {
	if seedIdx <= 0 || !finite(first) {
		return
	}
	step := (seed - first) / float64(seedIdx)
	for i := 0; i < seedIdx; i++ {
		series[i] = Point{Value: first + step*float64(i), Valid: true, Interpolated: true}
	}
}
