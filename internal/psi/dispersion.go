package psi

import "math"

// madScale converts a median absolute deviation into a consistent estimator of
// the standard deviation under normality.
const madScale = 1.4826

// DispersionConfig configures the rolling robust anomaly scorer.
type DispersionConfig struct {
	Window     int  `json:"window"`      // rolling window length W
	MinSamples int  `json:"min_samples"` // minimum finite samples per window
	Robust     bool `json:"robust"`      // median/MAD scoring; mean/stddev when false
}

// DefaultDispersionConfig returns the standard robust configuration.
func DefaultDispersionConfig() DispersionConfig {
	return DispersionConfig{Window: 50, MinSamples: 8, Robust: true}
}

// DataQuality summarizes how much of the input was usable.
type DataQuality struct {
	FiniteCount  int  `json:"finite_count"`
	InvalidCount int  `json:"invalid_count"`
	Reliable     bool `json:"reliable"`
}

// Dispersion is the result of rolling anomaly scoring. Scores is aligned to the
// input; entries before warm-up completion are NaN, never a computed-looking
// zero.
type Dispersion struct {
	Scores    []float64   `json:"scores"`
	Current   float64     `json:"current"`
	Previous  float64     `json:"previous"`
	Magnitude float64     `json:"magnitude"`
	Quality   DataQuality `json:"quality"`
	Fidelity  float64     `json:"fidelity"`
	Valid     bool        `json:"valid"`
}

// ComputeDispersion scores each sample's deviation from its local equilibrium.
//
// Robust mode is a two-pass rolling computation. Pass one computes, for each
// index past the first full window, the median of the trailing W finite samples
// and the sample's absolute deviation from it; windows with fewer than
// MinSamples finite entries stay undefined. Pass two requires a full window of
// exactly W defined deviations before estimating spread — a partial deviation
// window yields NaN rather than a premature estimate. With MAD as the median of
// the deviation window: z = (sample − rolling median) / (MAD × 1.4826), and
// exactly 0 when MAD is zero (the sample equals its local median).
//
// Non-robust mode scores against the rolling population mean and standard
// deviation with the same warm-up and finite-sample gating.
func ComputeDispersion(data []float64, config DispersionConfig) Dispersion {
	n := len(data)
	w := config.Window
	result := Dispersion{
		Scores:   make([]float64, n),
		Current:  nan(),
		Previous: nan(),
	}
	for i := range result.Scores {
		result.Scores[i] = nan()
	}
	if w <= 0 || n == 0 {
		return result
	}

	for _, v := range data {
		if finite(v) {
			result.Quality.FiniteCount++
		} else {
			result.Quality.InvalidCount++
		}
	}
	result.Quality.Reliable = float64(result.Quality.FiniteCount)/float64(n) >= PhiInv

	if config.Robust {
		robustScores(data, config, result.Scores)
	} else {
		classicScores(data, config, result.Scores)
	}

	validCount := 0
	for _, z := range result.Scores {
		if finite(z) {
			validCount++
		}
	}

	// Expected defined entries: everything past the double warm-up of 2W-2.
	expected := n - (2*w - 2)
	if expected > 0 {
		result.Fidelity = float64(validCount) / float64(expected)
	}
	result.Valid = result.Fidelity >= PhiInv

	if n >= 1 {
		result.Current = result.Scores[n-1]
	}
	if n >= 2 {
		result.Previous = result.Scores[n-2]
	}
	if finite(result.Current) {
		result.Magnitude = math.Abs(result.Current)
	} else {
		result.Magnitude = nan()
	}
	return result
}

// robustScores fills scores with rolling median/MAD z-scores.
func robustScores(data []float64, config DispersionConfig, scores []float64) {
	n := len(data)
	w := config.Window

	medians := make([]float64, n)
	deviations := make([]float64, n)
	for i := 0; i < n; i++ {
		medians[i] = nan()
		deviations[i] = nan()
	}

	// Pass 1: rolling median and absolute deviation.
	for i := w - 1; i < n; i++ {
		window := finiteOnly(data[i-w+1 : i+1])
		if len(window) < config.MinSamples {
			continue
		}
		med := median(window)
		medians[i] = med
		if finite(data[i]) {
			deviations[i] = math.Abs(data[i] - med)
		}
	}

	// Pass 2: spread from a full window of deviations.
	for i := 0; i < n; i++ {
		if i-w+1 < 0 {
			continue
		}
		devWindow := deviations[i-w+1 : i+1]
		defined := finiteOnly(devWindow)
		if len(defined) < w {
			// Extrapolation guard: a partial deviation window never produces
			// a score.
			continue
		}
		if !finite(data[i]) || !finite(medians[i]) {
			continue
		}
		mad := median(defined)
		if mad == 0 {
			scores[i] = 0
			continue
		}
		scores[i] = (data[i] - medians[i]) / (mad * madScale)
	}
}

// classicScores fills scores with rolling population mean/stddev z-scores.
func classicScores(data []float64, config DispersionConfig, scores []float64) {
	n := len(data)
	w := config.Window
	for i := w - 1; i < n; i++ {
		window := finiteOnly(data[i-w+1 : i+1])
		if len(window) < config.MinSamples || !finite(data[i]) {
			continue
		}
		sd := stddevPop(window)
		if sd == 0 {
			scores[i] = 0
			continue
		}
		scores[i] = (data[i] - mean(window)) / sd
	}
}
