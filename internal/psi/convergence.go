package psi

import "math"

// ratioEpsilon is the magnitude below which an anomaly score counts as
// equilibrium for ratio purposes.
const ratioEpsilon = 0.01

// RatioStatus tags why a convergence ratio is or is not defined.
type RatioStatus string

const (
	RatioOK               RatioStatus = "OK"
	RatioInsufficientData RatioStatus = "INSUFFICIENT_DATA"
	RatioLowSignal        RatioStatus = "LOW_SIGNAL"
)

// RatioDirection distinguishes same-sign ratios from sign flips.
type RatioDirection string

const (
	DirectionSameSign RatioDirection = "same_sign"
	DirectionReversal RatioDirection = "reversal"
)

// Ratio is the convergence ratio of one adjacent pair of anomaly scores. Value
// and Magnitude are only meaningful when Defined.
type Ratio struct {
	Value     float64        `json:"value"`
	Magnitude float64        `json:"magnitude"` // |Value| clamped to [0.1, 10]
	Defined   bool           `json:"defined"`
	Status    RatioStatus    `json:"status"`
	Direction RatioDirection `json:"direction,omitempty"`
	Explosive bool           `json:"explosive"` // reversal with |Value| > φ
}

// ComputeRatio computes current/previous with the numeric guards:
//   - either operand non-finite: undefined, INSUFFICIENT_DATA
//   - |previous| < ε: undefined, INSUFFICIENT_DATA — a near-zero denominator is
//     consolidation, never "decay"
//   - |current| < ε: undefined, LOW_SIGNAL — the current score sits at
//     equilibrium, also not decay
func ComputeRatio(current, previous float64) Ratio {
	if !finite(current) || !finite(previous) {
		return Ratio{Status: RatioInsufficientData}
	}
	if math.Abs(previous) < ratioEpsilon {
		return Ratio{Status: RatioInsufficientData}
	}
	if math.Abs(current) < ratioEpsilon {
		return Ratio{Status: RatioLowSignal}
	}

	value := current / previous
	r := Ratio{
		Value:     value,
		Magnitude: clamp(math.Abs(value), 0.1, 10.0),
		Defined:   true,
		Status:    RatioOK,
	}
	if value > 0 {
		r.Direction = DirectionSameSign
	} else {
		// Sign flip: a local phase transition.
		r.Direction = DirectionReversal
		r.Explosive = math.Abs(value) > Phi
	}
	return r
}

// convergenceWindow is the trailing number of defined ratios aggregated.
const convergenceWindow = 5

// reversalThreshold is the reversal count within the trailing window at which
// the series counts as unstable, independent of magnitude.
const reversalThreshold = 2

// Convergence aggregates the per-pair ratios of an anomaly-score series.
type Convergence struct {
	Ratios            []Ratio `json:"ratios"`
	Current           Ratio   `json:"current"`
	MeanMagnitude     float64 `json:"mean_magnitude"`
	ReversalCount     int     `json:"reversal_count"`
	Unstable          bool    `json:"unstable"`
	LowSignalFraction float64 `json:"low_signal_fraction"`
	HasLowSignal      bool    `json:"has_low_signal"`
	Regime            Regime  `json:"regime"`
}

// ComputeConvergence derives the ratio series of adjacent anomaly-score pairs
// and aggregates the trailing window: mean magnitude and reversal count over
// the last five defined ratios, and the fraction of all pairs that were
// low-signal or insufficient. When that fraction exceeds one half, or the most
// recent pair is low-signal, the whole series is flagged low-signal and the
// regime forcibly downgrades to CONSOLIDATION regardless of magnitude.
//
// anomaly is the current anomaly score used by the regime cascade for its
// directional sub-splits.
func ComputeConvergence(scores []float64, anomaly float64) Convergence {
	result := Convergence{Current: Ratio{Status: RatioInsufficientData}}
	if len(scores) < 2 {
		result.Regime = RegimeConsolidation
		return result
	}

	result.Ratios = make([]Ratio, 0, len(scores)-1)
	for i := 1; i < len(scores); i++ {
		result.Ratios = append(result.Ratios, ComputeRatio(scores[i], scores[i-1]))
	}
	result.Current = result.Ratios[len(result.Ratios)-1]

	// Trailing window of the last defined ratios.
	window := make([]Ratio, 0, convergenceWindow)
	for i := len(result.Ratios) - 1; i >= 0 && len(window) < convergenceWindow; i-- {
		if result.Ratios[i].Defined {
			window = append(window, result.Ratios[i])
		}
	}
	if len(window) > 0 {
		total := 0.0
		for _, r := range window {
			total += r.Magnitude
			if r.Direction == DirectionReversal {
				result.ReversalCount++
			}
		}
		result.MeanMagnitude = total / float64(len(window))
	}
	result.Unstable = result.ReversalCount >= reversalThreshold

	degraded := 0
	for _, r := range result.Ratios {
		if r.Status == RatioLowSignal || r.Status == RatioInsufficientData {
			degraded++
		}
	}
	result.LowSignalFraction = float64(degraded) / float64(len(result.Ratios))
	result.HasLowSignal = result.LowSignalFraction > 0.5 ||
		result.Current.Status == RatioLowSignal

	result.Regime = classifyConvergence(result, anomaly)
	return result
}

// classifyConvergence applies the regime overrides in strict order: low signal
// wins over everything, instability wins over magnitude, and only then does the
// magnitude cascade run on the current ratio.
func classifyConvergence(c Convergence, anomaly float64) Regime {
	if c.HasLowSignal {
		return RegimeConsolidation
	}
	if c.Unstable {
		return RegimeUnstable
	}
	if !c.Current.Defined {
		// Never report a directional regime on an undefined ratio.
		return RegimeConsolidation
	}
	return ClassifyRegime(c.Current.Value, anomaly)
}
