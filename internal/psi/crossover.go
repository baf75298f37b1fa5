package psi

// CrossoverType classifies the relative movement of a fast series against a
// slow series at the most recent jointly-defined step.
type CrossoverType string

const (
	CrossGolden       CrossoverType = "golden_cross"
	CrossDeath        CrossoverType = "death_cross"
	CrossHoldAbove    CrossoverType = "hold_above"
	CrossHoldBelow    CrossoverType = "hold_below"
	CrossNone         CrossoverType = "none"
	CrossInsufficient CrossoverType = "insufficient_data"
)

// CrossoverSignal is the directional signal implied by a crossover type.
type CrossoverSignal string

const (
	SignalBuy       CrossoverSignal = "BUY"
	SignalSell      CrossoverSignal = "SELL"
	SignalHoldLong  CrossoverSignal = "HOLD_LONG"
	SignalHoldShort CrossoverSignal = "HOLD_SHORT"
	SignalNone      CrossoverSignal = "NONE"
)

// Crossover is the result of comparing two smoothed series.
type Crossover struct {
	Type     CrossoverType   `json:"type"`
	Signal   CrossoverSignal `json:"signal"`
	Index    int             `json:"index"`    // index of the classified step, -1 when none
	Fidelity float64         `json:"fidelity"` // combined authentic-point ratio, 1 when ungated
}

// CrossoverConfig configures the detector. MinFidelity is the authentic-point
// ratio below which no classification is attempted.
type CrossoverConfig struct {
	MinFidelity float64 `json:"min_fidelity"`
}

// DefaultCrossoverConfig gates at φ⁻¹.
func DefaultCrossoverConfig() CrossoverConfig {
	return CrossoverConfig{MinFidelity: PhiInv}
}

// DetectCrossover classifies the relationship between a fast and a slow series.
// NaN entries mark undefined slots. fastFlags/slowFlags are optional parallel
// interpolation flags; when both are supplied the detector first computes the
// combined authentic-point ratio and returns a neutral insufficient-data result
// below config.MinFidelity.
//
// Classification looks at the two most recent indices where both series are
// defined: previous fast ≤ slow with current fast > slow is a golden cross,
// previous fast ≥ slow with current fast < slow is a death cross. Equality at
// the prior step does not itself register a transition; otherwise the current
// relative position decides hold_above or hold_below.
func DetectCrossover(fast, slow []float64, fastFlags, slowFlags []bool, config CrossoverConfig) Crossover {
	result := Crossover{Type: CrossNone, Signal: SignalNone, Index: -1, Fidelity: 1.0}

	if fastFlags != nil && slowFlags != nil {
		result.Fidelity = combinedFidelity(fastFlags, slowFlags)
		if result.Fidelity < config.MinFidelity {
			result.Type = CrossInsufficient
			return result
		}
	}

	n := len(fast)
	if len(slow) < n {
		n = len(slow)
	}

	// Scan backward for the two most recent jointly-defined indices.
	cur, prev := -1, -1
	for i := n - 1; i >= 0; i-- {
		if !finite(fast[i]) || !finite(slow[i]) {
			continue
		}
		if cur < 0 {
			cur = i
		} else {
			prev = i
			break
		}
	}
	if prev < 0 {
		return result
	}

	result.Index = cur
	switch {
	case fast[prev] <= slow[prev] && fast[cur] > slow[cur]:
		result.Type = CrossGolden
		result.Signal = SignalBuy
	case fast[prev] >= slow[prev] && fast[cur] < slow[cur]:
		result.Type = CrossDeath
		result.Signal = SignalSell
	case fast[cur] > slow[cur]:
		result.Type = CrossHoldAbove
		result.Signal = SignalHoldLong
	case fast[cur] < slow[cur]:
		result.Type = CrossHoldBelow
		result.Signal = SignalHoldShort
	default:
		result.Index = -1
	}
	return result
}

// combinedFidelity is the fraction of steps where neither series is
// interpolated, over the shorter of the two flag series.
func combinedFidelity(fastFlags, slowFlags []bool) float64 {
	n := len(fastFlags)
	if len(slowFlags) < n {
		n = len(slowFlags)
	}
	if n == 0 {
		return 0
	}
	authentic := 0
	for i := 0; i < n; i++ {
		if !fastFlags[i] && !slowFlags[i] {
			authentic++
		}
	}
	return float64(authentic) / float64(n)
}
