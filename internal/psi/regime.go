package psi

import "math"

// Regime names the classification bucket of the current convergence behaviour.
type Regime string

const (
	RegimeConsolidation  Regime = "CONSOLIDATION"
	RegimeFatalism       Regime = "FATALISM"
	RegimeBullishRevert  Regime = "BULLISH_REVERSAL"
	RegimeFatalismCliff  Regime = "FATALISM_CLIFF"
	RegimeBreathing      Regime = "BREATHING"
	RegimeOptimism       Regime = "OPTIMISM"
	RegimeEscape         Regime = "ESCAPE"
	RegimePanicReversal  Regime = "PANIC_REVERSAL"
	RegimeReliefReversal Regime = "RELIEF_REVERSAL"
	RegimeUnstable       Regime = "UNSTABLE"
)

// ClassifyRegime maps a defined convergence ratio and the current anomaly score
// to a regime. The rules are strictly ordered and first-match-wins; the φ-power
// boundaries overlap and are disambiguated only by evaluation order.
//
// Negative ratios classify separately as reversals: panic when the anomaly is
// below equilibrium, relief when above. Positive ratios classify by magnitude:
// below φ⁻² the deviation is collapsing (fatalism, or a bullish reversal when
// the anomaly is positive), up to φ⁻¹ it is on the cliff, around unity it
// breathes, up to φ² it grows optimistic, beyond that it escapes.
func ClassifyRegime(ratio, anomaly float64) Regime {
	if ratio < 0 {
		if anomaly < 0 {
			return RegimePanicReversal
		}
		return RegimeReliefReversal
	}

	magnitude := clamp(math.Abs(ratio), 0.1, 10.0)
	switch {
	case magnitude < PhiInvSq:
		if anomaly > 0 {
			return RegimeBullishRevert
		}
		return RegimeFatalism
	case magnitude < PhiInv:
		return RegimeFatalismCliff
	case magnitude < Phi:
		return RegimeBreathing
	case magnitude <= PhiSq:
		return RegimeOptimism
	default:
		return RegimeEscape
	}
}

// PathogenStage grades pathogen severity into four bands.
type PathogenStage string

const (
	StageI   PathogenStage = "I"
	StageII  PathogenStage = "II"
	StageIII PathogenStage = "III"
	StageIV  PathogenStage = "IV"
)

// Pathogen is a named pattern flagged by the ratio/anomaly overlay, with a
// severity in [0, 1] and a stage.
type Pathogen struct {
	Name     string        `json:"name"`
	Severity float64       `json:"severity"`
	Stage    PathogenStage `json:"stage"`
}

// pathogenRule is one row of the immutable pathogen definition table. The rules
// run in order; the first match wins.
type pathogenRule struct {
	name    string
	matches func(ratio, anomaly float64) bool
	severit func(ratio, anomaly float64) float64
}

var pathogenRules = []pathogenRule{
	{
		name: "Bubble Cancer",
		matches: func(ratio, anomaly float64) bool {
			return math.Abs(anomaly) > 3.0 && ratio > 2.0
		},
		severit: func(ratio, anomaly float64) float64 {
			return clamp((math.Abs(anomaly)-3.0)/2.0, 0, 1)
		},
	},
	{
		name: "Ponzi Virus",
		matches: func(ratio, anomaly float64) bool {
			return ratio > 2.5
		},
		severit: func(ratio, anomaly float64) float64 {
			return clamp((ratio-2.5)/1.5, 0, 1)
		},
	},
}

// DetectPathogen evaluates the pathogen overlay. It runs before and
// independently of the regime cascade; a nil result means no pathogen pattern
// matched. ratio and anomaly must both be finite for any rule to fire.
func DetectPathogen(ratio, anomaly float64) *Pathogen {
	if !finite(ratio) || !finite(anomaly) {
		return nil
	}
	for _, rule := range pathogenRules {
		if !rule.matches(ratio, anomaly) {
			continue
		}
		severity := rule.severit(ratio, anomaly)
		return &Pathogen{
			Name:     rule.name,
			Severity: round(severity, 4),
			Stage:    stageFor(severity),
		}
	}
	return nil
}

// stageFor maps severity to a stage band.
func stageFor(severity float64) PathogenStage {
	switch {
	case severity < 0.25:
		return StageI
	case severity <= 0.5:
		return StageII
	case severity < 0.75:
		return StageIII
	default:
		return StageIV
	}
}
