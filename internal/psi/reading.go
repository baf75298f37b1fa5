package psi

// Reading labels. The decision tree below maps the current convergence ratio R,
// anomaly score z and phase angle θ to exactly one of these.
const (
	ReadingConsolidation     = "Consolidation"
	ReadingLocalBottom       = "Local Bottom"
	ReadingLocalTop          = "Local Top"
	ReadingReversal          = "Reversal"
	ReadingContinuation      = "Continuation"
	ReadingOptimism          = "Optimism"
	ReadingOversold          = "Oversold"
	ReadingBreathing         = "Breathing"
	ReadingFalseBreakout     = "False Breakout"
	ReadingBullTrend         = "Bull Trend Signal"
	ReadingFalsePositiveBull = "False Positive Bull Signal"
)

// readingDescriptions is the immutable description table consumed by the
// reporting layer.
var readingDescriptions = map[string]string{
	ReadingConsolidation:     "Anomaly ratio undefined; the series sits at equilibrium with no directional information.",
	ReadingLocalBottom:       "Sign flip with a negative anomaly: deviation below equilibrium is reversing upward.",
	ReadingLocalTop:          "Sign flip with a positive anomaly: deviation above equilibrium is reversing downward.",
	ReadingReversal:          "Deviation collapsing while the anomaly is still positive; momentum is turning.",
	ReadingContinuation:      "Deviation collapsing below equilibrium; the prevailing move continues.",
	ReadingOptimism:          "Deviation shrinking toward equilibrium from above; constructive but not yet trending.",
	ReadingOversold:          "Deviation shrinking while the anomaly is negative; the selloff is exhausting.",
	ReadingBreathing:         "Deviation oscillating near unity inside the normal band; a healthy breathing cycle.",
	ReadingFalseBreakout:     "Near-unity ratio with the anomaly outside the normal band; the apparent move lacks support.",
	ReadingBullTrend:         "Expanding deviation with contained anomaly and a rising phase: a supported upward trend.",
	ReadingFalsePositiveBull: "Expanding deviation without phase support or with an extreme anomaly; distrust the breakout.",
}

// readingInput is the tuple the decision tree consumes.
type readingInput struct {
	ratio   float64
	defined bool
	anomaly float64
	theta   float64 // signed phase angle, positive = rising
}

// readingRule is one guarded rule of the decision tree. The rules evaluate in
// order and the first match wins; the boundary operators disambiguate the
// overlapping ranges, so the order must not change.
type readingRule struct {
	label   string
	matches func(in readingInput) bool
}

var readingRules = []readingRule{
	{ReadingConsolidation, func(in readingInput) bool { return !in.defined }},
	{ReadingLocalBottom, func(in readingInput) bool { return in.ratio < 0 && in.anomaly < 0 }},
	{ReadingLocalTop, func(in readingInput) bool { return in.ratio < 0 }},
	{ReadingReversal, func(in readingInput) bool { return in.ratio < PhiInvSq && in.anomaly > 0 }},
	{ReadingContinuation, func(in readingInput) bool { return in.ratio < PhiInvSq }},
	{ReadingOptimism, func(in readingInput) bool { return in.ratio < PhiInv && in.anomaly > 0 }},
	{ReadingOversold, func(in readingInput) bool { return in.ratio < PhiInv }},
	{ReadingBreathing, func(in readingInput) bool {
		return in.ratio < Phi && in.anomaly > 0 && in.anomaly < PhiSq
	}},
	{ReadingFalseBreakout, func(in readingInput) bool { return in.ratio < Phi }},
	{ReadingFalsePositiveBull, func(in readingInput) bool {
		return in.anomaly > PhiSq || in.anomaly < -PhiSq
	}},
	{ReadingBullTrend, func(in readingInput) bool { return in.theta > 0 }},
	{ReadingFalsePositiveBull, func(in readingInput) bool { return true }},
}

// DecideReading runs the reading decision tree on the current ratio, anomaly
// and signed phase angle. A non-finite anomaly or phase participates as a
// failed comparison, never as a fault.
func DecideReading(ratio Ratio, anomaly, theta float64) Reading {
	in := readingInput{
		ratio:   ratio.Value,
		defined: ratio.Defined,
		anomaly: anomaly,
		theta:   theta,
	}
	for _, rule := range readingRules {
		if rule.matches(in) {
			return Reading{Label: rule.label, Description: readingDescriptions[rule.label]}
		}
	}
	// Unreachable: the final rule always matches.
	return Reading{Label: ReadingConsolidation, Description: readingDescriptions[ReadingConsolidation]}
}
