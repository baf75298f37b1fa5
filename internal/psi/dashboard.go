package psi

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInsufficientData is returned when the input sequence is too short to
// analyze at all. Every other degradation is reported inside the result, never
// as an error.
var ErrInsufficientData = errors.New("psi: insufficient data")

// MinSamples is the hard floor on input length.
const MinSamples = 3

// Analyze runs the full oscillation analysis over a sample sequence and an
// optional parallel flow sequence. flows may be nil (first differences of
// stocks), the same length as stocks, or one element shorter (aligned to the
// steps between samples). The input slices are never mutated; the returned
// result is created fresh per call and shares no state with other calls.
func Analyze(stocks, flows []float64) (*Analysis, error) {
	if len(stocks) < MinSamples {
		return nil, fmt.Errorf("%w: need at least %d samples, got %d",
			ErrInsufficientData, MinSamples, len(stocks))
	}

	steps, err := alignFlows(stocks, flows)
	if err != nil {
		return nil, err
	}

	// Anomaly scoring over the raw sequence.
	dispersion := ComputeDispersion(stocks, DefaultDispersionConfig())

	// Phase: angle of per-step delta against the prior level, circularly
	// smoothed. θ[i] = atan2(flow[i], stocks[i-1]).
	thetaRaw := phaseAngles(stocks, steps)
	phaseFast := CircularEMA(thetaRaw, DefaultSmoothing(PhasePeriodFast))
	phaseSlow := CircularEMA(thetaRaw, DefaultSmoothing(PhasePeriodSlow))

	// Anomaly smoothing over the score series.
	anomalyFast := EMA(dispersion.Scores, DefaultSmoothing(AnomalyPeriodFast))
	anomalySlow := EMA(dispersion.Scores, DefaultSmoothing(AnomalyPeriodSlow))

	// Convergence: ratios of successive anomaly scores, smoothed.
	convergence := ComputeConvergence(dispersion.Scores, dispersion.Current)
	ratioRaw := ratioValues(convergence.Ratios, len(stocks))
	convFast := EMA(ratioRaw, DefaultSmoothing(ConvergencePeriodFast))
	convSlow := EMA(ratioRaw, DefaultSmoothing(ConvergencePeriodSlow))

	phaseDim := buildDimension("phase", phaseFast, phaseSlow, thetaRaw)
	if phaseDim.CurrentValid {
		phaseDim.Current = signedDegrees(phaseDim.Current)
	}
	anomalyDim := buildDimension("anomaly", anomalyFast, anomalySlow, dispersion.Scores)
	anomalyDim.Current = dispersion.Current
	anomalyDim.CurrentValid = finite(dispersion.Current)
	convDim := buildDimension("convergence", convFast, convSlow, ratioRaw)
	convDim.Current = convergence.Current.Value
	convDim.CurrentValid = convergence.Current.Defined

	fidelity := TrackFidelity(phaseDim.Flags, anomalyDim.Flags, convDim.Flags)

	theta := nan()
	if phaseDim.CurrentValid {
		theta = phaseDim.Current
	}

	pathogenRatio := nan()
	if convergence.Current.Defined {
		pathogenRatio = convergence.Current.Value
	}

	result := &Analysis{
		Phase:       phaseDim,
		Anomaly:     anomalyDim,
		Convergence: convDim,
		Dispersion:  dispersion,
		Ratios:      convergence,
		Regime:      convergence.Regime,
		Pathogen:    DetectPathogen(pathogenRatio, dispersion.Current),
		Fidelity:    fidelity,
		Derivatives: deriveHierarchy(stocks),
		Reading:     DecideReading(convergence.Current, dispersion.Current, theta),
		Summary:     Summary{Periods: len(stocks)},
	}
	result.Summary.Text = renderSummary(result)
	return result, nil
}

// alignFlows normalizes the optional flow sequence to the stock sequence
// length, front-padded with NaN so flow[i] is the step into index i. nil flows
// default to first differences.
func alignFlows(stocks, flows []float64) ([]float64, error) {
	n := len(stocks)
	switch {
	case flows == nil:
		return firstDiff(stocks), nil
	case len(flows) == n:
		out := make([]float64, n)
		copy(out, flows)
		return out, nil
	case len(flows) == n-1:
		out := make([]float64, n)
		out[0] = nan()
		copy(out[1:], flows)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: flow sequence length %d does not match %d samples",
			ErrInsufficientData, len(flows), n)
	}
}

// phaseAngles computes the raw phase series: the angle of each step's flow
// against the prior level, in degrees. Index 0 and any step with a non-finite
// operand stay undefined.
func phaseAngles(stocks, steps []float64) []float64 {
	n := len(stocks)
	theta := make([]float64, n)
	theta[0] = nan()
	for i := 1; i < n; i++ {
		if finite(steps[i]) && finite(stocks[i-1]) {
			theta[i] = math.Atan2(steps[i], stocks[i-1]) * 180.0 / math.Pi
		} else {
			theta[i] = nan()
		}
	}
	return theta
}

// ratioValues flattens a ratio series to floats aligned with the input
// sequence, NaN where undefined. Ratio j covers the pair ending at index j+1.
func ratioValues(ratios []Ratio, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = nan()
	}
	for j, r := range ratios {
		if r.Defined && j+1 < n {
			out[j+1] = r.Value
		}
	}
	return out
}

// buildDimension assembles a per-dimension sub-record. The default current
// value is the most recent defined point of the fast series; callers override
// it where the dimension has a more direct readout.
func buildDimension(name string, fast, slow []Point, raw []float64) Dimension {
	dim := Dimension{
		Name:  name,
		Fast:  fast,
		Slow:  slow,
		Raw:   raw,
		Flags: MergeFlags(Flags(fast), Flags(slow)),
	}
	for i := len(fast) - 1; i >= 0; i-- {
		if fast[i].Valid {
			dim.Current = fast[i].Value
			dim.CurrentValid = true
			break
		}
	}
	dim.Crossover = DetectCrossover(Values(fast), Values(slow), Flags(fast), Flags(slow), DefaultCrossoverConfig())
	return dim
}

// deriveHierarchy computes velocity, acceleration and jerk as successive first
// differences, each aligned to the input length.
func deriveHierarchy(stocks []float64) Derivatives {
	velocity := firstDiff(stocks)
	acceleration := firstDiff(velocity)
	jerk := firstDiff(acceleration)
	return Derivatives{Velocity: velocity, Acceleration: acceleration, Jerk: jerk}
}

// renderSummary produces the multi-line human-readable rendering of a result.
func renderSummary(a *Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ψ-EMA reading over %d periods: %s\n", a.Summary.Periods, a.Reading.Label)
	fmt.Fprintf(&b, "  regime: %s", a.Regime)
	if a.Pathogen != nil {
		fmt.Fprintf(&b, "  pathogen: %s (stage %s, severity %.2f)",
			a.Pathogen.Name, a.Pathogen.Stage, a.Pathogen.Severity)
	}
	b.WriteString("\n")

	if a.Anomaly.CurrentValid {
		fmt.Fprintf(&b, "  anomaly z=%.2f", a.Anomaly.Current)
	} else {
		b.WriteString("  anomaly z=undefined")
	}
	if a.Ratios.Current.Defined {
		fmt.Fprintf(&b, "  ratio R=%.2f", a.Ratios.Current.Value)
	} else {
		fmt.Fprintf(&b, "  ratio R=undefined (%s)", a.Ratios.Current.Status)
	}
	if a.Phase.CurrentValid {
		fmt.Fprintf(&b, "  phase θ=%.2f°", a.Phase.Current)
	} else {
		b.WriteString("  phase θ=undefined")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "  fidelity grade %s (phase %.2f, anomaly %.2f, convergence %.2f)\n",
		a.Fidelity.Grade, a.Fidelity.Phase.Ratio, a.Fidelity.Anomaly.Ratio, a.Fidelity.Convergence.Ratio)
	fmt.Fprintf(&b, "  crossovers: phase %s, anomaly %s, convergence %s\n",
		a.Phase.Crossover.Type, a.Anomaly.Crossover.Type, a.Convergence.Crossover.Type)
	fmt.Fprintf(&b, "  %s", a.Reading.Description)
	return b.String()
}
