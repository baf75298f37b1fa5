// Package psi implements the Ψ-EMA oscillation engine: it decomposes an ordered
// numeric sequence into phase (cycle position), anomaly (robust deviation from
// equilibrium) and convergence (ratio of successive anomalies), smooths each with
// exponential moving averages at fixed golden-ratio periods, and classifies the
// combination into named regimes and readings.
//
// The engine is pure: it performs no I/O, keeps no state between calls, and never
// panics on malformed numeric input. Every degenerate case (short series, non-finite
// samples, zero dispersion, near-zero denominators) degrades to an explicit
// undefined sentinel plus a status field.
package psi

// Golden-ratio constants. All classification boundaries and smoothing periods in
// this package derive from powers of φ.
const (
	Phi      = 1.618033988749895    // φ
	PhiSq    = 2.618033988749895    // φ²
	PhiInv   = 0.6180339887498949   // φ⁻¹
	PhiInvSq = 0.38196601125010515  // φ⁻²
)

// Smoothing periods per dimension (fast, slow). Fibonacci numbers, matching the
// EMA ladder the upstream fetcher reports (13/21/34/55).
const (
	PhasePeriodFast       = 34
	PhasePeriodSlow       = 55
	AnomalyPeriodFast     = 21
	AnomalyPeriodSlow     = 34
	ConvergencePeriodFast = 13
	ConvergencePeriodSlow = 21
)

// Point is one slot of a smoothed series. A slot is either a genuinely computed
// average (Valid, !Interpolated), an explicitly interpolated filler (Valid,
// Interpolated) or undefined (!Valid). Value is only meaningful when Valid.
type Point struct {
	Value        float64 `json:"value"`
	Valid        bool    `json:"valid"`
	Interpolated bool    `json:"interpolated"`
}

// Undefined returns an invalid Point.
func Undefined() Point {
	return Point{}
}

// Values extracts the raw values of a smoothed series, with NaN in undefined slots.
func Values(series []Point) []float64 {
	out := make([]float64, len(series))
	for i, p := range series {
		if p.Valid {
			out[i] = p.Value
		} else {
			out[i] = nan()
		}
	}
	return out
}

// Flags extracts the interpolation flags of a smoothed series. Undefined slots
// count as interpolated: they carry no authentic measurement either.
func Flags(series []Point) []bool {
	out := make([]bool, len(series))
	for i, p := range series {
		out[i] = p.Interpolated || !p.Valid
	}
	return out
}

// Dimension is the per-dimension sub-record of an analysis: the current value,
// the fast/slow smoothed series, the crossover classification and the merged
// interpolation flags.
type Dimension struct {
	Name         string    `json:"name"`
	Current      float64   `json:"current"`
	CurrentValid bool      `json:"current_valid"`
	Fast         []Point   `json:"fast"`
	Slow         []Point   `json:"slow"`
	Crossover    Crossover `json:"crossover"`
	Raw          []float64 `json:"raw"`
	Flags        []bool    `json:"flags"`
}

// Derivatives is the derivative hierarchy of the input sequence: velocity,
// acceleration and jerk as successive first differences, each padded with NaN to
// the input length so indices stay aligned.
type Derivatives struct {
	Velocity     []float64 `json:"velocity"`
	Acceleration []float64 `json:"acceleration"`
	Jerk         []float64 `json:"jerk"`
}

// Reading is the final label of the reading decision tree plus its short
// description.
type Reading struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Summary carries the sequence-level counters and the optional multi-line
// human-readable rendering of a result.
type Summary struct {
	Periods int    `json:"periods"`
	Text    string `json:"text"`
}

// Analysis is the immutable per-call result. It is created fresh on every call;
// the only shared state across calls are the constant threshold tables.
type Analysis struct {
	Phase       Dimension      `json:"phase"`
	Anomaly     Dimension      `json:"anomaly"`
	Convergence Dimension      `json:"convergence"`
	Dispersion  Dispersion     `json:"dispersion"`
	Ratios      Convergence    `json:"ratios"`
	Regime      Regime         `json:"regime"`
	Pathogen    *Pathogen      `json:"pathogen,omitempty"`
	Fidelity    FidelityReport `json:"fidelity"`
	Derivatives Derivatives    `json:"derivatives"`
	Reading     Reading        `json:"reading"`
	Summary     Summary        `json:"summary"`
}
