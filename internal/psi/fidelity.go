package psi

// DimensionFidelity tracks how much of one dimension's smoothed output is
// genuinely computed rather than interpolated or warm-up filler.
type DimensionFidelity struct {
	RealCount  int     `json:"real_count"`
	TotalCount int     `json:"total_count"`
	Ratio      float64 `json:"ratio"`
	IsValid    bool    `json:"is_valid"`   // ratio ≥ φ⁻¹
	HasSignal  bool    `json:"has_signal"` // ratio ≥ φ⁻²
}

// FidelityReport aggregates the three dimensions into an overall grade.
type FidelityReport struct {
	Phase       DimensionFidelity `json:"phase"`
	Anomaly     DimensionFidelity `json:"anomaly"`
	Convergence DimensionFidelity `json:"convergence"`
	Average     float64           `json:"average"`
	Grade       string            `json:"grade"` // A-D
}

// MergeFlags combines the interpolation flags of a dimension's fast and slow
// smoothing: a step is authentic only when neither series interpolated it. The
// merged series has the shorter of the two lengths.
func MergeFlags(fastFlags, slowFlags []bool) []bool {
	n := len(fastFlags)
	if len(slowFlags) < n {
		n = len(slowFlags)
	}
	merged := make([]bool, n)
	for i := 0; i < n; i++ {
		merged[i] = fastFlags[i] || slowFlags[i]
	}
	return merged
}

// TrackDimension computes the fidelity record of one merged flag series, where
// true marks an interpolated step.
func TrackDimension(flags []bool) DimensionFidelity {
	f := DimensionFidelity{TotalCount: len(flags)}
	for _, interpolated := range flags {
		if !interpolated {
			f.RealCount++
		}
	}
	if f.TotalCount > 0 {
		f.Ratio = float64(f.RealCount) / float64(f.TotalCount)
	}
	f.IsValid = f.Ratio >= PhiInv
	f.HasSignal = f.Ratio >= PhiInvSq
	return f
}

// TrackFidelity builds the overall report from the three per-dimension flag
// series. Grade A requires an average fidelity of at least φ⁻¹ and all three
// dimensions valid; B requires only the average; C requires the average above
// φ⁻²; everything else is D.
func TrackFidelity(phaseFlags, anomalyFlags, convergenceFlags []bool) FidelityReport {
	report := FidelityReport{
		Phase:       TrackDimension(phaseFlags),
		Anomaly:     TrackDimension(anomalyFlags),
		Convergence: TrackDimension(convergenceFlags),
	}
	report.Average = (report.Phase.Ratio + report.Anomaly.Ratio + report.Convergence.Ratio) / 3.0

	allValid := report.Phase.IsValid && report.Anomaly.IsValid && report.Convergence.IsValid
	switch {
	case report.Average >= PhiInv && allValid:
		report.Grade = "A"
	case report.Average >= PhiInv:
		report.Grade = "B"
	case report.Average >= PhiInvSq:
		report.Grade = "C"
	default:
		report.Grade = "D"
	}
	return report
}
