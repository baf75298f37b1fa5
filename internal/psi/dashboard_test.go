package psi

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func driftSequence(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100.0 + float64(i)*0.8
	}
	return out
}

func TestAnalyze_EndToEnd(t *testing.T) {
	stocks := driftSequence(50)
	result, err := Analyze(stocks, nil)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if result.Summary.Periods != len(stocks) {
		t.Errorf("summary.periods = %d, want %d", result.Summary.Periods, len(stocks))
	}
	if result.Reading.Label == "" {
		t.Error("reading label should be populated")
	}
	if result.Reading.Description == "" {
		t.Error("reading description should be populated")
	}
	if result.Summary.Text == "" || !strings.Contains(result.Summary.Text, result.Reading.Label) {
		t.Error("summary text should mention the reading label")
	}

	// Every aligned record matches the input length.
	n := len(stocks)
	for name, length := range map[string]int{
		"phase fast":       len(result.Phase.Fast),
		"phase slow":       len(result.Phase.Slow),
		"phase flags":      len(result.Phase.Flags),
		"anomaly scores":   len(result.Dispersion.Scores),
		"anomaly flags":    len(result.Anomaly.Flags),
		"convergence raw":  len(result.Convergence.Raw),
		"velocity":         len(result.Derivatives.Velocity),
		"acceleration":     len(result.Derivatives.Acceleration),
		"jerk":             len(result.Derivatives.Jerk),
	} {
		if length != n {
			t.Errorf("%s length = %d, want %d", name, length, n)
		}
	}

	if result.Fidelity.Grade == "" {
		t.Error("fidelity grade should be populated")
	}
}

func TestAnalyze_ShortInputFails(t *testing.T) {
	if _, err := Analyze([]float64{1, 2}, nil); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
	if _, err := Analyze(nil, nil); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("empty input: err = %v, want ErrInsufficientData", err)
	}
}

func TestAnalyze_FlowLengthValidation(t *testing.T) {
	stocks := driftSequence(10)

	if _, err := Analyze(stocks, make([]float64, 10)); err != nil {
		t.Errorf("equal-length flows rejected: %v", err)
	}
	if _, err := Analyze(stocks, make([]float64, 9)); err != nil {
		t.Errorf("one-shorter flows rejected: %v", err)
	}
	if _, err := Analyze(stocks, make([]float64, 4)); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("mismatched flows: err = %v, want ErrInsufficientData", err)
	}
}

func TestAnalyze_DoesNotMutateInput(t *testing.T) {
	stocks := []float64{5, math.NaN(), 7, 8, 9, 10}
	flows := []float64{1, 1, math.Inf(1), 1, 1}
	stocksCopy := append([]float64(nil), stocks...)
	flowsCopy := append([]float64(nil), flows...)

	if _, err := Analyze(stocks, flows); err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	for i := range stocks {
		same := stocks[i] == stocksCopy[i] || (math.IsNaN(stocks[i]) && math.IsNaN(stocksCopy[i]))
		if !same {
			t.Fatalf("stocks[%d] mutated: %v != %v", i, stocks[i], stocksCopy[i])
		}
	}
	for i := range flows {
		same := flows[i] == flowsCopy[i] || (math.IsNaN(flows[i]) && math.IsNaN(flowsCopy[i]))
		if !same {
			t.Fatalf("flows[%d] mutated: %v != %v", i, flows[i], flowsCopy[i])
		}
	}
}

func TestAnalyze_ShortSeriesDegradesToConsolidation(t *testing.T) {
	// Far too short for any anomaly window: the ratio stays undefined and the
	// reading must not go directional.
	result, err := Analyze(driftSequence(5), nil)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.Reading.Label != ReadingConsolidation {
		t.Errorf("reading = %q, want %q on an undefined ratio", result.Reading.Label, ReadingConsolidation)
	}
	if result.Regime != RegimeConsolidation {
		t.Errorf("regime = %v, want CONSOLIDATION", result.Regime)
	}
}

func TestAnalyze_PhaseIsSignedAndRising(t *testing.T) {
	result, err := Analyze(driftSequence(60), nil)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if !result.Phase.CurrentValid {
		t.Fatal("phase should be defined for a long clean series")
	}
	if result.Phase.Current <= 0 || result.Phase.Current > 90 {
		t.Errorf("phase = %v°, want a small positive rising angle", result.Phase.Current)
	}
}

func TestAnalyze_NonFiniteInputTolerated(t *testing.T) {
	stocks := driftSequence(40)
	stocks[7] = math.NaN()
	stocks[21] = math.Inf(1)

	result, err := Analyze(stocks, nil)
	if err != nil {
		t.Fatalf("non-finite entries must degrade, not fail: %v", err)
	}
	if result.Summary.Periods != 40 {
		t.Errorf("periods = %d, want 40", result.Summary.Periods)
	}
}
