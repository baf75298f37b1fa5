package psi

import (
	"math"
	"testing"
)

func TestClassifyRegime_MagnitudeBands(t *testing.T) {
	cases := []struct {
		ratio   float64
		anomaly float64
		want    Regime
	}{
		{0.3, -1.0, RegimeFatalism},
		{0.3, 1.0, RegimeBullishRevert},
		{0.5, 1.0, RegimeFatalismCliff},
		{PhiInvSq, 1.0, RegimeFatalismCliff}, // lower boundary inclusive via <
		{1.0, 0.0, RegimeBreathing},
		{PhiInv, 0.0, RegimeBreathing},
		{Phi, 0.0, RegimeOptimism}, // φ belongs to the optimism band
		{2.0, 0.0, RegimeOptimism},
		{PhiSq, 0.0, RegimeOptimism}, // φ² still optimism, boundary inclusive
		{3.0, 0.0, RegimeEscape},
	}
	for _, tc := range cases {
		if got := ClassifyRegime(tc.ratio, tc.anomaly); got != tc.want {
			t.Errorf("ClassifyRegime(%v, %v) = %v, want %v", tc.ratio, tc.anomaly, got, tc.want)
		}
	}
}

func TestClassifyRegime_NegativeRatios(t *testing.T) {
	if got := ClassifyRegime(-0.5, -2.0); got != RegimePanicReversal {
		t.Errorf("got %v, want PANIC_REVERSAL", got)
	}
	if got := ClassifyRegime(-0.5, 2.0); got != RegimeReliefReversal {
		t.Errorf("got %v, want RELIEF_REVERSAL", got)
	}
}

func TestDetectPathogen_BubbleCancer(t *testing.T) {
	p := DetectPathogen(3.0, 4.0)
	if p == nil {
		t.Fatal("expected a pathogen")
	}
	if p.Name != "Bubble Cancer" {
		t.Errorf("name = %q, want Bubble Cancer", p.Name)
	}
	if p.Severity != 0.5 {
		t.Errorf("severity = %v, want 0.5", p.Severity)
	}
	if p.Stage != StageII {
		t.Errorf("stage = %v, want II", p.Stage)
	}
}

func TestDetectPathogen_BubbleCancerWinsOverPonzi(t *testing.T) {
	// Both rules match; the table order decides.
	p := DetectPathogen(3.0, 5.5)
	if p == nil || p.Name != "Bubble Cancer" {
		t.Fatalf("got %+v, want Bubble Cancer", p)
	}
	if p.Severity != 1.0 || p.Stage != StageIV {
		t.Errorf("severity/stage = %v/%v, want 1.0/IV", p.Severity, p.Stage)
	}
}

func TestDetectPathogen_PonziVirus(t *testing.T) {
	p := DetectPathogen(3.0, 1.0)
	if p == nil || p.Name != "Ponzi Virus" {
		t.Fatalf("got %+v, want Ponzi Virus", p)
	}
	want := clamp((3.0-2.5)/1.5, 0, 1)
	if math.Abs(p.Severity-round(want, 4)) > 1e-9 {
		t.Errorf("severity = %v, want %v", p.Severity, round(want, 4))
	}
	if p.Stage != StageII {
		t.Errorf("stage = %v, want II", p.Stage)
	}
}

func TestDetectPathogen_NoMatch(t *testing.T) {
	if p := DetectPathogen(1.5, 2.0); p != nil {
		t.Errorf("got %+v, want nil", p)
	}
	if p := DetectPathogen(math.NaN(), 4.0); p != nil {
		t.Errorf("non-finite ratio: got %+v, want nil", p)
	}
}

func TestStageBands(t *testing.T) {
	cases := []struct {
		severity float64
		want     PathogenStage
	}{
		{0.0, StageI},
		{0.24, StageI},
		{0.25, StageII},
		{0.5, StageII},
		{0.51, StageIII},
		{0.74, StageIII},
		{0.75, StageIV},
		{1.0, StageIV},
	}
	for _, tc := range cases {
		if got := stageFor(tc.severity); got != tc.want {
			t.Errorf("stageFor(%v) = %v, want %v", tc.severity, got, tc.want)
		}
	}
}
