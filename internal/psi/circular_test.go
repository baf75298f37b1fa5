package psi

import (
	"math"
	"testing"
)

func TestCircularEMA_HandlesWraparound(t *testing.T) {
	// Naive averaging of 350° and 10° gives 180°; the circular mean is 0°.
	angles := []float64{350, 10, 350, 10, 350, 10}
	series := CircularEMA(angles, DefaultSmoothing(4))

	last := series[len(series)-1]
	if !last.Valid {
		t.Fatal("combined angle should be defined")
	}
	dist := math.Min(last.Value, 360.0-last.Value)
	if dist > 15 {
		t.Errorf("smoothed angle = %v°, want near 0°/360°", last.Value)
	}
}

func TestCircularEMA_RangeInvariant(t *testing.T) {
	angles := []float64{-90, 270, 180, 45, 359.9, 720}
	series := CircularEMA(angles, DefaultSmoothing(3))
	for i, p := range series {
		if !p.Valid {
			continue
		}
		if p.Value < 0 || p.Value >= 360 {
			t.Errorf("slot %d = %v, want within [0, 360)", i, p.Value)
		}
	}
}

func TestCircularEMA_UndefinedPropagates(t *testing.T) {
	angles := []float64{math.NaN()}
	series := CircularEMA(angles, DefaultSmoothing(5))
	if series[0].Valid {
		t.Error("a lone non-finite angle cannot produce a combined value")
	}
}

func TestCircularEMA_NonFiniteAngleFlagsInterpolation(t *testing.T) {
	angles := []float64{10, 10, 10, 10, math.NaN(), 10}
	series := CircularEMA(angles, DefaultSmoothing(3))
	if !series[4].Valid || !series[4].Interpolated {
		t.Fatal("carry-forward slot should be defined and flagged")
	}
	if !series[5].Valid || series[5].Interpolated {
		t.Error("series should recover after one bad angle")
	}
}

func TestSignedDegrees(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{45, 45},
		{180, 180},
		{181, -179},
		{350, -10},
	}
	for _, tc := range cases {
		if got := signedDegrees(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("signedDegrees(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
