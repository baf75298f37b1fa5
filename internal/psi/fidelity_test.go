package psi

import (
	"math"
	"testing"
)

func flagsOf(n int, interpolated bool) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = interpolated
	}
	return out
}

func TestTrackDimension(t *testing.T) {
	flags := []bool{false, false, true, false, true} // 3 of 5 authentic
	f := TrackDimension(flags)

	if f.RealCount != 3 || f.TotalCount != 5 {
		t.Errorf("counts = %d/%d, want 3/5", f.RealCount, f.TotalCount)
	}
	if math.Abs(f.Ratio-0.6) > 1e-9 {
		t.Errorf("ratio = %v, want 0.6", f.Ratio)
	}
	if f.IsValid {
		t.Error("0.6 sits below the φ⁻¹ validity bar")
	}
	if !f.HasSignal {
		t.Error("0.6 clears the φ⁻² signal bar")
	}
}

func TestMergeFlags(t *testing.T) {
	fast := []bool{false, true, false, false}
	slow := []bool{false, false, true}
	merged := MergeFlags(fast, slow)

	want := []bool{false, true, true}
	if len(merged) != len(want) {
		t.Fatalf("len = %d, want %d", len(merged), len(want))
	}
	for i := range want {
		if merged[i] != want[i] {
			t.Errorf("merged[%d] = %v, want %v", i, merged[i], want[i])
		}
	}
}

func TestTrackFidelity_GradeA(t *testing.T) {
	report := TrackFidelity(flagsOf(10, false), flagsOf(10, false), flagsOf(10, false))
	if report.Grade != "A" {
		t.Errorf("grade = %q, want A", report.Grade)
	}
	if report.Average != 1.0 {
		t.Errorf("average = %v, want 1.0", report.Average)
	}
}

func TestTrackFidelity_OneDeadDimensionNeverGradesA(t *testing.T) {
	// Two perfect dimensions, one fully interpolated: the average lands at
	// 2/3 ≥ φ⁻¹ but the dead dimension blocks grade A.
	report := TrackFidelity(flagsOf(10, false), flagsOf(10, false), flagsOf(10, true))
	if report.Grade == "A" {
		t.Fatal("a dimension with zero authentic points must block grade A")
	}
	if report.Grade != "B" {
		t.Errorf("grade = %q, want B (average %v clears φ⁻¹)", report.Grade, report.Average)
	}
}

func TestTrackFidelity_AllTrueVsAllFalsePair(t *testing.T) {
	// One perfect dimension against one fully interpolated: with the third
	// also dead the average falls below φ⁻¹ and below φ⁻².
	report := TrackFidelity(flagsOf(10, false), flagsOf(10, true), flagsOf(10, true))
	if report.Average >= PhiInv {
		t.Errorf("average = %v, expected below φ⁻¹", report.Average)
	}
	if report.Grade == "A" || report.Grade == "B" {
		t.Errorf("grade = %q, want C or D", report.Grade)
	}
}

func TestTrackFidelity_GradeLadder(t *testing.T) {
	// Averages straddling the φ⁻² bar.
	c := TrackFidelity(flagsOf(10, false), flagsOf(10, false), flagsOf(10, true))
	if c.Grade != "B" {
		t.Errorf("2/3 average: grade = %q, want B", c.Grade)
	}
	d := TrackFidelity(flagsOf(10, true), flagsOf(10, true), flagsOf(10, true))
	if d.Grade != "D" {
		t.Errorf("all interpolated: grade = %q, want D", d.Grade)
	}
}
