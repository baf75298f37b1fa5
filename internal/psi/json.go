package psi

import (
	"encoding/json"
	"math"
)

// Float is a float64 whose JSON form is null when the value is not finite.
// Undefined slots travel through the engine as NaN, and encoding/json rejects
// NaN and the infinities outright, so every serialized surface substitutes
// this type for the raw field.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

func nullableFloats(values []float64) []Float {
	if values == nil {
		return nil
	}
	out := make([]Float, len(values))
	for i, v := range values {
		out[i] = Float(v)
	}
	return out
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value        Float `json:"value"`
		Valid        bool  `json:"valid"`
		Interpolated bool  `json:"interpolated"`
	}{Float(p.Value), p.Valid, p.Interpolated})
}

func (d Dimension) MarshalJSON() ([]byte, error) {
	type plain Dimension
	return json.Marshal(struct {
		plain
		Current Float   `json:"current"`
		Raw     []Float `json:"raw"`
	}{plain(d), Float(d.Current), nullableFloats(d.Raw)})
}

func (d Dispersion) MarshalJSON() ([]byte, error) {
	type plain Dispersion
	return json.Marshal(struct {
		plain
		Scores    []Float `json:"scores"`
		Current   Float   `json:"current"`
		Previous  Float   `json:"previous"`
		Magnitude Float   `json:"magnitude"`
	}{plain(d), nullableFloats(d.Scores), Float(d.Current), Float(d.Previous), Float(d.Magnitude)})
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	type plain Ratio
	return json.Marshal(struct {
		plain
		Value     Float `json:"value"`
		Magnitude Float `json:"magnitude"`
	}{plain(r), Float(r.Value), Float(r.Magnitude)})
}

func (c Convergence) MarshalJSON() ([]byte, error) {
	type plain Convergence
	return json.Marshal(struct {
		plain
		MeanMagnitude     Float `json:"mean_magnitude"`
		LowSignalFraction Float `json:"low_signal_fraction"`
	}{plain(c), Float(c.MeanMagnitude), Float(c.LowSignalFraction)})
}

func (d Derivatives) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Velocity     []Float `json:"velocity"`
		Acceleration []Float `json:"acceleration"`
		Jerk         []Float `json:"jerk"`
	}{nullableFloats(d.Velocity), nullableFloats(d.Acceleration), nullableFloats(d.Jerk)})
}
