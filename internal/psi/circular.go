package psi

import "math"

// CircularEMA smooths a series of angles (degrees) by decomposing each angle
// into sine and cosine components, running the smoothing primitive on each
// component independently with identical settings, and recombining through the
// two-argument arctangent, normalized into [0°, 360°).
//
// Averaging raw angles directly wraps badly at the 0°/360° boundary: the naive
// mean of 350° and 10° is 180°, the circular mean is 0°. An undefined slot in
// either component propagates to an undefined combined angle.
func CircularEMA(angles []float64, config SmoothingConfig) []Point {
	n := len(angles)
	sines := make([]float64, n)
	cosines := make([]float64, n)
	for i, a := range angles {
		if finite(a) {
			rad := a * math.Pi / 180.0
			sines[i] = math.Sin(rad)
			cosines[i] = math.Cos(rad)
		} else {
			sines[i] = nan()
			cosines[i] = nan()
		}
	}

	smoothSin := EMA(sines, config)
	smoothCos := EMA(cosines, config)

	combined := make([]Point, n)
	for i := 0; i < n; i++ {
		s, c := smoothSin[i], smoothCos[i]
		if !s.Valid || !c.Valid {
			continue
		}
		deg := math.Atan2(s.Value, c.Value) * 180.0 / math.Pi
		combined[i] = Point{
			Value:        normalizeDegrees(deg),
			Valid:        true,
			Interpolated: s.Interpolated || c.Interpolated,
		}
	}
	return combined
}

// normalizeDegrees maps an angle into [0, 360).
func normalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360.0)
	if d < 0 {
		d += 360.0
	}
	return d
}

// signedDegrees maps an angle from [0, 360) into (-180, 180], so that positive
// means rising phase and negative means falling.
func signedDegrees(deg float64) float64 {
	if deg > 180.0 {
		return deg - 360.0
	}
	return deg
}
