// internal/spatial/angles.go

package spatial

import "math"

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clamp ограничивает значение диапазоном [lo, hi]. Нечисловое значение → lo.
func Clamp(value, lo, hi float64) float64 {
	if !finite(value) {
		return lo
	}
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// WrapDegrees нормализует угол в [0, 360).
func WrapDegrees(angle float64) float64 {
	if !finite(angle) {
		return 0
	}
	wrapped := math.Mod(angle, 360)
	if wrapped < 0 {
		wrapped += 360
	}
	// -1e-15 + 360 округляется до 360
	if wrapped >= 360 {
		wrapped = 0
	}
	return wrapped
}

// ShortestAngleBetween возвращает знаковую разницу end-start в диапазоне [-180, 180),
// так что 350 → 10 даёт +20, а не -340.
func ShortestAngleBetween(start, end float64) float64 {
	if !finite(start) || !finite(end) {
		return 0
	}
	return WrapDegrees(end-start+180) - 180
}

// Lerp: линейная интерполяция. При нечисловых аргументах возвращает start.
func Lerp(start, end, t float64) float64 {
	if !finite(start) || !finite(end) || !finite(t) {
		return start
	}
	return start + (end-start)*t
}

// RadiansToDegrees переводит радианы в градусы.
func RadiansToDegrees(radians float64) float64 {
	if !finite(radians) {
		return 0
	}
	return radians * (180 / math.Pi)
}
