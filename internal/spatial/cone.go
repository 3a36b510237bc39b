// internal/spatial/cone.go

package spatial

import "math"

// VisionCone: сектор обзора наблюдателя.
type VisionCone struct {
	Range     float64 `json:"range" yaml:"range"`
	Angle     float64 `json:"angle" yaml:"angle"`         // полный угол раскрытия, градусы
	Direction float64 `json:"direction" yaml:"direction"` // направление взгляда, градусы
}

// IsInVisionCone проверяет, попадает ли цель в сектор обзора из точки origin.
func IsInVisionCone(origin, target Point, cone VisionCone) bool {
	distance := DistanceBetween(origin, target)
	if distance > cone.Range {
		return false
	}
	if cone.Angle >= 360 || distance == 0 {
		return true
	}

	angleToTarget := HeadingDegrees(origin, target)
	diff := math.Abs(ShortestAngleBetween(WrapDegrees(cone.Direction), angleToTarget))
	return diff <= cone.Angle/2
}
