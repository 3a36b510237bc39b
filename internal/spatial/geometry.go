// internal/spatial/geometry.go

package spatial

import "math"

// Point: 2D точка в тайловых координатах карты.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// DistanceBetween вычисляет евклидово расстояние.
// Для нечисловых координат возвращает +Inf, чтобы вызывающий код отбросил цель.
func DistanceBetween(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	d := math.Sqrt(dx*dx + dy*dy)
	if math.IsNaN(d) {
		return math.Inf(1)
	}
	return d
}

// LerpPoint линейно интерполирует между двумя точками.
func LerpPoint(from, to Point, t float64) Point {
	return Point{
		X: Lerp(from.X, to.X, t),
		Y: Lerp(from.Y, to.Y, t),
	}
}

// HeadingDegrees возвращает направление from → to в градусах [0, 360).
func HeadingDegrees(from, to Point) float64 {
	return WrapDegrees(RadiansToDegrees(math.Atan2(to.Y-from.Y, to.X-from.X)))
}

// Equal сравнивает точки покомпонентно.
func (p Point) Equal(o Point) bool {
	return p.X == o.X && p.Y == o.Y
}
