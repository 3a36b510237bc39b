// internal/spatial/sight.go

package spatial

import "math"

// TileType: тип клетки карты.
type TileType string

const (
	TileFloor TileType = "floor"
	TileWall  TileType = "wall"
	TileDoor  TileType = "door"
	TileCover TileType = "cover"
	TileWater TileType = "water"
	TileTrap  TileType = "trap"
)

// Tile: клетка карты.
type Tile struct {
	Type     TileType `json:"type"`
	Walkable bool     `json:"walkable"`
}

// blocksSight: непроходимые клетки закрывают обзор, кроме укрытий.
func (t Tile) blocksSight() bool {
	return !t.Walkable && t.Type != TileCover
}

// TileMap: сетка карты области, Tiles[y][x].
type TileMap struct {
	AreaID string   `json:"area_id"`
	ZoneID string   `json:"zone_id"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Tiles  [][]Tile `json:"tiles"`
}

// NewOpenMap создаёт карту без препятствий.
func NewOpenMap(areaID, zoneID string, width, height int) *TileMap {
	tiles := make([][]Tile, height)
	for y := range tiles {
		row := make([]Tile, width)
		for x := range row {
			row[x] = Tile{Type: TileFloor, Walkable: true}
		}
		tiles[y] = row
	}
	return &TileMap{AreaID: areaID, ZoneID: zoneID, Width: width, Height: height, Tiles: tiles}
}

// SetWall помечает клетку как стену.
func (m *TileMap) SetWall(x, y int) {
	if y < 0 || y >= len(m.Tiles) || x < 0 || x >= len(m.Tiles[y]) {
		return
	}
	m.Tiles[y][x] = Tile{Type: TileWall, Walkable: false}
}

// HasLineOfSight проверяет прямую видимость между точками (алгоритм Брезенхэма).
// Начальная и конечная клетки не проверяются. Карта nil считается открытой.
func HasLineOfSight(start, end Point, m *TileMap) bool {
	if m == nil {
		return true
	}
	if !finite(start.X) || !finite(start.Y) || !finite(end.X) || !finite(end.Y) {
		return false
	}

	x0, y0 := int(math.Floor(start.X)), int(math.Floor(start.Y))
	x1, y1 := int(math.Floor(end.X)), int(math.Floor(end.Y))

	for _, c := range lineCells(x0, y0, x1, y1) {
		if (c[0] == x0 && c[1] == y0) || (c[0] == x1 && c[1] == y1) {
			continue
		}
		if c[0] < 0 || c[1] < 0 || c[1] >= m.Height || c[0] >= m.Width {
			return false
		}
		if c[1] >= len(m.Tiles) || c[0] >= len(m.Tiles[c[1]]) {
			return false
		}
		if m.Tiles[c[1]][c[0]].blocksSight() {
			return false
		}
	}
	return true
}

func lineCells(x0, y0, x1, y1 int) [][2]int {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	cells := make([][2]int, 0, dx+dy+1)
	for {
		cells = append(cells, [2]int{x0, y0})
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
	return cells
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
