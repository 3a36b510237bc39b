// internal/config/maps.go

package config

import (
	"context"
	"errors"
	"fmt"
	"path"

	"gopkg.in/yaml.v3"

	"surveillance-core/internal/minio"
	"surveillance-core/internal/spatial"
)

const mapPrefix = "maps"

// AreaMap: документ maps/<area>.yaml. Каждая строка rows задаёт ряд клеток:
// '#' стена, 'D' дверь, 'C' укрытие, '~' вода, '^' ловушка, остальное пол.
type AreaMap struct {
	ZoneID string   `yaml:"zone_id"`
	Rows   []string `yaml:"rows"`
}

var legend = map[rune]spatial.Tile{
	'#': {Type: spatial.TileWall, Walkable: false},
	'D': {Type: spatial.TileDoor, Walkable: true},
	'C': {Type: spatial.TileCover, Walkable: false},
	'~': {Type: spatial.TileWater, Walkable: false},
	'^': {Type: spatial.TileTrap, Walkable: true},
}

// ParseAreaMap строит карту из документа. Короткие ряды дополняются полом.
func ParseAreaMap(areaID string, data []byte) (*spatial.TileMap, error) {
	var doc AreaMap
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid map YAML for %s: %w", areaID, err)
	}
	width := 0
	for _, row := range doc.Rows {
		if n := len([]rune(row)); n > width {
			width = n
		}
	}
	m := spatial.NewOpenMap(areaID, doc.ZoneID, width, len(doc.Rows))
	for y, row := range doc.Rows {
		for x, r := range []rune(row) {
			if tile, ok := legend[r]; ok {
				m.Tiles[y][x] = tile
			}
		}
	}
	return m, nil
}

// GetMap реализует spatial.MapProvider. Без карты возвращает nil без ошибки,
// и обзор ничем не перекрыт.
func (s *Store) GetMap(ctx context.Context, areaID string) (*spatial.TileMap, error) {
	s.cacheLock.RLock()
	if m, ok := s.maps[areaID]; ok {
		s.cacheLock.RUnlock()
		return m, nil
	}
	s.cacheLock.RUnlock()

	if s.objects == nil || areaID == "" {
		return nil, nil
	}
	data, err := s.objects.GetObject(ctx, s.bucket, path.Join(mapPrefix, areaID+".yaml"))
	var m *spatial.TileMap
	switch {
	case errors.Is(err, minio.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("map %s: %w", areaID, err)
	default:
		if m, err = ParseAreaMap(areaID, data); err != nil {
			return nil, err
		}
	}

	s.cacheLock.Lock()
	s.maps[areaID] = m
	s.cacheLock.Unlock()
	return m, nil
}
