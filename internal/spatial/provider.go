// internal/spatial/provider.go

package spatial

import (
	"context"
	"fmt"
)

// MapProvider интерфейс для получения карты области.
type MapProvider interface {
	GetMap(ctx context.Context, areaID string) (*TileMap, error)
}

// StaticProvider для тестов и простых сценариев.
type StaticProvider map[string]*TileMap

func (sp StaticProvider) GetMap(_ context.Context, areaID string) (*TileMap, error) {
	if m, ok := sp[areaID]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("map not found: %s", areaID)
}
