// internal/config/catalog.go

package config

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"surveillance-core/internal/surveillance"
)

//go:embed catalog/cameras.yaml
var builtinCameraYAML []byte

// ZoneCameras: раскладка камер одной зоны.
type ZoneCameras struct {
	ZoneID  string                          `yaml:"zone_id" json:"zone_id"`
	Cameras []surveillance.CameraDefinition `yaml:"cameras" json:"cameras"`
}

type cameraCatalog struct {
	Zones []ZoneCameras `yaml:"zones"`
}

// parseCameraCatalog разбирает YAML с набором зон.
func parseCameraCatalog(data []byte) (map[string][]surveillance.CameraDefinition, error) {
	var doc cameraCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid camera catalog: %w", err)
	}
	out := make(map[string][]surveillance.CameraDefinition, len(doc.Zones))
	for _, z := range doc.Zones {
		if z.ZoneID == "" {
			return nil, fmt.Errorf("invalid camera catalog: zone without zone_id")
		}
		out[z.ZoneID] = z.Cameras
	}
	return out, nil
}

// BuiltinCameras возвращает встроенные раскладки камер по зонам.
func BuiltinCameras() map[string][]surveillance.CameraDefinition {
	out, err := parseCameraCatalog(builtinCameraYAML)
	if err != nil {
		panic(err)
	}
	return out
}

// BuiltinCameraZones возвращает зоны встроенного каталога.
func BuiltinCameraZones() []string {
	var doc cameraCatalog
	if err := yaml.Unmarshal(builtinCameraYAML, &doc); err != nil {
		panic(err)
	}
	ids := make([]string, 0, len(doc.Zones))
	for _, z := range doc.Zones {
		ids = append(ids, z.ZoneID)
	}
	return ids
}
