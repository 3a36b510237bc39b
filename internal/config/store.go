// internal/config/store.go

package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"surveillance-core/internal/minio"
	"surveillance-core/internal/spatial"
	"surveillance-core/internal/surveillance"
	"surveillance-core/internal/suspicion"
)

const (
	profilePrefix = "heat-profiles"
	cameraPrefix  = "cameras"

	// DefaultRefreshInterval: период сброса кэша (hot-reload).
	DefaultRefreshInterval = 120 * time.Second
	fetchTimeout           = 5 * time.Second
)

// Store управляет динамическими конфигами в объектном хранилище: профилями
// жара и раскладками камер. Без хранилища работает на встроенных данных.
type Store struct {
	objects minio.ObjectStore
	bucket  string

	builtinProfiles map[string]suspicion.HeatProfile
	builtinCameras  map[string][]surveillance.CameraDefinition

	cacheLock sync.RWMutex
	profiles  map[string]suspicion.HeatProfile
	cameras   map[string][]surveillance.CameraDefinition
	maps      map[string]*spatial.TileMap
}

// NewStore создаёт новый config store. objects может быть nil.
func NewStore(objects minio.ObjectStore, bucket string) *Store {
	return &Store{
		objects:         objects,
		bucket:          bucket,
		builtinProfiles: suspicion.BuiltinProfiles(),
		builtinCameras:  BuiltinCameras(),
		profiles:        make(map[string]suspicion.HeatProfile),
		cameras:         make(map[string][]surveillance.CameraDefinition),
		maps:            make(map[string]*spatial.TileMap),
	}
}

// ProfileForZone возвращает профиль зоны (с кэшированием). Ошибки хранилища
// не выходят наружу: используется встроенный профиль или профиль по умолчанию.
func (s *Store) ProfileForZone(zoneID string) suspicion.HeatProfile {
	s.cacheLock.RLock()
	if p, ok := s.profiles[zoneID]; ok {
		s.cacheLock.RUnlock()
		return p
	}
	s.cacheLock.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	profile, err := s.LoadProfile(ctx, zoneID)
	if err != nil {
		log.Printf("heat profile %s: %v, using fallback", zoneID, err)
	}

	s.cacheLock.Lock()
	s.profiles[zoneID] = profile
	s.cacheLock.Unlock()
	return profile
}

// LoadProfile читает heat-profiles/<zone>.yaml и накладывает его на базовый
// профиль зоны. При ошибке возвращает базовый профиль вместе с ошибкой.
func (s *Store) LoadProfile(ctx context.Context, zoneID string) (suspicion.HeatProfile, error) {
	base, ok := s.builtinProfiles[zoneID]
	if !ok {
		base = suspicion.DefaultHeatProfile
	}
	if s.objects == nil || zoneID == "" {
		return base, nil
	}

	key := path.Join(profilePrefix, zoneID+".yaml")
	data, err := s.objects.GetObject(ctx, s.bucket, key)
	if errors.Is(err, minio.ErrNotFound) {
		return base, nil
	}
	if err != nil {
		return base, fmt.Errorf("profile %s: %w", zoneID, err)
	}

	var override suspicion.HeatProfile
	if err := yaml.Unmarshal(data, &override); err != nil {
		return base, fmt.Errorf("invalid YAML for %s: %w", zoneID, err)
	}
	merged := MergeProfiles(base, override)
	if merged.ID == "" || merged.ID == suspicion.DefaultHeatProfile.ID {
		merged.ID = zoneID
	}
	return merged, nil
}

// CameraDefinitions возвращает раскладку камер зоны: cameras/<zone>.yaml из
// хранилища, иначе встроенный каталог. Для неизвестной зоны пустой список.
func (s *Store) CameraDefinitions(ctx context.Context, zoneID string) ([]surveillance.CameraDefinition, error) {
	s.cacheLock.RLock()
	if defs, ok := s.cameras[zoneID]; ok {
		s.cacheLock.RUnlock()
		return cloneDefinitions(defs), nil
	}
	s.cacheLock.RUnlock()

	defs := s.builtinCameras[zoneID]
	if s.objects != nil {
		key := path.Join(cameraPrefix, zoneID+".yaml")
		data, err := s.objects.GetObject(ctx, s.bucket, key)
		switch {
		case errors.Is(err, minio.ErrNotFound):
		case err != nil:
			return cloneDefinitions(defs), fmt.Errorf("cameras %s: %w", zoneID, err)
		default:
			var doc ZoneCameras
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return cloneDefinitions(defs), fmt.Errorf("invalid camera YAML for %s: %w", zoneID, err)
			}
			defs = doc.Cameras
		}
	}

	s.cacheLock.Lock()
	s.cameras[zoneID] = defs
	s.cacheLock.Unlock()
	return cloneDefinitions(defs), nil
}

// Invalidate сбрасывает кэш.
func (s *Store) Invalidate() {
	s.cacheLock.Lock()
	s.profiles = make(map[string]suspicion.HeatProfile)
	s.cameras = make(map[string][]surveillance.CameraDefinition)
	s.maps = make(map[string]*spatial.TileMap)
	s.cacheLock.Unlock()
}

// BackgroundRefresh сбрасывает кэш каждые interval до отмены ctx (hot-reload).
func (s *Store) BackgroundRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Invalidate()
			log.Println("surveillance config cache refreshed")
		}
	}
}

func cloneDefinitions(defs []surveillance.CameraDefinition) []surveillance.CameraDefinition {
	out := make([]surveillance.CameraDefinition, len(defs))
	copy(out, defs)
	return out
}

// MergeProfiles накладывает переопределение на базовый профиль. Нулевые поля
// переопределения наследуются от базы.
func MergeProfiles(base, override suspicion.HeatProfile) suspicion.HeatProfile {
	result := base

	if override.ID != "" {
		result.ID = override.ID
	}
	if override.Label != "" {
		result.Label = override.Label
	}
	if override.HalfLifeSeconds > 0 {
		result.HalfLifeSeconds = override.HalfLifeSeconds
	}
	if override.CertaintyFloor > 0 {
		result.CertaintyFloor = override.CertaintyFloor
	}
	if override.ReinforcementBonus > 0 {
		result.ReinforcementBonus = override.ReinforcementBonus
	}
	if override.ReportMultiplier > 0 {
		result.ReportMultiplier = override.ReportMultiplier
	}
	if override.SuppressionPenalty > 0 {
		result.SuppressionPenalty = override.SuppressionPenalty
	}
	if override.TopK > 0 {
		result.TopK = override.TopK
	}
	if override.ProximityExponent > 0 {
		result.ProximityExponent = override.ProximityExponent
	}
	if override.TierThresholds.Tracking > 0 {
		result.TierThresholds.Tracking = override.TierThresholds.Tracking
	}
	if override.TierThresholds.Crackdown > 0 {
		result.TierThresholds.Crackdown = override.TierThresholds.Crackdown
	}
	return result
}
