package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveillance-core/internal/minio"
	"surveillance-core/internal/spatial"
	"surveillance-core/internal/surveillance"
	"surveillance-core/internal/suspicion"
)

type failingStore struct{ minio.ObjectStore }

func (failingStore) GetObject(context.Context, string, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestBuiltinCameras(t *testing.T) {
	cams := BuiltinCameras()
	downtown := cams["downtown_checkpoint"]
	require.Len(t, downtown, 5)

	drone := downtown[4]
	assert.Equal(t, "downtown_drone_01", drone.ID)
	assert.Equal(t, surveillance.CameraDrone, drone.Type)
	require.NotNil(t, drone.PatrolPath)
	assert.Len(t, drone.PatrolPath.Waypoints, 4)
	assert.Equal(t, 12000.0, drone.PatrolPath.TravelDurationMs)
	assert.Equal(t, []float64{0, 45, 0, -45}, drone.Sweep.Angles)

	motion := downtown[3]
	assert.Equal(t, surveillance.CameraMotionSensor, motion.Type)
	require.NotNil(t, motion.MotionRadius)
	assert.Equal(t, 4.0, *motion.MotionRadius)

	assert.Contains(t, BuiltinCameraZones(), "resistance_safehouse")
	assert.Empty(t, cams["resistance_safehouse"])
}

func TestProfileForZone(t *testing.T) {
	ctx := context.Background()
	objects := minio.NewMemoryStore()
	require.NoError(t, objects.PutObject(ctx, "cfg", "heat-profiles/harbor.yaml", []byte(`
label: Harbor Sweeps
half_life_seconds: 3600
tier_thresholds:
  crackdown: 2
`), "application/yaml"))
	require.NoError(t, objects.PutObject(ctx, "cfg", "heat-profiles/broken.yaml", []byte("top_k: [1"), ""))

	store := NewStore(objects, "cfg")

	harbor := store.ProfileForZone("harbor")
	assert.Equal(t, "harbor", harbor.ID)
	assert.Equal(t, "Harbor Sweeps", harbor.Label)
	assert.Equal(t, 3600.0, harbor.HalfLifeSeconds)
	assert.Equal(t, 2.0, harbor.TierThresholds.Crackdown)
	assert.Equal(t, suspicion.DefaultHeatProfile.TierThresholds.Tracking, harbor.TierThresholds.Tracking)
	assert.Equal(t, suspicion.DefaultHeatProfile.TopK, harbor.TopK)

	downtown := store.ProfileForZone("downtown")
	assert.Equal(t, 6, downtown.TopK)
	assert.Equal(t, 1.35, downtown.ReportMultiplier)

	assert.Equal(t, suspicion.DefaultHeatProfile, store.ProfileForZone("nowhere"))
	assert.Equal(t, suspicion.DefaultHeatProfile, store.ProfileForZone("broken"))

	_, err := store.LoadProfile(ctx, "broken")
	assert.Error(t, err)

	// cached until invalidated
	require.NoError(t, objects.PutObject(ctx, "cfg", "heat-profiles/harbor.yaml", []byte("top_k: 9"), ""))
	assert.Equal(t, suspicion.DefaultHeatProfile.TopK, store.ProfileForZone("harbor").TopK)
	store.Invalidate()
	assert.Equal(t, 9, store.ProfileForZone("harbor").TopK)
}

func TestProfileFallbackOnStorageError(t *testing.T) {
	store := NewStore(failingStore{}, "cfg")
	industrial := store.ProfileForZone("industrial")
	assert.Equal(t, 0.55, industrial.SuppressionPenalty)

	_, err := store.LoadProfile(context.Background(), "industrial")
	assert.Error(t, err)

	offline := NewStore(nil, "")
	assert.Equal(t, suspicion.DefaultHeatProfile, offline.ProfileForZone("x"))
}

func TestCameraDefinitions(t *testing.T) {
	ctx := context.Background()
	objects := minio.NewMemoryStore()
	require.NoError(t, objects.PutObject(ctx, "cfg", "cameras/rooftops.yaml", []byte(`
zone_id: rooftops
cameras:
  - id: roof_cam
    type: static
    position: {x: 2, y: 3}
    range: 7
    field_of_view: 120
`), ""))
	store := NewStore(objects, "cfg")

	defs, err := store.CameraDefinitions(ctx, "rooftops")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "roof_cam", defs[0].ID)
	assert.Equal(t, 120.0, defs[0].FieldOfView)

	defs, err = store.CameraDefinitions(ctx, "gov_complex")
	require.NoError(t, err)
	assert.Len(t, defs, 6)

	defs[0].ID = "mutated"
	again, _ := store.CameraDefinitions(ctx, "gov_complex")
	assert.Equal(t, "gov_static_01", again[0].ID)

	defs, err = store.CameraDefinitions(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, defs)

	_, err = NewStore(failingStore{}, "cfg").CameraDefinitions(ctx, "gov_complex")
	assert.Error(t, err)
}

func TestBackgroundRefreshStops(t *testing.T) {
	store := NewStore(nil, "")
	store.ProfileForZone("downtown")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.BackgroundRefresh(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh loop did not stop")
	}
	store.cacheLock.RLock()
	defer store.cacheLock.RUnlock()
	assert.Empty(t, store.profiles)
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{
		"KAFKA_BROKERS":        "k1:9092, k2:9092",
		"SNAPSHOT_BACKEND":     "SQLite",
		"SNAPSHOT_INTERVAL_MS": "1500",
		"MINIO_USE_SSL":        "true",
	}
	cfg := FromEnv(func(k string) (string, bool) { v, ok := env[k]; return v, ok })
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, SnapshotSQLite, cfg.SnapshotBackend)
	assert.Equal(t, 1500*time.Millisecond, cfg.SnapshotInterval)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, ":8085", cfg.HTTPAddr)
	assert.Equal(t, "surveillance-config", cfg.ConfigBucket)

	cfg = FromEnv(func(string) (string, bool) { return "", false })
	assert.Equal(t, []string{"redpanda:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, SnapshotNone, cfg.SnapshotBackend, "minio snapshots need an endpoint")
	assert.Equal(t, 30*time.Second, cfg.SnapshotInterval)
}

func TestGetMap(t *testing.T) {
	ctx := context.Background()
	objects := minio.NewMemoryStore()
	require.NoError(t, objects.PutObject(ctx, "cfg", "maps/alley.yaml", []byte(`
zone_id: downtown
rows:
  - "....."
  - "..#C."
  - ".D"
`), "application/yaml"))
	store := NewStore(objects, "cfg")

	m, err := store.GetMap(ctx, "alley")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "downtown", m.ZoneID)
	assert.Equal(t, 5, m.Width)
	assert.Equal(t, 3, m.Height)
	assert.Equal(t, spatial.TileWall, m.Tiles[1][2].Type)
	assert.Equal(t, spatial.TileCover, m.Tiles[1][3].Type)
	assert.True(t, m.Tiles[2][1].Walkable)
	assert.Equal(t, spatial.TileFloor, m.Tiles[2][4].Type)

	assert.False(t, spatial.HasLineOfSight(spatial.Point{X: 0, Y: 1}, spatial.Point{X: 4, Y: 1}, m))
	assert.True(t, spatial.HasLineOfSight(spatial.Point{X: 0, Y: 0}, spatial.Point{X: 4, Y: 0}, m))

	missing, err := store.GetMap(ctx, "nowhere")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = NewStore(failingStore{}, "cfg").GetMap(ctx, "alley")
	assert.Error(t, err)
}
