package surveillance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"surveillance-core/internal/config"
	"surveillance-core/internal/engine"
	"surveillance-core/internal/escalation"
	"surveillance-core/internal/eventbus"
	"surveillance-core/internal/observability"
	"surveillance-core/internal/persistence"
	"surveillance-core/internal/schema"
	"surveillance-core/internal/spatial"
	core "surveillance-core/internal/surveillance"
	"surveillance-core/internal/world"
)

const (
	serviceName   = "surveillance-core"
	consumerGroup = "surveillance-core-group"
)

// ErrUnknownArea is returned for areas that were never initialized.
var ErrUnknownArea = errors.New("unknown area")

// ErrUnknownCamera is returned for camera ids missing from an area.
var ErrUnknownCamera = errors.New("unknown camera")

type Config struct {
	HTTPAddr         string
	SnapshotInterval time.Duration
	RefreshInterval  time.Duration
}

// Subscriber is the read side of the bus.
type Subscriber interface {
	Subscribe(ctx context.Context, topic, groupID string, handler func(eventbus.Event))
}

// Deps are the collaborators of the service. Only Configs is required.
type Deps struct {
	Configs    *config.Store
	Maps       spatial.MapProvider
	Publisher  eventbus.Publisher
	Subscriber Subscriber
	Snapshots  persistence.Store
	Metrics    *observability.Metrics
}

// area is the host-side state of one initialized area.
type area struct {
	ZoneID    string
	TimeOfDay world.TimeOfDay
	Cameras   []core.CameraRuntimeState
}

type Service struct {
	cfg        Config
	configs    *config.Store
	maps       spatial.MapProvider
	publisher  eventbus.Publisher
	subscriber Subscriber
	snapshots  persistence.Store
	metrics    *observability.Metrics
	validator  *schema.Validator
	envelopes  *schema.Validator
	hub        *Hub
	httpServer *HTTPServer

	mu     sync.Mutex
	engine *engine.Engine
	areas  map[string]*area
	wg     sync.WaitGroup
}

func NewService(cfg Config, deps Deps) (*Service, error) {
	if deps.Configs == nil {
		return nil, fmt.Errorf("config store is required")
	}
	if deps.Maps == nil {
		deps.Maps = deps.Configs
	}
	if deps.Snapshots == nil {
		deps.Snapshots = persistence.Noop{}
	}
	validator, err := schema.TickRequestValidator()
	if err != nil {
		return nil, fmt.Errorf("tick schema: %w", err)
	}
	envelopes, err := schema.EventValidator()
	if err != nil {
		return nil, fmt.Errorf("event schema: %w", err)
	}

	s := &Service{
		cfg:        cfg,
		configs:    deps.Configs,
		maps:       deps.Maps,
		publisher:  deps.Publisher,
		subscriber: deps.Subscriber,
		snapshots:  deps.Snapshots,
		metrics:    deps.Metrics,
		validator:  validator,
		envelopes:  envelopes,
		hub:        NewHub(),
		engine:     engine.New(deps.Configs),
		areas:      make(map[string]*area),
	}
	s.httpServer = NewHTTPServer(cfg.HTTPAddr)
	s.httpServer.RegisterRoutes(s, s.hub, deps.Metrics)
	return s, nil
}

// Start restores the memory store and launches the background loops.
// It returns immediately.
func (s *Service) Start(ctx context.Context) {
	log.Println("Surveillance service starting...")
	s.restore(ctx)

	s.httpServer.Start()

	if s.subscriber != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.subscriber.Subscribe(ctx, eventbus.TopicSurveillanceTicks, consumerGroup, s.handleEvent)
		}()
	}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.configs.BackgroundRefresh(ctx, s.cfg.RefreshInterval)
	}()
	go func() {
		defer s.wg.Done()
		s.snapshotLoop(ctx)
	}()

	log.Println("Surveillance service running.")
}

// Stop waits for the loops started by Start (ctx must already be
// cancelled), then saves a final snapshot.
func (s *Service) Stop() {
	s.httpServer.Stop()
	s.wg.Wait()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.SaveSnapshot(ctx); err != nil {
		log.Printf("Final snapshot failed: %v", err)
	}
	s.hub.CloseAll()
}

func (s *Service) handleEvent(event eventbus.Event) {
	if event.EventType != eventbus.EventTick {
		return
	}
	envelope, err := eventbus.PayloadFrom(event)
	if err == nil {
		err = s.envelopes.Validate(envelope)
	}
	if err != nil {
		log.Printf("Skipping malformed event %s: %v", event.EventID, err)
		return
	}
	if err := s.validator.Validate(event.Payload); err != nil {
		log.Printf("Skipping tick %s: %v", event.EventID, err)
		return
	}
	var in engine.TickInput
	if err := event.DecodePayload(&in); err != nil {
		log.Printf("Skipping tick %s: %v", event.EventID, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.Tick(ctx, in); err != nil {
		log.Printf("Tick %s failed: %v", event.EventID, err)
	}
}

// Tick runs one engine step for an area. Cameras and map come from the
// service registry; an area not seen before is initialized first.
func (s *Service) Tick(ctx context.Context, in engine.TickInput) (engine.TickOutput, error) {
	if in.AreaID == "" || in.ZoneID == "" {
		return engine.TickOutput{}, fmt.Errorf("tick needs zone_id and area_id")
	}
	if in.TimeOfDay == "" {
		in.TimeOfDay = world.Day
	}
	m, err := s.maps.GetMap(ctx, in.AreaID)
	if err != nil {
		log.Printf("Map for %s unavailable, assuming open sight: %v", in.AreaID, err)
		m = nil
	}

	s.mu.Lock()
	_, known := s.areas[in.AreaID]
	s.mu.Unlock()
	var defs []core.CameraDefinition
	if !known {
		defs = s.loadDefinitions(ctx, in.AreaID)
	}

	s.mu.Lock()
	a, ok := s.areas[in.AreaID]
	if !ok {
		a = s.installArea(in.AreaID, in.ZoneID, in.TimeOfDay, defs)
	}

	var phase []escalation.Notification
	if in.TimeOfDay != a.TimeOfDay {
		a.Cameras, phase = s.engine.ApplyTimeOfDay(in.AreaID, a.Cameras, in.TimeOfDay, in.TimestampMs)
		a.TimeOfDay = in.TimeOfDay
	}

	in.Cameras = a.Cameras
	in.Map = m
	start := time.Now()
	out := s.engine.Step(in)
	s.metrics.Tick(time.Since(start), out.Observations, out.Notifications, out.HeatUpdates)
	a.Cameras = out.Cameras
	out.Notifications = append(phase, out.Notifications...)
	s.mu.Unlock()

	s.relay(ctx, in.ZoneID, out)
	return out, nil
}

// InitializeArea (re)builds an area's cameras from the config store and
// clears its escalation state.
func (s *Service) InitializeArea(ctx context.Context, areaID, zoneID string, tod world.TimeOfDay) []core.CameraRuntimeState {
	if tod == "" {
		tod = world.Day
	}
	defs := s.loadDefinitions(ctx, areaID)

	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.installArea(areaID, zoneID, tod, defs)
	return append([]core.CameraRuntimeState(nil), a.Cameras...)
}

func (s *Service) loadDefinitions(ctx context.Context, areaID string) []core.CameraDefinition {
	defs, err := s.configs.CameraDefinitions(ctx, areaID)
	if err != nil {
		log.Printf("Camera layout for %s: %v, using fallback", areaID, err)
	}
	return defs
}

// installArea must be called with s.mu held.
func (s *Service) installArea(areaID, zoneID string, tod world.TimeOfDay, defs []core.CameraDefinition) *area {
	a := &area{ZoneID: zoneID, TimeOfDay: tod, Cameras: s.engine.InitializeZone(areaID, tod, defs)}
	s.areas[areaID] = a
	log.Printf("Area %s initialized with %d cameras (%s)", areaID, len(a.Cameras), tod)
	return a
}

// TeardownArea drops an area's cameras and escalation state.
func (s *Service) TeardownArea(areaID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.areas[areaID]; !ok {
		return false
	}
	delete(s.areas, areaID)
	s.engine.TeardownZone(areaID)
	return true
}

// Cameras returns a copy of an area's current camera states.
func (s *Service) Cameras(areaID string) ([]core.CameraRuntimeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.areas[areaID]
	if !ok {
		return nil, ErrUnknownArea
	}
	return append([]core.CameraRuntimeState(nil), a.Cameras...), nil
}

// HackCamera opens a hack window on one camera.
func (s *Service) HackCamera(areaID, cameraID string, mode core.HackMode, until int64, direction float64) (core.CameraRuntimeState, error) {
	switch mode {
	case core.HackDisable, core.HackLoop, core.HackRedirect:
	default:
		return core.CameraRuntimeState{}, fmt.Errorf("unknown hack mode %q", mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.areas[areaID]
	if !ok {
		return core.CameraRuntimeState{}, ErrUnknownArea
	}
	for i, c := range a.Cameras {
		if c.ID == cameraID {
			a.Cameras[i] = core.ApplyHack(c, mode, until, direction)
			return a.Cameras[i], nil
		}
	}
	return core.CameraRuntimeState{}, ErrUnknownCamera
}

// ResetCamera drops one camera back to idle.
func (s *Service) ResetCamera(areaID, cameraID string) (core.CameraRuntimeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.areas[areaID]
	if !ok {
		return core.CameraRuntimeState{}, ErrUnknownArea
	}
	for i, c := range a.Cameras {
		if c.ID == cameraID {
			a.Cameras[i] = core.ResetAlertState(c)
			return a.Cameras[i], nil
		}
	}
	return core.CameraRuntimeState{}, ErrUnknownCamera
}

// AreaIDs lists initialized areas, sorted.
func (s *Service) AreaIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.areas))
	for id := range s.areas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResetMemory clears every witness memory and the tiers the bridge remembers.
func (s *Service) ResetMemory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, zoneID := range s.engine.Memories.ZoneIDs() {
		s.engine.Arena.ForgetZone(zoneID)
	}
	s.engine.Memories.Reset()
	s.metrics.ResetZones()
}

func (s *Service) restore(ctx context.Context) {
	snap, err := s.snapshots.Load(ctx)
	if errors.Is(err, persistence.ErrSnapshotNotFound) {
		log.Println("No suspicion snapshot, starting cold")
		return
	}
	if err != nil {
		log.Printf("Snapshot restore failed, starting cold: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Memories.Restore(snap)
	if snap.LastTickAt != nil {
		s.engine.SetClock(*snap.LastTickAt)
	}
	for _, id := range s.engine.Memories.ZoneIDs() {
		s.metrics.SetZoneHeat(s.engine.Memories.Heat(id))
	}
	log.Printf("Restored suspicion snapshot with %d zones", len(snap.Zones))
}

// SaveSnapshot writes the memory store to the snapshot backend.
func (s *Service) SaveSnapshot(ctx context.Context) error {
	s.mu.Lock()
	snap := s.engine.Memories.Snapshot()
	s.mu.Unlock()
	if err := s.snapshots.Save(ctx, snap); err != nil {
		s.metrics.SnapshotFailed()
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *Service) snapshotLoop(ctx context.Context) {
	interval := s.cfg.SnapshotInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SaveSnapshot(ctx); err != nil {
				log.Printf("Periodic snapshot failed: %v", err)
			}
		}
	}
}
