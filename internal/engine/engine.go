// Package engine runs one surveillance tick: camera orientation, detection,
// witness observations, memory decay and ingest, heat aggregation and the
// escalation bridge, all over one immutable input snapshot.
package engine

import (
	"math"

	"surveillance-core/internal/escalation"
	"surveillance-core/internal/spatial"
	"surveillance-core/internal/surveillance"
	"surveillance-core/internal/suspicion"
	"surveillance-core/internal/world"
)

// TickInput is the host's snapshot for one tick.
type TickInput struct {
	ZoneID                  string                            `json:"zone_id"`
	AreaID                  string                            `json:"area_id"`
	Cameras                 []surveillance.CameraRuntimeState `json:"cameras"`
	Guards                  []world.Guard                     `json:"guards,omitempty"`
	Map                     *spatial.TileMap                  `json:"-"`
	Actor                   world.Actor                       `json:"actor"`
	DeltaMs                 float64                           `json:"delta_ms"`
	TimestampMs             int64                             `json:"timestamp_ms"`
	WorldTimeSeconds        float64                           `json:"world_time_seconds"`
	TimeOfDay               world.TimeOfDay                   `json:"time_of_day"`
	Env                     world.EnvironmentFlags            `json:"environment"`
	ReinforcementsScheduled bool                              `json:"reinforcements_scheduled"`
	GlobalAlertLevel        world.AlertLevel                  `json:"global_alert_level"`
}

// TickOutput is what the host applies after a tick.
type TickOutput struct {
	// Cameras is the full updated camera list, in input order.
	Cameras []surveillance.CameraRuntimeState `json:"cameras"`
	// Changed holds only the cameras that differ from the input.
	Changed       []surveillance.CameraRuntimeState `json:"changed"`
	Observations  []suspicion.WitnessObservation    `json:"observations"`
	Heat          suspicion.ZoneHeatComputation     `json:"heat"`
	HeatUpdates   []suspicion.ZoneHeatComputation   `json:"heat_updates,omitempty"`
	Notifications []escalation.Notification         `json:"notifications"`
}

// Engine owns the memory store and escalation arena across ticks. It is not
// safe for concurrent use.
type Engine struct {
	Memories *suspicion.Store
	Arena    *escalation.Arena

	lastWorldTime *float64
}

// New builds an engine over a profile resolver; nil uses built-in profiles.
func New(profiles suspicion.ProfileResolver) *Engine {
	return &Engine{
		Memories: suspicion.NewStore(profiles),
		Arena:    escalation.NewArena(),
	}
}

// InitializeZone builds runtime cameras for an area and clears the area's
// escalation state.
func (e *Engine) InitializeZone(areaID string, tod world.TimeOfDay, defs []surveillance.CameraDefinition) []surveillance.CameraRuntimeState {
	e.Arena.ResetArea(areaID)
	return surveillance.InitializeCameras(defs, tod)
}

// TeardownZone clears everything held for an area.
func (e *Engine) TeardownZone(areaID string) {
	e.Arena.TeardownArea(areaID)
}

// ApplyTimeOfDay switches cameras for a new phase. A curfew banner is
// returned when any camera came online outside day and morning.
func (e *Engine) ApplyTimeOfDay(areaID string, cameras []surveillance.CameraRuntimeState, tod world.TimeOfDay, ts int64) ([]surveillance.CameraRuntimeState, []escalation.Notification) {
	changed, activated := surveillance.ApplyTimeOfDay(cameras, tod)
	if activated && tod != world.Day && tod != world.Morning {
		return changed, []escalation.Notification{escalation.CurfewBanner(areaID, ts)}
	}
	return changed, nil
}

func validCamera(c surveillance.CameraRuntimeState) bool {
	return c.ID != "" &&
		!math.IsNaN(c.Position.X) && !math.IsInf(c.Position.X, 0) &&
		!math.IsNaN(c.Position.Y) && !math.IsInf(c.Position.Y, 0)
}

func sameHeat(a, b suspicion.ZoneHeatComputation) bool {
	if a.TotalHeat != b.TotalHeat || a.Tier != b.Tier || len(a.LeadingWitnessIDs) != len(b.LeadingWitnessIDs) {
		return false
	}
	for i := range a.LeadingWitnessIDs {
		if a.LeadingWitnessIDs[i] != b.LeadingWitnessIDs[i] {
			return false
		}
	}
	return true
}

// Step runs one tick. Every camera is evaluated against the same actor
// snapshot.
func (e *Engine) Step(in TickInput) TickOutput {
	ts := in.TimestampMs
	actor := in.Actor
	out := TickOutput{
		Cameras:       make([]surveillance.CameraRuntimeState, 0, len(in.Cameras)),
		Changed:       []surveillance.CameraRuntimeState{},
		Observations:  []suspicion.WitnessObservation{},
		Notifications: []escalation.Notification{},
	}

	heatBefore := make(map[string]suspicion.ZoneHeatComputation)
	for _, id := range e.Memories.ZoneIDs() {
		heatBefore[id] = e.Memories.Heat(id)
	}
	if _, ok := heatBefore[in.ZoneID]; !ok {
		heatBefore[in.ZoneID] = e.Memories.Heat(in.ZoneID)
	}

	moved := e.Arena.ActorMoved(in.AreaID, actor.Position, ts)
	detectIn := surveillance.Input{
		Actor:       actor,
		Map:         in.Map,
		ActorMoved:  moved,
		DeltaMs:     in.DeltaMs,
		TimestampMs: ts,
	}

	triggeredAlarm := false
	for _, prev := range in.Cameras {
		if !validCamera(prev) {
			Logf("engine: skipping malformed camera %q in area %s", prev.ID, in.AreaID)
			out.Cameras = append(out.Cameras, prev)
			continue
		}
		next := surveillance.UpdateOrientation(prev, in.DeltaMs, ts)
		next = surveillance.Apply(next, surveillance.Evaluate(next, detectIn), actor)

		if next.AlarmState != prev.AlarmState {
			if next.AlarmState.Rank() > prev.AlarmState.Rank() && next.AlarmState.Rank() >= surveillance.StateSuspicious.Rank() {
				out.Observations = append(out.Observations, suspicion.BuildCameraObservation(suspicion.CameraSighting{
					Camera:    next,
					State:     next.AlarmState,
					Actor:     actor,
					ZoneID:    in.ZoneID,
					AreaID:    in.AreaID,
					TimeOfDay: in.TimeOfDay,
					Env:       in.Env,
					Timestamp: in.WorldTimeSeconds,
				}))
			}
			out.Notifications = append(out.Notifications, escalation.CameraTransition(in.AreaID, next.ID, prev.AlarmState, next.AlarmState, ts)...)
			if next.AlarmState == surveillance.StateAlarmed {
				triggeredAlarm = true
				e.Arena.RecordAlarm(in.AreaID, next.ID, ts)
			}
		}
		if surveillance.Changed(prev, next) {
			out.Changed = append(out.Changed, next)
		}
		out.Cameras = append(out.Cameras, next)
	}

	for _, g := range in.Guards {
		visible := suspicion.GuardCanSee(g, actor, in.Map)
		if !e.Arena.GuardBecameVisible(in.AreaID, g.ID, visible) {
			continue
		}
		out.Observations = append(out.Observations, suspicion.BuildGuardObservation(suspicion.GuardSighting{
			Guard:     g,
			Actor:     actor,
			ZoneID:    in.ZoneID,
			AreaID:    in.AreaID,
			TimeOfDay: in.TimeOfDay,
			Env:       in.Env,
			Timestamp: in.WorldTimeSeconds,
		}))
	}

	netNotes, triggeredNetwork := e.Arena.EvaluateNetworkAlert(in.AreaID, ts)
	out.Notifications = append(out.Notifications, netNotes...)

	hud := escalation.BuildHUD(out.Cameras, actor.Position, e.Arena.NetworkAlert(in.AreaID))
	if n, ok := e.Arena.UpdateHUD(in.AreaID, hud, ts); ok {
		out.Notifications = append(out.Notifications, n)
	}

	policy, scheduled := escalation.ResolveAlarmPolicy(in.AreaID, triggeredAlarm, triggeredNetwork, in.ReinforcementsScheduled, in.GlobalAlertLevel, ts)
	out.Notifications = append(out.Notifications, policy...)
	reinforcements := in.ReinforcementsScheduled || scheduled

	e.decay(in.WorldTimeSeconds)
	for _, obs := range out.Observations {
		e.Memories.Ingest(obs)
	}

	for _, id := range e.Memories.ZoneIDs() {
		heat := e.Memories.Heat(id)
		if before, ok := heatBefore[id]; ok && sameHeat(before, heat) {
			continue
		}
		out.HeatUpdates = append(out.HeatUpdates, heat)
		notes, s := e.Arena.ObserveTier(heat, reinforcements, ts)
		reinforcements = reinforcements || s
		out.Notifications = append(out.Notifications, notes...)
	}
	out.Heat = e.Memories.Heat(in.ZoneID)
	return out
}

// decay advances memories by the world time elapsed since the previous tick.
// The first tick only records the clock.
func (e *Engine) decay(worldTime float64) {
	if math.IsNaN(worldTime) || math.IsInf(worldTime, 0) {
		Logf("engine: ignoring non-finite world time")
		return
	}
	if e.lastWorldTime != nil {
		elapsed := math.Max(0, worldTime-*e.lastWorldTime)
		e.Memories.Decay(elapsed, worldTime)
	}
	if e.lastWorldTime == nil || worldTime > *e.lastWorldTime {
		t := worldTime
		e.lastWorldTime = &t
	}
}

// SetClock seeds the world clock used for decay, typically after a restore.
func (e *Engine) SetClock(worldTime float64) {
	t := worldTime
	e.lastWorldTime = &t
}
