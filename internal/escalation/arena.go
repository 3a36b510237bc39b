package escalation

import (
	"math"

	"surveillance-core/internal/spatial"
	"surveillance-core/internal/surveillance"
	"surveillance-core/internal/suspicion"
	"surveillance-core/internal/world"
)

const (
	NetworkAlertWindowMs       int64 = 60_000
	NetworkAlertDurationMs     int64 = 5 * 60 * 1000
	NetworkAlertCameraCount          = 3
	hudProgressChangeThreshold       = 0.5
	nearbyMargin                     = 0.5
)

// AlarmRecord is one camera alarm in the rolling window.
type AlarmRecord struct {
	CameraID  string `json:"camera_id"`
	Timestamp int64  `json:"timestamp"`
}

// AreaState is the cross-tick state of one area.
type AreaState struct {
	AlarmHistory        []AlarmRecord
	NetworkAlert        *NetworkAlert
	LastActorPosition   *spatial.Point
	LastUpdateTimestamp int64
	HUD                 *HUDSnapshot
	GuardVisibility     map[string]bool
}

// Arena owns the per-area and per-zone escalation state. The engine passes it
// into every tick; nothing else writes it.
type Arena struct {
	areas map[string]*AreaState
	tiers map[string]suspicion.HeatTier
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{
		areas: make(map[string]*AreaState),
		tiers: make(map[string]suspicion.HeatTier),
	}
}

// Area returns the state of an area, creating it on first use.
func (a *Arena) Area(areaID string) *AreaState {
	st, ok := a.areas[areaID]
	if !ok {
		st = &AreaState{GuardVisibility: make(map[string]bool)}
		a.areas[areaID] = st
	}
	return st
}

// ResetArea clears the area's state when its zone is (re)initialized.
func (a *Arena) ResetArea(areaID string) {
	a.areas[areaID] = &AreaState{GuardVisibility: make(map[string]bool)}
}

// TeardownArea drops everything held for an area so no stale window or alert
// fires after reactivation.
func (a *Arena) TeardownArea(areaID string) {
	delete(a.areas, areaID)
}

// NetworkAlert returns the area's active network alert, if any.
func (a *Arena) NetworkAlert(areaID string) *NetworkAlert {
	if st, ok := a.areas[areaID]; ok {
		return st.NetworkAlert
	}
	return nil
}

// ActorMoved records the actor's position and reports whether it differs from
// the previous tick. The first tick never counts as movement.
func (a *Arena) ActorMoved(areaID string, pos spatial.Point, ts int64) bool {
	st := a.Area(areaID)
	moved := st.LastActorPosition != nil && !st.LastActorPosition.Equal(pos)
	p := pos
	st.LastActorPosition = &p
	st.LastUpdateTimestamp = ts
	return moved
}

// GuardBecameVisible records a guard's visibility and reports a not-visible
// to visible transition.
func (a *Arena) GuardBecameVisible(areaID, guardID string, visible bool) bool {
	st := a.Area(areaID)
	was := st.GuardVisibility[guardID]
	st.GuardVisibility[guardID] = visible
	return visible && !was
}

// RecordAlarm adds a camera alarm to the area's rolling window and drops
// entries older than the window.
func (a *Arena) RecordAlarm(areaID, cameraID string, ts int64) {
	st := a.Area(areaID)
	st.AlarmHistory = append(st.AlarmHistory, AlarmRecord{CameraID: cameraID, Timestamp: ts})
	kept := st.AlarmHistory[:0]
	for _, r := range st.AlarmHistory {
		if ts-r.Timestamp <= NetworkAlertWindowMs {
			kept = append(kept, r)
		}
	}
	st.AlarmHistory = kept
}

// distinctRecent returns the distinct camera ids in the window, most recent
// last.
func distinctRecent(history []AlarmRecord) []string {
	seen := make(map[string]bool)
	var rev []string
	for i := len(history) - 1; i >= 0; i-- {
		id := history[i].CameraID
		if seen[id] {
			continue
		}
		seen[id] = true
		rev = append(rev, id)
	}
	out := make([]string, len(rev))
	for i, id := range rev {
		out[len(rev)-1-i] = id
	}
	return out
}

// EvaluateNetworkAlert expires the area's alert when its window closed and
// raises a new one when enough distinct cameras alarmed within the window.
// An active alert is never raised twice.
func (a *Arena) EvaluateNetworkAlert(areaID string, ts int64) ([]Notification, bool) {
	st := a.Area(areaID)
	var out []Notification
	if st.NetworkAlert != nil && st.NetworkAlert.ExpiresAt <= ts {
		out = append(out, Notification{Kind: KindNetworkAlertCleared, AreaID: areaID, Timestamp: ts})
		st.NetworkAlert = nil
	}
	if st.NetworkAlert != nil {
		return out, false
	}
	window := st.AlarmHistory[:0:0]
	for _, r := range st.AlarmHistory {
		if ts-r.Timestamp <= NetworkAlertWindowMs {
			window = append(window, r)
		}
	}
	cameras := distinctRecent(window)
	if len(cameras) < NetworkAlertCameraCount {
		return out, false
	}
	alert := &NetworkAlert{
		TriggeredAt:           ts,
		ExpiresAt:             ts + NetworkAlertDurationMs,
		ContributingCameraIDs: cameras[len(cameras)-NetworkAlertCameraCount:],
	}
	st.NetworkAlert = alert
	cp := *alert
	cp.ContributingCameraIDs = append([]string(nil), alert.ContributingCameraIDs...)
	out = append(out, Notification{Kind: KindNetworkAlertRaised, AreaID: areaID, Timestamp: ts, NetworkAlert: &cp})
	return out, true
}

// BuildHUD summarizes the area's cameras relative to the actor.
func BuildHUD(cameras []surveillance.CameraRuntimeState, actor spatial.Point, alert *NetworkAlert) HUDSnapshot {
	hud := HUDSnapshot{AlertState: surveillance.StateIdle}
	maxProgress := 0.0
	for _, c := range cameras {
		if c.Active && c.AlarmState != surveillance.StateDisabled {
			if spatial.DistanceBetween(c.Position, actor) <= c.ProximityRadius()+nearbyMargin {
				hud.CamerasNearby++
			}
		}
		if c.DetectionProgress > maxProgress {
			maxProgress = c.DetectionProgress
			hud.ActiveCameraID = c.ID
		}
		if c.AlarmState.Rank() > hud.AlertState.Rank() {
			hud.AlertState = c.AlarmState
		}
	}
	hud.DetectionProgress = math.Round(math.Min(100, maxProgress)*100) / 100
	if alert != nil {
		hud.NetworkAlertActive = true
		exp := alert.ExpiresAt
		hud.NetworkAlertExpiresAt = &exp
	}
	return hud
}

func hudChanged(prev *HUDSnapshot, next HUDSnapshot) bool {
	if prev == nil {
		return true
	}
	if prev.CamerasNearby != next.CamerasNearby ||
		math.Abs(prev.DetectionProgress-next.DetectionProgress) > hudProgressChangeThreshold ||
		prev.AlertState != next.AlertState ||
		prev.ActiveCameraID != next.ActiveCameraID ||
		prev.NetworkAlertActive != next.NetworkAlertActive {
		return true
	}
	switch {
	case prev.NetworkAlertExpiresAt == nil && next.NetworkAlertExpiresAt == nil:
		return false
	case prev.NetworkAlertExpiresAt == nil || next.NetworkAlertExpiresAt == nil:
		return true
	default:
		return *prev.NetworkAlertExpiresAt != *next.NetworkAlertExpiresAt
	}
}

// UpdateHUD caches the snapshot and returns a notification only when it
// differs meaningfully from the last one sent.
func (a *Arena) UpdateHUD(areaID string, hud HUDSnapshot, ts int64) (Notification, bool) {
	st := a.Area(areaID)
	if !hudChanged(st.HUD, hud) {
		return Notification{}, false
	}
	cached := hud
	st.HUD = &cached
	sent := hud
	return Notification{Kind: KindHUDUpdated, AreaID: areaID, Timestamp: ts, HUD: &sent}, true
}

// ResolveAlarmPolicy decides reinforcements and the global alert level after
// a tick's alarms. It reports whether reinforcements were scheduled.
func ResolveAlarmPolicy(areaID string, triggeredAlarm, triggeredNetwork, reinforcementsScheduled bool, global world.AlertLevel, ts int64) ([]Notification, bool) {
	switch {
	case triggeredAlarm && !reinforcementsScheduled:
		return []Notification{
			{Kind: KindReinforcementsScheduled, AreaID: areaID, Timestamp: ts, Message: msgReinforcements},
			globalAlert(areaID, ts, ""),
		}, true
	case triggeredNetwork:
		return []Notification{globalAlert(areaID, ts, msgNetworkEscalation)}, false
	case triggeredAlarm && global < world.AlertAlarmed:
		return []Notification{globalAlert(areaID, ts, "")}, false
	}
	return nil, false
}

// ObserveTier compares a zone's heat tier with the last one seen. Entering
// crackdown requests reinforcements unless some are already scheduled.
func (a *Arena) ObserveTier(heat suspicion.ZoneHeatComputation, reinforcementsScheduled bool, ts int64) ([]Notification, bool) {
	prev, ok := a.tiers[heat.ZoneID]
	if !ok {
		prev = suspicion.TierCalm
	}
	next := heat.Tier
	if next == "" {
		next = suspicion.TierCalm
	}
	a.tiers[heat.ZoneID] = next
	if prev == next {
		return nil, false
	}
	out := []Notification{{
		Kind:      KindHeatTierChanged,
		ZoneID:    heat.ZoneID,
		Timestamp: ts,
		Tier:      &TierChange{From: prev, To: next, TotalHeat: heat.TotalHeat},
	}}
	if next == suspicion.TierCrackdown && !reinforcementsScheduled {
		out = append(out, Notification{Kind: KindReinforcementsScheduled, ZoneID: heat.ZoneID, Timestamp: ts, Message: msgCrackdown})
		return out, true
	}
	return out, false
}

// ForgetZone drops the remembered tier of a zone.
func (a *Arena) ForgetZone(zoneID string) {
	delete(a.tiers, zoneID)
}
