// Package escalation relays camera alarms and heat tier changes to the host
// as a batch of notifications, and owns the per-area state that correlates
// alarms across cameras.
package escalation

import (
	"surveillance-core/internal/spatial"
	"surveillance-core/internal/surveillance"
	"surveillance-core/internal/suspicion"
	"surveillance-core/internal/world"
)

// Kind discriminates a Notification.
type Kind string

const (
	KindAlarmThresholdCrossed   Kind = "alarm_threshold_crossed"
	KindNetworkAlertRaised      Kind = "network_alert_raised"
	KindNetworkAlertCleared     Kind = "network_alert_cleared"
	KindReinforcementsScheduled Kind = "reinforcements_scheduled"
	KindGlobalAlertRaised       Kind = "global_alert_raised"
	KindHeatTierChanged         Kind = "heat_tier_changed"
	KindHUDUpdated              Kind = "hud_updated"
	KindCurfewBanner            Kind = "curfew_banner"
	KindAlertSuspicious         Kind = "alert_suspicious"
	KindAlertAlarmed            Kind = "alert_alarmed"
)

const (
	msgAlertSuspicious   = "Camera picked up something off. Stay cautious."
	msgAlertAlarmed      = "Alarm raised. A camera has locked onto your position."
	msgReinforcements    = "Reinforcements called in. More hostiles incoming."
	msgNetworkEscalation = "Camera network escalation. Patrols are tightening the net."
	msgCurfew            = "Curfew in effect. Surveillance grid is online."
	msgCrackdown         = "Crackdown declared. Reinforcements are moving in."
)

// NetworkAlert is an area-wide alert raised by correlated camera alarms.
type NetworkAlert struct {
	TriggeredAt           int64    `json:"triggered_at"`
	ExpiresAt             int64    `json:"expires_at"`
	ContributingCameraIDs []string `json:"contributing_camera_ids"`
}

// HUDSnapshot summarizes the area's camera state for the player HUD.
type HUDSnapshot struct {
	CamerasNearby         int                     `json:"cameras_nearby"`
	DetectionProgress     float64                 `json:"detection_progress"`
	AlertState            surveillance.AlarmState `json:"alert_state"`
	ActiveCameraID        string                  `json:"active_camera_id,omitempty"`
	NetworkAlertActive    bool                    `json:"network_alert_active"`
	NetworkAlertExpiresAt *int64                  `json:"network_alert_expires_at,omitempty"`
}

// TierChange is the payload of a heat_tier_changed notification.
type TierChange struct {
	From      suspicion.HeatTier `json:"from"`
	To        suspicion.HeatTier `json:"to"`
	TotalHeat float64            `json:"total_heat"`
}

// Notification is one event for the host to apply. Kind selects which of the
// optional payload fields is set.
type Notification struct {
	Kind         Kind              `json:"kind"`
	AreaID       string            `json:"area_id,omitempty"`
	ZoneID       string            `json:"zone_id,omitempty"`
	Timestamp    int64             `json:"timestamp"`
	CameraID     string            `json:"camera_id,omitempty"`
	Message      string            `json:"message,omitempty"`
	AlertLevel   *world.AlertLevel `json:"alert_level,omitempty"`
	NetworkAlert *NetworkAlert     `json:"network_alert,omitempty"`
	HUD          *HUDSnapshot      `json:"hud,omitempty"`
	Tier         *TierChange       `json:"tier,omitempty"`
	Position     *spatial.Point    `json:"position,omitempty"`
}

func globalAlert(areaID string, ts int64, msg string) Notification {
	level := world.AlertAlarmed
	return Notification{Kind: KindGlobalAlertRaised, AreaID: areaID, Timestamp: ts, AlertLevel: &level, Message: msg}
}

// CameraTransition returns the log and escalation notifications for a camera
// whose alarm state changed this tick.
func CameraTransition(areaID, cameraID string, prev, next surveillance.AlarmState, ts int64) []Notification {
	if prev == next {
		return nil
	}
	var out []Notification
	if next == surveillance.StateSuspicious && prev == surveillance.StateIdle {
		out = append(out, Notification{Kind: KindAlertSuspicious, AreaID: areaID, CameraID: cameraID, Timestamp: ts, Message: msgAlertSuspicious})
	}
	if next == surveillance.StateAlarmed {
		out = append(out,
			Notification{Kind: KindAlarmThresholdCrossed, AreaID: areaID, CameraID: cameraID, Timestamp: ts},
			Notification{Kind: KindAlertAlarmed, AreaID: areaID, CameraID: cameraID, Timestamp: ts, Message: msgAlertAlarmed},
		)
	}
	return out
}

// CurfewBanner is emitted when cameras switch on for the night.
func CurfewBanner(areaID string, ts int64) Notification {
	return Notification{Kind: KindCurfewBanner, AreaID: areaID, Timestamp: ts, Message: msgCurfew}
}
