// Package surveillance advances camera orientation and evaluates camera
// detection of the tracked actor, one tick at a time.
package surveillance

import (
	"surveillance-core/internal/spatial"
	"surveillance-core/internal/world"
)

// CameraType selects the orientation and detection algorithm.
type CameraType string

const (
	CameraStatic       CameraType = "static"
	CameraDrone        CameraType = "drone"
	CameraMotionSensor CameraType = "motion_sensor"
)

// AlarmState is the camera alarm ladder plus the out-of-band disabled state.
type AlarmState string

const (
	StateIdle          AlarmState = "idle"
	StateSuspicious    AlarmState = "suspicious"
	StateInvestigating AlarmState = "investigating"
	StateAlarmed       AlarmState = "alarmed"
	StateDisabled      AlarmState = "disabled"
)

// Rank orders alarm states: disabled < idle < suspicious < investigating < alarmed.
func (s AlarmState) Rank() int {
	switch s {
	case StateIdle:
		return 1
	case StateSuspicious:
		return 2
	case StateInvestigating:
		return 3
	case StateAlarmed:
		return 4
	default:
		return 0
	}
}

// AlertLevel maps an alarm state onto the shared alert ladder.
func (s AlarmState) AlertLevel() world.AlertLevel {
	switch s {
	case StateSuspicious:
		return world.AlertSuspicious
	case StateInvestigating:
		return world.AlertInvestigating
	case StateAlarmed:
		return world.AlertAlarmed
	default:
		return world.AlertIdle
	}
}

// SweepConfig is an ordered list of facing angles traversed ping-pong style.
type SweepConfig struct {
	Angles          []float64 `json:"angles" yaml:"angles"`
	CycleDurationMs float64   `json:"cycle_duration_ms" yaml:"cycle_duration_ms"`
}

// PatrolPath is a closed loop of drone waypoints.
type PatrolPath struct {
	Waypoints        []spatial.Point `json:"waypoints" yaml:"waypoints"`
	TravelDurationMs float64         `json:"travel_duration_ms" yaml:"travel_duration_ms"`
}

// CameraDefinition is the static description of a camera.
type CameraDefinition struct {
	ID               string            `json:"id" yaml:"id"`
	Label            string            `json:"label,omitempty" yaml:"label,omitempty"`
	Type             CameraType        `json:"type" yaml:"type"`
	Position         spatial.Point     `json:"position" yaml:"position"`
	Range            float64           `json:"range" yaml:"range"`
	FieldOfView      float64           `json:"field_of_view" yaml:"field_of_view"`
	MotionRadius     *float64          `json:"motion_radius,omitempty" yaml:"motion_radius,omitempty"`
	ActivationPhases []world.TimeOfDay `json:"activation_phases,omitempty" yaml:"activation_phases,omitempty"`
	Sweep            *SweepConfig      `json:"sweep,omitempty" yaml:"sweep,omitempty"`
	PatrolPath       *PatrolPath       `json:"patrol_path,omitempty" yaml:"patrol_path,omitempty"`
}

// HackState holds the temporary hack windows, as millisecond timestamps.
// A zero value means the window is not set.
type HackState struct {
	DisabledUntil     int64   `json:"disabled_until,omitempty"`
	LoopFootageUntil  int64   `json:"loop_footage_until,omitempty"`
	RedirectUntil     int64   `json:"redirect_until,omitempty"`
	RedirectDirection float64 `json:"redirect_direction,omitempty"`
}

// CameraRuntimeState is a camera definition plus the state mutated each tick.
type CameraRuntimeState struct {
	CameraDefinition

	AlarmState             AlarmState `json:"alarm_state"`
	DetectionProgress      float64    `json:"detection_progress"`
	Active                 bool       `json:"active"`
	Hack                   HackState  `json:"hack"`
	LastDetectionTimestamp *int64     `json:"last_detection_timestamp,omitempty"`
	CurrentDirection       float64    `json:"current_direction"`
	SweepDirection         int        `json:"sweep_direction"`
	SweepIndex             int        `json:"sweep_index"`
	SweepElapsedMs         float64    `json:"sweep_elapsed_ms"`
	PatrolProgressMs       float64    `json:"patrol_progress_ms"`
	CurrentWaypointIndex   int        `json:"current_waypoint_index"`
	TrackingPlayer         bool       `json:"tracking_player"`
}

// ProximityRadius is the radius used for "camera nearby" HUD counting.
func (c CameraRuntimeState) ProximityRadius() float64 {
	if c.Type == CameraMotionSensor && c.MotionRadius != nil {
		return *c.MotionRadius
	}
	return c.Range
}

// DisplayLabel returns the configured label or a title-cased form of the id.
func (c CameraRuntimeState) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return titleFromID(c.ID)
}
