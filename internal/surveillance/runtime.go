package surveillance

import (
	"math"
	"strings"
	"unicode"

	"surveillance-core/internal/spatial"
	"surveillance-core/internal/world"
)

const (
	minSweepDurationMs     float64 = 400
	defaultSweepDurationMs float64 = 3200
)

// HackMode names a hack window.
type HackMode string

const (
	HackDisable  HackMode = "disable"
	HackLoop     HackMode = "loop"
	HackRedirect HackMode = "redirect"
)

func safeCycleDuration(value float64) float64 {
	sanitized := defaultSweepDurationMs
	if !math.IsNaN(value) && !math.IsInf(value, 0) && value != 0 {
		sanitized = math.Abs(value)
	}
	return math.Max(minSweepDurationMs, sanitized)
}

// NewRuntimeState builds the idle runtime state for a definition. The camera
// starts inactive; zone activation decides whether it comes online.
func NewRuntimeState(def CameraDefinition) CameraRuntimeState {
	var initial float64
	switch {
	case def.Sweep != nil && len(def.Sweep.Angles) > 0:
		initial = def.Sweep.Angles[0]
	case def.FieldOfView >= 360:
		initial = 0
	default:
		initial = def.FieldOfView / 2
	}

	return CameraRuntimeState{
		CameraDefinition: def,
		AlarmState:       StateIdle,
		CurrentDirection: spatial.WrapDegrees(initial),
		SweepDirection:   1,
	}
}

// ShouldBeActive reports whether the camera operates during the given phase.
// Cameras without activation phases are always on.
func ShouldBeActive(def CameraDefinition, tod world.TimeOfDay) bool {
	if len(def.ActivationPhases) == 0 {
		return true
	}
	for _, phase := range def.ActivationPhases {
		if phase == tod {
			return true
		}
	}
	return false
}

// IsDisabled reports whether a disable hack window is open at timestamp.
func IsDisabled(c CameraRuntimeState, timestamp int64) bool {
	return c.Hack.DisabledUntil > timestamp
}

// IsLoopingFootage reports whether a footage loop hack window is open.
func IsLoopingFootage(c CameraRuntimeState, timestamp int64) bool {
	return c.Hack.LoopFootageUntil > timestamp
}

// IsRedirected reports whether a redirect hack window is open.
func IsRedirected(c CameraRuntimeState, timestamp int64) bool {
	return c.Hack.RedirectUntil > timestamp
}

// ApplyHack opens a hack window until the given timestamp.
func ApplyHack(c CameraRuntimeState, mode HackMode, until int64, direction float64) CameraRuntimeState {
	switch mode {
	case HackDisable:
		c.Hack.DisabledUntil = until
		c.TrackingPlayer = false
	case HackLoop:
		c.Hack.LoopFootageUntil = until
	case HackRedirect:
		c.Hack.RedirectUntil = until
		c.Hack.RedirectDirection = spatial.WrapDegrees(direction)
		c.TrackingPlayer = false
	}
	return c
}

// ResetAlertState drops the camera back to idle with no progress.
func ResetAlertState(c CameraRuntimeState) CameraRuntimeState {
	c.AlarmState = StateIdle
	c.DetectionProgress = 0
	c.LastDetectionTimestamp = nil
	c.TrackingPlayer = false
	return c
}

// SetActive switches a camera on or off. Switching off zeroes progress.
func SetActive(c CameraRuntimeState, active bool) CameraRuntimeState {
	c.Active = active
	if active {
		c.AlarmState = StateIdle
		return c
	}
	c.AlarmState = StateDisabled
	c.DetectionProgress = 0
	c.LastDetectionTimestamp = nil
	c.TrackingPlayer = false
	return c
}

func titleFromID(id string) string {
	parts := strings.FieldsFunc(id, func(r rune) bool { return r == '_' || r == '-' })
	for i, p := range parts {
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}
