package suspicion

import (
	"math"

	"surveillance-core/internal/spatial"
	"surveillance-core/internal/surveillance"
	"surveillance-core/internal/world"
)

const (
	fallbackWitnessRange = 8.0
	guardDistanceFloor   = 0.25
	cameraDistanceFloor  = 0.3

	maxStealthDisguise = 0.35
	maxDisguiseTotal   = 0.45
	agilityThreshold   = 6
	agilityStep        = 0.03
	crouchModifier     = 0.65
)

// GuardSighting is the input for a guard observation.
type GuardSighting struct {
	Guard     world.Guard
	Actor     world.Actor
	ZoneID    string
	AreaID    string
	TimeOfDay world.TimeOfDay
	Env       world.EnvironmentFlags
	Timestamp float64
}

// CameraSighting is the input for a camera observation. State is the alarm
// state the camera has just reached.
type CameraSighting struct {
	Camera    surveillance.CameraRuntimeState
	State     surveillance.AlarmState
	Actor     world.Actor
	ZoneID    string
	AreaID    string
	TimeOfDay world.TimeOfDay
	Env       world.EnvironmentFlags
	Timestamp float64
}

// GuardCanSee reports whether the guard's cone and line of sight cover the actor.
func GuardCanSee(g world.Guard, actor world.Actor, m *spatial.TileMap) bool {
	if g.VisionCone == nil {
		return false
	}
	if !spatial.IsInVisionCone(g.Position, actor.Position, *g.VisionCone) {
		return false
	}
	return spatial.HasLineOfSight(g.Position, actor.Position, m)
}

// LightingModifier returns the lighting attenuation. Power conditions win
// over the time of day.
func LightingModifier(tod world.TimeOfDay, env world.EnvironmentFlags) float64 {
	switch env.BlackoutTier {
	case world.BlackoutRolling:
		return 0.55
	case world.BlackoutBrownout:
		return 0.65
	}
	switch tod {
	case world.Night:
		return 0.7
	case world.Evening, world.Morning:
		return 0.85
	default:
		return 1
	}
}

// DisguiseModifier returns the attenuation from stealth training and agility.
func DisguiseModifier(actor world.Actor) float64 {
	stealth := math.Max(0, actor.Skill(world.SkillStealth))
	stealthReduction := math.Min(maxStealthDisguise, stealth/120)
	agilityReduction := math.Max(0, float64(actor.AgilityOrDefault()-agilityThreshold)*agilityStep)
	total := math.Min(maxDisguiseTotal, stealthReduction+agilityReduction)
	return spatial.Clamp(1-total, 0.55, 1)
}

// PostureModifier returns 0.65 for a crouching actor.
func PostureModifier(actor world.Actor) float64 {
	if actor.Crouching {
		return crouchModifier
	}
	return 1
}

// DistanceModifier attenuates by distance relative to the witness range.
func DistanceModifier(distance, rangeValue, floor float64) float64 {
	if math.IsNaN(distance) || math.IsInf(distance, 0) {
		return floor
	}
	if rangeValue <= 0 || math.IsNaN(rangeValue) {
		rangeValue = fallbackWitnessRange
	}
	return spatial.Clamp(1-distance/(rangeValue+1), floor, 1)
}

// GuardBaseCertainty grows with the guard's alert rank.
func GuardBaseCertainty(level world.AlertLevel) float64 {
	return spatial.Clamp(0.7+float64(level.Rank())*0.06, 0.6, 0.95)
}

// CameraBaseCertainty depends on the alarm state the camera reached.
func CameraBaseCertainty(state surveillance.AlarmState) float64 {
	switch state {
	case surveillance.StateAlarmed:
		return 0.88
	case surveillance.StateSuspicious:
		return 0.65
	default:
		return 0.5
	}
}

// BuildGuardObservation converts a guard sighting into an observation.
func BuildGuardObservation(s GuardSighting) WitnessObservation {
	rangeValue := 0.0
	if s.Guard.VisionCone != nil {
		rangeValue = s.Guard.VisionCone.Range
	}
	label := s.Guard.Name
	if label == "" {
		label = s.Guard.ID
	}
	loc := s.Actor.Position
	return WitnessObservation{
		WitnessID:          s.Guard.ID,
		WitnessLabel:       label,
		TargetID:           s.Actor.ID,
		ZoneID:             s.ZoneID,
		AreaID:             s.AreaID,
		Timestamp:          s.Timestamp,
		Source:             SourceGuard,
		RecognitionChannel: ChannelFace,
		BaseCertainty:      GuardBaseCertainty(s.Guard.AlertLevel),
		DistanceModifier:   DistanceModifier(spatial.DistanceBetween(s.Guard.Position, s.Actor.Position), rangeValue, guardDistanceFloor),
		LightingModifier:   LightingModifier(s.TimeOfDay, s.Env),
		DisguiseModifier:   DisguiseModifier(s.Actor),
		PostureModifier:    PostureModifier(s.Actor),
		Reported:           s.Guard.AlertLevel.Rank() >= world.AlertInvestigating.Rank(),
		Location:           &loc,
	}
}

// BuildCameraObservation converts a camera alarm transition into an observation.
func BuildCameraObservation(s CameraSighting) WitnessObservation {
	loc := s.Actor.Position
	return WitnessObservation{
		WitnessID:          s.Camera.ID,
		WitnessLabel:       s.Camera.DisplayLabel(),
		TargetID:           s.Actor.ID,
		ZoneID:             s.ZoneID,
		AreaID:             s.AreaID,
		Timestamp:          s.Timestamp,
		Source:             SourceCamera,
		RecognitionChannel: ChannelFace,
		BaseCertainty:      CameraBaseCertainty(s.State),
		DistanceModifier:   DistanceModifier(spatial.DistanceBetween(s.Camera.Position, s.Actor.Position), s.Camera.Range, cameraDistanceFloor),
		LightingModifier:   LightingModifier(s.TimeOfDay, s.Env),
		DisguiseModifier:   DisguiseModifier(s.Actor),
		PostureModifier:    PostureModifier(s.Actor),
		Reported:           s.State == surveillance.StateAlarmed,
		Location:           &loc,
	}
}
