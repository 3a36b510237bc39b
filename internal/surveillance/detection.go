package surveillance

import (
	"math"

	"surveillance-core/internal/spatial"
	"surveillance-core/internal/world"
)

const (
	// ProgressGainPerMs fills the ladder from 0 to 100 in about 3s.
	ProgressGainPerMs = 100.0 / 3000.0
	// ProgressDecayPerMs drains it back to idle in about 4s.
	ProgressDecayPerMs = 100.0 / 4000.0
	// TrackingDecayFactor speeds up decay while a tracking lock is held.
	TrackingDecayFactor = 1.8

	InvestigatingThreshold = 60.0
	AlarmThreshold         = 100.0

	maxStealthRangeReduction = 0.75
	maxHackingGainReduction  = 0.25
	stealthModeMultiplier    = 0.75
)

// Detection is the evaluator's verdict for one camera on one tick.
type Detection struct {
	State                  AlarmState
	Progress               float64
	Active                 bool
	LastDetectionTimestamp *int64
}

// Input is everything the evaluator reads for one camera on one tick.
type Input struct {
	Actor       world.Actor
	Map         *spatial.TileMap
	ActorMoved  bool
	DeltaMs     float64
	TimestampMs int64
}

// MovementMultiplier scales range and gain by how the actor moves.
func MovementMultiplier(actor world.Actor) float64 {
	m := 1.0
	switch actor.MovementProfile {
	case world.MovementSilent:
		m = 0.8
	case world.MovementSprint:
		m = 1.2
	}
	if actor.StealthMode {
		m *= stealthModeMultiplier
	}
	return m
}

// EffectiveRange is the camera's detection range against this actor.
func EffectiveRange(c CameraRuntimeState, actor world.Actor) float64 {
	base := c.Range
	if c.Type == CameraMotionSensor && c.MotionRadius != nil {
		base = *c.MotionRadius
	}
	reduction := spatial.Clamp(actor.Skill(world.SkillStealth)/200, 0, maxStealthRangeReduction)
	effective := base * (1 - reduction) * MovementMultiplier(actor)
	if math.IsNaN(effective) || effective < 1 {
		return 1
	}
	return effective
}

// GainMultiplier scales progress gain by hacking skill and movement.
func GainMultiplier(actor world.Actor) float64 {
	reduction := spatial.Clamp(actor.Skill(world.SkillHacking)/200, 0, maxHackingGainReduction)
	return (1 - reduction) * MovementMultiplier(actor)
}

// StateForProgress maps progress onto the alarm ladder.
func StateForProgress(progress float64) AlarmState {
	switch {
	case progress >= AlarmThreshold:
		return StateAlarmed
	case progress >= InvestigatingThreshold:
		return StateInvestigating
	case progress > 0:
		return StateSuspicious
	default:
		return StateIdle
	}
}

// Perceives reports whether the camera currently perceives the actor,
// ignoring hack windows.
func Perceives(c CameraRuntimeState, in Input) bool {
	r := EffectiveRange(c, in.Actor)
	if c.Type == CameraMotionSensor {
		distance := spatial.DistanceBetween(c.Position, in.Actor.Position)
		return distance <= r && in.ActorMoved && in.Actor.MovementProfile != world.MovementSilent
	}

	cone := spatial.VisionCone{Range: r, Angle: c.FieldOfView, Direction: c.CurrentDirection}
	return spatial.IsInVisionCone(c.Position, in.Actor.Position, cone) &&
		spatial.HasLineOfSight(c.Position, in.Actor.Position, in.Map)
}

// Evaluate advances the detection progress of a camera whose orientation is
// already up to date for this tick.
func Evaluate(c CameraRuntimeState, in Input) Detection {
	if !c.Active || IsDisabled(c, in.TimestampMs) {
		return Detection{State: StateDisabled}
	}

	deltaMs := math.Max(0, finiteOr(in.DeltaMs, 0))
	progress := spatial.Clamp(c.DetectionProgress, 0, AlarmThreshold)
	last := c.LastDetectionTimestamp

	if IsLoopingFootage(c, in.TimestampMs) {
		return Detection{State: StateForProgress(progress), Progress: progress, LastDetectionTimestamp: last}
	}

	active := Perceives(c, in)
	if active {
		progress = math.Min(AlarmThreshold, progress+ProgressGainPerMs*GainMultiplier(in.Actor)*deltaMs)
		ts := in.TimestampMs
		last = &ts
	} else {
		rate := ProgressDecayPerMs
		if c.TrackingPlayer {
			rate *= TrackingDecayFactor
		}
		progress = math.Max(0, progress-rate*deltaMs)
	}

	state := StateForProgress(progress)
	if state == StateAlarmed {
		progress = AlarmThreshold
	}

	return Detection{State: state, Progress: progress, Active: active, LastDetectionTimestamp: last}
}

// Apply writes a detection verdict into the camera and maintains the
// tracking lock: static and drone cameras that perceive the actor at
// suspicious or above snap their facing onto the actor.
func Apply(c CameraRuntimeState, d Detection, actor world.Actor) CameraRuntimeState {
	c.AlarmState = d.State
	c.DetectionProgress = d.Progress
	c.LastDetectionTimestamp = d.LastDetectionTimestamp

	if d.State == StateDisabled {
		c.DetectionProgress = 0
		c.LastDetectionTimestamp = nil
		c.TrackingPlayer = false
		return c
	}

	if c.Type == CameraMotionSensor {
		c.TrackingPlayer = false
		return c
	}

	if d.Active && d.State.Rank() >= StateSuspicious.Rank() {
		c.TrackingPlayer = true
		if !c.Position.Equal(actor.Position) {
			c.CurrentDirection = spatial.HeadingDegrees(c.Position, actor.Position)
		}
		return c
	}

	c.TrackingPlayer = false
	return c
}

// Changed reports whether a camera moved enough between two states to be
// worth handing back to the host.
func Changed(prev, next CameraRuntimeState) bool {
	return prev.AlarmState != next.AlarmState ||
		prev.Active != next.Active ||
		prev.CurrentDirection != next.CurrentDirection ||
		!prev.Position.Equal(next.Position) ||
		math.Abs(prev.DetectionProgress-next.DetectionProgress) > 0.1 ||
		!sameTimestamp(prev.LastDetectionTimestamp, next.LastDetectionTimestamp) ||
		prev.SweepDirection != next.SweepDirection ||
		prev.SweepIndex != next.SweepIndex ||
		math.Abs(prev.SweepElapsedMs-next.SweepElapsedMs) > 0.1 ||
		prev.CurrentWaypointIndex != next.CurrentWaypointIndex ||
		prev.TrackingPlayer != next.TrackingPlayer ||
		prev.Hack != next.Hack
}

func sameTimestamp(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
