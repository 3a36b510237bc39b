package surveillance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveillance-core/internal/spatial"
	"surveillance-core/internal/world"
)

func staticCamera(angles []float64, cycleMs float64) CameraRuntimeState {
	c := NewRuntimeState(CameraDefinition{
		ID:          "cam_static_01",
		Type:        CameraStatic,
		Position:    spatial.Point{X: 0, Y: 0},
		Range:       8,
		FieldOfView: 90,
		Sweep:       &SweepConfig{Angles: angles, CycleDurationMs: cycleMs},
	})
	return SetActive(c, true)
}

func TestNewRuntimeStateInitialDirection(t *testing.T) {
	c := NewRuntimeState(CameraDefinition{ID: "a", FieldOfView: 90, Sweep: &SweepConfig{Angles: []float64{-30, 30}}})
	assert.InDelta(t, 330.0, c.CurrentDirection, 1e-9)
	assert.Equal(t, StateIdle, c.AlarmState)
	assert.Equal(t, 1, c.SweepDirection)

	c = NewRuntimeState(CameraDefinition{ID: "b", FieldOfView: 90})
	assert.InDelta(t, 45.0, c.CurrentDirection, 1e-9)

	c = NewRuntimeState(CameraDefinition{ID: "c", FieldOfView: 360})
	assert.Equal(t, 0.0, c.CurrentDirection)
}

func TestStaticSweepPingPong(t *testing.T) {
	c := staticCamera([]float64{0, 90, 180}, 2000) // 1000ms per segment

	c = UpdateStaticOrientation(c, 500)
	assert.InDelta(t, 45.0, c.CurrentDirection, 1e-9)
	assert.Equal(t, 0, c.SweepIndex)

	c = UpdateStaticOrientation(c, 1000)
	assert.InDelta(t, 135.0, c.CurrentDirection, 1e-9)
	assert.Equal(t, 1, c.SweepIndex)

	// reaching the end flips direction instead of wrapping
	c = UpdateStaticOrientation(c, 1000)
	assert.Equal(t, 2, c.SweepIndex)
	assert.Equal(t, -1, c.SweepDirection)
	assert.InDelta(t, 135.0, c.CurrentDirection, 1e-9)

	c = UpdateStaticOrientation(c, 1000)
	assert.Equal(t, 1, c.SweepIndex)
	assert.InDelta(t, 45.0, c.CurrentDirection, 1e-9)
}

func TestStaticSweepShortestPath(t *testing.T) {
	c := staticCamera([]float64{350, 10}, 1000)
	c = UpdateStaticOrientation(c, 500)
	assert.InDelta(t, 0.0, c.CurrentDirection, 1e-9, "interpolates through 0, not through 180")
}

func TestSweepMalformedInput(t *testing.T) {
	c := staticCamera(nil, 1000)
	c.CurrentDirection = 77
	c = UpdateStaticOrientation(c, 500)
	assert.Equal(t, 77.0, c.CurrentDirection)

	c = staticCamera([]float64{400}, 1000)
	c = UpdateStaticOrientation(c, 500)
	assert.InDelta(t, 40.0, c.CurrentDirection, 1e-9)

	// zero cycle falls back to the default duration and never spins forever
	c = staticCamera([]float64{0, 90}, 0)
	c = UpdateStaticOrientation(c, 1600)
	assert.InDelta(t, 45.0, c.CurrentDirection, 1e-9)

	c = staticCamera([]float64{0, 90}, 1000)
	c = UpdateStaticOrientation(c, 1e12)
	assert.GreaterOrEqual(t, c.CurrentDirection, 0.0)
	assert.Less(t, c.CurrentDirection, 360.0)
}

func TestDronePatrol(t *testing.T) {
	c := SetActive(NewRuntimeState(CameraDefinition{
		ID:          "drone_01",
		Type:        CameraDrone,
		Range:       10,
		FieldOfView: 90,
		PatrolPath: &PatrolPath{
			Waypoints:        []spatial.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
			TravelDurationMs: 4000,
		},
	}), true)

	c = UpdateDroneOrientation(c, 500)
	assert.InDelta(t, 5.0, c.Position.X, 1e-9)
	assert.InDelta(t, 0.0, c.Position.Y, 1e-9)
	assert.InDelta(t, 0.0, c.CurrentDirection, 1e-9)

	c = UpdateDroneOrientation(c, 1000)
	assert.Equal(t, 1, c.CurrentWaypointIndex)
	assert.InDelta(t, 10.0, c.Position.X, 1e-9)
	assert.InDelta(t, 5.0, c.Position.Y, 1e-9)
	assert.InDelta(t, 90.0, c.CurrentDirection, 1e-9)

	// last segment loops back to the first waypoint
	c = UpdateDroneOrientation(c, 2000)
	assert.Equal(t, 3, c.CurrentWaypointIndex)
	assert.InDelta(t, 270.0, c.CurrentDirection, 1e-9)
}

func TestDroneRelativeSweep(t *testing.T) {
	c := SetActive(NewRuntimeState(CameraDefinition{
		ID:          "drone_02",
		Type:        CameraDrone,
		FieldOfView: 90,
		Range:       10,
		PatrolPath:  &PatrolPath{Waypoints: []spatial.Point{{X: 0, Y: 0}, {X: 0, Y: 10}}, TravelDurationMs: 10000},
		Sweep:       &SweepConfig{Angles: []float64{-45, 45}, CycleDurationMs: 1000},
	}), true)

	c = UpdateDroneOrientation(c, 500)
	assert.InDelta(t, 90.0, c.CurrentDirection, 1e-9, "heading 90 plus zero offset mid-sweep")
}

func TestDroneSingleWaypointHoldsSweep(t *testing.T) {
	c := SetActive(NewRuntimeState(CameraDefinition{
		ID:          "drone_04",
		Type:        CameraDrone,
		FieldOfView: 90,
		Range:       10,
		PatrolPath:  &PatrolPath{Waypoints: []spatial.Point{{X: 4, Y: 4}}, TravelDurationMs: 5000},
		Sweep:       &SweepConfig{Angles: []float64{30, 60}, CycleDurationMs: 100000},
	}), true)

	for i := 0; i < 50; i++ {
		c = UpdateDroneOrientation(c, 10)
		assert.InDelta(t, 30.0, c.CurrentDirection, 1.0, "tick %d", i)
		assert.Equal(t, spatial.Point{X: 4, Y: 4}, c.Position)
	}
}

func TestDroneRepeatedWaypointDoesNotDrift(t *testing.T) {
	c := SetActive(NewRuntimeState(CameraDefinition{
		ID:          "drone_05",
		Type:        CameraDrone,
		FieldOfView: 90,
		PatrolPath:  &PatrolPath{Waypoints: []spatial.Point{{X: 2, Y: 2}, {X: 2, Y: 2}}, TravelDurationMs: 100000},
		Sweep:       &SweepConfig{Angles: []float64{10}, CycleDurationMs: 1000},
	}), true)

	for i := 0; i < 20; i++ {
		c = UpdateDroneOrientation(c, 10)
		assert.InDelta(t, 10.0, c.CurrentDirection, 1e-9)
	}
}

func TestSafeCycleDuration(t *testing.T) {
	assert.Equal(t, defaultSweepDurationMs, safeCycleDuration(0))
	assert.Equal(t, defaultSweepDurationMs, safeCycleDuration(math.NaN()))
	assert.Equal(t, minSweepDurationMs, safeCycleDuration(-100))
	assert.Equal(t, 5000.0, safeCycleDuration(-5000))
}

func TestDroneWithoutWaypointsFallsBackToStatic(t *testing.T) {
	c := SetActive(NewRuntimeState(CameraDefinition{
		ID: "drone_03", Type: CameraDrone, FieldOfView: 90,
		PatrolPath: &PatrolPath{},
		Sweep:      &SweepConfig{Angles: []float64{0, 90}, CycleDurationMs: 1000},
	}), true)
	c = UpdateOrientation(c, 500, 0)
	assert.InDelta(t, 45.0, c.CurrentDirection, 1e-9)
}

func TestMotionSensorIgnoresSweep(t *testing.T) {
	c := SetActive(NewRuntimeState(CameraDefinition{
		ID: "motion_01", Type: CameraMotionSensor, FieldOfView: 360,
		Sweep: &SweepConfig{Angles: []float64{0, 90}, CycleDurationMs: 1000},
	}), true)
	before := c.CurrentDirection
	c = UpdateOrientation(c, 500, 0)
	assert.Equal(t, before, c.CurrentDirection)
}

func TestStateForProgressLadder(t *testing.T) {
	assert.Equal(t, StateIdle, StateForProgress(0))
	for p := 1.0; p < 60; p++ {
		assert.Equal(t, StateSuspicious, StateForProgress(p))
	}
	for p := 60.0; p < 100; p++ {
		assert.Equal(t, StateInvestigating, StateForProgress(p))
	}
	assert.Equal(t, StateAlarmed, StateForProgress(100))

	prev := 0
	for p := 0.0; p <= 100; p += 0.5 {
		r := StateForProgress(p).Rank()
		assert.GreaterOrEqual(t, r, prev, "ladder monotone at %v", p)
		prev = r
	}
}

func TestEffectiveRange(t *testing.T) {
	c := staticCamera([]float64{0}, 1000)
	actor := world.Actor{MovementProfile: world.MovementNormal}
	assert.InDelta(t, 8.0, EffectiveRange(c, actor), 1e-9)

	actor.SkillTraining = map[string]float64{world.SkillStealth: 100}
	assert.InDelta(t, 4.0, EffectiveRange(c, actor), 1e-9)

	actor.SkillTraining[world.SkillStealth] = 1000
	assert.InDelta(t, 2.0, EffectiveRange(c, actor), 1e-9, "stealth reduction caps at 75%")

	actor = world.Actor{MovementProfile: world.MovementSilent, StealthMode: true}
	assert.InDelta(t, 8*0.8*0.75, EffectiveRange(c, actor), 1e-9)

	actor = world.Actor{MovementProfile: world.MovementSprint}
	assert.InDelta(t, 9.6, EffectiveRange(c, actor), 1e-9)

	c.Range = 0.1
	assert.Equal(t, 1.0, EffectiveRange(c, world.Actor{}))
}

func TestEvaluateGainAndAlarm(t *testing.T) {
	c := staticCamera([]float64{0}, 1000)
	in := Input{
		Actor:       world.Actor{ID: "player", Position: spatial.Point{X: 4, Y: 0}},
		Map:         spatial.NewOpenMap("a", "z", 20, 20),
		DeltaMs:     1500,
		TimestampMs: 1000,
	}

	d := Evaluate(c, in)
	assert.True(t, d.Active)
	assert.InDelta(t, 50.0, d.Progress, 1e-9)
	assert.Equal(t, StateSuspicious, d.State)
	require.NotNil(t, d.LastDetectionTimestamp)

	c = Apply(c, d, in.Actor)
	assert.True(t, c.TrackingPlayer)

	in.DeltaMs = 600
	d = Evaluate(c, in)
	assert.Equal(t, StateInvestigating, d.State)
	c = Apply(c, d, in.Actor)

	in.DeltaMs = 5000
	d = Evaluate(c, in)
	assert.Equal(t, StateAlarmed, d.State)
	assert.Equal(t, 100.0, d.Progress)
}

func TestEvaluateHackingSlowsGain(t *testing.T) {
	c := staticCamera([]float64{0}, 1000)
	in := Input{
		Actor:   world.Actor{Position: spatial.Point{X: 4, Y: 0}, SkillTraining: map[string]float64{world.SkillHacking: 500}},
		DeltaMs: 1000,
	}
	d := Evaluate(c, in)
	assert.InDelta(t, 100.0/3.0*0.75, d.Progress, 1e-9)
}

func TestEvaluateDecayWithTrackingLock(t *testing.T) {
	c := staticCamera([]float64{0}, 1000)
	c.DetectionProgress = 50
	c.AlarmState = StateSuspicious
	in := Input{Actor: world.Actor{Position: spatial.Point{X: -5, Y: 0}}, DeltaMs: 1000}

	d := Evaluate(c, in)
	assert.False(t, d.Active)
	assert.InDelta(t, 25.0, d.Progress, 1e-9)

	c.TrackingPlayer = true
	d = Evaluate(c, in)
	assert.InDelta(t, 5.0, d.Progress, 1e-9)

	c = Apply(c, d, in.Actor)
	assert.False(t, c.TrackingPlayer, "lock released once detection goes inactive")

	c.DetectionProgress = 1
	d = Evaluate(c, in)
	assert.Equal(t, 0.0, d.Progress)
	assert.Equal(t, StateIdle, d.State)
}

func TestEvaluateBlockedByWall(t *testing.T) {
	c := staticCamera([]float64{0}, 1000)
	m := spatial.NewOpenMap("a", "z", 20, 20)
	m.SetWall(2, 0)
	d := Evaluate(c, Input{Actor: world.Actor{Position: spatial.Point{X: 4, Y: 0}}, Map: m, DeltaMs: 100})
	assert.False(t, d.Active)
}

func TestEvaluateInactiveAndHacked(t *testing.T) {
	c := staticCamera([]float64{0}, 1000)
	c.DetectionProgress = 40
	in := Input{Actor: world.Actor{Position: spatial.Point{X: 4, Y: 0}}, DeltaMs: 1000, TimestampMs: 5000}

	off := c
	off.Active = false
	d := Evaluate(off, in)
	assert.Equal(t, Detection{State: StateDisabled}, d)

	hacked := ApplyHack(c, HackDisable, 6000, 0)
	d = Evaluate(hacked, in)
	assert.Equal(t, StateDisabled, d.State)
	assert.Equal(t, 0.0, d.Progress)

	expired := ApplyHack(c, HackDisable, 5000, 0)
	assert.NotEqual(t, StateDisabled, Evaluate(expired, in).State)

	looping := ApplyHack(c, HackLoop, 9000, 0)
	d = Evaluate(looping, in)
	assert.False(t, d.Active)
	assert.Equal(t, 40.0, d.Progress, "looping footage freezes progress")
	assert.Equal(t, StateSuspicious, d.State)
}

func TestRedirectHackForcesFacing(t *testing.T) {
	c := staticCamera([]float64{0, 90}, 1000)
	c = ApplyHack(c, HackRedirect, 2000, 200)
	c = UpdateOrientation(c, 100, 1000)
	assert.Equal(t, 200.0, c.CurrentDirection)

	c = UpdateOrientation(c, 100, 3000)
	assert.NotEqual(t, 200.0, c.CurrentDirection)
}

func TestMotionSensorDetection(t *testing.T) {
	radius := 4.0
	c := SetActive(NewRuntimeState(CameraDefinition{
		ID: "motion_01", Type: CameraMotionSensor, Range: 4, FieldOfView: 360, MotionRadius: &radius,
	}), true)
	actor := world.Actor{Position: spatial.Point{X: 2, Y: 0}, MovementProfile: world.MovementNormal}

	assert.True(t, Perceives(c, Input{Actor: actor, ActorMoved: true}))
	assert.False(t, Perceives(c, Input{Actor: actor, ActorMoved: false}), "still actor is invisible")

	actor.MovementProfile = world.MovementSilent
	assert.False(t, Perceives(c, Input{Actor: actor, ActorMoved: true}))

	actor.MovementProfile = world.MovementSprint
	actor.Position = spatial.Point{X: 10, Y: 0}
	assert.False(t, Perceives(c, Input{Actor: actor, ActorMoved: true}))

	d := Evaluate(c, Input{Actor: world.Actor{Position: spatial.Point{X: 1, Y: 0}}, ActorMoved: true, DeltaMs: 300})
	c = Apply(c, d, world.Actor{})
	assert.False(t, c.TrackingPlayer, "motion sensors never lock on")
}

func TestApplyTimeOfDay(t *testing.T) {
	defs := []CameraDefinition{
		{ID: "night_only", Type: CameraStatic, FieldOfView: 90, ActivationPhases: []world.TimeOfDay{world.Evening, world.Night}},
		{ID: "always", Type: CameraStatic, FieldOfView: 90},
	}
	cams := InitializeCameras(defs, world.Day)
	require.Len(t, cams, 2)
	assert.False(t, cams[0].Active)
	assert.Equal(t, StateDisabled, cams[0].AlarmState)
	assert.True(t, cams[1].Active)

	changed, activated := ApplyTimeOfDay(cams, world.Night)
	require.Len(t, changed, 1)
	assert.True(t, activated)
	assert.Equal(t, "night_only", changed[0].ID)
	assert.Equal(t, StateIdle, changed[0].AlarmState)

	cams[0] = changed[0]
	cams[0].DetectionProgress = 30
	changed, activated = ApplyTimeOfDay(cams, world.Morning)
	require.Len(t, changed, 1)
	assert.False(t, activated)
	assert.Equal(t, 0.0, changed[0].DetectionProgress)
	assert.Equal(t, StateDisabled, changed[0].AlarmState)
}

func TestChanged(t *testing.T) {
	c := staticCamera([]float64{0}, 1000)
	assert.False(t, Changed(c, c))
	n := c
	n.DetectionProgress += 0.05
	assert.False(t, Changed(c, n))
	n.DetectionProgress += 0.5
	assert.True(t, Changed(c, n))
}

func TestDisplayLabel(t *testing.T) {
	c := NewRuntimeState(CameraDefinition{ID: "downtown_static-01"})
	assert.Equal(t, "Downtown Static 01", c.DisplayLabel())
	c.Label = "Gate Cam"
	assert.Equal(t, "Gate Cam", c.DisplayLabel())
}
