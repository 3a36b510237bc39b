package escalation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveillance-core/internal/spatial"
	"surveillance-core/internal/surveillance"
	"surveillance-core/internal/suspicion"
	"surveillance-core/internal/world"
)

func kinds(ns []Notification) []Kind {
	out := make([]Kind, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Kind)
	}
	return out
}

func TestNetworkAlertRaisedOncePerWindow(t *testing.T) {
	a := NewArena()
	area := "downtown_checkpoint"

	a.RecordAlarm(area, "cam_a", 1_000)
	a.RecordAlarm(area, "cam_b", 20_000)
	notes, raised := a.EvaluateNetworkAlert(area, 20_000)
	assert.False(t, raised)
	assert.Empty(t, notes)

	a.RecordAlarm(area, "cam_c", 40_000)
	notes, raised = a.EvaluateNetworkAlert(area, 40_000)
	require.True(t, raised)
	require.Len(t, notes, 1)
	alert := notes[0].NetworkAlert
	require.NotNil(t, alert)
	assert.Equal(t, int64(40_000), alert.TriggeredAt)
	assert.Equal(t, int64(40_000+5*60*1000), alert.ExpiresAt)
	assert.Equal(t, []string{"cam_a", "cam_b", "cam_c"}, alert.ContributingCameraIDs)

	a.RecordAlarm(area, "cam_d", 45_000)
	notes, raised = a.EvaluateNetworkAlert(area, 45_000)
	assert.False(t, raised)
	assert.Empty(t, notes)
	assert.Equal(t, int64(40_000), a.NetworkAlert(area).TriggeredAt)
}

func TestNetworkAlertNeedsDistinctCamerasInWindow(t *testing.T) {
	a := NewArena()
	a.RecordAlarm("x", "cam_a", 0)
	a.RecordAlarm("x", "cam_a", 10)
	a.RecordAlarm("x", "cam_b", 20)
	_, raised := a.EvaluateNetworkAlert("x", 20)
	assert.False(t, raised, "repeat alarms from one camera do not count twice")

	a.RecordAlarm("x", "cam_c", 60_015)
	_, raised = a.EvaluateNetworkAlert("x", 60_015)
	assert.False(t, raised, "cam_a fell out of the window")
	assert.Len(t, a.Area("x").AlarmHistory, 2)
}

func TestNetworkAlertExpires(t *testing.T) {
	a := NewArena()
	for i, id := range []string{"a", "b", "c"} {
		a.RecordAlarm("x", id, int64(i))
	}
	_, raised := a.EvaluateNetworkAlert("x", 2)
	require.True(t, raised)

	notes, raised := a.EvaluateNetworkAlert("x", 2+NetworkAlertDurationMs)
	assert.False(t, raised)
	assert.Equal(t, []Kind{KindNetworkAlertCleared}, kinds(notes))
	assert.Nil(t, a.NetworkAlert("x"))
}

func TestTeardownClearsHistory(t *testing.T) {
	a := NewArena()
	a.RecordAlarm("x", "a", 0)
	a.RecordAlarm("x", "b", 0)
	a.TeardownArea("x")
	a.RecordAlarm("x", "c", 1)
	_, raised := a.EvaluateNetworkAlert("x", 1)
	assert.False(t, raised)

	a.RecordAlarm("x", "d", 1)
	a.ResetArea("x")
	assert.Empty(t, a.Area("x").AlarmHistory)
}

func TestActorMovedAndGuardVisibility(t *testing.T) {
	a := NewArena()
	assert.False(t, a.ActorMoved("x", spatial.Point{X: 1, Y: 1}, 0))
	assert.False(t, a.ActorMoved("x", spatial.Point{X: 1, Y: 1}, 10))
	assert.True(t, a.ActorMoved("x", spatial.Point{X: 2, Y: 1}, 20))

	assert.True(t, a.GuardBecameVisible("x", "g", true))
	assert.False(t, a.GuardBecameVisible("x", "g", true))
	assert.False(t, a.GuardBecameVisible("x", "g", false))
	assert.True(t, a.GuardBecameVisible("x", "g", true))
}

func TestBuildAndUpdateHUD(t *testing.T) {
	cam := surveillance.SetActive(surveillance.NewRuntimeState(surveillance.CameraDefinition{
		ID: "cam_a", Type: surveillance.CameraStatic, Range: 5, FieldOfView: 90,
	}), true)
	cam.DetectionProgress = 33.333
	cam.AlarmState = surveillance.StateSuspicious
	far := surveillance.NewRuntimeState(surveillance.CameraDefinition{
		ID: "cam_b", Type: surveillance.CameraStatic, Position: spatial.Point{X: 50, Y: 50}, Range: 5,
	})

	hud := BuildHUD([]surveillance.CameraRuntimeState{cam, far}, spatial.Point{X: 5.4, Y: 0}, nil)
	assert.Equal(t, 1, hud.CamerasNearby)
	assert.Equal(t, 33.33, hud.DetectionProgress)
	assert.Equal(t, surveillance.StateSuspicious, hud.AlertState)
	assert.Equal(t, "cam_a", hud.ActiveCameraID)
	assert.False(t, hud.NetworkAlertActive)

	a := NewArena()
	n, ok := a.UpdateHUD("x", hud, 1)
	require.True(t, ok)
	assert.Equal(t, KindHUDUpdated, n.Kind)

	hud.DetectionProgress = 33.7
	_, ok = a.UpdateHUD("x", hud, 2)
	assert.False(t, ok, "small progress changes are not sent")

	hud.DetectionProgress = 34
	_, ok = a.UpdateHUD("x", hud, 3)
	assert.True(t, ok)

	withAlert := BuildHUD(nil, spatial.Point{}, &NetworkAlert{ExpiresAt: 99})
	assert.True(t, withAlert.NetworkAlertActive)
	_, ok = a.UpdateHUD("x", withAlert, 4)
	assert.True(t, ok)
}

func TestResolveAlarmPolicy(t *testing.T) {
	notes, scheduled := ResolveAlarmPolicy("x", true, false, false, world.AlertIdle, 5)
	assert.True(t, scheduled)
	assert.Equal(t, []Kind{KindReinforcementsScheduled, KindGlobalAlertRaised}, kinds(notes))
	require.NotNil(t, notes[1].AlertLevel)
	assert.Equal(t, world.AlertAlarmed, *notes[1].AlertLevel)

	notes, scheduled = ResolveAlarmPolicy("x", true, true, true, world.AlertAlarmed, 5)
	assert.False(t, scheduled)
	assert.Equal(t, []Kind{KindGlobalAlertRaised}, kinds(notes))

	notes, _ = ResolveAlarmPolicy("x", true, false, true, world.AlertSuspicious, 5)
	assert.Equal(t, []Kind{KindGlobalAlertRaised}, kinds(notes))

	notes, _ = ResolveAlarmPolicy("x", true, false, true, world.AlertAlarmed, 5)
	assert.Empty(t, notes)
	notes, _ = ResolveAlarmPolicy("x", false, false, false, world.AlertIdle, 5)
	assert.Empty(t, notes)
}

func TestObserveTier(t *testing.T) {
	a := NewArena()
	notes, _ := a.ObserveTier(suspicion.ZoneHeatComputation{ZoneID: "z", Tier: suspicion.TierCalm}, false, 1)
	assert.Empty(t, notes)

	notes, scheduled := a.ObserveTier(suspicion.ZoneHeatComputation{ZoneID: "z", Tier: suspicion.TierTracking, TotalHeat: 0.5}, false, 2)
	assert.False(t, scheduled)
	require.Equal(t, []Kind{KindHeatTierChanged}, kinds(notes))
	assert.Equal(t, TierChange{From: suspicion.TierCalm, To: suspicion.TierTracking, TotalHeat: 0.5}, *notes[0].Tier)

	notes, scheduled = a.ObserveTier(suspicion.ZoneHeatComputation{ZoneID: "z", Tier: suspicion.TierCrackdown, TotalHeat: 1}, false, 3)
	assert.True(t, scheduled)
	assert.Equal(t, []Kind{KindHeatTierChanged, KindReinforcementsScheduled}, kinds(notes))

	a.ForgetZone("z")
	notes, scheduled = a.ObserveTier(suspicion.ZoneHeatComputation{ZoneID: "z", Tier: suspicion.TierCrackdown}, true, 4)
	assert.False(t, scheduled)
	assert.Equal(t, []Kind{KindHeatTierChanged}, kinds(notes))
}

func TestCameraTransition(t *testing.T) {
	assert.Equal(t, []Kind{KindAlertSuspicious},
		kinds(CameraTransition("x", "c", surveillance.StateIdle, surveillance.StateSuspicious, 1)))
	assert.Equal(t, []Kind{KindAlarmThresholdCrossed, KindAlertAlarmed},
		kinds(CameraTransition("x", "c", surveillance.StateInvestigating, surveillance.StateAlarmed, 1)))
	assert.Empty(t, CameraTransition("x", "c", surveillance.StateAlarmed, surveillance.StateAlarmed, 1))
	assert.Empty(t, CameraTransition("x", "c", surveillance.StateSuspicious, surveillance.StateInvestigating, 1))
}
