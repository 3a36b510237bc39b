package world

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertLevelOrder(t *testing.T) {
	assert.True(t, AlertIdle < AlertSuspicious)
	assert.True(t, AlertSuspicious < AlertInvestigating)
	assert.True(t, AlertInvestigating < AlertAlarmed)
	assert.Equal(t, 3, AlertAlarmed.Rank())
	assert.Equal(t, 3, AlertLevel(42).Rank())
	assert.Equal(t, 0, AlertLevel(-1).Rank())
}

func TestAlertLevelJSON(t *testing.T) {
	data, err := json.Marshal(AlertInvestigating)
	require.NoError(t, err)
	assert.Equal(t, `"investigating"`, string(data))

	var g Guard
	require.NoError(t, json.Unmarshal([]byte(`{"id":"g1","alert_level":"alarmed"}`), &g))
	assert.Equal(t, AlertAlarmed, g.AlertLevel)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"g2","alert_level":"bogus"}`), &g))
	assert.Equal(t, AlertIdle, g.AlertLevel)
}

func TestActorDefaults(t *testing.T) {
	a := Actor{ID: "p"}
	assert.Equal(t, DefaultAgility, a.AgilityOrDefault())
	assert.Equal(t, 0.0, a.Skill(SkillStealth))

	agi := 9
	a = Actor{Agility: &agi, SkillTraining: map[string]float64{SkillStealth: 40}}
	assert.Equal(t, 9, a.AgilityOrDefault())
	assert.Equal(t, 40.0, a.Skill(SkillStealth))
}
