// Package world holds the read-only snapshots the surveillance core consumes
// each tick: the tracked actor, guards, time of day and environment flags.
package world

import "surveillance-core/internal/spatial"

// TimeOfDay is the day/night phase.
type TimeOfDay string

const (
	Morning TimeOfDay = "morning"
	Day     TimeOfDay = "day"
	Evening TimeOfDay = "evening"
	Night   TimeOfDay = "night"
)

// MovementProfile describes how the actor is moving.
type MovementProfile string

const (
	MovementSilent MovementProfile = "silent"
	MovementNormal MovementProfile = "normal"
	MovementSprint MovementProfile = "sprint"
)

// BlackoutTier is the power-grid condition.
type BlackoutTier string

const (
	BlackoutNone     BlackoutTier = "none"
	BlackoutBrownout BlackoutTier = "brownout"
	BlackoutRolling  BlackoutTier = "rolling"
)

// EnvironmentFlags are the world-level conditions that affect perception.
type EnvironmentFlags struct {
	BlackoutTier BlackoutTier `json:"blackout_tier"`
	CurfewLevel  int          `json:"curfew_level"`
}

const (
	SkillStealth = "stealth"
	SkillHacking = "hacking"
)

// Actor is the tracked actor (the player) as seen by this tick.
type Actor struct {
	ID              string             `json:"id"`
	Position        spatial.Point      `json:"position"`
	MovementProfile MovementProfile    `json:"movement_profile"`
	Crouching       bool               `json:"crouching"`
	StealthMode     bool               `json:"stealth_mode"`
	Agility         *int               `json:"agility,omitempty"`
	SkillTraining   map[string]float64 `json:"skill_training,omitempty"`
}

// DefaultAgility applies when the snapshot does not carry an agility value.
const DefaultAgility = 5

// Skill returns the trained value for a skill, zero when untrained.
func (a Actor) Skill(id string) float64 {
	if a.SkillTraining == nil {
		return 0
	}
	return a.SkillTraining[id]
}

// AgilityOrDefault returns the actor's agility attribute.
func (a Actor) AgilityOrDefault() int {
	if a.Agility == nil {
		return DefaultAgility
	}
	return *a.Agility
}

// Guard is a guard snapshot. Its alert level is owned by the host's guard AI.
type Guard struct {
	ID         string              `json:"id"`
	Name       string              `json:"name,omitempty"`
	Position   spatial.Point       `json:"position"`
	VisionCone *spatial.VisionCone `json:"vision_cone,omitempty"`
	AlertLevel AlertLevel          `json:"alert_level"`
}
