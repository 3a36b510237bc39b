// Package suspicion turns individual sightings into decaying per-witness
// memories and folds those memories into a per-zone heat signal.
package suspicion

import "surveillance-core/internal/spatial"

// RecognitionChannel is how a witness recognised the target.
type RecognitionChannel string

const (
	ChannelFace    RecognitionChannel = "face"
	ChannelOutfit  RecognitionChannel = "outfit"
	ChannelVehicle RecognitionChannel = "vehicle"
	ChannelVoice   RecognitionChannel = "voice"
)

// Source is the kind of witness.
type Source string

const (
	SourceGuard     Source = "guard"
	SourceCamera    Source = "camera"
	SourceCivilian  Source = "civilian"
	SourceBroadcast Source = "broadcast"
)

// HeatTier is the discrete escalation bucket derived from heat.
type HeatTier string

const (
	TierCalm      HeatTier = "calm"
	TierTracking  HeatTier = "tracking"
	TierCrackdown HeatTier = "crackdown"
)

// Rank orders tiers calm < tracking < crackdown.
func (t HeatTier) Rank() int {
	switch t {
	case TierTracking:
		return 1
	case TierCrackdown:
		return 2
	default:
		return 0
	}
}

// WitnessObservation is one already-attenuated sighting. It is consumed once.
type WitnessObservation struct {
	WitnessID          string             `json:"witness_id"`
	WitnessLabel       string             `json:"witness_label,omitempty"`
	TargetID           string             `json:"target_id"`
	ZoneID             string             `json:"zone_id"`
	AreaID             string             `json:"area_id,omitempty"`
	Timestamp          float64            `json:"timestamp"`
	Source             Source             `json:"source"`
	RecognitionChannel RecognitionChannel `json:"recognition_channel"`
	BaseCertainty      float64            `json:"base_certainty"`
	DistanceModifier   float64            `json:"distance_modifier"`
	LightingModifier   float64            `json:"lighting_modifier"`
	DisguiseModifier   float64            `json:"disguise_modifier"`
	PostureModifier    float64            `json:"posture_modifier"`
	Reported           bool               `json:"reported"`
	Location           *spatial.Point     `json:"location,omitempty"`
	Existing           *WitnessMemory     `json:"-"`
}

// WitnessMemory is the durable, decaying belief of one witness about one
// target through one recognition channel.
type WitnessMemory struct {
	ID                 string
	WitnessID          string
	WitnessLabel       string
	TargetID           string
	ZoneID             string
	AreaID             string
	Source             Source
	RecognitionChannel RecognitionChannel
	Certainty          float64
	HalfLifeSeconds    float64
	FirstSeenAt        float64
	LastSeenAt         float64
	ReinforcedAt       *float64
	Reported           bool
	Suppressed         bool
	ProximityWeight    float64
	Location           *spatial.Point
}

// WitnessMemorySnapshot is the flat persisted form of a WitnessMemory.
type WitnessMemorySnapshot struct {
	ID                 string             `json:"id"`
	WitnessID          string             `json:"witness_id"`
	WitnessLabel       string             `json:"witness_label,omitempty"`
	TargetID           string             `json:"target_id"`
	ZoneID             string             `json:"zone_id"`
	AreaID             string             `json:"area_id,omitempty"`
	Source             Source             `json:"source"`
	RecognitionChannel RecognitionChannel `json:"recognition_channel"`
	Certainty          float64            `json:"certainty"`
	HalfLifeSeconds    float64            `json:"half_life_seconds"`
	FirstSeenAt        float64            `json:"first_seen_at"`
	LastSeenAt         float64            `json:"last_seen_at"`
	ReinforcedAt       *float64           `json:"reinforced_at,omitempty"`
	Reported           bool               `json:"reported"`
	Suppressed         bool               `json:"suppressed"`
	ProximityWeight    float64            `json:"proximity_weight"`
	LocationX          *float64           `json:"location_x,omitempty"`
	LocationY          *float64           `json:"location_y,omitempty"`
}

// TierThresholds are the heat values at which a zone escalates.
type TierThresholds struct {
	Tracking  float64 `json:"tracking" yaml:"tracking"`
	Crackdown float64 `json:"crackdown" yaml:"crackdown"`
}

// HeatProfile is per-zone tuning, read-only at runtime.
type HeatProfile struct {
	ID                 string         `json:"id" yaml:"id"`
	Label              string         `json:"label" yaml:"label"`
	HalfLifeSeconds    float64        `json:"half_life_seconds" yaml:"half_life_seconds"`
	CertaintyFloor     float64        `json:"certainty_floor" yaml:"certainty_floor"`
	ReinforcementBonus float64        `json:"reinforcement_bonus" yaml:"reinforcement_bonus"`
	ReportMultiplier   float64        `json:"report_multiplier" yaml:"report_multiplier"`
	SuppressionPenalty float64        `json:"suppression_penalty" yaml:"suppression_penalty"`
	TopK               int            `json:"top_k" yaml:"top_k"`
	ProximityExponent  float64        `json:"proximity_exponent" yaml:"proximity_exponent"`
	TierThresholds     TierThresholds `json:"tier_thresholds" yaml:"tier_thresholds"`
}

// ZoneHeatComputation is the derived heat of one zone.
type ZoneHeatComputation struct {
	ZoneID            string   `json:"zone_id"`
	TotalHeat         float64  `json:"total_heat"`
	Tier              HeatTier `json:"tier"`
	LeadingWitnessIDs []string `json:"leading_witness_ids"`
}

// DecayResult is the outcome of one decay pass over a memory.
type DecayResult struct {
	Memory WitnessMemory
	Pruned bool
}
