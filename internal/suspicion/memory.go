package suspicion

import (
	"fmt"
	"math"

	"surveillance-core/internal/spatial"
)

// BuildMemoryID returns the stable key witnessId:targetId:channel.
func BuildMemoryID(witnessID, targetID string, channel RecognitionChannel) string {
	return fmt.Sprintf("%s:%s:%s", witnessID, targetID, channel)
}

func clampUnit(v float64) float64 {
	return spatial.Clamp(v, 0, 1)
}

// CalculateObservationCertainty clamps the base certainty and each of the
// four modifiers to [0,1], then multiplies them.
func CalculateObservationCertainty(obs WitnessObservation) float64 {
	return clampUnit(clampUnit(obs.BaseCertainty) *
		clampUnit(obs.DistanceModifier) *
		clampUnit(obs.LightingModifier) *
		clampUnit(obs.DisguiseModifier) *
		clampUnit(obs.PostureModifier))
}

func copyPoint(p *spatial.Point) *spatial.Point {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// CreateMemory builds the first memory for an observation.
func CreateMemory(obs WitnessObservation, profile HeatProfile) WitnessMemory {
	suppressed := false
	if obs.Existing != nil {
		suppressed = obs.Existing.Suppressed
	}
	return WitnessMemory{
		ID:                 BuildMemoryID(obs.WitnessID, obs.TargetID, obs.RecognitionChannel),
		WitnessID:          obs.WitnessID,
		WitnessLabel:       obs.WitnessLabel,
		TargetID:           obs.TargetID,
		ZoneID:             obs.ZoneID,
		AreaID:             obs.AreaID,
		Source:             obs.Source,
		RecognitionChannel: obs.RecognitionChannel,
		Certainty:          CalculateObservationCertainty(obs),
		HalfLifeSeconds:    profile.HalfLifeSeconds,
		FirstSeenAt:        obs.Timestamp,
		LastSeenAt:         obs.Timestamp,
		Reported:           obs.Reported,
		Suppressed:         suppressed,
		ProximityWeight:    clampUnit(obs.DistanceModifier),
		Location:           copyPoint(obs.Location),
	}
}

// ReinforceMemory folds a repeat observation into an existing memory.
// The resulting certainty is never lower than the memory's.
func ReinforceMemory(memory WitnessMemory, obs WitnessObservation, profile HeatProfile) WitnessMemory {
	observed := CalculateObservationCertainty(obs)
	next := memory
	next.Certainty = clampUnit(math.Max(memory.Certainty, observed) + observed*profile.ReinforcementBonus)
	next.LastSeenAt = obs.Timestamp
	ts := obs.Timestamp
	next.ReinforcedAt = &ts
	next.Reported = memory.Reported || obs.Reported
	next.ProximityWeight = math.Max(memory.ProximityWeight, clampUnit(obs.DistanceModifier))
	if obs.WitnessLabel != "" {
		next.WitnessLabel = obs.WitnessLabel
	}
	if obs.Existing != nil {
		next.Suppressed = obs.Existing.Suppressed
	}
	if obs.Location != nil {
		next.Location = copyPoint(obs.Location)
	} else {
		next.Location = copyPoint(memory.Location)
	}
	return next
}

// DecayMemory applies half-life decay over elapsedSeconds. A suppressed
// memory additionally takes the profile's suppression penalty.
func DecayMemory(memory WitnessMemory, elapsedSeconds float64, profile HeatProfile) DecayResult {
	if !(elapsedSeconds > 0) || memory.Certainty <= 0 {
		return DecayResult{Memory: memory, Pruned: memory.Certainty < profile.CertaintyFloor}
	}
	halfLife := memory.HalfLifeSeconds
	if !(halfLife > 0) {
		halfLife = profile.HalfLifeSeconds
	}
	if !(halfLife > 0) {
		halfLife = DefaultHeatProfile.HalfLifeSeconds
	}
	next := memory
	next.Certainty = clampUnit(memory.Certainty * math.Pow(0.5, elapsedSeconds/halfLife))
	if memory.Suppressed {
		next.Certainty = clampUnit(next.Certainty * clampUnit(profile.SuppressionPenalty))
	}
	return DecayResult{Memory: next, Pruned: next.Certainty < profile.CertaintyFloor}
}

// ToSnapshot flattens a memory into its persisted form.
func ToSnapshot(m WitnessMemory) WitnessMemorySnapshot {
	s := WitnessMemorySnapshot{
		ID:                 m.ID,
		WitnessID:          m.WitnessID,
		WitnessLabel:       m.WitnessLabel,
		TargetID:           m.TargetID,
		ZoneID:             m.ZoneID,
		AreaID:             m.AreaID,
		Source:             m.Source,
		RecognitionChannel: m.RecognitionChannel,
		Certainty:          m.Certainty,
		HalfLifeSeconds:    m.HalfLifeSeconds,
		FirstSeenAt:        m.FirstSeenAt,
		LastSeenAt:         m.LastSeenAt,
		Reported:           m.Reported,
		Suppressed:         m.Suppressed,
		ProximityWeight:    m.ProximityWeight,
	}
	if m.ReinforcedAt != nil {
		v := *m.ReinforcedAt
		s.ReinforcedAt = &v
	}
	if m.Location != nil {
		x, y := m.Location.X, m.Location.Y
		s.LocationX, s.LocationY = &x, &y
	}
	return s
}

// FromSnapshot rebuilds a memory from its persisted form.
func FromSnapshot(s WitnessMemorySnapshot) WitnessMemory {
	m := WitnessMemory{
		ID:                 s.ID,
		WitnessID:          s.WitnessID,
		WitnessLabel:       s.WitnessLabel,
		TargetID:           s.TargetID,
		ZoneID:             s.ZoneID,
		AreaID:             s.AreaID,
		Source:             s.Source,
		RecognitionChannel: s.RecognitionChannel,
		Certainty:          s.Certainty,
		HalfLifeSeconds:    s.HalfLifeSeconds,
		FirstSeenAt:        s.FirstSeenAt,
		LastSeenAt:         s.LastSeenAt,
		Reported:           s.Reported,
		Suppressed:         s.Suppressed,
		ProximityWeight:    s.ProximityWeight,
	}
	if s.ReinforcedAt != nil {
		v := *s.ReinforcedAt
		m.ReinforcedAt = &v
	}
	if s.LocationX != nil && s.LocationY != nil {
		m.Location = &spatial.Point{X: *s.LocationX, Y: *s.LocationY}
	}
	return m
}
