package suspicion

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"surveillance-core/internal/spatial"
)

const (
	maxMemoryWeight = 1.5
	defaultTopK     = 5
)

// MemoryWeight is the contribution of one memory before top-K selection.
func MemoryWeight(m WitnessMemory, profile HeatProfile) float64 {
	prox := math.Max(0, m.ProximityWeight)
	w := m.Certainty * math.Pow(prox, profile.ProximityExponent)
	if m.Reported {
		w *= profile.ReportMultiplier
	}
	return spatial.Clamp(w, 0, maxMemoryWeight)
}

// DetermineTier buckets heat using the profile thresholds.
func DetermineTier(totalHeat float64, profile HeatProfile) HeatTier {
	switch {
	case totalHeat >= profile.TierThresholds.Crackdown:
		return TierCrackdown
	case totalHeat >= profile.TierThresholds.Tracking:
		return TierTracking
	default:
		return TierCalm
	}
}

// CalculateZoneHeat is a pure fold over a zone's memories. Input order does
// not affect the result.
func CalculateZoneHeat(zoneID string, memories []WitnessMemory, profile HeatProfile) ZoneHeatComputation {
	type weighted struct {
		id     string
		weight float64
	}
	candidates := make([]weighted, 0, len(memories))
	for _, m := range memories {
		if m.Suppressed || m.Certainty < profile.CertaintyFloor {
			continue
		}
		candidates = append(candidates, weighted{id: m.ID, weight: MemoryWeight(m, profile)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].weight != candidates[j].weight {
			return candidates[i].weight > candidates[j].weight
		}
		return candidates[i].id < candidates[j].id
	})

	k := profile.TopK
	if k <= 0 {
		k = defaultTopK
	}
	if k > len(candidates) {
		k = len(candidates)
	}
	weights := make([]float64, k)
	leading := make([]string, k)
	for i := 0; i < k; i++ {
		weights[i] = candidates[i].weight
		leading[i] = candidates[i].id
	}
	total := floats.Sum(weights)
	return ZoneHeatComputation{
		ZoneID:            zoneID,
		TotalHeat:         total,
		Tier:              DetermineTier(total, profile),
		LeadingWitnessIDs: leading,
	}
}
