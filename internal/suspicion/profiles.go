package suspicion

const hours = 3600

// DefaultHeatProfile is the baseline used by zones without an override.
var DefaultHeatProfile = HeatProfile{
	ID:                 "default",
	Label:              "Baseline Urban Patrols",
	HalfLifeSeconds:    72 * hours,
	CertaintyFloor:     0.05,
	ReinforcementBonus: 0.4,
	ReportMultiplier:   1.25,
	SuppressionPenalty: 0.4,
	TopK:               5,
	ProximityExponent:  0.85,
	TierThresholds:     TierThresholds{Tracking: 0.4, Crackdown: 0.75},
}

// BuiltinProfiles returns the compiled-in zone overrides.
func BuiltinProfiles() map[string]HeatProfile {
	downtown := DefaultHeatProfile
	downtown.ID = "downtown"
	downtown.Label = "Downtown Grid Hyper-Patrol"
	downtown.HalfLifeSeconds = 60 * hours
	downtown.ReportMultiplier = 1.35
	downtown.TopK = 6

	industrial := DefaultHeatProfile
	industrial.ID = "industrial"
	industrial.Label = "Industrial Wasteland Patrol"
	industrial.HalfLifeSeconds = 96 * hours
	industrial.SuppressionPenalty = 0.55

	return map[string]HeatProfile{
		downtown.ID:   downtown,
		industrial.ID: industrial,
	}
}

// ProfileResolver resolves the heat profile of a zone. Implementations never
// fail: unknown zones get the default profile.
type ProfileResolver interface {
	ProfileForZone(zoneID string) HeatProfile
}

// StaticProfiles resolves from a fixed map.
type StaticProfiles map[string]HeatProfile

func (sp StaticProfiles) ProfileForZone(zoneID string) HeatProfile {
	if p, ok := sp[zoneID]; ok && zoneID != "" {
		return p
	}
	return DefaultHeatProfile
}
