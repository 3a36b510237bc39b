package suspicion

import "sort"

// SnapshotVersion is the version stamped on every Snapshot.
const SnapshotVersion = 1

// ZoneState is the memory set and derived heat of one zone.
type ZoneState struct {
	ZoneID            string
	Memories          map[string]WitnessMemory
	Heat              ZoneHeatComputation
	LastUpdatedAt     float64
	LastObservationAt *float64
}

// ZoneSnapshot is the persisted form of a ZoneState.
type ZoneSnapshot struct {
	ZoneID            string                  `json:"zone_id"`
	Memories          []WitnessMemorySnapshot `json:"memories"`
	Heat              ZoneHeatComputation     `json:"heat"`
	LastUpdatedAt     float64                 `json:"last_updated_at"`
	LastObservationAt *float64                `json:"last_observation_at,omitempty"`
}

// Snapshot is the full persisted memory store.
type Snapshot struct {
	Version    int            `json:"version"`
	Paused     bool           `json:"paused"`
	LastTickAt *float64       `json:"last_tick_at,omitempty"`
	Zones      []ZoneSnapshot `json:"zones"`
}

// Store holds witness memories per zone. It is not safe for concurrent use;
// the owner serializes access.
type Store struct {
	profiles   ProfileResolver
	zones      map[string]*ZoneState
	paused     bool
	lastTickAt *float64
}

// NewStore creates an empty store. A nil resolver uses the built-in profiles.
func NewStore(profiles ProfileResolver) *Store {
	if profiles == nil {
		profiles = StaticProfiles(BuiltinProfiles())
	}
	return &Store{
		profiles: profiles,
		zones:    make(map[string]*ZoneState),
	}
}

// Profile resolves the heat profile of a zone.
func (s *Store) Profile(zoneID string) HeatProfile {
	return s.profiles.ProfileForZone(zoneID)
}

func emptyHeat(zoneID string) ZoneHeatComputation {
	return ZoneHeatComputation{ZoneID: zoneID, Tier: TierCalm, LeadingWitnessIDs: []string{}}
}

func (s *Store) zone(zoneID string, ts float64) *ZoneState {
	z, ok := s.zones[zoneID]
	if !ok {
		z = &ZoneState{
			ZoneID:        zoneID,
			Memories:      make(map[string]WitnessMemory),
			Heat:          emptyHeat(zoneID),
			LastUpdatedAt: ts,
		}
		s.zones[zoneID] = z
	}
	return z
}

func (s *Store) recalc(z *ZoneState) {
	memories := make([]WitnessMemory, 0, len(z.Memories))
	for _, m := range z.Memories {
		memories = append(memories, m)
	}
	z.Heat = CalculateZoneHeat(z.ZoneID, memories, s.Profile(z.ZoneID))
}

// Ingest creates or reinforces the memory for an observation and recomputes
// the zone's heat. It returns false while the store is paused.
func (s *Store) Ingest(obs WitnessObservation) (WitnessMemory, bool) {
	if s.paused {
		return WitnessMemory{}, false
	}
	if obs.WitnessLabel == "" {
		obs.WitnessLabel = obs.WitnessID
	}
	ts := obs.Timestamp
	z := s.zone(obs.ZoneID, ts)
	profile := s.Profile(obs.ZoneID)

	id := BuildMemoryID(obs.WitnessID, obs.TargetID, obs.RecognitionChannel)
	var next WitnessMemory
	if existing, ok := z.Memories[id]; ok {
		obs.Existing = &existing
		next = ReinforceMemory(existing, obs, profile)
	} else {
		obs.Existing = nil
		next = CreateMemory(obs, profile)
	}
	z.Memories[id] = next
	s.recalc(z)
	z.LastObservationAt = &ts
	z.LastUpdatedAt = ts
	s.lastTickAt = &ts
	return next, true
}

// Decay applies elapsedSeconds of decay to every zone, pruning memories that
// fall under their zone's floor. It returns the ids of zones whose memories
// changed.
func (s *Store) Decay(elapsedSeconds, timestamp float64) []string {
	if s.paused || !(elapsedSeconds > 0) {
		return nil
	}
	var changed []string
	for _, zoneID := range s.zoneIDs() {
		z := s.zones[zoneID]
		profile := s.Profile(zoneID)
		mutated := false
		for id, m := range z.Memories {
			res := DecayMemory(m, elapsedSeconds, profile)
			if res.Pruned {
				delete(z.Memories, id)
				mutated = true
				continue
			}
			if res.Memory.Certainty != m.Certainty {
				mutated = true
			}
			z.Memories[id] = res.Memory
		}
		if mutated {
			s.recalc(z)
			z.LastUpdatedAt = timestamp
			changed = append(changed, zoneID)
		}
	}
	ts := timestamp
	s.lastTickAt = &ts
	return changed
}

// Suppress sets the suppressed flag on a memory. An empty zoneID searches
// every zone. It reports whether the flag changed.
func (s *Store) Suppress(zoneID, memoryID string, suppressed bool) bool {
	for _, id := range s.zoneIDs() {
		if zoneID != "" && id != zoneID {
			continue
		}
		z := s.zones[id]
		m, ok := z.Memories[memoryID]
		if !ok {
			continue
		}
		if m.Suppressed == suppressed {
			return false
		}
		m.Suppressed = suppressed
		z.Memories[memoryID] = m
		s.recalc(z)
		return true
	}
	return false
}

// PurgeWitness removes every memory held by a witness, in one zone or in all
// zones when zoneID is empty. It returns the number of memories removed.
func (s *Store) PurgeWitness(witnessID, zoneID string) int {
	removed := 0
	for _, id := range s.zoneIDs() {
		if zoneID != "" && id != zoneID {
			continue
		}
		z := s.zones[id]
		before := len(z.Memories)
		for memID, m := range z.Memories {
			if m.WitnessID == witnessID {
				delete(z.Memories, memID)
			}
		}
		if n := before - len(z.Memories); n > 0 {
			removed += n
			s.recalc(z)
		}
	}
	return removed
}

// SetPaused stops ingest and decay while set.
func (s *Store) SetPaused(paused bool) { s.paused = paused }

// Paused reports whether the store is paused.
func (s *Store) Paused() bool { return s.paused }

// Reset drops all zones.
func (s *Store) Reset() {
	s.zones = make(map[string]*ZoneState)
	s.paused = false
	s.lastTickAt = nil
}

// Heat returns the current heat of a zone; unknown zones are calm.
func (s *Store) Heat(zoneID string) ZoneHeatComputation {
	if z, ok := s.zones[zoneID]; ok {
		return z.Heat
	}
	return emptyHeat(zoneID)
}

// Memories returns a zone's memories sorted by id.
func (s *Store) Memories(zoneID string) []WitnessMemory {
	z, ok := s.zones[zoneID]
	if !ok {
		return nil
	}
	out := make([]WitnessMemory, 0, len(z.Memories))
	for _, m := range z.Memories {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// HighestTier returns the highest tier across all zones.
func (s *Store) HighestTier() HeatTier {
	highest := TierCalm
	for _, z := range s.zones {
		if z.Heat.Tier.Rank() > highest.Rank() {
			highest = z.Heat.Tier
		}
	}
	return highest
}

// ZoneIDs returns the known zone ids, sorted.
func (s *Store) ZoneIDs() []string { return s.zoneIDs() }

func (s *Store) zoneIDs() []string {
	ids := make([]string, 0, len(s.zones))
	for id := range s.zones {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns a deterministic, flat copy of the store.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{Version: SnapshotVersion, Paused: s.paused, Zones: []ZoneSnapshot{}}
	if s.lastTickAt != nil {
		v := *s.lastTickAt
		snap.LastTickAt = &v
	}
	for _, id := range s.zoneIDs() {
		z := s.zones[id]
		zs := ZoneSnapshot{
			ZoneID:        z.ZoneID,
			Memories:      []WitnessMemorySnapshot{},
			Heat:          z.Heat,
			LastUpdatedAt: z.LastUpdatedAt,
		}
		zs.Heat.LeadingWitnessIDs = append([]string{}, z.Heat.LeadingWitnessIDs...)
		if z.LastObservationAt != nil {
			v := *z.LastObservationAt
			zs.LastObservationAt = &v
		}
		for _, m := range s.Memories(id) {
			zs.Memories = append(zs.Memories, ToSnapshot(m))
		}
		snap.Zones = append(snap.Zones, zs)
	}
	return snap
}

// Restore replaces the store contents with a snapshot. Persisted heat is
// reused when present, otherwise it is recomputed.
func (s *Store) Restore(snap Snapshot) {
	s.Reset()
	s.paused = snap.Paused
	if snap.LastTickAt != nil {
		v := *snap.LastTickAt
		s.lastTickAt = &v
	}
	for _, zs := range snap.Zones {
		z := s.zone(zs.ZoneID, zs.LastUpdatedAt)
		for _, ms := range zs.Memories {
			m := FromSnapshot(ms)
			z.Memories[m.ID] = m
		}
		if zs.LastObservationAt != nil {
			v := *zs.LastObservationAt
			z.LastObservationAt = &v
		}
		if zs.Heat.ZoneID == zs.ZoneID && zs.Heat.Tier != "" {
			z.Heat = zs.Heat
			if z.Heat.LeadingWitnessIDs == nil {
				z.Heat.LeadingWitnessIDs = []string{}
			}
		} else {
			s.recalc(z)
		}
	}
}
