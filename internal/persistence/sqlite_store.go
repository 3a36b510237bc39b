package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"surveillance-core/internal/suspicion"
)

const schema = `
CREATE TABLE IF NOT EXISTS store_meta (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	version       INTEGER NOT NULL,
	paused        INTEGER NOT NULL,
	last_tick_at  REAL,
	saved_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS zone_heat (
	zone_id             TEXT PRIMARY KEY,
	total_heat          REAL NOT NULL,
	tier                TEXT NOT NULL,
	leading_ids         TEXT NOT NULL,
	last_updated_at     REAL NOT NULL,
	last_observation_at REAL
);

CREATE TABLE IF NOT EXISTS witness_memories (
	zone_id             TEXT NOT NULL,
	id                  TEXT NOT NULL,
	witness_id          TEXT NOT NULL,
	witness_label       TEXT NOT NULL,
	target_id           TEXT NOT NULL,
	area_id             TEXT NOT NULL,
	source              TEXT NOT NULL,
	recognition_channel TEXT NOT NULL,
	certainty           REAL NOT NULL,
	half_life_seconds   REAL NOT NULL,
	first_seen_at       REAL NOT NULL,
	last_seen_at        REAL NOT NULL,
	reinforced_at       REAL,
	reported            INTEGER NOT NULL,
	suppressed          INTEGER NOT NULL,
	proximity_weight    REAL NOT NULL,
	location_x          REAL,
	location_y          REAL,
	PRIMARY KEY (zone_id, id),
	FOREIGN KEY (zone_id) REFERENCES zone_heat(zone_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_witness_memories_witness ON witness_memories(witness_id);
`

// SQLiteStore keeps one row per memory and one per zone.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens a SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Save replaces the stored snapshot in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap suspicion.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM witness_memories", "DELETE FROM zone_heat", "DELETE FROM store_meta"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO store_meta (id, version, paused, last_tick_at, saved_at) VALUES (1, ?, ?, ?, ?)`,
		snap.Version, boolInt(snap.Paused), nullFloat(snap.LastTickAt), time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}

	for _, z := range snap.Zones {
		leading, err := json.Marshal(z.Heat.LeadingWitnessIDs)
		if err != nil {
			return fmt.Errorf("marshal leading ids: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO zone_heat (zone_id, total_heat, tier, leading_ids, last_updated_at, last_observation_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			z.ZoneID, z.Heat.TotalHeat, string(z.Heat.Tier), string(leading), z.LastUpdatedAt, nullFloat(z.LastObservationAt),
		); err != nil {
			return fmt.Errorf("insert zone %s: %w", z.ZoneID, err)
		}
		for _, m := range z.Memories {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO witness_memories (zone_id, id, witness_id, witness_label, target_id, area_id, source,
				 recognition_channel, certainty, half_life_seconds, first_seen_at, last_seen_at, reinforced_at,
				 reported, suppressed, proximity_weight, location_x, location_y)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				z.ZoneID, m.ID, m.WitnessID, m.WitnessLabel, m.TargetID, m.AreaID, string(m.Source),
				string(m.RecognitionChannel), m.Certainty, m.HalfLifeSeconds, m.FirstSeenAt, m.LastSeenAt,
				nullFloat(m.ReinforcedAt), boolInt(m.Reported), boolInt(m.Suppressed), m.ProximityWeight,
				nullFloat(m.LocationX), nullFloat(m.LocationY),
			); err != nil {
				return fmt.Errorf("insert memory %s: %w", m.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads the stored snapshot; zones and memories come back sorted by id.
func (s *SQLiteStore) Load(ctx context.Context) (suspicion.Snapshot, error) {
	var (
		snap     suspicion.Snapshot
		paused   int
		lastTick sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `SELECT version, paused, last_tick_at FROM store_meta WHERE id = 1`).
		Scan(&snap.Version, &paused, &lastTick)
	if err == sql.ErrNoRows {
		return suspicion.Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return suspicion.Snapshot{}, fmt.Errorf("query meta: %w", err)
	}
	snap.Paused = paused != 0
	snap.LastTickAt = floatPtr(lastTick)
	snap.Zones = []suspicion.ZoneSnapshot{}

	zones, err := s.loadZones(ctx)
	if err != nil {
		return suspicion.Snapshot{}, err
	}
	index := make(map[string]int, len(zones))
	for i, z := range zones {
		index[z.ZoneID] = i
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT zone_id, id, witness_id, witness_label, target_id, area_id, source, recognition_channel,
		 certainty, half_life_seconds, first_seen_at, last_seen_at, reinforced_at, reported, suppressed,
		 proximity_weight, location_x, location_y
		 FROM witness_memories ORDER BY zone_id, id`)
	if err != nil {
		return suspicion.Snapshot{}, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			zoneID                 string
			m                      suspicion.WitnessMemorySnapshot
			source, channel        string
			reinforced, locX, locY sql.NullFloat64
			reported, suppressed   int
		)
		if err := rows.Scan(&zoneID, &m.ID, &m.WitnessID, &m.WitnessLabel, &m.TargetID, &m.AreaID, &source, &channel,
			&m.Certainty, &m.HalfLifeSeconds, &m.FirstSeenAt, &m.LastSeenAt, &reinforced, &reported, &suppressed,
			&m.ProximityWeight, &locX, &locY); err != nil {
			return suspicion.Snapshot{}, fmt.Errorf("scan memory: %w", err)
		}
		m.ZoneID = zoneID
		m.Source = suspicion.Source(source)
		m.RecognitionChannel = suspicion.RecognitionChannel(channel)
		m.ReinforcedAt = floatPtr(reinforced)
		m.Reported = reported != 0
		m.Suppressed = suppressed != 0
		m.LocationX = floatPtr(locX)
		m.LocationY = floatPtr(locY)

		i, ok := index[zoneID]
		if !ok {
			continue
		}
		zones[i].Memories = append(zones[i].Memories, m)
	}
	if err := rows.Err(); err != nil {
		return suspicion.Snapshot{}, fmt.Errorf("iterate memories: %w", err)
	}

	snap.Zones = zones
	return snap, nil
}

func (s *SQLiteStore) loadZones(ctx context.Context) ([]suspicion.ZoneSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT zone_id, total_heat, tier, leading_ids, last_updated_at, last_observation_at
		 FROM zone_heat ORDER BY zone_id`)
	if err != nil {
		return nil, fmt.Errorf("query zones: %w", err)
	}
	defer rows.Close()

	zones := []suspicion.ZoneSnapshot{}
	for rows.Next() {
		var (
			z       suspicion.ZoneSnapshot
			tier    string
			leading string
			lastObs sql.NullFloat64
		)
		if err := rows.Scan(&z.ZoneID, &z.Heat.TotalHeat, &tier, &leading, &z.LastUpdatedAt, &lastObs); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		z.Heat.ZoneID = z.ZoneID
		z.Heat.Tier = suspicion.HeatTier(tier)
		if err := json.Unmarshal([]byte(leading), &z.Heat.LeadingWitnessIDs); err != nil {
			return nil, fmt.Errorf("decode leading ids for %s: %w", z.ZoneID, err)
		}
		if z.Heat.LeadingWitnessIDs == nil {
			z.Heat.LeadingWitnessIDs = []string{}
		}
		z.LastObservationAt = floatPtr(lastObs)
		z.Memories = []suspicion.WitnessMemorySnapshot{}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate zones: %w", err)
	}
	return zones, nil
}
