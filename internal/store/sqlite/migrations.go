package sqlite

import "fmt"

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "episodes: append-only episodic log",
		SQL: `
CREATE TABLE episodes (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    kind         TEXT NOT NULL CHECK (kind IN ('action', 'observation', 'perception', 'system')),
    text         TEXT,
    skill_name   TEXT NOT NULL DEFAULT '',
    outcome      TEXT NOT NULL DEFAULT '',
    verified     INTEGER NOT NULL DEFAULT 0,
    tags         TEXT NOT NULL DEFAULT '[]',
    salience     REAL NOT NULL DEFAULT 1.0,
    content_hash TEXT NOT NULL,
    pruned       INTEGER NOT NULL DEFAULT 0,
    pruned_at    INTEGER,
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL
);

CREATE INDEX idx_episodes_pruned ON episodes(pruned);
`,
	},
	{
		Version:     2,
		Description: "beliefs: semantic claims with dispute lifecycle",
		SQL: `
CREATE TABLE beliefs (
    id                 TEXT PRIMARY KEY,
    statement          TEXT NOT NULL,
    subject            TEXT NOT NULL,
    polarity           TEXT NOT NULL,
    confidence         REAL NOT NULL,
    status             TEXT NOT NULL CHECK (status IN ('proposed', 'confirmed', 'disputed', 'retracted', 'archived')),
    evidence_ids       TEXT NOT NULL DEFAULT '[]',
    conflicts_with_ids TEXT NOT NULL DEFAULT '[]',
    embedding          TEXT,
    created_at         INTEGER NOT NULL,
    updated_at         INTEGER NOT NULL
);

CREATE INDEX idx_beliefs_subject ON beliefs(subject);
CREATE INDEX idx_beliefs_status  ON beliefs(status);
`,
	},
	{
		Version:     3,
		Description: "skills: procedural memory with outcome tracking",
		SQL: `
CREATE TABLE skills (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL UNIQUE,
    preconditions TEXT NOT NULL DEFAULT '',
    steps         TEXT NOT NULL DEFAULT '[]',
    failure_modes TEXT NOT NULL DEFAULT '[]',
    success_rate  REAL NOT NULL DEFAULT 0,
    use_count     INTEGER NOT NULL DEFAULT 0,
    evidence_ids  TEXT NOT NULL DEFAULT '[]',
    last_used     INTEGER,
    created_at    INTEGER NOT NULL,
    updated_at    INTEGER NOT NULL
);
`,
	},
	{
		Version:     4,
		Description: "goals: control-loop owned goal state",
		SQL: `
CREATE TABLE goals (
    id          TEXT PRIMARY KEY,
    description TEXT NOT NULL,
    status      TEXT NOT NULL CHECK (status IN ('active', 'blocked', 'completed', 'abandoned')),
    priority    INTEGER NOT NULL DEFAULT 5,
    progress    REAL NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);
`,
	},
	{
		Version:     5,
		Description: "self_model: capability reliability entries",
		SQL: `
CREATE TABLE self_model (
    capability        TEXT PRIMARY KEY,
    reliability_score REAL NOT NULL DEFAULT 0,
    limitations       TEXT NOT NULL DEFAULT '[]',
    created_at        INTEGER NOT NULL,
    updated_at        INTEGER NOT NULL
);
`,
	},
	{
		Version:     6,
		Description: "hypotheses: uncertainty ledger",
		SQL: `
CREATE TABLE hypotheses (
    id                 TEXT PRIMARY KEY,
    claim              TEXT NOT NULL,
    verification_plan  TEXT NOT NULL DEFAULT '',
    confidence         REAL NOT NULL DEFAULT 0.5,
    status             TEXT NOT NULL CHECK (status IN ('open', 'verified', 'rejected')),
    evidence_ids       TEXT NOT NULL DEFAULT '[]',
    promoted_belief_id TEXT,
    created_at         INTEGER NOT NULL,
    updated_at         INTEGER NOT NULL
);
`,
	},
	{
		Version:     7,
		Description: "watermark: single-row consolidation cursor",
		SQL: `
CREATE TABLE consolidation_watermark (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    episode_id INTEGER NOT NULL DEFAULT 0,
    updated_at INTEGER NOT NULL DEFAULT 0
);

INSERT INTO consolidation_watermark (id, episode_id, updated_at) VALUES (1, 0, 0);
`,
	},
}

func (db *DB) migrate() error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_versions (
    version     INTEGER PRIMARY KEY,
    description TEXT NOT NULL,
    applied_at  INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	current, err := db.SchemaVersion()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO schema_versions (version, description, applied_at) VALUES (?, ?, strftime('%s','now'))`,
			m.Version, m.Description,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// SchemaVersion returns the highest applied migration version.
func (db *DB) SchemaVersion() (int, error) {
	var v int
	err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_versions`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("schema version: %w", err)
	}
	return v, nil
}
