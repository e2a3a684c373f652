package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection to the embedded memory database.
type DB struct {
	*sql.DB
	Path string
}

// Open opens (or creates) the SQLite database at path, configures pragmas,
// and runs migrations. ":memory:" opens an ephemeral database.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and sidesteps
	// writer contention; WAL readers are unaffected.
	sqlDB.SetMaxOpenConns(1)

	db := &DB{DB: sqlDB, Path: path}
	if err := db.configurePragmas(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if err := db.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// OpenMemory opens an in-memory database for testing.
func OpenMemory() (*DB, error) {
	return Open(":memory:")
}

func (db *DB) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

// NewStore assembles the domain store bundle over one database.
func NewStore(db *DB) *domain.Store {
	return &domain.Store{
		Episodes:      &EpisodeStore{db: db},
		Beliefs:       &BeliefStore{db: db},
		Skills:        &SkillStore{db: db},
		Goals:         &GoalStore{db: db},
		SelfModel:     &SelfModelStore{db: db},
		Hypotheses:    &HypothesisStore{db: db},
		Consolidation: &ConsolidationStore{db: db},
	}
}

// storageErr wraps driver failures in the shared taxonomy so callers can
// treat the medium being unreachable uniformly across backends.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStorageUnavailable, err)
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}

func nanos(t time.Time) int64 {
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
