// Package sqlite stores snapshots of a runtime's type registry and
// composition tree in a SQLite database.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/qom/internal/paths"
)

// Store errors.
var (
	ErrDetached           = errors.New("snapshot store is detached")
	ErrAlreadyAttached    = errors.New("snapshot store is already attached")
	ErrSnapshotNotFound   = errors.New("snapshot not found")
	ErrSchemaIncompatible = errors.New("snapshot database schema is incompatible")
)

const metaSchemaVersion = "schema_version"

// Store is a snapshot database. The zero value is detached; call Attach.
type Store struct {
	mu       sync.RWMutex
	attached bool
	db       *sql.DB
	path     string
}

// NewStore creates a detached store.
func NewStore() *Store {
	return &Store{}
}

// Attach opens or creates the snapshot database in dataDir. The directory
// is created if needed. An existing database must carry a schema version
// with the same major version as SchemaVersion.
func (s *Store) Attach(dataDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return ErrAlreadyAttached
	}
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := paths.SnapshotDB(dataDir)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return err
	}
	if err := checkSchemaVersion(db); err != nil {
		db.Close()
		return err
	}

	s.db = db
	s.path = dbPath
	s.attached = true
	return nil
}

// Detach closes the database. Detach is idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	s.attached = false
	return nil
}

// Path returns the database file of an attached store.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return fmt.Errorf("enabling foreign keys: %w", err)
	}
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}

// checkSchemaVersion records SchemaVersion in a new database, or verifies
// that an existing database is compatible with it.
func checkSchemaVersion(db *sql.DB) error {
	var stored string
	err := db.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaSchemaVersion).Scan(&stored)
	if err == sql.ErrNoRows {
		_, err = db.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, metaSchemaVersion, SchemaVersion)
		if err != nil {
			return fmt.Errorf("recording schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	ok, err := compatible(stored)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaIncompatible, err)
	}
	if !ok {
		return fmt.Errorf("%w: database is %s, store is %s", ErrSchemaIncompatible, stored, SchemaVersion)
	}
	return nil
}

// compatible reports whether a database at version stored can be read and
// written by this package.
func compatible(stored string) (bool, error) {
	v, err := semver.NewVersion(stored)
	if err != nil {
		return false, err
	}
	current := semver.MustParse(SchemaVersion)
	c, err := semver.NewConstraint(fmt.Sprintf("^%d.0.0", current.Major()))
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}

// generateUUID generates a new UUID v7 for snapshot IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
