package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/qom/pkg/qom"
	"github.com/mesh-intelligence/qom/pkg/visitor"
)

// timeFormat is fixed width so created_at sorts chronologically as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Snapshot describes one saved state of a runtime.
type Snapshot struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	ObjectCount int       `json:"object_count"`
}

// ObjectRecord is an object as it was when a snapshot was taken.
type ObjectRecord struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	RefCount int    `json:"ref_count"`
	ParentID string `json:"parent_id,omitempty"`
}

// PropertyRecord is a readable property value rendered as text.
type PropertyRecord struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// SaveSnapshot records rt's types, every object in its composition tree
// and their readable properties in a single transaction.
func (s *Store) SaveSnapshot(rt *qom.Runtime) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return "", ErrDetached
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := generateUUID()
	if _, err := tx.Exec(`INSERT INTO snapshots (snapshot_id, created_at, object_count) VALUES (?, ?, 0)`,
		id, time.Now().UTC().Format(timeFormat)); err != nil {
		return "", fmt.Errorf("inserting snapshot: %w", err)
	}

	for _, typ := range rt.Types() {
		var parent sql.NullString
		if p := typ.Parent(); p != nil {
			parent = sql.NullString{String: p.Name(), Valid: true}
		}
		if _, err := tx.Exec(
			`INSERT INTO types (snapshot_id, name, parent, abstract, interfaces) VALUES (?, ?, ?, ?, ?)`,
			id, typ.Name(), parent, typ.IsAbstract(), strings.Join(typ.Interfaces(), ","),
		); err != nil {
			return "", fmt.Errorf("inserting type %s: %w", typ.Name(), err)
		}
	}

	count := 0
	if err := walk(rt.Root(), func(obj *qom.Object) error {
		count++
		return saveObject(tx, id, obj)
	}); err != nil {
		return "", err
	}

	if _, err := tx.Exec(`UPDATE snapshots SET object_count = ? WHERE snapshot_id = ?`, count, id); err != nil {
		return "", fmt.Errorf("updating snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing snapshot: %w", err)
	}
	return id, nil
}

// walk visits obj and its descendants depth first, parents before
// children.
func walk(obj *qom.Object, fn func(*qom.Object) error) error {
	if err := fn(obj); err != nil {
		return err
	}
	return obj.ForeachChild(func(_ string, child *qom.Object) error {
		return walk(child, fn)
	})
}

func saveObject(tx *sql.Tx, snapshotID string, obj *qom.Object) error {
	var parentID sql.NullString
	if p := obj.Parent(); p != nil {
		parentID = sql.NullString{String: p.ID(), Valid: true}
	}
	path := obj.CanonicalPath()
	if _, err := tx.Exec(
		`INSERT INTO objects (snapshot_id, object_id, path, type_name, ref_count, parent_id) VALUES (?, ?, ?, ?, ?, ?)`,
		snapshotID, obj.ID(), path, obj.TypeName(), obj.RefCount(), parentID,
	); err != nil {
		return fmt.Errorf("inserting object %s: %w", path, err)
	}

	for i, info := range obj.Properties() {
		if !info.Readable {
			continue
		}
		value, err := renderProperty(obj, info.Name)
		if err != nil {
			return fmt.Errorf("reading %s.%s: %w", path, info.Name, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO object_properties (snapshot_id, object_id, ordinal, name, value_type, value) VALUES (?, ?, ?, ?, ?, ?)`,
			snapshotID, obj.ID(), i, info.Name, info.Type, value,
		); err != nil {
			return fmt.Errorf("inserting property %s.%s: %w", path, info.Name, err)
		}
	}
	return nil
}

func renderProperty(obj *qom.Object, name string) (string, error) {
	out := visitor.NewOutput()
	if err := obj.GetProperty(out, name); err != nil {
		return "", err
	}
	return cast.ToStringE(out.Value())
}

// Snapshots lists saved snapshots, oldest first.
func (s *Store) Snapshots() ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return nil, ErrDetached
	}

	rows, err := s.db.Query(`SELECT snapshot_id, created_at, object_count FROM snapshots ORDER BY created_at, snapshot_id`)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var (
			snap    Snapshot
			created string
		)
		if err := rows.Scan(&snap.ID, &created, &snap.ObjectCount); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snap.CreatedAt, err = time.Parse(timeFormat, created)
		if err != nil {
			return nil, fmt.Errorf("parsing snapshot time %q: %w", created, err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// Objects returns the objects recorded in a snapshot ordered by path.
func (s *Store) Objects(snapshotID string) ([]ObjectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkSnapshot(snapshotID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT object_id, path, type_name, ref_count, parent_id FROM objects WHERE snapshot_id = ? ORDER BY path`,
		snapshotID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying objects: %w", err)
	}
	defer rows.Close()

	var objects []ObjectRecord
	for rows.Next() {
		var (
			rec      ObjectRecord
			parentID sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Path, &rec.Type, &rec.RefCount, &parentID); err != nil {
			return nil, fmt.Errorf("scanning object: %w", err)
		}
		rec.ParentID = parentID.String
		objects = append(objects, rec)
	}
	return objects, rows.Err()
}

// Properties returns the properties recorded for one object of a snapshot
// in the object's property order.
func (s *Store) Properties(snapshotID, objectID string) ([]PropertyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkSnapshot(snapshotID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT name, value_type, value FROM object_properties WHERE snapshot_id = ? AND object_id = ? ORDER BY ordinal`,
		snapshotID, objectID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying properties: %w", err)
	}
	defer rows.Close()

	var props []PropertyRecord
	for rows.Next() {
		var rec PropertyRecord
		if err := rows.Scan(&rec.Name, &rec.Type, &rec.Value); err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		props = append(props, rec)
	}
	return props, rows.Err()
}

// checkSnapshot verifies the store is attached and snapshotID exists. The
// caller must hold s.mu.
func (s *Store) checkSnapshot(snapshotID string) error {
	if !s.attached {
		return ErrDetached
	}
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM snapshots WHERE snapshot_id = ?`, snapshotID).Scan(&n)
	if err != nil {
		return fmt.Errorf("looking up snapshot: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, snapshotID)
	}
	return nil
}
