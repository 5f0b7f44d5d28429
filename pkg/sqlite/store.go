// Package sqlite exposes the SQLite snapshot store so programs embedding
// the object runtime can record snapshots without going through qomctl.
//
// Example:
//
//	store := sqlite.NewStore()
//	if err := store.Attach(dataDir); err != nil {
//	    return err
//	}
//	defer store.Detach()
//	id, err := store.SaveSnapshot(rt)
package sqlite

import (
	"github.com/mesh-intelligence/qom/internal/sqlite"
)

type (
	Store          = sqlite.Store
	Snapshot       = sqlite.Snapshot
	ObjectRecord   = sqlite.ObjectRecord
	PropertyRecord = sqlite.PropertyRecord
)

// Store errors.
var (
	ErrDetached           = sqlite.ErrDetached
	ErrAlreadyAttached    = sqlite.ErrAlreadyAttached
	ErrSnapshotNotFound   = sqlite.ErrSnapshotNotFound
	ErrSchemaIncompatible = sqlite.ErrSchemaIncompatible
)

// SchemaVersion is the database layout version the store writes.
const SchemaVersion = sqlite.SchemaVersion

// NewStore creates a detached snapshot store. Call Attach with a data
// directory before use.
func NewStore() *Store {
	return sqlite.NewStore()
}
