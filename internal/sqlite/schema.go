package sqlite

// SchemaVersion is the snapshot database layout written by this package.
// Databases whose major version differs are rejected on Attach.
const SchemaVersion = "1.0.0"

// Schema DDL for all tables.
const (
	createMeta = `CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

	createSnapshots = `CREATE TABLE IF NOT EXISTS snapshots (
    snapshot_id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    object_count INTEGER NOT NULL
);`

	createTypes = `CREATE TABLE IF NOT EXISTS types (
    snapshot_id TEXT NOT NULL,
    name TEXT NOT NULL,
    parent TEXT,
    abstract INTEGER NOT NULL,
    interfaces TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, name),
    FOREIGN KEY (snapshot_id) REFERENCES snapshots(snapshot_id) ON DELETE CASCADE
);`

	createObjects = `CREATE TABLE IF NOT EXISTS objects (
    snapshot_id TEXT NOT NULL,
    object_id TEXT NOT NULL,
    path TEXT NOT NULL,
    type_name TEXT NOT NULL,
    ref_count INTEGER NOT NULL,
    parent_id TEXT,
    PRIMARY KEY (snapshot_id, object_id),
    FOREIGN KEY (snapshot_id) REFERENCES snapshots(snapshot_id) ON DELETE CASCADE
);`

	createObjectProperties = `CREATE TABLE IF NOT EXISTS object_properties (
    snapshot_id TEXT NOT NULL,
    object_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    name TEXT NOT NULL,
    value_type TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, object_id, name),
    FOREIGN KEY (snapshot_id, object_id) REFERENCES objects(snapshot_id, object_id) ON DELETE CASCADE
);`
)

// Index DDL for common queries.
const (
	idxObjectsPath      = `CREATE INDEX IF NOT EXISTS idx_objects_path ON objects(snapshot_id, path);`
	idxObjectsType      = `CREATE INDEX IF NOT EXISTS idx_objects_type ON objects(snapshot_id, type_name);`
	idxSnapshotsCreated = `CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createMeta,
	createSnapshots,
	createTypes,
	createObjects,
	createObjectProperties,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxObjectsPath,
	idxObjectsType,
	idxSnapshotsCreated,
}
