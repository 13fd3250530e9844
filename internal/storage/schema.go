package storage

import (
	"database/sql"
	"fmt"
)

// CurrentSchemaVersion is the schema version stamped into a library's
// schema_version table when that table is empty. Each library's database
// carries its own copy. initSchema runs no version-dependent migration
// steps: every open re-runs the same idempotent CREATE ... IF NOT EXISTS
// statements, and an existing stamp is never compared or updated.
const CurrentSchemaVersion = 1

const schemaMemory = `
CREATE TABLE IF NOT EXISTS memory (
	seq              INTEGER PRIMARY KEY AUTOINCREMENT,
	id               TEXT NOT NULL UNIQUE,
	content          TEXT NOT NULL,
	content_hash     INTEGER NOT NULL,
	memory_type      TEXT NOT NULL,
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL,
	last_accessed_at TEXT,
	importance       REAL NOT NULL,
	embedding        BLOB NOT NULL,
	tags             TEXT NOT NULL DEFAULT '[]',
	keywords         TEXT NOT NULL DEFAULT '[]',
	custom           TEXT NOT NULL DEFAULT '{}'
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_memory_content_hash ON memory(content_hash);
CREATE INDEX IF NOT EXISTS idx_memory_type ON memory(memory_type);
CREATE INDEX IF NOT EXISTS idx_memory_created_at ON memory(created_at);
`

const schemaRelationship = `
CREATE TABLE IF NOT EXISTS relationship (
	id         TEXT PRIMARY KEY,
	source_id  TEXT NOT NULL,
	target_id  TEXT NOT NULL,
	kind       TEXT NOT NULL,
	strength   REAL NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_relationship_source ON relationship(source_id);
CREATE INDEX IF NOT EXISTS idx_relationship_target ON relationship(target_id);
`

const schemaQuantumSignature = `
CREATE TABLE IF NOT EXISTS quantum_signature (
	memory_id        TEXT NOT NULL UNIQUE,
	fingerprint      BLOB,
	entropy          REAL NOT NULL DEFAULT 0,
	decoherence_rate REAL NOT NULL DEFAULT 0
);
`

const schemaFTS = `
CREATE VIRTUAL TABLE IF NOT EXISTS memory_fts USING fts5(
	content,
	content='memory',
	content_rowid='seq',
	tokenize='unicode61'
);
CREATE TRIGGER IF NOT EXISTS memory_fts_ai AFTER INSERT ON memory BEGIN
	INSERT INTO memory_fts(rowid, content) VALUES (new.seq, new.content);
END;
CREATE TRIGGER IF NOT EXISTS memory_fts_ad AFTER DELETE ON memory BEGIN
	INSERT INTO memory_fts(memory_fts, rowid, content) VALUES('delete', old.seq, old.content);
END;
CREATE TRIGGER IF NOT EXISTS memory_fts_au AFTER UPDATE ON memory BEGIN
	INSERT INTO memory_fts(memory_fts, rowid, content) VALUES('delete', old.seq, old.content);
	INSERT INTO memory_fts(rowid, content) VALUES (new.seq, new.content);
END;
`

const schemaVersion = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);
`

func initSchema(db *sql.DB) error {
	stmts := []string{
		schemaMemory,
		schemaRelationship,
		schemaQuantumSignature,
		schemaVersion,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	if _, err := db.Exec(schemaFTS); err != nil {
		return fmt.Errorf("init fts schema: %w", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&count); err != nil {
		return fmt.Errorf("reading schema_version: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(`INSERT INTO schema_version(version) VALUES (?)`, CurrentSchemaVersion); err != nil {
			return fmt.Errorf("stamping schema_version: %w", err)
		}
	}

	return nil
}

func initVecTable(db *sql.DB, dim int) bool {
	stmt := fmt.Sprintf("CREATE VIRTUAL TABLE IF NOT EXISTS vec_memory USING vec0(embedding float[%d])", dim)
	_, err := db.Exec(stmt)
	return err == nil
}
