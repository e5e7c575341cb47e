// Package snapshot implements an IR cache: compiled graphs (serialized via
// the debug package's dump format, keyed by entity mangled name and a
// content hash) are persisted to a SQL-backed store so a batch compile can
// skip re-running the optimizer/lowering/backend pipeline on unchanged
// procedures. Drivers for sqlite, MySQL, PostgreSQL, and SQL Server are
// registered, but the schema (BLOB columns) and queries (? placeholders,
// ON CONFLICT upsert) are written in SQLite's dialect and are not adapted
// per driver.
package snapshot

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"

	"github.com/golang-sql/civil"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Driver names the database/sql driver to open; the store issues the same
// SQL whichever driver is chosen.
type Driver string

const (
	DriverSQLite     Driver = "sqlite3"
	DriverPureSQLite Driver = "sqlite" // modernc.org/sqlite, cgo-free alternative
	DriverMySQL      Driver = "mysql"
	DriverPostgres   Driver = "postgres"
	DriverMSSQL      Driver = "sqlserver"
)

// Record is one cached compilation result.
type Record struct {
	Key         string // mangled entity name
	ContentHash [32]byte
	Dump        []byte // debug.DumpGraph output, or a future binary encoding
	CompiledOn  civil.Date
	Signature   []byte // edwards25519 signature over (Key || ContentHash || Dump)
}

// Store wraps a database/sql handle with the IR cache's schema and queries.
type Store struct {
	db     *sql.DB
	driver Driver
}

// Open opens (creating if necessary) a snapshot store using driver against
// dsn.
func Open(driver Driver, dsn string) (*Store, error) {
	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", driver, err)
	}
	s := &Store{db: db, driver: driver}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ir_snapshots (
			entity_key   TEXT PRIMARY KEY,
			content_hash TEXT NOT NULL,
			dump         BLOB NOT NULL,
			compiled_on  TEXT NOT NULL,
			signature    BLOB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("snapshot: schema init: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// ContentHash computes the cache key's content hash from a graph's raw
// dump bytes, so a byte-identical recompile of an unchanged procedure is
// recognized even across process restarts.
func ContentHash(dump []byte) [32]byte { return sha256.Sum256(dump) }

// Put inserts or replaces the cached record for r.Key.
func (s *Store) Put(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ir_snapshots (entity_key, content_hash, dump, compiled_on, signature)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(entity_key) DO UPDATE SET
			content_hash = excluded.content_hash,
			dump = excluded.dump,
			compiled_on = excluded.compiled_on,
			signature = excluded.signature
	`, r.Key, fmt.Sprintf("%x", r.ContentHash), r.Dump, r.CompiledOn.String(), r.Signature)
	if err != nil {
		return fmt.Errorf("snapshot: put %s: %w", r.Key, err)
	}
	return nil
}

// Get looks up the cached record for key, returning (nil, nil) on a cache
// miss rather than an error — a miss is an expected, routine outcome.
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT content_hash, dump, compiled_on, signature
		FROM ir_snapshots WHERE entity_key = ?`, key)

	var hashHex, compiledOn string
	var dump, sig []byte
	if err := row.Scan(&hashHex, &dump, &compiledOn, &sig); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot: get %s: %w", key, err)
	}
	date, err := civil.ParseDate(compiledOn)
	if err != nil {
		return nil, fmt.Errorf("snapshot: get %s: parse compiled_on: %w", key, err)
	}
	var hash [32]byte
	if _, err := fmt.Sscanf(hashHex, "%x", &hash); err != nil {
		return nil, fmt.Errorf("snapshot: get %s: parse content_hash: %w", key, err)
	}
	return &Record{Key: key, ContentHash: hash, Dump: dump, CompiledOn: date, Signature: sig}, nil
}

// Fresh reports whether a cached record's content hash matches the
// current dump, meaning the cached compilation result can be reused
// without rerunning the pipeline.
func Fresh(r *Record, currentDump []byte) bool {
	if r == nil {
		return false
	}
	return r.ContentHash == ContentHash(currentDump)
}
