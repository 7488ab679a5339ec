package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"nickandperla.net/manipulator/internal/sim"
)

// Current schema version
const SchemaVersion = "1"

// SQLite is a SQLite-backed history store.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path. ":memory:" keeps
// the database in process memory.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}

	version, err := s.getMetadataUnlocked("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}

	switch version {
	case "":
		if err := s.migrateToV1(); err != nil {
			db.Close()
			return nil, err
		}
		if err := s.setMetadataUnlocked("schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	case SchemaVersion:
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}

	return s, nil
}

// migrateToV1 creates the runs table.
func (s *SQLite) migrateToV1() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			original TEXT NOT NULL,
			optimized TEXT NOT NULL,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			completed TEXT NOT NULL,
			samples_before TEXT NOT NULL,
			samples_after TEXT NOT NULL
		);
	`)
	return err
}

// Add appends a record.
func (s *SQLite) Add(r Record) error {
	before, err := json.Marshal(r.SamplesBefore)
	if err != nil {
		return err
	}
	after, err := json.Marshal(r.SamplesAfter)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(`
		INSERT INTO runs (id, original, optimized, date, time, completed, samples_before, samples_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Original, r.Optimized, r.Date, r.Time,
		r.Completed.Format(time.RFC3339Nano), string(before), string(after))
	return err
}

const selectRuns = `SELECT id, original, optimized, date, time, completed, samples_before, samples_after FROM runs`

// List returns up to limit records, newest first.
func (s *SQLite) List(limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := selectRuns + " ORDER BY seq DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Get retrieves a record by id.
func (s *SQLite) Get(id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := scanRecord(s.db.QueryRow(selectRuns+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		r                     Record
		completed             string
		beforeJSON, afterJSON string
	)
	if err := row.Scan(&r.ID, &r.Original, &r.Optimized, &r.Date, &r.Time,
		&completed, &beforeJSON, &afterJSON); err != nil {
		return Record{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, completed)
	if err != nil {
		return Record{}, fmt.Errorf("record %s: completed: %w", r.ID, err)
	}
	r.Completed = t
	if r.SamplesBefore, err = decodeSamples(beforeJSON); err != nil {
		return Record{}, fmt.Errorf("record %s: samples_before: %w", r.ID, err)
	}
	if r.SamplesAfter, err = decodeSamples(afterJSON); err != nil {
		return Record{}, fmt.Errorf("record %s: samples_after: %w", r.ID, err)
	}
	return r, nil
}

func decodeSamples(s string) ([]sim.Sample, error) {
	var samples []sim.Sample
	if err := json.Unmarshal([]byte(s), &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// getMetadataUnlocked retrieves metadata without locking (caller must hold lock).
func (s *SQLite) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// setMetadataUnlocked stores metadata without locking (caller must hold lock).
func (s *SQLite) setMetadataUnlocked(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
