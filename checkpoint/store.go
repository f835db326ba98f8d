package checkpoint

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/joeycumines/go-wipecore/logging"
)

// schema is the `checkpoints` table, including its unique
// constraint on (device_path, algorithm, operation_id) and the indices
// named there.
const schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	id                 TEXT PRIMARY KEY,
	device_path        TEXT NOT NULL,
	algorithm          TEXT NOT NULL,
	operation_id       TEXT NOT NULL,
	current_pass       INTEGER NOT NULL DEFAULT 0,
	total_passes       INTEGER NOT NULL DEFAULT 0,
	bytes_written      INTEGER NOT NULL DEFAULT 0,
	total_size         INTEGER NOT NULL DEFAULT 0,
	sectors_completed  TEXT NOT NULL DEFAULT '[]',
	state              TEXT NOT NULL DEFAULT '{}',
	config             TEXT NOT NULL DEFAULT '{}',
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL,
	error_count        INTEGER NOT NULL DEFAULT 0,
	last_error         TEXT,
	UNIQUE (device_path, algorithm, operation_id)
);
CREATE INDEX IF NOT EXISTS idx_checkpoints_device_path ON checkpoints (device_path);
CREATE INDEX IF NOT EXISTS idx_checkpoints_updated_at ON checkpoints (updated_at);
CREATE INDEX IF NOT EXISTS idx_checkpoints_operation_id ON checkpoints (operation_id);
CREATE INDEX IF NOT EXISTS idx_checkpoints_device_algorithm ON checkpoints (device_path, algorithm);
`

// saveWarnThreshold is the save-latency ceiling: a save is expected to
// finish within 100 ms, and logs a warning when it doesn't.
const saveWarnThreshold = 100 * time.Millisecond

// Stats summarizes the store's contents `stats()`.
type Stats struct {
	TotalRecords int
	OldestUpdate time.Time
	NewestUpdate time.Time
}

// Store is the transactional CheckpointStore, backed by a
// pure-Go SQLite engine (modernc.org/sqlite) through sqlx.
type Store struct {
	db    *sqlx.DB
	log   *logging.Logger
	trace *logrus.Logger
}

// Open opens (creating if necessary) the checkpoint database at path,
// enables WAL journaling and a synchronous=NORMAL fsync policy, and
// ensures the schema exists.
func Open(path string, log *logging.Logger) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers across connections

	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA foreign_keys=ON;`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("checkpoint: pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("checkpoint: create schema: %w", err)
	}

	return &Store{db: db, log: log, trace: logrusNullWriter}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// Save upserts r, keyed on (device_path, algorithm, operation_id),
// inside a single transaction. If r.ID is empty, a fresh uuid is
// assigned. Logs a warning if the save exceeds saveWarnThreshold.
func (s *Store) Save(r *Record) error {
	start := time.Now()
	defer func() {
		if d := time.Since(start); d > saveWarnThreshold {
			logging.WithComponent(s.log, "checkpoint").Warning().
				Str("device_path", r.DevicePath).
				Str("algorithm", r.Algorithm).
				Log("checkpoint save exceeded 100ms target")
		}
	}()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := Timestamp{time.Now().UTC()}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("checkpoint: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existingID string
	err = tx.Get(&existingID, `SELECT id FROM checkpoints WHERE device_path = ? AND algorithm = ? AND operation_id = ?`,
		r.DevicePath, r.Algorithm, r.OperationID)
	switch {
	case err == nil:
		r.ID = existingID
		_, err = tx.Exec(`
			UPDATE checkpoints SET
				current_pass = ?, total_passes = ?, bytes_written = ?, total_size = ?,
				sectors_completed = ?, state = ?, config = ?, updated_at = ?,
				error_count = ?, last_error = ?
			WHERE id = ?`,
			r.CurrentPass, r.TotalPasses, r.BytesWritten, r.TotalSize,
			r.SectorsCompleted, r.State, r.Config, r.UpdatedAt,
			r.ErrorCount, r.LastError, r.ID)
	case err == sql.ErrNoRows:
		_, err = tx.Exec(`
			INSERT INTO checkpoints (
				id, device_path, algorithm, operation_id, current_pass, total_passes,
				bytes_written, total_size, sectors_completed, state, config,
				created_at, updated_at, error_count, last_error
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.DevicePath, r.Algorithm, r.OperationID, r.CurrentPass, r.TotalPasses,
			r.BytesWritten, r.TotalSize, r.SectorsCompleted, r.State, r.Config,
			r.CreatedAt, r.UpdatedAt,
			r.ErrorCount, r.LastError)
	default:
		return fmt.Errorf("checkpoint: lookup existing: %w", err)
	}
	if err != nil {
		return fmt.Errorf("checkpoint: upsert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("checkpoint: commit: %w", err)
	}

	s.trace.WithFields(logrus.Fields{
		"device_path": r.DevicePath,
		"algorithm":   r.Algorithm,
		"pass":        r.CurrentPass,
	}).Debug("checkpoint saved")

	return nil
}

// Load returns the most recently updated record for (device, algorithm),
// `load(device, algo)`. Returns (nil, nil) when none
// exists: the resume-caller's "query first" semantics
// treat absence as "start fresh", not an error.
func (s *Store) Load(device, algorithm string) (*Record, error) {
	var r Record
	err := s.db.Get(&r, `
		SELECT * FROM checkpoints
		WHERE device_path = ? AND algorithm = ?
		ORDER BY updated_at DESC LIMIT 1`, device, algorithm)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checkpoint: load: %w", err)
	}
	return &r, nil
}

// LoadByID returns the record with the given id, or (nil, nil) if absent.
func (s *Store) LoadByID(id string) (*Record, error) {
	var r Record
	err := s.db.Get(&r, `SELECT * FROM checkpoints WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checkpoint: load by id: %w", err)
	}
	return &r, nil
}

// Delete removes the record with the given id. Deleting an absent id is
// not an error per the round-trip property
// "delete(id); load_by_id(id) = none".
func (s *Store) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM checkpoints WHERE id = ?`, id); err != nil {
		return fmt.Errorf("checkpoint: delete: %w", err)
	}
	return nil
}

// DeleteByDevice removes every record for (device, algorithm); used on
// clean completion, which must delete its record.
func (s *Store) DeleteByDevice(device, algorithm string) error {
	if _, err := s.db.Exec(`DELETE FROM checkpoints WHERE device_path = ? AND algorithm = ?`, device, algorithm); err != nil {
		return fmt.Errorf("checkpoint: delete by device: %w", err)
	}
	return nil
}

// ListAll returns every record, most recently updated first.
func (s *Store) ListAll() ([]Record, error) {
	var rs []Record
	if err := s.db.Select(&rs, `SELECT * FROM checkpoints ORDER BY updated_at DESC`); err != nil {
		return nil, fmt.Errorf("checkpoint: list all: %w", err)
	}
	return rs, nil
}

// CleanupStale deletes records whose updated_at is older than maxAge,
// returning the number deleted.
func (s *Store) CleanupStale(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`DELETE FROM checkpoints WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("checkpoint: cleanup stale: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checkpoint: cleanup stale rows affected: %w", err)
	}
	return int(n), nil
}

// Stats reports the store's current size and update-time range.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	var count int
	var oldest, newest sql.NullString
	err := s.db.QueryRow(`SELECT COUNT(*), MIN(updated_at), MAX(updated_at) FROM checkpoints`).
		Scan(&count, &oldest, &newest)
	if err != nil {
		return Stats{}, fmt.Errorf("checkpoint: stats: %w", err)
	}
	st.TotalRecords = count
	if oldest.Valid {
		st.OldestUpdate, _ = time.Parse(time.RFC3339, oldest.String)
	}
	if newest.Valid {
		st.NewestUpdate, _ = time.Parse(time.RFC3339, newest.String)
	}
	return st, nil
}

// logrusNullWriter silences Save's trace output by default; production
// callers pass their own *logrus.Logger via WithTraceLogger.
var logrusNullWriter = func() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.FatalLevel)
	return l
}()

// WithTraceLogger attaches a logrus-shaped SQL trace sink to the store;
// Save writes its trace entries to this logrus.Logger rather than the
// ambient logiface logger. Every Save call after this is traced at Debug
// level.
func (s *Store) WithTraceLogger(l *logrus.Logger) {
	if l == nil {
		l = logrusNullWriter
	}
	s.trace = l
}
