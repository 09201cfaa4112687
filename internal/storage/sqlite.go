//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"helix/internal/model"

	_ "modernc.org/sqlite"
)

// busyTimeoutMillis bounds how long a write waits on a lock held by another
// process sharing the database file.
const busyTimeoutMillis = 5000

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", sqliteDSN(s.path))
	if err != nil {
		return err
	}
	// Writers in this process queue on a single connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run model.RunRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	return saveRun(ctx, db, run)
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (model.RunRecord, bool, error) {
	payload, ok, err := s.getPayload(ctx, `SELECT payload FROM runs WHERE id = ?`, id)
	if err != nil || !ok {
		return model.RunRecord{}, false, err
	}

	run, err := DecodeRun(payload)
	if err != nil {
		return model.RunRecord{}, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, true, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM runs ORDER BY created_at DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.RunRecord
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		run, err := DecodeRun(payload)
		if err != nil {
			return nil, fmt.Errorf("decode run %s: %w", id, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) SaveLossHistory(ctx context.Context, runID string, history []float64) error {
	payload, err := EncodeLossHistory(history)
	if err != nil {
		return err
	}
	return s.putPayload(ctx, tableLossHistory, runID, payload)
}

func (s *SQLiteStore) GetLossHistory(ctx context.Context, runID string) ([]float64, bool, error) {
	payload, ok, err := s.getPayload(ctx, `SELECT payload FROM loss_history WHERE run_id = ?`, runID)
	if err != nil || !ok {
		return nil, false, err
	}

	history, err := DecodeLossHistory(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode loss history %s: %w", runID, err)
	}
	return history, true, nil
}

func (s *SQLiteStore) SaveGenerationDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error {
	payload, err := EncodeGenerationDiagnostics(diagnostics)
	if err != nil {
		return err
	}
	return s.putPayload(ctx, tableDiagnostics, runID, payload)
}

func (s *SQLiteStore) GetGenerationDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error) {
	payload, ok, err := s.getPayload(ctx, `SELECT payload FROM diagnostics WHERE run_id = ?`, runID)
	if err != nil || !ok {
		return nil, false, err
	}

	diagnostics, err := DecodeGenerationDiagnostics(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode diagnostics %s: %w", runID, err)
	}
	return diagnostics, true, nil
}

func (s *SQLiteStore) SaveChampion(ctx context.Context, champion model.Champion) error {
	payload, err := EncodeChampion(champion)
	if err != nil {
		return err
	}
	return s.putPayload(ctx, tableChampions, champion.RunID, payload)
}

func (s *SQLiteStore) GetChampion(ctx context.Context, runID string) (model.Champion, bool, error) {
	payload, ok, err := s.getPayload(ctx, `SELECT payload FROM champions WHERE run_id = ?`, runID)
	if err != nil || !ok {
		return model.Champion{}, false, err
	}

	champion, err := DecodeChampion(payload)
	if err != nil {
		return model.Champion{}, false, fmt.Errorf("decode champion %s: %w", runID, err)
	}
	return champion, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

// SaveRunBundle writes the run and its artifacts in one transaction.
func (s *SQLiteStore) SaveRunBundle(ctx context.Context, bundle RunBundle) error {
	if err := bundle.validate(); err != nil {
		return err
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	history, err := EncodeLossHistory(bundle.LossHistory)
	if err != nil {
		return err
	}
	diagnostics, err := EncodeGenerationDiagnostics(bundle.Diagnostics)
	if err != nil {
		return err
	}
	champion, err := EncodeChampion(bundle.Champion)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	id := bundle.Run.ID
	if err := saveRun(ctx, tx, bundle.Run); err != nil {
		return err
	}
	if err := putPayload(ctx, tx, tableLossHistory, id, history); err != nil {
		return err
	}
	if err := putPayload(ctx, tx, tableDiagnostics, id, diagnostics); err != nil {
		return err
	}
	if err := putPayload(ctx, tx, tableChampions, id, champion); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) putPayload(ctx context.Context, table, runID string, payload []byte) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	return putPayload(ctx, db, table, runID, payload)
}

// Run-keyed payload tables. Only these constants are ever interpolated
// into SQL.
const (
	tableLossHistory = "loss_history"
	tableDiagnostics = "diagnostics"
	tableChampions   = "champions"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveRun(ctx context.Context, ex execer, run model.RunRecord) error {
	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, run.ID, run.CreatedAtUnixMilli, run.SchemaVersion, run.CodecVersion, payload)
	return err
}

func putPayload(ctx context.Context, ex execer, table, runID string, payload []byte) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO `+table+` (run_id, payload)
		VALUES (?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			payload = excluded.payload
	`, runID, payload)
	return err
}

// sqliteDSN appends the busy timeout pragma understood by modernc.org/sqlite.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", path, sep, busyTimeoutMillis)
}

func (s *SQLiteStore) getPayload(ctx context.Context, query, key string) ([]byte, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, query, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at);
		CREATE TABLE IF NOT EXISTS loss_history (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS diagnostics (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS champions (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
	`)
	return err
}
